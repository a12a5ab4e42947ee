package content

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrFrontMatterMalformed  = errors.New("content: front matter malformed")
	ErrFrontMatterIncomplete = errors.New("content: front matter incomplete")
	ErrUnsupportedExtension  = errors.New("content: unsupported extension")
	ErrProjectContentMissing = errors.New("content: photo project content file missing")
)

const (
	codeFrontMatterMalformed  = "FRONT_MATTER_MALFORMED"
	codeFrontMatterIncomplete = "FRONT_MATTER_INCOMPLETE"
	codeUnsupportedExtension  = "UNSUPPORTED_EXTENSION"
	codeProjectContentMissing = "PROJECT_CONTENT_MISSING"
	codeItemFailed            = "ITEM_FAILED"
)

// WrapItemError attaches the failing source path and a validation category
// to a per-item error at the pipeline boundary. Already-wrapped errors pass
// through unchanged.
func WrapItemError(err error, path string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, fmt.Sprintf("content item %s failed", path)).
		WithTextCode(textCode(err))
}

func textCode(err error) string {
	switch {
	case errors.Is(err, ErrFrontMatterMalformed):
		return codeFrontMatterMalformed
	case errors.Is(err, ErrFrontMatterIncomplete):
		return codeFrontMatterIncomplete
	case errors.Is(err, ErrUnsupportedExtension):
		return codeUnsupportedExtension
	case errors.Is(err, ErrProjectContentMissing):
		return codeProjectContentMissing
	default:
		return codeItemFailed
	}
}
