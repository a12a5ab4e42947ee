package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ProjectContentFile is the canonical content file inside a photo-project
// directory.
const ProjectContentFile = "post.html"

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Classify decides what one immediate child of the content root is: a file
// with a recognized extension is a standalone post, a directory is a photo
// project. The returned item carries kind, format, location, and (for
// projects) the member images; metadata and body are filled in later by the
// pipeline.
func Classify(contentRoot string, entry fs.DirEntry, outputRoot string) (*Item, error) {
	name := entry.Name()
	sourcePath := filepath.Join(contentRoot, name)

	if entry.IsDir() {
		return classifyProject(sourcePath, name, outputRoot)
	}

	ext := strings.ToLower(filepath.Ext(name))
	var format SourceFormat
	switch ext {
	case ".md":
		format = FormatMarkdown
	case ".html":
		format = FormatHTML
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, name)
	}

	stem := strings.TrimSuffix(name, ext)
	return &Item{
		Kind:     KindPost,
		Format:   format,
		Location: NewLocation(sourcePath, stem, KindPost.Subdir(), outputRoot),
	}, nil
}

// classifyProject collects the project's images in directory-iteration
// order, excluding the canonical content file. A project without that file
// fails on its own; the rest of the run is unaffected.
func classifyProject(dir, name, outputRoot string) (*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read project directory %s: %w", dir, err)
	}

	var images []ImageRef
	hasContent := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.Name() == ProjectContentFile {
			hasContent = true
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, ok := imageExtensions[ext]; ok {
			images = append(images, ImageRef{
				Name:       e.Name(),
				SourcePath: filepath.Join(dir, e.Name()),
			})
		}
	}

	if !hasContent {
		return nil, fmt.Errorf("%w: %s has no %s", ErrProjectContentMissing, dir, ProjectContentFile)
	}

	return &Item{
		Kind:     KindPhotoProject,
		Format:   FormatHTML,
		Location: NewLocation(filepath.Join(dir, ProjectContentFile), name, KindPhotoProject.Subdir(), outputRoot),
		Images:   images,
	}, nil
}
