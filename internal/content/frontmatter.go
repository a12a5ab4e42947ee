package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// Delimiter marks the start and end of the front-matter block.
const Delimiter = "---"

// frontMatterEnvelope is the YAML shape of the metadata block. The inline
// map catches every key the named fields do not, so arbitrary author keys
// survive verbatim. The YAML mapping form subsumes plain `key: value` lines.
type frontMatterEnvelope struct {
	Title    string            `yaml:"title"`
	Date     string            `yaml:"date"`
	Name     string            `yaml:"name"`
	Template string            `yaml:"template"`
	Publish  bool              `yaml:"publish"`
	Bare     bool              `yaml:"bare"`
	Extra    map[string]string `yaml:",inline"`
}

// ParseFrontMatter splits raw file content into metadata and body. It is a
// pure function of its input: no filesystem access, no shared state.
//
// Title and date are required; their absence after a successful parse is
// ErrFrontMatterIncomplete. A block the YAML parser rejects is
// ErrFrontMatterMalformed, with the first line lacking a `key: value`
// separator named in the message when one can be found.
func ParseFrontMatter(source []byte) (Metadata, []byte, error) {
	var env frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &env)
	if err != nil {
		return Metadata{}, nil, malformed(source, err)
	}

	if strings.TrimSpace(env.Title) == "" {
		return Metadata{}, nil, fmt.Errorf("%w: missing required key %q", ErrFrontMatterIncomplete, "title")
	}
	if strings.TrimSpace(env.Date) == "" {
		return Metadata{}, nil, fmt.Errorf("%w: missing required key %q", ErrFrontMatterIncomplete, "date")
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(env.Date))
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("%w: date %q is not in %s form", ErrFrontMatterMalformed, env.Date, DateLayout)
	}

	extra := env.Extra
	if extra == nil {
		extra = map[string]string{}
	}

	meta := Metadata{
		Title:    env.Title,
		Date:     date,
		Name:     env.Name,
		Template: env.Template,
		Publish:  env.Publish,
		Bare:     env.Bare,
		Extra:    extra,
	}
	return meta, body, nil
}

// malformed pinpoints the offending metadata line when possible, otherwise
// carries the parser's own message.
func malformed(source []byte, cause error) error {
	if line, ok := offendingLine(source); ok {
		return fmt.Errorf("%w: line %q has no key: value separator", ErrFrontMatterMalformed, line)
	}
	return fmt.Errorf("%w: %v", ErrFrontMatterMalformed, cause)
}

func offendingLine(source []byte) (string, bool) {
	lines := strings.Split(string(source), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != Delimiter {
		return "", false
	}
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == Delimiter {
			return "", false
		}
		if trimmed == "" {
			continue
		}
		if !strings.Contains(trimmed, ":") {
			return trimmed, true
		}
	}
	return "", false
}
