package content

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is the only accepted front-matter date format.
const DateLayout = "2006-01-02"

// SourceFormat tags how an item's body text reaches HTML.
type SourceFormat int

const (
	// FormatMarkdown bodies are converted through goldmark and carry an
	// extracted plain-text projection for search.
	FormatMarkdown SourceFormat = iota
	// FormatHTML bodies pass through untouched and have no text projection.
	FormatHTML
)

func (f SourceFormat) String() string {
	if f == FormatHTML {
		return "html"
	}
	return "markdown"
}

// Kind distinguishes the two content shapes mub understands.
type Kind int

const (
	KindPost Kind = iota
	KindPhotoProject
)

func (k Kind) String() string {
	if k == KindPhotoProject {
		return "photo-project"
	}
	return "post"
}

// Subdir is the output subdirectory items of this kind render into.
func (k Kind) Subdir() string {
	if k == KindPhotoProject {
		return "photos"
	}
	return "posts"
}

// DefaultTemplate is the template used when front matter names none.
func (k Kind) DefaultTemplate() string {
	if k == KindPhotoProject {
		return "photo.html"
	}
	return "post.html"
}

// Metadata is the typed front-matter record. Required keys are struct
// fields so a missing title or date fails at parse time; everything else
// the author wrote is preserved verbatim in Extra.
type Metadata struct {
	Title    string
	Date     time.Time
	Name     string
	Template string
	Publish  bool
	Bare     bool
	Extra    map[string]string
}

// DateString formats the date back into its front-matter form.
func (m Metadata) DateString() string {
	return m.Date.Format(DateLayout)
}

// Location fixes where an item came from and where it is going. Destination
// and URL are pure functions of the source filename and the output root:
// two items sharing a stem collide and the later write wins.
type Location struct {
	SourcePath      string
	DestinationPath string
	OutputURL       string
	Filename        string
}

// NewLocation derives the output URL ({kind-subdir}/{stem}.html) and the
// destination path under the output root.
func NewLocation(sourcePath, stem, subdir, outputRoot string) Location {
	url := path.Join(subdir, stem+".html")
	return Location{
		SourcePath:      sourcePath,
		DestinationPath: filepath.Join(outputRoot, filepath.FromSlash(url)),
		OutputURL:       url,
		Filename:        stem,
	}
}

// ImageRef names one member image of a photo project.
type ImageRef struct {
	Name       string
	SourcePath string
}

// Item is the unit of work and of output.
type Item struct {
	Meta     Metadata
	Kind     Kind
	Format   SourceFormat
	Location Location
	Raw      string
	HTML     string
	// Text holds the plain-text projection of a markdown body, extracted in
	// the same parse pass that produced HTML. Its presence is keyed off
	// Format: HTML sources never have one.
	Text   string
	Images []ImageRef
}

// TemplateName resolves the template for this item: explicit front-matter
// override first, then the kind default.
func (it *Item) TemplateName() string {
	if it.Meta.Template != "" {
		return it.Meta.Template
	}
	return it.Kind.DefaultTemplate()
}

// Searchable returns the text used for the search index: the extracted
// text when the source was markdown, the raw body otherwise.
func (it *Item) Searchable() string {
	if it.Format == FormatMarkdown {
		return it.Text
	}
	return it.Raw
}

var displayCaser = cases.Title(language.English)

// DisplayName prefers the front-matter name and falls back to a title-cased
// rendering of the filename stem.
func (it *Item) DisplayName() string {
	if it.Meta.Name != "" {
		return it.Meta.Name
	}
	stem := strings.ReplaceAll(strings.ReplaceAll(it.Location.Filename, "-", " "), "_", " ")
	return displayCaser.String(stem)
}

// Collection is the complete aggregate for one run. It is built once by the
// pipeline, sorted, and treated as read-only for the render phase.
type Collection struct {
	RunID       uuid.UUID
	GeneratedAt time.Time
	Items       []Item
}

// NewCollection stamps the shared generation time for every page of the run.
func NewCollection(now time.Time) *Collection {
	return &Collection{
		RunID:       uuid.New(),
		GeneratedAt: now,
	}
}

// Sort fixes the canonical order: newest first, source path as tiebreak.
// Merge order across workers is unspecified, so this sort is what makes
// repeat runs over the same tree byte-identical.
func (c *Collection) Sort() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		a, b := c.Items[i], c.Items[j]
		if !a.Meta.Date.Equal(b.Meta.Date) {
			return a.Meta.Date.After(b.Meta.Date)
		}
		return a.Location.SourcePath < b.Location.SourcePath
	})
}

// Published returns the subset of items flagged publish: true.
func (c *Collection) Published() []Item {
	out := make([]Item, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Meta.Publish {
			out = append(out, item)
		}
	}
	return out
}
