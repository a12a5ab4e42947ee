// Package generator renders an aggregated content collection through HTML
// templates into a freshly rebuilt output tree, copies photo-project images
// and auxiliary include files, and writes the search index.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/finnkauski/mub/internal/content"
	"github.com/finnkauski/mub/internal/logging"
	"github.com/finnkauski/mub/internal/search"
)

// indexTemplate is the top-level page rendered on every build.
const indexTemplate = "index.html"

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir    string
	TemplatesDir string
	// IncludeDir, when set and present, is mirrored under the output root.
	IncludeDir string
	// Pages lists extra top-level templates rendered once each from the
	// full collection (search landing, archives, ...).
	Pages       []string
	SearchIndex bool
	// Strict aborts the build on the first failure; lenient records it and
	// keeps rendering siblings. Must match the pipeline's policy.
	Strict  bool
	Workers int
	// Site is arbitrary site-wide metadata exposed to every template.
	Site map[string]any
}

// BuildResult reports aggregated build output.
type BuildResult struct {
	ItemsRendered int
	ItemsFailed   int
	ImagesCopied  int
	PagesRendered int
	IndexWritten  bool
	Duration      time.Duration
	// Errors collects the failures a lenient build skipped over.
	Errors []error
}

// Service renders one collection per Build call.
type Service struct {
	cfg    Config
	engine *Engine
	logger logging.Logger
}

// NewService parses the template set up front so a broken template fails
// the run before the output root is torn down.
func NewService(cfg Config, logger logging.Logger) (*Service, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Site == nil {
		cfg.Site = map[string]any{}
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	engine, err := NewEngine(cfg.TemplatesDir)
	if err != nil {
		return nil, err
	}

	return &Service{cfg: cfg, engine: engine, logger: logger}, nil
}

// Build replaces the output root and renders the collection into it.
//
// Item renders run on a worker pool; destinations are disjoint pure
// functions of each source path, so no write coordination is needed beyond
// the shared result. Top-level pages and the search index run strictly
// after every item has settled, because both need the complete collection.
func (s *Service) Build(ctx context.Context, coll *content.Collection) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	result := &BuildResult{}

	// One build at a time per output root; the teardown below is
	// destructive and must not interleave with another run's writes.
	lock := flock.New(s.cfg.OutputDir + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output root %s: %w", s.cfg.OutputDir, err)
	}
	if !locked {
		return nil, fmt.Errorf("output root %s is locked by another build", s.cfg.OutputDir)
	}
	defer lock.Unlock()

	if err := s.prepareOutput(); err != nil {
		return nil, err
	}

	s.renderItems(ctx, coll, result)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if s.cfg.Strict && len(result.Errors) > 0 {
		result.Duration = time.Since(start)
		return result, errors.Join(result.Errors...)
	}

	for _, name := range s.topPages() {
		if err := s.renderPage(name, coll); err != nil {
			result.Errors = append(result.Errors, err)
			if s.cfg.Strict {
				result.Duration = time.Since(start)
				return result, err
			}
			s.logger.Warn("top-level page skipped", "template", name, "error", err.Error())
			continue
		}
		result.PagesRendered++
	}

	if s.cfg.SearchIndex {
		// Index construction is strict regardless of policy: one malformed
		// item aborts the write, never a partial index.
		if err := s.writeIndex(coll); err != nil {
			result.Errors = append(result.Errors, err)
			if s.cfg.Strict {
				result.Duration = time.Since(start)
				return result, err
			}
			s.logger.Warn("search index skipped", "error", err.Error())
		} else {
			result.IndexWritten = true
		}
	}

	if s.cfg.IncludeDir != "" {
		if _, err := os.Stat(s.cfg.IncludeDir); err == nil {
			if err := copyTree(s.cfg.IncludeDir, s.cfg.OutputDir); err != nil {
				result.Errors = append(result.Errors, err)
				if s.cfg.Strict {
					result.Duration = time.Since(start)
					return result, err
				}
				s.logger.Warn("include tree skipped", "error", err.Error())
			}
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info("build finished",
		"items", result.ItemsRendered,
		"failed", result.ItemsFailed,
		"pages", result.PagesRendered,
		"images", result.ImagesCopied,
		"index", result.IndexWritten,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// prepareOutput tears the output root down and recreates it, so no stale
// artifact from a previous run survives. There is no atomic swap: readers
// of the output tree during a build may observe a partially rebuilt tree.
func (s *Service) prepareOutput() error {
	if err := os.RemoveAll(s.cfg.OutputDir); err != nil {
		return fmt.Errorf("remove output root %s: %w", s.cfg.OutputDir, err)
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output root %s: %w", s.cfg.OutputDir, err)
	}
	return nil
}

func (s *Service) renderItems(ctx context.Context, coll *content.Collection, result *BuildResult) {
	runCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.Strict {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	var mu sync.Mutex
	collect := func(images int, err error) {
		mu.Lock()
		defer mu.Unlock()
		result.ImagesCopied += images
		if err != nil {
			result.Errors = append(result.Errors, err)
			result.ItemsFailed++
			if cancel != nil {
				cancel()
			}
			return
		}
		result.ItemsRendered++
	}

	workers := s.cfg.Workers
	if len(coll.Items) > 0 && workers > len(coll.Items) {
		workers = len(coll.Items)
	}

	jobs := make(chan *content.Item)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				select {
				case <-runCtx.Done():
					continue
				default:
				}
				images, err := s.renderItem(runCtx, item, coll)
				if err != nil {
					s.logger.Warn("item render failed",
						"path", item.Location.SourcePath, "error", err.Error())
				}
				collect(images, err)
			}
		}()
	}

	for i := range coll.Items {
		jobs <- &coll.Items[i]
	}
	close(jobs)
	wg.Wait()
}

// renderItem writes one item to its destination. Photo-project images are
// copied as a nested parallel batch and fanned back in before the project's
// own page renders.
func (s *Service) renderItem(ctx context.Context, item *content.Item, coll *content.Collection) (int, error) {
	copied := 0
	if item.Kind == content.KindPhotoProject && len(item.Images) > 0 {
		n, err := s.copyImages(ctx, item)
		copied = n
		if err != nil {
			return copied, err
		}
	}

	dest := item.Location.DestinationPath
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return copied, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}

	var page []byte
	if item.Meta.Bare {
		page = []byte(item.HTML)
	} else {
		var err error
		page, err = s.engine.Render(item.TemplateName(), PageContext{
			Site:        s.cfg.Site,
			Item:        item,
			GeneratedAt: coll.GeneratedAt,
		})
		if err != nil {
			return copied, err
		}
	}

	if err := os.WriteFile(dest, page, 0o644); err != nil {
		return copied, fmt.Errorf("write %s: %w", dest, err)
	}
	return copied, nil
}

func (s *Service) copyImages(ctx context.Context, item *content.Item) (int, error) {
	destDir := filepath.Dir(item.Location.DestinationPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", destDir, err)
	}

	g, _ := errgroup.WithContext(ctx)
	for _, img := range item.Images {
		g.Go(func() error {
			return copyFile(img.SourcePath, filepath.Join(destDir, img.Name))
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(item.Images), nil
}

// topPages always includes the index, then any configured extras.
func (s *Service) topPages() []string {
	pages := []string{indexTemplate}
	for _, name := range s.cfg.Pages {
		if name == indexTemplate {
			continue
		}
		pages = append(pages, name)
	}
	return pages
}

// renderPage renders one top-level page from the full collection context.
func (s *Service) renderPage(name string, coll *content.Collection) error {
	page, err := s.engine.Render(name, PageContext{
		Site:        s.cfg.Site,
		Items:       coll.Items,
		GeneratedAt: coll.GeneratedAt,
	})
	if err != nil {
		return err
	}

	dest := filepath.Join(s.cfg.OutputDir, name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, page, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

func (s *Service) writeIndex(coll *content.Collection) error {
	payload, err := search.BuildIndex(coll)
	if err != nil {
		return err
	}
	dest := filepath.Join(s.cfg.OutputDir, search.IndexFilename)
	if err := os.WriteFile(dest, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

// copyTree mirrors src under dst, creating directories as needed.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
