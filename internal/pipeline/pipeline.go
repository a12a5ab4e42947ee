// Package pipeline walks the content root, fans each child out to a bounded
// worker pool for classification, parsing, and conversion, and fans the
// results back into one complete collection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/finnkauski/mub/internal/content"
	"github.com/finnkauski/mub/internal/logging"
	"github.com/finnkauski/mub/internal/markdown"
)

// ItemError attributes one failure to the content-root child that caused it.
type ItemError struct {
	Path string
	Err  error
}

func (e ItemError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e ItemError) Unwrap() error { return e.Err }

// Options configure one ingestion run.
type Options struct {
	ContentRoot string
	OutputRoot  string
	// Workers bounds the pool; zero means available parallelism.
	Workers int
	// Strict aborts the whole run on the first item failure. The default
	// (lenient) skips the item and records the error for reporting.
	Strict bool
}

// Pipeline ingests a content tree. Safe for a single Run per instance.
type Pipeline struct {
	opts      Options
	converter *markdown.Converter
	logger    logging.Logger
	now       func() time.Time
}

// New wires a pipeline. A nil logger is replaced with a no-op.
func New(opts Options, logger logging.Logger) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Pipeline{
		opts:      opts,
		converter: markdown.NewConverter(),
		logger:    logger,
		now:       time.Now,
	}
}

// Run lists the immediate children of the content root and processes each
// one concurrently through classify, read, front-matter parse, and body
// conversion. Every unit yields exactly one item or one attributed error;
// merge order is unspecified but loss-free under any worker count. After
// the merge the collection is sorted into its canonical order.
//
// Under the lenient policy Run returns the partial collection together with
// the recorded item errors. Under strict policy the first failure cancels
// outstanding units and Run returns the joined error.
func (p *Pipeline) Run(ctx context.Context) (*content.Collection, []ItemError, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	entries, err := os.ReadDir(p.opts.ContentRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("read content root %s: %w", p.opts.ContentRoot, err)
	}

	coll := content.NewCollection(p.now())

	runCtx := ctx
	var cancel context.CancelFunc
	if p.opts.Strict {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	var (
		mu       sync.Mutex
		itemErrs []ItemError
	)
	collect := func(item *content.Item, unitErr *ItemError) {
		mu.Lock()
		defer mu.Unlock()
		if unitErr != nil {
			itemErrs = append(itemErrs, *unitErr)
			if cancel != nil {
				cancel()
			}
			return
		}
		coll.Items = append(coll.Items, *item)
	}

	workers := p.opts.Workers
	if len(entries) > 0 && workers > len(entries) {
		workers = len(entries)
	}

	jobs := make(chan os.DirEntry)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				select {
				case <-runCtx.Done():
					continue
				default:
				}
				item, err := p.process(entry)
				if err != nil {
					path := filepath.Join(p.opts.ContentRoot, entry.Name())
					p.logger.Warn("item failed", "path", path, "error", err.Error())
					collect(nil, &ItemError{Path: path, Err: content.WrapItemError(err, path)})
					continue
				}
				p.logger.Debug("item ingested",
					"path", item.Location.SourcePath,
					"kind", item.Kind.String(),
					"format", item.Format.String(),
				)
				collect(item, nil)
			}
		}()
	}

	for _, entry := range entries {
		jobs <- entry
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, itemErrs, err
	}

	coll.Sort()

	p.logger.Info("content ingested",
		"run_id", coll.RunID.String(),
		"items", len(coll.Items),
		"failed", len(itemErrs),
		"workers", workers,
	)

	if p.opts.Strict && len(itemErrs) > 0 {
		errs := make([]error, 0, len(itemErrs))
		for _, ie := range itemErrs {
			errs = append(errs, ie)
		}
		return nil, itemErrs, errors.Join(errs...)
	}

	return coll, itemErrs, nil
}

// process runs one unit of work synchronously to completion.
func (p *Pipeline) process(entry os.DirEntry) (*content.Item, error) {
	item, err := content.Classify(p.opts.ContentRoot, entry, p.opts.OutputRoot)
	if err != nil {
		return nil, err
	}

	source, err := os.ReadFile(item.Location.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", item.Location.SourcePath, err)
	}

	meta, body, err := content.ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}
	item.Meta = meta
	item.Raw = string(body)

	switch item.Format {
	case content.FormatMarkdown:
		html, text, err := p.converter.Convert(body)
		if err != nil {
			return nil, err
		}
		item.HTML = html
		item.Text = text
	default:
		item.HTML = item.Raw
	}

	return item, nil
}
