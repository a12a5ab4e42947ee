// Package mub turns a directory of front-matter content files into a static
// site: one ingest-transform-render pass per invocation, no incremental
// state between runs.
package mub

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/finnkauski/mub/internal/generator"
	"github.com/finnkauski/mub/internal/logging"
	"github.com/finnkauski/mub/internal/pipeline"
)

const (
	codePipelineFailed = "PIPELINE_RUN_FAILED"
	codeBuildFailed    = "BUILD_FAILED"
)

// Generate runs one full pass: ingest the content root, aggregate, render,
// index. Under the default lenient policy per-item failures are logged as a
// skip summary after a successful run; under strict policy the first
// failure aborts everything.
func Generate(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	provider, err := logging.NewProvider(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	log := provider.Module("mub")

	pipe := pipeline.New(pipeline.Options{
		ContentRoot: cfg.Input,
		OutputRoot:  cfg.Output,
		Workers:     cfg.Workers,
		Strict:      cfg.Strict,
	}, provider.Module("mub.pipeline"))

	coll, itemErrs, err := pipe.Run(ctx)
	if err != nil {
		return wrapRunError(err, codePipelineFailed, "content ingestion failed")
	}

	svc, err := generator.NewService(generator.Config{
		OutputDir:    cfg.Output,
		TemplatesDir: cfg.Templates,
		IncludeDir:   cfg.Include,
		Pages:        cfg.Pages,
		SearchIndex:  cfg.Search,
		Strict:       cfg.Strict,
		Workers:      cfg.Workers,
		Site:         cfg.Site,
	}, provider.Module("mub.generator"))
	if err != nil {
		return wrapRunError(err, codeBuildFailed, "template setup failed")
	}

	result, err := svc.Build(ctx, coll)
	if err != nil {
		return wrapRunError(err, codeBuildFailed, "site build failed")
	}

	for _, ie := range itemErrs {
		log.Warn("item skipped", "path", ie.Path, "error", ie.Err.Error())
	}
	for _, be := range result.Errors {
		log.Warn("build step skipped", "error", be.Error())
	}
	log.Info("site generated",
		"run_id", coll.RunID.String(),
		"items", result.ItemsRendered,
		"pages", result.PagesRendered,
		"images", result.ImagesCopied,
		"skipped", len(itemErrs)+result.ItemsFailed,
		"index", result.IndexWritten,
		"duration", result.Duration.String(),
	)
	return nil
}

func wrapRunError(err error, code, msg string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, fmt.Sprintf("mub: %s", msg)).
		WithTextCode(code)
}
