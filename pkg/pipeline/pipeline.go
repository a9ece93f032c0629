// Package pipeline orchestrates one full automation run: load the edit
// source, place the logo while tracking is off, apply the replacement
// and comment streams with tracking on, save, and summarize.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/pkg/config"
	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
	"github.com/hassansecfix/policy-edit-sub000/pkg/editsource"
	"github.com/hassansecfix/policy-edit-sub000/pkg/engine"
	"github.com/hassansecfix/policy-edit-sub000/pkg/log"
	"github.com/hassansecfix/policy-edit-sub000/pkg/report"
)

// 🎯 Runner drives one run against an already-open document. The caller
// owns the document's lifecycle; the runner never closes it.
type Runner struct {
	cfg     *config.Config
	doc     document.Document
	console *log.Logger
}

// 🏭 NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, doc document.Document, console *log.Logger) *Runner {
	return &Runner{cfg: cfg, doc: doc, console: console}
}

// Run executes the whole pipeline and returns the run report. The report
// is returned even when individual records failed: only infrastructure
// errors (document unreadable, save failed) abort the run.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	src, err := editsource.Load(ctx, r.cfg.Document.Edits)
	if err != nil {
		return nil, errors.Errorf("loading edit source: %w", err)
	}
	logger.Info().
		Int("records", len(src.Records)).
		Int("comments", len(src.Comments)).
		Int("logos", len(src.Logos)).
		Msg("edit source loaded")

	if r.console != nil {
		r.console.Header(r.cfg.String())
	}

	before, err := r.doc.Text(ctx)
	if err != nil {
		return nil, errors.Errorf("reading document text: %w", err)
	}

	lost := engine.NewLostLog(r.cfg.Document.LostCommentsLog)
	attacher := engine.NewAttacher(r.doc, r.console, lost, engine.AttachConfig{
		Retries:    r.cfg.Comments.Retries,
		RetryDelay: r.cfg.Comments.Delay(),
	})
	eng := engine.NewEngine(r.doc, r.console, attacher)

	// Logo placement happens with tracking off: the spacing compensation
	// must not leave redlines of its own.
	if err := r.doc.SetTracking(ctx, false); err != nil {
		logger.Warn().Err(err).Msg("disabling tracking before logo placement failed")
	}
	logoPlaced, err := r.placeLogos(ctx, src)
	if err != nil {
		return nil, err
	}

	if err := r.doc.SetTracking(ctx, true); err != nil {
		return nil, errors.Errorf("enabling change tracking: %w", err)
	}

	results := eng.Apply(ctx, src.Records)
	results = append(results, eng.ApplyComments(ctx, src.Comments)...)

	after, err := r.doc.Text(ctx)
	if err != nil {
		return nil, errors.Errorf("reading document text after run: %w", err)
	}

	if err := r.doc.Save(ctx, r.cfg.Document.Output); err != nil {
		return nil, errors.Errorf("saving document: %w", err)
	}
	if r.console != nil {
		r.console.Successf("saved %s", r.cfg.Document.Output)
	}

	return &report.Report{
		Input:      r.cfg.Document.Input,
		Output:     r.cfg.Document.Output,
		StartedAt:  start,
		Duration:   time.Since(start),
		LogoPlaced: logoPlaced,
		Results:    results,
		BeforeText: before,
		AfterText:  after,
	}, nil
}

// placeLogos runs the configured placeholder placement plus any
// replace_with_logo records from the edit source.
func (r *Runner) placeLogos(ctx context.Context, src *editsource.Source) (bool, error) {
	logger := zerolog.Ctx(ctx)
	placed := false

	path := r.logoPath(src)

	if r.cfg.Logo != nil {
		company := findCompanyRecord(src.Records, r.cfg.Logo.CompanyTarget)
		placer := engine.NewPlacer(r.doc, r.console, engine.PlacementConfig{
			LogoPath:     path,
			Placeholder:  r.cfg.Logo.Placeholder,
			TargetHeight: r.cfg.Logo.TargetHeight,
		})
		if err := placer.Place(ctx, company); err != nil {
			return false, errors.Errorf("placing logo: %w", err)
		}
		placed = true
	}

	for _, rec := range src.Logos {
		if path == "" {
			logger.Warn().Str("target", rec.Find).Msg("logo record present but no logo path configured, skipping")
			continue
		}
		placer := engine.NewPlacer(r.doc, r.console, engine.PlacementConfig{
			LogoPath:     path,
			Placeholder:  rec.Find,
			TargetHeight: r.targetHeight(),
		})
		if err := placer.Place(ctx, nil); err != nil {
			return placed, errors.Errorf("placing logo for %q: %w", rec.Find, err)
		}
		placed = true
	}

	return placed, nil
}

// logoPath prefers the configured path, falling back to the edit
// source's own metadata.
func (r *Runner) logoPath(src *editsource.Source) string {
	if r.cfg.Logo != nil && r.cfg.Logo.Path != "" {
		return r.cfg.Logo.Path
	}
	return src.LogoPath
}

func (r *Runner) targetHeight() int {
	if r.cfg.Logo != nil {
		return r.cfg.Logo.TargetHeight
	}
	return 0
}

// findCompanyRecord locates the replacement record whose lengths drive
// the spacing compensation.
func findCompanyRecord(records []editsource.Record, target string) *editsource.Record {
	if target == "" {
		return nil
	}
	for i := range records {
		if records[i].Find == target {
			return &records[i]
		}
	}
	return nil
}
