package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
	"github.com/hassansecfix/policy-edit-sub000/pkg/editsource"
	"github.com/hassansecfix/policy-edit-sub000/pkg/imagemeta"
	"github.com/hassansecfix/policy-edit-sub000/pkg/log"
)

// safety bound on sentinel occurrences per placement
const maxLogoOccurrences = 100

// 🔧 PlacementConfig configures one logo placement.
type PlacementConfig struct {
	LogoPath     string
	Placeholder  string // marker string in the document, e.g. <LOGO>
	TargetHeight int    // hundredths of a millimeter, 0 means default
}

// 🖼️ Placer positions and embeds the logo image. It must run with
// tracking disabled and before the company-name text record is applied,
// because that record's lengths drive the spacing computation.
type Placer struct {
	doc     document.Document
	console *log.Logger
	cfg     PlacementConfig
}

// 🏭 NewPlacer creates a logo placer.
func NewPlacer(doc document.Document, console *log.Logger, cfg PlacementConfig) *Placer {
	if cfg.TargetHeight <= 0 {
		cfg.TargetHeight = imagemeta.DefaultTargetHeight
	}
	return &Placer{doc: doc, console: console, cfg: cfg}
}

// 🎯 Place substitutes every placeholder occurrence with an inline image,
// adjusting the preceding spacing first. companyRecord is the
// company-name replacement record the spacing is derived from; nil means
// no spacing adjustment. A missing placeholder is logged, never fatal.
func (p *Placer) Place(ctx context.Context, companyRecord *editsource.Record) error {
	logger := zerolog.Ctx(ctx)

	delta := 0
	if companyRecord != nil {
		delta = SpacesDelta(companyRecord.Find, companyRecord.Replace)
	}
	logger.Debug().
		Int("spaces_delta", delta).
		Str("placeholder", p.cfg.Placeholder).
		Msg("placing logo")

	sentinel := "[[logo-anchor-" + uuid.NewString() + "]]"

	placed := false
	if delta >= 0 {
		winner, err := RunCascade(ctx, p.console, "logo-spacing", removalStrategies(p.doc, p.cfg.Placeholder, sentinel, delta))
		if err != nil {
			return err
		}
		placed = winner != ""
	} else {
		// additive case is unambiguous: pad every occurrence, no cascade
		count, err := p.doc.ReplaceAll(ctx, document.ReplaceRequest{
			Find:      p.cfg.Placeholder,
			Replace:   strings.Repeat(" ", -delta) + sentinel,
			MatchCase: true,
		})
		if err != nil {
			return errors.Errorf("padding logo placeholder: %w", err)
		}
		placed = count > 0
	}

	if !placed {
		if p.console != nil {
			p.console.Warningf("logo placeholder %q not found by any strategy, document left unchanged", p.cfg.Placeholder)
		}
		return nil
	}

	estimate := imagemeta.Detect(ctx, p.cfg.LogoPath, p.doc.NativeImageSize)
	width, height := imagemeta.Geometry(estimate, p.cfg.TargetHeight)
	logger.Debug().
		Str("size_source", estimate.Source).
		Int("width", width).
		Int("height", height).
		Msg("logo geometry computed")

	spec := document.ImageSpec{Path: p.cfg.LogoPath, Width: width, Height: height}
	inserted := 0
	for i := 0; i < maxLogoOccurrences; i++ {
		r, found, err := p.doc.Find(ctx, sentinel, document.FindOptions{MatchCase: true})
		if err != nil {
			return errors.Errorf("locating logo sentinel: %w", err)
		}
		if !found {
			break
		}
		if err := p.doc.InsertImage(ctx, r, spec); err != nil {
			return errors.Errorf("inserting logo image: %w", err)
		}
		inserted++
	}

	if p.console != nil {
		p.console.Successf("inserted logo at %d location(s)", inserted)
	}
	return nil
}
