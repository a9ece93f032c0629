package engine

import (
	"context"
	"strings"
	"time"

	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
	"github.com/hassansecfix/policy-edit-sub000/pkg/editsource"
	"github.com/hassansecfix/policy-edit-sub000/pkg/log"
)

// StrategyLost is the cascade floor: the comment went to the side log.
const StrategyLost = "lost-log"

// 🔧 AttachConfig tunes the attachment cascade.
type AttachConfig struct {
	// Retries is how often the redline pass polls for change entries the
	// host has not committed yet.
	Retries int
	// RetryDelay is the pause between redline polls.
	RetryDelay time.Duration
	// PrefixRunes is the truncated-search length for the expanded-match
	// strategy.
	PrefixRunes int
}

func (c AttachConfig) withDefaults() AttachConfig {
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 200 * time.Millisecond
	}
	if c.PrefixRunes <= 0 {
		c.PrefixRunes = 12
	}
	return c
}

// 💬 Attacher correlates a record's comment with the change-log entries
// its replace produced. The host gives no direct handle from replace-all
// back to the entries it created, so the correlation is an index-range
// snapshot: everything at index >= prevCount is attributed to the last
// replace. The cascade degrades from precise redline comments down to an
// append-only side log.
type Attacher struct {
	doc     document.Document
	console *log.Logger
	lost    *LostLog
	cfg     AttachConfig
}

// 🏭 NewAttacher creates a comment attacher.
func NewAttacher(doc document.Document, console *log.Logger, lost *LostLog, cfg AttachConfig) *Attacher {
	return &Attacher{doc: doc, console: console, lost: lost, cfg: cfg.withDefaults()}
}

// 🎯 Attach ties rec's comment to the change entries produced by the
// replace that was issued after the change log had prevCount entries.
// Returns the name of the strategy that won; StrategyLost means the
// comment went to the side log.
func (a *Attacher) Attach(ctx context.Context, rec editsource.Record, prevCount int) (string, error) {
	strategies := []Strategy{
		{Name: "redline", Attempt: func(ctx context.Context) (bool, error) {
			return a.attachToRedlines(ctx, rec, prevCount)
		}},
		{Name: "annotate", Attempt: func(ctx context.Context) (bool, error) {
			return a.annotateFoundText(ctx, rec)
		}},
		{Name: "expand", Attempt: func(ctx context.Context) (bool, error) {
			return a.annotateExpandedMatch(ctx, rec)
		}},
		{Name: StrategyLost, Attempt: func(ctx context.Context) (bool, error) {
			err := a.lost.Append(ctx, LostEntry{
				Comment: rec.Comment,
				Author:  rec.EffectiveAuthor(),
				Find:    rec.Find,
				Replace: rec.Replace,
			})
			return err == nil, err
		}},
	}
	return RunCascade(ctx, a.console, "comment", strategies)
}

// AttachStandalone handles a comment-only record: there is no associated
// replace, so the redline pass is skipped by snapshotting the current
// change-log length.
func (a *Attacher) AttachStandalone(ctx context.Context, rec editsource.Record) (string, error) {
	count, err := a.doc.ChangeCount(ctx)
	if err != nil {
		count = 0
	}
	return a.Attach(ctx, rec, count)
}

// attachToRedlines is the precise path: comment the insert entries the
// replace created. The host may not have committed them synchronously,
// so the pass polls a few times.
func (a *Attacher) attachToRedlines(ctx context.Context, rec editsource.Record, prevCount int) (bool, error) {
	for try := 0; try < a.cfg.Retries; try++ {
		if try > 0 {
			if err := sleep(ctx, a.cfg.RetryDelay); err != nil {
				return false, err
			}
		}
		changes, err := a.doc.Changes(ctx, prevCount)
		if err != nil || len(changes) == 0 {
			continue
		}
		attached := false
		for _, ch := range changes {
			// comment the inserted replacement, not the deleted original
			if ch.Kind != document.ChangeInsert {
				continue
			}
			if err := a.doc.SetChangeComment(ctx, ch.Index, rec.Comment); err == nil {
				attached = true
			}
		}
		if attached {
			return true, nil
		}
	}
	return false, nil
}

// annotateFoundText searches for the literal replacement text (or, if the
// record has none, the original find text) and walks the annotation
// variants over the found range.
func (a *Attacher) annotateFoundText(ctx context.Context, rec editsource.Record) (bool, error) {
	candidates := []string{rec.Replace, rec.Find}
	for _, text := range candidates {
		if text == "" {
			continue
		}
		r, found, err := a.doc.Find(ctx, text, document.FindOptions{MatchCase: rec.MatchCase})
		if err != nil || !found {
			continue
		}
		if a.annotateVariants(ctx, r, rec) {
			return true, nil
		}
	}
	return false, nil
}

// annotateExpandedMatch searches a truncated prefix of the text and
// expands the matched range until it covers the full text, then
// annotates whatever range it ended up with.
func (a *Attacher) annotateExpandedMatch(ctx context.Context, rec editsource.Record) (bool, error) {
	full := rec.Replace
	if full == "" {
		full = rec.Find
	}
	if full == "" {
		return false, nil
	}
	prefix := full
	if runes := []rune(full); len(runes) > a.cfg.PrefixRunes {
		prefix = string(runes[:a.cfg.PrefixRunes])
	}

	r, found, err := a.doc.Find(ctx, prefix, document.FindOptions{MatchCase: rec.MatchCase})
	if err != nil || !found {
		return false, nil
	}

	text, err := a.doc.Text(ctx)
	if err == nil && r.Start+len(full) <= len(text) {
		candidate := text[r.Start : r.Start+len(full)]
		if candidate == full || (!rec.MatchCase && strings.EqualFold(candidate, full)) {
			r.End = r.Start + len(full)
		}
	}
	return a.annotateVariants(ctx, r, rec), nil
}

func (a *Attacher) annotateVariants(ctx context.Context, r document.Range, rec editsource.Record) bool {
	for _, variant := range document.Variants {
		if err := a.doc.Annotate(ctx, r, variant, rec.Comment, rec.EffectiveAuthor()); err == nil {
			return true
		}
	}
	return false
}
