package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
	"github.com/hassansecfix/policy-edit-sub000/pkg/editsource"
	"github.com/hassansecfix/policy-edit-sub000/pkg/log"
)

// 📊 Result is the outcome of applying one edit record.
type Result struct {
	Record          editsource.Record
	Occurrences     int
	PrevChangeCount int    // change-log length snapshotted before the replace
	Err             error  // the replace call's own failure, nil otherwise
	Skipped         bool   // record was not actionable
	CommentOutcome  string // winning attachment strategy, "" when no comment
}

// 🎯 Engine applies edit records strictly in source order, one replace-all
// per record. A record's failure is logged and skipped: partial
// application is the explicit design.
type Engine struct {
	doc      document.Document
	console  *log.Logger
	attacher *Attacher
}

// 🏭 NewEngine creates a replacement engine.
func NewEngine(doc document.Document, console *log.Logger, attacher *Attacher) *Engine {
	return &Engine{doc: doc, console: console, attacher: attacher}
}

// Apply runs the replacement stream. The change-log length is snapshotted
// before each replace so the attacher can correlate comments with the
// entries that replace produced. The author identity is set immediately
// before each replace because the host attributes the entire subsequent
// mutation to whatever identity was most recently set.
func (e *Engine) Apply(ctx context.Context, records []editsource.Record) []Result {
	logger := zerolog.Ctx(ctx)
	results := make([]Result, 0, len(records))

	for _, rec := range records {
		res := Result{Record: rec}

		if !rec.Actionable() {
			res.Skipped = true
			e.logResult(res)
			results = append(results, res)
			continue
		}

		if err := e.doc.SetAuthor(ctx, rec.EffectiveAuthor()); err != nil {
			logger.Warn().Err(err).Str("author", rec.EffectiveAuthor()).Msg("setting author failed")
		}

		prev, err := e.doc.ChangeCount(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("snapshotting change count failed")
			prev = 0
		}
		res.PrevChangeCount = prev

		count, err := e.doc.ReplaceAll(ctx, document.ReplaceRequest{
			Find:      rec.Find,
			Replace:   rec.Replace,
			MatchCase: rec.MatchCase,
			WholeWord: rec.WholeWord,
			Regex:     rec.UseRegex,
		})
		if err != nil {
			// recoverable: log and move to the next record
			logger.Warn().Err(err).Str("find", rec.Find).Msg("replace failed, continuing")
			res.Err = err
			e.logResult(res)
			results = append(results, res)
			continue
		}
		res.Occurrences = count

		if rec.Comment != "" && count > 0 && e.attacher != nil {
			outcome, err := e.attacher.Attach(ctx, rec, prev)
			if err != nil {
				logger.Warn().Err(err).Str("find", rec.Find).Msg("comment attachment aborted")
			}
			res.CommentOutcome = outcome
		}

		e.logResult(res)
		results = append(results, res)
	}
	return results
}

// ApplyComments handles the comment-only stream after all replacements.
func (e *Engine) ApplyComments(ctx context.Context, comments []editsource.Record) []Result {
	logger := zerolog.Ctx(ctx)
	results := make([]Result, 0, len(comments))

	for _, rec := range comments {
		res := Result{Record: rec}
		if rec.Comment == "" || e.attacher == nil {
			res.Skipped = true
			e.logResult(res)
			results = append(results, res)
			continue
		}
		outcome, err := e.attacher.AttachStandalone(ctx, rec)
		if err != nil {
			logger.Warn().Err(err).Str("target", rec.Find).Msg("standalone comment attachment aborted")
		}
		res.CommentOutcome = outcome
		e.logResult(res)
		results = append(results, res)
	}
	return results
}

func (e *Engine) logResult(res Result) {
	if e.console == nil {
		return
	}
	e.console.LogRecordOperation(log.RecordOperation{
		Find:           res.Record.Find,
		Replace:        res.Record.Replace,
		Action:         string(res.Record.Action),
		Occurrences:    res.Occurrences,
		Failed:         res.Err != nil,
		Skipped:        res.Skipped,
		CommentOutcome: res.CommentOutcome,
	})
}
