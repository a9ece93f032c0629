// Package report renders a markdown summary of one automation run: the
// per-record outcomes plus a semantic diff of the document text.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/pkg/engine"
)

// diff context kept around each change, in runes
const contextRunes = 60

// 📊 Report collects everything one run produced.
type Report struct {
	Input      string
	Output     string
	StartedAt  time.Time
	Duration   time.Duration
	LogoPlaced bool

	Results    []engine.Result
	BeforeText string
	AfterText  string
}

// Counts aggregates the per-record outcomes.
type Counts struct {
	Applied   int
	Unmatched int
	Skipped   int
	Failed    int
	Comments  int
	Lost      int
}

func (r *Report) Counts() Counts {
	var c Counts
	for _, res := range r.Results {
		switch {
		case res.Skipped:
			c.Skipped++
		case res.Err != nil:
			c.Failed++
		case res.Occurrences == 0:
			c.Unmatched++
		default:
			c.Applied++
		}
		switch res.CommentOutcome {
		case "":
		case engine.StrategyLost:
			c.Lost++
		default:
			c.Comments++
		}
	}
	return c
}

// 📝 Markdown renders the full report.
func (r *Report) Markdown() string {
	var b strings.Builder
	c := r.Counts()

	fmt.Fprintf(&b, "# Policy Edit Run\n\n")
	fmt.Fprintf(&b, "- **Input:** `%s`\n", r.Input)
	fmt.Fprintf(&b, "- **Output:** `%s`\n", r.Output)
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", r.StartedAt.Format(time.RFC3339))
	}
	if r.Duration > 0 {
		fmt.Fprintf(&b, "- **Duration:** %s\n", r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "- **Logo placed:** %v\n\n", r.LogoPlaced)

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Applied | Unmatched | Skipped | Failed | Comments | Lost comments |\n")
	fmt.Fprintf(&b, "|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n", c.Applied, c.Unmatched, c.Skipped, c.Failed, c.Comments, c.Lost)

	fmt.Fprintf(&b, "## Records\n\n")
	fmt.Fprintf(&b, "| # | Find | Action | Occurrences | Comment via | Status |\n")
	fmt.Fprintf(&b, "|---:|---|---|---:|---|---|\n")
	for i, res := range r.Results {
		fmt.Fprintf(&b, "| %d | `%s` | %s | %d | %s | %s |\n",
			i+1, truncate(res.Record.Find, 40), res.Record.Action,
			res.Occurrences, commentCell(res), statusCell(res))
	}
	b.WriteString("\n")

	if r.BeforeText != "" || r.AfterText != "" {
		fmt.Fprintf(&b, "## Changes\n\n```diff\n%s```\n", renderDiff(r.BeforeText, r.AfterText))
	}

	return b.String()
}

// WriteFile renders the report to path.
func (r *Report) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown()), 0o644); err != nil {
		return errors.Errorf("writing report: %w", err)
	}
	return nil
}

func statusCell(res engine.Result) string {
	switch {
	case res.Skipped:
		return "skipped"
	case res.Err != nil:
		return "failed: " + truncate(res.Err.Error(), 60)
	case res.Occurrences == 0:
		return "not found"
	default:
		return "ok"
	}
}

func commentCell(res engine.Result) string {
	if res.CommentOutcome == "" {
		return "—"
	}
	return res.CommentOutcome
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// renderDiff produces a unified-style diff body from a semantic
// character diff. Long unchanged stretches are elided.
func renderDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(elide(d.Text))
		case diffmatchpatch.DiffDelete:
			writePrefixed(&b, "-", d.Text)
		case diffmatchpatch.DiffInsert:
			writePrefixed(&b, "+", d.Text)
		}
	}
	return b.String()
}

func elide(text string) string {
	runes := []rune(text)
	if len(runes) <= 2*contextRunes {
		return prefixLines(" ", text)
	}
	head := string(runes[:contextRunes])
	tail := string(runes[len(runes)-contextRunes:])
	return prefixLines(" ", head) + " […]\n" + prefixLines(" ", tail)
}

func writePrefixed(b *strings.Builder, prefix, text string) {
	b.WriteString(prefixLines(prefix, text))
}

func prefixLines(prefix, text string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(prefix)
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
