package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassansecfix/policy-edit-sub000/pkg/engine"
	"github.com/hassansecfix/policy-edit-sub000/pkg/editsource"
)

func sampleReport() *Report {
	return &Report{
		Input:      "handbook.odt",
		Output:     "handbook_edited.pdf",
		StartedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Duration:   2300 * time.Millisecond,
		LogoPlaced: true,
		Results: []engine.Result{
			{
				Record:         editsource.Record{Find: "Acme Corp", Replace: "Global Industries", Action: editsource.ActionReplace, Comment: "updated"},
				Occurrences:    3,
				CommentOutcome: "redline",
			},
			{
				Record:      editsource.Record{Find: "never present", Replace: "x", Action: editsource.ActionReplace},
				Occurrences: 0,
			},
			{
				Record:  editsource.Record{Find: "", Replace: "x"},
				Skipped: true,
			},
			{
				Record:         editsource.Record{Find: "orphaned", Comment: "lost one", Action: editsource.ActionComment},
				Occurrences:    1,
				CommentOutcome: engine.StrategyLost,
			},
		},
		BeforeText: "The company Acme Corp makes widgets.",
		AfterText:  "The company Global Industries makes widgets.",
	}
}

func TestReport_Counts(t *testing.T) {
	c := sampleReport().Counts()
	assert.Equal(t, 1, c.Applied)
	assert.Equal(t, 1, c.Unmatched)
	assert.Equal(t, 1, c.Skipped)
	assert.Equal(t, 0, c.Failed)
	assert.Equal(t, 1, c.Comments)
	assert.Equal(t, 1, c.Lost)
}

func TestReport_Markdown(t *testing.T) {
	md := sampleReport().Markdown()

	assert.Contains(t, md, "# Policy Edit Run")
	assert.Contains(t, md, "`handbook.odt`")
	assert.Contains(t, md, "| 1 | 1 | 1 | 0 | 1 | 1 |")
	assert.Contains(t, md, "| 1 | `Acme Corp` | replace | 3 | redline | ok |")
	assert.Contains(t, md, "not found")
	assert.Contains(t, md, "lost-log")

	// the diff marks the replacement, not the surrounding context
	assert.Contains(t, md, "```diff")
	assert.Contains(t, md, "- Acme Corp")
	assert.Contains(t, md, "+ Global Industries")
	assert.Contains(t, md, "  The company")
}

func TestReport_MarkdownNoDiffSectionWhenEmpty(t *testing.T) {
	r := &Report{Input: "a", Output: "b"}
	assert.NotContains(t, r.Markdown(), "## Changes")
}

func TestReport_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, sampleReport().WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Policy Edit Run")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactlyten", truncate("exactlyten", 10))
	assert.Equal(t, "éé…", truncate("ééée", 2))
}
