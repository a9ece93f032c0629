package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassansecfix/policy-edit-sub000/pkg/config"
	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
	"github.com/hassansecfix/policy-edit-sub000/pkg/document/memdoc"
	"github.com/hassansecfix/policy-edit-sub000/pkg/engine"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func baseConfig(t *testing.T, dir, edits string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Document: config.DocumentArgs{
			Input:           filepath.Join(dir, "policy.txt"),
			Edits:           edits,
			Output:          filepath.Join(dir, "policy_edited.pdf"),
			LostCommentsLog: filepath.Join(dir, "lost_comments.log"),
		},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunner_FullRunOverTabularSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	edits := writeFile(t, dir, "changes.csv",
		"find,replace,comment\n"+
			"Acme Corp,Global Industries,updated per legal\n"+
			"obsolete,,\n")
	logo := writeFile(t, dir, "logo.png", "stub-logo")

	cfg := baseConfig(t, dir, edits)
	cfg.Logo = &config.LogoArgs{Path: logo, CompanyTarget: "Acme Corp"}
	require.NoError(t, cfg.Validate())

	d := memdoc.New("Policy of Acme Corp.\nCompany:" + strings.Repeat(" ", 10) + "<LOGO> end\nobsolete clause here.")

	rep, err := NewRunner(cfg, d, nil).Run(ctx)
	require.NoError(t, err)

	text, err := d.Text(ctx)
	require.NoError(t, err)

	// delta("Acme Corp" -> "Global Industries") is -6, so the spacing
	// run grows from 10 to 16
	assert.Contains(t, text, "Company:"+strings.Repeat(" ", 16)+" end")
	assert.Contains(t, text, "Global Industries")
	assert.NotContains(t, text, "Acme Corp")
	assert.NotContains(t, text, "obsolete")
	assert.NotContains(t, text, "<LOGO>")

	require.Len(t, d.Images(), 1)
	assert.Equal(t, logo, d.Images()[0].Spec.Path)

	assert.Equal(t, cfg.Document.Output, d.SavedPath())
	assert.True(t, rep.LogoPlaced)

	counts := rep.Counts()
	assert.Equal(t, 2, counts.Applied)
	assert.Equal(t, 1, counts.Comments)
	assert.Equal(t, 0, counts.Failed)

	require.Len(t, rep.Results, 2)
	assert.Equal(t, "redline", rep.Results[0].CommentOutcome)

	assert.Contains(t, rep.BeforeText, "Acme Corp")
	assert.Contains(t, rep.AfterText, "Global Industries")
}

func TestRunner_LogoSpacingLeavesNoRedlines(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	edits := writeFile(t, dir, "changes.csv", "find,replace\nAcme Corp,Global Industries\n")
	logo := writeFile(t, dir, "logo.png", "stub-logo")

	cfg := baseConfig(t, dir, edits)
	cfg.Logo = &config.LogoArgs{Path: logo, CompanyTarget: "Acme Corp"}
	require.NoError(t, cfg.Validate())

	d := memdoc.New("Acme Corp header" + strings.Repeat(" ", 10) + "<LOGO>")

	_, err := NewRunner(cfg, d, nil).Run(ctx)
	require.NoError(t, err)

	// only the tracked company replacement shows up in the change log,
	// never the spacing juggling that ran with tracking off
	for _, c := range d.ChangesSnapshot() {
		assert.NotEmpty(t, strings.TrimSpace(c.Text), "change %q should not be a spacing edit", c.Text)
	}
	assert.True(t, d.Tracking())
}

func TestRunner_StructuredSourceWithLogoRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	logo := writeFile(t, dir, "logo.png", "stub-logo")
	edits := writeFile(t, dir, "changes.json", `{
  "metadata": {"logo_path": `+jsonString(logo)+`},
  "instructions": {
    "operations": [
      {"action": "replace_with_logo", "target_text": "{{COMPANY_LOGO}}"},
      {"action": "replace", "target_text": "old name", "replacement": "new name"},
      {"action": "comment", "target_text": "Section 2", "comment": "needs review", "comment_author": "Legal"}
    ]
  }
}`)

	cfg := baseConfig(t, dir, edits)

	d := memdoc.New("Header {{COMPANY_LOGO}}\nold name runs Section 2 of this policy.")

	rep, err := NewRunner(cfg, d, nil).Run(ctx)
	require.NoError(t, err)

	text, err := d.Text(ctx)
	require.NoError(t, err)
	assert.NotContains(t, text, "{{COMPANY_LOGO}}")
	assert.Contains(t, text, "new name")
	require.Len(t, d.Images(), 1, "logo path from source metadata is used")

	assert.True(t, rep.LogoPlaced)

	anns := d.Annotations()
	require.Len(t, anns, 1)
	assert.Equal(t, "needs review", anns[0].Comment)
	assert.Equal(t, "Legal", anns[0].Author)
}

func TestRunner_MissingPlaceholderIsNotFatal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	edits := writeFile(t, dir, "changes.csv", "find,replace\na,b\n")
	logo := writeFile(t, dir, "logo.png", "stub-logo")

	cfg := baseConfig(t, dir, edits)
	cfg.Logo = &config.LogoArgs{Path: logo}
	require.NoError(t, cfg.Validate())

	d := memdoc.New("a document without any marker")

	rep, err := NewRunner(cfg, d, nil).Run(ctx)
	require.NoError(t, err)
	assert.True(t, rep.LogoPlaced, "placement ran even though nothing matched")
	assert.Empty(t, d.Images())
}

func TestRunner_LostCommentLandsInLog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	edits := writeFile(t, dir, "changes.json", `{
  "instructions": {
    "operations": [
      {"action": "comment", "target_text": "vanished text", "comment": "orphan note"}
    ]
  }
}`)

	cfg := baseConfig(t, dir, edits)

	d := memdoc.NewWithOptions("entirely unrelated content", memdoc.Options{
		DisableChangeLog: true,
		RejectVariants: map[document.AnnotationVariant]bool{
			document.AnnotationRich:       true,
			document.AnnotationPostIt:     true,
			document.AnnotationPlain:      true,
			document.AnnotationLastChange: true,
		},
	})

	rep, err := NewRunner(cfg, d, nil).Run(ctx)
	require.NoError(t, err)

	require.Len(t, rep.Results, 1)
	assert.Equal(t, engine.StrategyLost, rep.Results[0].CommentOutcome)

	entries, err := engine.NewLostLog(cfg.Document.LostCommentsLog).Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "orphan note", entries[0].Comment)
}

func TestOpenDocument_DryRun(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "policy.txt", "hello")
	edits := writeFile(t, dir, "changes.csv", "find,replace\na,b\n")

	cfg := baseConfig(t, dir, edits)
	cfg.Document.Input = input
	require.NoError(t, cfg.Validate())

	doc, closer, err := OpenDocument(context.Background(), cfg, true)
	require.NoError(t, err)
	defer func() { require.NoError(t, closer()) }()

	text, err := doc.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func jsonString(s string) string {
	b := new(strings.Builder)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
