package host

import (
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
)

// Host versions disagree on redline property names. All of the guessing
// is confined to this file: nothing outside the bridge ever sees a raw
// property map.
var (
	changeKindKeys   = []string{"RedlineType", "Type", "RedLineType"}
	changeTextKeys   = []string{"Text", "String", "Content"}
	changeAuthorKeys = []string{"Author", "RedlineAuthor", "Creator"}

	// writable comment property, newest name first
	changeCommentProps = []string{"Comment", "Description"}
)

// 📄 Doc is a document handle served by the automation host. It
// implements document.Document by translating each call into one bridge
// request.
type Doc struct {
	s *Session
}

var _ document.Document = (*Doc)(nil)

func (d *Doc) ReplaceAll(ctx context.Context, req document.ReplaceRequest) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := d.s.call(ctx, "replace.all", map[string]any{
		"find":       req.Find,
		"replace":    req.Replace,
		"match_case": req.MatchCase,
		"whole_word": req.WholeWord,
		"regex":      req.Regex,
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (d *Doc) Find(ctx context.Context, text string, opts document.FindOptions) (document.Range, bool, error) {
	var out struct {
		Found bool `json:"found"`
		Start int  `json:"start"`
		End   int  `json:"end"`
	}
	err := d.s.call(ctx, "text.find", map[string]any{
		"text":       text,
		"match_case": opts.MatchCase,
		"whole_word": opts.WholeWord,
		"regex":      opts.Regex,
	}, &out)
	if err != nil {
		return document.Range{}, false, err
	}
	if !out.Found {
		return document.Range{}, false, nil
	}
	return document.Range{Start: out.Start, End: out.End}, true, nil
}

func (d *Doc) Annotate(ctx context.Context, r document.Range, variant document.AnnotationVariant, comment, author string) error {
	return d.s.call(ctx, "annotate", map[string]any{
		"start":   r.Start,
		"end":     r.End,
		"variant": variant.String(),
		"comment": comment,
		"author":  author,
	}, nil)
}

func (d *Doc) InsertImage(ctx context.Context, r document.Range, spec document.ImageSpec) error {
	return d.s.call(ctx, "image.insert", map[string]any{
		"start":  r.Start,
		"end":    r.End,
		"path":   spec.Path,
		"width":  spec.Width,
		"height": spec.Height,
	}, nil)
}

func (d *Doc) ChangeCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := d.s.call(ctx, "changes.count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (d *Doc) Changes(ctx context.Context, from int) ([]document.Change, error) {
	var out struct {
		Entries []map[string]any `json:"entries"`
	}
	if err := d.s.call(ctx, "changes.list", map[string]any{"from": from}, &out); err != nil {
		return nil, err
	}
	changes := make([]document.Change, 0, len(out.Entries))
	for i, raw := range out.Entries {
		changes = append(changes, decodeChange(raw, from+i))
	}
	return changes, nil
}

// SetChangeComment walks the known comment property names until the host
// accepts one.
func (d *Doc) SetChangeComment(ctx context.Context, index int, comment string) error {
	var lastErr error
	for _, prop := range changeCommentProps {
		err := d.s.call(ctx, "change.set", map[string]any{
			"index":    index,
			"property": prop,
			"value":    comment,
		}, nil)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return errors.Errorf("no writable comment property on change %d: %w", index, lastErr)
}

func (d *Doc) SetAuthor(ctx context.Context, name string) error {
	return d.s.call(ctx, "author.set", map[string]any{"name": name}, nil)
}

func (d *Doc) SetTracking(ctx context.Context, enabled bool) error {
	return d.s.call(ctx, "tracking.set", map[string]any{"enabled": enabled}, nil)
}

func (d *Doc) Text(ctx context.Context) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if err := d.s.call(ctx, "document.text", nil, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// NativeImageSize asks the host to load the image and report its pixel
// size. A host that cannot answers (0, 0).
func (d *Doc) NativeImageSize(ctx context.Context, path string) (int, int, error) {
	var out struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := d.s.call(ctx, "image.size", map[string]any{"path": path}, &out); err != nil {
		return 0, 0, err
	}
	return out.Width, out.Height, nil
}

func (d *Doc) Save(ctx context.Context, path string) error {
	return d.s.call(ctx, "document.save", map[string]any{"path": path}, nil)
}

func (d *Doc) Close(ctx context.Context) error {
	return d.s.call(ctx, "document.close", nil, nil)
}

// decodeChange maps a raw host property bag onto a Change, trying each
// known property name in order.
func decodeChange(raw map[string]any, index int) document.Change {
	c := document.Change{Index: index}
	if v, ok := firstString(raw, changeKindKeys); ok {
		c.Kind = classifyKind(v)
	}
	if v, ok := firstString(raw, changeTextKeys); ok {
		c.Text = v
	}
	if v, ok := firstString(raw, changeAuthorKeys); ok {
		c.Author = v
	}
	return c
}

func firstString(raw map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func classifyKind(v string) document.ChangeKind {
	switch strings.ToLower(v) {
	case "insert", "insertion", "ins":
		return document.ChangeInsert
	case "delete", "deletion", "del":
		return document.ChangeDelete
	default:
		return document.ChangeUnknown
	}
}
