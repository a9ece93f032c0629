// Package memdoc is an in-memory implementation of document.Document over
// plain text, with a real change log, comments and embedded-object list.
// It backs dry runs and every engine test.
package memdoc

import (
	"context"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options inject backend failure modes so the engines' fallback
// cascades can be exercised.
type Options struct {
	// DisableChangeLog makes the change log invisible to callers: the
	// document still mutates, but ChangeCount/Changes report nothing.
	// Simulates a host that has not materialized redlines.
	DisableChangeLog bool

	// RejectVariants lists annotation variants the backend refuses,
	// simulating host-version incompatibilities.
	RejectVariants map[document.AnnotationVariant]bool

	// FailSetChangeComment makes redline comment writes fail, simulating
	// a host without a writable comment property.
	FailSetChangeComment bool
}

// Annotation is a floating comment attached to a text range.
type Annotation struct {
	Range   document.Range
	Variant document.AnnotationVariant
	Comment string
	Author  string
}

// Image is an embedded inline image anchored at a byte position.
type Image struct {
	Pos  int
	Spec document.ImageSpec
}

// 📄 Document implements document.Document over a plain-text buffer.
type Document struct {
	mu          sync.Mutex
	text        string
	tracking    bool
	author      string
	changes     []document.Change
	comments    map[int]string
	annotations []Annotation
	images      []Image
	opts        Options
	savedPath   string
	closed      bool
}

var _ document.Document = (*Document)(nil)

// 🏭 New creates a document holding the given text.
func New(text string) *Document {
	return NewWithOptions(text, Options{})
}

// NewWithOptions creates a document with injected failure modes.
func NewWithOptions(text string, opts Options) *Document {
	return &Document{
		text:     text,
		comments: map[int]string{},
		opts:     opts,
	}
}

// Open reads a file as plain text and wraps it in a Document.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("opening document: %w", err)
	}
	return New(string(data)), nil
}

// compilePattern builds the effective search expression for a request.
func compilePattern(find string, matchCase, wholeWord, useRegex bool) (*regexp.Regexp, error) {
	expr := find
	if !useRegex {
		expr = regexp.QuoteMeta(find)
	}
	if wholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	if !matchCase {
		expr = `(?i)` + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Errorf("compiling search pattern: %w", err)
	}
	return re, nil
}

func (d *Document) ReplaceAll(ctx context.Context, req document.ReplaceRequest) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	re, err := compilePattern(req.Find, req.MatchCase, req.WholeWord, req.Regex)
	if err != nil {
		return 0, err
	}

	matches := re.FindAllString(d.text, -1)
	if len(matches) == 0 {
		return 0, nil
	}

	replacement := req.Replace
	if !req.Regex {
		// literal replacement, neutralize expansion metacharacters
		replacement = strings.ReplaceAll(replacement, "$", "$$")
	}
	d.text = re.ReplaceAllString(d.text, replacement)

	if d.tracking {
		for _, matched := range matches {
			d.changes = append(d.changes, document.Change{
				Index:  len(d.changes),
				Kind:   document.ChangeDelete,
				Text:   matched,
				Author: d.author,
			})
			if req.Replace != "" {
				d.changes = append(d.changes, document.Change{
					Index:  len(d.changes),
					Kind:   document.ChangeInsert,
					Text:   req.Replace,
					Author: d.author,
				})
			}
		}
	}
	return len(matches), nil
}

func (d *Document) Find(ctx context.Context, text string, opts document.FindOptions) (document.Range, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	re, err := compilePattern(text, opts.MatchCase, opts.WholeWord, opts.Regex)
	if err != nil {
		return document.Range{}, false, err
	}
	loc := re.FindStringIndex(d.text)
	if loc == nil {
		return document.Range{}, false, nil
	}
	return document.Range{Start: loc[0], End: loc[1]}, true, nil
}

func (d *Document) Annotate(ctx context.Context, r document.Range, variant document.AnnotationVariant, comment, author string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.opts.RejectVariants[variant] {
		return errors.Errorf("annotation variant %s not supported", variant)
	}
	if variant == document.AnnotationLastChange {
		if len(d.changes) == 0 {
			return errors.Errorf("no change entries to comment")
		}
		d.comments[len(d.changes)-1] = comment
		return nil
	}
	if r.Start < 0 || r.End > len(d.text) || r.Start > r.End {
		return errors.Errorf("annotation range out of bounds")
	}
	d.annotations = append(d.annotations, Annotation{Range: r, Variant: variant, Comment: comment, Author: author})
	return nil
}

func (d *Document) InsertImage(ctx context.Context, r document.Range, spec document.ImageSpec) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r.Start < 0 || r.End > len(d.text) || r.Start > r.End {
		return errors.Errorf("image range out of bounds")
	}
	removed := d.text[r.Start:r.End]
	d.text = d.text[:r.Start] + d.text[r.End:]
	d.images = append(d.images, Image{Pos: r.Start, Spec: spec})

	if d.tracking {
		// image insertion while tracking shows up as a redline like any
		// other edit, which is exactly what the pipeline must avoid
		d.changes = append(d.changes, document.Change{
			Index:  len(d.changes),
			Kind:   document.ChangeDelete,
			Text:   removed,
			Author: d.author,
		})
		d.changes = append(d.changes, document.Change{
			Index:  len(d.changes),
			Kind:   document.ChangeInsert,
			Text:   spec.Path,
			Author: d.author,
		})
	}
	return nil
}

func (d *Document) ChangeCount(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.DisableChangeLog {
		return 0, nil
	}
	return len(d.changes), nil
}

func (d *Document) Changes(ctx context.Context, from int) ([]document.Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.DisableChangeLog {
		return nil, nil
	}
	if from < 0 {
		from = 0
	}
	if from >= len(d.changes) {
		return nil, nil
	}
	out := make([]document.Change, len(d.changes)-from)
	copy(out, d.changes[from:])
	return out, nil
}

func (d *Document) SetChangeComment(ctx context.Context, index int, comment string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.FailSetChangeComment {
		return errors.Errorf("change entries have no writable comment property")
	}
	if index < 0 || index >= len(d.changes) {
		return errors.Errorf("change index %d out of range", index)
	}
	d.comments[index] = comment
	return nil
}

func (d *Document) SetAuthor(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.author = name
	return nil
}

func (d *Document) SetTracking(ctx context.Context, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tracking = enabled
	return nil
}

func (d *Document) Text(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text, nil
}

func (d *Document) NativeImageSize(ctx context.Context, path string) (int, int, error) {
	return 0, 0, nil
}

func (d *Document) Save(ctx context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := os.WriteFile(path, []byte(d.text), 0o644); err != nil {
		return errors.Errorf("saving document: %w", err)
	}
	d.savedPath = path
	return nil
}

func (d *Document) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// --- test/reporting accessors ---

// ChangesSnapshot returns a copy of the full change log, ignoring the
// DisableChangeLog option.
func (d *Document) ChangesSnapshot() []document.Change {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]document.Change, len(d.changes))
	copy(out, d.changes)
	return out
}

// ChangeComments returns a copy of comments attached to change entries.
func (d *Document) ChangeComments() map[int]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[int]string, len(d.comments))
	for k, v := range d.comments {
		out[k] = v
	}
	return out
}

// Annotations returns floating annotations in creation order.
func (d *Document) Annotations() []Annotation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Annotation, len(d.annotations))
	copy(out, d.annotations)
	return out
}

// Images returns embedded images in creation order.
func (d *Document) Images() []Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Image, len(d.images))
	copy(out, d.images)
	return out
}

// Tracking reports whether record-changes mode is on.
func (d *Document) Tracking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tracking
}

// SavedPath returns the last Save destination, empty if never saved.
func (d *Document) SavedPath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.savedPath
}
