// Package document defines the narrow capability interface the edit
// engines use against a live word-processing document. Implementations
// are the automation-host bridge (pkg/host) and the in-memory document
// (pkg/document/memdoc) used for dry runs and tests.
package document

import "context"

// 📊 ChangeKind classifies an entry in the document's change log.
type ChangeKind int

const (
	ChangeUnknown ChangeKind = iota
	ChangeInsert
	ChangeDelete
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// 📝 Change is one redline: the document's record of a tracked insertion
// or deletion. Index is the entry's position in the change log, the only
// stable handle the host gives us.
type Change struct {
	Index  int
	Kind   ChangeKind
	Text   string
	Author string
}

// 🔄 ReplaceRequest describes one replace-all invocation.
type ReplaceRequest struct {
	Find      string
	Replace   string
	MatchCase bool
	WholeWord bool
	Regex     bool
}

// FindOptions controls a single text search.
type FindOptions struct {
	MatchCase bool
	WholeWord bool
	Regex     bool
}

// Range is a span of the document's text: byte offsets into Text(), end
// exclusive.
type Range struct {
	Start int
	End   int
}

// 💬 AnnotationVariant selects which annotation object the backend should
// create. Host versions differ in which of these they accept, so callers
// walk the variants in order.
type AnnotationVariant int

const (
	AnnotationRich       AnnotationVariant = iota // rich annotation field
	AnnotationPostIt                              // Word-compatible post-it field
	AnnotationPlain                               // plain annotation object
	AnnotationLastChange                          // comment the most recent change entry, range ignored
)

func (v AnnotationVariant) String() string {
	switch v {
	case AnnotationRich:
		return "rich"
	case AnnotationPostIt:
		return "postit"
	case AnnotationPlain:
		return "plain"
	case AnnotationLastChange:
		return "lastchange"
	default:
		return "unknown"
	}
}

// Variants is the cascade order callers should try.
var Variants = []AnnotationVariant{AnnotationRich, AnnotationPostIt, AnnotationPlain, AnnotationLastChange}

// 🖼️ ImageSpec describes an inline image to embed. Width and Height are
// in hundredths of a millimeter.
type ImageSpec struct {
	Path   string
	Width  int
	Height int
}

// 🎯 Document is the capability surface the engines run against. All
// calls are blocking and must be issued sequentially from one goroutine;
// the handle is exclusively owned by its session for the whole run.
type Document interface {
	// ReplaceAll replaces every occurrence and returns the count affected.
	ReplaceAll(ctx context.Context, req ReplaceRequest) (int, error)

	// Find locates the first occurrence of text.
	Find(ctx context.Context, text string, opts FindOptions) (Range, bool, error)

	// Annotate attaches a free-text comment covering the range using the
	// given variant. AnnotationLastChange ignores the range.
	Annotate(ctx context.Context, r Range, variant AnnotationVariant, comment, author string) error

	// InsertImage clears the range and embeds an inline image in its place.
	InsertImage(ctx context.Context, r Range, spec ImageSpec) error

	// ChangeCount returns the current length of the change log.
	ChangeCount(ctx context.Context) (int, error)

	// Changes returns change-log entries with index >= from.
	Changes(ctx context.Context, from int) ([]Change, error)

	// SetChangeComment sets the comment property on one change entry.
	SetChangeComment(ctx context.Context, index int, comment string) error

	// SetAuthor sets the identity the host attributes subsequent tracked
	// mutations to. Must be called before each replace, not after.
	SetAuthor(ctx context.Context, name string) error

	// SetTracking toggles record-changes mode.
	SetTracking(ctx context.Context, enabled bool) error

	// Text returns the document's plain text.
	Text(ctx context.Context) (string, error)

	// NativeImageSize asks the backend for an image's natural pixel size.
	// Returns (0, 0, nil) when the backend cannot tell.
	NativeImageSize(ctx context.Context, path string) (int, int, error)

	// Save persists the document to path in the fixed output format.
	Save(ctx context.Context, path string) error

	// Close releases the document handle.
	Close(ctx context.Context) error
}
