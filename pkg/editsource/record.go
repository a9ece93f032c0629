package editsource

// 🎯 Action describes what a record does to the document
type Action string

const (
	ActionReplace         Action = "replace"
	ActionDelete          Action = "delete"
	ActionComment         Action = "comment"
	ActionReplaceWithLogo Action = "replace_with_logo"
)

// DefaultAuthor is the identity attached to tracked changes when a record
// does not name its own author.
const DefaultAuthor = "Policy Edit Automation"

// 📝 Record is one requested change, normalized from either source shape.
// Records are built once at load time and consumed in source order.
type Record struct {
	Find      string // target text, empty records are skipped
	Replace   string // empty means deletion
	MatchCase bool
	WholeWord bool
	UseRegex  bool // tabular "Wildcards" column
	Comment   string
	Author    string
	Action    Action
}

// Actionable reports whether the record can be applied at all.
func (r Record) Actionable() bool {
	return r.Find != ""
}

// EffectiveAuthor returns the author identity to set on the document
// before applying this record.
func (r Record) EffectiveAuthor() string {
	if r.Author != "" {
		return r.Author
	}
	return DefaultAuthor
}

// 📦 Source is the normalized result of loading an edit source file.
// The replacement stream, comment-only entries and logo entries are
// exposed separately because they run through different engines.
type Source struct {
	Records  []Record // replace/delete stream, source order
	Comments []Record // comment-only entries, applied after replacements
	Logos    []Record // replace_with_logo entries, applied before tracking is enabled
	LogoPath string   // from structured metadata, empty for tabular sources
}

// split routes a normalized record into the right stream.
func (s *Source) split(r Record) {
	switch r.Action {
	case ActionComment:
		s.Comments = append(s.Comments, r)
	case ActionReplaceWithLogo:
		s.Logos = append(s.Logos, r)
	default:
		s.Records = append(s.Records, r)
	}
}
