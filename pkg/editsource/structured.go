package editsource

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gitlab.com/tozd/go/errors"
)

//go:embed schema.json
var schemaJSON []byte

// compiled lazily on first structured load
var compiledSchema *jsonschema.Schema

func loadSchema() (*jsonschema.Schema, error) {
	if compiledSchema != nil {
		return compiledSchema, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("editsource-schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, errors.Errorf("adding schema resource: %w", err)
	}
	schema, err := compiler.Compile("editsource-schema.json")
	if err != nil {
		return nil, errors.Errorf("compiling edit source schema: %w", err)
	}
	compiledSchema = schema
	return schema, nil
}

// 📦 wire shape of the structured instruction list
type structuredDoc struct {
	Metadata struct {
		LogoPath string `json:"logo_path"`
	} `json:"metadata"`
	Instructions *struct {
		Operations []structuredOp `json:"operations"`
	} `json:"instructions"`
}

type structuredOp struct {
	Action        string `json:"action"`
	TargetText    string `json:"target_text"`
	Replacement   string `json:"replacement"`
	Comment       string `json:"comment"`
	CommentAuthor string `json:"comment_author"`
	MatchCase     bool   `json:"match_case"`
	WholeWord     bool   `json:"whole_word"`
	UseRegex      bool   `json:"use_regex"`
}

// 📂 LoadStructured parses and schema-validates the structured instruction
// list. A missing required top-level key fails the whole load; individual
// malformed operations are skipped with a warning.
func LoadStructured(ctx context.Context, data []byte) (*Source, error) {
	logger := zerolog.Ctx(ctx)

	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, errors.Errorf("parsing edit source JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, errors.Errorf("validating edit source against schema: %w", err)
	}

	var doc structuredDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Errorf("decoding edit source: %w", err)
	}
	if doc.Instructions == nil {
		return nil, errors.Errorf("edit source is missing required key: instructions")
	}

	src := &Source{LogoPath: doc.Metadata.LogoPath}
	for i, op := range doc.Instructions.Operations {
		rec, ok := opToRecord(op)
		if !ok {
			logger.Warn().Int("operation", i).Str("action", op.Action).Msg("skipping malformed operation")
			continue
		}
		src.split(rec)
	}
	return src, nil
}

func opToRecord(op structuredOp) (Record, bool) {
	if op.TargetText == "" {
		return Record{}, false
	}
	rec := Record{
		Find:      op.TargetText,
		Replace:   op.Replacement,
		MatchCase: op.MatchCase,
		WholeWord: op.WholeWord,
		UseRegex:  op.UseRegex,
		Comment:   op.Comment,
		Author:    op.CommentAuthor,
		Action:    Action(op.Action),
	}
	if rec.Author == "" {
		rec.Author = DefaultAuthor
	}
	switch rec.Action {
	case ActionDelete:
		// delete forces an empty replacement regardless of what was sent
		rec.Replace = ""
	case ActionComment:
		if rec.Comment == "" {
			return Record{}, false
		}
	case ActionReplace, ActionReplaceWithLogo:
	default:
		return Record{}, false
	}
	return rec, true
}
