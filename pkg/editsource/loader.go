package editsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Load reads an edit source file, picking the reader by extension:
// .json is the structured instruction list, anything else is treated as a
// delimited table.
func Load(ctx context.Context, path string) (*Source, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading edit source")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading edit source file: %w", err)
	}

	var src *Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		src, err = LoadStructured(ctx, data)
	default:
		src, err = LoadTabular(ctx, strings.NewReader(string(data)))
	}
	if err != nil {
		return nil, errors.Errorf("loading edit source %s: %w", path, err)
	}

	logger.Debug().
		Int("records", len(src.Records)).
		Int("comments", len(src.Comments)).
		Int("logos", len(src.Logos)).
		Msg("edit source loaded")
	return src, nil
}
