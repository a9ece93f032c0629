package editsource

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🗺️ column aliases, matched case-insensitively against header cells
var columnAliases = map[string]string{
	"find":       "find",
	"target":     "find",
	"search":     "find",
	"replace":    "replace",
	"replacement": "replace",
	"matchcase":  "matchcase",
	"match_case": "matchcase",
	"wholeword":  "wholeword",
	"whole_word": "wholeword",
	"wildcards":  "wildcards",
	"regex":      "wildcards",
	"comment":    "comment",
	"note":       "comment",
	"author":     "author",
}

// positional column order used when no header row is present
var positionalColumns = []string{"find", "replace", "matchcase", "wholeword", "wildcards", "comment", "author"}

// ParseBool accepts the loose boolean forms used in edit tables:
// 1/true/yes/y (case-insensitive). Anything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// 📂 LoadTabular reads a delimited edit table. The first row may or may not
// be a header: it is treated as one when any cell matches a known column
// alias. Malformed rows are skipped with a warning, never fatal.
func LoadTabular(ctx context.Context, r io.Reader) (*Source, error) {
	logger := zerolog.Ctx(ctx)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Errorf("reading edit table: %w", err)
	}
	if len(rows) == 0 {
		return &Source{}, nil
	}

	columns := positionalColumns
	start := 0
	if headerColumns, ok := detectHeader(rows[0]); ok {
		columns = headerColumns
		start = 1
	}

	src := &Source{}
	for i := start; i < len(rows); i++ {
		rec, ok := rowToRecord(rows[i], columns)
		if !ok {
			logger.Warn().Int("row", i+1).Msg("skipping malformed edit row")
			continue
		}
		src.split(rec)
	}
	return src, nil
}

// detectHeader reports whether the row is a header and, if so, the
// normalized column name for each cell (unknown cells map to "").
func detectHeader(row []string) ([]string, bool) {
	columns := make([]string, len(row))
	found := false
	for i, cell := range row {
		name, ok := columnAliases[strings.ToLower(strings.TrimSpace(cell))]
		if ok {
			columns[i] = name
			found = true
		}
	}
	return columns, found
}

func rowToRecord(row []string, columns []string) (Record, bool) {
	rec := Record{Author: DefaultAuthor}
	for i, cell := range row {
		if i >= len(columns) {
			break
		}
		switch columns[i] {
		case "find":
			rec.Find = cell
		case "replace":
			rec.Replace = cell
		case "matchcase":
			rec.MatchCase = ParseBool(cell)
		case "wholeword":
			rec.WholeWord = ParseBool(cell)
		case "wildcards":
			rec.UseRegex = ParseBool(cell)
		case "comment":
			rec.Comment = cell
		case "author":
			if cell != "" {
				rec.Author = cell
			}
		}
	}
	if rec.Find == "" {
		return Record{}, false
	}
	if rec.Replace == "" {
		rec.Action = ActionDelete
	} else {
		rec.Action = ActionReplace
	}
	return rec, true
}
