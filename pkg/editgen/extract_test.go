package editgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "fenced_with_language_tag",
			input: "Here are the edits:\n```json\n{\"instructions\": {\"operations\": []}}\n```\nDone.",
			want:  `{"instructions": {"operations": []}}`,
		},
		{
			name:  "fenced_without_language_tag",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "bare_object_with_prose_around",
			input: "Sure! The JSON is {\"a\": {\"b\": 2}} as requested.",
			want:  `{"a": {"b": 2}}`,
		},
		{
			name:  "braces_inside_string_values",
			input: `{"target_text": "if { x } then"} trailing`,
			want:  `{"target_text": "if { x } then"}`,
		},
		{
			name:  "escaped_quote_inside_string",
			input: `{"a": "he said \"hi\" {"} rest`,
			want:  `{"a": "he said \"hi\" {"}`,
		},
		{
			name:  "broken_fence_falls_back_to_balanced_scan",
			input: "```json\n{\"a\": 1}", // fence never closed
			want:  `{"a": 1}`,
		},
		{
			name:    "no_json_at_all",
			input:   "I could not produce any edits.",
			wantErr: true,
		},
		{
			name:    "unbalanced_object",
			input:   `{"a": {"b": 1}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", TruncateRunes("short", 100))

	long := strings.Repeat("é", 200)
	got := TruncateRunes(long, 50)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("é", 50)))
	assert.True(t, strings.HasSuffix(got, "[document truncated]"))
	assert.Len(t, []rune(strings.TrimSuffix(got, truncationNotice)), 50)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("  Company name: Globex  ", "document body")
	assert.Contains(t, p, "Company name: Globex")
	assert.Contains(t, p, "document body")
	assert.Contains(t, p, "replace_with_logo")
	assert.NotContains(t, p, "  Company name", "questionnaire is trimmed")
}
