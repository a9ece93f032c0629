package editgen

import (
	"fmt"
	"strings"
)

// documents beyond this many runes are truncated before prompting
const maxDocRunes = 60000

const truncationNotice = "\n\n[document truncated]"

const promptTemplate = `You are editing a compliance policy document for a customer.

Using the questionnaire answers below, produce the precise text edits the
document needs. Respond with ONLY a JSON object in a fenced code block,
shaped like:

{
  "instructions": {
    "operations": [
      {"action": "replace", "target_text": "...", "replacement": "...",
       "comment": "...", "comment_author": "..."}
    ]
  }
}

Allowed actions: replace, delete, comment, replace_with_logo.
Every target_text must be copied verbatim from the document.

## Questionnaire

%s

## Document

%s
`

// 📝 BuildPrompt renders the generation prompt. The document text is
// rune-truncated so oversized documents never blow the context window.
func BuildPrompt(questionnaire, docText string) string {
	return fmt.Sprintf(promptTemplate,
		strings.TrimSpace(questionnaire),
		TruncateRunes(docText, maxDocRunes))
}

// TruncateRunes caps s at n runes, marking the cut.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + truncationNotice
}
