// Package editgen produces a structured edit source from a customer
// questionnaire and the policy document's text, using the Gemini API.
// The model's output is schema-validated before anything downstream
// sees it.
package editgen

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"google.golang.org/genai"

	"github.com/hassansecfix/policy-edit-sub000/pkg/editsource"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// 🔧 Options configures the generator.
type Options struct {
	APIKey string
	Model  string
}

// 🤖 Generator wraps the Gemini client.
type Generator struct {
	client *genai.Client
	model  string
}

// 🏭 New creates a generator.
func New(ctx context.Context, opts Options) (*Generator, error) {
	if opts.APIKey == "" {
		return nil, errors.Errorf("an API key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Errorf("creating genai client: %w", err)
	}
	return &Generator{client: client, model: opts.Model}, nil
}

// 🎯 Generate asks the model for an instruction list and validates it.
// The returned bytes are the extracted JSON exactly as the caller should
// persist it; the Source is the parsed, schema-checked result.
func (g *Generator) Generate(ctx context.Context, questionnaire, docText string) ([]byte, *editsource.Source, error) {
	logger := zerolog.Ctx(ctx)

	prompt := BuildPrompt(questionnaire, docText)
	logger.Debug().
		Str("model", g.model).
		Int("prompt_runes", len([]rune(prompt))).
		Msg("requesting edit instructions")

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, nil, errors.Errorf("generating edit instructions: %w", err)
	}

	raw := resp.Text()
	data, err := ExtractJSON(raw)
	if err != nil {
		return nil, nil, errors.Errorf("extracting instruction JSON from model output: %w", err)
	}

	src, err := editsource.LoadStructured(ctx, data)
	if err != nil {
		return nil, nil, errors.Errorf("model produced an invalid instruction list: %w", err)
	}
	logger.Info().
		Int("records", len(src.Records)).
		Int("comments", len(src.Comments)).
		Msg("edit instructions generated")
	return data, src, nil
}
