package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/cmd/policyedit/opts"
	"github.com/hassansecfix/policy-edit-sub000/pkg/editgen"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		questionnairePath string
		documentTextPath  string
		outPath           string
		model             string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a structured edit source from a questionnaire",
		Long: `Generate sends the questionnaire answers and the document text to the
model and writes the schema-validated instruction JSON. The API key is
read from the GEMINI_API_KEY environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "generate").Logger().WithContext(ctx)

			cfg, err := ro.Load(ctx)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			if outPath == "" {
				outPath = cfg.Document.Edits
			}
			if documentTextPath == "" {
				documentTextPath = cfg.Document.Input
			}

			questionnaire, err := os.ReadFile(questionnairePath)
			if err != nil {
				return errors.Errorf("reading questionnaire: %w", err)
			}
			docText, err := os.ReadFile(documentTextPath)
			if err != nil {
				return errors.Errorf("reading document text: %w", err)
			}

			gen, err := editgen.New(ctx, editgen.Options{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  model,
			})
			if err != nil {
				return err
			}

			data, src, err := gen.Generate(ctx, string(questionnaire), string(docText))
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return errors.Errorf("writing edit source: %w", err)
			}

			ro.Console.Successf("wrote %s (%d records, %d comments, %d logos)",
				outPath, len(src.Records), len(src.Comments), len(src.Logos))
			return nil
		},
	}

	cmd.Flags().StringVarP(&questionnairePath, "questionnaire", "q", "questionnaire.txt", "customer questionnaire answers")
	cmd.Flags().StringVar(&documentTextPath, "document-text", "", "plain-text document to ground the edits in (defaults to document.input)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (defaults to document.edits)")
	cmd.Flags().StringVarP(&model, "model", "m", editgen.DefaultModel, "model to use")
	return cmd
}
