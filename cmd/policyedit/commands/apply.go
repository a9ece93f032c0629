package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/cmd/policyedit/opts"
	"github.com/hassansecfix/policy-edit-sub000/pkg/pipeline"
)

// NewApplyCmd creates the apply command
func NewApplyCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		dryRun     bool
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the edit source to the document",
		Long: `Apply runs the full edit pipeline:
1. Load the edit source (CSV or JSON)
2. Place the logo while change tracking is off
3. Apply replacements and deletions as tracked changes
4. Attach comments, falling back through the strategy cascade
5. Save the document and write the run report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "apply").Logger().WithContext(ctx)

			cfg, err := ro.Load(ctx)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}

			doc, closeBackend, err := pipeline.OpenDocument(ctx, cfg, dryRun)
			if err != nil {
				return errors.Errorf("opening document: %w", err)
			}
			defer func() { _ = closeBackend() }()

			rep, err := pipeline.NewRunner(cfg, doc, ro.Console).Run(ctx)
			if err != nil {
				return errors.Errorf("running pipeline: %w", err)
			}
			if err := doc.Close(ctx); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("closing document failed")
			}

			if reportPath != "" {
				if err := rep.WriteFile(reportPath); err != nil {
					return err
				}
				ro.Console.Infof("report written to %s", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run against the in-memory backend instead of the automation host")
	cmd.Flags().StringVar(&reportPath, "report", "run_report.md", "markdown run report path, empty to skip")
	return cmd
}
