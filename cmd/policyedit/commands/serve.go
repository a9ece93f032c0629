package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/cmd/policyedit/opts"
	"github.com/hassansecfix/policy-edit-sub000/pkg/config"
	"github.com/hassansecfix/policy-edit-sub000/pkg/delivery/dashboard"
)

// NewServeCmd creates the serve command
func NewServeCmd(ro *opts.RootOpts) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local run dashboard",
		Long: `Serve starts the dashboard: live console lines over a websocket, the
rendered run report, and a JSON status endpoint. Edit source changes in
the watch directory are announced to connected browsers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "serve").Logger().WithContext(ctx)

			cfg, err := ro.Load(ctx)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			dash := cfg.Dashboard
			if dash == nil {
				dash = &config.DashboardArgs{Listen: "127.0.0.1:8377"}
			}

			hub := dashboard.NewHub()
			ro.Console.SetMirror(hub.Publish)

			ro.Console.Infof("dashboard at http://%s", dash.Listen)
			return dashboard.NewServer(hub, reportPath).Serve(ctx, dash.Listen, dash.WatchDir)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "run_report.md", "markdown run report to render")
	return cmd
}
