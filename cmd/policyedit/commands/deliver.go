package commands

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/cmd/policyedit/opts"
	"github.com/hassansecfix/policy-edit-sub000/pkg/delivery/github"
)

// NewDeliverCmd creates the deliver command
func NewDeliverCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		wait        bool
		minInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "deliver",
		Short: "Deliver the edited document through GitHub",
		Long: `Deliver commits the edited document to the configured repository,
dispatches the conversion workflow and, with --wait, blocks for the run
and prints the artifact download URLs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "deliver").Logger().WithContext(ctx)

			cfg, err := ro.Load(ctx)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			if cfg.Delivery == nil {
				return errors.Errorf("no delivery block in config")
			}

			token := os.Getenv(cfg.Delivery.TokenEnv)
			if token == "" {
				return errors.Errorf("environment variable %s is not set", cfg.Delivery.TokenEnv)
			}

			client, err := github.New(ctx, github.Options{Token: token, MinInterval: minInterval})
			if err != nil {
				return err
			}

			urls, err := github.NewDelivery(client, cfg.Delivery, ro.Console).Deliver(ctx, cfg.Document.Output, wait)
			if err != nil {
				return err
			}
			for name, url := range urls {
				ro.Console.Infof("artifact %s: %s", name, url)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the conversion workflow and list artifacts")
	cmd.Flags().DurationVar(&minInterval, "min-interval", 500*time.Millisecond, "minimum spacing between GitHub API calls")
	return cmd
}
