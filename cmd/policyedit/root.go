package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hassansecfix/policy-edit-sub000/cmd/policyedit/commands"
	"github.com/hassansecfix/policy-edit-sub000/cmd/policyedit/opts"
	"github.com/hassansecfix/policy-edit-sub000/pkg/log"
)

var (
	// Flags
	configFile string
	debug      bool
)

// NewRootCmd builds the policyedit command tree.
func NewRootCmd() *cobra.Command {
	ro := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:           "policyedit",
		Short:         "Apply automated edits to policy documents",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
			ro.ConfigFile = configFile
			ro.Debug = debug
			level := zerolog.InfoLevel
			if debug {
				level = zerolog.DebugLevel
			}
			ro.Console = log.New(os.Stdout, level)
		},
	}
	addRootFlags(cmd)

	cmd.AddCommand(
		commands.NewApplyCmd(ro),
		commands.NewGenerateCmd(ro),
		commands.NewDeliverCmd(ro),
		commands.NewServeCmd(ro),
		newVersionCmd(),
	)
	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "policyedit.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
}
