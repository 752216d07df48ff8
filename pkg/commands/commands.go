// Package commands implements the teleop-console command line.
package commands

import (
	"fmt"

	"github.com/open-teleop/teleop-console/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootOptions are the flags shared by every command.
type RootOptions struct {
	ConfigDir string
	LogLevel  string
}

// New builds the root command. Without a subcommand it runs the panel.
func New() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "teleop-console",
		Short: "Operator console for an MTM/PSM teleoperation pair.",
		Long: `teleop-console shows the latest master and slave poses, publishes the
teleop enable flag on every tick and sends control modes to both manipulators.`,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPanel(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", ".",
		"Directory containing "+config.BootstrapFileName+".")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"Log level (debug, info, warn, error). Overrides logging.level.")

	AddCommands(cmd, opts)
	return cmd
}

// AddCommands registers every subcommand on topLevel.
func AddCommands(topLevel *cobra.Command, opts *RootOptions) {
	addPanel(topLevel, opts)
	addServe(topLevel, opts)
	addSend(topLevel, opts)
	addTopics(topLevel, opts)
}

// loadBootstrap reads console_config.yaml from the config dir with env and
// flag overrides applied.
func loadBootstrap(cmd *cobra.Command, opts *RootOptions) (*config.BootstrapConfig, *viper.Viper, error) {
	v := config.NewBootstrapViper(opts.ConfigDir)
	if f := cmd.Root().PersistentFlags().Lookup("log-level"); f != nil {
		if err := v.BindPFlag("logging.level", f); err != nil {
			return nil, nil, fmt.Errorf("bind --log-level: %w", err)
		}
	}

	cfg, err := config.LoadBootstrapConfig(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}
