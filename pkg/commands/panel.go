package commands

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/open-teleop/teleop-console/pkg/ui"
	"github.com/spf13/cobra"
)

func addPanel(topLevel *cobra.Command, opts *RootOptions) {
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Run the terminal control panel (default).",
		Example: `
teleop-console panel --config-dir ./config
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPanel(cmd, opts)
		},
	}

	topLevel.AddCommand(cmd)
}

func runPanel(cmd *cobra.Command, opts *RootOptions) error {
	cmd.SilenceUsage = true

	cfg, _, err := loadBootstrap(cmd, opts)
	if err != nil {
		return err
	}

	// the panel owns the terminal
	logger, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}

	theme, err := ui.LoadTheme(cfg.StylesheetPath())
	if err != nil {
		logger.Warnf("Using built-in styles: %v", err)
	}

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	rt.bus.Start()
	app, apiErr := rt.startAPI(nil)
	defer rt.close(app)

	model := ui.New(rt.console, ui.Options{
		Period: rt.period(),
		Theme:  theme,
		Bus:    rt.bus,
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("panel: %w", err)
	}

	select {
	case err := <-apiErr:
		logger.Errorf("%v", err)
	default:
	}

	if m, ok := final.(ui.Model); ok && m.ExitErr() != nil {
		logger.Errorf("Panel stopped: %v", m.ExitErr())
		return m.ExitErr()
	}
	logger.Infof("Panel closed by operator")
	return nil
}
