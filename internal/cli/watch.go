package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/charliek/poolwatch/internal/monitor"
	"github.com/charliek/poolwatch/internal/sampler"
	"github.com/charliek/poolwatch/internal/tui"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var chartOut string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive dashboard",
		Long: `Open the dashboard: live log stream, pool size chart and pool controls.
Diagnostics go to log.file from the config, since the dashboard owns the
terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if chartOut != "" {
				cfg.Chart.Output = chartOut
			}

			var logOut io.Writer = io.Discard
			if cfg.Log.File != "" {
				f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			logger := newLogger(logOut, cfg.Log.Level)

			feed := tui.NewSampleFeed()
			mon := monitor.New(cfg, monitor.Deps{Logger: logger, Renderers: []sampler.Renderer{feed}})
			defer mon.Close()

			if err := mon.Open(cmd.Context()); err != nil {
				return err
			}
			return tui.Run(mon, feed)
		},
	}
	cmd.Flags().StringVar(&chartOut, "out", "", "Also write the chart to this file (.svg or .png)")
	return cmd
}
