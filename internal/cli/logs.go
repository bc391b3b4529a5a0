package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charliek/poolwatch/internal/clock"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/logs"
	"github.com/charliek/poolwatch/internal/monitor"
	"github.com/charliek/poolwatch/internal/stream"
)

type logsOptions struct {
	follow  bool
	pattern string
	regex   bool
	fold    bool
	lines   int
	wait    time.Duration
}

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var lo logsOptions
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the server log stream",
		Long: `Subscribe to the server log topic and print lines as they arrive.

Without --follow, lines are collected for --wait and the command exits.
The subscription reconnects on its own if the connection drops.

Examples:
  poolwatch logs -f
  poolwatch logs -f --pattern Vendor
  poolwatch logs --regex --pattern 'Customer-\d+ bought' -n 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, opts, lo)
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&lo.follow, "follow", "f", false, "Follow the stream until interrupted")
	fs.StringVar(&lo.pattern, "pattern", "", "Only print lines containing pattern")
	fs.BoolVar(&lo.regex, "regex", false, "Treat --pattern as a regular expression")
	fs.BoolVarP(&lo.fold, "ignore-case", "i", false, "Match --pattern case-insensitively")
	fs.IntVarP(&lo.lines, "lines", "n", 0, "Exit after printing this many lines")
	fs.DurationVar(&lo.wait, "wait", 5*time.Second, "How long to listen without --follow")

	return cmd
}

func runLogs(cmd *cobra.Command, opts *rootOptions, lo logsOptions) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	filter, err := logs.NewFilter(domain.LogFilter{Pattern: lo.pattern, IsRegex: lo.regex, IgnoreCase: lo.fold})
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if !lo.follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lo.wait)
		defer cancel()
	}

	logStream := logs.NewStream(time.Now)
	defer logStream.Close()
	sub := stream.NewSubscriber(monitor.NewTransport(cfg.Stream, logger), clock.Real(), logStream, logger, stream.Config{
		Topic:          cfg.Stream.Topic,
		ReconnectDelay: cfg.Stream.ReconnectDelay,
	})
	defer sub.Close()

	id, ch := logStream.Observe()
	defer logStream.Unobserve(id)

	sub.Connect()

	printer := NewLogPrinter(cmd.OutOrStdout(), filter)
	for {
		select {
		case <-ctx.Done():
			return nil
		case entries, ok := <-ch:
			if !ok {
				return nil
			}
			printer.PrintSnapshot(entries)
			if lo.lines > 0 && printer.Printed() >= lo.lines {
				return nil
			}
		}
	}
}
