package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charliek/poolwatch/internal/config"
	"github.com/charliek/poolwatch/internal/constants"
)

// Version is set during build
var Version = "dev"

// rootOptions holds the global flags
type rootOptions struct {
	configPath string
	apiURL     string
	streamURL  string
	sseURL     string
	transport  string
	verbose    bool
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "poolwatch",
		Short: "Real-time monitor for the ticket pool simulation",
		Long: `poolwatch drives a ticket pool simulation backend and watches it live.
It supports:
  - Initializing, starting, stopping, resetting and saving the pool
  - Following the server log stream over STOMP or SSE, reconnecting on loss
  - Sampling the pool size every couple of seconds into a sliding window
  - Drawing the window as a chart file and in an interactive dashboard`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all subcommands
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", constants.DefaultConfigFile, "Config file")
	pf.StringVar(&opts.apiURL, "api-url", constants.DefaultAPIBaseURL, "Control API base URL")
	pf.StringVar(&opts.streamURL, "stream-url", constants.DefaultStreamEndpoint, "STOMP WebSocket endpoint")
	pf.StringVar(&opts.sseURL, "sse-url", constants.DefaultSSEEndpoint, "SSE log endpoint")
	pf.StringVar(&opts.transport, "transport", constants.DefaultTransport, "Log transport: auto, stomp or sse")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.SetVersionTemplate("poolwatch version {{.Version}}\n")

	rootCmd.AddCommand(
		newVersionCmd(),
		newWatchCmd(opts),
		newLogsCmd(opts),
		newSampleCmd(opts),
		newInitCmd(opts),
		newStartCmd(opts),
		newStopCmd(opts),
		newResetCmd(opts),
		newSaveCmd(opts),
		newClearLogsCmd(opts),
		newSendLogCmd(opts),
		newSizeCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "poolwatch version %s\n", Version)
		},
	}
}

// loadConfig resolves the configuration file and environment, then applies
// any flags given on the command line
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	cfg, err := config.Resolve(o.configPath, flags.Changed("config"))
	if err != nil {
		return nil, err
	}

	if flags.Changed("api-url") {
		cfg.API.BaseURL = o.apiURL
	}
	if flags.Changed("stream-url") {
		cfg.Stream.URL = o.streamURL
	}
	if flags.Changed("sse-url") {
		cfg.Stream.SSEURL = o.sseURL
	}
	if flags.Changed("transport") {
		cfg.Stream.Transport = o.transport
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
