package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charliek/poolwatch/internal/config"
	"github.com/charliek/poolwatch/internal/control"
)

// controlFunc performs one Control API call
type controlFunc func(ctx context.Context, client *control.Client, cfg *config.Config) (string, error)

// newControlCmd builds a command that makes one Control API call and prints
// the backend's reply
func newControlCmd(opts *rootOptions, use, short string, call controlFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			return runControl(cmd, cfg, call)
		},
	}
}

func runControl(cmd *cobra.Command, cfg *config.Config, call controlFunc) error {
	client := control.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	text, err := call(cmd.Context(), client, cfg)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

// describe turns a rejected request into a message naming the backend's
// reply
func describe(err error) error {
	var apiErr *control.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("backend rejected request (%d): %s", apiErr.StatusCode, apiErr.Body)
	}
	return err
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	var pf poolFlags
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ticket pool",
		Long: `Initialize the ticket pool with the configured parameters.

Examples:
  poolwatch init
  poolwatch init --max-capacity 500 --total-tickets 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			pf.apply(cmd, &cfg.Pool)
			if err := cfg.Pool.PoolConfig.Validate(); err != nil {
				return err
			}
			return runControl(cmd, cfg, func(ctx context.Context, c *control.Client, cfg *config.Config) (string, error) {
				return c.Initialize(ctx, cfg.Pool.PoolConfig)
			})
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func newSaveCmd(opts *rootOptions) *cobra.Command {
	var pf poolFlags
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the pool configuration on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			pf.apply(cmd, &cfg.Pool)
			if err := cfg.Pool.PoolConfig.Validate(); err != nil {
				return err
			}
			return runControl(cmd, cfg, func(ctx context.Context, c *control.Client, cfg *config.Config) (string, error) {
				return c.Save(ctx, cfg.Pool.PoolConfig)
			})
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func newStartCmd(opts *rootOptions) *cobra.Command {
	var wf workerFlags
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start vendor and consumer threads",
		Long: `Start or resume the vendor and consumer threads on the backend.

Examples:
  poolwatch start
  poolwatch start --vendors 3 --consumers 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			wf.apply(cmd, &cfg.Pool)
			params := cfg.Pool.StartParams()
			if err := params.Validate(); err != nil {
				return err
			}
			return runControl(cmd, cfg, func(ctx context.Context, c *control.Client, _ *config.Config) (string, error) {
				return c.Start(ctx, params)
			})
		},
	}
	wf.register(cmd.Flags())
	return cmd
}

func newStopCmd(opts *rootOptions) *cobra.Command {
	return newControlCmd(opts, "stop", "Stop vendor and consumer threads",
		func(ctx context.Context, c *control.Client, _ *config.Config) (string, error) {
			return c.Stop(ctx)
		})
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	return newControlCmd(opts, "reset", "Reset the ticket pool",
		func(ctx context.Context, c *control.Client, _ *config.Config) (string, error) {
			return c.Reset(ctx)
		})
}

func newClearLogsCmd(opts *rootOptions) *cobra.Command {
	return newControlCmd(opts, "clear-logs", "Clear the backend log",
		func(ctx context.Context, c *control.Client, _ *config.Config) (string, error) {
			return c.ClearLogs(ctx)
		})
}

func newSendLogCmd(opts *rootOptions) *cobra.Command {
	return newControlCmd(opts, "send-log", "Ask the backend to publish a test log line",
		func(ctx context.Context, c *control.Client, _ *config.Config) (string, error) {
			return c.SendTestLog(ctx)
		})
}

func newSizeCmd(opts *rootOptions) *cobra.Command {
	return newControlCmd(opts, "size", "Print the current pool size",
		func(ctx context.Context, c *control.Client, _ *config.Config) (string, error) {
			n, err := c.Size(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d", n), nil
		})
}
