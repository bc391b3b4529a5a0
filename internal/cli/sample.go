package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/charliek/poolwatch/internal/monitor"
	"github.com/charliek/poolwatch/internal/sampler"
	"github.com/charliek/poolwatch/internal/series"
)

type sampleOptions struct {
	ticks int
	out   string
}

func newSampleCmd(opts *rootOptions) *cobra.Command {
	var so sampleOptions
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample the pool size without the dashboard",
		Long: `Poll the pool size on the configured interval and print each sample.
With --out, the chart file is redrawn after every sample.

Examples:
  poolwatch sample --ticks 10
  poolwatch sample --out pool.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, opts, so)
		},
	}

	cmd.Flags().IntVar(&so.ticks, "ticks", 0, "Exit after this many samples (0 runs until interrupted)")
	cmd.Flags().StringVar(&so.out, "out", "", "Chart output file (.svg or .png)")

	return cmd
}

func runSample(cmd *cobra.Command, opts *rootOptions, so sampleOptions) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if so.ticks < 0 {
		return fmt.Errorf("--ticks must not be negative, got %d", so.ticks)
	}
	if so.out != "" {
		cfg.Chart.Output = so.out
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	out := cmd.OutOrStdout()

	done := make(chan struct{})
	var once sync.Once
	count := 0
	printer := sampler.RendererFunc(func(snap series.Snapshot) error {
		last, ok := snap.Last()
		if !ok || (so.ticks > 0 && count >= so.ticks) {
			return nil
		}
		count++
		fmt.Fprintf(out, "%s  %d\n", last.Label, last.Value)
		if so.ticks > 0 && count >= so.ticks {
			once.Do(func() { close(done) })
		}
		return nil
	})

	mon := monitor.New(cfg, monitor.Deps{Logger: logger, Renderers: []sampler.Renderer{printer}})
	defer mon.Close()

	if err := mon.InitChart(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon.StartSampling()

	select {
	case <-ctx.Done():
	case <-done:
	}
	mon.StopSampling()
	return nil
}
