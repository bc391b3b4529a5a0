// Package chart draws the pool size window as a line chart file.
package chart

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/series"
)

// Options controls the rendered image
type Options struct {
	Width  int
	Height int
	Title  string
}

// Renderer redraws the chart file from window snapshots. Until Initialize
// succeeds it is headless and Render does nothing.
type Renderer struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	surface string // output path, empty when headless
	format  chart.RendererProvider
}

// NewRenderer creates a headless renderer
func NewRenderer(logger *slog.Logger, opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = constants.DefaultChartWidth
	}
	if opts.Height <= 0 {
		opts.Height = constants.DefaultChartHeight
	}
	if opts.Title == "" {
		opts.Title = "Ticket Pool Size"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{opts: opts, logger: logger.With("component", "chart")}
}

// Initialize binds the renderer to an output file. The file's directory
// must already exist; otherwise a *domain.RenderError is returned, logged,
// and the renderer stays headless.
func (r *Renderer) Initialize(mountPoint string) error {
	if err := checkSurface(mountPoint); err != nil {
		rerr := &domain.RenderError{Surface: mountPoint, Err: err}
		r.logger.Error("chart disabled, continuing headless", "error", rerr)
		return rerr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface = mountPoint
	r.format = formatFor(mountPoint)
	r.logger.Info("chart surface ready", "path", mountPoint)
	return nil
}

func checkSurface(path string) error {
	if path == "" {
		return domain.ErrSurfaceMissing
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSurfaceMissing, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrSurfaceMissing, filepath.Dir(path))
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrSurfaceMissing, path)
	}
	return nil
}

func formatFor(path string) chart.RendererProvider {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return chart.PNG
	}
	return chart.SVG
}

// Headless reports whether there is no surface to draw on
func (r *Renderer) Headless() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface == ""
}

// Surface returns the bound output path
func (r *Renderer) Surface() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface
}

// Render redraws the whole chart from snap. The file is replaced
// atomically so readers never see a partial image.
func (r *Renderer) Render(snap series.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.surface == "" {
		return nil
	}

	var buf bytes.Buffer
	if err := r.build(snap).Render(r.format, &buf); err != nil {
		return &domain.RenderError{Surface: r.surface, Err: err}
	}
	if err := writeAtomic(r.surface, buf.Bytes()); err != nil {
		return &domain.RenderError{Surface: r.surface, Err: err}
	}
	return nil
}

// Teardown releases the surface. Safe to call more than once.
func (r *Renderer) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.surface != "" {
		r.logger.Debug("chart surface released", "path", r.surface)
	}
	r.surface = ""
	r.format = nil
}

func (r *Renderer) build(snap series.Snapshot) chart.Chart {
	xs := make([]float64, len(snap))
	ticks := make([]chart.Tick, len(snap))
	for i, s := range snap {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: s.Label}
	}
	ys := snap.Values()

	switch len(snap) {
	case 0:
		// Empty window: a flat baseline so the axes still draw
		xs, ys = []float64{0, 1}, []float64{0, 0}
		ticks = []chart.Tick{{Value: 0, Label: ""}, {Value: 1, Label: ""}}
	case 1:
		xs = append(xs, 1)
		ys = append(ys, ys[0])
		ticks = append(ticks, chart.Tick{Value: 1, Label: ""})
	}

	return chart.Chart{
		Title:  r.opts.Title,
		Width:  r.opts.Width,
		Height: r.opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  "Time",
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Pool Size",
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax(snap.Max())},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Pool Size",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("4bc0c0"),
					StrokeWidth: 2,
					DotWidth:    3,
					DotColor:    drawing.ColorFromHex("4bc0c0"),
				},
			},
		},
	}
}

// axisMax rounds the largest value up to a readable bound with headroom
func axisMax(maxValue int) float64 {
	if maxValue <= 0 {
		return 10
	}
	v := float64(maxValue) * 1.1
	step := math.Pow(10, math.Floor(math.Log10(v)))
	if step < 1 {
		step = 1
	}
	return math.Ceil(v/step) * step
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".poolwatch-chart-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
