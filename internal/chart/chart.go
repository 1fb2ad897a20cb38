// Package chart renders aggregation results as PNG images using go-chart.
// Bar charts get one bar per group; line charts get one point per group with
// the group keys as x-axis tick labels.
package chart

import (
	"fmt"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"

	"salespipe/internal/aggregate"
)

// Default image dimensions, used when the config leaves them zero.
const (
	defaultWidth  = 1024
	defaultHeight = 600
)

// Renderer writes chart images into a directory. It implements
// aggregate.ChartRenderer.
type Renderer struct {
	dir    string
	width  int
	height int
}

// NewRenderer constructs a Renderer rooted at dir. The directory is created
// on first save if missing.
func NewRenderer(dir string, width, height int) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return &Renderer{dir: dir, width: width, height: height}
}

// Save renders groups as the requested chart kind and writes the image to
// file (relative to the renderer's directory), overwriting any existing one.
func (r *Renderer) Save(file string, kind aggregate.ChartKind, title string, groups []aggregate.Group) error {
	if len(groups) == 0 {
		return fmt.Errorf("chart: %s: no groups to render", file)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("chart: create dir %s: %w", r.dir, err)
	}
	path := filepath.Join(r.dir, file)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: create %s: %w", path, err)
	}
	defer f.Close()

	// A line needs at least two points; a degenerate single-group result is
	// rendered as a bar instead of failing the run.
	if kind == aggregate.ChartLine && len(groups) >= 2 {
		err = r.renderLine(f, title, groups)
	} else {
		err = r.renderBar(f, title, groups)
	}
	if err != nil {
		return fmt.Errorf("chart: render %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("chart: close %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) renderBar(f *os.File, title string, groups []aggregate.Group) error {
	bars := make([]gochart.Value, 0, len(groups))
	for _, g := range groups {
		bars = append(bars, gochart.Value{Label: g.Key, Value: g.Value})
	}

	bc := gochart.BarChart{
		Title:    title,
		Width:    r.width,
		Height:   r.height,
		BarWidth: 40,
		Bars:     bars,
	}
	return bc.Render(gochart.PNG, f)
}

func (r *Renderer) renderLine(f *os.File, title string, groups []aggregate.Group) error {
	xs := make([]float64, len(groups))
	ys := make([]float64, len(groups))
	ticks := make([]gochart.Tick, len(groups))
	for i, g := range groups {
		xs[i] = float64(i)
		ys[i] = g.Value
		ticks[i] = gochart.Tick{Value: float64(i), Label: g.Key}
	}

	c := gochart.Chart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		XAxis: gochart.XAxis{
			Ticks: ticks,
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
			},
		},
	}
	return c.Render(gochart.PNG, f)
}
