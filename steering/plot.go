package steering

import (
	"image/color"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePlot draws the real bearing and steering command of every steered frame
// and writes the chart to fn. The format follows the file extension.
func (rs *RunStats) SavePlot(fn string) error {
	if len(rs.commands) == 0 {
		return errors.New("no steered frames to plot")
	}
	p := plot.New()
	p.Title.Text = "steering"
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "degrees"
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		name string
		ys   []float64
		c    color.Color
	}{
		{"real bearing", rs.bearings, color.RGBA{B: 255, A: 255}},
		{"command", rs.commands, color.RGBA{R: 255, A: 255}},
	} {
		xys := make(plotter.XYs, len(series.ys))
		for i, y := range series.ys {
			xys[i].X = rs.steeredAt[i]
			xys[i].Y = y
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.LineStyle.Color = series.c
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	if err := os.MkdirAll(filepath.Dir(fn), 0o750); err != nil {
		return err
	}
	return errors.Wrapf(p.Save(8*vg.Inch, 4*vg.Inch, fn), "failed to save plot %q", fn)
}
