package beamcentre

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotReporter draws raw, smoothed and whole-pixel beam centres for an
// axis into Dir/shift_images_<axis>.png.
type PlotReporter struct {
	Dir string
}

func (pr PlotReporter) Filename(axis string) string {
	return filepath.Join(pr.Dir, fmt.Sprintf("shift_images_%s.png", axis))
}

func (pr PlotReporter) Report(axis string, indices []int, raw, smoothed []float64, whole []int) error {
	if pr.Dir != "" {
		if err := os.MkdirAll(pr.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create plot dir: %w", err)
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Beam centre along the %s axis", axis)
	p.X.Label.Text = "Image"
	p.Y.Label.Text = "Pixel"

	rawPts := make(plotter.XYs, len(indices))
	smoothPts := make(plotter.XYs, len(indices))
	wholePts := make(plotter.XYs, len(indices))
	for i, idx := range indices {
		x := float64(idx)
		rawPts[i] = plotter.XY{X: x, Y: raw[i]}
		smoothPts[i] = plotter.XY{X: x, Y: smoothed[i]}
		wholePts[i] = plotter.XY{X: x, Y: float64(whole[i])}
	}

	series := []struct {
		label string
		pts   plotter.XYs
		col   color.Color
	}{
		{"raw", rawPts, color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}},
		{"smoothed", smoothPts, color.RGBA{R: 0xff, A: 0xff}},
		{"integer", wholePts, color.RGBA{G: 0x80, A: 0xff}},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return fmt.Errorf("plot %s %s: %w", axis, s.label, err)
		}
		line.Color = s.col
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 4*vg.Inch, pr.Filename(axis)); err != nil {
		return fmt.Errorf("save %s plot: %w", axis, err)
	}
	return nil
}
