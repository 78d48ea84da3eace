package monitor

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	leftColor      = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	rightColor     = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	thresholdColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	repColor       = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// WriteAnglePlot renders knee angles over time with the depth threshold and
// a marker at each counted rep. The image format follows the extension of
// path (.png, .svg, .pdf).
func (r *SeriesRecorder) WriteAnglePlot(path string) error {
	samples := r.Samples()
	if len(samples) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Knee angle"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Angle (deg)"

	left, right := make(plotter.XYs, 0, len(samples)), make(plotter.XYs, 0, len(samples))
	var reps plotter.XYs
	for _, s := range samples {
		x := float64(s.Index)
		// plotter rejects NaN, so unmeasured frames leave a gap in the data.
		if !math.IsNaN(s.LeftKneeDeg) {
			left = append(left, plotter.XY{X: x, Y: s.LeftKneeDeg})
		}
		if !math.IsNaN(s.RightKneeDeg) {
			right = append(right, plotter.XY{X: x, Y: s.RightKneeDeg})
		}
		if m := minKnee(s); s.Counted && !math.IsNaN(m) {
			reps = append(reps, plotter.XY{X: x, Y: m})
		}
	}

	if err := addLine(p, "left knee", left, leftColor); err != nil {
		return err
	}
	if err := addLine(p, "right knee", right, rightColor); err != nil {
		return err
	}

	first, last := float64(samples[0].Index), float64(samples[len(samples)-1].Index)
	if last == first {
		last = first + 1
	}
	depth := plotter.XYs{{X: first, Y: r.threshold}, {X: last, Y: r.threshold}}
	if err := addLine(p, fmt.Sprintf("depth %.0f°", r.threshold), depth, thresholdColor); err != nil {
		return err
	}

	if len(reps) > 0 {
		sc, err := plotter.NewScatter(reps)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = repColor
		sc.GlyphStyle.Shape = draw.PyramidGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("rep", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save angle plot: %w", err)
	}
	return nil
}

// WriteShoulderPlot renders shoulder height over time. Image Y grows
// downward, so the axis is inverted to read as height.
func (r *SeriesRecorder) WriteShoulderPlot(path string) error {
	samples := r.Samples()
	if len(samples) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Shoulder height"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Normalized Y (inverted)"

	left, right := make(plotter.XYs, 0, len(samples)), make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		x := float64(s.Index)
		if !math.IsNaN(s.LeftShoulderY) {
			left = append(left, plotter.XY{X: x, Y: -s.LeftShoulderY})
		}
		if !math.IsNaN(s.RightShoulderY) {
			right = append(right, plotter.XY{X: x, Y: -s.RightShoulderY})
		}
	}
	if err := addLine(p, "left shoulder", left, leftColor); err != nil {
		return err
	}
	if err := addLine(p, "right shoulder", right, rightColor); err != nil {
		return err
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save shoulder plot: %w", err)
	}
	return nil
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}
