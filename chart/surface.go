package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	// Green is the speedup series color
	Green = color.RGBA{G: 128, A: 255}
	// Red is the efficiency series color
	Red = color.RGBA{R: 255, A: 255}
)

// Series is one named sequence of values drawn against its record index
type Series struct {
	Label  string
	Values []float64
}

// ScalingChart describes a single-series chart of a metric against processor count
type ScalingChart struct {
	Title       string
	SeriesLabel string
	YLabel      string
	Color       color.Color
	LegendLeft  bool // Legend in the upper-left corner instead of the upper-right
}

// Surface is the drawing surface shared by consecutive charts. Call Reset between
// charts so a new chart never shows series from the previous one.
type Surface struct {
	Width  vg.Length
	Height vg.Length

	plot   *plot.Plot
	series int
}

// NewSurface creates an empty 8x6 inch surface
func NewSurface() *Surface {
	s := &Surface{
		Width:  8 * vg.Inch,
		Height: 6 * vg.Inch,
	}
	s.Reset()
	return s
}

// Reset discards everything drawn so far
func (s *Surface) Reset() {
	s.plot = plot.New()
	s.series = 0
}

// Series returns the number of legend series currently drawn
func (s *Surface) Series() int {
	return s.series
}

// DrawExecutionTime draws one line per series, x = epoch index, y = seconds
func (s *Surface) DrawExecutionTime(title string, series []Series) error {
	s.decorate(title, "epochs", "execution time (sec)")

	for i, sr := range series {
		pts := make(plotter.XYs, len(sr.Values))
		for j, v := range sr.Values {
			pts[j].X = float64(j)
			pts[j].Y = v
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", sr.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)

		s.plot.Add(line)
		s.plot.Legend.Add(sr.Label, line)
		s.series++
	}

	s.plot.Legend.Top = true
	s.plot.Legend.Left = true
	return nil
}

// DrawScaling draws values against processor counts as a dashed line with circle markers
func (s *Surface) DrawScaling(c ScalingChart, processors []int, values []float64) error {
	if len(processors) != len(values) {
		return fmt.Errorf("got %d processor counts for %d values", len(processors), len(values))
	}
	s.decorate(c.Title, "cores", c.YLabel)

	pts := make(plotter.XYs, len(values))
	for i := range values {
		pts[i].X = float64(processors[i])
		pts[i].Y = values[i]
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("series %q: %w", c.SeriesLabel, err)
	}
	line.Color = c.Color
	line.Width = vg.Points(1.5)
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	points.GlyphStyle.Color = c.Color
	points.GlyphStyle.Radius = vg.Points(3)

	s.plot.Add(line, points)
	s.plot.Legend.Add(c.SeriesLabel, line, points)
	s.plot.Legend.Top = true
	s.plot.Legend.Left = c.LegendLeft
	s.series++
	return nil
}

// Save renders the surface to path, creating the parent directory if needed.
// The image format follows the file extension.
func (s *Surface) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create chart directory %s: %w", dir, err)
		}
	}
	if err := s.plot.Save(s.Width, s.Height, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}

func (s *Surface) decorate(title, xLabel, yLabel string) {
	s.plot.Title.Text = title
	s.plot.X.Label.Text = xLabel
	s.plot.Y.Label.Text = yLabel
	s.plot.Add(plotter.NewGrid())
}
