package services

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// RenderTrendChart draws the yearly trend as a PNG bar chart
func RenderTrendChart(w io.Writer, title string, trend map[int]int64) error {
	years := make([]int, 0, len(trend))
	for y := range trend {
		years = append(years, y)
	}
	sort.Ints(years)

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Crimes"

	values := make(plotter.Values, len(years))
	labels := make([]string, len(years))
	for i, y := range years {
		values[i] = float64(trend[y])
		labels[i] = strconv.Itoa(y)
	}

	if len(values) > 0 {
		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return fmt.Errorf("bar chart: %w", err)
		}
		bars.Color = color.RGBA{R: 178, G: 34, B: 34, A: 255}
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.YAlign = draw.YCenter
		p.X.Tick.Label.XAlign = draw.XRight
	}
	p.Add(plotter.NewGrid())
	p.Y.Min = 0

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
