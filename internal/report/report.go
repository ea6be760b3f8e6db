// Package report renders per-class detection summaries as an HTML chart
// page or a static image.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/vehicle.detect/internal/detect"
)

// ErrEmptySummary is returned when there is nothing to plot.
var ErrEmptySummary = errors.New("summary contains no detections")

// Image dimensions for WritePNG.
var (
	ImageWidth  = 10 * vg.Inch
	ImageHeight = 5 * vg.Inch
)

func labels(s detect.Summary) []string {
	out := make([]string, len(s.Classes))
	for i, c := range s.Classes {
		out[i] = c.Name
	}
	return out
}

func round3(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v*1000) / 1000
}

// WriteHTML renders a page with two bar charts: detections per class, and
// the mean and standard deviation of scores per class.
func WriteHTML(w io.Writer, s detect.Summary, title string) error {
	subtitle := fmt.Sprintf("batches=%d detections=%d classes=%d", s.Batches, s.Total, len(s.Classes))

	counts := make([]opts.BarData, len(s.Classes))
	means := make([]opts.BarData, len(s.Classes))
	stds := make([]opts.BarData, len(s.Classes))
	for i, c := range s.Classes {
		counts[i] = opts.BarData{Value: c.Count}
		means[i] = opts.BarData{Value: round3(c.MeanScore)}
		stds[i] = opts.BarData{Value: round3(c.StdScore)}
	}

	countBar := charts.NewBar()
	countBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Detections"}),
	)
	countBar.SetXAxis(labels(s)).
		AddSeries("detections", counts,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	scoreBar := charts.NewBar()
	scoreBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Score (objectness x class confidence)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Score", Min: 0, Max: 1}),
	)
	scoreBar.SetXAxis(labels(s)).
		AddSeries("mean", means,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#26828e"}),
		).
		AddSeries("stddev", stds,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#b5de2b"}),
		)

	page := components.NewPage()
	page.AddCharts(countBar, scoreBar)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report page: %w", err)
	}
	return nil
}

// WritePNG saves a bar chart of detections per class to path. The image
// format follows the file extension.
func WritePNG(path string, s detect.Summary, title string) error {
	if len(s.Classes) == 0 {
		return ErrEmptySummary
	}

	values := make(plotter.Values, len(s.Classes))
	for i, c := range s.Classes {
		values[i] = float64(c.Count)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Detections"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return fmt.Errorf("build bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 0xff}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels(s)...)

	if err := p.Save(ImageWidth, ImageHeight, path); err != nil {
		return fmt.Errorf("save report image: %w", err)
	}
	return nil
}
