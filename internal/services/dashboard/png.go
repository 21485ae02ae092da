package dashboard

import (
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptyChart is returned when there is no point to plot.
var ErrEmptyChart = errors.New("chart has no data")

const maxTicks = 10

// RenderChartPNG draws the chart as a PNG image. Series are plotted against
// the shared labels, point i of every series at label i.
func RenderChartPNG(w io.Writer, data ChartData, width, height int) error {
	series := make([]chart.Series, 0, len(data.Datasets))
	longest := 0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, ds := range data.Datasets {
		if len(ds.Data) == 0 {
			continue
		}
		xs := make([]float64, len(ds.Data))
		for i, v := range ds.Data {
			xs[i] = float64(i)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if len(ds.Data) > longest {
			longest = len(ds.Data)
		}
		color := parseColor(ds.BorderColor)
		series = append(series, chart.ContinuousSeries{
			Name:    ds.Label,
			XValues: xs,
			YValues: append([]float64{}, ds.Data...),
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: float64(ds.BorderWidth),
				DotColor:    color,
				DotWidth:    float64(ds.PointRadius),
			},
		})
	}
	if len(series) == 0 {
		return ErrEmptyChart
	}

	// go-chart rejects zero-width ranges
	if hi-lo < 1 {
		lo, hi = lo-1, hi+1
	}
	xMax := float64(longest - 1)
	if xMax < 1 {
		xMax = 1
	}

	graph := chart.Chart{
		Title:  data.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
			Ticks: labelTicks(data.Labels),
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.Wrap(err, "render chart")
	}
	return nil
}

// labelTicks thins the labels so that at most maxTicks are printed.
func labelTicks(labels []string) []chart.Tick {
	if len(labels) == 0 {
		return nil
	}
	step := (len(labels) + maxTicks - 1) / maxTicks
	ticks := make([]chart.Tick, 0, maxTicks+1)
	for i := 0; i < len(labels); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: labels[i]})
	}
	return ticks
}

func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if hex == "" {
		return drawing.ColorBlack
	}
	return drawing.ColorFromHex(hex)
}
