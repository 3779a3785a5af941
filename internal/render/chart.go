package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/samber/lo"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

// Default chart size in pixels.
const (
	ChartWidth  = 960
	ChartHeight = 360
)

var (
	pm25Color  = chart.ColorBlue
	pm10Color  = drawing.ColorFromHex("e67e22")
	limitColor = chart.ColorRed
)

// TrendChart renders the PM2.5 and PM10 series of window as a PNG, with the
// CPCB limits drawn as dashed lines. An empty window yields
// airquality.ErrInsufficientHistory.
func TrendChart(window airquality.History, width, height int) ([]byte, error) {
	times, pm25, pm10 := split(window)
	if len(times) == 0 {
		return nil, airquality.ErrInsufficientHistory
	}
	first := lo.MinBy(times, func(a, b time.Time) bool { return a.Before(b) })
	last := lo.MaxBy(times, func(a, b time.Time) bool { return a.After(b) })
	if !last.After(first) {
		// go-chart needs a non-zero x range; stretch the single instant into a short flat line.
		last = first.Add(time.Minute)
		n := len(times) - 1
		times = append(times, last)
		pm25 = append(pm25, pm25[n])
		pm10 = append(pm10, pm10[n])
	}

	graph := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 12, Bottom: 12}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04"),
		},
		YAxis: chart.YAxis{
			Name: "µg/m³",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "PM2.5",
				XValues: times,
				YValues: pm25,
				Style:   lineStyle(pm25Color),
			},
			chart.TimeSeries{
				Name:    "PM10",
				XValues: times,
				YValues: pm10,
				Style:   lineStyle(pm10Color),
			},
			limitSeries("PM2.5 limit", first, last, airquality.PM25Limit),
			limitSeries("PM10 limit", first, last, airquality.PM10Limit),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render trend chart: %w", err)
	}
	return buf.Bytes(), nil
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

func limitSeries(name string, from, to time.Time, limit float64) chart.TimeSeries {
	return chart.TimeSeries{
		Name:    name,
		XValues: []time.Time{from, to},
		YValues: []float64{limit, limit},
		Style: chart.Style{
			StrokeColor:     limitColor,
			StrokeWidth:     1,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

// split turns the window into parallel slices, skipping readings with a missing metric.
func split(window airquality.History) ([]time.Time, []float64, []float64) {
	times := make([]time.Time, 0, len(window))
	pm25 := make([]float64, 0, len(window))
	pm10 := make([]float64, 0, len(window))
	for _, r := range window {
		if !r.Complete() {
			continue
		}
		times = append(times, r.Time)
		pm25 = append(pm25, *r.PM25)
		pm10 = append(pm10, *r.PM10)
	}
	return times, pm25, pm10
}
