package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
	"github.com/i474232898/construction-aqi-dashboard/internal/common"
	"github.com/i474232898/construction-aqi-dashboard/internal/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/dashboard.html"))

type dashboard struct {
	service *airquality.Service
	opts    Options
}

type metricView struct {
	Label string
	Value string
	Color string
	Level airquality.Level
}

type checkView struct {
	Key     string
	Label   string
	Checked bool
}

type forecastView struct {
	PM25 string
	PM10 string
}

type pageView struct {
	Title          string
	StationID      int
	RefreshSeconds int
	UpdatedAt      string
	Ready          bool
	PM25           metricView
	PM10           metricView
	FetchError     string
	HasChart       bool
	ChartVersion   int64
	Guidelines     []airquality.Guideline
	Checklist      []checkView
	Progress       int
	Tips           []airquality.Tip
	Forecast       *forecastView
	CommunityURL   string
}

func (d *dashboard) page(c *fiber.Ctx) error {
	report, ok := d.service.Latest()

	checked := lo.Map(c.Context().QueryArgs().PeekMulti("check"), func(b []byte, _ int) string {
		return string(b)
	})

	view := pageView{
		Title:          "Construction Site AQI & Community Compliance",
		StationID:      airquality.StationID,
		RefreshSeconds: int(d.opts.RefreshInterval.Seconds()),
		Ready:          ok,
		PM25:           newMetricView("PM2.5 (µg/m³)", report.Reading.PM25, airquality.PM25Limit),
		PM10:           newMetricView("PM10 (µg/m³)", report.Reading.PM10, airquality.PM10Limit),
		HasChart:       len(report.Window) > 0,
		ChartVersion:   report.At.Unix(),
		Guidelines:     airquality.Guidelines,
		Checklist:      checklistView(checked),
		Progress:       common.Percent(airquality.Progress(checked)),
		Tips:           airquality.Tips(report.Reading),
		CommunityURL:   d.opts.CommunityURL,
	}
	if ok {
		view.UpdatedAt = report.At.Format("2006-01-02 15:04:05")
	}
	if report.FetchErr != nil {
		view.FetchError = fetchErrorMessage(report.FetchErr)
	}
	if len(report.Window) > 0 {
		view.Forecast = &forecastView{
			PM25: common.FormatOneDecimal(report.Forecast.PM25),
			PM10: common.FormatOneDecimal(report.Forecast.PM10),
		}
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, view); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render dashboard")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (d *dashboard) chart(c *fiber.Ctx) error {
	report, _ := d.service.Latest()

	png, err := render.TrendChart(report.Window, render.ChartWidth, render.ChartHeight)
	if errors.Is(err, airquality.ErrInsufficientHistory) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(png)
}

func newMetricView(label string, v *float64, limit float64) metricView {
	level := airquality.Classify(v, limit)
	return metricView{
		Label: label,
		Value: common.FormatValue(v),
		Color: level.Color(),
		Level: level,
	}
}

func checklistView(checked []string) []checkView {
	return lo.Map(airquality.Checklist, func(item airquality.ChecklistItem, _ int) checkView {
		return checkView{
			Key:     item.Key,
			Label:   item.Label,
			Checked: lo.Contains(checked, item.Key),
		}
	})
}
