package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
	"github.com/i474232898/construction-aqi-dashboard/internal/render"
)

var validate = validator.New()

// Options configures the dashboard surface.
type Options struct {
	CommunityURL    string
	RefreshInterval time.Duration
}

// RegisterRoutes wires the dashboard and JSON handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *airquality.Service, opts Options) error {
	qr, err := render.QRCode(opts.CommunityURL, render.QRSize)
	if err != nil {
		return fmt.Errorf("build community qr code: %w", err)
	}

	d := &dashboard{service: service, opts: opts}
	app.Get("/", d.page)
	app.Get("/chart.png", d.chart)
	app.Get("/qr.png", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		return c.Send(qr)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/current", func(c *fiber.Ctx) error {
		report, ok := service.Latest()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "no refresh cycle has completed yet")
		}
		return c.JSON(currentResponse(report))
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		span := time.Duration(req.Hours) * time.Hour
		readings, err := service.History(c.UserContext(), span)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read history")
		}
		if readings == nil {
			readings = airquality.History{}
		}

		return c.JSON(fiber.Map{
			"hours":    req.Hours,
			"readings": readings,
		})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		report, ok := service.Latest()
		if !ok || len(report.Window) == 0 {
			return fiber.NewError(fiber.StatusNotFound, airquality.ErrInsufficientHistory.Error())
		}
		return c.JSON(fiber.Map{
			"points":   min(len(report.Window), airquality.ForecastPoints),
			"forecast": report.Forecast,
		})
	})

	v1.Get("/guidelines", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"guidelines": airquality.Guidelines,
			"checklist":  airquality.Checklist,
		})
	})

	return nil
}

type levels struct {
	PM25 airquality.Level `json:"pm25"`
	PM10 airquality.Level `json:"pm10"`
}

type fetchError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func currentResponse(r airquality.Report) fiber.Map {
	resp := fiber.Map{
		"station":  airquality.StationID,
		"at":       r.At,
		"reading":  r.Reading,
		"appended": r.Appended,
		"levels": levels{
			PM25: airquality.Classify(r.Reading.PM25, airquality.PM25Limit),
			PM10: airquality.Classify(r.Reading.PM10, airquality.PM10Limit),
		},
		"tips": airquality.Tips(r.Reading),
	}
	if r.FetchErr != nil {
		resp["error"] = fetchError{Kind: r.ErrorKind(), Message: fetchErrorMessage(r.FetchErr)}
	}
	return resp
}

// fetchErrorMessage is the text shown to users for a failed fetch.
func fetchErrorMessage(err error) string {
	var apiErr *airquality.APIError
	if errors.As(err, &apiErr) {
		return "API error: " + apiErr.Message()
	}
	return "Could not reach the air quality feed: " + err.Error()
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Hours int `validate:"min=1,max=168"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("hours")
	if raw == "" {
		h.Hours = 24
		return nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("hours must be an integer")
	}
	h.Hours = hours
	return nil
}
