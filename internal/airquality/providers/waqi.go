package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

// DefaultWAQIBaseURL is the public World Air Quality Index feed host.
const DefaultWAQIBaseURL = "https://api.waqi.info"

// WAQIProvider implements the airquality.Provider interface for the WAQI feed.
type WAQIProvider struct {
	name      string
	token     string
	baseURL   string
	stationID int
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

func NewWAQIProvider(client *http.Client, baseURL, token string, stationID int) *WAQIProvider {
	if baseURL == "" {
		baseURL = DefaultWAQIBaseURL
	}
	return &WAQIProvider{
		name:      "waqi",
		token:     token,
		baseURL:   strings.TrimRight(baseURL, "/"),
		stationID: stationID,
		httpCfg:   HTTPClientConfig{Client: client},
		circuit:   newCircuitBreaker("waqi"),
	}
}

func (p *WAQIProvider) Name() string {
	return p.name
}

// waqiValue is one iaqi entry; V is a pointer so a missing value stays nil.
type waqiValue struct {
	V *float64 `json:"v"`
}

type waqiPayload struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type waqiData struct {
	IAQI struct {
		PM25 *waqiValue `json:"pm25"`
		PM10 *waqiValue `json:"pm10"`
	} `json:"iaqi"`
}

func (p *WAQIProvider) Fetch(ctx context.Context) (airquality.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("token", p.token)

		u := fmt.Sprintf("%s/feed/@%d/?%s", p.baseURL, p.stationID, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return airquality.Reading{}, err
	}
	defer resp.Body.Close()

	var payload waqiPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.Reading{}, &airquality.TransportError{
			StatusCode: 0,
			Err:        fmt.Errorf("decode feed response: %w", err),
		}
	}

	if payload.Status != "ok" {
		return airquality.Reading{}, &airquality.APIError{
			Status:  payload.Status,
			Payload: payload.Data,
		}
	}

	var data waqiData
	if len(payload.Data) > 0 {
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			return airquality.Reading{}, &airquality.TransportError{
				Err: fmt.Errorf("decode feed data: %w", err),
			}
		}
	}

	return airquality.Reading{
		PM25: value(data.IAQI.PM25),
		PM10: value(data.IAQI.PM10),
	}, nil
}

func value(v *waqiValue) *float64 {
	if v == nil {
		return nil
	}
	return v.V
}
