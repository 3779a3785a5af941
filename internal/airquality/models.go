package airquality

import (
	"time"
)

// StationID is the WAQI station the dashboard tracks. It is not configurable.
const StationID = 14127

// Reading is a single PM2.5/PM10 observation. A nil metric means the feed
// did not report it.
type Reading struct {
	Time time.Time `json:"time"`
	PM25 *float64  `json:"pm25"`
	PM10 *float64  `json:"pm10"`
}

// Complete reports whether both metrics are present.
func (r Reading) Complete() bool {
	return r.PM25 != nil && r.PM10 != nil
}

// History is the persisted log of readings in insertion order.
// Insertion order is chronological order; it is never re-sorted and
// duplicate timestamps are allowed.
type History []Reading

// Forecast is the naive next-reading projection for both metrics.
type Forecast struct {
	PM25 *float64 `json:"pm25"`
	PM10 *float64 `json:"pm10"`
}

// Report is the outcome of one refresh cycle.
type Report struct {
	At       time.Time `json:"at"`
	Reading  Reading   `json:"reading"`
	FetchErr error     `json:"-"`
	Appended bool      `json:"appended"`
	Window   History   `json:"window"`
	Forecast Forecast  `json:"forecast"`
}

// ErrorKind returns the fetch error kind ("" when the fetch succeeded).
func (r Report) ErrorKind() string {
	return FetchErrorKind(r.FetchErr)
}

// Float returns a pointer to v. Handy for building readings by hand.
func Float(v float64) *float64 {
	return &v
}
