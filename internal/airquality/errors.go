package airquality

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInsufficientHistory is returned when the window holds no readings, so
// neither a chart nor a forecast can be produced.
var ErrInsufficientHistory = errors.New("not enough history")

// Fetch error kinds as exposed to the UI and the JSON API.
const (
	KindTransport = "transport"
	KindAPI       = "api"
	KindUnknown   = "unknown"
)

// TransportError means the feed could not be reached or answered with a
// non-200 status. StatusCode is 0 when no response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("feed request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError means the feed answered 200 but its status field was not "ok".
// Payload carries the raw data field, which holds the feed's error message.
type APIError struct {
	Status  string
	Payload json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feed status %q: %s", e.Status, e.Message())
}

// Message returns the payload as display text, unquoting JSON strings.
func (e *APIError) Message() string {
	var s string
	if err := json.Unmarshal(e.Payload, &s); err == nil {
		return s
	}
	return string(e.Payload)
}

// FetchErrorKind classifies err for display. It returns "" for a nil error.
func FetchErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		return KindTransport
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return KindAPI
	}
	return KindUnknown
}
