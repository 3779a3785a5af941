package store

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

// Supported history drivers.
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Options selects and configures a history backend.
type Options struct {
	Driver     string
	CSVPath    string
	SQLitePath string
	Logger     *slog.Logger
}

// Open returns the history store for opts.Driver. The returned close func
// releases backend resources and is always safe to call.
func Open(opts Options) (airquality.HistoryStore, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverCSV:
		return NewCSVStore(opts.CSVPath, opts.Logger), noop, nil
	case DriverSQLite:
		s, err := OpenSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case DriverMemory:
		return NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown history driver %q", opts.Driver)
	}
}

// appendReading returns a new history with r at the end; h is left untouched.
func appendReading(h airquality.History, r airquality.Reading) airquality.History {
	out := make(airquality.History, 0, len(h)+1)
	out = append(out, h...)
	return append(out, r)
}
