package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

// DefaultHistoryFile is the CSV file name used when none is configured.
const DefaultHistoryFile = "aqi_history.csv"

var csvHeader = []string{"time", "pm25", "pm10"}

// Layouts accepted when loading. The first one is what we write; the others
// cover files produced by the earlier pandas-based dashboard.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
}

// ErrMissingHeader is returned when a history file does not carry the time,pm25,pm10 columns.
var ErrMissingHeader = errors.New("history file is missing the time,pm25,pm10 header")

// CSVStore keeps the history in a flat CSV file with header time,pm25,pm10.
// Every append rewrites the whole file through a temp file and a rename, so
// readers never observe a half-written file. The mutex only serialises
// writers inside this process.
type CSVStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewCSVStore creates a store for path. Skipped rows are reported to logger;
// a nil logger falls back to slog.Default.
func NewCSVStore(path string, logger *slog.Logger) *CSVStore {
	if path == "" {
		path = DefaultHistoryFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVStore{path: path, logger: logger}
}

// Path returns the history file location.
func (s *CSVStore) Path() string {
	return s.path
}

// Load reads the history file. A missing file is the first run and yields an
// empty history. Rows that cannot be parsed are skipped.
func (s *CSVStore) Load(_ context.Context) (airquality.History, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return airquality.History{}, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	return s.decode(f)
}

func (s *CSVStore) decode(r io.Reader) (airquality.History, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return airquality.History{}, nil
		}
		return nil, fmt.Errorf("read history header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	history := airquality.History{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history line %d: %w", line, err)
		}
		reading, err := parseRecord(record, cols)
		if err != nil {
			s.logger.Warn("skipping history row", "path", s.path, "line", line, "error", err)
			continue
		}
		history = append(history, reading)
	}
	return history, nil
}

// Append persists h plus r when r carries both metrics. Otherwise the file is
// not touched and h is returned unchanged.
func (s *CSVStore) Append(_ context.Context, h airquality.History, r airquality.Reading) (airquality.History, error) {
	if !r.Complete() {
		return h, nil
	}
	updated := appendReading(h, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(updated); err != nil {
		return h, err
	}
	return updated, nil
}

func (s *CSVStore) persist(h airquality.History) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := encode(tmp, h); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

func encode(w io.Writer, h airquality.History) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range h {
		if err := cw.Write([]string{
			r.Time.Format(time.RFC3339Nano),
			floatStr(r.PM25),
			floatStr(r.PM10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type columns struct{ time, pm25, pm10 int }

func columnIndex(header []string) (columns, error) {
	cols := columns{-1, -1, -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time":
			cols.time = i
		case "pm25":
			cols.pm25 = i
		case "pm10":
			cols.pm10 = i
		}
	}
	if cols.time < 0 || cols.pm25 < 0 || cols.pm10 < 0 {
		return cols, ErrMissingHeader
	}
	return cols, nil
}

func parseRecord(record []string, cols columns) (airquality.Reading, error) {
	if len(record) <= max(cols.time, cols.pm25, cols.pm10) {
		return airquality.Reading{}, fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(record))
	}
	ts, err := parseTime(record[cols.time])
	if err != nil {
		return airquality.Reading{}, err
	}
	pm25, err := parseFloat(record[cols.pm25])
	if err != nil {
		return airquality.Reading{}, fmt.Errorf("pm25: %w", err)
	}
	pm10, err := parseFloat(record[cols.pm10])
	if err != nil {
		return airquality.Reading{}, fmt.Errorf("pm10: %w", err)
	}
	return airquality.Reading{Time: ts, PM25: &pm25, PM10: &pm10}, nil
}

// parseTime tries each accepted layout. Layouts without a zone are read as local time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

func floatStr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
