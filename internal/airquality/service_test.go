package airquality_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
	"github.com/i474232898/construction-aqi-dashboard/internal/store"
)

type stubProvider struct {
	reading airquality.Reading
	err     error
	calls   int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(context.Context) (airquality.Reading, error) {
	p.calls++
	return p.reading, p.err
}

type recordingPublisher struct {
	published []airquality.Reading
}

func (p *recordingPublisher) Publish(_ context.Context, r airquality.Reading) error {
	p.published = append(p.published, r)
	return nil
}

type brokenStore struct{}

func (brokenStore) Load(context.Context) (airquality.History, error) {
	return nil, errors.New("disk on fire")
}

func (brokenStore) Append(_ context.Context, h airquality.History, _ airquality.Reading) (airquality.History, error) {
	return h, nil
}

var t0 = time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

func TestRunCycleEndToEndWithCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqi_history.csv")
	csvStore := store.NewCSVStore(path, nil)
	provider := &stubProvider{reading: airquality.Reading{PM25: airquality.Float(70), PM10: airquality.Float(110)}}
	pub := &recordingPublisher{}

	now := t0
	svc := airquality.NewService(provider, csvStore, 24*time.Hour,
		airquality.WithClock(func() time.Time { return now }),
		airquality.WithPublisher(pub),
	)

	report, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Appended)
	assert.Empty(t, report.ErrorKind())
	require.Len(t, report.Window, 1)
	assert.Equal(t, airquality.LevelAbove, airquality.Classify(report.Reading.PM25, airquality.PM25Limit))
	assert.Equal(t, airquality.LevelAbove, airquality.Classify(report.Reading.PM10, airquality.PM10Limit))
	require.NotNil(t, report.Forecast.PM25)
	assert.InDelta(t, 70.0, *report.Forecast.PM25, 1e-9)
	assert.Len(t, pub.published, 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "time,pm25,pm10", lines[0])
	assert.Equal(t, "2025-11-03T09:00:00Z,70,110", lines[1])

	now = t0.Add(time.Hour)
	window, err := svc.History(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.True(t, window[0].Time.Equal(t0))

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.True(t, latest.At.Equal(t0))
}

func TestRunCycleFetchErrorDoesNotAppend(t *testing.T) {
	mem := store.NewMemoryStore()
	provider := &stubProvider{err: &airquality.APIError{Status: "error", Payload: []byte(`"Unknown station"`)}}
	pub := &recordingPublisher{}
	svc := airquality.NewService(provider, mem, 24*time.Hour,
		airquality.WithClock(func() time.Time { return t0 }),
		airquality.WithPublisher(pub),
	)

	report, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Appended)
	assert.Equal(t, airquality.KindAPI, report.ErrorKind())
	assert.Nil(t, report.Reading.PM25)
	assert.Nil(t, report.Reading.PM10)
	assert.Empty(t, report.Window)
	assert.Nil(t, report.Forecast.PM25)
	assert.Zero(t, mem.Writes())
	assert.Empty(t, pub.published)
}

func TestRunCyclePartialReadingIsNotPersisted(t *testing.T) {
	seed := airquality.Reading{Time: t0.Add(-time.Hour), PM25: airquality.Float(10), PM10: airquality.Float(20)}
	mem := store.NewMemoryStore(seed)
	provider := &stubProvider{reading: airquality.Reading{PM25: airquality.Float(40)}}
	svc := airquality.NewService(provider, mem, 24*time.Hour,
		airquality.WithClock(func() time.Time { return t0 }),
	)

	report, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Appended)
	assert.Zero(t, mem.Writes())
	require.Len(t, report.Window, 1)
	require.NotNil(t, report.Reading.PM25)
	assert.Nil(t, report.Reading.PM10)

	// The forecast still reflects the stored history.
	require.NotNil(t, report.Forecast.PM25)
	assert.InDelta(t, 10.0, *report.Forecast.PM25, 1e-9)
}

func TestRunCycleLoadFailure(t *testing.T) {
	provider := &stubProvider{reading: airquality.Reading{PM25: airquality.Float(1), PM10: airquality.Float(2)}}
	svc := airquality.NewService(provider, brokenStore{}, 24*time.Hour)

	_, ok := svc.Latest()
	assert.False(t, ok)

	report, err := svc.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load history")
	assert.False(t, report.Appended)

	latest, ok := svc.Latest()
	require.True(t, ok)
	require.NotNil(t, latest.Reading.PM25)
	assert.Equal(t, 1.0, *latest.Reading.PM25)
}
