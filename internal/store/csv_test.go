package store

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

var t0 = time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

func full(at time.Time, pm25, pm10 float64) airquality.Reading {
	return airquality.Reading{Time: at, PM25: airquality.Float(pm25), PM10: airquality.Float(pm10)}
}

func TestCSVLoadMissingFile(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "none.csv"), nil)

	h, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Empty(t, h)
}

func TestCSVAppendIncompleteDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqi_history.csv")
	s := NewCSVStore(path, nil)

	h, err := s.Append(context.Background(), airquality.History{}, airquality.Reading{Time: t0, PM25: airquality.Float(5)})
	require.NoError(t, err)
	assert.Empty(t, h)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no file should be created for an incomplete reading")
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "aqi_history.csv")
	s := NewCSVStore(path, nil)

	h, err := s.Load(ctx)
	require.NoError(t, err)
	h, err = s.Append(ctx, h, full(t0, 70, 110))
	require.NoError(t, err)
	h, err = s.Append(ctx, h, full(t0.Add(5*time.Minute), 12.5, 48))
	require.NoError(t, err)
	require.Len(t, h, 2)

	loaded, err := NewCSVStore(path, nil).Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, loaded[0].Time.Equal(t0))
	assert.Equal(t, 70.0, *loaded[0].PM25)
	assert.Equal(t, 110.0, *loaded[0].PM10)
	assert.True(t, loaded[1].Time.Equal(t0.Add(5*time.Minute)))
	assert.Equal(t, 12.5, *loaded[1].PM25)

	// No temp files are left next to the history.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCSVAppendLeavesInputUntouched(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "aqi_history.csv"), nil)
	base := airquality.History{full(t0, 1, 2)}

	updated, err := s.Append(context.Background(), base, full(t0.Add(time.Minute), 3, 4))
	require.NoError(t, err)
	assert.Len(t, base, 1)
	assert.Len(t, updated, 2)
}

func TestCSVLoadLegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqi_history.csv")
	content := "time,pm25,pm10\n" +
		"2025-11-03 09:00:00.123456,70.0,110.0\n" +
		"2025-11-03 09:05:00,65,105\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	h, err := NewCSVStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, h, 2)

	want := time.Date(2025, 11, 3, 9, 0, 0, 123456000, time.Local)
	assert.True(t, h[0].Time.Equal(want))
	assert.Equal(t, 70.0, *h[0].PM25)
	assert.Equal(t, 105.0, *h[1].PM10)
}

func TestCSVLoadSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqi_history.csv")
	content := "time,pm25,pm10\n" +
		"not-a-time,1,2\n" +
		"2025-11-03T09:00:00Z,,20\n" +
		"2025-11-03T09:05:00Z,30,40\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	h, err := NewCSVStore(path, logger).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, 30.0, *h[0].PM25)

	assert.Equal(t, 2, strings.Count(logs.String(), "skipping history row"))
	assert.Contains(t, logs.String(), "line=2")
	assert.Contains(t, logs.String(), "line=3")
}

func TestCSVLoadColumnOrderFromHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqi_history.csv")
	content := "pm10,time,pm25\n40,2025-11-03T09:05:00Z,30\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	h, err := NewCSVStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, 30.0, *h[0].PM25)
	assert.Equal(t, 40.0, *h[0].PM10)
}

func TestCSVLoadMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqi_history.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := NewCSVStore(path, nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrMissingHeader)
}
