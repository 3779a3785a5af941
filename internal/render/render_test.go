package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestTrendChartEmptyWindow(t *testing.T) {
	_, err := TrendChart(nil, ChartWidth, ChartHeight)
	assert.ErrorIs(t, err, airquality.ErrInsufficientHistory)

	// Readings with a missing metric cannot be plotted.
	_, err = TrendChart(airquality.History{{Time: time.Now(), PM25: airquality.Float(1)}}, ChartWidth, ChartHeight)
	assert.ErrorIs(t, err, airquality.ErrInsufficientHistory)
}

func TestTrendChartSinglePoint(t *testing.T) {
	at := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	out, err := TrendChart(airquality.History{
		{Time: at, PM25: airquality.Float(70), PM10: airquality.Float(110)},
	}, ChartWidth, ChartHeight)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, pngMagic))
}

func TestTrendChartSharedTimestamp(t *testing.T) {
	at := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	out, err := TrendChart(airquality.History{
		{Time: at, PM25: airquality.Float(10), PM10: airquality.Float(20)},
		{Time: at, PM25: airquality.Float(30), PM10: airquality.Float(40)},
		{Time: at, PM25: airquality.Float(50), PM10: airquality.Float(60)},
	}, ChartWidth, ChartHeight)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, pngMagic))
}

func TestTrendChartOutOfOrder(t *testing.T) {
	at := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	out, err := TrendChart(airquality.History{
		{Time: at.Add(10 * time.Minute), PM25: airquality.Float(10), PM10: airquality.Float(20)},
		{Time: at, PM25: airquality.Float(30), PM10: airquality.Float(40)},
		{Time: at.Add(10 * time.Minute), PM25: airquality.Float(50), PM10: airquality.Float(60)},
	}, ChartWidth, ChartHeight)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, pngMagic))
}

func TestTrendChartSeries(t *testing.T) {
	at := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	var window airquality.History
	for i := 0; i < 12; i++ {
		window = append(window, airquality.Reading{
			Time: at.Add(time.Duration(i) * 5 * time.Minute),
			PM25: airquality.Float(float64(20 + i*5)),
			PM10: airquality.Float(float64(60 + i*4)),
		})
	}

	out, err := TrendChart(window, 640, 240)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestQRCode(t *testing.T) {
	out, err := QRCode("https://t.me/clear_a1r", QRSize)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, QRSize, img.Bounds().Dx())

	_, err = QRCode("", QRSize)
	assert.Error(t, err)
}
