package publisher

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

func TestNewMessage(t *testing.T) {
	at := time.Date(2025, 11, 3, 14, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	msg := NewMessage(airquality.Reading{Time: at, PM25: airquality.Float(70), PM10: airquality.Float(110)})

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"station":14127,"time":"2025-11-03T09:00:00Z","pm25":70,"pm10":110}`, string(raw))
}

func TestNoopPublish(t *testing.T) {
	var p airquality.Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), airquality.Reading{}))
}

func newOfflineMQTT() *MQTT {
	return NewMQTT(Config{
		Broker:   "127.0.0.1",
		Port:     1,
		Topic:    "aqi/readings",
		ClientID: "aqi-dashboard-test",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMQTTPublishCancelledContext(t *testing.T) {
	m := newOfflineMQTT()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Publish(ctx, airquality.Reading{PM25: airquality.Float(1), PM10: airquality.Float(2)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMQTTPublishWithoutConnection(t *testing.T) {
	m := newOfflineMQTT()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := m.Publish(ctx, airquality.Reading{PM25: airquality.Float(1), PM10: airquality.Float(2)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}
