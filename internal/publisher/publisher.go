package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

// Noop discards readings. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, airquality.Reading) error { return nil }

// Config holds the MQTT connection settings.
type Config struct {
	Broker   string
	Port     int
	Topic    string
	ClientID string
}

// Message is the JSON document published for each appended reading.
type Message struct {
	Station int       `json:"station"`
	Time    time.Time `json:"time"`
	PM25    *float64  `json:"pm25"`
	PM10    *float64  `json:"pm10"`
}

// NewMessage builds the payload for r.
func NewMessage(r airquality.Reading) Message {
	return Message{
		Station: airquality.StationID,
		Time:    r.Time.UTC(),
		PM25:    r.PM25,
		PM10:    r.PM10,
	}
}

// MQTT publishes readings to a broker topic.
type MQTT struct {
	client paho_mqtt.Client
	topic  string
	logger *slog.Logger
}

// NewMQTT builds a publisher with auto-reconnect. Call Connect before use.
func NewMQTT(cfg Config, logger *slog.Logger) *MQTT {
	opts := paho_mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)

	opts.SetOnConnectHandler(func(_ paho_mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ paho_mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	return &MQTT{
		client: paho_mqtt.NewClient(opts),
		topic:  cfg.Topic,
		logger: logger,
	}
}

// Connect waits up to five seconds for the broker.
func (m *MQTT) Connect() error {
	token := m.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("unable to connect in time")
	}
	return token.Error()
}

// Publish sends r as JSON with QoS 1. The broker does not retain it.
func (m *MQTT) Publish(ctx context.Context, r airquality.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(NewMessage(r))
	if err != nil {
		return err
	}

	token := m.client.Publish(m.topic, 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect closes the connection, waiting briefly for in-flight messages.
func (m *MQTT) Disconnect() {
	m.client.Disconnect(250)
	m.logger.Info("mqtt publisher disconnected")
}
