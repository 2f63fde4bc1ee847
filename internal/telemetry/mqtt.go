package telemetry

import (
	"context"
	"errors"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jpalmerr/envmon/internal/state"
)

const mqttDisconnectQuiesce = 250 // milliseconds

// MQTTConfig configures an [MQTTSink].
type MQTTConfig struct {
	Broker   string
	ClientID string // empty picks "envmon-<uuid>"
	Username string
	Password string
	Topic    string
	QoS      byte
	Retained bool
	Device   string
}

// mqttClient is the part of mqtt.Client the sink uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes JSON messages to an MQTT topic.
type MQTTSink struct {
	cfg    MQTTConfig
	client mqttClient
}

// NewMQTTSink connects to the broker and returns a ready sink.
func NewMQTTSink(ctx context.Context, cfg MQTTConfig) (*MQTTSink, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt topic is required")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", cfg.QoS)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "envmon-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}

	return newMQTTSink(cfg, client), nil
}

func newMQTTSink(cfg MQTTConfig, client mqttClient) *MQTTSink {
	return &MQTTSink{cfg: cfg, client: client}
}

// Name implements [Sink].
func (s *MQTTSink) Name() string { return "mqtt" }

// Publish implements [Sink].
func (s *MQTTSink) Publish(ctx context.Context, snap state.Snapshot) error {
	payload, err := encode(s.cfg.Device, snap)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return waitToken(ctx, s.client.Publish(s.cfg.Topic, s.cfg.QoS, s.cfg.Retained, payload))
}

// Close implements [Sink].
func (s *MQTTSink) Close() error {
	s.client.Disconnect(mqttDisconnectQuiesce)
	return nil
}

// waitToken waits for a paho token or ctx, whichever is first.
func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
