package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jpalmerr/envmon/internal/state"
)

// KafkaConfig configures a [KafkaSink].
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Acks    int // -1 all, 0 none, 1 leader
	Device  string
}

// kafkaWriter is the part of *kafka.Writer the sink uses.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes JSON messages keyed by device id.
type KafkaSink struct {
	cfg    KafkaConfig
	writer kafkaWriter
}

// NewKafkaSink creates a [KafkaSink]. Connections are opened lazily on the
// first write.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.Acks < -1 || cfg.Acks > 1 {
		return nil, fmt.Errorf("kafka acks must be -1, 0 or 1, got %d", cfg.Acks)
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.Acks),
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: false,
	}
	return newKafkaSink(cfg, w), nil
}

func newKafkaSink(cfg KafkaConfig, w kafkaWriter) *KafkaSink {
	return &KafkaSink{cfg: cfg, writer: w}
}

// Name implements [Sink].
func (s *KafkaSink) Name() string { return "kafka" }

// Publish implements [Sink].
func (s *KafkaSink) Publish(ctx context.Context, snap state.Snapshot) error {
	payload, err := encode(s.cfg.Device, snap)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(s.cfg.Device),
		Value: payload,
		Time:  snap.SampledAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", s.cfg.Topic, err)
	}
	return nil
}

// Close implements [Sink].
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
