package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/state"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() state.Snapshot {
	return state.Snapshot{
		Reading:   climate.NewReading(31.25, 72.5),
		Severity:  climate.Warning,
		Seq:       7,
		SampledAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// recordingSink records snapshots and optionally fails.
type recordingSink struct {
	name   string
	err    error
	mu     sync.Mutex
	got    []uint64
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, snap state.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, snap.Seq)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.err
}

func TestPublisher_FansOutPastFailures(t *testing.T) {
	failing := &recordingSink{name: "bad", err: errors.New("broker down")}
	healthy := &recordingSink{name: "good"}

	p := NewPublisher([]Sink{failing, healthy}, time.Second, testLogger())
	p.Render(context.Background(), testSnapshot())

	if len(failing.got) != 1 || len(healthy.got) != 1 {
		t.Fatalf("publish counts = %d, %d, want 1, 1", len(failing.got), len(healthy.got))
	}
}

type panickingSink struct{}

func (panickingSink) Name() string { return "panicky" }

func (panickingSink) Publish(context.Context, state.Snapshot) error { panic("boom") }

func (panickingSink) Close() error { return nil }

func TestPublisher_RecoversSinkPanic(t *testing.T) {
	healthy := &recordingSink{name: "good"}

	p := NewPublisher([]Sink{panickingSink{}, healthy}, time.Second, testLogger())
	p.Render(context.Background(), testSnapshot())

	if len(healthy.got) != 1 {
		t.Fatalf("healthy sink got %d snapshots, want 1", len(healthy.got))
	}
}

// blockingSink holds Publish until its context ends.
type blockingSink struct{ entered chan struct{} }

func (s *blockingSink) Name() string { return "slow" }

func (s *blockingSink) Publish(ctx context.Context, _ state.Snapshot) error {
	close(s.entered)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingSink) Close() error { return nil }

func TestPublisher_SlowSinkDoesNotDelayOthers(t *testing.T) {
	slow := &blockingSink{entered: make(chan struct{})}
	fast := &recordingSink{name: "fast"}

	p := NewPublisher([]Sink{slow, fast}, 500*time.Millisecond, testLogger())

	start := time.Now()
	done := make(chan struct{})
	go func() {
		p.Render(context.Background(), testSnapshot())
		close(done)
	}()

	<-slow.entered
	deadline := time.After(250 * time.Millisecond)
	for {
		fast.mu.Lock()
		n := len(fast.got)
		fast.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("fast sink waited for the slow one")
		case <-time.After(5 * time.Millisecond):
		}
	}

	<-done
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("Render returned after %v, want it to wait for the publish timeout", elapsed)
	}
}

func TestPublisher_IgnoresUnpublished(t *testing.T) {
	sink := &recordingSink{name: "s"}
	p := NewPublisher([]Sink{sink}, 0, testLogger())

	p.Render(context.Background(), state.Snapshot{})

	if len(sink.got) != 0 {
		t.Errorf("sink received %d snapshots, want 0", len(sink.got))
	}
}

func TestPublisher_Close(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b", err: errors.New("close failed")}

	err := NewPublisher([]Sink{a, b}, 0, testLogger()).Close()
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("Close() error = %v, want close failed", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close() did not close every sink")
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("node-1", testSnapshot())

	if msg.Device != "node-1" || msg.Severity != "warning" || msg.Seq != 7 {
		t.Errorf("NewMessage() = %+v", msg)
	}
	if msg.Temperature != 31.25 || msg.Humidity != 72.5 {
		t.Errorf("NewMessage() values = %v, %v", msg.Temperature, msg.Humidity)
	}
}

func TestLineSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLineSink(&buf)

	if err := s.Publish(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if got, want := buf.String(), "DATA,31.25,72.50\n"; got != want {
		t.Errorf("LineSink wrote %q, want %q", got, want)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// fakeToken is a completed paho token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMQTT struct {
	err          error
	topic        string
	qos          byte
	retained     bool
	payload      []byte
	disconnected bool
}

func (c *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topic, c.qos, c.retained = topic, qos, retained
	c.payload, _ = payload.([]byte)
	return newFakeToken(c.err)
}

func (c *fakeMQTT) Disconnect(uint) { c.disconnected = true }

func TestMQTTSink_Publish(t *testing.T) {
	client := &fakeMQTT{}
	s := newMQTTSink(MQTTConfig{Topic: "envmon/node-1", QoS: 1, Retained: true, Device: "node-1"}, client)

	if err := s.Publish(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if client.topic != "envmon/node-1" || client.qos != 1 || !client.retained {
		t.Errorf("published to %q qos=%d retained=%v", client.topic, client.qos, client.retained)
	}

	var msg Message
	if err := json.Unmarshal(client.payload, &msg); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if msg.Device != "node-1" || msg.Seq != 7 {
		t.Errorf("payload = %+v", msg)
	}

	_ = s.Close()
	if !client.disconnected {
		t.Error("Close() did not disconnect")
	}
}

func TestMQTTSink_PublishError(t *testing.T) {
	s := newMQTTSink(MQTTConfig{Topic: "t"}, &fakeMQTT{err: errors.New("not connected")})

	if err := s.Publish(context.Background(), testSnapshot()); err == nil {
		t.Error("Publish() expected error")
	}
}

func TestNewMQTTSink_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  MQTTConfig
	}{
		{"missing broker", MQTTConfig{Topic: "t"}},
		{"missing topic", MQTTConfig{Broker: "tcp://localhost:1883"}},
		{"bad qos", MQTTConfig{Broker: "tcp://localhost:1883", Topic: "t", QoS: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMQTTSink(context.Background(), tt.cfg); err == nil {
				t.Error("NewMQTTSink() expected error")
			}
		})
	}
}

type fakeRedis struct {
	setErr   error
	sets     map[string]interface{}
	ttl      time.Duration
	channels map[string]int
	closed   bool
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	if r.setErr != nil {
		return redis.NewStatusResult("", r.setErr)
	}
	r.sets[key] = value
	r.ttl = exp
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) Publish(_ context.Context, channel string, _ interface{}) *redis.IntCmd {
	r.channels[channel]++
	return redis.NewIntResult(1, nil)
}

func (r *fakeRedis) Close() error {
	r.closed = true
	return nil
}

func TestRedisSink_Publish(t *testing.T) {
	client := &fakeRedis{sets: map[string]interface{}{}, channels: map[string]int{}}
	s := newRedisSink(RedisConfig{Key: "envmon:latest", TTL: time.Minute, Channel: "envmon", Device: "d"}, client)

	if err := s.Publish(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if _, ok := client.sets["envmon:latest"]; !ok {
		t.Error("latest key not set")
	}
	if client.ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", client.ttl)
	}
	if client.channels["envmon"] != 1 {
		t.Errorf("publishes = %d, want 1", client.channels["envmon"])
	}

	_ = s.Close()
	if !client.closed {
		t.Error("Close() did not close client")
	}
}

func TestRedisSink_SetErrorSkipsPublish(t *testing.T) {
	client := &fakeRedis{setErr: errors.New("READONLY"), channels: map[string]int{}}
	s := newRedisSink(RedisConfig{Key: "k", Channel: "c"}, client)

	if err := s.Publish(context.Background(), testSnapshot()); err == nil {
		t.Fatal("Publish() expected error")
	}
	if client.channels["c"] != 0 {
		t.Error("PUBLISH ran after a failed SET")
	}
}

func TestNewRedisSink_Validation(t *testing.T) {
	if _, err := NewRedisSink(context.Background(), RedisConfig{Key: "k"}); err == nil {
		t.Error("expected error for missing addr")
	}
	if _, err := NewRedisSink(context.Background(), RedisConfig{Addr: "localhost:6379"}); err == nil {
		t.Error("expected error for missing key and channel")
	}
}

type fakeKafka struct {
	err    error
	msgs   []kafka.Message
	closed bool
}

func (w *fakeKafka) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeKafka) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink_Publish(t *testing.T) {
	w := &fakeKafka{}
	s := newKafkaSink(KafkaConfig{Topic: "readings", Device: "node-1"}, w)

	snap := testSnapshot()
	if err := s.Publish(context.Background(), snap); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "node-1" || !w.msgs[0].Time.Equal(snap.SampledAt) {
		t.Errorf("message key=%q time=%v", w.msgs[0].Key, w.msgs[0].Time)
	}

	_ = s.Close()
	if !w.closed {
		t.Error("Close() did not close writer")
	}
}

func TestKafkaSink_WriteError(t *testing.T) {
	s := newKafkaSink(KafkaConfig{Topic: "readings"}, &fakeKafka{err: errors.New("leader not available")})

	err := s.Publish(context.Background(), testSnapshot())
	if err == nil || !strings.Contains(err.Error(), "readings") {
		t.Errorf("Publish() error = %v, want topic in message", err)
	}
}

func TestNewKafkaSink_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  KafkaConfig
	}{
		{"no brokers", KafkaConfig{Topic: "t"}},
		{"no topic", KafkaConfig{Brokers: []string{"localhost:9092"}}},
		{"bad acks", KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t", Acks: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewKafkaSink(tt.cfg); err == nil {
				t.Error("NewKafkaSink() expected error")
			}
		})
	}

	s, err := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t", Acks: -1})
	if err != nil {
		t.Fatalf("NewKafkaSink() error = %v", err)
	}
	_ = s.Close()
}
