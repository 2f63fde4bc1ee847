// Package config provides YAML configuration parsing for envmon.
//
// This package enables running envmon as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Greenhouse
//	device: greenhouse-1
//	sample_period: 2s
//
//	sensor:
//	  type: line
//	  path: /dev/ttyUSB0
//
//	thresholds:
//	  warning:  {temperature: 30, humidity: 70}
//	  critical: {temperature: 35, humidity: 85}
//
//	level_bar:
//	  segments: 10
//
//	actuators: [fan, heater]
//
//	telemetry:
//	  mqtt:
//	    broker: tcp://${MQTT_HOST:-localhost}:1883
//	    topic: envmon/greenhouse-1
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/consumer"
)

// minSamplePeriod is the minimum allowed sampling period. Common humidity
// sensors cannot be read faster than about once a second.
const minSamplePeriod = 1 * time.Second

// Defaults applied by [Parse].
const (
	DefaultPort         = 8080
	DefaultSamplePeriod = 2 * time.Second
	DefaultSegments     = consumer.DefaultSegments
	DefaultDevice       = "envmon"
)

// Sensor types.
const (
	SensorSimulated = "simulated"
	SensorLine      = "line"
	SensorHTTP      = "http"
)

// Config is the root configuration structure for envmon.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is shown on the display and the panel. Defaults to "envmon".
	Title string `yaml:"title"`

	// Device identifies this monitor in telemetry. Defaults to "envmon".
	Device string `yaml:"device"`

	// SamplePeriod is the time between samples. Defaults to 2s.
	SamplePeriod Duration `yaml:"sample_period"`

	// SampleTimeout bounds one acquisition. Defaults to the sample period.
	SampleTimeout Duration `yaml:"sample_timeout"`

	Sensor     SensorConfig     `yaml:"sensor"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	LED        LEDConfig        `yaml:"led"`
	LevelBar   LevelBarConfig   `yaml:"level_bar"`
	Display    DisplayConfig    `yaml:"display"`
	Server     ServerConfig     `yaml:"server"`

	// Actuators are the override names. Defaults to relay1 and relay2.
	Actuators []string `yaml:"actuators"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SensorConfig selects and configures the reading source.
type SensorConfig struct {
	// Type is "simulated" (default), "line" or "http".
	Type string `yaml:"type"`

	// Seed, FaultRate, StartTemperature and StartHumidity configure the
	// simulated sensor.
	Seed             int64   `yaml:"seed"`
	FaultRate        float64 `yaml:"fault_rate"`
	StartTemperature float64 `yaml:"start_temperature"`
	StartHumidity    float64 `yaml:"start_humidity"`

	// Path is the serial device or log file for the line sensor.
	// Supports environment variable substitution.
	Path string `yaml:"path"`

	// URL is polled by the http sensor.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Timeout is the http request timeout.
	Timeout Duration `yaml:"timeout"`

	// Headers are sent with each http request. Values support environment
	// variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Decoder says how to read the http response.
	Decoder DecoderConfig `yaml:"decoder"`
}

// DecoderConfig specifies how to read a reading from an HTTP response.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	decoder: state
//	decoder: line
//	decoder: json:data.temp,data.rh
//
// Structured object:
//
//	decoder:
//	  type: json
//	  temperature: data.temp
//	  humidity: data.rh
type DecoderConfig struct {
	// Type is "state" (default), "line" or "json".
	Type string

	// TemperaturePath and HumidityPath are JSON field paths (for type: json).
	TemperaturePath string
	HumidityPath    string
}

// LimitConfig is one temperature/humidity breakpoint pair.
type LimitConfig struct {
	Temperature *float64 `yaml:"temperature"`
	Humidity    *float64 `yaml:"humidity"`
}

// ThresholdsConfig overrides classifier breakpoints. Omitted values keep
// their defaults.
type ThresholdsConfig struct {
	Warning  LimitConfig `yaml:"warning"`
	Critical LimitConfig `yaml:"critical"`
}

// PatternConfig overrides one LED blink pattern.
type PatternConfig struct {
	Pulses int      `yaml:"pulses"`
	On     Duration `yaml:"on"`
	Off    Duration `yaml:"off"`
}

// LEDConfig configures the status LED.
type LEDConfig struct {
	Enabled *bool          `yaml:"enabled"`
	WarmAt  *float64       `yaml:"warm_at"`
	HotAt   *float64       `yaml:"hot_at"`
	Calm    *PatternConfig `yaml:"calm"`
	Warm    *PatternConfig `yaml:"warm"`
	Hot     *PatternConfig `yaml:"hot"`
}

// LevelBarConfig configures the humidity level bar.
type LevelBarConfig struct {
	Enabled  *bool `yaml:"enabled"`
	Segments int   `yaml:"segments"`
}

// DisplayConfig configures the status display.
type DisplayConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// ServerConfig configures the HTTP override panel.
type ServerConfig struct {
	Enabled *bool `yaml:"enabled"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`
}

// TelemetryConfig configures optional sinks. A nil section is disabled.
type TelemetryConfig struct {
	// Timeout bounds one publish per sink. Defaults to 3s.
	Timeout Duration `yaml:"timeout"`

	Line  *LineSinkConfig  `yaml:"line"`
	MQTT  *MQTTSinkConfig  `yaml:"mqtt"`
	Redis *RedisSinkConfig `yaml:"redis"`
	Kafka *KafkaSinkConfig `yaml:"kafka"`
}

// LineSinkConfig appends raw "DATA,<temp>,<hum>" lines to a file.
type LineSinkConfig struct {
	Path string `yaml:"path"`
}

// MQTTSinkConfig publishes JSON messages to an MQTT broker.
type MQTTSinkConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos"`
	Retained bool   `yaml:"retained"`
}

// RedisSinkConfig stores and broadcasts snapshots in Redis.
type RedisSinkConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Key      string   `yaml:"key"`
	TTL      Duration `yaml:"ttl"`
	Channel  string   `yaml:"channel"`
}

// KafkaSinkConfig writes JSON messages to a Kafka topic.
type KafkaSinkConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Acks    int      `yaml:"acks"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for DecoderConfig.
func (dc *DecoderConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return dc.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type        string `yaml:"type"`
			Temperature string `yaml:"temperature"`
			Humidity    string `yaml:"humidity"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		dc.Type = raw.Type
		dc.TemperaturePath = raw.Temperature
		dc.HumidityPath = raw.Humidity
		return nil
	}

	return fmt.Errorf("decoder must be a string or object, got %v", node.Kind)
}

// parseShorthand parses decoder shorthand syntax.
//
// Supported formats:
//   - "state" → envmon state documents
//   - "line" → a DATA line in the body
//   - "json:tpath,hpath" → JSON fields by dot path
func (dc *DecoderConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if rest, ok := strings.CutPrefix(s, "json:"); ok {
		tPath, hPath, found := strings.Cut(rest, ",")
		if !found {
			return fmt.Errorf("decoder %q: expected json:<temperature path>,<humidity path>", s)
		}
		dc.Type = "json"
		dc.TemperaturePath = strings.TrimSpace(tPath)
		dc.HumidityPath = strings.TrimSpace(hPath)
		return nil
	}

	switch s {
	case "state", "line":
		dc.Type = s
	default:
		return fmt.Errorf("unknown decoder %q (expected 'state', 'line', or 'json:tpath,hpath')", s)
	}
	return nil
}

// Enabled reports whether an optional output is on; unset means on.
func Enabled(b *bool) bool {
	return b == nil || *b
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandField expands one string field in place, prefixing errors with path.
func expandField(path string, s *string) error {
	expanded, err := expandEnvVars(*s)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	*s = expanded
	return nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in paths, URLs, headers, broker
// addresses and credentials. Defaults are applied for Port (8080),
// SamplePeriod (2s), Device, sensor type and level-bar segments.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.SamplePeriod == 0 {
		c.SamplePeriod = Duration(DefaultSamplePeriod)
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Sensor.Type == "" {
		c.Sensor.Type = SensorSimulated
	}
	if c.LevelBar.Segments == 0 {
		c.LevelBar.Segments = DefaultSegments
	}
}

// ClassifierThresholds merges the configured breakpoints over the defaults.
func (c *Config) ClassifierThresholds() climate.Thresholds {
	th := climate.DefaultThresholds()
	mergeLimit(&th.Warning, c.Thresholds.Warning)
	mergeLimit(&th.Critical, c.Thresholds.Critical)
	return th
}

func mergeLimit(dst *climate.Limit, src LimitConfig) {
	if src.Temperature != nil {
		dst.Temperature = *src.Temperature
	}
	if src.Humidity != nil {
		dst.Humidity = *src.Humidity
	}
}

// BlinkLadder merges the configured LED cadence over the defaults.
func (c *Config) BlinkLadder() consumer.BlinkLadder {
	l := consumer.DefaultBlinkLadder()
	if c.LED.WarmAt != nil {
		l.WarmAt = *c.LED.WarmAt
	}
	if c.LED.HotAt != nil {
		l.HotAt = *c.LED.HotAt
	}
	mergePattern(&l.Calm, c.LED.Calm)
	mergePattern(&l.Warm, c.LED.Warm)
	mergePattern(&l.Hot, c.LED.Hot)
	return l
}

func mergePattern(dst *consumer.Pattern, src *PatternConfig) {
	if src == nil {
		return
	}
	if src.Pulses != 0 {
		dst.Pulses = src.Pulses
	}
	if src.On != 0 {
		dst.On = src.On.Duration()
	}
	if src.Off != 0 {
		dst.Off = src.Off.Duration()
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.SamplePeriod.Duration() < minSamplePeriod {
		return fmt.Errorf("sample_period must be at least %s, got %s", minSamplePeriod, c.SamplePeriod.Duration())
	}
	if c.SampleTimeout < 0 {
		return fmt.Errorf("sample_timeout cannot be negative, got %s", c.SampleTimeout.Duration())
	}
	if c.SampleTimeout.Duration() > c.SamplePeriod.Duration() {
		return fmt.Errorf("sample_timeout %s must not exceed sample_period %s",
			c.SampleTimeout.Duration(), c.SamplePeriod.Duration())
	}

	if err := c.validateSensor(); err != nil {
		return err
	}

	if err := c.ClassifierThresholds().Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if err := c.BlinkLadder().Validate(); err != nil {
		return fmt.Errorf("led: %w", err)
	}

	if c.LevelBar.Segments < 0 {
		return fmt.Errorf("level_bar.segments must be positive, got %d", c.LevelBar.Segments)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	seen := make(map[string]struct{}, len(c.Actuators))
	for i, name := range c.Actuators {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("actuators[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("actuators[%d] (%s): duplicate name", i, name)
		}
		seen[name] = struct{}{}
	}

	return c.validateTelemetry()
}

func (c *Config) validateSensor() error {
	s := &c.Sensor

	switch s.Type {
	case SensorSimulated:
		if s.FaultRate < 0 || s.FaultRate > 1 {
			return fmt.Errorf("sensor.fault_rate must be between 0 and 1, got %v", s.FaultRate)
		}

	case SensorLine:
		if s.Path == "" {
			return errors.New("sensor.path is required for a line sensor")
		}
		if err := expandField("sensor.path", &s.Path); err != nil {
			return err
		}

	case SensorHTTP:
		if s.URL == "" {
			return errors.New("sensor.url is required for an http sensor")
		}
		if err := expandField("sensor.url", &s.URL); err != nil {
			return err
		}
		parsedURL, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("sensor.url: invalid url: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("sensor.url: scheme must be http or https, got %q", parsedURL.Scheme)
		}

		for k, v := range s.Headers {
			if err := expandField(fmt.Sprintf("sensor.headers[%s]", k), &v); err != nil {
				return err
			}
			s.Headers[k] = v
		}

		if s.Timeout < 0 {
			return fmt.Errorf("sensor.timeout cannot be negative, got %s", s.Timeout.Duration())
		}

		switch s.Decoder.Type {
		case "", "state", "line":
		case "json":
			if s.Decoder.TemperaturePath == "" || s.Decoder.HumidityPath == "" {
				return errors.New("sensor.decoder: type 'json' requires temperature and humidity paths")
			}
		default:
			return fmt.Errorf("sensor.decoder: unknown type %q", s.Decoder.Type)
		}

	default:
		return fmt.Errorf("sensor.type must be simulated, line or http, got %q", s.Type)
	}
	return nil
}

func (c *Config) validateTelemetry() error {
	t := &c.Telemetry

	if t.Timeout < 0 {
		return fmt.Errorf("telemetry.timeout cannot be negative, got %s", t.Timeout.Duration())
	}

	if t.Line != nil {
		if t.Line.Path == "" {
			return errors.New("telemetry.line.path is required")
		}
		if err := expandField("telemetry.line.path", &t.Line.Path); err != nil {
			return err
		}
	}

	if m := t.MQTT; m != nil {
		if m.Broker == "" {
			return errors.New("telemetry.mqtt.broker is required")
		}
		if m.Topic == "" {
			return errors.New("telemetry.mqtt.topic is required")
		}
		if m.QoS < 0 || m.QoS > 2 {
			return fmt.Errorf("telemetry.mqtt.qos must be 0, 1 or 2, got %d", m.QoS)
		}
		for path, field := range map[string]*string{
			"telemetry.mqtt.broker":   &m.Broker,
			"telemetry.mqtt.username": &m.Username,
			"telemetry.mqtt.password": &m.Password,
		} {
			if err := expandField(path, field); err != nil {
				return err
			}
		}
	}

	if r := t.Redis; r != nil {
		if r.Addr == "" {
			return errors.New("telemetry.redis.addr is required")
		}
		if r.Key == "" && r.Channel == "" {
			return errors.New("telemetry.redis: key or channel is required")
		}
		if r.TTL < 0 {
			return fmt.Errorf("telemetry.redis.ttl cannot be negative, got %s", r.TTL.Duration())
		}
		if err := expandField("telemetry.redis.addr", &r.Addr); err != nil {
			return err
		}
		if err := expandField("telemetry.redis.password", &r.Password); err != nil {
			return err
		}
	}

	if k := t.Kafka; k != nil {
		if len(k.Brokers) == 0 {
			return errors.New("telemetry.kafka.brokers: at least one broker is required")
		}
		for i := range k.Brokers {
			if err := expandField(fmt.Sprintf("telemetry.kafka.brokers[%d]", i), &k.Brokers[i]); err != nil {
				return err
			}
			if k.Brokers[i] == "" {
				return fmt.Errorf("telemetry.kafka.brokers[%d]: address is required", i)
			}
		}
		if k.Topic == "" {
			return errors.New("telemetry.kafka.topic is required")
		}
		if k.Acks < -1 || k.Acks > 1 {
			return fmt.Errorf("telemetry.kafka.acks must be -1, 0 or 1, got %d", k.Acks)
		}
	}

	return nil
}
