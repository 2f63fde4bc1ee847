package sensor

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/jpalmerr/envmon/internal/climate"
)

// Simulation bounds.
const (
	minTemperature = 10.0
	maxTemperature = 45.0
	minHumidity    = 15.0
	maxHumidity    = 100.0
)

// SimulatedConfig controls a [Simulated] source.
type SimulatedConfig struct {
	// Seed makes runs reproducible.
	Seed int64

	// StartTemperature and StartHumidity are the walk's origin.
	StartTemperature float64
	StartHumidity    float64

	// TemperatureStep and HumidityStep bound the change per sample.
	TemperatureStep float64
	HumidityStep    float64

	// FaultRate is the probability in [0, 1] that a sample comes back as NaN,
	// as a DHT-style sensor does on a checksum or timing failure.
	FaultRate float64
}

// DefaultSimulatedConfig is a comfortable room that drifts.
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		Seed:             1,
		StartTemperature: 27,
		StartHumidity:    60,
		TemperatureStep:  0.6,
		HumidityStep:     2.5,
	}
}

// Simulated is a random-walk sensor.
type Simulated struct {
	cfg SimulatedConfig

	mu   sync.Mutex
	rng  *rand.Rand
	temp float64
	hum  float64
}

// NewSimulated creates a [Simulated] source.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	return &Simulated{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		temp: cfg.StartTemperature,
		hum:  cfg.StartHumidity,
	}
}

// Sample advances the walk by one step.
func (s *Simulated) Sample(ctx context.Context) (climate.Reading, error) {
	if err := ctx.Err(); err != nil {
		return climate.Reading{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.FaultRate > 0 && s.rng.Float64() < s.cfg.FaultRate {
		return climate.NewReading(math.NaN(), math.NaN()), nil
	}

	s.temp = clamp(s.temp+(s.rng.Float64()*2-1)*s.cfg.TemperatureStep, minTemperature, maxTemperature)
	s.hum = clamp(s.hum+(s.rng.Float64()*2-1)*s.cfg.HumidityStep, minHumidity, maxHumidity)

	return climate.NewReading(round2(s.temp), round2(s.hum)), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
