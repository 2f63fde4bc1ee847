package climate

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidReading is returned when a sensor produced a reading that must not
// be published: flagged invalid, or carrying NaN or infinite values.
var ErrInvalidReading = errors.New("invalid reading")

// Reading is one sampled (temperature, humidity) pair.
//
// Temperature is in degrees Celsius and Humidity is relative humidity in
// percent. A Reading with Valid set to false is never published.
type Reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Valid       bool    `json:"valid"`
}

// NewReading returns a valid [Reading] for the given values.
func NewReading(temperature, humidity float64) Reading {
	return Reading{Temperature: temperature, Humidity: humidity, Valid: true}
}

// Check returns nil if the reading may be published, or an error wrapping
// [ErrInvalidReading] describing why not.
func (r Reading) Check() error {
	if !r.Valid {
		return fmt.Errorf("%w: flagged invalid by sensor", ErrInvalidReading)
	}
	if math.IsNaN(r.Temperature) || math.IsInf(r.Temperature, 0) {
		return fmt.Errorf("%w: temperature is %v", ErrInvalidReading, r.Temperature)
	}
	if math.IsNaN(r.Humidity) || math.IsInf(r.Humidity, 0) {
		return fmt.Errorf("%w: humidity is %v", ErrInvalidReading, r.Humidity)
	}
	return nil
}

// String returns a compact human-readable form, e.g. "28.4C 61.0%".
func (r Reading) String() string {
	if !r.Valid {
		return "invalid"
	}
	return fmt.Sprintf("%.1fC %.1f%%", r.Temperature, r.Humidity)
}
