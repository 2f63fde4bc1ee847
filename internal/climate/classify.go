package climate

import (
	"errors"
	"fmt"
)

// Breakpoints of the joint classifier. A reading is Normal only while both
// quantities stay below the warning pair, and Critical once either reaches
// the critical pair.
const (
	DefaultWarningTemperature  = 30.0
	DefaultWarningHumidity     = 70.0
	DefaultCriticalTemperature = 35.0
	DefaultCriticalHumidity    = 85.0
)

// Limit is one (temperature, humidity) breakpoint pair.
type Limit struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Humidity    float64 `json:"humidity" yaml:"humidity"`
}

// Thresholds holds the two breakpoint pairs used by [Classify].
type Thresholds struct {
	Warning  Limit `json:"warning" yaml:"warning"`
	Critical Limit `json:"critical" yaml:"critical"`
}

// DefaultThresholds returns the default breakpoints.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:  Limit{Temperature: DefaultWarningTemperature, Humidity: DefaultWarningHumidity},
		Critical: Limit{Temperature: DefaultCriticalTemperature, Humidity: DefaultCriticalHumidity},
	}
}

// Validate checks that the warning pair lies strictly below the critical pair.
func (th Thresholds) Validate() error {
	if th.Warning.Temperature >= th.Critical.Temperature {
		return fmt.Errorf("warning temperature %.1f must be below critical temperature %.1f",
			th.Warning.Temperature, th.Critical.Temperature)
	}
	if th.Warning.Humidity >= th.Critical.Humidity {
		return fmt.Errorf("warning humidity %.1f must be below critical humidity %.1f",
			th.Warning.Humidity, th.Critical.Humidity)
	}
	if th.Warning.Humidity < 0 || th.Critical.Humidity > 100 {
		return errors.New("humidity breakpoints must lie within 0-100")
	}
	return nil
}

// Classify maps a temperature/humidity pair to a [Severity].
//
// It is the worse of the temperature ladder and the humidity ladder. Classify
// is pure and total: NaN compares false against every breakpoint and so
// classifies as Critical.
func Classify(temperature, humidity float64, th Thresholds) Severity {
	return Max(ladder(temperature, th.Warning.Temperature, th.Critical.Temperature),
		ladder(humidity, th.Warning.Humidity, th.Critical.Humidity))
}

// ClassifyReading is [Classify] applied to a [Reading].
func ClassifyReading(r Reading, th Thresholds) Severity {
	return Classify(r.Temperature, r.Humidity, th)
}

func ladder(v, warning, critical float64) Severity {
	switch {
	case v < warning:
		return Normal
	case v < critical:
		return Warning
	default:
		return Critical
	}
}
