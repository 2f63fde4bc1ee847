package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jpalmerr/envmon/internal/climate"
)

// errNoReading is returned by a [Decoder] that found nothing it recognises.
var errNoReading = errors.New("response has no reading")

// Decoder turns a response body into a reading.
//
// Decoders are pure functions: the same body always yields the same result,
// which keeps them easy to test and compose with [FirstMatch].
type Decoder func(body []byte) (climate.Reading, error)

// StateDecoder understands envmon's own documents: the "/api/state" shape
// {"snapshot":{"reading":{...}}}, a bare snapshot {"reading":{...}}, and a
// flat {"temperature":..,"humidity":..} object.
func StateDecoder(body []byte) (climate.Reading, error) {
	var doc struct {
		Temperature *float64         `json:"temperature"`
		Humidity    *float64         `json:"humidity"`
		Reading     *climate.Reading `json:"reading"`
		Snapshot    *struct {
			Reading *climate.Reading `json:"reading"`
		} `json:"snapshot"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return climate.Reading{}, fmt.Errorf("failed to decode response: %w", err)
	}

	switch {
	case doc.Snapshot != nil && doc.Snapshot.Reading != nil:
		return *doc.Snapshot.Reading, nil
	case doc.Reading != nil:
		return *doc.Reading, nil
	case doc.Temperature != nil && doc.Humidity != nil:
		return climate.NewReading(*doc.Temperature, *doc.Humidity), nil
	default:
		return climate.Reading{}, errNoReading
	}
}

// JSONFieldDecoder returns a [Decoder] that reads temperature and humidity
// from JSON fields addressed with dot notation.
//
// For example, JSONFieldDecoder("data.temp_c", "data.rh") reads
// {"data": {"temp_c": 24.5, "rh": 51}}. Numeric strings are accepted.
func JSONFieldDecoder(temperaturePath, humidityPath string) Decoder {
	tParts := strings.Split(temperaturePath, ".")
	hParts := strings.Split(humidityPath, ".")

	return func(body []byte) (climate.Reading, error) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			return climate.Reading{}, fmt.Errorf("failed to decode response: %w", err)
		}

		t, err := extractJSONNumber(data, tParts)
		if err != nil {
			return climate.Reading{}, fmt.Errorf("%s: %w", temperaturePath, err)
		}
		h, err := extractJSONNumber(data, hParts)
		if err != nil {
			return climate.Reading{}, fmt.Errorf("%s: %w", humidityPath, err)
		}
		return climate.NewReading(t, h), nil
	}
}

// extractJSONNumber walks a JSON structure using dot notation parts.
func extractJSONNumber(data interface{}, parts []string) (float64, error) {
	current := data

	for _, part := range parts {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return 0, errNoReading
		}
		current, ok = obj[part]
		if !ok {
			return 0, errNoReading
		}
	}

	switch v := current.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return 0, errNoReading
	}
}

// LineDecoder reads a body holding a "DATA,<temp>,<hum>" line, as served
// by a bridge that relays the serial log over HTTP.
func LineDecoder(body []byte) (climate.Reading, error) {
	for _, line := range strings.Split(string(body), "\n") {
		r, err := climate.ParseLine(line)
		if errors.Is(err, climate.ErrNotDataLine) {
			continue
		}
		return r, err
	}
	return climate.Reading{}, errNoReading
}

// FirstMatch returns a [Decoder] that tries decoders in order and returns
// the first success. If all fail, the last error is returned.
func FirstMatch(decoders ...Decoder) Decoder {
	return func(body []byte) (climate.Reading, error) {
		err := errNoReading
		for _, d := range decoders {
			var r climate.Reading
			if r, err = d(body); err == nil {
				return r, nil
			}
		}
		return climate.Reading{}, err
	}
}
