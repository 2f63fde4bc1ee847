package climate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LinePrefix starts every data line in a raw sensor log.
const LinePrefix = "DATA,"

// ErrNotDataLine is returned by [ParseLine] for lines that do not carry a
// reading (boot banners, debug output).
var ErrNotDataLine = errors.New("not a data line")

// FormatLine renders a reading as "DATA,<temp>,<hum>" with two decimals.
func FormatLine(r Reading) string {
	return fmt.Sprintf("%s%.2f,%.2f", LinePrefix, r.Temperature, r.Humidity)
}

// ParseLine parses a "DATA,<temp>,<hum>[,...]" line. Surrounding whitespace
// and trailing fields are ignored. The returned reading is marked valid but
// may still fail [Reading.Check] (for example "DATA,nan,nan").
func ParseLine(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	idx := strings.Index(line, LinePrefix)
	if idx < 0 {
		return Reading{}, ErrNotDataLine
	}

	parts := strings.Split(line[idx+len(LinePrefix):], ",")
	if len(parts) < 2 {
		return Reading{}, fmt.Errorf("data line %q: want 2 fields, got %d", line, len(parts))
	}

	temp, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("data line %q: temperature: %w", line, err)
	}
	hum, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("data line %q: humidity: %w", line, err)
	}

	return NewReading(temp, hum), nil
}
