// Package dataset turns a raw serial log into a labelled CSV training set.
//
// Input is any text stream containing "DATA,<temp>,<hum>" lines; everything
// else is ignored. Output has the header "temp,hum,label" and one row per
// usable line, with label being the severity ordinal (0 normal, 1 warning,
// 2 critical) under the given thresholds.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jpalmerr/envmon/internal/climate"
)

// Header is the first CSV row.
var Header = []string{"temp", "hum", "label"}

// Build reads r and writes the CSV dataset to w, returning the number of
// rows written (header excluded). Malformed and non-finite lines are
// skipped.
func Build(r io.Reader, w io.Writer, th climate.Thresholds) (int, error) {
	if err := th.Validate(); err != nil {
		return 0, fmt.Errorf("invalid thresholds: %w", err)
	}

	out := csv.NewWriter(w)
	if err := out.Write(Header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	count := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		reading, err := climate.ParseLine(sc.Text())
		if err != nil || reading.Check() != nil {
			continue
		}

		label := climate.ClassifyReading(reading, th)
		row := []string{
			strconv.FormatFloat(reading.Temperature, 'f', 2, 64),
			strconv.FormatFloat(reading.Humidity, 'f', 2, 64),
			strconv.Itoa(int(label)),
		}
		if err := out.Write(row); err != nil {
			return count, fmt.Errorf("write row %d: %w", count+1, err)
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("read log: %w", err)
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return count, fmt.Errorf("flush: %w", err)
	}
	return count, nil
}
