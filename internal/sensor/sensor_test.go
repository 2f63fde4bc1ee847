package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSimulated_Reproducible(t *testing.T) {
	a := NewSimulated(DefaultSimulatedConfig())
	b := NewSimulated(DefaultSimulatedConfig())

	for i := 0; i < 50; i++ {
		ra, _ := a.Sample(context.Background())
		rb, _ := b.Sample(context.Background())
		if ra != rb {
			t.Fatalf("sample %d differs: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestSimulated_StaysInBounds(t *testing.T) {
	cfg := DefaultSimulatedConfig()
	cfg.TemperatureStep = 20
	cfg.HumidityStep = 50
	s := NewSimulated(cfg)

	for i := 0; i < 500; i++ {
		r, err := s.Sample(context.Background())
		if err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
		if r.Temperature < minTemperature || r.Temperature > maxTemperature {
			t.Fatalf("temperature %v out of bounds", r.Temperature)
		}
		if r.Humidity < minHumidity || r.Humidity > maxHumidity {
			t.Fatalf("humidity %v out of bounds", r.Humidity)
		}
	}
}

func TestSimulated_FaultRate(t *testing.T) {
	cfg := DefaultSimulatedConfig()
	cfg.FaultRate = 1
	s := NewSimulated(cfg)

	r, err := s.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if !math.IsNaN(r.Temperature) || r.Check() == nil {
		t.Errorf("Sample() = %+v, want NaN reading that fails Check()", r)
	}
}

func TestSimulated_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewSimulated(DefaultSimulatedConfig()).Sample(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Sample() error = %v, want context.Canceled", err)
	}
}

func TestLine_ReadsDataLines(t *testing.T) {
	input := strings.Join([]string{
		"=== boot ===",
		"DATA,28.10,60.00",
		"sensor warming up",
		"DATA,bad,60",
		"DATA,32.50,75.25",
	}, "\n")
	l := NewLine(strings.NewReader(input))
	defer l.Close()

	ctx := context.Background()

	r, err := l.Sample(ctx)
	if err != nil || r.Temperature != 28.1 || r.Humidity != 60 {
		t.Fatalf("first Sample() = %+v, %v", r, err)
	}

	if _, err := l.Sample(ctx); err == nil {
		t.Fatal("second Sample() expected parse error")
	}

	r, err = l.Sample(ctx)
	if err != nil || r.Temperature != 32.5 || r.Humidity != 75.25 {
		t.Fatalf("third Sample() = %+v, %v", r, err)
	}

	if _, err := l.Sample(ctx); !errors.Is(err, ErrNoData) {
		t.Errorf("Sample() at EOF error = %v, want ErrNoData", err)
	}
}

func TestLine_SampleHonoursContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	l := NewLine(pr)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := l.Sample(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Sample() error = %v, want DeadlineExceeded", err)
	}
}

// failingReader yields data once, then fails with err.
type failingReader struct {
	data string
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestLine_StreamErrorReported(t *testing.T) {
	readErr := errors.New("serial framing error")
	tests := []struct {
		name  string
		r     io.Reader
		want  error
		first bool
	}{
		{
			name:  "read failure after data",
			r:     &failingReader{data: "DATA,21.00,40.00\n", err: readErr},
			want:  readErr,
			first: true,
		},
		{
			name: "line too long",
			r:    strings.NewReader(strings.Repeat("x", 70*1024) + "\nDATA,21.00,40.00\n"),
			want: bufio.ErrTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLine(tt.r)
			defer l.Close()
			ctx := context.Background()

			if tt.first {
				if r, err := l.Sample(ctx); err != nil || r.Temperature != 21 {
					t.Fatalf("first Sample() = %+v, %v", r, err)
				}
			}

			_, err := l.Sample(ctx)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Sample() error = %v, want %v", err, tt.want)
			}
			if errors.Is(err, ErrNoData) {
				t.Error("stream error reported as ErrNoData")
			}

			if _, err := l.Sample(ctx); !errors.Is(err, ErrNoData) {
				t.Errorf("Sample() after stream error = %v, want ErrNoData", err)
			}
		})
	}
}

func TestOpenLine_MissingFile(t *testing.T) {
	if _, err := OpenLine("/nonexistent/ttyUSB9"); err == nil {
		t.Error("OpenLine() expected error for missing path")
	}
}

func TestHTTP_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		temp float64
		hum  float64
	}{
		{"state document", `{"snapshot":{"reading":{"temperature":30.5,"humidity":71,"valid":true},"severity":"warning"}}`, 30.5, 71},
		{"bare snapshot", `{"reading":{"temperature":22,"humidity":40,"valid":true}}`, 22, 40},
		{"flat", `{"temperature":19.5,"humidity":55.5}`, 19.5, 55.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			h := NewHTTP(HTTPConfig{URL: ts.URL, Timeout: time.Second})
			defer h.Close()

			r, err := h.Sample(context.Background())
			if err != nil {
				t.Fatalf("Sample() error = %v", err)
			}
			if r.Temperature != tt.temp || r.Humidity != tt.hum || !r.Valid {
				t.Errorf("Sample() = %+v, want {%v %v true}", r, tt.temp, tt.hum)
			}
		})
	}
}

func TestHTTP_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"not json", http.StatusOK, `<html>`},
		{"no reading", http.StatusOK, `{"status":"ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			if _, err := NewHTTP(HTTPConfig{URL: ts.URL, Timeout: time.Second}).Sample(context.Background()); err == nil {
				t.Error("Sample() expected error")
			}
		})
	}
}

func TestHTTP_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer ts.Close()

	h := NewHTTP(HTTPConfig{URL: ts.URL, Timeout: 20 * time.Millisecond})
	if _, err := h.Sample(context.Background()); err == nil {
		t.Error("Sample() expected timeout error")
	}
}

func TestHTTP_HeadersAndDecoder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"data":{"temp_c":"24.5","rh":51}}`)
	}))
	defer ts.Close()

	h := NewHTTP(HTTPConfig{
		URL:     ts.URL,
		Headers: map[string]string{"Authorization": "Bearer secret"},
		Decoder: JSONFieldDecoder("data.temp_c", "data.rh"),
	})

	r, err := h.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if r.Temperature != 24.5 || r.Humidity != 51 {
		t.Errorf("Sample() = %+v, want 24.5/51", r)
	}
}
