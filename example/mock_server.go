package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockNode is a fake remote sensor node. Its temperature and humidity
// swing slowly between comfortable and hot/humid so every severity shows
// up within a couple of minutes.
type mockNode struct {
	mu      sync.Mutex
	started time.Time
	rng     *rand.Rand
}

// reading returns the node's current values.
func (n *mockNode) reading() (temp, hum float64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// one full swing every 120s
	phase := time.Since(n.started).Seconds() / 120
	swing := phase - float64(int(phase))
	if swing > 0.5 {
		swing = 1 - swing
	}
	temp = 24 + 28*swing + n.rng.Float64() - 0.5
	hum = 50 + 80*swing + 2*n.rng.Float64() - 1
	return temp, hum
}

// StartMockSensorNode serves a mock sensor node on addr.
//
//	GET /reading  {"env":{"temp_c":..,"rh":..}}
//	GET /line     DATA,<temp>,<hum>
//
// Call this in a goroutine before creating the monitor.
func StartMockSensorNode(addr string) {
	node := &mockNode{started: time.Now(), rng: rand.New(rand.NewSource(time.Now().UnixNano()))}

	mux := http.NewServeMux()
	mux.HandleFunc("/reading", func(w http.ResponseWriter, r *http.Request) {
		temp, hum := node.reading()
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"node": "mock-1",
			"env":  map[string]float64{"temp_c": temp, "rh": hum},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	})
	mux.HandleFunc("/line", func(w http.ResponseWriter, r *http.Request) {
		temp, hum := node.reading()
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "DATA,%.2f,%.2f\n", temp, hum)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock sensor node failed", "error", err)
	}
}
