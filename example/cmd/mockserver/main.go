// Standalone mock sensor node for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/envmon serve -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

func main() {
	fmt.Println("Mock sensor node starting on :9999")
	fmt.Println("Readings random-walk; POST /heat and /cool nudge the temperature")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	walk := newWalk(26, 55)

	http.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		temp, hum := walk.step()
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"snapshot": map[string]any{
				"reading": map[string]any{"temperature": temp, "humidity": hum, "valid": true},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	})
	http.HandleFunc("/heat", func(w http.ResponseWriter, r *http.Request) {
		walk.nudge(3)
		w.WriteHeader(http.StatusNoContent)
	})
	http.HandleFunc("/cool", func(w http.ResponseWriter, r *http.Request) {
		walk.nudge(-3)
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{
		Addr:              ":9999",
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
