package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jpalmerr/envmon/internal/override"
	"github.com/jpalmerr/envmon/internal/sampler"
	"github.com/jpalmerr/envmon/internal/state"
)

// StateResponse is the "/api/state" document.
type StateResponse struct {
	Snapshot  state.Snapshot           `json:"snapshot"`
	Published bool                     `json:"published"`
	Actuators []override.ActuatorState `json:"actuators"`
	Sampler   *sampler.Stats           `json:"sampler,omitempty"`
}

// panelView is the data handed to the panel template.
type panelView struct {
	Title         string
	Temperature   string
	Humidity      string
	Severity      string
	SeverityLabel string
	Seq           uint64
	SampledAt     string
	Actuators     []override.ActuatorState
}

func newPanelView(title string, snap state.Snapshot, actuators []override.ActuatorState) panelView {
	v := panelView{
		Title:         title,
		Temperature:   "--.- °C",
		Humidity:      "--.- %",
		Severity:      snap.Severity.String(),
		SeverityLabel: snap.Severity.Label(),
		Seq:           snap.Seq,
		SampledAt:     "waiting for first sample",
		Actuators:     actuators,
	}
	if snap.Published() {
		v.Temperature = fmt.Sprintf("%.1f °C", snap.Reading.Temperature)
		v.Humidity = fmt.Sprintf("%.1f %%", snap.Reading.Humidity)
		v.SampledAt = snap.SampledAt.Format(time.RFC3339)
	}
	return v
}

// handlePanel renders the override panel.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	view := newPanelView(s.cfg.Title, s.cfg.State.Load(), s.cfg.Panel.States())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := s.tmpl.Execute(w, view); err != nil {
		s.logger.Error("failed to render panel", "error", err)
	}
}

// handleActuator applies one override. Browsers are redirected back to the
// panel; JSON clients get the resulting state.
func (s *Server) handleActuator(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]
	on := vars["state"] == "on"

	if err := s.cfg.Panel.Set(name, on); err != nil {
		if errors.Is(err, override.ErrUnknownActuator) {
			s.writeError(w, r, http.StatusNotFound, err)
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	st := override.ActuatorState{Name: name, On: on}
	if wantsJSON(r) {
		s.writeJSON(w, http.StatusOK, st)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleState returns the latest snapshot and actuator states.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := s.cfg.State.Load()
	resp := StateResponse{
		Snapshot:  snap,
		Published: snap.Published(),
		Actuators: s.cfg.Panel.States(),
	}
	if s.cfg.Stats != nil {
		stats := s.cfg.Stats()
		resp.Sampler = &stats
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if wantsJSON(r) {
		s.writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	http.Error(w, err.Error(), status)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// recoveryLogger adapts slog to gorilla/handlers' recovery logger.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("http handler panicked",
		"correlation_id", uuid.NewString(),
		"panic", fmt.Sprint(v...),
		"stack", string(debug.Stack()),
	)
}
