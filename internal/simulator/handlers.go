package simulator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// commandRequest is the body of every command.
type commandRequest struct {
	ID       string `json:"id"`
	Duration *int64 `json:"duration,omitempty"`
}

func decodeCommand(r *http.Request) (commandRequest, error) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.ID == "" {
		return req, fmt.Errorf("id is required")
	}
	return req, nil
}

func (req commandRequest) seconds() int64 {
	if req.Duration == nil {
		return 0
	}
	return *req.Duration
}

// parseMillis reads an optional epoch-millisecond query parameter.
func parseMillis(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil //nolint:nilnil // absent bound
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be epoch milliseconds, got %q", name, raw)
	}
	return &v, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.db.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Device(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	z, err := s.store.Zone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (s *Server) handleCurrentSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.store.CurrentSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleCurrentConditions(w http.ResponseWriter, r *http.Request) {
	units, err := ParseUnits(r.URL.Query().Get("units"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	c, err := s.store.Conditions(r.Context(), chi.URLParam(r, "id"), units)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	units, err := ParseUnits(r.URL.Query().Get("units"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	start, end, ok := window(w, r)
	if !ok {
		return
	}

	days, err := s.store.Forecast(r.Context(), chi.URLParam(r, "id"), start, end, units)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forecast": days})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	start, end, ok := window(w, r)
	if !ok {
		return
	}

	events, err := s.store.Events(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// window parses startTime and endTime, writing a 400 on failure.
func window(w http.ResponseWriter, r *http.Request) (start, end *int64, ok bool) {
	start, err := parseMillis(r, "startTime")
	if err != nil {
		writeBadRequest(w, err.Error())
		return nil, nil, false
	}
	end, err = parseMillis(r, "endTime")
	if err != nil {
		writeBadRequest(w, err.Error())
		return nil, nil, false
	}
	if start != nil && end != nil && *end < *start {
		writeBadRequest(w, "endTime is before startTime")
		return nil, nil, false
	}
	return start, end, true
}

// command decodes the body and runs fn, answering 204 on success.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(req commandRequest) error) {
	req, err := decodeCommand(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := fn(req); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStopWater(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(req commandRequest) error {
		return s.store.StopWater(r.Context(), req.ID)
	})
}

func (s *Server) handleStandby(standby bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.command(w, r, func(req commandRequest) error {
			return s.store.SetOn(r.Context(), req.ID, !standby)
		})
	}
}

func (s *Server) handleRainDelay(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(req commandRequest) error {
		return s.store.RainDelay(r.Context(), req.ID, req.seconds())
	})
}

func (s *Server) handlePauseZoneRun(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(req commandRequest) error {
		return s.store.PauseZoneRun(r.Context(), req.ID, req.seconds())
	})
}

func (s *Server) handleResumeZoneRun(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(req commandRequest) error {
		return s.store.ResumeZoneRun(r.Context(), req.ID)
	})
}

func (s *Server) handleStartZone(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(req commandRequest) error {
		return s.store.StartZone(r.Context(), req.ID, req.seconds())
	})
}
