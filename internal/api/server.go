// Package api implements the REST control surface: zone snapshots, override mutations and
// schedule administration.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/clambin/climate-controller/internal/climate"
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type Facade interface {
	Snapshot(ctx context.Context, zoneId int) (climate.Snapshot, error)
}

type OverrideManager interface {
	Set(ctx context.Context, zoneId int, target float64, duration time.Duration) (climate.Override, bool, error)
	Adjust(ctx context.Context, zoneId int, delta float64) (climate.Override, bool, error)
	Clear(ctx context.Context, zoneId int) error
}

type ScheduleManager interface {
	Bands(zoneId int) []climate.Band
	Set(zoneId int, bands []climate.Band) error
}

type Zones interface {
	Get(id int) (climate.Zone, bool)
	All() []climate.Zone
}

type Server struct {
	http.Handler
	facade    Facade
	overrides OverrideManager
	schedules ScheduleManager
	zones     Zones
	logger    *slog.Logger
}

func New(facade Facade, overrides OverrideManager, schedules ScheduleManager, zones Zones, registry prometheus.Registerer, logger *slog.Logger) *Server {
	s := Server{
		facade:    facade,
		overrides: overrides,
		schedules: schedules,
		zones:     zones,
		logger:    logger,
	}

	m := http.NewServeMux()
	m.HandleFunc("GET /api/zones", s.getZones)
	m.HandleFunc("GET /api/zones/{zone}", s.getZone)
	m.HandleFunc("PUT /api/zones/{zone}/override", s.setOverride)
	m.HandleFunc("POST /api/zones/{zone}/override/adjust", s.adjustOverride)
	m.HandleFunc("DELETE /api/zones/{zone}/override", s.clearOverride)
	m.HandleFunc("GET /api/zones/{zone}/schedule", s.getSchedule)
	m.HandleFunc("PUT /api/zones/{zone}/schedule", s.setSchedule)
	s.Handler = withMetrics(registry, m)
	return &s
}

// mutationResponse is returned by all override mutations: the resulting snapshot, plus whether the
// requested target had to be clamped to the temperature bounds.
type mutationResponse struct {
	climate.Snapshot
	Clamped bool `json:"clamped,omitempty"`
}

func (s *Server) getZones(w http.ResponseWriter, r *http.Request) {
	zones := s.zones.All()
	snapshots := make([]climate.Snapshot, 0, len(zones))
	for _, zone := range zones {
		snapshot, err := s.facade.Snapshot(r.Context(), zone.Id)
		if err != nil {
			s.error(w, r, err)
			return
		}
		snapshots = append(snapshots, snapshot)
	}
	s.respond(w, http.StatusOK, snapshots)
}

func (s *Server) getZone(w http.ResponseWriter, r *http.Request) {
	zoneId, err := zoneId(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	snapshot, err := s.facade.Snapshot(r.Context(), zoneId)
	if err != nil {
		s.error(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, snapshot)
}

func (s *Server) setOverride(w http.ResponseWriter, r *http.Request) {
	zoneId, err := zoneId(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	request, err := decode[SetOverrideRequest](r.Body)
	if err != nil {
		s.error(w, r, &validationError{err: err})
		return
	}
	var duration time.Duration
	if request.Duration != nil {
		duration = time.Duration(*request.Duration)
	}
	_, clamped, err := s.overrides.Set(r.Context(), zoneId, *request.Target, duration)
	if err != nil {
		s.error(w, r, err)
		return
	}
	s.respondWithSnapshot(w, r, zoneId, clamped)
}

func (s *Server) adjustOverride(w http.ResponseWriter, r *http.Request) {
	zoneId, err := zoneId(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	request, err := decode[AdjustOverrideRequest](r.Body)
	if err != nil {
		s.error(w, r, &validationError{err: err})
		return
	}
	_, clamped, err := s.overrides.Adjust(r.Context(), zoneId, *request.Delta)
	if err != nil {
		s.error(w, r, err)
		return
	}
	s.respondWithSnapshot(w, r, zoneId, clamped)
}

func (s *Server) clearOverride(w http.ResponseWriter, r *http.Request) {
	zoneId, err := zoneId(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err = s.overrides.Clear(r.Context(), zoneId); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleResponse struct {
	Zone     string                 `json:"zone"`
	Schedule map[string][]bandEntry `json:"schedule"`
}

type bandEntry struct {
	Start  climate.TimeOfDay `json:"start"`
	End    climate.TimeOfDay `json:"end"`
	Target float64           `json:"target_temperature"`
}

func (s *Server) getSchedule(w http.ResponseWriter, r *http.Request) {
	zoneId, err := zoneId(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	zone, ok := s.zones.Get(zoneId)
	if !ok {
		s.error(w, r, climate.ErrUnknownZone)
		return
	}

	response := scheduleResponse{Zone: zone.Name, Schedule: make(map[string][]bandEntry, 7)}
	for _, band := range s.schedules.Bands(zoneId) {
		day := band.Day.String()
		response.Schedule[day] = append(response.Schedule[day], bandEntry{Start: band.Start, End: band.End, Target: band.Target})
	}
	s.respond(w, http.StatusOK, response)
}

func (s *Server) setSchedule(w http.ResponseWriter, r *http.Request) {
	zoneId, err := zoneId(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if _, ok := s.zones.Get(zoneId); !ok {
		s.error(w, r, climate.ErrUnknownZone)
		return
	}
	request, err := decode[SetScheduleRequest](r.Body)
	if err != nil {
		s.error(w, r, &validationError{err: err})
		return
	}
	if err = s.schedules.Set(zoneId, request.bands()); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondWithSnapshot(w http.ResponseWriter, r *http.Request, zoneId int, clamped bool) {
	snapshot, err := s.facade.Snapshot(r.Context(), zoneId)
	if err != nil {
		s.error(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, mutationResponse{Snapshot: snapshot, Clamped: clamped})
}

func (s *Server) respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) error(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *validationError
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, climate.ErrUnknownZone):
		code = http.StatusNotFound
	case errors.Is(err, climate.ErrInvalidBand), errors.As(err, &validationErr):
		code = http.StatusBadRequest
	case errors.Is(err, climate.ErrZoneBusy):
		// retryable: the zone's critical section could not be acquired in time
		code = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	s.respond(w, code, map[string]string{"error": err.Error()})
}

func zoneId(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("zone"))
	if err != nil {
		return 0, climate.ErrUnknownZone
	}
	return id, nil
}

type validationError struct {
	err error
}

func (e *validationError) Error() string {
	return e.err.Error()
}

func (e *validationError) Unwrap() error {
	return e.err
}
