package api

import (
	"context"
	"encoding/json"
	"github.com/clambin/climate-controller/internal/climate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeSensor struct{}

func (f fakeSensor) ReadTemperature(_ context.Context, _ int) (float64, error) {
	return 19.5, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	zones := climate.NewRegistry()
	zones.Add(climate.Zone{Id: 1, Name: "living room"})
	schedules := climate.NewScheduleStore(climate.DefaultBounds)
	require.NoError(t, schedules.Set(1, []climate.Band{
		{Day: time.Monday, Start: climate.TimeOfDay{Hour: 6}, End: climate.TimeOfDay{Hour: 22}, Target: 21.0},
	}))
	overrides := climate.NewOverrideStore()
	resolver := climate.NewResolver(zones, schedules, overrides, 16.0)
	logger := slog.New(slog.DiscardHandler)
	service := climate.NewOverrideService(zones, overrides, resolver, climate.DefaultBounds, time.Second, nil, logger)
	// 1 Jan 2024, 10:00 was a Monday morning
	service.GetCurrentTime = func() time.Time { return time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC) }
	facade := climate.NewZoneFacade(zones, resolver, fakeSensor{}, time.Second, logger)
	facade.GetCurrentTime = service.GetCurrentTime
	return New(facade, service, schedules, zones, nil, logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	resp := httptest.NewRecorder()
	s.ServeHTTP(resp, req)
	return resp
}

func TestServer_GetZones(t *testing.T) {
	s := newTestServer(t)

	resp := do(t, s, http.MethodGet, "/api/zones", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var snapshots []climate.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshots))
	require.Len(t, snapshots, 1)
	require.NotNil(t, snapshots[0].Temperature)
	assert.Equal(t, 19.5, *snapshots[0].Temperature)
	assert.Equal(t, 21.0, snapshots[0].Target)
}

func TestServer_GetZone(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"existing zone", "/api/zones/1", http.StatusOK},
		{"unknown zone", "/api/zones/42", http.StatusNotFound},
		{"invalid zone id", "/api/zones/attic", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, s, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestServer_SetOverride(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		body        string
		code        int
		wantTarget  float64
		wantClamped bool
	}{
		{
			name:       "valid",
			path:       "/api/zones/1/override",
			body:       `{"target_temperature": 23.0}`,
			code:       http.StatusOK,
			wantTarget: 23.0,
		},
		{
			name:        "clamped to upper bound",
			path:        "/api/zones/1/override",
			body:        `{"target_temperature": 40.0}`,
			code:        http.StatusOK,
			wantTarget:  30.0,
			wantClamped: true,
		},
		{
			name:       "with duration",
			path:       "/api/zones/1/override",
			body:       `{"target_temperature": 23.0, "duration": "2h"}`,
			code:       http.StatusOK,
			wantTarget: 23.0,
		},
		{
			name: "missing target",
			path: "/api/zones/1/override",
			body: `{}`,
			code: http.StatusBadRequest,
		},
		{
			name: "unknown field",
			path: "/api/zones/1/override",
			body: `{"target_temperature": 23.0, "mode": "party"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "invalid duration",
			path: "/api/zones/1/override",
			body: `{"target_temperature": 23.0, "duration": "tomorrow"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "unknown zone",
			path: "/api/zones/42/override",
			body: `{"target_temperature": 23.0}`,
			code: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			resp := do(t, s, http.MethodPut, tt.path, tt.body)
			require.Equal(t, tt.code, resp.Code)
			if tt.code != http.StatusOK {
				return
			}
			var body mutationResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantTarget, body.Target)
			assert.Equal(t, climate.SourceOverride, body.Source)
			assert.Equal(t, tt.wantClamped, body.Clamped)
			assert.True(t, body.OverrideActive)
		})
	}
}

func TestServer_AdjustOverride(t *testing.T) {
	s := newTestServer(t)

	// the schedule says 21.0; +2 creates an override at 23.0
	resp := do(t, s, http.MethodPost, "/api/zones/1/override/adjust", `{"delta": 2.0}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var body mutationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 23.0, body.Target)
	assert.Equal(t, climate.SourceOverride, body.Source)

	resp = do(t, s, http.MethodPost, "/api/zones/1/override/adjust", `{"delta": 2.0}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 25.0, body.Target)

	resp = do(t, s, http.MethodPost, "/api/zones/1/override/adjust", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, s, http.MethodPost, "/api/zones/42/override/adjust", `{"delta": 1.0}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_ClearOverride(t *testing.T) {
	s := newTestServer(t)

	resp := do(t, s, http.MethodPut, "/api/zones/1/override", `{"target_temperature": 23.0}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, s, http.MethodDelete, "/api/zones/1/override", "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	// clearing an already-clear zone is not an error
	resp = do(t, s, http.MethodDelete, "/api/zones/1/override", "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(t, s, http.MethodGet, "/api/zones/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var snapshot climate.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Equal(t, climate.SourceSchedule, snapshot.Source)
	assert.Equal(t, 21.0, snapshot.Target)

	resp = do(t, s, http.MethodDelete, "/api/zones/42/override", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_Schedule(t *testing.T) {
	s := newTestServer(t)

	resp := do(t, s, http.MethodGet, "/api/zones/1/schedule", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var schedule scheduleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schedule))
	assert.Equal(t, "living room", schedule.Zone)
	require.Len(t, schedule.Schedule["Monday"], 1)
	assert.Equal(t, 21.0, schedule.Schedule["Monday"][0].Target)

	resp = do(t, s, http.MethodPut, "/api/zones/1/schedule", `{"schedule": [
		{"day": "monday", "start": "06:00", "end": "12:00", "target_temperature": 22.0},
		{"day": "saturday", "start": "08:00", "end": "23:00", "target_temperature": 21.0}
	]}`)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(t, s, http.MethodGet, "/api/zones/1/schedule", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schedule))
	require.Len(t, schedule.Schedule["Monday"], 1)
	assert.Equal(t, 22.0, schedule.Schedule["Monday"][0].Target)
	assert.Len(t, schedule.Schedule["Saturday"], 1)

	// overlapping bands are rejected in full
	resp = do(t, s, http.MethodPut, "/api/zones/1/schedule", `{"schedule": [
		{"day": "monday", "start": "06:00", "end": "12:00", "target_temperature": 22.0},
		{"day": "monday", "start": "11:00", "end": "23:00", "target_temperature": 21.0}
	]}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, s, http.MethodPut, "/api/zones/1/schedule", `{"schedule": [
		{"day": "someday", "start": "06:00", "end": "12:00", "target_temperature": 22.0}
	]}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, s, http.MethodGet, "/api/zones/42/schedule", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

type busyOverrideManager struct{}

func (b busyOverrideManager) Set(_ context.Context, _ int, _ float64, _ time.Duration) (climate.Override, bool, error) {
	return climate.Override{}, false, climate.ErrZoneBusy
}

func (b busyOverrideManager) Adjust(_ context.Context, _ int, _ float64) (climate.Override, bool, error) {
	return climate.Override{}, false, climate.ErrZoneBusy
}

func (b busyOverrideManager) Clear(_ context.Context, _ int) error {
	return climate.ErrZoneBusy
}

func TestServer_ZoneBusy(t *testing.T) {
	s := newTestServer(t)
	s.overrides = busyOverrideManager{}

	resp := do(t, s, http.MethodPut, "/api/zones/1/override", `{"target_temperature": 23.0}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))
}
