package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	httpadapter "github.com/resqnow/evac-routing-service/internal/adapter/http"
	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/observability"
	"github.com/resqnow/evac-routing-service/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPolygon = `{"type":"Polygon","coordinates":[[[101.66,3.12],[101.72,3.12],[101.72,3.17],[101.66,3.17],[101.66,3.12]]]}`

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type memStore struct {
	alerts   map[string]domain.Alert
	shelters []domain.Shelter
	listErr  error
}

func (m *memStore) GetAlert(_ context.Context, id string) (*domain.Alert, error) {
	a, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memStore) ListAlerts(context.Context) ([]domain.Alert, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Alert
	for _, a := range m.alerts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) PutAlert(_ context.Context, a domain.Alert) error {
	m.alerts[a.ID] = a
	return nil
}

func (m *memStore) ListShelters(context.Context) ([]domain.Shelter, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.shelters, nil
}

func (m *memStore) GetResident(context.Context, string) (*domain.Resident, error) {
	return nil, nil
}

func (m *memStore) ListRoutesByAlert(context.Context, string) ([]domain.RouteRecord, error) {
	return nil, nil
}

func (m *memStore) PutRoute(context.Context, domain.RouteRecord) error { return nil }

func newTestServer(store *memStore, readyErr error) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	cache := routing.NewCache(store, clockwork.NewFakeClock(), logger, metrics)
	resolver := routing.NewResolver(nil, 5, logger, metrics)
	dispatcher := routing.NewDispatcher(nil, nil, logger, metrics)
	engine := routing.NewEngine(store, store, store, cache, resolver, dispatcher, logger, metrics)
	return httpadapter.NewServer(":0", engine, store, store, &mockReadiness{err: readyErr}, logger)
}

func activeStore() *memStore {
	return &memStore{
		alerts: map[string]domain.Alert{
			"A1": {ID: "A1", Status: domain.AlertStatusActive, Polygon: testPolygon},
		},
		shelters: []domain.Shelter{
			{ID: "S1", Name: "KL Sports Complex", Lat: 3.0701, Lng: 101.6876},
		},
	}
}

func postRoute(t *testing.T, srv *httpadapter.Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/route", bytes.NewReader(payload))
	srv.ServeHTTP(rec, req)
	return rec
}

func TestRouteEndpointSuccess(t *testing.T) {
	srv := newTestServer(activeStore(), nil)

	rec := postRoute(t, srv, map[string]any{
		"alert_id": "A1",
		"user":     map[string]float64{"lat": 3.14, "lng": 101.69},
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp routing.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Affected)
	require.NotNil(t, resp.Shelter)
	assert.Equal(t, "S1", resp.Shelter.ID)
	assert.NotEmpty(t, resp.Steps)
	assert.Nil(t, resp.ETAMin)
}

func TestRouteEndpointBadJSON(t *testing.T) {
	srv := newTestServer(activeStore(), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/route", bytes.NewReader([]byte("{not json")))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "BAD_REQUEST", body["error"])
}

func TestRouteEndpointStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing alert id",
			body:     map[string]any{"user": map[string]float64{"lat": 3.14, "lng": 101.69}},
			wantCode: http.StatusBadRequest,
			wantErr:  "MISSING_FIELDS",
		},
		{
			name:     "unknown phone",
			body:     map[string]any{"alert_id": "A1", "phone": "+60999999999"},
			wantCode: http.StatusNotFound,
			wantErr:  "ORIGIN_NOT_FOUND",
		},
		{
			name:     "unknown alert",
			body:     map[string]any{"alert_id": "A9", "user": map[string]float64{"lat": 3.14, "lng": 101.69}},
			wantCode: http.StatusNotFound,
			wantErr:  "ALERT_NOT_FOUND",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(activeStore(), nil)
			rec := postRoute(t, srv, tc.body)

			assert.Equal(t, tc.wantCode, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantErr, body["error"])
			assert.NotEmpty(t, body["hint"])
		})
	}
}

func TestRouteEndpointNoSafeShelters(t *testing.T) {
	store := activeStore()
	// Relocate the only shelter inside the hazard polygon.
	store.shelters[0].Lat = 3.14
	store.shelters[0].Lng = 101.69
	srv := newTestServer(store, nil)

	rec := postRoute(t, srv, map[string]any{
		"alert_id": "A1",
		"user":     map[string]float64{"lat": 3.14, "lng": 101.69},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NO_SAFE_SHELTERS", body["error"])
}

func TestListAlerts(t *testing.T) {
	srv := newTestServer(activeStore(), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/alerts", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Alerts []domain.Alert `json:"alerts"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "A1", body.Alerts[0].ID)
}

func TestListShelters(t *testing.T) {
	srv := newTestServer(activeStore(), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/shelters", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Shelters []domain.Shelter `json:"shelters"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "KL Sports Complex", body.Shelters[0].Name)
}

func TestListSheltersStoreFailure(t *testing.T) {
	store := activeStore()
	store.listErr = fmt.Errorf("store down")
	srv := newTestServer(store, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/shelters", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL", body["error"])
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(activeStore(), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(activeStore(), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(activeStore(), fmt.Errorf("pipeline not started"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "pipeline not started", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(activeStore(), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
