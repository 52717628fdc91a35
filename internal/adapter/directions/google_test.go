package directions

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key"

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func okResponse() response {
	return response{
		Status: "OK",
		Routes: []route{{
			Legs: []leg{{
				Steps: []step{
					{HTMLInstructions: "Head <b>northeast</b> on <b>Jalan Ampang</b>", Distance: textVal{Value: 2100}},
					{HTMLInstructions: "Turn <b>right</b> onto <b>Jalan Tun Razak</b>", Distance: textVal{Value: 1200}},
				},
				Distance: textVal{Value: 5437},
				Duration: textVal{Value: 754},
			}},
		}},
	}
}

func TestClient_Directions_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "driving", r.URL.Query().Get("mode"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Equal(t, testKey, r.URL.Query().Get("key"))
		assert.NotEmpty(t, r.URL.Query().Get("origin"))
		assert.NotEmpty(t, r.URL.Query().Get("destination"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(okResponse()))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	leg, err := c.Directions(context.Background(), domain.Point{Lat: 3.11, Lng: 101.68}, domain.Point{Lat: 3.14, Lng: 101.70}, "en")
	require.NoError(t, err)

	require.Len(t, leg.Steps, 2)
	assert.Equal(t, "Head northeast on Jalan Ampang", leg.Steps[0].Instruction, "markup must be stripped")
	assert.Equal(t, 2100, leg.Steps[0].DistanceM)
	assert.Equal(t, 5437, leg.DistanceM)
	assert.Equal(t, 754, leg.DurationS)
}

func TestClient_Directions_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response{Status: "ZERO_RESULTS"}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Directions(context.Background(), domain.Point{}, domain.Point{}, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZERO_RESULTS")
}

func TestClient_Directions_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error_message":"The provided API key is invalid"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Directions(context.Background(), domain.Point{}, domain.Point{}, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_Directions_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.Directions(context.Background(), domain.Point{}, domain.Point{}, "en")
	require.Error(t, err)
}

func TestClient_Directions_NoLegs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response{Status: "OK"}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Directions(context.Background(), domain.Point{}, domain.Point{}, "en")
	require.Error(t, err)
}
