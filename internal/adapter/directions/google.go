// Package directions implements domain.DirectionsProvider against the Google
// Directions JSON API.
package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/observability"
)

// htmlTagRe strips the markup Google embeds in html_instructions.
var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// Client calls the Google Directions API for driving legs.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a directions client. The timeout bounds every request;
// callers rely on it to keep the routing path from blocking on a slow
// provider.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://maps.googleapis.com/maps/api/directions/json",
		metrics: metrics,
		logger:  logger,
	}
}

// Directions fetches the driving leg from origin to dest. Any error return,
// including a non-"OK" provider status, means the provider is unavailable for
// this leg.
func (c *Client) Directions(ctx context.Context, origin, dest domain.Point, lang string) (domain.DirectionsLeg, error) {
	params := url.Values{
		"origin":      {fmt.Sprintf("%f,%f", origin.Lat, origin.Lng)},
		"destination": {fmt.Sprintf("%f,%f", dest.Lat, dest.Lng)},
		"mode":        {"driving"},
		"language":    {lang},
		"key":         {c.apiKey},
	}

	start := time.Now()
	leg, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.DirectionsDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.DirectionsRequests.WithLabelValues("error").Inc()
		return domain.DirectionsLeg{}, err
	}
	c.metrics.DirectionsRequests.WithLabelValues("success").Inc()
	return leg, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.DirectionsLeg, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.DirectionsLeg{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DirectionsLeg{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.DirectionsLeg{}, fmt.Errorf("directions API error: status %d: %s", resp.StatusCode, body)
	}

	var dirResp response
	if err := json.NewDecoder(resp.Body).Decode(&dirResp); err != nil {
		return domain.DirectionsLeg{}, fmt.Errorf("decode response: %w", err)
	}

	if dirResp.Status != "OK" {
		c.metrics.DirectionsRequests.WithLabelValues("unavailable").Inc()
		return domain.DirectionsLeg{}, fmt.Errorf("directions status %q", dirResp.Status)
	}
	if len(dirResp.Routes) == 0 || len(dirResp.Routes[0].Legs) == 0 {
		return domain.DirectionsLeg{}, fmt.Errorf("directions response has no legs")
	}

	apiLeg := dirResp.Routes[0].Legs[0]
	leg := domain.DirectionsLeg{
		Steps:     make([]domain.DirectionsStep, 0, len(apiLeg.Steps)),
		DistanceM: apiLeg.Distance.Value,
		DurationS: apiLeg.Duration.Value,
	}
	for _, s := range apiLeg.Steps {
		leg.Steps = append(leg.Steps, domain.DirectionsStep{
			Instruction: htmlTagRe.ReplaceAllString(s.HTMLInstructions, ""),
			DistanceM:   s.Distance.Value,
		})
	}
	return leg, nil
}

// Google Directions API response types.

type response struct {
	Status string  `json:"status"`
	Routes []route `json:"routes"`
}

type route struct {
	Legs []leg `json:"legs"`
}

type leg struct {
	Steps    []step  `json:"steps"`
	Distance textVal `json:"distance"`
	Duration textVal `json:"duration"`
}

type step struct {
	HTMLInstructions string  `json:"html_instructions"`
	Distance         textVal `json:"distance"`
}

type textVal struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}
