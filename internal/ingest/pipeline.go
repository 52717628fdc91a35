// Package ingest consumes validated alerts from the source topic, stores
// them, and precomputes a reference evacuation route per alert.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/observability"
	"github.com/resqnow/evac-routing-service/internal/routing"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Pipeline orchestrates the alert ingestion loop: extract a batch, store each
// alert, precompute its reference route, commit the offset. A record that
// fails processing is logged, counted, and committed anyway; the upstream
// validator owns replays.
type Pipeline struct {
	extractor BatchExtractor
	alerts    domain.AlertStore
	shelters  domain.ShelterStore
	routes    domain.RouteStore
	resolver  *routing.Resolver
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(
	e BatchExtractor,
	alerts domain.AlertStore,
	shelters domain.ShelterStore,
	routes domain.RouteStore,
	resolver *routing.Resolver,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
	batchSize int,
) *Pipeline {
	return &Pipeline{
		extractor: e,
		alerts:    alerts,
		shelters:  shelters,
		routes:    routes,
		resolver:  resolver,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has processed at least one
// message.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the ingestion loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("ingest pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ingest pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-store cycle. Returns false if the pipeline
// should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.IngestBatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	for _, raw := range rawBatch {
		if err := p.processRecord(ctx, raw); err != nil {
			p.logger.Warn("alert record failed, skipping",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.IngestErrors.Inc()
		}
		p.commitOffset(ctx, raw)
	}

	p.ready.Store(true)
	return true
}

// processRecord stores one alert and, when the alert is active, precomputes
// its reference route from the polygon centroid.
func (p *Pipeline) processRecord(ctx context.Context, raw domain.RawEvent) error {
	alert, ring, err := parseAlert(raw.Value)
	if err != nil {
		return err
	}

	if err := p.alerts.PutAlert(ctx, alert); err != nil {
		return fmt.Errorf("storing alert: %w", err)
	}
	p.metrics.AlertsIngested.Inc()
	p.logger.Info("alert ingested",
		"alert_id", alert.ID,
		"event_type", alert.EventType,
		"status", alert.Status,
	)

	if alert.Status != domain.AlertStatusActive {
		return nil
	}
	if err := p.precomputeReferenceRoute(ctx, alert.ID, ring); err != nil {
		// The alert itself is stored; a missing reference route only costs
		// the first requester a cache miss.
		p.logger.Warn("reference route precompute failed", "alert_id", alert.ID, "error", err)
	}
	return nil
}

// precomputeReferenceRoute resolves a route from the hazard centroid to the
// nearest safe shelter and stores it as a shared, non-user-specific record.
func (p *Pipeline) precomputeReferenceRoute(ctx context.Context, alertID string, ring []domain.Point) error {
	shelters, err := p.shelters.ListShelters(ctx)
	if err != nil {
		return fmt.Errorf("listing shelters: %w", err)
	}

	origin := domain.Centroid(ring)
	best, err := domain.NearestSafeShelter(origin, ring, shelters)
	if err != nil {
		return fmt.Errorf("selecting shelter: %w", err)
	}

	route := p.resolver.Resolve(ctx, origin, best, "en")
	record := domain.RouteRecord{
		RouteID:      uuid.NewString(),
		AlertID:      alertID,
		UserLat:      origin.Lat,
		UserLng:      origin.Lng,
		ShelterID:    best.Shelter.ID,
		ShelterName:  best.Shelter.Name,
		DestLat:      best.Shelter.Lat,
		DestLng:      best.Shelter.Lng,
		DistanceKm:   route.DistanceKm,
		ETAMin:       route.ETAMin,
		Steps:        route.Steps,
		CalculatedAt: p.clock.Now().UTC(),
		UserSpecific: false,
	}
	if err := p.routes.PutRoute(ctx, record); err != nil {
		return fmt.Errorf("storing reference route: %w", err)
	}
	p.metrics.ReferenceRoutes.Inc()
	return nil
}

// alertMessage is the wire form of a validated alert. The polygon arrives as
// raw GeoJSON and is stored verbatim after a parse check.
type alertMessage struct {
	AlertID            string          `json:"alert_id"`
	Status             string          `json:"status"`
	Polygon            json.RawMessage `json:"polygon"`
	Timestamp          time.Time       `json:"timestamp"`
	EventType          string          `json:"event_type"`
	Description        string          `json:"description"`
	Location           string          `json:"location"`
	Priority           string          `json:"priority"`
	PopulationEstimate int             `json:"population_estimate"`
}

func parseAlert(value []byte) (domain.Alert, []domain.Point, error) {
	var msg alertMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return domain.Alert{}, nil, fmt.Errorf("decoding alert message: %w", err)
	}
	if msg.AlertID == "" {
		return domain.Alert{}, nil, errors.New("alert message missing alert_id")
	}
	if msg.EventType == "" {
		return domain.Alert{}, nil, errors.New("alert message missing event_type")
	}
	if len(msg.Polygon) == 0 {
		return domain.Alert{}, nil, errors.New("alert message missing polygon")
	}

	ring, err := domain.ParsePolygon(string(msg.Polygon))
	if err != nil {
		return domain.Alert{}, nil, fmt.Errorf("alert polygon invalid: %w", err)
	}

	if msg.Status == "" {
		msg.Status = domain.AlertStatusActive
	}
	if msg.Priority == "" {
		msg.Priority = "medium"
	}

	return domain.Alert{
		ID:                 msg.AlertID,
		Status:             msg.Status,
		Polygon:            string(msg.Polygon),
		Timestamp:          msg.Timestamp,
		EventType:          msg.EventType,
		Description:        msg.Description,
		Location:           msg.Location,
		Priority:           msg.Priority,
		PopulationEstimate: msg.PopulationEstimate,
	}, ring, nil
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
