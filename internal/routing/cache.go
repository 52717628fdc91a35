package routing

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/observability"
)

// Cache reuses previously computed routes so directions are not recomputed
// for every resident affected by the same alert. Matching is by proximity of
// the stored route's destination to the requester's origin, not by exact key:
// the returned route's shelter may not be the nearest safe shelter for this
// specific requester. That imprecision is accepted in exchange for skipping a
// provider call; see the package documentation in domain.
type Cache struct {
	routes  domain.RouteStore
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCache creates a route cache over the given store.
func NewCache(routes domain.RouteStore, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	return &Cache{
		routes:  routes,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Lookup returns the stored route for the alert whose destination is closest
// to origin, or nil on a miss. Store failures degrade to a miss: the caller
// recomputes instead of failing the request.
func (c *Cache) Lookup(ctx context.Context, alertID string, origin domain.Point) *domain.RouteRecord {
	records, err := c.routes.ListRoutesByAlert(ctx, alertID)
	if err != nil {
		c.logger.Warn("route cache lookup failed, recomputing", "alert_id", alertID, "error", err)
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil
	}
	if len(records) == 0 {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}

	closest := records[0]
	minKm := domain.DistanceKm(origin, closest.Destination())
	for _, rec := range records[1:] {
		if d := domain.DistanceKm(origin, rec.Destination()); d < minKm {
			minKm = d
			closest = rec
		}
	}

	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &closest
}

// RecordUserRoute writes a user-specific RouteRecord for the resolved route.
// Persistence is best-effort auditing: a write failure is logged and the
// computed route is still returned to the caller.
func (c *Cache) RecordUserRoute(ctx context.Context, alertID string, origin domain.Point, shelter domain.Shelter, route domain.Route) {
	rec := domain.RouteRecord{
		RouteID:      uuid.NewString(),
		AlertID:      alertID,
		UserLat:      origin.Lat,
		UserLng:      origin.Lng,
		ShelterID:    shelter.ID,
		ShelterName:  shelter.Name,
		DestLat:      shelter.Lat,
		DestLng:      shelter.Lng,
		DistanceKm:   route.DistanceKm,
		ETAMin:       route.ETAMin,
		Steps:        route.Steps,
		CalculatedAt: c.clock.Now().UTC(),
		UserSpecific: true,
	}
	if err := c.routes.PutRoute(ctx, rec); err != nil {
		c.logger.Warn("route persistence failed", "alert_id", alertID, "route_id", rec.RouteID, "error", err)
	}
}
