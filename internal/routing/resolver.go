package routing

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/observability"
)

// Resolver turns a user→shelter pair into human-readable route steps with
// distance and ETA. It prefers the directions provider and degrades to a
// single compass-bearing instruction whenever the provider is disabled,
// errors, times out, or returns no steps. Directions unavailability is
// policy, not failure: a resolved route always comes back.
type Resolver struct {
	provider domain.DirectionsProvider // nil when directions are disabled
	maxSteps int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a Resolver. Pass a nil provider to run fallback-only.
func NewResolver(provider domain.DirectionsProvider, maxSteps int, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if maxSteps <= 0 {
		maxSteps = 5
	}
	return &Resolver{
		provider: provider,
		maxSteps: maxSteps,
		logger:   logger,
		metrics:  metrics,
	}
}

// Resolve produces the route from origin to the selected shelter candidate.
func (r *Resolver) Resolve(ctx context.Context, origin domain.Point, best domain.Candidate, lang string) domain.Route {
	if r.provider != nil {
		if route, ok := r.fromProvider(ctx, origin, best, lang); ok {
			return route
		}
	}
	return r.fallback(best)
}

func (r *Resolver) fromProvider(ctx context.Context, origin domain.Point, best domain.Candidate, lang string) (domain.Route, bool) {
	leg, err := r.provider.Directions(ctx, origin, domain.Point{Lat: best.Lat, Lng: best.Lng}, lang)
	if err != nil {
		r.logger.Warn("directions provider unavailable, using bearing fallback",
			"shelter_id", best.ID,
			"error", err,
		)
		return domain.Route{}, false
	}
	if len(leg.Steps) == 0 {
		return domain.Route{}, false
	}

	steps := make([]string, 0, r.maxSteps)
	for _, s := range leg.Steps {
		if len(steps) == r.maxSteps {
			break
		}
		steps = append(steps, fmt.Sprintf("%s for %d m", s.Instruction, s.DistanceM))
	}

	eta := int(math.Round(float64(leg.DurationS) / 60))
	return domain.Route{
		Steps:      steps,
		DistanceKm: math.Round(float64(leg.DistanceM)/10) / 100,
		ETAMin:     &eta,
	}, true
}

// fallback builds the single crow-flight instruction. ETA stays nil: straight
// line distance says nothing about road travel time.
func (r *Resolver) fallback(best domain.Candidate) domain.Route {
	r.metrics.FallbackRoutes.Inc()
	distKm := math.Round(best.CrowKm*10) / 10
	step := fmt.Sprintf("Head %s for %.1f km toward %s", domain.Cardinal(best.Bearing), distKm, best.Name)
	return domain.Route{
		Steps:      []string{step},
		DistanceKm: distKm,
	}
}
