package routing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/observability"
)

// Request is a validated routing request. Exactly one of User or Phone must
// be set; Validate enforces that at the boundary.
type Request struct {
	AlertID       string        `json:"alert_id"`
	User          *domain.Point `json:"user,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Lang          string        `json:"lang,omitempty"`
	RequireInside bool          `json:"require_inside,omitempty"`
}

// Validate checks required fields, producing the MissingFields outcome
// before any collaborator is contacted.
func (r Request) Validate() *domain.RequestError {
	if r.AlertID == "" {
		return &domain.RequestError{Code: domain.CodeMissingFields, Hint: "alert_id is required"}
	}
	if r.User == nil && r.Phone == "" {
		return &domain.RequestError{Code: domain.CodeMissingFields, Hint: "user or phone is required"}
	}
	return nil
}

// Response is the routing result returned to the caller. When the caller
// required in-zone confirmation and the origin tested outside the polygon,
// only Affected and Reason are set.
type Response struct {
	Affected   bool            `json:"affected"`
	Reason     string          `json:"reason,omitempty"`
	Shelter    *domain.Shelter `json:"shelter,omitempty"`
	DistanceKm float64         `json:"distance_km,omitempty"`
	ETAMin     *int            `json:"eta_min"`
	Steps      []string        `json:"steps,omitempty"`
	Advice     string          `json:"advice,omitempty"`
	SMS        string          `json:"sms,omitempty"`
	SMSError   *string         `json:"sms_error"`
}

// Engine composes containment testing, shelter selection, route resolution,
// caching, and notification into one synchronous unit of work per request.
// It holds no mutable state; concurrency safety is delegated to the storage
// collaborator's per-item atomicity.
type Engine struct {
	alerts     domain.AlertStore
	shelters   domain.ShelterStore
	residents  domain.ResidentStore
	cache      *Cache
	resolver   *Resolver
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewEngine wires the routing engine from its collaborators.
func NewEngine(
	alerts domain.AlertStore,
	shelters domain.ShelterStore,
	residents domain.ResidentStore,
	cache *Cache,
	resolver *Resolver,
	dispatcher *Dispatcher,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Engine {
	return &Engine{
		alerts:     alerts,
		shelters:   shelters,
		residents:  residents,
		cache:      cache,
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// Route executes the request through the state sequence
// ResolveOrigin → LoadAlert → PolygonCheck → RouteLookupOrCompute → Notify.
// A non-nil RequestError short-circuits the remainder.
func (e *Engine) Route(ctx context.Context, req Request) (*Response, *domain.RequestError) {
	start := time.Now()
	resp, reqErr := e.route(ctx, req)

	outcome := "ok"
	switch {
	case reqErr != nil:
		outcome = outcomeLabel(reqErr.Code)
	case !resp.Affected && resp.Reason != "":
		outcome = "not_affected"
	}
	e.metrics.RoutingRequests.WithLabelValues(outcome).Inc()
	e.metrics.RoutingDuration.Observe(time.Since(start).Seconds())
	return resp, reqErr
}

func (e *Engine) route(ctx context.Context, req Request) (*Response, *domain.RequestError) {
	if reqErr := req.Validate(); reqErr != nil {
		return nil, reqErr
	}

	origin, lang, reqErr := e.resolveOrigin(ctx, req)
	if reqErr != nil {
		return nil, reqErr
	}

	alert, ring, reqErr := e.loadAlert(ctx, req.AlertID)
	if reqErr != nil {
		return nil, reqErr
	}

	inside := domain.PointInPolygon(origin, ring)
	if req.RequireInside && !inside {
		return &Response{Affected: false, Reason: "USER_OUTSIDE_POLYGON"}, nil
	}

	shelter, route, reqErr := e.lookupOrCompute(ctx, alert.ID, origin, ring, lang)
	if reqErr != nil {
		return nil, reqErr
	}

	advice := Advice(lang)
	message := BuildMessage(shelter.Name, route.DistanceKm, route.Steps, advice)

	var smsErr *string
	if failure := e.dispatcher.Dispatch(ctx, req.Phone, message); failure != "" {
		smsErr = &failure
	}

	return &Response{
		Affected:   inside,
		Shelter:    &shelter,
		DistanceKm: route.DistanceKm,
		ETAMin:     route.ETAMin,
		Steps:      route.Steps,
		Advice:     advice,
		SMS:        message,
		SMSError:   smsErr,
	}, nil
}

// resolveOrigin returns the request's origin point and effective language,
// looking the resident up by phone when no raw coordinates were supplied.
func (e *Engine) resolveOrigin(ctx context.Context, req Request) (domain.Point, string, *domain.RequestError) {
	lang := req.Lang
	if req.User != nil {
		if lang == "" {
			lang = "en"
		}
		return *req.User, lang, nil
	}

	resident, err := e.residents.GetResident(ctx, req.Phone)
	if err != nil {
		return domain.Point{}, "", &domain.RequestError{Code: domain.CodeInternal, Hint: "resident lookup failed"}
	}
	if resident == nil || resident.Lat == nil || resident.Lng == nil {
		return domain.Point{}, "", &domain.RequestError{Code: domain.CodeOriginNotFound, Hint: "no resident with a stored location for that phone"}
	}
	if lang == "" {
		lang = resident.Lang
	}
	if lang == "" {
		lang = "en"
	}
	return domain.Point{Lat: *resident.Lat, Lng: *resident.Lng}, lang, nil
}

// loadAlert fetches the alert and parses its hazard ring. Inactive and
// missing alerts are indistinguishable to the caller. A stored alert whose
// polygon fails to parse is unusable for routing and reported the same way.
func (e *Engine) loadAlert(ctx context.Context, alertID string) (*domain.Alert, []domain.Point, *domain.RequestError) {
	alert, err := e.alerts.GetAlert(ctx, alertID)
	if err != nil {
		return nil, nil, &domain.RequestError{Code: domain.CodeInternal, Hint: "alert lookup failed"}
	}
	if alert == nil || alert.Status != domain.AlertStatusActive {
		return nil, nil, &domain.RequestError{Code: domain.CodeAlertNotFound, Hint: "no active alert with that id"}
	}

	ring, err := domain.ParsePolygon(alert.Polygon)
	if err != nil {
		e.logger.Error("alert has unusable polygon", "alert_id", alertID, "error", err)
		return nil, nil, &domain.RequestError{Code: domain.CodeAlertNotFound, Hint: "alert polygon is unusable"}
	}
	return alert, ring, nil
}

// lookupOrCompute reuses a cached route when one exists for the alert,
// otherwise runs selection and resolution. Either way a user-specific record
// is written, best-effort.
func (e *Engine) lookupOrCompute(ctx context.Context, alertID string, origin domain.Point, ring []domain.Point, lang string) (domain.Shelter, domain.Route, *domain.RequestError) {
	if cached := e.cache.Lookup(ctx, alertID, origin); cached != nil {
		shelter := domain.Shelter{
			ID:   cached.ShelterID,
			Name: cached.ShelterName,
			Lat:  cached.DestLat,
			Lng:  cached.DestLng,
		}
		route := domain.Route{
			Steps:      cached.Steps,
			DistanceKm: cached.DistanceKm,
			ETAMin:     cached.ETAMin,
		}
		e.cache.RecordUserRoute(ctx, alertID, origin, shelter, route)
		return shelter, route, nil
	}

	shelters, err := e.shelters.ListShelters(ctx)
	if err != nil {
		return domain.Shelter{}, domain.Route{}, &domain.RequestError{Code: domain.CodeInternal, Hint: "shelter catalog scan failed"}
	}

	best, err := domain.NearestSafeShelter(origin, ring, shelters)
	if err != nil {
		if errors.Is(err, domain.ErrNoSafeShelter) {
			return domain.Shelter{}, domain.Route{}, &domain.RequestError{Code: domain.CodeNoSafeShelters, Hint: "every shelter is inside the hazard zone"}
		}
		return domain.Shelter{}, domain.Route{}, &domain.RequestError{Code: domain.CodeInternal, Hint: "shelter selection failed"}
	}

	route := e.resolver.Resolve(ctx, origin, best, lang)
	e.cache.RecordUserRoute(ctx, alertID, origin, best.Shelter, route)
	return best.Shelter, route, nil
}

func outcomeLabel(code domain.Code) string {
	switch code {
	case domain.CodeBadRequest:
		return "bad_request"
	case domain.CodeMissingFields:
		return "missing_fields"
	case domain.CodeOriginNotFound:
		return "origin_not_found"
	case domain.CodeAlertNotFound:
		return "alert_not_found"
	case domain.CodeNoSafeShelters:
		return "no_safe_shelters"
	default:
		return "internal"
	}
}
