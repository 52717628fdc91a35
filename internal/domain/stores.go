package domain

import "context"

// AlertStore reads and writes alerts. Reads return (nil, nil) when no alert
// matches. Writes happen only in the ingestion loop; the routing engine
// treats the store as read-only.
type AlertStore interface {
	GetAlert(ctx context.Context, id string) (*Alert, error)
	ListAlerts(ctx context.Context) ([]Alert, error)
	PutAlert(ctx context.Context, alert Alert) error
}

// ShelterStore is a full-scan read of the shelter catalog.
type ShelterStore interface {
	ListShelters(ctx context.Context) ([]Shelter, error)
}

// ResidentStore looks up a resident by phone. Returns (nil, nil) when no
// resident matches.
type ResidentStore interface {
	GetResident(ctx context.Context, phone string) (*Resident, error)
}

// RouteStore persists resolved routes. Each put is an independent create;
// records are never updated, so per-item atomicity of the backing store is
// the only concurrency guarantee route persistence needs.
type RouteStore interface {
	ListRoutesByAlert(ctx context.Context, alertID string) ([]RouteRecord, error)
	PutRoute(ctx context.Context, record RouteRecord) error
}
