package domain

import (
	"context"
	"time"
)

// AlertStatusActive is the only status the routing engine will serve routes
// for. Other statuses (resolved, expired, false_positive) are terminal and
// owned by the upstream ingestion process.
const AlertStatusActive = "active"

// Point is a WGS-84 latitude/longitude coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Alert is a declared hazard zone. Written once by the ingestion loop on
// behalf of the upstream producer; the routing engine only reads it.
type Alert struct {
	ID                 string    `gorm:"column:alert_id;primaryKey" json:"alert_id"`
	Status             string    `gorm:"column:status" json:"status"`
	Polygon            string    `gorm:"column:polygon" json:"polygon"` // GeoJSON Polygon string, exterior ring only
	Timestamp          time.Time `gorm:"column:timestamp" json:"timestamp"`
	EventType          string    `gorm:"column:event_type" json:"event_type"`
	Description        string    `gorm:"column:description" json:"description"`
	Location           string    `gorm:"column:location" json:"location"`
	Priority           string    `gorm:"column:priority" json:"priority"`
	PopulationEstimate int       `gorm:"column:population_estimate" json:"population_estimate"`
}

func (Alert) TableName() string { return "alerts" }

// Shelter is one entry in the read-only shelter catalog.
type Shelter struct {
	ID   string  `gorm:"column:shelter_id;primaryKey" json:"id"`
	Name string  `gorm:"column:name" json:"name"`
	Lat  float64 `gorm:"column:lat" json:"lat"`
	Lng  float64 `gorm:"column:lng" json:"lng"`
}

func (Shelter) TableName() string { return "shelters" }

// Resident holds a registered resident's last known location and language,
// keyed by phone number. Coordinates are pointers because registration does
// not require a location.
type Resident struct {
	Phone string   `gorm:"column:phone;primaryKey" json:"phone"`
	Lat   *float64 `gorm:"column:lat" json:"lat,omitempty"`
	Lng   *float64 `gorm:"column:lng" json:"lng,omitempty"`
	Lang  string   `gorm:"column:lang" json:"lang,omitempty"`
}

func (Resident) TableName() string { return "residents" }

// Route is a resolved set of evacuation instructions. ETAMin is nil when the
// route came from the bearing fallback: crow-flight distance does not reflect
// road travel time, so no number is fabricated.
type Route struct {
	Steps      []string
	DistanceKm float64
	ETAMin     *int
}

// RouteRecord is the persisted form of a resolved route. Write-once.
type RouteRecord struct {
	RouteID      string    `gorm:"column:route_id;primaryKey" json:"route_id"`
	AlertID      string    `gorm:"column:alert_id;index" json:"alert_id"`
	UserLat      float64   `gorm:"column:user_lat" json:"user_lat"`
	UserLng      float64   `gorm:"column:user_lng" json:"user_lng"`
	ShelterID    string    `gorm:"column:shelter_id" json:"shelter_id"`
	ShelterName  string    `gorm:"column:shelter_name" json:"shelter_name"`
	DestLat      float64   `gorm:"column:dest_lat" json:"dest_lat"`
	DestLng      float64   `gorm:"column:dest_lng" json:"dest_lng"`
	DistanceKm   float64   `gorm:"column:distance_km" json:"distance_km"`
	ETAMin       *int      `gorm:"column:eta_min" json:"eta_min"`
	Steps        []string  `gorm:"column:steps;serializer:json" json:"steps"`
	CalculatedAt time.Time `gorm:"column:calculated_at" json:"calculated_at"`
	UserSpecific bool      `gorm:"column:user_specific" json:"user_specific"`
}

func (RouteRecord) TableName() string { return "evacuation_routes" }

// Destination returns the record's shelter coordinates.
func (r RouteRecord) Destination() Point {
	return Point{Lat: r.DestLat, Lng: r.DestLng}
}

// RawEvent is an unprocessed message from the alert source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
