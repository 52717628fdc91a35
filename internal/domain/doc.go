// Package domain models disaster alerts, shelters, and evacuation routes.
//
// # Hazard polygons
//
// Each alert carries its affected area as a GeoJSON-style Polygon encoded as
// a JSON string, exterior ring only: an ordered sequence of [lng, lat]
// vertices where the first and last vertex are equal (closed ring).
// Containment tests ([PointInPolygon]) assume the ring is closed and use an
// even-odd ray cast. Points exactly on a ring edge get a deterministic but
// otherwise unspecified classification; callers must not depend on boundary
// behavior.
//
// # Geometry conventions
//
// Distances are great-circle kilometres over a spherical Earth of radius
// 6371.0088 km (haversine). Bearings are initial compass bearings in degrees
// normalized to [0, 360). Compass labels use eight 45°-wide sectors centered
// on N, NE, E, SE, S, SW, W, NW, so sector boundaries fall at odd multiples
// of 22.5°.
//
// # Route records
//
// Every resolved route is persisted as a [RouteRecord]: write-once, never
// updated, superseded only by newer records. A record is either user-specific
// (origin is an individual resident's location) or a generic reference route
// precomputed per alert by the ingestion loop (origin is the hazard polygon
// centroid). Cache lookups treat both kinds identically and pick the stored
// route whose destination is closest to the requester. Matching is by
// proximity, not by exact key.
package domain
