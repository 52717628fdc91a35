package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance between two points in
// kilometres using the haversine formula.
func DistanceKm(a, b Point) float64 {
	dlat := radians(b.Lat - a.Lat)
	dlng := radians(b.Lng - a.Lng)
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// BearingDeg returns the initial compass bearing from a toward b in degrees,
// normalized to [0, 360).
func BearingDeg(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dlng := radians(b.Lng - a.Lng)

	x := math.Sin(dlng) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlng)
	return math.Mod(degrees(math.Atan2(x, y))+360.0, 360.0)
}

// cardinals has a trailing "N" so bearings in [337.5, 360) index past NW.
var cardinals = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW", "N"}

// Cardinal maps a bearing to one of eight compass labels using 45°-wide
// sectors centered on each label.
func Cardinal(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return cardinals[int((deg+22.5)/45)]
}

// PointInPolygon reports whether pt lies inside the closed ring using an
// even-odd ray cast. The small epsilon keeps horizontal edges (y1 == y2)
// from dividing by zero without changing the crossing parity.
func PointInPolygon(pt Point, ring []Point) bool {
	x, y := pt.Lng, pt.Lat
	inside := false
	for i := 0; i < len(ring)-1; i++ {
		x1, y1 := ring[i].Lng, ring[i].Lat
		x2, y2 := ring[i+1].Lng, ring[i+1].Lat
		if (y1 > y) != (y2 > y) && x < (x2-x1)*(y-y1)/(y2-y1+1e-12)+x1 {
			inside = !inside
		}
	}
	return inside
}

// ParsePolygon decodes a GeoJSON-style Polygon string into its exterior ring.
// The ring must be closed and contain at least four vertices.
func ParsePolygon(s string) ([]Point, error) {
	var gj struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal([]byte(s), &gj); err != nil {
		return nil, fmt.Errorf("parse polygon: %w", err)
	}
	if len(gj.Coordinates) == 0 {
		return nil, fmt.Errorf("parse polygon: no rings")
	}

	raw := gj.Coordinates[0]
	if len(raw) < 4 {
		return nil, fmt.Errorf("parse polygon: exterior ring has %d vertices, need at least 4", len(raw))
	}

	ring := make([]Point, len(raw))
	for i, c := range raw {
		if len(c) < 2 {
			return nil, fmt.Errorf("parse polygon: vertex %d has %d coordinates", i, len(c))
		}
		ring[i] = Point{Lat: c[1], Lng: c[0]}
	}

	if ring[0] != ring[len(ring)-1] {
		return nil, fmt.Errorf("parse polygon: exterior ring is not closed")
	}
	return ring, nil
}

// Centroid returns the vertex average of a closed ring, skipping the
// duplicated closing vertex. Good enough as a reference-route origin for the
// small polygons alerts carry; not an area-weighted centroid.
func Centroid(ring []Point) Point {
	n := len(ring) - 1
	if n <= 0 {
		return Point{}
	}
	var lat, lng float64
	for _, p := range ring[:n] {
		lat += p.Lat
		lng += p.Lng
	}
	return Point{Lat: lat / float64(n), Lng: lng / float64(n)}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
