package domain

import "errors"

// ErrNoSafeShelter means every shelter in the catalog tested inside the
// hazard polygon. Callers surface this to the user; it is never silently
// replaced with a default.
var ErrNoSafeShelter = errors.New("no shelter outside the hazard polygon")

// Candidate is a shelter that survived the hazard filter, annotated with its
// crow-flight distance and bearing from the user's origin.
type Candidate struct {
	Shelter
	CrowKm  float64
	Bearing float64
}

// NearestSafeShelter discards every shelter inside the hazard ring and
// returns the closest survivor by great-circle distance. Ties keep the first
// occurrence in catalog order.
func NearestSafeShelter(origin Point, ring []Point, shelters []Shelter) (Candidate, error) {
	var best Candidate
	found := false
	for _, s := range shelters {
		if PointInPolygon(Point{Lat: s.Lat, Lng: s.Lng}, ring) {
			continue
		}
		d := DistanceKm(origin, Point{Lat: s.Lat, Lng: s.Lng})
		if !found || d < best.CrowKm {
			best = Candidate{
				Shelter: s,
				CrowKm:  d,
				Bearing: BearingDeg(origin, Point{Lat: s.Lat, Lng: s.Lng}),
			}
			found = true
		}
	}
	if !found {
		return Candidate{}, ErrNoSafeShelter
	}
	return best, nil
}
