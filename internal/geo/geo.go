package geo

import (
	"math"
	"strings"
)

const earthRadiusMeters = 6371000

// Equivalence radii for the place identity rules.
const (
	// CacheRadiusMeters is the strict radius used when deciding whether a
	// cached place can answer for a clicked point.
	CacheRadiusMeters = 1000
	// ListRadiusMeters is the radius at which two saved entries are the same
	// place regardless of their names.
	ListRadiusMeters = 1000
	// NameRadiusMeters is the widened radius at which two entries with the
	// same normalized name still count as the same place.
	NameRadiusMeters = 10000
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite numbers.
func (c Coordinate) Valid() bool {
	return isFinite(c.Lat) && isFinite(c.Lng)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// WithinBounds reports whether the coordinate is finite and inside the
// WGS84 envelope.
func (c Coordinate) WithinBounds() bool {
	return c.Valid() &&
		c.Lat >= -90 && c.Lat <= 90 &&
		c.Lng >= -180 && c.Lng <= 180
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the haversine distance between two coordinates in meters.
// Non-finite input yields +Inf so that every radius comparison downstream
// fails closed.
func Distance(a, b Coordinate) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}

	phi1 := degToRad(a.Lat)
	phi2 := degToRad(b.Lat)
	deltaPhi := degToRad(b.Lat - a.Lat)
	deltaLambda := degToRad(b.Lng - a.Lng)

	h := math.Pow(math.Sin(deltaPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*
		math.Pow(math.Sin(deltaLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// SameByRadius reports whether two coordinates are within radius meters of
// each other.
func SameByRadius(a, b Coordinate, radius float64) bool {
	return Distance(a, b) <= radius
}

// NormalizeName lowercases a place name, trims it, and collapses internal
// whitespace runs to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// SameByName reports whether two place names are equal after normalization.
// Two empty names never match.
func SameByName(a, b string) bool {
	na := NormalizeName(a)
	nb := NormalizeName(b)
	return na != "" && na == nb
}

// SameForLists is the equivalence used when deduplicating bookmark and
// history lists: close enough by coordinates alone, or same-named within a
// widened radius. The name clause exists so that the same landmark clicked
// from slightly different points collapses to one entry.
func SameForLists(a Coordinate, aName string, b Coordinate, bName string) bool {
	if SameByRadius(a, b, ListRadiusMeters) {
		return true
	}
	return SameByName(aName, bName) && SameByRadius(a, b, NameRadiusMeters)
}

// SameForCache is the equivalence used for cache lookups. It deliberately
// ignores names: a cached summary is only valid for points that are
// physically close to the one it was generated for.
func SameForCache(a, b Coordinate) bool {
	return SameByRadius(a, b, CacheRadiusMeters)
}
