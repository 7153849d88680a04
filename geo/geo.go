package geo

import "math"

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point is a pixel position on the map viewport.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is a lat/lng bounding box.
type Bounds struct {
	MinLat, MinLng, MaxLat, MaxLng float64
}

// Extend expands bounds to include another position.
func (b *Bounds) Extend(p LatLng) {
	b.MinLat = math.Min(b.MinLat, p.Lat)
	b.MinLng = math.Min(b.MinLng, p.Lng)
	b.MaxLat = math.Max(b.MaxLat, p.Lat)
	b.MaxLng = math.Max(b.MaxLng, p.Lng)
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// BoundingBoxCenter returns the midpoint of the path's lat/lng extrema.
// Returns nil for an empty path.
func BoundingBoxCenter(path []LatLng) *LatLng {
	if len(path) == 0 {
		return nil
	}

	bounds := Bounds{
		MinLat: math.Inf(1),
		MinLng: math.Inf(1),
		MaxLat: math.Inf(-1),
		MaxLng: math.Inf(-1),
	}
	for _, p := range path {
		bounds.Extend(p)
	}

	return &LatLng{
		Lat: (bounds.MinLat + bounds.MaxLat) / 2,
		Lng: (bounds.MinLng + bounds.MaxLng) / 2,
	}
}

// PolygonCentroid computes the centroid of the outer ring (the first ring)
// using the shoelace formula. Returns nil if there is no usable ring.
func PolygonCentroid(rings [][]LatLng) *LatLng {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return nil
	}
	return ringCentroid(rings[0])
}

// PolylineCentroid computes the centroid of an open path by treating it as a
// closed ring for area purposes. Returns nil for an empty path.
func PolylineCentroid(path []LatLng) *LatLng {
	if len(path) == 0 {
		return nil
	}
	return ringCentroid(path)
}

// ringCentroid runs the shoelace formula offset-relative to the ring's first
// point. Lat/lng deltas within one shape are tiny, so working in offsets
// keeps the accumulated products away from catastrophic cancellation.
func ringCentroid(ring []LatLng) *LatLng {
	origin := ring[0]

	var twiceArea, cx, cy float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		xi := ring[i].Lng - origin.Lng
		yi := ring[i].Lat - origin.Lat
		xj := ring[j].Lng - origin.Lng
		yj := ring[j].Lat - origin.Lat

		cross := xi*yj - xj*yi
		twiceArea += cross
		cx += (xi + xj) * cross
		cy += (yi + yj) * cross
	}

	if twiceArea == 0 {
		// Fully degenerate or collinear ring: fall back to the offset point.
		return &LatLng{Lat: origin.Lat, Lng: origin.Lng}
	}

	return &LatLng{
		Lat: origin.Lat + cy/(3*twiceArea),
		Lng: origin.Lng + cx/(3*twiceArea),
	}
}
