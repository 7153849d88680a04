package geo

// Polygon is a multi-ring shape whose centroid is computed lazily and cached
// until the path is mutated.
type Polygon struct {
	rings    [][]LatLng
	centroid *LatLng
}

func NewPolygon(rings [][]LatLng) *Polygon {
	return &Polygon{rings: rings}
}

// Rings returns the shape's rings. Callers must not mutate the result;
// use SetRings so the cached centroid is invalidated.
func (p *Polygon) Rings() [][]LatLng {
	return p.rings
}

// SetRings replaces the shape's path and invalidates the cached centroid.
func (p *Polygon) SetRings(rings [][]LatLng) {
	p.rings = rings
	p.centroid = nil
}

// Centroid returns the cached centroid, computing it on first use.
func (p *Polygon) Centroid() *LatLng {
	if p.centroid == nil {
		p.centroid = PolygonCentroid(p.rings)
	}
	return p.centroid
}

// Polyline is an open path with the same lazy centroid caching as Polygon.
type Polyline struct {
	path     []LatLng
	centroid *LatLng
}

func NewPolyline(path []LatLng) *Polyline {
	return &Polyline{path: path}
}

func (p *Polyline) Path() []LatLng {
	return p.path
}

// SetPath replaces the path and invalidates the cached centroid.
func (p *Polyline) SetPath(path []LatLng) {
	p.path = path
	p.centroid = nil
}

// Centroid returns the cached centroid, computing it on first use.
func (p *Polyline) Centroid() *LatLng {
	if p.centroid == nil {
		p.centroid = PolylineCentroid(p.path)
	}
	return p.centroid
}
