package cluster

import (
	"fmt"

	"web/spidermap/geo"
	"web/spidermap/provider"
)

// Options configures a clustering layer.
type Options struct {
	// Radius is the clustering radius in tile pixels.
	Radius float64
	// Extent is the tile extent used when projecting for clustering.
	Extent int
	// MinPoints is the minimum number of markers that form a cluster.
	MinPoints int
	// NodeSize is the KD-tree leaf bucket size.
	NodeSize int
	// Log enables progress output.
	Log bool
}

// Layer owns a set of markers assigned to a clustering grid. Markers are
// held in an arena slice; the handle index is a secondary, non-owning lookup
// that is rebuilt alongside the arena.
type Layer struct {
	binding provider.Binding
	opts    Options

	markers []provider.Marker
	index   map[string]provider.Marker
	pending []provider.Marker
	visible bool
	tree    *kdTree

	clusterClick []func(*Cluster)

	// spider is an opaque slot for the expansion engine; it makes
	// spider-support initialization idempotent per layer.
	spider interface{}
}

// NewLayer creates a clustering layer with defaults back-filled.
func NewLayer(binding provider.Binding, opts Options) *Layer {
	if opts.Radius <= 0 {
		opts.Radius = 40
	}
	if opts.Extent <= 0 {
		opts.Extent = 512
	}
	if opts.MinPoints <= 0 {
		opts.MinPoints = 2
	}
	if opts.NodeSize <= 0 {
		opts.NodeSize = 64
	}

	return &Layer{
		binding: binding,
		opts:    opts,
		index:   make(map[string]provider.Marker),
		visible: true,
	}
}

// Binding returns the provider binding the layer was created against.
func (l *Layer) Binding() provider.Binding { return l.binding }

// Options returns the layer's effective options.
func (l *Layer) Options() Options { return l.opts }

// AddMarker adds a single marker to the layer. Markers without a resolvable
// position are silently skipped; they cannot participate in spatial
// clustering.
func (l *Layer) AddMarker(m provider.Marker) {
	if _, ok := m.Position(); !ok {
		return
	}
	if !l.visible {
		l.pending = append(l.pending, m)
		return
	}
	l.insert(m)
	l.tree = nil
}

// AddMarkers batches a bulk addition. The batch is queued and flushed in one
// pass so the spatial index is rebuilt once rather than per marker.
func (l *Layer) AddMarkers(ms []provider.Marker) {
	for _, m := range ms {
		if _, ok := m.Position(); !ok {
			continue
		}
		l.pending = append(l.pending, m)
	}
	if l.visible {
		l.flushPending()
	}
}

// RemoveMarker removes a marker from the layer. Unknown markers are ignored.
func (l *Layer) RemoveMarker(m provider.Marker) {
	for i, existing := range l.markers {
		if existing == m {
			l.markers = append(l.markers[:i], l.markers[i+1:]...)
			delete(l.index, m.Handle())
			l.tree = nil
			return
		}
	}
	for i, queued := range l.pending {
		if queued == m {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			return
		}
	}
}

// Clear drops every marker, queued or flushed, and invalidates the index
// and spatial tree. The spider slot is left attached.
func (l *Layer) Clear() {
	l.markers = nil
	l.pending = nil
	l.index = make(map[string]provider.Marker)
	l.tree = nil
}

// SetVisible toggles the layer. Transitioning to visible flushes any markers
// queued while the layer was hidden.
func (l *Layer) SetVisible(visible bool) {
	wasVisible := l.visible
	l.visible = visible
	for _, m := range l.markers {
		m.SetVisible(visible)
	}
	if visible && !wasVisible {
		l.flushPending()
	}
}

// Visible reports whether the layer is currently shown.
func (l *Layer) Visible() bool { return l.visible }

// Markers returns the layer's flushed markers.
func (l *Layer) Markers() []provider.Marker { return l.markers }

// PendingCount returns the number of markers queued for the next flush.
func (l *Layer) PendingCount() int { return len(l.pending) }

// FindByHandle resolves a provider-native handle back to its wrapping
// marker. Returns nil when the handle is unknown, which happens during
// normal event races (a marker removed between cluster formation and click
// dispatch).
func (l *Layer) FindByHandle(handle string) provider.Marker {
	return l.index[handle]
}

func (l *Layer) insert(m provider.Marker) {
	l.markers = append(l.markers, m)
	l.index[m.Handle()] = m
}

func (l *Layer) flushPending() {
	if len(l.pending) == 0 {
		return
	}
	if l.opts.Log {
		fmt.Printf("Flushing %d pending markers into layer\n", len(l.pending))
	}
	for _, m := range l.pending {
		l.insert(m)
	}
	l.pending = l.pending[:0]
	l.tree = nil
}

// ensureTree rebuilds the KD-tree if the arena changed since the last build.
func (l *Layer) ensureTree() *kdTree {
	if l.tree != nil {
		return l.tree
	}
	points := make([]kdPoint, 0, len(l.markers))
	for i, m := range l.markers {
		pos, ok := m.Position()
		if !ok {
			continue
		}
		points = append(points, kdPoint{Lat: pos.Lat, Lng: pos.Lng, MarkerIdx: i})
	}
	l.tree = newKDTree(points, l.opts.NodeSize)
	return l.tree
}

// GetClusters computes clusters for the given bounds and zoom level.
func (l *Layer) GetClusters(bounds geo.Bounds, zoom int) []*Cluster {
	if !l.visible {
		return nil
	}

	tree := l.ensureTree()
	indices := tree.Range(bounds)
	if l.opts.Log {
		fmt.Printf("Clustering %d of %d markers at zoom %d\n", len(indices), len(l.markers), zoom)
	}
	if len(indices) == 0 {
		return nil
	}

	inView := make([]provider.Marker, 0, len(indices))
	projected := make([]geo.Point, 0, len(indices))
	for _, idx := range indices {
		m := l.markers[idx]
		pos, ok := m.Position()
		if !ok {
			continue
		}
		inView = append(inView, m)
		projected = append(projected, projectTile(pos, zoom, l.opts.Extent))
	}

	return clusterMarkers(inView, projected, l.opts.Radius, l.opts.MinPoints)
}

// OnClusterClick registers a handler for clicks on cluster icons.
func (l *Layer) OnClusterClick(handler func(*Cluster)) {
	l.clusterClick = append(l.clusterClick, handler)
}

// ClickCluster delivers a native cluster-icon click to subscribers. The host
// shell calls this when the user clicks a rendered cluster.
func (l *Layer) ClickCluster(c *Cluster) {
	for _, h := range l.clusterClick {
		h(c)
	}
}

// AttachSpider claims the layer's spider slot. It returns false if spider
// support was already initialized, making repeated initialization a no-op.
func (l *Layer) AttachSpider(engine interface{}) bool {
	if l.spider != nil {
		return false
	}
	l.spider = engine
	return true
}

// Spider returns whatever engine was attached, or nil.
func (l *Layer) Spider() interface{} { return l.spider }
