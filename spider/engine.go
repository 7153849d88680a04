package spider

import (
	"fmt"
	"math"

	"web/spidermap/cluster"
	"web/spidermap/geo"
	"web/spidermap/provider"
)

// SpiderMarker represents one member of an exploded cluster. It owns its
// visual marker and stick; Parent is a non-owning back-reference used only
// for event bridging.
type SpiderMarker struct {
	Marker provider.Marker
	Stick  provider.Stick
	Parent provider.Marker
	Target geo.LatLng
}

// Engine is the spider expansion state machine for one cluster layer. It is
// either collapsed (no active cluster, no spider markers) or expanded
// (exactly one spider marker per member of the active cluster).
//
// The engine is single-owner: all handlers run synchronously on the host
// event loop, and the click counter and last-zoom record are mutated only
// from those handlers.
type Engine struct {
	binding provider.Binding
	layer   *cluster.Layer
	opts    Options

	current    *cluster.Cluster
	spiders    []*SpiderMarker
	clickCount int // -1 disables outside-click counting until the next expansion
	lastZoom   int

	anim *expandAnim
}

// EnableSpiderSupport attaches a spider expansion engine to the layer and
// wires it to the layer's cluster clicks and the binding's map events.
// Calling it again on the same layer is a no-op that returns the existing
// engine.
func EnableSpiderSupport(layer *cluster.Layer, opts Options) (*Engine, error) {
	merged, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	binding := layer.Binding()
	e := &Engine{
		binding:    binding,
		layer:      layer,
		opts:       merged,
		clickCount: -1,
		lastZoom:   binding.Zoom(),
	}

	if !layer.AttachSpider(e) {
		existing, _ := layer.Spider().(*Engine)
		return existing, nil
	}

	layer.OnClusterClick(e.onClusterClick)
	binding.OnMapClick(e.onMapClick)
	binding.OnViewChangeStart(e.onViewChangeStart)
	binding.OnViewChangeEnd(e.onViewChangeEnd)

	return e, nil
}

// Expanded reports whether a cluster is currently exploded.
func (e *Engine) Expanded() bool { return e.current != nil }

// Current returns the active cluster, or nil when collapsed.
func (e *Engine) Current() *cluster.Cluster { return e.current }

// ActiveSpiders returns the spider markers of the current expansion.
func (e *Engine) ActiveSpiders() []*SpiderMarker { return e.spiders }

// Options returns the engine's effective options.
func (e *Engine) Options() Options { return e.opts }

// UpdateOptions replaces the engine's options. Options are fixed while a
// cluster is expanded; changing them mid-expansion is a loud error rather
// than a silently inconsistent layout.
func (e *Engine) UpdateOptions(opts Options) error {
	if e.current != nil {
		return fmt.Errorf("cannot change spider options while a cluster is expanded")
	}
	merged, err := opts.withDefaults()
	if err != nil {
		return err
	}
	e.opts = merged
	return nil
}

// ShowSpiderCluster explodes the given cluster. An already-expanded
// different cluster is collapsed first. Expanding the currently active
// cluster again is a no-op.
func (e *Engine) ShowSpiderCluster(c *cluster.Cluster) error {
	if c == nil || len(c.Members) == 0 {
		return nil
	}
	if e.current != nil {
		if e.current.ID == c.ID {
			return nil
		}
		e.HideSpiderCluster()
	}

	anchorPx, ok := e.binding.ProjectToPixel(c.Anchor)
	if !ok {
		return fmt.Errorf("cluster anchor (%f,%f) is outside the projectable viewport",
			c.Anchor.Lat, c.Anchor.Lng)
	}

	placements := computePlacements(len(c.Members), e.opts)

	var created []*SpiderMarker
	for i, member := range c.Members {
		p := placements[i]
		px := geo.Point{
			X: anchorPx.X + p.Leg*math.Cos(p.Angle),
			Y: anchorPx.Y + p.Leg*math.Sin(p.Angle),
		}
		target := e.binding.ProjectToGeo(px)

		// Stick and marker form one pair; if the marker cannot be created
		// the stick is deleted immediately so no orphan survives.
		stick := e.binding.CreateStick(c.Anchor, target, e.opts.StickStyle)

		meta := member.Metadata()
		start := target
		if e.opts.ExpandDuration > 0 {
			start = c.Anchor
		}
		meta.Position = &start
		meta.Visible = true
		marker := e.binding.CreateMarker(meta)
		if marker == nil {
			stick.Delete()
			for _, sm := range created {
				sm.Stick.Delete()
				sm.Marker.Delete()
			}
			return fmt.Errorf("failed to create spider marker for member %d", i)
		}

		sm := &SpiderMarker{
			Marker: marker,
			Stick:  stick,
			Parent: member,
			Target: target,
		}
		marker.AddListener(provider.EventMouseOver, func(provider.Event) { e.onSpiderHover(sm) })
		marker.AddListener(provider.EventMouseOut, func(provider.Event) { sm.Stick.SetStyle(e.opts.StickStyle) })
		marker.AddListener(provider.EventClick, func(provider.Event) { e.onSpiderClick(sm) })

		created = append(created, sm)
	}

	e.current = c
	e.spiders = created
	e.clickCount = 0
	e.lastZoom = e.binding.Zoom()

	if e.opts.ExpandDuration > 0 {
		e.anim = newExpandAnim(c.Anchor, created, e.opts.ExpandDuration)
	}

	if e.layer.Options().Log {
		fmt.Printf("Expanded cluster %s into %d spider markers\n", c.ID, len(created))
	}
	return nil
}

// HideSpiderCluster collapses the current expansion, deleting every
// stick+marker pair. Collapsing while collapsed is a no-op.
func (e *Engine) HideSpiderCluster() {
	if e.current == nil {
		return
	}

	for _, sm := range e.spiders {
		sm.Stick.Delete()
		sm.Marker.Delete()
	}
	e.spiders = nil
	e.current = nil
	e.clickCount = -1
	e.lastZoom = e.binding.Zoom()
	e.anim = nil

	if e.opts.MarkerUnSelected != nil {
		e.opts.MarkerUnSelected()
	}
}

// Tick advances the expansion animation by dt seconds. It is a no-op when
// no animation is active.
func (e *Engine) Tick(dt float64) {
	if e.anim == nil {
		return
	}
	if e.anim.advance(dt) {
		e.anim = nil
	}
}

func (e *Engine) onClusterClick(c *cluster.Cluster) {
	if e.current != nil && e.current.ID == c.ID {
		return
	}
	if err := e.ShowSpiderCluster(c); err != nil && e.layer.Options().Log {
		fmt.Printf("Spider expansion failed: %v\n", err)
	}
}

func (e *Engine) onMapClick(provider.MapEvent) {
	if e.current == nil || e.clickCount < 0 {
		return
	}
	e.clickCount++
	if e.clickCount >= e.opts.CollapseClusterOnNthClick {
		e.HideSpiderCluster()
	}
}

func (e *Engine) onViewChangeStart(provider.ViewEvent) {
	if e.opts.CollapseClusterOnMapChange {
		e.HideSpiderCluster()
	}
}

func (e *Engine) onViewChangeEnd(ev provider.ViewEvent) {
	if e.current != nil && ev.Zoom != e.lastZoom {
		e.HideSpiderCluster()
	}
	e.lastZoom = ev.Zoom
}

func (e *Engine) onSpiderHover(sm *SpiderMarker) {
	sm.Stick.SetStyle(e.opts.StickHoverStyle)
	if *e.opts.InvokeClickOnHover {
		e.binding.RedispatchClick(sm.Parent)
	}
}

func (e *Engine) onSpiderClick(sm *SpiderMarker) {
	if e.opts.MarkerSelected != nil {
		e.opts.MarkerSelected(sm.Parent, e.current)
	}
	e.binding.RedispatchClick(sm.Parent)
	// The click landed inside the expansion; it must not count toward the
	// outside-click collapse threshold.
	e.clickCount = 0
}
