package provider

import (
	"math"
	"sync"

	"web/spidermap/geo"
)

// mercatorMaxLat is the latitude limit of the web-mercator projection.
const mercatorMaxLat = 85.05112878

// simMarker is the in-memory marker primitive shared by both bindings.
type simMarker struct {
	handle    string
	meta      MarkerMetadata
	listeners map[string][]func(Event)
	deleted   bool
}

func (m *simMarker) Position() (geo.LatLng, bool) {
	if m.meta.Position == nil {
		return geo.LatLng{}, false
	}
	return *m.meta.Position, true
}

func (m *simMarker) SetPosition(pos geo.LatLng) {
	if m.deleted {
		return
	}
	p := pos
	m.meta.Position = &p
}

// SetIcon tolerates late arrival: icon generation may complete after the
// marker was already torn down, in which case this is a no-op.
func (m *simMarker) SetIcon(source string) {
	if m.deleted {
		return
	}
	m.meta.Icon = source
}

func (m *simMarker) SetVisible(visible bool) {
	if m.deleted {
		return
	}
	m.meta.Visible = visible
}

func (m *simMarker) AddListener(eventName string, handler func(Event)) {
	if m.deleted {
		return
	}
	if m.listeners == nil {
		m.listeners = make(map[string][]func(Event))
	}
	m.listeners[eventName] = append(m.listeners[eventName], handler)
}

func (m *simMarker) Delete() {
	m.deleted = true
	m.listeners = nil
}

func (m *simMarker) Handle() string           { return m.handle }
func (m *simMarker) Metadata() MarkerMetadata { return m.meta }

// fire dispatches an event to the marker's listeners. Deleted markers drop
// events on the floor.
func (m *simMarker) fire(ev Event) {
	if m.deleted {
		return
	}
	ev.Target = m
	for _, h := range m.listeners[ev.Type] {
		h(ev)
	}
}

// Fire injects a native event into the marker, the way the vendor SDK would
// when the user interacts with the rendered primitive.
func (m *simMarker) Fire(eventName string, px geo.Point) {
	m.fire(Event{Type: eventName, Pixel: px})
}

// simStick is the in-memory connector line primitive.
type simStick struct {
	a, b    geo.LatLng
	style   StickStyle
	deleted bool
}

func (s *simStick) SetEndpoints(a, b geo.LatLng) {
	if s.deleted {
		return
	}
	s.a, s.b = a, b
}

func (s *simStick) SetStyle(style StickStyle) {
	if s.deleted {
		return
	}
	s.style = style
}

func (s *simStick) Delete() { s.deleted = true }

// Endpoints returns the stick's current endpoints.
func (s *simStick) Endpoints() (geo.LatLng, geo.LatLng) { return s.a, s.b }

// Style returns the stick's current stroke style.
func (s *simStick) Style() StickStyle { return s.style }

// Deleted reports whether the stick was torn down.
func (s *simStick) Deleted() bool { return s.deleted }

// simBinding implements Binding against an in-memory map model with a
// web-mercator viewport. Both provider variants embed it with their own
// tile extent and handle prefix.
type simBinding struct {
	kind   Kind
	extent int

	mu     sync.Mutex
	center geo.LatLng
	zoom   int
	width  float64
	height float64

	ids     *IDAllocator
	markers []*simMarker
	sticks  []*simStick

	mapClick        []func(MapEvent)
	viewChangeStart []func(ViewEvent)
	viewChangeEnd   []func(ViewEvent)
}

func newSimBinding(kind Kind, extent int, prefix string) *simBinding {
	return &simBinding{
		kind:   kind,
		extent: extent,
		zoom:   4,
		width:  1024,
		height: 768,
		ids:    NewIDAllocator(prefix),
	}
}

func (b *simBinding) Kind() Kind         { return b.kind }
func (b *simBinding) Zoom() int          { return b.zoom }
func (b *simBinding) Center() geo.LatLng { return b.center }

// SetViewportSize changes the pixel size of the simulated viewport.
func (b *simBinding) SetViewportSize(width, height float64) {
	b.width = width
	b.height = height
}

// SetView moves the viewport, firing view-change-start before the move and
// view-change-end after it, matching vendor SDK event ordering.
func (b *simBinding) SetView(center geo.LatLng, zoom int) {
	b.DispatchViewChangeStart()
	b.center = center
	b.zoom = zoom
	b.DispatchViewChangeEnd()
}

// project converts lng/lat to world pixel coordinates at the current zoom.
func (b *simBinding) project(pos geo.LatLng) geo.Point {
	sin := math.Sin(pos.Lat * math.Pi / 180)
	x := (pos.Lng + 180) / 360
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi

	scale := math.Pow(2, float64(b.zoom)) * float64(b.extent)
	return geo.Point{X: x * scale, Y: y * scale}
}

// unproject converts world pixel coordinates back to lng/lat.
func (b *simBinding) unproject(px geo.Point) geo.LatLng {
	scale := math.Pow(2, float64(b.zoom)) * float64(b.extent)
	x := px.X / scale
	y := px.Y / scale

	lng := x*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi
	return geo.LatLng{Lat: lat, Lng: lng}
}

func (b *simBinding) ProjectToPixel(pos geo.LatLng) (geo.Point, bool) {
	if math.Abs(pos.Lat) > mercatorMaxLat {
		return geo.Point{}, false
	}

	world := b.project(pos)
	origin := b.project(b.center)
	px := geo.Point{
		X: world.X - origin.X + b.width/2,
		Y: world.Y - origin.Y + b.height/2,
	}

	if px.X < 0 || px.X > b.width || px.Y < 0 || px.Y > b.height {
		return geo.Point{}, false
	}
	return px, true
}

func (b *simBinding) ProjectToGeo(px geo.Point) geo.LatLng {
	origin := b.project(b.center)
	return b.unproject(geo.Point{
		X: px.X + origin.X - b.width/2,
		Y: px.Y + origin.Y - b.height/2,
	})
}

func (b *simBinding) CreateMarker(meta MarkerMetadata) Marker {
	m := &simMarker{handle: b.ids.Next(), meta: meta}
	b.mu.Lock()
	b.markers = append(b.markers, m)
	b.mu.Unlock()
	return m
}

func (b *simBinding) CreateStick(a, bp geo.LatLng, style StickStyle) Stick {
	s := &simStick{a: a, b: bp, style: style}
	b.mu.Lock()
	b.sticks = append(b.sticks, s)
	b.mu.Unlock()
	return s
}

func (b *simBinding) RedispatchClick(target Marker) {
	if m, ok := target.(*simMarker); ok {
		m.fire(Event{Type: EventClick})
	}
}

func (b *simBinding) OnMapClick(handler func(MapEvent)) {
	b.mapClick = append(b.mapClick, handler)
}

func (b *simBinding) OnViewChangeStart(handler func(ViewEvent)) {
	b.viewChangeStart = append(b.viewChangeStart, handler)
}

func (b *simBinding) OnViewChangeEnd(handler func(ViewEvent)) {
	b.viewChangeEnd = append(b.viewChangeEnd, handler)
}

func (b *simBinding) DispatchMapClick(px geo.Point) {
	ev := MapEvent{Pixel: px, Position: b.ProjectToGeo(px)}
	for _, h := range b.mapClick {
		h(ev)
	}
}

func (b *simBinding) DispatchViewChangeStart() {
	ev := ViewEvent{Center: b.center, Zoom: b.zoom}
	for _, h := range b.viewChangeStart {
		h(ev)
	}
}

func (b *simBinding) DispatchViewChangeEnd() {
	ev := ViewEvent{Center: b.center, Zoom: b.zoom}
	for _, h := range b.viewChangeEnd {
		h(ev)
	}
}

// LiveSticks returns the sticks that have not been deleted yet. Used by the
// host shell to render the spider overlay.
func (b *simBinding) LiveSticks() []Stick {
	b.mu.Lock()
	defer b.mu.Unlock()

	var live []Stick
	for _, s := range b.sticks {
		if !s.deleted {
			live = append(live, s)
		}
	}
	return live
}
