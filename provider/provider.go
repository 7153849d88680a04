package provider

import "web/spidermap/geo"

// Kind tags the closed set of supported map providers.
type Kind int

const (
	KindVirtualEarth Kind = iota
	KindStreetMap
)

func (k Kind) String() string {
	switch k {
	case KindVirtualEarth:
		return "virtualearth"
	case KindStreetMap:
		return "streetmap"
	default:
		return "unknown"
	}
}

// Event names delivered to marker listeners.
const (
	EventClick    = "click"
	EventMouseOver = "mouseover"
	EventMouseOut  = "mouseout"
)

// Event is the payload delivered to marker listeners.
type Event struct {
	Type   string
	Target Marker
	Pixel  geo.Point
}

// MapEvent is a map-level pointer event.
type MapEvent struct {
	Pixel    geo.Point
	Position geo.LatLng
}

// ViewEvent describes a viewport change.
type ViewEvent struct {
	Center geo.LatLng
	Zoom   int
}

// StickStyle is the stroke style of a connector line.
type StickStyle struct {
	StrokeColor     string  `json:"strokeColor" yaml:"strokeColor"`
	StrokeThickness float64 `json:"strokeThickness" yaml:"strokeThickness"`
}

// MarkerMetadata carries the visual payload used to create a marker.
type MarkerMetadata struct {
	Position *geo.LatLng
	Icon     string
	Title    string
	Label    string
	Visible  bool
	Metadata map[string]interface{}
}

// Marker is the capability set the core needs from a provider marker.
type Marker interface {
	// Position returns the marker's geo position. ok is false for markers
	// that were created without coordinates.
	Position() (geo.LatLng, bool)
	SetPosition(pos geo.LatLng)
	SetIcon(source string)
	SetVisible(visible bool)
	AddListener(eventName string, handler func(Event))
	Delete()

	// Handle is the provider-native identifier, usable as an index key.
	Handle() string
	Metadata() MarkerMetadata
}

// Stick is a straight connector line between two geo points.
type Stick interface {
	SetEndpoints(a, b geo.LatLng)
	SetStyle(style StickStyle)
	Delete()
}

// Binding is the capability interface the core requires from a map provider
// SDK. Exactly two implementations exist: VirtualEarthBinding and
// StreetMapBinding. All call sites depend only on this interface.
type Binding interface {
	Kind() Kind

	// Viewport state.
	Zoom() int
	Center() geo.LatLng
	SetView(center geo.LatLng, zoom int)

	// Coordinate transforms. ProjectToPixel reports ok=false when the
	// position is outside the projectable viewport.
	ProjectToPixel(pos geo.LatLng) (geo.Point, bool)
	ProjectToGeo(px geo.Point) geo.LatLng

	// Primitive factories. Spider visuals live on a transient drawing
	// surface separate from the clustering layer.
	CreateMarker(meta MarkerMetadata) Marker
	CreateStick(a, b geo.LatLng, style StickStyle) Stick

	// RedispatchClick synthesizes a native click on the target marker so
	// application handlers attached to the original marker still fire.
	RedispatchClick(target Marker)

	// Host event subscriptions.
	OnMapClick(handler func(MapEvent))
	OnViewChangeStart(handler func(ViewEvent))
	OnViewChangeEnd(handler func(ViewEvent))

	// Host event injection. The embedding application (or a test) pumps
	// pointer and viewport events through these.
	DispatchMapClick(px geo.Point)
	DispatchViewChangeStart()
	DispatchViewChangeEnd()
}
