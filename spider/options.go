package spider

import (
	"fmt"

	"web/spidermap/cluster"
	"web/spidermap/provider"
)

// Options configures a spider expansion engine. All fields are optional and
// merged over defaults.
type Options struct {
	// CircleSpiralSwitchover is the member count above which the layout
	// switches from a circle to a spiral.
	CircleSpiralSwitchover int `yaml:"circleSpiralSwitchover"`
	// CollapseClusterOnMapChange collapses the expansion on any pan or zoom
	// start.
	CollapseClusterOnMapChange bool `yaml:"collapseClusterOnMapChange"`
	// CollapseClusterOnNthClick is the number of map clicks outside the
	// expansion required to collapse it.
	CollapseClusterOnNthClick int `yaml:"collapseClusterOnNthClick"`
	// InvokeClickOnHover re-dispatches a click to the parent marker when a
	// spider marker is hovered.
	InvokeClickOnHover *bool `yaml:"invokeClickOnHover"`
	// MinCircleLength is the minimum circumference, in pixels, of the
	// circular layout.
	MinCircleLength float64 `yaml:"minCircleLength"`
	// MinSpiralAngleSeperation is the minimum angular step between
	// consecutive spiral legs. The historical default of 25 is an opaque
	// radian-scale tuning constant; changing its interpretation changes the
	// observable layout.
	MinSpiralAngleSeperation float64 `yaml:"minSpiralAngleSeperation"`
	// SpiralDistanceFactor controls how quickly the spiral leg grows.
	SpiralDistanceFactor float64 `yaml:"spiralDistanceFactor"`

	StickStyle      provider.StickStyle `yaml:"stickStyle"`
	StickHoverStyle provider.StickStyle `yaml:"stickHoverStyle"`

	// ExpandDuration, when positive, animates markers from the anchor to
	// their placements over this many seconds. The host must drive
	// Engine.Tick for the animation to advance.
	ExpandDuration float64 `yaml:"expandDuration"`

	// MarkerSelected fires when a spider marker is activated.
	MarkerSelected func(parent provider.Marker, clusterMarker *cluster.Cluster) `yaml:"-"`
	// MarkerUnSelected fires when the expansion collapses.
	MarkerUnSelected func() `yaml:"-"`
}

// boolPtr is a convenience for setting InvokeClickOnHover explicitly.
func boolPtr(v bool) *bool { return &v }

// withDefaults merges o over the defaults and validates the result.
func (o Options) withDefaults() (Options, error) {
	if o.CircleSpiralSwitchover == 0 {
		o.CircleSpiralSwitchover = 9
	}
	if o.CollapseClusterOnNthClick == 0 {
		o.CollapseClusterOnNthClick = 1
	}
	if o.InvokeClickOnHover == nil {
		o.InvokeClickOnHover = boolPtr(true)
	}
	if o.MinCircleLength == 0 {
		o.MinCircleLength = 60
	}
	if o.MinSpiralAngleSeperation == 0 {
		o.MinSpiralAngleSeperation = 25
	}
	if o.SpiralDistanceFactor == 0 {
		o.SpiralDistanceFactor = 5
	}
	if o.StickStyle == (provider.StickStyle{}) {
		o.StickStyle = provider.StickStyle{StrokeColor: "#666666", StrokeThickness: 2}
	}
	if o.StickHoverStyle == (provider.StickStyle{}) {
		o.StickHoverStyle = provider.StickStyle{StrokeColor: "#FF0000", StrokeThickness: 3}
	}

	if o.CircleSpiralSwitchover < 0 {
		return o, fmt.Errorf("circleSpiralSwitchover must not be negative, got %d", o.CircleSpiralSwitchover)
	}
	if o.CollapseClusterOnNthClick < 0 {
		return o, fmt.Errorf("collapseClusterOnNthClick must not be negative, got %d", o.CollapseClusterOnNthClick)
	}
	if o.MinCircleLength < 0 || o.MinSpiralAngleSeperation < 0 || o.SpiralDistanceFactor < 0 {
		return o, fmt.Errorf("layout tuning constants must not be negative")
	}
	return o, nil
}
