package spider

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"web/spidermap/geo"
)

// expandAnim tweens spider markers from the cluster anchor out to their
// computed placements. One shared progress tween drives every leg so the
// expansion stays synchronized.
type expandAnim struct {
	anchor   geo.LatLng
	spiders  []*SpiderMarker
	progress *gween.Tween
}

func newExpandAnim(anchor geo.LatLng, spiders []*SpiderMarker, duration float64) *expandAnim {
	return &expandAnim{
		anchor:   anchor,
		spiders:  spiders,
		progress: gween.New(0, 1, float32(duration), ease.OutQuad),
	}
}

// advance moves the animation forward by dt seconds and returns true once
// the expansion reached its final placements.
func (a *expandAnim) advance(dt float64) bool {
	p, done := a.progress.Update(float32(dt))
	t := float64(p)

	for _, sm := range a.spiders {
		pos := geo.LatLng{
			Lat: a.anchor.Lat + (sm.Target.Lat-a.anchor.Lat)*t,
			Lng: a.anchor.Lng + (sm.Target.Lng-a.anchor.Lng)*t,
		}
		if done {
			pos = sm.Target
		}
		sm.Marker.SetPosition(pos)
		sm.Stick.SetEndpoints(a.anchor, pos)
	}

	return done
}
