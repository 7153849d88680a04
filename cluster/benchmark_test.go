package cluster

import (
	"fmt"
	"testing"

	"web/spidermap/geo"
	"web/spidermap/provider"
)

func BenchmarkGetClusters(b *testing.B) {
	bounds := geo.Bounds{MinLat: 25, MinLng: -125, MaxLat: 49, MaxLng: -67}

	for _, numMarkers := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("markers-%d", numMarkers), func(b *testing.B) {
			binding := provider.NewStreetMap()
			layer := NewLayer(binding, Options{Radius: 40, MinPoints: 2})
			layer.AddMarkers(GenerateTestMarkers(binding, numMarkers, bounds, 42))

			// Build the tree outside the timed loop.
			layer.GetClusters(bounds, 8)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				layer.GetClusters(bounds, 8)
			}
		})
	}
}

func BenchmarkKDTreeRange(b *testing.B) {
	binding := provider.NewStreetMap()
	bounds := geo.Bounds{MinLat: 25, MinLng: -125, MaxLat: 49, MaxLng: -67}
	markers := GenerateTestMarkers(binding, 50000, bounds, 42)

	points := make([]kdPoint, len(markers))
	for i, m := range markers {
		pos, _ := m.Position()
		points[i] = kdPoint{Lat: pos.Lat, Lng: pos.Lng, MarkerIdx: i}
	}
	tree := newKDTree(points, 64)

	query := geo.Bounds{MinLat: 35, MinLng: -100, MaxLat: 40, MaxLng: -90}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Range(query)
	}
}
