package cluster

import (
	"fmt"
	"math/rand"

	"web/spidermap/geo"
	"web/spidermap/provider"
)

// LayerSummary aggregates cluster statistics for a viewport query.
type LayerSummary struct {
	TotalMarkers    int                `json:"totalMarkers"`
	NumClusters     int                `json:"numClusters"`
	NumSinglePoints int                `json:"numSinglePoints"`
	LargestCluster  int                `json:"largestCluster"`
	Categories      map[string]float64 `json:"categories,omitempty"`
}

// CalculateSummary rolls up cluster/single counts and the category
// distribution across all member markers.
func CalculateSummary(clusters []*Cluster) LayerSummary {
	summary := LayerSummary{}
	categoryCounts := make(map[string]int)
	categorized := 0

	for _, c := range clusters {
		if c.Count() > 1 {
			summary.NumClusters++
		} else {
			summary.NumSinglePoints++
		}
		if c.Count() > summary.LargestCluster {
			summary.LargestCluster = c.Count()
		}
		summary.TotalMarkers += c.Count()

		for _, m := range c.Members {
			meta := m.Metadata()
			if cat, ok := meta.Metadata["category"].(string); ok {
				categoryCounts[cat]++
				categorized++
			}
		}
	}

	if categorized > 0 {
		summary.Categories = make(map[string]float64, len(categoryCounts))
		for cat, count := range categoryCounts {
			summary.Categories[cat] = float64(count) / float64(categorized) * 100
		}
	}

	return summary
}

// GenerateTestMarkers creates n markers with random positions inside bounds,
// for load testing and the generate command.
func GenerateTestMarkers(binding provider.Binding, n int, bounds geo.Bounds, seed int64) []provider.Marker {
	r := rand.New(rand.NewSource(seed))
	categories := []string{"A", "B", "C"}

	markers := make([]provider.Marker, n)
	for i := 0; i < n; i++ {
		pos := geo.LatLng{
			Lat: bounds.MinLat + r.Float64()*(bounds.MaxLat-bounds.MinLat),
			Lng: bounds.MinLng + r.Float64()*(bounds.MaxLng-bounds.MinLng),
		}
		markers[i] = binding.CreateMarker(provider.MarkerMetadata{
			Position: &pos,
			Title:    fmt.Sprintf("marker-%d", i+1),
			Visible:  true,
			Metadata: map[string]interface{}{
				"category": categories[r.Intn(len(categories))],
				"value":    r.Float64() * 100,
			},
		})
	}

	return markers
}
