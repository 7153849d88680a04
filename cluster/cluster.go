package cluster

import (
	"math"

	"github.com/google/uuid"

	"web/spidermap/geo"
	"web/spidermap/provider"
)

// Cluster is a spatial aggregation of markers that are close together at a
// given zoom level. Clusters are rebuilt continuously as the viewport
// changes; consumers must not hold them across view changes.
type Cluster struct {
	ID      string
	Anchor  geo.LatLng
	Members []provider.Marker
}

// Count returns the number of member markers.
func (c *Cluster) Count() int { return len(c.Members) }

// projectTile converts lng/lat to tile pixel coordinates at the given zoom.
func projectTile(pos geo.LatLng, zoom, extent int) geo.Point {
	sin := math.Sin(pos.Lat * math.Pi / 180)
	x := (pos.Lng + 180) / 360
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi

	scale := math.Pow(2, float64(zoom)) * float64(extent)
	return geo.Point{X: x * scale, Y: y * scale}
}

// clusterMarkers groups projected markers by radius. Markers with at least
// minPoints-1 neighbors inside the radius form a cluster; the rest come back
// as single-member clusters.
func clusterMarkers(markers []provider.Marker, projected []geo.Point, radius float64, minPoints int) []*Cluster {
	var clusters []*Cluster
	processed := make([]bool, len(markers))

	for i := range markers {
		if processed[i] {
			continue
		}

		var nearby []int
		for j := range markers {
			if j == i || processed[j] {
				continue
			}
			dx := projected[j].X - projected[i].X
			dy := projected[j].Y - projected[i].Y
			if dx*dx+dy*dy <= radius*radius {
				nearby = append(nearby, j)
			}
		}

		if len(nearby)+1 >= minPoints {
			members := make([]provider.Marker, 0, len(nearby)+1)
			members = append(members, markers[i])
			processed[i] = true
			for _, j := range nearby {
				members = append(members, markers[j])
				processed[j] = true
			}
			clusters = append(clusters, newCluster(members))
		} else {
			processed[i] = true
			clusters = append(clusters, newCluster(markers[i:i+1]))
		}
	}

	return clusters
}

// newCluster builds a cluster anchored at the mean member position.
func newCluster(members []provider.Marker) *Cluster {
	var sumLat, sumLng float64
	count := 0
	for _, m := range members {
		pos, ok := m.Position()
		if !ok {
			continue
		}
		sumLat += pos.Lat
		sumLng += pos.Lng
		count++
	}

	anchor := geo.LatLng{}
	if count > 0 {
		anchor = geo.LatLng{Lat: sumLat / float64(count), Lng: sumLng / float64(count)}
	}

	out := make([]provider.Marker, len(members))
	copy(out, members)

	return &Cluster{
		ID:      uuid.New().String(),
		Anchor:  anchor,
		Members: out,
	}
}

// GeoJSON types
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ToGeoJSON converts clusters to a GeoJSON FeatureCollection.
func ToGeoJSON(clusters []*Cluster) *FeatureCollection {
	features := make([]Feature, len(clusters))
	for i, c := range clusters {
		properties := map[string]interface{}{
			"cluster":     c.Count() > 1,
			"cluster_id":  c.ID,
			"point_count": c.Count(),
		}

		if c.Count() == 1 {
			meta := c.Members[0].Metadata()
			properties["marker"] = c.Members[0].Handle()
			if meta.Title != "" {
				properties["title"] = meta.Title
			}
		}

		features[i] = Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{c.Anchor.Lng, c.Anchor.Lat},
			},
			Properties: properties,
		}
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
