package cluster

import (
	"math"
	"sort"

	"web/spidermap/geo"
)

// kdPoint indexes one marker position in the layer's arena.
type kdPoint struct {
	Lat, Lng  float64
	MarkerIdx int
}

type kdNode struct {
	PointIdx int32 // median point for interior nodes, bucket start for leaves
	End      int32 // bucket end (inclusive) for leaves, -1 for interior nodes
	Left     int32
	Right    int32
	Axis     uint8 // 0 = lng, 1 = lat
}

// kdTree is a 2-d tree over marker positions, used for viewport range
// queries. It is rebuilt whenever the owning arena is mutated.
type kdTree struct {
	Nodes    []kdNode
	Points   []kdPoint
	NodeSize int
	Bounds   geo.Bounds
}

func newKDTree(points []kdPoint, nodeSize int) *kdTree {
	tree := &kdTree{
		Nodes:    make([]kdNode, 0, len(points)*2),
		Points:   make([]kdPoint, len(points)),
		NodeSize: nodeSize,
	}
	copy(tree.Points, points)

	bounds := geo.Bounds{
		MinLat: math.Inf(1),
		MinLng: math.Inf(1),
		MaxLat: math.Inf(-1),
		MaxLng: math.Inf(-1),
	}
	for _, p := range points {
		bounds.Extend(geo.LatLng{Lat: p.Lat, Lng: p.Lng})
	}
	tree.Bounds = bounds

	if len(points) > 0 {
		tree.buildNodes(0, len(points)-1, 0)
	}
	return tree
}

func (t *kdTree) buildNodes(start, end, depth int) int32 {
	if start > end {
		return -1
	}

	nodeIdx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, kdNode{})

	if end-start <= t.NodeSize {
		t.Nodes[nodeIdx] = kdNode{
			PointIdx: int32(start),
			End:      int32(end),
			Left:     -1,
			Right:    -1,
		}
		return nodeIdx
	}

	axis := depth % 2
	median := (start + end) / 2
	sortPointsRange(t.Points[start:end+1], axis)

	// Children are built after the node is appended, so fetch the node again
	// rather than holding a pointer across the appends.
	left := t.buildNodes(start, median-1, depth+1)
	right := t.buildNodes(median+1, end, depth+1)
	t.Nodes[nodeIdx] = kdNode{
		PointIdx: int32(median),
		End:      -1,
		Left:     left,
		Right:    right,
		Axis:     uint8(axis),
	}
	return nodeIdx
}

func sortPointsRange(points []kdPoint, axis int) {
	if axis == 0 {
		sort.Slice(points, func(i, j int) bool {
			return points[i].Lng < points[j].Lng
		})
	} else {
		sort.Slice(points, func(i, j int) bool {
			return points[i].Lat < points[j].Lat
		})
	}
}

// Range returns the marker indices of all points inside bounds.
func (t *kdTree) Range(bounds geo.Bounds) []int {
	if len(t.Nodes) == 0 {
		return nil
	}
	var out []int
	t.rangeQuery(0, bounds, &out)
	return out
}

func (t *kdTree) rangeQuery(nodeIdx int32, bounds geo.Bounds, out *[]int) {
	if nodeIdx < 0 {
		return
	}
	node := t.Nodes[nodeIdx]

	if node.End >= 0 {
		for i := node.PointIdx; i <= node.End; i++ {
			p := t.Points[i]
			if bounds.Contains(geo.LatLng{Lat: p.Lat, Lng: p.Lng}) {
				*out = append(*out, p.MarkerIdx)
			}
		}
		return
	}

	p := t.Points[node.PointIdx]
	if bounds.Contains(geo.LatLng{Lat: p.Lat, Lng: p.Lng}) {
		*out = append(*out, p.MarkerIdx)
	}

	var v, lo, hi float64
	if node.Axis == 0 {
		v, lo, hi = p.Lng, bounds.MinLng, bounds.MaxLng
	} else {
		v, lo, hi = p.Lat, bounds.MinLat, bounds.MaxLat
	}

	if lo <= v {
		t.rangeQuery(node.Left, bounds, out)
	}
	if hi >= v {
		t.rangeQuery(node.Right, bounds, out)
	}
}
