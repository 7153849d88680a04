package geo

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestBoundingBoxCenter(t *testing.T) {
	path := []LatLng{
		{Lat: 10, Lng: -20},
		{Lat: 30, Lng: 40},
		{Lat: 20, Lng: 0},
	}

	got := BoundingBoxCenter(path)
	if got == nil {
		t.Fatal("Expected a center, got nil")
	}

	want := LatLng{Lat: 20, Lng: 10}
	if diff := cmp.Diff(want, *got, approx); diff != "" {
		t.Errorf("Center mismatch (-want +got):\n%s", diff)
	}
}

func TestBoundingBoxCenterEmptyPath(t *testing.T) {
	if got := BoundingBoxCenter(nil); got != nil {
		t.Errorf("Expected nil center for empty path, got %+v", got)
	}
}

func TestPolygonCentroidSquare(t *testing.T) {
	// Unit square centered on (10.5, 20.5).
	rings := [][]LatLng{{
		{Lat: 10, Lng: 20},
		{Lat: 10, Lng: 21},
		{Lat: 11, Lng: 21},
		{Lat: 11, Lng: 20},
	}}

	got := PolygonCentroid(rings)
	if got == nil {
		t.Fatal("Expected a centroid, got nil")
	}

	want := LatLng{Lat: 10.5, Lng: 20.5}
	if diff := cmp.Diff(want, *got, approx); diff != "" {
		t.Errorf("Centroid mismatch (-want +got):\n%s", diff)
	}
}

func TestPolygonCentroidUsesOuterRingOnly(t *testing.T) {
	outer := []LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 4},
		{Lat: 4, Lng: 4},
		{Lat: 4, Lng: 0},
	}
	// A hole far off-center must not shift the result.
	hole := []LatLng{
		{Lat: 0.5, Lng: 0.5},
		{Lat: 0.5, Lng: 1},
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: 0.5},
	}

	got := PolygonCentroid([][]LatLng{outer, hole})
	if got == nil {
		t.Fatal("Expected a centroid, got nil")
	}

	want := LatLng{Lat: 2, Lng: 2}
	if diff := cmp.Diff(want, *got, approx); diff != "" {
		t.Errorf("Centroid mismatch (-want +got):\n%s", diff)
	}
}

func TestPolygonCentroidDegenerate(t *testing.T) {
	// Collinear ring has zero signed area; expect the first point back.
	rings := [][]LatLng{{
		{Lat: 5, Lng: 5},
		{Lat: 6, Lng: 6},
		{Lat: 7, Lng: 7},
	}}

	got := PolygonCentroid(rings)
	if got == nil {
		t.Fatal("Expected degenerate fallback, got nil")
	}
	if got.Lat != 5 || got.Lng != 5 {
		t.Errorf("Expected first point (5,5), got (%f,%f)", got.Lat, got.Lng)
	}
}

func TestPolygonCentroidSmallMagnitudeStability(t *testing.T) {
	// A tiny square at a large offset; the offset-relative shoelace must not
	// lose the signal to cancellation.
	const base = 89.999
	const d = 1e-7
	rings := [][]LatLng{{
		{Lat: base, Lng: base},
		{Lat: base, Lng: base + d},
		{Lat: base + d, Lng: base + d},
		{Lat: base + d, Lng: base},
	}}

	got := PolygonCentroid(rings)
	if got == nil {
		t.Fatal("Expected a centroid, got nil")
	}
	if math.Abs(got.Lat-(base+d/2)) > d/10 || math.Abs(got.Lng-(base+d/2)) > d/10 {
		t.Errorf("Centroid drifted: got (%.12f,%.12f)", got.Lat, got.Lng)
	}
}

func TestPolylineCentroid(t *testing.T) {
	// Open L-shaped path; closed-ring treatment gives the triangle centroid.
	path := []LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 3},
		{Lat: 3, Lng: 0},
	}

	got := PolylineCentroid(path)
	if got == nil {
		t.Fatal("Expected a centroid, got nil")
	}

	want := LatLng{Lat: 1, Lng: 1}
	if diff := cmp.Diff(want, *got, approx); diff != "" {
		t.Errorf("Centroid mismatch (-want +got):\n%s", diff)
	}
}

func TestPolygonCentroidCaching(t *testing.T) {
	poly := NewPolygon([][]LatLng{{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 2, Lng: 2},
		{Lat: 2, Lng: 0},
	}})

	first := poly.Centroid()
	second := poly.Centroid()
	if first != second {
		t.Error("Expected cached centroid pointer to be reused")
	}

	poly.SetRings([][]LatLng{{
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 12},
		{Lat: 12, Lng: 12},
		{Lat: 12, Lng: 10},
	}})

	moved := poly.Centroid()
	if moved == first {
		t.Error("Expected SetRings to invalidate the cached centroid")
	}
	if moved.Lat != 11 || moved.Lng != 11 {
		t.Errorf("Expected centroid (11,11) after mutation, got (%f,%f)", moved.Lat, moved.Lng)
	}
}

func TestPolylineCentroidCaching(t *testing.T) {
	line := NewPolyline([]LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 3},
		{Lat: 3, Lng: 0},
	})

	first := line.Centroid()
	line.SetPath([]LatLng{
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: 4},
		{Lat: 4, Lng: 1},
	})
	second := line.Centroid()

	if first == second {
		t.Error("Expected SetPath to invalidate the cached centroid")
	}
	if second.Lat != 2 || second.Lng != 2 {
		t.Errorf("Expected centroid (2,2) after mutation, got (%f,%f)", second.Lat, second.Lng)
	}
}
