package spider

import (
	"math"
	"testing"
)

func defaultOptions(t *testing.T) Options {
	t.Helper()
	o, err := Options{}.withDefaults()
	if err != nil {
		t.Fatalf("Default options failed validation: %v", err)
	}
	return o
}

func TestCircularModeSelection(t *testing.T) {
	o := defaultOptions(t)

	// 9 members with switchover 9 stays circular; 10 goes spiral.
	circle := computePlacements(9, o)
	for i := 1; i < len(circle); i++ {
		if circle[i].Leg != circle[0].Leg {
			t.Fatal("Expected constant leg length in circular mode")
		}
	}

	spiral := computePlacements(10, o)
	for i := 1; i < len(spiral); i++ {
		if spiral[i].Leg <= spiral[i-1].Leg {
			t.Fatalf("Expected strictly growing legs in spiral mode, got %f then %f",
				spiral[i-1].Leg, spiral[i].Leg)
		}
	}
}

func TestCircularPlacementAngles(t *testing.T) {
	o := defaultOptions(t)
	placements := computePlacements(3, o)

	stepAngle := 2 * math.Pi / 3
	for i, p := range placements {
		want := stepAngle * float64(i)
		if math.Abs(p.Angle-want) > 1e-9 {
			t.Errorf("Member %d: expected angle %f, got %f", i, want, p.Angle)
		}
	}

	// With 3 members the computed leg is below the minimum circumference.
	if placements[0].Leg != o.MinCircleLength {
		t.Errorf("Expected leg clamped to minCircleLength %f, got %f",
			o.MinCircleLength, placements[0].Leg)
	}
}

func TestCircularLegGrowsWithMemberCount(t *testing.T) {
	o := defaultOptions(t)
	o.CircleSpiralSwitchover = 500

	// Enough members that the density term dominates the minimum.
	small := computePlacements(100, o)
	large := computePlacements(400, o)

	if large[0].Leg <= small[0].Leg {
		t.Errorf("Expected leg to grow with member count, got %f then %f",
			small[0].Leg, large[0].Leg)
	}
}

func TestSpiralAnglesIncrease(t *testing.T) {
	o := defaultOptions(t)
	placements := computePlacements(30, o)

	for i := 1; i < len(placements); i++ {
		if placements[i].Angle <= placements[i-1].Angle {
			t.Fatalf("Expected strictly increasing spiral angles at member %d", i)
		}
	}
}

func TestLayoutIsDeterministic(t *testing.T) {
	o := defaultOptions(t)

	for _, n := range []int{3, 9, 10, 50} {
		first := computePlacements(n, o)
		second := computePlacements(n, o)
		for i := range first {
			if first[i] != second[i] {
				t.Fatalf("n=%d: placement %d differs between runs", n, i)
			}
		}
	}
}

func TestLayoutEmpty(t *testing.T) {
	if got := computePlacements(0, defaultOptions(t)); got != nil {
		t.Errorf("Expected nil placements for empty cluster, got %v", got)
	}
}
