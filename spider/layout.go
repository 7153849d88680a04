package spider

import "math"

// Placement is one computed spider leg: an angle in radians and a leg length
// in pixels, both relative to the cluster's anchor pixel.
type Placement struct {
	Angle float64
	Leg   float64
}

// computePlacements lays out n members around an anchor. The layout is a
// pure function of n and the options: the same member ordering always yields
// the same arrangement.
func computePlacements(n int, o Options) []Placement {
	if n <= 0 {
		return nil
	}
	if n > o.CircleSpiralSwitchover {
		return spiralPlacements(n, o)
	}
	return circlePlacements(n, o)
}

func circlePlacements(n int, o Options) []Placement {
	stepAngle := 2 * math.Pi / float64(n)
	leg := math.Max(o.MinCircleLength, (o.SpiralDistanceFactor/stepAngle/math.Pi/2)*float64(n))

	placements := make([]Placement, n)
	for i := range placements {
		placements[i] = Placement{Angle: stepAngle * float64(i), Leg: leg}
	}
	return placements
}

func spiralPlacements(n int, o Options) []Placement {
	leg := o.MinCircleLength / math.Pi
	stepLength := 2 * math.Pi * o.SpiralDistanceFactor
	angle := 0.0

	placements := make([]Placement, n)
	for i := range placements {
		// Both updates happen before placing member i; the leg grows with
		// the accumulated angle so later members land on an outer winding.
		angle += o.MinSpiralAngleSeperation/leg + float64(i)*0.0005
		leg += stepLength / angle
		placements[i] = Placement{Angle: angle, Leg: leg}
	}
	return placements
}
