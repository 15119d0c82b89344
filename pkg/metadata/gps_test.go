package metadata

import "testing"

func TestGreatCircleDistanceSamePointIsZero(t *testing.T) {
	d := GreatCircleDistance(40.0, -74.0, 40.0, -74.0, Kilometers)
	if d != 0 {
		t.Errorf("got %f, want 0", d)
	}
}

func TestGreatCircleDistanceKnownCities(t *testing.T) {
	// New York to London, roughly 5570 km.
	d := GreatCircleDistance(40.7128, -74.0060, 51.5074, -0.1278, Kilometers)
	if d < 5400 || d > 5700 {
		t.Errorf("got %f km, want roughly 5570", d)
	}
}

func TestWithinRadiusTrueAndFalse(t *testing.T) {
	if !WithinRadius(40.0, -74.0, 40.01, -74.01, 5, Kilometers) {
		t.Error("expected a nearby point to be within 5km")
	}
	if WithinRadius(40.0, -74.0, 51.5, -0.1, 100, Kilometers) {
		t.Error("expected a distant point to be outside 100km")
	}
}

func TestDistanceUnitsScaleConsistently(t *testing.T) {
	km := GreatCircleDistance(0, 0, 10, 10, Kilometers)
	miles := GreatCircleDistance(0, 0, 10, 10, Miles)
	if miles >= km {
		t.Errorf("expected miles (%f) to be a smaller number than km (%f) for the same distance", miles, km)
	}
}
