package geo

import (
	"math"
	"testing"
)

func TestHaversineSymmetry(t *testing.T) {
	a := Point{Lat: 39.984702, Lon: 116.318417}
	b := Point{Lat: 39.984683, Lon: 116.31845}

	ab := HaversineKm(a, b)
	ba := HaversineKm(b, a)
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("HaversineKm not symmetric: a->b=%g b->a=%g", ab, ba)
	}
}

func TestHaversineZeroDistance(t *testing.T) {
	p := Point{Lat: 39.916, Lon: 116.397}
	if d := HaversineKm(p, p); d != 0 {
		t.Errorf("HaversineKm(p, p) = %g, want 0", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Beijing to Shanghai, roughly 1067 km great-circle.
	beijing := Point{Lat: 39.9042, Lon: 116.4074}
	shanghai := Point{Lat: 31.2304, Lon: 121.4737}

	d := HaversineKm(beijing, shanghai)
	if d < 1050 || d > 1080 {
		t.Errorf("HaversineKm(beijing, shanghai) = %f, want ~1067", d)
	}
}

func TestTrackDistanceKm(t *testing.T) {
	if d := TrackDistanceKm(nil); d != 0 {
		t.Errorf("TrackDistanceKm(nil) = %g, want 0", d)
	}
	if d := TrackDistanceKm([]Point{{Lat: 1, Lon: 1}}); d != 0 {
		t.Errorf("TrackDistanceKm(single point) = %g, want 0", d)
	}

	points := []Point{
		{Lat: 39.0, Lon: 116.0},
		{Lat: 39.1, Lon: 116.0},
		{Lat: 39.2, Lon: 116.0},
	}
	sum := HaversineKm(points[0], points[1]) + HaversineKm(points[1], points[2])
	if d := TrackDistanceKm(points); math.Abs(d-sum) > 1e-12 {
		t.Errorf("TrackDistanceKm = %f, want %f", d, sum)
	}
}

func TestBoxContains(t *testing.T) {
	box := Box{MinLat: 39.9155, MaxLat: 39.9165, MinLon: 116.3965, MaxLon: 116.3975}

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Point{Lat: 39.916, Lon: 116.397}, true},
		{"on min corner", Point{Lat: 39.9155, Lon: 116.3965}, true},
		{"on max corner", Point{Lat: 39.9165, Lon: 116.3975}, true},
		{"north of box", Point{Lat: 39.92, Lon: 116.397}, false},
		{"west of box", Point{Lat: 39.916, Lon: 116.39}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}
