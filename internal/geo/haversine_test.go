package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantKm                 float64
		toleranceKm            float64
	}{
		{"same point", 23.75, 90.37, 23.75, 90.37, 0, 0.001},
		{"one degree of longitude at the equator", 0, 0, 0, 1, 111.19, 0.5},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.5},
		{"across dhaka", 23.75, 90.37, 23.79, 90.41, 6.1, 0.5},
		{"dhaka to chattogram", 23.8103, 90.4125, 22.3569, 91.7832, 212.0, 5.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceKm(tc.lat1, tc.lng1, tc.lat2, tc.lng2)
			if math.Abs(got-tc.wantKm) > tc.toleranceKm {
				t.Errorf("DistanceKm = %v, want %v ± %v", got, tc.wantKm, tc.toleranceKm)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	forward := DistanceKm(23.75, 90.37, 23.79, 90.41)
	backward := DistanceKm(23.79, 90.41, 23.75, 90.37)
	if math.Abs(forward-backward) > 1e-9 {
		t.Errorf("distance is not symmetric: %v vs %v", forward, backward)
	}
}

func TestValidLatitude(t *testing.T) {
	for _, lat := range []float64{-90, -45.5, 0, 45.5, 90} {
		if !ValidLatitude(lat) {
			t.Errorf("expected %v to be a valid latitude", lat)
		}
	}
	for _, lat := range []float64{-90.01, 91, 180} {
		if ValidLatitude(lat) {
			t.Errorf("expected %v to be an invalid latitude", lat)
		}
	}
}

func TestValidLongitude(t *testing.T) {
	for _, lng := range []float64{-180, -90.5, 0, 90.5, 180} {
		if !ValidLongitude(lng) {
			t.Errorf("expected %v to be a valid longitude", lng)
		}
	}
	for _, lng := range []float64{-180.01, 181, 360} {
		if ValidLongitude(lng) {
			t.Errorf("expected %v to be an invalid longitude", lng)
		}
	}
}
