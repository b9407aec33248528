package activity

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDecodePolyline(t *testing.T) {
	// The canonical example from the polyline algorithm docs:
	// (38.5, -120.2), (40.7, -120.95), (43.252, -126.453)
	positions, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	if err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}

	want := []orb.Point{
		{-120.2, 38.5},
		{-120.95, 40.7},
		{-126.453, 43.252},
	}
	if len(positions) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(positions))
	}
	for i := range want {
		if math.Abs(positions[i][0]-want[i][0]) > 1e-5 || math.Abs(positions[i][1]-want[i][1]) > 1e-5 {
			t.Errorf("point %d: expected %v, got %v", i, want[i], positions[i])
		}
	}
}

func TestDecodePolylineInvalid(t *testing.T) {
	if _, err := DecodePolyline("\x00"); err == nil {
		t.Error("expected error for invalid polyline, got nil")
	}
}

func TestSetPositionsRecomputesBounds(t *testing.T) {
	a := Activity{}
	a.SetPositions([]orb.Point{{-0.1, 51.5}, {2.35, 48.85}})

	want := orb.Bound{Min: orb.Point{-0.1, 48.85}, Max: orb.Point{2.35, 51.5}}
	if a.Bounds != want {
		t.Errorf("expected bounds %v, got %v", want, a.Bounds)
	}

	// Replacing a summary path with a full-resolution one must tighten the box.
	a.SetPositions([]orb.Point{{-0.1, 51.5}, {-0.05, 51.52}})
	want = orb.Bound{Min: orb.Point{-0.1, 51.5}, Max: orb.Point{-0.05, 51.52}}
	if a.Bounds != want {
		t.Errorf("expected bounds %v after replacing positions, got %v", want, a.Bounds)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		activityType Type
		wantLabel    Label
		wantOK       bool
	}{
		{"Run", Runs, true},
		{"TrailRun", Runs, true},
		{"Hike", Walks, true},
		{"EBikeRide", Rides, true},
		{"Snowshoe", Snowsports, true},
		{"Swim", Watersports, true},
		{"Yoga", Other, true},
		{"Chess", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		label, ok := CategoryOf(tc.activityType)
		if label != tc.wantLabel || ok != tc.wantOK {
			t.Errorf("CategoryOf(%q): expected (%q, %t), got (%q, %t)",
				tc.activityType, tc.wantLabel, tc.wantOK, label, ok)
		}
	}
}

func TestCategoriesAreDisjoint(t *testing.T) {
	seen := make(map[Type]Label)
	for _, c := range Categories {
		for _, typ := range c.Types {
			if owner, dup := seen[typ]; dup {
				t.Errorf("type %q appears in both %q and %q", typ, owner, c.Label)
			}
			seen[typ] = c.Label
		}
	}
}
