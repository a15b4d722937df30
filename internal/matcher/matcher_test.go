package matcher

import (
	"reflect"
	"testing"

	"github.com/dhanyyudi/bmkg-alert/internal/testutil"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

func TestKecamatanMatch(t *testing.T) {
	tests := []struct {
		name        string
		description string
		subdistrict string
		wantMatch   bool
	}{
		{"name in comma list", "Hujan di Alian, Bonorowo, Bruno, Butuh.", "Alian", true},
		{"case insensitive", "hujan di alian dan sekitarnya", "Alian", true},
		{"not present", "Hujan di Jakarta Selatan", "Alian", false},
		{"empty subdistrict never matches", "Hujan di Alian", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := testutil.FixtureWarning(func(w *types.Warning) {
				w.Description = tt.description
			})
			location := testutil.FixtureLocation(func(l *types.Location) {
				l.SubdistrictName = tt.subdistrict
				l.DistrictName = "Nowhere"
			})

			results := Match(warning, []types.Location{location})
			if tt.wantMatch {
				if len(results) != 1 {
					t.Fatalf("got %d matches, want 1", len(results))
				}
				if results[0].MatchType != types.MatchKecamatan {
					t.Errorf("match type: got %s, want kecamatan", results[0].MatchType)
				}
				if results[0].MatchedText != tt.subdistrict {
					t.Errorf("matched text: got %q, want %q", results[0].MatchedText, tt.subdistrict)
				}
			} else if len(results) != 0 {
				t.Fatalf("got %d matches, want 0", len(results))
			}
		})
	}
}

func TestKabupatenFallback(t *testing.T) {
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Description = "Hujan di wilayah lain"
		w.Areas = []types.WarningArea{{Name: "Kebumen"}}
	})
	location := testutil.FixtureLocation(func(l *types.Location) {
		l.SubdistrictName = "Somewhere"
		l.DistrictName = "Kebumen"
	})

	results := Match(warning, []types.Location{location})
	if len(results) != 1 {
		t.Fatalf("got %d matches, want 1", len(results))
	}
	if results[0].MatchType != types.MatchKabupaten {
		t.Errorf("match type: got %s, want kabupaten", results[0].MatchType)
	}
	if results[0].MatchedText != "Kebumen" {
		t.Errorf("matched text: got %q, want Kebumen", results[0].MatchedText)
	}
}

func TestKecamatanTakesPriority(t *testing.T) {
	// Both rules would fire; only the kecamatan match is emitted.
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Description = "Hujan lebat di Alian"
		w.Areas = []types.WarningArea{{Name: "Kebumen"}}
	})
	location := testutil.FixtureLocation()

	results := Match(warning, []types.Location{location})
	if len(results) != 1 {
		t.Fatalf("got %d matches, want 1", len(results))
	}
	if results[0].MatchType != types.MatchKecamatan {
		t.Errorf("match type: got %s, want kecamatan", results[0].MatchType)
	}
}

func TestDisabledLocationSkipped(t *testing.T) {
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Description = "Hujan di Alian"
	})
	location := testutil.FixtureLocation(func(l *types.Location) {
		l.Enabled = false
	})

	if results := Match(warning, []types.Location{location}); len(results) != 0 {
		t.Fatalf("disabled location matched: %v", results)
	}
}

func TestEmptyDistrictNeverMatchesAreas(t *testing.T) {
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Description = "Hujan di wilayah lain"
		w.Areas = []types.WarningArea{{Name: "Kebumen"}}
	})
	location := testutil.FixtureLocation(func(l *types.Location) {
		l.SubdistrictName = "Somewhere"
		l.DistrictName = ""
	})

	if results := Match(warning, []types.Location{location}); len(results) != 0 {
		t.Fatalf("empty district matched: %v", results)
	}
}

func TestOutputFollowsInputOrder(t *testing.T) {
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Description = "Hujan di Alian, Bonorowo"
	})
	first := testutil.FixtureLocation(func(l *types.Location) {
		l.ID = "loc-1"
		l.SubdistrictName = "Bonorowo"
	})
	second := testutil.FixtureLocation(func(l *types.Location) {
		l.ID = "loc-2"
		l.SubdistrictName = "Alian"
	})

	results := Match(warning, []types.Location{first, second})
	if len(results) != 2 {
		t.Fatalf("got %d matches, want 2", len(results))
	}
	if results[0].Location.ID != "loc-1" || results[1].Location.ID != "loc-2" {
		t.Errorf("output order does not follow input order: %s, %s",
			results[0].Location.ID, results[1].Location.ID)
	}
}

func TestMatchIsPure(t *testing.T) {
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Description = "Hujan di Alian"
	})
	locations := []types.Location{testutil.FixtureLocation()}

	first := Match(warning, locations)
	second := Match(warning, locations)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}
}
