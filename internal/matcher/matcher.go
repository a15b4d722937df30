// Package matcher matches BMKG warnings against monitored locations.
//
// Matching is pure text containment, no I/O. The upstream description lists
// affected kecamatan as comma-separated names, so a case-insensitive
// substring test is sufficient. Known limitations: ASCII-only case folding,
// no Unicode normalization, no polygon containment.
package matcher

import (
	"strings"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// Match returns every location the warning applies to, in input order.
//
// For each enabled location the primary rule checks the subdistrict
// (kecamatan) name against the warning description; on a hit the location is
// done. The fallback rule checks the district (kabupaten) name against the
// warning area names. A location matches at most once, and an empty
// subdistrict or district name never matches.
func Match(warning types.Warning, locations []types.Location) []types.Match {
	var results []types.Match
	descriptionLower := strings.ToLower(warning.Description)

	areaNamesLower := make([]string, 0, len(warning.Areas))
	for _, area := range warning.Areas {
		areaNamesLower = append(areaNamesLower, strings.ToLower(area.Name))
	}

	for _, location := range locations {
		if !location.Enabled {
			continue
		}

		subdistrict := strings.ToLower(location.SubdistrictName)
		if subdistrict != "" && strings.Contains(descriptionLower, subdistrict) {
			results = append(results, types.Match{
				Location:    location,
				MatchType:   types.MatchKecamatan,
				MatchedText: location.SubdistrictName,
			})
			continue
		}

		district := strings.ToLower(location.DistrictName)
		if district == "" {
			continue
		}
		for _, areaName := range areaNamesLower {
			if strings.Contains(areaName, district) {
				results = append(results, types.Match{
					Location:    location,
					MatchType:   types.MatchKabupaten,
					MatchedText: location.DistrictName,
				})
				break
			}
		}
	}

	return results
}
