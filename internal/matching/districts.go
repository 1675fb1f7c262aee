// internal/matching/districts.go
package matching

import "company-matching/internal/models"

// districtBorders lists each borough's neighbours once; adjacentDistricts
// mirrors every pair so lookups work in both directions.
var districtBorders = map[models.District][]models.District{
	models.DistrictMitte: {
		models.DistrictFriedrichshainKreuzberg,
		models.DistrictPankow,
		models.DistrictCharlottenburgWilmersdorf,
		models.DistrictTempelhofSchoeneberg,
		models.DistrictReinickendorf,
	},
	models.DistrictFriedrichshainKreuzberg: {
		models.DistrictLichtenberg,
		models.DistrictNeukoelln,
		models.DistrictTreptowKoepenick,
		models.DistrictTempelhofSchoeneberg,
		models.DistrictPankow,
	},
	models.DistrictPankow: {
		models.DistrictReinickendorf,
		models.DistrictLichtenberg,
	},
	models.DistrictCharlottenburgWilmersdorf: {
		models.DistrictSpandau,
		models.DistrictSteglitzZehlendorf,
		models.DistrictTempelhofSchoeneberg,
		models.DistrictReinickendorf,
	},
	models.DistrictSpandau: {
		models.DistrictReinickendorf,
		models.DistrictSteglitzZehlendorf,
	},
	models.DistrictSteglitzZehlendorf: {
		models.DistrictTempelhofSchoeneberg,
	},
	models.DistrictTempelhofSchoeneberg: {
		models.DistrictNeukoelln,
	},
	models.DistrictNeukoelln: {
		models.DistrictTreptowKoepenick,
	},
	models.DistrictTreptowKoepenick: {
		models.DistrictLichtenberg,
		models.DistrictMarzahnHellersdorf,
	},
	models.DistrictMarzahnHellersdorf: {
		models.DistrictLichtenberg,
	},
}

var adjacentDistricts = buildAdjacency(districtBorders)

func buildAdjacency(borders map[models.District][]models.District) map[models.District]map[models.District]bool {
	adj := make(map[models.District]map[models.District]bool)
	link := func(a, b models.District) {
		if adj[a] == nil {
			adj[a] = make(map[models.District]bool)
		}
		adj[a][b] = true
	}
	for d, neighbours := range borders {
		for _, n := range neighbours {
			link(d, n)
			link(n, d)
		}
	}
	return adj
}

// AreAdjacent reports whether two distinct boroughs share a border.
func AreAdjacent(a, b models.District) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	return adjacentDistricts[a][b]
}
