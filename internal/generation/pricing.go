package generation

import "github.com/shiksha-labs/prashnagen/pkg/enums"

// coins charged per persisted question
var unitCosts = map[enums.BloomLevel]int64{
	enums.BloomLevelRemembering:   5,
	enums.BloomLevelUnderstanding: 7,
	enums.BloomLevelApplying:      10,
	enums.BloomLevelAnalyzing:     15,
	enums.BloomLevelEvaluating:    25,
	enums.BloomLevelCreating:      25,
}

// UnitCost returns the per-question price of a bloom level.
func UnitCost(level enums.BloomLevel) (int64, bool) {
	cost, ok := unitCosts[level]
	return cost, ok
}

// Price is one row of the public price list.
type Price struct {
	BloomLevel enums.BloomLevel `json:"bloom_level"`
	UnitCost   int64            `json:"unit_cost"`
}

// PriceList returns every bloom level with its unit cost, lowest tier first.
func PriceList() []Price {
	levels := enums.BloomLevels()
	out := make([]Price, 0, len(levels))
	for _, level := range levels {
		out = append(out, Price{BloomLevel: level, UnitCost: unitCosts[level]})
	}
	return out
}
