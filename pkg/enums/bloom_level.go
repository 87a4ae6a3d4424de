package enums

import "fmt"

// BloomLevel is a cognitive-complexity tier from Bloom's taxonomy.
type BloomLevel string

const (
	BloomLevelRemembering   BloomLevel = "remembering"
	BloomLevelUnderstanding BloomLevel = "understanding"
	BloomLevelApplying      BloomLevel = "applying"
	BloomLevelAnalyzing     BloomLevel = "analyzing"
	BloomLevelEvaluating    BloomLevel = "evaluating"
	BloomLevelCreating      BloomLevel = "creating"
)

// ordered from the lowest to the highest tier
var validBloomLevels = []BloomLevel{
	BloomLevelRemembering,
	BloomLevelUnderstanding,
	BloomLevelApplying,
	BloomLevelAnalyzing,
	BloomLevelEvaluating,
	BloomLevelCreating,
}

// BloomLevels returns every tier from lowest to highest.
func BloomLevels() []BloomLevel {
	out := make([]BloomLevel, len(validBloomLevels))
	copy(out, validBloomLevels)
	return out
}

// String implements fmt.Stringer.
func (b BloomLevel) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BloomLevel.
func (b BloomLevel) IsValid() bool {
	for _, candidate := range validBloomLevels {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBloomLevel converts raw input into a BloomLevel.
func ParseBloomLevel(value string) (BloomLevel, error) {
	for _, candidate := range validBloomLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bloom level %q", value)
}
