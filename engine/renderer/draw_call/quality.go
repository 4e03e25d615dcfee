package draw_call

import "github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"

// Distance thresholds in meters between quality levels.
const (
	HighQualityMaxDistance   float32 = 15
	MediumQualityMaxDistance float32 = 65
)

// QualityLevelForDistance maps camera distance to a quality level. A non-positive distance, or
// LOD being disabled, always selects high quality.
//
// Parameters:
//   - distance: the distance from the camera to the instance in meters
//   - lodEnabled: whether distance-based level of detail is enabled
//
// Returns:
//   - material.QualityLevel: the level to draw at
func QualityLevelForDistance(distance float32, lodEnabled bool) material.QualityLevel {
	switch {
	case !lodEnabled || distance <= 0:
		return material.QualityLevelHigh
	case distance < HighQualityMaxDistance:
		return material.QualityLevelHigh
	case distance < MediumQualityMaxDistance:
		return material.QualityLevelMedium
	default:
		return material.QualityLevelLow
	}
}
