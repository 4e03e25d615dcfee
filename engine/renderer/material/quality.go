package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
)

// QualityLevel is a level of detail. Lower values are higher quality.
type QualityLevel int

const (
	QualityLevelHigh QualityLevel = iota
	QualityLevelMedium
	QualityLevelLow

	// NumQualityLevels is the number of quality levels a draw call builds pipeline states for.
	NumQualityLevels = 3
)

func (q QualityLevel) String() string {
	switch q {
	case QualityLevelHigh:
		return "high"
	case QualityLevelMedium:
		return "medium"
	case QualityLevelLow:
		return "low"
	}
	return fmt.Sprintf("QualityLevel(%d)", int(q))
}

// TextureSlot is one of the material maps, in function constant order.
type TextureSlot int

const (
	TextureSlotBaseColor TextureSlot = iota
	TextureSlotNormal
	TextureSlotMetallic
	TextureSlotRoughness
	TextureSlotAmbientOcclusion
	TextureSlotEmission
	TextureSlotSubsurface
	TextureSlotSpecular
	TextureSlotSpecularTint
	TextureSlotAnisotropic
	TextureSlotSheen
	TextureSlotSheenTint
	TextureSlotClearcoat
	TextureSlotClearcoatGloss

	// NumTextureSlots is the number of material maps.
	NumTextureSlots = int(shader.NumFunctionConstants)
)

var slotTextureIndices = [NumTextureSlots]shader.TextureIndex{
	shader.TextureIndexColor,
	shader.TextureIndexNormal,
	shader.TextureIndexMetallic,
	shader.TextureIndexRoughness,
	shader.TextureIndexAmbientOcclusion,
	shader.TextureIndexEmissionMap,
	shader.TextureIndexSubsurfaceMap,
	shader.TextureIndexSpecularMap,
	shader.TextureIndexSpecularTintMap,
	shader.TextureIndexAnisotropicMap,
	shader.TextureIndexSheenMap,
	shader.TextureIndexSheenTintMap,
	shader.TextureIndexClearcoatMap,
	shader.TextureIndexClearcoatGlossMap,
}

// Valid reports whether s names a material map.
func (s TextureSlot) Valid() bool {
	return s >= 0 && int(s) < NumTextureSlots
}

func (s TextureSlot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("TextureSlot(%d)", int(s))
	}
	return s.TextureIndex().String()
}

// TextureIndex returns the texture slot the map is bound to.
func (s TextureSlot) TextureIndex() shader.TextureIndex {
	return slotTextureIndices[s]
}

// FunctionConstant returns the specialization constant that enables the map in shaders.
func (s TextureSlot) FunctionConstant() shader.FunctionConstantIndex {
	return shader.FunctionConstantIndex(s)
}

// MinLevelForSlot returns the first quality level at which the map is no longer sampled.
// Base colour and emission stay active through Medium; every other map is High only.
//
// Parameters:
//   - slot: the material map
//
// Returns:
//   - QualityLevel: the exclusive upper bound of levels that sample the map
func MinLevelForSlot(slot TextureSlot) QualityLevel {
	switch slot {
	case TextureSlotBaseColor, TextureSlotEmission:
		return QualityLevelLow
	default:
		return QualityLevelMedium
	}
}

// IsActive reports whether the map is sampled at the given quality level.
//
// Parameters:
//   - slot: the material map
//   - level: the quality level
//
// Returns:
//   - bool: true when level < MinLevelForSlot(slot)
func IsActive(slot TextureSlot, level QualityLevel) bool {
	return level < MinLevelForSlot(slot)
}

// SlotSet is a bit set of material maps.
type SlotSet uint16

// Add returns the set with slot included.
func (s SlotSet) Add(slot TextureSlot) SlotSet {
	if !slot.Valid() {
		return s
	}
	return s | 1<<uint(slot)
}

// Has reports whether slot is in the set.
func (s SlotSet) Has(slot TextureSlot) bool {
	return slot.Valid() && s&(1<<uint(slot)) != 0
}

// FunctionConstants builds the specialization constants for one quality level: a map is
// enabled when it is present and active at that level.
//
// Parameters:
//   - present: the maps the material has a texture for
//   - level: the quality level
//
// Returns:
//   - *gpu.FunctionConstantValues: one constant per material map
func FunctionConstants(present SlotSet, level QualityLevel) *gpu.FunctionConstantValues {
	values := gpu.NewFunctionConstantValues()
	for i := 0; i < NumTextureSlots; i++ {
		slot := TextureSlot(i)
		fc := slot.FunctionConstant()
		values.SetBool(int(fc), fc.Name(), present.Has(slot) && IsActive(slot, level))
	}
	return values
}

// MapWeights returns the per-map blend weights written into instance records: 1 for maps
// active at level, 0 otherwise.
//
// Parameters:
//   - level: the quality level the instance is drawn at
//
// Returns:
//   - [NumTextureSlots]float32: the weights in map order
func MapWeights(level QualityLevel) [NumTextureSlots]float32 {
	var w [NumTextureSlots]float32
	for i := range w {
		if IsActive(TextureSlot(i), level) {
			w[i] = 1
		}
	}
	return w
}
