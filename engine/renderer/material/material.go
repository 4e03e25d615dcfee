package material

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
)

type material struct {
	name          string
	baseColor     [4]float32
	emissionColor [4]float32
	scalars       Scalars
	textures      [NumTextureSlots]gpu.Texture
}

// Scalars holds the uniform surface parameters of a material.
type Scalars struct {
	Roughness        float32
	Metalness        float32
	AmbientOcclusion float32
	Opacity          float32
	Subsurface       float32
	Specular         float32
	SpecularTint     float32
	Anisotropic      float32
	Sheen            float32
	SheenTint        float32
	Clearcoat        float32
	ClearcoatGloss   float32
}

// Material is the surface description of one submesh: uniform parameters plus an optional
// texture per map. A map without a texture falls back to the uniform value in shaders.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA albedo used when no base colour map is present.
	//
	// Returns:
	//   - [4]float32: the base color
	BaseColor() [4]float32

	// EmissionColor retrieves the RGBA emission used when no emission map is present.
	//
	// Returns:
	//   - [4]float32: the emission color
	EmissionColor() [4]float32

	// Scalars retrieves the uniform surface parameters.
	//
	// Returns:
	//   - Scalars: the parameters
	Scalars() Scalars

	// Texture retrieves the texture for a map, or nil if the map is absent.
	//
	// Parameters:
	//   - slot: the material map
	//
	// Returns:
	//   - gpu.Texture: the texture, or nil
	Texture(slot TextureSlot) gpu.Texture

	// SetTexture sets or clears the texture for a map. Invalid slots are ignored.
	//
	// Parameters:
	//   - slot: the material map
	//   - tex: the texture, or nil to clear the map
	SetTexture(slot TextureSlot, tex gpu.Texture)

	// PresentSlots returns the set of maps that have a texture.
	//
	// Returns:
	//   - SlotSet: the present maps
	PresentSlots() SlotSet

	// Uniforms builds the GPU record for this material.
	//
	// Returns:
	//   - GPUMaterialUniforms: the record
	Uniforms() GPUMaterialUniforms

	// BindTextures binds every present map that is active at level to the fragment stage.
	//
	// Parameters:
	//   - encoder: the encoder to bind on
	//   - level: the quality level being drawn
	BindTextures(encoder gpu.RenderCommandEncoder, level QualityLevel)
}

var _ Material = &material{}

// NewMaterial creates a new Material configured with the provided options. The default is an
// opaque white dielectric with full roughness.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		scalars: Scalars{
			Roughness:        1,
			AmbientOcclusion: 1,
			Opacity:          1,
		},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) EmissionColor() [4]float32 {
	return m.emissionColor
}

func (m *material) Scalars() Scalars {
	return m.scalars
}

func (m *material) Texture(slot TextureSlot) gpu.Texture {
	if !slot.Valid() {
		return nil
	}
	return m.textures[slot]
}

func (m *material) SetTexture(slot TextureSlot, tex gpu.Texture) {
	if !slot.Valid() {
		return
	}
	m.textures[slot] = tex
}

func (m *material) PresentSlots() SlotSet {
	var set SlotSet
	for i, tex := range m.textures {
		if tex != nil {
			set = set.Add(TextureSlot(i))
		}
	}
	return set
}

func (m *material) Uniforms() GPUMaterialUniforms {
	s := m.scalars
	return GPUMaterialUniforms{
		BaseColor:        m.baseColor,
		EmissionColor:    m.emissionColor,
		Roughness:        s.Roughness,
		Metalness:        s.Metalness,
		AmbientOcclusion: s.AmbientOcclusion,
		Opacity:          s.Opacity,
		Subsurface:       s.Subsurface,
		Specular:         s.Specular,
		SpecularTint:     s.SpecularTint,
		Anisotropic:      s.Anisotropic,
		Sheen:            s.Sheen,
		SheenTint:        s.SheenTint,
		Clearcoat:        s.Clearcoat,
		ClearcoatGloss:   s.ClearcoatGloss,
	}
}

func (m *material) BindTextures(encoder gpu.RenderCommandEncoder, level QualityLevel) {
	for i, tex := range m.textures {
		slot := TextureSlot(i)
		if tex == nil || !IsActive(slot, level) {
			continue
		}
		encoder.SetFragmentTexture(tex, int(slot.TextureIndex()))
	}
}
