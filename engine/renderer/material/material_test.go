package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureSlotPolicy(t *testing.T) {
	assert.True(t, IsActive(TextureSlotBaseColor, QualityLevelMedium))
	assert.False(t, IsActive(TextureSlotNormal, QualityLevelMedium))
	assert.True(t, IsActive(TextureSlotNormal, QualityLevelHigh))
	assert.True(t, IsActive(TextureSlotEmission, QualityLevelMedium))
	assert.False(t, IsActive(TextureSlotBaseColor, QualityLevelLow))
	assert.False(t, IsActive(TextureSlotEmission, QualityLevelLow))

	for i := 0; i < NumTextureSlots; i++ {
		slot := TextureSlot(i)
		assert.True(t, IsActive(slot, QualityLevelHigh), "every map is sampled at high quality: %s", slot)
		assert.False(t, IsActive(slot, QualityLevelLow), "no map is sampled at low quality: %s", slot)
	}
}

func TestFunctionConstantsRequirePresenceAndActivity(t *testing.T) {
	present := SlotSet(0).Add(TextureSlotBaseColor).Add(TextureSlotNormal)

	high := FunctionConstants(present, QualityLevelHigh)
	assert.Equal(t, NumTextureSlots, high.Len())
	v, ok := high.Bool(int(shader.FunctionConstantBaseColorMap))
	require.True(t, ok)
	assert.True(t, v)
	v, _ = high.Bool(int(shader.FunctionConstantNormalMap))
	assert.True(t, v)
	v, _ = high.Bool(int(shader.FunctionConstantMetallicMap))
	assert.False(t, v, "absent maps stay disabled")

	medium := FunctionConstants(present, QualityLevelMedium)
	v, _ = medium.Bool(int(shader.FunctionConstantBaseColorMap))
	assert.True(t, v)
	v, _ = medium.Bool(int(shader.FunctionConstantNormalMap))
	assert.False(t, v)

	low := FunctionConstants(present, QualityLevelLow)
	for _, c := range low.Constants() {
		assert.False(t, c.Value, c.Name)
	}
	assert.NotEqual(t, high.Key(), medium.Key())
}

func TestMapWeights(t *testing.T) {
	medium := MapWeights(QualityLevelMedium)
	assert.Equal(t, float32(1), medium[TextureSlotBaseColor])
	assert.Equal(t, float32(1), medium[TextureSlotEmission])
	assert.Equal(t, float32(0), medium[TextureSlotRoughness])
	assert.Equal(t, [NumTextureSlots]float32{}, MapWeights(QualityLevelLow))
}

func TestSlotsMapToTextureIndices(t *testing.T) {
	assert.Equal(t, shader.TextureIndexColor, TextureSlotBaseColor.TextureIndex())
	assert.Equal(t, shader.TextureIndexEmissionMap, TextureSlotEmission.TextureIndex())
	assert.Equal(t, shader.TextureIndexClearcoatGlossMap, TextureSlotClearcoatGloss.TextureIndex())
	assert.Equal(t, "has_sheen_map", TextureSlotSheen.FunctionConstant().Name())
	assert.False(t, TextureSlot(NumTextureSlots).Valid())
}

func TestMaterialTexturesAndBinding(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	base, err := device.MakeTexture(gpu.TextureDescriptor{Label: "base", Width: 2, Height: 2, Format: gpu.PixelFormatRGBA8Unorm})
	require.NoError(t, err)
	normal, err := device.MakeTexture(gpu.TextureDescriptor{Label: "normal", Width: 2, Height: 2, Format: gpu.PixelFormatRGBA8Unorm})
	require.NoError(t, err)

	m := NewMaterial(WithName("brick"), WithTexture(TextureSlotBaseColor, base), WithTexture(TextureSlotNormal, normal))
	assert.True(t, m.PresentSlots().Has(TextureSlotNormal))
	assert.False(t, m.PresentSlots().Has(TextureSlotSheen))

	queue, err := device.MakeCommandQueue("q")
	require.NoError(t, err)
	cb, err := queue.MakeCommandBuffer("cb")
	require.NoError(t, err)
	enc, err := cb.MakeRenderCommandEncoder(&gpu.RenderPassDescriptor{})
	require.NoError(t, err)
	m.BindTextures(enc, QualityLevelMedium)
	enc.EndEncoding()

	var bound []int
	for _, e := range device.Events() {
		if e.Kind == gpu.EventSetFragmentTexture {
			bound = append(bound, e.Index)
		}
	}
	assert.Equal(t, []int{int(shader.TextureIndexColor)}, bound, "normal map is not bound at medium quality")

	m.SetTexture(TextureSlotNormal, nil)
	assert.False(t, m.PresentSlots().Has(TextureSlotNormal))
}

func TestMaterialUniformsLayout(t *testing.T) {
	m := NewMaterial(WithBaseColor([4]float32{0.5, 0.25, 1, 1}), WithMetalness(0.75))
	u := m.Uniforms()
	assert.Equal(t, 80, u.Size())
	buf := u.Marshal()
	assert.Len(t, buf, u.Size())
	assert.Equal(t, float32(0.75), u.Metalness)
	assert.Equal(t, float32(1), u.Roughness)

	layouts := shader.StructLayouts(GPUMaterialUniformsSource)
	require.Contains(t, layouts, "MaterialUniforms")
	assert.Equal(t, uint64(u.Size()), layouts["MaterialUniforms"].Size)
}
