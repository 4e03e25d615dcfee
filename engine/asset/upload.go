package asset

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
)

// Upload creates the GPU model for loaded mesh data. Textures are loaded through loader;
// a nil loader uploads untextured materials.
//
// Parameters:
//   - device: the device to allocate on
//   - data: the loaded mesh
//   - loader: the texture loader, may be nil
//
// Returns:
//   - model.Model: the uploaded model
//   - error: an error if the mesh is empty or a buffer cannot be allocated
func Upload(device gpu.Device, data *MeshData, loader TextureLoader) (model.Model, error) {
	if data == nil || len(data.Indices) < 3 {
		return nil, ErrEmptyGeometry
	}
	materials := make([]material.Material, 0, len(data.Materials))
	for _, desc := range data.Materials {
		materials = append(materials, buildMaterial(device, desc, loader))
	}
	m, err := model.Upload(device, model.MeshSource{
		Name:      data.Name,
		Vertices:  data.Vertices,
		Indices:   data.Indices,
		Submeshes: data.Submeshes,
		Materials: materials,
		Palette:   data.Palette,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %q: %w", data.Name, err)
	}
	return m, nil
}

func buildMaterial(device gpu.Device, desc Material, loader TextureLoader) material.Material {
	opts := []material.MaterialBuilderOption{
		material.WithName(desc.Name),
		material.WithBaseColor(desc.BaseColor),
		material.WithEmissionColor(desc.EmissionColor),
		material.WithScalars(desc.Scalars),
	}
	if loader != nil {
		for slot, ref := range desc.Textures {
			if !slot.Valid() {
				continue
			}
			srgb := slot == material.TextureSlotBaseColor || slot == material.TextureSlotEmission
			tex := loader.LoadTexture(device, ref, srgb)
			if tex == nil {
				common.Logger().Debug("texture unavailable, using uniform value", "material", desc.Name, "slot", slot.String(), "texture", ref.Key())
				continue
			}
			opts = append(opts, material.WithTexture(slot, tex))
		}
	}
	return material.NewMaterial(opts...)
}
