package module

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/entity"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	// DefaultPathWidth is the diameter of path segments in meters.
	DefaultPathWidth float32 = 0.02

	// SurfaceAlpha is the opacity detected planes are drawn with.
	SurfaceAlpha float32 = 0.35
)

// SurfaceTint is the color detected planes are drawn with.
var SurfaceTint = [3]float32{0.3, 0.7, 1.0}

// NewAnchorsModule creates the module drawing entities attached to tracking anchors. Each
// instance is lit by the environment probe the entity sits in, when there is one.
//
// Parameters:
//   - options: variadic list of MeshModuleOption functions
//
// Returns:
//   - MeshModule: the module
func NewAnchorsModule(options ...MeshModuleOption) MeshModule {
	return newMeshModule(IDAnchors, RenderLayerAnchors, collectAnchors, options...)
}

func collectAnchors(frame *FrameState) []Instance {
	if frame.Entities == nil {
		return nil
	}
	probes := make(map[uuid.UUID]gpu.Texture)
	for _, a := range frame.Frame.Anchors {
		if a.Probe != nil && a.Probe.EnvironmentTexture != nil {
			probes[a.ID] = a.Probe.EnvironmentTexture
		}
	}
	var out []Instance
	frame.Entities.Each(entity.KindAnchor, func(_ entity.Handle, e *entity.Entity) {
		inst := entityInstance(e)
		if id := e.EnvironmentProbe(); id != uuid.Nil {
			inst.Probe = probes[id]
		}
		out = append(out, inst)
	})
	return out
}

// NewUnanchoredModule creates the module drawing trackers and gaze targets: entities
// positioned relative to the camera or to a hit-test result rather than to an anchor.
//
// Parameters:
//   - options: variadic list of MeshModuleOption functions
//
// Returns:
//   - MeshModule: the module
func NewUnanchoredModule(options ...MeshModuleOption) MeshModule {
	return newMeshModule(IDUnanchored, RenderLayerUnanchored, collectUnanchored, options...)
}

func collectUnanchored(frame *FrameState) []Instance {
	if frame.Entities == nil {
		return nil
	}
	var out []Instance
	add := func(_ entity.Handle, e *entity.Entity) {
		out = append(out, entityInstance(e))
	}
	frame.Entities.Each(entity.KindTracker, add)
	frame.Entities.Each(entity.KindGazeTarget, add)
	return out
}

func entityInstance(e *entity.Entity) Instance {
	return Instance{
		Geometry:     e.Geometry,
		Uniforms:     e.InstanceUniforms(true, [14]float32{}),
		Effects:      e.Effects,
		CastsShadows: e.CastsShadows,
	}
}

// NewPathsModule creates the module drawing paths. Consecutive path points sharing a path ID
// are joined by a cylinder segment.
//
// Parameters:
//   - options: variadic list of MeshModuleOption functions
//
// Returns:
//   - MeshModule: the module
func NewPathsModule(options ...MeshModuleOption) MeshModule {
	m := newMeshModule(IDPaths, RenderLayerPaths, nil, options...)
	m.RequestGeometry(asset.HandleCylinder)
	m.collect = func(frame *FrameState) []Instance {
		return collectPaths(frame, m.pathWidth)
	}
	return m
}

func collectPaths(frame *FrameState, width float32) []Instance {
	if frame.Entities == nil {
		return nil
	}
	type point struct {
		position mgl32.Vec3
		effects  model.GPUAnchorEffectsUniforms
		shadows  bool
	}
	last := make(map[uuid.UUID]point)
	var out []Instance
	frame.Entities.Each(entity.KindPathPoint, func(_ entity.Handle, e *entity.Entity) {
		p := point{position: e.World().Col(3).Vec3(), effects: e.Effects, shadows: e.CastsShadows}
		prev, ok := last[e.PathID]
		last[e.PathID] = p
		if !ok {
			return
		}
		transform, ok := SegmentTransform(prev.position, p.position, width)
		if !ok {
			return
		}
		effects := prev.effects
		effects.Scale = [16]float32(mgl32.Ident4())
		out = append(out, Instance{
			Geometry: asset.HandleCylinder,
			Uniforms: model.GPUAnchorInstanceUniforms{
				HeadingTransform:  [16]float32(mgl32.Ident4()),
				LocationTransform: [16]float32(transform),
				WorldTransform:    [16]float32(transform),
			},
			Effects:      effects,
			CastsShadows: prev.shadows,
		})
	})
	return out
}

// SegmentTransform maps the unit cylinder, radius 0.5 from y=0 to y=1, onto the segment from a
// to b with the given diameter.
//
// Parameters:
//   - a: the segment start
//   - b: the segment end
//   - width: the segment diameter
//
// Returns:
//   - mgl32.Mat4: the model matrix
//   - bool: false when a and b coincide
func SegmentTransform(a, b mgl32.Vec3, width float32) (mgl32.Mat4, bool) {
	dir := b.Sub(a)
	length := dir.Len()
	if length < 1e-6 {
		return mgl32.Ident4(), false
	}
	rotation := mgl32.QuatBetweenVectors(mgl32.Vec3{0, 1, 0}, dir.Mul(1/length)).Mat4()
	return mgl32.Translate3D(a.X(), a.Y(), a.Z()).
		Mul4(rotation).
		Mul4(mgl32.Scale3D(width, length, width)), true
}

// NewSurfacesModule creates the module drawing detected planes as translucent quads. Surfaces
// never cast shadows.
//
// Parameters:
//   - options: variadic list of MeshModuleOption functions
//
// Returns:
//   - MeshModule: the module
func NewSurfacesModule(options ...MeshModuleOption) MeshModule {
	options = append([]MeshModuleOption{WithCastsShadows(false), WithCullMode(gpu.CullModeNone)}, options...)
	m := newMeshModule(IDSurfaces, RenderLayerSurfaces, collectSurfaces, options...)
	m.RequestGeometry(asset.HandleQuad)
	return m
}

func collectSurfaces(frame *FrameState) []Instance {
	var out []Instance
	for _, a := range frame.Frame.Anchors {
		if a.Kind != tracking.AnchorKindPlane || a.Plane == nil {
			continue
		}
		transform := SurfaceTransform(a)
		effects := model.DefaultEffects()
		effects.Alpha = SurfaceAlpha
		effects.Tint = SurfaceTint
		out = append(out, Instance{
			Geometry: asset.HandleQuad,
			Uniforms: model.GPUAnchorInstanceUniforms{
				HeadingTransform:  [16]float32(mgl32.Ident4()),
				LocationTransform: [16]float32(a.Transform),
				WorldTransform:    [16]float32(transform),
			},
			Effects: effects,
		})
	}
	return out
}

// SurfaceTransform maps the unit quad onto a plane anchor's extent.
//
// Parameters:
//   - a: the plane anchor
//
// Returns:
//   - mgl32.Mat4: the model matrix
func SurfaceTransform(a tracking.Anchor) mgl32.Mat4 {
	c := a.Plane.Center
	return a.Transform.
		Mul4(mgl32.Translate3D(c.X(), c.Y(), c.Z())).
		Mul4(mgl32.Scale3D(a.Plane.Extent.X(), 1, a.Plane.Extent.Y()))
}
