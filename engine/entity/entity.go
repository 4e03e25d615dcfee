// Package entity keeps the renderable things placed in the tracked world: anchored objects,
// camera-relative trackers, gaze targets and path points. Entities live in an arena addressed
// by generation-checked handles so parent links never dangle.
package entity

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Kind selects which render module draws an entity.
type Kind int

const (
	KindAnchor Kind = iota
	KindTracker
	KindGazeTarget
	KindPathPoint
)

func (k Kind) String() string {
	switch k {
	case KindAnchor:
		return "anchor"
	case KindTracker:
		return "tracker"
	case KindGazeTarget:
		return "gaze-target"
	case KindPathPoint:
		return "path-point"
	}
	return "unknown"
}

// Handle addresses an entity in a Registry. The zero Handle never refers to an entity.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

// Heading orients an entity. Absolute headings keep Rotation; relative headings turn the
// entity about +Y to face the camera every frame.
type Heading struct {
	Type     shader.HeadingType
	Rotation mgl32.Mat4
}

// AbsoluteHeading returns a heading fixed at rotation.
func AbsoluteHeading(rotation mgl32.Mat4) *Heading {
	return &Heading{Type: shader.HeadingTypeAbsolute, Rotation: rotation}
}

// RelativeHeading returns a heading that faces the camera.
func RelativeHeading() *Heading {
	return &Heading{Type: shader.HeadingTypeRelative, Rotation: mgl32.Ident4()}
}

// Entity is one placed renderable.
type Entity struct {
	Kind     Kind
	Geometry asset.Handle

	// Location is the entity's transform, relative to its parent when one is set.
	Location mgl32.Mat4

	// Heading is nil when the entity keeps the orientation of Location.
	Heading *Heading

	// Parent links the entity's position to another entity.
	Parent Handle

	// FollowCamera pins the entity to the camera; Location is then camera-relative.
	FollowCamera bool

	// AnchorID is the tracking anchor the entity is attached to, if any.
	AnchorID uuid.UUID

	// PathID groups path points; consecutive points with the same PathID form segments.
	PathID uuid.UUID

	// Effects are the per-instance fade, glow, tint and scale.
	Effects model.GPUAnchorEffectsUniforms

	// CastsShadows includes the entity in the shadow pass.
	CastsShadows bool

	world      mgl32.Mat4
	headingMat mgl32.Mat4
	probe      uuid.UUID
	relocation *relocation
}

// New returns an entity of kind at location with neutral effects that casts shadows.
//
// Parameters:
//   - kind: the entity kind
//   - geometry: the geometry drawn for the entity
//   - location: the initial transform
//
// Returns:
//   - Entity: the entity
func New(kind Kind, geometry asset.Handle, location mgl32.Mat4) Entity {
	return Entity{
		Kind:         kind,
		Geometry:     geometry,
		Location:     location,
		Effects:      model.DefaultEffects(),
		CastsShadows: true,
		world:        location,
		headingMat:   mgl32.Ident4(),
	}
}

// World returns the effective transform computed by the last UpdateTransforms and UpdateHeading.
func (e *Entity) World() mgl32.Mat4 {
	return e.world
}

// HeadingTransform returns the rotation applied by the entity's heading.
func (e *Entity) HeadingTransform() mgl32.Mat4 {
	return e.headingMat
}

// EnvironmentProbe returns the probe anchor the entity is lit by, or uuid.Nil.
func (e *Entity) EnvironmentProbe() uuid.UUID {
	return e.probe
}

// Relocating reports whether the entity is moving toward a new location.
func (e *Entity) Relocating() bool {
	return e.relocation != nil
}

// InstanceUniforms builds the per-instance GPU record for the entity.
//
// Parameters:
//   - hasGeometry: whether the entity's geometry has loaded
//   - mapWeights: the material map weights for the quality level being drawn
//
// Returns:
//   - model.GPUAnchorInstanceUniforms: the record
func (e *Entity) InstanceUniforms(hasGeometry bool, mapWeights [14]float32) model.GPUAnchorInstanceUniforms {
	u := model.GPUAnchorInstanceUniforms{
		HeadingTransform:  [16]float32(e.headingMat),
		LocationTransform: [16]float32(e.Location),
		WorldTransform:    [16]float32(e.world),
		MapWeights:        mapWeights,
	}
	if hasGeometry {
		u.HasGeometry = 1
	}
	if e.Heading != nil {
		u.HasHeading = 1
		u.HeadingType = int32(e.Heading.Type)
	}
	return u
}
