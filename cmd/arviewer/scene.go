package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/Carmen-Shannon/oxy-ar/engine/entity"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	floorHeight  = 0
	featureCount = 400

	// Captured images are simulated at a fraction of the window size.
	imageDivisor = 8
	probeFace    = 16
)

// newSession builds a synthetic session with a floor plane, an environment probe around it and
// a scatter of feature points.
func newSession(device gpu.Device, width, height int) (tracking.SyntheticSession, error) {
	y, cbcr, err := capturedImages(device, max(width/imageDivisor, 2), max(height/imageDivisor, 2))
	if err != nil {
		return nil, err
	}
	env, err := environmentMap(device)
	if err != nil {
		return nil, err
	}

	cam := camera.NewCamera(
		camera.WithAspect(float32(width)/float32(max(height, 1))),
		camera.WithClipPlanes(0.01, 100),
		camera.WithController(camera.NewOrbitController(
			camera.WithRadius(2.5),
			camera.WithElevation(0.45),
			camera.WithTarget(mgl32.Vec3{0, floorHeight, 0}),
			camera.WithRadiusBounds(0.3, 20),
		)),
	)
	session := tracking.NewSyntheticSession(
		tracking.WithCamera(cam),
		tracking.WithImageResolution(width, height),
		tracking.WithFloorHeight(floorHeight),
		tracking.WithCapturedImages(y, cbcr),
	)

	session.AddAnchor(tracking.Anchor{
		Kind:      tracking.AnchorKindPlane,
		Transform: mgl32.Translate3D(0, floorHeight, 0),
		Plane: &tracking.Plane{
			Alignment: tracking.PlaneAlignmentHorizontal,
			Extent:    mgl32.Vec2{3, 3},
		},
	})
	session.AddAnchor(tracking.Anchor{
		Kind:      tracking.AnchorKindEnvironmentProbe,
		Transform: mgl32.Translate3D(0, floorHeight+1, 0),
		Probe: &tracking.Probe{
			Extent:             mgl32.Vec3{6, 3, 6},
			EnvironmentTexture: env,
		},
	})
	session.SetFeaturePoints(tracking.ScatterFeaturePoints(featureCount, 3, floorHeight, 1))
	return session, nil
}

// populate places the initial content: a model on the floor, a short path around it, a gaze
// target and a tracker pinned in front of the camera.
func populate(r renderer.Renderer, session tracking.SyntheticSession, model asset.Handle) {
	centerpiece, size := asset.HandleCube, float32(0.25)
	if model != "" {
		centerpiece, size = model, 1
	}
	id := session.AddAnchor(tracking.Anchor{Transform: mgl32.Translate3D(0, floorHeight, 0)})
	placeAnchored(r, id, centerpiece, mgl32.Translate3D(0, floorHeight, 0), size)

	r.AddPath([]mgl32.Vec3{
		{-1, floorHeight, -1},
		{1, floorHeight, -1},
		{1, floorHeight, 1},
		{-1, floorHeight, 1},
	})
	r.AddGazeTarget(asset.HandleQuad)

	tracker := entity.New(entity.KindTracker, asset.HandleCylinder, mgl32.Translate3D(0.25, -0.15, -0.6))
	tracker.FollowCamera = true
	tracker.CastsShadows = false
	tracker.Effects.Scale = mgl32.Scale3D(0.03, 0.03, 0.03)
	tracker.Effects.Tint = [3]float32{0.2, 0.8, 1}
	r.AddEntity(tracker)
}

// placeAnchored attaches geometry scaled uniformly by size to a session anchor.
func placeAnchored(r renderer.Renderer, anchorID uuid.UUID, geometry asset.Handle, transform mgl32.Mat4, size float32) entity.Handle {
	e := entity.New(entity.KindAnchor, geometry, transform)
	e.AnchorID = anchorID
	e.Effects.Scale = mgl32.Scale3D(size, size, size)
	return r.AddEntity(e)
}

// capturedImages fills the luma plane with a vertical gradient and the chroma plane with
// neutral gray, a stand-in for the camera feed.
func capturedImages(device gpu.Device, width, height int) (gpu.Texture, gpu.Texture, error) {
	y, err := device.MakeTexture(gpu.TextureDescriptor{
		Label:  "captured-y",
		Format: gpu.PixelFormatR8Unorm,
		Width:  width,
		Height: height,
		Usage:  gpu.TextureUsageShaderRead | gpu.TextureUsageCopyDestination,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create luma texture: %w", err)
	}
	luma := make([]byte, width*height)
	for row := range height {
		v := byte(40 + 150*row/height)
		for col := range width {
			luma[row*width+col] = v
		}
	}
	if err := y.Replace(luma, width); err != nil {
		return nil, nil, err
	}

	cw, ch := max(width/2, 1), max(height/2, 1)
	cbcr, err := device.MakeTexture(gpu.TextureDescriptor{
		Label:  "captured-cbcr",
		Format: gpu.PixelFormatRG8Unorm,
		Width:  cw,
		Height: ch,
		Usage:  gpu.TextureUsageShaderRead | gpu.TextureUsageCopyDestination,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create chroma texture: %w", err)
	}
	chroma := make([]byte, cw*ch*2)
	for i := range chroma {
		chroma[i] = 128
	}
	if err := cbcr.Replace(chroma, cw*2); err != nil {
		return nil, nil, err
	}
	return y, cbcr, nil
}

// environmentMap builds a cube map stored as six square faces stacked vertically: a bright sky
// on the upper faces fading to a darker floor.
func environmentMap(device gpu.Device) (gpu.Texture, error) {
	tex, err := device.MakeTexture(gpu.TextureDescriptor{
		Label:  "environment",
		Format: gpu.PixelFormatRGBA8Unorm,
		Width:  probeFace,
		Height: probeFace * 6,
		Usage:  gpu.TextureUsageShaderRead | gpu.TextureUsageCopyDestination,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create environment map: %w", err)
	}
	faceColors := [6][3]byte{
		{170, 190, 215}, {170, 190, 215}, // +X, -X
		{210, 225, 245}, {70, 65, 60}, // +Y, -Y
		{170, 190, 215}, {170, 190, 215}, // +Z, -Z
	}
	pixels := make([]byte, probeFace*probeFace*6*4)
	for face, c := range faceColors {
		base := face * probeFace * probeFace * 4
		for i := range probeFace * probeFace {
			p := pixels[base+i*4:]
			p[0], p[1], p[2], p[3] = c[0], c[1], c[2], 255
		}
	}
	if err := tex.Replace(pixels, probeFace*4); err != nil {
		return nil, err
	}
	return tex, nil
}
