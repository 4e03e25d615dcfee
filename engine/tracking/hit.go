package tracking

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// featurePointHitRadius is how close a feature point must lie to the ray to be hit.
const featurePointHitRadius = 0.02

// ScreenRay returns the world-space ray through a normalized image point.
//
// Parameters:
//   - cam: the camera state of the frame
//   - point: the normalized image point, (0,0) top left
//
// Returns:
//   - mgl32.Vec3: the ray origin on the near plane
//   - mgl32.Vec3: the unit ray direction
func ScreenRay(cam CameraState, point mgl32.Vec2) (mgl32.Vec3, mgl32.Vec3) {
	inv := cam.Projection.Mul4(cam.Transform.Inv()).Inv()
	x := 2*point.X() - 1
	y := 1 - 2*point.Y()
	near := inv.Mul4x1(mgl32.Vec4{x, y, 0, 1})
	far := inv.Mul4x1(mgl32.Vec4{x, y, 1, 1})
	origin := near.Vec3().Mul(1 / near.W())
	end := far.Vec3().Mul(1 / far.W())
	return origin, end.Sub(origin).Normalize()
}

// intersectPlane returns the distance along the ray to the plane through point with normal,
// or false when the ray is parallel to or points away from the plane.
func intersectPlane(origin, dir, point, normal mgl32.Vec3) (float32, bool) {
	denom := normal.Dot(dir)
	if float32(math.Abs(float64(denom))) < 1e-6 {
		return 0, false
	}
	t := point.Sub(origin).Dot(normal) / denom
	return t, t > 0
}

// hitTestPlanes evaluates every plane anchor and the estimated floor against a ray. A plane hit
// is reported once per requested type it satisfies.
func hitTestPlanes(origin, dir mgl32.Vec3, anchors []Anchor, floorHeight float32, types HitTestType) []HitTestResult {
	var results []HitTestResult
	add := func(typ HitTestType, t float32, a *Anchor) {
		p := origin.Add(dir.Mul(t))
		results = append(results, HitTestResult{Type: typ, Distance: t, WorldTransform: mgl32.Translate3D(p[0], p[1], p[2]), Anchor: a})
	}

	for i := range anchors {
		a := &anchors[i]
		if a.Kind != AnchorKindPlane || a.Plane == nil {
			continue
		}
		normal := a.Transform.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3().Normalize()
		center := a.Transform.Mul4x1(a.Plane.Center.Vec4(1)).Vec3()
		t, ok := intersectPlane(origin, dir, center, normal)
		if !ok {
			continue
		}
		if types&HitTestExistingPlane != 0 {
			add(HitTestExistingPlane, t, a)
		}
		if types&(HitTestExistingPlaneUsingExtent|HitTestExistingPlaneUsingGeometry) != 0 {
			local := a.Transform.Inv().Mul4x1(origin.Add(dir.Mul(t)).Vec4(1)).Vec3().Sub(a.Plane.Center)
			if abs32(local.X()) <= a.Plane.Extent.X()/2 && abs32(local.Z()) <= a.Plane.Extent.Y()/2 {
				if types&HitTestExistingPlaneUsingExtent != 0 {
					add(HitTestExistingPlaneUsingExtent, t, a)
				}
				if types&HitTestExistingPlaneUsingGeometry != 0 {
					add(HitTestExistingPlaneUsingGeometry, t, a)
				}
			}
		}
		if a.Plane.Alignment == PlaneAlignmentVertical && types&HitTestEstimatedVerticalPlane != 0 {
			add(HitTestEstimatedVerticalPlane, t, nil)
		}
	}

	if types&HitTestEstimatedHorizontalPlane != 0 {
		if t, ok := intersectPlane(origin, dir, mgl32.Vec3{0, floorHeight, 0}, mgl32.Vec3{0, 1, 0}); ok {
			add(HitTestEstimatedHorizontalPlane, t, nil)
		}
	}
	return results
}

func hitTestFeaturePoints(origin, dir mgl32.Vec3, points []mgl32.Vec3) []HitTestResult {
	var results []HitTestResult
	for _, p := range points {
		t := p.Sub(origin).Dot(dir)
		if t <= 0 {
			continue
		}
		if origin.Add(dir.Mul(t)).Sub(p).Len() <= featurePointHitRadius {
			results = append(results, HitTestResult{Type: HitTestFeaturePoint, Distance: t, WorldTransform: mgl32.Translate3D(p[0], p[1], p[2])})
		}
	}
	return results
}

func sortResults(results []HitTestResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
