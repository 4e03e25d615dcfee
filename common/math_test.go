package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestLerpMat4ClampsProgress(t *testing.T) {
	from := mgl32.Translate3D(0, 0, 0)
	to := mgl32.Translate3D(10, 0, -4)

	assert.Equal(t, mgl32.Vec3{5, 0, -2}, Translation(LerpMat4(from, to, 0.5)))
	assert.Equal(t, from, LerpMat4(from, to, -1))
	assert.Equal(t, to, LerpMat4(from, to, 2))
}

func TestWithTranslation(t *testing.T) {
	m := WithTranslation(mgl32.HomogRotate3DY(1), mgl32.Vec3{1, 2, 3})
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, Translation(m))
	assert.Equal(t, mgl32.HomogRotate3DY(1).Col(0), m.Col(0))
}

func TestYawToward(t *testing.T) {
	forward := mgl32.Vec4{0, 0, -1, 0}

	turned := YawToward(mgl32.Vec3{}, mgl32.Vec3{1, 5, 0}).Mul4x1(forward)
	assert.InDelta(t, 1, turned.X(), 1e-5)
	assert.InDelta(t, 0, turned.Y(), 1e-5)
	assert.InDelta(t, 0, turned.Z(), 1e-5)

	assert.Equal(t, mgl32.Ident4(), YawToward(mgl32.Vec3{1, 0, 1}, mgl32.Vec3{1, 3, 1}))
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 50)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -50, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-4)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-4)

	ortho := Ortho(-1, 1, -1, 1, 0, 10)
	assert.InDelta(t, 0, ortho.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Z(), 1e-5)
	assert.InDelta(t, 1, ortho.Mul4x1(mgl32.Vec4{0, 0, -10, 1}).Z(), 1e-5)
}

func TestFrustumIntersectsSphere(t *testing.T) {
	viewProj := Perspective(math.Pi/2, 1, 0.1, 100)
	f := FrustumFromMatrix(viewProj)

	assert.True(t, f.IntersectsSphere(mgl32.Vec3{0, 0, -10}, 1))
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{0, 0, 10}, 1))
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{0, 0, -200}, 1))
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{-30, 0, -10}, 1))

	// straddling the left plane
	assert.True(t, f.IntersectsSphere(mgl32.Vec3{-10.5, 0, -10}, 1))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
	assert.Equal(t, "a", Coalesce("", "a"))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32(nil)))

	b := SliceToBytes([]uint32{0x04030201})
	assert.Equal(t, []byte{1, 2, 3, 4}, b)

	v := struct{ A, B uint16 }{A: 1, B: 2}
	assert.Len(t, StructToBytes(&v), 4)
}
