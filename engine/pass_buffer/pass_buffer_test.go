package pass_buffer

import (
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type smallRecord struct {
	A float32
	B uint32
}

type matrixRecord struct {
	M     [16]float32
	Color [4]float32
	Flags [3]int32
	_     int32
}

type oddRecord struct {
	V [67]byte
}

func TestAlignedSizeIsMultipleOfAlignment(t *testing.T) {
	cases := []struct {
		record, count, want int
	}{
		{8, 1, 256},
		{8, 32, 256},
		{8, 33, 512},
		{96, 10, 1024},
		{67, 3, 256},
		{67, 4, 512},
		{256, 1, 256},
		{257, 1, 512},
		{16, 0, 256},
	}
	for _, c := range cases {
		got := AlignedSize(c.record, c.count)
		assert.Equal(t, c.want, got, "record=%d count=%d", c.record, c.count)
		assert.Zero(t, got%BufferAlignment)
		assert.GreaterOrEqual(t, got, c.record*c.count)
	}
}

func TestTotalSizeMatchesAllocation(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	for _, instances := range []int{1, 3, 17, 200} {
		for _, frames := range []int{1, 2, 3} {
			small := NewPassBuffer[smallRecord](instances, frames)
			require.NoError(t, small.Initialize(device, gpu.StorageModeShared))
			assert.Equal(t, AlignedSize(int(unsafe.Sizeof(smallRecord{})), instances)*frames, small.TotalSize())
			assert.Equal(t, small.TotalSize(), small.Buffer().Length())

			matrices := NewPassBuffer[matrixRecord](instances, frames)
			require.NoError(t, matrices.Initialize(device, gpu.StorageModeManaged))
			assert.Equal(t, matrices.AlignedSize()*frames, matrices.Buffer().Length())
			assert.GreaterOrEqual(t, matrices.AlignedSize(), int(unsafe.Sizeof(matrixRecord{}))*instances)

			odd := NewPassBuffer[oddRecord](instances, frames)
			assert.Zero(t, odd.AlignedSize()%BufferAlignment)
			assert.Equal(t, 67, odd.RecordStride())
		}
	}
}

func TestUninitializedBufferHasNoPointers(t *testing.T) {
	pb := NewPassBuffer[smallRecord](4, 3)
	assert.False(t, pb.IsInitialized())
	assert.Nil(t, pb.InstancePointer(0))
	assert.Nil(t, pb.Buffer())

	pb.Update(1)
	assert.Zero(t, pb.CurrentFrameOffset())
	assert.False(t, pb.Write(0, smallRecord{A: 1}))
}

func TestUpdateOutOfRangeIsNoOp(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	pb := NewPassBuffer[smallRecord](4, 2)
	require.NoError(t, pb.Initialize(device, gpu.StorageModeShared))

	pb.Update(1)
	offset := pb.CurrentFrameOffset()
	ptr := pb.InstancePointer(0)
	require.NotNil(t, ptr)
	assert.Equal(t, pb.AlignedSize(), offset)

	pb.Update(5)
	assert.Equal(t, offset, pb.CurrentFrameOffset())
	assert.Equal(t, 1, pb.FrameIndex())
	assert.Same(t, ptr, pb.InstancePointer(0))
}

func TestInstancePointerArithmetic(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	pb := NewPassBuffer[matrixRecord](5, 3)
	require.NoError(t, pb.Initialize(device, gpu.StorageModeShared))
	contents := pb.Buffer().Contents()

	for frame := 0; frame < 3; frame++ {
		pb.Update(frame)
		frameBase := uintptr(unsafe.Pointer(&contents[pb.CurrentFrameOffset()]))
		for j := 0; j < 5; j++ {
			ptr := pb.InstancePointer(j)
			require.NotNil(t, ptr)
			assert.Equal(t, frameBase+uintptr(j*pb.RecordStride()), uintptr(unsafe.Pointer(ptr)))
		}
		for _, j := range []int{5, 6, 100, -1} {
			assert.Nil(t, pb.InstancePointer(j))
		}
	}
}

func TestPrivateStorageExposesNoCPUPointer(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	pb := NewPassBuffer[smallRecord](2, 3)
	require.NoError(t, pb.Initialize(device, gpu.StorageModePrivate))
	pb.Update(2)
	assert.Equal(t, 2*pb.AlignedSize(), pb.CurrentFrameOffset())
	assert.Nil(t, pb.InstancePointer(0))
	_, ok := pb.Read(0)
	assert.False(t, ok)
}

func TestWriteReadRoundTrip(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	pb := NewPassBuffer[matrixRecord](3, 3)
	require.NoError(t, pb.Initialize(device, gpu.StorageModeShared))

	written := make([]matrixRecord, 3)
	for frame := 0; frame < 3; frame++ {
		pb.Update(frame)
		rec := matrixRecord{Flags: [3]int32{int32(frame), 7, -1}}
		for i := range rec.M {
			rec.M[i] = float32(frame*100 + i)
		}
		require.True(t, pb.Write(2, rec))
		written[frame] = rec

		got, ok := pb.Read(2)
		require.True(t, ok)
		assert.Equal(t, rec, got)
	}

	for frame := 0; frame < 3; frame++ {
		pb.Update(frame)
		got, ok := pb.Read(2)
		require.True(t, ok)
		assert.Equal(t, written[frame], got, "frame slots must not overlap")
	}
}

func TestReinitializeReplacesAllocation(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	pb := NewPassBuffer[smallRecord](2, 2)
	require.NoError(t, pb.Initialize(device, gpu.StorageModeShared))
	first := pb.Buffer()
	pb.Update(1)

	require.NoError(t, pb.Initialize(device, gpu.StorageModeShared))
	assert.NotSame(t, first, pb.Buffer())
	assert.Zero(t, pb.CurrentFrameOffset())
	assert.Nil(t, first.Contents(), "previous allocation is released")

	pb.Release()
	assert.False(t, pb.IsInitialized())
}

func TestBindUsesFrameOffset(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	pb := NewPassBuffer[smallRecord](2, 3, WithLabel("instances"))
	require.NoError(t, pb.Initialize(device, gpu.StorageModeShared))
	pb.Update(2)

	queue, err := device.MakeCommandQueue("q")
	require.NoError(t, err)
	cb, err := queue.MakeCommandBuffer("cb")
	require.NoError(t, err)
	enc, err := cb.MakeRenderCommandEncoder(&gpu.RenderPassDescriptor{})
	require.NoError(t, err)
	pb.BindVertex(enc, 2)
	pb.BindFragment(enc, 2)
	enc.EndEncoding()

	var binds []gpu.Event
	for _, e := range device.Events() {
		if e.Kind == gpu.EventSetVertexBuffer || e.Kind == gpu.EventSetFragmentBuffer {
			binds = append(binds, e)
		}
	}
	require.Len(t, binds, 2)
	for _, b := range binds {
		assert.Equal(t, "instances", b.Name)
		assert.Equal(t, 2*pb.AlignedSize(), b.Offset)
		assert.Equal(t, 2, b.Index)
	}
}
