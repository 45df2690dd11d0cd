package vku

import (
	"bytes"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestUploadCopyDataRoundTrip(t *testing.T) {
	device, _ := testDevice(t)

	for _, n := range []int{0, 1, 10, 4096} {
		data := make([]int32, n)
		for i := range data {
			data[i] = int32(i)
		}

		buffer, err := NewHostVisibleBufferWithData(device, data, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
		if err != nil {
			t.Fatalf("n=%d: buffer creation failed: %v", n, err)
		}

		out, err := CopyData[int32](buffer)
		if err != nil {
			t.Fatalf("n=%d: copy failed: %v", n, err)
		}
		if len(out) != n {
			t.Errorf("n=%d: got %d values back", n, len(out))
		}
		for i := range out {
			if out[i] != data[i] {
				t.Errorf("n=%d: value %d changed: got %d", n, i, out[i])
				break
			}
		}

		buffer.Destroy()
	}
}

func TestBufferSizeAtLeastContentSize(t *testing.T) {
	device, _ := testDevice(t)

	buffer, err := NewHostVisibleBuffer(device, 100, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	if buffer.Size < buffer.ContentSize {
		t.Errorf("backing size %d below content size %d", buffer.Size, buffer.ContentSize)
	}
}

func TestCopyAlignedToMatchesUpload(t *testing.T) {
	device, _ := testDevice(t)

	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	plain, err := NewHostVisibleBuffer(device, uint64(len(data)), vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer plain.Destroy()

	strided, err := NewHostVisibleBuffer(device, uint64(len(data)), vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer strided.Destroy()

	if err := plain.Upload(data); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := strided.CopyAlignedTo(data, 4, 4); err != nil {
		t.Fatalf("aligned copy failed: %v", err)
	}

	a, err := plain.CopyBytes()
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	b, err := strided.CopyBytes()
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("aligned copy with stride == element size differs from plain upload")
	}
}

func TestUploadAtOffsetLeavesRestUntouched(t *testing.T) {
	device, _ := testDevice(t)

	buffer, err := NewHostVisibleBuffer(device, 32, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	fill := bytes.Repeat([]byte{0xaa}, 32)
	if err := buffer.Upload(fill); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	patch := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := buffer.UploadAt(8, patch); err != nil {
		t.Fatalf("offset upload failed: %v", err)
	}

	out, err := buffer.CopyBytes()
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	if !bytes.Equal(out[8:16], patch) {
		t.Errorf("patched range wrong: %v", out[8:16])
	}
	if !bytes.Equal(out[:8], fill[:8]) || !bytes.Equal(out[16:], fill[16:]) {
		t.Errorf("bytes outside the patched range changed: %v", out)
	}
}

func TestUploadAtBeyondSizeFails(t *testing.T) {
	device, _ := testDevice(t)

	buffer, err := NewHostVisibleBuffer(device, 16, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	if err := buffer.UploadAt(buffer.Size-4, make([]byte, 8)); err == nil {
		t.Error("offset upload past the backing size succeeded")
	}
}

func TestCopyAlignedToPlacesElementsAtStrideBoundaries(t *testing.T) {
	device, _ := testDevice(t)

	const (
		elementSize = 4
		stride      = 8
		elements    = 4
	)

	buffer, err := NewHostVisibleBuffer(device, elements*stride, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	fill := bytes.Repeat([]byte{0xaa}, elements*stride)
	if err := buffer.Upload(fill); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	data := make([]byte, elements*elementSize)
	for i := range data {
		data[i] = byte(i + 1)
	}
	if err := buffer.CopyAlignedTo(data, elementSize, stride); err != nil {
		t.Fatalf("aligned copy failed: %v", err)
	}

	out, err := buffer.CopyBytes()
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	for i := 0; i < elements; i++ {
		slot := out[i*stride : i*stride+elementSize]
		want := data[i*elementSize : (i+1)*elementSize]
		if !bytes.Equal(slot, want) {
			t.Errorf("element %d: got %v, want %v", i, slot, want)
		}
		gap := out[i*stride+elementSize : (i+1)*stride]
		if !bytes.Equal(gap, fill[:stride-elementSize]) {
			t.Errorf("element %d: padding bytes changed: %v", i, gap)
		}
	}
}

func TestReadReturnsLiveView(t *testing.T) {
	device, _ := testDevice(t)

	buffer, err := NewHostVisibleBuffer(device, 16, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if err := buffer.Upload(want); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	view, err := buffer.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(view, want) {
		t.Error("live view differs from uploaded bytes")
	}
	buffer.Unmap()
}

func TestUploadBeyondSizeFails(t *testing.T) {
	device, _ := testDevice(t)

	buffer, err := NewHostVisibleBuffer(device, 8, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	huge := make([]byte, buffer.Size+1)
	if err := buffer.Upload(huge); err == nil {
		t.Error("upload past the backing size succeeded")
	}
}
