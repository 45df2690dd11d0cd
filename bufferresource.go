package vku

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// BufferResource is a buffer handle paired with the device memory that
// backs it. The pair is constructed together and destroyed together; the
// memory handle is never exposed for independent freeing.
type BufferResource struct {
	Device   *Device
	VKBuffer vk.Buffer
	Memory   *DeviceMemory

	// Size is the driver reported backing size, which may exceed the
	// requested size due to alignment.
	Size uint64
	// ContentSize is the size the caller asked for.
	ContentSize uint64
}

// NewBufferResource creates a buffer of the given size and usage, backed
// by newly allocated memory with the requested property flags. If no
// compatible memory type exists, or any driver call fails, nothing is
// returned and every handle created along the way is released.
func NewBufferResource(device *Device, size uint64, properties vk.MemoryPropertyFlags, usage vk.BufferUsageFlags) (*BufferResource, error) {
	// The driver rejects zero sized buffers; an empty resource still
	// gets a minimal backing so ContentSize 0 round trips.
	backingSize := size
	if backingSize == 0 {
		backingSize = 1
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(backingSize),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	err := vk.Error(vk.CreateBuffer(device.VKDevice, &bufferCreateInfo, nil, &buffer))
	if err != nil {
		return nil, fmt.Errorf("buffer creation failed: %w", err)
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device.VKDevice, buffer, &memoryRequirements)
	memoryRequirements.Deref()

	memory, err := device.Allocate(uint64(memoryRequirements.Size), memoryRequirements.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(device.VKDevice, buffer, nil)
		return nil, fmt.Errorf("buffer memory allocation failed: %w", err)
	}

	err = vk.Error(vk.BindBufferMemory(device.VKDevice, buffer, memory.VKDeviceMemory, 0))
	if err != nil {
		memory.Destroy()
		vk.DestroyBuffer(device.VKDevice, buffer, nil)
		return nil, fmt.Errorf("buffer memory bind failed: %w", err)
	}

	return &BufferResource{
		Device:      device,
		VKBuffer:    buffer,
		Memory:      memory,
		Size:        uint64(memoryRequirements.Size),
		ContentSize: size,
	}, nil
}

// NewHostVisibleBuffer creates a host visible, host coherent storage
// buffer of the given size.
func NewHostVisibleBuffer(device *Device, size uint64, usage vk.BufferUsageFlags) (*BufferResource, error) {
	return NewBufferResource(device, size,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		usage)
}

// NewDeviceLocalBuffer creates a buffer in device local memory.
func NewDeviceLocalBuffer(device *Device, size uint64, usage vk.BufferUsageFlags) (*BufferResource, error) {
	return NewBufferResource(device, size,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		usage)
}

// Upload maps the whole backing range, copies data into it byte for
// byte, flushes the mapped range and unmaps. After return the written
// bytes are device visible even on non coherent host visible memory.
func (b *BufferResource) Upload(data []byte) error {
	return b.UploadAt(0, data)
}

// UploadAt is Upload starting at a byte offset within the mapped region.
func (b *BufferResource) UploadAt(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > b.Size {
		return fmt.Errorf("upload of %d bytes at offset %d exceeds buffer size %d", len(data), offset, b.Size)
	}

	ptr, err := b.Memory.Map()
	if err != nil {
		return fmt.Errorf("memory map failed on buffer: %w", err)
	}

	copy(ToBytes(ptr, int(b.Size))[offset:], data)

	if err := b.Memory.Flush(0, WholeSize); err != nil {
		b.Memory.Unmap()
		return fmt.Errorf("memory flush failed: %w", err)
	}
	b.Memory.Unmap()
	return nil
}

// CopyAlignedTo walks the content range in stride sized steps and copies
// one elementSize sized element from the next unconsumed part of data
// into each step, mapping and flushing only that sub range. With stride
// equal to elementSize and densely packed data this is equivalent to a
// single Upload.
func (b *BufferResource) CopyAlignedTo(data []byte, elementSize int, stride uint64) error {
	if stride == 0 {
		return fmt.Errorf("stride must be non zero")
	}
	if uint64(elementSize) > stride {
		return fmt.Errorf("element size %d exceeds stride %d", elementSize, stride)
	}

	dataIndex := 0
	for i := uint64(0); i < b.ContentSize; i += stride {
		if dataIndex+elementSize > len(data) {
			break
		}

		ptr, err := b.Memory.MapRange(i, stride)
		if err != nil {
			return fmt.Errorf("memory map failed on buffer: %w", err)
		}

		copy(ToBytes(ptr, int(stride)), data[dataIndex:dataIndex+elementSize])
		dataIndex += elementSize

		if err := b.Memory.Flush(i, WholeSize); err != nil {
			b.Memory.Unmap()
			return fmt.Errorf("memory flush failed: %w", err)
		}
		b.Memory.Unmap()
	}
	return nil
}

// CopyBytes maps the whole backing range, copies the content bytes into
// a freshly allocated slice, unmaps and returns the copy.
func (b *BufferResource) CopyBytes() ([]byte, error) {
	ptr, err := b.Memory.Map()
	if err != nil {
		return nil, fmt.Errorf("memory map failed on buffer: %w", err)
	}

	out := make([]byte, b.ContentSize)
	copy(out, ToBytes(ptr, int(b.ContentSize)))
	b.Memory.Unmap()
	return out, nil
}

// Read maps the backing range and returns a live view of the content
// bytes without copying. The view stays valid until Unmap is called;
// the caller must call Unmap when done.
func (b *BufferResource) Read() ([]byte, error) {
	ptr, err := b.Memory.Map()
	if err != nil {
		return nil, fmt.Errorf("memory map failed on buffer: %w", err)
	}
	return ToBytes(ptr, int(b.ContentSize)), nil
}

// Unmap releases the mapping handed out by Read.
func (b *BufferResource) Unmap() {
	b.Memory.Unmap()
}

// DSInfo returns the descriptor buffer info used to bind this buffer
// into a descriptor set.
func (b *BufferResource) DSInfo() vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: 0,
		Range:  vk.DeviceSize(b.ContentSize),
	}
}

// Destroy releases the memory and the buffer handle together.
func (b *BufferResource) Destroy() {
	if b.Memory != nil {
		b.Memory.Destroy()
		b.Memory = nil
	}
	if b.VKBuffer != vk.NullBuffer {
		vk.DestroyBuffer(b.Device.VKDevice, b.VKBuffer, nil)
		b.VKBuffer = vk.NullBuffer
	}
}
