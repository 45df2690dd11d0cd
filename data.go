package vku

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DataBytes reinterprets a slice of fixed size values as its underlying
// bytes. An empty slice yields nil.
func DataBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var t T
	size := len(data) * int(unsafe.Sizeof(t))
	return ToBytes(unsafe.Pointer(&data[0]), size)
}

// NewHostVisibleBufferWithData creates a host visible storage buffer
// sized for data and uploads data into it.
func NewHostVisibleBufferWithData[T any](device *Device, data []T, usage vk.BufferUsageFlags) (*BufferResource, error) {
	bytes := DataBytes(data)
	buffer, err := NewHostVisibleBuffer(device, uint64(len(bytes)), usage)
	if err != nil {
		return nil, err
	}
	if err := buffer.Upload(bytes); err != nil {
		buffer.Destroy()
		return nil, err
	}
	return buffer, nil
}

// UploadData uploads a slice of fixed size values through
// BufferResource.Upload.
func UploadData[T any](b *BufferResource, data []T) error {
	if len(data) == 0 {
		return nil
	}
	return b.Upload(DataBytes(data))
}

// CopyData maps the buffer, reinterprets its content as a sequence of T
// sized to ContentSize / sizeof(T), and returns an owned copy.
func CopyData[T any](b *BufferResource) ([]T, error) {
	raw, err := b.CopyBytes()
	if err != nil {
		return nil, err
	}

	var t T
	size := int(unsafe.Sizeof(t))
	count := len(raw) / size
	out := make([]T, count)
	if count > 0 {
		copy(DataBytes(out), raw[:count*size])
	}
	return out, nil
}
