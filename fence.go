package vku

import (
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// Fence is a host observable completion primitive signaled when
// submitted work finishes on the device.
type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

// IsSignaled polls the fence without blocking. It never mutates fence
// state.
func (f *Fence) IsSignaled() bool {
	return f.waitNanoseconds(0)
}

// Wait blocks indefinitely until the fence is signaled.
func (f *Fence) Wait() {
	f.waitNanoseconds(vk.MaxUint64)
}

// WaitFor blocks up to the given duration and reports whether the fence
// signaled in time.
func (f *Fence) WaitFor(timeout time.Duration) bool {
	return f.waitNanoseconds(uint64(timeout.Nanoseconds()))
}

func (f *Fence) waitNanoseconds(timeout uint64) bool {
	result := vk.WaitForFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}, vk.True, timeout)
	return result == vk.Success
}

// Reset returns the fence to the unsignaled state.
func (f *Fence) Reset() error {
	return vk.Error(vk.ResetFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}))
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
	f.VKFence = vk.NullFence
}
