package vku

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Device is the logical device through which queues, memory and pipeline
// objects are created. Every other object in this package holds a
// reference to the Device that created it; the Device must outlive them
// all.
type Device struct {
	Gpu      *Gpu
	VKDevice vk.Device
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ Gpu: %s }", d.Gpu)
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(d.VKDevice))
}

// Allocate resolves a memory type for the given filter and property
// flags and allocates sizeInBytes of device memory from it. Failing to
// resolve a memory type is fatal for the construction that requested
// the allocation.
func (d *Device) Allocate(sizeInBytes uint64, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	typeIndex, ok := d.Gpu.FindMemoryType(memoryTypeBits, memoryProperties)
	if !ok {
		return nil, fmt.Errorf("no memory type matches filter %b with properties %b", memoryTypeBits, memoryProperties)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(sizeInBytes),
		MemoryTypeIndex: typeIndex,
	}

	var deviceMemory vk.DeviceMemory
	err := vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory))
	if err != nil {
		return nil, err
	}

	return &DeviceMemory{
		Device:         d,
		VKDeviceMemory: deviceMemory,
		Size:           sizeInBytes,
		TypeIndex:      typeIndex,
	}, nil
}

// GetQueue returns queue 0 of the given family wrapped together with a
// transient command pool for it.
func (d *Device) GetQueue(flags vk.QueueFlagBits) (*CommandQueue, error) {
	return NewCommandQueue(d, flags)
}

// CreateFence creates a fence, optionally in the signaled state.
func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	err := vk.Error(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence))
	if err != nil {
		return nil, err
	}
	return &Fence{Device: d, VKFence: fence}, nil
}

// CreateSemaphore creates a binary semaphore.
func (d *Device) CreateSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sema vk.Semaphore
	err := vk.Error(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema))
	return sema, err
}

func (d *Device) DestroySemaphore(s vk.Semaphore) {
	vk.DestroySemaphore(d.VKDevice, s, nil)
}
