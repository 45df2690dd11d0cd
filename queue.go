package vku

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// CommandQueue is a device queue paired with a transient command pool
// that command buffers for this queue are drawn from. A CommandQueue may
// be shared across recorders, but recording into buffers from the same
// pool, or submitting to the same queue, from multiple goroutines
// requires caller supplied mutual exclusion.
type CommandQueue struct {
	Device           *Device
	VKQueue          vk.Queue
	VKCommandPool    vk.CommandPool
	QueueFamilyIndex uint32
}

// NewCommandQueue wraps queue 0 of the first family matching flags and
// creates the command pool backing it.
func NewCommandQueue(device *Device, flags vk.QueueFlagBits) (*CommandQueue, error) {
	familyIndex, ok := device.Gpu.QueueFamilyIndex(flags)
	if !ok {
		return nil, fmt.Errorf("no queue family matching flags %b", flags)
	}

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit | vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: familyIndex,
	}

	var pool vk.CommandPool
	err := vk.Error(vk.CreateCommandPool(device.VKDevice, &poolCreateInfo, nil, &pool))
	if err != nil {
		return nil, fmt.Errorf("command pool creation failed: %w", err)
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device.VKDevice, familyIndex, 0, &queue)

	return &CommandQueue{
		Device:           device,
		VKQueue:          queue,
		VKCommandPool:    pool,
		QueueFamilyIndex: familyIndex,
	}, nil
}

// CreateCommandBuffer allocates one primary command buffer from this
// queue's pool.
func (q *CommandQueue) CreateCommandBuffer() (*CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        q.VKCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	handles := make([]vk.CommandBuffer, 1)
	err := vk.Error(vk.AllocateCommandBuffers(q.Device.VKDevice, &allocateInfo, handles))
	if err != nil {
		return nil, fmt.Errorf("command buffer allocation failed: %w", err)
	}

	return &CommandBuffer{queue: q, VKCommandBuffer: handles[0]}, nil
}

// WaitIdle blocks until the queue has drained.
func (q *CommandQueue) WaitIdle() error {
	return vk.Error(vk.QueueWaitIdle(q.VKQueue))
}

// freeCommandBuffer returns a command buffer's storage to the pool.
func (q *CommandQueue) freeCommandBuffer(handle vk.CommandBuffer) {
	vk.FreeCommandBuffers(q.Device.VKDevice, q.VKCommandPool, 1, []vk.CommandBuffer{handle})
}

func (q *CommandQueue) String() string {
	return fmt.Sprintf("{ Device: %s Family: %d }", q.Device, q.QueueFamilyIndex)
}

func (q *CommandQueue) Destroy() {
	vk.DestroyCommandPool(q.Device.VKDevice, q.VKCommandPool, nil)
}
