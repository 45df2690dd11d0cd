package vku

import (
	"testing"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

func TestWaitHandleCompletion(t *testing.T) {
	_, queue := testDevice(t)

	cb, err := queue.CreateCommandBuffer()
	if err != nil {
		t.Fatalf("command buffer creation failed: %v", err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	handle, err := cb.Submit()
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	handle.Wait()
	if !handle.HasCompleted() {
		t.Error("handle not completed after wait")
	}
	if !handle.WaitFor(time.Second) {
		t.Error("wait with timeout failed on a signaled fence")
	}
	handle.Destroy()
}

func TestSubmittedBufferCannotBeResubmitted(t *testing.T) {
	_, queue := testDevice(t)

	cb, err := queue.CreateCommandBuffer()
	if err != nil {
		t.Fatalf("command buffer creation failed: %v", err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	handle, err := cb.Submit()
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	defer handle.Destroy()

	if _, err := cb.Submit(); err == nil {
		t.Error("second submit of the same command buffer succeeded")
	}
}

// grindShader spins every invocation through a long LCG chain so the
// dispatch is still running when the host polls the fence.
const grindShader = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    var acc: u32 = id.x;
    for (var i: u32 = 0u; i < 20000u; i = i + 1u) {
        acc = acc * 1664525u + 1013904223u;
    }
    data[id.x] = acc;
}
`

func grind(seed uint32) uint32 {
	acc := seed
	for i := 0; i < 20000; i++ {
		acc = acc*1664525 + 1013904223
	}
	return acc
}

func TestHasCompletedFalseWhileRunning(t *testing.T) {
	device, queue := testDevice(t)

	pipeline, err := NewComputePipelineFromSource(device, 1, grindShader, "main", nil)
	if err != nil {
		t.Fatalf("pipeline construction failed: %v", err)
	}
	defer pipeline.Destroy()

	data := make([]uint32, 512*64)
	buffer, err := NewHostVisibleBufferWithData(device, data, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	pipeline.SetStorageBuffer(0, 0, buffer)

	cb, err := queue.CreateCommandBuffer()
	if err != nil {
		t.Fatalf("command buffer creation failed: %v", err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	cb.BindComputePipeline(pipeline)
	cb.Dispatch(512, 1, 1)

	handle, err := cb.Submit()
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	defer handle.Destroy()

	if handle.HasCompleted() {
		t.Error("fence signaled immediately after submit")
	}
	if !handle.WaitFor(60 * time.Second) {
		t.Fatal("dispatch did not complete in time")
	}
	if !handle.HasCompleted() {
		t.Error("handle not completed after wait")
	}

	out, err := CopyData[uint32](buffer)
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	for _, i := range []int{0, 1, len(out) / 2, len(out) - 1} {
		if want := grind(uint32(i)); out[i] != want {
			t.Errorf("value %d: got %d, want %d", i, out[i], want)
		}
	}
}

// Destroying the handle without waiting first must still block until
// the device is done, observable through a readback of GPU written
// values afterwards.
func TestDestroyWithoutWaitBlocksUntilComplete(t *testing.T) {
	device, queue := testDevice(t)

	pipeline, err := NewComputePipelineFromSource(device, 1, squareShader, "main", nil)
	if err != nil {
		t.Fatalf("pipeline construction failed: %v", err)
	}
	defer pipeline.Destroy()

	data := make([]int32, 64)
	for i := range data {
		data[i] = int32(i)
	}
	buffer, err := NewHostVisibleBufferWithData(device, data, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	pipeline.SetStorageBuffer(0, 0, buffer)

	cb, err := queue.CreateCommandBuffer()
	if err != nil {
		t.Fatalf("command buffer creation failed: %v", err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	cb.BindComputePipeline(pipeline)
	cb.Dispatch(uint32(len(data)), 1, 1)

	handle, err := cb.Submit()
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	handle.Destroy()

	out, err := CopyData[int32](buffer)
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	for i, v := range out {
		if v != int32(i*i) {
			t.Errorf("value %d: got %d, want %d", i, v, i*i)
		}
	}
}
