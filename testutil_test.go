package vku

import (
	"fmt"
	"sync"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

// Tests that talk to a device share one instance and skip when no
// usable Vulkan implementation is installed.

var gpuTest struct {
	once   sync.Once
	device *Device
	queue  *CommandQueue
	err    error
}

func testDevice(t *testing.T) (*Device, *CommandQueue) {
	t.Helper()
	gpuTest.once.Do(func() {
		if err := InitializeForComputeOnly(); err != nil {
			gpuTest.err = err
			return
		}

		app := &App{Name: "vku test", APIVersion: Version{Major: 1, Minor: 1}}
		instance, err := app.CreateInstance()
		if err != nil {
			gpuTest.err = err
			return
		}

		gpus, err := instance.GpusWithQueueSupport(vk.QueueComputeBit)
		if err != nil {
			gpuTest.err = err
			return
		}
		if len(gpus) == 0 {
			gpuTest.err = fmt.Errorf("no gpu with compute support")
			return
		}

		device, err := gpus[0].CreateDevice(vk.QueueComputeBit, nil)
		if err != nil {
			gpuTest.err = err
			return
		}

		queue, err := device.GetQueue(vk.QueueComputeBit)
		if err != nil {
			gpuTest.err = err
			return
		}

		gpuTest.device = device
		gpuTest.queue = queue
	})

	if gpuTest.err != nil {
		t.Skipf("no usable gpu: %v", gpuTest.err)
	}
	return gpuTest.device, gpuTest.queue
}
