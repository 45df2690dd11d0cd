package vku

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

// The state guards fire before any driver call, so misuse is testable
// without a device.

func TestSubmitBeforeBeginFails(t *testing.T) {
	cb := &CommandBuffer{}
	if _, err := cb.Submit(); err == nil {
		t.Error("submit of an idle command buffer succeeded")
	}
}

func TestEndBeforeBeginFails(t *testing.T) {
	cb := &CommandBuffer{}
	if err := cb.End(); err == nil {
		t.Error("end of an idle command buffer succeeded")
	}
}

func TestSubmitAfterSubmitFails(t *testing.T) {
	cb := &CommandBuffer{state: stateSubmitted}
	if _, err := cb.Submit(); err == nil {
		t.Error("second submit succeeded")
	}
}

func TestRecordOutsideRecordingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("recording into an idle command buffer did not panic")
		}
	}()
	cb := &CommandBuffer{}
	cb.Dispatch(1, 1, 1)
}

func TestPushConstantsEmptyDataPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("push constant update with no data did not panic")
		}
	}()
	cb := &CommandBuffer{state: stateRecording}
	cb.PushConstants(vk.NullPipelineLayout, vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, nil)
}

func TestRecordAfterSubmitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("recording into a submitted command buffer did not panic")
		}
	}()
	cb := &CommandBuffer{state: stateSubmitted}
	cb.Draw(3, 1, 0, 0)
}
