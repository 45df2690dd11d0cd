package vku

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestPresentRenderPassConstruction(t *testing.T) {
	device, _ := testDevice(t)

	pass, err := NewPresentRenderPass(device, vk.FormatB8g8r8a8Unorm)
	if err != nil {
		t.Fatalf("render pass creation failed: %v", err)
	}
	pass.Destroy()
	if pass.VKRenderPass != vk.NullRenderPass {
		t.Error("handle not cleared after destroy")
	}
}

func TestSingleOutputRenderPassConstruction(t *testing.T) {
	device, _ := testDevice(t)

	pass, err := NewSingleOutputRenderPass(device, vk.FormatR8g8b8a8Unorm,
		vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutTransferSrcOptimal)
	if err != nil {
		t.Fatalf("render pass creation failed: %v", err)
	}
	defer pass.Destroy()

	if pass.VKRenderPass == vk.NullRenderPass {
		t.Error("render pass handle is null")
	}
}
