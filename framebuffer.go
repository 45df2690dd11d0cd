package vku

import (
	vk "github.com/vulkan-go/vulkan"
)

type Framebuffer struct {
	Device        *Device
	VKFramebuffer vk.Framebuffer
	Width         uint32
	Height        uint32
}

// CreateFramebuffer creates a framebuffer binding the attachment views
// to the render pass.
func (d *Device) CreateFramebuffer(renderPass *RenderPass, attachments []vk.ImageView, width, height uint32) (*Framebuffer, error) {
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass.VKRenderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	err := vk.Error(vk.CreateFramebuffer(d.VKDevice, &createInfo, nil, &framebuffer))
	if err != nil {
		return nil, err
	}

	return &Framebuffer{Device: d, VKFramebuffer: framebuffer, Width: width, Height: height}, nil
}

func (f *Framebuffer) Destroy() {
	vk.DestroyFramebuffer(f.Device.VKDevice, f.VKFramebuffer, nil)
	f.VKFramebuffer = vk.NullFramebuffer
}
