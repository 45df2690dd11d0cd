package vku

import (
	vk "github.com/vulkan-go/vulkan"
)

type RenderPass struct {
	Device       *Device
	VKRenderPass vk.RenderPass
}

// NewPresentRenderPass creates a single subpass render pass with one
// color attachment of the given format, ending in the present layout.
func NewPresentRenderPass(device *Device, format vk.Format) (*RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:        format,
		Samples:       vk.SampleCount1Bit,
		LoadOp:        vk.AttachmentLoadOpClear,
		StoreOp:       vk.AttachmentStoreOpStore,
		InitialLayout: vk.ImageLayoutUndefined,
		FinalLayout:   vk.ImageLayoutPresentSrc,
	}}

	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorRefs,
	}}

	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var renderPass vk.RenderPass
	err := vk.Error(vk.CreateRenderPass(device.VKDevice, &createInfo, nil, &renderPass))
	if err != nil {
		return nil, err
	}

	return &RenderPass{Device: device, VKRenderPass: renderPass}, nil
}

// NewSingleOutputRenderPass creates a single subpass render pass with
// one color attachment of the given format for offscreen rendering.
// Existing attachment contents are loaded, attachmentLayout is the
// layout rendering happens in and finalLayout is where the attachment
// ends up afterwards.
func NewSingleOutputRenderPass(device *Device, format vk.Format, attachmentLayout, finalLayout vk.ImageLayout) (*RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:        format,
		Samples:       vk.SampleCount1Bit,
		LoadOp:        vk.AttachmentLoadOpLoad,
		StoreOp:       vk.AttachmentStoreOpStore,
		InitialLayout: attachmentLayout,
		FinalLayout:   finalLayout,
	}}

	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     attachmentLayout,
	}}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorRefs,
	}}

	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var renderPass vk.RenderPass
	err := vk.Error(vk.CreateRenderPass(device.VKDevice, &createInfo, nil, &renderPass))
	if err != nil {
		return nil, err
	}

	return &RenderPass{Device: device, VKRenderPass: renderPass}, nil
}

func (r *RenderPass) Destroy() {
	vk.DestroyRenderPass(r.Device.VKDevice, r.VKRenderPass, nil)
	r.VKRenderPass = vk.NullRenderPass
}
