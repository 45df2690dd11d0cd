package vku

import (
	vk "github.com/vulkan-go/vulkan"
)

// PipelineLayout is the ordered list of set layouts plus push constant
// ranges a pipeline compiles against. Immutable once created.
type PipelineLayout struct {
	Device           *Device
	VKPipelineLayout vk.PipelineLayout
}

// CreatePipelineLayout builds a pipeline layout from the dense set
// layout array and push constant ranges.
func (d *Device) CreatePipelineLayout(setLayouts []*DescriptorSetLayout, pushConstants []vk.PushConstantRange) (*PipelineLayout, error) {
	handles := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, layout := range setLayouts {
		handles[i] = layout.VKDescriptorSetLayout
	}

	createInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(handles)),
		PSetLayouts:            handles,
		PushConstantRangeCount: uint32(len(pushConstants)),
		PPushConstantRanges:    pushConstants,
	}

	var layout vk.PipelineLayout
	err := vk.Error(vk.CreatePipelineLayout(d.VKDevice, &createInfo, nil, &layout))
	if err != nil {
		return nil, err
	}

	return &PipelineLayout{Device: d, VKPipelineLayout: layout}, nil
}

func (p *PipelineLayout) Destroy() {
	vk.DestroyPipelineLayout(p.Device.VKDevice, p.VKPipelineLayout, nil)
}
