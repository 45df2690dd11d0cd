package vku

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSetLayout describes the bindings of one descriptor set.
type DescriptorSetLayout struct {
	Device                *Device
	VKDescriptorSetLayout vk.DescriptorSetLayout
	Bindings              []vk.DescriptorSetLayoutBinding
}

// CreateDescriptorSetLayout creates a layout from the given bindings. An
// empty binding list is valid and yields an empty set layout, used to
// keep the set index range dense.
func (d *Device) CreateDescriptorSetLayout(bindings []vk.DescriptorSetLayoutBinding) (*DescriptorSetLayout, error) {
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	err := vk.Error(vk.CreateDescriptorSetLayout(d.VKDevice, &createInfo, nil, &layout))
	if err != nil {
		return nil, err
	}

	return &DescriptorSetLayout{
		Device:                d,
		VKDescriptorSetLayout: layout,
		Bindings:              bindings,
	}, nil
}

func (d *DescriptorSetLayout) Destroy() {
	vk.DestroyDescriptorSetLayout(d.Device.VKDevice, d.VKDescriptorSetLayout, nil)
}
