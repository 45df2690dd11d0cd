package vku

import (
	vk "github.com/vulkan-go/vulkan"
)

// Single descriptor writes used by pipeline binding updates. Each call
// updates exactly one (set, binding) slot.

func writeBufferDescriptor(device *Device, set vk.DescriptorSet, binding uint32, descriptorType vk.DescriptorType, info vk.DescriptorBufferInfo) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PBufferInfo:     []vk.DescriptorBufferInfo{info},
	}
	vk.UpdateDescriptorSets(device.VKDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

func writeImageDescriptor(device *Device, set vk.DescriptorSet, binding uint32, descriptorType vk.DescriptorType, info vk.DescriptorImageInfo) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PImageInfo:      []vk.DescriptorImageInfo{info},
	}
	vk.UpdateDescriptorSets(device.VKDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}
