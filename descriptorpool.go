package vku

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorPool holds the storage descriptor sets are allocated from.
type DescriptorPool struct {
	Device           *Device
	VKDescriptorPool vk.DescriptorPool
}

// CreateDescriptorPool creates a pool holding at most maxSets sets drawn
// from the given per type sizes.
func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []vk.DescriptorPoolSize) (*DescriptorPool, error) {
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var pool vk.DescriptorPool
	err := vk.Error(vk.CreateDescriptorPool(d.VKDevice, &createInfo, nil, &pool))
	if err != nil {
		return nil, err
	}

	return &DescriptorPool{Device: d, VKDescriptorPool: pool}, nil
}

// Allocate allocates one descriptor set per layout, in layout order.
func (p *DescriptorPool) Allocate(layouts []*DescriptorSetLayout) ([]vk.DescriptorSet, error) {
	if len(layouts) == 0 {
		return nil, nil
	}

	handles := make([]vk.DescriptorSetLayout, len(layouts))
	for i, layout := range layouts {
		handles[i] = layout.VKDescriptorSetLayout
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.VKDescriptorPool,
		DescriptorSetCount: uint32(len(layouts)),
		PSetLayouts:        handles,
	}

	sets := make([]vk.DescriptorSet, len(layouts))
	err := vk.Error(vk.AllocateDescriptorSets(p.Device.VKDevice, &allocateInfo, &sets[0]))
	if err != nil {
		return nil, err
	}
	return sets, nil
}

func (p *DescriptorPool) Reset() error {
	return vk.Error(vk.ResetDescriptorPool(p.Device.VKDevice, p.VKDescriptorPool, 0))
}

func (p *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(p.Device.VKDevice, p.VKDescriptorPool, nil)
}
