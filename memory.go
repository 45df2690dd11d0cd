package vku

import (
	vk "github.com/vulkan-go/vulkan"
)

// FindMemoryType returns the first index i for which bit i is set in
// typeFilter and types[i] carries at least the required property flags.
// The boolean is false when no memory type matches; resource construction
// treats that as fatal since no valid allocation can be made.
func FindMemoryType(typeFilter uint32, types []vk.MemoryType, required vk.MemoryPropertyFlags) (uint32, bool) {
	for i := range types {
		if typeFilter&(1<<uint32(i)) == 0 {
			continue
		}
		if types[i].PropertyFlags&required == required {
			return uint32(i), true
		}
	}
	return 0, false
}

// FindMemoryType resolves a memory type index against this GPU's live
// memory type table.
func (g *Gpu) FindMemoryType(typeFilter uint32, required vk.MemoryPropertyFlags) (uint32, bool) {
	return FindMemoryType(typeFilter, g.MemoryTypes(), required)
}
