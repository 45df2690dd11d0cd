package vku

import (
	"sort"

	vk "github.com/vulkan-go/vulkan"
)

// UnboundedCount marks a runtime sized descriptor array in reflection
// data. Pool sizing clamps it to a concrete maximum, see
// MaxUnboundedDescriptors.
const UnboundedCount uint32 = 0

// DescriptorInfo describes one reflected binding: what kind of resource
// the shader expects there and how many. A Count of UnboundedCount means
// the shader declared a runtime sized array.
type DescriptorInfo struct {
	Type  vk.DescriptorType
	Count uint32
	Name  string
}

// ShaderReflection is the metadata extracted from compiled shader
// bytecode: the descriptor bindings per set, the push constant ranges
// and the stages the module serves. Read only once obtained.
type ShaderReflection struct {
	// Sets maps set index to binding index to descriptor info.
	Sets               map[uint32]map[uint32]DescriptorInfo
	PushConstantRanges []vk.PushConstantRange
	Stages             vk.ShaderStageFlags
}

// SetIndices returns the declared set indices in ascending order.
func (r *ShaderReflection) SetIndices() []uint32 {
	indices := make([]uint32, 0, len(r.Sets))
	for set := range r.Sets {
		indices = append(indices, set)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}

// bindingIndices returns the binding indices of one set in ascending
// order, for deterministic layout construction.
func bindingIndices(bindings map[uint32]DescriptorInfo) []uint32 {
	indices := make([]uint32, 0, len(bindings))
	for binding := range bindings {
		indices = append(indices, binding)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}
