package vku

import (
	"fmt"
	"sort"

	vk "github.com/vulkan-go/vulkan"
)

// DefaultMaxUnboundedDescriptors caps runtime sized descriptor arrays
// when sizing pools and layouts. Forwarding the zero sentinel to the
// driver is rejected by some implementations, so a concrete bound is
// always substituted.
const DefaultMaxUnboundedDescriptors uint32 = 1024

// LayoutPlan is the driver independent result of reflection driven
// layout assembly: one binding list per set index, dense from 0 to the
// highest declared set, plus pool size totals per descriptor type.
type LayoutPlan struct {
	SetBindings [][]vk.DescriptorSetLayoutBinding
	PoolSizes   []vk.DescriptorPoolSize
}

// PlanLayout groups reflected bindings by set, merges caller supplied
// explicit bindings and computes pool sizes. Explicit bindings for a set
// the reflection does not mention are inserted verbatim; for a set it
// does, they are appended after the reflected ones, never replacing
// them. Unbounded counts are clamped to maxUnbounded everywhere.
func PlanLayout(reflection *ShaderReflection, explicit map[uint32][]vk.DescriptorSetLayoutBinding, maxUnbounded uint32) LayoutPlan {
	if maxUnbounded == 0 {
		maxUnbounded = DefaultMaxUnboundedDescriptors
	}

	perSet := map[uint32][]vk.DescriptorSetLayoutBinding{}

	for _, set := range reflection.SetIndices() {
		bindings := reflection.Sets[set]
		for _, binding := range bindingIndices(bindings) {
			info := bindings[binding]
			count := info.Count
			if count == UnboundedCount {
				count = maxUnbounded
			}
			perSet[set] = append(perSet[set], vk.DescriptorSetLayoutBinding{
				Binding:         binding,
				DescriptorType:  info.Type,
				DescriptorCount: count,
				StageFlags:      reflection.Stages,
			})
		}
	}

	explicitSets := make([]uint32, 0, len(explicit))
	for set := range explicit {
		explicitSets = append(explicitSets, set)
	}
	sort.Slice(explicitSets, func(i, j int) bool { return explicitSets[i] < explicitSets[j] })
	for _, set := range explicitSets {
		for _, binding := range explicit[set] {
			if binding.DescriptorCount == UnboundedCount {
				binding.DescriptorCount = maxUnbounded
			}
			perSet[set] = append(perSet[set], binding)
		}
	}

	maxSet := -1
	for set := range perSet {
		if int(set) > maxSet {
			maxSet = int(set)
		}
	}

	plan := LayoutPlan{SetBindings: make([][]vk.DescriptorSetLayoutBinding, maxSet+1)}
	for set, bindings := range perSet {
		plan.SetBindings[set] = bindings
	}

	totals := map[vk.DescriptorType]uint32{}
	for _, bindings := range plan.SetBindings {
		for _, binding := range bindings {
			totals[binding.DescriptorType] += binding.DescriptorCount
		}
	}
	types := make([]vk.DescriptorType, 0, len(totals))
	for descriptorType := range totals {
		types = append(types, descriptorType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, descriptorType := range types {
		plan.PoolSizes = append(plan.PoolSizes, vk.DescriptorPoolSize{
			Type:            descriptorType,
			DescriptorCount: totals[descriptorType],
		})
	}

	return plan
}

// ComputePipelineOptions carries the optional inputs of reflection
// driven pipeline construction. The zero value is usable.
type ComputePipelineOptions struct {
	// ExplicitBindings augments the reflected bindings per set index.
	ExplicitBindings map[uint32][]vk.DescriptorSetLayoutBinding
	// PushConstants are added to the ranges found by reflection.
	PushConstants []vk.PushConstantRange
	// MaxUnboundedDescriptors clamps runtime sized arrays; zero selects
	// DefaultMaxUnboundedDescriptors.
	MaxUnboundedDescriptors uint32
}

// ComputePipeline owns a compiled compute executable, the layout it was
// compiled against and one descriptor set per declared set. Binding
// mutation goes through the Set methods only.
type ComputePipeline struct {
	Device           *Device
	VKPipeline       vk.Pipeline
	VKPipelineLayout vk.PipelineLayout

	plan           LayoutPlan
	layout         *PipelineLayout
	setLayouts     []*DescriptorSetLayout
	pool           *DescriptorPool
	descriptorSets []vk.DescriptorSet
	module         *ShaderModule
	reflection     *ShaderReflection
}

// NewComputePipeline builds a pipeline from compiled SPIR-V. Descriptor
// set layouts, pipeline layout, pool and sets all follow the module's
// reflection, augmented by options. framesInFlight scales the pool as
// submission headroom.
func NewComputePipeline(device *Device, framesInFlight uint32, spirv []uint32, entryPoint string, options *ComputePipelineOptions) (*ComputePipeline, error) {
	reflection, err := ReflectSPIRV(spirv)
	if err != nil {
		return nil, fmt.Errorf("shader reflection failed: %w", err)
	}
	return NewComputePipelineWithReflection(device, framesInFlight, spirv, entryPoint, reflection, options)
}

// NewComputePipelineWithReflection is NewComputePipeline for callers
// that already hold the module's reflection data.
func NewComputePipelineWithReflection(device *Device, framesInFlight uint32, spirv []uint32, entryPoint string, reflection *ShaderReflection, options *ComputePipelineOptions) (*ComputePipeline, error) {
	if framesInFlight == 0 {
		framesInFlight = 1
	}
	if options == nil {
		options = &ComputePipelineOptions{}
	}

	plan := PlanLayout(reflection, options.ExplicitBindings, options.MaxUnboundedDescriptors)

	p := &ComputePipeline{Device: device, plan: plan, reflection: reflection}

	for _, bindings := range plan.SetBindings {
		setLayout, err := device.CreateDescriptorSetLayout(bindings)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("descriptor set layout creation failed: %w", err)
		}
		p.setLayouts = append(p.setLayouts, setLayout)
	}

	pushConstants := append(append([]vk.PushConstantRange{}, reflection.PushConstantRanges...), options.PushConstants...)
	layout, err := device.CreatePipelineLayout(p.setLayouts, pushConstants)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("pipeline layout creation failed: %w", err)
	}
	p.layout = layout
	p.VKPipelineLayout = layout.VKPipelineLayout

	if len(p.setLayouts) > 0 {
		poolSizes := make([]vk.DescriptorPoolSize, len(plan.PoolSizes))
		for i, size := range plan.PoolSizes {
			poolSizes[i] = vk.DescriptorPoolSize{
				Type:            size.Type,
				DescriptorCount: size.DescriptorCount * framesInFlight,
			}
		}

		pool, err := device.CreateDescriptorPool(framesInFlight*uint32(len(p.setLayouts)), poolSizes)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("descriptor pool creation failed: %w", err)
		}
		p.pool = pool

		sets, err := pool.Allocate(p.setLayouts)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("descriptor set allocation failed: %w", err)
		}
		p.descriptorSets = sets
	}

	module, err := device.LoadShaderModule(spirv)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("shader module creation failed: %w", err)
	}
	p.module = module

	createInfo := vk.ComputePipelineCreateInfo{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  module.VKPipelineShaderStageCreateInfo(vk.ShaderStageComputeBit, entryPoint),
		Layout: p.VKPipelineLayout,
	}

	pipelines := make([]vk.Pipeline, 1)
	err = vk.Error(vk.CreateComputePipelines(device.VKDevice, vk.PipelineCache(vk.NullHandle),
		1, []vk.ComputePipelineCreateInfo{createInfo}, nil, pipelines))
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("compute pipeline creation failed: %w", err)
	}
	p.VKPipeline = pipelines[0]

	return p, nil
}

// NewComputePipelineFromSource compiles WGSL source and builds the
// pipeline from the result. A compilation failure surfaces the
// compiler's diagnostic text instead of a pipeline.
func NewComputePipelineFromSource(device *Device, framesInFlight uint32, source, entryPoint string, options *ComputePipelineOptions) (*ComputePipeline, error) {
	result := CompileShader(source)
	if result.Failed() {
		return nil, fmt.Errorf("shader compilation failed: %s", result.ErrorString())
	}
	return NewComputePipeline(device, framesInFlight, result.SPIRV(), entryPoint, options)
}

// Reflection returns the reflection data the pipeline was built from.
func (p *ComputePipeline) Reflection() *ShaderReflection {
	return p.reflection
}

// mustSlot validates a (set, binding) pair against the assembled
// layout. Writing outside it is a programming error and panics.
func (p *ComputePipeline) mustSlot(set, binding uint32) vk.DescriptorType {
	if int(set) >= len(p.descriptorSets) {
		panic(fmt.Sprintf("descriptor write to set %d of pipeline with %d sets", set, len(p.descriptorSets)))
	}
	for _, b := range p.plan.SetBindings[set] {
		if b.Binding == binding {
			return b.DescriptorType
		}
	}
	panic(fmt.Sprintf("descriptor write to unknown binding %d in set %d", binding, set))
}

// SetStorageBuffer binds a buffer to a storage buffer slot.
func (p *ComputePipeline) SetStorageBuffer(set, binding uint32, buffer *BufferResource) {
	p.mustSlot(set, binding)
	writeBufferDescriptor(p.Device, p.descriptorSets[set], binding, vk.DescriptorTypeStorageBuffer, buffer.DSInfo())
}

// SetUniformBuffer binds a buffer to a uniform buffer slot.
func (p *ComputePipeline) SetUniformBuffer(set, binding uint32, buffer *BufferResource) {
	p.mustSlot(set, binding)
	writeBufferDescriptor(p.Device, p.descriptorSets[set], binding, vk.DescriptorTypeUniformBuffer, buffer.DSInfo())
}

// SetStorageImage binds an image view to a storage image slot. The
// descriptor records the image's current tracked layout.
func (p *ComputePipeline) SetStorageImage(set, binding uint32, image ImageResource) {
	p.mustSlot(set, binding)
	info := vk.DescriptorImageInfo{
		ImageView:   image.View(),
		ImageLayout: image.Layout(),
	}
	writeImageDescriptor(p.Device, p.descriptorSets[set], binding, vk.DescriptorTypeStorageImage, info)
}

// Destroy releases the pipeline and everything built alongside it. Safe
// on a partially constructed pipeline.
func (p *ComputePipeline) Destroy() {
	if p.VKPipeline != vk.NullPipeline {
		vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
		p.VKPipeline = vk.NullPipeline
	}
	if p.module != nil {
		p.module.Destroy()
		p.module = nil
	}
	if p.pool != nil {
		p.pool.Destroy()
		p.pool = nil
		p.descriptorSets = nil
	}
	if p.layout != nil {
		p.layout.Destroy()
		p.layout = nil
	}
	for _, setLayout := range p.setLayouts {
		setLayout.Destroy()
	}
	p.setLayouts = nil
}
