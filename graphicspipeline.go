package vku

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// GraphicsPipelineConfig is an explicit configuration value for graphics
// pipeline construction. Zero fields are defaulted when the pipeline is
// built; NewGraphicsPipelineConfig fills in the common defaults up
// front.
type GraphicsPipelineConfig struct {
	Device       *Device
	ShaderStages []vk.PipelineShaderStageCreateInfo

	PipelineLayout *PipelineLayout

	// Defaults to triangle lists.
	PrimitiveTopology      vk.PrimitiveTopology
	PrimitiveRestartEnable vk.Bool32

	// Defaults to filled polygons, back face culling, counter clockwise
	// front faces, 1.0 wide lines.
	PolygonMode vk.PolygonMode
	LineWidth   float32
	CullMode    vk.CullModeFlagBits
	FrontFace   vk.FrontFace

	DynamicState []vk.DynamicState

	// Defaults to one attachment writing all channels with blending off.
	BlendAttachments []vk.PipelineColorBlendAttachmentState

	DepthTestEnable  bool
	DepthWriteEnable bool

	VertexInputBindingDescriptions   []vk.VertexInputBindingDescription
	VertexInputAttributeDescriptions []vk.VertexInputAttributeDescription

	// Viewport overrides the full extent viewport derived at build time.
	Viewport *vk.Viewport

	ownedModules []*ShaderModule
}

func (d *Device) NewGraphicsPipelineConfig() *GraphicsPipelineConfig {
	return &GraphicsPipelineConfig{
		Device:                 d,
		PrimitiveTopology:      vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
		PolygonMode:            vk.PolygonModeFill,
		LineWidth:              1.0,
		CullMode:               vk.CullModeBackBit,
		FrontFace:              vk.FrontFaceCounterClockwise,
		DepthTestEnable:        true,
		DepthWriteEnable:       true,
	}
}

// AddShaderStage adds a stage from an already created module. The module
// stays the caller's to destroy.
func (g *GraphicsPipelineConfig) AddShaderStage(module *ShaderModule, stage vk.ShaderStageFlagBits, entryPoint string) *GraphicsPipelineConfig {
	g.ShaderStages = append(g.ShaderStages, module.VKPipelineShaderStageCreateInfo(stage, entryPoint))
	return g
}

// AddShaderStageFromSource compiles WGSL source into a stage. The
// resulting module is owned by the config and released by Destroy.
func (g *GraphicsPipelineConfig) AddShaderStageFromSource(source, entryPoint string, stage vk.ShaderStageFlagBits) error {
	result := CompileShader(source)
	if result.Failed() {
		return fmt.Errorf("shader compilation failed: %s", result.ErrorString())
	}
	module, err := g.Device.LoadShaderModule(result.SPIRV())
	if err != nil {
		return err
	}
	g.ownedModules = append(g.ownedModules, module)
	g.ShaderStages = append(g.ShaderStages, module.VKPipelineShaderStageCreateInfo(stage, entryPoint))
	return nil
}

func (g *GraphicsPipelineConfig) SetPipelineLayout(layout *PipelineLayout) *GraphicsPipelineConfig {
	g.PipelineLayout = layout
	return g
}

func (g *GraphicsPipelineConfig) SetCullMode(mode vk.CullModeFlagBits) *GraphicsPipelineConfig {
	g.CullMode = mode
	return g
}

func (g *GraphicsPipelineConfig) SetDynamicState(states ...vk.DynamicState) *GraphicsPipelineConfig {
	g.DynamicState = states
	return g
}

// AddVertexInput adds one binding and its attributes.
func (g *GraphicsPipelineConfig) AddVertexInput(binding vk.VertexInputBindingDescription, attributes ...vk.VertexInputAttributeDescription) *GraphicsPipelineConfig {
	g.VertexInputBindingDescriptions = append(g.VertexInputBindingDescriptions, binding)
	g.VertexInputAttributeDescriptions = append(g.VertexInputAttributeDescriptions, attributes...)
	return g
}

func (g *GraphicsPipelineConfig) AddBlendAttachment(attachment vk.PipelineColorBlendAttachmentState) *GraphicsPipelineConfig {
	g.BlendAttachments = append(g.BlendAttachments, attachment)
	return g
}

// Destroy releases shader modules the config compiled itself.
func (g *GraphicsPipelineConfig) Destroy() {
	for _, module := range g.ownedModules {
		module.Destroy()
	}
	g.ownedModules = nil
}

func (g *GraphicsPipelineConfig) createInfo(renderPass *RenderPass, extent vk.Extent2D) vk.GraphicsPipelineCreateInfo {
	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(g.VertexInputBindingDescriptions)),
		PVertexBindingDescriptions:      g.VertexInputBindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(g.VertexInputAttributeDescriptions)),
		PVertexAttributeDescriptions:    g.VertexInputAttributeDescriptions,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               g.PrimitiveTopology,
		PrimitiveRestartEnable: g.PrimitiveRestartEnable,
	}

	viewport := vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	if g.Viewport != nil {
		viewport = *g.Viewport
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{{Extent: extent}},
	}

	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: g.PolygonMode,
		LineWidth:   g.LineWidth,
		CullMode:    vk.CullModeFlags(g.CullMode),
		FrontFace:   g.FrontFace,
	}

	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}

	blendAttachments := g.BlendAttachments
	if blendAttachments == nil {
		blendAttachments = []vk.PipelineColorBlendAttachmentState{{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
			BlendEnable:    vk.False,
		}}
	}

	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(g.DynamicState)),
		PDynamicStates:    g.DynamicState,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  boolToVk(g.DepthTestEnable),
		DepthWriteEnable: boolToVk(g.DepthWriteEnable),
		DepthCompareOp:   vk.CompareOpLess,
		MaxDepthBounds:   1.0,
	}

	var pipelineLayout vk.PipelineLayout
	if g.PipelineLayout != nil {
		pipelineLayout = g.PipelineLayout.VKPipelineLayout
	}

	return vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(g.ShaderStages)),
		PStages:             g.ShaderStages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PDepthStencilState:  &depthStencil,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              pipelineLayout,
		RenderPass:          renderPass.VKRenderPass,
		Subpass:             0,
	}
}

// GraphicsPipeline is a compiled graphics executable.
type GraphicsPipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
}

// CreateGraphicsPipeline compiles a graphics pipeline against the render
// pass from the given configuration.
func (d *Device) CreateGraphicsPipeline(config *GraphicsPipelineConfig, renderPass *RenderPass, extent vk.Extent2D) (*GraphicsPipeline, error) {
	createInfo := config.createInfo(renderPass, extent)

	pipelines := make([]vk.Pipeline, 1)
	err := vk.Error(vk.CreateGraphicsPipelines(d.VKDevice, vk.PipelineCache(vk.NullHandle),
		1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines))
	if err != nil {
		return nil, fmt.Errorf("graphics pipeline creation failed: %w", err)
	}

	return &GraphicsPipeline{Device: d, VKPipeline: pipelines[0]}, nil
}

func (p *GraphicsPipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
	p.VKPipeline = vk.NullPipeline
}

func boolToVk(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
