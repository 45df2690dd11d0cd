package vku

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

type recorderState int

const (
	stateIdle recorderState = iota
	stateRecording
	stateExecutable
	stateSubmitted
)

func (s recorderState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRecording:
		return "recording"
	case stateExecutable:
		return "executable"
	case stateSubmitted:
		return "submitted"
	}
	return "unknown"
}

// CommandBuffer is a single use command recorder. Begin starts
// recording, the Cmd style methods record, End closes the buffer and
// Submit hands it to the queue exactly once, returning a WaitHandle for
// completion. Recording outside the recording state is a programming
// error and panics; submitting twice returns an error without touching
// the queue.
type CommandBuffer struct {
	queue           *CommandQueue
	VKCommandBuffer vk.CommandBuffer
	state           recorderState
}

func (c *CommandBuffer) mustRecording(op string) {
	if c.state != stateRecording {
		panic(fmt.Sprintf("%s recorded on %s command buffer", op, c.state))
	}
}

// Begin transitions the buffer into the recording state. The buffer is
// marked one time submit; it cannot be reused after Submit.
func (c *CommandBuffer) Begin() error {
	if c.state != stateIdle {
		return fmt.Errorf("begin on %s command buffer", c.state)
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	err := vk.Error(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo))
	if err != nil {
		return fmt.Errorf("command buffer begin failed: %w", err)
	}

	c.state = stateRecording
	return nil
}

// End closes recording. Submit calls this implicitly when the buffer is
// still recording.
func (c *CommandBuffer) End() error {
	if c.state != stateRecording {
		return fmt.Errorf("end on %s command buffer", c.state)
	}

	err := vk.Error(vk.EndCommandBuffer(c.VKCommandBuffer))
	if err != nil {
		return fmt.Errorf("command buffer end failed: %w", err)
	}

	c.state = stateExecutable
	return nil
}

// Submit enqueues the recorded work exactly once and returns a
// WaitHandle backed by a fresh fence. A second Submit fails before
// anything reaches the queue.
func (c *CommandBuffer) Submit() (*WaitHandle, error) {
	if c.state == stateSubmitted {
		return nil, fmt.Errorf("command buffer already submitted")
	}
	if c.state == stateRecording {
		if err := c.End(); err != nil {
			return nil, err
		}
	}
	if c.state != stateExecutable {
		return nil, fmt.Errorf("submit on %s command buffer", c.state)
	}

	fence, err := c.queue.Device.CreateFence(false)
	if err != nil {
		return nil, err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{c.VKCommandBuffer},
	}

	err = vk.Error(vk.QueueSubmit(c.queue.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence.VKFence))
	if err != nil {
		fence.Destroy()
		return nil, fmt.Errorf("queue submit failed: %w", err)
	}

	c.state = stateSubmitted
	return &WaitHandle{fence: fence, commandBuffer: c}, nil
}

// SubmitSignalling additionally waits on and signals the given
// semaphores, for work that participates in presentation.
func (c *CommandBuffer) SubmitSignalling(wait []vk.Semaphore, waitStages []vk.PipelineStageFlags, signal []vk.Semaphore) (*WaitHandle, error) {
	if c.state == stateSubmitted {
		return nil, fmt.Errorf("command buffer already submitted")
	}
	if c.state == stateRecording {
		if err := c.End(); err != nil {
			return nil, err
		}
	}
	if c.state != stateExecutable {
		return nil, fmt.Errorf("submit on %s command buffer", c.state)
	}

	fence, err := c.queue.Device.CreateFence(false)
	if err != nil {
		return nil, err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(wait)),
		PWaitSemaphores:      wait,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{c.VKCommandBuffer},
		SignalSemaphoreCount: uint32(len(signal)),
		PSignalSemaphores:    signal,
	}

	err = vk.Error(vk.QueueSubmit(c.queue.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence.VKFence))
	if err != nil {
		fence.Destroy()
		return nil, fmt.Errorf("queue submit failed: %w", err)
	}

	c.state = stateSubmitted
	return &WaitHandle{fence: fence, commandBuffer: c}, nil
}

// BindComputePipeline binds the pipeline and all of its descriptor
// sets in one call.
func (c *CommandBuffer) BindComputePipeline(pipeline *ComputePipeline) {
	c.mustRecording("bind compute pipeline")
	vk.CmdBindPipeline(c.VKCommandBuffer, vk.PipelineBindPointCompute, pipeline.VKPipeline)
	if len(pipeline.descriptorSets) > 0 {
		vk.CmdBindDescriptorSets(c.VKCommandBuffer, vk.PipelineBindPointCompute, pipeline.VKPipelineLayout,
			0, uint32(len(pipeline.descriptorSets)), pipeline.descriptorSets, 0, nil)
	}
}

func (c *CommandBuffer) BindPipeline(bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	c.mustRecording("bind pipeline")
	vk.CmdBindPipeline(c.VKCommandBuffer, bindPoint, pipeline)
}

func (c *CommandBuffer) BindDescriptorSets(bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	c.mustRecording("bind descriptor sets")
	vk.CmdBindDescriptorSets(c.VKCommandBuffer, bindPoint, layout, firstSet, uint32(len(sets)), sets, 0, nil)
}

func (c *CommandBuffer) Dispatch(x, y, z uint32) {
	c.mustRecording("dispatch")
	vk.CmdDispatch(c.VKCommandBuffer, x, y, z)
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.mustRecording("draw")
	vk.CmdDraw(c.VKCommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (c *CommandBuffer) BindVertexBuffers(firstBinding uint32, buffers ...*BufferResource) {
	c.mustRecording("bind vertex buffers")
	handles := make([]vk.Buffer, len(buffers))
	offsets := make([]vk.DeviceSize, len(buffers))
	for i, b := range buffers {
		handles[i] = b.VKBuffer
	}
	vk.CmdBindVertexBuffers(c.VKCommandBuffer, firstBinding, uint32(len(buffers)), handles, offsets)
}

// PushConstants records a push constant update for the given stages.
func (c *CommandBuffer) PushConstants(layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	c.mustRecording("push constants")
	if len(data) == 0 {
		panic("push constants recorded with empty data")
	}
	vk.CmdPushConstants(c.VKCommandBuffer, layout, stages, offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

// BufferBarrier records a memory barrier over the whole buffer.
func (c *CommandBuffer) BufferBarrier(buffer *BufferResource, srcAccess, dstAccess vk.AccessFlags, srcStage, dstStage vk.PipelineStageFlags) {
	c.mustRecording("buffer barrier")
	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              buffer.VKBuffer,
		Offset:              0,
		Size:                vk.DeviceSize(WholeSize),
	}
	vk.CmdPipelineBarrier(c.VKCommandBuffer, srcStage, dstStage, 0,
		0, nil, 1, []vk.BufferMemoryBarrier{barrier}, 0, nil)
}

// TransitionImageLayout records a full barrier moving the image from
// its tracked layout to newLayout and updates the tracked layout. The
// barrier covers all commands on both sides, trading precision for
// correctness.
func (c *CommandBuffer) TransitionImageLayout(image ImageResource, newLayout vk.ImageLayout) {
	c.mustRecording("image layout transition")
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessMemoryWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessMemoryReadBit | vk.AccessMemoryWriteBit),
		OldLayout:           image.Layout(),
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image.Handle(),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(c.VKCommandBuffer,
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	image.SetLayout(newLayout)
}

// Blit copies src onto dst with scaling. Both images must already be in
// their transfer layouts.
func (c *CommandBuffer) Blit(src, dst ImageResource) {
	c.mustRecording("blit")
	region := vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		SrcOffsets: [2]vk.Offset3D{
			{},
			{X: int32(src.Width()), Y: int32(src.Height()), Z: 1},
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		DstOffsets: [2]vk.Offset3D{
			{},
			{X: int32(dst.Width()), Y: int32(dst.Height()), Z: 1},
		},
	}
	vk.CmdBlitImage(c.VKCommandBuffer,
		src.Handle(), vk.ImageLayoutTransferSrcOptimal,
		dst.Handle(), vk.ImageLayoutTransferDstOptimal,
		1, []vk.ImageBlit{region}, vk.FilterNearest)
}

// ClearColorImage clears the whole image to the given color. The image
// must be in the transfer destination or general layout.
func (c *CommandBuffer) ClearColorImage(image ImageResource, r, g, b, a float32) {
	c.mustRecording("clear color image")
	var color vk.ClearColorValue
	floats := (*[4]float32)(unsafe.Pointer(&color))
	floats[0] = r
	floats[1] = g
	floats[2] = b
	floats[3] = a
	vk.CmdClearColorImage(c.VKCommandBuffer, image.Handle(), image.Layout(), &color, 1,
		[]vk.ImageSubresourceRange{{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		}})
}

// CopyImageToBuffer records a tightly packed copy of the whole image
// into the buffer.
func (c *CommandBuffer) CopyImageToBuffer(image ImageResource, buffer *BufferResource) {
	c.mustRecording("copy image to buffer")
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: image.Width(), Height: image.Height(), Depth: image.Depth()},
	}
	vk.CmdCopyImageToBuffer(c.VKCommandBuffer, image.Handle(), image.Layout(), buffer.VKBuffer,
		1, []vk.BufferImageCopy{region})
}

// CopyBufferToImage records a tightly packed copy of the buffer into
// the whole image.
func (c *CommandBuffer) CopyBufferToImage(buffer *BufferResource, image ImageResource) {
	c.mustRecording("copy buffer to image")
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: image.Width(), Height: image.Height(), Depth: image.Depth()},
	}
	vk.CmdCopyBufferToImage(c.VKCommandBuffer, buffer.VKBuffer, image.Handle(), image.Layout(),
		1, []vk.BufferImageCopy{region})
}

func (c *CommandBuffer) BeginRenderPass(renderPass *RenderPass, framebuffer *Framebuffer, width, height uint32, clearValues []vk.ClearValue) {
	c.mustRecording("begin render pass")
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass.VKRenderPass,
		Framebuffer: framebuffer.VKFramebuffer,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: width, Height: height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.VKCommandBuffer, &beginInfo, vk.SubpassContentsInline)
}

func (c *CommandBuffer) EndRenderPass() {
	c.mustRecording("end render pass")
	vk.CmdEndRenderPass(c.VKCommandBuffer)
}
