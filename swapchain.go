package vku

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// ErrSurfaceOutOfDate reports that the surface no longer matches the
// swapchain; the caller rebuilds the swapchain and retries.
var ErrSurfaceOutOfDate = errors.New("surface out of date")

// Swapchain owns the presentable images of a surface together with the
// render pass, framebuffers and acquire semaphores the presentation
// loop needs.
type Swapchain struct {
	Device      *Device
	Queue       *CommandQueue
	VKSwapchain vk.Swapchain
	Surface     vk.Surface
	Format      vk.Format
	Extent      vk.Extent2D

	images            []*SwapchainImage
	imageViews        []vk.ImageView
	renderPass        *RenderPass
	framebuffers      []*Framebuffer
	acquireSemaphores []vk.Semaphore
	currentIndex      uint32
}

// NewSwapchain builds a swapchain for the surface, preferring mailbox
// presentation and a B8G8R8A8 unorm format. Pass the previous swapchain
// when rebuilding after a resize or an out of date error; it stays the
// caller's to destroy.
func NewSwapchain(device *Device, surface vk.Surface, oldSwapchain *Swapchain, queue *CommandQueue, width, height uint32) (*Swapchain, error) {
	gpu := device.Gpu

	caps, err := gpu.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, fmt.Errorf("surface capability query failed: %w", err)
	}

	formats, err := gpu.GetSurfaceFormats(surface)
	if err != nil {
		return nil, fmt.Errorf("surface format query failed: %w", err)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("surface reports no formats")
	}
	format := formats[0]
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Unorm {
			format = f
			break
		}
	}

	modes, err := gpu.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, fmt.Errorf("surface present mode query failed: %w", err)
	}
	presentMode := vk.PresentModeFifo
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			presentMode = mode
			break
		}
	}

	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	extent := caps.CurrentExtent
	if extent.Width == vk.MaxUint32 {
		extent = vk.Extent2D{
			Width:  clampUint32(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
			Height: clampUint32(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
		}
	}

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if oldSwapchain != nil {
		createInfo.OldSwapchain = oldSwapchain.VKSwapchain
	}

	var handle vk.Swapchain
	err = vk.Error(vk.CreateSwapchain(device.VKDevice, createInfo, nil, &handle))
	if err != nil {
		return nil, fmt.Errorf("swapchain creation failed: %w", err)
	}

	s := &Swapchain{
		Device:      device,
		Queue:       queue,
		VKSwapchain: handle,
		Surface:     surface,
		Format:      format.Format,
		Extent:      extent,
	}

	if err := s.buildImages(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *Swapchain) buildImages() error {
	var count uint32
	err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &count, nil))
	if err != nil {
		return fmt.Errorf("swapchain image query failed: %w", err)
	}
	handles := make([]vk.Image, count)
	err = vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &count, handles))
	if err != nil {
		return fmt.Errorf("swapchain image query failed: %w", err)
	}

	s.renderPass, err = NewPresentRenderPass(s.Device, s.Format)
	if err != nil {
		return fmt.Errorf("swapchain render pass creation failed: %w", err)
	}

	for _, handle := range handles {
		view, err := createColorView(s.Device, handle, s.Format)
		if err != nil {
			return fmt.Errorf("swapchain image view creation failed: %w", err)
		}
		s.imageViews = append(s.imageViews, view)

		framebuffer, err := s.Device.CreateFramebuffer(s.renderPass, []vk.ImageView{view}, s.Extent.Width, s.Extent.Height)
		if err != nil {
			return fmt.Errorf("swapchain framebuffer creation failed: %w", err)
		}
		s.framebuffers = append(s.framebuffers, framebuffer)

		semaphore, err := s.Device.CreateSemaphore()
		if err != nil {
			return fmt.Errorf("swapchain semaphore creation failed: %w", err)
		}
		s.acquireSemaphores = append(s.acquireSemaphores, semaphore)

		s.images = append(s.images, &SwapchainImage{
			handle: handle,
			view:   view,
			layout: vk.ImageLayoutUndefined,
			format: s.Format,
			width:  s.Extent.Width,
			height: s.Extent.Height,
		})
	}
	return nil
}

// AcquireNext blocks for the next presentable image and returns its
// index, the framebuffer over it, the semaphore the acquisition signals
// and whether the swapchain is suboptimal for the surface. An out of
// date surface is reported as ErrSurfaceOutOfDate.
func (s *Swapchain) AcquireNext() (uint32, *Framebuffer, vk.Semaphore, bool, error) {
	semaphore := s.acquireSemaphores[s.currentIndex]

	var index uint32
	result := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, vk.MaxUint64,
		semaphore, vk.Fence(vk.NullHandle), &index)

	switch result {
	case vk.Success, vk.Suboptimal:
		s.currentIndex = (s.currentIndex + 1) % uint32(len(s.images))
		return index, s.framebuffers[index], semaphore, result == vk.Suboptimal, nil
	case vk.ErrorOutOfDate:
		return 0, nil, vk.NullSemaphore, false, ErrSurfaceOutOfDate
	default:
		return 0, nil, vk.NullSemaphore, false, fmt.Errorf("image acquisition failed: %w", vk.Error(result))
	}
}

// Present queues the image for presentation once waitSemaphore signals.
func (s *Swapchain) Present(waitSemaphore vk.Semaphore, index uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{waitSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.VKSwapchain},
		PImageIndices:      []uint32{index},
	}

	result := vk.QueuePresent(s.Queue.VKQueue, &presentInfo)
	switch result {
	case vk.Success, vk.Suboptimal:
		return nil
	case vk.ErrorOutOfDate:
		return ErrSurfaceOutOfDate
	default:
		return fmt.Errorf("present failed: %w", vk.Error(result))
	}
}

func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

func (s *Swapchain) Image(index uint32) *SwapchainImage {
	return s.images[index]
}

func (s *Swapchain) RenderPass() *RenderPass {
	return s.renderPass
}

func (s *Swapchain) Framebuffer(index uint32) *Framebuffer {
	return s.framebuffers[index]
}

// Destroy releases the views, semaphores, framebuffers, render pass and
// swapchain handle. The surface belongs to the caller.
func (s *Swapchain) Destroy() {
	for _, semaphore := range s.acquireSemaphores {
		s.Device.DestroySemaphore(semaphore)
	}
	s.acquireSemaphores = nil
	for _, framebuffer := range s.framebuffers {
		framebuffer.Destroy()
	}
	s.framebuffers = nil
	for _, view := range s.imageViews {
		vk.DestroyImageView(s.Device.VKDevice, view, nil)
	}
	s.imageViews = nil
	s.images = nil
	if s.renderPass != nil {
		s.renderPass.Destroy()
		s.renderPass = nil
	}
	if s.VKSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
		s.VKSwapchain = vk.NullSwapchain
	}
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
