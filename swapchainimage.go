package vku

import (
	vk "github.com/vulkan-go/vulkan"
)

// SwapchainImage is an image owned by the presentation engine. It
// satisfies ImageResource so that recorded work can transition, blit or
// copy it like any other image, but it does not own its handle or view;
// the swapchain releases those.
type SwapchainImage struct {
	handle vk.Image
	view   vk.ImageView
	layout vk.ImageLayout
	format vk.Format
	width  uint32
	height uint32
}

func (s *SwapchainImage) Width() uint32          { return s.width }
func (s *SwapchainImage) Height() uint32         { return s.height }
func (s *SwapchainImage) Depth() uint32          { return 1 }
func (s *SwapchainImage) Format() vk.Format      { return s.format }
func (s *SwapchainImage) Layout() vk.ImageLayout { return s.layout }
func (s *SwapchainImage) Handle() vk.Image       { return s.handle }
func (s *SwapchainImage) View() vk.ImageView     { return s.view }

func (s *SwapchainImage) SetLayout(layout vk.ImageLayout) {
	s.layout = layout
}
