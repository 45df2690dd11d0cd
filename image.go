package vku

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// ImageResource is any image-like resource that can be recorded against:
// transitioned, blitted, cleared or copied. The two implementations
// differ only in destruction behavior: Image2DResource owns its memory
// and view, SwapchainImage borrows them from the presentation engine.
type ImageResource interface {
	Width() uint32
	Height() uint32
	Depth() uint32
	Format() vk.Format
	// Layout returns the layout this package last transitioned the
	// image to.
	Layout() vk.ImageLayout
	SetLayout(layout vk.ImageLayout)
	Handle() vk.Image
	View() vk.ImageView
}

// Image2DResource is a 2D image paired with the device memory that backs
// it and a color view of it. Handle, memory and view are created
// together and destroyed together.
type Image2DResource struct {
	Device *Device

	image  vk.Image
	memory *DeviceMemory
	view   vk.ImageView
	layout vk.ImageLayout
	width  uint32
	height uint32
	format vk.Format
}

// NewImage2DResource creates a 2D image with the given usage, backed by
// newly allocated memory with the requested property flags, plus a color
// view of it. Construction is all or nothing: on any failure every
// handle created along the way is released.
func NewImage2DResource(device *Device, width, height uint32, format vk.Format, usage vk.ImageUsageFlags, properties vk.MemoryPropertyFlags) (*Image2DResource, error) {
	imageInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var image vk.Image
	err := vk.Error(vk.CreateImage(device.VKDevice, &imageInfo, nil, &image))
	if err != nil {
		return nil, fmt.Errorf("image creation failed: %w", err)
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device.VKDevice, image, &memoryRequirements)
	memoryRequirements.Deref()

	memory, err := device.Allocate(uint64(memoryRequirements.Size), memoryRequirements.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyImage(device.VKDevice, image, nil)
		return nil, fmt.Errorf("image memory allocation failed: %w", err)
	}

	err = vk.Error(vk.BindImageMemory(device.VKDevice, image, memory.VKDeviceMemory, 0))
	if err != nil {
		memory.Destroy()
		vk.DestroyImage(device.VKDevice, image, nil)
		return nil, fmt.Errorf("image memory bind failed: %w", err)
	}

	view, err := createColorView(device, image, format)
	if err != nil {
		memory.Destroy()
		vk.DestroyImage(device.VKDevice, image, nil)
		return nil, fmt.Errorf("image view creation failed: %w", err)
	}

	return &Image2DResource{
		Device: device,
		image:  image,
		memory: memory,
		view:   view,
		layout: vk.ImageLayoutUndefined,
		width:  width,
		height: height,
		format: format,
	}, nil
}

// NewDeviceLocalStorageImage creates a device local image usable as a
// shader storage image and transfer source.
func NewDeviceLocalStorageImage(device *Device, width, height uint32, format vk.Format) (*Image2DResource, error) {
	return NewImage2DResource(device, width, height, format,
		vk.ImageUsageFlags(vk.ImageUsageStorageBit|vk.ImageUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
}

func createColorView(device *Device, image vk.Image, format vk.Format) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	err := vk.Error(vk.CreateImageView(device.VKDevice, &createInfo, nil, &view))
	if err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

func (i *Image2DResource) Width() uint32        { return i.width }
func (i *Image2DResource) Height() uint32       { return i.height }
func (i *Image2DResource) Depth() uint32        { return 1 }
func (i *Image2DResource) Format() vk.Format    { return i.format }
func (i *Image2DResource) Layout() vk.ImageLayout { return i.layout }
func (i *Image2DResource) Handle() vk.Image     { return i.image }
func (i *Image2DResource) View() vk.ImageView   { return i.view }

func (i *Image2DResource) SetLayout(layout vk.ImageLayout) {
	i.layout = layout
}

// DSInfo returns the descriptor image info used to bind this image as a
// storage image.
func (i *Image2DResource) DSInfo() vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		ImageView:   i.view,
		ImageLayout: i.layout,
	}
}

// Destroy releases view, memory and image handle together.
func (i *Image2DResource) Destroy() {
	if i.view != vk.NullImageView {
		vk.DestroyImageView(i.Device.VKDevice, i.view, nil)
		i.view = vk.NullImageView
	}
	if i.memory != nil {
		i.memory.Destroy()
		i.memory = nil
	}
	if i.image != vk.NullImage {
		vk.DestroyImage(i.Device.VKDevice, i.image, nil)
		i.image = vk.NullImage
	}
}
