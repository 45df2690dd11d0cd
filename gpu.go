package vku

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Gpu wraps a physical hardware device. It caches the property and queue
// family tables queried at enumeration time.
type Gpu struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties

	queueFamilyProperties []vk.QueueFamilyProperties
}

func newGpu(device vk.PhysicalDevice) *Gpu {
	g := &Gpu{VKPhysicalDevice: device}

	vk.GetPhysicalDeviceProperties(device, &g.VKPhysicalDeviceProperties)
	g.VKPhysicalDeviceProperties.Deref()
	g.DeviceName = vk.ToString(g.VKPhysicalDeviceProperties.DeviceName[:])

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	if count > 0 {
		g.queueFamilyProperties = make([]vk.QueueFamilyProperties, count)
		vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, g.queueFamilyProperties)
		for i := range g.queueFamilyProperties {
			g.queueFamilyProperties[i].Deref()
		}
	}

	return g
}

func (g *Gpu) String() string {
	return g.DeviceName
}

func (g *Gpu) VendorID() uint32 {
	return g.VKPhysicalDeviceProperties.VendorID
}

func (g *Gpu) DeviceID() uint32 {
	return g.VKPhysicalDeviceProperties.DeviceID
}

func (g *Gpu) DriverVersion() uint32 {
	return g.VKPhysicalDeviceProperties.DriverVersion
}

func (g *Gpu) IsDiscrete() bool {
	return g.VKPhysicalDeviceProperties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu
}

func (g *Gpu) IsVirtual() bool {
	return g.VKPhysicalDeviceProperties.DeviceType == vk.PhysicalDeviceTypeVirtualGpu
}

func (g *Gpu) Limits() vk.PhysicalDeviceLimits {
	limits := g.VKPhysicalDeviceProperties.Limits
	limits.Deref()
	return limits
}

// QueueFamilyIndex returns the first queue family carrying all the given
// capability flags.
func (g *Gpu) QueueFamilyIndex(flags vk.QueueFlagBits) (uint32, bool) {
	for i, props := range g.queueFamilyProperties {
		if props.QueueFlags&vk.QueueFlags(flags) == vk.QueueFlags(flags) {
			return uint32(i), true
		}
	}
	return 0, false
}

func (g *Gpu) QueueFamilyCount() int {
	return len(g.queueFamilyProperties)
}

func (g *Gpu) QueueCount(queueFamilyIndex uint32) uint32 {
	return g.queueFamilyProperties[queueFamilyIndex].QueueCount
}

func (g *Gpu) SupportsCompute() bool {
	_, ok := g.QueueFamilyIndex(vk.QueueComputeBit)
	return ok
}

func (g *Gpu) SupportsGraphics() bool {
	_, ok := g.QueueFamilyIndex(vk.QueueGraphicsBit)
	return ok
}

func (g *Gpu) SupportsTransfer() bool {
	_, ok := g.QueueFamilyIndex(vk.QueueTransferBit)
	return ok
}

// SupportsPresent reports whether the queue family can present to the
// given surface.
func (g *Gpu) SupportsPresent(queueFamilyIndex uint32, surface vk.Surface) bool {
	var supported vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(g.VKPhysicalDevice, queueFamilyIndex, surface, &supported)
	return supported == vk.True
}

// MemoryTypes returns the device's memory type table.
func (g *Gpu) MemoryTypes() []vk.MemoryType {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(g.VKPhysicalDevice, &props)
	props.Deref()

	ret := make([]vk.MemoryType, props.MemoryTypeCount)
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		mt := props.MemoryTypes[i]
		mt.Deref()
		ret[i] = mt
	}
	return ret
}

// MemoryHeaps returns the device's memory heap table.
func (g *Gpu) MemoryHeaps() []vk.MemoryHeap {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(g.VKPhysicalDevice, &props)
	props.Deref()

	ret := make([]vk.MemoryHeap, props.MemoryHeapCount)
	for i := uint32(0); i < props.MemoryHeapCount; i++ {
		mh := props.MemoryHeaps[i]
		mh.Deref()
		ret[i] = mh
	}
	return ret
}

// SupportedExtensions returns the device level extensions.
func (g *Gpu) SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(g.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	err = vk.Error(vk.EnumerateDeviceExtensionProperties(g.VKPhysicalDevice, "", &count, props))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range props {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

func (g *Gpu) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(g.VKPhysicalDevice, surface, &caps))
	if err != nil {
		return nil, err
	}
	caps.Deref()
	return &caps, nil
}

func (g *Gpu) GetSurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(g.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfaceFormats(g.VKPhysicalDevice, surface, &count, formats))
	if err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

func (g *Gpu) GetSurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(g.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(g.VKPhysicalDevice, surface, &count, modes))
	if err != nil {
		return nil, err
	}
	return modes, nil
}

// CreateDeviceOptions collects the optional parts of logical device
// creation. The zero value enables a single queue and no extensions.
type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string
}

// CreateDevice creates a logical device with one queue from the family
// selected by flags.
func (g *Gpu) CreateDevice(flags vk.QueueFlagBits, options *CreateDeviceOptions) (*Device, error) {
	familyIndex, ok := g.QueueFamilyIndex(flags)
	if !ok {
		return nil, fmt.Errorf("gpu '%s' has no queue family matching flags %b", g.DeviceName, flags)
	}

	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: familyIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(g.VKPhysicalDevice, &features)

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueCreateInfo},
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{features},
	}

	if options != nil {
		if options.EnabledExtensions != nil {
			deviceCreateInfo.EnabledExtensionCount = uint32(len(options.EnabledExtensions))
			deviceCreateInfo.PpEnabledExtensionNames = safeStrings(options.EnabledExtensions)
		}
		if options.EnabledLayers != nil {
			deviceCreateInfo.EnabledLayerCount = uint32(len(options.EnabledLayers))
			deviceCreateInfo.PpEnabledLayerNames = safeStrings(options.EnabledLayers)
		}
	}

	var ldevice vk.Device
	err := vk.Error(vk.CreateDevice(g.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice))
	if err != nil {
		return nil, err
	}

	return &Device{Gpu: g, VKDevice: ldevice}, nil
}
