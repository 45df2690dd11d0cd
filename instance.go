package vku

import (
	"fmt"
	"log"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// InitializeForComputeOnly initializes the Vulkan loader for compute work
// without any window system integration. Programs that present to a
// surface should instead initialize through their windowing library
// (see examples/triangle).
func InitializeForComputeOnly() error {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return err
	}
	return vk.Init()
}

// Version is used to specify versions of components
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns a Vulkan compatible version representation
func (v *Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// App describes this application to Vulkan and collects the layers and
// extensions to enable on the instance. It is the one caller-owned
// initialization step; there is no package level instance state.
type App struct {
	// Name the name of the application
	Name string
	// EngineName the name of the engine associated with the application
	EngineName string
	// Version the version of the application
	Version Version
	// APIVersion the expected minimum version of the Vulkan API (i.e. 1.0.0)
	APIVersion Version

	// EnabledLayers the enabled layers
	EnabledLayers []string

	// EnabledExtensions the enabled extensions
	EnabledExtensions []string
}

// SupportedLayers returns the instance layers known to the loader. The
// loader must have been initialized first.
func SupportedLayers() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil))
	if err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	err = vk.Error(vk.EnumerateInstanceLayerProperties(&count, props))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range props {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// SupportedExtensions returns the instance extensions known to the
// loader. The loader must have been initialized first.
func SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil))
	if err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	err = vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, props))
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

// EnableValidation turns on the Khronos validation layer and the debug
// reporting extensions.
func (a *App) EnableValidation() {
	a.EnableLayer("VK_LAYER_KHRONOS_validation")
	a.EnableExtension("VK_EXT_debug_report")
}

// EnableLayer enables a specific layer if the loader supports it.
func (a *App) EnableLayer(layer string) (*App, error) {
	layers, err := SupportedLayers()
	if err != nil {
		return a, fmt.Errorf("error getting supported layers: %w", err)
	}
	for _, l := range layers {
		if l == layer {
			a.EnabledLayers = append(a.EnabledLayers, layer)
			return a, nil
		}
	}
	return a, fmt.Errorf("layer '%s' not found", layer)
}

// EnableExtension enables an extension for use by the application.
func (a *App) EnableExtension(extension string) *App {
	a.EnabledExtensions = append(a.EnabledExtensions, extension)
	return a
}

// VKApplicationInfo creates a structure representing this application in
// a Vulkan friendly format.
func (a *App) VKApplicationInfo() vk.ApplicationInfo {
	if a.APIVersion.Major < 1 {
		a.APIVersion.Major = 1
	}
	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         a.APIVersion.VKVersion(),
		ApplicationVersion: a.Version.VKVersion(),
		PApplicationName:   safeString(a.Name),
		PEngineName:        safeString(a.EngineName),
	}
}

// CreateInstance creates the Vulkan instance.
func (a *App) CreateInstance() (*Instance, error) {
	appInfo := a.VKApplicationInfo()

	extensions := safeStrings(a.EnabledExtensions)
	layers := safeStrings(a.EnabledLayers)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	instance := &Instance{}

	err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance.VKInstance))
	if err != nil {
		return nil, err
	}
	vk.InitInstance(instance.VKInstance)

	return instance, nil
}

// Instance is an initialized connection to the Vulkan runtime.
type Instance struct {
	// VKInstance is the native Vulkan instance object
	VKInstance vk.Instance
}

func (i *Instance) Destroy() {
	vk.DestroyInstance(i.VKInstance, nil)
}

// Gpus returns the physical devices known to this instance.
func (i *Instance) Gpus() ([]*Gpu, error) {
	var deviceCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, nil))
	if err != nil {
		return nil, err
	}
	if deviceCount == 0 {
		return nil, nil
	}

	devices := make([]vk.PhysicalDevice, deviceCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, devices))
	if err != nil {
		return nil, err
	}

	ret := make([]*Gpu, deviceCount)
	for j, device := range devices {
		ret[j] = newGpu(device)
	}
	return ret, nil
}

// GpusWithQueueSupport returns the physical devices exposing at least one
// queue family with the given capability flags.
func (i *Instance) GpusWithQueueSupport(flags vk.QueueFlagBits) ([]*Gpu, error) {
	gpus, err := i.Gpus()
	if err != nil {
		return nil, err
	}
	ret := make([]*Gpu, 0, len(gpus))
	for _, g := range gpus {
		if _, ok := g.QueueFamilyIndex(flags); ok {
			ret = append(ret, g)
		}
	}
	return ret, nil
}

// UseDefaultDebugCallback installs DefaultDebugCallback.
func (i *Instance) UseDefaultDebugCallback() error {
	return i.SetDebugCallback(DefaultDebugCallback)
}

// SetDebugCallback registers a debug report callback on this instance.
// VK_EXT_debug_report must have been enabled on the App.
func (i *Instance) SetDebugCallback(callback vk.DebugReportCallbackFunc) error {
	var debugCallback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(i.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
		PfnCallback: callback,
	}, nil, &debugCallback)
	return vk.Error(ret)
}

// DefaultDebugCallback logs validation messages by severity.
func DefaultDebugCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Printf("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Printf("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		log.Printf("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		log.Printf("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
