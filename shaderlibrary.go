package vku

import (
	"fmt"
	"path/filepath"

	vk "github.com/vulkan-go/vulkan"
)

// ShaderModule wraps one compiled shader module.
type ShaderModule struct {
	Device         *Device
	VKShaderModule vk.ShaderModule
}

// LoadShaderModule creates a shader module from SPIR-V words.
func (d *Device) LoadShaderModule(spirv []uint32) (*ShaderModule, error) {
	var module vk.ShaderModule
	err := vk.Error(vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(spirv) * 4),
		PCode:    spirv,
	}, nil, &module))
	if err != nil {
		return nil, err
	}
	return &ShaderModule{Device: d, VKShaderModule: module}, nil
}

// LoadShaderModuleFromFile creates a shader module from a compiled
// SPIR-V binary on disk.
func (d *Device) LoadShaderModuleFromFile(path string) (*ShaderModule, error) {
	spirv, err := LoadSPIRVFile(path)
	if err != nil {
		return nil, err
	}
	return d.LoadShaderModule(spirv)
}

func (s *ShaderModule) VKPipelineShaderStageCreateInfo(stage vk.ShaderStageFlagBits, entryPoint string) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: s.VKShaderModule,
		PName:  safeString(entryPoint),
	}
}

func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.Device.VKDevice, s.VKShaderModule, nil)
}

// ShaderLibraryEntry is one registered module with the stage and entry
// point it is used at.
type ShaderLibraryEntry struct {
	Module     *ShaderModule
	Stage      vk.ShaderStageFlagBits
	EntryPoint string
}

func (e *ShaderLibraryEntry) VKPipelineShaderStageCreateInfo() vk.PipelineShaderStageCreateInfo {
	return e.Module.VKPipelineShaderStageCreateInfo(e.Stage, e.EntryPoint)
}

// ShaderLibrary is an id keyed registry of shader modules, loaded from
// SPIR-V words, binaries under a root directory, or WGSL source.
type ShaderLibrary struct {
	Device  *Device
	Root    string
	entries map[string]*ShaderLibraryEntry
}

func NewShaderLibrary(device *Device, root string) *ShaderLibrary {
	return &ShaderLibrary{
		Device:  device,
		Root:    root,
		entries: map[string]*ShaderLibraryEntry{},
	}
}

// AddSPIRV registers a module under id.
func (l *ShaderLibrary) AddSPIRV(stage vk.ShaderStageFlagBits, id, entryPoint string, spirv []uint32) error {
	module, err := l.Device.LoadShaderModule(spirv)
	if err != nil {
		return fmt.Errorf("shader %q: %w", id, err)
	}
	l.entries[id] = &ShaderLibraryEntry{Module: module, Stage: stage, EntryPoint: entryPoint}
	return nil
}

// AddSPIRVFromFile registers a module from a SPIR-V binary relative to
// the library root.
func (l *ShaderLibrary) AddSPIRVFromFile(stage vk.ShaderStageFlagBits, id, entryPoint, path string) error {
	spirv, err := LoadSPIRVFile(filepath.Join(l.Root, path))
	if err != nil {
		return fmt.Errorf("shader %q: %w", id, err)
	}
	return l.AddSPIRV(stage, id, entryPoint, spirv)
}

// AddSource compiles WGSL source and registers the result. Compiler
// diagnostics surface in the returned error.
func (l *ShaderLibrary) AddSource(stage vk.ShaderStageFlagBits, id, entryPoint, source string) error {
	result := CompileShader(source)
	if result.Failed() {
		return fmt.Errorf("shader %q: %s", id, result.ErrorString())
	}
	return l.AddSPIRV(stage, id, entryPoint, result.SPIRV())
}

// Get returns the entry for id, or nil when absent.
func (l *ShaderLibrary) Get(id string) *ShaderLibraryEntry {
	return l.entries[id]
}

// MustGet returns the entry for id and panics when absent.
func (l *ShaderLibrary) MustGet(id string) *ShaderLibraryEntry {
	entry := l.entries[id]
	if entry == nil {
		panic(fmt.Sprintf("no shader registered under %q", id))
	}
	return entry
}

// Destroy releases every registered module.
func (l *ShaderLibrary) Destroy() {
	for _, entry := range l.entries {
		entry.Module.Destroy()
	}
	l.entries = map[string]*ShaderLibraryEntry{}
}
