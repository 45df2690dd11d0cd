package vku

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory is one native allocation of host or device memory. It is
// exclusively owned by the resource it backs; the pair is always
// destroyed together.
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	TypeIndex      uint32

	ptr unsafe.Pointer
}

// IsMapped returns true if the memory is currently mapped.
func (d *DeviceMemory) IsMapped() bool {
	return d.ptr != nil
}

// Destroy frees the native allocation.
func (d *DeviceMemory) Destroy() {
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
	d.VKDeviceMemory = vk.NullDeviceMemory
}

// Map maps the entire allocation and returns a pointer to it.
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	return d.MapRange(0, d.Size)
}

// MapRange maps size bytes starting at offset.
func (d *DeviceMemory) MapRange(offset, size uint64) (unsafe.Pointer, error) {
	if d.ptr != nil {
		return nil, fmt.Errorf("memory is already mapped")
	}
	var res unsafe.Pointer
	err := vk.Error(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &res))
	if err != nil {
		return nil, err
	}
	d.ptr = res
	return res, nil
}

// Unmap unmaps the memory.
func (d *DeviceMemory) Unmap() {
	d.ptr = nil
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
}

// Flush makes host writes in the given mapped range device visible.
// Required on host visible memory that is not host coherent.
func (d *DeviceMemory) Flush(offset, size uint64) error {
	r := vk.MappedMemoryRange{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: d.VKDeviceMemory,
		Offset: vk.DeviceSize(offset),
		Size:   vk.DeviceSize(size),
	}
	return vk.Error(vk.FlushMappedMemoryRanges(d.Device.VKDevice, 1, []vk.MappedMemoryRange{r}))
}

// Invalidate makes device writes in the given mapped range host visible.
func (d *DeviceMemory) Invalidate(offset, size uint64) error {
	r := vk.MappedMemoryRange{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: d.VKDeviceMemory,
		Offset: vk.DeviceSize(offset),
		Size:   vk.DeviceSize(size),
	}
	return vk.Error(vk.InvalidateMappedMemoryRanges(d.Device.VKDevice, 1, []vk.MappedMemoryRange{r}))
}

// MapCopyUnmap maps the memory, copies data into it, flushes the written
// range and unmaps.
func (d *DeviceMemory) MapCopyUnmap(data []byte) error {
	ptr, err := d.MapRange(0, uint64(len(data)))
	if err != nil {
		return err
	}

	copy(ToBytes(ptr, len(data)), data)

	if err := d.Flush(0, WholeSize); err != nil {
		d.Unmap()
		return err
	}
	d.Unmap()
	return nil
}
