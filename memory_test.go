package vku

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func memType(flags vk.MemoryPropertyFlagBits) vk.MemoryType {
	return vk.MemoryType{PropertyFlags: vk.MemoryPropertyFlags(flags)}
}

func TestFindMemoryType(t *testing.T) {
	hostVisible := vk.MemoryPropertyHostVisibleBit
	hostCoherent := vk.MemoryPropertyHostCoherentBit
	deviceLocal := vk.MemoryPropertyDeviceLocalBit

	types := []vk.MemoryType{
		memType(deviceLocal),
		memType(hostVisible),
		memType(hostVisible | hostCoherent),
		memType(deviceLocal | hostVisible | hostCoherent),
	}

	tests := []struct {
		name      string
		filter    uint32
		required  vk.MemoryPropertyFlagBits
		wantIndex uint32
		wantOK    bool
	}{
		{"first match wins", 0b1111, hostVisible, 1, true},
		{"superset satisfies request", 0b1111, hostVisible | hostCoherent, 2, true},
		{"filter excludes earlier candidates", 0b1000, hostVisible, 3, true},
		{"device local", 0b1111, deviceLocal, 0, true},
		{"no type carries the flags", 0b0011, hostVisible | hostCoherent, 0, false},
		{"empty filter", 0, hostVisible, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, ok := FindMemoryType(tt.filter, types, vk.MemoryPropertyFlags(tt.required))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && index != tt.wantIndex {
				t.Errorf("index = %d, want %d", index, tt.wantIndex)
			}
			if ok {
				got := types[index].PropertyFlags
				want := vk.MemoryPropertyFlags(tt.required)
				if got&want != want {
					t.Errorf("selected type flags %b are not a superset of %b", got, want)
				}
			}
		})
	}
}

func TestFindMemoryTypeEmptyTable(t *testing.T) {
	if _, ok := FindMemoryType(0xffffffff, nil, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)); ok {
		t.Error("expected no match against an empty memory type table")
	}
}
