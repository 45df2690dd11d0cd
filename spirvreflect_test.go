package vku

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func ins(op uint32, operands ...uint32) []uint32 {
	words := []uint32{uint32(len(operands)+1)<<16 | op}
	return append(words, operands...)
}

func assemble(instructions ...[]uint32) []uint32 {
	words := []uint32{spirvMagic, 0x00010000, 0, 100, 0}
	for _, instruction := range instructions {
		words = append(words, instruction...)
	}
	return words
}

// "main" NUL terminated, little endian.
var mainLiteral = []uint32{0x6e69616d, 0}

func TestReflectStorageBuffer(t *testing.T) {
	words := assemble(
		ins(opEntryPoint, executionModelGLCompute, 1, mainLiteral[0], mainLiteral[1]),
		ins(opDecorate, 4, decorationBufferBlock),
		ins(opDecorate, 6, decorationDescriptorSet, 0),
		ins(opDecorate, 6, decorationBinding, 2),
		ins(opTypeInt, 2, 32, 1),
		ins(opTypeRuntimeArray, 3, 2),
		ins(opTypeStruct, 4, 3),
		ins(opTypePointer, 5, storageClassUniform, 4),
		ins(opVariable, 5, 6, storageClassUniform),
	)

	reflection, err := ReflectSPIRV(words)
	if err != nil {
		t.Fatalf("reflection failed: %v", err)
	}

	if reflection.Stages != vk.ShaderStageFlags(vk.ShaderStageComputeBit) {
		t.Errorf("stages %b", reflection.Stages)
	}

	info, ok := reflection.Sets[0][2]
	if !ok {
		t.Fatalf("binding (0, 2) not reflected, sets: %v", reflection.Sets)
	}
	if info.Type != vk.DescriptorTypeStorageBuffer {
		t.Errorf("descriptor type %d", info.Type)
	}
	if info.Count != 1 {
		t.Errorf("count %d", info.Count)
	}
}

func TestReflectUnboundedSamplerArray(t *testing.T) {
	words := assemble(
		ins(opEntryPoint, executionModelFragment, 1, mainLiteral[0], mainLiteral[1]),
		ins(opDecorate, 15, decorationDescriptorSet, 1),
		ins(opDecorate, 15, decorationBinding, 0),
		ins(opTypeFloat, 10, 32),
		// 2D, not depth, not arrayed, single sampled, sampled usage.
		ins(opTypeImage, 11, 10, 1, 0, 0, 0, 1, 0),
		ins(opTypeSampledImage, 12, 11),
		ins(opTypeRuntimeArray, 13, 12),
		ins(opTypePointer, 14, storageClassUniformConstant, 13),
		ins(opVariable, 14, 15, storageClassUniformConstant),
	)

	reflection, err := ReflectSPIRV(words)
	if err != nil {
		t.Fatalf("reflection failed: %v", err)
	}

	info, ok := reflection.Sets[1][0]
	if !ok {
		t.Fatalf("binding (1, 0) not reflected")
	}
	if info.Type != vk.DescriptorTypeCombinedImageSampler {
		t.Errorf("descriptor type %d", info.Type)
	}
	if info.Count != UnboundedCount {
		t.Errorf("runtime array not reported unbounded: %d", info.Count)
	}
}

func TestReflectStorageImageArray(t *testing.T) {
	words := assemble(
		ins(opEntryPoint, executionModelGLCompute, 1, mainLiteral[0], mainLiteral[1]),
		ins(opDecorate, 34, decorationDescriptorSet, 0),
		ins(opDecorate, 34, decorationBinding, 3),
		ins(opTypeInt, 2, 32, 1),
		// Storage usage (sampled = 2).
		ins(opTypeImage, 30, 2, 1, 0, 0, 0, 2, 0),
		ins(opConstant, 2, 31, 4),
		ins(opTypeArray, 32, 30, 31),
		ins(opTypePointer, 33, storageClassUniformConstant, 32),
		ins(opVariable, 33, 34, storageClassUniformConstant),
	)

	reflection, err := ReflectSPIRV(words)
	if err != nil {
		t.Fatalf("reflection failed: %v", err)
	}

	info, ok := reflection.Sets[0][3]
	if !ok {
		t.Fatalf("binding (0, 3) not reflected")
	}
	if info.Type != vk.DescriptorTypeStorageImage {
		t.Errorf("descriptor type %d", info.Type)
	}
	if info.Count != 4 {
		t.Errorf("array count %d", info.Count)
	}
}

func TestReflectPushConstantRange(t *testing.T) {
	words := assemble(
		ins(opEntryPoint, executionModelGLCompute, 1, mainLiteral[0], mainLiteral[1]),
		ins(opMemberDecorate, 22, 0, decorationOffset, 0),
		ins(opMemberDecorate, 22, 1, decorationOffset, 16),
		ins(opTypeFloat, 20, 32),
		ins(opTypeVector, 21, 20, 4),
		ins(opTypeStruct, 22, 21, 21),
		ins(opTypePointer, 23, storageClassPushConstant, 22),
		ins(opVariable, 23, 24, storageClassPushConstant),
	)

	reflection, err := ReflectSPIRV(words)
	if err != nil {
		t.Fatalf("reflection failed: %v", err)
	}

	if len(reflection.PushConstantRanges) != 1 {
		t.Fatalf("expected one push constant range, got %d", len(reflection.PushConstantRanges))
	}
	pc := reflection.PushConstantRanges[0]
	if pc.Size != 32 {
		t.Errorf("push constant size %d, want 32", pc.Size)
	}
	if pc.StageFlags != vk.ShaderStageFlags(vk.ShaderStageComputeBit) {
		t.Errorf("push constant stages %b", pc.StageFlags)
	}
}

func TestReflectRejectsBadModule(t *testing.T) {
	if _, err := ReflectSPIRV([]uint32{1, 2, 3}); err == nil {
		t.Error("short module accepted")
	}
	if _, err := ReflectSPIRV([]uint32{0xdeadbeef, 0, 0, 0, 0}); err == nil {
		t.Error("bad magic accepted")
	}
}
