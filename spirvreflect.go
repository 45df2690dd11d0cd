package vku

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Minimal SPIR-V reflection: enough of the binary module format to
// recover descriptor bindings per set, push constant ranges and the
// stages served by the module. Only the opcodes involved in resource
// declarations are interpreted, everything else is skipped.

const spirvMagic = 0x07230203

const (
	opName             = 5
	opEntryPoint       = 15
	opTypeInt          = 21
	opTypeFloat        = 22
	opTypeVector       = 23
	opTypeMatrix       = 24
	opTypeImage        = 25
	opTypeSampler      = 26
	opTypeSampledImage = 27
	opTypeArray        = 28
	opTypeRuntimeArray = 29
	opTypeStruct       = 30
	opTypePointer      = 32
	opConstant         = 43
	opVariable         = 59
	opDecorate         = 71
	opMemberDecorate   = 72
)

const (
	decorationBlock         = 2
	decorationBufferBlock   = 3
	decorationBinding       = 33
	decorationDescriptorSet = 34
	decorationOffset        = 35
)

const (
	storageClassUniformConstant = 0
	storageClassInput           = 1
	storageClassUniform         = 2
	storageClassOutput          = 3
	storageClassPushConstant    = 9
	storageClassStorageBuffer   = 12
)

const (
	executionModelVertex                 = 0
	executionModelTessellationControl    = 1
	executionModelTessellationEvaluation = 2
	executionModelGeometry               = 3
	executionModelFragment               = 4
	executionModelGLCompute              = 5
)

const dimBuffer = 5
const dimSubpassData = 6

type spirvType struct {
	op       uint32
	operands []uint32
}

type spirvVariable struct {
	id           uint32
	storageClass uint32
	pointerType  uint32
}

type spirvModule struct {
	names         map[uint32]string
	sets          map[uint32]uint32
	bindings      map[uint32]uint32
	blocks        map[uint32]bool
	bufferBlocks  map[uint32]bool
	memberOffsets map[uint32]map[uint32]uint32
	constants     map[uint32]uint32
	types         map[uint32]spirvType
	variables     []spirvVariable
	stages        vk.ShaderStageFlags
}

// ReflectSPIRV parses a SPIR-V module and extracts its descriptor
// bindings, push constant ranges and stages.
func ReflectSPIRV(words []uint32) (*ShaderReflection, error) {
	if len(words) < 5 {
		return nil, fmt.Errorf("spirv module too short: %d words", len(words))
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("bad spirv magic: %#x", words[0])
	}

	module := &spirvModule{
		names:         map[uint32]string{},
		sets:          map[uint32]uint32{},
		bindings:      map[uint32]uint32{},
		blocks:        map[uint32]bool{},
		bufferBlocks:  map[uint32]bool{},
		memberOffsets: map[uint32]map[uint32]uint32{},
		constants:     map[uint32]uint32{},
		types:         map[uint32]spirvType{},
	}

	for at := 5; at < len(words); {
		wordCount := int(words[at] >> 16)
		opcode := words[at] & 0xffff
		if wordCount == 0 || at+wordCount > len(words) {
			return nil, fmt.Errorf("truncated spirv instruction at word %d", at)
		}
		operands := words[at+1 : at+wordCount]
		module.scan(opcode, operands)
		at += wordCount
	}

	return module.reflect()
}

func (m *spirvModule) scan(opcode uint32, operands []uint32) {
	switch opcode {
	case opEntryPoint:
		if len(operands) >= 1 {
			m.stages |= stageFromExecutionModel(operands[0])
		}
	case opName:
		if len(operands) >= 2 {
			m.names[operands[0]] = decodeLiteralString(operands[1:])
		}
	case opDecorate:
		if len(operands) < 2 {
			return
		}
		target := operands[0]
		switch operands[1] {
		case decorationDescriptorSet:
			m.sets[target] = operands[2]
		case decorationBinding:
			m.bindings[target] = operands[2]
		case decorationBlock:
			m.blocks[target] = true
		case decorationBufferBlock:
			m.bufferBlocks[target] = true
		}
	case opMemberDecorate:
		if len(operands) >= 4 && operands[2] == decorationOffset {
			offsets := m.memberOffsets[operands[0]]
			if offsets == nil {
				offsets = map[uint32]uint32{}
				m.memberOffsets[operands[0]] = offsets
			}
			offsets[operands[1]] = operands[3]
		}
	case opConstant:
		if len(operands) >= 3 {
			m.constants[operands[1]] = operands[2]
		}
	case opTypeInt, opTypeFloat, opTypeVector, opTypeMatrix, opTypeImage,
		opTypeSampler, opTypeSampledImage, opTypeArray, opTypeRuntimeArray,
		opTypeStruct, opTypePointer:
		if len(operands) >= 1 {
			m.types[operands[0]] = spirvType{op: opcode, operands: operands[1:]}
		}
	case opVariable:
		if len(operands) >= 3 {
			m.variables = append(m.variables, spirvVariable{
				id:           operands[1],
				storageClass: operands[2],
				pointerType:  operands[0],
			})
		}
	}
}

func (m *spirvModule) reflect() (*ShaderReflection, error) {
	reflection := &ShaderReflection{
		Sets:   map[uint32]map[uint32]DescriptorInfo{},
		Stages: m.stages,
	}

	for _, variable := range m.variables {
		switch variable.storageClass {
		case storageClassInput, storageClassOutput:
			continue
		case storageClassPushConstant:
			size := m.pointeeSize(variable.pointerType)
			reflection.PushConstantRanges = append(reflection.PushConstantRanges, vk.PushConstantRange{
				StageFlags: m.stages,
				Offset:     0,
				Size:       size,
			})
			continue
		case storageClassUniformConstant, storageClassUniform, storageClassStorageBuffer:
		default:
			continue
		}

		set, hasSet := m.sets[variable.id]
		binding, hasBinding := m.bindings[variable.id]
		if !hasSet || !hasBinding {
			continue
		}

		descriptorType, count, err := m.classify(variable)
		if err != nil {
			return nil, err
		}

		if reflection.Sets[set] == nil {
			reflection.Sets[set] = map[uint32]DescriptorInfo{}
		}
		reflection.Sets[set][binding] = DescriptorInfo{
			Type:  descriptorType,
			Count: count,
			Name:  m.names[variable.id],
		}
	}

	return reflection, nil
}

// classify resolves a resource variable through its pointer and array
// wrappers to a descriptor type and element count. Runtime sized arrays
// yield UnboundedCount.
func (m *spirvModule) classify(variable spirvVariable) (vk.DescriptorType, uint32, error) {
	pointer, ok := m.types[variable.pointerType]
	if !ok || pointer.op != opTypePointer || len(pointer.operands) < 2 {
		return 0, 0, fmt.Errorf("variable %%%d has no pointer type", variable.id)
	}

	typeID := pointer.operands[1]
	count := uint32(1)
	for {
		t, ok := m.types[typeID]
		if !ok {
			return 0, 0, fmt.Errorf("variable %%%d references unknown type %%%d", variable.id, typeID)
		}
		if t.op == opTypeArray && len(t.operands) >= 2 {
			count *= m.constants[t.operands[1]]
			typeID = t.operands[0]
			continue
		}
		if t.op == opTypeRuntimeArray && len(t.operands) >= 1 {
			// Runtime arrays inside a block describe the block's last
			// member, not a descriptor array; only an outer runtime
			// array of opaque types is unbounded.
			count = UnboundedCount
			typeID = t.operands[0]
			continue
		}
		break
	}

	t := m.types[typeID]
	switch t.op {
	case opTypeSampledImage:
		return vk.DescriptorTypeCombinedImageSampler, count, nil
	case opTypeSampler:
		return vk.DescriptorTypeSampler, count, nil
	case opTypeImage:
		return classifyImage(t, count)
	case opTypeStruct:
		if variable.storageClass == storageClassStorageBuffer || m.bufferBlocks[typeID] {
			return vk.DescriptorTypeStorageBuffer, count, nil
		}
		return vk.DescriptorTypeUniformBuffer, count, nil
	}
	return 0, 0, fmt.Errorf("variable %%%d has unsupported resource type op %d", variable.id, t.op)
}

func classifyImage(t spirvType, count uint32) (vk.DescriptorType, uint32, error) {
	// OpTypeImage operands: sampled type, dim, depth, arrayed, ms,
	// sampled, format.
	if len(t.operands) < 7 {
		return 0, 0, fmt.Errorf("malformed OpTypeImage")
	}
	dim := t.operands[1]
	sampled := t.operands[5]

	switch {
	case dim == dimSubpassData:
		return vk.DescriptorTypeInputAttachment, count, nil
	case dim == dimBuffer && sampled == 1:
		return vk.DescriptorTypeUniformTexelBuffer, count, nil
	case dim == dimBuffer && sampled == 2:
		return vk.DescriptorTypeStorageTexelBuffer, count, nil
	case sampled == 2:
		return vk.DescriptorTypeStorageImage, count, nil
	default:
		return vk.DescriptorTypeSampledImage, count, nil
	}
}

// pointeeSize computes the byte size of the block a pointer type points
// at, using explicit member offsets where decorated. Used for push
// constant ranges.
func (m *spirvModule) pointeeSize(pointerType uint32) uint32 {
	pointer, ok := m.types[pointerType]
	if !ok || pointer.op != opTypePointer || len(pointer.operands) < 2 {
		return 0
	}
	return m.sizeOf(pointer.operands[1])
}

func (m *spirvModule) sizeOf(typeID uint32) uint32 {
	t, ok := m.types[typeID]
	if !ok {
		return 0
	}
	switch t.op {
	case opTypeInt, opTypeFloat:
		if len(t.operands) >= 1 {
			return t.operands[0] / 8
		}
	case opTypeVector, opTypeMatrix:
		if len(t.operands) >= 2 {
			return t.operands[1] * m.sizeOf(t.operands[0])
		}
	case opTypeArray:
		if len(t.operands) >= 2 {
			return m.constants[t.operands[1]] * m.sizeOf(t.operands[0])
		}
	case opTypeStruct:
		var size uint32
		offsets := m.memberOffsets[typeID]
		for member, memberType := range t.operands {
			end := offsets[uint32(member)] + m.sizeOf(memberType)
			if end > size {
				size = end
			}
		}
		return size
	}
	return 0
}

func stageFromExecutionModel(model uint32) vk.ShaderStageFlags {
	switch model {
	case executionModelVertex:
		return vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	case executionModelTessellationControl:
		return vk.ShaderStageFlags(vk.ShaderStageTessellationControlBit)
	case executionModelTessellationEvaluation:
		return vk.ShaderStageFlags(vk.ShaderStageTessellationEvaluationBit)
	case executionModelGeometry:
		return vk.ShaderStageFlags(vk.ShaderStageGeometryBit)
	case executionModelFragment:
		return vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	case executionModelGLCompute:
		return vk.ShaderStageFlags(vk.ShaderStageComputeBit)
	}
	return 0
}

func decodeLiteralString(words []uint32) string {
	raw := make([]byte, 0, len(words)*4)
	for _, w := range words {
		raw = append(raw, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}
