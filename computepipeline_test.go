package vku

import (
	"testing"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

func fabricatedReflection() *ShaderReflection {
	return &ShaderReflection{
		Sets: map[uint32]map[uint32]DescriptorInfo{
			0: {
				0: {Type: vk.DescriptorTypeStorageBuffer, Count: 1},
				1: {Type: vk.DescriptorTypeUniformBuffer, Count: 1},
			},
			1: {
				0: {Type: vk.DescriptorTypeStorageImage, Count: 2},
			},
		},
		Stages: vk.ShaderStageFlags(vk.ShaderStageComputeBit),
	}
}

func TestPlanLayoutGroupsBySet(t *testing.T) {
	plan := PlanLayout(fabricatedReflection(), nil, 0)

	if len(plan.SetBindings) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(plan.SetBindings))
	}

	set0 := plan.SetBindings[0]
	if len(set0) != 2 {
		t.Fatalf("set 0: expected 2 bindings, got %d", len(set0))
	}
	if set0[0].Binding != 0 || set0[0].DescriptorType != vk.DescriptorTypeStorageBuffer {
		t.Errorf("set 0 binding 0 wrong: %+v", set0[0])
	}
	if set0[1].Binding != 1 || set0[1].DescriptorType != vk.DescriptorTypeUniformBuffer {
		t.Errorf("set 0 binding 1 wrong: %+v", set0[1])
	}

	set1 := plan.SetBindings[1]
	if len(set1) != 1 || set1[0].DescriptorCount != 2 {
		t.Errorf("set 1 wrong: %+v", set1)
	}
}

func TestPlanLayoutPoolTotals(t *testing.T) {
	plan := PlanLayout(fabricatedReflection(), nil, 0)

	totals := map[vk.DescriptorType]uint32{}
	for _, size := range plan.PoolSizes {
		totals[size.Type] += size.DescriptorCount
	}

	if totals[vk.DescriptorTypeStorageBuffer] != 1 {
		t.Errorf("storage buffer total %d", totals[vk.DescriptorTypeStorageBuffer])
	}
	if totals[vk.DescriptorTypeUniformBuffer] != 1 {
		t.Errorf("uniform buffer total %d", totals[vk.DescriptorTypeUniformBuffer])
	}
	if totals[vk.DescriptorTypeStorageImage] != 2 {
		t.Errorf("storage image total %d", totals[vk.DescriptorTypeStorageImage])
	}
}

func TestPlanLayoutExplicitNewSet(t *testing.T) {
	explicit := map[uint32][]vk.DescriptorSetLayoutBinding{
		3: {{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 4,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}},
	}

	plan := PlanLayout(fabricatedReflection(), explicit, 0)

	if len(plan.SetBindings) != 4 {
		t.Fatalf("expected dense sets 0..3, got %d", len(plan.SetBindings))
	}
	if len(plan.SetBindings[2]) != 0 {
		t.Errorf("gap set 2 should be empty, has %d bindings", len(plan.SetBindings[2]))
	}
	set3 := plan.SetBindings[3]
	if len(set3) != 1 {
		t.Fatalf("explicit set not inserted: %+v", set3)
	}
	got, want := set3[0], explicit[3][0]
	if got.Binding != want.Binding || got.DescriptorType != want.DescriptorType ||
		got.DescriptorCount != want.DescriptorCount || got.StageFlags != want.StageFlags {
		t.Errorf("explicit set not inserted verbatim: %+v", got)
	}
}

func TestPlanLayoutExplicitAppendsToExistingSet(t *testing.T) {
	explicit := map[uint32][]vk.DescriptorSetLayoutBinding{
		0: {{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageComputeBit),
		}},
	}

	plan := PlanLayout(fabricatedReflection(), explicit, 0)

	set0 := plan.SetBindings[0]
	if len(set0) != 3 {
		t.Fatalf("expected reflected bindings plus appended explicit one, got %d", len(set0))
	}
	// Reflected bindings keep their places; the explicit one comes
	// after even though it reuses binding index 0.
	if set0[0].DescriptorType != vk.DescriptorTypeStorageBuffer {
		t.Errorf("reflected binding replaced: %+v", set0[0])
	}
	if set0[2].DescriptorType != vk.DescriptorTypeSampler {
		t.Errorf("explicit binding not appended: %+v", set0[2])
	}
}

func TestPlanLayoutClampsUnbounded(t *testing.T) {
	reflection := &ShaderReflection{
		Sets: map[uint32]map[uint32]DescriptorInfo{
			0: {
				0: {Type: vk.DescriptorTypeCombinedImageSampler, Count: UnboundedCount},
			},
		},
		Stages: vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}

	plan := PlanLayout(reflection, nil, 64)

	if plan.SetBindings[0][0].DescriptorCount != 64 {
		t.Errorf("unbounded binding not clamped: %d", plan.SetBindings[0][0].DescriptorCount)
	}
	if plan.PoolSizes[0].DescriptorCount != 64 {
		t.Errorf("unbounded pool size not clamped: %d", plan.PoolSizes[0].DescriptorCount)
	}

	plan = PlanLayout(reflection, nil, 0)
	if plan.SetBindings[0][0].DescriptorCount != DefaultMaxUnboundedDescriptors {
		t.Errorf("default clamp not applied: %d", plan.SetBindings[0][0].DescriptorCount)
	}
}

const squareShader = `
@group(0) @binding(0) var<storage, read_write> data: array<i32>;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = data[id.x] * data[id.x];
}
`

func TestComputePipelineEndToEnd(t *testing.T) {
	device, queue := testDevice(t)

	pipeline, err := NewComputePipelineFromSource(device, 1, squareShader, "main", nil)
	if err != nil {
		t.Fatalf("pipeline construction failed: %v", err)
	}
	defer pipeline.Destroy()

	data := make([]int32, 10)
	for i := range data {
		data[i] = int32(i)
	}
	buffer, err := NewHostVisibleBufferWithData(device, data, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		t.Fatalf("buffer creation failed: %v", err)
	}
	defer buffer.Destroy()

	pipeline.SetStorageBuffer(0, 0, buffer)

	cb, err := queue.CreateCommandBuffer()
	if err != nil {
		t.Fatalf("command buffer creation failed: %v", err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	cb.BindComputePipeline(pipeline)
	cb.Dispatch(uint32(len(data)), 1, 1)

	handle, err := cb.Submit()
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !handle.WaitFor(10 * time.Second) {
		t.Fatal("dispatch did not complete in time")
	}
	defer handle.Destroy()

	out, err := CopyData[int32](buffer)
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	for i, v := range out {
		if v != int32(i*i) {
			t.Errorf("value %d: got %d, want %d", i, v, i*i)
		}
	}
}

func TestComputePipelineCompileErrorSurfacesDiagnostic(t *testing.T) {
	device, _ := testDevice(t)

	_, err := NewComputePipelineFromSource(device, 1, "@compute fn broken( {", "main", nil)
	if err == nil {
		t.Fatal("broken shader produced a pipeline")
	}
}

func TestDescriptorWriteOutOfBoundsPanics(t *testing.T) {
	pipeline := &ComputePipeline{
		plan: LayoutPlan{SetBindings: [][]vk.DescriptorSetLayoutBinding{
			{{Binding: 0, DescriptorType: vk.DescriptorTypeStorageBuffer, DescriptorCount: 1}},
		}},
		descriptorSets: make([]vk.DescriptorSet, 1),
	}

	defer func() {
		if recover() == nil {
			t.Error("descriptor write outside allocated sets did not panic")
		}
	}()
	pipeline.mustSlot(5, 0)
}

func TestDescriptorWriteUnknownBindingPanics(t *testing.T) {
	pipeline := &ComputePipeline{
		plan: LayoutPlan{SetBindings: [][]vk.DescriptorSetLayoutBinding{
			{{Binding: 0, DescriptorType: vk.DescriptorTypeStorageBuffer, DescriptorCount: 1}},
		}},
		descriptorSets: make([]vk.DescriptorSet, 1),
	}

	defer func() {
		if recover() == nil {
			t.Error("descriptor write to an undeclared binding did not panic")
		}
	}()
	pipeline.mustSlot(0, 7)
}
