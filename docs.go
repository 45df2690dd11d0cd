/*
Package vku is a mid-level abstraction layered directly above the Vulkan
graphics and compute API. Vulkan is explicit by design: memory placement,
resource lifetime, descriptor plumbing and submission synchronization are
all left to the application. This package makes those chores safe and
ergonomic for gophers without hiding the performance-relevant decisions.

The core of the package is three tightly coupled pieces:

Resources:
	BufferResource and Image2DResource each own exactly one device memory
	allocation and one native handle. The pair is created together and
	destroyed together; a partially constructed resource is never returned.
	Upload, CopyAlignedTo and CopyData move bytes across the mapping
	boundary with explicit flush semantics.

Reflection driven pipelines:
	ComputePipeline consumes compiled SPIR-V plus ShaderReflection
	metadata and builds the descriptor set layouts, pipeline layout,
	descriptor pool and descriptor sets the shader expects. Bindings are
	then populated through SetStorageBuffer, SetUniformBuffer and
	SetStorageImage.

Command recording and completion:
	CommandBuffer records an ordered, single-use sequence of GPU work
	drawn from a CommandQueue. Submit returns a WaitHandle backed by a
	fence; the handle owns the recorded sequence until the device has
	finished with it, so no resource referenced by in-flight work is
	released early.

All native Vulkan handles are exposed through fields or methods prefixed
with VK, so applications are never limited to what this package wraps.

The package assumes a single issuing thread. The Device, CommandQueue and
command pool may be shared across recorders, but concurrent recording or
submission into the same queue requires caller supplied mutual exclusion.
*/
package vku
