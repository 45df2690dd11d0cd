package vku

import (
	"time"
)

// WaitHandle tracks one submission. It owns the fence that signals
// completion and, transitively, the submitted command buffer; Destroy
// blocks until the device is done before releasing either, so resources
// referenced by the recorded commands stay alive for the device's whole
// use of them.
type WaitHandle struct {
	fence         *Fence
	commandBuffer *CommandBuffer
}

// HasCompleted polls without blocking.
func (w *WaitHandle) HasCompleted() bool {
	return w.fence.IsSignaled()
}

// Wait blocks until the submission completes.
func (w *WaitHandle) Wait() {
	w.fence.Wait()
}

// WaitFor blocks up to timeout and reports whether the submission
// completed in time.
func (w *WaitHandle) WaitFor(timeout time.Duration) bool {
	return w.fence.WaitFor(timeout)
}

// Destroy waits for completion, then returns the command buffer to its
// pool and destroys the fence. Safe to call on a handle that already
// completed.
func (w *WaitHandle) Destroy() {
	w.fence.Wait()
	w.commandBuffer.queue.freeCommandBuffer(w.commandBuffer.VKCommandBuffer)
	w.fence.Destroy()
}
