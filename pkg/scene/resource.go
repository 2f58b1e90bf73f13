// pkg/scene/resource.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"fmt"
	"sync/atomic"
)

// Handle is an opaque reference to a renderer-side record describing the
// device objects backing a scene resource. The zero Handle is invalid.
type Handle struct {
	Index      uint32
	Generation uint32
}

func (h Handle) Valid() bool { return h.Generation != 0 }

func (h Handle) String() string {
	if !h.Valid() {
		return "handle(invalid)"
	}
	return fmt.Sprintf("handle(%d/%d)", h.Index, h.Generation)
}

var nextResourceID atomic.Uint64

// Resource is embedded in scene objects that have device-side
// counterparts (attribute data, index buffers, textures, skeletons). It
// carries a unique id, the renderer's Handle for it, and the functions
// to call when the object is disposed.
type Resource struct {
	id     uint64
	handle Handle
	hooks  []func()
}

// ID returns a process-unique identifier for the resource, assigned on
// first use.
func (r *Resource) ID() uint64 {
	if r.id == 0 {
		r.id = nextResourceID.Add(1)
	}
	return r.id
}

func (r *Resource) Handle() Handle { return r.handle }

// SetHandle is called by the renderer when it creates the record for the
// resource.
func (r *Resource) SetHandle(h Handle) { r.handle = h }

// OnDispose registers a function to be called when the resource is
// disposed.
func (r *Resource) OnDispose(f func()) {
	r.hooks = append(r.hooks, f)
}

// Dispose runs the registered disposal hooks, which release any device
// objects associated with the resource. The resource may be used again
// afterward, in which case new device objects are created on demand.
func (r *Resource) Dispose() {
	hooks := r.hooks
	r.hooks = nil
	for _, f := range hooks {
		f()
	}
	r.handle = Handle{}
}
