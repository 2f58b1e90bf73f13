// pkg/render/properties.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/scene"
)

type UploadState int

const (
	Unuploaded UploadState = iota
	// Uploading is used for textures that have a device texture bound
	// while their contents are still being loaded.
	Uploading
	Uploaded
	NeedsReupload
	NeedsPartialUpdate
)

func (s UploadState) String() string {
	return [...]string{"unuploaded", "uploading", "uploaded", "needs reupload", "needs partial update"}[s]
}

// Record holds the device objects and upload bookkeeping for one scene
// resource.
type Record struct {
	generation uint32
	live       bool

	State   UploadState
	Version int

	// Buffers
	Buffer        uint32
	ComponentType gpu.ComponentType
	ByteLength    int
	Usage         gpu.BufferUsage

	// Textures
	Texture       uint32
	Target        gpu.TextureTarget
	Width, Height int
	Bytes         int
}

// deviceDeleter is implemented by State, so that deleting device objects
// also updates the tracked bindings.
type deviceDeleter interface {
	DeleteBuffer(id uint32)
	DeleteTexture(id uint32)
}

// Properties is an arena of Records addressed by scene.Handle. Records
// are created when a resource is first used and released when the
// resource is disposed; released slots are reused with a new generation
// so that stale handles don't resolve.
type Properties struct {
	records []*Record
	free    []uint32
	del     deviceDeleter
	live    int
}

func NewProperties(del deviceDeleter) *Properties {
	return &Properties{del: del}
}

// Get returns the record for h or nil if h is stale or invalid.
func (p *Properties) Get(h scene.Handle) *Record {
	if !h.Valid() || int(h.Index) >= len(p.records) {
		return nil
	}
	if r := p.records[h.Index]; r.live && r.generation == h.Generation {
		return r
	}
	return nil
}

// Acquire returns the resource's record, creating it if the resource
// doesn't have one. The second return value reports whether the record
// was just created.
func (p *Properties) Acquire(res *scene.Resource) (*Record, bool) {
	if r := p.Get(res.Handle()); r != nil {
		return r, false
	}

	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = uint32(len(p.records))
		p.records = append(p.records, &Record{})
	}

	r := p.records[idx]
	gen := r.generation + 1
	*r = Record{generation: gen, live: true}
	p.live++

	h := scene.Handle{Index: idx, Generation: gen}
	res.SetHandle(h)
	res.OnDispose(func() { p.Release(h) })

	return r, true
}

// Release deletes the device objects held by the record for h and frees
// its slot. Stale handles are ignored.
func (p *Properties) Release(h scene.Handle) {
	r := p.Get(h)
	if r == nil {
		return
	}
	p.deleteObjects(r)
	r.live = false
	p.live--
	p.free = append(p.free, h.Index)
}

// Reset deletes the record's device objects but keeps the record itself,
// so that the resource is recreated the next time it is used.
func (p *Properties) Reset(r *Record) {
	p.deleteObjects(r)
	*r = Record{generation: r.generation, live: true}
}

func (p *Properties) deleteObjects(r *Record) {
	if r.Buffer != 0 {
		p.del.DeleteBuffer(r.Buffer)
		r.Buffer = 0
	}
	if r.Texture != 0 {
		p.del.DeleteTexture(r.Texture)
		r.Texture = 0
	}
}

// Len returns the number of live records.
func (p *Properties) Len() int {
	return p.live
}

// ReleaseAll releases every live record.
func (p *Properties) ReleaseAll() {
	for i, r := range p.records {
		if r.live {
			p.Release(scene.Handle{Index: uint32(i), Generation: r.generation})
		}
	}
}
