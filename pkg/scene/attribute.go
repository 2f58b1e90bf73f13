// pkg/scene/attribute.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"unsafe"

	"github.com/mmp/scenegl/pkg/gpu"
)

// TypedArray is the backing store for vertex and index data.
type TypedArray interface {
	ComponentType() gpu.ComponentType
	// Len returns the number of elements in the array.
	Len() int
	// Bytes returns the array's contents, without copying.
	Bytes() []byte
}

type (
	Float32Array []float32
	Uint32Array  []uint32
	Uint16Array  []uint16
	Uint8Array   []uint8
	Int16Array   []int16
	Int8Array    []int8
)

func sliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var v T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(v)))
}

func (a Float32Array) ComponentType() gpu.ComponentType { return gpu.Float }
func (a Uint32Array) ComponentType() gpu.ComponentType  { return gpu.UnsignedInt }
func (a Uint16Array) ComponentType() gpu.ComponentType  { return gpu.UnsignedShort }
func (a Uint8Array) ComponentType() gpu.ComponentType   { return gpu.UnsignedByte }
func (a Int16Array) ComponentType() gpu.ComponentType   { return gpu.Short }
func (a Int8Array) ComponentType() gpu.ComponentType    { return gpu.Byte }

func (a Float32Array) Len() int { return len(a) }
func (a Uint32Array) Len() int  { return len(a) }
func (a Uint16Array) Len() int  { return len(a) }
func (a Uint8Array) Len() int   { return len(a) }
func (a Int16Array) Len() int   { return len(a) }
func (a Int8Array) Len() int    { return len(a) }

func (a Float32Array) Bytes() []byte { return sliceBytes(a) }
func (a Uint32Array) Bytes() []byte  { return sliceBytes(a) }
func (a Uint16Array) Bytes() []byte  { return sliceBytes(a) }
func (a Uint8Array) Bytes() []byte   { return sliceBytes(a) }
func (a Int16Array) Bytes() []byte   { return sliceBytes(a) }
func (a Int8Array) Bytes() []byte    { return sliceBytes(a) }

// DirtyRange describes the part of an array that has changed since it was
// last uploaded. Offset and Count are in elements of the array. Whole
// requests an upload of the entire array and takes precedence over the
// range.
type DirtyRange struct {
	Offset, Count int
	Whole         bool
}

func (d DirtyRange) IsZero() bool { return d.Count == 0 && !d.Whole }

// ByteRange returns the byte range covered by the dirty range for an array
// with elements of the given size, clamped to total bytes.
func (d DirtyRange) ByteRange(elementSize, total int) (start, end int) {
	start = min(max(d.Offset*elementSize, 0), total)
	end = min(start+d.Count*elementSize, total)
	return
}

// Attribute is a vertex attribute of a Geometry. It is one of
// *BufferAttribute, *InstancedAttribute, or *InterleavedAttribute.
type Attribute interface {
	// ItemSize returns the number of components per vertex.
	ItemSize() int
	// Count returns the number of vertices (or instances).
	Count() int
	IsNormalized() bool
	// Divisor returns the number of instances that share each item of
	// the attribute, or 0 for per-vertex attributes.
	Divisor() int

	isAttribute()
}

// ArrayData holds a typed array along with the state used to track
// changes to it.
type ArrayData struct {
	Resource
	Array TypedArray
	// Dirty is reset by the renderer after the array is uploaded.
	Dirty   DirtyRange
	Version int
}

// NeedsUpdate marks the entire array as needing to be uploaded.
func (d *ArrayData) NeedsUpdate() {
	d.Dirty = DirtyRange{Whole: true}
	d.Version++
}

// MarkDirty records that count elements starting at offset have changed.
// Multiple calls before the next upload are merged into a single range; a
// pending whole-array upload is left as is.
func (d *ArrayData) MarkDirty(offset, count int) {
	d.Version++
	if d.Dirty.Whole {
		return
	}
	if !d.Dirty.IsZero() {
		end := max(d.Dirty.Offset+d.Dirty.Count, offset+count)
		offset = min(offset, d.Dirty.Offset)
		count = end - offset
	}
	d.Dirty = DirtyRange{Offset: offset, Count: count}
}

// BufferAttribute is a flat per-vertex attribute.
type BufferAttribute struct {
	ArrayData
	Size       int
	Normalized bool
}

func NewBufferAttribute(array TypedArray, itemSize int) *BufferAttribute {
	return &BufferAttribute{ArrayData: ArrayData{Array: array}, Size: itemSize}
}

func (a *BufferAttribute) ItemSize() int      { return a.Size }
func (a *BufferAttribute) IsNormalized() bool { return a.Normalized }
func (a *BufferAttribute) Divisor() int       { return 0 }
func (a *BufferAttribute) isAttribute()       {}

func (a *BufferAttribute) Count() int {
	if a.Size == 0 || a.Array == nil {
		return 0
	}
	return a.Array.Len() / a.Size
}

// InstancedAttribute is a flat attribute that advances once every
// MeshPerAttribute instances rather than once per vertex.
type InstancedAttribute struct {
	BufferAttribute
	MeshPerAttribute int
}

func NewInstancedAttribute(array TypedArray, itemSize, meshPerAttribute int) *InstancedAttribute {
	return &InstancedAttribute{
		BufferAttribute:  *NewBufferAttribute(array, itemSize),
		MeshPerAttribute: max(meshPerAttribute, 1),
	}
}

func (a *InstancedAttribute) Divisor() int { return a.MeshPerAttribute }

// InterleavedBuffer stores several attributes' data in a single array;
// Stride is the number of elements between consecutive vertices.
type InterleavedBuffer struct {
	ArrayData
	Stride int
	// If Instanced is true, the buffer's attributes advance once every
	// MeshPerAttribute instances.
	Instanced        bool
	MeshPerAttribute int
}

func NewInterleavedBuffer(array TypedArray, stride int) *InterleavedBuffer {
	return &InterleavedBuffer{ArrayData: ArrayData{Array: array}, Stride: stride}
}

func NewInstancedInterleavedBuffer(array TypedArray, stride, meshPerAttribute int) *InterleavedBuffer {
	b := NewInterleavedBuffer(array, stride)
	b.Instanced = true
	b.MeshPerAttribute = max(meshPerAttribute, 1)
	return b
}

func (b *InterleavedBuffer) Count() int {
	if b.Stride == 0 || b.Array == nil {
		return 0
	}
	return b.Array.Len() / b.Stride
}

// InterleavedAttribute is a view of one attribute in an InterleavedBuffer;
// Offset is in elements from the start of each vertex.
type InterleavedAttribute struct {
	Data       *InterleavedBuffer
	Size       int
	Offset     int
	Normalized bool
}

func NewInterleavedAttribute(data *InterleavedBuffer, itemSize, offset int, normalized bool) *InterleavedAttribute {
	return &InterleavedAttribute{Data: data, Size: itemSize, Offset: offset, Normalized: normalized}
}

func (a *InterleavedAttribute) ItemSize() int      { return a.Size }
func (a *InterleavedAttribute) Count() int         { return a.Data.Count() }
func (a *InterleavedAttribute) IsNormalized() bool { return a.Normalized }
func (a *InterleavedAttribute) isAttribute()       {}

func (a *InterleavedAttribute) Divisor() int {
	if a.Data.Instanced {
		return a.Data.MeshPerAttribute
	}
	return 0
}

// Backing returns the array data that holds the attribute's values.
func Backing(a Attribute) *ArrayData {
	switch a := a.(type) {
	case *BufferAttribute:
		return &a.ArrayData
	case *InstancedAttribute:
		return &a.ArrayData
	case *InterleavedAttribute:
		return &a.Data.ArrayData
	default:
		return nil
	}
}
