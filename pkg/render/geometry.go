// pkg/render/geometry.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"log/slog"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/scene"
)

// GeometryBinder keeps the device buffers for geometry attributes and
// indices up to date and sets up the vertex attribute pointers for a
// program.
type GeometryBinder struct {
	dev   gpu.Device
	state *State
	props *Properties
	caps  *Capabilities
	diag  *diagnostics
	stats *Stats
}

// SetGeometry uploads whatever parts of the geometry's attribute and
// index data have changed and binds its index buffer. It returns true if
// any device buffer was created, in which case vertex attribute pointers
// must be set up again.
func (gb *GeometryBinder) SetGeometry(g *scene.Geometry) bool {
	created := false
	for _, name := range g.AttributeNames() {
		if d := scene.Backing(g.Attribute(name)); d != nil {
			// Interleaved attributes share their backing data; the
			// version check makes repeat updates no-ops.
			created = gb.update(d, gpu.ArrayBuffer, g.Usage) || created
		}
	}

	if g.Index != nil {
		created = gb.update(&g.Index.ArrayData, gpu.ElementArrayBuffer, g.Usage) || created
		if rec := gb.props.Get(g.Index.Handle()); rec != nil {
			gb.state.BindBuffer(gpu.ElementArrayBuffer, rec.Buffer)
		}
	}
	return created
}

// update brings the device buffer for d up to date, returning true if
// the buffer was created.
func (gb *GeometryBinder) update(d *scene.ArrayData, target gpu.BufferTarget, usage gpu.BufferUsage) bool {
	if d.Array == nil {
		return false
	}

	rec, _ := gb.props.Acquire(&d.Resource)
	data := d.Array.Bytes()
	ctype := d.Array.ComponentType()

	switch {
	case rec.Buffer == 0:
		rec.State = Unuploaded
	case rec.ByteLength != len(data) || rec.ComponentType != ctype:
		// Buffers are never resized in place.
		gb.props.Reset(rec)
		rec.State = NeedsReupload
	case rec.Version != d.Version:
		if d.Dirty.Whole || d.Dirty.IsZero() {
			rec.State = NeedsReupload
		} else {
			rec.State = NeedsPartialUpdate
		}
	default:
		return false
	}

	created := false
	if rec.Buffer == 0 {
		rec.Buffer = gb.dev.CreateBuffer()
		created = true
	}
	gb.state.BindBuffer(target, rec.Buffer)

	if rec.State == NeedsPartialUpdate {
		start, end := d.Dirty.ByteRange(ctype.Size(), len(data))
		if end > start {
			gb.dev.BufferSubData(target, start, data[start:end])
		}
		gb.stats.BufferSubUploads++
		gb.stats.BufferBytes += end - start
	} else {
		gb.dev.BufferData(target, data, usage)
		gb.stats.BufferUploads++
		gb.stats.BufferBytes += len(data)
	}

	rec.State = Uploaded
	rec.Version = d.Version
	rec.ComponentType = ctype
	rec.ByteLength = len(data)
	rec.Usage = usage
	d.Dirty = scene.DirtyRange{}

	return created
}

// SetupVertexAttributes points each of the program's attributes at the
// geometry's corresponding buffer and disables the attribute arrays that
// the program doesn't use.
func (gb *GeometryBinder) SetupVertexAttributes(p *Program, g *scene.Geometry) {
	gb.state.InitAttributes()

	for _, pa := range p.Attributes {
		a := g.Attribute(pa.Name)
		if a == nil {
			// The draw uses whatever was last bound at this location.
			gb.diag.report(DiagMissingAttribute, "geometry is missing attribute", slog.String("attribute", pa.Name),
				slog.String("program", p.Name))
			gb.state.KeepAttribute(uint32(pa.Location))
			continue
		}
		if n := pa.Type.Components(); n != a.ItemSize() {
			gb.diag.report(DiagAttributeSize, "attribute size mismatch", slog.String("attribute", pa.Name),
				slog.Int("program_size", n), slog.Int("geometry_size", a.ItemSize()))
		}

		rec := gb.props.Get(scene.Backing(a).Handle())
		if rec == nil || rec.Buffer == 0 {
			continue
		}

		divisor := a.Divisor()
		if divisor > 0 && !gb.caps.Instancing {
			gb.diag.report(DiagInstancing, "instanced attribute without instancing support",
				slog.String("attribute", pa.Name))
		}

		loc := uint32(pa.Location)
		gb.state.EnableAttribute(loc, uint32(divisor))
		gb.state.BindBuffer(gpu.ArrayBuffer, rec.Buffer)

		stride, offset := 0, 0
		if ia, ok := a.(*scene.InterleavedAttribute); ok {
			elt := rec.ComponentType.Size()
			stride, offset = elt*ia.Data.Stride, elt*ia.Offset
		}
		gb.dev.VertexAttribPointer(loc, int32(a.ItemSize()), rec.ComponentType, a.IsNormalized(), stride, offset)
	}

	gb.state.DisableUnusedAttributes()
	gb.stats.AttributeRewires++
}

// InstanceCount returns the number of instances to draw for instanced
// geometry: the geometry's instance count if it's been set and otherwise
// the number of instances covered by its first instanced attribute.
func InstanceCount(g *scene.Geometry) int {
	if g.InstanceCount >= 0 {
		return g.InstanceCount
	}
	for _, name := range g.AttributeNames() {
		if a := g.Attribute(name); a.Divisor() > 0 {
			return a.Divisor() * a.Count()
		}
	}
	return 0
}
