// pkg/scene/geometry.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"fmt"
	gomath "math"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/util"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mmp/earcut-go"
)

// Standard attribute names used by the built-in shaders.
const (
	AttribPosition       = "a_Position"
	AttribNormal         = "a_Normal"
	AttribUV             = "a_Uv"
	AttribColor          = "a_Color"
	AttribSkinIndex      = "skinIndex"
	AttribSkinWeight     = "skinWeight"
	AttribInstanceOffset = "instanceOffset"
	AttribLineDistance   = "lineDistance"
)

// Group is a sub-range of a Geometry drawn with its own material. Start
// and Count are in indices (or vertices, for non-indexed geometry).
type Group struct {
	Start, Count  int
	MaterialIndex int
}

type Geometry struct {
	Resource
	attributes map[string]Attribute
	Index      *BufferAttribute
	Usage      gpu.BufferUsage
	Groups     []Group
	// InstanceCount gives the number of instances to draw for geometry
	// with instanced attributes. If negative, it is derived from the
	// instanced attributes' counts.
	InstanceCount int
}

func NewGeometry() *Geometry {
	return &Geometry{
		attributes:    make(map[string]Attribute),
		Usage:         gpu.StaticDraw,
		InstanceCount: -1,
	}
}

func (g *Geometry) SetAttribute(name string, a Attribute) {
	g.attributes[name] = a
}

func (g *Geometry) Attribute(name string) Attribute {
	return g.attributes[name]
}

func (g *Geometry) RemoveAttribute(name string) {
	delete(g.attributes, name)
}

// AttributeNames returns the names of the geometry's attributes in sorted
// order.
func (g *Geometry) AttributeNames() []string {
	return util.SortedMapKeys(g.attributes)
}

func (g *Geometry) SetIndex16(idx []uint16) {
	g.Index = NewBufferAttribute(Uint16Array(idx), 1)
}

func (g *Geometry) SetIndex32(idx []uint32) {
	g.Index = NewBufferAttribute(Uint32Array(idx), 1)
}

func (g *Geometry) AddGroup(start, count, materialIndex int) {
	g.Groups = append(g.Groups, Group{Start: start, Count: count, MaterialIndex: materialIndex})
}

func (g *Geometry) ClearGroups() {
	g.Groups = nil
}

// IsInstanced reports whether any of the geometry's attributes are
// per-instance.
func (g *Geometry) IsInstanced() bool {
	for _, a := range g.attributes {
		if a.Divisor() > 0 {
			return true
		}
	}
	return false
}

// VertexCount returns the number of vertices given by the position
// attribute.
func (g *Geometry) VertexCount() int {
	if p := g.Attribute(AttribPosition); p != nil {
		return p.Count()
	}
	return 0
}

// Validate checks that all of the per-vertex attributes that don't share
// storage agree on the number of vertices.
func (g *Geometry) Validate() error {
	n := -1
	for _, name := range g.AttributeNames() {
		a := g.attributes[name]
		if a.Divisor() > 0 {
			continue
		}
		if _, ok := a.(*InterleavedAttribute); ok {
			continue
		}
		if n == -1 {
			n = a.Count()
		} else if a.Count() != n {
			return fmt.Errorf("%s: %d vertices; expected %d", name, a.Count(), n)
		}
	}
	return nil
}

// positions returns the geometry's vertex positions.
func (g *Geometry) positions() []mgl32.Vec3 {
	var p []mgl32.Vec3
	switch a := g.Attribute(AttribPosition).(type) {
	case *BufferAttribute:
		if f, ok := a.Array.(Float32Array); ok && a.Size >= 3 {
			for i := 0; i+2 < len(f); i += a.Size {
				p = append(p, mgl32.Vec3{f[i], f[i+1], f[i+2]})
			}
		}
	case *InterleavedAttribute:
		if f, ok := a.Data.Array.(Float32Array); ok && a.Data.Stride > 0 {
			for i := a.Offset; i+2 < len(f); i += a.Data.Stride {
				p = append(p, mgl32.Vec3{f[i], f[i+1], f[i+2]})
			}
		}
	}
	return p
}

// BoundingBox returns the bounds of the geometry's position attribute.
func (g *Geometry) BoundingBox() (pmin, pmax mgl32.Vec3) {
	p := g.positions()
	if len(p) == 0 {
		return
	}
	pmin, pmax = p[0], p[0]
	for _, v := range p[1:] {
		for c := range 3 {
			pmin[c] = min(pmin[c], v[c])
			pmax[c] = max(pmax[c], v[c])
		}
	}
	return
}

// BoundingSphere returns a sphere centered at the bounding box center that
// encloses all of the geometry's positions.
func (g *Geometry) BoundingSphere() (center mgl32.Vec3, radius float32) {
	pmin, pmax := g.BoundingBox()
	center = pmin.Add(pmax).Mul(0.5)
	for _, v := range g.positions() {
		radius = max(radius, v.Sub(center).Len())
	}
	return
}

// Dispose releases the geometry's device buffers, including those of its
// attributes and index.
func (g *Geometry) Dispose() {
	seen := make(map[*ArrayData]bool)
	for _, name := range g.AttributeNames() {
		if d := Backing(g.attributes[name]); d != nil && !seen[d] {
			seen[d] = true
			d.Dispose()
		}
	}
	if g.Index != nil {
		g.Index.Dispose()
	}
	g.Resource.Dispose()
}

///////////////////////////////////////////////////////////////////////////
// Builders

// NewPlaneGeometry returns a width x height plane in the xy plane, facing
// +z, with the given number of segments along each axis.
func NewPlaneGeometry(width, height float32, wsegs, hsegs int) *Geometry {
	wsegs, hsegs = max(wsegs, 1), max(hsegs, 1)
	var pos, norm, uv Float32Array
	for iy := 0; iy <= hsegs; iy++ {
		v := float32(iy) / float32(hsegs)
		for ix := 0; ix <= wsegs; ix++ {
			u := float32(ix) / float32(wsegs)
			pos = append(pos, (u-0.5)*width, (0.5-v)*height, 0)
			norm = append(norm, 0, 0, 1)
			uv = append(uv, u, 1-v)
		}
	}

	var idx []uint16
	for iy := range hsegs {
		for ix := range wsegs {
			a := uint16(ix + (wsegs+1)*iy)
			b := uint16(ix + (wsegs+1)*(iy+1))
			c := b + 1
			d := a + 1
			idx = append(idx, a, b, d, b, c, d)
		}
	}

	g := NewGeometry()
	g.SetAttribute(AttribPosition, NewBufferAttribute(pos, 3))
	g.SetAttribute(AttribNormal, NewBufferAttribute(norm, 3))
	g.SetAttribute(AttribUV, NewBufferAttribute(uv, 2))
	g.SetIndex16(idx)
	return g
}

// NewBoxGeometry returns an axis-aligned box centered at the origin. Each
// face is a separate group so that multi-material meshes can texture the
// faces independently.
func NewBoxGeometry(width, height, depth float32) *Geometry {
	type face struct {
		n, u, v mgl32.Vec3 // normal and in-plane axes
		su, sv  float32
		d       float32
	}
	faces := [6]face{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, depth, height, width / 2},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}, depth, height, width / 2},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, width, depth, height / 2},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, width, depth, height / 2},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, width, height, depth / 2},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}, width, height, depth / 2},
	}

	g := NewGeometry()
	var pos, norm, uv Float32Array
	var idx []uint16
	for i, f := range faces {
		base := uint16(4 * i)
		for _, c := range [4][2]float32{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}} {
			p := f.n.Mul(f.d).Add(f.u.Mul(c[0] * f.su)).Add(f.v.Mul(c[1] * f.sv))
			pos = append(pos, p[0], p[1], p[2])
			norm = append(norm, f.n[0], f.n[1], f.n[2])
			uv = append(uv, c[0]+0.5, c[1]+0.5)
		}
		idx = append(idx, base, base+1, base+2, base, base+2, base+3)
		g.AddGroup(6*i, 6, i)
	}
	g.SetAttribute(AttribPosition, NewBufferAttribute(pos, 3))
	g.SetAttribute(AttribNormal, NewBufferAttribute(norm, 3))
	g.SetAttribute(AttribUV, NewBufferAttribute(uv, 2))
	g.SetIndex16(idx)
	return g
}

// NewShapeGeometry triangulates a planar polygon in the xy plane. The first
// ring is the outer boundary and any subsequent rings are holes.
func NewShapeGeometry(rings ...[]mgl32.Vec2) (*Geometry, error) {
	if len(rings) == 0 || len(rings[0]) < 3 {
		return nil, fmt.Errorf("shape needs an outer ring with at least 3 vertices")
	}

	var poly earcut.Polygon
	pmin := mgl32.Vec2{gomath.MaxFloat32, gomath.MaxFloat32}
	pmax := mgl32.Vec2{-gomath.MaxFloat32, -gomath.MaxFloat32}
	for _, r := range rings {
		var ring []earcut.Vertex
		for _, p := range r {
			ring = append(ring, earcut.Vertex{P: [2]float64{float64(p[0]), float64(p[1])}})
			pmin = mgl32.Vec2{min(pmin[0], p[0]), min(pmin[1], p[1])}
			pmax = mgl32.Vec2{max(pmax[0], p[0]), max(pmax[1], p[1])}
		}
		poly.Rings = append(poly.Rings, ring)
	}

	tris := earcut.Triangulate(poly)
	if len(tris) == 0 {
		return nil, fmt.Errorf("shape triangulation produced no triangles")
	}

	extent := pmax.Sub(pmin)
	extent = mgl32.Vec2{max(extent[0], 1e-6), max(extent[1], 1e-6)}
	var pos, norm, uv Float32Array
	for _, tri := range tris {
		for _, v := range tri.Vertices {
			x, y := float32(v.P[0]), float32(v.P[1])
			pos = append(pos, x, y, 0)
			norm = append(norm, 0, 0, 1)
			uv = append(uv, (x-pmin[0])/extent[0], (y-pmin[1])/extent[1])
		}
	}

	g := NewGeometry()
	g.SetAttribute(AttribPosition, NewBufferAttribute(pos, 3))
	g.SetAttribute(AttribNormal, NewBufferAttribute(norm, 3))
	g.SetAttribute(AttribUV, NewBufferAttribute(uv, 2))
	return g, nil
}
