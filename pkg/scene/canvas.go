// pkg/scene/canvas.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"github.com/mmp/scenegl/pkg/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// CanvasBatch is a run of consecutive canvas sprites that share a
// texture; each sprite is a quad of 6 indices.
type CanvasBatch struct {
	Texture *Texture2D
	Count   int
}

type canvasSprite struct {
	tex        *Texture2D
	x, y, w, h float32
	uv         mgl32.Vec4 // u0, v0, u1, v1
}

// Canvas2D is a collection of textured quads laid out in a
// Width x Height coordinate space with the origin at the lower left.
// Screen canvases are drawn over the whole viewport with their own
// orthographic camera; otherwise the canvas is placed in the world by its
// object's world matrix.
type Canvas2D struct {
	Width, Height float32
	Screen        bool
	OrthoCamera   *Camera
	// Viewport is the device rectangle the canvas was last drawn to.
	Viewport [4]int32

	sprites []canvasSprite
	batches []CanvasBatch
}

// NewCanvas2D returns the canvas and the object that draws it.
func NewCanvas2D(width, height float32, screen bool) (*Canvas2D, *Object) {
	c := &Canvas2D{
		Width:       width,
		Height:      height,
		Screen:      screen,
		OrthoCamera: NewOrthoCamera(0, width, 0, height, -1, 1),
	}
	o := NewObject(KindCanvas2D, NewGeometry(), NewCanvas2DMaterial())
	o.Geometry.Usage = gpu.StreamDraw
	o.Canvas = c
	c.update(o.Geometry)
	return c, o
}

// Clear removes all of the canvas's sprites.
func (c *Canvas2D) Clear() {
	c.sprites = c.sprites[:0]
}

// AddSprite adds a quad with the given lower-left corner and size that
// shows the entire texture.
func (c *Canvas2D) AddSprite(tex *Texture2D, x, y, w, h float32) {
	c.AddSpriteUV(tex, x, y, w, h, mgl32.Vec4{0, 0, 1, 1})
}

// AddSpriteUV adds a quad showing the given (u0, v0, u1, v1) region of
// the texture.
func (c *Canvas2D) AddSpriteUV(tex *Texture2D, x, y, w, h float32, uv mgl32.Vec4) {
	c.sprites = append(c.sprites, canvasSprite{tex: tex, x: x, y: y, w: w, h: h, uv: uv})
}

// Batches returns the draw batches computed by the last Update.
func (c *Canvas2D) Batches() []CanvasBatch {
	return c.batches
}

// SetRenderViewport records the device rectangle that a screen canvas is
// drawn to.
func (c *Canvas2D) SetRenderViewport(x, y, w, h int32) {
	c.Viewport = [4]int32{x, y, w, h}
}

// Update rebuilds the canvas object's geometry and batches from its
// sprites. It must be called after sprites are added or removed.
func (c *Canvas2D) Update(o *Object) {
	c.update(o.Geometry)
}

func (c *Canvas2D) update(g *Geometry) {
	pos := make(Float32Array, 0, 12*len(c.sprites))
	uv := make(Float32Array, 0, 8*len(c.sprites))
	idx := make([]uint16, 0, 6*len(c.sprites))
	c.batches = c.batches[:0]

	for i, s := range c.sprites {
		pos = append(pos, s.x, s.y, 0, s.x+s.w, s.y, 0, s.x+s.w, s.y+s.h, 0, s.x, s.y+s.h, 0)
		uv = append(uv, s.uv[0], s.uv[1], s.uv[2], s.uv[1], s.uv[2], s.uv[3], s.uv[0], s.uv[3])
		b := uint16(4 * i)
		idx = append(idx, b, b+1, b+2, b, b+2, b+3)

		if n := len(c.batches); n > 0 && c.batches[n-1].Texture == s.tex {
			c.batches[n-1].Count++
		} else {
			c.batches = append(c.batches, CanvasBatch{Texture: s.tex, Count: 1})
		}
	}

	setOrUpdate := func(name string, data Float32Array, size int) {
		if a, ok := g.Attribute(name).(*BufferAttribute); ok {
			a.Array = data
			a.NeedsUpdate()
		} else {
			g.SetAttribute(name, NewBufferAttribute(data, size))
		}
	}
	setOrUpdate(AttribPosition, pos, 3)
	setOrUpdate(AttribUV, uv, 2)
	if g.Index != nil {
		g.Index.Array = Uint16Array(idx)
		g.Index.NeedsUpdate()
	} else {
		g.SetIndex16(idx)
	}
}
