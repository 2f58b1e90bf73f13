// pkg/gpu/device.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gpu

import (
	"fmt"
	"log/slog"
)

// Device is the immediate-mode graphics API that the renderer drives.
// Every method issues its work immediately; there is no deferred command
// recording at this level.  There are two implementations: the OpenGL
// device in pkg/gpu/ogl and the Recorder, which executes nothing but
// records every call into a CommandBuffer (and simulates just enough
// device behavior that the renderer can run headless).
//
// A Device is bound to a single graphics context and must only be used
// from the goroutine that owns that context.
type Device interface {
	// Queries; these are only expected to be called at startup.
	GetInteger(p Param) int32
	Version() (major, minor int)
	Extensions() []string
	Vendor() string

	// Fixed-function state.
	Enable(c Capability)
	Disable(c Capability)
	CullFace(f Face)
	FrontFace(w Winding)
	BlendEquationSeparate(rgb, alpha BlendEquation)
	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor)
	DepthFunc(f CompareFunc)
	DepthMask(write bool)
	ColorMask(r, g, b, a bool)
	StencilFunc(f CompareFunc, ref int32, mask uint32)
	StencilOp(fail, zfail, zpass StencilOp)
	StencilMask(mask uint32)
	Viewport(x, y, w, h int32)
	Scissor(x, y, w, h int32)
	LineWidth(w float32)
	PolygonOffset(factor, units float32)
	ClearColor(r, g, b, a float32)
	ClearDepth(d float32)
	ClearStencil(s int32)
	Clear(mask ClearMask)

	// Programs. CompileProgram compiles and links the given vertex and
	// fragment shader sources, returning the program's reflection
	// information or an error that includes the compiler's log.
	CompileProgram(vertexSource, fragmentSource string) (ProgramInfo, error)
	UseProgram(id uint32)
	DeleteProgram(id uint32)

	Uniform1i(loc int32, v int32)
	Uniform1iv(loc int32, v []int32)
	Uniform1fv(loc int32, v []float32)
	Uniform2fv(loc int32, v []float32)
	Uniform3fv(loc int32, v []float32)
	Uniform4fv(loc int32, v []float32)
	UniformMatrix3fv(loc int32, v []float32)
	UniformMatrix4fv(loc int32, v []float32)

	// Buffers
	CreateBuffer() uint32
	BindBuffer(target BufferTarget, id uint32)
	BufferData(target BufferTarget, data []byte, usage BufferUsage)
	BufferSubData(target BufferTarget, offset int, data []byte)
	DeleteBuffer(id uint32)

	// Vertex attributes; offset and stride are in bytes.
	EnableVertexAttribArray(loc uint32)
	DisableVertexAttribArray(loc uint32)
	VertexAttribPointer(loc uint32, size int32, xtype ComponentType, normalized bool, stride, offset int)
	VertexAttribDivisor(loc uint32, divisor uint32)

	// Textures
	CreateTexture() uint32
	ActiveTexture(unit int)
	BindTexture(target TextureTarget, id uint32)
	TexImage2D(target TextureTarget, level int32, internalFormat PixelFormat, width, height int32,
		format PixelFormat, xtype ComponentType, pixels []byte)
	TexParameteri(target TextureTarget, p TextureParam, v int32)
	TexParameterf(target TextureTarget, p TextureParam, v float32)
	GenerateMipmap(target TextureTarget)
	DeleteTexture(id uint32)

	// Draws; offsets into the element buffer are in bytes.
	DrawArrays(mode Primitive, first, count int32)
	DrawElements(mode Primitive, count int32, xtype ComponentType, offset int)
	DrawArraysInstanced(mode Primitive, first, count, instances int32)
	DrawElementsInstanced(mode Primitive, count int32, xtype ComponentType, offset int, instances int32)
}

// ActiveVariable describes an active attribute or uniform of a linked
// program. Array uniforms are reported GL-style, as "name[0]" with Size
// giving the number of elements; members of arrays of structs are
// reported individually ("lights[1].color").
type ActiveVariable struct {
	Name     string
	Type     UniformType
	Size     int32
	Location int32
}

type ProgramInfo struct {
	ID         uint32
	Attributes []ActiveVariable
	Uniforms   []ActiveVariable
}

// CompileError is returned by CompileProgram when a shader fails to
// compile or link.
type CompileError struct {
	Stage string // "vertex", "fragment", or "link"
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader: %s", e.Stage, e.Log)
}

func (e *CompileError) LogValue() slog.Value {
	return slog.GroupValue(slog.String("stage", e.Stage), slog.String("log", e.Log))
}
