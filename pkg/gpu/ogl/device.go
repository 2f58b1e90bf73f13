// pkg/gpu/ogl/device.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ogl provides an implementation of gpu.Device on top of an
// OpenGL 4.1 core profile context.
package ogl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/log"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type Device struct {
	vao uint32
	lg  *log.Logger
}

var _ gpu.Device = (*Device)(nil)

// NewDevice initializes OpenGL function pointers for the current context
// and returns a Device that issues calls to it. It must be called from
// the thread that owns the context.
func NewDevice(lg *log.Logger) (*Device, error) {
	lg.Info("Starting OpenGL device initialization")
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{lg: lg}
	lg.Infof("OpenGL vendor %s renderer %s version %s", d.Vendor(), gl.GoStr(gl.GetString(gl.RENDERER)),
		gl.GoStr(gl.GetString(gl.VERSION)))

	// Core profile contexts require a bound VAO; a single one is used for
	// everything and attribute state is managed by the renderer.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	d.check()

	lg.Info("Finished OpenGL device initialization")
	return d, nil
}

func (d *Device) Dispose() {
	gl.DeleteVertexArrays(1, &d.vao)
}

func (d *Device) check() {
	if err := gl.GetError(); err != gl.NO_ERROR {
		d.lg.Errorf("GL error 0x%x", err)
	}
}

func (d *Device) GetInteger(p gpu.Param) int32 {
	var v int32
	gl.GetIntegerv(uint32(p), &v)
	if err := gl.GetError(); err != gl.NO_ERROR {
		// e.g., anisotropy limits without the extension
		return 0
	}
	return v
}

func (d *Device) Version() (int, int) {
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	return int(major), int(minor)
}

func (d *Device) Extensions() []string {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	ext := make([]string, 0, n)
	for i := range uint32(n) {
		ext = append(ext, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i)))
	}
	return ext
}

func (d *Device) Vendor() string {
	return gl.GoStr(gl.GetString(gl.VENDOR))
}

func (d *Device) Enable(c gpu.Capability)  { gl.Enable(uint32(c)) }
func (d *Device) Disable(c gpu.Capability) { gl.Disable(uint32(c)) }
func (d *Device) CullFace(f gpu.Face)      { gl.CullFace(uint32(f)) }
func (d *Device) FrontFace(w gpu.Winding)  { gl.FrontFace(uint32(w)) }

func (d *Device) BlendEquationSeparate(rgb, alpha gpu.BlendEquation) {
	gl.BlendEquationSeparate(uint32(rgb), uint32(alpha))
}

func (d *Device) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha gpu.BlendFactor) {
	gl.BlendFuncSeparate(uint32(srcRGB), uint32(dstRGB), uint32(srcAlpha), uint32(dstAlpha))
}

func (d *Device) DepthFunc(f gpu.CompareFunc)     { gl.DepthFunc(uint32(f)) }
func (d *Device) DepthMask(write bool)            { gl.DepthMask(write) }
func (d *Device) ColorMask(r, g, b, a bool)       { gl.ColorMask(r, g, b, a) }
func (d *Device) StencilMask(mask uint32)         { gl.StencilMask(mask) }
func (d *Device) Viewport(x, y, w, h int32)       { gl.Viewport(x, y, w, h) }
func (d *Device) Scissor(x, y, w, h int32)        { gl.Scissor(x, y, w, h) }
func (d *Device) LineWidth(w float32)             { gl.LineWidth(w) }
func (d *Device) PolygonOffset(factor, u float32) { gl.PolygonOffset(factor, u) }
func (d *Device) ClearColor(r, g, b, a float32)   { gl.ClearColor(r, g, b, a) }
func (d *Device) ClearDepth(v float32)            { gl.ClearDepth(float64(v)) }
func (d *Device) ClearStencil(s int32)            { gl.ClearStencil(s) }
func (d *Device) Clear(mask gpu.ClearMask)        { gl.Clear(uint32(mask)) }

func (d *Device) StencilFunc(f gpu.CompareFunc, ref int32, mask uint32) {
	gl.StencilFunc(uint32(f), ref, mask)
}

func (d *Device) StencilOp(fail, zfail, zpass gpu.StencilOp) {
	gl.StencilOp(uint32(fail), uint32(zfail), uint32(zpass))
}

///////////////////////////////////////////////////////////////////////////
// Programs

func (d *Device) CompileProgram(vs, fs string) (gpu.ProgramInfo, error) {
	program, err := newProgram(vs, fs)
	if err != nil {
		return gpu.ProgramInfo{}, err
	}

	info := gpu.ProgramInfo{ID: program}
	name := make([]uint8, 256)

	var n int32
	gl.GetProgramiv(program, gl.ACTIVE_ATTRIBUTES, &n)
	for i := range uint32(n) {
		var length, size int32
		var xtype uint32
		gl.GetActiveAttrib(program, i, int32(len(name)), &length, &size, &xtype, &name[0])
		s := string(name[:length])
		info.Attributes = append(info.Attributes, gpu.ActiveVariable{
			Name:     s,
			Type:     gpu.UniformType(xtype),
			Size:     size,
			Location: gl.GetAttribLocation(program, gl.Str(s+"\x00")),
		})
	}

	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &n)
	for i := range uint32(n) {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(program, i, int32(len(name)), &length, &size, &xtype, &name[0])
		s := string(name[:length])
		info.Uniforms = append(info.Uniforms, gpu.ActiveVariable{
			Name:     s,
			Type:     gpu.UniformType(xtype),
			Size:     size,
			Location: gl.GetUniformLocation(program, gl.Str(s+"\x00")),
		})
	}
	d.check()

	return info, nil
}

// https://github.com/go-gl/example/blob/master/gl41core-cube/cube.go
func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}

	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()

	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, &gpu.CompileError{Stage: "link", Log: strings.TrimRight(log, "\x00")}
	}

	return program, nil
}

func compileShader(source string, shaderType uint32, stage string) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, &gpu.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}

	return shader, nil
}

func (d *Device) UseProgram(id uint32)    { gl.UseProgram(id) }
func (d *Device) DeleteProgram(id uint32) { gl.DeleteProgram(id) }

func (d *Device) Uniform1i(loc int32, v int32) { gl.Uniform1i(loc, v) }

func (d *Device) Uniform1iv(loc int32, v []int32) {
	if len(v) > 0 {
		gl.Uniform1iv(loc, int32(len(v)), &v[0])
	}
}

func (d *Device) Uniform1fv(loc int32, v []float32) {
	if len(v) > 0 {
		gl.Uniform1fv(loc, int32(len(v)), &v[0])
	}
}

func (d *Device) Uniform2fv(loc int32, v []float32) {
	if len(v) > 0 {
		gl.Uniform2fv(loc, int32(len(v)/2), &v[0])
	}
}

func (d *Device) Uniform3fv(loc int32, v []float32) {
	if len(v) > 0 {
		gl.Uniform3fv(loc, int32(len(v)/3), &v[0])
	}
}

func (d *Device) Uniform4fv(loc int32, v []float32) {
	if len(v) > 0 {
		gl.Uniform4fv(loc, int32(len(v)/4), &v[0])
	}
}

func (d *Device) UniformMatrix3fv(loc int32, v []float32) {
	if len(v) > 0 {
		gl.UniformMatrix3fv(loc, int32(len(v)/9), false, &v[0])
	}
}

func (d *Device) UniformMatrix4fv(loc int32, v []float32) {
	if len(v) > 0 {
		gl.UniformMatrix4fv(loc, int32(len(v)/16), false, &v[0])
	}
}

///////////////////////////////////////////////////////////////////////////
// Buffers

func (d *Device) CreateBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (d *Device) BindBuffer(target gpu.BufferTarget, id uint32) { gl.BindBuffer(uint32(target), id) }

func bytesPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return gl.Ptr(b)
}

func (d *Device) BufferData(target gpu.BufferTarget, data []byte, usage gpu.BufferUsage) {
	gl.BufferData(uint32(target), len(data), bytesPtr(data), uint32(usage))
}

func (d *Device) BufferSubData(target gpu.BufferTarget, offset int, data []byte) {
	if len(data) > 0 {
		gl.BufferSubData(uint32(target), offset, len(data), gl.Ptr(data))
	}
}

func (d *Device) DeleteBuffer(id uint32) { gl.DeleteBuffers(1, &id) }

func (d *Device) EnableVertexAttribArray(loc uint32)  { gl.EnableVertexAttribArray(loc) }
func (d *Device) DisableVertexAttribArray(loc uint32) { gl.DisableVertexAttribArray(loc) }

func (d *Device) VertexAttribPointer(loc uint32, size int32, xtype gpu.ComponentType, normalized bool, stride, offset int) {
	gl.VertexAttribPointerWithOffset(loc, size, uint32(xtype), normalized, int32(stride), uintptr(offset))
}

func (d *Device) VertexAttribDivisor(loc uint32, divisor uint32) { gl.VertexAttribDivisor(loc, divisor) }

///////////////////////////////////////////////////////////////////////////
// Textures

func (d *Device) CreateTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

func (d *Device) ActiveTexture(unit int) { gl.ActiveTexture(gl.TEXTURE0 + uint32(unit)) }

func (d *Device) BindTexture(target gpu.TextureTarget, id uint32) { gl.BindTexture(uint32(target), id) }

func (d *Device) TexImage2D(target gpu.TextureTarget, level int32, internalFormat gpu.PixelFormat, width, height int32,
	format gpu.PixelFormat, xtype gpu.ComponentType, pixels []byte) {
	gl.TexImage2D(uint32(target), level, int32(internalFormat), width, height, 0, uint32(format), uint32(xtype),
		bytesPtr(pixels))
}

func (d *Device) TexParameteri(target gpu.TextureTarget, p gpu.TextureParam, v int32) {
	gl.TexParameteri(uint32(target), uint32(p), v)
}

func (d *Device) TexParameterf(target gpu.TextureTarget, p gpu.TextureParam, v float32) {
	gl.TexParameterf(uint32(target), uint32(p), v)
}

func (d *Device) GenerateMipmap(target gpu.TextureTarget) { gl.GenerateMipmap(uint32(target)) }
func (d *Device) DeleteTexture(id uint32)                 { gl.DeleteTextures(1, &id) }

///////////////////////////////////////////////////////////////////////////
// Draws

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int32) {
	gl.DrawArrays(uint32(mode), first, count)
}

func (d *Device) DrawElements(mode gpu.Primitive, count int32, xtype gpu.ComponentType, offset int) {
	gl.DrawElements(uint32(mode), count, uint32(xtype), gl.PtrOffset(offset))
}

func (d *Device) DrawArraysInstanced(mode gpu.Primitive, first, count, instances int32) {
	gl.DrawArraysInstanced(uint32(mode), first, count, instances)
}

func (d *Device) DrawElementsInstanced(mode gpu.Primitive, count int32, xtype gpu.ComponentType, offset int, instances int32) {
	gl.DrawElementsInstanced(uint32(mode), count, uint32(xtype), gl.PtrOffset(offset), instances)
}
