// pkg/gpu/recorder.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gpu

import (
	"fmt"
	"slices"
)

// RecorderLimits gives the device limits and features that a Recorder
// reports.
type RecorderLimits struct {
	MaxTextures               int32
	MaxVertexTextures         int32
	MaxCombinedTextures       int32
	MaxTextureSize            int32
	MaxCubeMapSize            int32
	MaxVertexAttribs          int32
	MaxVertexUniformVectors   int32
	MaxFragmentUniformVectors int32
	MaxAnisotropy             int32
	Major, Minor              int
	Extensions                []string
}

// DefaultRecorderLimits returns limits matching a typical OpenGL 4.1 core
// context.
func DefaultRecorderLimits() RecorderLimits {
	return RecorderLimits{
		MaxTextures:               16,
		MaxVertexTextures:         16,
		MaxCombinedTextures:       80,
		MaxTextureSize:            16384,
		MaxCubeMapSize:            16384,
		MaxVertexAttribs:          16,
		MaxVertexUniformVectors:   1024,
		MaxFragmentUniformVectors: 1024,
		MaxAnisotropy:             16,
		Major:                     4,
		Minor:                     1,
		Extensions:                []string{"GL_EXT_texture_filter_anisotropic"},
	}
}

// Recorder is a Device that doesn't draw anything: it records each call
// into a CommandBuffer and tracks the resulting device state (object
// contents, bindings, fixed-function state, uniform values) so that the
// renderer can run headless and so that tests can check what actually
// reached the device.
type Recorder struct {
	Limits RecorderLimits
	CB     *CommandBuffer
	// Errors accumulates invalid operations, analogous to glGetError().
	Errors []string

	nextID   uint32
	buffers  map[uint32]*RecordedBuffer
	bound    map[BufferTarget]uint32
	textures map[uint32]*RecordedTexture
	units    map[textureBinding]uint32
	unit     int
	programs map[uint32]*recordedProgram
	program  uint32
	attribs  map[uint32]*AttribPointer

	draws []DrawCall

	caps       map[Capability]bool
	cullFace   Face
	frontFace  Winding
	blendEq    [2]BlendEquation
	blendFunc  [4]BlendFactor
	depthFunc  CompareFunc
	depthMask  bool
	colorMask  [4]bool
	viewport   [4]int32
	scissor    [4]int32
	lineWidth  float32
	clearColor [4]float32
	stencil    [3]int32
}

type textureBinding struct {
	unit   int
	target TextureTarget
}

type RecordedBuffer struct {
	Data  []byte
	Usage BufferUsage
}

type RecordedTexture struct {
	Target         TextureTarget
	Width, Height  int32
	InternalFormat PixelFormat
	Type           ComponentType
	Mipmapped      bool
	// Level-0 image data, indexed by upload target (Texture2D or a cube
	// face).
	Images map[TextureTarget][]byte
	Params map[TextureParam]float32
}

// AttribPointer records the state of a vertex attribute array.
type AttribPointer struct {
	Enabled    bool
	Buffer     uint32
	Size       int32
	Type       ComponentType
	Normalized bool
	Stride     int
	Offset     int
	Divisor    uint32
}

// DrawCall describes a single recorded draw.
type DrawCall struct {
	Mode      Primitive
	Indexed   bool
	First     int32 // non-indexed only
	Count     int32
	Offset    int // indexed only; in bytes
	Instances int32
	Program   uint32
}

type recordedProgram struct {
	info     ProgramInfo
	uniforms map[int32][]float32
}

func NewRecorder(limits RecorderLimits) *Recorder {
	r := &Recorder{
		Limits:    limits,
		CB:        GetCommandBuffer(),
		buffers:   make(map[uint32]*RecordedBuffer),
		bound:     make(map[BufferTarget]uint32),
		textures:  make(map[uint32]*RecordedTexture),
		units:     make(map[textureBinding]uint32),
		programs:  make(map[uint32]*recordedProgram),
		attribs:   make(map[uint32]*AttribPointer),
		caps:      make(map[Capability]bool),
		cullFace:  FaceBack,
		frontFace: WindingCCW,
		blendEq:   [2]BlendEquation{BlendEqAdd, BlendEqAdd},
		blendFunc: [4]BlendFactor{BlendOne, BlendZero, BlendOne, BlendZero},
		depthFunc: CompareLess,
		depthMask: true,
		colorMask: [4]bool{true, true, true, true},
		lineWidth: 1,
	}
	return r
}

// Reset discards the recorded commands but leaves the device state as is.
func (r *Recorder) Reset() {
	r.CB.Reset()
	r.draws = nil
}

// TakeCommands returns the commands recorded so far and starts a new
// CommandBuffer. The caller should return the buffer with
// ReturnCommandBuffer when done with it.
func (r *Recorder) TakeCommands() *CommandBuffer {
	cb := r.CB
	r.CB = GetCommandBuffer()
	r.draws = nil
	return cb
}

func (r *Recorder) errorf(f string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(f, args...))
}

func (r *Recorder) allocID() uint32 {
	r.nextID++
	return r.nextID
}

///////////////////////////////////////////////////////////////////////////
// Queries

func (r *Recorder) GetInteger(p Param) int32 {
	switch p {
	case MaxTextureImageUnits:
		return r.Limits.MaxTextures
	case MaxVertexTextureImageUnits:
		return r.Limits.MaxVertexTextures
	case MaxCombinedTextureImageUnits:
		return r.Limits.MaxCombinedTextures
	case MaxTextureSize:
		return r.Limits.MaxTextureSize
	case MaxCubeMapTextureSize:
		return r.Limits.MaxCubeMapSize
	case MaxVertexAttribs:
		return r.Limits.MaxVertexAttribs
	case MaxVertexUniformVectors:
		return r.Limits.MaxVertexUniformVectors
	case MaxFragmentUniformVectors:
		return r.Limits.MaxFragmentUniformVectors
	case MaxTextureMaxAnisotropy:
		return r.Limits.MaxAnisotropy
	default:
		r.errorf("GetInteger: unknown parameter 0x%x", uint32(p))
		return 0
	}
}

func (r *Recorder) Version() (int, int)  { return r.Limits.Major, r.Limits.Minor }
func (r *Recorder) Extensions() []string { return slices.Clone(r.Limits.Extensions) }
func (r *Recorder) Vendor() string       { return "scenegl recorder" }

///////////////////////////////////////////////////////////////////////////
// Fixed-function state

func (r *Recorder) Enable(c Capability) {
	r.CB.op(OpEnable, int(c))
	r.caps[c] = true
}

func (r *Recorder) Disable(c Capability) {
	r.CB.op(OpDisable, int(c))
	r.caps[c] = false
}

func (r *Recorder) CullFace(f Face) {
	r.CB.op(OpCullFace, int(f))
	r.cullFace = f
}

func (r *Recorder) FrontFace(w Winding) {
	r.CB.op(OpFrontFace, int(w))
	r.frontFace = w
}

func (r *Recorder) BlendEquationSeparate(rgb, alpha BlendEquation) {
	r.CB.op(OpBlendEquationSeparate, int(rgb), int(alpha))
	r.blendEq = [2]BlendEquation{rgb, alpha}
}

func (r *Recorder) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor) {
	r.CB.op(OpBlendFuncSeparate, int(srcRGB), int(dstRGB), int(srcAlpha), int(dstAlpha))
	r.blendFunc = [4]BlendFactor{srcRGB, dstRGB, srcAlpha, dstAlpha}
}

func (r *Recorder) DepthFunc(f CompareFunc) {
	r.CB.op(OpDepthFunc, int(f))
	r.depthFunc = f
}

func (r *Recorder) DepthMask(write bool) {
	r.CB.op(OpDepthMask, boolInt(write))
	r.depthMask = write
}

func (r *Recorder) ColorMask(cr, cg, cb, ca bool) {
	r.CB.op(OpColorMask, boolInt(cr), boolInt(cg), boolInt(cb), boolInt(ca))
	r.colorMask = [4]bool{cr, cg, cb, ca}
}

func (r *Recorder) StencilFunc(f CompareFunc, ref int32, mask uint32) {
	r.CB.op(OpStencilFunc, int(f), int(ref), int(mask))
	r.stencil = [3]int32{int32(f), ref, int32(mask)}
}

func (r *Recorder) StencilOp(fail, zfail, zpass StencilOp) {
	r.CB.op(OpStencilOp, int(fail), int(zfail), int(zpass))
}

func (r *Recorder) StencilMask(mask uint32) {
	r.CB.op(OpStencilMask, int(mask))
}

func (r *Recorder) Viewport(x, y, w, h int32) {
	r.CB.op(OpViewport, int(x), int(y), int(w), int(h))
	r.viewport = [4]int32{x, y, w, h}
}

func (r *Recorder) Scissor(x, y, w, h int32) {
	r.CB.op(OpScissor, int(x), int(y), int(w), int(h))
	r.scissor = [4]int32{x, y, w, h}
}

func (r *Recorder) LineWidth(w float32) {
	r.CB.opFloats(OpLineWidth, w)
	r.lineWidth = w
}

func (r *Recorder) PolygonOffset(factor, units float32) {
	r.CB.opFloats(OpPolygonOffset, factor, units)
}

func (r *Recorder) ClearColor(cr, cg, cb, ca float32) {
	r.CB.opFloats(OpClearColor, cr, cg, cb, ca)
	r.clearColor = [4]float32{cr, cg, cb, ca}
}

func (r *Recorder) ClearDepth(d float32) {
	r.CB.opFloats(OpClearDepth, d)
}

func (r *Recorder) ClearStencil(s int32) {
	r.CB.op(OpClearStencil, int(s))
}

func (r *Recorder) Clear(mask ClearMask) {
	r.CB.op(OpClear, int(mask))
}

///////////////////////////////////////////////////////////////////////////
// Programs

func (r *Recorder) CompileProgram(vs, fs string) (ProgramInfo, error) {
	attribs, uniforms, err := reflectProgram(vs, fs)
	if err != nil {
		return ProgramInfo{}, err
	}

	id := r.allocID()
	r.CB.begin(OpCompileProgram, 3)
	r.CB.ints(int(id))
	r.CB.str(vs)
	r.CB.str(fs)

	info := ProgramInfo{ID: id, Attributes: attribs, Uniforms: uniforms}
	r.programs[id] = &recordedProgram{info: info, uniforms: make(map[int32][]float32)}
	return info, nil
}

func (r *Recorder) UseProgram(id uint32) {
	r.CB.op(OpUseProgram, int(id))
	if _, ok := r.programs[id]; !ok && id != 0 {
		r.errorf("UseProgram: %d: no such program", id)
	}
	r.program = id
}

func (r *Recorder) DeleteProgram(id uint32) {
	r.CB.op(OpDeleteProgram, int(id))
	delete(r.programs, id)
	if r.program == id {
		r.program = 0
	}
}

func (r *Recorder) setUniform(name string, loc int32, v []float32) {
	p, ok := r.programs[r.program]
	if !ok {
		r.errorf("%s: no current program", name)
		return
	}
	if loc < 0 {
		return
	}
	if int(loc) >= len(p.info.Uniforms) {
		r.errorf("%s: %d: invalid location", name, loc)
		return
	}
	p.uniforms[loc] = slices.Clone(v)
}

func (r *Recorder) Uniform1i(loc int32, v int32) {
	r.CB.op(OpUniform1i, int(loc), int(v))
	r.setUniform("Uniform1i", loc, []float32{float32(v)})
}

func (r *Recorder) Uniform1iv(loc int32, v []int32) {
	r.CB.opBytes(OpUniform1iv, intBytes(v), int(loc))
	f := make([]float32, len(v))
	for i := range v {
		f[i] = float32(v[i])
	}
	r.setUniform("Uniform1iv", loc, f)
}

func (r *Recorder) uniformfv(op Opcode, loc int32, v []float32) {
	r.CB.opBytes(op, floatBytes(v), int(loc))
	r.setUniform(op.String(), loc, v)
}

func (r *Recorder) Uniform1fv(loc int32, v []float32) { r.uniformfv(OpUniform1fv, loc, v) }
func (r *Recorder) Uniform2fv(loc int32, v []float32) { r.uniformfv(OpUniform2fv, loc, v) }
func (r *Recorder) Uniform3fv(loc int32, v []float32) { r.uniformfv(OpUniform3fv, loc, v) }
func (r *Recorder) Uniform4fv(loc int32, v []float32) { r.uniformfv(OpUniform4fv, loc, v) }
func (r *Recorder) UniformMatrix3fv(loc int32, v []float32) {
	r.uniformfv(OpUniformMatrix3fv, loc, v)
}
func (r *Recorder) UniformMatrix4fv(loc int32, v []float32) {
	r.uniformfv(OpUniformMatrix4fv, loc, v)
}

///////////////////////////////////////////////////////////////////////////
// Buffers

func (r *Recorder) CreateBuffer() uint32 {
	id := r.allocID()
	r.CB.op(OpCreateBuffer, int(id))
	r.buffers[id] = &RecordedBuffer{}
	return id
}

func (r *Recorder) BindBuffer(target BufferTarget, id uint32) {
	r.CB.op(OpBindBuffer, int(target), int(id))
	if _, ok := r.buffers[id]; !ok && id != 0 {
		r.errorf("BindBuffer: %d: no such buffer", id)
	}
	r.bound[target] = id
}

func (r *Recorder) boundBuffer(name string, target BufferTarget) *RecordedBuffer {
	b, ok := r.buffers[r.bound[target]]
	if !ok {
		r.errorf("%s: no buffer bound to 0x%x", name, uint32(target))
	}
	return b
}

func (r *Recorder) BufferData(target BufferTarget, data []byte, usage BufferUsage) {
	r.CB.opBytes(OpBufferData, data, int(target), int(usage))
	if b := r.boundBuffer("BufferData", target); b != nil {
		b.Data = slices.Clone(data)
		b.Usage = usage
	}
}

func (r *Recorder) BufferSubData(target BufferTarget, offset int, data []byte) {
	r.CB.opBytes(OpBufferSubData, data, int(target), offset)
	if b := r.boundBuffer("BufferSubData", target); b != nil {
		if offset < 0 || offset+len(data) > len(b.Data) {
			r.errorf("BufferSubData: [%d,%d) out of range of %d byte buffer", offset, offset+len(data), len(b.Data))
			return
		}
		copy(b.Data[offset:], data)
	}
}

func (r *Recorder) DeleteBuffer(id uint32) {
	r.CB.op(OpDeleteBuffer, int(id))
	if _, ok := r.buffers[id]; !ok {
		r.errorf("DeleteBuffer: %d: no such buffer", id)
	}
	delete(r.buffers, id)
	for t, b := range r.bound {
		if b == id {
			r.bound[t] = 0
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// Vertex attributes

func (r *Recorder) attrib(loc uint32) *AttribPointer {
	a, ok := r.attribs[loc]
	if !ok {
		a = &AttribPointer{}
		r.attribs[loc] = a
	}
	return a
}

func (r *Recorder) EnableVertexAttribArray(loc uint32) {
	r.CB.op(OpEnableVertexAttribArray, int(loc))
	r.attrib(loc).Enabled = true
}

func (r *Recorder) DisableVertexAttribArray(loc uint32) {
	r.CB.op(OpDisableVertexAttribArray, int(loc))
	r.attrib(loc).Enabled = false
}

func (r *Recorder) VertexAttribPointer(loc uint32, size int32, xtype ComponentType, normalized bool, stride, offset int) {
	r.CB.op(OpVertexAttribPointer, int(loc), int(size), int(xtype), boolInt(normalized), stride, offset)
	if r.bound[ArrayBuffer] == 0 {
		r.errorf("VertexAttribPointer: %d: no array buffer bound", loc)
	}
	a := r.attrib(loc)
	a.Buffer, a.Size, a.Type, a.Normalized, a.Stride, a.Offset =
		r.bound[ArrayBuffer], size, xtype, normalized, stride, offset
}

func (r *Recorder) VertexAttribDivisor(loc uint32, divisor uint32) {
	r.CB.op(OpVertexAttribDivisor, int(loc), int(divisor))
	r.attrib(loc).Divisor = divisor
}

///////////////////////////////////////////////////////////////////////////
// Textures

func (r *Recorder) CreateTexture() uint32 {
	id := r.allocID()
	r.CB.op(OpCreateTexture, int(id))
	r.textures[id] = &RecordedTexture{
		Images: make(map[TextureTarget][]byte),
		Params: make(map[TextureParam]float32),
	}
	return id
}

func (r *Recorder) ActiveTexture(unit int) {
	r.CB.op(OpActiveTexture, unit)
	if unit < 0 || int32(unit) >= r.Limits.MaxCombinedTextures {
		r.errorf("ActiveTexture: %d: invalid texture unit", unit)
	}
	r.unit = unit
}

func (r *Recorder) BindTexture(target TextureTarget, id uint32) {
	r.CB.op(OpBindTexture, int(target), int(id))
	if id != 0 {
		t, ok := r.textures[id]
		if !ok {
			r.errorf("BindTexture: %d: no such texture", id)
			return
		}
		if t.Target == 0 {
			t.Target = target
		} else if t.Target != target {
			r.errorf("BindTexture: %d: previously bound to 0x%x", id, uint32(t.Target))
		}
	}
	r.units[textureBinding{unit: r.unit, target: target}] = id
}

func (r *Recorder) boundTexture(name string, target TextureTarget) *RecordedTexture {
	if target != Texture2D {
		// Cube map faces are specified through the cube map binding.
		target = TextureCubeMap
	}
	t, ok := r.textures[r.units[textureBinding{unit: r.unit, target: target}]]
	if !ok {
		r.errorf("%s: no texture bound to unit %d", name, r.unit)
	}
	return t
}

func (r *Recorder) TexImage2D(target TextureTarget, level int32, internalFormat PixelFormat, width, height int32,
	format PixelFormat, xtype ComponentType, pixels []byte) {
	r.CB.opBytes(OpTexImage2D, pixels, int(target), int(level), int(internalFormat), int(width), int(height),
		int(format), int(xtype))

	max := r.Limits.MaxTextureSize
	if target != Texture2D {
		max = r.Limits.MaxCubeMapSize
	}
	if width > max || height > max {
		r.errorf("TexImage2D: %dx%d exceeds maximum texture size %d", width, height, max)
		return
	}
	if t := r.boundTexture("TexImage2D", target); t != nil && level == 0 {
		t.Width, t.Height, t.InternalFormat, t.Type = width, height, internalFormat, xtype
		t.Images[target] = slices.Clone(pixels)
	}
}

func (r *Recorder) TexParameteri(target TextureTarget, p TextureParam, v int32) {
	r.CB.op(OpTexParameteri, int(target), int(p), int(v))
	if t := r.boundTexture("TexParameteri", target); t != nil {
		t.Params[p] = float32(v)
	}
}

func (r *Recorder) TexParameterf(target TextureTarget, p TextureParam, v float32) {
	r.CB.begin(OpTexParameterf, 3)
	r.CB.ints(int(target), int(p))
	r.CB.floats(v)
	if t := r.boundTexture("TexParameterf", target); t != nil {
		t.Params[p] = v
	}
}

func (r *Recorder) GenerateMipmap(target TextureTarget) {
	r.CB.op(OpGenerateMipmap, int(target))
	if t := r.boundTexture("GenerateMipmap", target); t != nil {
		t.Mipmapped = true
	}
}

func (r *Recorder) DeleteTexture(id uint32) {
	r.CB.op(OpDeleteTexture, int(id))
	if _, ok := r.textures[id]; !ok {
		r.errorf("DeleteTexture: %d: no such texture", id)
	}
	delete(r.textures, id)
	for b, t := range r.units {
		if t == id {
			r.units[b] = 0
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// Draws

func (r *Recorder) draw(name string, d DrawCall) {
	if _, ok := r.programs[r.program]; !ok {
		r.errorf("%s: no current program", name)
	}
	if d.Indexed && r.bound[ElementArrayBuffer] == 0 {
		r.errorf("%s: no element array buffer bound", name)
	}
	d.Program = r.program
	r.draws = append(r.draws, d)
}

func (r *Recorder) DrawArrays(mode Primitive, first, count int32) {
	r.CB.op(OpDrawArrays, int(mode), int(first), int(count))
	r.draw("DrawArrays", DrawCall{Mode: mode, First: first, Count: count})
}

func (r *Recorder) DrawElements(mode Primitive, count int32, xtype ComponentType, offset int) {
	r.CB.op(OpDrawElements, int(mode), int(count), int(xtype), offset)
	r.draw("DrawElements", DrawCall{Mode: mode, Indexed: true, Count: count, Offset: offset})
}

func (r *Recorder) DrawArraysInstanced(mode Primitive, first, count, instances int32) {
	r.CB.op(OpDrawArraysInstanced, int(mode), int(first), int(count), int(instances))
	r.draw("DrawArraysInstanced", DrawCall{Mode: mode, First: first, Count: count, Instances: instances})
}

func (r *Recorder) DrawElementsInstanced(mode Primitive, count int32, xtype ComponentType, offset int, instances int32) {
	r.CB.op(OpDrawElementsInstanced, int(mode), int(count), int(xtype), offset, int(instances))
	r.draw("DrawElementsInstanced", DrawCall{Mode: mode, Indexed: true, Count: count, Offset: offset,
		Instances: instances})
}

///////////////////////////////////////////////////////////////////////////
// Inspection

// Enabled reports whether the given capability is currently enabled.
func (r *Recorder) Enabled(c Capability) bool { return r.caps[c] }

func (r *Recorder) CullFaceMode() Face              { return r.cullFace }
func (r *Recorder) FrontFaceWinding() Winding       { return r.frontFace }
func (r *Recorder) BlendFunc() [4]BlendFactor       { return r.blendFunc }
func (r *Recorder) BlendEquation() [2]BlendEquation { return r.blendEq }
func (r *Recorder) DepthWrite() bool                { return r.depthMask }
func (r *Recorder) DepthCompare() CompareFunc       { return r.depthFunc }
func (r *Recorder) ViewportRect() [4]int32          { return r.viewport }
func (r *Recorder) CurrentLineWidth() float32       { return r.lineWidth }
func (r *Recorder) CurrentProgram() uint32          { return r.program }
func (r *Recorder) ActiveUnit() int                 { return r.unit }
func (r *Recorder) ClearColorValue() [4]float32     { return r.clearColor }
func (r *Recorder) ScissorRect() [4]int32           { return r.scissor }

// BufferContents returns the contents of the given buffer and whether it
// exists.
func (r *Recorder) BufferContents(id uint32) ([]byte, bool) {
	b, ok := r.buffers[id]
	if !ok {
		return nil, false
	}
	return b.Data, true
}

func (r *Recorder) BoundBuffer(target BufferTarget) uint32 { return r.bound[target] }

func (r *Recorder) NumBuffers() int  { return len(r.buffers) }
func (r *Recorder) NumTextures() int { return len(r.textures) }
func (r *Recorder) NumPrograms() int { return len(r.programs) }

func (r *Recorder) Texture(id uint32) (*RecordedTexture, bool) {
	t, ok := r.textures[id]
	return t, ok
}

// BoundTexture returns the texture bound to the given unit and target.
func (r *Recorder) BoundTexture(unit int, target TextureTarget) uint32 {
	return r.units[textureBinding{unit: unit, target: target}]
}

func (r *Recorder) Attrib(loc uint32) AttribPointer {
	if a, ok := r.attribs[loc]; ok {
		return *a
	}
	return AttribPointer{}
}

// Program returns the reflection information for the given program.
func (r *Recorder) Program(id uint32) (ProgramInfo, bool) {
	p, ok := r.programs[id]
	if !ok {
		return ProgramInfo{}, false
	}
	return p.info, true
}

// Uniform returns the most recently set value of the named uniform of the
// given program. Array uniforms may be named either "name" or "name[0]".
func (r *Recorder) Uniform(program uint32, name string) ([]float32, bool) {
	p, ok := r.programs[program]
	if !ok {
		return nil, false
	}
	for _, u := range p.info.Uniforms {
		if u.Name == name || u.Name == name+"[0]" {
			v, ok := p.uniforms[u.Location]
			return v, ok
		}
	}
	return nil, false
}

// Draws returns the draw calls issued since the last Reset or
// TakeCommands.
func (r *Recorder) Draws() []DrawCall {
	return r.draws
}
