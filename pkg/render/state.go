// pkg/render/state.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/scene"

	"github.com/brunoga/deep"
	"github.com/goforj/godump"
)

type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
	CullFrontBack
)

func (c CullMode) face() gpu.Face {
	switch c {
	case CullFront:
		return gpu.FaceFront
	case CullFrontBack:
		return gpu.FaceFrontAndBack
	default:
		return gpu.FaceBack
	}
}

// TextureSlot identifies a binding point: a texture unit and target.
type TextureSlot struct {
	Unit   int
	Target gpu.TextureTarget
}

type RenderTarget struct {
	Width, Height int
}

// StateSnapshot mirrors the device's fixed-function state and bindings.
type StateSnapshot struct {
	Capabilities map[gpu.Capability]bool

	CullFace     CullMode
	CullFaceMode gpu.Face
	FlipSided    bool

	BlendMode     scene.BlendMode
	BlendEquation [2]gpu.BlendEquation // rgb, alpha
	BlendFunc     [4]gpu.BlendFactor   // src rgb, dst rgb, src alpha, dst alpha

	DepthMask bool
	DepthFunc gpu.CompareFunc

	StencilFunc     gpu.CompareFunc
	StencilRef      int32
	StencilFuncMask uint32
	StencilOp       [3]gpu.StencilOp
	StencilMask     uint32

	// Viewport and Scissor are (x, y, width, height); a negative width
	// means the value is unknown.
	Viewport   [4]int32
	Scissor    [4]int32
	LineWidth  float32
	ClearColor [4]float32

	Program       uint32
	ActiveTexture int
	Textures      map[TextureSlot]uint32
	Buffers       map[gpu.BufferTarget]uint32

	AttribEnabled []bool
	AttribDivisor []uint32

	RenderTarget RenderTarget
}

// State is the single path through which the renderer changes device
// state. Each setter compares the request with its snapshot of the device
// state and only calls the device if something changes.
type State struct {
	dev  gpu.Device
	caps *Capabilities
	snap StateSnapshot

	newAttribs []bool
}

func NewState(dev gpu.Device, caps *Capabilities) *State {
	s := &State{dev: dev, caps: caps}
	s.Reset()
	return s
}

var trackedCapabilities = []gpu.Capability{gpu.CapBlend, gpu.CapCullFace, gpu.CapDepthTest,
	gpu.CapStencilTest, gpu.CapScissorTest, gpu.CapPolygonOffsetFill, gpu.CapProgramPointSize}

// Reset issues a known baseline state to the device and resets the
// snapshot to match it. It must be called if anything else has changed
// the device's state.
func (s *State) Reset() {
	d := s.dev
	rt := s.snap.RenderTarget
	nattribs := max(s.caps.MaxVertexAttribs, 0)

	// The baseline has no textures bound, so unbind the ones that are.
	for slot, id := range s.snap.Textures {
		if id != 0 {
			d.ActiveTexture(slot.Unit)
			d.BindTexture(slot.Target, 0)
		}
	}

	s.snap = StateSnapshot{
		Capabilities:    make(map[gpu.Capability]bool),
		CullFace:        CullNone,
		CullFaceMode:    gpu.FaceBack,
		BlendMode:       scene.BlendNone,
		BlendEquation:   [2]gpu.BlendEquation{gpu.BlendEqAdd, gpu.BlendEqAdd},
		BlendFunc:       [4]gpu.BlendFactor{gpu.BlendOne, gpu.BlendZero, gpu.BlendOne, gpu.BlendZero},
		DepthMask:       true,
		DepthFunc:       gpu.CompareLess,
		StencilFunc:     gpu.CompareAlways,
		StencilFuncMask: 0xff,
		StencilOp:       [3]gpu.StencilOp{gpu.StencilKeep, gpu.StencilKeep, gpu.StencilKeep},
		StencilMask:     0xff,
		Viewport:        [4]int32{0, 0, -1, -1},
		Scissor:         [4]int32{0, 0, -1, -1},
		LineWidth:       1,
		Textures:        make(map[TextureSlot]uint32),
		Buffers:         make(map[gpu.BufferTarget]uint32),
		AttribEnabled:   make([]bool, nattribs),
		AttribDivisor:   make([]uint32, nattribs),
		RenderTarget:    rt,
	}
	s.newAttribs = make([]bool, nattribs)

	for _, c := range trackedCapabilities {
		d.Disable(c)
		s.snap.Capabilities[c] = false
	}
	d.CullFace(gpu.FaceBack)
	d.FrontFace(gpu.WindingCCW)
	d.BlendEquationSeparate(gpu.BlendEqAdd, gpu.BlendEqAdd)
	d.BlendFuncSeparate(gpu.BlendOne, gpu.BlendZero, gpu.BlendOne, gpu.BlendZero)
	d.DepthMask(true)
	d.DepthFunc(gpu.CompareLess)
	d.StencilFunc(gpu.CompareAlways, 0, 0xff)
	d.StencilOp(gpu.StencilKeep, gpu.StencilKeep, gpu.StencilKeep)
	d.StencilMask(0xff)
	d.LineWidth(1)
	d.ClearColor(0, 0, 0, 0)
	d.UseProgram(0)
	d.ActiveTexture(0)
	d.BindBuffer(gpu.ArrayBuffer, 0)
	d.BindBuffer(gpu.ElementArrayBuffer, 0)
	for i := range nattribs {
		d.DisableVertexAttribArray(uint32(i))
		if s.caps.Instancing {
			d.VertexAttribDivisor(uint32(i), 0)
		}
	}
}

func (s *State) Enable(c gpu.Capability) {
	if !s.snap.Capabilities[c] {
		s.dev.Enable(c)
		s.snap.Capabilities[c] = true
	}
}

func (s *State) Disable(c gpu.Capability) {
	if s.snap.Capabilities[c] {
		s.dev.Disable(c)
		s.snap.Capabilities[c] = false
	}
}

func (s *State) SetCullFace(mode CullMode) {
	if mode == CullNone {
		s.Disable(gpu.CapCullFace)
	} else {
		s.Enable(gpu.CapCullFace)
		if f := mode.face(); f != s.snap.CullFaceMode {
			s.dev.CullFace(f)
			s.snap.CullFaceMode = f
		}
	}
	s.snap.CullFace = mode
}

// SetFlipSided selects clockwise front faces if flip is true and
// counter-clockwise otherwise.
func (s *State) SetFlipSided(flip bool) {
	if flip != s.snap.FlipSided {
		if flip {
			s.dev.FrontFace(gpu.WindingCW)
		} else {
			s.dev.FrontFace(gpu.WindingCCW)
		}
		s.snap.FlipSided = flip
	}
}

// blendParameters returns the blend equations and factors for the given
// blending description.
func blendParameters(b scene.Blending) ([2]gpu.BlendEquation, [4]gpu.BlendFactor) {
	eq := [2]gpu.BlendEquation{gpu.BlendEqAdd, gpu.BlendEqAdd}
	switch b.Mode {
	case scene.BlendNormal:
		if b.Premultiplied {
			return eq, [4]gpu.BlendFactor{gpu.BlendOne, gpu.BlendOneMinusSrcAlpha, gpu.BlendOne, gpu.BlendOneMinusSrcAlpha}
		}
		return eq, [4]gpu.BlendFactor{gpu.BlendSrcAlpha, gpu.BlendOneMinusSrcAlpha, gpu.BlendOne, gpu.BlendOneMinusSrcAlpha}

	case scene.BlendAdd:
		if b.Premultiplied {
			return eq, [4]gpu.BlendFactor{gpu.BlendOne, gpu.BlendOne, gpu.BlendOne, gpu.BlendOne}
		}
		return eq, [4]gpu.BlendFactor{gpu.BlendSrcAlpha, gpu.BlendOne, gpu.BlendSrcAlpha, gpu.BlendOne}

	default:
		// Unset alpha parameters follow their color counterparts.
		eq = [2]gpu.BlendEquation{b.Equation, b.EquationAlpha}
		if eq[0] == 0 {
			eq[0] = gpu.BlendEqAdd
		}
		if eq[1] == 0 {
			eq[1] = eq[0]
		}
		fn := [4]gpu.BlendFactor{b.Src, b.Dst, b.SrcAlpha, b.DstAlpha}
		if fn[2] == gpu.BlendZero {
			fn[2] = fn[0]
		}
		if fn[3] == gpu.BlendZero {
			fn[3] = fn[1]
		}
		return eq, fn
	}
}

func (s *State) SetBlend(b scene.Blending) {
	if b.Mode == scene.BlendNone {
		s.Disable(gpu.CapBlend)
		s.snap.BlendMode = scene.BlendNone
		return
	}

	s.Enable(gpu.CapBlend)
	eq, fn := blendParameters(b)
	if eq != s.snap.BlendEquation {
		s.dev.BlendEquationSeparate(eq[0], eq[1])
		s.snap.BlendEquation = eq
	}
	if fn != s.snap.BlendFunc {
		s.dev.BlendFuncSeparate(fn[0], fn[1], fn[2], fn[3])
		s.snap.BlendFunc = fn
	}
	s.snap.BlendMode = b.Mode
}

func (s *State) DepthMask(write bool) {
	if write != s.snap.DepthMask {
		s.dev.DepthMask(write)
		s.snap.DepthMask = write
	}
}

func (s *State) DepthFunc(f gpu.CompareFunc) {
	if f != s.snap.DepthFunc {
		s.dev.DepthFunc(f)
		s.snap.DepthFunc = f
	}
}

func (s *State) SetStencilFunc(f gpu.CompareFunc, ref int32, mask uint32) {
	if f != s.snap.StencilFunc || ref != s.snap.StencilRef || mask != s.snap.StencilFuncMask {
		s.dev.StencilFunc(f, ref, mask)
		s.snap.StencilFunc, s.snap.StencilRef, s.snap.StencilFuncMask = f, ref, mask
	}
}

func (s *State) SetStencilOp(fail, zfail, zpass gpu.StencilOp) {
	if op := [3]gpu.StencilOp{fail, zfail, zpass}; op != s.snap.StencilOp {
		s.dev.StencilOp(fail, zfail, zpass)
		s.snap.StencilOp = op
	}
}

func (s *State) SetStencilMask(mask uint32) {
	if mask != s.snap.StencilMask {
		s.dev.StencilMask(mask)
		s.snap.StencilMask = mask
	}
}

// SetStencil applies all of the given stencil state.
func (s *State) SetStencil(st scene.StencilState) {
	s.SetStencilFunc(st.Func, st.Ref, st.FuncMask)
	s.SetStencilOp(st.Fail, st.ZFail, st.ZPass)
	s.SetStencilMask(st.WriteMask)
}

func (s *State) Viewport(x, y, w, h int32) {
	if v := [4]int32{x, y, w, h}; v != s.snap.Viewport {
		s.dev.Viewport(x, y, w, h)
		s.snap.Viewport = v
	}
}

func (s *State) Scissor(x, y, w, h int32) {
	if v := [4]int32{x, y, w, h}; v != s.snap.Scissor {
		s.dev.Scissor(x, y, w, h)
		s.snap.Scissor = v
	}
}

func (s *State) SetLineWidth(w float32) {
	if w != s.snap.LineWidth {
		s.dev.LineWidth(w)
		s.snap.LineWidth = w
	}
}

func (s *State) ClearColor(r, g, b, a float32) {
	if c := [4]float32{r, g, b, a}; c != s.snap.ClearColor {
		s.dev.ClearColor(r, g, b, a)
		s.snap.ClearColor = c
	}
}

// Clear clears the selected buffers of the current render target. It is
// not idempotent: each call clears.
func (s *State) Clear(color, depth, stencil bool) {
	var mask gpu.ClearMask
	if color {
		mask |= gpu.ClearColor
	}
	if depth {
		mask |= gpu.ClearDepth
	}
	if stencil {
		mask |= gpu.ClearStencil
	}
	if mask != 0 {
		s.dev.Clear(mask)
	}
}

// SetProgram makes the given program current and reports whether that
// required a bind.
func (s *State) SetProgram(id uint32) bool {
	if id == s.snap.Program {
		return false
	}
	s.dev.UseProgram(id)
	s.snap.Program = id
	return true
}

func (s *State) ActiveTexture(unit int) {
	if unit != s.snap.ActiveTexture {
		s.dev.ActiveTexture(unit)
		s.snap.ActiveTexture = unit
	}
}

// BindTexture binds the texture to the target of the active unit.
func (s *State) BindTexture(target gpu.TextureTarget, id uint32) {
	slot := TextureSlot{Unit: s.snap.ActiveTexture, Target: target}
	if s.snap.Textures[slot] != id {
		s.dev.BindTexture(target, id)
		s.snap.Textures[slot] = id
	}
}

// BindTextureUnit binds the texture to the target of the given unit.
func (s *State) BindTextureUnit(unit int, target gpu.TextureTarget, id uint32) {
	if s.snap.Textures[TextureSlot{Unit: unit, Target: target}] == id {
		return
	}
	s.ActiveTexture(unit)
	s.BindTexture(target, id)
}

func (s *State) BindBuffer(target gpu.BufferTarget, id uint32) {
	if s.snap.Buffers[target] != id {
		s.dev.BindBuffer(target, id)
		s.snap.Buffers[target] = id
	}
}

func (s *State) DeleteBuffer(id uint32) {
	s.dev.DeleteBuffer(id)
	for t, b := range s.snap.Buffers {
		if b == id {
			s.snap.Buffers[t] = 0
		}
	}
}

func (s *State) DeleteTexture(id uint32) {
	s.dev.DeleteTexture(id)
	for slot, t := range s.snap.Textures {
		if t == id {
			s.snap.Textures[slot] = 0
		}
	}
}

func (s *State) DeleteProgram(id uint32) {
	s.dev.DeleteProgram(id)
	if s.snap.Program == id {
		s.snap.Program = 0
	}
}

// InitAttributes starts a new set of enabled vertex attribute arrays;
// it's followed by EnableAttribute for each used attribute and then
// DisableUnusedAttributes.
func (s *State) InitAttributes() {
	clear(s.newAttribs)
}

func (s *State) EnableAttribute(loc uint32, divisor uint32) {
	if int(loc) >= len(s.newAttribs) {
		return
	}
	s.newAttribs[loc] = true
	if !s.snap.AttribEnabled[loc] {
		s.dev.EnableVertexAttribArray(loc)
		s.snap.AttribEnabled[loc] = true
	}
	if divisor != s.snap.AttribDivisor[loc] && s.caps.Instancing {
		s.dev.VertexAttribDivisor(loc, divisor)
		s.snap.AttribDivisor[loc] = divisor
	}
}

// KeepAttribute leaves the attribute array at loc as it is, enabled or
// not, through the next DisableUnusedAttributes.
func (s *State) KeepAttribute(loc uint32) {
	if int(loc) < len(s.newAttribs) {
		s.newAttribs[loc] = true
	}
}

func (s *State) DisableUnusedAttributes() {
	for i, enabled := range s.snap.AttribEnabled {
		if enabled && !s.newAttribs[i] {
			s.dev.DisableVertexAttribArray(uint32(i))
			s.snap.AttribEnabled[i] = false
		}
	}
}

// SetRenderTarget records the dimensions of the framebuffer being drawn
// to; viewports are computed relative to it.
func (s *State) SetRenderTarget(width, height int) {
	s.snap.RenderTarget = RenderTarget{Width: width, Height: height}
}

func (s *State) RenderTarget() RenderTarget {
	return s.snap.RenderTarget
}

func (s *State) CurrentProgram() uint32 {
	return s.snap.Program
}

// Snapshot returns a copy of the tracked device state.
func (s *State) Snapshot() StateSnapshot {
	return deep.MustCopy(s.snap)
}

// Dump returns a human-readable rendering of the tracked state, for
// debugging.
func (s *State) Dump() string {
	return godump.DumpStr(s.snap)
}
