// pkg/render/renderer.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"fmt"
	"log/slog"
	gomath "math"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/log"
	"github.com/mmp/scenegl/pkg/scene"
	"github.com/mmp/scenegl/pkg/util"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderer draws scenes through a gpu.Device. It owns all of the device
// objects it creates; it must only be used from the goroutine that owns
// the device's context.
type Renderer struct {
	dev  gpu.Device
	cfg  Config
	lg   *log.Logger
	caps Capabilities

	state    *State
	props    *Properties
	textures *TextureBinder
	geometry *GeometryBinder
	programs *ProgramCache
	skinning skinning
	diag     diagnostics
	stats    Stats
	scratch  scratch

	pass  passState
	frame uint64

	// The program and geometry that the vertex attributes were last set
	// up for.
	wired struct {
		program  uint64
		geometry uint64
	}
}

// PassOptions controls how RenderPass draws a list of items.
type PassOptions struct {
	// Scene provides the lights, fog, and clipping planes; it may be nil.
	Scene *scene.Scene
	// GetMaterial, if non-nil, returns the material to draw an item with
	// in place of its own. A nil return keeps the item's material.
	GetMaterial func(item *scene.RenderItem) scene.Material
	// IfRender, if non-nil, is called for each item and the item is
	// skipped if it returns false.
	IfRender func(item *scene.RenderItem) bool
}

func NewRenderer(dev gpu.Device, cfg Config, lg *log.Logger) (*Renderer, error) {
	var e util.ErrorLogger
	cfg.Validate(&e)
	if err := e.Err(); err != nil {
		return nil, err
	}

	r := &Renderer{
		dev:  dev,
		cfg:  cfg,
		lg:   lg,
		caps: ProbeCapabilities(dev, cfg.Precision),
	}
	lg.Info("probed device capabilities", slog.Any("caps", r.caps))

	r.diag = diagnostics{lg: lg, hook: cfg.OnDiagnostic}
	r.state = NewState(dev, &r.caps)
	r.props = NewProperties(r.state)
	r.textures = &TextureBinder{
		dev:     dev,
		state:   r.state,
		props:   r.props,
		caps:    &r.caps,
		diag:    &r.diag,
		stats:   &r.stats,
		scratch: &r.scratch,
	}
	r.geometry = &GeometryBinder{
		dev:   dev,
		state: r.state,
		props: r.props,
		caps:  &r.caps,
		diag:  &r.diag,
		stats: &r.stats,
	}

	var err error
	if r.programs, err = NewProgramCache(dev, r.state, &r.caps, &r.cfg, lg, &r.diag, &r.stats); err != nil {
		return nil, fmt.Errorf("program cache: %w", err)
	}

	r.initState()
	return r, nil
}

// initState sets the baseline state that the per-material state changes
// start from.
func (r *Renderer) initState() {
	r.state.Enable(gpu.CapStencilTest)
	r.state.Enable(gpu.CapDepthTest)
	r.state.Enable(gpu.CapProgramPointSize)
	r.state.DepthFunc(gpu.CompareLEqual)
	r.state.SetCullFace(CullBack)
	r.state.SetFlipSided(false)
	r.state.ClearColor(0, 0, 0, 0)
}

// ResetState must be called if something other than the renderer has
// changed the device's state.
func (r *Renderer) ResetState() {
	r.state.Reset()
	r.initState()
	r.wired.program, r.wired.geometry = 0, 0
}

// SetSize sets the size of the default framebuffer, in pixels.
func (r *Renderer) SetSize(width, height int) {
	r.state.SetRenderTarget(width, height)
}

func (r *Renderer) Size() (width, height int) {
	rt := r.state.RenderTarget()
	return rt.Width, rt.Height
}

func (r *Renderer) SetClearColor(c mgl32.Vec4) {
	r.state.ClearColor(c[0], c[1], c[2], c[3])
}

// Clear clears the selected buffers of the whole render target.
func (r *Renderer) Clear(color, depth, stencil bool) {
	rt := r.state.RenderTarget()
	r.state.Viewport(0, 0, int32(rt.Width), int32(rt.Height))
	if depth {
		r.state.DepthMask(true)
	}
	if stencil {
		r.state.SetStencilMask(0xff)
	}
	r.state.Clear(color, depth, stencil)
}

// Render draws the scene from the camera: its opaque items, then its
// transparent items, and then, if renderUI is set, its screen-space
// canvases. The render list is rebuilt if updateRenderList is set or if
// there is none for the camera. It returns statistics about the frame.
func (r *Renderer) Render(s *scene.Scene, camera *scene.Camera, renderUI, updateRenderList bool) Stats {
	r.BeginFrame()

	var rl *scene.RenderList
	if updateRenderList {
		rl = s.UpdateRenderList(camera)
	} else {
		rl = s.RenderList(camera)
	}

	opts := PassOptions{Scene: s}
	if m := s.OverrideMaterial; m != nil {
		opts.GetMaterial = func(*scene.RenderItem) scene.Material { return m }
	}

	r.RenderPass(rl.Opaque, camera, opts)
	r.RenderPass(rl.Transparent, camera, opts)
	if renderUI {
		r.RenderPass(rl.UI, camera, opts)
	}

	r.lg.Debug("rendered frame", slog.Uint64("frame", r.frame), slog.Any("stats", r.stats))
	return r.stats
}

// BeginFrame starts a new frame: statistics are reset and per-frame data
// such as bone textures will be refreshed when next used. Render calls
// it; callers that only use RenderPass should call it once per frame.
func (r *Renderer) BeginFrame() {
	r.frame++
	r.stats = Stats{}
}

// RenderPass draws the items from the given camera.
func (r *Renderer) RenderPass(items []scene.RenderItem, camera *scene.Camera, opts PassOptions) {
	r.pass.begin(opts.Scene)
	for i := range items {
		r.renderItem(&items[i], camera, &opts)
	}
}

func (r *Renderer) renderItem(item *scene.RenderItem, camera *scene.Camera, opts *PassOptions) {
	r.stats.Items++

	if opts.IfRender != nil && !opts.IfRender(item) {
		r.stats.SkippedItems++
		return
	}

	m := item.Material
	if opts.GetMaterial != nil {
		if om := opts.GetMaterial(item); om != nil {
			m = om
		}
	}
	o, g := item.Object, item.Geometry
	if m == nil || g == nil {
		r.stats.SkippedItems++
		return
	}

	var canvas *scene.Canvas2D
	if o.Kind == scene.KindCanvas2D {
		canvas = o.Canvas
	}
	if canvas != nil && canvas.Screen {
		camera = canvas.OrthoCamera
	}

	p, err := r.programs.GetProgram(m, o, g, opts.Scene)
	if err != nil {
		// Already reported when the program failed to compile.
		r.stats.SkippedItems++
		return
	}

	bound := r.state.SetProgram(p.ID)
	if bound {
		r.stats.ProgramBinds++
	}
	created := r.geometry.SetGeometry(g)
	if bound || created || r.wired.program != p.serial || r.wired.geometry != g.ID() {
		r.geometry.SetupVertexAttributes(p, g)
		r.wired.program, r.wired.geometry = p.serial, g.ID()
	}

	r.textures.ResetTexUnits()
	r.setUniforms(p, &itemContext{
		object:   o,
		material: m,
		camera:   camera,
		scene:    opts.Scene,
		pass:     &r.pass,
	})

	r.setMaterialState(m, o.WorldMatrix.Det() < 0)

	vp := r.viewport(camera.Rect)
	r.state.Viewport(vp[0], vp[1], vp[2], vp[3])

	if canvas != nil {
		canvas.SetRenderViewport(vp[0], vp[1], vp[2], vp[3])
		r.drawCanvas(p, g, canvas)
	} else {
		r.draw(p, item, drawMode(o, m))
	}

	r.textures.ResetTexUnits()
}

// viewport returns the device rectangle, as (x, y, width, height), of the
// normalized rectangle (x0, y0, x1, y1) of the render target.
func (r *Renderer) viewport(rect mgl32.Vec4) [4]int32 {
	rt := r.state.RenderTarget()
	w, h := float32(rt.Width), float32(rt.Height)
	floor := func(v float32) int32 { return int32(gomath.Floor(float64(v))) }

	vp := [4]int32{floor(rect[0] * w), floor(rect[1] * h), floor(rect[2] * w), floor(rect[3] * h)}
	vp[2] -= vp[0]
	vp[3] -= vp[1]
	return vp
}

// setMaterialState applies the material's blending, depth, culling, line
// width, and stencil state. flip is set if the object's world matrix
// mirrors it, which reverses its triangles' winding.
func (r *Renderer) setMaterialState(m scene.Material, flip bool) {
	b := m.Base()

	if b.Transparent {
		r.state.SetBlend(b.Blending)
	} else {
		r.state.SetBlend(scene.Blending{Mode: scene.BlendNone})
	}

	if b.DepthTest {
		r.state.Enable(gpu.CapDepthTest)
		r.state.DepthMask(b.DepthWrite)
	} else {
		r.state.Disable(gpu.CapDepthTest)
	}

	if b.Side == scene.SideDouble {
		r.state.SetCullFace(CullNone)
	} else {
		r.state.SetCullFace(CullBack)
	}
	r.state.SetFlipSided((b.Side == scene.SideBack) != flip)

	if b.LineWidth > 0 {
		r.state.SetLineWidth(b.LineWidth)
	}

	if b.Stencil != nil {
		r.state.SetStencil(*b.Stencil)
	} else {
		r.state.SetStencil(scene.DefaultStencilState())
	}
}

// drawMode returns the primitive type to draw the object with; lines and
// points are determined by the object's kind and meshes by the material.
func drawMode(o *scene.Object, m scene.Material) gpu.Primitive {
	switch o.Kind {
	case scene.KindPoints, scene.KindParticle:
		return gpu.Points
	case scene.KindLine:
		return gpu.LineStrip
	case scene.KindLineLoop:
		return gpu.LineLoop
	case scene.KindLineSegments:
		return gpu.Lines
	default:
		return m.Base().DrawMode
	}
}

// drawRange returns the range of the total vertices or indices to draw,
// clamped to the item's group if it has one.
func drawRange(group *scene.Group, total int) (start, count int) {
	if group == nil {
		return 0, total
	}
	start = util.Clamp(group.Start, 0, total)
	count = min(group.Count, total-start)
	return start, max(count, 0)
}

func (r *Renderer) draw(p *Program, item *scene.RenderItem, mode gpu.Primitive) {
	g := item.Geometry

	instances := 0
	if g.IsInstanced() {
		if instances = InstanceCount(g); instances == 0 {
			return
		}
	}
	// Without instancing support, only the first instance is drawn.
	instanced := p.Key.Features.Has(FeatureInstancing)
	if !instanced {
		instances = 0
	}

	if g.Index != nil {
		rec := r.props.Get(g.Index.Handle())
		if rec == nil {
			return
		}
		start, count := drawRange(item.Group, g.Index.Count())
		if count == 0 {
			return
		}
		offset := start * rec.ComponentType.Size()
		if instanced {
			r.dev.DrawElementsInstanced(mode, int32(count), rec.ComponentType, offset, int32(instances))
		} else {
			r.dev.DrawElements(mode, int32(count), rec.ComponentType, offset)
		}
		r.countDraw(mode, count, instances)
	} else {
		start, count := drawRange(item.Group, g.VertexCount())
		if count == 0 {
			return
		}
		if instanced {
			r.dev.DrawArraysInstanced(mode, int32(start), int32(count), int32(instances))
		} else {
			r.dev.DrawArrays(mode, int32(start), int32(count))
		}
		r.countDraw(mode, count, instances)
	}
}

func (r *Renderer) countDraw(mode gpu.Primitive, count, instances int) {
	r.stats.DrawCalls++
	if instances > 0 {
		r.stats.InstancedDrawCalls++
	}
	r.stats.countPrimitives(mode, count, instances)
}

// drawCanvas issues one draw per run of the canvas's sprites that share a
// texture, binding the run's texture to a fresh unit for each.
func (r *Renderer) drawCanvas(p *Program, g *scene.Geometry, c *scene.Canvas2D) {
	if g.Index == nil {
		return
	}
	rec := r.props.Get(g.Index.Handle())
	if rec == nil {
		return
	}

	loc := int32(-1)
	for _, b := range p.Bindings {
		if b.Role == RoleSpriteTexture {
			loc = b.Location
		}
	}

	offset := 0
	for _, batch := range c.Batches() {
		unit := r.textures.AllocTexUnit()
		if loc >= 0 {
			r.dev.Uniform1i(loc, int32(unit))
		}
		r.textures.SetTexture2D(batch.Texture, unit)

		count := 6 * batch.Count
		r.dev.DrawElements(gpu.Triangles, int32(count), rec.ComponentType, offset*rec.ComponentType.Size())
		r.countDraw(gpu.Triangles, count, 0)
		offset += count

		r.textures.ResetTexUnits()
	}
}

// Stats returns the statistics accumulated since the start of the
// current frame.
func (r *Renderer) Stats() Stats {
	return r.stats
}

func (r *Renderer) Capabilities() Capabilities {
	return r.caps
}

// State returns the renderer's state tracker; it is mostly useful for
// inspecting the current device state.
func (r *Renderer) State() *State {
	return r.state
}

// DiagnosticCount returns the number of diagnostics of the given kind
// that have been reported.
func (r *Renderer) DiagnosticCount(kind DiagnosticKind) int {
	return r.diag.counts[kind]
}

// NumPrograms returns the number of cached program variants.
func (r *Renderer) NumPrograms() int {
	return r.programs.Len()
}

// Dispose deletes all of the device objects the renderer has created.
func (r *Renderer) Dispose() {
	r.skinning.releaseAll()
	r.programs.Purge()
	r.props.ReleaseAll()
	r.wired.program, r.wired.geometry = 0, 0
	r.lg.Info("disposed renderer")
}
