// pkg/render/renderer_test.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"encoding/binary"
	"image"
	gomath "math"
	"slices"
	"testing"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/scene"

	"github.com/go-gl/mathgl/mgl32"
)

func makeTestRenderer(t *testing.T, cfg Config) (*Renderer, *gpu.Recorder) {
	t.Helper()
	rec := gpu.NewRecorder(gpu.DefaultRecorderLimits())
	r, err := NewRenderer(rec, cfg, nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	r.SetSize(640, 480)
	return r, rec
}

func makeTriangle() *scene.Geometry {
	g := scene.NewGeometry()
	g.SetAttribute(scene.AttribPosition, scene.NewBufferAttribute(scene.Float32Array{0, 0, 0, 1, 0, 0, 0, 1, 0}, 3))
	g.SetAttribute(scene.AttribUV, scene.NewBufferAttribute(scene.Float32Array{0, 0, 1, 0, 0, 1}, 2))
	return g
}

func makeCamera() *scene.Camera {
	c := scene.NewPerspectiveCamera(60, 4./3., 0.1, 100)
	c.LookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	return c
}

func itemFor(o *scene.Object) scene.RenderItem {
	return scene.RenderItem{Object: o, Geometry: o.Geometry, Material: o.Material}
}

func checkDeviceErrors(t *testing.T, rec *gpu.Recorder) {
	t.Helper()
	for _, e := range rec.Errors {
		t.Errorf("device error: %s", e)
	}
}

// blendAtDraws returns whether blending was enabled at each draw in the
// recorded command stream.
func blendAtDraws(rec *gpu.Recorder) []bool {
	var blend bool
	var result []bool
	for _, c := range rec.CB.Commands() {
		switch {
		case c.Op == gpu.OpEnable && gpu.Capability(c.Uint(0)) == gpu.CapBlend:
			blend = true
		case c.Op == gpu.OpDisable && gpu.Capability(c.Uint(0)) == gpu.CapBlend:
			blend = false
		case c.Op.IsDraw():
			result = append(result, blend)
		}
	}
	return result
}

func TestSharedProgram(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	opaque := scene.NewMesh(makeTriangle(), scene.NewBasicMaterial())
	tm := scene.NewBasicMaterial()
	tm.Transparent = true
	tm.Opacity = 0.5
	transparent := scene.NewMesh(makeTriangle(), tm)

	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(opaque), itemFor(transparent)}, cam, PassOptions{})
	checkDeviceErrors(t, rec)

	stats := r.Stats()
	if stats.ProgramsCompiled != 1 {
		t.Errorf("got %d programs compiled, expected 1", stats.ProgramsCompiled)
	}
	if r.NumPrograms() != 1 {
		t.Errorf("got %d cached programs, expected 1", r.NumPrograms())
	}
	if n := len(rec.Draws()); n != 2 {
		t.Fatalf("got %d draws, expected 2", n)
	}
	if b := blendAtDraws(rec); !slices.Equal(b, []bool{false, true}) {
		t.Errorf("blend at draws: got %v, expected [false true]", b)
	}

	// The opacity of the second item is what's left in the program.
	if v, ok := rec.Uniform(rec.CurrentProgram(), "u_Opacity"); !ok || v[0] != 0.5 {
		t.Errorf("u_Opacity: got %v, expected [0.5]", v)
	}
}

func TestOpaqueDisablesBlend(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	tm := scene.NewBasicMaterial()
	tm.Transparent = true
	g := makeTriangle()
	items := []scene.RenderItem{
		itemFor(scene.NewMesh(g, tm)),
		itemFor(scene.NewMesh(g, scene.NewBasicMaterial())),
	}
	r.RenderPass(items, cam, PassOptions{})

	if rec.Enabled(gpu.CapBlend) {
		t.Errorf("blending enabled after drawing an opaque item")
	}
}

func TestVertexAttributeMemo(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	g := makeTriangle()
	m := scene.NewBasicMaterial()
	a, b := scene.NewMesh(g, m), scene.NewMesh(g, m)

	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(a), itemFor(b)}, cam, PassOptions{})
	if n := r.Stats().AttributeRewires; n != 1 {
		t.Errorf("got %d attribute setups for a repeated pair, expected 1", n)
	}

	r.RenderPass([]scene.RenderItem{itemFor(a)}, cam, PassOptions{})
	if n := r.Stats().AttributeRewires; n != 1 {
		t.Errorf("got %d attribute setups after redrawing, expected 1", n)
	}

	c := scene.NewMesh(makeTriangle(), m)
	r.RenderPass([]scene.RenderItem{itemFor(c)}, cam, PassOptions{})
	if n := r.Stats().AttributeRewires; n != 2 {
		t.Errorf("got %d attribute setups after changing geometry, expected 2", n)
	}

	pos := rec.Attrib(0)
	if !pos.Enabled || pos.Size != 3 || pos.Type != gpu.Float {
		t.Errorf("position attribute: got %+v", pos)
	}
	checkDeviceErrors(t, rec)
}

func TestTextureUnitsReset(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	m := scene.NewBasicMaterial()
	m.DiffuseMap = scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	o := scene.NewMesh(makeTriangle(), m)

	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	checkDeviceErrors(t, rec)

	if n := r.textures.UsedTexUnits(); n != 0 {
		t.Errorf("got %d texture units in use after the pass, expected 0", n)
	}
	if v, ok := rec.Uniform(rec.CurrentProgram(), "map"); !ok || v[0] != 0 {
		t.Errorf("map sampler: got %v, expected [0]", v)
	}
	if rec.BoundTexture(0, gpu.Texture2D) == 0 {
		t.Errorf("no texture bound to unit 0")
	}
	if n := r.Stats().TextureUploads; n != 1 {
		t.Errorf("got %d texture uploads, expected 1", n)
	}

	// A second frame doesn't upload the texture again.
	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	if n := r.Stats().TextureUploads; n != 0 {
		t.Errorf("got %d texture uploads in the second frame, expected 0", n)
	}
}

func TestMissingAttributeKeepsBinding(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	m := scene.NewBasicMaterial()
	m.DiffuseMap = scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	withUV := scene.NewMesh(makeTriangle(), m)

	g := scene.NewGeometry()
	g.SetAttribute(scene.AttribPosition, scene.NewBufferAttribute(scene.Float32Array{0, 0, 0, 1, 0, 0, 0, 1, 0}, 3))
	withoutUV := scene.NewMesh(g, m)

	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(withUV)}, cam, PassOptions{})

	p := r.programs.cache.Values()[0]
	loc := uint32(0)
	for _, a := range p.Attributes {
		if a.Name == scene.AttribUV {
			loc = uint32(a.Location)
		}
	}
	before := rec.Attrib(loc)
	if !before.Enabled || before.Buffer == 0 {
		t.Fatalf("uv attribute not set up: %+v", before)
	}

	r.RenderPass([]scene.RenderItem{itemFor(withoutUV)}, cam, PassOptions{})
	if after := rec.Attrib(loc); after != before {
		t.Errorf("got uv attribute %+v, expected the previous binding %+v", after, before)
	}
	if n := r.DiagnosticCount(DiagMissingAttribute); n != 1 {
		t.Errorf("got %d missing attribute diagnostics, expected 1", n)
	}
	if n := len(rec.Draws()); n != 2 {
		t.Errorf("got %d draws, expected 2", n)
	}
}

func TestTextureUnitOverflow(t *testing.T) {
	var diags []Diagnostic
	cfg := DefaultConfig()
	cfg.OnDiagnostic = func(d Diagnostic) { diags = append(diags, d) }
	r, _ := makeTestRenderer(t, cfg)

	if r.caps.MaxTextures != 16 {
		t.Fatalf("got max textures %d, expected 16", r.caps.MaxTextures)
	}
	for range 17 {
		r.textures.AllocTexUnit()
	}
	if unit := r.textures.AllocTexUnit(); unit != 17 {
		t.Errorf("got unit %d, expected 17", unit)
	}
	// Units 16 and 17 both exceed the limit.
	if n := r.DiagnosticCount(DiagTextureUnits); n != 2 {
		t.Errorf("got %d texture unit diagnostics, expected 2", n)
	}
	if len(diags) != 2 || diags[0].Kind != DiagTextureUnits {
		t.Errorf("diagnostic hook: got %v", diags)
	}
}

func TestGroupRanges(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()
	o := scene.NewMesh(makeTriangle(), scene.NewBasicMaterial())

	item := itemFor(o)
	item.Group = &scene.Group{Start: 0, Count: 0}
	r.RenderPass([]scene.RenderItem{item}, cam, PassOptions{})
	if n := len(rec.Draws()); n != 0 {
		t.Errorf("got %d draws for an empty group, expected 0", n)
	}

	item.Group = &scene.Group{Start: 1, Count: 100}
	r.RenderPass([]scene.RenderItem{item}, cam, PassOptions{})
	draws := rec.Draws()
	if len(draws) != 1 {
		t.Fatalf("got %d draws, expected 1", len(draws))
	}
	if d := draws[0]; d.First != 1 || d.Count != 2 {
		t.Errorf("got first %d count %d, expected first 1 count 2", d.First, d.Count)
	}
}

func TestIndexedDraw(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	g := scene.NewPlaneGeometry(1, 1, 2, 2)
	o := scene.NewMesh(g, scene.NewBasicMaterial())
	item := itemFor(o)
	item.Group = &scene.Group{Start: 6, Count: 6}
	r.RenderPass([]scene.RenderItem{item}, cam, PassOptions{})
	checkDeviceErrors(t, rec)

	draws := rec.Draws()
	if len(draws) != 1 {
		t.Fatalf("got %d draws, expected 1", len(draws))
	}
	d := draws[0]
	if !d.Indexed || d.Count != 6 || d.Offset != 6*g.Index.Array.ComponentType().Size() {
		t.Errorf("got %+v, expected 6 indices at byte offset %d", d, 6*g.Index.Array.ComponentType().Size())
	}
	if n := r.Stats().Triangles; n != 2 {
		t.Errorf("got %d triangles, expected 2", n)
	}
}

func TestInstancing(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	g := makeTriangle()
	g.SetAttribute(scene.AttribInstanceOffset, scene.NewInstancedAttribute(scene.Float32Array{
		0, 0, 0, 1, 0, 0, 2, 0, 0, 3, 0, 0}, 3, 1))
	o := scene.NewMesh(g, scene.NewBasicMaterial())

	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	checkDeviceErrors(t, rec)

	draws := rec.Draws()
	if len(draws) != 1 || draws[0].Instances != 4 {
		t.Fatalf("got draws %+v, expected one draw of 4 instances", draws)
	}
	p := r.programs.cache.Values()[0]
	for _, a := range p.Attributes {
		if a.Name == scene.AttribInstanceOffset {
			if d := rec.Attrib(uint32(a.Location)).Divisor; d != 1 {
				t.Errorf("instance offset divisor: got %d, expected 1", d)
			}
		}
	}
	if n := r.Stats().Triangles; n != 4 {
		t.Errorf("got %d triangles, expected 4", n)
	}

	g.InstanceCount = 0
	rec.Reset()
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	if n := len(rec.Draws()); n != 0 {
		t.Errorf("got %d draws with 0 instances, expected 0", n)
	}

	// The item's geometry decides, not the object's.
	plain := scene.NewMesh(makeTriangle(), scene.NewBasicMaterial())
	item := itemFor(plain)
	item.Geometry = g
	rec.Reset()
	r.RenderPass([]scene.RenderItem{item}, cam, PassOptions{})
	if draws := rec.Draws(); len(draws) != 0 {
		t.Errorf("got draws %+v for an item geometry with 0 instances, expected none", draws)
	}
}

func TestInstancingUnsupported(t *testing.T) {
	limits := gpu.DefaultRecorderLimits()
	limits.Major, limits.Minor = 2, 1
	r, err := NewRenderer(gpu.NewRecorder(limits), DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Capabilities().Instancing {
		t.Fatalf("GL 2.1 without extensions reports instancing")
	}

	g := makeTriangle()
	g.SetAttribute(scene.AttribInstanceOffset, scene.NewInstancedAttribute(scene.Float32Array{0, 0, 0, 1, 0, 0}, 3, 1))
	o := scene.NewMesh(g, scene.NewBasicMaterial())
	if k := r.programs.Key(o.Material, o, g, nil); k.Features.Has(FeatureInstancing) {
		t.Errorf("program keyed on instancing that the device doesn't support")
	}
}

func TestPartialBufferUpdate(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())

	g := scene.NewGeometry()
	data := make(scene.Float32Array, 16)
	for i := range data {
		data[i] = float32(i)
	}
	a := scene.NewBufferAttribute(data, 4)
	g.SetAttribute(scene.AttribPosition, a)

	r.BeginFrame()
	if !r.geometry.SetGeometry(g) {
		t.Errorf("expected buffer to be created")
	}
	buf := r.props.Get(a.Handle()).Buffer

	for i := 8; i < 12; i++ {
		data[i] = -float32(i)
	}
	a.MarkDirty(8, 4)
	if r.geometry.SetGeometry(g) {
		t.Errorf("buffer unexpectedly recreated")
	}

	if n := rec.CB.Count(gpu.OpBufferSubData); n != 1 {
		t.Errorf("got %d BufferSubData calls, expected 1", n)
	}
	for _, c := range rec.CB.Commands() {
		if c.Op == gpu.OpBufferSubData {
			if off := c.Int(1); off != 32 {
				t.Errorf("got byte offset %d, expected 32", off)
			}
			if n := len(c.Bytes(2)); n != 16 {
				t.Errorf("got %d bytes uploaded, expected 16", n)
			}
		}
	}
	if contents, ok := rec.BufferContents(buf); !ok || !slices.Equal(contents, data.Bytes()) {
		t.Errorf("buffer contents don't match array")
	}
	if !a.Dirty.IsZero() {
		t.Errorf("dirty range not reset after upload: %+v", a.Dirty)
	}

	// Unchanged data isn't uploaded again.
	n := rec.CB.Count(gpu.OpBufferData) + rec.CB.Count(gpu.OpBufferSubData)
	r.geometry.SetGeometry(g)
	if m := rec.CB.Count(gpu.OpBufferData) + rec.CB.Count(gpu.OpBufferSubData); m != n {
		t.Errorf("unchanged geometry uploaded again")
	}

	// A size change recreates the buffer.
	a.Array = append(data, 0, 0, 0, 0)
	a.NeedsUpdate()
	if !r.geometry.SetGeometry(g) {
		t.Errorf("expected a new buffer after resizing the array")
	}

	// A partial change doesn't narrow a pending whole-array upload.
	grown := a.Array.(scene.Float32Array)
	for i := range grown {
		grown[i] = 100 + float32(i)
	}
	a.NeedsUpdate()
	grown[0] = 200
	a.MarkDirty(0, 1)
	r.geometry.SetGeometry(g)
	contents, ok := rec.BufferContents(r.props.Get(a.Handle()).Buffer)
	if !ok || !slices.Equal(decodeFloats(contents), []float32(grown)) {
		t.Errorf("got buffer %v, expected %v", decodeFloats(contents), grown)
	}
}

func decodeFloats(b []byte) []float32 {
	f := make([]float32, len(b)/4)
	for i := range f {
		f[i] = gomath.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return f
}

func makeSkinnedMesh(nbones int) *scene.Object {
	g := makeTriangle()
	g.SetAttribute(scene.AttribSkinIndex, scene.NewBufferAttribute(make(scene.Float32Array, 12), 4))
	g.SetAttribute(scene.AttribSkinWeight, scene.NewBufferAttribute(make(scene.Float32Array, 12), 4))

	sk := scene.NewSkeleton(nbones)
	for i := range sk.Bones {
		sk.Bones[i] = mgl32.Translate3D(float32(i), float32(2*i), -float32(i)).Mul4(mgl32.Scale3D(1, 2, 3))
	}
	return scene.NewSkinnedMesh(g, scene.NewBasicMaterial(), sk)
}

func TestSkinningPaths(t *testing.T) {
	const nbones = 200
	o := makeSkinnedMesh(nbones)
	expected := o.Skeleton.BoneMatrices(nil)
	cam := makeCamera()

	// Bone texture
	cfg := DefaultConfig()
	cfg.PreferBoneTexture = true
	r, rec := makeTestRenderer(t, cfg)
	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	checkDeviceErrors(t, rec)

	prog := rec.CurrentProgram()
	size, ok := rec.Uniform(prog, "boneTextureSize")
	if !ok || size[0] != 32 {
		t.Errorf("boneTextureSize: got %v, expected [32]", size)
	}
	unit, ok := rec.Uniform(prog, "boneTexture")
	if !ok {
		t.Fatalf("boneTexture uniform not set")
	}
	tex, ok := rec.Texture(rec.BoundTexture(int(unit[0]), gpu.Texture2D))
	if !ok {
		t.Fatalf("no bone texture bound")
	}
	if tex.Width != 32 || tex.Height != 32 || tex.InternalFormat != gpu.RGBA32F {
		t.Errorf("bone texture: got %dx%d format %v", tex.Width, tex.Height, tex.InternalFormat)
	}
	fromTexture := decodeFloats(tex.Images[gpu.Texture2D])[:16*nbones]

	// Uniform array
	cfg.PreferBoneTexture = false
	r, rec = makeTestRenderer(t, cfg)
	o = makeSkinnedMesh(nbones)
	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	checkDeviceErrors(t, rec)

	fromUniforms, ok := rec.Uniform(rec.CurrentProgram(), "boneMatrices")
	if !ok {
		t.Fatalf("boneMatrices uniform not set")
	}

	if !slices.Equal(fromTexture, expected) {
		t.Errorf("bone texture contents don't match the skeleton's matrices")
	}
	if !slices.Equal(fromUniforms, fromTexture) {
		t.Errorf("bone matrices differ between the uniform and texture paths")
	}
}

func TestBoneTextureSize(t *testing.T) {
	for _, c := range []struct{ bones, size int }{{1, 4}, {4, 4}, {5, 8}, {16, 8}, {200, 32}, {256, 32}, {257, 64}} {
		if s := BoneTextureSize(c.bones); s != c.size {
			t.Errorf("%d bones: got %d, expected %d", c.bones, s, c.size)
		}
	}
}

func TestCompileFailureReportedOnce(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	m := scene.NewShaderMaterial("in vec3 a_Position;\nvoid main() {}\n", "#error broken\nvoid main() {}\n")
	o := scene.NewMesh(makeTriangle(), m)

	r.BeginFrame()
	for range 2 {
		r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	}
	if n := r.DiagnosticCount(DiagCompile); n != 1 {
		t.Errorf("got %d compile diagnostics, expected 1", n)
	}
	if n := len(rec.Draws()); n != 0 {
		t.Errorf("got %d draws, expected 0", n)
	}
	if n := r.Stats().SkippedItems; n != 2 {
		t.Errorf("got %d skipped items, expected 2", n)
	}
}

func TestShaderMaterialUniforms(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	vs := `in vec3 a_Position;
uniform mat4 u_Projection;
uniform mat4 u_View;
uniform mat4 u_Model;
void main() { gl_Position = u_Projection * u_View * u_Model * vec4(a_Position, 1.0); }
`
	fs := `uniform float strength;
uniform vec3 tint;
uniform int mode;
uniform float weights[3];
out vec4 fragColor;
void main() { fragColor = vec4(tint * strength, 1.0); }
`
	m := scene.NewShaderMaterial(vs, fs)
	m.Uniforms["strength"] = float32(0.25)
	m.Uniforms["tint"] = mgl32.Vec3{1, 0.5, 0}
	m.Uniforms["mode"] = 3
	m.Uniforms["weights"] = []float32{1, 2, 3}
	o := scene.NewMesh(makeTriangle(), m)

	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	checkDeviceErrors(t, rec)

	prog := rec.CurrentProgram()
	for _, c := range []struct {
		name     string
		expected []float32
	}{
		{"strength", []float32{0.25}},
		{"tint", []float32{1, 0.5, 0}},
		{"mode", []float32{3}},
		{"weights", []float32{1, 2, 3}},
		{"u_Projection", cam.Projection[:]},
	} {
		if v, ok := rec.Uniform(prog, c.name); !ok || !slices.Equal(v, c.expected) {
			t.Errorf("%s: got %v, expected %v", c.name, v, c.expected)
		}
	}
}

func TestLightUniforms(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	s := scene.NewScene()
	s.AddLight(scene.NewAmbientLight(mgl32.Vec3{0.1, 0.1, 0.1}, 1))
	sun := scene.NewDirectionalLight(mgl32.Vec3{1, 1, 1}, 2, mgl32.Vec3{0, -1, 0})
	sun.Shadow = &scene.LightShadow{Bias: 0.01, MapSize: mgl32.Vec2{512, 512},
		Map: scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))}
	s.AddLight(sun)
	s.AddLight(scene.NewPointLight(mgl32.Vec3{1, 0, 0}, 1, mgl32.Vec3{0, 2, 0}, 10, 2))

	o := scene.NewMesh(makeTriangle(), scene.NewLambertMaterial())
	o.Geometry.SetAttribute(scene.AttribNormal, scene.NewBufferAttribute(scene.Float32Array{0, 0, 1, 0, 0, 1, 0, 0, 1}, 3))
	o.ReceiveShadow = true
	s.Add(o)
	s.UpdateLights()

	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{Scene: s})
	checkDeviceErrors(t, rec)

	prog := rec.CurrentProgram()
	check := func(name string, expected []float32) {
		t.Helper()
		if v, ok := rec.Uniform(prog, name); !ok || !slices.Equal(v, expected) {
			t.Errorf("%s: got %v, expected %v", name, v, expected)
		}
	}
	check("u_AmbientLightColor", []float32{0.1, 0.1, 0.1})
	check("u_Directional[0].color", []float32{2, 2, 2})
	check("u_Directional[0].direction", []float32{0, -1, 0})
	check("u_Directional[0].shadow", []float32{1})
	check("u_Directional[0].shadowBias", []float32{0.01})
	check("u_Point[0].position", []float32{0, 2, 0})
	check("u_Point[0].decay", []float32{2})

	units, ok := rec.Uniform(prog, "directionalShadowMap")
	if !ok || len(units) != 1 {
		t.Fatalf("directionalShadowMap: got %v", units)
	}
	if rec.BoundTexture(int(units[0]), gpu.Texture2D) == 0 {
		t.Errorf("shadow map not bound to unit %v", units[0])
	}
}

func TestViewport(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()
	cam.Rect = mgl32.Vec4{0.5, 0, 1, 0.5}

	r.RenderPass([]scene.RenderItem{itemFor(scene.NewMesh(makeTriangle(), scene.NewBasicMaterial()))}, cam,
		PassOptions{})
	if vp := rec.ViewportRect(); vp != [4]int32{320, 0, 320, 240} {
		t.Errorf("got viewport %v, expected [320 0 320 240]", vp)
	}
}

func TestMirroredObjectFlipsWinding(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	o := scene.NewMesh(makeTriangle(), scene.NewBasicMaterial())
	o.WorldMatrix = mgl32.Scale3D(-1, 1, 1)
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	if w := rec.FrontFaceWinding(); w != gpu.WindingCW {
		t.Errorf("got winding %v, expected clockwise", w)
	}

	o.WorldMatrix = mgl32.Ident4()
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})
	if w := rec.FrontFaceWinding(); w != gpu.WindingCCW {
		t.Errorf("got winding %v, expected counterclockwise", w)
	}
}

func TestPassOptions(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	a := scene.NewMesh(makeTriangle(), scene.NewBasicMaterial())
	b := scene.NewMesh(makeTriangle(), scene.NewBasicMaterial())
	depth := scene.NewDepthMaterial()

	r.BeginFrame()
	r.RenderPass([]scene.RenderItem{itemFor(a), itemFor(b)}, cam, PassOptions{
		IfRender:    func(item *scene.RenderItem) bool { return item.Object == a },
		GetMaterial: func(*scene.RenderItem) scene.Material { return depth },
	})
	checkDeviceErrors(t, rec)

	if n := len(rec.Draws()); n != 1 {
		t.Errorf("got %d draws, expected 1", n)
	}
	if n := r.Stats().SkippedItems; n != 1 {
		t.Errorf("got %d skipped items, expected 1", n)
	}
	p := r.programs.cache.Values()[0]
	if p.Key.Style != scene.StyleDepth {
		t.Errorf("got program style %v, expected depth", p.Key.Style)
	}
}

func TestRenderScene(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	s := scene.NewScene()
	s.Fog = scene.NewFog(mgl32.Vec3{0.5, 0.5, 0.5}, 1, 50)
	s.Add(scene.NewMesh(makeTriangle(), scene.NewBasicMaterial()))
	tm := scene.NewBasicMaterial()
	tm.Transparent = true
	s.Add(scene.NewMesh(makeTriangle(), tm))

	tex := scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	c, co := scene.NewCanvas2D(100, 100, true)
	c.AddSprite(tex, 0, 0, 10, 10)
	c.AddSprite(tex, 10, 0, 10, 10)
	c.AddSprite(nil, 20, 0, 10, 10)
	c.Update(co)
	s.Add(co)

	stats := r.Render(s, cam, false, true)
	checkDeviceErrors(t, rec)
	if stats.DrawCalls != 2 || stats.Items != 2 {
		t.Errorf("without UI: got %d items, %d draw calls, expected 2 and 2", stats.Items, stats.DrawCalls)
	}
	if v, ok := rec.Uniform(rec.CurrentProgram(), "u_FogFar"); !ok || v[0] != 50 {
		t.Errorf("u_FogFar: got %v, expected [50]", v)
	}

	rec.Reset()
	stats = r.Render(s, cam, true, false)
	checkDeviceErrors(t, rec)
	if stats.DrawCalls != 4 {
		t.Errorf("with UI: got %d draw calls, expected 4", stats.DrawCalls)
	}
	draws := rec.Draws()
	if len(draws) != 4 {
		t.Fatalf("got %d draws, expected 4", len(draws))
	}
	// Two batches: the sprites sharing tex, then the untextured one.
	if d := draws[2]; d.Count != 12 || d.Offset != 0 {
		t.Errorf("first canvas batch: got %+v", d)
	}
	if d := draws[3]; d.Count != 6 || d.Offset != 24 {
		t.Errorf("second canvas batch: got %+v", d)
	}
	if vp := c.Viewport; vp != [4]int32{0, 0, 640, 480} {
		t.Errorf("canvas viewport: got %v", vp)
	}
}

func TestDispose(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	cam := makeCamera()

	m := scene.NewBasicMaterial()
	m.DiffuseMap = scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	o := scene.NewMesh(makeTriangle(), m)
	r.RenderPass([]scene.RenderItem{itemFor(o)}, cam, PassOptions{})

	if rec.NumBuffers() != 2 || rec.NumTextures() != 1 || rec.NumPrograms() != 1 {
		t.Errorf("got %d buffers, %d textures, %d programs, expected 2, 1, 1", rec.NumBuffers(),
			rec.NumTextures(), rec.NumPrograms())
	}

	// Disposing of the geometry releases its buffers.
	o.Geometry.Dispose()
	if n := rec.NumBuffers(); n != 0 {
		t.Errorf("got %d buffers after disposing geometry, expected 0", n)
	}

	r.Dispose()
	if rec.NumBuffers() != 0 || rec.NumTextures() != 0 || rec.NumPrograms() != 0 {
		t.Errorf("device objects remain after Dispose")
	}
	checkDeviceErrors(t, rec)
}
