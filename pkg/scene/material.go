// pkg/scene/material.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"github.com/mmp/scenegl/pkg/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Style identifies the kind of shading a material uses; it is the primary
// component of a material's shader variant.
type Style int

const (
	StyleBasic Style = iota
	StyleLambert
	StylePhong
	StylePBR
	StyleCube
	StylePoints
	StyleLine
	StyleLineLoop
	StyleLineDashed
	StyleCanvas2D
	StyleSprite
	StyleShader
	StyleDepth
	StyleDistance
	StyleParticle
)

var styleNames = [...]string{"basic", "lambert", "phong", "pbr", "cube", "points", "line", "lineloop",
	"linedashed", "canvas2d", "sprite", "shader", "depth", "distance", "particle"}

func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return "unknown"
}

type BlendMode int

const (
	BlendNone BlendMode = iota
	BlendNormal
	BlendAdd
	BlendCustom
)

func (b BlendMode) String() string {
	return [...]string{"none", "normal", "add", "custom"}[b]
}

// Blending describes how a transparent material's fragments are combined
// with the framebuffer. The equations and factors are only used with
// BlendCustom.
type Blending struct {
	Mode                    BlendMode
	Equation, EquationAlpha gpu.BlendEquation
	Src, Dst                gpu.BlendFactor
	SrcAlpha, DstAlpha      gpu.BlendFactor
	Premultiplied           bool
}

// Side specifies which faces of a material's triangles are drawn.
type Side int

const (
	SideFront Side = iota
	SideBack
	SideDouble
)

// StencilState gives the stencil test configuration for a material.
type StencilState struct {
	Func               gpu.CompareFunc
	Ref                int32
	FuncMask           uint32
	Fail, ZFail, ZPass gpu.StencilOp
	WriteMask          uint32
}

func DefaultStencilState() StencilState {
	return StencilState{
		Func:      gpu.CompareAlways,
		FuncMask:  0xff,
		Fail:      gpu.StencilKeep,
		ZFail:     gpu.StencilKeep,
		ZPass:     gpu.StencilKeep,
		WriteMask: 0xff,
	}
}

// MaterialBase holds the fields shared by all material styles.
type MaterialBase struct {
	Name string

	Transparent bool
	Opacity     float32
	Blending    Blending
	DepthTest   bool
	DepthWrite  bool
	Side        Side
	// LineWidth is only applied if it is positive.
	LineWidth float32
	DrawMode  gpu.Primitive
	// Stencil is only applied if non-nil.
	Stencil *StencilState

	// Fog and AcceptLight control whether the scene's fog and lights
	// affect the material.
	Fog          bool
	AcceptLight  bool
	VertexColors bool
	FlatShading  bool

	Diffuse           mgl32.Vec3
	DiffuseMap        *Texture2D
	NormalMap         *Texture2D
	BumpMap           *Texture2D
	BumpScale         float32
	SpecularMap       *Texture2D
	EnvMap            *TextureCube
	EnvMapIntensity   float32
	AOMap             *Texture2D
	AOMapIntensity    float32
	Emissive          mgl32.Vec3
	EmissiveMap       *Texture2D
	EmissiveIntensity float32
}

func (m *MaterialBase) Base() *MaterialBase { return m }

// UVMap returns the texture whose uv transform is used for all of the
// material's maps.
func (m *MaterialBase) UVMap() *Texture2D {
	for _, t := range []*Texture2D{m.DiffuseMap, m.SpecularMap, m.NormalMap, m.BumpMap, m.EmissiveMap} {
		if t != nil {
			return t
		}
	}
	return nil
}

func newMaterialBase(mode gpu.Primitive, acceptLight bool) MaterialBase {
	return MaterialBase{
		Opacity: 1,
		Blending: Blending{
			Mode:          BlendNormal,
			Equation:      gpu.BlendEqAdd,
			EquationAlpha: gpu.BlendEqAdd,
			Src:           gpu.BlendSrcAlpha,
			Dst:           gpu.BlendOneMinusSrcAlpha,
			SrcAlpha:      gpu.BlendOne,
			DstAlpha:      gpu.BlendOneMinusSrcAlpha,
		},
		DepthTest:         true,
		DepthWrite:        true,
		DrawMode:          mode,
		Fog:               true,
		AcceptLight:       acceptLight,
		Diffuse:           mgl32.Vec3{1, 1, 1},
		BumpScale:         1,
		EnvMapIntensity:   1,
		AOMapIntensity:    1,
		EmissiveIntensity: 1,
	}
}

// Material is implemented by all of the material styles.
type Material interface {
	Base() *MaterialBase
	Style() Style
}

type BasicMaterial struct{ MaterialBase }

func NewBasicMaterial() *BasicMaterial {
	return &BasicMaterial{newMaterialBase(gpu.Triangles, false)}
}

func (*BasicMaterial) Style() Style { return StyleBasic }

type LambertMaterial struct{ MaterialBase }

func NewLambertMaterial() *LambertMaterial {
	return &LambertMaterial{newMaterialBase(gpu.Triangles, true)}
}

func (*LambertMaterial) Style() Style { return StyleLambert }

type PhongMaterial struct {
	MaterialBase
	Shininess float32
	Specular  mgl32.Vec3
}

func NewPhongMaterial() *PhongMaterial {
	return &PhongMaterial{
		MaterialBase: newMaterialBase(gpu.Triangles, true),
		Shininess:    30,
		Specular:     mgl32.Vec3{0.067, 0.067, 0.067},
	}
}

func (*PhongMaterial) Style() Style { return StylePhong }

type PBRMaterial struct {
	MaterialBase
	Roughness, Metalness       float32
	RoughnessMap, MetalnessMap *Texture2D
}

func NewPBRMaterial() *PBRMaterial {
	return &PBRMaterial{
		MaterialBase: newMaterialBase(gpu.Triangles, true),
		Roughness:    0.5,
		Metalness:    0.5,
	}
}

func (*PBRMaterial) Style() Style { return StylePBR }

// CubeMaterial draws a skybox from CubeMap.
type CubeMaterial struct {
	MaterialBase
	CubeMap *TextureCube
}

func NewCubeMaterial(cube *TextureCube) *CubeMaterial {
	m := &CubeMaterial{MaterialBase: newMaterialBase(gpu.Triangles, false), CubeMap: cube}
	m.Side = SideBack
	m.DepthWrite = false
	return m
}

func (*CubeMaterial) Style() Style { return StyleCube }

type PointsMaterial struct {
	MaterialBase
	Size            float32
	SizeAttenuation bool
}

func NewPointsMaterial() *PointsMaterial {
	return &PointsMaterial{
		MaterialBase:    newMaterialBase(gpu.Points, false),
		Size:            1,
		SizeAttenuation: true,
	}
}

func (*PointsMaterial) Style() Style { return StylePoints }

// LineMaterial draws line segments or, if Loop is set, a closed line
// loop.
type LineMaterial struct {
	MaterialBase
	Loop bool
}

func NewLineMaterial() *LineMaterial {
	m := &LineMaterial{MaterialBase: newMaterialBase(gpu.Lines, false)}
	m.LineWidth = 1
	return m
}

func NewLineLoopMaterial() *LineMaterial {
	m := NewLineMaterial()
	m.Loop = true
	m.DrawMode = gpu.LineLoop
	return m
}

func (m *LineMaterial) Style() Style {
	if m.Loop {
		return StyleLineLoop
	}
	return StyleLine
}

type LineDashedMaterial struct {
	MaterialBase
	DashSize, GapSize float32
	Scale             float32
}

func NewLineDashedMaterial() *LineDashedMaterial {
	m := &LineDashedMaterial{
		MaterialBase: newMaterialBase(gpu.Lines, false),
		DashSize:     3,
		GapSize:      1,
		Scale:        1,
	}
	m.LineWidth = 1
	return m
}

func (*LineDashedMaterial) Style() Style { return StyleLineDashed }

type SpriteMaterial struct {
	MaterialBase
	Rotation float32
}

func NewSpriteMaterial() *SpriteMaterial {
	m := &SpriteMaterial{MaterialBase: newMaterialBase(gpu.Triangles, false)}
	m.Transparent = true
	return m
}

func (*SpriteMaterial) Style() Style { return StyleSprite }

type ParticleMaterial struct{ MaterialBase }

func NewParticleMaterial() *ParticleMaterial {
	m := &ParticleMaterial{newMaterialBase(gpu.Points, false)}
	m.Transparent = true
	m.Blending.Mode = BlendAdd
	m.DepthWrite = false
	return m
}

func (*ParticleMaterial) Style() Style { return StyleParticle }

type Canvas2DMaterial struct{ MaterialBase }

func NewCanvas2DMaterial() *Canvas2DMaterial {
	m := &Canvas2DMaterial{newMaterialBase(gpu.Triangles, false)}
	m.Transparent = true
	m.DepthTest = false
	m.Side = SideDouble
	return m
}

func (*Canvas2DMaterial) Style() Style { return StyleCanvas2D }

// DepthMaterial renders fragment depth, optionally packed into RGBA.
type DepthMaterial struct {
	MaterialBase
	Packing bool
}

func NewDepthMaterial() *DepthMaterial {
	return &DepthMaterial{MaterialBase: newMaterialBase(gpu.Triangles, false), Packing: true}
}

func (*DepthMaterial) Style() Style { return StyleDepth }

// DistanceMaterial renders the normalized distance from ReferencePosition,
// as used for point light shadow maps.
type DistanceMaterial struct {
	MaterialBase
	ReferencePosition mgl32.Vec3
	Near, Far         float32
}

func NewDistanceMaterial() *DistanceMaterial {
	return &DistanceMaterial{MaterialBase: newMaterialBase(gpu.Triangles, false), Near: 1, Far: 1000}
}

func (*DistanceMaterial) Style() Style { return StyleDistance }

// ShaderMaterial uses caller-provided GLSL. Uniforms gives values for the
// shaders' uniforms, keyed by name; values may be float32, int32, bool,
// []float32, []int32, mgl32 vectors and matrices, *Texture2D, *DataTexture,
// or *TextureCube. Defines are added to both shaders.
type ShaderMaterial struct {
	MaterialBase
	VertexShader, FragmentShader string
	Uniforms                     map[string]any
	Defines                      map[string]string
}

func NewShaderMaterial(vs, fs string) *ShaderMaterial {
	return &ShaderMaterial{
		MaterialBase:   newMaterialBase(gpu.Triangles, false),
		VertexShader:   vs,
		FragmentShader: fs,
		Uniforms:       make(map[string]any),
		Defines:        make(map[string]string),
	}
}

func (*ShaderMaterial) Style() Style { return StyleShader }
