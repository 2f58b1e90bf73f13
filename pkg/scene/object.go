// pkg/scene/object.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

type ObjectKind int

const (
	KindMesh ObjectKind = iota
	KindSkinnedMesh
	KindSprite
	KindParticle
	KindCanvas2D
	KindPoints
	KindLine
	KindLineLoop
	KindLineSegments
)

func (k ObjectKind) String() string {
	return [...]string{"mesh", "skinned mesh", "sprite", "particle", "canvas2d", "points", "line",
		"line loop", "line segments"}[k]
}

// Object is a drawable node of the scene. Transform propagation happens
// elsewhere; the renderer only consumes WorldMatrix.
type Object struct {
	Name     string
	Kind     ObjectKind
	Geometry *Geometry
	Material Material
	// Materials, if non-empty, gives the materials used for the
	// geometry's groups, indexed by Group.MaterialIndex.
	Materials []Material

	WorldMatrix mgl32.Mat4
	Visible     bool
	// Items with lower RenderOrder are drawn first.
	RenderOrder   int
	CastShadow    bool
	ReceiveShadow bool

	Skeleton *Skeleton      // KindSkinnedMesh
	Particle *ParticleState // KindParticle
	Canvas   *Canvas2D      // KindCanvas2D
}

func NewObject(kind ObjectKind, g *Geometry, m Material) *Object {
	return &Object{
		Kind:        kind,
		Geometry:    g,
		Material:    m,
		WorldMatrix: mgl32.Ident4(),
		Visible:     true,
	}
}

func NewMesh(g *Geometry, m Material) *Object {
	return NewObject(KindMesh, g, m)
}

func NewSkinnedMesh(g *Geometry, m Material, s *Skeleton) *Object {
	o := NewObject(KindSkinnedMesh, g, m)
	o.Skeleton = s
	return o
}

// NewSprite returns a camera-facing quad drawn with the given material.
func NewSprite(m *SpriteMaterial) *Object {
	g := NewGeometry()
	g.SetAttribute(AttribPosition, NewBufferAttribute(Float32Array{
		-0.5, -0.5, 0, 0.5, -0.5, 0, 0.5, 0.5, 0, -0.5, 0.5, 0}, 3))
	g.SetAttribute(AttribUV, NewBufferAttribute(Float32Array{0, 0, 1, 0, 1, 1, 0, 1}, 2))
	g.SetIndex16([]uint16{0, 1, 2, 0, 2, 3})
	return NewObject(KindSprite, g, m)
}

func NewParticles(g *Geometry, m *ParticleMaterial, noise, sprite *Texture2D) *Object {
	o := NewObject(KindParticle, g, m)
	o.Particle = &ParticleState{NoiseTexture: noise, SpriteTexture: sprite}
	return o
}

// Translate sets the translation component of the object's world matrix.
func (o *Object) Translate(p mgl32.Vec3) {
	o.WorldMatrix.SetCol(3, p.Vec4(1))
}

func (o *Object) Position() mgl32.Vec3 {
	return o.WorldMatrix.Col(3).Vec3()
}

// Skeleton holds the current skinning matrices of a skinned mesh: each
// is the product of a bone's world matrix and its inverse bind matrix.
type Skeleton struct {
	Resource
	Bones []mgl32.Mat4
}

func NewSkeleton(nbones int) *Skeleton {
	s := &Skeleton{Bones: make([]mgl32.Mat4, nbones)}
	for i := range s.Bones {
		s.Bones[i] = mgl32.Ident4()
	}
	return s
}

// BoneMatrices appends the skeleton's bone matrices, in column-major
// order, to dst.
func (s *Skeleton) BoneMatrices(dst []float32) []float32 {
	for _, m := range s.Bones {
		dst = append(dst, m[:]...)
	}
	return dst
}

// ParticleState holds the per-object inputs of a GPU particle system.
type ParticleState struct {
	Time          float32
	NoiseTexture  *Texture2D
	SpriteTexture *Texture2D
}
