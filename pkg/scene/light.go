// pkg/scene/light.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

type LightKind int

const (
	AmbientLight LightKind = iota
	DirectionalLight
	PointLight
	SpotLight
)

// Light positions and directions are in world space. Angle is the spot
// light's cone half-angle in radians and Penumbra the fraction of the cone
// over which it falls off.
type Light struct {
	Kind      LightKind
	Color     mgl32.Vec3
	Intensity float32
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Distance  float32
	Decay     float32
	Angle     float32
	Penumbra  float32
	// Shadow is nil for lights that don't cast shadows.
	Shadow *LightShadow
}

// LightShadow holds the shadow map produced for a light by an earlier
// pass along with the parameters used to sample it. Point lights use
// CubeMap; the others use Map.
type LightShadow struct {
	Bias, Radius          float32
	MapSize               mgl32.Vec2
	CameraNear, CameraFar float32
	Matrix                mgl32.Mat4
	Map                   *Texture2D
	CubeMap               *TextureCube
}

func NewAmbientLight(color mgl32.Vec3, intensity float32) *Light {
	return &Light{Kind: AmbientLight, Color: color, Intensity: intensity}
}

func NewDirectionalLight(color mgl32.Vec3, intensity float32, direction mgl32.Vec3) *Light {
	return &Light{Kind: DirectionalLight, Color: color, Intensity: intensity, Direction: direction.Normalize()}
}

func NewPointLight(color mgl32.Vec3, intensity float32, position mgl32.Vec3, distance, decay float32) *Light {
	return &Light{Kind: PointLight, Color: color, Intensity: intensity, Position: position,
		Distance: distance, Decay: decay}
}

func NewSpotLight(color mgl32.Vec3, intensity float32, position, direction mgl32.Vec3, angle, penumbra float32) *Light {
	return &Light{Kind: SpotLight, Color: color, Intensity: intensity, Position: position,
		Direction: direction.Normalize(), Decay: 1, Angle: angle, Penumbra: penumbra}
}

func (l *Light) EffectiveColor() mgl32.Vec3 {
	return l.Color.Mul(l.Intensity)
}

func (l *Light) ConeCos() float32 {
	return float32(gomath.Cos(float64(l.Angle)))
}

func (l *Light) PenumbraCos() float32 {
	return float32(gomath.Cos(float64(l.Angle * (1 - l.Penumbra))))
}

// LightSet is the scene's lights grouped by kind, as consumed by the
// renderer.
type LightSet struct {
	Ambient     mgl32.Vec3
	NumAmbient  int
	Directional []*Light
	Point       []*Light
	Spot        []*Light
}

func (ls *LightSet) Reset() {
	ls.Ambient = mgl32.Vec3{}
	ls.NumAmbient = 0
	ls.Directional = ls.Directional[:0]
	ls.Point = ls.Point[:0]
	ls.Spot = ls.Spot[:0]
}

func (ls *LightSet) Add(l *Light) {
	switch l.Kind {
	case AmbientLight:
		ls.Ambient = ls.Ambient.Add(l.EffectiveColor())
		ls.NumAmbient++
	case DirectionalLight:
		ls.Directional = append(ls.Directional, l)
	case PointLight:
		ls.Point = append(ls.Point, l)
	case SpotLight:
		ls.Spot = append(ls.Spot, l)
	}
}

// ShadowCounts returns the number of shadow-casting lights of each kind.
func (ls *LightSet) ShadowCounts() (directional, point, spot int) {
	count := func(lights []*Light) (n int) {
		for _, l := range lights {
			if l.Shadow != nil {
				n++
			}
		}
		return
	}
	return count(ls.Directional), count(ls.Point), count(ls.Spot)
}

// Fog

type FogType int

const (
	FogLinear FogType = iota + 1
	FogExp2
)

type Fog struct {
	Type      FogType
	Color     mgl32.Vec3
	Near, Far float32
	Density   float32
}

func NewFog(color mgl32.Vec3, near, far float32) *Fog {
	return &Fog{Type: FogLinear, Color: color, Near: near, Far: far}
}

func NewFogExp2(color mgl32.Vec3, density float32) *Fog {
	return &Fog{Type: FogExp2, Color: color, Density: density}
}
