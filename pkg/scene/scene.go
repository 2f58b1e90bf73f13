// pkg/scene/scene.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is the set of points p where Normal·p + Constant = 0.
type Plane struct {
	Normal   mgl32.Vec3
	Constant float32
}

func NewPlane(normal mgl32.Vec3, constant float32) Plane {
	return Plane{Normal: normal, Constant: constant}
}

// DistanceToPoint returns the signed distance from the plane to p.
func (p Plane) DistanceToPoint(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.Constant
}

// RenderItem is one drawable for one frame. If Group is non-nil, only
// that range of the geometry is drawn.
type RenderItem struct {
	Object   *Object
	Geometry *Geometry
	Material Material
	Group    *Group
	// Z is the object's depth in front of the camera when the list was
	// built.
	Z float32
}

// RenderList holds a frame's render items for one camera. Opaque items
// are sorted front to back and transparent items back to front, each
// after RenderOrder. UI holds screen-space canvases.
type RenderList struct {
	Opaque      []RenderItem
	Transparent []RenderItem
	UI          []RenderItem
}

func (rl *RenderList) reset() {
	rl.Opaque = rl.Opaque[:0]
	rl.Transparent = rl.Transparent[:0]
	rl.UI = rl.UI[:0]
}

func (rl *RenderList) add(item RenderItem) {
	switch {
	case item.Object.Kind == KindCanvas2D && item.Object.Canvas != nil && item.Object.Canvas.Screen:
		rl.UI = append(rl.UI, item)
	case item.Material.Base().Transparent:
		rl.Transparent = append(rl.Transparent, item)
	default:
		rl.Opaque = append(rl.Opaque, item)
	}
}

func (rl *RenderList) sort() {
	byOrder := func(a, b RenderItem) int {
		return cmp.Compare(a.Object.RenderOrder, b.Object.RenderOrder)
	}
	slices.SortStableFunc(rl.Opaque, func(a, b RenderItem) int {
		return cmp.Or(byOrder(a, b), cmp.Compare(a.Z, b.Z))
	})
	slices.SortStableFunc(rl.Transparent, func(a, b RenderItem) int {
		return cmp.Or(byOrder(a, b), cmp.Compare(b.Z, a.Z))
	})
	slices.SortStableFunc(rl.UI, byOrder)
}

// Len returns the total number of items in the list.
func (rl *RenderList) Len() int {
	return len(rl.Opaque) + len(rl.Transparent) + len(rl.UI)
}

type Scene struct {
	Objects []*Object
	Lights  []*Light
	// Fog is nil if the scene has no fog.
	Fog            *Fog
	ClippingPlanes []Plane
	// OverrideMaterial, if non-nil, is used for all items in place of
	// their own materials.
	OverrideMaterial Material

	lights LightSet
	lists  map[*Camera]*RenderList
}

func NewScene() *Scene {
	return &Scene{lists: make(map[*Camera]*RenderList)}
}

func (s *Scene) Add(objs ...*Object) {
	s.Objects = append(s.Objects, objs...)
}

func (s *Scene) Remove(o *Object) {
	s.Objects = slices.DeleteFunc(s.Objects, func(obj *Object) bool { return obj == o })
}

func (s *Scene) AddLight(lights ...*Light) {
	s.Lights = append(s.Lights, lights...)
}

// LightSet returns the scene's lights as grouped by the most recent call
// to UpdateLights or UpdateRenderList.
func (s *Scene) LightSet() *LightSet {
	return &s.lights
}

func (s *Scene) UpdateLights() *LightSet {
	s.lights.Reset()
	for _, l := range s.Lights {
		s.lights.Add(l)
	}
	return &s.lights
}

// UpdateRenderList rebuilds and returns the render list for the given
// camera. It also updates the scene's LightSet.
func (s *Scene) UpdateRenderList(camera *Camera) *RenderList {
	s.UpdateLights()

	if s.lists == nil {
		s.lists = make(map[*Camera]*RenderList)
	}
	rl, ok := s.lists[camera]
	if !ok {
		rl = &RenderList{}
		s.lists[camera] = rl
	}
	rl.reset()

	for _, o := range s.Objects {
		if !o.Visible || o.Geometry == nil {
			continue
		}
		z := camera.Depth(o.Position())

		if len(o.Materials) > 0 && len(o.Geometry.Groups) > 0 {
			for i := range o.Geometry.Groups {
				g := &o.Geometry.Groups[i]
				if g.MaterialIndex < 0 || g.MaterialIndex >= len(o.Materials) || o.Materials[g.MaterialIndex] == nil {
					continue
				}
				rl.add(RenderItem{Object: o, Geometry: o.Geometry, Material: o.Materials[g.MaterialIndex], Group: g, Z: z})
			}
		} else if o.Material != nil {
			rl.add(RenderItem{Object: o, Geometry: o.Geometry, Material: o.Material, Z: z})
		}
	}

	rl.sort()
	return rl
}

// RenderList returns the render list most recently built for the camera,
// building it if there is none.
func (s *Scene) RenderList(camera *Camera) *RenderList {
	if rl, ok := s.lists[camera]; ok {
		return rl
	}
	return s.UpdateRenderList(camera)
}

// ForgetCamera discards the cached render list for the camera.
func (s *Scene) ForgetCamera(camera *Camera) {
	delete(s.lists, camera)
}
