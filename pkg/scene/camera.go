// pkg/scene/camera.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera provides the view and projection transformations for a render
// pass. Rect gives the normalized (x0, y0, x1, y1) region of the render
// target that the camera draws into.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	// World is the inverse of View.
	World mgl32.Mat4
	Rect  mgl32.Vec4
}

func newCamera(proj mgl32.Mat4) *Camera {
	return &Camera{
		View:       mgl32.Ident4(),
		Projection: proj,
		World:      mgl32.Ident4(),
		Rect:       mgl32.Vec4{0, 0, 1, 1},
	}
}

// NewPerspectiveCamera returns a camera with the given vertical field of
// view, in degrees.
func NewPerspectiveCamera(fovy, aspect, near, far float32) *Camera {
	return newCamera(mgl32.Perspective(mgl32.DegToRad(fovy), aspect, near, far))
}

func NewOrthoCamera(left, right, bottom, top, near, far float32) *Camera {
	return newCamera(mgl32.Ortho(left, right, bottom, top, near, far))
}

func (c *Camera) LookAt(eye, target, up mgl32.Vec3) {
	c.SetView(mgl32.LookAtV(eye, target, up))
}

func (c *Camera) SetView(v mgl32.Mat4) {
	c.View = v
	c.World = v.Inv()
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.World.Col(3).Vec3()
}

// Depth returns the distance in front of the camera of the point p,
// measured along the view direction.
func (c *Camera) Depth(p mgl32.Vec3) float32 {
	return -c.View.Mul4x1(p.Vec4(1)).Z()
}
