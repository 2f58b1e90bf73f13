// cmd/scenegl/demo.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"image"
	"image/color"
	gomath "math"
	"os"
	"path/filepath"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/log"
	"github.com/mmp/scenegl/pkg/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// Demo is a small scene that exercises most of the renderer's material
// styles: lit meshes, instancing, points, dashed lines, sprites, particles
// and a screen-space canvas.
type Demo struct {
	Scene  *scene.Scene
	Camera *scene.Camera

	box       *scene.Object
	instances *scene.Object
	particles *scene.Object
	hud       *scene.Canvas2D
	hudObject *scene.Object
	hudIcon   *scene.Texture2D
}

// checkerboard returns an n x n texture image of alternating squares.
func checkerboard(n, squares int, a, b color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	s := max(n/squares, 1)
	for y := range n {
		for x := range n {
			if (x/s+y/s)%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}
	return img
}

// radial returns an n x n image that fades from opaque white at the
// center to transparent at the edges.
func radial(n int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	c := float64(n-1) / 2
	for y := range n {
		for x := range n {
			d := gomath.Hypot(float64(x)-c, float64(y)-c) / c
			a := uint8(255 * max(0, 1-d))
			img.SetRGBA(x, y, color.RGBA{a, a, a, a})
		}
	}
	return img
}

// demoTexture loads the named texture from dir if it's there and
// otherwise returns a texture with the fallback image.
func demoTexture(loader *scene.Loader, dir, name string, fallback image.Image) *scene.Texture2D {
	if dir != "" {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return loader.LoadTexture2D(path)
		}
	}
	return scene.NewTexture2DFromImage(fallback)
}

func NewDemo(aspect float32, textureDir string, loader *scene.Loader, lg *log.Logger) (*Demo, error) {
	d := &Demo{Scene: scene.NewScene()}
	s := d.Scene

	d.Camera = scene.NewPerspectiveCamera(50, aspect, 0.1, 200)
	d.Camera.LookAt(mgl32.Vec3{0, 6, 14}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0})

	s.AddLight(scene.NewAmbientLight(mgl32.Vec3{1, 1, 1}, 0.25))
	s.AddLight(scene.NewDirectionalLight(mgl32.Vec3{1, 0.95, 0.9}, 0.8, mgl32.Vec3{-1, -2, -1}))
	s.AddLight(scene.NewPointLight(mgl32.Vec3{0.4, 0.6, 1}, 1.5, mgl32.Vec3{-4, 3, 2}, 20, 2))
	s.AddLight(scene.NewSpotLight(mgl32.Vec3{1, 0.8, 0.5}, 2, mgl32.Vec3{4, 6, 2}, mgl32.Vec3{-0.5, -1, -0.2},
		gomath.Pi/8, 0.3))
	s.Fog = scene.NewFog(mgl32.Vec3{0.1, 0.1, 0.12}, 20, 60)

	white, gray := color.RGBA{230, 230, 230, 255}, color.RGBA{90, 90, 100, 255}

	// Ground
	groundTex := demoTexture(loader, textureDir, "ground.png", checkerboard(256, 16, white, gray))
	groundTex.Params.WrapS, groundTex.Params.WrapT = gpu.Repeat, gpu.Repeat
	groundTex.Repeat = mgl32.Vec2{4, 4}
	groundMat := scene.NewPhongMaterial()
	groundMat.DiffuseMap = groundTex
	ground := scene.NewMesh(scene.NewPlaneGeometry(40, 40, 4, 4), groundMat)
	ground.WorldMatrix = mgl32.HomogRotate3DX(-gomath.Pi / 2)
	ground.ReceiveShadow = true
	ground.Name = "ground"

	// Spinning box
	boxMat := scene.NewPBRMaterial()
	boxMat.DiffuseMap = demoTexture(loader, textureDir, "box.png",
		checkerboard(64, 4, color.RGBA{200, 80, 60, 255}, color.RGBA{240, 200, 120, 255}))
	boxMat.Roughness, boxMat.Metalness = 0.4, 0.1
	d.box = scene.NewMesh(scene.NewBoxGeometry(2, 2, 2), boxMat)
	d.box.Translate(mgl32.Vec3{0, 1.5, 0})
	d.box.CastShadow = true
	d.box.Name = "box"

	// A star, triangulated from its outline
	var star []mgl32.Vec2
	for i := range 10 {
		r := float32(0.6)
		if i%2 == 0 {
			r = 1.5
		}
		a := float64(i) * gomath.Pi / 5
		star = append(star, mgl32.Vec2{r * float32(gomath.Cos(a)), r * float32(gomath.Sin(a))})
	}
	starGeom, err := scene.NewShapeGeometry(star)
	if err != nil {
		return nil, err
	}
	starMat := scene.NewLambertMaterial()
	starMat.Diffuse = mgl32.Vec3{1, 0.85, 0.2}
	starMat.Side = scene.SideDouble
	starObj := scene.NewMesh(starGeom, starMat)
	starObj.Translate(mgl32.Vec3{-5, 2, -2})

	// A row of instanced boxes
	var offsets scene.Float32Array
	for i := range 8 {
		offsets = append(offsets, float32(i-4)*1.5, 0.25, -6)
	}
	instGeom := scene.NewBoxGeometry(0.5, 0.5, 0.5)
	instGeom.SetAttribute(scene.AttribInstanceOffset, scene.NewInstancedAttribute(offsets, 3, 1))
	instMat := scene.NewPhongMaterial()
	instMat.Diffuse = mgl32.Vec3{0.3, 0.7, 0.4}
	d.instances = scene.NewMesh(instGeom, instMat)
	d.instances.Name = "instances"

	// Points on a spiral
	var pts scene.Float32Array
	for i := range 400 {
		a := float64(i) * 2.39996 // golden angle
		r := 0.3 * gomath.Sqrt(float64(i))
		pts = append(pts, float32(r*gomath.Cos(a)), 0.05, float32(r*gomath.Sin(a)))
	}
	ptsGeom := scene.NewGeometry()
	ptsGeom.SetAttribute(scene.AttribPosition, scene.NewBufferAttribute(pts, 3))
	ptsMat := scene.NewPointsMaterial()
	ptsMat.Size = 3
	ptsMat.Diffuse = mgl32.Vec3{0.9, 0.9, 1}
	points := scene.NewObject(scene.KindPoints, ptsGeom, ptsMat)
	points.Translate(mgl32.Vec3{5, 0, 2})

	// A dashed circle around the box
	var circle, dist scene.Float32Array
	const nseg = 64
	for i := range nseg + 1 {
		a := float64(i) * 2 * gomath.Pi / nseg
		circle = append(circle, float32(3*gomath.Cos(a)), 0.02, float32(3*gomath.Sin(a)))
		dist = append(dist, float32(3*a))
	}
	circleGeom := scene.NewGeometry()
	circleGeom.SetAttribute(scene.AttribPosition, scene.NewBufferAttribute(circle, 3))
	circleGeom.SetAttribute(scene.AttribLineDistance, scene.NewBufferAttribute(dist, 1))
	dashed := scene.NewLineDashedMaterial()
	dashed.DashSize, dashed.GapSize = 0.4, 0.2
	dashedCircle := scene.NewObject(scene.KindLine, circleGeom, dashed)

	// A glow sprite over the point light
	glowTex := scene.NewTexture2DFromImage(radial(64))
	spriteMat := scene.NewSpriteMaterial()
	spriteMat.DiffuseMap = glowTex
	spriteMat.Diffuse = mgl32.Vec3{0.4, 0.6, 1}
	spriteMat.Blending.Mode = scene.BlendAdd
	glow := scene.NewSprite(spriteMat)
	glow.WorldMatrix = mgl32.Translate3D(-4, 3, 2).Mul4(mgl32.Scale3D(1.5, 1.5, 1.5))

	// Particles rising from the star
	var seeds scene.Float32Array
	for i := range 200 {
		a := float64(i) * 2.39996
		seeds = append(seeds, float32(gomath.Cos(a)), float32(i)/200, float32(gomath.Sin(a)))
	}
	partGeom := scene.NewGeometry()
	partGeom.SetAttribute(scene.AttribPosition, scene.NewBufferAttribute(seeds, 3))
	noise := scene.NewTexture2DFromImage(noiseImage(32))
	noise.Params.WrapS, noise.Params.WrapT = gpu.Repeat, gpu.Repeat
	d.particles = scene.NewParticles(partGeom, scene.NewParticleMaterial(), noise, glowTex)
	d.particles.Translate(mgl32.Vec3{-5, 0, -2})

	// Screen-space HUD
	d.hud, d.hudObject = scene.NewCanvas2D(1280, 800, true)
	d.hudIcon = scene.NewTexture2DFromImage(checkerboard(32, 2, color.RGBA{255, 255, 255, 255},
		color.RGBA{60, 120, 200, 255}))

	s.Add(ground, d.box, starObj, d.instances, points, dashedCircle, glow, d.particles, d.hudObject)
	d.Update(0)

	lg.Info("built demo scene", "objects", len(s.Objects), "lights", len(s.Lights))
	return d, nil
}

// noiseImage returns an n x n image of deterministic pseudo-random
// noise.
func noiseImage(n int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	v := uint32(12345)
	for i := range img.Pix {
		// xorshift
		v ^= v << 13
		v ^= v >> 17
		v ^= v << 5
		img.Pix[i] = uint8(v >> 24)
	}
	return img
}

// Update animates the scene to time t, in seconds.
func (d *Demo) Update(t float64) {
	rot := mgl32.HomogRotate3DY(float32(t) * 0.7).Mul4(mgl32.HomogRotate3DX(float32(t) * 0.3))
	d.box.WorldMatrix = mgl32.Translate3D(0, 1.5, 0).Mul4(rot)
	d.particles.Particle.Time = float32(t)

	d.hud.Clear()
	for i := range 3 {
		d.hud.AddSprite(d.hudIcon, 16+float32(i)*40, 16, 32, 32)
	}
	d.hud.Update(d.hudObject)
}

// SetAspect updates the camera for a new window shape.
func (d *Demo) SetAspect(aspect float32) {
	d.Camera.Projection = mgl32.Perspective(mgl32.DegToRad(50), aspect, 0.1, 200)
}
