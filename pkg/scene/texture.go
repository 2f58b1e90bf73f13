// pkg/scene/texture.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"image"
	gomath "math"
	"sync"

	"github.com/mmp/scenegl/pkg/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// TextureParams gives the sampling parameters for a texture.
type TextureParams struct {
	MinFilter, MagFilter gpu.TextureFilter
	WrapS, WrapT         gpu.TextureWrap
	// Anisotropy is the maximum anisotropy to use when sampling; values
	// of 1 or less disable anisotropic filtering.
	Anisotropy      int
	GenerateMipmaps bool
	// FlipY causes image rows to be uploaded bottom-up, so that v=0 is
	// the bottom of the image.
	FlipY bool
}

func DefaultTextureParams() TextureParams {
	return TextureParams{
		MinFilter:       gpu.LinearMipmapLinear,
		MagFilter:       gpu.Linear,
		WrapS:           gpu.ClampToEdge,
		WrapT:           gpu.ClampToEdge,
		Anisotropy:      1,
		GenerateMipmaps: true,
		FlipY:           true,
	}
}

// Texture is a 2D texture: either a *Texture2D or a *DataTexture.
type Texture interface {
	Res() *Resource
	Parameters() TextureParams
	isTexture()
}

// textureSource holds the image data and version for textures whose
// contents may be updated from another goroutine.
type textureSource struct {
	mu      sync.Mutex
	version int
	pending bool
}

// MarkPending records that the texture's contents are being loaded
// asynchronously.
func (s *textureSource) MarkPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = true
}

func (s *textureSource) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Texture2D is a 2D texture whose contents come from an image.
type Texture2D struct {
	Resource
	textureSource
	image image.Image

	Params TextureParams

	// uv transform
	Offset, Repeat, Center mgl32.Vec2
	Rotation               float32
	MatrixAutoUpdate       bool
	Matrix                 mgl32.Mat3
}

func NewTexture2D() *Texture2D {
	return &Texture2D{
		Params:           DefaultTextureParams(),
		Repeat:           mgl32.Vec2{1, 1},
		MatrixAutoUpdate: true,
		Matrix:           mgl32.Ident3(),
	}
}

func NewTexture2DFromImage(img image.Image) *Texture2D {
	t := NewTexture2D()
	t.SetImage(img)
	return t
}

func (t *Texture2D) Res() *Resource            { return &t.Resource }
func (t *Texture2D) Parameters() TextureParams { return t.Params }
func (t *Texture2D) isTexture()                {}

// SetImage sets the texture's image and bumps its version so that it is
// uploaded the next time it is used. It may be called from any goroutine.
func (t *Texture2D) SetImage(img image.Image) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.image = img
	t.pending = false
	t.version++
}

// Image returns the texture's current image, its version, and whether an
// asynchronous load is in progress.
func (t *Texture2D) Image() (img image.Image, version int, pending bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.image, t.version, t.pending
}

// UVTransform returns the matrix that transforms texture coordinates,
// updating it from the offset, repeat, rotation, and center if
// MatrixAutoUpdate is set.
func (t *Texture2D) UVTransform() mgl32.Mat3 {
	if t.MatrixAutoUpdate {
		t.Matrix = UVTransform(t.Offset, t.Repeat, t.Center, t.Rotation)
	}
	return t.Matrix
}

// UVTransform returns the matrix that scales texture coordinates by repeat
// and rotates them by rotation radians about center before translating by
// offset.
func UVTransform(offset, repeat, center mgl32.Vec2, rotation float32) mgl32.Mat3 {
	c := float32(gomath.Cos(float64(rotation)))
	s := float32(gomath.Sin(float64(rotation)))
	sx, sy := repeat[0], repeat[1]
	cx, cy := center[0], center[1]

	// mgl32 matrices are column-major.
	return mgl32.Mat3{
		sx * c, -sy * s, 0,
		sx * s, sy * c, 0,
		-sx*(c*cx+s*cy) + cx + offset[0], -sy*(-s*cx+c*cy) + cy + offset[1], 1,
	}
}

// DataTexture is a 2D texture of RGBA float32 values, used for
// non-image data such as bone matrices.
type DataTexture struct {
	Resource
	textureSource
	data          []float32
	width, height int

	Params TextureParams
}

func NewDataTexture(data []float32, width, height int) *DataTexture {
	t := &DataTexture{
		Params: TextureParams{
			MinFilter: gpu.Nearest,
			MagFilter: gpu.Nearest,
			WrapS:     gpu.ClampToEdge,
			WrapT:     gpu.ClampToEdge,
		},
	}
	t.SetData(data, width, height)
	return t
}

func (t *DataTexture) Res() *Resource            { return &t.Resource }
func (t *DataTexture) Parameters() TextureParams { return t.Params }
func (t *DataTexture) isTexture()                {}

// SetData updates the texture's contents; len(data) must be
// 4*width*height.
func (t *DataTexture) SetData(data []float32, width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data, t.width, t.height = data, width, height
	t.pending = false
	t.version++
}

func (t *DataTexture) Data() (data []float32, width, height, version int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data, t.width, t.height, t.version
}

// TextureCube is a cube map texture. The faces are ordered +X, -X, +Y,
// -Y, +Z, -Z.
type TextureCube struct {
	Resource
	textureSource
	faces [6]image.Image

	Params TextureParams
}

func NewTextureCube() *TextureCube {
	return &TextureCube{Params: DefaultTextureParams()}
}

func NewTextureCubeFromImages(faces [6]image.Image) *TextureCube {
	t := NewTextureCube()
	t.SetFaces(faces)
	return t
}

func (t *TextureCube) Res() *Resource            { return &t.Resource }
func (t *TextureCube) Parameters() TextureParams { return t.Params }

func (t *TextureCube) SetFaces(faces [6]image.Image) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.faces = faces
	t.pending = false
	t.version++
}

// Faces returns the cube's images, its version, and whether an
// asynchronous load is in progress.
func (t *TextureCube) Faces() (faces [6]image.Image, version int, pending bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.faces, t.version, t.pending
}
