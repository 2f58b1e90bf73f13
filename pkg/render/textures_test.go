// pkg/render/textures_test.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/scene"
)

// makeStripes returns a 1-pixel wide image with one row per color.
func makeStripes(colors ...color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, len(colors)))
	for y, c := range colors {
		img.SetRGBA(0, y, c)
	}
	return img
}

func boundTexture(t *testing.T, rec *gpu.Recorder, unit int, target gpu.TextureTarget) *gpu.RecordedTexture {
	t.Helper()
	tex, ok := rec.Texture(rec.BoundTexture(unit, target))
	if !ok {
		t.Fatalf("no texture bound to unit %d", unit)
	}
	return tex
}

func TestTextureVersions(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	rec.Reset()

	tex := scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 4, 2)))
	r.textures.SetTexture2D(tex, 0)
	r.textures.SetTexture2D(tex, 0)
	if n := rec.CB.Count(gpu.OpTexImage2D); n != 1 {
		t.Errorf("got %d uploads, expected 1", n)
	}
	rt := boundTexture(t, rec, 0, gpu.Texture2D)
	if rt.Width != 4 || rt.Height != 2 || rt.InternalFormat != gpu.RGBA {
		t.Errorf("got %dx%d format %#x, expected 4x2 RGBA", rt.Width, rt.Height, uint32(rt.InternalFormat))
	}

	tex.SetImage(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	r.textures.SetTexture2D(tex, 1)
	if n := rec.CB.Count(gpu.OpTexImage2D); n != 2 {
		t.Errorf("got %d uploads after a new image, expected 2", n)
	}
	if n := rec.CB.Count(gpu.OpCreateTexture); n != 1 {
		t.Errorf("got %d textures created, expected 1", n)
	}
	if r.stats.TextureUploads != 2 || r.stats.TextureBytes != 4*4*2+4*8*8 {
		t.Errorf("got %d uploads of %d bytes", r.stats.TextureUploads, r.stats.TextureBytes)
	}
	checkDeviceErrors(t, rec)
}

func TestTexturePending(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())
	rec.Reset()

	tex := scene.NewTexture2D()
	tex.MarkPending()
	r.textures.SetTexture2D(tex, 2)
	if rec.BoundTexture(2, gpu.Texture2D) == 0 {
		t.Errorf("no texture bound while its image is loading")
	}
	if n := rec.CB.Count(gpu.OpTexImage2D); n != 0 {
		t.Errorf("got %d uploads of a texture without an image", n)
	}
	if st := r.props.Get(tex.Handle()).State; st != Uploading {
		t.Errorf("got state %s while loading, expected uploading", st)
	}

	tex.SetImage(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	r.textures.SetTexture2D(tex, 2)
	if st := r.props.Get(tex.Handle()).State; st != Uploaded {
		t.Errorf("got state %s after loading, expected uploaded", st)
	}

	// A nil texture unbinds the unit.
	r.textures.SetTexture2D((*scene.Texture2D)(nil), 2)
	if rec.BoundTexture(2, gpu.Texture2D) != 0 {
		t.Errorf("nil texture left unit 2 bound")
	}
}

func TestTextureFlipY(t *testing.T) {
	red, blue := color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255}

	for _, flip := range []bool{true, false} {
		r, rec := makeTestRenderer(t, DefaultConfig())
		tex := scene.NewTexture2DFromImage(makeStripes(red, blue))
		tex.Params.FlipY = flip
		r.textures.SetTexture2D(tex, 0)

		pix := boundTexture(t, rec, 0, gpu.Texture2D).Images[gpu.Texture2D]
		expected := red
		if flip {
			expected = blue
		}
		if first := (color.RGBA{pix[0], pix[1], pix[2], pix[3]}); first != expected {
			t.Errorf("flip %v: got first row %v, expected %v", flip, first, expected)
		}
	}
}

func TestTextureParameters(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())

	tex := scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	tex.Params.Anisotropy = 64
	r.textures.SetTexture2D(tex, 0)
	rt := boundTexture(t, rec, 0, gpu.Texture2D)
	if !rt.Mipmapped || rt.Params[gpu.TextureMinFilter] != float32(gpu.LinearMipmapLinear) {
		t.Errorf("expected mipmaps: got mipmapped %v, min filter %v", rt.Mipmapped, rt.Params[gpu.TextureMinFilter])
	}
	if a := rt.Params[gpu.TextureMaxAnisotropy]; a != 16 {
		t.Errorf("got anisotropy %v, expected the device maximum 16", a)
	}

	// Without mipmap generation a mipmapped filter would sample missing
	// levels.
	tex2 := scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	tex2.Params.GenerateMipmaps = false
	r.textures.SetTexture2D(tex2, 1)
	rt = boundTexture(t, rec, 1, gpu.Texture2D)
	if rt.Mipmapped || rt.Params[gpu.TextureMinFilter] != float32(gpu.Linear) {
		t.Errorf("got mipmapped %v, min filter %v; expected linear", rt.Mipmapped, rt.Params[gpu.TextureMinFilter])
	}
}

func TestTextureResize(t *testing.T) {
	limits := gpu.DefaultRecorderLimits()
	limits.MaxTextureSize = 8
	rec := gpu.NewRecorder(limits)
	cfg := DefaultConfig()
	var resized int
	cfg.OnDiagnostic = func(d Diagnostic) {
		if d.Kind == DiagTextureSize {
			resized++
		}
	}
	r, err := NewRenderer(rec, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	tex := scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 32, 8)))
	r.textures.SetTexture2D(tex, 0)
	rt := boundTexture(t, rec, 0, gpu.Texture2D)
	if rt.Width != 8 || rt.Height != 2 {
		t.Errorf("got %dx%d, expected 8x2", rt.Width, rt.Height)
	}
	if resized != 1 || r.DiagnosticCount(DiagTextureSize) != 1 {
		t.Errorf("got %d resize diagnostics, expected 1", resized)
	}
	checkDeviceErrors(t, rec)
}

func TestCubeTexture(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())

	var faces [6]image.Image
	for i := range faces {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		img.SetRGBA(0, 0, color.RGBA{uint8(10 + i), 0, 0, 255})
		faces[i] = img
	}
	cube := scene.NewTextureCube()
	cube.MarkPending()
	r.textures.SetTextureCube(cube, 3)
	if rec.BoundTexture(3, gpu.TextureCubeMap) == 0 || r.props.Get(cube.Handle()).State != Uploading {
		t.Errorf("loading cube map wasn't bound as uploading")
	}

	cube.SetFaces(faces)
	r.textures.SetTextureCube(cube, 3)
	if st := r.props.Get(cube.Handle()).State; st != Uploaded {
		t.Errorf("got cube state %s, expected uploaded", st)
	}

	rt := boundTexture(t, rec, 3, gpu.TextureCubeMap)
	if rt.Width != 2 || rt.Height != 2 || len(rt.Images) != 6 {
		t.Fatalf("got %dx%d with %d faces, expected 2x2 with 6", rt.Width, rt.Height, len(rt.Images))
	}
	for i := range 6 {
		// Faces aren't flipped.
		if pix := rt.Images[gpu.CubeFace(i)]; pix[0] != uint8(10+i) {
			t.Errorf("face %d: got first texel red %d", i, pix[0])
		}
	}
	checkDeviceErrors(t, rec)
}

func TestDataTexture(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())

	data := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	dt := scene.NewDataTexture(data, 2, 1)
	r.textures.SetTexture2D(dt, 0)

	rt := boundTexture(t, rec, 0, gpu.Texture2D)
	if rt.InternalFormat != gpu.RGBA32F || rt.Type != gpu.Float {
		t.Errorf("got format %#x type %#x, expected RGBA32F floats", uint32(rt.InternalFormat), uint32(rt.Type))
	}
	if got := decodeFloats(rt.Images[gpu.Texture2D]); !slices.Equal(got, data) {
		t.Errorf("got %v, expected %v", got, data)
	}
}

func TestTextureDispose(t *testing.T) {
	r, rec := makeTestRenderer(t, DefaultConfig())

	tex := scene.NewTexture2DFromImage(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	r.textures.SetTexture2D(tex, 0)
	if rec.NumTextures() != 1 || r.props.Len() != 1 {
		t.Fatalf("got %d textures, %d records", rec.NumTextures(), r.props.Len())
	}

	tex.Dispose()
	if rec.NumTextures() != 0 || r.props.Len() != 0 {
		t.Errorf("got %d textures, %d records after dispose", rec.NumTextures(), r.props.Len())
	}
	if rec.BoundTexture(0, gpu.Texture2D) != 0 {
		t.Errorf("deleted texture still bound")
	}

	// Using a disposed texture recreates it.
	r.textures.SetTexture2D(tex, 0)
	if rec.NumTextures() != 1 || rec.CB.Count(gpu.OpTexImage2D) != 2 {
		t.Errorf("disposed texture wasn't recreated")
	}
	checkDeviceErrors(t, rec)
}
