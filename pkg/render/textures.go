// pkg/render/textures.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"image"
	"log/slog"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/scene"
	"github.com/mmp/scenegl/pkg/util"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// TextureBinder uploads textures to the device and binds them to texture
// units. It also allocates texture units for the item being drawn.
//
// A texture's record goes through three states: it is Unuploaded until it
// is first bound, at which point a device texture is created. If its
// image is still being loaded, the empty texture is bound and the record
// is Uploading. Once the texture's version advances past the record's,
// its image is uploaded and the record is Uploaded.
type TextureBinder struct {
	dev     gpu.Device
	state   *State
	props   *Properties
	caps    *Capabilities
	diag    *diagnostics
	stats   *Stats
	scratch *scratch

	usedUnits int
}

// AllocTexUnit returns the next texture unit for the current item. Units
// past the device's limit are reported but still returned.
func (tb *TextureBinder) AllocTexUnit() int {
	unit := tb.usedUnits
	if unit >= tb.caps.MaxTextures {
		tb.diag.report(DiagTextureUnits, "texture unit exceeds device limit",
			slog.Int("unit", unit), slog.Int("max_textures", tb.caps.MaxTextures))
	}
	tb.usedUnits++
	return unit
}

func (tb *TextureBinder) ResetTexUnits() {
	tb.usedUnits = 0
}

func (tb *TextureBinder) UsedTexUnits() int {
	return tb.usedUnits
}

// SetTexture2D makes tex current and binds it to the given unit. A nil
// texture unbinds the unit's 2D target.
func (tb *TextureBinder) SetTexture2D(tex scene.Texture, unit int) {
	switch t := tex.(type) {
	case *scene.Texture2D:
		if t == nil {
			break
		}
		rec := tb.acquire(t.Res(), gpu.Texture2D, unit)
		img, version, pending := t.Image()
		if img != nil && version != rec.Version {
			tb.upload2D(rec, t.Parameters(), img, version)
		} else if pending {
			rec.State = Uploading
		}
		return

	case *scene.DataTexture:
		if t == nil {
			break
		}
		rec := tb.acquire(t.Res(), gpu.Texture2D, unit)
		if data, w, h, version := t.Data(); version != rec.Version && len(data) >= 4*w*h {
			tb.uploadData(rec, t.Parameters(), data, w, h, version)
		}
		return
	}

	tb.state.BindTextureUnit(unit, gpu.Texture2D, 0)
}

func (tb *TextureBinder) SetTextureCube(t *scene.TextureCube, unit int) {
	if t == nil {
		tb.state.BindTextureUnit(unit, gpu.TextureCubeMap, 0)
		return
	}

	rec := tb.acquire(t.Res(), gpu.TextureCubeMap, unit)
	faces, version, pending := t.Faces()
	if version != rec.Version && faces[0] != nil {
		tb.uploadCube(rec, t.Parameters(), faces, version)
	} else if pending {
		rec.State = Uploading
	}
}

// acquire returns the texture's record, creating its device texture if
// needed, and binds the texture to the unit.
func (tb *TextureBinder) acquire(res *scene.Resource, target gpu.TextureTarget, unit int) *Record {
	rec, _ := tb.props.Acquire(res)
	if rec.Texture == 0 {
		rec.Texture = tb.dev.CreateTexture()
		rec.Target = target
	}
	tb.state.BindTextureUnit(unit, target, rec.Texture)
	return rec
}

func needsPowerOfTwo(p scene.TextureParams) bool {
	return p.WrapS != gpu.ClampToEdge || p.WrapT != gpu.ClampToEdge || p.MinFilter.UsesMipmaps()
}

// fitSize returns the size that a w x h image should be uploaded at,
// given the device's limits.
func (tb *TextureBinder) fitSize(w, h, maxSize int, p scene.TextureParams) (int, int) {
	if w > maxSize || h > maxSize {
		s := float64(maxSize) / float64(max(w, h))
		w, h = max(1, int(float64(w)*s)), max(1, int(float64(h)*s))
	}
	if !tb.caps.NPOT && needsPowerOfTwo(p) && !(util.IsPowerOfTwo(w) && util.IsPowerOfTwo(h)) {
		w = min(util.NextPowerOfTwo(w), maxSize)
		h = min(util.NextPowerOfTwo(h), maxSize)
	}
	return w, h
}

// rgbaPixels returns the image's pixels as tightly packed RGBA8 of the
// given size, resizing it if necessary.
func (tb *TextureBinder) rgbaPixels(img image.Image, w, h int, flipY bool) []byte {
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		tb.diag.report(DiagTextureSize, "resizing texture image", slog.Int("width", b.Dx()),
			slog.Int("height", b.Dy()), slog.Int("new_width", w), slog.Int("new_height", h))
		img = resize.Resize(uint(w), uint(h), img, resize.MitchellNetravali)
		b = img.Bounds()
	}

	rgba := &image.RGBA{Pix: tb.scratch.Pixels(4 * w * h), Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)

	if flipY {
		row := make([]byte, rgba.Stride)
		for y := range h / 2 {
			top := rgba.Pix[y*rgba.Stride : (y+1)*rgba.Stride]
			bottom := rgba.Pix[(h-1-y)*rgba.Stride : (h-y)*rgba.Stride]
			copy(row, top)
			copy(top, bottom)
			copy(bottom, row)
		}
	}
	return rgba.Pix
}

// setParameters sets the sampling parameters of the bound texture and
// generates mipmaps if they are used.
func (tb *TextureBinder) setParameters(target gpu.TextureTarget, p scene.TextureParams) {
	minFilter := p.MinFilter
	if minFilter.UsesMipmaps() && !p.GenerateMipmaps {
		minFilter = gpu.Linear
	}

	tb.dev.TexParameteri(target, gpu.TextureMinFilter, int32(minFilter))
	tb.dev.TexParameteri(target, gpu.TextureMagFilter, int32(p.MagFilter))
	tb.dev.TexParameteri(target, gpu.TextureWrapS, int32(p.WrapS))
	tb.dev.TexParameteri(target, gpu.TextureWrapT, int32(p.WrapT))
	if tb.caps.MaxAnisotropy > 0 && p.Anisotropy > 1 {
		tb.dev.TexParameterf(target, gpu.TextureMaxAnisotropy, min(float32(p.Anisotropy), tb.caps.MaxAnisotropy))
	}
	if minFilter.UsesMipmaps() {
		tb.dev.GenerateMipmap(target)
	}
}

func (tb *TextureBinder) upload2D(rec *Record, p scene.TextureParams, img image.Image, version int) {
	w, h := tb.fitSize(img.Bounds().Dx(), img.Bounds().Dy(), tb.caps.MaxTextureSize, p)
	pix := tb.rgbaPixels(img, w, h, p.FlipY)
	tb.dev.TexImage2D(gpu.Texture2D, 0, gpu.RGBA, int32(w), int32(h), gpu.RGBA, gpu.UnsignedByte, pix)
	tb.setParameters(gpu.Texture2D, p)
	tb.uploaded(rec, version, w, h, len(pix))
}

func (tb *TextureBinder) uploadData(rec *Record, p scene.TextureParams, data []float32, w, h, version int) {
	pix := scene.Float32Array(data[:4*w*h]).Bytes()
	tb.dev.TexImage2D(gpu.Texture2D, 0, gpu.RGBA32F, int32(w), int32(h), gpu.RGBA, gpu.Float, pix)
	tb.setParameters(gpu.Texture2D, p)
	tb.uploaded(rec, version, w, h, len(pix))
}

// uploadCube uploads the six faces of a cube map. Faces must be square
// and the same size, so they're all fit to the size of the first.
func (tb *TextureBinder) uploadCube(rec *Record, p scene.TextureParams, faces [6]image.Image, version int) {
	b := faces[0].Bounds()
	s, _ := tb.fitSize(max(b.Dx(), b.Dy()), max(b.Dx(), b.Dy()), tb.caps.MaxCubeMapSize, p)
	nbytes := 0
	for i, img := range faces {
		if img == nil {
			continue
		}
		pix := tb.rgbaPixels(img, s, s, false)
		tb.dev.TexImage2D(gpu.CubeFace(i), 0, gpu.RGBA, int32(s), int32(s), gpu.RGBA, gpu.UnsignedByte, pix)
		nbytes += len(pix)
	}
	tb.setParameters(gpu.TextureCubeMap, p)
	tb.uploaded(rec, version, s, s, nbytes)
}

func (tb *TextureBinder) uploaded(rec *Record, version, w, h, nbytes int) {
	rec.Version = version
	rec.State = Uploaded
	rec.Width, rec.Height = w, h
	rec.Bytes = nbytes
	tb.stats.TextureUploads++
	tb.stats.TextureBytes += nbytes
}
