// pkg/render/capabilities.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"log/slog"
	"slices"

	"github.com/mmp/scenegl/pkg/gpu"
)

// Capabilities records the device limits and features that the renderer
// depends on. It is filled in once by ProbeCapabilities and not modified
// afterward.
type Capabilities struct {
	Major, Minor int
	Vendor       string
	Extensions   []string

	MaxTextures             int // fragment shader texture units
	MaxVertexTextures       int
	MaxCombinedTextures     int
	MaxTextureSize          int
	MaxCubeMapSize          int
	MaxVertexAttribs        int
	MaxVertexUniformVectors int
	// MaxAnisotropy is zero if anisotropic filtering is unsupported.
	MaxAnisotropy float32

	FloatTextures bool
	Instancing    bool
	NPOT          bool // non-power-of-two textures with mipmaps and repeat

	Precision string
}

func ProbeCapabilities(dev gpu.Device, precision string) Capabilities {
	c := Capabilities{
		Vendor:                  dev.Vendor(),
		Extensions:              dev.Extensions(),
		MaxTextures:             int(dev.GetInteger(gpu.MaxTextureImageUnits)),
		MaxVertexTextures:       int(dev.GetInteger(gpu.MaxVertexTextureImageUnits)),
		MaxCombinedTextures:     int(dev.GetInteger(gpu.MaxCombinedTextureImageUnits)),
		MaxTextureSize:          int(dev.GetInteger(gpu.MaxTextureSize)),
		MaxCubeMapSize:          int(dev.GetInteger(gpu.MaxCubeMapTextureSize)),
		MaxVertexAttribs:        int(dev.GetInteger(gpu.MaxVertexAttribs)),
		MaxVertexUniformVectors: int(dev.GetInteger(gpu.MaxVertexUniformVectors)),
		Precision:               precision,
	}
	c.Major, c.Minor = dev.Version()

	core := c.Major >= 3
	c.FloatTextures = core || c.HasExtension("GL_ARB_texture_float") || c.HasExtension("OES_texture_float")
	c.Instancing = core || c.HasExtension("GL_ARB_instanced_arrays") || c.HasExtension("ANGLE_instanced_arrays")
	c.NPOT = core || c.HasExtension("GL_ARB_texture_non_power_of_two") || c.HasExtension("OES_texture_npot")
	if c.HasExtension("GL_EXT_texture_filter_anisotropic") || c.HasExtension("GL_ARB_texture_filter_anisotropic") {
		c.MaxAnisotropy = float32(dev.GetInteger(gpu.MaxTextureMaxAnisotropy))
	}

	return c
}

func (c *Capabilities) HasExtension(name string) bool {
	return slices.Contains(c.Extensions, name)
}

// BoneTextures reports whether skinning matrices can be delivered through
// a float texture sampled in the vertex shader.
func (c *Capabilities) BoneTextures() bool {
	return c.MaxVertexTextures > 0 && c.FloatTextures
}

func (c Capabilities) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("vendor", c.Vendor),
		slog.Int("major", c.Major),
		slog.Int("minor", c.Minor),
		slog.Int("max_textures", c.MaxTextures),
		slog.Int("max_vertex_textures", c.MaxVertexTextures),
		slog.Int("max_texture_size", c.MaxTextureSize),
		slog.Int("max_vertex_attribs", c.MaxVertexAttribs),
		slog.Int("max_vertex_uniform_vectors", c.MaxVertexUniformVectors),
		slog.Float64("max_anisotropy", float64(c.MaxAnisotropy)),
		slog.Bool("float_textures", c.FloatTextures),
		slog.Bool("instancing", c.Instancing),
		slog.Bool("npot", c.NPOT),
		slog.String("precision", c.Precision),
	)
}
