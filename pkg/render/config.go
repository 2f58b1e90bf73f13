// pkg/render/config.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"slices"

	"github.com/mmp/scenegl/pkg/util"
)

type Config struct {
	// MaxPrograms bounds the number of compiled program variants that
	// are kept; the least recently used are deleted beyond that.
	MaxPrograms int `json:"max_programs"`
	// Precision is the default float precision declared in generated
	// shaders: "highp", "mediump", or "lowp".
	Precision string `json:"precision"`
	// PreferBoneTexture selects delivering skinning matrices through a
	// float texture when the device supports it.
	PreferBoneTexture bool `json:"prefer_bone_texture"`
	// LogShaderSource causes the source of each newly compiled program to
	// be logged at debug level.
	LogShaderSource bool `json:"log_shader_source"`

	// OnDiagnostic, if non-nil, is called with each diagnostic the
	// renderer reports, in addition to its being logged.
	OnDiagnostic func(Diagnostic) `json:"-"`
}

func DefaultConfig() Config {
	return Config{
		MaxPrograms:       128,
		Precision:         "highp",
		PreferBoneTexture: true,
	}
}

// Validate reports problems with the configuration to e.
func (c *Config) Validate(e *util.ErrorLogger) {
	e.Push("renderer")
	defer e.Pop()

	if c.MaxPrograms < 1 {
		e.ErrorString("max_programs must be at least 1 (got %d)", c.MaxPrograms)
	}
	if !slices.Contains([]string{"highp", "mediump", "lowp"}, c.Precision) {
		e.ErrorString("precision %q must be one of highp, mediump, or lowp", c.Precision)
	}
}
