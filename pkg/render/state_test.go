// pkg/render/state_test.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"testing"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/scene"
)

func makeTestState() (*State, *gpu.Recorder) {
	rec := gpu.NewRecorder(gpu.DefaultRecorderLimits())
	caps := ProbeCapabilities(rec, "highp")
	s := NewState(rec, &caps)
	rec.Reset()
	return s, rec
}

func TestStateIdempotence(t *testing.T) {
	s, rec := makeTestState()

	s.SetCullFace(CullFront)
	s.SetCullFace(CullFront)
	if n := rec.CB.Count(gpu.OpCullFace); n != 1 {
		t.Errorf("got %d CullFace calls, expected 1", n)
	}
	if n := rec.CB.Count(gpu.OpEnable); n != 1 {
		t.Errorf("got %d Enable calls, expected 1", n)
	}
	if rec.CullFaceMode() != gpu.FaceFront || !rec.Enabled(gpu.CapCullFace) {
		t.Errorf("device cull state doesn't match")
	}

	blend := scene.NewBasicMaterial().Blending
	s.SetBlend(blend)
	s.SetBlend(blend)
	if n := rec.CB.Count(gpu.OpBlendFuncSeparate); n != 1 {
		t.Errorf("got %d BlendFuncSeparate calls, expected 1", n)
	}

	s.DepthMask(false)
	s.DepthMask(false)
	s.DepthMask(true)
	if n := rec.CB.Count(gpu.OpDepthMask); n != 2 {
		t.Errorf("got %d DepthMask calls, expected 2", n)
	}

	s.Viewport(0, 0, 100, 100)
	s.Viewport(0, 0, 100, 100)
	if n := rec.CB.Count(gpu.OpViewport); n != 1 {
		t.Errorf("got %d Viewport calls, expected 1", n)
	}

	tex := rec.CreateTexture()
	s.BindTextureUnit(3, gpu.Texture2D, tex)
	s.BindTextureUnit(3, gpu.Texture2D, tex)
	if n := rec.CB.Count(gpu.OpBindTexture); n != 1 {
		t.Errorf("got %d BindTexture calls, expected 1", n)
	}
	if rec.BoundTexture(3, gpu.Texture2D) != tex {
		t.Errorf("texture not bound to unit 3")
	}

	// Program 0 is current after Reset.
	if s.SetProgram(0) {
		t.Errorf("SetProgram reported a bind for the current program")
	}
}

func TestStateBlendModes(t *testing.T) {
	for _, c := range []struct {
		b  scene.Blending
		fn [4]gpu.BlendFactor
	}{
		{scene.Blending{Mode: scene.BlendNormal},
			[4]gpu.BlendFactor{gpu.BlendSrcAlpha, gpu.BlendOneMinusSrcAlpha, gpu.BlendOne, gpu.BlendOneMinusSrcAlpha}},
		{scene.Blending{Mode: scene.BlendNormal, Premultiplied: true},
			[4]gpu.BlendFactor{gpu.BlendOne, gpu.BlendOneMinusSrcAlpha, gpu.BlendOne, gpu.BlendOneMinusSrcAlpha}},
		{scene.Blending{Mode: scene.BlendAdd},
			[4]gpu.BlendFactor{gpu.BlendSrcAlpha, gpu.BlendOne, gpu.BlendSrcAlpha, gpu.BlendOne}},
		// Unset alpha factors follow the color factors.
		{scene.Blending{Mode: scene.BlendCustom, Src: gpu.BlendDstColor, Dst: gpu.BlendZero},
			[4]gpu.BlendFactor{gpu.BlendDstColor, gpu.BlendZero, gpu.BlendDstColor, gpu.BlendZero}},
	} {
		s, rec := makeTestState()
		s.SetBlend(c.b)
		if !rec.Enabled(gpu.CapBlend) {
			t.Errorf("%+v: blending not enabled", c.b)
		}
		if fn := rec.BlendFunc(); fn != c.fn {
			t.Errorf("%+v: got blend func %v, expected %v", c.b, fn, c.fn)
		}

		s.SetBlend(scene.Blending{Mode: scene.BlendNone})
		if rec.Enabled(gpu.CapBlend) {
			t.Errorf("%+v: blending still enabled", c.b)
		}
	}
}

func TestStateAttributes(t *testing.T) {
	s, rec := makeTestState()

	s.InitAttributes()
	s.EnableAttribute(0, 0)
	s.EnableAttribute(2, 1)
	s.DisableUnusedAttributes()
	if !rec.Attrib(0).Enabled || !rec.Attrib(2).Enabled || rec.Attrib(2).Divisor != 1 {
		t.Errorf("attributes 0 and 2 should be enabled, with a divisor of 1 for 2")
	}

	s.InitAttributes()
	s.EnableAttribute(0, 0)
	s.DisableUnusedAttributes()
	if !rec.Attrib(0).Enabled || rec.Attrib(2).Enabled {
		t.Errorf("only attribute 0 should be enabled")
	}
	if n := rec.CB.Count(gpu.OpEnableVertexAttribArray); n != 2 {
		t.Errorf("got %d EnableVertexAttribArray calls, expected 2", n)
	}

	// A kept attribute stays enabled without being re-enabled.
	s.InitAttributes()
	s.KeepAttribute(0)
	s.DisableUnusedAttributes()
	if !rec.Attrib(0).Enabled || rec.CB.Count(gpu.OpEnableVertexAttribArray) != 2 {
		t.Errorf("kept attribute 0 was changed")
	}
}

func TestStateResetUnbindsTextures(t *testing.T) {
	s, rec := makeTestState()

	tex := rec.CreateTexture()
	s.BindTextureUnit(3, gpu.Texture2D, tex)
	if rec.BoundTexture(3, gpu.Texture2D) != tex {
		t.Fatalf("texture not bound to unit 3")
	}

	s.Reset()
	if id := rec.BoundTexture(3, gpu.Texture2D); id != 0 {
		t.Errorf("got texture %d bound after reset, expected 0", id)
	}

	// Binding after a reset reaches the device.
	s.BindTextureUnit(3, gpu.Texture2D, tex)
	if rec.BoundTexture(3, gpu.Texture2D) != tex {
		t.Errorf("texture not rebound after reset")
	}
}

func TestStateSnapshot(t *testing.T) {
	s, _ := makeTestState()
	s.Enable(gpu.CapDepthTest)

	snap := s.Snapshot()
	s.Disable(gpu.CapDepthTest)
	if !snap.Capabilities[gpu.CapDepthTest] {
		t.Errorf("snapshot changed along with the state")
	}
	if s.Dump() == "" {
		t.Errorf("empty state dump")
	}
}
