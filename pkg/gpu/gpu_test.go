// pkg/gpu/gpu_test.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gpu

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
)

func TestCommandBufferPayloads(t *testing.T) {
	cb := GetCommandBuffer()
	defer ReturnCommandBuffer(cb)

	cb.op(OpViewport, 0, 0, 640, -480)
	cb.opBytes(OpBufferData, []byte{1, 2, 3, 4, 5}, int(ArrayBuffer), int(StaticDraw))
	cb.opBytes(OpUniform3fv, floatBytes([]float32{0.5, -1, 2}), 7)
	cb.opFloats(OpLineWidth, 2.5)
	cb.opBytes(OpBufferData, nil, int(ArrayBuffer), int(StaticDraw))

	cmds := cb.Commands()
	if len(cmds) != 5 || cb.Len() != 5 {
		t.Fatalf("got %d commands, expected 5", len(cmds))
	}
	if cmds[0].Op != OpViewport || cmds[0].Int(2) != 640 || cmds[0].Int(3) != -480 {
		t.Errorf("viewport: got %v", cmds[0])
	}
	if b := cmds[1].Bytes(2); !slices.Equal(b, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("buffer data: got %v, expected [1 2 3 4 5]", b)
	}
	if f := cmds[2].Floats(1); !slices.Equal(f, []float32{0.5, -1, 2}) || cmds[2].Int(0) != 7 {
		t.Errorf("uniform: got %v", f)
	}
	if w := cmds[3].Float(0); w != 2.5 {
		t.Errorf("line width: got %f, expected 2.5", w)
	}
	if b := cmds[4].Bytes(2); b != nil {
		t.Errorf("empty payload: got %v, expected nil", b)
	}

	if n := cb.Count(OpBufferData); n != 2 {
		t.Errorf("Count: got %d, expected 2", n)
	}
	h := cb.Histogram()
	if h[OpViewport] != 1 || h[OpBufferData] != 2 || h[OpDrawArrays] != 0 {
		t.Errorf("Histogram: got %v", h)
	}
}

func TestOpcodeNames(t *testing.T) {
	if len(opcodeNames) != int(NumOpcodes) {
		t.Fatalf("%d opcode names for %d opcodes", len(opcodeNames), NumOpcodes)
	}
	if s := OpDrawElementsInstanced.String(); s != "DrawElementsInstanced" {
		t.Errorf("got %q", s)
	}
	if !OpDrawArrays.IsDraw() || OpClear.IsDraw() {
		t.Errorf("IsDraw gave unexpected results")
	}
}

const testVertexShader = `#version 410
#define NUM_DIR_LIGHTS 2
struct DirectionalLight {
	vec3 direction;
	vec4 color;
};
layout(location = 0) in vec3 position;
in highp vec2 uv;
uniform mat4 u_Projection;
uniform mat4 u_Model;
uniform DirectionalLight u_Directional[NUM_DIR_LIGHTS];
uniform mat4 boneMatrices[4];
out vec2 v_Uv;
void main() {
	v_Uv = uv;
	gl_Position = u_Projection * u_Model * vec4(position, 1.0);
}
`

const testFragmentShader = `#version 410
in vec2 v_Uv;
uniform sampler2D diffuseMap;
uniform samplerCube envMap;
uniform mat4 u_Projection;
uniform float u_Opacity;
out vec4 fragColor;
void main() {
	fragColor = texture(diffuseMap, v_Uv) * u_Opacity;
}
`

func TestReflectProgram(t *testing.T) {
	attribs, uniforms, err := reflectProgram(testVertexShader, testFragmentShader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var anames []string
	for _, a := range attribs {
		anames = append(anames, a.Name)
	}
	if !slices.Equal(anames, []string{"position", "uv"}) {
		t.Errorf("attributes: got %v, expected [position uv]", anames)
	}
	if attribs[0].Type != TypeFloatVec3 || attribs[1].Location != 1 {
		t.Errorf("attributes: got %+v", attribs)
	}

	expected := []ActiveVariable{
		{Name: "u_Projection", Type: TypeFloatMat4, Size: 1},
		{Name: "u_Model", Type: TypeFloatMat4, Size: 1},
		{Name: "u_Directional[0].direction", Type: TypeFloatVec3, Size: 1},
		{Name: "u_Directional[0].color", Type: TypeFloatVec4, Size: 1},
		{Name: "u_Directional[1].direction", Type: TypeFloatVec3, Size: 1},
		{Name: "u_Directional[1].color", Type: TypeFloatVec4, Size: 1},
		{Name: "boneMatrices[0]", Type: TypeFloatMat4, Size: 4},
		{Name: "diffuseMap", Type: TypeSampler2D, Size: 1},
		{Name: "envMap", Type: TypeSamplerCube, Size: 1},
		{Name: "u_Opacity", Type: TypeFloat, Size: 1},
	}
	if len(uniforms) != len(expected) {
		t.Fatalf("got %d uniforms %+v, expected %d", len(uniforms), uniforms, len(expected))
	}
	for i, u := range uniforms {
		e := expected[i]
		e.Location = int32(i)
		if u != e {
			t.Errorf("uniform %d: got %+v, expected %+v", i, u, e)
		}
	}
}

func TestReflectProgramErrors(t *testing.T) {
	_, _, err := reflectProgram("void main() {}\n", "#version 410\n#error unsupported material\n")
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Stage != "fragment" || ce.Log != "ERROR: 0:2: '#error' : unsupported material" {
		t.Errorf("got %+v", ce)
	}

	_, _, err = reflectProgram("uniform vec3 pts[N];\n", "")
	if !errors.As(err, &ce) || ce.Stage != "vertex" {
		t.Errorf("expected vertex CompileError for unknown array size, got %v", err)
	}

	_, _, err = reflectProgram("uniform Mystery m;\n", "")
	if err == nil {
		t.Errorf("expected error for unknown uniform type")
	}
}

func TestRecorderBuffers(t *testing.T) {
	r := NewRecorder(DefaultRecorderLimits())

	b := r.CreateBuffer()
	r.BindBuffer(ArrayBuffer, b)
	r.BufferData(ArrayBuffer, []byte{0, 1, 2, 3, 4, 5, 6, 7}, DynamicDraw)
	r.BufferSubData(ArrayBuffer, 4, []byte{40, 50})

	data, ok := r.BufferContents(b)
	if !ok || !slices.Equal(data, []byte{0, 1, 2, 3, 40, 50, 6, 7}) {
		t.Errorf("got %v, expected [0 1 2 3 40 50 6 7]", data)
	}
	if len(r.Errors) != 0 {
		t.Errorf("unexpected errors: %v", r.Errors)
	}

	r.BufferSubData(ArrayBuffer, 6, []byte{1, 2, 3})
	if len(r.Errors) != 1 {
		t.Errorf("expected out of range error, got %v", r.Errors)
	}

	r.DeleteBuffer(b)
	if _, ok := r.BufferContents(b); ok || r.BoundBuffer(ArrayBuffer) != 0 {
		t.Errorf("buffer still present after delete")
	}
}

func TestRecorderProgramsAndDraws(t *testing.T) {
	r := NewRecorder(DefaultRecorderLimits())

	info, err := r.CompileProgram(testVertexShader, testFragmentShader)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	r.UseProgram(info.ID)
	r.Uniform1fv(9, []float32{0.25})
	r.Uniform1i(7, 3)

	if v, ok := r.Uniform(info.ID, "u_Opacity"); !ok || !slices.Equal(v, []float32{0.25}) {
		t.Errorf("u_Opacity: got %v", v)
	}
	if v, ok := r.Uniform(info.ID, "diffuseMap"); !ok || v[0] != 3 {
		t.Errorf("diffuseMap: got %v", v)
	}

	r.DrawElements(Triangles, 6, UnsignedShort, 0)
	if len(r.Errors) != 1 {
		t.Errorf("expected error for missing element buffer, got %v", r.Errors)
	}

	ib := r.CreateBuffer()
	r.BindBuffer(ElementArrayBuffer, ib)
	r.DrawElementsInstanced(Triangles, 6, UnsignedShort, 12, 10)
	r.DrawArrays(Lines, 2, 4)

	draws := r.Draws()
	if len(draws) != 3 {
		t.Fatalf("got %d draws, expected 3", len(draws))
	}
	if d := draws[1]; !d.Indexed || d.Offset != 12 || d.Instances != 10 || d.Program != info.ID {
		t.Errorf("got %+v", d)
	}
	if d := draws[2]; d.Indexed || d.First != 2 || d.Count != 4 || d.Mode != Lines {
		t.Errorf("got %+v", d)
	}

	cb := r.TakeCommands()
	defer ReturnCommandBuffer(cb)
	if cb.Count(OpCompileProgram) != 1 || len(cb.Strings) != 2 || cb.Strings[0] != testVertexShader {
		t.Errorf("compile command not recorded correctly")
	}
	if len(r.Draws()) != 0 || r.CB.Len() != 0 {
		t.Errorf("TakeCommands didn't start a new buffer")
	}
}

func TestRecorderTextures(t *testing.T) {
	r := NewRecorder(DefaultRecorderLimits())

	cube := r.CreateTexture()
	r.ActiveTexture(3)
	r.BindTexture(TextureCubeMap, cube)
	for i := range 6 {
		r.TexImage2D(CubeFace(i), 0, RGBA, 1, 1, RGBA, UnsignedByte, []byte{byte(i), 0, 0, 255})
	}
	r.TexParameteri(TextureCubeMap, TextureMinFilter, int32(Linear))

	tex, ok := r.Texture(cube)
	if !ok || len(tex.Images) != 6 || tex.Images[CubeFace(5)][0] != 5 {
		t.Errorf("cube faces not recorded: %+v", tex)
	}
	if r.BoundTexture(3, TextureCubeMap) != cube || r.BoundTexture(0, TextureCubeMap) != 0 {
		t.Errorf("unexpected texture unit bindings")
	}
	if tex.Params[TextureMinFilter] != float32(Linear) {
		t.Errorf("min filter not recorded")
	}

	// Binding a cube map to the 2D target is an error.
	r.BindTexture(Texture2D, cube)
	if len(r.Errors) != 1 {
		t.Errorf("expected a single error, got %v", r.Errors)
	}
}

func TestCaptureSaveLoad(t *testing.T) {
	r := NewRecorder(DefaultRecorderLimits())
	r.Clear(ClearColor | ClearDepth)
	r.DrawArrays(Triangles, 0, 3)

	c := &Capture{Vendor: r.Vendor(), Width: 640, Height: 480}
	c.Add(r.CB)
	r.Reset()
	r.DrawArrays(Points, 0, 1)
	r.DrawArrays(Points, 0, 1)
	c.Add(r.CB)

	path := filepath.Join(t.TempDir(), "frame.capture")
	if err := SaveCapture(path, c); err != nil {
		t.Fatalf("SaveCapture: %v", err)
	}
	lc, err := LoadCapture(path)
	if err != nil {
		t.Fatalf("LoadCapture: %v", err)
	}
	if lc.Width != 640 || len(lc.Frames) != 2 {
		t.Errorf("got %+v", lc)
	}
	if d := lc.DrawCalls(); !slices.Equal(d, []int{1, 2}) {
		t.Errorf("draw calls: got %v, expected [1 2]", d)
	}
	if h := lc.Histogram(); h[OpClear] != 1 || h[OpDrawArrays] != 3 {
		t.Errorf("histogram: got %v", h)
	}
}
