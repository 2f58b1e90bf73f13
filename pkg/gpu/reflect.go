// pkg/gpu/reflect.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gpu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The Recorder doesn't have a shader compiler; instead it finds the
// declarations of attributes and uniforms in the GLSL source text so that
// it can report the same reflection information that a driver would. This
// handles the declaration forms that the renderer's shader generator
// emits: one declaration per line, optional layout and precision
// qualifiers, array sizes given as integer literals or #defined names, and
// uniforms whose type is a struct (or array of structs) defined in the
// same source.

var (
	reDefine      = regexp.MustCompile(`(?m)^\s*#define\s+(\w+)\s+(\d+)\s*$`)
	reStruct      = regexp.MustCompile(`(?s)struct\s+(\w+)\s*\{([^}]*)\}`)
	reStructField = regexp.MustCompile(`(\w+)\s+(\w+)\s*(?:\[\s*(\w+)\s*\])?\s*;`)
	reLayout      = regexp.MustCompile(`^layout\s*\([^)]*\)\s*`)
	reDecl        = regexp.MustCompile(`^(uniform|in|attribute)\s+(?:(?:lowp|mediump|highp|flat)\s+)*(\w+)\s+(\w+)\s*(?:\[\s*(\w+)\s*\])?\s*;`)
)

var glslTypes = map[string]UniformType{
	"float":       TypeFloat,
	"int":         TypeInt,
	"bool":        TypeBool,
	"vec2":        TypeFloatVec2,
	"vec3":        TypeFloatVec3,
	"vec4":        TypeFloatVec4,
	"ivec2":       TypeIntVec2,
	"ivec3":       TypeIntVec3,
	"ivec4":       TypeIntVec4,
	"mat2":        TypeFloatMat2,
	"mat3":        TypeFloatMat3,
	"mat4":        TypeFloatMat4,
	"sampler2D":   TypeSampler2D,
	"samplerCube": TypeSamplerCube,
}

type structField struct {
	typ  string
	name string
	size int
}

type shaderSource struct {
	defines map[string]int
	structs map[string][]structField
}

func parseShaderSource(src string) (*shaderSource, error) {
	s := &shaderSource{defines: make(map[string]int), structs: make(map[string][]structField)}
	for _, m := range reDefine.FindAllStringSubmatch(src, -1) {
		v, _ := strconv.Atoi(m[2])
		s.defines[m[1]] = v
	}
	for _, m := range reStruct.FindAllStringSubmatch(src, -1) {
		var fields []structField
		for _, f := range reStructField.FindAllStringSubmatch(m[2], -1) {
			size, err := s.arraySize(f[3])
			if err != nil {
				return nil, fmt.Errorf("struct %s: %w", m[1], err)
			}
			fields = append(fields, structField{typ: f[1], name: f[2], size: size})
		}
		s.structs[m[1]] = fields
	}
	return s, nil
}

// arraySize returns 0 for non-arrays.
func (s *shaderSource) arraySize(dim string) (int, error) {
	if dim == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(dim); err == nil {
		return n, nil
	}
	if n, ok := s.defines[dim]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("%s: unknown array size", dim)
}

type declaration struct {
	qualifier string
	typ       string
	name      string
	size      int
}

func (s *shaderSource) declarations(src string) ([]declaration, error) {
	var decls []declaration
	for line := range strings.Lines(src) {
		line = strings.TrimSpace(line)
		line = reLayout.ReplaceAllString(line, "")
		m := reDecl.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		size, err := s.arraySize(m[4])
		if err != nil {
			return nil, err
		}
		decls = append(decls, declaration{qualifier: m[1], typ: m[2], name: m[3], size: size})
	}
	return decls, nil
}

// expand flattens a declaration into the active variables a driver would
// report for it.
func (s *shaderSource) expand(typ, name string, size int) ([]ActiveVariable, error) {
	if t, ok := glslTypes[typ]; ok {
		if size > 0 {
			return []ActiveVariable{{Name: name + "[0]", Type: t, Size: int32(size)}}, nil
		}
		return []ActiveVariable{{Name: name, Type: t, Size: 1}}, nil
	}

	fields, ok := s.structs[typ]
	if !ok {
		return nil, fmt.Errorf("%s: unknown type %q", name, typ)
	}
	var vars []ActiveVariable
	expandFields := func(prefix string) error {
		for _, f := range fields {
			fv, err := s.expand(f.typ, prefix+"."+f.name, f.size)
			if err != nil {
				return err
			}
			vars = append(vars, fv...)
		}
		return nil
	}
	if size == 0 {
		if err := expandFields(name); err != nil {
			return nil, err
		}
	} else {
		for i := range size {
			if err := expandFields(fmt.Sprintf("%s[%d]", name, i)); err != nil {
				return nil, err
			}
		}
	}
	return vars, nil
}

// reflectProgram returns the active attributes and uniforms declared by the
// given vertex and fragment shaders.
func reflectProgram(vs, fs string) (attribs, uniforms []ActiveVariable, err error) {
	seen := make(map[string]bool)
	for stageIdx, src := range []string{vs, fs} {
		stage := [2]string{"vertex", "fragment"}[stageIdx]
		if i := strings.Index(src, "#error"); i != -1 {
			line := 1 + strings.Count(src[:i], "\n")
			return nil, nil, &CompileError{Stage: stage, Log: fmt.Sprintf("ERROR: 0:%d: '#error' : %s", line,
				strings.TrimSpace(strings.SplitN(src[i+len("#error"):], "\n", 2)[0]))}
		}

		ss, err := parseShaderSource(src)
		if err != nil {
			return nil, nil, &CompileError{Stage: stage, Log: err.Error()}
		}
		decls, err := ss.declarations(src)
		if err != nil {
			return nil, nil, &CompileError{Stage: stage, Log: err.Error()}
		}

		for _, d := range decls {
			if d.qualifier != "uniform" {
				// Fragment shader inputs are varyings, not attributes.
				if stageIdx == 0 {
					t, ok := glslTypes[d.typ]
					if !ok {
						return nil, nil, &CompileError{Stage: stage, Log: fmt.Sprintf("%s: invalid attribute type %q", d.name, d.typ)}
					}
					attribs = append(attribs, ActiveVariable{Name: d.name, Type: t, Size: 1, Location: int32(len(attribs))})
				}
				continue
			}

			vars, err := ss.expand(d.typ, d.name, d.size)
			if err != nil {
				return nil, nil, &CompileError{Stage: stage, Log: err.Error()}
			}
			for _, v := range vars {
				if seen[v.Name] {
					continue
				}
				seen[v.Name] = true
				v.Location = int32(len(uniforms))
				uniforms = append(uniforms, v)
			}
		}
	}
	return
}
