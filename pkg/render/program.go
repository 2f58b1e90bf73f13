// pkg/render/program.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/log"
	"github.com/mmp/scenegl/pkg/scene"
	"github.com/mmp/scenegl/pkg/util"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Features is a bitmask of the optional shader features that a material
// uses.
type Features uint32

const (
	FeatureMap Features = 1 << iota
	FeatureNormalMap
	FeatureBumpMap
	FeatureSpecularMap
	FeatureEnvMap
	FeatureAOMap
	FeatureEmissiveMap
	FeatureRoughnessMap
	FeatureMetalnessMap
	FeatureVertexColors
	FeatureFlatShading
	FeaturePremultipliedAlpha
	FeatureSizeAttenuation
	FeatureDepthPacking
	FeatureInstancing
	FeatureLighting
)

func (f Features) Has(x Features) bool { return f&x != 0 }

// Indices into ProgramKey's per-light-type counts.
const (
	lightsDirectional = iota
	lightsPoint
	lightsSpot
	numLightTypes
)

// ProgramKey identifies a program variant. Two items whose keys are equal
// can be drawn with the same program.
type ProgramKey struct {
	Style    scene.Style
	Kind     scene.ObjectKind
	Features Features
	// Fog is zero if the material isn't fogged.
	Fog            scene.FogType
	Lights         [numLightTypes]int
	Shadows        [numLightTypes]int
	ClippingPlanes int
	// Bones is zero for unskinned objects.
	Bones       int
	BoneTexture bool
	Precision   string
	// ShaderHash identifies the source of a ShaderMaterial.
	ShaderHash uint64
}

func (k ProgramKey) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("style", k.Style.String()),
		slog.String("kind", k.Kind.String()),
		slog.String("features", fmt.Sprintf("%#x", uint32(k.Features))),
		slog.Int("fog", int(k.Fog)),
		slog.Any("lights", k.Lights),
		slog.Any("shadows", k.Shadows),
		slog.Int("clipping_planes", k.ClippingPlanes),
		slog.Int("bones", k.Bones),
		slog.Bool("bone_texture", k.BoneTexture),
	)
}

func (k ProgramKey) lit() bool {
	return k.Features.Has(FeatureLighting)
}

// ProgramAttribute is an active vertex attribute of a program.
type ProgramAttribute struct {
	Name     string
	Location int32
	Type     gpu.UniformType
}

// Program is a compiled program variant along with the information
// needed to feed it: its attributes and the bindings of its uniforms to
// the values the renderer supplies.
type Program struct {
	ID   uint32
	Key  ProgramKey
	Name string

	Attributes []ProgramAttribute
	Bindings   []Binding

	VertexSource, FragmentSource string
	// Err records a compilation failure; such programs are cached so that
	// the failure is only reported once.
	Err error

	// serial is unique across the programs of a cache, unlike ID, which
	// the device may reuse after a program is deleted.
	serial uint64
}

///////////////////////////////////////////////////////////////////////////
// Uniform roles

// Role identifies the value that the renderer supplies for a uniform.
// Roles are resolved from uniform names when a program is compiled so
// that no name lookups happen while drawing.
type Role int

const (
	RoleCustom Role = iota

	RoleProjection
	RoleView
	RoleModel
	RoleCameraPosition
	RoleUVTransform
	RoleClippingPlanes

	RoleColor
	RoleOpacity
	RoleMap
	RoleNormalMap
	RoleBumpMap
	RoleBumpScale
	RoleEnvMap
	RoleEnvMapIntensity
	RoleCubeMap
	RoleShininess
	RoleSpecularColor
	RoleSpecularMap
	RoleAOMap
	RoleAOMapIntensity
	RoleRoughness
	RoleRoughnessMap
	RoleMetalness
	RoleMetalnessMap
	RoleEmissive
	RoleEmissiveMap

	RoleFogColor
	RoleFogDensity
	RoleFogNear
	RoleFogFar
	RoleFogType

	RolePointSize
	RolePointScale
	RoleDashSize
	RoleTotalSize
	// RoleScale is the sprite's world scale for vec2 uniforms and the
	// dashed line scale for floats.
	RoleScale

	RoleBoneTexture
	RoleBoneTextureSize
	RoleBoneMatrices

	RoleSpriteTexture
	RoleAlphaTest
	RoleUVOffset
	RoleUVScale
	RoleRotation

	RoleTime
	RoleParticleScale
	RoleNoiseTexture
	RoleParticleSprite

	RoleReferencePosition
	RoleNearDistance
	RoleFarDistance

	RoleAmbientLight
	RoleLight
	RoleDirectionalShadowMap
	RolePointShadowMap
	RoleSpotShadowMap
	RoleDirectionalShadowMatrix
	RoleSpotShadowMatrix
)

var roleNames = map[string]Role{
	"u_Projection":       RoleProjection,
	"projectionMatrix":   RoleProjection,
	"u_View":             RoleView,
	"viewMatrix":         RoleView,
	"u_Model":            RoleModel,
	"modelMatrix":        RoleModel,
	"u_CameraPosition":   RoleCameraPosition,
	"uvTransform":        RoleUVTransform,
	"clippingPlanes":     RoleClippingPlanes,
	"u_Color":            RoleColor,
	"color":              RoleColor,
	"u_Opacity":          RoleOpacity,
	"opacity":            RoleOpacity,
	"map":                RoleMap,
	"normalMap":          RoleNormalMap,
	"bumpMap":            RoleBumpMap,
	"bumpScale":          RoleBumpScale,
	"envMap":             RoleEnvMap,
	"u_EnvMap_Intensity": RoleEnvMapIntensity,
	"cubeMap":            RoleCubeMap,
	"u_Specular":         RoleShininess,
	"u_SpecularColor":    RoleSpecularColor,
	"specularMap":        RoleSpecularMap,
	"aoMap":              RoleAOMap,
	"aoMapIntensity":     RoleAOMapIntensity,
	"u_Roughness":        RoleRoughness,
	"roughnessMap":       RoleRoughnessMap,
	"u_Metalness":        RoleMetalness,
	"metalnessMap":       RoleMetalnessMap,
	"emissive":           RoleEmissive,
	"emissiveMap":        RoleEmissiveMap,
	"u_FogColor":         RoleFogColor,
	"fogColor":           RoleFogColor,
	"u_FogDensity":       RoleFogDensity,
	"fogDensity":         RoleFogDensity,
	"u_FogNear":          RoleFogNear,
	"fogNear":            RoleFogNear,
	"u_FogFar":           RoleFogFar,
	"fogFar":             RoleFogFar,
	"fogType":            RoleFogType,
	"u_PointSize":        RolePointSize,
	"u_PointScale":       RolePointScale,
	"dashSize":           RoleDashSize,
	"totalSize":          RoleTotalSize,
	"scale":              RoleScale,
	"boneTexture":        RoleBoneTexture,
	"boneTextureSize":    RoleBoneTextureSize,
	"boneMatrices":       RoleBoneMatrices,
	"spriteTexture":      RoleSpriteTexture,
	"alphaTest":          RoleAlphaTest,
	"uvOffset":           RoleUVOffset,
	"uvScale":            RoleUVScale,
	"rotation":           RoleRotation,
	"uTime":              RoleTime,
	"uScale":             RoleParticleScale,
	"tNoise":             RoleNoiseTexture,
	"tSprite":            RoleParticleSprite,
	"referencePosition":  RoleReferencePosition,
	"nearDistance":       RoleNearDistance,
	"farDistance":        RoleFarDistance,

	"u_AmbientLightColor":     RoleAmbientLight,
	"directionalShadowMap":    RoleDirectionalShadowMap,
	"pointShadowMap":          RolePointShadowMap,
	"spotShadowMap":           RoleSpotShadowMap,
	"directionalShadowMatrix": RoleDirectionalShadowMatrix,
	"spotShadowMatrix":        RoleSpotShadowMatrix,
}

// LightField identifies a member of one of the light uniform structs.
type LightField int

const (
	FieldDirection LightField = iota
	FieldPosition
	FieldColor
	FieldIntensity
	FieldDistance
	FieldDecay
	FieldConeCos
	FieldPenumbraCos
	FieldShadow
	FieldShadowBias
	FieldShadowRadius
	FieldShadowMapSize
	FieldShadowCameraNear
	FieldShadowCameraFar
)

var lightFieldNames = map[string]LightField{
	"direction":        FieldDirection,
	"position":         FieldPosition,
	"color":            FieldColor,
	"intensity":        FieldIntensity,
	"distance":         FieldDistance,
	"decay":            FieldDecay,
	"coneCos":          FieldConeCos,
	"penumbraCos":      FieldPenumbraCos,
	"shadow":           FieldShadow,
	"shadowBias":       FieldShadowBias,
	"shadowRadius":     FieldShadowRadius,
	"shadowMapSize":    FieldShadowMapSize,
	"shadowCameraNear": FieldShadowCameraNear,
	"shadowCameraFar":  FieldShadowCameraFar,
}

var lightStructNames = map[string]scene.LightKind{
	"u_Directional": scene.DirectionalLight,
	"u_Point":       scene.PointLight,
	"u_Spot":        scene.SpotLight,
}

var reLightMember = regexp.MustCompile(`^(\w+)\[(\d+)\]\.(\w+)$`)

// Binding connects an active uniform of a program to the value the
// renderer supplies for it.
type Binding struct {
	Role Role
	// Index is the light index for RoleLight.
	Index int
	Light scene.LightKind
	Field LightField

	Location int32
	Type     gpu.UniformType
	Size     int32
	// Name is the uniform's name without any trailing "[0]".
	Name string
}

// resolveBindings assigns roles to a program's active uniforms.
func resolveBindings(uniforms []gpu.ActiveVariable) []Binding {
	bindings := make([]Binding, 0, len(uniforms))
	for _, u := range uniforms {
		b := Binding{Location: u.Location, Type: u.Type, Size: u.Size, Name: strings.TrimSuffix(u.Name, "[0]")}

		if m := reLightMember.FindStringSubmatch(u.Name); m != nil {
			kind, okKind := lightStructNames[m[1]]
			field, okField := lightFieldNames[m[3]]
			if okKind && okField {
				b.Role, b.Light, b.Field = RoleLight, kind, field
				b.Index, _ = strconv.Atoi(m[2])
				bindings = append(bindings, b)
				continue
			}
		}

		if r, ok := roleNames[b.Name]; ok {
			b.Role = r
		}
		bindings = append(bindings, b)
	}
	return bindings
}

///////////////////////////////////////////////////////////////////////////
// ProgramCache

// ProgramCache compiles program variants on demand and keeps the most
// recently used ones.
type ProgramCache struct {
	dev   gpu.Device
	state *State
	caps  *Capabilities
	cfg   *Config
	lg    *log.Logger
	diag  *diagnostics
	stats *Stats

	cache      *lru.Cache[ProgramKey, *Program]
	nextSerial uint64
}

func NewProgramCache(dev gpu.Device, state *State, caps *Capabilities, cfg *Config, lg *log.Logger,
	diag *diagnostics, stats *Stats) (*ProgramCache, error) {
	pc := &ProgramCache{dev: dev, state: state, caps: caps, cfg: cfg, lg: lg, diag: diag, stats: stats}

	var err error
	pc.cache, err = lru.NewWithEvict(max(cfg.MaxPrograms, 1), func(key ProgramKey, p *Program) {
		if p.ID != 0 {
			pc.lg.Debug("deleting program", slog.String("name", p.Name), slog.Any("key", key))
			pc.state.DeleteProgram(p.ID)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("program cache: %w", err)
	}
	return pc, nil
}

// Key returns the key of the program variant that draws the object's
// geometry g with the given material in the given scene, which may be
// nil.
func (pc *ProgramCache) Key(m scene.Material, o *scene.Object, g *scene.Geometry, s *scene.Scene) ProgramKey {
	b := m.Base()
	k := ProgramKey{Style: m.Style(), Kind: o.Kind, Precision: pc.caps.Precision}

	if g != nil && g.IsInstanced() && pc.caps.Instancing {
		k.Features |= FeatureInstancing
	}
	if o.Kind == scene.KindSkinnedMesh && o.Skeleton != nil {
		k.Bones = len(o.Skeleton.Bones)
		k.BoneTexture = pc.cfg.PreferBoneTexture && pc.caps.BoneTextures()
		if !k.BoneTexture {
			// Each bone matrix takes four uniform vectors; leave room for
			// the shader's other uniforms.
			if maxBones := (pc.caps.MaxVertexUniformVectors - 20) / 4; k.Bones > maxBones {
				pc.lg.Warn("too many bones for uniform skinning", slog.Int("bones", k.Bones),
					slog.Int("max_bones", maxBones))
				k.Bones = max(maxBones, 1)
			}
		}
	}
	if s != nil {
		k.ClippingPlanes = len(s.ClippingPlanes)
		if b.Fog && s.Fog != nil {
			k.Fog = s.Fog.Type
		}
	}

	lightable := k.Style == scene.StyleLambert || k.Style == scene.StylePhong || k.Style == scene.StylePBR ||
		k.Style == scene.StyleShader
	if b.AcceptLight && lightable && s != nil {
		k.Features |= FeatureLighting
		ls := s.LightSet()
		k.Lights = [numLightTypes]int{len(ls.Directional), len(ls.Point), len(ls.Spot)}
		if o.ReceiveShadow {
			d, p, sp := ls.ShadowCounts()
			k.Shadows = [numLightTypes]int{d, p, sp}
		}
	}

	if sm, ok := m.(*scene.ShaderMaterial); ok {
		k.ShaderHash = shaderHash(sm)
		return k
	}

	set := func(f Features, enabled bool) {
		if enabled {
			k.Features |= f
		}
	}
	set(FeatureMap, b.DiffuseMap != nil)
	set(FeatureNormalMap, b.NormalMap != nil)
	set(FeatureBumpMap, b.BumpMap != nil)
	set(FeatureSpecularMap, b.SpecularMap != nil)
	set(FeatureEnvMap, b.EnvMap != nil)
	set(FeatureAOMap, b.AOMap != nil)
	set(FeatureEmissiveMap, b.EmissiveMap != nil)
	set(FeatureVertexColors, b.VertexColors)
	set(FeatureFlatShading, b.FlatShading)
	set(FeaturePremultipliedAlpha, b.Blending.Premultiplied)

	switch m := m.(type) {
	case *scene.PBRMaterial:
		set(FeatureRoughnessMap, m.RoughnessMap != nil)
		set(FeatureMetalnessMap, m.MetalnessMap != nil)
	case *scene.PointsMaterial:
		set(FeatureSizeAttenuation, m.SizeAttenuation)
	case *scene.DepthMaterial:
		set(FeatureDepthPacking, m.Packing)
	case *scene.SpriteMaterial:
		// Sprites have their own fog selection uniform.
		k.Fog = 0
	}
	return k
}

func shaderHash(m *scene.ShaderMaterial) uint64 {
	var sb strings.Builder
	sb.WriteString(m.VertexShader)
	sb.WriteByte(0)
	sb.WriteString(m.FragmentShader)
	for _, name := range util.SortedMapKeys(m.Defines) {
		sb.WriteByte(0)
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(m.Defines[name])
	}
	return xxhash.Sum64String(sb.String())
}

// GetProgram returns the program for drawing the object's geometry g
// with the given material, compiling it if necessary. If the program
// failed to compile, the returned error describes why; the failure is
// only reported the first time.
func (pc *ProgramCache) GetProgram(m scene.Material, o *scene.Object, g *scene.Geometry, s *scene.Scene) (*Program, error) {
	key := pc.Key(m, o, g, s)
	if p, ok := pc.cache.Get(key); ok {
		return p, p.Err
	}

	p := pc.compile(key, m)
	pc.cache.Add(key, p)
	return p, p.Err
}

func (pc *ProgramCache) compile(key ProgramKey, m scene.Material) *Program {
	pc.nextSerial++
	p := &Program{Key: key, Name: cmp.Or(m.Base().Name, key.Style.String()), serial: pc.nextSerial}
	p.VertexSource, p.FragmentSource = generateShaders(key, m)

	info, err := pc.dev.CompileProgram(p.VertexSource, p.FragmentSource)
	if err != nil {
		p.Err = fmt.Errorf("%s: %w", p.Name, err)
		pc.diag.report(DiagCompile, "unable to compile program", slog.String("material", p.Name),
			slog.Any("key", key), slog.Any("error", err), slog.String("vertex_source", p.VertexSource),
			slog.String("fragment_source", p.FragmentSource))
		return p
	}

	p.ID = info.ID
	for _, a := range info.Attributes {
		p.Attributes = append(p.Attributes, ProgramAttribute{Name: a.Name, Location: a.Location, Type: a.Type})
	}
	p.Bindings = resolveBindings(info.Uniforms)
	pc.stats.ProgramsCompiled++

	if pc.cfg.LogShaderSource {
		pc.lg.Debug("compiled program", slog.String("name", p.Name), slog.Any("key", key),
			slog.String("vertex_source", p.VertexSource), slog.String("fragment_source", p.FragmentSource))
	} else {
		pc.lg.Debug("compiled program", slog.String("name", p.Name), slog.Any("key", key))
	}
	return p
}

// Len returns the number of cached programs, including ones that failed
// to compile.
func (pc *ProgramCache) Len() int {
	return pc.cache.Len()
}

// Purge deletes all of the cached programs.
func (pc *ProgramCache) Purge() {
	pc.cache.Purge()
}
