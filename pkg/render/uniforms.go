// pkg/render/uniforms.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/scene"
	"github.com/mmp/scenegl/pkg/util"

	"github.com/go-gl/mathgl/mgl32"
)

// itemContext gathers what the uniforms of one render item are computed
// from.
type itemContext struct {
	object   *scene.Object
	material scene.Material
	camera   *scene.Camera
	scene    *scene.Scene
	pass     *passState
}

// passState holds the per-pass values that are shared by all items.
type passState struct {
	lights   *scene.LightSet
	shadowed [numLightTypes][]*scene.Light
}

func (ps *passState) begin(s *scene.Scene) {
	if s != nil {
		ps.lights = s.LightSet()
	} else {
		ps.lights = &scene.LightSet{}
	}

	for i, lights := range [numLightTypes][]*scene.Light{ps.lights.Directional, ps.lights.Point, ps.lights.Spot} {
		ps.shadowed[i] = ps.shadowed[i][:0]
		for _, l := range lights {
			if l.Shadow != nil {
				ps.shadowed[i] = append(ps.shadowed[i], l)
			}
		}
	}
}

func (ps *passState) lightsOf(kind scene.LightKind) []*scene.Light {
	switch kind {
	case scene.DirectionalLight:
		return ps.lights.Directional
	case scene.PointLight:
		return ps.lights.Point
	case scene.SpotLight:
		return ps.lights.Spot
	default:
		return nil
	}
}

// setUniforms uploads the values of all of the program's uniforms for the
// item, allocating texture units for its samplers.
func (r *Renderer) setUniforms(p *Program, ic *itemContext) {
	for i := range p.Bindings {
		r.setUniform(&p.Bindings[i], ic)
	}
}

func (r *Renderer) setUniform(b *Binding, ic *itemContext) {
	base := ic.material.Base()
	cam := ic.camera

	switch b.Role {
	case RoleProjection:
		r.setMat4(b.Location, cam.Projection)
	case RoleView:
		r.setMat4(b.Location, cam.View)
	case RoleModel:
		r.setMat4(b.Location, ic.object.WorldMatrix)
	case RoleCameraPosition:
		r.setVec3(b.Location, cam.Position())
	case RoleUVTransform:
		m := mgl32.Ident3()
		if t := base.UVMap(); t != nil {
			m = t.UVTransform()
		}
		r.dev.UniformMatrix3fv(b.Location, m[:])
	case RoleClippingPlanes:
		r.setClippingPlanes(b, ic.scene)

	case RoleColor:
		r.setVec3(b.Location, base.Diffuse)
	case RoleOpacity:
		r.setFloat(b.Location, base.Opacity)
	case RoleMap:
		r.setTexture2D(b, base.DiffuseMap)
	case RoleNormalMap:
		r.setTexture2D(b, base.NormalMap)
	case RoleBumpMap:
		r.setTexture2D(b, base.BumpMap)
	case RoleBumpScale:
		r.setFloat(b.Location, base.BumpScale)
	case RoleEnvMap:
		r.setTextureCube(b, base.EnvMap)
	case RoleEnvMapIntensity:
		r.setFloat(b.Location, base.EnvMapIntensity)
	case RoleCubeMap:
		var cube *scene.TextureCube
		if cm, ok := ic.material.(*scene.CubeMaterial); ok {
			cube = cm.CubeMap
		}
		r.setTextureCube(b, cube)
	case RoleShininess:
		if pm, ok := ic.material.(*scene.PhongMaterial); ok {
			r.setFloat(b.Location, pm.Shininess)
		}
	case RoleSpecularColor:
		if pm, ok := ic.material.(*scene.PhongMaterial); ok {
			r.setVec4(b.Location, pm.Specular.Vec4(1))
		}
	case RoleSpecularMap:
		r.setTexture2D(b, base.SpecularMap)
	case RoleAOMap:
		r.setTexture2D(b, base.AOMap)
	case RoleAOMapIntensity:
		r.setFloat(b.Location, base.AOMapIntensity)
	case RoleRoughness, RoleMetalness:
		if pm, ok := ic.material.(*scene.PBRMaterial); ok {
			r.setFloat(b.Location, util.Select(b.Role == RoleRoughness, pm.Roughness, pm.Metalness))
		}
	case RoleRoughnessMap, RoleMetalnessMap:
		var tex *scene.Texture2D
		if pm, ok := ic.material.(*scene.PBRMaterial); ok {
			tex = util.Select(b.Role == RoleRoughnessMap, pm.RoughnessMap, pm.MetalnessMap)
		}
		r.setTexture2D(b, tex)
	case RoleEmissive:
		r.setVec3(b.Location, base.Emissive.Mul(base.EmissiveIntensity))
	case RoleEmissiveMap:
		r.setTexture2D(b, base.EmissiveMap)

	case RoleFogColor, RoleFogDensity, RoleFogNear, RoleFogFar:
		r.setFog(b, ic.scene)
	case RoleFogType:
		fogType := int32(0)
		if ic.scene != nil && ic.scene.Fog != nil && base.Fog {
			fogType = int32(ic.scene.Fog.Type)
		}
		r.dev.Uniform1i(b.Location, fogType)

	case RolePointSize:
		if pm, ok := ic.material.(*scene.PointsMaterial); ok {
			r.setFloat(b.Location, pm.Size)
		}
	case RolePointScale:
		r.setFloat(b.Location, 0.5*float32(r.state.RenderTarget().Height))
	case RoleDashSize, RoleTotalSize:
		if dm, ok := ic.material.(*scene.LineDashedMaterial); ok {
			r.setFloat(b.Location, util.Select(b.Role == RoleDashSize, dm.DashSize, dm.DashSize+dm.GapSize))
		}
	case RoleScale:
		if b.Type == gpu.TypeFloatVec2 {
			// The sprite's size comes from the lengths of its world
			// matrix's basis vectors.
			w := ic.object.WorldMatrix
			r.setVec2(b.Location, mgl32.Vec2{w.Col(0).Vec3().Len(), w.Col(1).Vec3().Len()})
		} else if dm, ok := ic.material.(*scene.LineDashedMaterial); ok {
			r.setFloat(b.Location, dm.Scale)
		}

	case RoleBoneTexture, RoleBoneTextureSize, RoleBoneMatrices:
		r.setSkinning(b, ic.object.Skeleton)

	case RoleSpriteTexture:
		// Bound per batch when the canvas is drawn.
	case RoleAlphaTest:
		r.setFloat(b.Location, 0)
	case RoleUVOffset:
		r.setVec2(b.Location, mgl32.Vec2{0, 0})
	case RoleUVScale:
		r.setVec2(b.Location, mgl32.Vec2{1, 1})
	case RoleRotation:
		if sm, ok := ic.material.(*scene.SpriteMaterial); ok {
			r.setFloat(b.Location, sm.Rotation)
		}

	case RoleTime:
		if ps := ic.object.Particle; ps != nil {
			r.setFloat(b.Location, ps.Time)
		}
	case RoleParticleScale:
		r.setFloat(b.Location, 1)
	case RoleNoiseTexture, RoleParticleSprite:
		var tex *scene.Texture2D
		if ps := ic.object.Particle; ps != nil {
			tex = util.Select(b.Role == RoleNoiseTexture, ps.NoiseTexture, ps.SpriteTexture)
		}
		r.setTexture2D(b, tex)

	case RoleReferencePosition, RoleNearDistance, RoleFarDistance:
		if dm, ok := ic.material.(*scene.DistanceMaterial); ok {
			switch b.Role {
			case RoleReferencePosition:
				r.setVec3(b.Location, dm.ReferencePosition)
			case RoleNearDistance:
				r.setFloat(b.Location, dm.Near)
			case RoleFarDistance:
				r.setFloat(b.Location, dm.Far)
			}
		}

	case RoleAmbientLight:
		r.setVec3(b.Location, ic.pass.lights.Ambient)
	case RoleLight:
		r.setLight(b, ic)
	case RoleDirectionalShadowMap:
		r.setShadowMaps(b, ic.pass.shadowed[lightsDirectional], false)
	case RolePointShadowMap:
		r.setShadowMaps(b, ic.pass.shadowed[lightsPoint], true)
	case RoleSpotShadowMap:
		r.setShadowMaps(b, ic.pass.shadowed[lightsSpot], false)
	case RoleDirectionalShadowMatrix:
		r.setShadowMatrices(b, ic.pass.shadowed[lightsDirectional])
	case RoleSpotShadowMatrix:
		r.setShadowMatrices(b, ic.pass.shadowed[lightsSpot])

	case RoleCustom:
		if sm, ok := ic.material.(*scene.ShaderMaterial); ok {
			if v, ok := sm.Uniforms[b.Name]; ok {
				r.setCustom(b, v)
			}
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// Value helpers

func (r *Renderer) setFloat(loc int32, v float32) {
	f := r.scratch.Floats(1)
	f[0] = v
	r.dev.Uniform1fv(loc, f)
}

func (r *Renderer) setVec2(loc int32, v mgl32.Vec2) { r.dev.Uniform2fv(loc, v[:]) }
func (r *Renderer) setVec3(loc int32, v mgl32.Vec3) { r.dev.Uniform3fv(loc, v[:]) }
func (r *Renderer) setVec4(loc int32, v mgl32.Vec4) { r.dev.Uniform4fv(loc, v[:]) }
func (r *Renderer) setMat4(loc int32, m mgl32.Mat4) { r.dev.UniformMatrix4fv(loc, m[:]) }

// setTexture2D allocates a texture unit for the sampler and binds tex to
// it; a nil texture leaves the unit's 2D target unbound.
func (r *Renderer) setTexture2D(b *Binding, tex scene.Texture) {
	unit := r.textures.AllocTexUnit()
	r.dev.Uniform1i(b.Location, int32(unit))
	r.textures.SetTexture2D(tex, unit)
}

func (r *Renderer) setTextureCube(b *Binding, tex *scene.TextureCube) {
	unit := r.textures.AllocTexUnit()
	r.dev.Uniform1i(b.Location, int32(unit))
	r.textures.SetTextureCube(tex, unit)
}

// setClippingPlanes uploads the scene's clipping planes as (normal,
// constant) vectors.
func (r *Renderer) setClippingPlanes(b *Binding, s *scene.Scene) {
	if s == nil {
		return
	}
	n := min(int(b.Size), len(s.ClippingPlanes))
	if n == 0 {
		return
	}
	f := r.scratch.Floats(4 * n)
	for i, p := range s.ClippingPlanes[:n] {
		copy(f[4*i:], p.Normal[:])
		f[4*i+3] = p.Constant
	}
	r.dev.Uniform4fv(b.Location, f)
}

func (r *Renderer) setFog(b *Binding, s *scene.Scene) {
	if s == nil || s.Fog == nil {
		return
	}
	fog := s.Fog
	switch b.Role {
	case RoleFogColor:
		r.setVec3(b.Location, fog.Color)
	case RoleFogDensity:
		r.setFloat(b.Location, fog.Density)
	case RoleFogNear:
		r.setFloat(b.Location, fog.Near)
	case RoleFogFar:
		r.setFloat(b.Location, fog.Far)
	}
}

///////////////////////////////////////////////////////////////////////////
// Skinning

func (r *Renderer) setSkinning(b *Binding, sk *scene.Skeleton) {
	if sk == nil {
		return
	}

	switch b.Role {
	case RoleBoneTexture:
		bt := r.skinning.boneTexture(sk, r.frame)
		r.setTexture2D(b, bt.tex)
	case RoleBoneTextureSize:
		bt := r.skinning.boneTexture(sk, r.frame)
		r.dev.Uniform1i(b.Location, int32(bt.size))
	case RoleBoneMatrices:
		// The array may be shorter than the skeleton if the bone count
		// was clamped to the device's uniform limit.
		n := min(len(sk.Bones), int(b.Size))
		f := sk.BoneMatrices(r.scratch.Floats(16 * len(sk.Bones))[:0])
		r.dev.UniformMatrix4fv(b.Location, f[:16*n])
	}
}

///////////////////////////////////////////////////////////////////////////
// Lights

func (r *Renderer) setLight(b *Binding, ic *itemContext) {
	lights := ic.pass.lightsOf(b.Light)
	if b.Index >= len(lights) {
		return
	}
	l := lights[b.Index]
	sh := l.Shadow

	switch b.Field {
	case FieldDirection:
		r.setVec3(b.Location, l.Direction)
	case FieldPosition:
		r.setVec3(b.Location, l.Position)
	case FieldColor:
		// Intensity is folded into the color.
		r.setVec3(b.Location, l.EffectiveColor())
	case FieldIntensity:
		r.setFloat(b.Location, 1)
	case FieldDistance:
		r.setFloat(b.Location, l.Distance)
	case FieldDecay:
		r.setFloat(b.Location, l.Decay)
	case FieldConeCos:
		r.setFloat(b.Location, l.ConeCos())
	case FieldPenumbraCos:
		r.setFloat(b.Location, l.PenumbraCos())
	case FieldShadow:
		r.dev.Uniform1i(b.Location, int32(util.Select(sh != nil && ic.object.ReceiveShadow, 1, 0)))
	}

	if sh == nil {
		return
	}
	switch b.Field {
	case FieldShadowBias:
		r.setFloat(b.Location, sh.Bias)
	case FieldShadowRadius:
		r.setFloat(b.Location, sh.Radius)
	case FieldShadowMapSize:
		r.setVec2(b.Location, sh.MapSize)
	case FieldShadowCameraNear:
		r.setFloat(b.Location, sh.CameraNear)
	case FieldShadowCameraFar:
		r.setFloat(b.Location, sh.CameraFar)
	}
}

// setShadowMaps binds the shadow maps of the shadow-casting lights to
// consecutive texture units and uploads the units as a sampler array.
// Every array element gets its own unit, even past the last light.
func (r *Renderer) setShadowMaps(b *Binding, lights []*scene.Light, cube bool) {
	units := r.scratch.Ints(int(b.Size))
	for i := range units {
		unit := r.textures.AllocTexUnit()
		units[i] = int32(unit)

		var sh *scene.LightShadow
		if i < len(lights) {
			sh = lights[i].Shadow
		}
		switch {
		case cube && sh != nil:
			r.textures.SetTextureCube(sh.CubeMap, unit)
		case cube:
			r.textures.SetTextureCube(nil, unit)
		case sh != nil:
			r.textures.SetTexture2D(sh.Map, unit)
		default:
			r.textures.SetTexture2D(nil, unit)
		}
	}
	r.dev.Uniform1iv(b.Location, units)
}

func (r *Renderer) setShadowMatrices(b *Binding, lights []*scene.Light) {
	n := min(int(b.Size), len(lights))
	if n == 0 {
		return
	}
	f := r.scratch.Floats(16 * n)
	for i, l := range lights[:n] {
		copy(f[16*i:], l.Shadow.Matrix[:])
	}
	r.dev.UniformMatrix4fv(b.Location, f)
}

///////////////////////////////////////////////////////////////////////////
// Custom uniforms

// setCustom uploads a caller-provided uniform value, converting it as
// needed to match the uniform's declared type.
func (r *Renderer) setCustom(b *Binding, v any) {
	switch v := v.(type) {
	case *scene.Texture2D:
		r.setTexture2D(b, v)
	case *scene.DataTexture:
		r.setTexture2D(b, v)
	case *scene.TextureCube:
		r.setTextureCube(b, v)

	case float32:
		r.setCustomFloats(b, []float32{v})
	case float64:
		r.setCustomFloats(b, []float32{float32(v)})
	case []float32:
		r.setCustomFloats(b, v)
	case mgl32.Vec2:
		r.setCustomFloats(b, v[:])
	case mgl32.Vec3:
		r.setCustomFloats(b, v[:])
	case mgl32.Vec4:
		r.setCustomFloats(b, v[:])
	case mgl32.Mat3:
		r.setCustomFloats(b, v[:])
	case mgl32.Mat4:
		r.setCustomFloats(b, v[:])
	case []mgl32.Mat4:
		f := r.scratch.Floats(16 * len(v))
		for i, m := range v {
			copy(f[16*i:], m[:])
		}
		r.setCustomFloats(b, f)

	case int:
		r.setCustomInts(b, []int32{int32(v)})
	case int32:
		r.setCustomInts(b, []int32{v})
	case bool:
		r.setCustomInts(b, []int32{int32(util.Select(v, 1, 0))})
	case []int32:
		r.setCustomInts(b, v)

	default:
		r.lg.Warnf("%s: unsupported uniform value type %T", b.Name, v)
	}
}

func (r *Renderer) setCustomFloats(b *Binding, f []float32) {
	switch b.Type {
	case gpu.TypeFloat:
		r.dev.Uniform1fv(b.Location, f)
	case gpu.TypeFloatVec2:
		r.dev.Uniform2fv(b.Location, f)
	case gpu.TypeFloatVec3:
		r.dev.Uniform3fv(b.Location, f)
	case gpu.TypeFloatVec4:
		r.dev.Uniform4fv(b.Location, f)
	case gpu.TypeFloatMat3:
		r.dev.UniformMatrix3fv(b.Location, f)
	case gpu.TypeFloatMat4:
		r.dev.UniformMatrix4fv(b.Location, f)
	case gpu.TypeInt, gpu.TypeBool, gpu.TypeSampler2D, gpu.TypeSamplerCube:
		ints := r.scratch.Ints(len(f))
		for i, v := range f {
			ints[i] = int32(v)
		}
		r.dev.Uniform1iv(b.Location, ints)
	default:
		r.lg.Warnf("%s: unsupported uniform type %#x", b.Name, uint32(b.Type))
	}
}

func (r *Renderer) setCustomInts(b *Binding, v []int32) {
	switch b.Type {
	case gpu.TypeInt, gpu.TypeBool, gpu.TypeSampler2D, gpu.TypeSamplerCube:
		r.dev.Uniform1iv(b.Location, v)
	default:
		f := r.scratch.Floats(len(v))
		for i, x := range v {
			f[i] = float32(x)
		}
		r.setCustomFloats(b, f)
	}
}
