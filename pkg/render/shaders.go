// pkg/render/shaders.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"fmt"
	"strings"

	"github.com/mmp/scenegl/pkg/scene"
	"github.com/mmp/scenegl/pkg/util"

	"github.com/iancoleman/orderedmap"
)

// Generated shaders consist of a header (version, precision, and
// #defines), declarations of exactly the attributes and uniforms that the
// variant uses, and a main body that is selected among with the #defines.
// Declarations are never wrapped in preprocessor conditionals so that
// program reflection matches what's declared.

const glslVersion = "#version 410 core\n"

type shaderBuilder struct {
	key     ProgramKey
	defines *orderedmap.OrderedMap
	vs, fs  strings.Builder
}

func newShaderBuilder(key ProgramKey) *shaderBuilder {
	return &shaderBuilder{key: key, defines: orderedmap.New()}
}

func (b *shaderBuilder) define(name string, value any) {
	b.defines.Set(name, value)
}

func (b *shaderBuilder) defineIf(name string, enabled bool) {
	if enabled {
		b.defines.Set(name, "")
	}
}

func (b *shaderBuilder) attribute(typ, name string) {
	fmt.Fprintf(&b.vs, "in %s %s;\n", typ, name)
}

func (b *shaderBuilder) vertexUniform(typ, name string) {
	fmt.Fprintf(&b.vs, "uniform %s %s;\n", typ, name)
}

func (b *shaderBuilder) fragmentUniform(typ, name string) {
	fmt.Fprintf(&b.fs, "uniform %s %s;\n", typ, name)
}

func (b *shaderBuilder) header() string {
	var sb strings.Builder
	sb.WriteString(glslVersion)
	fmt.Fprintf(&sb, "precision %s float;\nprecision %s int;\n", b.key.Precision, b.key.Precision)
	for _, name := range b.defines.Keys() {
		v, _ := b.defines.Get(name)
		if s := fmt.Sprint(v); s != "" {
			fmt.Fprintf(&sb, "#define %s %s\n", name, s)
		} else {
			fmt.Fprintf(&sb, "#define %s\n", name)
		}
	}
	return sb.String()
}

func (b *shaderBuilder) sources(vsMain, fsMain string) (string, string) {
	h := b.header()
	return h + b.vs.String() + vsMain, h + b.fs.String() + fsMain
}

// generateShaders returns the vertex and fragment shader sources for the
// given program variant; m is only consulted for ShaderMaterials.
func generateShaders(key ProgramKey, m scene.Material) (vs, fs string) {
	b := newShaderBuilder(key)

	switch key.Style {
	case scene.StyleShader:
		sm := m.(*scene.ShaderMaterial)
		for _, name := range util.SortedMapKeys(sm.Defines) {
			b.define(name, sm.Defines[name])
		}
		b.lightDefines()
		b.lightDeclarations()
		return b.sources(sm.VertexShader, sm.FragmentShader)

	case scene.StyleSprite:
		return b.sprite()
	case scene.StyleParticle:
		return b.particle()
	case scene.StyleCanvas2D:
		return b.canvas2D()
	case scene.StyleCube:
		return b.cube()
	default:
		return b.mesh()
	}
}

///////////////////////////////////////////////////////////////////////////
// Meshes, points, lines, depth and distance

func (b *shaderBuilder) mesh() (string, string) {
	k := b.key
	f := k.Features
	style := k.Style

	points := style == scene.StylePoints
	dashed := style == scene.StyleLineDashed
	depth := style == scene.StyleDepth || style == scene.StyleDistance
	lit := k.lit()
	normal := !points && !depth && (lit || f.Has(FeatureEnvMap))
	uvMaps := FeatureMap | FeatureNormalMap | FeatureBumpMap | FeatureSpecularMap | FeatureAOMap |
		FeatureEmissiveMap | FeatureRoughnessMap | FeatureMetalnessMap
	uv := !points && !depth && f&uvMaps != 0

	b.defineIf("USE_NORMAL", normal)
	b.defineIf("USE_UV", uv)
	b.defineIf("USE_MAP", f.Has(FeatureMap) && !depth)
	b.defineIf("USE_NORMALMAP", normal && f.Has(FeatureNormalMap))
	b.defineIf("USE_BUMPMAP", normal && f.Has(FeatureBumpMap))
	b.defineIf("USE_SPECULARMAP", uv && f.Has(FeatureSpecularMap))
	b.defineIf("USE_ENVMAP", normal && f.Has(FeatureEnvMap))
	b.defineIf("USE_AOMAP", lit && uv && f.Has(FeatureAOMap))
	b.defineIf("USE_EMISSIVEMAP", lit && uv && f.Has(FeatureEmissiveMap))
	b.defineIf("USE_ROUGHNESSMAP", uv && f.Has(FeatureRoughnessMap))
	b.defineIf("USE_METALNESSMAP", uv && f.Has(FeatureMetalnessMap))
	b.defineIf("USE_COLOR", f.Has(FeatureVertexColors) && !depth)
	b.defineIf("FLAT_SHADED", normal && f.Has(FeatureFlatShading))
	b.defineIf("PREMULTIPLIED_ALPHA", f.Has(FeaturePremultipliedAlpha))
	b.defineIf("USE_INSTANCING", f.Has(FeatureInstancing))
	b.defineIf("POINTS", points)
	b.defineIf("SIZE_ATTENUATION", points && f.Has(FeatureSizeAttenuation))
	b.defineIf("DASHED", dashed)
	b.defineIf("DEPTH_PACKING", f.Has(FeatureDepthPacking))
	b.skinningDefines()
	b.define("NUM_CLIPPING_PLANES", k.ClippingPlanes)
	b.define("FOG_TYPE", int(util.Select(depth, 0, k.Fog)))
	if lit {
		switch style {
		case scene.StyleLambert:
			b.define("LIGHTING_LAMBERT", "")
		case scene.StylePhong:
			b.define("LIGHTING_PHONG", "")
		default:
			b.define("LIGHTING_PBR", "")
		}
		b.define("USE_LIGHTING", "")
		b.define("USE_EMISSIVE", "")
		b.lightDefines()
	}

	// Vertex shader declarations
	b.attribute("vec3", scene.AttribPosition)
	if normal {
		b.attribute("vec3", scene.AttribNormal)
	}
	if uv {
		b.attribute("vec2", scene.AttribUV)
	}
	if f.Has(FeatureVertexColors) && !depth {
		b.attribute("vec3", scene.AttribColor)
	}
	b.skinningDeclarations()
	if f.Has(FeatureInstancing) {
		b.attribute("vec3", scene.AttribInstanceOffset)
	}
	if dashed {
		b.attribute("float", scene.AttribLineDistance)
		b.vertexUniform("float", "scale")
	}
	b.vertexUniform("mat4", "u_Projection")
	b.vertexUniform("mat4", "u_View")
	b.vertexUniform("mat4", "u_Model")
	if uv {
		b.vertexUniform("mat3", "uvTransform")
	}
	if points {
		b.vertexUniform("float", "u_PointSize")
		if f.Has(FeatureSizeAttenuation) {
			b.vertexUniform("float", "u_PointScale")
		}
	}

	// Fragment shader declarations
	if k.ClippingPlanes > 0 {
		b.fragmentUniform("vec4", "clippingPlanes[NUM_CLIPPING_PLANES]")
	}
	switch style {
	case scene.StyleDepth:
		b.fragmentUniform("float", "u_Opacity")
		return b.sources(meshVertexMain, depthFunctions+depthFragmentMain)

	case scene.StyleDistance:
		b.fragmentUniform("vec3", "referencePosition")
		b.fragmentUniform("float", "nearDistance")
		b.fragmentUniform("float", "farDistance")
		return b.sources(meshVertexMain, depthFunctions+distanceFragmentMain)
	}

	b.fragmentUniform("vec3", "u_Color")
	b.fragmentUniform("float", "u_Opacity")
	if f.Has(FeatureMap) {
		b.fragmentUniform("sampler2D", "map")
	}
	if dashed {
		b.fragmentUniform("float", "dashSize")
		b.fragmentUniform("float", "totalSize")
	}
	if uv && f.Has(FeatureSpecularMap) {
		b.fragmentUniform("sampler2D", "specularMap")
	}
	if normal && f.Has(FeatureNormalMap) {
		b.fragmentUniform("sampler2D", "normalMap")
	}
	if normal && f.Has(FeatureBumpMap) {
		b.fragmentUniform("sampler2D", "bumpMap")
		b.fragmentUniform("float", "bumpScale")
	}
	if lit || (normal && f.Has(FeatureEnvMap)) {
		b.fragmentUniform("vec3", "u_CameraPosition")
	}
	if normal && f.Has(FeatureEnvMap) {
		b.fragmentUniform("samplerCube", "envMap")
		b.fragmentUniform("float", "u_EnvMap_Intensity")
	}
	if lit {
		b.fragmentUniform("vec3", "emissive")
		if uv && f.Has(FeatureEmissiveMap) {
			b.fragmentUniform("sampler2D", "emissiveMap")
		}
		if uv && f.Has(FeatureAOMap) {
			b.fragmentUniform("sampler2D", "aoMap")
			b.fragmentUniform("float", "aoMapIntensity")
		}
		switch style {
		case scene.StylePhong:
			b.fragmentUniform("float", "u_Specular")
			b.fragmentUniform("vec4", "u_SpecularColor")
		case scene.StylePBR:
			b.fragmentUniform("float", "u_Roughness")
			b.fragmentUniform("float", "u_Metalness")
			if uv && f.Has(FeatureRoughnessMap) {
				b.fragmentUniform("sampler2D", "roughnessMap")
			}
			if uv && f.Has(FeatureMetalnessMap) {
				b.fragmentUniform("sampler2D", "metalnessMap")
			}
		}
		b.lightDeclarations()
	}
	b.fogDeclarations()

	var fsBody strings.Builder
	fsBody.WriteString(meshFragmentInputs)
	if normal {
		fsBody.WriteString(normalFunctions)
	}
	if lit {
		if k.Shadows != [numLightTypes]int{} {
			fsBody.WriteString(depthFunctions)
			fsBody.WriteString(shadowFunctions)
		}
		fsBody.WriteString(lightingFunctions)
	}
	fsBody.WriteString(meshFragmentMain)

	return b.sources(meshVertexMain, fsBody.String())
}

func (b *shaderBuilder) skinningDefines() {
	if b.key.Bones == 0 {
		return
	}
	b.define("USE_SKINNING", "")
	if b.key.BoneTexture {
		b.define("BONE_TEXTURE", "")
	} else {
		b.define("MAX_BONES", b.key.Bones)
	}
}

func (b *shaderBuilder) skinningDeclarations() {
	if b.key.Bones == 0 {
		return
	}
	b.attribute("vec4", scene.AttribSkinIndex)
	b.attribute("vec4", scene.AttribSkinWeight)
	if b.key.BoneTexture {
		b.vertexUniform("sampler2D", "boneTexture")
		b.vertexUniform("int", "boneTextureSize")
	} else {
		b.vertexUniform("mat4", "boneMatrices[MAX_BONES]")
	}
}

func (b *shaderBuilder) lightDefines() {
	if !b.key.lit() {
		return
	}
	l, s := b.key.Lights, b.key.Shadows
	b.define("NUM_DIR_LIGHTS", l[lightsDirectional])
	b.define("NUM_POINT_LIGHTS", l[lightsPoint])
	b.define("NUM_SPOT_LIGHTS", l[lightsSpot])
	b.define("NUM_DIR_SHADOWS", s[lightsDirectional])
	b.define("NUM_POINT_SHADOWS", s[lightsPoint])
	b.define("NUM_SPOT_SHADOWS", s[lightsSpot])
}

// lightDeclarations declares the light struct arrays and shadow maps in
// the fragment shader.
func (b *shaderBuilder) lightDeclarations() {
	if !b.key.lit() {
		return
	}
	l, s := b.key.Lights, b.key.Shadows

	b.fragmentUniform("vec3", "u_AmbientLightColor")
	if l[lightsDirectional] > 0 {
		b.fs.WriteString(directionalLightStruct)
		b.fragmentUniform("DirectionalLight", "u_Directional[NUM_DIR_LIGHTS]")
	}
	if l[lightsPoint] > 0 {
		b.fs.WriteString(pointLightStruct)
		b.fragmentUniform("PointLight", "u_Point[NUM_POINT_LIGHTS]")
	}
	if l[lightsSpot] > 0 {
		b.fs.WriteString(spotLightStruct)
		b.fragmentUniform("SpotLight", "u_Spot[NUM_SPOT_LIGHTS]")
	}
	if s[lightsDirectional] > 0 {
		b.fragmentUniform("sampler2D", "directionalShadowMap[NUM_DIR_SHADOWS]")
		b.fragmentUniform("mat4", "directionalShadowMatrix[NUM_DIR_SHADOWS]")
	}
	if s[lightsPoint] > 0 {
		b.fragmentUniform("samplerCube", "pointShadowMap[NUM_POINT_SHADOWS]")
	}
	if s[lightsSpot] > 0 {
		b.fragmentUniform("sampler2D", "spotShadowMap[NUM_SPOT_SHADOWS]")
		b.fragmentUniform("mat4", "spotShadowMatrix[NUM_SPOT_SHADOWS]")
	}
}

func (b *shaderBuilder) fogDeclarations() {
	switch b.key.Fog {
	case scene.FogLinear:
		b.fragmentUniform("vec3", "u_FogColor")
		b.fragmentUniform("float", "u_FogNear")
		b.fragmentUniform("float", "u_FogFar")
	case scene.FogExp2:
		b.fragmentUniform("vec3", "u_FogColor")
		b.fragmentUniform("float", "u_FogDensity")
	}
}

const directionalLightStruct = `struct DirectionalLight {
	vec3 direction;
	vec3 color;
	float intensity;
	int shadow;
	float shadowBias;
	float shadowRadius;
	vec2 shadowMapSize;
};
`

const pointLightStruct = `struct PointLight {
	vec3 position;
	vec3 color;
	float intensity;
	float distance;
	float decay;
	int shadow;
	float shadowBias;
	float shadowRadius;
	vec2 shadowMapSize;
	float shadowCameraNear;
	float shadowCameraFar;
};
`

const spotLightStruct = `struct SpotLight {
	vec3 position;
	vec3 direction;
	vec3 color;
	float intensity;
	float distance;
	float decay;
	float coneCos;
	float penumbraCos;
	int shadow;
	float shadowBias;
	float shadowRadius;
	vec2 shadowMapSize;
};
`

const meshVertexMain = `
out vec3 vWorldPosition;
out float vViewDepth;
#ifdef USE_NORMAL
out vec3 vNormal;
#endif
#ifdef USE_UV
out vec2 vUv;
#endif
#ifdef USE_COLOR
out vec3 vColor;
#endif
#ifdef DASHED
out float vLineDistance;
#endif

#ifdef USE_SKINNING
#ifdef BONE_TEXTURE
// Each bone matrix is stored as four consecutive RGBA texels in a row.
mat4 getBoneMatrix(float i) {
	int j = int(i) * 4;
	ivec2 p = ivec2(j % boneTextureSize, j / boneTextureSize);
	return mat4(texelFetch(boneTexture, p, 0), texelFetch(boneTexture, p + ivec2(1, 0), 0),
		texelFetch(boneTexture, p + ivec2(2, 0), 0), texelFetch(boneTexture, p + ivec2(3, 0), 0));
}
#else
mat4 getBoneMatrix(float i) {
	return boneMatrices[int(i)];
}
#endif
#endif

void main() {
	vec4 position = vec4(a_Position, 1.0);
#ifdef USE_NORMAL
	vec3 normal = a_Normal;
#endif
#ifdef USE_SKINNING
	mat4 skin = skinWeight.x * getBoneMatrix(skinIndex.x) + skinWeight.y * getBoneMatrix(skinIndex.y) +
		skinWeight.z * getBoneMatrix(skinIndex.z) + skinWeight.w * getBoneMatrix(skinIndex.w);
	position = skin * position;
#ifdef USE_NORMAL
	normal = mat3(skin) * normal;
#endif
#endif
#ifdef USE_INSTANCING
	position.xyz += instanceOffset;
#endif
	vec4 worldPosition = u_Model * position;
	vec4 viewPosition = u_View * worldPosition;
	gl_Position = u_Projection * viewPosition;
	vWorldPosition = worldPosition.xyz;
	vViewDepth = -viewPosition.z;
#ifdef USE_NORMAL
	vNormal = normalize(mat3(u_Model) * normal);
#endif
#ifdef USE_UV
	vUv = (uvTransform * vec3(a_Uv, 1.0)).xy;
#endif
#ifdef USE_COLOR
	vColor = a_Color;
#endif
#ifdef DASHED
	vLineDistance = scale * lineDistance;
#endif
#ifdef POINTS
#ifdef SIZE_ATTENUATION
	gl_PointSize = u_PointSize * (u_PointScale / max(-viewPosition.z, 1e-4));
#else
	gl_PointSize = u_PointSize;
#endif
#endif
}
`

const normalFunctions = `
vec3 perturbNormal(vec3 surfPos, vec3 surfNorm, vec3 mapN, vec2 uv) {
	vec3 q0 = dFdx(surfPos);
	vec3 q1 = dFdy(surfPos);
	vec2 st0 = dFdx(uv);
	vec2 st1 = dFdy(uv);
	vec3 S = normalize(q0 * st1.t - q1 * st0.t);
	vec3 T = normalize(-q0 * st1.s + q1 * st0.s);
	return normalize(mat3(S, T, surfNorm) * mapN);
}

#ifdef USE_BUMPMAP
vec3 bumpNormal(vec3 surfPos, vec3 surfNorm, vec2 uv) {
	vec2 dSTdx = dFdx(uv);
	vec2 dSTdy = dFdy(uv);
	float Hll = bumpScale * texture(bumpMap, uv).x;
	float dBx = bumpScale * texture(bumpMap, uv + dSTdx).x - Hll;
	float dBy = bumpScale * texture(bumpMap, uv + dSTdy).x - Hll;
	vec3 sigmaX = dFdx(surfPos);
	vec3 sigmaY = dFdy(surfPos);
	vec3 R1 = cross(sigmaY, surfNorm);
	vec3 R2 = cross(surfNorm, sigmaX);
	float det = dot(sigmaX, R1);
	vec3 grad = sign(det) * (dBx * R1 + dBy * R2);
	return normalize(abs(det) * surfNorm - grad);
}
#endif
`

const depthFunctions = `
vec4 packDepth(float v) {
	vec4 r = fract(v * vec4(1.0, 255.0, 65025.0, 16581375.0));
	r.xyz -= r.yzw / 255.0;
	return r;
}

float unpackDepth(vec4 v) {
	return dot(v, vec4(1.0, 1.0 / 255.0, 1.0 / 65025.0, 1.0 / 16581375.0));
}
`

const shadowFunctions = `
// Percentage-closer filtered lookup into a packed depth shadow map.
float shadowFactor(sampler2D map, vec4 coord, float bias, float radius, vec2 size) {
	vec3 c = coord.xyz / coord.w;
	c.z += bias;
	if (c.x < 0.0 || c.x > 1.0 || c.y < 0.0 || c.y > 1.0 || c.z > 1.0) {
		return 1.0;
	}
	vec2 texel = radius / max(size, vec2(1.0));
	float lit = 0.0;
	for (int x = -1; x <= 1; x++) {
		for (int y = -1; y <= 1; y++) {
			lit += step(c.z, unpackDepth(texture(map, c.xy + vec2(x, y) * texel)));
		}
	}
	return lit / 9.0;
}

float pointShadowFactor(samplerCube map, vec3 dir, float near, float far, float bias) {
	float d = (length(dir) - near) / max(far - near, 1e-4) + bias;
	return step(d, unpackDepth(texture(map, dir)));
}
`

const lightingFunctions = `
const float PI = 3.14159265359;
float gRoughness = 1.0;
float gMetalness = 0.0;

float distanceFalloff(float d, float cutoff, float decay) {
	if (cutoff > 0.0 && decay > 0.0) {
		return pow(clamp(1.0 - d / cutoff, 0.0, 1.0), decay);
	}
	return 1.0;
}

vec3 brdf(vec3 L, vec3 N, vec3 V, vec3 radiance, vec3 diffuseColor, float specularStrength) {
	float NdotL = max(dot(N, L), 0.0);
	vec3 irradiance = radiance * NdotL;
#if defined(LIGHTING_LAMBERT)
	return irradiance * diffuseColor;
#elif defined(LIGHTING_PHONG)
	vec3 H = normalize(L + V);
	float spec = pow(max(dot(N, H), 0.0), u_Specular);
	return irradiance * (diffuseColor + u_SpecularColor.rgb * spec * specularStrength);
#else
	vec3 H = normalize(L + V);
	float a = max(gRoughness * gRoughness, 1e-3);
	float a2 = a * a;
	float NdotH = max(dot(N, H), 0.0);
	float NdotV = max(dot(N, V), 1e-4);
	float dd = NdotH * NdotH * (a2 - 1.0) + 1.0;
	float D = a2 / (PI * dd * dd);
	float k = a / 2.0;
	float G = (NdotL / (NdotL * (1.0 - k) + k)) * (NdotV / (NdotV * (1.0 - k) + k));
	vec3 F0 = mix(vec3(0.04), diffuseColor, gMetalness);
	vec3 F = F0 + (1.0 - F0) * pow(1.0 - max(dot(H, V), 0.0), 5.0);
	vec3 specular = D * G * F / max(4.0 * NdotL * NdotV, 1e-4);
	vec3 kd = (1.0 - F) * (1.0 - gMetalness);
	return irradiance * (kd * diffuseColor + PI * specular * specularStrength);
#endif
}

vec3 lighting(vec3 N, vec3 V, vec3 diffuseColor, float specularStrength, float ao) {
	vec3 total = u_AmbientLightColor * diffuseColor * ao;
#if NUM_DIR_LIGHTS > 0
	int dirShadow = 0;
	for (int i = 0; i < NUM_DIR_LIGHTS; i++) {
		float shadow = 1.0;
#if NUM_DIR_SHADOWS > 0
		if (u_Directional[i].shadow != 0 && dirShadow < NUM_DIR_SHADOWS) {
			shadow = shadowFactor(directionalShadowMap[dirShadow],
				directionalShadowMatrix[dirShadow] * vec4(vWorldPosition, 1.0), u_Directional[i].shadowBias,
				u_Directional[i].shadowRadius, u_Directional[i].shadowMapSize);
			dirShadow++;
		}
#endif
		vec3 radiance = u_Directional[i].color * u_Directional[i].intensity;
		total += shadow * brdf(-u_Directional[i].direction, N, V, radiance, diffuseColor, specularStrength);
	}
#endif
#if NUM_POINT_LIGHTS > 0
	int pointShadow = 0;
	for (int i = 0; i < NUM_POINT_LIGHTS; i++) {
		vec3 toLight = u_Point[i].position - vWorldPosition;
		float d = length(toLight);
		float shadow = 1.0;
#if NUM_POINT_SHADOWS > 0
		if (u_Point[i].shadow != 0 && pointShadow < NUM_POINT_SHADOWS) {
			shadow = pointShadowFactor(pointShadowMap[pointShadow], -toLight, u_Point[i].shadowCameraNear,
				u_Point[i].shadowCameraFar, u_Point[i].shadowBias);
			pointShadow++;
		}
#endif
		vec3 radiance = u_Point[i].color * u_Point[i].intensity *
			distanceFalloff(d, u_Point[i].distance, u_Point[i].decay);
		total += shadow * brdf(toLight / max(d, 1e-4), N, V, radiance, diffuseColor, specularStrength);
	}
#endif
#if NUM_SPOT_LIGHTS > 0
	int spotShadow = 0;
	for (int i = 0; i < NUM_SPOT_LIGHTS; i++) {
		vec3 toLight = u_Spot[i].position - vWorldPosition;
		float d = length(toLight);
		vec3 L = toLight / max(d, 1e-4);
		float cone = smoothstep(u_Spot[i].coneCos, u_Spot[i].penumbraCos, dot(L, -u_Spot[i].direction));
		float shadow = 1.0;
#if NUM_SPOT_SHADOWS > 0
		if (u_Spot[i].shadow != 0 && spotShadow < NUM_SPOT_SHADOWS) {
			shadow = shadowFactor(spotShadowMap[spotShadow], spotShadowMatrix[spotShadow] * vec4(vWorldPosition, 1.0),
				u_Spot[i].shadowBias, u_Spot[i].shadowRadius, u_Spot[i].shadowMapSize);
			spotShadow++;
		}
#endif
		vec3 radiance = u_Spot[i].color * u_Spot[i].intensity * cone *
			distanceFalloff(d, u_Spot[i].distance, u_Spot[i].decay);
		total += shadow * brdf(L, N, V, radiance, diffuseColor, specularStrength);
	}
#endif
	return total;
}
`

const meshFragmentInputs = `
in vec3 vWorldPosition;
in float vViewDepth;
#ifdef USE_NORMAL
in vec3 vNormal;
#endif
#ifdef USE_UV
in vec2 vUv;
#endif
#ifdef USE_COLOR
in vec3 vColor;
#endif
#ifdef DASHED
in float vLineDistance;
#endif
out vec4 fragColor;
`

const meshFragmentMain = `
void main() {
#if NUM_CLIPPING_PLANES > 0
	for (int i = 0; i < NUM_CLIPPING_PLANES; i++) {
		if (dot(vec4(vWorldPosition, 1.0), clippingPlanes[i]) < 0.0) {
			discard;
		}
	}
#endif
#ifdef DASHED
	if (mod(vLineDistance, totalSize) > dashSize) {
		discard;
	}
#endif

	vec3 diffuseColor = u_Color;
	float alpha = u_Opacity;
#ifdef USE_MAP
#ifdef POINTS
	vec4 texel = texture(map, vec2(gl_PointCoord.x, 1.0 - gl_PointCoord.y));
#else
	vec4 texel = texture(map, vUv);
#endif
	diffuseColor *= texel.rgb;
	alpha *= texel.a;
#endif
#ifdef USE_COLOR
	diffuseColor *= vColor;
#endif

	float specularStrength = 1.0;
#ifdef USE_SPECULARMAP
	specularStrength = texture(specularMap, vUv).r;
#endif

#ifdef USE_NORMAL
	vec3 N = normalize(vNormal);
#ifdef FLAT_SHADED
	N = normalize(cross(dFdx(vWorldPosition), dFdy(vWorldPosition)));
#endif
	N = gl_FrontFacing ? N : -N;
#ifdef USE_NORMALMAP
	N = perturbNormal(vWorldPosition, N, texture(normalMap, vUv).xyz * 2.0 - 1.0, vUv);
#endif
#ifdef USE_BUMPMAP
	N = bumpNormal(vWorldPosition, N, vUv);
#endif
#endif

	vec3 outgoing = diffuseColor;
#ifdef USE_LIGHTING
#ifdef LIGHTING_PBR
	gRoughness = u_Roughness;
	gMetalness = u_Metalness;
#ifdef USE_ROUGHNESSMAP
	gRoughness *= texture(roughnessMap, vUv).g;
#endif
#ifdef USE_METALNESSMAP
	gMetalness *= texture(metalnessMap, vUv).b;
#endif
#endif
	float ao = 1.0;
#ifdef USE_AOMAP
	ao = (texture(aoMap, vUv).r - 1.0) * aoMapIntensity + 1.0;
#endif
	outgoing = lighting(N, normalize(u_CameraPosition - vWorldPosition), diffuseColor, specularStrength, ao);
#endif
#ifdef USE_EMISSIVE
	vec3 totalEmissive = emissive;
#ifdef USE_EMISSIVEMAP
	totalEmissive *= texture(emissiveMap, vUv).rgb;
#endif
	outgoing += totalEmissive;
#endif
#ifdef USE_ENVMAP
	vec3 R = reflect(normalize(vWorldPosition - u_CameraPosition), N);
	vec3 envColor = texture(envMap, vec3(-R.x, R.yz)).rgb;
	outgoing = mix(outgoing, outgoing * envColor, clamp(u_EnvMap_Intensity * specularStrength, 0.0, 1.0));
#endif

	fragColor = vec4(outgoing, alpha);
#if FOG_TYPE == 1
	fragColor.rgb = mix(fragColor.rgb, u_FogColor, smoothstep(u_FogNear, u_FogFar, vViewDepth));
#elif FOG_TYPE == 2
	float fogFactor = 1.0 - exp(-u_FogDensity * u_FogDensity * vViewDepth * vViewDepth);
	fragColor.rgb = mix(fragColor.rgb, u_FogColor, clamp(fogFactor, 0.0, 1.0));
#endif
#ifdef PREMULTIPLIED_ALPHA
	fragColor.rgb *= fragColor.a;
#endif
}
`

const depthClip = `
#if NUM_CLIPPING_PLANES > 0
	for (int i = 0; i < NUM_CLIPPING_PLANES; i++) {
		if (dot(vec4(vWorldPosition, 1.0), clippingPlanes[i]) < 0.0) {
			discard;
		}
	}
#endif
`

const depthFragmentMain = `
in vec3 vWorldPosition;
out vec4 fragColor;

void main() {` + depthClip + `
#ifdef DEPTH_PACKING
	fragColor = packDepth(gl_FragCoord.z);
#else
	fragColor = vec4(vec3(1.0 - gl_FragCoord.z), u_Opacity);
#endif
}
`

const distanceFragmentMain = `
in vec3 vWorldPosition;
out vec4 fragColor;

void main() {` + depthClip + `
	float d = (length(vWorldPosition - referencePosition) - nearDistance) / max(farDistance - nearDistance, 1e-4);
	fragColor = packDepth(clamp(d, 0.0, 1.0));
}
`

///////////////////////////////////////////////////////////////////////////
// Cube

func (b *shaderBuilder) cube() (string, string) {
	b.attribute("vec3", scene.AttribPosition)
	b.vertexUniform("mat4", "u_Projection")
	b.vertexUniform("mat4", "u_View")
	b.vertexUniform("mat4", "u_Model")
	b.fragmentUniform("samplerCube", "cubeMap")
	b.fragmentUniform("float", "u_Opacity")
	return b.sources(cubeVertexMain, cubeFragmentMain)
}

const cubeVertexMain = `
out vec3 vDirection;

void main() {
	vDirection = (u_Model * vec4(a_Position, 0.0)).xyz;
	// Drop the view translation and place the box at the far plane.
	vec4 p = u_Projection * mat4(mat3(u_View)) * u_Model * vec4(a_Position, 1.0);
	gl_Position = p.xyww;
}
`

const cubeFragmentMain = `
in vec3 vDirection;
out vec4 fragColor;

void main() {
	fragColor = vec4(texture(cubeMap, vec3(-vDirection.x, vDirection.yz)).rgb, u_Opacity);
}
`

///////////////////////////////////////////////////////////////////////////
// Sprites

func (b *shaderBuilder) sprite() (string, string) {
	b.defineIf("USE_MAP", b.key.Features.Has(FeatureMap))

	b.attribute("vec3", scene.AttribPosition)
	b.attribute("vec2", scene.AttribUV)
	b.vertexUniform("mat4", "projectionMatrix")
	b.vertexUniform("mat4", "viewMatrix")
	b.vertexUniform("mat4", "modelMatrix")
	b.vertexUniform("float", "rotation")
	b.vertexUniform("vec2", "scale")
	b.vertexUniform("vec2", "uvOffset")
	b.vertexUniform("vec2", "uvScale")

	b.fragmentUniform("vec3", "color")
	b.fragmentUniform("float", "opacity")
	b.fragmentUniform("float", "alphaTest")
	if b.key.Features.Has(FeatureMap) {
		b.fragmentUniform("sampler2D", "map")
	}
	b.fragmentUniform("int", "fogType")
	b.fragmentUniform("vec3", "fogColor")
	b.fragmentUniform("float", "fogNear")
	b.fragmentUniform("float", "fogFar")
	b.fragmentUniform("float", "fogDensity")

	return b.sources(spriteVertexMain, spriteFragmentMain)
}

const spriteVertexMain = `
out vec2 vUv;
out float vViewDepth;

void main() {
	vUv = uvOffset + a_Uv * uvScale;
	vec2 aligned = a_Position.xy * scale;
	vec2 rotated = vec2(cos(rotation) * aligned.x - sin(rotation) * aligned.y,
		sin(rotation) * aligned.x + cos(rotation) * aligned.y);
	vec4 viewPosition = viewMatrix * modelMatrix * vec4(0.0, 0.0, 0.0, 1.0);
	viewPosition.xy += rotated;
	vViewDepth = -viewPosition.z;
	gl_Position = projectionMatrix * viewPosition;
}
`

const spriteFragmentMain = `
in vec2 vUv;
in float vViewDepth;
out vec4 fragColor;

void main() {
	vec4 texel = vec4(1.0);
#ifdef USE_MAP
	texel = texture(map, vUv);
#endif
	fragColor = vec4(color * texel.rgb, texel.a * opacity);
	if (fragColor.a < alphaTest) {
		discard;
	}
	if (fogType > 0) {
		float fogFactor;
		if (fogType == 1) {
			fogFactor = smoothstep(fogNear, fogFar, vViewDepth);
		} else {
			fogFactor = 1.0 - clamp(exp(-fogDensity * fogDensity * vViewDepth * vViewDepth), 0.0, 1.0);
		}
		fragColor = mix(fragColor, vec4(fogColor, fragColor.a), fogFactor);
	}
}
`

///////////////////////////////////////////////////////////////////////////
// Particles

func (b *shaderBuilder) particle() (string, string) {
	colors := b.key.Features.Has(FeatureVertexColors)
	b.defineIf("USE_COLOR", colors)

	b.attribute("vec3", scene.AttribPosition)
	if colors {
		b.attribute("vec3", scene.AttribColor)
	}
	b.vertexUniform("mat4", "u_Projection")
	b.vertexUniform("mat4", "u_View")
	b.vertexUniform("mat4", "u_Model")
	b.vertexUniform("float", "uTime")
	b.vertexUniform("float", "uScale")
	b.vertexUniform("sampler2D", "tNoise")
	b.fragmentUniform("sampler2D", "tSprite")

	return b.sources(particleVertexMain, particleFragmentMain)
}

const particleVertexMain = `
out vec4 vColor;

void main() {
	vec2 noiseUv = fract(a_Position.xy * 0.1 + vec2(uTime * 0.01));
	vec3 drift = texture(tNoise, noiseUv).rgb - 0.5;
	vec4 viewPosition = u_View * u_Model * vec4(a_Position + drift * uTime, 1.0);
	gl_Position = u_Projection * viewPosition;
	gl_PointSize = uScale * 100.0 / max(-viewPosition.z, 1e-4);
	vColor = vec4(1.0, 1.0, 1.0, clamp(1.0 - length(drift), 0.0, 1.0));
#ifdef USE_COLOR
	vColor.rgb = a_Color;
#endif
}
`

const particleFragmentMain = `
in vec4 vColor;
out vec4 fragColor;

void main() {
	fragColor = texture(tSprite, gl_PointCoord) * vColor;
}
`

///////////////////////////////////////////////////////////////////////////
// Canvas2D

func (b *shaderBuilder) canvas2D() (string, string) {
	b.attribute("vec3", scene.AttribPosition)
	b.attribute("vec2", scene.AttribUV)
	b.vertexUniform("mat4", "u_Projection")
	b.vertexUniform("mat4", "u_View")
	b.vertexUniform("mat4", "u_Model")
	b.fragmentUniform("sampler2D", "spriteTexture")
	b.fragmentUniform("float", "u_Opacity")
	return b.sources(canvasVertexMain, canvasFragmentMain)
}

const canvasVertexMain = `
out vec2 vUv;

void main() {
	vUv = a_Uv;
	gl_Position = u_Projection * u_View * u_Model * vec4(a_Position, 1.0);
}
`

const canvasFragmentMain = `
in vec2 vUv;
out vec4 fragColor;

void main() {
	fragColor = texture(spriteTexture, vUv);
	fragColor.a *= u_Opacity;
}
`
