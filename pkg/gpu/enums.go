// pkg/gpu/enums.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gpu

// The enumerants below intentionally carry the same values as their
// OpenGL counterparts so that the GL device can pass them straight
// through.

type Capability uint32

const (
	CapBlend             Capability = 0x0BE2
	CapCullFace          Capability = 0x0B44
	CapDepthTest         Capability = 0x0B71
	CapStencilTest       Capability = 0x0B90
	CapScissorTest       Capability = 0x0C11
	CapPolygonOffsetFill Capability = 0x8037
	CapProgramPointSize  Capability = 0x8642
)

func (c Capability) String() string {
	switch c {
	case CapBlend:
		return "BLEND"
	case CapCullFace:
		return "CULL_FACE"
	case CapDepthTest:
		return "DEPTH_TEST"
	case CapStencilTest:
		return "STENCIL_TEST"
	case CapScissorTest:
		return "SCISSOR_TEST"
	case CapPolygonOffsetFill:
		return "POLYGON_OFFSET_FILL"
	case CapProgramPointSize:
		return "PROGRAM_POINT_SIZE"
	default:
		return "unknown capability"
	}
}

type Face uint32

const (
	FaceFront        Face = 0x0404
	FaceBack         Face = 0x0405
	FaceFrontAndBack Face = 0x0408
)

type Winding uint32

const (
	WindingCW  Winding = 0x0900
	WindingCCW Winding = 0x0901
)

type BlendEquation uint32

const (
	BlendEqAdd             BlendEquation = 0x8006
	BlendEqSubtract        BlendEquation = 0x800A
	BlendEqReverseSubtract BlendEquation = 0x800B
)

type BlendFactor uint32

const (
	BlendZero             BlendFactor = 0
	BlendOne              BlendFactor = 1
	BlendSrcColor         BlendFactor = 0x0300
	BlendOneMinusSrcColor BlendFactor = 0x0301
	BlendSrcAlpha         BlendFactor = 0x0302
	BlendOneMinusSrcAlpha BlendFactor = 0x0303
	BlendDstAlpha         BlendFactor = 0x0304
	BlendOneMinusDstAlpha BlendFactor = 0x0305
	BlendDstColor         BlendFactor = 0x0306
	BlendOneMinusDstColor BlendFactor = 0x0307
)

// CompareFunc is used for both depth and stencil tests.
type CompareFunc uint32

const (
	CompareNever    CompareFunc = 0x0200
	CompareLess     CompareFunc = 0x0201
	CompareEqual    CompareFunc = 0x0202
	CompareLEqual   CompareFunc = 0x0203
	CompareGreater  CompareFunc = 0x0204
	CompareNotEqual CompareFunc = 0x0205
	CompareGEqual   CompareFunc = 0x0206
	CompareAlways   CompareFunc = 0x0207
)

type StencilOp uint32

const (
	StencilKeep     StencilOp = 0x1E00
	StencilZero     StencilOp = 0
	StencilReplace  StencilOp = 0x1E01
	StencilIncr     StencilOp = 0x1E02
	StencilDecr     StencilOp = 0x1E03
	StencilInvert   StencilOp = 0x150A
	StencilIncrWrap StencilOp = 0x8507
	StencilDecrWrap StencilOp = 0x8508
)

type ClearMask uint32

const (
	ClearDepth   ClearMask = 0x00000100
	ClearStencil ClearMask = 0x00000400
	ClearColor   ClearMask = 0x00004000
)

type BufferTarget uint32

const (
	ArrayBuffer        BufferTarget = 0x8892
	ElementArrayBuffer BufferTarget = 0x8893
)

type BufferUsage uint32

const (
	StaticDraw  BufferUsage = 0x88E4
	DynamicDraw BufferUsage = 0x88E8
	StreamDraw  BufferUsage = 0x88E0
)

// ComponentType describes the type of the individual values in vertex,
// index, and pixel data.
type ComponentType uint32

const (
	Byte          ComponentType = 0x1400
	UnsignedByte  ComponentType = 0x1401
	Short         ComponentType = 0x1402
	UnsignedShort ComponentType = 0x1403
	Int           ComponentType = 0x1404
	UnsignedInt   ComponentType = 0x1405
	Float         ComponentType = 0x1406
	HalfFloat     ComponentType = 0x140B
)

// Size returns the size of a single component in bytes.
func (t ComponentType) Size() int {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort, HalfFloat:
		return 2
	case Int, UnsignedInt, Float:
		return 4
	default:
		return 0
	}
}

type TextureTarget uint32

const (
	Texture2D               TextureTarget = 0x0DE1
	TextureCubeMap          TextureTarget = 0x8513
	TextureCubeMapPositiveX TextureTarget = 0x8515
)

// CubeFace returns the target for the i'th face of a cube map, in the
// order +X, -X, +Y, -Y, +Z, -Z.
func CubeFace(i int) TextureTarget {
	return TextureCubeMapPositiveX + TextureTarget(i)
}

type PixelFormat uint32

const (
	DepthComponent PixelFormat = 0x1902
	Alpha          PixelFormat = 0x1906
	RGB            PixelFormat = 0x1907
	RGBA           PixelFormat = 0x1908
	Luminance      PixelFormat = 0x1909
	RGBA32F        PixelFormat = 0x8814
	RGB32F         PixelFormat = 0x8815
)

type TextureParam uint32

const (
	TextureMagFilter     TextureParam = 0x2800
	TextureMinFilter     TextureParam = 0x2801
	TextureWrapS         TextureParam = 0x2802
	TextureWrapT         TextureParam = 0x2803
	TextureMaxAnisotropy TextureParam = 0x84FE
)

type TextureFilter int32

const (
	Nearest              TextureFilter = 0x2600
	Linear               TextureFilter = 0x2601
	NearestMipmapNearest TextureFilter = 0x2700
	LinearMipmapNearest  TextureFilter = 0x2701
	NearestMipmapLinear  TextureFilter = 0x2702
	LinearMipmapLinear   TextureFilter = 0x2703
)

// UsesMipmaps reports whether the filter samples from mip levels.
func (f TextureFilter) UsesMipmaps() bool {
	return f != Nearest && f != Linear
}

type TextureWrap int32

const (
	Repeat         TextureWrap = 0x2901
	ClampToEdge    TextureWrap = 0x812F
	MirroredRepeat TextureWrap = 0x8370
)

type Primitive uint32

const (
	Points        Primitive = 0x0000
	Lines         Primitive = 0x0001
	LineLoop      Primitive = 0x0002
	LineStrip     Primitive = 0x0003
	Triangles     Primitive = 0x0004
	TriangleStrip Primitive = 0x0005
	TriangleFan   Primitive = 0x0006
)

// UniformType is the type of an active uniform or attribute as reported
// by program reflection.
type UniformType uint32

const (
	TypeFloat       UniformType = 0x1406
	TypeInt         UniformType = 0x1404
	TypeBool        UniformType = 0x8B56
	TypeFloatVec2   UniformType = 0x8B50
	TypeFloatVec3   UniformType = 0x8B51
	TypeFloatVec4   UniformType = 0x8B52
	TypeIntVec2     UniformType = 0x8B53
	TypeIntVec3     UniformType = 0x8B54
	TypeIntVec4     UniformType = 0x8B55
	TypeFloatMat2   UniformType = 0x8B5A
	TypeFloatMat3   UniformType = 0x8B5B
	TypeFloatMat4   UniformType = 0x8B5C
	TypeSampler2D   UniformType = 0x8B5E
	TypeSamplerCube UniformType = 0x8B60
)

// Components returns the number of scalar components in a value of the
// given type (e.g., 3 for vec3, 16 for mat4).
func (t UniformType) Components() int {
	switch t {
	case TypeFloat, TypeInt, TypeBool, TypeSampler2D, TypeSamplerCube:
		return 1
	case TypeFloatVec2, TypeIntVec2:
		return 2
	case TypeFloatVec3, TypeIntVec3:
		return 3
	case TypeFloatVec4, TypeIntVec4, TypeFloatMat2:
		return 4
	case TypeFloatMat3:
		return 9
	case TypeFloatMat4:
		return 16
	default:
		return 0
	}
}

// IsSampler reports whether the type is one of the sampler types.
func (t UniformType) IsSampler() bool {
	return t == TypeSampler2D || t == TypeSamplerCube
}

// Param identifies a device limit that can be queried with GetInteger.
type Param uint32

const (
	MaxTextureImageUnits         Param = 0x8872
	MaxVertexTextureImageUnits   Param = 0x8B4C
	MaxCombinedTextureImageUnits Param = 0x8B4D
	MaxTextureSize               Param = 0x0D33
	MaxCubeMapTextureSize        Param = 0x851C
	MaxVertexAttribs             Param = 0x8869
	MaxVertexUniformVectors      Param = 0x8DFB
	MaxFragmentUniformVectors    Param = 0x8DFD
	MaxTextureMaxAnisotropy      Param = 0x84FF
)
