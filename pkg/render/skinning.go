// pkg/render/skinning.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	gomath "math"

	"github.com/mmp/scenegl/pkg/scene"
	"github.com/mmp/scenegl/pkg/util"
)

// boneTexture holds the float texture that delivers a skeleton's bone
// matrices to the vertex shader.
type boneTexture struct {
	tex   *scene.DataTexture
	size  int
	data  []float32
	frame uint64
}

// BoneTextureSize returns the width (and height) of the square float
// texture that holds the given number of bone matrices: each matrix takes
// four RGBA texels.
func BoneTextureSize(bones int) int {
	s := int(gomath.Ceil(gomath.Sqrt(float64(4 * bones))))
	return max(4, util.NextPowerOfTwo(s))
}

// skinning maintains bone textures for the skeletons the renderer draws.
type skinning struct {
	textures map[*scene.Skeleton]*boneTexture
}

// boneTexture returns the skeleton's bone texture, with its contents
// updated from the skeleton's current bone matrices once per frame.
func (sk *skinning) boneTexture(s *scene.Skeleton, frame uint64) *boneTexture {
	bt, ok := sk.textures[s]
	if !ok {
		if sk.textures == nil {
			sk.textures = make(map[*scene.Skeleton]*boneTexture)
		}
		bt = &boneTexture{}
		sk.textures[s] = bt
		s.OnDispose(func() { sk.release(s) })
	}

	if bt.tex != nil && bt.frame == frame {
		return bt
	}
	bt.frame = frame

	size := BoneTextureSize(len(s.Bones))
	if size != bt.size {
		bt.size = size
		bt.data = make([]float32, 4*size*size)
	}
	s.BoneMatrices(bt.data[:0])

	if bt.tex == nil {
		bt.tex = scene.NewDataTexture(bt.data, size, size)
	} else {
		bt.tex.SetData(bt.data, size, size)
	}
	return bt
}

func (sk *skinning) release(s *scene.Skeleton) {
	if bt, ok := sk.textures[s]; ok {
		if bt.tex != nil {
			bt.tex.Dispose()
		}
		delete(sk.textures, s)
	}
}

func (sk *skinning) releaseAll() {
	for s := range sk.textures {
		sk.release(s)
	}
}
