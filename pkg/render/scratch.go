// pkg/render/scratch.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

// scratch holds per-renderer temporaries that are reused from item to
// item so that the per-item uniform upload doesn't allocate.
type scratch struct {
	floats []float32
	ints   []int32
	pixels []byte
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n, max(n, 2*cap(s)))
	}
	return s[:n]
}

// Floats returns a slice of n float32s whose contents are unspecified;
// it's only valid until the next call.
func (s *scratch) Floats(n int) []float32 {
	s.floats = grow(s.floats, n)
	return s.floats
}

func (s *scratch) Ints(n int) []int32 {
	s.ints = grow(s.ints, n)
	return s.ints
}

func (s *scratch) Pixels(n int) []byte {
	s.pixels = grow(s.pixels, n)
	return s.pixels
}
