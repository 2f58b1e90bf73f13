// pkg/render/properties_test.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"slices"
	"testing"

	"github.com/mmp/scenegl/pkg/scene"
)

type testDeleter struct {
	buffers, textures []uint32
}

func (d *testDeleter) DeleteBuffer(id uint32)  { d.buffers = append(d.buffers, id) }
func (d *testDeleter) DeleteTexture(id uint32) { d.textures = append(d.textures, id) }

func TestPropertiesAcquire(t *testing.T) {
	var del testDeleter
	p := NewProperties(&del)

	var a, b scene.Resource
	ra, created := p.Acquire(&a)
	if !created || ra == nil {
		t.Fatalf("first Acquire didn't create a record")
	}
	if r, created := p.Acquire(&a); created || r != ra {
		t.Errorf("second Acquire returned a different record")
	}
	rb, _ := p.Acquire(&b)
	if rb == ra || p.Len() != 2 {
		t.Errorf("got %d records, expected 2 distinct", p.Len())
	}
	if p.Get(a.Handle()) != ra || p.Get(scene.Handle{}) != nil {
		t.Errorf("Get doesn't match Acquire")
	}
}

func TestPropertiesStaleHandles(t *testing.T) {
	var del testDeleter
	p := NewProperties(&del)

	var a, b scene.Resource
	ra, _ := p.Acquire(&a)
	ra.Buffer, ra.Texture = 7, 9
	old := a.Handle()

	a.Dispose()
	if !slices.Equal(del.buffers, []uint32{7}) || !slices.Equal(del.textures, []uint32{9}) {
		t.Errorf("got deleted buffers %v textures %v, expected [7] [9]", del.buffers, del.textures)
	}
	if p.Len() != 0 || a.Handle().Valid() {
		t.Errorf("record still live after dispose")
	}

	// b reuses a's slot with a new generation, so a's old handle doesn't
	// resolve to it.
	rb, _ := p.Acquire(&b)
	if h := b.Handle(); h.Index != old.Index || h.Generation == old.Generation {
		t.Errorf("got handle %v, expected slot %d reused with a new generation", h, old.Index)
	}
	if p.Get(old) != nil {
		t.Errorf("stale handle resolved")
	}
	if rb.Buffer != 0 || rb.State != Unuploaded {
		t.Errorf("reused record not cleared: %+v", rb)
	}

	// Releasing a stale handle doesn't touch the new record.
	p.Release(old)
	if p.Get(b.Handle()) != rb {
		t.Errorf("stale release freed the new record")
	}
}

func TestPropertiesReset(t *testing.T) {
	var del testDeleter
	p := NewProperties(&del)

	var a scene.Resource
	r, _ := p.Acquire(&a)
	r.Buffer, r.State, r.Version = 3, Uploaded, 5

	p.Reset(r)
	if p.Get(a.Handle()) != r || r.Buffer != 0 || r.State != Unuploaded || r.Version != 0 {
		t.Errorf("got %+v after Reset", r)
	}
	if !slices.Equal(del.buffers, []uint32{3}) {
		t.Errorf("got deleted buffers %v, expected [3]", del.buffers)
	}

	var b, c scene.Resource
	p.Acquire(&b)
	p.Acquire(&c)
	p.ReleaseAll()
	if p.Len() != 0 || p.Get(b.Handle()) != nil {
		t.Errorf("got %d records after ReleaseAll", p.Len())
	}
}
