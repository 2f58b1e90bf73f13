// pkg/util/util_test.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	for _, tc := range []struct{ v, expected int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {29, 32}, {32, 32}, {33, 64}, {1000, 1024},
	} {
		if p := NextPowerOfTwo(tc.v); p != tc.expected {
			t.Errorf("NextPowerOfTwo(%d) got %d, expected %d", tc.v, p, tc.expected)
		}
	}

	if !IsPowerOfTwo(uint32(256)) || IsPowerOfTwo(0) || IsPowerOfTwo(100) {
		t.Errorf("IsPowerOfTwo gave unexpected results")
	}
}

func TestClamp(t *testing.T) {
	if v := Clamp(5, 0, 3); v != 3 {
		t.Errorf("got %d, expected 3", v)
	}
	if v := Clamp(-1.5, 0, 3); v != 0 {
		t.Errorf("got %f, expected 0", v)
	}
	if v := Clamp(2, 0, 3); v != 2 {
		t.Errorf("got %d, expected 2", v)
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	if keys := SortedMapKeys(m); !slices.Equal(keys, []string{"a", "b", "c"}) {
		t.Errorf("got %v, expected [a b c]", keys)
	}
}

func TestReduceMap(t *testing.T) {
	m := map[uint32]int{1: 100, 2: 200, 7: 5}
	total := ReduceMap(m, func(id uint32, bytes int, total int) int { return total + bytes }, 0)
	if total != 305 {
		t.Errorf("got %d, expected 305", total)
	}
}

func TestFilterSlice(t *testing.T) {
	f := FilterSlice([]int{1, 2, 3, 4, 5, 6}, func(v int) bool { return v%2 == 0 })
	if !slices.Equal(f, []int{2, 4, 6}) {
		t.Errorf("got %v, expected [2 4 6]", f)
	}
}

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() || e.Err() != nil {
		t.Errorf("empty ErrorLogger reports errors")
	}

	e.Push("renderer")
	e.Push("precision")
	e.ErrorString("%q: unknown value", "ultra")
	e.Pop()
	e.Error(errors.New("bad MaxPrograms"))
	e.Pop()

	e.ErrorString("top level")

	s := e.String()
	if !strings.HasSuffix(s, "\ntop level") {
		t.Errorf("got %q, expected an error without context after popping everything", s)
	}
	if !strings.Contains(s, `renderer / precision: "ultra": unknown value`) {
		t.Errorf("missing hierarchical context in %q", s)
	}
	if !strings.Contains(s, "renderer: bad MaxPrograms") {
		t.Errorf("missing second error in %q", s)
	}
	if e.Err() == nil {
		t.Errorf("expected non-nil Err()")
	}
}

func TestStoreRetrieveObject(t *testing.T) {
	type payload struct {
		Name  string
		Words []uint32
	}
	path := filepath.Join(t.TempDir(), "sub", "obj.zst")

	in := payload{Name: "frame", Words: []uint32{1, 2, 3, 0xffffffff}}
	if err := StoreObject(path, in); err != nil {
		t.Fatalf("StoreObject: %v", err)
	}

	var out payload
	if err := RetrieveObject(path, &out); err != nil {
		t.Fatalf("RetrieveObject: %v", err)
	}
	if out.Name != in.Name || !slices.Equal(out.Words, in.Words) {
		t.Errorf("got %+v, expected %+v", out, in)
	}

	if err := RetrieveObject(filepath.Join(t.TempDir(), "missing"), &out); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestUnmarshalJSONErrors(t *testing.T) {
	type config struct {
		MaxPrograms int `json:"max_programs"`
	}

	var c config
	err := UnmarshalJSON([]byte("{\n  \"max_programs\": \"many\"\n}"), &c)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("got error %v, expected one naming line 2", err)
	}

	err = UnmarshalJSON([]byte("{\n\n  \"max_programs\": 3,\n}"), &c)
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Errorf("got error %v, expected one naming line 4", err)
	}

	if err := UnmarshalJSON([]byte(`{"max_programs": 3}`), &c); err != nil || c.MaxPrograms != 3 {
		t.Errorf("got %+v, %v; expected MaxPrograms 3", c, err)
	}
}

func TestLoadSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	in := map[string]int{"a": 1, "b": 2}
	if err := SaveJSON(path, in); err != nil {
		t.Fatal(err)
	}

	var out map[string]int
	if err := LoadJSON(path, &out); err != nil || out["a"] != 1 || out["b"] != 2 {
		t.Errorf("got %v, %v; expected %v", out, err, in)
	}
	if err := LoadJSON(filepath.Join(t.TempDir(), "missing.json"), &out); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, expected a not-exist error", err)
	}
}
