// pkg/util/json.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// UnmarshalJSON unmarshals the bytes into the given type but reports the
// line and character of syntax and type errors.
func UnmarshalJSON[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		offset = min(offset, int64(len(b)))
		line = 1 + bytes.Count(b[:offset], []byte("\n"))
		char = int(offset) - bytes.LastIndexByte(b[:offset], '\n')
		return
	}

	var serr *json.SyntaxError
	var terr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &serr):
		line, char := decodeOffset(serr.Offset)
		return fmt.Errorf("line %d, character %d: %w", line, char, err)

	case errors.As(err, &terr):
		line, char := decodeOffset(terr.Offset)
		return fmt.Errorf("line %d, character %d: %s value invalid for %s (%s)", line, char, terr.Value,
			terr.Field, terr.Type)

	default:
		return err
	}
}

// LoadJSON reads the named file and unmarshals it into out. It returns
// an error that satisfies errors.Is(err, fs.ErrNotExist) if the file
// doesn't exist.
func LoadJSON[T any](path string, out *T) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := UnmarshalJSON(b, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// SaveJSON writes v to the named file as indented JSON.
func SaveJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
