// pkg/log/log_test.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, c := range []struct {
		s   string
		lvl slog.Level
		ok  bool
	}{
		{"debug", slog.LevelDebug, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	} {
		lvl, err := ParseLevel(c.s)
		if lvl != c.lvl || (err == nil) != c.ok {
			t.Errorf("ParseLevel(%q): got %v, %v; expected %v", c.s, lvl, err, c.lvl)
		}
	}
}

func TestLevelsAndCallstack(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter(&buf, slog.LevelInfo)

	lg.Debug("hidden")
	lg.Infof("compiled %d programs", 3)
	lg.With(slog.String("pass", "opaque")).Warn("texture unit exceeds device limit", slog.Int("unit", 16))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d records, expected 2: %s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "compiled 3 programs" {
		t.Errorf("got message %v", rec["msg"])
	}
	if cs, ok := rec["callstack"].([]any); !ok || len(cs) == 0 {
		t.Errorf("record has no callstack: %v", rec)
	} else if f := cs[0].(map[string]any)["function"]; f != "log.TestLevelsAndCallstack" {
		t.Errorf("got first frame %v, expected log.TestLevelsAndCallstack", f)
	}

	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["pass"] != "opaque" || rec["unit"] != float64(16) {
		t.Errorf("got %v, expected pass and unit attributes", rec)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter(&buf, slog.LevelWarn)
	child := lg.With("component", "render")

	child.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("got %q, expected no output at warn level", buf.String())
	}

	lg.SetLevel(slog.LevelDebug)
	child.Debugf("frame %d", 2)
	if !strings.Contains(buf.String(), `"msg":"frame 2"`) || !strings.Contains(buf.String(), `"component":"render"`) {
		t.Errorf("got %q, expected the debug record from the child logger", buf.String())
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	// None of these may panic.
	lg.Debug("debug")
	lg.Infof("info %d", 1)
	lg.SetLevel(slog.LevelDebug)
	if lg.With("a", 1) != nil {
		t.Errorf("With on a nil Logger returned non-nil")
	}
}
