// pkg/render/diagnostics.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"log/slog"

	"github.com/mmp/scenegl/pkg/log"
)

// DiagnosticKind classifies the non-fatal problems the renderer reports
// while drawing.
type DiagnosticKind int

const (
	// DiagCompile: a program failed to compile; items using it are
	// skipped.
	DiagCompile DiagnosticKind = iota
	// DiagMissingAttribute: the program uses a vertex attribute that the
	// geometry doesn't have.
	DiagMissingAttribute
	// DiagAttributeSize: an attribute's size differs from the program's.
	DiagAttributeSize
	// DiagTextureUnits: more texture units were allocated for an item
	// than the device provides.
	DiagTextureUnits
	// DiagInstancing: instanced geometry on a device without instancing.
	DiagInstancing
	// DiagTextureSize: a texture was resized to fit device limits.
	DiagTextureSize
	NumDiagnosticKinds
)

func (k DiagnosticKind) String() string {
	return [...]string{"compile", "missing attribute", "attribute size", "texture units", "instancing",
		"texture size"}[k]
}

type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Attrs   []slog.Attr
}

func (d Diagnostic) LogValue() slog.Value {
	attrs := append([]slog.Attr{slog.String("kind", d.Kind.String()), slog.String("message", d.Message)},
		d.Attrs...)
	return slog.GroupValue(attrs...)
}

// diagnostics is shared by the renderer's components to report
// diagnostics and keeps a running count of them by kind.
type diagnostics struct {
	lg     *log.Logger
	hook   func(Diagnostic)
	counts [NumDiagnosticKinds]int
}

func (d *diagnostics) report(kind DiagnosticKind, msg string, attrs ...slog.Attr) {
	d.counts[kind]++

	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("kind", kind.String()))
	for _, a := range attrs {
		args = append(args, a)
	}
	if kind == DiagCompile {
		d.lg.Error(msg, args...)
	} else {
		d.lg.Warn(msg, args...)
	}

	if d.hook != nil {
		d.hook(Diagnostic{Kind: kind, Message: msg, Attrs: attrs})
	}
}
