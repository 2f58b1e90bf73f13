// pkg/render/stats.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package render

import (
	"fmt"
	"log/slog"

	"github.com/mmp/scenegl/pkg/gpu"
)

// Stats encapsulates assorted statistics from rendering.
type Stats struct {
	Items, SkippedItems             int
	DrawCalls, InstancedDrawCalls   int
	Points, Lines, Triangles        int
	ProgramBinds, ProgramsCompiled  int
	AttributeRewires                int
	BufferUploads, BufferSubUploads int
	BufferBytes                     int
	TextureUploads, TextureBytes    int
}

func (rs *Stats) String() string {
	return fmt.Sprintf("%d items (%d skipped), %d draw calls: %d points, %d lines, %d tris; %d program binds, "+
		"%d buffer uploads (%.2f MB), %d texture uploads (%.2f MB)",
		rs.Items, rs.SkippedItems, rs.DrawCalls, rs.Points, rs.Lines, rs.Triangles, rs.ProgramBinds,
		rs.BufferUploads+rs.BufferSubUploads, float32(rs.BufferBytes)/(1024*1024),
		rs.TextureUploads, float32(rs.TextureBytes)/(1024*1024))
}

func (rs *Stats) Merge(s Stats) {
	rs.Items += s.Items
	rs.SkippedItems += s.SkippedItems
	rs.DrawCalls += s.DrawCalls
	rs.InstancedDrawCalls += s.InstancedDrawCalls
	rs.Points += s.Points
	rs.Lines += s.Lines
	rs.Triangles += s.Triangles
	rs.ProgramBinds += s.ProgramBinds
	rs.ProgramsCompiled += s.ProgramsCompiled
	rs.AttributeRewires += s.AttributeRewires
	rs.BufferUploads += s.BufferUploads
	rs.BufferSubUploads += s.BufferSubUploads
	rs.BufferBytes += s.BufferBytes
	rs.TextureUploads += s.TextureUploads
	rs.TextureBytes += s.TextureBytes
}

// countPrimitives accumulates the number of primitives drawn by a draw
// call of the given mode, vertex count, and instance count.
func (rs *Stats) countPrimitives(mode gpu.Primitive, count, instances int) {
	instances = max(instances, 1)
	switch mode {
	case gpu.Points:
		rs.Points += count * instances
	case gpu.Lines:
		rs.Lines += count / 2 * instances
	case gpu.LineStrip:
		rs.Lines += max(count-1, 0) * instances
	case gpu.LineLoop:
		rs.Lines += count * instances
	case gpu.Triangles:
		rs.Triangles += count / 3 * instances
	case gpu.TriangleStrip, gpu.TriangleFan:
		rs.Triangles += max(count-2, 0) * instances
	}
}

func (rs Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("items", rs.Items),
		slog.Int("skipped_items", rs.SkippedItems),
		slog.Int("draw_calls", rs.DrawCalls),
		slog.Int("instanced_draw_calls", rs.InstancedDrawCalls),
		slog.Int("points_drawn", rs.Points),
		slog.Int("lines", rs.Lines),
		slog.Int("tris", rs.Triangles),
		slog.Int("program_binds", rs.ProgramBinds),
		slog.Int("programs_compiled", rs.ProgramsCompiled),
		slog.Int("attribute_rewires", rs.AttributeRewires),
		slog.Int("buffer_uploads", rs.BufferUploads),
		slog.Int("buffer_sub_uploads", rs.BufferSubUploads),
		slog.Int("buffer_memory", rs.BufferBytes),
		slog.Int("texture_uploads", rs.TextureUploads),
		slog.Int("texture_memory", rs.TextureBytes),
	)
}
