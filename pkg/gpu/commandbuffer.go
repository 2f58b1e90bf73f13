// pkg/gpu/commandbuffer.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gpu

import (
	"fmt"
	gomath "math"
	"sync"
	"unsafe"
)

// Opcode identifies a device call stored in a CommandBuffer.
type Opcode uint32

// Each command in a CommandBuffer is stored as its opcode, the number of
// argument words n, and then n words of arguments. Comments after each
// opcode briefly describe its arguments. Variable-length payloads (buffer
// and pixel data, uniform arrays) are stored inline as a byte count
// followed by the bytes packed into (count+3)/4 words; strings are stored
// as an index into CommandBuffer.Strings.
const (
	OpEnable                  Opcode = iota // capability
	OpDisable                               // capability
	OpCullFace                              // face
	OpFrontFace                             // winding
	OpBlendEquationSeparate                 // rgb, alpha
	OpBlendFuncSeparate                     // srcRGB, dstRGB, srcAlpha, dstAlpha
	OpDepthFunc                             // func
	OpDepthMask                             // bool
	OpColorMask                             // 4 bools
	OpStencilFunc                           // func, ref, mask
	OpStencilOp                             // fail, zfail, zpass
	OpStencilMask                           // mask
	OpViewport                              // 4 int32: x, y, width, height
	OpScissor                               // 4 int32: x, y, width, height
	OpLineWidth                             // float32
	OpPolygonOffset                         // 2 float32: factor, units
	OpClearColor                            // 4 float32: RGBA
	OpClearDepth                            // float32
	OpClearStencil                          // int32
	OpClear                                 // mask
	OpCompileProgram                        // program id, vertex source string, fragment source string
	OpUseProgram                            // program id
	OpDeleteProgram                         // program id
	OpUniform1i                             // location, int32
	OpUniform1iv                            // location, bytes
	OpUniform1fv                            // location, bytes
	OpUniform2fv                            // location, bytes
	OpUniform3fv                            // location, bytes
	OpUniform4fv                            // location, bytes
	OpUniformMatrix3fv                      // location, bytes
	OpUniformMatrix4fv                      // location, bytes
	OpCreateBuffer                          // buffer id
	OpBindBuffer                            // target, buffer id
	OpBufferData                            // target, usage, bytes
	OpBufferSubData                         // target, byte offset, bytes
	OpDeleteBuffer                          // buffer id
	OpEnableVertexAttribArray               // location
	OpDisableVertexAttribArray              // location
	OpVertexAttribPointer                   // location, size, type, normalized, stride, offset
	OpVertexAttribDivisor                   // location, divisor
	OpCreateTexture                         // texture id
	OpActiveTexture                         // unit
	OpBindTexture                           // target, texture id
	OpTexImage2D                            // target, level, internal format, width, height, format, type, bytes
	OpTexParameteri                         // target, param, int32
	OpTexParameterf                         // target, param, float32
	OpGenerateMipmap                        // target
	OpDeleteTexture                         // texture id
	OpDrawArrays                            // mode, first, count
	OpDrawElements                          // mode, count, type, byte offset
	OpDrawArraysInstanced                   // mode, first, count, instances
	OpDrawElementsInstanced                 // mode, count, type, byte offset, instances
	NumOpcodes
)

var opcodeNames = [...]string{
	"Enable", "Disable", "CullFace", "FrontFace", "BlendEquationSeparate", "BlendFuncSeparate",
	"DepthFunc", "DepthMask", "ColorMask", "StencilFunc", "StencilOp", "StencilMask", "Viewport",
	"Scissor", "LineWidth", "PolygonOffset", "ClearColor", "ClearDepth", "ClearStencil", "Clear",
	"CompileProgram", "UseProgram", "DeleteProgram", "Uniform1i", "Uniform1iv", "Uniform1fv",
	"Uniform2fv", "Uniform3fv", "Uniform4fv", "UniformMatrix3fv", "UniformMatrix4fv",
	"CreateBuffer", "BindBuffer", "BufferData", "BufferSubData", "DeleteBuffer",
	"EnableVertexAttribArray", "DisableVertexAttribArray", "VertexAttribPointer",
	"VertexAttribDivisor", "CreateTexture", "ActiveTexture", "BindTexture", "TexImage2D",
	"TexParameteri", "TexParameterf", "GenerateMipmap", "DeleteTexture", "DrawArrays",
	"DrawElements", "DrawArraysInstanced", "DrawElementsInstanced",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", uint32(op))
}

// IsDraw reports whether the opcode issues a draw call.
func (op Opcode) IsDraw() bool {
	return op == OpDrawArrays || op == OpDrawElements || op == OpDrawArraysInstanced ||
		op == OpDrawElementsInstanced
}

// CommandBuffer stores a sequence of device calls in an API-agnostic
// manner. The Recorder device fills one in as the renderer runs; it is
// then used for frame captures and to verify what was sent to the
// device.
type CommandBuffer struct {
	Buf     []uint32
	Strings []string
}

// CommandBuffers are managed using a sync.Pool so that their buf slice
// allocations persist across multiple uses.
var commandBufferPool = sync.Pool{New: func() any { return &CommandBuffer{} }}

func GetCommandBuffer() *CommandBuffer {
	return commandBufferPool.Get().(*CommandBuffer)
}

func ReturnCommandBuffer(cb *CommandBuffer) {
	cb.Reset()
	commandBufferPool.Put(cb)
}

// Reset resets the command buffer's length to zero so that it can be
// reused.
func (cb *CommandBuffer) Reset() {
	cb.Buf = cb.Buf[:0]
	cb.Strings = cb.Strings[:0]
}

// growFor ensures that at least n more values can be added to the end of
// the buffer without going past its capacity.
func (cb *CommandBuffer) growFor(n int) {
	if len(cb.Buf)+n > cap(cb.Buf) {
		sz := 2 * cap(cb.Buf)
		if sz < 1024 {
			sz = 1024
		}
		if sz < len(cb.Buf)+n {
			sz = 2 * (len(cb.Buf) + n)
		}
		b := make([]uint32, len(cb.Buf), sz)
		copy(b, cb.Buf)
		cb.Buf = b
	}
}

func wordsForBytes(n int) int {
	return (n + 3) / 4
}

// begin starts a new command with n argument words.
func (cb *CommandBuffer) begin(op Opcode, n int) {
	cb.growFor(2 + n)
	cb.Buf = append(cb.Buf, uint32(op), uint32(n))
}

func (cb *CommandBuffer) ints(ints ...int) {
	for _, i := range ints {
		cb.Buf = append(cb.Buf, uint32(int32(i)))
	}
}

func (cb *CommandBuffer) floats(floats ...float32) {
	for _, f := range floats {
		// Convert each one to a uint32 since that's the type that is
		// actually stored...
		cb.Buf = append(cb.Buf, gomath.Float32bits(f))
	}
}

func (cb *CommandBuffer) bytes(b []byte) {
	n := wordsForBytes(len(b))
	cb.growFor(1 + n)
	cb.Buf = append(cb.Buf, uint32(len(b)))
	start := len(cb.Buf)
	cb.Buf = cb.Buf[:start+n]
	if n > 0 {
		// Zero the last word so that any padding is deterministic.
		cb.Buf[start+n-1] = 0
		dst := unsafe.Slice((*byte)(unsafe.Pointer(&cb.Buf[start])), 4*n)
		copy(dst, b)
	}
}

func (cb *CommandBuffer) str(s string) {
	cb.Buf = append(cb.Buf, uint32(len(cb.Strings)))
	cb.Strings = append(cb.Strings, s)
}

func (cb *CommandBuffer) op(op Opcode, args ...int) {
	cb.begin(op, len(args))
	cb.ints(args...)
}

func (cb *CommandBuffer) opFloats(op Opcode, args ...float32) {
	cb.begin(op, len(args))
	cb.floats(args...)
}

func (cb *CommandBuffer) opBytes(op Opcode, b []byte, args ...int) {
	cb.begin(op, len(args)+1+wordsForBytes(len(b)))
	cb.ints(args...)
	cb.bytes(b)
}

func floatBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), 4*len(f))
}

func intBytes(v []int32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), 4*len(v))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Command is a single decoded entry of a CommandBuffer.
type Command struct {
	Op   Opcode
	Args []uint32
}

func (c Command) Int(i int) int32     { return int32(c.Args[i]) }
func (c Command) Uint(i int) uint32   { return c.Args[i] }
func (c Command) Float(i int) float32 { return gomath.Float32frombits(c.Args[i]) }

// Bytes returns the variable-length payload that starts at argument i.
func (c Command) Bytes(i int) []byte {
	n := int(c.Args[i])
	if n == 0 {
		return nil
	}
	words := c.Args[i+1 : i+1+wordsForBytes(n)]
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n)
}

// Floats interprets the payload starting at argument i as float32 values.
func (c Command) Floats(i int) []float32 {
	b := c.Bytes(i)
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// Commands returns the decoded commands stored in the buffer. The returned
// argument slices alias the buffer's storage.
func (cb *CommandBuffer) Commands() []Command {
	var cmds []Command
	for i := 0; i < len(cb.Buf); {
		op, n := Opcode(cb.Buf[i]), int(cb.Buf[i+1])
		cmds = append(cmds, Command{Op: op, Args: cb.Buf[i+2 : i+2+n]})
		i += 2 + n
	}
	return cmds
}

// Count returns the number of commands with the given opcode.
func (cb *CommandBuffer) Count(op Opcode) int {
	count := 0
	for i := 0; i < len(cb.Buf); i += 2 + int(cb.Buf[i+1]) {
		if Opcode(cb.Buf[i]) == op {
			count++
		}
	}
	return count
}

// Histogram returns the number of commands of each opcode.
func (cb *CommandBuffer) Histogram() map[Opcode]int {
	h := make(map[Opcode]int)
	for i := 0; i < len(cb.Buf); i += 2 + int(cb.Buf[i+1]) {
		h[Opcode(cb.Buf[i])]++
	}
	return h
}

// Len returns the number of commands in the buffer.
func (cb *CommandBuffer) Len() int {
	n := 0
	for i := 0; i < len(cb.Buf); i += 2 + int(cb.Buf[i+1]) {
		n++
	}
	return n
}
