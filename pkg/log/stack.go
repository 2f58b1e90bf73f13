// pkg/log/stack.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + ":" + f.Function
}

// maxStackFrames bounds the frames recorded with each log record.
const maxStackFrames = 16

// callstackSkip skips runtime.Callers, Callstack, Logger.log and the
// exported Logger method so that the first frame is the one that logged.
const callstackSkip = 4

// Callstack returns the stack of the code that called into the Logger,
// reusing fr's storage when it is large enough. Frames stop at main.main
// or the test harness.
func Callstack(fr []StackFrame) []StackFrame {
	var pcs [maxStackFrames]uintptr
	n := runtime.Callers(callstackSkip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	fr = fr[:0]
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			break
		}

		fn := strings.TrimPrefix(frame.Function, "github.com/mmp/scenegl/")
		fn = strings.TrimPrefix(fn, "pkg/")
		fr = append(fr, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: strings.TrimPrefix(fn, "main."),
		})

		if !more || frame.Function == "main.main" || strings.HasPrefix(frame.Function, "testing.") {
			break
		}
	}
	return fr
}
