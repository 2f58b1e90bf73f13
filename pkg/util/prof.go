// pkg/util/prof.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/mmp/scenegl/pkg/log"
)

// Profiler manages the optional CPU and heap profiles requested on the
// command line. The zero value is a no-op.
type Profiler struct {
	cpu, mem *os.File
	lg       *log.Logger
}

func CreateProfiler(cpu, mem string, lg *log.Logger) (*Profiler, error) {
	p := &Profiler{lg: lg}

	var err error
	if cpu != "" {
		if p.cpu, err = os.Create(cpu); err != nil {
			return &Profiler{}, fmt.Errorf("%s: unable to create CPU profile file: %w", cpu, err)
		} else if err = pprof.StartCPUProfile(p.cpu); err != nil {
			p.cpu.Close()
			return &Profiler{}, fmt.Errorf("unable to start CPU profile: %w", err)
		}
		lg.Infof("%s: writing CPU profile", cpu)
	}

	if mem != "" {
		if p.mem, err = os.Create(mem); err != nil {
			p.Cleanup()
			return &Profiler{}, fmt.Errorf("%s: unable to create memory profile file: %w", mem, err)
		}
	}

	return p, nil
}

// Active reports whether any profile is being recorded.
func (p *Profiler) Active() bool {
	return p != nil && (p.cpu != nil || p.mem != nil)
}

// Cleanup stops CPU profiling and writes the heap profile; it is safe to
// call more than once.
func (p *Profiler) Cleanup() {
	if p == nil {
		return
	}
	if p.cpu != nil {
		pprof.StopCPUProfile()
		p.cpu.Close()
		p.cpu = nil
	}
	if p.mem != nil {
		if err := pprof.WriteHeapProfile(p.mem); err != nil {
			p.lg.Errorf("unable to write memory profile file: %v", err)
		}
		p.mem.Close()
		p.mem = nil
	}
}
