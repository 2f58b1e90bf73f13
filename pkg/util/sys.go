// pkg/util/sys.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"log/slog"
	"runtime"

	"github.com/mmp/scenegl/pkg/log"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemInfo summarizes the machine the program is running on so that
// bug reports include it in the log.
type SystemInfo struct {
	OS, Platform, KernelVersion string
	CPUModel                    string
	LogicalCores                int
	TotalMemory, FreeMemory     uint64
}

// GetSystemInfo fills in as much of SystemInfo as the host allows;
// queries that fail leave their fields zero.
func GetSystemInfo() SystemInfo {
	si := SystemInfo{OS: runtime.GOOS}
	if h, err := host.Info(); err == nil {
		si.Platform = h.Platform + " " + h.PlatformVersion
		si.KernelVersion = h.KernelVersion
	}
	if ci, err := cpu.Info(); err == nil && len(ci) > 0 {
		si.CPUModel = ci[0].ModelName
	}
	if n, err := cpu.Counts(true); err == nil {
		si.LogicalCores = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		si.TotalMemory, si.FreeMemory = vm.Total, vm.Available
	}
	return si
}

func (si SystemInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("os", si.OS),
		slog.String("platform", si.Platform),
		slog.String("kernel", si.KernelVersion),
		slog.String("cpu", si.CPUModel),
		slog.Int("cores", si.LogicalCores),
		slog.Uint64("total_memory_mb", si.TotalMemory/(1024*1024)),
		slog.Uint64("free_memory_mb", si.FreeMemory/(1024*1024)),
	)
}

// LogMemStats logs the Go runtime's memory usage at debug level.
func LogMemStats(lg *log.Logger, msg string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	lg.Debug(msg, slog.Uint64("alloc_mb", m.Alloc/(1024*1024)), slog.Uint64("sys_mb", m.Sys/(1024*1024)),
		slog.Uint64("gc", uint64(m.NumGC)), slog.Int("goroutines", runtime.NumGoroutine()))
}
