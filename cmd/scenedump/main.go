// cmd/scenedump/main.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// scenedump prints a summary of a device command capture written by
// scenegl -headless -capture.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/util"

	"github.com/goforj/godump"
)

var (
	frame = flag.Int("frame", -1, "list the commands of the given frame")
	dump  = flag.Bool("dump", false, "dump the decoded commands of the frame given with -frame")
	op    = flag.String("op", "", "only list commands whose opcode contains this string")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: scenedump [flags] capture.msgpack.zst\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	c, err := gpu.LoadCapture(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *frame >= 0 {
		if *frame >= len(c.Frames) {
			fmt.Fprintf(os.Stderr, "%d: invalid frame; capture has %d\n", *frame, len(c.Frames))
			os.Exit(1)
		}
		listFrame(&c.Frames[*frame])
		return
	}

	fmt.Printf("%s: %s, %dx%d, %d frames, %d programs, created %s\n", flag.Arg(0), c.Vendor, c.Width, c.Height,
		len(c.Frames), c.Programs, c.Created.Format("2006-01-02 15:04:05"))

	draws := c.DrawCalls()
	if len(draws) > 0 {
		fmt.Printf("draw calls per frame: min %d, max %d, first %d, last %d\n", slices.Min(draws),
			slices.Max(draws), draws[0], draws[len(draws)-1])
	}

	printHistogram(c.Histogram())
}

func printHistogram(h map[gpu.Opcode]int) {
	total := util.ReduceMap(h, func(_ gpu.Opcode, n int, total int) int { return total + n }, 0)
	if total == 0 {
		return
	}

	ops := util.SortedMapKeys(h)
	slices.SortStableFunc(ops, func(a, b gpu.Opcode) int { return h[b] - h[a] })

	maxCount := h[ops[0]]
	const barWidth = 40
	for _, o := range ops {
		n := h[o]
		bar := strings.Repeat("#", max(1, n*barWidth/maxCount))
		fmt.Printf("%-28s %8d %5.1f%% %s\n", o, n, 100*float32(n)/float32(total), bar)
	}
	fmt.Printf("%-28s %8d\n", "total", total)
}

func listFrame(cb *gpu.CommandBuffer) {
	cmds := util.FilterSlice(cb.Commands(), func(cmd gpu.Command) bool {
		return *op == "" || strings.Contains(strings.ToLower(cmd.Op.String()), strings.ToLower(*op))
	})

	if *dump {
		godump.Dump(cmds)
		return
	}
	for i, cmd := range cmds {
		fmt.Printf("%5d %-28s %v\n", i, cmd.Op, cmd.Args[:min(len(cmd.Args), 8)])
	}
}
