// pkg/gpu/capture.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gpu

import (
	"fmt"
	"time"

	"github.com/mmp/scenegl/pkg/util"
)

// CaptureVersion is bumped whenever the opcode numbering or argument
// layout changes.
const CaptureVersion = 1

// Capture holds the device commands issued for a sequence of frames.
type Capture struct {
	Version  int
	Vendor   string
	Created  time.Time
	Width    int
	Height   int
	Frames   []CommandBuffer
	Programs int
}

// Add appends a copy of cb to the capture.
func (c *Capture) Add(cb *CommandBuffer) {
	c.Frames = append(c.Frames, CommandBuffer{
		Buf:     append([]uint32(nil), cb.Buf...),
		Strings: append([]string(nil), cb.Strings...),
	})
}

// Histogram returns the total number of commands of each type across all
// frames.
func (c *Capture) Histogram() map[Opcode]int {
	h := make(map[Opcode]int)
	for i := range c.Frames {
		for op, n := range c.Frames[i].Histogram() {
			h[op] += n
		}
	}
	return h
}

// DrawCalls returns the number of draw commands in each frame.
func (c *Capture) DrawCalls() []int {
	var n []int
	for i := range c.Frames {
		draws := 0
		for op, count := range c.Frames[i].Histogram() {
			if op.IsDraw() {
				draws += count
			}
		}
		n = append(n, draws)
	}
	return n
}

func SaveCapture(path string, c *Capture) error {
	c.Version = CaptureVersion
	if c.Created.IsZero() {
		c.Created = time.Now()
	}
	if err := util.StoreObject(path, c); err != nil {
		return fmt.Errorf("saving capture: %w", err)
	}
	return nil
}

func LoadCapture(path string) (*Capture, error) {
	var c Capture
	if err := util.RetrieveObject(path, &c); err != nil {
		return nil, fmt.Errorf("loading capture: %w", err)
	}
	if c.Version != CaptureVersion {
		return nil, fmt.Errorf("%s: capture version %d; expected %d", path, c.Version, CaptureVersion)
	}
	return &c, nil
}
