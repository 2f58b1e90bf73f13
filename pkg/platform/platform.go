// pkg/platform/platform.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package platform provides the window and OpenGL context that the
// renderer draws into.
package platform

// Platform is the interface that abstracts window creation and event
// handling.
type Platform interface {
	// ProcessEvents handles all pending window events. Returns true if
	// there were any events and false otherwise.
	ProcessEvents() bool
	// PostRender performs the buffer swap.
	PostRender()
	// Dispose is called when the application is shutting down and is when
	// resources are freed.
	Dispose()
	// ShouldStop returns true if the window is to be closed.
	ShouldStop() bool
	SetWindowTitle(text string)
	// EnableVSync specifies whether v-sync should be used when rendering;
	// v-sync is on by default and should only be disabled for benchmarking.
	EnableVSync(sync bool)
	// WindowSize returns the size of the window.
	WindowSize() [2]int
	// WindowPosition returns the position of the window on the screen.
	WindowPosition() [2]int
	// FramebufferSize returns the dimension of the framebuffer, which
	// differs from the window size on Retina-style displays.
	FramebufferSize() [2]int
	// Time returns the number of seconds since the platform was created.
	Time() float64
}

type Config struct {
	InitialWindowSize     [2]int `json:"initial_window_size"`
	InitialWindowPosition [2]int `json:"initial_window_position"`

	EnableMSAA bool `json:"enable_msaa"`
	// VSync is true unless frame timing is being measured.
	VSync bool `json:"vsync"`
}
