// pkg/platform/glfw.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"fmt"
	"runtime"

	"github.com/mmp/scenegl/pkg/log"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwPlatform implements the Platform interface using GLFW.
type glfwPlatform struct {
	window *glfw.Window
	config *Config
	lg     *log.Logger

	anyEvents bool
}

// New returns a Platform whose window of the configured size has a current
// OpenGL 4.1 core profile context. It must be called from the main thread.
func New(config *Config, title string, lg *log.Logger) (Platform, error) {
	lg.Info("Starting GLFW initialization")
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	lg.Infof("GLFW: %s", glfw.GetVersionString())

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if runtime.GOOS == "darwin" {
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	vm := glfw.GetPrimaryMonitor().GetVideoMode()
	if config.InitialWindowSize[0] == 0 || config.InitialWindowSize[1] == 0 {
		config.InitialWindowSize = [2]int{vm.Width - 150, vm.Height - 150}
	}
	// If window position is out of bounds, create the window at (100, 100)
	if config.InitialWindowPosition[0] < 0 || config.InitialWindowPosition[1] < 0 ||
		config.InitialWindowPosition[0] > vm.Width || config.InitialWindowPosition[1] > vm.Height {
		config.InitialWindowPosition = [2]int{100, 100}
	}

	// Start with an invisible window so that we can position it first
	glfw.WindowHint(glfw.Visible, glfw.False)
	if config.EnableMSAA {
		glfw.WindowHint(glfw.Samples, 4)
	}
	window, err := glfw.CreateWindow(config.InitialWindowSize[0], config.InitialWindowSize[1], title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.SetPos(config.InitialWindowPosition[0], config.InitialWindowPosition[1])
	window.Show()
	window.MakeContextCurrent()

	g := &glfwPlatform{window: window, config: config, lg: lg}
	g.installCallbacks()
	g.EnableVSync(config.VSync)

	lg.Info("Finished GLFW initialization")
	return g, nil
}

func (g *glfwPlatform) installCallbacks() {
	g.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		g.lg.Debugf("framebuffer resized to %dx%d", width, height)
		g.anyEvents = true
	})
	g.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
		g.anyEvents = true
	})
}

func (g *glfwPlatform) EnableVSync(sync bool) {
	if sync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
}

func (g *glfwPlatform) Dispose() {
	g.window.Destroy()
	glfw.Terminate()
}

func (g *glfwPlatform) ShouldStop() bool {
	return g.window.ShouldClose()
}

func (g *glfwPlatform) ProcessEvents() bool {
	g.anyEvents = false
	glfw.PollEvents()
	return g.anyEvents
}

func (g *glfwPlatform) PostRender() {
	g.window.SwapBuffers()
}

func (g *glfwPlatform) SetWindowTitle(text string) {
	g.window.SetTitle(text)
}

func (g *glfwPlatform) WindowSize() [2]int {
	w, h := g.window.GetSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) WindowPosition() [2]int {
	x, y := g.window.GetPos()
	return [2]int{x, y}
}

func (g *glfwPlatform) FramebufferSize() [2]int {
	w, h := g.window.GetFramebufferSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) Time() float64 {
	return glfw.GetTime()
}
