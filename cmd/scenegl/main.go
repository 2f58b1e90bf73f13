// cmd/scenegl/main.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// This file contains the implementation of the main() function, which
// initializes the system and then either runs the event loop until the
// window is closed or renders a fixed number of frames headless.

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mmp/scenegl/pkg/gpu"
	"github.com/mmp/scenegl/pkg/gpu/ogl"
	"github.com/mmp/scenegl/pkg/log"
	"github.com/mmp/scenegl/pkg/platform"
	"github.com/mmp/scenegl/pkg/render"
	"github.com/mmp/scenegl/pkg/scene"
	"github.com/mmp/scenegl/pkg/util"

	"github.com/apenwarr/fixconsole"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
	logLevel   = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir     = flag.String("logdir", "", "log file directory")
	configFile = flag.String("config", "", "configuration file (default: scenegl/config.json in the user config directory)")
	headless   = flag.Bool("headless", false, "render without a window, recording device commands")
	numFrames  = flag.Int("frames", 60, "number of frames to render when headless")
	capture    = flag.String("capture", "", "write the headless device commands to this file")
	width      = flag.Int("width", 1280, "framebuffer width when headless")
	height     = flag.Int("height", 800, "framebuffer height when headless")
)

func setupSignalHandler(profiler *util.Profiler) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "Caught signal, cleaning up...")
		profiler.Cleanup()
		fmt.Fprintln(os.Stderr, "Cleanup complete, exiting")
		os.Exit(0)
	}()
}

func init() {
	// OpenGL requires that all calls be made from the thread that owns
	// the context, while by default go allows the main goroutine to move
	// between threads. Therefore, we must lock the main thread at startup.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	// Initialize the logging system first and foremost.
	lg := log.New(*logLevel, *logDir)

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile, lg)
	if err != nil {
		lg.Errorf("%v", err)
	}
	defer profiler.Cleanup()

	if profiler.Active() {
		setupSignalHandler(profiler)
	}

	lg.Info("system", slog.Any("info", util.GetSystemInfo()))

	config, configErr := LoadOrMakeDefaultConfig(*configFile, lg)
	if configErr != nil {
		lg.Errorf("Configuration error: %v", configErr)
		fmt.Fprintf(os.Stderr, "%v; using default configuration\n", configErr)
	}
	if !flagSet("loglevel") && config.LogLevel != "" {
		if lvl, err := log.ParseLevel(config.LogLevel); err == nil {
			lg.SetLevel(lvl)
		}
	}
	config.Renderer.OnDiagnostic = func(d render.Diagnostic) {
		// Everything is logged already, but shader errors are worth
		// showing right away.
		if d.Kind == render.DiagCompile {
			fmt.Fprintf(os.Stderr, "shader compilation failed: %s\n", d.Message)
		}
	}

	if *headless {
		if err := runHeadless(config, lg); err != nil {
			lg.Errorf("%v", err)
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := runWindowed(config, lg); err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Only save the configuration if it loaded cleanly so that a broken
	// file isn't overwritten with defaults.
	if configErr == nil {
		if err := config.Save(*configFile, lg); err != nil {
			lg.Errorf("Error saving configuration: %v", err)
		}
	}
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// buildDemo creates the demo scene and waits for any textures it loads
// from disk.
func buildDemo(config *Config, aspect float32, lg *log.Logger) (*Demo, error) {
	loader := scene.NewLoader(lg)
	demo, err := NewDemo(aspect, config.TextureDir, loader, lg)
	if err != nil {
		return nil, err
	}
	if err := loader.Wait(); err != nil {
		// Textures that failed to load are left pending, which the
		// renderer draws as unbound.
		lg.Warnf("Texture loading: %v", err)
	}
	return demo, nil
}

func runHeadless(config *Config, lg *log.Logger) error {
	if *width <= 0 || *height <= 0 {
		return fmt.Errorf("%dx%d: invalid framebuffer size", *width, *height)
	}

	rec := gpu.NewRecorder(gpu.DefaultRecorderLimits())
	r, err := render.NewRenderer(rec, config.Renderer, lg)
	if err != nil {
		return err
	}
	defer r.Dispose()

	demo, err := buildDemo(config, float32(*width)/float32(*height), lg)
	if err != nil {
		return err
	}

	r.SetSize(*width, *height)
	r.SetClearColor(mgl32.Vec4(config.ClearColor))

	c := gpu.Capture{Vendor: rec.Vendor(), Width: *width, Height: *height}
	var total render.Stats
	for i := range *numFrames {
		demo.Update(float64(i) / 60)

		r.Clear(true, true, true)
		stats := r.Render(demo.Scene, demo.Camera, true, true)
		total.Merge(stats)

		c.Add(rec.CB)
		rec.Reset()
	}
	c.Programs = r.NumPrograms()

	if len(rec.Errors) > 0 {
		lg.Warn("device errors", slog.Any("errors", rec.Errors))
	}
	lg.Info("headless rendering finished", slog.Int("frames", *numFrames), slog.Any("stats", total),
		slog.Int("compile_failures", r.DiagnosticCount(render.DiagCompile)))
	fmt.Printf("%d frames: %s\n", *numFrames, total.String())
	util.LogMemStats(lg, "memory")

	if *capture != "" {
		if err := gpu.SaveCapture(*capture, &c); err != nil {
			return err
		}
		lg.Infof("%s: wrote capture of %d frames", *capture, len(c.Frames))
	}
	return nil
}

func runWindowed(config *Config, lg *log.Logger) error {
	plat, err := platform.New(&config.Config, "scenegl", lg)
	if err != nil {
		return fmt.Errorf("unable to initialize platform: %w", err)
	}
	defer plat.Dispose()

	dev, err := ogl.NewDevice(lg)
	if err != nil {
		return err
	}
	defer dev.Dispose()

	r, err := render.NewRenderer(dev, config.Renderer, lg)
	if err != nil {
		return err
	}
	defer r.Dispose()
	lg.Info("renderer capabilities", slog.Any("capabilities", r.Capabilities()))

	fb := plat.FramebufferSize()
	demo, err := buildDemo(config, float32(fb[0])/float32(max(fb[1], 1)), lg)
	if err != nil {
		return err
	}
	r.SetClearColor(mgl32.Vec4(config.ClearColor))

	frames := 0
	lastReport := plat.Time()
	for !plat.ShouldStop() {
		plat.ProcessEvents()

		fb := plat.FramebufferSize()
		if fb[0] == 0 || fb[1] == 0 {
			// Minimized
			plat.PostRender()
			continue
		}
		if w, h := r.Size(); w != fb[0] || h != fb[1] {
			r.SetSize(fb[0], fb[1])
			demo.SetAspect(float32(fb[0]) / float32(fb[1]))
		}

		t := plat.Time()
		demo.Update(t)

		r.Clear(true, true, true)
		stats := r.Render(demo.Scene, demo.Camera, true, true)
		plat.PostRender()

		frames++
		if t-lastReport >= 5 {
			fps := float64(frames) / (t - lastReport)
			plat.SetWindowTitle(fmt.Sprintf("scenegl: %.1f fps", fps))
			lg.Debug("frame", slog.Float64("fps", fps), slog.Any("stats", stats))
			util.LogMemStats(lg, "memory")
			frames, lastReport = 0, t
		}
	}

	// Remember where the window was for next time.
	config.InitialWindowSize = plat.WindowSize()
	config.InitialWindowPosition = plat.WindowPosition()
	return nil
}
