package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/app"
	"github.com/gekko3d/volumetric/froxelrt/rt/shaders"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	config := flag.String("config", "", "JSON settings file (defaults when empty)")
	debug := flag.Bool("debug", false, "Enable debug logging and profiler output")
	validate := flag.Bool("validate", false, "Validate the WGSL programs with naga and exit")
	dumpDir := flag.String("dump-exr", "", "Render one frame on the CPU and write EXR/TIFF dumps to this directory")
	flag.Parse()

	settings := volumetric.DefaultSettings()
	if *config != "" {
		var err error
		settings, err = volumetric.LoadSettings(*config)
		if err != nil {
			panic(err)
		}
	}
	if *debug {
		settings.Debug = true
	}
	logger := settings.NewLogger()

	if *validate {
		if err := shaders.ValidateBuiltin(settings.Grid.InjectionGroup, settings.Grid.ScatteringGroup); err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
		logger.Infof("shaders OK")
		return
	}

	if *dumpDir != "" {
		if err := app.RenderOffline(settings, app.OfflineOptions{OutDir: *dumpDir}, logger); err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
		return
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "Froxel Volumetrics", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, settings, logger)
	application.DebugMode = settings.Debug
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	var lastX, lastY float64
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if application.MouseCaptured {
			application.Look(float32(xpos-lastX), float32(ypos-lastY))
		}
		lastX, lastY = xpos, ypos
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyTab:
			application.MouseCaptured = !application.MouseCaptured
			if application.MouseCaptured {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.KeyL:
			application.AnimateLights = !application.AnimateLights
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
