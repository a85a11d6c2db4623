package app

import (
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
	"github.com/gekko3d/volumetric/froxelrt/rt/gpu"
	"github.com/gekko3d/volumetric/froxelrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	PresentPipeline *wgpu.RenderPipeline
	Sampler         *wgpu.Sampler

	Settings volumetric.Settings
	Log      volumetric.Logger
	Froxel   *gpu.WGPUDevice
	Feature  *gpu.Feature
	Lights   *volumetric.SceneLights
	LightIds []volumetric.LightId
	Camera   *core.CameraState
	Profiler *Profiler

	SceneColor gpu.Texture
	ShadowMap  gpu.Texture

	LastTime      float64
	MouseCaptured bool
	AnimateLights bool
	DebugMode     bool

	FrameCount int
	FPS        float64
	FPSTime    float64
}

func NewApp(window *glfw.Window, settings volumetric.Settings, logger volumetric.Logger) *App {
	return &App{
		Window:        window,
		Settings:      settings,
		Log:           volumetric.OrNop(logger),
		Lights:        volumetric.NewSceneLights(),
		Camera:        core.NewCameraState(),
		Profiler:      NewProfiler(),
		AnimateLights: true,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return err
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	presentModule, err := a.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Present VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PresentWGSL},
	})
	if err != nil {
		return err
	}
	a.PresentPipeline, err = a.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Present Pipeline",
		Vertex: wgpu.VertexState{
			Module:     presentModule,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     presentModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}
	a.Sampler, err = a.Device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}

	a.Froxel = gpu.NewWGPUDevice(a.Device, a.Log)
	cfg, err := gpu.FeatureConfigFromSettings(a.Settings)
	if err != nil {
		return err
	}
	a.Feature, err = gpu.NewFeature(a.Froxel, cfg, a.Lights, a.Log)
	if err != nil {
		return err
	}

	a.ShadowMap, err = newUnshadowedMap(a.Froxel)
	if err != nil {
		return err
	}
	if err := a.setupSceneColor(width, height); err != nil {
		return err
	}

	if len(a.Settings.Lights) > 0 {
		a.LightIds = a.Settings.PopulateScene(a.Lights)
	} else {
		a.LightIds = AddDefaultLights(a.Lights)
	}
	a.Log.Infof("scene has %d lights", a.Lights.Len())

	a.LastTime = glfw.GetTime()
	return nil
}

func (a *App) setupSceneColor(w, h int) error {
	if w == 0 || h == 0 {
		return nil
	}
	if a.SceneColor != nil {
		a.SceneColor.Release()
	}
	var err error
	a.SceneColor, err = a.Froxel.CreateTexture(gpu.TextureDescriptor{
		Label:        "Scene Color",
		Dimension:    gpu.TextureDimension2D,
		Extent:       [3]uint32{uint32(w), uint32(h), 1},
		Format:       gpu.FormatRGBA8Unorm,
		RenderTarget: true,
	})
	if err != nil {
		return err
	}
	a.Camera.Aspect = float32(w) / float32(h)
	return a.Froxel.WriteTexture(a.SceneColor, BackgroundPixels(w, h))
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
		if err := a.setupSceneColor(w, h); err != nil {
			a.Log.Errorf("resize scene colour: %v", err)
		}
	}
}

func (a *App) Update() {
	now := glfw.GetTime()
	dt := float32(now - a.LastTime)
	a.LastTime = now

	a.moveCamera(dt)

	if a.AnimateLights && len(a.LightIds) > 0 {
		if l, ok := a.Lights.Get(a.LightIds[0]); ok {
			t := float32(now) * 0.5
			dir := mgl32.Vec3{0.4 * float32(math.Cos(float64(t))), 0.4 * float32(math.Sin(float64(t))), -1}
			l.Transform.LookTowards(dir)
		}
	}
}

func (a *App) moveCamera(dt float32) {
	speed := a.Camera.Speed * dt
	if a.Window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		speed *= 4
	}
	fwd := a.Camera.GetForward()
	right := a.Camera.GetRight()
	up := mgl32.Vec3{0, 0, 1}

	move := mgl32.Vec3{}
	if a.Window.GetKey(glfw.KeyW) == glfw.Press {
		move = move.Add(fwd)
	}
	if a.Window.GetKey(glfw.KeyS) == glfw.Press {
		move = move.Sub(fwd)
	}
	if a.Window.GetKey(glfw.KeyD) == glfw.Press {
		move = move.Add(right)
	}
	if a.Window.GetKey(glfw.KeyA) == glfw.Press {
		move = move.Sub(right)
	}
	if a.Window.GetKey(glfw.KeySpace) == glfw.Press {
		move = move.Add(up)
	}
	if a.Window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		move = move.Sub(up)
	}
	if move.Len() > 0 {
		a.Camera.Position = a.Camera.Position.Add(move.Normalize().Mul(speed))
	}
}

// Look applies a mouse delta in pixels to the camera.
func (a *App) Look(dx, dy float32) {
	a.Camera.Yaw += dx * a.Camera.Sensitivity
	a.Camera.Pitch -= dy * a.Camera.Sensitivity
	limit := float32(math.Pi/2 - 0.01)
	a.Camera.Pitch = mgl32.Clamp(a.Camera.Pitch, -limit, limit)
}

func (a *App) Render() {
	a.Profiler.BeginScope("Frame")
	defer a.Profiler.EndScope("Frame")

	a.Profiler.BeginScope("Volumetrics")
	out, err := a.Feature.Execute(&gpu.Frame{
		Camera: a.Camera,
		Shadow: gpu.ShadowInput{Texture: a.ShadowMap},
		Color:  a.SceneColor,
	})
	a.Profiler.EndScope("Volumetrics")
	if err != nil && !errors.Is(err, gpu.ErrMissingShadowMap) {
		a.Log.Errorf("volumetric lighting: %v", err)
		out = a.SceneColor
	}
	a.Profiler.SetCount("Spot Lights", a.Feature.Pass().Lights().Count())

	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()
	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	// the composited target alternates between frames, so bind it fresh
	bg, err := a.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: a.PresentPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: a.Froxel.View(out)},
			{Binding: 1, Sampler: a.Sampler},
		},
	})
	if err != nil {
		a.Log.Errorf("present bind group: %v", err)
		return
	}
	defer bg.Release()

	a.Profiler.BeginScope("Present")
	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rPass.SetPipeline(a.PresentPipeline)
	rPass.SetBindGroup(0, bg, nil)
	rPass.Draw(3, 1, 0, 0)
	if err := rPass.End(); err != nil {
		a.Log.Errorf("render pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Log.Errorf("encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()
	a.Profiler.EndScope("Present")

	a.FrameCount++
	now := glfw.GetTime()
	if now-a.FPSTime >= 1.0 {
		a.FPS = float64(a.FrameCount) / (now - a.FPSTime)
		a.FrameCount = 0
		a.FPSTime = now
		a.Window.SetTitle(fmt.Sprintf("Froxel Volumetrics - %.1f FPS", a.FPS))
		if a.DebugMode {
			a.Log.Debugf("\n%s", a.Profiler.GetStatsString())
		}
	}
}

func (a *App) Release() {
	if a.Feature != nil {
		a.Feature.Release()
	}
	if a.SceneColor != nil {
		a.SceneColor.Release()
	}
	if a.ShadowMap != nil {
		a.ShadowMap.Release()
	}
	if a.Froxel != nil {
		a.Froxel.Release()
	}
	if a.Sampler != nil {
		a.Sampler.Release()
	}
	if a.PresentPipeline != nil {
		a.PresentPipeline.Release()
	}
}
