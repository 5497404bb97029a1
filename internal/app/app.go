// Package app runs the editor: it owns the window and the frame loop, and
// connects pointer input to the selection arbiter and the store to the
// scene graph.
package app

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/config"
	"github.com/Faultbox/shotgen/internal/editor"
	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/engine/input"
	"github.com/Faultbox/shotgen/internal/engine/preview"
	"github.com/Faultbox/shotgen/internal/engine/renderer"
	"github.com/Faultbox/shotgen/internal/engine/shot"
	"github.com/Faultbox/shotgen/internal/engine/window"
	"github.com/Faultbox/shotgen/internal/logger"
	"github.com/Faultbox/shotgen/internal/picking"
	"github.com/Faultbox/shotgen/internal/scene"
	"github.com/Faultbox/shotgen/internal/scenefile"
	"github.com/Faultbox/shotgen/internal/store"
)

const title = "Shot Generator"

var clearColor = mgl32.Vec4{0.16, 0.17, 0.19, 1}

// App is the running editor.
type App struct {
	cfg        *config.Config
	configPath string
	log        *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	watcher  *config.Watcher

	file    *scenefile.File
	graph   *scene.Graph
	nodes   map[string]scene.NodeID
	store   *store.Store
	picker  *picking.GPUPicker
	bones   *editor.BoneControls
	arbiter *editor.Arbiter
	view    *view
	frame   preview.Frame
	shots   *shot.Writer

	unsubscribe func()
	orbiting    bool
	running     bool
}

// New opens the window, loads the scene and wires the editor. configPath
// is watched for changes when non-empty.
func New(cfg *config.Config, configPath string) (*App, error) {
	a := &App{cfg: cfg, configPath: configPath, log: logger.Named("app")}

	file, err := scenefile.Load(cfg.Scene.Path)
	if err != nil {
		return nil, err
	}
	a.file = file

	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer after window, the OpenGL context must exist
	a.renderer, err = renderer.New(logger.Named("renderer"))
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	a.input = input.New()
	a.shots = shot.NewWriter(cfg.Shots.Dir, "shot")
	a.shots.ThumbWidth = cfg.Shots.ThumbWidth

	if err := a.buildScene(); err != nil {
		a.Close()
		return nil, err
	}

	if configPath != "" {
		if a.watcher, err = config.Watch(configPath, logger.Named("config")); err != nil {
			a.log.Warn("config hot reload disabled", zap.Error(err))
		}
	}

	a.log.Info("editor initialized",
		zap.String("scene", cfg.Scene.Path),
		zap.Int("entities", len(a.nodes)),
		zap.Bool("select_on_pointer_down", cfg.Editor.SelectOnPointerDown),
		zap.Bool("use_icons", cfg.Editor.UseIcons),
	)
	return a, nil
}

func (a *App) buildScene() error {
	a.graph = scene.NewGraph()
	a.store = store.New(store.State{}, logger.Named("store"))

	nodes, err := a.file.Build(a.graph, a.store)
	if err != nil {
		return fmt.Errorf("building scene %s: %w", a.cfg.Scene.Path, err)
	}
	a.nodes = nodes

	width, height := a.window.DrawableSize()
	start, _ := a.file.Active()
	a.view = newView(start, aspect(width, height))
	a.view.SetIcons(a.cfg.Editor.UseIcons)

	registry := picking.NewRegistry(a.graph, picking.RegistryConfig{
		MaxPickables: a.cfg.Picking.MaxPickables,
		Excluded:     a.cfg.Editor.ExcludedFromPicking,
	}, logger.Named("picking"))
	a.picker = picking.NewGPUPicker(registry, a.pickingTarget(width, height), logger.Named("picking"))

	resolver := editor.NewResolver(a.graph, a.picker, logger.Named("editor"))
	a.bones = editor.NewBoneControls(a.graph, a.view.Camera(), logger.Named("bones"))
	a.bones.SetUpdateCharacter(func(character scene.NodeID, boneName string, rotation mgl32.Quat) {
		a.log.Debug("bone rotated",
			zap.Stringer("character", character),
			zap.String("bone", boneName),
			zap.Float32("w", rotation.W))
	})

	a.arbiter = editor.NewArbiter(resolver, a.store, a.bones, logger.Named("editor"))
	a.arbiter.SetOptions(options(a.cfg))
	a.arbiter.SetCamera(a.view.Camera())
	a.arbiter.SetViewport(width, height)
	a.arbiter.OnEditing = func(editing bool) {
		if editing {
			a.window.SetCursor(window.CursorMove)
		} else {
			a.window.SetCursor(window.CursorDefault)
		}
	}

	a.unsubscribe = a.store.Subscribe(a.onStoreChange)
	return nil
}

// pickingTarget prefers the GPU framebuffer and falls back to the software
// rasterizer when the driver cannot create one.
func (a *App) pickingTarget(width, height int) picking.IDTarget {
	gl := picking.NewGLTarget(a.renderer)
	if err := gl.Rebuild(max(width, 1), max(height, 1)); err != nil {
		a.log.Warn("GPU picking unavailable, using software target", zap.Error(err))
		return picking.NewSoftTarget()
	}
	return gl
}

func (a *App) onStoreChange(state store.State, action store.Action) {
	scenefile.Sync(a.graph, a.nodes, state)
	a.bones.Sync(state.SelectedBone)

	if action.Type == store.ActionSetActiveCamera {
		if c, ok := a.file.Camera(state.ActiveCamera); ok {
			a.view.LookThrough(c)
			a.arbiter.SetCamera(a.view.Camera())
		}
	}
}

// Run starts the frame loop and returns when the window closes.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting editor loop")

	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if a.input.Update() {
			a.running = false
			break
		}
		for _, ev := range a.input.Events() {
			a.handle(ev)
		}
		a.reloadConfig()

		a.arbiter.SetCamera(a.view.Camera())
		a.bones.Update()
		a.render()
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) handle(ev input.Event) {
	width, height := a.window.DrawableSize()

	switch ev.Type {
	case input.EventWindowResize:
		a.view.SetAspect(aspect(width, height))
		a.arbiter.SetViewport(width, height)

	case input.EventKeyDown:
		a.handleKey(ev)

	case input.EventWheel:
		a.view.Zoom(float32(ev.DeltaY))

	case input.EventPointerDown:
		switch ev.Button {
		case sdl.BUTTON_LEFT:
			a.arbiter.PointerDown(ev.Pointer(a.pointerScale(), width, height))
		case sdl.BUTTON_RIGHT:
			a.orbiting = true
		}

	case input.EventPointerMove:
		if a.orbiting {
			a.view.Orbit(float32(ev.DeltaX), float32(ev.DeltaY))
			return
		}
		a.arbiter.PointerMove(ev.Pointer(a.pointerScale(), width, height))

	case input.EventPointerUp:
		switch ev.Button {
		case sdl.BUTTON_LEFT:
			a.arbiter.PointerUp(ev.Pointer(a.pointerScale(), width, height))
		case sdl.BUTTON_RIGHT:
			a.orbiting = false
		}
	}
}

func (a *App) handleKey(ev input.Event) {
	switch ev.Key {
	case sdl.SCANCODE_ESCAPE:
		a.running = false
	case sdl.SCANCODE_I:
		opts := a.arbiter.Options()
		opts.UseIcons = !opts.UseIcons
		a.setOptions(opts)
	case sdl.SCANCODE_C:
		a.store.SetActiveCamera(nextCamera(a.file, a.store.ActiveCamera()))
	case sdl.SCANCODE_F12:
		a.saveShot()
	case sdl.SCANCODE_S:
		if ev.Ctrl {
			a.saveConfig()
		}
	case sdl.SCANCODE_Z:
		if ev.Ctrl && !a.store.Undo() {
			a.log.Debug("nothing to undo")
		}
	}
}

func (a *App) setOptions(opts editor.Options) {
	a.arbiter.SetOptions(opts)
	a.view.SetIcons(opts.UseIcons)
	a.arbiter.SetCamera(a.view.Camera())
	a.log.Info("editor options changed",
		zap.Bool("select_on_pointer_down", opts.SelectOnPointerDown),
		zap.Bool("use_icons", opts.UseIcons))
}

// saveConfig persists the current editor options.
func (a *App) saveConfig() {
	opts := a.arbiter.Options()
	a.cfg.Editor.SelectOnPointerDown = opts.SelectOnPointerDown
	a.cfg.Editor.UseIcons = opts.UseIcons

	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if err := a.cfg.SaveTo(path); err != nil {
		a.log.Warn("config not saved", zap.Error(err))
		return
	}
	a.log.Info("config saved", zap.String("path", path))
}

// reloadConfig applies a config published by the watcher. Only the editor
// options take effect without a restart.
func (a *App) reloadConfig() {
	if a.watcher == nil {
		return
	}
	select {
	case cfg := <-a.watcher.Updates():
		a.cfg.Editor = cfg.Editor
		a.setOptions(options(cfg))
	default:
	}
}

// pointerScale maps window coordinates to framebuffer pixels.
func (a *App) pointerScale() float32 {
	w, _ := a.window.GetSize()
	dw, _ := a.window.DrawableSize()
	if w == 0 {
		return 1
	}
	return float32(dw) / float32(w)
}

func (a *App) render() {
	width, height := a.window.DrawableSize()
	cam := a.view.Camera()
	viewProj := camera.ViewProjection(cam)

	a.frame.Reset()
	preview.Collect(&a.frame, a.graph, cam, preview.Config{ShowIcons: a.view.icons})

	a.renderer.Begin(width, height, clearColor)
	a.renderer.Draw(viewProj, a.frame.Lit, false)
	a.renderer.ClearDepth()
	a.renderer.Draw(viewProj, a.frame.Overlay, true)
}

// saveShot renders a clean frame, without icons or gizmos, and writes it.
func (a *App) saveShot() {
	width, height := a.window.DrawableSize()
	cam := a.view.Camera()

	a.frame.Reset()
	preview.Collect(&a.frame, a.graph, cam, preview.Config{})
	a.renderer.Begin(width, height, clearColor)
	a.renderer.Draw(camera.ViewProjection(cam), a.frame.Lit, false)

	path, err := a.shots.SavePixels(a.store.ActiveCamera(), a.renderer.ReadPixels(width, height), width, height)
	if err != nil {
		a.log.Warn("shot not saved", zap.Error(err))
		return
	}
	a.log.Info("shot saved", zap.String("path", path))
}

// Close releases every resource. It is safe on a partially built App.
func (a *App) Close() {
	a.log.Info("closing editor")

	var errs error
	if a.watcher != nil {
		errs = multierr.Append(errs, a.watcher.Close())
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.picker != nil {
		a.picker.Dispose()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
	if errs != nil {
		a.log.Warn("close", zap.Error(errs))
	}
}
