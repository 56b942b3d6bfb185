// Package glview runs the terrain scene in an SDL2 window with the OpenGL
// backend.
package glview

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/config"
	"github.com/Faultbox/relief/internal/gfx/opengl"
	"github.com/Faultbox/relief/internal/input"
	"github.com/Faultbox/relief/internal/logger"
	"github.com/Faultbox/relief/internal/terrain"
	"github.com/Faultbox/relief/internal/viewer"
)

// Exaggeration step applied by the +/- keys.
const exaggerationStep = 0.25

// Viewer is the interactive OpenGL front end.
type Viewer struct {
	cfg     *config.Config
	running bool
	window  *window
	input   *input.Input
	gl      *opengl.Context
	scene   *viewer.Scene
	shots   *viewer.Screenshots
	log     *zap.Logger
}

// New opens the window, initializes OpenGL and builds the scene.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:   cfg,
		shots: viewer.NewScreenshots("screenshots", "relief"),
		log:   logger.Named("viewer"),
	}

	var err error
	v.window, err = openWindow("relief", cfg.Viewer, logger.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The GL context must exist before any gl call.
	v.gl, err = opengl.New()
	if err != nil {
		v.window.close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	if err := v.gl.CreateProgram(terrain.Program()); err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to build terrain program: %w", err)
	}

	v.scene, err = viewer.NewScene(v.gl, cfg)
	if err != nil {
		v.Close()
		return nil, err
	}
	if cfg.Terrain.StyleFile != "" {
		if err := v.scene.WatchStyle(cfg.Terrain.StyleFile); err != nil {
			v.log.Warn("style file ignored", zap.String("path", cfg.Terrain.StyleFile), zap.Error(err))
		}
	}

	v.input = input.New()
	v.scene.View().SetSize(v.window.size())

	v.log.Info("viewer initialized")
	return v, nil
}

// Run loads the sources in the background and runs the frame loop until
// the window closes or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	v.scene.Start(ctx)

	v.running = true
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		if ctx.Err() != nil {
			break
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleInput(dt)

		// 2. Frame
		width, height := v.window.size()
		v.gl.BeginFrame(width, height)
		stats := v.scene.Frame()
		if v.input.IsKeyPressed(sdl.SCANCODE_F12) {
			v.screenshot(width, height)
		}

		// 3. Present
		v.window.swap()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			if v.cfg.Viewer.ShowFPS {
				v.window.setTitle(fmt.Sprintf("relief - %d fps", frameCount))
			}
			v.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
				zap.Int("tiles", stats.Tracked),
				zap.Int("drawn", stats.Drawn))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleInput(dt float64) {
	cam := v.scene.View().Camera

	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			if v.window.resized() {
				v.scene.View().SetSize(v.window.size())
			}
		case input.EventMouseMove:
			if v.input.IsButtonHeld(sdl.BUTTON_LEFT) {
				cam.HandleDrag(event.DeltaX, event.DeltaY)
			}
		case input.EventMouseWheel:
			cam.HandleZoom(event.DeltaY)
		case input.EventKeyDown:
			v.handleKey(event.Key)
		}
	}

	// Held keys pan at a rate independent of frame time.
	step := dt * 60
	var forward, right float64
	if v.input.IsKeyHeld(sdl.SCANCODE_W) || v.input.IsKeyHeld(sdl.SCANCODE_UP) {
		forward += step
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_S) || v.input.IsKeyHeld(sdl.SCANCODE_DOWN) {
		forward -= step
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_D) || v.input.IsKeyHeld(sdl.SCANCODE_RIGHT) {
		right += step
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_A) || v.input.IsKeyHeld(sdl.SCANCODE_LEFT) {
		right -= step
	}
	if forward != 0 || right != 0 {
		cam.HandleMovement(forward, right)
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	st := v.scene.Style()
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		st.SetExaggeration(st.Exaggeration() + exaggerationStep)
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		st.SetExaggeration(max(0, st.Exaggeration()-exaggerationStep))
	case sdl.SCANCODE_T:
		// Toggle terrain off and back on by clearing the source id.
		if st.Source() != "" {
			st.SetSource("")
		} else {
			st.SetSource(v.cfg.Terrain.Source)
		}
	case sdl.SCANCODE_P:
		v.scene.Placeholder = !v.scene.Placeholder
		if !v.scene.Placeholder {
			v.scene.Targets().Clear()
		}
	}
}

func (v *Viewer) screenshot(width, height int) {
	path, err := v.shots.SavePixels(v.gl.ReadFramebuffer(width, height), width, height)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases the scene, the GL context and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.scene != nil {
		if err := v.scene.Close(); err != nil {
			v.log.Warn("closing scene", zap.Error(err))
		}
	}
	if v.gl != nil {
		v.gl.Close()
	}
	if v.window != nil {
		v.window.close()
	}
}
