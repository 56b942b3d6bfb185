package glview

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/config"
)

func init() {
	// SDL and every gl call must stay on the main thread.
	runtime.LockOSThread()
}

// window is the SDL2 window with its OpenGL 4.1 core context. It caches
// the drawable size, which differs from the window size on HiDPI
// displays.
type window struct {
	sdl    *sdl.Window
	ctx    sdl.GLContext
	width  int
	height int
	log    *zap.Logger
}

func openWindow(title string, vc config.ViewerConfig, log *zap.Logger) (*window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	// 4.1 core is the newest profile available on macOS.
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if vc.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	sw, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(vc.Width), int32(vc.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}
	ctx, err := sw.GLCreateContext()
	if err != nil {
		sw.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	w := &window{sdl: sw, ctx: ctx, log: log}
	w.setVSync(vc.VSync)
	w.resized()

	log.Info("window created",
		zap.Int("width", w.width),
		zap.Int("height", w.height),
		zap.Bool("fullscreen", vc.Fullscreen),
		zap.Bool("vsync", vc.VSync))
	return w, nil
}

// setVSync prefers adaptive sync and falls back to plain vsync.
func (w *window) setVSync(on bool) {
	if !on {
		if err := sdl.GLSetSwapInterval(0); err != nil {
			w.log.Warn("failed to disable vsync", zap.Error(err))
		}
		return
	}
	if sdl.GLSetSwapInterval(-1) == nil {
		return
	}
	if err := sdl.GLSetSwapInterval(1); err != nil {
		w.log.Warn("failed to enable vsync", zap.Error(err))
	}
}

// resized refreshes the cached drawable size and reports whether it
// changed. A minimized window reports zero and is ignored.
func (w *window) resized() bool {
	dw, dh := w.sdl.GLGetDrawableSize()
	width, height := int(dw), int(dh)
	if width <= 0 || height <= 0 || (width == w.width && height == w.height) {
		return false
	}
	w.width, w.height = width, height
	w.log.Debug("drawable resized", zap.Int("width", width), zap.Int("height", height))
	return true
}

func (w *window) size() (int, int) {
	return w.width, w.height
}

func (w *window) swap() {
	w.sdl.GLSwap()
}

func (w *window) setTitle(title string) {
	w.sdl.SetTitle(title)
}

func (w *window) close() {
	if w.ctx != nil {
		sdl.GLDeleteContext(w.ctx)
	}
	if w.sdl != nil {
		w.sdl.Destroy()
	}
	sdl.Quit()
}
