package style

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/logger"
)

// Watcher reloads a style file whenever it changes on disk and replaces
// the terrain configuration of a Terrain. Parse failures keep the last good
// configuration.
//
// Replace is not called directly from the fsnotify goroutine: reloads are
// queued and applied by Poll on the rendering thread.
type Watcher struct {
	path    string
	terrain *Terrain
	watcher *fsnotify.Watcher
	pending chan TerrainConfig
	done    chan struct{}
	log     *zap.Logger
}

// NewWatcher starts watching path. The directory is watched rather than the
// file so that editors which replace files on save are handled.
func NewWatcher(path string, terrain *Terrain) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		terrain: terrain,
		watcher: fw,
		pending: make(chan TerrainConfig, 1),
		done:    make(chan struct{}),
		log:     logger.Named("style"),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadStyle(w.path)
			if err != nil {
				w.log.Warn("style reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			// Keep only the newest configuration.
			select {
			case <-w.pending:
			default:
			}
			w.pending <- cfg

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("style watcher error", zap.Error(err))
		}
	}
}

// Poll applies a queued reload, if any, and reports whether one was applied.
// Call it once per frame from the rendering thread.
func (w *Watcher) Poll() bool {
	select {
	case cfg := <-w.pending:
		if cfg == w.terrain.Config() {
			return false
		}
		w.log.Info("terrain style reloaded",
			zap.String("source", cfg.SourceID()),
			zap.Float32("exaggeration", cfg.Exaggeration()),
		)
		w.terrain.Replace(cfg)
		return true
	default:
		return false
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
