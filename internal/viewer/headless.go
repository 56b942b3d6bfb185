package viewer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/config"
	"github.com/Faultbox/relief/internal/gfx/headless"
	"github.com/Faultbox/relief/internal/logger"
)

// HeadlessResult is the outcome of RunHeadless.
type HeadlessResult struct {
	Frames []FrameStats
	GPU    headless.Stats
}

// Last returns the stats of the final frame.
func (r HeadlessResult) Last() FrameStats {
	if len(r.Frames) == 0 {
		return FrameStats{}
	}
	return r.Frames[len(r.Frames)-1]
}

// RunHeadless loads every source synchronously, then renders frames
// frames against the headless backend.
func RunHeadless(ctx context.Context, cfg *config.Config, frames int) (HeadlessResult, error) {
	log := logger.Named("viewer")
	hctx := headless.New()

	scene, err := NewScene(hctx, cfg)
	if err != nil {
		return HeadlessResult{}, err
	}
	defer func() {
		if err := scene.Close(); err != nil {
			log.Warn("closing scene", zap.Error(err))
		}
	}()

	if cfg.Terrain.StyleFile != "" {
		if err := scene.WatchStyle(cfg.Terrain.StyleFile); err != nil {
			return HeadlessResult{}, fmt.Errorf("style file: %w", err)
		}
	}
	if err := scene.Load(ctx); err != nil {
		return HeadlessResult{}, err
	}

	res := HeadlessResult{Frames: make([]FrameStats, 0, frames)}
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Frames = append(res.Frames, scene.Frame())
	}
	res.GPU = hctx.Stats()

	last := res.Last()
	log.Info("headless run finished",
		zap.Int("frames", frames),
		zap.Int("tiles", last.Tracked),
		zap.Int("targets", last.Targets),
		zap.Int("drawn", last.Drawn),
		zap.Int("draw_calls", res.GPU.Draws))
	return res, nil
}
