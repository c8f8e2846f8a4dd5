package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/zeusync/citysim/internal/config"
	"github.com/zeusync/citysim/internal/core/input"
	"github.com/zeusync/citysim/internal/core/observability/log"
	"github.com/zeusync/citysim/internal/injector"
	"github.com/zeusync/citysim/internal/server"
	"github.com/zeusync/citysim/internal/sim"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// digestEvery logs the world digest this often, in frames.
const digestEvery = 600

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "citysim:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("CITYSIM_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var remote atomic.Pointer[input.Snapshot]
	app.Telemetry.OnInput(func(_ string, s input.Snapshot) { remote.Store(&s) })

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Server.Enabled {
		if err := app.Telemetry.Start(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.Telemetry.Stop(sctx); err != nil && !errors.Is(err, server.ErrServerNotRunning) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		return loop(ctx, app, &remote)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	app.Logger.Info("Shutdown complete")
	return nil
}

// loop drives frames at the configured rate until ctx is done. Client input
// takes over from the autopilot once any client sends some.
func loop(ctx context.Context, app *injector.App, remote *atomic.Pointer[input.Snapshot]) error {
	cfg := app.Config
	logger := app.Logger.With(log.String("component", "frame_loop"))
	ticker := time.NewTicker(cfg.Frame.Interval())
	defer ticker.Stop()

	var pilot sim.Autopilot
	last := time.Now()
	logger.Info("Frame loop started",
		log.Int("target_fps", cfg.Frame.TargetFPS),
		log.Stringer("log_level", app.Logger.GetLevel()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Frame loop stopped", log.Uint64("frames", app.Sim.Manager().FrameCount()))
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt <= 0 {
				continue
			}

			app.Sim.SetInput(nextInput(remote, pilot, app.Sim.Elapsed()))
			if err := app.Sim.Frame(dt); err != nil {
				logger.Warn("Frame finished with errors", log.Error(err))
			}

			frame := app.Sim.Manager().FrameCount()
			if cfg.Server.Enabled && frame%uint64(cfg.Server.BroadcastEvery) == 0 {
				if err := app.Telemetry.Broadcast(app.Sim.Snapshot()); err != nil {
					logger.Warn("Snapshot broadcast failed", log.Error(err))
				}
			}
			if frame%digestEvery == 0 {
				logger.Debug("World digest",
					log.Uint64("frame", frame),
					log.Uint64("state", app.Sim.World().StateDigest()),
					log.Uint64("statics", app.Sim.World().StaticDigest()))
			}
		}
	}
}

// nextInput prefers the latest client input. Look deltas are applied once.
func nextInput(remote *atomic.Pointer[input.Snapshot], pilot sim.Autopilot, elapsed float64) input.Snapshot {
	p := remote.Load()
	if p == nil {
		return pilot.Input(elapsed)
	}
	in := *p
	held := in
	held.Look = input.Look{}
	remote.CompareAndSwap(p, &held)
	return in
}
