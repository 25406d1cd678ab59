package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/comalice/framefsm"
	"github.com/comalice/framefsm/host"
	"github.com/comalice/framefsm/internal/config"
	"github.com/comalice/framefsm/internal/demo"
	"github.com/comalice/framefsm/internal/logger"
	"github.com/comalice/framefsm/trace"
)

type runOptions struct {
	Script   config.Script
	Frames   int
	Realtime bool
	DOTPath  string
	// Log overrides the logger built from the config.
	Log *zap.Logger
}

// run builds the player machine and drives it for the configured number
// of frames, then saves the trace. The frame count comes from opts, then
// the script, then the config.
func run(ctx context.Context, cfg config.Config, opts runOptions, out io.Writer) error {
	base := opts.Log
	if base == nil {
		base = logger.New(cfg.LogLevel, logger.ParseFormat(cfg.LogFormat))
	}
	defer func() { _ = base.Sync() }()
	log := logger.For(base, "run")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := framefsm.NewMetrics(reg)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Infof("Serving metrics on %s", cfg.MetricsAddr)
	}

	store, err := trace.NewStore(cfg.TraceFormat, cfg.TraceDir)
	if err != nil {
		return err
	}
	rec := trace.NewRecorder()

	player := demo.NewPlayer("hero")
	machine, err := demo.NewMachine(player,
		framefsm.WithName[*demo.Player]("hero"),
		framefsm.WithLogger[*demo.Player](logger.For(base, "machine")),
		framefsm.WithMetrics[*demo.Player](metrics),
		framefsm.WithObserver[*demo.Player](rec),
	)
	if err != nil {
		return fmt.Errorf("build machine: %w", err)
	}
	if opts.Script.Initial != "" {
		machine.SetInitial(framefsm.StateID(opts.Script.Initial))
	}

	loop := host.NewLoop(host.Config{
		FrameRate:   cfg.FrameRate,
		PhysicsRate: cfg.PhysicsRate,
	}, host.WithLogger(logger.For(base, "loop")))
	loop.Add(machine)
	if err := machine.ActivateInitial(loop); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	total := cfg.Frames
	switch {
	case opts.Frames > 0:
		total = opts.Frames
	case opts.Script.Frames > 0:
		total = opts.Script.Frames
	}

	if opts.Realtime {
		err = runRealtime(ctx, loop, opts.Script, total)
	} else {
		err = runStepped(ctx, loop, opts.Script, total)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	t := rec.Trace()
	if err := store.Save(context.WithoutCancel(ctx), t); err != nil {
		return fmt.Errorf("save trace: %w", err)
	}
	if opts.DOTPath != "" {
		if err := os.WriteFile(opts.DOTPath, []byte(trace.ExportDOT(t.Records)), 0o644); err != nil {
			return fmt.Errorf("write dot: %w", err)
		}
	}

	state, _ := machine.Active()
	fmt.Fprintf(out, "session %s: %d frames, %d transitions, final state %q\n",
		t.Session, loop.Frame(), len(rec.Transitions()), state)
	fmt.Fprintln(out, player)
	return nil
}

// sendFrame queues the script inputs for frame.
func sendFrame(loop *host.Loop, script config.Script, frame uint64) error {
	for _, in := range script.At(frame) {
		kind, err := in.InputKind()
		if err != nil {
			return err
		}
		if err := loop.SendWithPriority(kind, demo.Action(in.Action), in.Priority); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	return nil
}

// runStepped advances the loop with a fixed frame time and no waiting.
func runStepped(ctx context.Context, loop *host.Loop, script config.Script, total int) error {
	delta := loop.Config().FrameRate
	for f := 0; f < total; f++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sendFrame(loop, script, uint64(f)); err != nil {
			return err
		}
		loop.Step(delta)
	}
	return nil
}

// runRealtime starts the loop ticker and feeds script inputs as frames
// complete.
func runRealtime(ctx context.Context, loop *host.Loop, script config.Script, total int) error {
	// Frame 0 inputs are queued before the first tick can fire.
	next := uint64(0)
	if err := sendFrame(loop, script, next); err != nil {
		return err
	}

	if err := loop.Start(ctx); err != nil {
		return err
	}
	defer loop.Stop()

	poll := time.NewTicker(max(loop.Config().FrameRate/2, time.Millisecond))
	defer poll.Stop()

	for loop.Frame() < uint64(total) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			for next < loop.Frame() {
				next++
				if err := sendFrame(loop, script, next); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
