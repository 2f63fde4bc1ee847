package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/jpalmerr/envmon/internal/signal"
	"github.com/jpalmerr/envmon/internal/state"
)

// Renderer turns a snapshot into output. Render may take longer than one
// sampling period; it should return early once ctx is done.
type Renderer interface {
	Render(ctx context.Context, snap state.Snapshot)
}

// Task is one consumer loop: wait, load, render.
type Task struct {
	// Name identifies the task in logs.
	Name string

	// Signal is the edge the sampler notifies.
	Signal *signal.Channel

	// State is the snapshot source.
	State state.Reader

	// Renderer draws each snapshot.
	Renderer Renderer

	// RenderOnStart draws the current snapshot once before the first wait.
	RenderOnStart bool

	// Logger receives lifecycle and panic reports.
	Logger *slog.Logger
}

// Run initialises the renderer's output and then loops until ctx is done.
//
// If the renderer implements an Init method and it fails, Run logs the fault
// and returns the error immediately: that output stays inert while the rest
// of the monitor keeps running. Run returns nil on cancellation.
func (t *Task) Run(ctx context.Context) error {
	logger := t.Logger.With("consumer", t.Name)

	if in, ok := t.Renderer.(interface{ Init() error }); ok {
		if err := in.Init(); err != nil {
			logger.Error("output init failed, consumer inert", "error", err.Error())
			return fmt.Errorf("%s: init: %w", t.Name, err)
		}
	}

	logger.Debug("consumer started")

	if t.RenderOnStart {
		t.renderSafe(ctx, logger)
	}

	for {
		if err := t.Signal.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Debug("consumer stopped")
				return nil
			}
			return err
		}
		t.renderSafe(ctx, logger)
	}
}

// renderSafe loads the latest snapshot and renders it with panic recovery.
// The snapshot is loaded after the wake-up, never before, so the renderer
// sees the newest publication rather than the one that raised the signal.
func (t *Task) renderSafe(ctx context.Context, logger *slog.Logger) {
	snap := t.State.Load()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("render panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"seq", snap.Seq,
				"stack", string(debug.Stack()),
			)
		}
	}()

	t.Renderer.Render(ctx, snap)
}
