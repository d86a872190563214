package mgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// WorkerCtx provides workers with the necessary environment for flow control
// and logging.
type WorkerCtx struct {
	name string

	ctx       context.Context
	cancelCtx context.CancelFunc

	logger *slog.Logger
}

// Name returns the worker name.
func (w *WorkerCtx) Name() string {
	return w.name
}

// Ctx returns the worker context.
// Is automatically canceled after the worker stops/returns, regardless of error.
func (w *WorkerCtx) Ctx() context.Context {
	return w.ctx
}

// IsDone checks whether the worker context is done.
func (w *WorkerCtx) IsDone() bool {
	return w.ctx.Err() != nil
}

// Debug logs at LevelDebug.
func (w *WorkerCtx) Debug(msg string, args ...any) {
	w.logger.DebugContext(w.ctx, msg, args...)
}

// Info logs at LevelInfo.
func (w *WorkerCtx) Info(msg string, args ...any) {
	w.logger.InfoContext(w.ctx, msg, args...)
}

// Warn logs at LevelWarn.
func (w *WorkerCtx) Warn(msg string, args ...any) {
	w.logger.WarnContext(w.ctx, msg, args...)
}

// Error logs at LevelError.
func (w *WorkerCtx) Error(msg string, args ...any) {
	w.logger.ErrorContext(w.ctx, msg, args...)
}

func (m *Manager) newWorkerCtx(name string) *WorkerCtx {
	w := &WorkerCtx{
		name:   name,
		logger: m.logger.With("worker", name),
	}
	w.ctx, w.cancelCtx = context.WithCancel(m.ctx)
	return w
}

// Go starts the given function in a goroutine (as a "worker").
// The worker gets a separate context which is canceled when the function
// returns, named structured logging and panic catching.
func (m *Manager) Go(name string, fn func(w *WorkerCtx) error) {
	m.workerStart()
	go func() {
		defer m.workerDone()

		w := m.newWorkerCtx(name)
		defer w.cancelCtx()

		err, panicInfo := runWorker(w, fn)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			w.Debug("worker canceled", "err", err)
		case panicInfo != "":
			w.Error("worker panic", "err", err, "stack", panicInfo)
		default:
			w.Error("worker failed", "err", err)
		}
	}()
}

// Do directly executes the given function (as a "worker").
// The worker context is canceled when the function returns.
func (m *Manager) Do(name string, fn func(w *WorkerCtx) error) error {
	m.workerStart()
	defer m.workerDone()

	w := m.newWorkerCtx(name)
	defer w.cancelCtx()

	err, panicInfo := runWorker(w, fn)
	if panicInfo != "" {
		w.Error("worker panic", "err", err, "stack", panicInfo)
	}
	return err
}

func runWorker(w *WorkerCtx, fn func(w *WorkerCtx) error) (err error, panicInfo string) { //nolint:stylecheck
	defer func() {
		if panicVal := recover(); panicVal != nil {
			err = fmt.Errorf("panic: %s", panicVal)
			panicInfo = string(debug.Stack())
		}
	}()

	err = fn(w)
	return //nolint
}
