package mgr

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultStopTimeout is the maximum time to wait for the workers of a
// stopping manager.
const DefaultStopTimeout = time.Minute

// Manager runs the workers of a module and cancels them when the module
// stops.
type Manager struct {
	logger *slog.Logger

	ctx       context.Context
	cancelCtx context.CancelFunc

	workers     atomic.Int32
	workersDone chan struct{}
}

// New returns a new manager without a group.
func New(name string) *Manager {
	return newManager(context.Background(), name, "manager")
}

func newManager(ctx context.Context, name, kind string) *Manager {
	m := &Manager{
		logger:      slog.Default().With(kind, name),
		workersDone: make(chan struct{}, 1),
	}
	m.ctx, m.cancelCtx = context.WithCancel(ctx)
	return m
}

// Ctx returns the manager context. It is canceled when the manager stops.
func (m *Manager) Ctx() context.Context {
	return m.ctx
}

// Cancel cancels the manager context and with it all workers.
func (m *Manager) Cancel() {
	m.cancelCtx()
}

// Info logs at LevelInfo.
func (m *Manager) Info(msg string, args ...any) {
	m.logger.InfoContext(m.ctx, msg, args...)
}

// Error logs at LevelError.
func (m *Manager) Error(msg string, args ...any) {
	m.logger.ErrorContext(m.ctx, msg, args...)
}

// WaitForWorkers waits until all workers of the manager returned or the
// timeout (DefaultStopTimeout if zero) passed.
func (m *Manager) WaitForWorkers(timeout time.Duration) (done bool) {
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for m.workers.Load() > 0 {
		select {
		case <-deadline.C:
			return false
		case <-m.workersDone:
		case <-time.After(10 * time.Millisecond):
		}
	}
	return true
}

func (m *Manager) workerStart() {
	m.workers.Add(1)
}

func (m *Manager) workerDone() {
	if m.workers.Add(-1) > 0 {
		return
	}
	select {
	case m.workersDone <- struct{}{}:
	default:
	}
}
