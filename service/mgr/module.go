package mgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"sync"
)

// Module is a component with a lifecycle. Workers started with the given
// manager are canceled and awaited when the module stops.
type Module interface {
	Start(m *Manager) error
	Stop(m *Manager) error
}

// Group starts and stops modules in order.
type Group struct {
	modules []*groupModule

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopOK   bool
}

type groupModule struct {
	name   string
	module Module
	mgr    *Manager
}

// NewGroup returns a group of the given modules. Nil modules, including
// typed nil pointers, are ignored.
func NewGroup(modules ...Module) *Group {
	g := &Group{}
	g.ctx, g.cancel = context.WithCancel(context.Background())

	for _, m := range modules {
		if m == nil || reflect.ValueOf(m).IsNil() {
			continue
		}
		name := moduleName(m)
		g.modules = append(g.modules, &groupModule{
			name:   name,
			module: m,
			mgr:    newManager(g.ctx, name, "module"),
		})
	}
	return g
}

// Start starts the modules in order. If a module fails to start, the modules
// started before it are stopped again in reverse order.
func (g *Group) Start() error {
	for i, gm := range g.modules {
		if err := gm.module.Start(gm.mgr); err != nil {
			gm.mgr.Cancel()
			g.stopModules(i - 1)
			g.cancel()
			return fmt.Errorf("failed to start %s: %w", gm.name, err)
		}
		gm.mgr.Info("started")
	}
	return nil
}

// Stop stops the modules in reverse order and reports whether all of them
// stopped cleanly. Only the first call has an effect.
func (g *Group) Stop() (ok bool) {
	g.stopOnce.Do(func() {
		g.stopOK = g.stopModules(len(g.modules) - 1)
		g.cancel()
	})
	return g.stopOK
}

// Run starts the group and stops it again when ctx is canceled or one of the
// given signals is received.
func (g *Group) Run(ctx context.Context, signals ...os.Signal) error {
	if err := g.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	if len(signals) > 0 {
		signal.Notify(sigCh, signals...)
		defer signal.Stop(sigCh)
	}

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	case <-g.ctx.Done():
	}

	if !g.Stop() {
		return errors.New("failed to stop cleanly")
	}
	return nil
}

// Done returns a channel that is closed when the group stopped.
func (g *Group) Done() <-chan struct{} {
	return g.ctx.Done()
}

func (g *Group) stopModules(last int) (ok bool) {
	ok = true
	for i := last; i >= 0; i-- {
		gm := g.modules[i]
		if err := gm.module.Stop(gm.mgr); err != nil {
			gm.mgr.Error("failed to stop", "err", err)
			ok = false
		}
		gm.mgr.Cancel()
		if !gm.mgr.WaitForWorkers(0) {
			gm.mgr.Error("failed to stop", "err", "timed out", "workers", gm.mgr.workers.Load())
			ok = false
			continue
		}
		gm.mgr.Info("stopped")
	}
	return ok
}

func moduleName(m Module) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", m), "*")
}
