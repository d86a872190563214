package bootstrap

import (
	"errors"
	"sync"
	"time"

	"github.com/tevino/abool"

	"github.com/safing/rdapboot/service/mgr"
)

// Module keeps the cached registries current by revalidating them in an
// interval.
type Module struct {
	mgr      *mgr.Manager
	resolver *Resolver
	interval time.Duration

	refreshWorkerMgr *mgr.WorkerMgr
	refreshing       *abool.AtomicBool

	lastRefresh     time.Time
	lastRefreshErr  error
	lastRefreshLock sync.Mutex
}

// NewModule returns a refresh module for the resolver.
// A non-positive interval selects DefaultRefreshInterval.
func NewModule(resolver *Resolver, interval time.Duration) (*Module, error) {
	if resolver == nil {
		return nil, errors.New("resolver is nil")
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Module{
		resolver:   resolver,
		interval:   interval,
		refreshing: abool.New(),
	}, nil
}

// Start starts the module.
func (m *Module) Start(mg *mgr.Manager) error {
	m.mgr = mg
	m.refreshWorkerMgr = mg.NewWorkerMgr("refresh registries", m.refresh).Repeat(m.interval)
	m.refreshWorkerMgr.Go()
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ *mgr.Manager) error {
	return nil
}

// TriggerRefresh schedules an immediate refresh.
func (m *Module) TriggerRefresh() {
	if m.refreshWorkerMgr != nil {
		m.refreshWorkerMgr.Go()
	}
}

// IsRefreshing returns whether a refresh is currently running.
func (m *Module) IsRefreshing() bool {
	return m.refreshing.IsSet()
}

func (m *Module) refresh(w *mgr.WorkerCtx) error {
	if !m.refreshing.SetToIf(false, true) {
		w.Debug("refresh already in progress")
		return nil
	}
	defer m.refreshing.UnSet()

	start := time.Now()
	err := m.resolver.Refresh(w.Ctx())
	m.mgr.Info("refreshed registries", "duration", time.Since(start), "ok", err == nil)

	m.lastRefreshLock.Lock()
	defer m.lastRefreshLock.Unlock()
	m.lastRefresh = start
	m.lastRefreshErr = err
	return err
}

// LastRefresh returns the start time and the error of the last finished
// refresh. The time is zero if no refresh finished yet.
func (m *Module) LastRefresh() (time.Time, error) {
	m.lastRefreshLock.Lock()
	defer m.lastRefreshLock.Unlock()

	return m.lastRefresh, m.lastRefreshErr
}
