package mgr

import (
	"sync"
	"time"
)

// WorkerMgr schedules a worker.
type WorkerMgr struct {
	mgr *Manager

	name string
	fn   func(w *WorkerCtx) error

	run      chan struct{}
	interval time.Duration
	lock     sync.Mutex
	reset    chan time.Duration
}

// NewWorkerMgr returns a new worker manager.
// The worker is only started by calling Go, Repeat or once the manager is
// started.
func (m *Manager) NewWorkerMgr(name string, fn func(w *WorkerCtx) error) *WorkerMgr {
	s := &WorkerMgr{
		mgr:   m,
		name:  name,
		fn:    fn,
		run:   make(chan struct{}, 1),
		reset: make(chan time.Duration, 1),
	}
	m.Go(name+" scheduler", s.taskMgr)
	return s
}

func (s *WorkerMgr) taskMgr(w *WorkerCtx) error {
	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-w.Ctx().Done():
			return nil

		case interval := <-s.reset:
			if ticker != nil {
				ticker.Stop()
				ticker, tickC = nil, nil
			}
			if interval > 0 {
				ticker = time.NewTicker(interval)
				tickC = ticker.C
			}
			continue

		case <-s.run:
		case <-tickC:
		}

		err := s.mgr.Do(s.name, s.fn)
		if err != nil {
			w.Warn("scheduled worker failed", "err", err)
		}
	}
}

// Go executes the worker immediately.
// If the worker is currently being executed,
// it is executed again after the current run is done.
func (s *WorkerMgr) Go() {
	select {
	case s.run <- struct{}{}:
	default:
	}
}

// Repeat executes the worker in the given interval.
// A non-positive interval stops repeating.
func (s *WorkerMgr) Repeat(interval time.Duration) *WorkerMgr {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.interval = interval
	// Drop a pending, not yet applied interval.
	select {
	case <-s.reset:
	default:
	}
	s.reset <- interval
	return s
}

// Interval returns the currently configured repeat interval.
func (s *WorkerMgr) Interval() time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.interval
}
