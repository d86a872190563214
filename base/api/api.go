// Package api provides a small HTTP server for the endpoints registered by
// other modules.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/safing/rdapboot/base/log"
	"github.com/safing/rdapboot/service/mgr"
)

// API serves registered HTTP handlers.
type API struct {
	mgr *mgr.Manager

	router      *mux.Router
	handlerLock sync.RWMutex

	server   *http.Server
	listener net.Listener
}

// New returns a new API module listening on listenAddr.
func New(listenAddr string) (*API, error) {
	if listenAddr == "" {
		return nil, errors.New("no listen address")
	}
	a := &API{
		router: mux.NewRouter(),
	}
	a.server = &http.Server{
		Addr:              listenAddr,
		Handler:           &mainHandler{api: a},
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// RegisterHandler registers a handler for the path.
func (a *API) RegisterHandler(path string, handler http.Handler) *mux.Route {
	a.handlerLock.Lock()
	defer a.handlerLock.Unlock()
	return a.router.Handle(path, handler)
}

// RegisterHandleFunc registers a handle function for the path.
func (a *API) RegisterHandleFunc(path string, handleFunc func(http.ResponseWriter, *http.Request)) *mux.Route {
	a.handlerLock.Lock()
	defer a.handlerLock.Unlock()
	return a.router.HandleFunc(path, handleFunc)
}

// Addr returns the address the server is listening on.
// It is only available after the module was started.
func (a *API) Addr() string {
	if a.listener == nil {
		return a.server.Addr
	}
	return a.listener.Addr().String()
}

// Start starts the module.
func (a *API) Start(m *mgr.Manager) error {
	a.mgr = m

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}
	a.listener = ln
	a.server.BaseContext = func(net.Listener) context.Context {
		return m.Ctx()
	}

	m.Go("http server", a.serve)
	return nil
}

// Stop stops the module.
func (a *API) Stop(_ *mgr.Manager) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}

func (a *API) serve(_ *mgr.WorkerCtx) error {
	log.Infof("api: listening on %s", a.Addr())
	err := a.server.Serve(a.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type mainHandler struct {
	api *API
}

func (mh *mainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = mh.api.mgr.Do("http request", func(_ *mgr.WorkerCtx) error {
		mh.handle(w, r)
		return nil
	})
}

func (mh *mainHandler) handle(w http.ResponseWriter, r *http.Request) {
	lrw := NewLoggingResponseWriter(w, r)
	start := time.Now()
	defer func() {
		log.Debugf("api request: %s %d %s %s (%s)", r.RemoteAddr, lrw.Status, r.Method, r.RequestURI, time.Since(start).Round(time.Microsecond))
	}()

	// Add security headers.
	w.Header().Set("Referrer-Policy", "same-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "deny")

	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		http.Error(lrw, "Method not allowed.", http.StatusMethodNotAllowed)
		return
	}

	mh.api.handlerLock.RLock()
	defer mh.api.handlerLock.RUnlock()

	var match mux.RouteMatch
	if !mh.api.router.Match(r, &match) {
		http.Error(lrw, "Not found.", http.StatusNotFound)
		return
	}
	r = mux.SetURLVars(r, match.Vars)
	match.Handler.ServeHTTP(lrw, r)
}
