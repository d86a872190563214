package bootstrap

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/safing/rdapboot/base/api"
)

// LookupResponse is the API representation of a lookup result.
type LookupResponse struct {
	Identifier string     `json:"identifier" yaml:"identifier"`
	Kind       string     `json:"kind" yaml:"kind"`
	BaseURL    string     `json:"baseURL" yaml:"baseURL"`
	URLs       []string   `json:"urls" yaml:"urls"`
	Candidates [][]string `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	Source     string     `json:"source" yaml:"source"`
	FetchedAt  time.Time  `json:"fetchedAt" yaml:"fetchedAt"`
	Stale      string     `json:"stale,omitempty" yaml:"stale,omitempty"`
}

// RegisterAPI registers the lookup endpoints of the resolver.
func (r *Resolver) RegisterAPI(a *api.API) {
	a.RegisterHandleFunc("/v1/resolve/{identifier:.+}", r.handleResolve)
	a.RegisterHandleFunc("/v1/registries", r.handleRegistries)
}

func (r *Resolver) handleResolve(w http.ResponseWriter, req *http.Request) {
	id, err := ParseIdentifier(mux.Vars(req)["identifier"])
	if err != nil {
		api.WriteError(w, req, http.StatusBadRequest, err)
		return
	}

	res, err := r.Lookup(req.Context(), id)
	switch {
	case err == nil:
	case IsNoServiceFound(err):
		api.WriteError(w, req, http.StatusNotFound, err)
		return
	case errors.Is(err, ErrInvalidIdentifier):
		api.WriteError(w, req, http.StatusBadRequest, err)
		return
	default:
		api.WriteError(w, req, http.StatusBadGateway, err)
		return
	}

	resp := &LookupResponse{
		Identifier: id.String(),
		Kind:       res.Kind.String(),
		BaseURL:    res.BaseURL(),
		URLs:       res.URLs(),
		Source:     res.Source.String(),
		FetchedAt:  res.FetchedAt,
	}
	if res.StaleReason != nil {
		resp.Stale = res.StaleReason.Error()
	}
	if req.URL.Query().Has("all") {
		for _, svc := range res.Candidates {
			resp.Candidates = append(resp.Candidates, svc.URLs)
		}
	}
	api.WriteData(w, req, http.StatusOK, resp)
}

func (r *Resolver) handleRegistries(w http.ResponseWriter, req *http.Request) {
	infos := make([]*RegistryInfo, 0, len(AllKinds()))
	for _, kind := range AllKinds() {
		infos = append(infos, r.loader.Info(kind))
	}
	api.WriteData(w, req, http.StatusOK, infos)
}
