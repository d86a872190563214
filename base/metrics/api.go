package metrics

import (
	"net/http"

	"github.com/safing/rdapboot/base/api"
)

// RegisterAPI registers the /metrics endpoint.
func RegisterAPI(a *api.API) {
	a.RegisterHandler("/metrics", &metricsAPI{})
}

type metricsAPI struct{}

func (m *metricsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	WritePrometheus(w, r.URL.Query().Has("process"))
}
