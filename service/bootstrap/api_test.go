package bootstrap

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rdapboot/base/api"
	"github.com/safing/rdapboot/service/mgr"
)

func startTestAPI(t *testing.T, r *Resolver) string {
	t.Helper()

	a, err := api.New("127.0.0.1:0")
	require.NoError(t, err)
	r.RegisterAPI(a)

	group := mgr.NewGroup(a)
	require.NoError(t, group.Start())
	t.Cleanup(func() { group.Stop() })
	return "http://" + a.Addr()
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestResolveAPI(t *testing.T) {
	t.Parallel()

	base := startTestAPI(t, newTestResolver(t, newTestRegistries(t)))

	var res LookupResponse
	status := getJSON(t, base+"/v1/resolve/www.example.com", &res)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "domain", res.Kind)
	assert.Equal(t, "https://b.example/rdap/", res.BaseURL)
	assert.Equal(t, SourceOrigin.String(), res.Source)
	assert.Empty(t, res.Candidates)

	res = LookupResponse{}
	status = getJSON(t, base+"/v1/resolve/www.example.com?all", &res)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, res.Candidates, 2)

	res = LookupResponse{}
	status = getJSON(t, base+"/v1/resolve/10.1.0.0/16", &res)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ipv4", res.Kind)
	assert.Equal(t, "https://sixteen.example/", res.BaseURL)

	res = LookupResponse{}
	status = getJSON(t, base+"/v1/resolve/2001:db8:1::%2F64", &res)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://v6-48.example/", res.BaseURL)

	var errResp api.ErrorResponse
	status = getJSON(t, base+"/v1/resolve/example.invalid", &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, errResp.Error)

	status = getJSON(t, base+"/v1/resolve/-bad-", &errResp)
	assert.Equal(t, http.StatusBadRequest, status)

	var infos []*RegistryInfo
	status = getJSON(t, base+"/v1/registries", &infos)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, infos, len(AllKinds()))
	assert.Equal(t, "domain", infos[0].Kind)
	assert.Equal(t, StateFresh, infos[0].State)
}

func TestResolveAPIUpstreamFailure(t *testing.T) {
	t.Parallel()

	urls := newTestRegistries(t)
	urls[KindDomain] += ".missing"
	base := startTestAPI(t, newTestResolver(t, urls))

	var errResp api.ErrorResponse
	status := getJSON(t, base+"/v1/resolve/example.com", &errResp)
	assert.Equal(t, http.StatusBadGateway, status)
}
