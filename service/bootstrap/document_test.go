package bootstrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDNSRegistry = `{
  "description": "RDAP bootstrap file for Domain Name System registrations",
  "publication": "2024-06-10T22:00:01Z",
  "services": [
    [["com"], ["https://a.example/"]],
    [["example.com", "example.net"], ["https://b.example/rdap", "http://b.example/rdap/"]]
  ],
  "version": "1.0"
}`

const testASNRegistry = `{
  "version": "1.0",
  "publication": "2024-06-10T22:00:01Z",
  "services": [
    [["1-100"], ["https://wide.example/"]],
    [["50-60"], ["https://narrow.example/"]],
    [["200-210"], ["https://first.example/"]],
    [["205-215"], ["https://second.example/"]]
  ]
}`

const testIPv4Registry = `{
  "version": "1.0",
  "services": [
    [["10.0.0.0/8"], ["https://eight.example/"]],
    [["10.1.0.0/16"], ["https://sixteen.example/"]],
    [["192.0.2.0/24", "198.51.100.0/24"], ["https://doc.example/"]]
  ]
}`

const testIPv6Registry = `{
  "version": "1.0",
  "services": [
    [["2001:db8::/32"], ["https://v6.example/"]],
    [["2001:db8:1::/48"], ["https://v6-48.example/"]]
  ]
}`

const testTagRegistry = `{
  "version": "1.0",
  "description": "RDAP bootstrap file for service provider object tags",
  "services": [
    [["contact@example.net"], ["FRNIC"], ["https://rdap.nic.example/"]],
    [["noc@example.org"], ["ARIN"], ["https://rdap.arin.example/registry/"]]
  ]
}`

func mustParse(t *testing.T, kind Kind, body string) *Document {
	t.Helper()

	doc, err := ParseDocument(kind, []byte(body))
	require.NoError(t, err)
	return doc
}

func TestParseDocument(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, KindDomain, testDNSRegistry)
	assert.Equal(t, KindDomain, doc.Kind)
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, 2024, doc.Publication.Year())
	assert.Contains(t, doc.Description, "Domain Name System")
	assert.NoError(t, doc.Warnings)

	require.Len(t, doc.Services, 2)
	assert.Equal(t, []string{"com"}, doc.Services[0].Keys)
	assert.Equal(t, []string{"example.com", "example.net"}, doc.Services[1].Keys)
	// Base locations always end with a slash and keep their order.
	assert.Equal(t, []string{"https://b.example/rdap/", "http://b.example/rdap/"}, doc.Services[1].URLs)
	assert.Equal(t, "https://b.example/rdap/", doc.Services[1].BaseURL())
}

func TestParseEntityTagDocument(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, KindEntityTag, testTagRegistry)
	require.Len(t, doc.Services, 2)
	assert.Equal(t, []string{"contact@example.net"}, doc.Services[0].Contacts)
	assert.Equal(t, []string{"FRNIC"}, doc.Services[0].Keys)
	assert.Equal(t, "https://rdap.nic.example/", doc.Services[0].BaseURL())
}

func TestParseDocumentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"services": [`},
		{"not an object", `[1, 2, 3]`},
		{"missing services", `{"version": "1.0"}`},
		{"services not an array", `{"version": "1.0", "services": {}}`},
		{"unsupported version", `{"version": "2.0", "services": []}`},
		{"no valid entry", `{"version": "1.0", "services": [[["com"], []], [[], ["https://a/"]]]}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			doc, err := ParseDocument(KindDomain, []byte(tc.body))
			require.Error(t, err)
			assert.Nil(t, doc)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %T", err)
			assert.Equal(t, KindDomain, parseErr.Kind)
		})
	}
}

func TestParseDocumentSkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, KindDomain, `{
  "version": "1.0",
  "publication": "yesterday",
  "services": [
    "garbage",
    [["org"]],
    [["net"], ["ftp://x.example/"]],
    [["com", 5], ["https://a/"]],
    [["io"], ["https://io.example/", "not a url"]],
    [["COM."], ["https://upper.example"]]
  ]
}`)
	require.Len(t, doc.Services, 2)
	assert.Equal(t, []string{"io"}, doc.Services[0].Keys)
	assert.Equal(t, []string{"https://io.example/"}, doc.Services[0].URLs)
	// Keys are normalized to lower case without trailing dot.
	assert.Equal(t, []string{"com"}, doc.Services[1].Keys)
	assert.Equal(t, "https://upper.example/", doc.Services[1].BaseURL())

	require.Error(t, doc.Warnings)
	assert.Contains(t, doc.Warnings.Error(), "publication")
	assert.Contains(t, doc.Warnings.Error(), "service #0")
	assert.Contains(t, doc.Warnings.Error(), "not a url")
}

func TestParseDocumentVersionWarnings(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, KindDomain, `{"services": [[["com"], ["https://a/"]]]}`)
	require.Error(t, doc.Warnings)
	assert.Contains(t, doc.Warnings.Error(), "missing version")

	doc = mustParse(t, KindDomain, `{"version": "1.1", "services": []}`)
	assert.NoError(t, doc.Warnings)
	assert.Empty(t, doc.Services)
}

func TestParseDocumentRootZone(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, KindDomain, `{"version": "1.0", "services": [[["", "."], ["https://root.example/"]]]}`)
	require.Len(t, doc.Services, 1)
	assert.Equal(t, []string{"", ""}, doc.Services[0].Keys)

	// Empty keys have no meaning in other registries.
	_, err := ParseDocument(KindASN, []byte(`{"version": "1.0", "services": [[[""], ["https://a/"]]]}`))
	require.Error(t, err)
}
