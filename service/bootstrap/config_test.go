package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "fstree", cfg.Cache.Type)
	assert.Equal(t, 24*time.Hour, cfg.Cache.MaxAge)
	assert.Equal(t, 12*time.Hour, cfg.Refresh.Interval)
	assert.NotEmpty(t, cfg.Cache.Location)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(cfg *Config)
	}{
		{"no cache type", func(cfg *Config) { cfg.Cache.Type = "" }},
		{"unknown cache type", func(cfg *Config) { cfg.Cache.Type = "tape" }},
		{"zero max age", func(cfg *Config) { cfg.Cache.MaxAge = 0 }},
		{"negative timeout", func(cfg *Config) { cfg.HTTP.Timeout = -time.Second }},
		{"zero refresh interval", func(cfg *Config) { cfg.Refresh.Interval = 0 }},
		{"unknown registry", func(cfg *Config) { cfg.Registries = map[string]string{"phone": "https://x/"} }},
		{"bad registry scheme", func(cfg *Config) { cfg.Registries = map[string]string{"dns": "ftp://x/dns.json"} }},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tc.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigRegistryURLs(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Registries = map[string]string{
		"dns":         "http://localhost:8080/dns.json",
		"object-tags": "https://mirror.example/object-tags.json",
		"ipv4":        "",
	}
	urls, err := cfg.RegistryURLs()
	require.NoError(t, err)
	assert.Equal(t, map[Kind]string{
		KindDomain:    "http://localhost:8080/dns.json",
		KindEntityTag: "https://mirror.example/object-tags.json",
	}, urls)
}

func TestKind(t *testing.T) {
	t.Parallel()

	for _, kind := range AllKinds() {
		assert.True(t, kind.IsValid())
		parsed, err := ParseKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)

		parsed, err = ParseKind(kind.StorageKey())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)

		assert.Contains(t, kind.DefaultURL(), "https://data.iana.org/rdap/"+kind.StorageKey())
	}

	assert.False(t, Kind(0).IsValid())
	assert.False(t, Kind(6).IsValid())
	_, err := ParseKind("phone")
	require.Error(t, err)
}
