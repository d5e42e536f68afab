package config

import (
	"path/filepath"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/pkg/testsupport"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	assert.True(t, goerrors.IsValidation(err))
	verrs, ok := goerrors.GetValidationErrors(err)
	require.True(t, ok)
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field] = fe.Message
	}
	return out
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultWorkersURL, cfg.WorkersURL)
	assert.Equal(t, gateway.ModeServer, cfg.GatewayMode())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NotEmpty(t, cfg.KeyFile)
}

func TestDefaultCacheMatchesCacheDefaults(t *testing.T) {
	got := Default().CacheConfig()
	want := cache.DefaultConfig()

	assert.Equal(t, want.StaleTime, got.StaleTime)
	assert.Equal(t, want.GCTime, got.GCTime)
	assert.Equal(t, want.Retry, got.Retry)
	assert.Equal(t, want.MutationRetry, got.MutationRetry)
	assert.Equal(t, want.RefetchOnReconnect, got.RefetchOnReconnect)
	assert.Equal(t, want.RefetchOnWindowFocus, got.RefetchOnWindowFocus)
	assert.Equal(t, want.Capacity, got.Capacity)
	assert.NotNil(t, got.RetryDelay)
}

func TestLoadFile(t *testing.T) {
	path := testsupport.WriteFixture(t, "opsboard.yaml", testsupport.LoadFixture(t, "config/opsboard.yaml"))

	for _, name := range []string{EnvWorkersURL, EnvPublicWorkersURL, EnvMode, EnvLogLevel} {
		t.Setenv(name, "")
	}

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://workers.example.com", cfg.WorkersURL)
	assert.Equal(t, gateway.ModeClient, cfg.GatewayMode())
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, time.Minute, cfg.Cache.StaleTime)
	assert.Equal(t, 1, cfg.Cache.Retry)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.Server.Addr)

	// unset keys keep their defaults
	assert.Equal(t, Default().Cache.GCTime, cfg.Cache.GCTime)
	assert.Equal(t, "/metrics", cfg.Server.MetricsPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))
}

func TestLoadMalformedFile(t *testing.T) {
	path := testsupport.WriteFixture(t, "bad.yaml", []byte("cache: [unclosed"))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv(EnvMode, "browser")

	_, err := Load("")
	got := fields(t, err)
	assert.Contains(t, got, "mode")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(env(map[string]string{
		EnvWorkersURL:       "https://primary.example.com",
		EnvPublicWorkersURL: "https://public.example.com",
		EnvAPIKey:           "server-key",
		EnvHospitableAPIKey: "hosp",
		EnvTurnoAPIToken:    "turno",
		EnvMode:             "client",
		EnvLogLevel:         "warn",
		EnvKeyFile:          "/tmp/keys.json",
	}))

	assert.Equal(t, "https://primary.example.com", cfg.WorkersURL)
	assert.Equal(t, "server-key", cfg.APIKey)
	assert.Equal(t, "hosp", cfg.Sources.HospitableAPIKey)
	assert.Equal(t, "turno", cfg.Sources.TurnoAPIToken)
	assert.Equal(t, "client", cfg.Mode)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/keys.json", cfg.KeyFile)
}

func TestApplyEnvPublicURLFallback(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(env(map[string]string{
		EnvWorkersURL:       "",
		EnvPublicWorkersURL: "https://public.example.com",
	}))
	assert.Equal(t, "https://public.example.com", cfg.WorkersURL)
}

func TestApplyEnvEmptyKeepsValues(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "from-file"
	cfg.ApplyEnv(env(nil))

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, DefaultWorkersURL, cfg.WorkersURL)
}

func TestValidateCollectsAllFields(t *testing.T) {
	cfg := Default()
	cfg.WorkersURL = "not a url"
	cfg.Mode = "edge"
	cfg.Timeout = -time.Second
	cfg.Log.Level = "verbose"
	cfg.Log.Format = "xml"

	got := fields(t, cfg.Validate())
	for _, field := range []string{"workers_url", "mode", "timeout", "log.level", "log.format"} {
		assert.Contains(t, got, field)
	}
}

func TestValidateCacheFields(t *testing.T) {
	cases := []struct {
		name  string
		apply func(*Config)
		field string
	}{
		{"stale time", func(c *Config) { c.Cache.StaleTime = -time.Second }, "cache.stale_time"},
		{"retry", func(c *Config) { c.Cache.Retry = -1 }, "cache.retry"},
		{"mutation retry", func(c *Config) { c.Cache.MutationRetry = -1 }, "cache.mutation_retry"},
		{"gc time", func(c *Config) { c.Cache.GCTime = 0 }, "cache.gc_time"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.apply(&cfg)
			assert.Contains(t, fields(t, cfg.Validate()), tc.field)
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "gc_time", toSnake("GCTime"))
	assert.Equal(t, "stale_time", toSnake("StaleTime"))
	assert.Equal(t, "num_shards", toSnake("NumShards"))
	assert.Equal(t, "retry", toSnake("Retry"))
}
