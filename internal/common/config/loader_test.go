package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: onboarding-manager
integrations:
  mode: simulated
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, []int{30, 120, 600}, cfg.Retry.Delays)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, SnapshotBackendNone, cfg.Snapshot.Backend)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "onboarding-ledger", cfg.Database.Elasticsearch.LedgerIndex)
	assert.Equal(t, "candidate-interview", cfg.Camunda.InterviewProcessID)
	assert.Equal(t, []time.Duration{30 * time.Second, 2 * time.Minute, 10 * time.Minute}, cfg.Retry.Backoff())
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_GATEWAY_URL", "http://gateway.internal")
	path := writeConfig(t, `
integrations:
  mode: live
  gateway:
    base_url: ${TEST_GATEWAY_URL}
camunda:
  broker_address: zeebe:26500
database:
  redis:
    address: redis:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://gateway.internal", cfg.Integrations.Gateway.BaseURL)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{
			"delays must increase",
			func(c *Config) { c.Retry.Delays = []int{30, 30} },
			"strictly increasing",
		},
		{
			"attempts need a delay per retry",
			func(c *Config) { c.Retry.MaxAttempts = 5 },
			"needs at least 4 retry.delays",
		},
		{
			"fewer attempts than delays",
			func(c *Config) { c.Retry.MaxAttempts = 2 },
			"",
		},
		{
			"live mode needs gateway",
			func(c *Config) { c.Integrations.Mode = ModeLive },
			"gateway.base_url",
		},
		{
			"postgres snapshot needs host",
			func(c *Config) { c.Snapshot.Backend = SnapshotBackendPostgres },
			"postgres.host",
		},
		{
			"unknown snapshot backend",
			func(c *Config) { c.Snapshot.Backend = "sqlite" },
			"unknown snapshot.backend",
		},
		{
			"tracing needs endpoint",
			func(c *Config) { c.Tracing.Enabled = true },
			"jaeger_endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "onboarding", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=onboarding sslmode=disable", p.GetDSN())
}

func TestElasticsearchAddresses(t *testing.T) {
	assert.Equal(t, []string{"http://es:9200"}, ElasticsearchConfig{URL: "http://es:9200"}.GetAddresses())
	assert.Equal(t, []string{"a", "b"}, ElasticsearchConfig{Addresses: []string{"a", "b"}, URL: "c"}.GetAddresses())
	assert.Nil(t, ElasticsearchConfig{}.GetAddresses())
}
