// internal/common/config/loader_test.go
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

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: matching
    user: matcher
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "company-matching", cfg.App.Name)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 10, cfg.Matching.DefaultLimit)
	assert.Equal(t, 50, cfg.Matching.MaxLimit)
	assert.Equal(t, 200, cfg.Matching.PoolCap)
	assert.Equal(t, "postgres", cfg.Matching.CandidateSource)
	assert.Equal(t, "matching.run.completed", cfg.Messaging.NATS.Subject)
	assert.Equal(t, "companies", cfg.Database.Elasticsearch.CompanyIndex)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Zero(t, cfg.Matching.ProfileCacheDuration())
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	body := `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: ${TEST_DB_HOST}
    database: matching
    user: matcher
  redis:
    address: localhost:6379
matching:
  profile_cache_ttl: 120
workers:
  find-company-matches:
    enabled: true
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 2*time.Minute, cfg.Matching.ProfileCacheDuration())

	worker := GetWorkerConfig(cfg, "find-company-matches")
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 3, worker.MaxRetries)
	assert.True(t, IsWorkerEnabled(cfg, "unknown-worker"))
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing broker",
			body: `
database:
  postgres:
    host: localhost
    database: matching
    user: matcher
`,
		},
		{
			name: "unknown candidate source",
			body: minimalConfig + `
matching:
  candidate_source: mongo
`,
		},
		{
			name: "elasticsearch source without address",
			body: minimalConfig + `
matching:
  candidate_source: elasticsearch
`,
		},
		{
			name: "cache without redis",
			body: minimalConfig + `
matching:
  profile_cache_ttl: 60
`,
		},
		{
			name: "sns enabled without topic",
			body: minimalConfig + `
integrations:
  aws:
    sns:
      enabled: true
`,
		},
		{
			name: "max limit below default",
			body: minimalConfig + `
matching:
  default_limit: 20
  max_limit: 5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MATCHING_SNS_TOPIC_ARN", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
