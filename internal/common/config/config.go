// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Messaging     MessagingConfig         `mapstructure:"messaging"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Workers       map[string]WorkerConfig `mapstructure:"workers" validate:"dive"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address" validate:"required"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active" validate:"gte=1"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	Database       string `mapstructure:"database" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	URL          string   `mapstructure:"url"`
	CompanyIndex string   `mapstructure:"company_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MessagingConfig struct {
	NATS NATSConfig `mapstructure:"nats"`
}

type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url" validate:"required_if=Enabled true"`
	Name          string `mapstructure:"name"`
	Subject       string `mapstructure:"subject"`
	ReconnectWait int    `mapstructure:"reconnect_wait"` // milliseconds
	MaxReconnects int    `mapstructure:"max_reconnects"`
}

// IntegrationConfig holds settings for external services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SNS    struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn" validate:"required_if=Enabled true"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// MatchingConfig tunes the matching engine and its collaborators.
type MatchingConfig struct {
	DefaultLimit     int            `mapstructure:"default_limit" validate:"gte=1"`
	MaxLimit         int            `mapstructure:"max_limit" validate:"gtefield=DefaultLimit"`
	PoolCap          int            `mapstructure:"pool_cap" validate:"gte=1"`
	ScoringWorkers   int            `mapstructure:"scoring_workers" validate:"gte=1"`
	SlowRunThreshold int            `mapstructure:"slow_run_threshold"` // milliseconds
	CandidateSource  string         `mapstructure:"candidate_source" validate:"oneof=postgres elasticsearch"`
	ProfileCacheTTL  int            `mapstructure:"profile_cache_ttl"` // seconds, 0 disables the cache
	Activity         ActivityConfig `mapstructure:"activity"`
}

type ActivityConfig struct {
	BufferSize     int  `mapstructure:"buffer_size" validate:"gte=1"`
	PublishTimeout int  `mapstructure:"publish_timeout"` // milliseconds
	Postgres       bool `mapstructure:"postgres"`
}

// ProfileCacheDuration returns the cache TTL as a duration.
func (m MatchingConfig) ProfileCacheDuration() time.Duration {
	return time.Duration(m.ProfileCacheTTL) * time.Second
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active" validate:"gte=0"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName string `mapstructure:"service_name"`
	HealthPort  int    `mapstructure:"health_port" validate:"gte=1,lte=65535"`
}
