// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Server       ServerConfig      `mapstructure:"server"`
	Camunda      CamundaConfig     `mapstructure:"camunda"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Retry        RetryConfig       `mapstructure:"retry"`
	Snapshot     SnapshotConfig    `mapstructure:"snapshot"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	Operator     OperatorConfig    `mapstructure:"operator"`
	Guidance     GuidanceConfig    `mapstructure:"guidance"`
	Logging      LoggingConfig     `mapstructure:"logging"`
	Tracing      TracingConfig     `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

type CamundaConfig struct {
	BrokerAddress      string `mapstructure:"broker_address"`
	RequestTimeout     int    `mapstructure:"request_timeout"` // milliseconds
	InterviewProcessID string `mapstructure:"interview_process_id"`
	MessageTTL         int    `mapstructure:"message_ttl"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	URL         string   `mapstructure:"url"`
	LedgerIndex string   `mapstructure:"ledger_index"`
	BufferSize  int      `mapstructure:"buffer_size"`
}

// GetAddresses returns Addresses, falling back to URL.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	PoolSize  int    `mapstructure:"pool_size"`
}

// RetryConfig drives the automatic retry policy for failed checks.
type RetryConfig struct {
	Delays      []int `mapstructure:"delays"` // seconds, indexed by attempt
	MaxAttempts int   `mapstructure:"max_attempts"`
}

// Backoff returns the delay table as durations.
func (r RetryConfig) Backoff() []time.Duration {
	out := make([]time.Duration, 0, len(r.Delays))
	for _, d := range r.Delays {
		out = append(out, time.Duration(d)*time.Second)
	}
	return out
}

const (
	SnapshotBackendNone     = "none"
	SnapshotBackendPostgres = "postgres"
	SnapshotBackendRedis    = "redis"
)

type SnapshotConfig struct {
	Backend string `mapstructure:"backend"`
	Key     string `mapstructure:"key"`
	TTL     int    `mapstructure:"ttl"` // seconds, redis only
	Table   string `mapstructure:"table"`
}

const (
	ModeLive      = "live"
	ModeSimulated = "simulated"
)

// IntegrationConfig holds settings for the external collaborators.
type IntegrationConfig struct {
	Mode string `mapstructure:"mode"`

	Gateway struct {
		BaseURL             string `mapstructure:"base_url"`
		APIKey              string `mapstructure:"api_key"`
		Timeout             int    `mapstructure:"timeout"`               // milliseconds
		CounterpartCacheTTL int    `mapstructure:"counterpart_cache_ttl"` // seconds
	} `mapstructure:"gateway"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
			WhatsAppTopicARN   string `mapstructure:"whatsapp_topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`

	Notifications struct {
		ReadinessLinkURL string `mapstructure:"readiness_link_url"`
		FormLinkURL      string `mapstructure:"form_link_url"`
		CounterpartEmail string `mapstructure:"counterpart_email"`
	} `mapstructure:"notifications"`

	Simulated struct {
		Latency int             `mapstructure:"latency"` // milliseconds
		Flags   map[string]bool `mapstructure:"flags"`
	} `mapstructure:"simulated"`
}

// OperatorConfig identifies the recruiter driving the workflow.
type OperatorConfig struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	BranchID string `mapstructure:"branch_id"`
}

type GuidanceConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
