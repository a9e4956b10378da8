package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Engine        EngineConfig            `mapstructure:"engine"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// RegistryPath points at the activity registry checked at startup.
	RegistryPath string `mapstructure:"registry_path"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	Plaintext      bool   `mapstructure:"plaintext"`
}

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
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
	AutoMigrate    bool   `mapstructure:"auto_migrate"`

	ConnMaxLifetime  int `mapstructure:"conn_max_lifetime"` // seconds
	StatementTimeout int `mapstructure:"statement_timeout"` // milliseconds, server-side
}

// GetDSN returns the PostgreSQL connection string. A statement timeout is
// passed through as a run-time parameter so a stuck query is cancelled by
// the server as well as by the caller's context.
func (p PostgresConfig) GetDSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=creatorschapter-workflow",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
	if p.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", p.StatementTimeout)
	}
	return dsn
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// HTTPConfig configures the listener serving the API, health and metrics.
type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

// EngineConfig tunes the workflow engine.
type EngineConfig struct {
	BulkMaxConcurrency      int `mapstructure:"bulk_max_concurrency"`
	PersistenceTimeout      int `mapstructure:"persistence_timeout"` // milliseconds, per item
	ConversationMaxAttempts int `mapstructure:"conversation_max_attempts"`
	ListingMaxPageSize      int `mapstructure:"listing_max_page_size"`
	ProfileCacheTTL         int `mapstructure:"profile_cache_ttl"` // seconds
	DispatchBatchSize       int `mapstructure:"dispatch_batch_size"`
}

// Notification transports.
const (
	TransportSNS  = "sns"
	TransportAMQP = "amqp"
	TransportNone = "none"
)

// NotificationConfig selects where "application status changed" events go.
type NotificationConfig struct {
	Transport string `mapstructure:"transport"`
	SNS       struct {
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	AMQP struct {
		URL        string `mapstructure:"url"`
		Exchange   string `mapstructure:"exchange"`
		RoutingKey string `mapstructure:"routing_key"`
	} `mapstructure:"amqp"`
}
