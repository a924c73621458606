// Package config loads the ingestor configuration from YAML with .env and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

// Default configuration values.
const (
	defaultServiceName = "streetcode-ingestor"
	defaultVersion     = "0.1.0"
	defaultServicePort = 8075

	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBUser         = "postgres"
	defaultDBName         = "streetcode"
	defaultDBSSLMode      = "disable"
	defaultDBMaxOpenConns = 25
	defaultDBMaxIdleConns = 5
	defaultDBConnLifetime = 5 * time.Minute

	defaultRedisAddress = "localhost:6379"

	defaultWorkers            = 4
	defaultQueueSize          = 256
	defaultMinQualityScore    = 0
	defaultRetryAttempts      = 3
	defaultRetryInitialDelay  = 200 * time.Millisecond
	defaultMessagesPerSecond  = 50.0
	defaultReconnectDelay     = 5 * time.Second
	defaultMaxReconnectDelay  = 60 * time.Second
	defaultMaintenanceBatch   = 500
	defaultTagRecountSchedule = "@every 1h"
)

// DefaultChannels is the layered crime channel set subscribed to when none is configured.
var DefaultChannels = []string{
	"articles:crime",
	"content:crime",
	"content:violent_crime",
	"content:property_crime",
	"content:drug_crime",
	"content:organized_crime",
	"content:criminal_justice",
	"crime:homepage",
	"crime:category:violent-crime",
	"crime:category:property-crime",
	"crime:category:drug-crime",
	"crime:category:gang-violence",
	"crime:category:organized-crime",
	"crime:category:crime",
	"crime:courts",
	"crime:context",
	"crime:canada",
	"crime:province:on",
	"crime:province:bc",
	"crime:province:ab",
	"crime:province:qc",
	"crime:province:mb",
	"crime:province:sk",
	"crime:province:ns",
	"crime:province:nb",
	"crime:province:nl",
	"crime:province:pe",
	"crime:province:nt",
	"crime:province:nu",
	"crime:province:yt",
}

// DefaultAllowedTags is the markup kept in sanitized article content.
var DefaultAllowedTags = []string{
	"p", "br", "a", "strong", "em", "ul", "ol", "li",
	"h1", "h2", "h3", "h4", "h5", "h6",
}

// Config is the root configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Subscriber SubscriberConfig `yaml:"subscriber"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Content    ContentConfig    `yaml:"content"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Logging    logger.Config    `yaml:"logging"`
}

// ServiceConfig holds identity and HTTP settings.
type ServiceConfig struct {
	Name    string `env:"SERVICE_NAME"    yaml:"name"`
	Version string `env:"SERVICE_VERSION" yaml:"version"`
	Port    int    `env:"SERVICE_PORT"    yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"       yaml:"debug"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"` //nolint:gosec // connection config
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the lib/pq keyword connection string.
func (d *DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Database +
		" sslmode=" + d.SSLMode
}

// MigrateURL returns the postgres:// URL golang-migrate expects.
func (d *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"` //nolint:gosec // connection config
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// SubscriberConfig controls the pub/sub consumer.
type SubscriberConfig struct {
	Channels          []string      `env:"SUBSCRIBER_CHANNELS"          yaml:"channels"`
	MinQualityScore   int           `env:"SUBSCRIBER_MIN_QUALITY_SCORE" yaml:"min_quality_score"`
	Workers           int           `env:"SUBSCRIBER_WORKERS"           yaml:"workers"`
	QueueSize         int           `yaml:"queue_size"`
	MessagesPerSecond float64       `yaml:"messages_per_second"`
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
}

// IngestConfig controls pipeline behaviour.
type IngestConfig struct {
	// ClassifyMissingRelevance recomputes the verdict from the title when a
	// message carries no crime_relevance field. Off unless set.
	ClassifyMissingRelevance *bool `yaml:"classify_missing_relevance"`
	MaintenanceBatchSize     int   `yaml:"maintenance_batch_size"`
}

// ShouldClassifyMissing reports the effective ClassifyMissingRelevance value.
// An unset value means messages without a verdict are skipped.
func (c IngestConfig) ShouldClassifyMissing() bool {
	return c.ClassifyMissingRelevance != nil && *c.ClassifyMissingRelevance
}

// ContentConfig controls content sanitization.
type ContentConfig struct {
	AllowedTags []string `yaml:"allowed_tags"`
}

// ScheduleConfig holds cron specs for periodic maintenance run by serve.
type ScheduleConfig struct {
	TagRecount string `env:"SCHEDULE_TAG_RECOUNT" yaml:"tag_recount"`
}

// Load reads the configuration at path.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path, setDefaults)
	if err != nil {
		return nil, err
	}
	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	setSubscriberDefaults(&cfg.Subscriber)
	if cfg.Ingest.MaintenanceBatchSize == 0 {
		cfg.Ingest.MaintenanceBatchSize = defaultMaintenanceBatch
	}
	if len(cfg.Content.AllowedTags) == 0 {
		cfg.Content.AllowedTags = append([]string(nil), DefaultAllowedTags...)
	}
	if cfg.Schedule.TagRecount == "" {
		cfg.Schedule.TagRecount = defaultTagRecountSchedule
	}
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxOpenConns == 0 {
		d.MaxOpenConns = defaultDBMaxOpenConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = defaultDBConnLifetime
	}
}

func setSubscriberDefaults(s *SubscriberConfig) {
	if len(s.Channels) == 0 {
		s.Channels = append([]string(nil), DefaultChannels...)
	}
	if s.MinQualityScore == 0 {
		s.MinQualityScore = defaultMinQualityScore
	}
	if s.Workers == 0 {
		s.Workers = defaultWorkers
	}
	if s.QueueSize == 0 {
		s.QueueSize = defaultQueueSize
	}
	if s.MessagesPerSecond == 0 {
		s.MessagesPerSecond = defaultMessagesPerSecond
	}
	if s.RetryAttempts == 0 {
		s.RetryAttempts = defaultRetryAttempts
	}
	if s.RetryInitialDelay == 0 {
		s.RetryInitialDelay = defaultRetryInitialDelay
	}
	if s.ReconnectDelay == 0 {
		s.ReconnectDelay = defaultReconnectDelay
	}
	if s.MaxReconnectDelay == 0 {
		s.MaxReconnectDelay = defaultMaxReconnectDelay
	}
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Port <= 0 {
		errs = append(errs, errors.New("service.port: must be positive"))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host: is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("database.database: is required"))
	}
	if c.Redis.Address == "" {
		errs = append(errs, errors.New("redis.address: is required"))
	}
	if c.Subscriber.Workers < 1 {
		errs = append(errs, errors.New("subscriber.workers: must be at least 1"))
	}
	if c.Subscriber.MinQualityScore < 0 {
		errs = append(errs, errors.New("subscriber.min_quality_score: must not be negative"))
	}
	if c.Subscriber.RetryAttempts < 1 {
		errs = append(errs, errors.New("subscriber.retry_attempts: must be at least 1"))
	}

	return errors.Join(errs...)
}
