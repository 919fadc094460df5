package dynform

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
)

// Config holds the settings of the form service and its tools.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Form     FormConfig     `json:"form" yaml:"form"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Query    QueryConfig    `json:"query" yaml:"query"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Export   ExportConfig   `json:"export" yaml:"export"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	CORSOrigin      string        `json:"corsOrigin" yaml:"corsOrigin"`
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `json:"maxBodyBytes" yaml:"maxBodyBytes"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FormConfig selects the form schema. An empty SchemaFile means the built-in
// onboarding form.
type FormConfig struct {
	SchemaFile string `json:"schemaFile" yaml:"schemaFile"`
	// TimeZone is the IANA zone whose calendar days date fields use; empty
	// means the process local zone.
	TimeZone string `json:"timeZone" yaml:"timeZone"`
}

// Location resolves TimeZone.
func (c FormConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// StorageConfig selects the submission repository
type StorageConfig struct {
	Driver   string `json:"driver" yaml:"driver"`
	DataFile string `json:"dataFile" yaml:"dataFile"`

	// BreakerThreshold storage failures within BreakerWindow make the postgres
	// repository fail fast for BreakerOpenDuration. Zero disables the breaker.
	BreakerThreshold    int           `json:"breakerThreshold" yaml:"breakerThreshold"`
	BreakerWindow       time.Duration `json:"breakerWindow" yaml:"breakerWindow"`
	BreakerOpenDuration time.Duration `json:"breakerOpenDuration" yaml:"breakerOpenDuration"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	Database        string        `json:"database" yaml:"database"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	SSLMode         string        `json:"sslMode" yaml:"sslMode"`
	MaxConnections  int           `json:"maxConnections" yaml:"maxConnections"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	Table           string        `json:"table" yaml:"table"`
}

// ConnString builds a postgres:// URL from the settings.
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// QueryConfig contains listing settings
type QueryConfig struct {
	DefaultTimeout  time.Duration `json:"defaultTimeout" yaml:"defaultTimeout"`
	DefaultPageSize int           `json:"defaultPageSize" yaml:"defaultPageSize"`
	MaxPageSize     int           `json:"maxPageSize" yaml:"maxPageSize"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// ExportConfig contains the S3 target of the CSV export tool
type ExportConfig struct {
	Bucket          string `json:"bucket" yaml:"bucket"`
	Prefix          string `json:"prefix" yaml:"prefix"`
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"accessKeyId" yaml:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey" yaml:"secretAccessKey"`
	UsePathStyle    bool   `json:"usePathStyle" yaml:"usePathStyle"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3001,
			CORSOrigin:      "*",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Storage: StorageConfig{
			Driver:              StorageDriverFile,
			DataFile:            "data/submissions.json",
			BreakerThreshold:    5,
			BreakerWindow:       30 * time.Second,
			BreakerOpenDuration: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "dynform",
			Username:        "postgres",
			SSLMode:         "disable",
			MaxConnections:  25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         30 * time.Second,
			Table:           "form_submissions",
		},
		Query: QueryConfig{
			DefaultTimeout:  30 * time.Second,
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Export: ExportConfig{
			Prefix: "exports/",
			Region: "us-east-1",
		},
	}
}

// LoadConfig reads a YAML or JSON file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	seconds := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = time.Duration(n) * time.Second
			}
		}
	}

	num("PORT", &c.Server.Port)
	str("CORS_ORIGIN", &c.Server.CORSOrigin)
	seconds("SHUTDOWN_TIMEOUT_SECONDS", &c.Server.ShutdownTimeout)

	str("SCHEMA_FILE", &c.Form.SchemaFile)
	str("FORM_TIME_ZONE", &c.Form.TimeZone)

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("DATA_FILE", &c.Storage.DataFile)
	num("STORAGE_BREAKER_THRESHOLD", &c.Storage.BreakerThreshold)
	seconds("STORAGE_BREAKER_WINDOW_SECONDS", &c.Storage.BreakerWindow)
	seconds("STORAGE_BREAKER_OPEN_SECONDS", &c.Storage.BreakerOpenDuration)

	str("DB_HOST", &c.Database.Host)
	num("DB_PORT", &c.Database.Port)
	str("DB_NAME", &c.Database.Database)
	str("DB_USER", &c.Database.Username)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_SSL_MODE", &c.Database.SSLMode)
	num("DB_MAX_CONNECTIONS", &c.Database.MaxConnections)
	num("DB_MAX_IDLE_CONNS", &c.Database.MaxIdleConns)
	seconds("DB_CONN_MAX_LIFETIME_SECONDS", &c.Database.ConnMaxLifetime)
	seconds("DB_CONN_MAX_IDLE_TIME_SECONDS", &c.Database.ConnMaxIdleTime)
	seconds("DB_TIMEOUT_SECONDS", &c.Database.Timeout)
	str("SUBMISSIONS_TABLE", &c.Database.Table)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	str("S3_BUCKET", &c.Export.Bucket)
	str("S3_PREFIX", &c.Export.Prefix)
	str("S3_REGION", &c.Export.Region)
	str("S3_ENDPOINT", &c.Export.Endpoint)
	str("S3_ACCESS_KEY_ID", &c.Export.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.Export.SecretAccessKey)
	if v := getenv("S3_USE_PATH_STYLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Export.UsePathStyle = b
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 1 and 65535"}
	}

	if c.Server.ShutdownTimeout < 0 {
		return &ConfigError{Field: "server.shutdownTimeout", Message: "must not be negative"}
	}

	if _, err := c.Form.Location(); err != nil {
		return &ConfigError{Field: "form.timeZone", Message: err.Error()}
	}

	switch c.Storage.Driver {
	case StorageDriverFile:
		if c.Storage.DataFile == "" {
			return &ConfigError{Field: "storage.dataFile", Message: "is required for the file driver"}
		}
	case StorageDriverPostgres:
		if c.Database.MaxConnections <= 0 {
			return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
		}
		if c.Database.Table == "" {
			return &ConfigError{Field: "database.table", Message: "is required for the postgres driver"}
		}
	default:
		return &ConfigError{Field: "storage.driver", Message: fmt.Sprintf("unknown driver %q", c.Storage.Driver)}
	}

	if c.Storage.BreakerThreshold < 0 {
		return &ConfigError{Field: "storage.breakerThreshold", Message: "must not be negative"}
	}
	if c.Storage.BreakerThreshold > 0 {
		if c.Storage.BreakerWindow <= 0 {
			return &ConfigError{Field: "storage.breakerWindow", Message: "must be greater than 0 when the breaker is enabled"}
		}
		if c.Storage.BreakerOpenDuration <= 0 {
			return &ConfigError{Field: "storage.breakerOpenDuration", Message: "must be greater than 0 when the breaker is enabled"}
		}
	}

	if c.Query.DefaultPageSize <= 0 {
		return &ConfigError{Field: "query.defaultPageSize", Message: "must be greater than 0"}
	}

	if c.Query.MaxPageSize < c.Query.DefaultPageSize {
		return &ConfigError{Field: "query.maxPageSize", Message: "must be greater than or equal to defaultPageSize"}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be json or console"}
	}

	return nil
}
