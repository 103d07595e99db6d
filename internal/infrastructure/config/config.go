package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
)

// Config holds all migrator configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Source    SourceConfig
	Saleor    SaleorConfig
	Media     MediaConfig
	Migration MigrationConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string `validate:"required"`
	Env  string `validate:"required"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
	Output string // stdout, stderr, or file path
}

// Source database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SourceConfig holds the legacy database connection settings
type SourceConfig struct {
	Driver          string `validate:"oneof=mysql postgres sqlite"`
	Host            string
	Port            int `validate:"gte=0,lte=65535"`
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite database file
	RowLimit        int    `validate:"gt=0"`
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// SaleorConfig holds the target storefront settings
type SaleorConfig struct {
	GraphQLURL     string `validate:"required,url"`
	Email          string
	Password       string
	ChannelID      string
	ChannelSlug    string `validate:"required"`
	WarehouseID    string
	TaxClassID     string
	TimeoutSeconds int `validate:"gt=0"`
	RefreshSkew    time.Duration
}

// Timeout returns the HTTP timeout for storefront requests
func (s SaleorConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Media backends
const (
	MediaBackendHost = "host"
	MediaBackendS3   = "s3"
)

// MediaConfig holds the media resolution settings
type MediaConfig struct {
	Backend    string `validate:"oneof=host s3"`
	Host       string // empty = detect the outbound IP
	Port       int    `validate:"gt=0,lte=65535"`
	PathPrefix string
	Dir        string
	S3         S3Config
}

// S3Config holds the object storage settings for presigned media URLs
type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// Product filter policies
const (
	ProductFilterLenient = "lenient"
	ProductFilterStrict  = "strict"
)

// MigrationConfig holds the migration run settings
type MigrationConfig struct {
	OverridesFile      string `validate:"required"`
	SkeletonFile       string `validate:"required"`
	FailureLog         string `validate:"required"`
	ProductFilter      string `validate:"oneof=lenient strict"`
	DefaultProductType string `validate:"required"`
	ExcludedCategories []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection
	DBTraceEnabled    bool // Enable source query tracing (otelgorm)
}

// Load loads configuration from a TOML file and environment variables.
// An empty path searches config.toml in the working directory and /etc/catalog-migrator.
// Priority (highest to lowest):
// 1. Environment variables with MIGRATOR_ prefix (e.g., MIGRATOR_SOURCE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/catalog-migrator")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MIGRATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Source: SourceConfig{
			Driver:          v.GetString("source.driver"),
			Host:            v.GetString("source.host"),
			Port:            v.GetInt("source.port"),
			User:            v.GetString("source.user"),
			Password:        v.GetString("source.password"),
			DBName:          v.GetString("source.dbname"),
			SSLMode:         v.GetString("source.sslmode"),
			Path:            v.GetString("source.path"),
			RowLimit:        v.GetInt("source.row_limit"),
			MaxOpenConns:    v.GetInt("source.max_open_conns"),
			MaxIdleConns:    v.GetInt("source.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("source.conn_max_lifetime"),
		},
		Saleor: SaleorConfig{
			GraphQLURL:     v.GetString("saleor.graphql_url"),
			Email:          v.GetString("saleor.email"),
			Password:       v.GetString("saleor.password"),
			ChannelID:      v.GetString("saleor.channel_id"),
			ChannelSlug:    v.GetString("saleor.channel_slug"),
			WarehouseID:    v.GetString("saleor.warehouse_id"),
			TaxClassID:     v.GetString("saleor.tax_class_id"),
			TimeoutSeconds: v.GetInt("saleor.timeout_seconds"),
			RefreshSkew:    v.GetDuration("saleor.refresh_skew"),
		},
		Media: MediaConfig{
			Backend:    v.GetString("media.backend"),
			Host:       v.GetString("media.host"),
			Port:       v.GetInt("media.port"),
			PathPrefix: v.GetString("media.path_prefix"),
			Dir:        v.GetString("media.dir"),
			S3: S3Config{
				Endpoint:          v.GetString("media.s3.endpoint"),
				Region:            v.GetString("media.s3.region"),
				Bucket:            v.GetString("media.s3.bucket"),
				AccessKeyID:       v.GetString("media.s3.access_key_id"),
				SecretAccessKey:   v.GetString("media.s3.secret_access_key"),
				UsePathStyle:      v.GetBool("media.s3.use_path_style"),
				PresignExpiration: v.GetDuration("media.s3.presign_expiration"),
			},
		},
		Migration: MigrationConfig{
			OverridesFile:      v.GetString("migration.overrides_file"),
			SkeletonFile:       v.GetString("migration.skeleton_file"),
			FailureLog:         v.GetString("migration.failure_log"),
			ProductFilter:      v.GetString("migration.product_filter"),
			DefaultProductType: v.GetString("migration.default_product_type"),
			ExcludedCategories: v.GetStringSlice("migration.excluded_categories"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "catalog-migrator"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Source.Driver == "" {
		cfg.Source.Driver = DriverMySQL
	}
	if cfg.Source.Host == "" {
		cfg.Source.Host = "localhost"
	}
	if cfg.Source.Port == 0 {
		switch cfg.Source.Driver {
		case DriverMySQL:
			cfg.Source.Port = 3306
		case DriverPostgres:
			cfg.Source.Port = 5432
		}
	}
	if cfg.Source.SSLMode == "" {
		cfg.Source.SSLMode = "disable"
	}
	if cfg.Source.RowLimit == 0 {
		cfg.Source.RowLimit = catalog.DefaultRowLimit
	}
	if cfg.Source.MaxOpenConns == 0 {
		cfg.Source.MaxOpenConns = 4
	}
	if cfg.Source.MaxIdleConns == 0 {
		cfg.Source.MaxIdleConns = 2
	}
	if cfg.Source.ConnMaxLifetime == 0 {
		cfg.Source.ConnMaxLifetime = 30
	}

	if cfg.Saleor.GraphQLURL == "" {
		cfg.Saleor.GraphQLURL = "http://localhost:8000/graphql/"
	}
	if cfg.Saleor.ChannelSlug == "" {
		cfg.Saleor.ChannelSlug = "zakladny"
	}
	if cfg.Saleor.TimeoutSeconds == 0 {
		cfg.Saleor.TimeoutSeconds = 30
	}
	if cfg.Saleor.RefreshSkew == 0 {
		cfg.Saleor.RefreshSkew = 30 * time.Second
	}

	if cfg.Media.Backend == "" {
		cfg.Media.Backend = MediaBackendHost
	}
	if cfg.Media.Port == 0 {
		cfg.Media.Port = 38008
	}
	if cfg.Media.PathPrefix == "" {
		cfg.Media.PathPrefix = "products"
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = "media"
	}
	if cfg.Media.S3.Region == "" {
		cfg.Media.S3.Region = "us-east-1"
	}
	if cfg.Media.S3.PresignExpiration == 0 {
		cfg.Media.S3.PresignExpiration = 24 * time.Hour
	}

	if cfg.Migration.OverridesFile == "" {
		cfg.Migration.OverridesFile = "filled_out_kategorie.yaml"
	}
	if cfg.Migration.SkeletonFile == "" {
		cfg.Migration.SkeletonFile = "kategorie.yaml"
	}
	if cfg.Migration.FailureLog == "" {
		cfg.Migration.FailureLog = "errors.log"
	}
	if cfg.Migration.ProductFilter == "" {
		cfg.Migration.ProductFilter = ProductFilterLenient
	}
	if cfg.Migration.DefaultProductType == "" {
		cfg.Migration.DefaultProductType = "Základný typ"
	}
	if len(cfg.Migration.ExcludedCategories) == 0 {
		cfg.Migration.ExcludedCategories = catalog.DefaultExcludedCategories()
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "catalog-migrator"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Source.MaxOpenConns <= 0 {
		return fmt.Errorf("source.max_open_conns must be positive")
	}
	if c.Source.MaxIdleConns < 0 {
		return fmt.Errorf("source.max_idle_conns cannot be negative")
	}
	if c.Source.MaxIdleConns > c.Source.MaxOpenConns {
		return fmt.Errorf("source.max_idle_conns (%d) cannot exceed source.max_open_conns (%d)",
			c.Source.MaxIdleConns, c.Source.MaxOpenConns)
	}
	if c.Source.Driver == DriverSQLite && c.Source.Path == "" {
		return fmt.Errorf("source.path is required for the sqlite driver")
	}

	if c.Media.Backend == MediaBackendS3 && c.Media.S3.Bucket == "" {
		return fmt.Errorf("media.s3.bucket is required for the s3 media backend")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// ValidateUpload checks the settings required to write into the storefront
func (s SaleorConfig) ValidateUpload() error {
	missing := make([]string, 0, 4)
	if s.Email == "" {
		missing = append(missing, "saleor.email")
	}
	if s.ChannelID == "" {
		missing = append(missing, "saleor.channel_id")
	}
	if s.WarehouseID == "" {
		missing = append(missing, "saleor.warehouse_id")
	}
	if s.TaxClassID == "" {
		missing = append(missing, "saleor.tax_class_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DSN returns the driver-specific connection string with properly escaped values
func (s *SourceConfig) DSN() string {
	switch s.Driver {
	case DriverSQLite:
		return s.Path
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(s.User, s.Password),
			Host:   fmt.Sprintf("%s:%d", s.Host, s.Port),
			Path:   s.DBName,
		}
		q := u.Query()
		q.Set("sslmode", s.SSLMode)
		u.RawQuery = q.Encode()
		return u.String()
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			s.User, s.Password, s.Host, s.Port, s.DBName)
	}
}
