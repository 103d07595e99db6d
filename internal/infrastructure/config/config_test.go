package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when nothing is configured", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "catalog-migrator", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, DriverMySQL, cfg.Source.Driver)
		assert.Equal(t, 3306, cfg.Source.Port)
		assert.Equal(t, 100000, cfg.Source.RowLimit)
		assert.Equal(t, "zakladny", cfg.Saleor.ChannelSlug)
		assert.Equal(t, 30*time.Second, cfg.Saleor.Timeout())
		assert.Equal(t, MediaBackendHost, cfg.Media.Backend)
		assert.Equal(t, 38008, cfg.Media.Port)
		assert.Equal(t, "products", cfg.Media.PathPrefix)
		assert.Equal(t, "filled_out_kategorie.yaml", cfg.Migration.OverridesFile)
		assert.Equal(t, "kategorie.yaml", cfg.Migration.SkeletonFile)
		assert.Equal(t, "errors.log", cfg.Migration.FailureLog)
		assert.Equal(t, ProductFilterLenient, cfg.Migration.ProductFilter)
		assert.Equal(t, "Základný typ", cfg.Migration.DefaultProductType)
		assert.Len(t, cfg.Migration.ExcludedCategories, 13)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("loads values from environment variables with MIGRATOR prefix", func(t *testing.T) {
		t.Setenv("MIGRATOR_SOURCE_DRIVER", "postgres")
		t.Setenv("MIGRATOR_SOURCE_HOST", "legacy.local")
		t.Setenv("MIGRATOR_SOURCE_USER", "shop")
		t.Setenv("MIGRATOR_SOURCE_DBNAME", "eshop")
		t.Setenv("MIGRATOR_SALEOR_CHANNEL_SLUG", "default-channel")
		t.Setenv("MIGRATOR_MIGRATION_PRODUCT_FILTER", "strict")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, DriverPostgres, cfg.Source.Driver)
		assert.Equal(t, 5432, cfg.Source.Port)
		assert.Equal(t, "legacy.local", cfg.Source.Host)
		assert.Equal(t, "default-channel", cfg.Saleor.ChannelSlug)
		assert.Equal(t, ProductFilterStrict, cfg.Migration.ProductFilter)
	})

	t.Run("reads an explicit TOML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "migrator.toml")
		content := `
[source]
driver = "sqlite"
path = "legacy.db"
row_limit = 500

[saleor]
graphql_url = "https://shop.example.com/graphql/"
refresh_skew = "1m"

[migration]
excluded_categories = ["Root", "Archive"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, DriverSQLite, cfg.Source.Driver)
		assert.Equal(t, "legacy.db", cfg.Source.DSN())
		assert.Equal(t, 500, cfg.Source.RowLimit)
		assert.Equal(t, time.Minute, cfg.Saleor.RefreshSkew)
		assert.Equal(t, []string{"Root", "Archive"}, cfg.Migration.ExcludedCategories)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})

	t.Run("rejects unknown product filter", func(t *testing.T) {
		t.Setenv("MIGRATOR_MIGRATION_PRODUCT_FILTER", "loose")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "idle exceeds open",
			mutate:  func(c *Config) { c.Source.MaxIdleConns = 10 },
			wantErr: "cannot exceed",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Source.Driver = DriverSQLite },
			wantErr: "source.path",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Media.Backend = MediaBackendS3 },
			wantErr: "media.s3.bucket",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Source.Driver = "oracle" },
			wantErr: "Driver",
		},
		{
			name:    "invalid graphql url",
			mutate:  func(c *Config) { c.Saleor.GraphQLURL = "not a url" },
			wantErr: "GraphQLURL",
		},
		{
			name:    "sampling ratio out of range",
			mutate:  func(c *Config) { c.Telemetry.SamplingRatio = 1.5 },
			wantErr: "sampling_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaleorConfig_ValidateUpload(t *testing.T) {
	err := SaleorConfig{Email: "admin@example.com"}.ValidateUpload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saleor.channel_id, saleor.warehouse_id, saleor.tax_class_id")

	assert.NoError(t, SaleorConfig{
		Email:       "admin@example.com",
		ChannelID:   "Q2hhbm5lbDox",
		WarehouseID: "V2FyZWhvdXNlOjE=",
		TaxClassID:  "VGF4Q2xhc3M6MQ==",
	}.ValidateUpload())
}

func TestSourceConfig_DSN(t *testing.T) {
	t.Run("mysql", func(t *testing.T) {
		s := SourceConfig{Driver: DriverMySQL, User: "shop", Password: "secret", Host: "db", Port: 3306, DBName: "eshop"}
		assert.Equal(t, "shop:secret@tcp(db:3306)/eshop?charset=utf8mb4&parseTime=true&loc=UTC", s.DSN())
	})

	t.Run("postgres escapes credentials", func(t *testing.T) {
		s := SourceConfig{Driver: DriverPostgres, User: "shop", Password: "p@ss/word", Host: "db", Port: 5432, DBName: "eshop", SSLMode: "disable"}
		assert.Equal(t, "postgres://shop:p%40ss%2Fword@db:5432/eshop?sslmode=disable", s.DSN())
	})

	t.Run("sqlite", func(t *testing.T) {
		s := SourceConfig{Driver: DriverSQLite, Path: "/tmp/legacy.db"}
		assert.Equal(t, "/tmp/legacy.db", s.DSN())
	})
}
