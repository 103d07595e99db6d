package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erp/catalog-migrator/internal/infrastructure/config"
)

// Database is a read-only handle on the legacy catalog database.
type Database struct {
	DB *gorm.DB
}

// NewDatabase connects to the source described by cfg and verifies the
// connection. A nil gormLogger silences SQL logging.
func NewDatabase(cfg *config.SourceConfig, gormLogger logger.Interface) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	if gormLogger == nil {
		gormLogger = logger.Discard
	}

	// Every statement is a single SELECT; implicit transactions only add round trips.
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", cfg.Driver, err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", cfg.Driver, err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("reach %s source: %w", cfg.Driver, err)
	}
	return &Database{DB: db}, nil
}

func dialectorFor(cfg *config.SourceConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL, "":
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported source driver %q", cfg.Driver)
}

// DBSystem maps a source driver to its OpenTelemetry db.system value.
func DBSystem(driver string) string {
	switch driver {
	case "":
		return config.DriverMySQL
	case config.DriverPostgres:
		return "postgresql"
	}
	return driver
}

// PoolStats reports connection pool usage of the source.
func (d *Database) PoolStats() (sql.DBStats, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return pool.Stats(), nil
}

// Close releases every source connection.
func (d *Database) Close() error {
	pool, err := d.DB.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}
