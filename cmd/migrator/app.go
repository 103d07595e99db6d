package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/application/migration"
	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/infrastructure/auth"
	"github.com/erp/catalog-migrator/internal/infrastructure/config"
	"github.com/erp/catalog-migrator/internal/infrastructure/logger"
	"github.com/erp/catalog-migrator/internal/infrastructure/media"
	"github.com/erp/catalog-migrator/internal/infrastructure/overrides"
	"github.com/erp/catalog-migrator/internal/infrastructure/persistence"
	"github.com/erp/catalog-migrator/internal/infrastructure/saleor"
	"github.com/erp/catalog-migrator/internal/infrastructure/telemetry"
)

type commandFunc func(ctx context.Context, a *app) error

var commands = map[string]commandFunc{
	"run":         runMigration,
	"skeleton":    writeSkeleton,
	"wipe":        wipeProducts,
	"serve-media": serveMedia,
}

// app carries the loaded configuration and the shared collaborators of one
// command invocation
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *telemetry.MigrationMetrics
}

// openSource connects to the legacy database and returns a loader over it
func (a *app) openSource() (*persistence.Database, *migration.Loader, error) {
	gormLog := logger.NewGormLogger(a.log, logger.MapGormLogLevel(a.cfg.Log.Level),
		logger.WithRowLimitWarning(a.cfg.Source.RowLimit),
	)

	db, err := persistence.NewDatabase(&a.cfg.Source, gormLog)
	if err != nil {
		return nil, nil, err
	}

	if a.cfg.Telemetry.Enabled && a.cfg.Telemetry.DBTraceEnabled {
		tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:  true,
			DBSystem: persistence.DBSystem(a.cfg.Source.Driver),
		}, a.log)
		if err := tracing.RegisterOtelGorm(db.DB); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("register source tracing: %w", err)
		}
	}

	a.log.Info("Source database connected",
		zap.String("driver", a.cfg.Source.Driver),
		zap.String("database", a.cfg.Source.DBName),
	)
	repo := persistence.NewLegacyCatalogRepository(db.DB, a.cfg.Source.RowLimit)
	return db, migration.NewLoader(repo, a.log), nil
}

func (a *app) closeSource(db *persistence.Database) {
	if stats, err := db.PoolStats(); err == nil {
		a.log.Debug("Source connection pool",
			zap.Int("max_open", stats.MaxOpenConnections),
			zap.Int64("wait_count", stats.WaitCount),
			zap.Duration("wait_duration", stats.WaitDuration),
		)
	}
	if err := db.Close(); err != nil {
		a.log.Error("Error closing source database", zap.Error(err))
	}
}

// connectStorefront builds the GraphQL client and a retrier bound to a
// fresh staff session
func (a *app) connectStorefront() (*saleor.Client, *migration.Retrier, error) {
	client, err := saleor.NewClient(&saleor.Config{
		GraphQLURL:     a.cfg.Saleor.GraphQLURL,
		TimeoutSeconds: a.cfg.Saleor.TimeoutSeconds,
	}, a.log, saleor.WithMetrics(a.metrics))
	if err != nil {
		return nil, nil, err
	}

	session, err := auth.NewSession(client, auth.Credentials{
		Email:    a.cfg.Saleor.Email,
		Password: a.cfg.Saleor.Password,
	}, auth.WithRefreshSkew(a.cfg.Saleor.RefreshSkew), auth.WithLogger(a.log))
	if err != nil {
		return nil, nil, err
	}

	return client, migration.NewRetrier(session, migration.DefaultRetryPolicy(), a.metrics, a.log), nil
}

// imageResolver selects the product media URL backend
func (a *app) imageResolver() (migration.ImageResolver, error) {
	switch a.cfg.Media.Backend {
	case config.MediaBackendS3:
		r, err := media.NewS3Resolver(&a.cfg.Media.S3, a.cfg.Media.PathPrefix,
			media.WithLogger(a.log),
			media.WithPresignExpiration(a.cfg.Media.S3.PresignExpiration),
		)
		if err != nil {
			return nil, err
		}
		a.log.Info("Resolving product media through presigned S3 URLs", zap.String("bucket", r.Bucket()))
		return r, nil
	default:
		r := media.NewHostResolver(a.cfg.Media.Host, a.cfg.Media.Port, a.cfg.Media.PathPrefix)
		a.log.Info("Resolving product media on host", zap.String("base", r.Base()))
		return r, nil
	}
}

func (a *app) serviceConfig() (migration.ServiceConfig, error) {
	policy, err := migration.ParseProductFilterPolicy(a.cfg.Migration.ProductFilter)
	if err != nil {
		return migration.ServiceConfig{}, err
	}
	return migration.ServiceConfig{
		ExcludedCategories: a.cfg.Migration.ExcludedCategories,
		ProductFilter:      policy,
		Sequencer: migration.SequencerConfig{
			ChannelID:          a.cfg.Saleor.ChannelID,
			WarehouseID:        a.cfg.Saleor.WarehouseID,
			TaxClassID:         a.cfg.Saleor.TaxClassID,
			DefaultProductType: a.cfg.Migration.DefaultProductType,
		},
	}, nil
}

// loadOverrides reads the filled-in override tree. Without one every
// category uses the default product type.
func (a *app) loadOverrides() (*catalog.OverrideNode, error) {
	root, err := overrides.Load(a.cfg.Migration.OverridesFile)
	if errors.Is(err, os.ErrNotExist) {
		a.log.Warn("Override file not found, every product uses the default product type",
			zap.String("file", a.cfg.Migration.OverridesFile),
			zap.String("default_product_type", a.cfg.Migration.DefaultProductType),
		)
		return nil, nil
	}
	return root, err
}

func runMigration(ctx context.Context, a *app) error {
	if err := a.cfg.Saleor.ValidateUpload(); err != nil {
		return err
	}
	svcCfg, err := a.serviceConfig()
	if err != nil {
		return err
	}
	tree, err := a.loadOverrides()
	if err != nil {
		return err
	}

	db, loader, err := a.openSource()
	if err != nil {
		return err
	}
	defer a.closeSource(db)

	client, retrier, err := a.connectStorefront()
	if err != nil {
		return err
	}
	resolver, err := a.imageResolver()
	if err != nil {
		return err
	}

	failures, err := logger.NewFailureLog(a.cfg.Migration.FailureLog)
	if err != nil {
		return fmt.Errorf("open failure log: %w", err)
	}
	defer func() {
		_ = failures.Close()
	}()

	svc := migration.NewService(loader, migration.Dependencies{
		Storefront: client,
		Retrier:    retrier,
		Images:     resolver,
		ImageStore: media.NewLocalStore(a.cfg.Media.Dir, a.cfg.Media.PathPrefix),
		Failures:   failures,
		Metrics:    a.metrics,
	}, svcCfg, a.log)

	report, err := svc.Migrate(ctx, tree)
	if err != nil {
		return err
	}
	if report.Categories.Failed+report.ProductTypes.Failed+report.Products.Failed+report.StepFailures > 0 {
		a.log.Warn("Some entities were not migrated", zap.String("failure_log", a.cfg.Migration.FailureLog))
	}
	return nil
}

func writeSkeleton(ctx context.Context, a *app) error {
	svcCfg, err := a.serviceConfig()
	if err != nil {
		return err
	}

	db, loader, err := a.openSource()
	if err != nil {
		return err
	}
	defer a.closeSource(db)

	root, err := migration.NewService(loader, migration.Dependencies{}, svcCfg, a.log).Skeleton(ctx)
	if err != nil {
		return err
	}
	if err := overrides.Save(a.cfg.Migration.SkeletonFile, root); err != nil {
		return err
	}

	a.log.Info("Override skeleton written",
		zap.String("file", a.cfg.Migration.SkeletonFile),
		zap.Int("root_categories", len(root.Children)),
	)
	return nil
}

func wipeProducts(ctx context.Context, a *app) error {
	client, retrier, err := a.connectStorefront()
	if err != nil {
		return err
	}
	_, err = migration.NewWiper(client, retrier, a.cfg.Saleor.ChannelSlug, a.log).Wipe(ctx)
	return err
}

func serveMedia(ctx context.Context, a *app) error {
	cfg := media.ServerConfig{
		Dir:     a.cfg.Media.Dir,
		Port:    a.cfg.Media.Port,
		Release: a.cfg.App.Env == "production",
	}
	if a.cfg.Telemetry.Enabled {
		cfg.ServiceName = a.cfg.Telemetry.ServiceName
	}
	return media.NewServer(cfg, a.log).Run(ctx)
}
