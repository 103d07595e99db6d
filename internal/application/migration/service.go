package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/domain/integration"
	"github.com/erp/catalog-migrator/internal/infrastructure/logger"
	"github.com/erp/catalog-migrator/internal/infrastructure/telemetry"
)

// Missing collaborator errors
var (
	ErrNoStorefront    = errors.New("migration: storefront is not configured")
	ErrNoImageResolver = errors.New("migration: image resolver is not configured")
)

// ServiceConfig holds the run settings
type ServiceConfig struct {
	ExcludedCategories []string
	ProductFilter      ProductFilterPolicy
	Sequencer          SequencerConfig
}

// Dependencies are the collaborators of a migration run. Only Migrate needs
// the storefront side.
type Dependencies struct {
	Storefront integration.Storefront
	Retrier    *Retrier
	Images     ImageResolver
	ImageStore ImageStore
	Failures   *logger.FailureLog
	Metrics    *telemetry.MigrationMetrics
}

// Service runs the migration pipeline: load, build, materialize, upload
type Service struct {
	loader *Loader
	deps   Dependencies
	cfg    ServiceConfig
	logger *zap.Logger
}

// NewService creates a migration Service
func NewService(loader *Loader, deps Dependencies, cfg ServiceConfig, logger *zap.Logger) *Service {
	return &Service{
		loader: loader,
		deps:   deps,
		cfg:    cfg,
		logger: logger,
	}
}

// Plan is the in-memory result of building a snapshot
type Plan struct {
	Tree     *catalog.CategoryTree
	Products []*catalog.FinalProduct
	Registry *catalog.ProductTypeRegistry
}

// Prepare loads the legacy catalog and builds the typed tree and products
func (s *Service) Prepare(ctx context.Context, overrides *catalog.OverrideNode) (*Plan, error) {
	if s.deps.Images == nil {
		return nil, ErrNoImageResolver
	}
	snapshot, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	registry := catalog.NewProductTypeRegistry()
	tree := NewTreeBuilder(s.cfg.ExcludedCategories, s.logger, WithOverrides(overrides, registry)).Build(snapshot)

	products, err := NewMaterializer(s.cfg.ProductFilter, s.deps.Images, s.logger).Materialize(ctx, snapshot, tree)
	if err != nil {
		return nil, fmt.Errorf("materialize products: %w", err)
	}

	return &Plan{Tree: tree, Products: products, Registry: registry}, nil
}

// Migrate runs the whole pipeline and uploads the result
func (s *Service) Migrate(ctx context.Context, overrides *catalog.OverrideNode) (UploadReport, error) {
	if s.deps.Storefront == nil || s.deps.Retrier == nil {
		return UploadReport{}, ErrNoStorefront
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "migration", "Migrate")
	defer span.End()
	start := time.Now()

	plan, err := s.Prepare(ctx, overrides)
	if err != nil {
		telemetry.RecordError(span, err)
		return UploadReport{}, err
	}

	opts := []SequencerOption{
		WithRegistry(plan.Registry),
		WithSequencerMetrics(s.deps.Metrics),
	}
	if s.deps.ImageStore != nil {
		opts = append(opts, WithImageStore(s.deps.ImageStore))
	}
	if s.deps.Failures != nil {
		opts = append(opts, WithFailureLog(s.deps.Failures))
	}
	seq := NewSequencer(s.deps.Storefront, s.deps.Retrier, s.cfg.Sequencer, s.logger, opts...)

	report, err := seq.Run(ctx, plan.Tree, plan.Products)
	if err != nil {
		telemetry.RecordError(span, err)
		return report, err
	}

	logger.WithTraceContext(ctx, s.logger).Info("Migration finished",
		zap.Any("report", report),
		zap.Duration("took", time.Since(start)),
	)
	telemetry.SetOK(span)
	return report, nil
}

// Skeleton builds the category tree without product types and returns it as
// an override document for humans to fill in
func (s *Service) Skeleton(ctx context.Context) (*catalog.OverrideNode, error) {
	snapshot, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	tree := NewTreeBuilder(s.cfg.ExcludedCategories, s.logger).Build(snapshot)
	return BuildSkeleton(tree), nil
}
