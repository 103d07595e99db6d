package migration

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/domain/integration"
	"github.com/erp/catalog-migrator/internal/domain/shared"
	"github.com/erp/catalog-migrator/internal/domain/shared/richtext"
	"github.com/erp/catalog-migrator/internal/infrastructure/logger"
	"github.com/erp/catalog-migrator/internal/infrastructure/telemetry"
)

const (
	// SlugSuffixLength is the length of the random suffix added to a colliding slug or SKU
	SlugSuffixLength = 4
	// ProductTypeWeight is the weight stamped on every created product type
	ProductTypeWeight = "0.5"

	// slugCollisionCode is written for a category slug already used in this run
	slugCollisionCode = "Unique"
)

// metric entity names
const (
	entityCategory    = "category"
	entityProductType = "product_type"
	entityProduct     = "product"
)

// ImageStore opens category images for upload. A missing file yields (nil, nil).
type ImageStore interface {
	Open(filename string) (*integration.Upload, error)
}

// SequencerConfig holds the storefront ids products are created against
type SequencerConfig struct {
	ChannelID          string
	WarehouseID        string
	TaxClassID         string
	DefaultProductType string
}

// EntityCounts counts the outcome of one entity kind
type EntityCounts struct {
	Created int `json:"created"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// UploadReport summarizes an upload
type UploadReport struct {
	Categories   EntityCounts `json:"categories"`
	ProductTypes EntityCounts `json:"product_types"`
	Products     EntityCounts `json:"products"`
	// StepFailures counts failed follow-up steps of created products
	StepFailures int `json:"step_failures"`
}

// Sequencer uploads categories parent-first and then products with their
// listings, variant and media
type Sequencer struct {
	storefront integration.Storefront
	retrier    *Retrier
	cfg        SequencerConfig
	images     ImageStore
	registry   *catalog.ProductTypeRegistry
	failures   *logger.FailureLog
	metrics    *telemetry.MigrationMetrics
	logger     *zap.Logger
	suffix     func() string

	defaultType *catalog.ProductType
	failedTypes map[*catalog.ProductType]error
	report      UploadReport
}

// SequencerOption configures a Sequencer
type SequencerOption func(*Sequencer)

// WithImageStore enables category background image uploads
func WithImageStore(store ImageStore) SequencerOption {
	return func(s *Sequencer) {
		s.images = store
	}
}

// WithRegistry shares the product type registry used by the tree builder
func WithRegistry(registry *catalog.ProductTypeRegistry) SequencerOption {
	return func(s *Sequencer) {
		s.registry = registry
	}
}

// WithFailureLog records terminal failures in fl
func WithFailureLog(fl *logger.FailureLog) SequencerOption {
	return func(s *Sequencer) {
		s.failures = fl
	}
}

// WithSequencerMetrics records entity outcomes
func WithSequencerMetrics(m *telemetry.MigrationMetrics) SequencerOption {
	return func(s *Sequencer) {
		s.metrics = m
	}
}

// WithSuffixSource replaces the random suffix generator
func WithSuffixSource(fn func() string) SequencerOption {
	return func(s *Sequencer) {
		s.suffix = fn
	}
}

// NewSequencer creates a Sequencer
func NewSequencer(storefront integration.Storefront, retrier *Retrier, cfg SequencerConfig, log *zap.Logger, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		storefront:  storefront,
		retrier:     retrier,
		cfg:         cfg,
		failures:    logger.NopFailureLog(),
		logger:      log,
		suffix:      func() string { return shared.RandomAlphanumeric(SlugSuffixLength) },
		failedTypes: make(map[*catalog.ProductType]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = catalog.NewProductTypeRegistry()
	}
	s.defaultType = s.registry.Obtain(cfg.DefaultProductType)
	return s
}

// Report returns the counters collected so far
func (s *Sequencer) Report() UploadReport {
	return s.report
}

// Run uploads the tree and then the products
func (s *Sequencer) Run(ctx context.Context, tree *catalog.CategoryTree, products []*catalog.FinalProduct) (UploadReport, error) {
	if err := s.UploadCategories(ctx, tree); err != nil {
		return s.report, err
	}
	if err := s.UploadProducts(ctx, tree, products); err != nil {
		return s.report, err
	}
	return s.report, nil
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// UploadCategories creates every category in ascending depth order. A
// category whose parent was not created is created as a root.
func (s *Sequencer) UploadCategories(ctx context.Context, tree *catalog.CategoryTree) error {
	ctx, span := telemetry.StartSpan(ctx, "sequencer.upload_categories",
		attribute.Int("categories", tree.Len()))
	defer span.End()

	used := make(map[string]struct{}, tree.Len())
	for _, idx := range tree.DepthOrder() {
		if err := s.uploadCategory(ctx, tree, idx, used); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
	}

	s.logger.Info("Categories uploaded",
		zap.Int("created", s.report.Categories.Created),
		zap.Int("failed", s.report.Categories.Failed),
	)
	telemetry.SetOK(span)
	return nil
}

func (s *Sequencer) uploadCategory(ctx context.Context, tree *catalog.CategoryTree, idx catalog.NodeIndex, used map[string]struct{}) error {
	node := tree.Node(idx)
	subject := logger.Subject(node.ID, node.Name)

	if _, taken := used[node.Slug]; taken {
		node.Slug = catalog.WithSuffix(node.Slug, s.suffix())
		s.failures.Record(logger.FailureCategory, subject, slugCollisionCode)
	}
	used[node.Slug] = struct{}{}

	input := integration.CategoryInput{
		Name:               node.Name,
		Slug:               node.Slug,
		Description:        documentJSON(node.Description),
		BackgroundImageAlt: node.Name,
		Metadata:           []integration.MetadataItem{oldID(node.ID)},
	}
	if parent, ok := tree.ParentNode(idx); ok && parent.IsUploaded() {
		input.ParentID = parent.RemoteID
	}
	if node.HasImage() && s.images != nil {
		upload, err := s.images.Open(node.Image)
		if err != nil {
			s.logger.Warn("Category image unreadable, creating without it",
				zap.Uint32("category_id", node.ID), zap.String("image", node.Image), zap.Error(err))
		}
		input.BackgroundImage = upload
	}

	s.logger.Debug("Creating category", zap.Uint32("category_id", node.ID), zap.String("name", node.Name))

	var id string
	err := s.retrier.Do(ctx, "categoryCreate", func(ctx context.Context, token string) error {
		var err error
		id, err = s.storefront.CreateCategory(ctx, token, input)
		return err
	}, func(err error) {
		s.failures.Record(logger.FailureCategory, subject, integration.ErrorCode(err))
		node.Slug = catalog.WithSuffix(node.Slug, s.suffix())
		input.Slug = node.Slug
		used[node.Slug] = struct{}{}
	})
	if err != nil {
		return s.fail(ctx, &s.report.Categories, entityCategory, logger.FailureCategory, subject, err)
	}

	node.RemoteID = id
	s.report.Categories.Created++
	s.metrics.RecordCreated(ctx, entityCategory)
	return nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// UploadProducts creates every product whose category was created. Products
// without one are skipped.
func (s *Sequencer) UploadProducts(ctx context.Context, tree *catalog.CategoryTree, products []*catalog.FinalProduct) error {
	ctx, span := telemetry.StartSpan(ctx, "sequencer.upload_products",
		attribute.Int("products", len(products)))
	defer span.End()

	for _, p := range products {
		if !p.HasCategory() || !tree.Node(p.Category).IsUploaded() {
			s.report.Products.Skipped++
			s.metrics.RecordSkipped(ctx, entityProduct, "no_category")
			continue
		}
		if err := s.uploadProduct(ctx, tree.Node(p.Category), p); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
	}

	s.logger.Info("Products uploaded",
		zap.Int("created", s.report.Products.Created),
		zap.Int("failed", s.report.Products.Failed),
		zap.Int("skipped", s.report.Products.Skipped),
		zap.Int("step_failures", s.report.StepFailures),
	)
	telemetry.SetOK(span)
	return nil
}

func (s *Sequencer) uploadProduct(ctx context.Context, category *catalog.CategoryNode, p *catalog.FinalProduct) error {
	subject := logger.Subject(p.SourceID, p.Name)
	s.logger.Debug("Creating product", zap.Uint32("product_id", p.SourceID), zap.String("name", p.Name))

	typeID, err := s.productTypeFor(ctx, category)
	if err != nil {
		return s.fail(ctx, &s.report.Products, entityProduct, logger.FailureCreateProduct, subject, err)
	}

	if err := s.createProduct(ctx, category, p, typeID, subject); err != nil {
		return s.fail(ctx, &s.report.Products, entityProduct, logger.FailureCreateProduct, subject, err)
	}
	s.report.Products.Created++
	s.metrics.RecordCreated(ctx, entityProduct)

	if err := s.step(ctx, subject, "productChannelListingUpdate", func(ctx context.Context, token string) error {
		return s.storefront.UpdateProductChannelListing(ctx, token, p.RemoteID, integration.ProductChannelListingInput{
			ChannelID:              s.cfg.ChannelID,
			IsPublished:            true,
			IsAvailableForPurchase: true,
			VisibleInListings:      true,
		})
	}, nil); err != nil {
		return err
	}

	if err := s.createVariant(ctx, p, subject); err != nil {
		return err
	}

	if p.VariantID != "" && p.HasPrice() {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			s.logger.Warn("Unparsable price, listing at zero",
				zap.Uint32("product_id", p.SourceID), zap.String("price", p.Price))
			price = decimal.Zero
		}
		if err := s.step(ctx, subject, "productVariantChannelListingUpdate", func(ctx context.Context, token string) error {
			return s.storefront.UpdateVariantChannelListing(ctx, token, p.VariantID, integration.VariantChannelListingInput{
				ChannelID: s.cfg.ChannelID,
				Price:     price.Round(2),
			})
		}, nil); err != nil {
			return err
		}
	}

	mediaIDs := make([]string, 0, len(p.Images))
	for _, url := range p.Images {
		var mediaID string
		if err := s.step(ctx, subject, "productMediaCreate", func(ctx context.Context, token string) error {
			var err error
			mediaID, err = s.storefront.CreateProductMedia(ctx, token, integration.ProductMediaInput{
				ProductID: p.RemoteID,
				MediaURL:  url,
				Alt:       p.Name,
			})
			return err
		}, nil); err != nil {
			return err
		}
		if mediaID != "" {
			mediaIDs = append(mediaIDs, mediaID)
		}
	}

	if p.VariantID == "" {
		return nil
	}
	for _, mediaID := range mediaIDs {
		if err := s.step(ctx, subject, "variantMediaAssign", func(ctx context.Context, token string) error {
			return s.storefront.AssignVariantMedia(ctx, token, p.VariantID, mediaID)
		}, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) createProduct(ctx context.Context, category *catalog.CategoryNode, p *catalog.FinalProduct, typeID, subject string) error {
	input := integration.ProductInput{
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   documentJSON(p.Description),
		CategoryID:    category.RemoteID,
		ProductTypeID: typeID,
		TaxClassID:    s.cfg.TaxClassID,
		ChargeTaxes:   true,
		Weight:        p.Weight,
		Metadata: []integration.MetadataItem{
			{Key: integration.MetadataKeyShortDescription, Value: p.ShortDescription},
			oldID(p.SourceID),
		},
	}

	return s.retrier.Do(ctx, "productCreate", func(ctx context.Context, token string) error {
		id, err := s.storefront.CreateProduct(ctx, token, input)
		if err != nil {
			return err
		}
		p.RemoteID = id
		return nil
	}, func(err error) {
		s.failures.Record(logger.FailureCreateProduct, subject, integration.ErrorCode(err))
		p.Slug = catalog.WithSuffix(p.Slug, s.suffix())
		input.Slug = p.Slug
	})
}

func (s *Sequencer) createVariant(ctx context.Context, p *catalog.FinalProduct, subject string) error {
	input := integration.VariantInput{
		ProductID:      p.RemoteID,
		SKU:            p.SKU,
		TrackInventory: true,
	}
	if p.Quantity != nil {
		input.Stocks = []integration.StockInput{{WarehouseID: s.cfg.WarehouseID, Quantity: *p.Quantity}}
	}

	return s.step(ctx, subject, "productVariantCreate", func(ctx context.Context, token string) error {
		id, err := s.storefront.CreateVariant(ctx, token, input)
		if err != nil {
			return err
		}
		p.VariantID = id
		return nil
	}, func(err error) {
		s.failures.Record(logger.FailureProduct, subject, integration.ErrorCode(err))
		p.SKU = catalog.WithSuffix(p.SKU, s.suffix())
		input.SKU = p.SKU
	})
}

// step runs a follow-up call of a created product. A terminal failure is
// recorded and the product moves on; only fatal errors are returned.
func (s *Sequencer) step(ctx context.Context, subject, op string, call Call, onUnique func(error)) error {
	err := s.retrier.Do(ctx, op, call, onUnique)
	if err == nil {
		return nil
	}
	if IsFatal(err) {
		return err
	}
	s.report.StepFailures++
	s.failures.Record(logger.FailureProduct, subject, integration.ErrorCode(err))
	s.logger.Warn("Product step failed",
		zap.String("subject", subject),
		zap.String("operation", op),
		zap.Error(err),
	)
	return nil
}

// ---------------------------------------------------------------------------
// Product types
// ---------------------------------------------------------------------------

// productTypeFor returns the remote id of the category's product type,
// falling back to the default type when the category has none or its type
// could not be created
func (s *Sequencer) productTypeFor(ctx context.Context, category *catalog.CategoryNode) (string, error) {
	if pt := category.ProductType; pt != nil {
		id, err := s.ensureProductType(ctx, pt)
		if err == nil {
			return id, nil
		}
		if IsFatal(err) {
			return "", err
		}
	}
	return s.ensureProductType(ctx, s.defaultType)
}

// ensureProductType creates pt on first use. A type that failed once is not
// attempted again in the same run.
func (s *Sequencer) ensureProductType(ctx context.Context, pt *catalog.ProductType) (string, error) {
	if pt.IsUploaded() {
		return pt.RemoteID, nil
	}
	if err, failed := s.failedTypes[pt]; failed {
		return "", err
	}

	s.logger.Info("Creating product type", zap.String("name", pt.Name))
	input := integration.ProductTypeInput{
		Name:               pt.Name,
		Slug:               pt.Slug(),
		Kind:               integration.ProductTypeKindNormal,
		IsShippingRequired: true,
		Weight:             ProductTypeWeight,
		TaxClassID:         s.cfg.TaxClassID,
	}
	err := s.retrier.Do(ctx, "productTypeCreate", func(ctx context.Context, token string) error {
		id, err := s.storefront.CreateProductType(ctx, token, input)
		if err != nil {
			return err
		}
		pt.RemoteID = id
		return nil
	}, func(err error) {
		s.failures.Record(logger.FailureProductType, pt.Name, integration.ErrorCode(err))
		input.Slug = catalog.WithSuffix(input.Slug, s.suffix())
	})
	if err != nil {
		if IsFatal(err) {
			return "", err
		}
		s.failedTypes[pt] = err
		s.report.ProductTypes.Failed++
		s.metrics.RecordFailed(ctx, entityProductType, integration.ErrorCode(err))
		s.failures.Record(logger.FailureProductType, pt.Name, integration.ErrorCode(err))
		s.logger.Warn("Product type creation failed", zap.String("name", pt.Name), zap.Error(err))
		return "", err
	}

	s.report.ProductTypes.Created++
	s.metrics.RecordCreated(ctx, entityProductType)
	return pt.RemoteID, nil
}

// fail records a terminal entity failure. Fatal errors are returned to stop
// the run.
func (s *Sequencer) fail(ctx context.Context, counts *EntityCounts, entity string, kind logger.FailureKind, subject string, err error) error {
	if IsFatal(err) {
		return err
	}
	code := integration.ErrorCode(err)
	counts.Failed++
	s.metrics.RecordFailed(ctx, entity, code)
	s.failures.Record(kind, subject, code)
	logger.WithTraceContext(ctx, s.logger).Warn("Entity creation failed",
		zap.String("entity", entity),
		zap.String("subject", subject),
		zap.String("code", code),
		zap.Error(err),
	)
	return nil
}

func oldID(id uint32) integration.MetadataItem {
	return integration.MetadataItem{Key: integration.MetadataKeyOldID, Value: strconv.FormatUint(uint64(id), 10)}
}

// documentJSON renders d for a JSONString input; a zero document yields ""
func documentJSON(d richtext.Document) string {
	if len(d.Blocks) == 0 {
		return ""
	}
	s, err := d.JSON()
	if err != nil {
		return ""
	}
	return s
}
