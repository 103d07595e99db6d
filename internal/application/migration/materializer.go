package migration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/domain/shared"
	"github.com/erp/catalog-migrator/internal/domain/shared/richtext"
)

// ProductFilterPolicy decides how products without a name are treated
type ProductFilterPolicy string

const (
	// ProductFilterLenient backfills empty names from the latest text override
	ProductFilterLenient ProductFilterPolicy = "lenient"
	// ProductFilterStrict drops products with an empty name
	ProductFilterStrict ProductFilterPolicy = "strict"
)

// ParseProductFilterPolicy maps a configuration value to a policy
func ParseProductFilterPolicy(s string) (ProductFilterPolicy, error) {
	switch p := ProductFilterPolicy(s); p {
	case ProductFilterLenient, ProductFilterStrict:
		return p, nil
	case "":
		return ProductFilterLenient, nil
	default:
		return "", fmt.Errorf("%w: unknown product filter policy %q", shared.ErrInvalidInput, s)
	}
}

// ImageResolver turns a stored media filename into a fetchable URL
type ImageResolver interface {
	Resolve(ctx context.Context, filename string) (string, error)
}

// Materializer turns raw product rows into FinalProducts ready for upload
type Materializer struct {
	policy     ProductFilterPolicy
	images     ImageResolver
	normalizer *richtext.Normalizer
	logger     *zap.Logger
}

// NewMaterializer creates a Materializer
func NewMaterializer(policy ProductFilterPolicy, images ImageResolver, logger *zap.Logger) *Materializer {
	return &Materializer{
		policy:     policy,
		images:     images,
		normalizer: richtext.NewNormalizer(),
		logger:     logger,
	}
}

// Materialize builds the products of snapshot against tree, in source order
func (m *Materializer) Materialize(ctx context.Context, snapshot *Snapshot, tree *catalog.CategoryTree) ([]*catalog.FinalProduct, error) {
	skus := catalog.NewSKUDeduplicator()
	products := make([]*catalog.FinalProduct, 0, len(snapshot.Products))

	for _, raw := range snapshot.Products {
		raw, ok := m.filter(snapshot, raw)
		if !ok {
			continue
		}

		p := &catalog.FinalProduct{
			SourceID:         raw.ID,
			Name:             raw.Name,
			Slug:             catalog.Slugify(raw.Name),
			SKU:              skus.Assign(raw.Code),
			Description:      m.normalizer.Normalize(raw.Description),
			ShortDescription: richtext.Purify(raw.ShortDescription),
			Category:         catalog.NoNode,
			Quantity:         raw.Quantity,
			Weight:           raw.Weight,
		}
		if raw.RetailPriceWithVAT.Valid {
			p.Price = raw.RetailPriceWithVAT.Decimal.String()
		}
		if link, ok := snapshot.LatestCategoryLink(raw.ID); ok {
			if idx, found := tree.IndexOf(link.CategoryID); found {
				p.Category = idx
			}
		}

		p.Images = m.resolveImages(ctx, snapshot, raw.ID)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		products = append(products, p)
	}

	m.logger.Info("Products materialized",
		zap.Int("rows", len(snapshot.Products)),
		zap.Int("products", len(products)),
		zap.String("policy", string(m.policy)),
	)
	return products, nil
}

// filter drops test and deleted rows. Under the lenient policy an empty name
// is first backfilled from the latest text override.
func (m *Materializer) filter(snapshot *Snapshot, raw catalog.RawProduct) (catalog.RawProduct, bool) {
	if raw.Name == "" && m.policy != ProductFilterStrict {
		if text, ok := snapshot.LatestProductText(raw.ID); ok {
			raw.Name = text.Name
		}
	}
	switch {
	case raw.Name == "":
		return raw, false
	case raw.IsDeleted():
		return raw, false
	case catalog.IsTestName(raw.Name):
		return raw, false
	}
	return raw, true
}

// resolveImages returns the URLs of the image files linked to a product.
// Documents, links to unknown files and files whose URL cannot be resolved
// are skipped.
func (m *Materializer) resolveImages(ctx context.Context, snapshot *Snapshot, productID uint32) []string {
	var urls []string
	for _, fileID := range snapshot.FileIDs(productID) {
		file, ok := snapshot.File(fileID)
		if !ok || file.Name == "" || file.IsDocument() {
			continue
		}
		url, err := m.images.Resolve(ctx, file.Name)
		if err != nil {
			m.logger.Warn("Product image unresolvable, skipping it",
				zap.Uint32("product_id", productID),
				zap.String("file", file.Name),
				zap.Error(err),
			)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
