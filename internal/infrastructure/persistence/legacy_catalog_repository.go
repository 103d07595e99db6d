package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/infrastructure/persistence/models"
)

// LegacyCatalogRepository reads the legacy shop tables.
// Every query is capped at the row limit and returns rows in source order.
type LegacyCatalogRepository struct {
	db       *gorm.DB
	rowLimit int
}

// NewLegacyCatalogRepository creates a new LegacyCatalogRepository.
// A non-positive rowLimit falls back to catalog.DefaultRowLimit.
func NewLegacyCatalogRepository(db *gorm.DB, rowLimit int) *LegacyCatalogRepository {
	if rowLimit <= 0 {
		rowLimit = catalog.DefaultRowLimit
	}
	return &LegacyCatalogRepository{db: db, rowLimit: rowLimit}
}

var _ catalog.LegacyCatalogReader = (*LegacyCatalogRepository)(nil)

// findAll loads up to rowLimit rows of T and maps each to its domain row
func findAll[T any, D any](ctx context.Context, r *LegacyCatalogRepository, table string, toDomain func(*T) D) ([]D, error) {
	var rows []T
	if err := r.db.WithContext(ctx).Limit(r.rowLimit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	out := make([]D, len(rows))
	for i := range rows {
		out[i] = toDomain(&rows[i])
	}
	return out, nil
}

// FindAllCategories loads the categories table
func (r *LegacyCatalogRepository) FindAllCategories(ctx context.Context) ([]catalog.RawCategory, error) {
	return findAll(ctx, r, "categories", (*models.LegacyCategoryModel).ToDomain)
}

// FindAllProducts loads the products table
func (r *LegacyCatalogRepository) FindAllProducts(ctx context.Context) ([]catalog.RawProduct, error) {
	return findAll(ctx, r, "products", (*models.LegacyProductModel).ToDomain)
}

// FindAllCategoryProductLinks loads the category_product table
func (r *LegacyCatalogRepository) FindAllCategoryProductLinks(ctx context.Context) ([]catalog.CategoryProductLink, error) {
	return findAll(ctx, r, "category_product", (*models.CategoryProductModel).ToDomain)
}

// FindAllFiles loads the files table
func (r *LegacyCatalogRepository) FindAllFiles(ctx context.Context) ([]catalog.File, error) {
	return findAll(ctx, r, "files", (*models.FileModel).ToDomain)
}

// FindAllFileProductLinks loads the file_product table
func (r *LegacyCatalogRepository) FindAllFileProductLinks(ctx context.Context) ([]catalog.FileProductLink, error) {
	return findAll(ctx, r, "file_product", (*models.FileProductModel).ToDomain)
}

// FindAllCategoryTexts loads the categories_texts table
func (r *LegacyCatalogRepository) FindAllCategoryTexts(ctx context.Context) ([]catalog.CategoryText, error) {
	return findAll(ctx, r, "categories_texts", (*models.CategoryTextModel).ToDomain)
}

// FindAllProductTexts loads the products_texts table
func (r *LegacyCatalogRepository) FindAllProductTexts(ctx context.Context) ([]catalog.ProductText, error) {
	return findAll(ctx, r, "products_texts", (*models.ProductTextModel).ToDomain)
}
