package catalog

import "context"

// DefaultRowLimit caps every fetch-all query against the legacy store
const DefaultRowLimit = 100000

// LegacyCatalogReader defines read-only access to the legacy catalog tables.
// Every method returns at most the configured row limit and pushes no
// filtering to the source.
type LegacyCatalogReader interface {
	// FindAllCategories returns rows of the categories table
	FindAllCategories(ctx context.Context) ([]RawCategory, error)

	// FindAllProducts returns rows of the products table
	FindAllProducts(ctx context.Context) ([]RawProduct, error)

	// FindAllCategoryProductLinks returns rows of the category_product table
	FindAllCategoryProductLinks(ctx context.Context) ([]CategoryProductLink, error)

	// FindAllFiles returns rows of the files table
	FindAllFiles(ctx context.Context) ([]File, error)

	// FindAllFileProductLinks returns rows of the file_product table
	FindAllFileProductLinks(ctx context.Context) ([]FileProductLink, error)

	// FindAllCategoryTexts returns rows of the categories_texts table
	FindAllCategoryTexts(ctx context.Context) ([]CategoryText, error)

	// FindAllProductTexts returns rows of the products_texts table
	FindAllProductTexts(ctx context.Context) ([]ProductText, error)
}
