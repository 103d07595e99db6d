package migration

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
)

// SourceRows holds every row set read from the legacy database
type SourceRows struct {
	Categories    []catalog.RawCategory
	Products      []catalog.RawProduct
	CategoryLinks []catalog.CategoryProductLink
	Files         []catalog.File
	FileLinks     []catalog.FileProductLink
	CategoryTexts []catalog.CategoryText
	ProductTexts  []catalog.ProductText
}

// Snapshot is the immutable view of the legacy catalog a run works on.
// Rows keep source order; lookups are indexed by owner id.
type Snapshot struct {
	SourceRows

	files         map[uint32]catalog.File
	categoryLinks map[uint32][]catalog.CategoryProductLink
	fileLinks     map[uint32][]uint32
	categoryTexts map[uint32][]catalog.CategoryText
	productTexts  map[uint32][]catalog.ProductText
}

// NewSnapshot indexes rows
func NewSnapshot(rows SourceRows) *Snapshot {
	s := &Snapshot{
		SourceRows:    rows,
		files:         make(map[uint32]catalog.File, len(rows.Files)),
		categoryLinks: make(map[uint32][]catalog.CategoryProductLink),
		fileLinks:     make(map[uint32][]uint32),
		categoryTexts: make(map[uint32][]catalog.CategoryText),
		productTexts:  make(map[uint32][]catalog.ProductText),
	}
	for _, f := range rows.Files {
		if _, dup := s.files[f.ID]; !dup {
			s.files[f.ID] = f
		}
	}
	for _, l := range rows.CategoryLinks {
		s.categoryLinks[l.ProductID] = append(s.categoryLinks[l.ProductID], l)
	}
	for _, l := range rows.FileLinks {
		s.fileLinks[l.ProductID] = append(s.fileLinks[l.ProductID], l.FileID)
	}
	for _, t := range rows.CategoryTexts {
		s.categoryTexts[t.CategoryID] = append(s.categoryTexts[t.CategoryID], t)
	}
	for _, t := range rows.ProductTexts {
		s.productTexts[t.ProductID] = append(s.productTexts[t.ProductID], t)
	}
	return s
}

// File returns the file row with the given id
func (s *Snapshot) File(id uint32) (catalog.File, bool) {
	f, ok := s.files[id]
	return f, ok
}

// CategoryLinks returns the category links of a product in source order
func (s *Snapshot) CategoryLinks(productID uint32) []catalog.CategoryProductLink {
	return s.categoryLinks[productID]
}

// LatestCategoryLink returns the link with the highest link id
func (s *Snapshot) LatestCategoryLink(productID uint32) (catalog.CategoryProductLink, bool) {
	links := s.categoryLinks[productID]
	if len(links) == 0 {
		return catalog.CategoryProductLink{}, false
	}
	return slices.MaxFunc(links, func(a, b catalog.CategoryProductLink) int {
		return cmp.Compare(a.ID, b.ID)
	}), true
}

// FileIDs returns the file ids linked to a product in link order
func (s *Snapshot) FileIDs(productID uint32) []uint32 {
	return s.fileLinks[productID]
}

// LatestCategoryText returns the most recently updated text override of a category
func (s *Snapshot) LatestCategoryText(categoryID uint32) (catalog.CategoryText, bool) {
	return catalog.LatestCategoryText(s.categoryTexts[categoryID])
}

// LatestProductText returns the most recently updated text override of a product
func (s *Snapshot) LatestProductText(productID uint32) (catalog.ProductText, bool) {
	return catalog.LatestProductText(s.productTexts[productID])
}

// Loader reads a Snapshot from the legacy catalog
type Loader struct {
	reader catalog.LegacyCatalogReader
	logger *zap.Logger
}

// NewLoader creates a Loader
func NewLoader(reader catalog.LegacyCatalogReader, logger *zap.Logger) *Loader {
	return &Loader{
		reader: reader,
		logger: logger,
	}
}

// Load reads every legacy table once and indexes the result
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	var (
		rows SourceRows
		err  error
	)

	if rows.Categories, err = l.reader.FindAllCategories(ctx); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if rows.Products, err = l.reader.FindAllProducts(ctx); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if rows.CategoryLinks, err = l.reader.FindAllCategoryProductLinks(ctx); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if rows.Files, err = l.reader.FindAllFiles(ctx); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if rows.FileLinks, err = l.reader.FindAllFileProductLinks(ctx); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if rows.CategoryTexts, err = l.reader.FindAllCategoryTexts(ctx); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if rows.ProductTexts, err = l.reader.FindAllProductTexts(ctx); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	l.logger.Info("Legacy catalog loaded",
		zap.Int("categories", len(rows.Categories)),
		zap.Int("products", len(rows.Products)),
		zap.Int("category_links", len(rows.CategoryLinks)),
		zap.Int("files", len(rows.Files)),
		zap.Int("file_links", len(rows.FileLinks)),
		zap.Int("category_texts", len(rows.CategoryTexts)),
		zap.Int("product_texts", len(rows.ProductTexts)),
		zap.Duration("took", time.Since(start)),
	)
	return NewSnapshot(rows), nil
}
