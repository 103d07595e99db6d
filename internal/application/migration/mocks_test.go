package migration

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/domain/integration"
)

// MockStorefront is a mock implementation of integration.Storefront
type MockStorefront struct {
	mock.Mock
}

func (m *MockStorefront) CreateToken(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockStorefront) CreateCategory(ctx context.Context, token string, input integration.CategoryInput) (string, error) {
	args := m.Called(ctx, token, input)
	return args.String(0), args.Error(1)
}

func (m *MockStorefront) CreateProductType(ctx context.Context, token string, input integration.ProductTypeInput) (string, error) {
	args := m.Called(ctx, token, input)
	return args.String(0), args.Error(1)
}

func (m *MockStorefront) CreateProduct(ctx context.Context, token string, input integration.ProductInput) (string, error) {
	args := m.Called(ctx, token, input)
	return args.String(0), args.Error(1)
}

func (m *MockStorefront) UpdateProductChannelListing(ctx context.Context, token, productID string, input integration.ProductChannelListingInput) error {
	args := m.Called(ctx, token, productID, input)
	return args.Error(0)
}

func (m *MockStorefront) CreateVariant(ctx context.Context, token string, input integration.VariantInput) (string, error) {
	args := m.Called(ctx, token, input)
	return args.String(0), args.Error(1)
}

func (m *MockStorefront) UpdateVariantChannelListing(ctx context.Context, token, variantID string, input integration.VariantChannelListingInput) error {
	args := m.Called(ctx, token, variantID, input)
	return args.Error(0)
}

func (m *MockStorefront) CreateProductMedia(ctx context.Context, token string, input integration.ProductMediaInput) (string, error) {
	args := m.Called(ctx, token, input)
	return args.String(0), args.Error(1)
}

func (m *MockStorefront) AssignVariantMedia(ctx context.Context, token, variantID, mediaID string) error {
	args := m.Called(ctx, token, variantID, mediaID)
	return args.Error(0)
}

func (m *MockStorefront) ListProductIDs(ctx context.Context, token string, input integration.ProductPageInput) (*integration.ProductPage, error) {
	args := m.Called(ctx, token, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductPage), args.Error(1)
}

func (m *MockStorefront) BulkDeleteProducts(ctx context.Context, token string, ids []string) (int, error) {
	args := m.Called(ctx, token, ids)
	return args.Int(0), args.Error(1)
}

// MockLegacyReader is a mock implementation of catalog.LegacyCatalogReader
type MockLegacyReader struct {
	mock.Mock
}

func (m *MockLegacyReader) FindAllCategories(ctx context.Context) ([]catalog.RawCategory, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.RawCategory), args.Error(1)
}

func (m *MockLegacyReader) FindAllProducts(ctx context.Context) ([]catalog.RawProduct, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.RawProduct), args.Error(1)
}

func (m *MockLegacyReader) FindAllCategoryProductLinks(ctx context.Context) ([]catalog.CategoryProductLink, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.CategoryProductLink), args.Error(1)
}

func (m *MockLegacyReader) FindAllFiles(ctx context.Context) ([]catalog.File, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.File), args.Error(1)
}

func (m *MockLegacyReader) FindAllFileProductLinks(ctx context.Context) ([]catalog.FileProductLink, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.FileProductLink), args.Error(1)
}

func (m *MockLegacyReader) FindAllCategoryTexts(ctx context.Context) ([]catalog.CategoryText, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.CategoryText), args.Error(1)
}

func (m *MockLegacyReader) FindAllProductTexts(ctx context.Context) ([]catalog.ProductText, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.ProductText), args.Error(1)
}

// expectRows makes every reader method return the matching slice of rows
func (m *MockLegacyReader) expectRows(rows SourceRows) {
	m.On("FindAllCategories", mock.Anything).Return(rows.Categories, nil)
	m.On("FindAllProducts", mock.Anything).Return(rows.Products, nil)
	m.On("FindAllCategoryProductLinks", mock.Anything).Return(rows.CategoryLinks, nil)
	m.On("FindAllFiles", mock.Anything).Return(rows.Files, nil)
	m.On("FindAllFileProductLinks", mock.Anything).Return(rows.FileLinks, nil)
	m.On("FindAllCategoryTexts", mock.Anything).Return(rows.CategoryTexts, nil)
	m.On("FindAllProductTexts", mock.Anything).Return(rows.ProductTexts, nil)
}

// fakeSession hands out numbered tokens: tok-1, tok-2, ...
type fakeSession struct {
	mu         sync.Mutex
	issued     int
	refreshErr error
}

func (s *fakeSession) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issued == 0 {
		s.issued = 1
	}
	return fmt.Sprintf("tok-%d", s.issued), nil
}

func (s *fakeSession) Refresh(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	s.issued++
	return fmt.Sprintf("tok-%d", s.issued), nil
}

// prefixResolver resolves filenames against a fixed base URL. Files listed
// in failing are rejected with err.
type prefixResolver struct {
	base    string
	err     error
	failing map[string]bool
}

func (r prefixResolver) Resolve(_ context.Context, filename string) (string, error) {
	if r.err != nil && (r.failing == nil || r.failing[filename]) {
		return "", r.err
	}
	return r.base + "/" + filename, nil
}

// mapStore serves category images from memory
type mapStore map[string][]byte

func (s mapStore) Open(filename string) (*integration.Upload, error) {
	content, ok := s[filename]
	if !ok {
		return nil, nil
	}
	return &integration.Upload{FileName: filename, ContentType: "image/png", Content: content}, nil
}

func ptr[T any](v T) *T {
	return &v
}

func uniqueErr(op string) error {
	return &integration.MutationError{Operation: op, Code: integration.ErrorCodeUnique, Field: "slug", Message: "already exists"}
}
