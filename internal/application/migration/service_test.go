package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/domain/integration"
)

func serviceRows() SourceRows {
	return SourceRows{
		Categories: []catalog.RawCategory{
			{ID: 1, Name: "Svietidlá", Slug: "svietidla"},
			{ID: 2, Name: "Test kategória"},
		},
		Products: []catalog.RawProduct{
			{ID: 10, Name: "Lampa", Code: "L"},
			{ID: 11, Name: "Sirota", Code: "S"},
		},
		CategoryLinks: []catalog.CategoryProductLink{{ID: 1, CategoryID: 1, ProductID: 10}},
	}
}

func TestService_Migrate(t *testing.T) {
	reader := new(MockLegacyReader)
	reader.expectRows(serviceRows())

	sf := new(MockStorefront)
	sf.On("CreateCategory", mock.Anything, "tok-1", mock.MatchedBy(func(in integration.CategoryInput) bool {
		return in.Slug == "svietidla"
	})).Return("cat-1", nil).Once()
	sf.On("CreateProductType", mock.Anything, "tok-1", mock.MatchedBy(func(in integration.ProductTypeInput) bool {
		return in.Name == "Lamp" && in.TaxClassID == "tax-1"
	})).Return("pt-lamp", nil).Once()
	sf.On("CreateProduct", mock.Anything, "tok-1", mock.MatchedBy(func(in integration.ProductInput) bool {
		return in.Slug == "lampa" && in.CategoryID == "cat-1" && in.ProductTypeID == "pt-lamp"
	})).Return("prod-10", nil).Once()
	sf.On("UpdateProductChannelListing", mock.Anything, "tok-1", "prod-10", mock.Anything).Return(nil).Once()
	sf.On("CreateVariant", mock.Anything, "tok-1", mock.MatchedBy(func(in integration.VariantInput) bool {
		return in.SKU == "L 001"
	})).Return("var-10", nil).Once()

	svc := NewService(NewLoader(reader, zap.NewNop()), Dependencies{
		Storefront: sf,
		Retrier:    newTestRetrier(&fakeSession{}, DefaultRetryPolicy()),
		Images:     prefixResolver{base: mediaBase},
	}, ServiceConfig{
		ProductFilter: ProductFilterLenient,
		Sequencer:     testSequencerConfig,
	}, zap.NewNop())

	overrides := &catalog.OverrideNode{
		ID:       catalog.SkeletonRootID,
		Children: []*catalog.OverrideNode{{ID: 1, TypeName: "Lamp"}},
	}

	report, err := svc.Migrate(context.Background(), overrides)
	require.NoError(t, err)
	sf.AssertExpectations(t)
	reader.AssertExpectations(t)

	assert.Equal(t, EntityCounts{Created: 1}, report.Categories)
	assert.Equal(t, EntityCounts{Created: 1}, report.ProductTypes)
	assert.Equal(t, EntityCounts{Created: 1, Skipped: 1}, report.Products)
}

func TestService_Prepare(t *testing.T) {
	reader := new(MockLegacyReader)
	reader.expectRows(serviceRows())

	svc := NewService(NewLoader(reader, zap.NewNop()), Dependencies{Images: prefixResolver{base: mediaBase}},
		ServiceConfig{ProductFilter: ProductFilterStrict}, zap.NewNop())

	plan, err := svc.Prepare(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Tree.Len())
	assert.Len(t, plan.Products, 2)
	assert.Zero(t, plan.Registry.Len())
}

func TestService_Prepare_UnresolvableImage(t *testing.T) {
	rows := serviceRows()
	rows.Files = []catalog.File{{ID: 1, Name: "a.jpg", MimeType: "image/jpeg"}}
	rows.FileLinks = []catalog.FileProductLink{{ProductID: 10, FileID: 1}}
	reader := new(MockLegacyReader)
	reader.expectRows(rows)

	svc := NewService(NewLoader(reader, zap.NewNop()), Dependencies{Images: prefixResolver{err: errors.New("no bucket")}},
		ServiceConfig{}, zap.NewNop())

	plan, err := svc.Prepare(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, plan.Products, 2)
	assert.Empty(t, plan.Products[0].Images)
}

func TestService_Skeleton(t *testing.T) {
	reader := new(MockLegacyReader)
	reader.expectRows(serviceRows())

	svc := NewService(NewLoader(reader, zap.NewNop()), Dependencies{}, ServiceConfig{}, zap.NewNop())

	root, err := svc.Skeleton(context.Background())
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "Svietidlá", root.Children[0].Name)
}

func TestService_MissingCollaborators(t *testing.T) {
	t.Run("storefront", func(t *testing.T) {
		svc := NewService(NewLoader(new(MockLegacyReader), zap.NewNop()), Dependencies{}, ServiceConfig{}, zap.NewNop())
		_, err := svc.Migrate(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoStorefront)
	})

	t.Run("image resolver", func(t *testing.T) {
		reader := new(MockLegacyReader)
		svc := NewService(NewLoader(reader, zap.NewNop()), Dependencies{
			Storefront: new(MockStorefront),
			Retrier:    newTestRetrier(&fakeSession{}, DefaultRetryPolicy()),
		}, ServiceConfig{}, zap.NewNop())

		_, err := svc.Migrate(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoImageResolver)
		reader.AssertNotCalled(t, "FindAllCategories", mock.Anything)
	})
}
