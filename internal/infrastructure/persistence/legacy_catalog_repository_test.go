package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/infrastructure/persistence/models"
)

func u32(v uint32) *uint32 { return &v }

// setupLegacyDB creates a sqlite file holding the legacy schema
func setupLegacyDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "legacy.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.LegacyModels()...))
	return db
}

func TestLegacyCatalogRepository_FindAll(t *testing.T) {
	db := setupLegacyDB(t)
	ctx := context.Background()
	deleted := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	updated := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	qty := int32(7)
	weight := 1.25

	require.NoError(t, db.Create(&[]models.LegacyCategoryModel{
		{ID: 1, Name: "Root", Slug: "root", ImageID: u32(10)},
		{ID: 2, Name: "Child", ParentID: u32(1), Slug: "child", DeletedAt: &deleted},
	}).Error)
	require.NoError(t, db.Create(&models.LegacyProductModel{
		ID: 5, Name: "Chair", Code: "CH-1",
		RetailPriceWithIVA: decimal.NewNullDecimal(decimal.RequireFromString("12.5")),
		Quantity:           &qty, Weight: &weight,
	}).Error)
	require.NoError(t, db.Create(&models.LegacyProductModel{ID: 6, Name: "Table"}).Error)
	require.NoError(t, db.Create(&models.CategoryProductModel{ID: 1, CategoryID: 1, ProductID: 5}).Error)
	require.NoError(t, db.Create(&models.FileModel{ID: 10, Name: "chair.jpg", MimeType: "image/jpeg"}).Error)
	require.NoError(t, db.Create(&models.FileProductModel{ProductID: 5, FileID: 10}).Error)
	require.NoError(t, db.Create(&models.CategoryTextModel{ID: 1, CategoryID: 2, LanguageID: 1, Name: "Dieta", UpdatedAt: updated}).Error)
	require.NoError(t, db.Create(&models.ProductTextModel{ID: 1, ProductID: 5, LanguageID: 1, Name: "Stolička"}).Error)

	repo := NewLegacyCatalogRepository(db, 0)

	t.Run("categories", func(t *testing.T) {
		rows, err := repo.FindAllCategories(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Nil(t, rows[0].ParentID)
		assert.Equal(t, uint32(10), *rows[0].ImageID)
		assert.Equal(t, uint32(1), *rows[1].ParentID)
		assert.True(t, rows[1].IsDeleted())
	})

	t.Run("products", func(t *testing.T) {
		rows, err := repo.FindAllProducts(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.True(t, rows[0].RetailPriceWithVAT.Valid)
		assert.True(t, rows[0].RetailPriceWithVAT.Decimal.Equal(decimal.RequireFromString("12.5")))
		assert.Equal(t, int32(7), *rows[0].Quantity)
		assert.InDelta(t, 1.25, *rows[0].Weight, 1e-9)
		assert.False(t, rows[1].RetailPriceWithVAT.Valid)
		assert.Nil(t, rows[1].Quantity)
		assert.Nil(t, rows[1].Weight)
	})

	t.Run("links and files", func(t *testing.T) {
		links, err := repo.FindAllCategoryProductLinks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []catalog.CategoryProductLink{{ID: 1, CategoryID: 1, ProductID: 5}}, links)

		files, err := repo.FindAllFiles(ctx)
		require.NoError(t, err)
		assert.Equal(t, []catalog.File{{ID: 10, Name: "chair.jpg", MimeType: "image/jpeg"}}, files)

		fileLinks, err := repo.FindAllFileProductLinks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []catalog.FileProductLink{{ProductID: 5, FileID: 10}}, fileLinks)
	})

	t.Run("texts", func(t *testing.T) {
		cats, err := repo.FindAllCategoryTexts(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, uint32(2), cats[0].CategoryID)
		assert.True(t, cats[0].UpdatedAt.Equal(updated))

		prods, err := repo.FindAllProductTexts(ctx)
		require.NoError(t, err)
		require.Len(t, prods, 1)
		assert.Equal(t, "Stolička", prods[0].Name)
		assert.Nil(t, prods[0].UpdatedAt)
	})
}

func TestLegacyCatalogRepository_RowLimit(t *testing.T) {
	db := setupLegacyDB(t)
	for i := uint32(1); i <= 5; i++ {
		require.NoError(t, db.Create(&models.FileModel{ID: i, Name: "f"}).Error)
	}

	files, err := NewLegacyCatalogRepository(db, 3).FindAllFiles(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestLegacyCatalogRepository_QueryShape(t *testing.T) {
	database, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "categories" LIMIT \$1`).
		WithArgs(catalog.DefaultRowLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "slug", "description", "image_id", "deleted_at"}).
			AddRow(3, "Lamps", nil, "lamps", "", nil, nil))

	rows, err := NewLegacyCatalogRepository(database.DB, 0).FindAllCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint32(3), rows[0].ID)
	assert.Equal(t, "Lamps", rows[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyCatalogRepository_WrapsErrors(t *testing.T) {
	database, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT \* FROM "products_texts" LIMIT \$1`).WillReturnError(boom)

	_, err := NewLegacyCatalogRepository(database.DB, 0).FindAllProductTexts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load products_texts")
}
