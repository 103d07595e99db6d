package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
)

// LegacyCategoryModel maps the legacy categories table.
type LegacyCategoryModel struct {
	ID          uint32  `gorm:"primaryKey;autoIncrement:false"`
	Name        string  `gorm:"type:varchar(255);not null;default:''"`
	ParentID    *uint32 `gorm:"index"`
	Slug        string  `gorm:"type:varchar(255);not null;default:''"`
	Description string  `gorm:"type:text"`
	ImageID     *uint32
	DeletedAt   *time.Time
}

// TableName returns the table name for GORM
func (LegacyCategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the row to a domain RawCategory.
func (m *LegacyCategoryModel) ToDomain() catalog.RawCategory {
	return catalog.RawCategory{
		ID:          m.ID,
		Name:        m.Name,
		ParentID:    m.ParentID,
		Slug:        m.Slug,
		Description: m.Description,
		ImageID:     m.ImageID,
		DeletedAt:   m.DeletedAt,
	}
}

// LegacyProductModel maps the legacy products table.
type LegacyProductModel struct {
	ID                 uint32              `gorm:"primaryKey;autoIncrement:false"`
	Name               string              `gorm:"type:varchar(255);not null;default:''"`
	Code               string              `gorm:"type:varchar(64);not null;default:''"`
	ShortDescription   string              `gorm:"type:text"`
	Description        string              `gorm:"type:text"`
	RetailPriceWithIVA decimal.NullDecimal `gorm:"column:retail_price_with_iva;type:decimal(12,4)"`
	Quantity           *int32
	Weight             *float64
	DeletedAt          *time.Time
}

// TableName returns the table name for GORM
func (LegacyProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row to a domain RawProduct.
func (m *LegacyProductModel) ToDomain() catalog.RawProduct {
	return catalog.RawProduct{
		ID:                 m.ID,
		Name:               m.Name,
		Code:               m.Code,
		ShortDescription:   m.ShortDescription,
		Description:        m.Description,
		RetailPriceWithVAT: m.RetailPriceWithIVA,
		Quantity:           m.Quantity,
		Weight:             m.Weight,
		DeletedAt:          m.DeletedAt,
	}
}

// CategoryProductModel maps the category_product link table.
type CategoryProductModel struct {
	ID         uint32 `gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint32 `gorm:"index"`
	ProductID  uint32 `gorm:"index"`
}

// TableName returns the table name for GORM
func (CategoryProductModel) TableName() string {
	return "category_product"
}

// ToDomain converts the row to a domain CategoryProductLink.
func (m *CategoryProductModel) ToDomain() catalog.CategoryProductLink {
	return catalog.CategoryProductLink{ID: m.ID, CategoryID: m.CategoryID, ProductID: m.ProductID}
}

// FileModel maps the legacy files table.
type FileModel struct {
	ID       uint32 `gorm:"primaryKey;autoIncrement:false"`
	Name     string `gorm:"type:varchar(255);not null"`
	MimeType string `gorm:"type:varchar(128);not null;default:''"`
}

// TableName returns the table name for GORM
func (FileModel) TableName() string {
	return "files"
}

// ToDomain converts the row to a domain File.
func (m *FileModel) ToDomain() catalog.File {
	return catalog.File{ID: m.ID, Name: m.Name, MimeType: m.MimeType}
}

// FileProductModel maps the file_product link table, which has no key of its own.
type FileProductModel struct {
	ProductID uint32 `gorm:"index"`
	FileID    uint32
}

// TableName returns the table name for GORM
func (FileProductModel) TableName() string {
	return "file_product"
}

// ToDomain converts the row to a domain FileProductLink.
func (m *FileProductModel) ToDomain() catalog.FileProductLink {
	return catalog.FileProductLink{ProductID: m.ProductID, FileID: m.FileID}
}

// CategoryTextModel maps the categories_texts override table.
// category_id is signed in the legacy schema.
type CategoryTextModel struct {
	ID          int32  `gorm:"primaryKey;autoIncrement:false"`
	CategoryID  int32  `gorm:"index"`
	LanguageID  uint32
	Name        string `gorm:"type:varchar(255);not null;default:''"`
	Description string `gorm:"type:text"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (CategoryTextModel) TableName() string {
	return "categories_texts"
}

// ToDomain converts the row to a domain CategoryText.
func (m *CategoryTextModel) ToDomain() catalog.CategoryText {
	return catalog.CategoryText{
		ID:          m.ID,
		CategoryID:  uint32(m.CategoryID),
		LanguageID:  m.LanguageID,
		Name:        m.Name,
		Description: m.Description,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ProductTextModel maps the products_texts override table.
type ProductTextModel struct {
	ID               uint32 `gorm:"primaryKey;autoIncrement:false"`
	ProductID        uint32 `gorm:"index"`
	LanguageID       uint32
	Name             string     `gorm:"type:varchar(255);not null;default:''"`
	ShortDescription string     `gorm:"type:text"`
	Description      string     `gorm:"type:text"`
	UpdatedAt        *time.Time `gorm:"autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (ProductTextModel) TableName() string {
	return "products_texts"
}

// ToDomain converts the row to a domain ProductText.
func (m *ProductTextModel) ToDomain() catalog.ProductText {
	return catalog.ProductText{
		ID:               m.ID,
		ProductID:        m.ProductID,
		LanguageID:       m.LanguageID,
		Name:             m.Name,
		ShortDescription: m.ShortDescription,
		Description:      m.Description,
		UpdatedAt:        m.UpdatedAt,
	}
}

// LegacyModels returns every legacy model, in dependency order, for schema setup in tests and fixtures.
func LegacyModels() []any {
	return []any{
		&FileModel{},
		&LegacyCategoryModel{},
		&LegacyProductModel{},
		&CategoryProductModel{},
		&FileProductModel{},
		&CategoryTextModel{},
		&ProductTextModel{},
	}
}
