package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawCategory is one row of the legacy categories table
type RawCategory struct {
	ID          uint32
	Name        string
	ParentID    *uint32
	Slug        string
	Description string
	ImageID     *uint32
	DeletedAt   *time.Time
}

// IsDeleted reports whether the row carries a deletion timestamp
func (c RawCategory) IsDeleted() bool {
	return c.DeletedAt != nil
}

// RawProduct is one row of the legacy products table
type RawProduct struct {
	ID                 uint32
	Name               string
	Code               string
	ShortDescription   string
	Description        string
	RetailPriceWithVAT decimal.NullDecimal
	Quantity           *int32
	Weight             *float64
	DeletedAt          *time.Time
}

// IsDeleted reports whether the row carries a deletion timestamp
func (p RawProduct) IsDeleted() bool {
	return p.DeletedAt != nil
}

// CategoryProductLink assigns a product to a category. Higher ids are newer.
type CategoryProductLink struct {
	ID         uint32
	CategoryID uint32
	ProductID  uint32
}

// File is one row of the legacy files table
type File struct {
	ID       uint32
	Name     string
	MimeType string
}

// IsDocument reports whether the file is a non-image document
func (f File) IsDocument() bool {
	return containsFold(f.MimeType, "pdf")
}

// FileProductLink attaches a file to a product
type FileProductLink struct {
	ProductID uint32
	FileID    uint32
}

// CategoryText is a per-locale text override for a category
type CategoryText struct {
	ID          int32
	CategoryID  uint32
	LanguageID  uint32
	Name        string
	Description string
	UpdatedAt   time.Time
}

// ProductText is a per-locale text override for a product
type ProductText struct {
	ID               uint32
	ProductID        uint32
	LanguageID       uint32
	Name             string
	ShortDescription string
	Description      string
	UpdatedAt        *time.Time
}

// LatestCategoryText returns the override with the latest update timestamp.
// Ties keep the first row in source order.
func LatestCategoryText(texts []CategoryText) (CategoryText, bool) {
	if len(texts) == 0 {
		return CategoryText{}, false
	}
	latest := texts[0]
	for _, t := range texts[1:] {
		if t.UpdatedAt.After(latest.UpdatedAt) {
			latest = t
		}
	}
	return latest, true
}

// LatestProductText returns the override with the latest update timestamp.
// Rows without a timestamp sort before any dated row.
func LatestProductText(texts []ProductText) (ProductText, bool) {
	if len(texts) == 0 {
		return ProductText{}, false
	}
	latest := texts[0]
	for _, t := range texts[1:] {
		if t.UpdatedAt == nil {
			continue
		}
		if latest.UpdatedAt == nil || t.UpdatedAt.After(*latest.UpdatedAt) {
			latest = t
		}
	}
	return latest, true
}
