package catalog

import (
	"github.com/erp/catalog-migrator/internal/domain/shared/richtext"
)

// FinalProduct is a product ready for upload, built from a RawProduct
type FinalProduct struct {
	SourceID         uint32
	Name             string
	Slug             string
	SKU              string
	Description      richtext.Document
	ShortDescription string
	// Category is the assigned category; NoNode when none was linked
	Category NodeIndex
	Images   []string
	// Price is the tax-inclusive retail price; empty when the source had none
	Price    string
	Quantity *int32
	Weight   *float64

	RemoteID  string
	VariantID string
}

// HasCategory reports whether a category was assigned
func (p *FinalProduct) HasCategory() bool {
	return p.Category != NoNode
}

// HasPrice reports whether a price is known
func (p *FinalProduct) HasPrice() bool {
	return p.Price != ""
}

// IsUploaded reports whether the product has a remote identifier
func (p *FinalProduct) IsUploaded() bool {
	return p.RemoteID != ""
}
