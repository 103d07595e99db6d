package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Storefront Errors
// ---------------------------------------------------------------------------

// SessionExpiredMessage is the exact error message the storefront returns
// once the bearer token signature has expired
const SessionExpiredMessage = "Signature has expired"

var (
	ErrSessionExpired          = errors.New("integration: session signature has expired")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
)

// Storefront error codes
const (
	ErrorCodeUnique           = "UNIQUE"
	ErrorCodeRequired         = "REQUIRED"
	ErrorCodeGraphQL          = "GRAPHQL_ERROR"
	ErrorCodeSessionExpired   = "SIGNATURE_EXPIRED"
	ErrorCodeTransport        = "TRANSPORT_ERROR"
	ErrorCodeMissingReference = "MISSING_REFERENCE"
)

// MutationError is a structured error returned in a mutation payload
type MutationError struct {
	Operation string
	Code      string
	Field     string
	Message   string
}

// Error implements the error interface
func (e *MutationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("integration: %s failed on field '%s': %s (%s)", e.Operation, e.Field, e.Message, e.Code)
	}
	return fmt.Sprintf("integration: %s failed: %s (%s)", e.Operation, e.Message, e.Code)
}

// IsUnique reports whether err is a uniqueness violation
func IsUnique(err error) bool {
	var me *MutationError
	return errors.As(err, &me) && me.Code == ErrorCodeUnique
}

// IsSessionExpired reports whether err signals an expired session
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// ErrorCode returns the code recorded for err in the failure log
func ErrorCode(err error) string {
	var me *MutationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &me):
		return me.Code
	case errors.Is(err, ErrSessionExpired):
		return ErrorCodeSessionExpired
	case errors.Is(err, ErrPlatformUnavailable):
		return ErrorCodeTransport
	default:
		return ErrorCodeGraphQL
	}
}

// ---------------------------------------------------------------------------
// Storefront port
// ---------------------------------------------------------------------------

// TokenIssuer exchanges staff credentials for a bearer token
type TokenIssuer interface {
	CreateToken(ctx context.Context, email, password string) (string, error)
}

// Storefront is the port to the target commerce platform. Every call takes
// the bearer token explicitly and returns ErrSessionExpired when the token
// must be refreshed, or a *MutationError for structured rejections.
type Storefront interface {
	TokenIssuer

	CreateCategory(ctx context.Context, token string, input CategoryInput) (string, error)
	CreateProductType(ctx context.Context, token string, input ProductTypeInput) (string, error)
	CreateProduct(ctx context.Context, token string, input ProductInput) (string, error)
	UpdateProductChannelListing(ctx context.Context, token, productID string, input ProductChannelListingInput) error
	CreateVariant(ctx context.Context, token string, input VariantInput) (string, error)
	UpdateVariantChannelListing(ctx context.Context, token, variantID string, input VariantChannelListingInput) error
	CreateProductMedia(ctx context.Context, token string, input ProductMediaInput) (string, error)
	AssignVariantMedia(ctx context.Context, token, variantID, mediaID string) error
	ListProductIDs(ctx context.Context, token string, input ProductPageInput) (*ProductPage, error)
	BulkDeleteProducts(ctx context.Context, token string, ids []string) (int, error)
}

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

// MetadataItem is a public metadata key/value pair
type MetadataItem struct {
	Key   string
	Value string
}

// Metadata keys written on migrated entities
const (
	MetadataKeyOldID            = "old_id"
	MetadataKeyShortDescription = "short_description"
)

// Upload is a file sent along a multipart GraphQL request
type Upload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// CategoryInput describes a category to create
type CategoryInput struct {
	Name               string
	Slug               string
	Description        string
	BackgroundImageAlt string
	Metadata           []MetadataItem
	// ParentID is the remote id of the parent; empty creates a root
	ParentID string
	// BackgroundImage is uploaded with the request when set
	BackgroundImage *Upload
}

// ProductTypeKind is the storefront product type kind
type ProductTypeKind string

const (
	ProductTypeKindNormal   ProductTypeKind = "NORMAL"
	ProductTypeKindGiftCard ProductTypeKind = "GIFT_CARD"
)

// ProductTypeInput describes a product type to create
type ProductTypeInput struct {
	Name               string
	Slug               string
	Kind               ProductTypeKind
	IsShippingRequired bool
	IsDigital          bool
	Weight             string
	TaxClassID         string
}

// ProductInput describes a product to create
type ProductInput struct {
	Name          string
	Slug          string
	Description   string
	CategoryID    string
	ProductTypeID string
	TaxClassID    string
	ChargeTaxes   bool
	Weight        *float64
	Metadata      []MetadataItem
}

// ProductChannelListingInput publishes a product in a channel
type ProductChannelListingInput struct {
	ChannelID              string
	IsPublished            bool
	IsAvailableForPurchase bool
	VisibleInListings      bool
}

// StockInput is the stock of a variant in one warehouse
type StockInput struct {
	WarehouseID string
	Quantity    int32
}

// VariantInput describes a product variant to create
type VariantInput struct {
	ProductID      string
	SKU            string
	TrackInventory bool
	Stocks         []StockInput
}

// VariantChannelListingInput sets the price of a variant in a channel
type VariantChannelListingInput struct {
	ChannelID string
	Price     decimal.Decimal
}

// ProductMediaInput attaches media fetched from a URL to a product
type ProductMediaInput struct {
	ProductID string
	MediaURL  string
	Alt       string
}

// ProductPageInput requests one page of product ids in a channel
type ProductPageInput struct {
	Channel string
	First   int
	After   string
}

// ProductPage is one page of product ids
type ProductPage struct {
	IDs         []string
	HasNextPage bool
	EndCursor   string
}
