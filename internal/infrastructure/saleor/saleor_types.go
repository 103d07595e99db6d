package saleor

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

// graphQLRequest is the JSON body of a GraphQL request
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLError is one entry of the top-level errors list
type graphQLError struct {
	Message string `json:"message"`
}

// graphQLResponse is the top-level GraphQL response
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// payloadError is a structured error inside a mutation payload
type payloadError struct {
	Field   *string `json:"field"`
	Code    string  `json:"code"`
	Message *string `json:"message"`
}

// objectID is the selection `{ id }`
type objectID struct {
	ID string `json:"id"`
}

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

type metadataInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type categoryInput struct {
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Description        string          `json:"description,omitempty"`
	BackgroundImage    *string         `json:"backgroundImage"`
	BackgroundImageAlt string          `json:"backgroundImageAlt,omitempty"`
	Metadata           []metadataInput `json:"metadata,omitempty"`
}

type productTypeInput struct {
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	Kind               string `json:"kind"`
	IsShippingRequired bool   `json:"isShippingRequired"`
	IsDigital          bool   `json:"isDigital"`
	Weight             string `json:"weight,omitempty"`
	TaxClass           string `json:"taxClass,omitempty"`
}

type productCreateInput struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	ProductType string          `json:"productType"`
	TaxClass    string          `json:"taxClass,omitempty"`
	ChargeTaxes bool            `json:"chargeTaxes"`
	Weight      *float64        `json:"weight,omitempty"`
	Metadata    []metadataInput `json:"metadata,omitempty"`
}

type productChannelListingAddInput struct {
	ChannelID              string `json:"channelId"`
	IsPublished            bool   `json:"isPublished"`
	IsAvailableForPurchase bool   `json:"isAvailableForPurchase"`
	VisibleInListings      bool   `json:"visibleInListings"`
}

type productChannelListingUpdateInput struct {
	UpdateChannels []productChannelListingAddInput `json:"updateChannels"`
}

type stockInput struct {
	Warehouse string `json:"warehouse"`
	Quantity  int32  `json:"quantity"`
}

type variantCreateInput struct {
	Product        string       `json:"product"`
	SKU            string       `json:"sku"`
	TrackInventory bool         `json:"trackInventory"`
	Attributes     []struct{}   `json:"attributes"`
	Stocks         []stockInput `json:"stocks,omitempty"`
}

type variantChannelListingAddInput struct {
	ChannelID string          `json:"channelId"`
	Price     decimal.Decimal `json:"price"`
}

type productMediaCreateInput struct {
	Product  string `json:"product"`
	MediaURL string `json:"mediaUrl"`
	Alt      string `json:"alt,omitempty"`
}

// ---------------------------------------------------------------------------
// Payloads
// ---------------------------------------------------------------------------

type tokenCreateData struct {
	TokenCreate struct {
		Token  *string        `json:"token"`
		Errors []payloadError `json:"errors"`
	} `json:"tokenCreate"`
}

type categoryCreateData struct {
	CategoryCreate struct {
		Category *objectID      `json:"category"`
		Errors   []payloadError `json:"errors"`
	} `json:"categoryCreate"`
}

type productTypeCreateData struct {
	ProductTypeCreate struct {
		ProductType *objectID      `json:"productType"`
		Errors      []payloadError `json:"errors"`
	} `json:"productTypeCreate"`
}

type productCreateData struct {
	ProductCreate struct {
		Product *objectID      `json:"product"`
		Errors  []payloadError `json:"errors"`
	} `json:"productCreate"`
}

type productChannelListingUpdateData struct {
	ProductChannelListingUpdate struct {
		Errors []payloadError `json:"errors"`
	} `json:"productChannelListingUpdate"`
}

type variantCreateData struct {
	ProductVariantCreate struct {
		ProductVariant *objectID      `json:"productVariant"`
		Errors         []payloadError `json:"errors"`
	} `json:"productVariantCreate"`
}

type variantChannelListingUpdateData struct {
	ProductVariantChannelListingUpdate struct {
		Errors []payloadError `json:"errors"`
	} `json:"productVariantChannelListingUpdate"`
}

type productMediaCreateData struct {
	ProductMediaCreate struct {
		Media  *objectID      `json:"media"`
		Errors []payloadError `json:"errors"`
	} `json:"productMediaCreate"`
}

type variantMediaAssignData struct {
	VariantMediaAssign struct {
		Errors []payloadError `json:"errors"`
	} `json:"variantMediaAssign"`
}

type productsData struct {
	Products struct {
		Edges []struct {
			Node objectID `json:"node"`
		} `json:"edges"`
		PageInfo struct {
			HasNextPage bool    `json:"hasNextPage"`
			EndCursor   *string `json:"endCursor"`
		} `json:"pageInfo"`
	} `json:"products"`
}

type productBulkDeleteData struct {
	ProductBulkDelete struct {
		Count  int            `json:"count"`
		Errors []payloadError `json:"errors"`
	} `json:"productBulkDelete"`
}
