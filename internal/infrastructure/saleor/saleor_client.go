package saleor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/integration"
	"github.com/erp/catalog-migrator/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from the GraphQL API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// uploadPartName is the multipart field carrying the category background image
const uploadPartName = "1"

// Client implements integration.Storefront against the Saleor GraphQL API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.MigrationMetrics
}

var _ integration.Storefront = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithMetrics records request durations
func WithMetrics(m *telemetry.MigrationMetrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// NewClient creates a new Saleor client with the given configuration
func NewClient(config *Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("saleor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// CreateToken exchanges staff credentials for a bearer token
func (c *Client) CreateToken(ctx context.Context, email, password string) (string, error) {
	var data tokenCreateData
	vars := map[string]any{"email": email, "password": password}
	if err := c.execute(ctx, OpTokenCreate, "", tokenCreateMutation, vars, nil, &data); err != nil {
		return "", err
	}
	payload := data.TokenCreate
	if err := firstError(OpTokenCreate, payload.Errors); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformAuthFailed, err)
	}
	if payload.Token == nil || *payload.Token == "" {
		return "", fmt.Errorf("%w: empty token", integration.ErrPlatformAuthFailed)
	}
	return *payload.Token, nil
}

// ---------------------------------------------------------------------------
// Catalog mutations
// ---------------------------------------------------------------------------

// CreateCategory creates a category, uploading its background image in the
// same multipart request when one is attached
func (c *Client) CreateCategory(ctx context.Context, token string, input integration.CategoryInput) (string, error) {
	vars := map[string]any{
		"input": categoryInput{
			Name:               input.Name,
			Slug:               input.Slug,
			Description:        input.Description,
			BackgroundImageAlt: input.BackgroundImageAlt,
			Metadata:           toMetadata(input.Metadata),
		},
		"parent": nullable(input.ParentID),
	}

	var data categoryCreateData
	if err := c.execute(ctx, OpCategoryCreate, token, categoryCreateMutation, vars, input.BackgroundImage, &data); err != nil {
		return "", err
	}
	payload := data.CategoryCreate
	if err := firstError(OpCategoryCreate, payload.Errors); err != nil {
		return "", err
	}
	return idOf(OpCategoryCreate, payload.Category)
}

// CreateProductType creates a product type
func (c *Client) CreateProductType(ctx context.Context, token string, input integration.ProductTypeInput) (string, error) {
	kind := input.Kind
	if kind == "" {
		kind = integration.ProductTypeKindNormal
	}
	vars := map[string]any{
		"input": productTypeInput{
			Name:               input.Name,
			Slug:               input.Slug,
			Kind:               string(kind),
			IsShippingRequired: input.IsShippingRequired,
			IsDigital:          input.IsDigital,
			Weight:             input.Weight,
			TaxClass:           input.TaxClassID,
		},
	}

	var data productTypeCreateData
	if err := c.execute(ctx, OpProductTypeCreate, token, productTypeCreateMutation, vars, nil, &data); err != nil {
		return "", err
	}
	payload := data.ProductTypeCreate
	if err := firstError(OpProductTypeCreate, payload.Errors); err != nil {
		return "", err
	}
	return idOf(OpProductTypeCreate, payload.ProductType)
}

// CreateProduct creates a product
func (c *Client) CreateProduct(ctx context.Context, token string, input integration.ProductInput) (string, error) {
	vars := map[string]any{
		"input": productCreateInput{
			Name:        input.Name,
			Slug:        input.Slug,
			Description: input.Description,
			Category:    input.CategoryID,
			ProductType: input.ProductTypeID,
			TaxClass:    input.TaxClassID,
			ChargeTaxes: input.ChargeTaxes,
			Weight:      input.Weight,
			Metadata:    toMetadata(input.Metadata),
		},
	}

	var data productCreateData
	if err := c.execute(ctx, OpProductCreate, token, productCreateMutation, vars, nil, &data); err != nil {
		return "", err
	}
	payload := data.ProductCreate
	if err := firstError(OpProductCreate, payload.Errors); err != nil {
		return "", err
	}
	return idOf(OpProductCreate, payload.Product)
}

// UpdateProductChannelListing publishes a product in one channel
func (c *Client) UpdateProductChannelListing(ctx context.Context, token, productID string, input integration.ProductChannelListingInput) error {
	vars := map[string]any{
		"id": productID,
		"input": productChannelListingUpdateInput{
			UpdateChannels: []productChannelListingAddInput{{
				ChannelID:              input.ChannelID,
				IsPublished:            input.IsPublished,
				IsAvailableForPurchase: input.IsAvailableForPurchase,
				VisibleInListings:      input.VisibleInListings,
			}},
		},
	}

	var data productChannelListingUpdateData
	if err := c.execute(ctx, OpProductChannelListingUpdate, token, productChannelListingUpdateMutation, vars, nil, &data); err != nil {
		return err
	}
	return firstError(OpProductChannelListingUpdate, data.ProductChannelListingUpdate.Errors)
}

// CreateVariant creates the single variant of a product
func (c *Client) CreateVariant(ctx context.Context, token string, input integration.VariantInput) (string, error) {
	in := variantCreateInput{
		Product:        input.ProductID,
		SKU:            input.SKU,
		TrackInventory: input.TrackInventory,
		Attributes:     []struct{}{},
	}
	for _, s := range input.Stocks {
		in.Stocks = append(in.Stocks, stockInput{Warehouse: s.WarehouseID, Quantity: s.Quantity})
	}

	var data variantCreateData
	if err := c.execute(ctx, OpVariantCreate, token, variantCreateMutation, map[string]any{"input": in}, nil, &data); err != nil {
		return "", err
	}
	payload := data.ProductVariantCreate
	if err := firstError(OpVariantCreate, payload.Errors); err != nil {
		return "", err
	}
	return idOf(OpVariantCreate, payload.ProductVariant)
}

// UpdateVariantChannelListing sets the variant price in one channel
func (c *Client) UpdateVariantChannelListing(ctx context.Context, token, variantID string, input integration.VariantChannelListingInput) error {
	vars := map[string]any{
		"id": variantID,
		"input": []variantChannelListingAddInput{{
			ChannelID: input.ChannelID,
			Price:     input.Price,
		}},
	}

	var data variantChannelListingUpdateData
	if err := c.execute(ctx, OpVariantChannelListingUpdate, token, variantChannelListingUpdateMutation, vars, nil, &data); err != nil {
		return err
	}
	return firstError(OpVariantChannelListingUpdate, data.ProductVariantChannelListingUpdate.Errors)
}

// CreateProductMedia attaches an image fetched from a URL to a product
func (c *Client) CreateProductMedia(ctx context.Context, token string, input integration.ProductMediaInput) (string, error) {
	vars := map[string]any{
		"input": productMediaCreateInput{
			Product:  input.ProductID,
			MediaURL: input.MediaURL,
			Alt:      input.Alt,
		},
	}

	var data productMediaCreateData
	if err := c.execute(ctx, OpProductMediaCreate, token, productMediaCreateMutation, vars, nil, &data); err != nil {
		return "", err
	}
	payload := data.ProductMediaCreate
	if err := firstError(OpProductMediaCreate, payload.Errors); err != nil {
		return "", err
	}
	return idOf(OpProductMediaCreate, payload.Media)
}

// AssignVariantMedia links product media to a variant
func (c *Client) AssignVariantMedia(ctx context.Context, token, variantID, mediaID string) error {
	vars := map[string]any{"mediaId": mediaID, "variantId": variantID}

	var data variantMediaAssignData
	if err := c.execute(ctx, OpVariantMediaAssign, token, variantMediaAssignMutation, vars, nil, &data); err != nil {
		return err
	}
	return firstError(OpVariantMediaAssign, data.VariantMediaAssign.Errors)
}

// ---------------------------------------------------------------------------
// Wipe
// ---------------------------------------------------------------------------

// ListProductIDs returns one page of product ids in a channel
func (c *Client) ListProductIDs(ctx context.Context, token string, input integration.ProductPageInput) (*integration.ProductPage, error) {
	vars := map[string]any{
		"first":   input.First,
		"after":   nullable(input.After),
		"channel": nullable(input.Channel),
	}

	var data productsData
	if err := c.execute(ctx, OpProducts, token, productsQuery, vars, nil, &data); err != nil {
		return nil, err
	}

	page := &integration.ProductPage{HasNextPage: data.Products.PageInfo.HasNextPage}
	if data.Products.PageInfo.EndCursor != nil {
		page.EndCursor = *data.Products.PageInfo.EndCursor
	}
	page.IDs = make([]string, 0, len(data.Products.Edges))
	for _, e := range data.Products.Edges {
		page.IDs = append(page.IDs, e.Node.ID)
	}
	return page, nil
}

// BulkDeleteProducts deletes the given products and returns the deleted count
func (c *Client) BulkDeleteProducts(ctx context.Context, token string, ids []string) (int, error) {
	var data productBulkDeleteData
	if err := c.execute(ctx, OpProductBulkDelete, token, productBulkDeleteMutation, map[string]any{"ids": ids}, nil, &data); err != nil {
		return 0, err
	}
	payload := data.ProductBulkDelete
	if err := firstError(OpProductBulkDelete, payload.Errors); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// execute sends one GraphQL operation and decodes its data into out
func (c *Client) execute(ctx context.Context, operation, token, query string, vars map[string]any, upload *integration.Upload, out any) (err error) {
	ctx, span := telemetry.StartClientSpan(ctx, operation)
	start := time.Now()
	defer func() {
		c.metrics.RecordRequest(ctx, operation, time.Since(start))
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	body, contentType, err := encodeRequest(graphQLRequest{Query: query, Variables: vars}, upload)
	if err != nil {
		return fmt.Errorf("saleor: failed to encode %s: %w", operation, err)
	}

	raw, status, err := c.doRequest(ctx, token, body, contentType)
	if err != nil {
		return err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformUnavailable, status)
		}
		return fmt.Errorf("%w: %s: %v", integration.ErrPlatformInvalidResponse, operation, err)
	}

	if len(resp.Errors) > 0 {
		return c.topLevelError(operation, resp.Errors)
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s: HTTP %d", integration.ErrPlatformRequestFailed, operation, status)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%w: %s: empty data", integration.ErrPlatformInvalidResponse, operation)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", integration.ErrPlatformInvalidResponse, operation, err)
	}
	return nil
}

// doRequest performs the HTTP round trip and returns the bounded body
func (c *Client) doRequest(ctx context.Context, token string, body []byte, contentType string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.GraphQLURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("saleor: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("saleor: failed to read response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

// topLevelError maps the GraphQL errors list to a domain error
func (c *Client) topLevelError(operation string, errs []graphQLError) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Message == integration.SessionExpiredMessage {
			return fmt.Errorf("%w: %s", integration.ErrSessionExpired, operation)
		}
		messages = append(messages, e.Message)
	}
	c.logger.Debug("GraphQL errors", zap.String("operation", operation), zap.Strings("messages", messages))
	return &integration.MutationError{
		Operation: operation,
		Code:      integration.ErrorCodeGraphQL,
		Message:   strings.Join(messages, "; "),
	}
}

// encodeRequest renders a plain JSON body, or a GraphQL multipart request
// when an upload is attached to variables.input.backgroundImage
func encodeRequest(req graphQLRequest, upload *integration.Upload) ([]byte, string, error) {
	operations, err := json.Marshal(req)
	if err != nil {
		return nil, "", err
	}
	if upload == nil {
		return operations, "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("operations", string(operations)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("map", `{"`+uploadPartName+`":["variables.input.backgroundImage"]}`); err != nil {
		return nil, "", err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadPartName, escapeQuotes(upload.FileName)))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(upload.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// firstError converts the first payload error to a *MutationError
func firstError(operation string, errs []payloadError) error {
	if len(errs) == 0 {
		return nil
	}
	e := errs[0]
	me := &integration.MutationError{Operation: operation, Code: e.Code}
	if e.Field != nil {
		me.Field = *e.Field
	}
	if e.Message != nil {
		me.Message = *e.Message
	}
	if me.Code == "" {
		me.Code = integration.ErrorCodeGraphQL
	}
	return me
}

// idOf returns the id of a created object or an invalid response error
func idOf(operation string, obj *objectID) (string, error) {
	if obj == nil || obj.ID == "" {
		return "", fmt.Errorf("%w: %s returned no id", integration.ErrPlatformInvalidResponse, operation)
	}
	return obj.ID, nil
}

func toMetadata(items []integration.MetadataItem) []metadataInput {
	if len(items) == 0 {
		return nil
	}
	out := make([]metadataInput, len(items))
	for i, m := range items {
		out[i] = metadataInput{Key: m.Key, Value: m.Value}
	}
	return out
}

// nullable maps an empty string to a JSON null
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

