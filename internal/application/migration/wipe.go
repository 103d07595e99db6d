package migration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/integration"
)

// WipePageSize is the number of product ids requested per page
const WipePageSize = 100

// Wiper deletes every product visible in a channel
type Wiper struct {
	storefront integration.Storefront
	retrier    *Retrier
	channel    string
	logger     *zap.Logger
}

// NewWiper creates a Wiper for the channel slug
func NewWiper(storefront integration.Storefront, retrier *Retrier, channel string, logger *zap.Logger) *Wiper {
	return &Wiper{
		storefront: storefront,
		retrier:    retrier,
		channel:    channel,
		logger:     logger,
	}
}

// Wipe collects all product ids page by page, then deletes them in one bulk
// request. It returns the number of deleted products.
func (w *Wiper) Wipe(ctx context.Context) (int, error) {
	var (
		ids   []string
		after string
	)
	for {
		var page *integration.ProductPage
		err := w.retrier.Do(ctx, "products", func(ctx context.Context, token string) error {
			var err error
			page, err = w.storefront.ListProductIDs(ctx, token, integration.ProductPageInput{
				Channel: w.channel,
				First:   WipePageSize,
				After:   after,
			})
			return err
		}, nil)
		if err != nil {
			return 0, fmt.Errorf("list products: %w", err)
		}

		ids = append(ids, page.IDs...)
		w.logger.Debug("Fetched product page", zap.Int("ids", len(page.IDs)), zap.Int("total", len(ids)))
		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		after = page.EndCursor
	}

	if len(ids) == 0 {
		w.logger.Info("No products to delete", zap.String("channel", w.channel))
		return 0, nil
	}

	var deleted int
	err := w.retrier.Do(ctx, "productBulkDelete", func(ctx context.Context, token string) error {
		var err error
		deleted, err = w.storefront.BulkDeleteProducts(ctx, token, ids)
		return err
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}

	w.logger.Info("Products deleted",
		zap.String("channel", w.channel),
		zap.Int("requested", len(ids)),
		zap.Int("deleted", deleted),
	)
	return deleted, nil
}
