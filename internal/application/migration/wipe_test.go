package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/integration"
)

func newTestWiper(sf *MockStorefront, session *fakeSession) *Wiper {
	return NewWiper(sf, newTestRetrier(session, DefaultRetryPolicy()), "default-channel", zap.NewNop())
}

func TestWiper_PagesThenDeletesOnce(t *testing.T) {
	sf := new(MockStorefront)
	sf.On("ListProductIDs", mock.Anything, "tok-1", integration.ProductPageInput{Channel: "default-channel", First: WipePageSize}).
		Return(&integration.ProductPage{IDs: []string{"p1", "p2"}, HasNextPage: true, EndCursor: "c1"}, nil).Once()
	sf.On("ListProductIDs", mock.Anything, "tok-1", integration.ProductPageInput{Channel: "default-channel", First: WipePageSize, After: "c1"}).
		Return(&integration.ProductPage{IDs: []string{"p3"}, HasNextPage: false, EndCursor: "c2"}, nil).Once()
	sf.On("BulkDeleteProducts", mock.Anything, "tok-1", []string{"p1", "p2", "p3"}).Return(3, nil).Once()

	deleted, err := newTestWiper(sf, &fakeSession{}).Wipe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	sf.AssertExpectations(t)
	sf.AssertNumberOfCalls(t, "BulkDeleteProducts", 1)
}

func TestWiper_StopsOnMissingCursor(t *testing.T) {
	sf := new(MockStorefront)
	sf.On("ListProductIDs", mock.Anything, "tok-1", mock.Anything).
		Return(&integration.ProductPage{IDs: []string{"p1"}, HasNextPage: true}, nil).Once()
	sf.On("BulkDeleteProducts", mock.Anything, "tok-1", []string{"p1"}).Return(1, nil).Once()

	deleted, err := newTestWiper(sf, &fakeSession{}).Wipe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	sf.AssertNumberOfCalls(t, "ListProductIDs", 1)
}

func TestWiper_NothingToDelete(t *testing.T) {
	sf := new(MockStorefront)
	sf.On("ListProductIDs", mock.Anything, "tok-1", mock.Anything).
		Return(&integration.ProductPage{}, nil).Once()

	deleted, err := newTestWiper(sf, &fakeSession{}).Wipe(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	sf.AssertNotCalled(t, "BulkDeleteProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestWiper_RefreshesExpiredSession(t *testing.T) {
	sf := new(MockStorefront)
	sf.On("ListProductIDs", mock.Anything, "tok-1", mock.Anything).Return(nil, integration.ErrSessionExpired).Once()
	sf.On("ListProductIDs", mock.Anything, "tok-2", mock.Anything).
		Return(&integration.ProductPage{IDs: []string{"p1"}}, nil).Once()
	sf.On("BulkDeleteProducts", mock.Anything, "tok-2", []string{"p1"}).Return(1, nil).Once()

	deleted, err := newTestWiper(sf, &fakeSession{}).Wipe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	sf.AssertExpectations(t)
}

func TestWiper_Errors(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		sf := new(MockStorefront)
		sf.On("ListProductIDs", mock.Anything, "tok-1", mock.Anything).Return(nil, errors.New("boom")).Once()

		_, err := newTestWiper(sf, &fakeSession{}).Wipe(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list products")
	})

	t.Run("delete", func(t *testing.T) {
		sf := new(MockStorefront)
		sf.On("ListProductIDs", mock.Anything, "tok-1", mock.Anything).
			Return(&integration.ProductPage{IDs: []string{"p1"}}, nil).Once()
		sf.On("BulkDeleteProducts", mock.Anything, "tok-1", mock.Anything).
			Return(0, &integration.MutationError{Operation: "productBulkDelete", Code: integration.ErrorCodeGraphQL}).Once()

		_, err := newTestWiper(sf, &fakeSession{}).Wipe(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delete products")
		assert.Equal(t, integration.ErrorCodeGraphQL, integration.ErrorCode(err))
	})
}
