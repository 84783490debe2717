package services

import (
	"context"
	"testing"
	"time"

	"assetfolio/src/repositories"
	"assetfolio/src/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPrice(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewHistoryService(store, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 20, 30, 0, 0, time.UTC) }
	lot := seedStock(t, store, "AAPL", "10", "100")

	t.Run("today updates current price", func(t *testing.T) {
		h, err := svc.RecordPrice(ctx, lot.ID, &schemas.RecordPriceRequest{Price: decPtr("130")})
		require.NoError(t, err)
		requireDec(t, "130", h.CurrentPrice)

		stored, err := store.Stocks().GetByID(ctx, lot.ID)
		require.NoError(t, err)
		requireDec(t, "130", stored.CurrentPrice)
	})

	t.Run("past date only adds history", func(t *testing.T) {
		past := schemas.Date{Time: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}
		h, err := svc.RecordPrice(ctx, lot.ID, &schemas.RecordPriceRequest{Price: decPtr("90"), Date: &past})
		require.NoError(t, err)
		requireDec(t, "130", h.CurrentPrice)

		prices, err := store.History().ListByStock(ctx, lot.ID, time.Time{})
		require.NoError(t, err)
		require.Len(t, prices, 2)
		assert.Equal(t, "2024-06-03", prices[0].RecordDate.Format(schemas.DateLayout))
		assert.Equal(t, "2024-06-10", prices[1].RecordDate.Format(schemas.DateLayout))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := svc.RecordPrice(ctx, lot.ID, &schemas.RecordPriceRequest{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = svc.RecordPrice(ctx, lot.ID, &schemas.RecordPriceRequest{Price: decPtr("-1")})
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = svc.RecordPrice(ctx, lot.ID, &schemas.RecordPriceRequest{Price: decPtr("1.23456")})
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = svc.RecordPrice(ctx, 9999, &schemas.RecordPriceRequest{Price: decPtr("1")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSnapshotPrices(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewHistoryService(store, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC) }
	a := seedStock(t, store, "AAPL", "10", "100")
	b := seedStock(t, store, "MSFT", "1", "300")

	n, err := svc.SnapshotPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Running twice on the same day overwrites rather than duplicates.
	require.NoError(t, store.Stocks().SetCurrentPrice(ctx, a.ID, dec("105")))
	_, err = svc.SnapshotPrices(ctx)
	require.NoError(t, err)

	prices, err := store.History().ListByStock(ctx, a.ID, time.Time{})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	requireDec(t, "105", prices[0].CurrentPrice)

	prices, err = store.History().ListByStock(ctx, b.ID, time.Time{})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	requireDec(t, "300", prices[0].CurrentPrice)
}
