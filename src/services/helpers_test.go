package services

import (
	"context"
	"testing"
	"time"

	"assetfolio/src/models"
	"assetfolio/src/repositories"
	"assetfolio/src/schemas"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int {
	return &i
}

func requireDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func seedCash(t *testing.T, store repositories.Store, bank, amount string) models.CashHolding {
	t.Helper()
	h := &models.CashHolding{BankName: bank, CurrencyCode: "USD", CashAmount: dec(amount)}
	require.NoError(t, store.Cash().Create(context.Background(), h))
	return *h
}

func seedStock(t *testing.T, store repositories.Store, ticker, quantity, price string) models.StockHolding {
	t.Helper()
	h := &models.StockHolding{
		Ticker:        ticker,
		Name:          ticker + " Inc",
		Quantity:      dec(quantity),
		PurchasePrice: dec(price),
		CurrentPrice:  dec(price),
		PurchaseDate:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Stocks().Create(context.Background(), h))
	return *h
}

func seedPortfolio(t *testing.T, store repositories.Store, name string) models.Portfolio {
	t.Helper()
	p := &models.Portfolio{Name: name}
	require.NoError(t, store.Portfolios().Create(context.Background(), p))
	return *p
}

func addReq(portfolioID int, assetType models.AssetType, assetID int, quantity string) *schemas.CreateAllocationRequest {
	return &schemas.CreateAllocationRequest{
		PortfolioID: intPtr(portfolioID),
		AssetType:   string(assetType),
		AssetID:     intPtr(assetID),
		Quantity:    decPtr(quantity),
	}
}

func owned(t *testing.T, store repositories.Store, assetType models.AssetType, id int) decimal.Decimal {
	t.Helper()
	pool, err := repositories.Pool(store, assetType)
	require.NoError(t, err)
	q, err := pool.LockQuantity(context.Background(), id)
	require.NoError(t, err)
	return q
}
