package services

import (
	"context"
	"testing"
	"time"

	"assetfolio/src/models"
	"assetfolio/src/repositories"
	"assetfolio/src/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	store  *repositories.MemoryStore
	chase  models.CashHolding
	citi   models.CashHolding
	aapl1  models.StockHolding
	aapl2  models.StockHolding
	msft   models.StockHolding
	growth models.Portfolio
	cash   models.Portfolio
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	ctx := context.Background()
	f := &reportFixture{store: repositories.NewMemoryStore()}
	f.chase = seedCash(t, f.store, "Chase", "3000")
	f.citi = seedCash(t, f.store, "Citi", "1000")
	f.aapl1 = seedStock(t, f.store, "AAPL", "10", "100")
	f.aapl2 = seedStock(t, f.store, "AAPL", "10", "100")
	f.msft = seedStock(t, f.store, "MSFT", "5", "200")
	f.growth = seedPortfolio(t, f.store, "Growth")
	f.cash = seedPortfolio(t, f.store, "Cash only")

	require.NoError(t, f.store.Stocks().SetCurrentPrice(ctx, f.aapl1.ID, dec("150")))
	require.NoError(t, f.store.Stocks().SetCurrentPrice(ctx, f.aapl2.ID, dec("150")))

	alloc := NewAllocationService(f.store, nil)
	for _, req := range []struct {
		p  int
		t  models.AssetType
		id int
		q  string
	}{
		{f.growth.ID, models.AssetTypeStock, f.aapl1.ID, "4"},
		{f.growth.ID, models.AssetTypeCash, f.chase.ID, "400"},
		{f.cash.ID, models.AssetTypeCash, f.citi.ID, "250"},
	} {
		_, err := alloc.AddAllocation(ctx, addReq(req.p, req.t, req.id, req.q))
		require.NoError(t, err)
	}
	return f
}

func TestSummary(t *testing.T) {
	f := newReportFixture(t)
	svc := NewReportService(f.store, nil, 0)

	res, err := svc.Summary(context.Background())
	require.NoError(t, err)
	requireDec(t, "4000", res.TotalCash)
	requireDec(t, "650", res.AllocatedCash)
	requireDec(t, "4000", res.TotalStockValue, "20 AAPL at 150 + 5 MSFT at 200")
	requireDec(t, "3000", res.TotalStockCost)
	requireDec(t, "600", res.AllocatedStockValue)
	assert.Equal(t, 2, res.CashHoldings)
	assert.Equal(t, 3, res.StockHoldings)
	assert.Equal(t, 2, res.Portfolios)
}

func TestBankDistribution(t *testing.T) {
	f := newReportFixture(t)
	svc := NewReportService(f.store, nil, 0)

	items, err := svc.BankDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	chase := items[0]
	assert.Equal(t, "Chase", chase.BankName)
	requireDec(t, "3000", chase.TotalAmount)
	requireDec(t, "400", chase.AllocatedAmount)
	requireDec(t, "2600", chase.AvailableAmount)
	requireDec(t, "75", chase.Percentage)
	assert.Equal(t, "$3,000.00", chase.Display)

	citi := items[1]
	requireDec(t, "750", citi.AvailableAmount)
	requireDec(t, "25", citi.Percentage)
}

func TestStockDistribution(t *testing.T) {
	f := newReportFixture(t)
	svc := NewReportService(f.store, nil, 0)

	items, err := svc.StockDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	aapl := items[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.Equal(t, 2, aapl.Lots)
	requireDec(t, "20", aapl.TotalAmount)
	requireDec(t, "4", aapl.AllocatedAmount)
	requireDec(t, "16", aapl.AvailableAmount)
	requireDec(t, "3000", aapl.MarketValue)
	requireDec(t, "75", aapl.Percentage)

	assert.Equal(t, "MSFT", items[1].Ticker)
	requireDec(t, "25", items[1].Percentage)
}

func TestPortfolioBreakdown(t *testing.T) {
	f := newReportFixture(t)
	svc := NewReportService(f.store, nil, 0)

	res, err := svc.PortfolioBreakdown(context.Background(), f.growth.ID)
	require.NoError(t, err)
	requireDec(t, "400", res.Cash.Value)
	requireDec(t, "600", res.Stock.Value)
	requireDec(t, "1000", res.Total)
	requireDec(t, "40", res.Cash.Percentage)
	requireDec(t, "60", res.Stock.Percentage)

	empty := seedPortfolio(t, f.store, "Empty")
	res, err = svc.PortfolioBreakdown(context.Background(), empty.ID)
	require.NoError(t, err)
	requireDec(t, "0", res.Total)
	requireDec(t, "0", res.Cash.Percentage)

	_, err = svc.PortfolioBreakdown(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockHistoryChange(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	svc := NewReportService(f.store, nil, 0)

	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, f.store.History().Upsert(ctx, f.msft.ID, day(3), dec("110")))
	require.NoError(t, f.store.History().Upsert(ctx, f.msft.ID, day(1), dec("100")))
	require.NoError(t, f.store.History().Upsert(ctx, f.msft.ID, day(2), dec("0")))
	require.NoError(t, f.store.History().Upsert(ctx, f.msft.ID, day(2), dec("120")))

	res, err := svc.StockHistory(ctx, f.msft.ID)
	require.NoError(t, err)
	assert.Equal(t, "MSFT", res.Ticker)
	require.Len(t, res.Points, 3, "upsert keeps one point per day")

	assert.Nil(t, res.Points[0].ChangePct)
	require.NotNil(t, res.Points[1].ChangePct)
	requireDec(t, "20", *res.Points[1].ChangePct)
	requireDec(t, "-8.33", *res.Points[2].ChangePct)

	_, err = svc.StockHistory(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockPrice(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	svc := NewReportService(f.store, nil, 0)

	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.store.History().Upsert(ctx, f.aapl2.ID, day, dec("175.5")))
	require.NoError(t, f.store.History().Upsert(ctx, f.aapl1.ID, day.AddDate(0, 0, 1), dec("180")))

	res, err := svc.StockPrice(ctx, " aapl ", day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Ticker)
	assert.Equal(t, "2024-06-03", res.Date.Format(schemas.DateLayout))
	require.NotNil(t, res.Price)
	requireDec(t, "175.5", *res.Price)

	res, err = svc.StockPrice(ctx, "AAPL", day.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Nil(t, res.Price, "a later row does not answer an earlier day")

	res, err = svc.StockPrice(ctx, "TSLA", day)
	require.NoError(t, err)
	assert.Nil(t, res.Price)

	_, err = svc.StockPrice(ctx, " ", day)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPortfolioPerformance(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	svc := NewReportService(f.store, nil, 0)

	// Before the purchase date, must be left out.
	require.NoError(t, f.store.History().Upsert(ctx, f.aapl1.ID, time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), dec("90")))
	require.NoError(t, f.store.History().Upsert(ctx, f.aapl1.ID, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), dec("100")))
	require.NoError(t, f.store.History().Upsert(ctx, f.aapl1.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), dec("125")))

	res, err := svc.PortfolioPerformance(ctx, f.growth.ID)
	require.NoError(t, err)
	require.Len(t, res.StockAssets, 1)
	require.Len(t, res.CashAssets, 1)

	perf := res.StockAssets[0]
	requireDec(t, "4", perf.Quantity)
	require.Len(t, perf.History, 2)
	requireDec(t, "0", perf.History[0].Profit)
	requireDec(t, "100", perf.History[1].Profit, "(125 - 100) * 4")

	cashOnly, err := svc.PortfolioPerformance(ctx, f.cash.ID)
	require.NoError(t, err)
	assert.Empty(t, cashOnly.StockAssets)
	assert.Equal(t, "Portfolio holds only cash", cashOnly.Message)
	requireDec(t, "250", cashOnly.CashAssets[0].CashAmount)
}

type countingCache struct {
	ReportCache
	invalidations int
}

func (c *countingCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	return c.ReportCache.Invalidate(ctx)
}

func TestReportCache(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)

	t.Run("cached within ttl", func(t *testing.T) {
		svc := NewReportService(f.store, NewMemoryReportCache(), time.Minute)
		first, err := svc.Summary(ctx)
		require.NoError(t, err)

		seedCash(t, f.store, "Wells", "1")
		second, err := svc.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.CashHoldings, second.CashHoldings)
		requireDec(t, first.TotalCash.String(), second.TotalCash)
	})

	t.Run("committed writes invalidate", func(t *testing.T) {
		cache := NewMemoryReportCache()
		svc := NewReportService(f.store, cache, time.Minute)
		alloc := NewAllocationService(f.store, cache)
		holdings := NewHoldingService(f.store, cache)

		before, err := svc.BankDistribution(ctx)
		require.NoError(t, err)
		requireDec(t, "400", before[0].AllocatedAmount)

		_, err = alloc.AddAllocation(ctx, addReq(f.cash.ID, models.AssetTypeCash, f.chase.ID, "100"))
		require.NoError(t, err)
		after, err := svc.BankDistribution(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Chase", after[0].BankName)
		requireDec(t, "500", after[0].AllocatedAmount)

		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		_, created, err := holdings.AddCash(ctx, &schemas.CashHoldingRequest{
			BankName: "Schwab", CurrencyCode: "USD", CashAmount: decPtr("5"),
		})
		require.NoError(t, err)
		require.True(t, created)
		refreshed, err := svc.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, summary.CashHoldings+1, refreshed.CashHoldings)
	})

	t.Run("rejected writes keep the cache", func(t *testing.T) {
		cache := &countingCache{ReportCache: NewMemoryReportCache()}
		alloc := NewAllocationService(f.store, cache)

		_, err := alloc.AddAllocation(ctx, addReq(f.cash.ID, models.AssetTypeCash, f.citi.ID, "999999"))
		require.Error(t, err)
		assert.Zero(t, cache.invalidations)

		_, err = alloc.AddAllocation(ctx, addReq(f.cash.ID, models.AssetTypeCash, f.citi.ID, "1"))
		require.NoError(t, err)
		assert.Equal(t, 1, cache.invalidations)
	})

	t.Run("no cache without ttl", func(t *testing.T) {
		svc := NewReportService(f.store, NewMemoryReportCache(), 0)
		before, err := svc.Summary(ctx)
		require.NoError(t, err)

		seedCash(t, f.store, "Ally", "1")
		after, err := svc.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.CashHoldings+1, after.CashHoldings)
	})
}

func TestGenerateXLSXReport(t *testing.T) {
	f := newReportFixture(t)
	svc := NewReportService(f.store, nil, 0)

	file, err := svc.GenerateXLSXReport(context.Background())
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Banks", "Stocks"}, file.GetSheetList())

	banks, err := file.GetRows("Banks")
	require.NoError(t, err)
	require.Len(t, banks, 3)
	assert.Equal(t, "Bank", banks[0][0])
	assert.Equal(t, "Chase", banks[1][0])
	assert.Equal(t, "3000", banks[1][2])

	stocks, err := file.GetRows("Stocks")
	require.NoError(t, err)
	require.Len(t, stocks, 3)
	assert.Equal(t, "AAPL", stocks[1][0])
	assert.Equal(t, "2", stocks[1][2])
}
