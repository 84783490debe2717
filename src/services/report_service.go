package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"assetfolio/src/models"
	"assetfolio/src/repositories"
	"assetfolio/src/schemas"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

type ReportServiceI interface {
	Summary(ctx context.Context) (*schemas.SummaryResponse, error)
	BankDistribution(ctx context.Context) ([]schemas.BankDistributionItem, error)
	StockDistribution(ctx context.Context) ([]schemas.StockDistributionItem, error)
	PortfolioBreakdown(ctx context.Context, portfolioID int) (*schemas.PortfolioBreakdownResponse, error)
	PortfolioPerformance(ctx context.Context, portfolioID int) (*schemas.PerformanceResponse, error)
	StockHistory(ctx context.Context, stockID int) (*schemas.StockHistoryResponse, error)
	StockPrice(ctx context.Context, ticker string, date time.Time) (*schemas.StockPriceResponse, error)
	GenerateXLSXReport(ctx context.Context) (*excelize.File, error)
}

// ReportService builds read-only views over holdings and allocations. Reads run
// outside transactions and may observe concurrent writes.
type ReportService struct {
	store    repositories.Store
	cache    ReportCache
	cacheTTL time.Duration
}

// NewReportService caches whole-book reports for cacheTTL when cache is set and cacheTTL > 0.
func NewReportService(store repositories.Store, cache ReportCache, cacheTTL time.Duration) *ReportService {
	return &ReportService{store: store, cache: cache, cacheTTL: cacheTTL}
}

var hundred = decimal.NewFromInt(100)

func percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}

// snapshot is everything the whole-book reports need, loaded concurrently.
type snapshot struct {
	cash        []models.CashHolding
	stocks      []models.StockHolding
	allocations []models.Allocation
	portfolios  []models.Portfolio
}

func (s *ReportService) loadSnapshot(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.cash, err = s.store.Cash().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.stocks, err = s.store.Stocks().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.allocations, err = s.store.Allocations().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.portfolios, err = s.store.Portfolios().List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

type holdingKey struct {
	assetType models.AssetType
	assetID   int
}

func (snap *snapshot) allocatedByHolding() map[holdingKey]decimal.Decimal {
	out := make(map[holdingKey]decimal.Decimal, len(snap.allocations))
	for _, a := range snap.allocations {
		k := holdingKey{a.AssetType, a.AssetID}
		out[k] = out[k].Add(a.Quantity)
	}
	return out
}

func (s *ReportService) Summary(ctx context.Context) (*schemas.SummaryResponse, error) {
	return cached(ctx, s.cache, s.cacheTTL, reportKey(summaryReport), func() (*schemas.SummaryResponse, error) {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		allocated := snap.allocatedByHolding()

		res := &schemas.SummaryResponse{
			TotalCash:           decimal.Zero,
			AllocatedCash:       decimal.Zero,
			TotalStockValue:     decimal.Zero,
			TotalStockCost:      decimal.Zero,
			AllocatedStockValue: decimal.Zero,
			CashHoldings:        len(snap.cash),
			StockHoldings:       len(snap.stocks),
			Portfolios:          len(snap.portfolios),
		}
		for _, h := range snap.cash {
			res.TotalCash = res.TotalCash.Add(h.CashAmount)
			res.AllocatedCash = res.AllocatedCash.Add(allocated[holdingKey{models.AssetTypeCash, h.ID}])
		}
		for _, h := range snap.stocks {
			res.TotalStockValue = res.TotalStockValue.Add(h.MarketValue())
			res.TotalStockCost = res.TotalStockCost.Add(h.CostBasis())
			shares := allocated[holdingKey{models.AssetTypeStock, h.ID}]
			res.AllocatedStockValue = res.AllocatedStockValue.Add(shares.Mul(h.CurrentPrice))
		}
		return res, nil
	})
}

// formatAmount renders amount in the holding's currency, e.g. "$1,234.50".
func formatAmount(amount decimal.Decimal, code string) string {
	currency := money.GetCurrency(code)
	if currency == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(minor, currency.Code).Display()
}

// BankDistribution reports each cash holding with its share of the cash held in
// the same currency.
func (s *ReportService) BankDistribution(ctx context.Context) ([]schemas.BankDistributionItem, error) {
	return cached(ctx, s.cache, s.cacheTTL, reportKey(bankDistributionReport), func() ([]schemas.BankDistributionItem, error) {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		allocated := snap.allocatedByHolding()

		totals := map[string]decimal.Decimal{}
		for _, h := range snap.cash {
			totals[h.CurrencyCode] = totals[h.CurrencyCode].Add(h.CashAmount)
		}

		items := make([]schemas.BankDistributionItem, 0, len(snap.cash))
		for _, h := range snap.cash {
			used := allocated[holdingKey{models.AssetTypeCash, h.ID}]
			items = append(items, schemas.BankDistributionItem{
				HoldingID:       h.ID,
				BankName:        h.BankName,
				CurrencyCode:    h.CurrencyCode,
				TotalAmount:     h.CashAmount,
				AllocatedAmount: used,
				AvailableAmount: h.CashAmount.Sub(used),
				Percentage:      percentage(h.CashAmount, totals[h.CurrencyCode]),
				Display:         formatAmount(h.CashAmount, h.CurrencyCode),
			})
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].TotalAmount.GreaterThan(items[j].TotalAmount) })
		return items, nil
	})
}

// StockDistribution groups lots by ticker. Amounts are share counts, percentage
// is the ticker's share of total market value.
func (s *ReportService) StockDistribution(ctx context.Context) ([]schemas.StockDistributionItem, error) {
	return cached(ctx, s.cache, s.cacheTTL, reportKey(stockDistributionReport), func() ([]schemas.StockDistributionItem, error) {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		allocated := snap.allocatedByHolding()

		byTicker := map[string]*schemas.StockDistributionItem{}
		totalValue := decimal.Zero
		for _, h := range snap.stocks {
			item, ok := byTicker[h.Ticker]
			if !ok {
				item = &schemas.StockDistributionItem{
					Ticker:          h.Ticker,
					Name:            h.Name,
					TotalAmount:     decimal.Zero,
					AllocatedAmount: decimal.Zero,
					MarketValue:     decimal.Zero,
				}
				byTicker[h.Ticker] = item
			}
			item.Lots++
			item.TotalAmount = item.TotalAmount.Add(h.Quantity)
			item.AllocatedAmount = item.AllocatedAmount.Add(allocated[holdingKey{models.AssetTypeStock, h.ID}])
			item.MarketValue = item.MarketValue.Add(h.MarketValue())
			totalValue = totalValue.Add(h.MarketValue())
		}

		items := make([]schemas.StockDistributionItem, 0, len(byTicker))
		for _, item := range byTicker {
			item.AvailableAmount = item.TotalAmount.Sub(item.AllocatedAmount)
			item.Percentage = percentage(item.MarketValue, totalValue)
			items = append(items, *item)
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Ticker < items[j].Ticker })
		return items, nil
	})
}

// portfolioHoldings loads the portfolio's allocations and the holdings they point at.
func (s *ReportService) portfolioHoldings(ctx context.Context, portfolioID int) ([]models.Allocation, map[int]models.CashHolding, map[int]models.StockHolding, error) {
	if _, err := s.store.Portfolios().GetByID(ctx, portfolioID); err != nil {
		return nil, nil, nil, translateNotFound(err, "portfolio", portfolioID)
	}

	var (
		allocations []models.Allocation
		cash        []models.CashHolding
		stocks      []models.StockHolding
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		allocations, err = s.store.Allocations().ListByPortfolio(gctx, portfolioID)
		return err
	})
	g.Go(func() (err error) {
		cash, err = s.store.Cash().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		stocks, err = s.store.Stocks().List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	cashByID := make(map[int]models.CashHolding, len(cash))
	for _, h := range cash {
		cashByID[h.ID] = h
	}
	stocksByID := make(map[int]models.StockHolding, len(stocks))
	for _, h := range stocks {
		stocksByID[h.ID] = h
	}
	return allocations, cashByID, stocksByID, nil
}

// PortfolioBreakdown splits the portfolio's value between cash and stock.
// Stock is valued at current price.
func (s *ReportService) PortfolioBreakdown(ctx context.Context, portfolioID int) (*schemas.PortfolioBreakdownResponse, error) {
	allocations, _, stocks, err := s.portfolioHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	cashValue, stockValue := decimal.Zero, decimal.Zero
	for _, a := range allocations {
		switch a.AssetType {
		case models.AssetTypeCash:
			cashValue = cashValue.Add(a.Quantity)
		case models.AssetTypeStock:
			if h, ok := stocks[a.AssetID]; ok {
				stockValue = stockValue.Add(a.Quantity.Mul(h.CurrentPrice))
			}
		}
	}
	total := cashValue.Add(stockValue)
	return &schemas.PortfolioBreakdownResponse{
		PortfolioID: portfolioID,
		Cash:        schemas.ValueShare{Value: cashValue, Percentage: percentage(cashValue, total)},
		Stock:       schemas.ValueShare{Value: stockValue, Percentage: percentage(stockValue, total)},
		Total:       total,
	}, nil
}

// PortfolioPerformance follows each stock allocation from its purchase date,
// reporting profit on the allocated shares at every recorded price.
func (s *ReportService) PortfolioPerformance(ctx context.Context, portfolioID int) (*schemas.PerformanceResponse, error) {
	allocations, cash, stocks, err := s.portfolioHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	res := &schemas.PerformanceResponse{
		PortfolioID: portfolioID,
		StockAssets: []schemas.StockPerformance{},
		CashAssets:  []schemas.CashPerformance{},
	}
	for _, a := range allocations {
		switch a.AssetType {
		case models.AssetTypeCash:
			if h, ok := cash[a.AssetID]; ok {
				res.CashAssets = append(res.CashAssets, schemas.CashPerformance{
					HoldingID:  h.ID,
					BankName:   h.BankName,
					CashAmount: a.Quantity,
				})
			}
		case models.AssetTypeStock:
			if h, ok := stocks[a.AssetID]; ok {
				res.StockAssets = append(res.StockAssets, schemas.StockPerformance{
					StockAssetID:  h.ID,
					Ticker:        h.Ticker,
					Quantity:      a.Quantity,
					PurchasePrice: h.PurchasePrice,
					PurchaseDate:  schemas.Date{Time: h.PurchaseDate},
				})
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range res.StockAssets {
		perf := &res.StockAssets[i]
		g.Go(func() error {
			prices, err := s.store.History().ListByStock(gctx, perf.StockAssetID, perf.PurchaseDate.Time)
			if err != nil {
				return err
			}
			perf.History = make([]schemas.PerformancePoint, 0, len(prices))
			for _, p := range prices {
				perf.History = append(perf.History, schemas.PerformancePoint{
					Date:   schemas.Date{Time: p.RecordDate},
					Price:  p.CurrentPrice,
					Profit: p.CurrentPrice.Sub(perf.PurchasePrice).Mul(perf.Quantity),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch {
	case len(res.StockAssets) == 0 && len(res.CashAssets) == 0:
		res.Message = "Portfolio has no assets"
	case len(res.StockAssets) == 0:
		res.Message = "Portfolio holds only cash"
	default:
		res.Message = fmt.Sprintf("Performance of %d stock positions", len(res.StockAssets))
	}
	return res, nil
}

// StockHistory returns the lot's recorded prices with the change against the
// previous point, in percent.
func (s *ReportService) StockHistory(ctx context.Context, stockID int) (*schemas.StockHistoryResponse, error) {
	stock, err := s.store.Stocks().GetByID(ctx, stockID)
	if err != nil {
		return nil, translateNotFound(err, "stock holding", stockID)
	}
	prices, err := s.store.History().ListByStock(ctx, stockID, time.Time{})
	if err != nil {
		return nil, err
	}

	res := &schemas.StockHistoryResponse{
		StockID: stock.ID,
		Ticker:  stock.Ticker,
		Points:  make([]schemas.HistoryPoint, 0, len(prices)),
	}
	for i, p := range prices {
		point := schemas.HistoryPoint{Date: schemas.Date{Time: p.RecordDate}, Price: p.CurrentPrice}
		if i > 0 && !prices[i-1].CurrentPrice.IsZero() {
			change := percentage(p.CurrentPrice.Sub(prices[i-1].CurrentPrice), prices[i-1].CurrentPrice)
			point.ChangePct = &change
		}
		res.Points = append(res.Points, point)
	}
	return res, nil
}

// StockPrice looks up the price recorded for ticker on date, taken from the
// oldest lot with a history row for that day.
func (s *ReportService) StockPrice(ctx context.Context, ticker string, date time.Time) (*schemas.StockPriceResponse, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, invalidArgument("ticker is required")
	}
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	res := &schemas.StockPriceResponse{Ticker: ticker, Date: schemas.Date{Time: day}}

	lots, err := s.store.Stocks().ListByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	for _, lot := range lots {
		prices, err := s.store.History().ListByStock(ctx, lot.ID, day)
		if err != nil {
			return nil, err
		}
		if len(prices) > 0 && prices[0].RecordDate.Format(schemas.DateLayout) == day.Format(schemas.DateLayout) {
			price := prices[0].CurrentPrice
			res.Price = &price
			break
		}
	}
	return res, nil
}

// GenerateXLSXReport writes the bank and stock distributions to a workbook with
// one sheet each.
func (s *ReportService) GenerateXLSXReport(ctx context.Context) (*excelize.File, error) {
	var (
		banks  []schemas.BankDistributionItem
		stocks []schemas.StockDistributionItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		banks, err = s.BankDistribution(gctx)
		return err
	})
	g.Go(func() (err error) {
		stocks, err = s.StockDistribution(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Banks"); err != nil {
		return nil, err
	}
	bankRows := [][]interface{}{{"Bank", "Currency", "Total", "Allocated", "Available", "Percentage"}}
	for _, b := range banks {
		bankRows = append(bankRows, []interface{}{
			b.BankName, b.CurrencyCode,
			b.TotalAmount.InexactFloat64(), b.AllocatedAmount.InexactFloat64(),
			b.AvailableAmount.InexactFloat64(), b.Percentage.InexactFloat64(),
		})
	}
	if err := writeSheet(f, "Banks", bankRows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Stocks"); err != nil {
		return nil, err
	}
	stockRows := [][]interface{}{{"Ticker", "Name", "Lots", "Shares", "Allocated", "Available", "Market value", "Percentage"}}
	for _, st := range stocks {
		stockRows = append(stockRows, []interface{}{
			st.Ticker, st.Name, st.Lots,
			st.TotalAmount.InexactFloat64(), st.AllocatedAmount.InexactFloat64(),
			st.AvailableAmount.InexactFloat64(), st.MarketValue.InexactFloat64(),
			st.Percentage.InexactFloat64(),
		})
	}
	if err := writeSheet(f, "Stocks", stockRows); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6E6"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 16)
}
