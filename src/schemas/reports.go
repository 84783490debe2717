package schemas

import "github.com/shopspring/decimal"

type SummaryResponse struct {
	TotalCash           decimal.Decimal `json:"total_cash"`
	AllocatedCash       decimal.Decimal `json:"allocated_cash"`
	TotalStockValue     decimal.Decimal `json:"total_stock_value"`
	TotalStockCost      decimal.Decimal `json:"total_stock_cost"`
	AllocatedStockValue decimal.Decimal `json:"allocated_stock_value"`
	CashHoldings        int             `json:"cash_holdings"`
	StockHoldings       int             `json:"stock_holdings"`
	Portfolios          int             `json:"portfolios"`
}

type BankDistributionItem struct {
	HoldingID       int             `json:"holding_id"`
	BankName        string          `json:"bank_name"`
	CurrencyCode    string          `json:"currency_code"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	Percentage      decimal.Decimal `json:"percentage"`
	Display         string          `json:"display"`
}

type StockDistributionItem struct {
	Ticker          string          `json:"ticker"`
	Name            string          `json:"name"`
	Lots            int             `json:"lots"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	MarketValue     decimal.Decimal `json:"market_value"`
	Percentage      decimal.Decimal `json:"percentage"`
}

type ValueShare struct {
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}

type PortfolioBreakdownResponse struct {
	PortfolioID int             `json:"portfolio_id"`
	Cash        ValueShare      `json:"cash"`
	Stock       ValueShare      `json:"stock"`
	Total       decimal.Decimal `json:"total"`
}

type HistoryPoint struct {
	Date      Date             `json:"date"`
	Price     decimal.Decimal  `json:"price"`
	ChangePct *decimal.Decimal `json:"change_pct"`
}

type StockHistoryResponse struct {
	StockID int            `json:"stock_id"`
	Ticker  string         `json:"ticker"`
	Points  []HistoryPoint `json:"points"`
}

// StockPriceResponse is the price recorded for a ticker on one day. Price is
// null when no lot of the ticker has a history row for that day.
type StockPriceResponse struct {
	Ticker string           `json:"ticker"`
	Date   Date             `json:"date"`
	Price  *decimal.Decimal `json:"price"`
}

type PerformancePoint struct {
	Date   Date            `json:"date"`
	Price  decimal.Decimal `json:"price"`
	Profit decimal.Decimal `json:"profit"`
}

type StockPerformance struct {
	StockAssetID  int                `json:"stock_asset_id"`
	Ticker        string             `json:"ticker"`
	Quantity      decimal.Decimal    `json:"quantity"`
	PurchasePrice decimal.Decimal    `json:"purchase_price"`
	PurchaseDate  Date               `json:"purchase_date"`
	History       []PerformancePoint `json:"history"`
}

type CashPerformance struct {
	HoldingID  int             `json:"holding_id"`
	BankName   string          `json:"bank_name"`
	CashAmount decimal.Decimal `json:"cash_amount"`
}

type PerformanceResponse struct {
	PortfolioID int                `json:"portfolio_id"`
	StockAssets []StockPerformance `json:"stock_assets"`
	CashAssets  []CashPerformance  `json:"cash_assets"`
	Message     string             `json:"message"`
}
