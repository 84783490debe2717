package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetTypeCash  AssetType = "cash"
	AssetTypeStock AssetType = "stock"
)

func (t AssetType) Valid() bool {
	return t == AssetTypeCash || t == AssetTypeStock
}

// CashHolding is the cash balance held at one bank.
type CashHolding struct {
	ID           int             `db:"id"`
	BankName     string          `db:"bank_name"`
	CurrencyCode string          `db:"currency_code"`
	CashAmount   decimal.Decimal `db:"cash_amount"`
	Notes        string          `db:"notes"`
	CreatedAt    time.Time       `db:"created_at"`
}

// StockHolding is a single purchase lot of a ticker.
type StockHolding struct {
	ID            int             `db:"id"`
	Ticker        string          `db:"ticker"`
	Name          string          `db:"name"`
	Quantity      decimal.Decimal `db:"quantity"`
	PurchasePrice decimal.Decimal `db:"purchase_price"`
	CurrentPrice  decimal.Decimal `db:"current_price"`
	PurchaseDate  time.Time       `db:"purchase_date"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (s StockHolding) MarketValue() decimal.Decimal {
	return s.Quantity.Mul(s.CurrentPrice)
}

func (s StockHolding) CostBasis() decimal.Decimal {
	return s.Quantity.Mul(s.PurchasePrice)
}
