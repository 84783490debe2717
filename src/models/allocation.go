package models

import "github.com/shopspring/decimal"

// Allocation is a portfolio's claim on part of a holding.
type Allocation struct {
	ID          int             `db:"id"`
	PortfolioID int             `db:"portfolio_id"`
	AssetType   AssetType       `db:"asset_type"`
	AssetID     int             `db:"asset_id"`
	Quantity    decimal.Decimal `db:"quantity"`
}
