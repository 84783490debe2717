package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockPrice struct {
	ID           int             `db:"id"`
	StockID      int             `db:"stock_id"`
	RecordDate   time.Time       `db:"record_date"`
	CurrentPrice decimal.Decimal `db:"current_price"`
}
