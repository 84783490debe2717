package schemas

import (
	"time"

	"assetfolio/src/models"

	"github.com/shopspring/decimal"
)

type CashHoldingRequest struct {
	BankName     string           `json:"bank_name"`
	CurrencyCode string           `json:"currency_code"`
	CashAmount   *decimal.Decimal `json:"cash_amount"`
	Notes        string           `json:"notes"`
}

type CashHoldingResponse struct {
	ID           int             `json:"id"`
	BankName     string          `json:"bank_name"`
	CurrencyCode string          `json:"currency_code"`
	CashAmount   decimal.Decimal `json:"cash_amount"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewCashHoldingResponse(h *models.CashHolding) *CashHoldingResponse {
	return &CashHoldingResponse{
		ID:           h.ID,
		BankName:     h.BankName,
		CurrencyCode: h.CurrencyCode,
		CashAmount:   h.CashAmount,
		Notes:        h.Notes,
		CreatedAt:    h.CreatedAt,
	}
}

type StockHoldingRequest struct {
	Ticker        string           `json:"ticker"`
	Name          string           `json:"name"`
	Quantity      *decimal.Decimal `json:"quantity"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	CurrentPrice  *decimal.Decimal `json:"current_price"`
	PurchaseDate  *Date            `json:"purchase_date"`
}

type StockHoldingResponse struct {
	ID            int             `json:"id"`
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PurchaseDate  Date            `json:"purchase_date"`
}

func NewStockHoldingResponse(h *models.StockHolding) *StockHoldingResponse {
	return &StockHoldingResponse{
		ID:            h.ID,
		Ticker:        h.Ticker,
		Name:          h.Name,
		Quantity:      h.Quantity,
		PurchasePrice: h.PurchasePrice,
		CurrentPrice:  h.CurrentPrice,
		PurchaseDate:  Date{h.PurchaseDate},
	}
}

type RecordPriceRequest struct {
	Price *decimal.Decimal `json:"price"`
	Date  *Date            `json:"date"`
}
