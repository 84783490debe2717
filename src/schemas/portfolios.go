package schemas

import (
	"time"

	"assetfolio/src/models"

	"github.com/shopspring/decimal"
)

type PortfolioRequest struct {
	Name string `json:"name"`
}

type PortfolioResponse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPortfolioResponse(p *models.Portfolio) *PortfolioResponse {
	return &PortfolioResponse{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}
}

type DeletePortfolioResponse struct {
	Message        string `json:"message"`
	ReturnedAssets *int   `json:"returned_assets,omitempty"`
}

// PortfolioAssetResponse is one allocation together with the holding it claims.
type PortfolioAssetResponse struct {
	ID          int                   `json:"id"`
	PortfolioID int                   `json:"portfolio_id"`
	AssetType   models.AssetType      `json:"asset_type"`
	AssetID     int                   `json:"asset_id"`
	Quantity    decimal.Decimal       `json:"quantity"`
	Cash        *CashHoldingResponse  `json:"cash,omitempty"`
	Stock       *StockHoldingResponse `json:"stock,omitempty"`
}
