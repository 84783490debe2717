package schemas

import (
	"assetfolio/src/models"

	"github.com/shopspring/decimal"
)

// CreateAllocationRequest uses pointers so that missing fields can be told apart from zero values.
type CreateAllocationRequest struct {
	PortfolioID *int             `json:"portfolio_id"`
	AssetType   string           `json:"asset_type"`
	AssetID     *int             `json:"asset_id"`
	Quantity    *decimal.Decimal `json:"quantity"`
}

type UpdateAllocationRequest struct {
	Quantity *decimal.Decimal `json:"quantity"`
}

type AllocationResponse struct {
	ID          int              `json:"id"`
	PortfolioID int              `json:"portfolio_id"`
	AssetType   models.AssetType `json:"asset_type"`
	AssetID     int              `json:"asset_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
}

func NewAllocationResponse(a *models.Allocation) *AllocationResponse {
	return &AllocationResponse{
		ID:          a.ID,
		PortfolioID: a.PortfolioID,
		AssetType:   a.AssetType,
		AssetID:     a.AssetID,
		Quantity:    a.Quantity,
	}
}

type UpdateAllocationResponse struct {
	ID       int             `json:"id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type ReleaseAllocationResponse struct {
	Message          string          `json:"message"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity"`
	PortfolioID      int             `json:"portfolio_id"`
}

type ReleaseHoldingResponse struct {
	Message             string          `json:"message"`
	ReleasedAllocations int             `json:"released_allocations"`
	ReleasedQuantity    decimal.Decimal `json:"released_quantity"`
}

// AvailabilityResponse reports how much of a holding (or of every lot of a ticker) is unclaimed.
type AvailabilityResponse struct {
	AssetType  models.AssetType `json:"asset_type,omitempty"`
	AssetID    int              `json:"asset_id,omitempty"`
	Ticker     string           `json:"ticker,omitempty"`
	TotalOwned decimal.Decimal  `json:"total_owned"`
	Allocated  decimal.Decimal  `json:"allocated"`
	Available  decimal.Decimal  `json:"available"`
}
