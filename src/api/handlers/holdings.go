package handlers

import (
	"net/http"

	"assetfolio/src/models"
	"assetfolio/src/schemas"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetAllCashAssets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	holdings, err := h.Holdings.ListCash(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res := make([]*schemas.CashHoldingResponse, 0, len(holdings))
	for i := range holdings {
		res = append(res, schemas.NewCashHoldingResponse(&holdings[i]))
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetCashAssetByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	holding, err := h.Holdings.GetCash(ctx, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.NewCashHoldingResponse(holding), http.StatusOK)
}

// CreateCashAsset answers 201 for a new bank and 200 with the existing record
// when the bank already has a cash holding.
func (h *Handler) CreateCashAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req schemas.CashHoldingRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	holding, created, err := h.Holdings.AddCash(ctx, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respond(w, r, schemas.NewCashHoldingResponse(holding), status)
}

func (h *Handler) UpdateCashAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	var req schemas.CashHoldingRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	holding, err := h.Holdings.UpdateCash(ctx, id, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.NewCashHoldingResponse(holding), http.StatusOK)
}

func (h *Handler) GetAllStockAssets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	holdings, err := h.Holdings.ListStocks(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res := make([]*schemas.StockHoldingResponse, 0, len(holdings))
	for i := range holdings {
		res = append(res, schemas.NewStockHoldingResponse(&holdings[i]))
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetStockAssetByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	holding, err := h.Holdings.GetStock(ctx, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.NewStockHoldingResponse(holding), http.StatusOK)
}

func (h *Handler) CreateStockAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req schemas.StockHoldingRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	holding, err := h.Holdings.AddStock(ctx, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.NewStockHoldingResponse(holding), http.StatusCreated)
}

// UpdateStockAsset answers 204 when the new quantity is zero and the lot was removed.
func (h *Handler) UpdateStockAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	var req schemas.StockHoldingRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	holding, removed, err := h.Holdings.UpdateStock(ctx, id, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if removed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respond(w, r, schemas.NewStockHoldingResponse(holding), http.StatusOK)
}

func (h *Handler) RecordStockPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	var req schemas.RecordPriceRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	holding, err := h.History.RecordPrice(ctx, id, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.NewStockHoldingResponse(holding), http.StatusOK)
}

// deleteHolding serves every delete route; the asset type comes from the route
// or from the {assetType} URL parameter.
func (h *Handler) deleteHolding(w http.ResponseWriter, r *http.Request, assetType models.AssetType) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if err := h.Holdings.DeleteHolding(ctx, assetType, id); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteCashAsset(w http.ResponseWriter, r *http.Request) {
	h.deleteHolding(w, r, models.AssetTypeCash)
}

func (h *Handler) DeleteStockAsset(w http.ResponseWriter, r *http.Request) {
	h.deleteHolding(w, r, models.AssetTypeStock)
}

func (h *Handler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	assetType, err := urlAssetType(r)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.deleteHolding(w, r, assetType)
}

func (h *Handler) GetHoldingAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	assetType, err := urlAssetType(r)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res, err := h.Allocations.Availability(ctx, assetType, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetAvailableShares(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Allocations.AvailabilityForTicker(ctx, chi.URLParam(r, "ticker"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

// ReleaseHoldingAllocations drops every claim on a holding that is being
// retired. The owned quantity is left as it is.
func (h *Handler) ReleaseHoldingAllocations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	assetType, err := urlAssetType(r)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res, err := h.Allocations.ReleaseHoldingAllocations(ctx, assetType, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}
