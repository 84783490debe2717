package handlers

import (
	"net/http"
	"strconv"

	"assetfolio/src/schemas"
	"assetfolio/src/utils"
)

func (h *Handler) GetAllAllocations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var portfolioID *int
	if raw := r.URL.Query().Get("portfolio_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			h.HandleErrors(w, r, utils.BadRequest("invalid portfolio_id "+strconv.Quote(raw)))
			return
		}
		portfolioID = &id
	}

	allocations, err := h.Allocations.ListAllocations(ctx, portfolioID)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res := make([]*schemas.AllocationResponse, 0, len(allocations))
	for i := range allocations {
		res = append(res, schemas.NewAllocationResponse(&allocations[i]))
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req schemas.CreateAllocationRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	allocation, err := h.Allocations.AddAllocation(ctx, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.NewAllocationResponse(allocation), http.StatusCreated)
}

func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	var req schemas.UpdateAllocationRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	allocation, err := h.Allocations.UpdateAllocation(ctx, id, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.UpdateAllocationResponse{ID: allocation.ID, Quantity: allocation.Quantity}, http.StatusOK)
}

// ReleaseAllocation removes the claim only; the holding keeps its owned quantity.
func (h *Handler) ReleaseAllocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	released, err := h.Allocations.ReleaseAllocation(ctx, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.ReleaseAllocationResponse{
		Message:          "Allocation released",
		ReturnedQuantity: released.Quantity,
		PortfolioID:      released.PortfolioID,
	}, http.StatusOK)
}
