package handlers

import (
	"fmt"
	"net/http"

	"assetfolio/src/schemas"
)

func (h *Handler) GetAllPortfolios(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	portfolios, err := h.Portfolios.ListPortfolios(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res := make([]*schemas.PortfolioResponse, 0, len(portfolios))
	for i := range portfolios {
		res = append(res, schemas.NewPortfolioResponse(&portfolios[i]))
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req schemas.PortfolioRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	portfolio, err := h.Portfolios.CreatePortfolio(ctx, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.NewPortfolioResponse(portfolio), http.StatusCreated)
}

func (h *Handler) RenamePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	var req schemas.PortfolioRequest
	if err := decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	portfolio, err := h.Portfolios.RenamePortfolio(ctx, id, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.NewPortfolioResponse(portfolio), http.StatusOK)
}

// DeletePortfolio drops the portfolio and its allocations without crediting
// anything back to the holdings.
func (h *Handler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if _, err := h.Portfolios.DeletePortfolio(ctx, id); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.DeletePortfolioResponse{Message: "Portfolio deleted"}, http.StatusOK)
}

// DeletePortfolioReturnToPool credits every allocation back to its holding
// before dropping the portfolio.
func (h *Handler) DeletePortfolioReturnToPool(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	returned, err := h.Portfolios.DeletePortfolioReturnToPool(ctx, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, schemas.DeletePortfolioResponse{
		Message:        fmt.Sprintf("Portfolio deleted, %d assets returned to the pool", returned),
		ReturnedAssets: &returned,
	}, http.StatusOK)
}

func (h *Handler) GetPortfolioAssets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	assets, err := h.Portfolios.PortfolioAssets(ctx, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if assets == nil {
		assets = []schemas.PortfolioAssetResponse{}
	}
	h.respond(w, r, assets, http.StatusOK)
}
