package handlers

import (
	"fmt"
	"net/http"
	"time"

	"assetfolio/src/schemas"
	"assetfolio/src/utils"
)

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Reports.Summary(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetBankDistribution(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Reports.BankDistribution(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetStockDistribution(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Reports.StockDistribution(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetStockHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res, err := h.Reports.StockHistory(ctx, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

// GetStockPrice answers ?ticker=&date= with the price recorded that day, or a
// null price when there is none.
func (h *Handler) GetStockPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	ticker, rawDate := r.URL.Query().Get("ticker"), r.URL.Query().Get("date")
	if ticker == "" || rawDate == "" {
		h.HandleErrors(w, r, utils.BadRequest("ticker and date are required"))
		return
	}
	date, err := time.Parse(schemas.DateLayout, rawDate)
	if err != nil {
		h.HandleErrors(w, r, utils.BadRequest(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", rawDate)))
		return
	}
	res, err := h.Reports.StockPrice(ctx, ticker, date)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetPortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res, err := h.Reports.PortfolioPerformance(ctx, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetPortfolioBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := urlID(r, "id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	res, err := h.Reports.PortfolioBreakdown(ctx, id)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

// GetDistributionFile streams the bank and stock distribution as an Excel workbook.
func (h *Handler) GetDistributionFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	xlsxFile, err := h.Reports.GenerateXLSXReport(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	defer xlsxFile.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=distribution.xlsx")
	if err := xlsxFile.Write(w); err != nil {
		// Headers are already out, so the failure can only be logged.
		utils.LoggerFromContext(r.Context()).WithError(err).Error("Failed to write xlsx report")
	}
}
