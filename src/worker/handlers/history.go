package handlers

import (
	"context"
	"net/http"
)

// SnapshotPrices runs the daily price snapshot on demand.
func (h *Handler) SnapshotPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	count, err := h.History.SnapshotPrices(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, map[string]int{"recorded": count}, http.StatusOK)
}
