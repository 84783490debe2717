package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"assetfolio/src/services"
	"assetfolio/src/utils"
)

// Handler serves the worker's manual triggers for the scheduled jobs.
type Handler struct {
	History services.HistoryServiceI
	Timeout time.Duration
}

func NewHandler(history services.HistoryServiceI, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Handler{History: history, Timeout: timeout}
}

func Healthcheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		fmt.Fprintf(w, "Im alive!")
	} else {
		fmt.Fprintf(w, "Method not available: %s", r.Method)
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *utils.HTTPError
	if errors.Is(err, context.DeadlineExceeded) {
		err = utils.GatewayTimeout("Request timed out")
	} else if errors.As(err, &httpErr) {
		err = httpErr
	} else {
		utils.LoggerFromContext(r.Context()).WithError(err).Error("Worker request failed")
		err = utils.InternalServerError("Internal Server Error")
	}
	utils.WriteError(w, err)
}
