package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"assetfolio/src/models"
	"assetfolio/src/services"
	"assetfolio/src/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Holdings       services.HoldingServiceI
	Allocations    services.AllocationServiceI
	Portfolios     services.PortfolioServiceI
	Reports        services.ReportServiceI
	History        services.HistoryServiceI
	RequestTimeout time.Duration
}

func NewHandler(
	holdings services.HoldingServiceI,
	allocations services.AllocationServiceI,
	portfolios services.PortfolioServiceI,
	reports services.ReportServiceI,
	history services.HistoryServiceI,
	requestTimeout time.Duration,
) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &Handler{
		Holdings:       holdings,
		Allocations:    allocations,
		Portfolios:     portfolios,
		Reports:        reports,
		History:        history,
		RequestTimeout: requestTimeout,
	}
}

func Healthcheck(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Im alive!")
}

// requestContext bounds a request by the configured timeout.
func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.RequestTimeout)
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// HandleErrors writes the one JSON error response for err. Unclassified errors
// are store failures: they are logged and the caller only sees a generic message.
func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var (
		httpErr     *utils.HTTPError
		capacityErr *services.CapacityError
		conflictErr *services.ConflictError
	)
	logger := utils.LoggerFromContext(r.Context())

	switch {
	case errors.As(err, &httpErr):
		err = httpErr
	case errors.As(err, &capacityErr):
		err = utils.WithDetails(http.StatusBadRequest, capacityErr.Error(), map[string]any{
			"total_owned":    capacityErr.TotalOwned,
			"used_elsewhere": capacityErr.UsedElsewhere,
			"requested":      capacityErr.Requested,
			"available":      capacityErr.Available(),
		})
	case errors.As(err, &conflictErr):
		err = utils.WithDetails(http.StatusConflict, "Holding is allocated to portfolios", map[string]any{
			"portfolios": conflictErr.Portfolios,
		})
	case errors.Is(err, services.ErrInvalidArgument):
		err = utils.BadRequest(err.Error())
	case errors.Is(err, services.ErrNotFound):
		err = utils.NotFound(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.WithError(err).Warn("Request timed out")
		err = utils.GatewayTimeout("Request timed out")
	default:
		logger.WithError(err).Error("Request failed")
		err = utils.InternalServerError("Internal Server Error")
	}
	utils.WriteError(w, err)
}

// decode reads a JSON body into dst. Unknown fields are ignored.
func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return utils.BadRequest("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.BadRequest("invalid request body: " + err.Error())
	}
	return nil
}

func urlID(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, utils.BadRequest(fmt.Sprintf("invalid %s %q", param, raw))
	}
	return id, nil
}

func urlAssetType(r *http.Request) (models.AssetType, error) {
	t := models.AssetType(chi.URLParam(r, "assetType"))
	if !t.Valid() {
		return "", utils.BadRequest(fmt.Sprintf("asset_type must be one of cash, stock, got %q", t))
	}
	return t, nil
}
