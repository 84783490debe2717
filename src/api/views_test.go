package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"assetfolio/src/api"
	"assetfolio/src/api/handlers"
	"assetfolio/src/models"
	"assetfolio/src/repositories"
	"assetfolio/src/services"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger *logrus.Logger

func TestMain(m *testing.M) {
	logger = logrus.New()
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, store repositories.Store) *httptest.Server {
	t.Helper()
	h := handlers.NewHandler(
		services.NewHoldingService(store, nil),
		services.NewAllocationService(store, nil),
		services.NewPortfolioService(store, nil),
		services.NewReportService(store, nil, 0),
		services.NewHistoryService(store, nil),
		0,
	)
	ts := httptest.NewServer(api.NewServer(h, logger, nil))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return res, out
}

func idOf(t *testing.T, body map[string]any) int {
	t.Helper()
	id, ok := body["id"].(float64)
	require.True(t, ok, "response has no id: %v", body)
	return int(id)
}

func TestHealthcheck(t *testing.T) {
	ts := newTestServer(t, repositories.NewMemoryStore())
	res, err := http.Get(ts.URL + "/alive")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestCashAssetDedup(t *testing.T) {
	ts := newTestServer(t, repositories.NewMemoryStore())
	payload := map[string]any{"bank_name": "Chase", "currency_code": "USD", "cash_amount": 1500}

	res, first := do(t, ts, http.MethodPost, "/api/cash-assets", payload)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, again := do(t, ts, http.MethodPost, "/api/cash-assets", payload)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, first["id"], again["id"])
	assert.EqualValues(t, 1500, again["cash_amount"])

	res, body := do(t, ts, http.MethodPost, "/api/cash-assets", map[string]any{"bank_name": "Citi"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestAllocationLifecycle(t *testing.T) {
	ts := newTestServer(t, repositories.NewMemoryStore())

	_, stock := do(t, ts, http.MethodPost, "/api/stock-assets", map[string]any{
		"ticker": "AAPL", "quantity": 100, "purchase_price": 150, "purchase_date": "2024-01-02",
	})
	stockID := idOf(t, stock)
	_, growth := do(t, ts, http.MethodPost, "/api/portfolios", map[string]any{"name": "Growth"})
	growthID := idOf(t, growth)
	_, value := do(t, ts, http.MethodPost, "/api/portfolios", map[string]any{"name": "Value"})
	valueID := idOf(t, value)

	res, alloc := do(t, ts, http.MethodPost, "/api/allocations", map[string]any{
		"portfolio_id": growthID, "asset_type": "stock", "asset_id": stockID, "quantity": 60,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	allocID := idOf(t, alloc)
	assert.Equal(t, "stock", alloc["asset_type"])
	assert.EqualValues(t, 60, alloc["quantity"])

	t.Run("capacity exceeded carries the numbers", func(t *testing.T) {
		res, body := do(t, ts, http.MethodPost, "/api/allocations", map[string]any{
			"portfolio_id": valueID, "asset_type": "stock", "asset_id": stockID, "quantity": 41,
		})
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.EqualValues(t, 100, body["total_owned"])
		assert.EqualValues(t, 60, body["used_elsewhere"])
		assert.EqualValues(t, 41, body["requested"])
		assert.EqualValues(t, 40, body["available"])
		assert.Contains(t, body["error"], "exceeds available 40")
	})

	t.Run("unknown portfolio", func(t *testing.T) {
		res, _ := do(t, ts, http.MethodPost, "/api/allocations", map[string]any{
			"portfolio_id": 9999, "asset_type": "stock", "asset_id": stockID, "quantity": 1,
		})
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("update quantity", func(t *testing.T) {
		res, body := do(t, ts, http.MethodPut, fmt.Sprintf("/api/allocations/%d", allocID), map[string]any{"quantity": 100})
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.EqualValues(t, allocID, body["id"])
		assert.EqualValues(t, 100, body["quantity"])

		res, _ = do(t, ts, http.MethodPut, fmt.Sprintf("/api/allocations/%d", allocID), map[string]any{"quantity": -1})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("availability", func(t *testing.T) {
		res, body := do(t, ts, http.MethodGet, fmt.Sprintf("/api/holdings/stock/%d/available", stockID), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.EqualValues(t, 0, body["available"])

		res, body = do(t, ts, http.MethodGet, "/api/available-shares/aapl", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "AAPL", body["ticker"])
		assert.EqualValues(t, 100, body["total_owned"])
	})

	t.Run("delete blocked by allocation", func(t *testing.T) {
		res, body := do(t, ts, http.MethodDelete, fmt.Sprintf("/api/holdings/stock/%d", stockID), nil)
		require.Equal(t, http.StatusConflict, res.StatusCode)
		assert.Equal(t, []any{"Growth"}, body["portfolios"])
		assert.NotEmpty(t, body["error"])
	})

	t.Run("release", func(t *testing.T) {
		res, body := do(t, ts, http.MethodDelete, fmt.Sprintf("/api/allocations/%d", allocID), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.EqualValues(t, 100, body["returned_quantity"])
		assert.EqualValues(t, growthID, body["portfolio_id"])
		assert.NotEmpty(t, body["message"])

		res, _ = do(t, ts, http.MethodDelete, fmt.Sprintf("/api/allocations/%d", allocID), nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("delete once free", func(t *testing.T) {
		res, _ := do(t, ts, http.MethodDelete, fmt.Sprintf("/api/holdings/stock/%d", stockID), nil)
		assert.Equal(t, http.StatusNoContent, res.StatusCode)
	})
}

func TestDeletePortfolioRoutes(t *testing.T) {
	store := repositories.NewMemoryStore()
	ts := newTestServer(t, store)

	_, cash := do(t, ts, http.MethodPost, "/api/cash-assets", map[string]any{
		"bank_name": "Chase", "currency_code": "USD", "cash_amount": 100,
	})
	cashID := idOf(t, cash)

	newAllocated := func(name string) int {
		_, p := do(t, ts, http.MethodPost, "/api/portfolios", map[string]any{"name": name})
		id := idOf(t, p)
		res, _ := do(t, ts, http.MethodPost, "/api/allocations", map[string]any{
			"portfolio_id": id, "asset_type": "cash", "asset_id": cashID, "quantity": 30,
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)
		return id
	}

	plain := newAllocated("Plain")
	res, body := do(t, ts, http.MethodDelete, fmt.Sprintf("/api/portfolios/%d", plain), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, body["message"])
	assert.NotContains(t, body, "returned_assets")

	_, holding := do(t, ts, http.MethodGet, fmt.Sprintf("/api/cash-assets/%d", cashID), nil)
	assert.EqualValues(t, 100, holding["cash_amount"])

	pooled := newAllocated("Pooled")
	res, body = do(t, ts, http.MethodDelete, fmt.Sprintf("/api/portfolios/%d/delete", pooled), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 1, body["returned_assets"])

	_, holding = do(t, ts, http.MethodGet, fmt.Sprintf("/api/cash-assets/%d", cashID), nil)
	assert.EqualValues(t, 130, holding["cash_amount"])

	res, _ = do(t, ts, http.MethodDelete, fmt.Sprintf("/api/portfolios/%d", pooled), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestBadPathParameters(t *testing.T) {
	ts := newTestServer(t, repositories.NewMemoryStore())

	res, body := do(t, ts, http.MethodDelete, "/api/holdings/bond/1", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["error"], "asset_type")

	res, _ = do(t, ts, http.MethodGet, "/api/cash-assets/abc", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = do(t, ts, http.MethodGet, "/api/allocations?portfolio_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = do(t, ts, http.MethodGet, "/api/reports/stock-history/42", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestReportRoutes(t *testing.T) {
	ts := newTestServer(t, repositories.NewMemoryStore())
	do(t, ts, http.MethodPost, "/api/cash-assets", map[string]any{
		"bank_name": "Chase", "currency_code": "USD", "cash_amount": 3000,
	})

	res, body := do(t, ts, http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 3000, body["total_cash"])

	res, _ = do(t, ts, http.MethodGet, "/api/reports/bank-distribution", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	_, stock := do(t, ts, http.MethodPost, "/api/stock-assets", map[string]any{
		"ticker": "AAPL", "quantity": 10, "purchase_price": 150, "purchase_date": "2024-01-02",
	})
	res, _ = do(t, ts, http.MethodPost, fmt.Sprintf("/api/stock-assets/%d/prices", idOf(t, stock)), map[string]any{
		"price": 175.5, "date": "2024-06-03",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = do(t, ts, http.MethodGet, "/api/stock-price?ticker=aapl&date=2024-06-03", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 175.5, body["price"])

	res, body = do(t, ts, http.MethodGet, "/api/stock-price?ticker=AAPL&date=2024-06-04", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "price")
	assert.Nil(t, body["price"])

	res, _ = do(t, ts, http.MethodGet, "/api/stock-price?ticker=AAPL", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res, _ = do(t, ts, http.MethodGet, "/api/stock-price?ticker=AAPL&date=06/03/2024", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	xlsx, err := http.Get(ts.URL + "/api/reports/distribution.xlsx")
	require.NoError(t, err)
	defer xlsx.Body.Close()
	assert.Equal(t, http.StatusOK, xlsx.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsx.Header.Get("Content-Type"))
}

// brokenStore fails every cash listing the way a lost connection would.
type brokenStore struct {
	*repositories.MemoryStore
}

type brokenCash struct {
	repositories.CashRepository
}

var errConnection = errors.New("pq: connection reset by peer at 10.0.0.7")

func (brokenCash) List(context.Context) ([]models.CashHolding, error) { return nil, errConnection }

func (s brokenStore) Cash() repositories.CashRepository {
	return brokenCash{s.MemoryStore.Cash()}
}

func TestStoreFailureIsGeneric(t *testing.T) {
	ts := newTestServer(t, brokenStore{repositories.NewMemoryStore()})

	res, body := do(t, ts, http.MethodGet, "/api/cash-assets", nil)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "Internal Server Error", body["error"])
	assert.NotContains(t, fmt.Sprint(body), "10.0.0.7")
}
