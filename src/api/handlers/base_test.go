package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"assetfolio/src/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleErrors(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, 0)
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"invalid argument", fmt.Errorf("%w: quantity must not be negative", services.ErrInvalidArgument), http.StatusBadRequest, "invalid argument: quantity must not be negative"},
		{"not found", fmt.Errorf("%w: portfolio 3 not found", services.ErrNotFound), http.StatusNotFound, "not found: portfolio 3 not found"},
		{"conflict", &services.ConflictError{Portfolios: []string{"Growth"}}, http.StatusConflict, "Holding is allocated to portfolios"},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timed out"},
		{"store failure", fmt.Errorf("failed to query portfolios: connection refused"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			h.HandleErrors(w, r, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestNewHandlerDefaultsTimeout(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, 0)
	assert.True(t, h.RequestTimeout > 0)
}
