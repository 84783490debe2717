package utils

import (
	"encoding/json"
	"net/http"
)

// HTTPError carries an HTTP status code, a message and optional extra fields
// that are merged into the JSON error body.
type HTTPError struct {
	Code    int            `json:"-"`
	Message string         `json:"message"`
	Details map[string]any `json:"-"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(code int, message string) error {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns an HTTPError whose body also carries details.
func WithDetails(code int, message string, details map[string]any) error {
	return &HTTPError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func BadRequest(message string) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

func NotFound(message string) error {
	return NewHTTPError(http.StatusNotFound, message)
}

func InternalServerError(message string) error {
	return NewHTTPError(http.StatusInternalServerError, message)
}

func GatewayTimeout(message string) error {
	return NewHTTPError(http.StatusGatewayTimeout, message)
}

// Body is the JSON object written for the error: {"error": message, ...details}.
func (e *HTTPError) Body() map[string]any {
	body := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		body[k] = v
	}
	body["error"] = e.Message
	return body
}

// WriteError sends err as a JSON error response. Anything that is not an
// HTTPError becomes a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	httpErr, ok := err.(*HTTPError)
	if !ok {
		httpErr = &HTTPError{
			Code:    http.StatusInternalServerError,
			Message: "Internal Server Error",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpErr.Code)
	_ = json.NewEncoder(w).Encode(httpErr.Body())
}
