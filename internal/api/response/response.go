// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/coinview/internal/core"
	"github.com/newthinker/coinview/internal/metrics"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	if r != nil {
		resp.Meta.RequestID = metrics.RequestID(r.Context())
	}
	write(w, status, resp)
}

// Error writes an error response. A zero status is derived from err.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	if status == 0 {
		status = Status(err)
	}
	write(w, status, ErrorResponse{Error: detail})
}

// Status maps an error to the HTTP status it should be reported with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrInvalidCoinID):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCoinNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFetchTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrFetchFailed), errors.Is(err, core.ErrBadPayload):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
