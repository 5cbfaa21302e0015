package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"viagem/internal/core"
	applog "viagem/internal/log"
	"viagem/internal/validation"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verrs validation.Errors
	var bad badRequestError
	switch {
	case errors.As(err, &verrs), errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as JSON. Internal errors are not echoed.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := applog.NewStructuredLogger(applog.FromContext(r.Context()))
	logger.LogError(r.Context(), "Request failed", err, op, applog.NewFields().WithRequest(r))

	body := errorResponse{Error: err.Error()}
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		body = errorResponse{Error: "validation failed", Fields: verrs.Fields()}
	case status == http.StatusGatewayTimeout:
		body.Error = "backend timeout"
	case status >= http.StatusInternalServerError:
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}
