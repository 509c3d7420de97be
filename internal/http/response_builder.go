// Package http exposes the ledger over a JSON API.
//
// This file implements a small builder for the response envelopes: every
// success is wrapped as {"data": ...} and every failure as
// {"error": kind, "message": text}.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"conti/internal/core"
	"conti/internal/log"
)

const errUnauthorized = "unauthorized"

type dataEnvelope struct {
	Data any `json:"data"`
}

type pageEnvelope struct {
	Data        any  `json:"data"`
	HasMore     bool `json:"hasMore"`
	CurrentPage int  `json:"currentPage"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data wraps v in the success envelope.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.body = dataEnvelope{Data: v}
	return b
}

// Page wraps one page of items with its paging flags.
func (b *JSONResponseBuilder) Page(items any, hasMore bool, currentPage int) *JSONResponseBuilder {
	b.body = pageEnvelope{Data: items, HasMore: hasMore, CurrentPage: currentPage}
	return b
}

// Error sets the failure envelope.
func (b *JSONResponseBuilder) Error(kind, message, field string) *JSONResponseBuilder {
	b.body = errorEnvelope{Error: kind, Message: message, Field: field}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusUnprocessableEntity
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse renders err. Internal failures are logged and their detail
// is never sent to the client.
func ErrorResponse(r *http.Request, err error) *JSONResponseBuilder {
	kind := core.KindOf(err)
	b := NewJSONResponse().Status(StatusFor(kind))
	if kind == core.KindInternal {
		fields := log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
			WithOwner(OwnerFromContext(r.Context())).
			WithErrorKind(string(kind))
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, operationFor(r.Method), fields)
		return b.Error(string(core.KindInternal), "internal error", "")
	}

	message := err.Error()
	var ce *core.Error
	if errors.As(err, &ce) {
		message = ce.Message
	}
	return b.Error(string(kind), message, core.FieldOf(err))
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return log.OpCreate
	case http.MethodPut, http.MethodPatch:
		return log.OpUpdate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return log.OpRead
	}
}

// UnauthorizedError is returned before any ledger call when the caller is
// not identified.
func UnauthorizedError() *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnauthorized).
		Error(errUnauthorized, "missing "+HeaderUserID+" header", "")
}

// RateLimitedError is written when a caller exceeds its request budget.
func RateLimitedError() *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusTooManyRequests).
		Error("rate_limited", "rate limit exceeded, please try again later", "")
}
