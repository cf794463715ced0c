// Package httpserver contains the REST handlers and middleware of the
// matching platform. It keeps HTTP concerns out of the usecase layer: request
// decoding, validation, error mapping and response envelopes all live here.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hiretrack/hiretrack/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrPdfInvalid),
		errors.Is(err, domain.ErrFetchFailed),
		errors.Is(err, domain.ErrInsufficientContent):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
		codeStr = "CONFLICT"
	case errors.Is(err, domain.ErrSchemaInvalid):
		code = http.StatusBadGateway
		codeStr = "LLM_SCHEMA_INVALID"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		code = http.StatusBadGateway
		codeStr = "LLM_UNAVAILABLE"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
