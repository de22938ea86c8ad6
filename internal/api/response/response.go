// Package response writes the JSON bodies of the PlantIQ API.
//
// REST routes wrap payloads in {"data": ...} and failures in
// {"error": {"code", "message", "details"}}. The /functions/v1 routes answer
// with unwrapped bodies and a flat {"error": message}.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// CodeValidation is the error code of a request that decoded but failed validation.
const CodeValidation = "VALIDATION_ERROR"

type envelope struct {
	Data any `json:"data"`
}

type collectionEnvelope struct {
	Data any            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type functionError struct {
	Error string `json:"error"`
}

// PaginationMeta describes the page of a collection response.
type PaginationMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

func Collection(w http.ResponseWriter, data any, meta PaginationMeta) {
	writeJSON(w, http.StatusOK, collectionEnvelope{Data: data, Meta: meta})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// Validation writes a 400 with per-field messages keyed by JSON field name.
func Validation(w http.ResponseWriter, message string, fields map[string][]string) {
	Error(w, http.StatusBadRequest, CodeValidation, message, fields)
}

// Raw writes v without an envelope.
func Raw(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v)
}

// FunctionError writes {"error": message}.
func FunctionError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, functionError{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response body", "status", status, "error", err)
	}
}
