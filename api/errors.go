package api

import (
	"encoding/json"
	"net/http"
)

// Error codes returned next to the human readable detail.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeStorage     = "STORAGE_ERROR"
	CodeAnalysis    = "ANALYSIS_FAILED"
	CodeTimeout     = "ANALYSIS_TIMEOUT"
	CodeCleanup     = "CLEANUP_FAILED"
	CodeUnavailable = "NOT_READY"
)

type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorBody{Detail: detail, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
