// Package respond provides the JSON envelope helpers used by every feature
// handler: writing payloads, writing taxonomy errors, and decoding bodies
// with a size limit.
package respond

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/parleyhq/parley/internal/app/system/outcome"
	"go.uber.org/zap"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes err as a JSON error envelope using the outcome taxonomy's
// status and code mapping. Internal errors are logged and their detail is
// withheld from the response body.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status := outcome.HTTPStatus(err)
	code := outcome.Code(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		msg = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorDetail{Code: code, Message: msg}})
}

// BadRequest writes a 400 with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorDetail{Code: "BAD_REQUEST", Message: message}})
}

// Decode reads the request body into v, enforcing the size limit.
func Decode(r *http.Request, v any) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}
