package handlers

import (
	"encoding/json"
	"errors"
	"farm-delivery-service/internal/api/dto"
	"farm-delivery-service/internal/platform/apperr"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("encode failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

func writeOK(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, r, http.StatusOK, dto.Envelope{Success: true, Data: data})
}

// writeError answers with the error envelope. Server-side failures are logged at
// error level; operator-correctable ones at info.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if logger != nil {
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request failed",
			"req_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	writeJSON(w, r, status, dto.Envelope{
		Success: false,
		Error:   apperr.Message(err),
		Kind:    string(apperr.KindOf(err)),
		Debug:   apperr.DebugOf(err),
	})
}

// decodeJSON decodes exactly one JSON object into dst and validates it.
// An empty body decodes as the zero value.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid json body: " + err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("body must contain only one JSON object")
	}

	return validateStruct(dst)
}

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, nil, apperr.NotFound("no route for "+r.Method+" "+r.URL.Path))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusMethodNotAllowed, dto.Envelope{
		Success: false,
		Error:   "method not allowed",
		Kind:    string(apperr.KindValidation),
	})
}
