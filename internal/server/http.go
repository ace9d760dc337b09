package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/api"
	"github.com/muurk/labelgen/internal/barcode"
	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/files"
	"github.com/muurk/labelgen/internal/logging"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// respondJSON writes v with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Named("http").Debug("Failed to encode response", zap.Error(err))
	}
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var verr *api.ValidationError
	switch {
	case errors.As(err, &verr), catalog.IsValidationError(err), errors.Is(err, barcode.ErrInvalidNumber),
		errors.Is(err, files.ErrInvalidName):
		return http.StatusBadRequest
	case catalog.IsNotFoundError(err), errors.Is(err, files.ErrNotFound):
		return http.StatusNotFound
	case catalog.IsConflictError(err), catalog.IsInUseError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body and logs server-side failures.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	body := api.ErrorResponse{Error: err.Error()}
	var catErr *catalog.CatalogError
	if errors.As(err, &catErr) {
		body.Error = catalog.GetShortErrorMessage(err)
		body.Hint = catalog.GetTroubleshootingHint(err)
	}

	log := logging.Named("http")
	if status >= 500 {
		log.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	} else {
		log.Debug("Request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	respondJSON(w, status, body)
}

// decodeJSON reads and validates a request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &api.ValidationError{Fields: []string{"body: " + err.Error()}}
	}
	return api.Validate(v)
}

// urlParam returns a decoded path parameter. Non-ASCII category names
// arrive percent-encoded.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// requestLogger records every request through the http logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
