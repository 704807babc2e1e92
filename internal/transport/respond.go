package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"catalog-api/internal/middleware"
	"catalog-api/internal/payment"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// respondWithServiceError maps service and store errors onto the error
// envelope. Anything unrecognized is logged and reported as a bare 500.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		middleware.RespondWithValidationErrors(w, toValidationErrors(verr))
	case errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrCategoryAlreadyExists),
		errors.Is(err, repository.ErrProductAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrPaymentFailed):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// isClientError reports whether err is the caller's fault and safe to echo
func isClientError(err error) bool {
	return service.IsValidationError(err) ||
		errors.Is(err, repository.ErrCategoryNotFound) ||
		errors.Is(err, repository.ErrProductNotFound) ||
		errors.Is(err, repository.ErrCategoryAlreadyExists) ||
		errors.Is(err, repository.ErrProductAlreadyExists)
}

func toValidationErrors(verr *service.ValidationError) []middleware.ValidationError {
	out := make([]middleware.ValidationError, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, middleware.ValidationError{
			Field:   f.Field,
			Message: middleware.ValidationMessage(f.Tag, f.Param),
		})
	}
	return out
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are rejected
// so a misspelled patch cannot silently succeed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondWithDecodeError reports a body that could not be decoded
func respondWithDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request body decode failed", zap.Error(err))
	middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "invalid request body", map[string]interface{}{
		"reason": err.Error(),
	})
}

// pathParam returns the decoded value of a chi URL parameter. chi matches on
// RawPath when the request path has escapes that Path cannot represent
// (e.g. %2F), and only then are parameters still escaped.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
