package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

type envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Code: status, Message: "success", Data: data}); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error.Printf("%s %s [%s] failed: %v", r.Method, r.URL.Path, requestID(r.Context()), err)
		message = "internal server error"
	} else {
		logger.Debug.Printf("%s %s [%s] rejected: %v", r.Method, r.URL.Path, requestID(r.Context()), err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Code: status, Message: message}); err != nil {
		logger.Error.Printf("Failed to encode error response: %v", err)
	}
}

func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindInvalidArgument:
		return http.StatusBadRequest
	case models.KindUnauthorized:
		return http.StatusUnauthorized
	case models.KindLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewError(models.KindInvalidArgument, "invalid request body")
	}
	return nil
}

// queryInt64 returns 0 for a missing parameter.
func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, models.NewError(models.KindInvalidArgument, "invalid "+name)
	}
	return v, nil
}

func queryOptionalInt64(r *http.Request, name string) (*int64, error) {
	v, err := queryInt64(r, name)
	if err != nil || v == 0 {
		return nil, err
	}
	return &v, nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, models.NewError(models.KindInvalidArgument, "invalid "+name)
	}
	return v, nil
}
