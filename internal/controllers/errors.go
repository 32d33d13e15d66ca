package controllers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"fermmon/internal/analysis"
	"fermmon/internal/dispatch"
	"fermmon/internal/models"
	"fermmon/internal/poller"
	"fermmon/internal/providers"
	"fermmon/internal/services"
)

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, models.ErrNoActiveFermentation),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidReading):
		return http.StatusBadRequest
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrActiveExists):
		return http.StatusConflict
	case errors.Is(err, analysis.ErrInvalidConfig),
		errors.Is(err, analysis.ErrUnsortedReadings),
		errors.Is(err, analysis.ErrMalformedReading):
		return http.StatusUnprocessableEntity
	case errors.Is(err, poller.ErrNotConfigured),
		errors.Is(err, dispatch.ErrTelegramNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger providers.Logger, t providers.TypeEnum, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf(t, "Request failed: %s", err)
		http.Error(w, "Internal Server Error", status)
		return
	}
	logger.Debugf(t, "Request rejected (%d): %s", status, err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, gson)
}

func writeRaw(w http.ResponseWriter, status int, gson []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}
