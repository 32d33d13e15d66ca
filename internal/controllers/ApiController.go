package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
	"github.com/spf13/cast"

	"fermmon/internal/analysis"
	"fermmon/internal/models"
	"fermmon/internal/poller"
	"fermmon/internal/providers"
	"fermmon/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const defaultReadingsHours = 24

// analysisCacheWindow bounds how long a cached analysis may outlive readings
// that left the lookback window without the store changing.
const analysisCacheWindow = 10 * time.Second

// HydrometerLister lists the devices on the sensor account.
type HydrometerLister interface {
	Hydrometers(ctx context.Context) ([]poller.Hydrometer, error)
}

type ApiController struct {
	logger      providers.Logger
	service     services.FermentationServiceInterface
	cache       providers.CacheProviderInterface
	hydrometers HydrometerLister
	now         func() time.Time
}

func NewApiController(logger providers.Logger, service services.FermentationServiceInterface, cache providers.CacheProviderInterface, hydrometers HydrometerLister) *ApiController {
	return &ApiController{
		logger:      logger,
		service:     service,
		cache:       cache,
		hydrometers: hydrometers,
		now:         time.Now,
	}
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	id, err := cast.ToInt64E(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", errBadRequest, name, raw)
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, err)
	}
	return nil
}

func (ac *ApiController) ListFermentations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.service.ListFermentations())
}

func (ac *ApiController) CreateFermentation(w http.ResponseWriter, r *http.Request) {
	var payload models.InputFermentation
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, ac.logger, providers.TypePost, err)
		return
	}
	if v := validate.Struct(&payload); !v.Validate() {
		writeError(w, ac.logger, providers.TypePost, fmt.Errorf("%w: %s", errBadRequest, v.Errors.One()))
		return
	}

	f, err := ac.service.CreateFermentation(&payload)
	if err != nil {
		writeError(w, ac.logger, providers.TypePost, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (ac *ApiController) GetFermentation(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}
	f, err := ac.service.GetFermentation(id)
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (ac *ApiController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, ac.logger, providers.TypePost, err)
		return
	}
	status := analysis.FermentationStatus(r.URL.Query().Get("status"))

	f, err := ac.service.UpdateStatus(id, status)
	if err != nil {
		writeError(w, ac.logger, providers.TypePost, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type ingestResponse struct {
	Status         string         `json:"status"`
	FermentationID int64          `json:"fermentation_id"`
	Attenuation    float64        `json:"attenuation"`
	Reading        models.Reading `json:"reading"`
}

func (ac *ApiController) IngestReading(w http.ResponseWriter, r *http.Request) {
	var payload models.InputReading
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, ac.logger, providers.TypePost, err)
		return
	}

	reading, err := ac.service.IngestReading(&payload)
	if err != nil {
		writeError(w, ac.logger, providers.TypePost, err)
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{
		Status:         "ok",
		FermentationID: reading.FermentationID,
		Attenuation:    reading.AttenuationPercent,
		Reading:        *reading,
	})
}

func (ac *ApiController) GetReadings(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}
	hours := float64(defaultReadingsHours)
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err = cast.ToFloat64E(raw)
		if err != nil || hours <= 0 {
			writeError(w, ac.logger, providers.TypeGet, fmt.Errorf("%w: hours must be positive, got %q", errBadRequest, raw))
			return
		}
	}

	readings, err := ac.service.Readings(id, hours)
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

type historyResponse struct {
	Fermentation *models.Fermentation `json:"fermentation"`
	Readings     []models.Reading     `json:"readings"`
}

func (ac *ApiController) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}
	f, readings, err := ac.service.History(id)
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Fermentation: f, Readings: readings})
}

// GetAnalysis is cached per fermentation, store revision and time window. Any
// write invalidates it, and so does the window rolling over.
func (ac *ApiController) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}

	window := ac.now().UnixNano() / int64(analysisCacheWindow)
	cacheKey := "analysis:" + strconv.FormatInt(id, 10) + ":" + strconv.FormatUint(ac.service.Revision(), 10) + ":" + strconv.FormatInt(window, 10)
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeRaw(w, http.StatusOK, data)
		return
	}

	res, err := ac.service.Analyze(id)
	if err != nil {
		writeError(w, ac.logger, providers.TypeAnalysis, err)
		return
	}
	gson, err := json.Marshal(res)
	if err != nil {
		writeError(w, ac.logger, providers.TypeAnalysis, err)
		return
	}
	ac.cache.Set(cacheKey, gson)
	writeRaw(w, http.StatusOK, gson)
}

func (ac *ApiController) GetAlerts(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}
	alerts, err := ac.service.Alerts(id)
	if err != nil {
		writeError(w, ac.logger, providers.TypeGet, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (ac *ApiController) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, ac.logger, providers.TypePost, err)
		return
	}
	alert, err := ac.service.AcknowledgeAlert(id)
	if err != nil {
		writeError(w, ac.logger, providers.TypePost, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (ac *ApiController) GetHydrometers(w http.ResponseWriter, r *http.Request) {
	devices, err := ac.hydrometers.Hydrometers(r.Context())
	if err != nil {
		writeError(w, ac.logger, providers.TypePoller, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}
