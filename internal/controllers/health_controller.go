package controllers

import (
	"fmt"
	"net/http"
	"time"

	"fermmon/internal/services"
)

type HealthController struct {
	service   services.FermentationServiceInterface
	startTime time.Time
}

type healthResponse struct {
	Status               string  `json:"status"`
	Uptime               string  `json:"uptime"`
	UptimeSeconds        float64 `json:"uptime_seconds"`
	Fermentations        int     `json:"fermentations"`
	ActiveFermentationID *int64  `json:"active_fermentation_id"`
	Evaluations          uint64  `json:"evaluations"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Fermentations: len(hc.service.ListFermentations()),
		Evaluations:   hc.service.Evaluations(),
	}
	if active, err := hc.service.ActiveFermentation(); err == nil {
		resp.ActiveFermentationID = &active.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(service services.FermentationServiceInterface) *HealthController {
	return &HealthController{
		service:   service,
		startTime: time.Now(),
	}
}
