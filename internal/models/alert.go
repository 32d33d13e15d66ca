package models

import (
	"time"

	json "github.com/goccy/go-json"

	"fermmon/internal/analysis"
)

// AlertRecord logs one delivered notification.
type AlertRecord struct {
	ID             int64              `json:"id"`
	FermentationID int64              `json:"fermentation_id"`
	Kind           analysis.EventKind `json:"alert_type"`
	Message        string             `json:"message"`
	TriggerValues  json.RawMessage    `json:"trigger_values,omitempty"`
	Acknowledged   bool               `json:"acknowledged"`
	CreatedAt      time.Time          `json:"created_at"`
}
