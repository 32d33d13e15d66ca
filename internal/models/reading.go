package models

import (
	"time"

	"fermmon/internal/analysis"
)

type TimeBasis string

const (
	TimeBasisIngested TimeBasis = "ingested"
	TimeBasisSensor   TimeBasis = "sensor"
)

// Reading is a stored sensor sample. Timestamp is reported by the sensor,
// IngestedAt is assigned by the store.
type Reading struct {
	ID                 int64     `json:"id"`
	FermentationID     int64     `json:"fermentation_id"`
	Timestamp          time.Time `json:"timestamp"`
	IngestedAt         time.Time `json:"created_at"`
	Gravity            float64   `json:"gravity"`
	Temperature        float64   `json:"temperature"`
	Battery            int       `json:"battery"`
	AttenuationPercent float64   `json:"attenuation_percent"`
}

func (r Reading) Basis(basis TimeBasis) time.Time {
	if basis == TimeBasisSensor {
		return r.Timestamp
	}
	return r.IngestedAt
}

func (r Reading) ForAnalysis(basis TimeBasis) analysis.Reading {
	return analysis.Reading{
		TimeBasis:   r.Basis(basis),
		Gravity:     r.Gravity,
		Temperature: r.Temperature,
	}
}

// InputReading is the payload pushed by the sensor poller or an external client.
type InputReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Gravity     float64   `json:"gravity"`
	Temperature float64   `json:"temperature"`
	Battery     int       `json:"battery"`
	DeviceID    string    `json:"device_id"`
}
