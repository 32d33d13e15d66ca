package models

import (
	"time"

	"fermmon/internal/analysis"
)

type Fermentation struct {
	ID           int64                       `json:"id"`
	BatchName    string                      `json:"batch_name"`
	YeastProfile string                      `json:"yeast_profile"`
	OG           float64                     `json:"og"`
	FGTarget     float64                     `json:"fg_target"`
	TempTarget   float64                     `json:"temp_target"`
	BrewfatherID string                      `json:"brewfather_id,omitempty"`
	StartDate    time.Time                   `json:"start_date"`
	Status       analysis.FermentationStatus `json:"status"`
	CreatedAt    time.Time                   `json:"created_at"`
}

// Params projects the batch onto the parameters the analysis engine reads.
func (f *Fermentation) Params() analysis.Fermentation {
	return analysis.Fermentation{
		OriginalGravity:    f.OG,
		TargetFinalGravity: f.FGTarget,
		TargetTemperature:  f.TempTarget,
		Status:             f.Status,
	}
}

// InputFermentation is the payload accepted when a batch is created.
type InputFermentation struct {
	BatchName    string                      `json:"batch_name" validate:"required|maxLen:200"`
	YeastProfile string                      `json:"yeast_profile"`
	OG           float64                     `json:"og" validate:"required"`
	FGTarget     float64                     `json:"fg_target" validate:"required"`
	TempTarget   float64                     `json:"temp_target"`
	BrewfatherID string                      `json:"brewfather_id"`
	StartDate    time.Time                   `json:"start_date"`
	Status       analysis.FermentationStatus `json:"status"`
}
