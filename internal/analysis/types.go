package analysis

import "time"

type FermentationStatus string

const (
	StatusActive       FermentationStatus = "active"
	StatusDiacetylRest FermentationStatus = "diacetyl_rest"
	StatusColdCrash    FermentationStatus = "cold_crash"
	StatusDone         FermentationStatus = "done"
)

func (s FermentationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusDiacetylRest, StatusColdCrash, StatusDone:
		return true
	}
	return false
}

// Fermentation carries the batch parameters the rules need.
type Fermentation struct {
	OriginalGravity    float64            `json:"og"`
	TargetFinalGravity float64            `json:"fg_target"`
	TargetTemperature  float64            `json:"temp_target"`
	Status             FermentationStatus `json:"status"`
}

// Reading is one sample as seen by the engine. TimeBasis is whichever instant the
// caller chose to order and window readings by.
type Reading struct {
	TimeBasis   time.Time `json:"time_basis"`
	Gravity     float64   `json:"gravity"`
	Temperature float64   `json:"temperature"`
}

type ResultStatus string

const (
	ResultInsufficientData ResultStatus = "insufficient_data"
	ResultAnalyzed         ResultStatus = "analyzed"
)

// Result is the outcome of one evaluation. Metrics are zero when Status is
// ResultInsufficientData.
type Result struct {
	Status                    ResultStatus `json:"status"`
	CurrentGravity            float64      `json:"current_gravity"`
	CurrentTemperature        float64      `json:"current_temperature"`
	CurrentAttenuationPercent float64      `json:"current_attenuation"`
	ReadingsCount             int          `json:"readings_count"`
	Events                    []Event      `json:"alerts_triggered"`
}
