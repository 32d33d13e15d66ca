package analysis

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidConfig    = errors.New("invalid alert config")
	ErrUnsortedReadings = errors.New("readings are not sorted by time basis")
	ErrMalformedReading = errors.New("malformed reading")
)

// AlertConfig holds the thresholds and window lengths every rule reads.
// Window lengths are in hours, gravity thresholds in absolute specific gravity units,
// temperature thresholds in degrees Celsius and the attenuation threshold is a ratio.
type AlertConfig struct {
	AttenuationThreshold          float64 `json:"attenuation_threshold"`
	GravityStabilityWindowHours   float64 `json:"gravity_stability_window_hours"`
	GravityStabilityThreshold     float64 `json:"gravity_stability_threshold"`
	TemperatureDescentWindowHours float64 `json:"temperature_descent_window_hours"`
	TemperatureDescentThreshold   float64 `json:"temperature_descent_threshold"`
}

func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		AttenuationThreshold:          0.80,
		GravityStabilityWindowHours:   12,
		GravityStabilityThreshold:     0.5,
		TemperatureDescentWindowHours: 6,
		TemperatureDescentThreshold:   0.5,
	}
}

// NewAlertConfig returns a validated config. Callers build it once and reuse it.
func NewAlertConfig(attenuation, stabilityHours, stabilityThreshold, descentHours, descentThreshold float64) (AlertConfig, error) {
	conf := AlertConfig{
		AttenuationThreshold:          attenuation,
		GravityStabilityWindowHours:   stabilityHours,
		GravityStabilityThreshold:     stabilityThreshold,
		TemperatureDescentWindowHours: descentHours,
		TemperatureDescentThreshold:   descentThreshold,
	}
	if err := conf.Validate(); err != nil {
		return AlertConfig{}, err
	}
	return conf, nil
}

func (c AlertConfig) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"attenuation_threshold", c.AttenuationThreshold},
		{"gravity_stability_window_hours", c.GravityStabilityWindowHours},
		{"gravity_stability_threshold", c.GravityStabilityThreshold},
		{"temperature_descent_window_hours", c.TemperatureDescentWindowHours},
		{"temperature_descent_threshold", c.TemperatureDescentThreshold},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value <= 0 {
			return fmt.Errorf("%w: %s must be a positive number, got %v", ErrInvalidConfig, f.name, f.value)
		}
	}
	return nil
}
