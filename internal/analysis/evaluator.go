package analysis

import (
	"fmt"
	"math"
)

type rule func(f Fermentation, readings []Reading, attenuation float64, conf AlertConfig) (Event, bool)

// rules run in this order and their events keep it.
var rules = []rule{
	func(_ Fermentation, _ []Reading, a float64, c AlertConfig) (Event, bool) { return attenuationRule(a, c) },
	func(_ Fermentation, rs []Reading, _ float64, c AlertConfig) (Event, bool) { return stabilityRule(rs, c) },
	func(_ Fermentation, rs []Reading, _ float64, c AlertConfig) (Event, bool) { return descentRule(rs, c) },
	func(f Fermentation, rs []Reading, _ float64, _ AlertConfig) (Event, bool) {
		return forecastRule(rs, f.TargetFinalGravity)
	},
}

// Evaluate analyses the readings of one fermentation. Readings must be sorted
// ascending by time basis. Evaluate either returns a complete result or an error,
// never both.
func Evaluate(f Fermentation, readings []Reading, conf AlertConfig) (Result, error) {
	if err := conf.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkReadings(readings); err != nil {
		return Result{}, err
	}

	if len(readings) < 2 {
		return Result{
			Status:        ResultInsufficientData,
			ReadingsCount: len(readings),
			Events:        []Event{},
		}, nil
	}

	last := readings[len(readings)-1]
	attenuation := Attenuation(f.OriginalGravity, last.Gravity)

	events := make([]Event, 0, len(rules))
	for _, r := range rules {
		if ev, ok := r(f, readings, attenuation, conf); ok {
			events = append(events, ev)
		}
	}

	return Result{
		Status:                    ResultAnalyzed,
		CurrentGravity:            last.Gravity,
		CurrentTemperature:        last.Temperature,
		CurrentAttenuationPercent: attenuation * 100,
		ReadingsCount:             len(readings),
		Events:                    events,
	}, nil
}

func checkReadings(readings []Reading) error {
	for i, r := range readings {
		if r.TimeBasis.IsZero() {
			return fmt.Errorf("%w: reading %d has no time basis", ErrMalformedReading, i)
		}
		if !finite(r.Gravity) || !finite(r.Temperature) {
			return fmt.Errorf("%w: reading %d has gravity=%v temperature=%v", ErrMalformedReading, i, r.Gravity, r.Temperature)
		}
		if i > 0 && r.TimeBasis.Before(readings[i-1].TimeBasis) {
			return fmt.Errorf("%w: reading %d at %s precedes reading %d at %s",
				ErrUnsortedReadings, i, r.TimeBasis, i-1, readings[i-1].TimeBasis)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
