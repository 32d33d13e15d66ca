package analysis

func attenuationRule(attenuation float64, conf AlertConfig) (Event, bool) {
	if attenuation < conf.AttenuationThreshold {
		return nil, false
	}
	return AttenuationReached{
		MeasuredPercent:  attenuation * 100,
		ThresholdPercent: conf.AttenuationThreshold * 100,
	}, true
}

// stabilityRule detects a gravity plateau: every in-window reading counts, only the
// spread between the extremes matters.
func stabilityRule(readings []Reading, conf AlertConfig) (Event, bool) {
	window := Window(readings, conf.GravityStabilityWindowHours)
	if len(window) < 2 {
		return nil, false
	}
	lo, hi := window[0].Gravity, window[0].Gravity
	for _, r := range window[1:] {
		lo = min(lo, r.Gravity)
		hi = max(hi, r.Gravity)
	}
	variation := hi - lo
	if variation >= conf.GravityStabilityThreshold {
		return nil, false
	}
	return GravityStable{
		Variation:   variation,
		Threshold:   conf.GravityStabilityThreshold,
		WindowHours: conf.GravityStabilityWindowHours,
	}, true
}

// descentRule compares the first and last temperature in the window. Intermediate
// readings are ignored.
func descentRule(readings []Reading, conf AlertConfig) (Event, bool) {
	window := Window(readings, conf.TemperatureDescentWindowHours)
	if len(window) < 2 {
		return nil, false
	}
	descent := window[0].Temperature - window[len(window)-1].Temperature
	if descent <= conf.TemperatureDescentThreshold {
		return nil, false
	}
	return TemperatureDescended{
		Descent:     descent,
		Threshold:   conf.TemperatureDescentThreshold,
		WindowHours: conf.TemperatureDescentWindowHours,
	}, true
}
