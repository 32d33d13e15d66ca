package analysis

import "math"

const minForecastReadings = 5

// Trend is an ordinary least squares fit of gravity against time. Slope is gravity
// change per second.
type Trend struct {
	Slope     float64
	Intercept float64
	origin    float64
}

// At returns the fitted gravity at unixSeconds.
func (t Trend) At(unixSeconds float64) float64 {
	return t.Intercept + t.Slope*(unixSeconds-t.origin)
}

// FitTrend fits the whole series. Time is recentred on the first sample so large
// epoch values do not swamp the sums. ok is false when the series has fewer than two
// distinct instants.
func FitTrend(readings []Reading) (Trend, bool) {
	if len(readings) < 2 {
		return Trend{}, false
	}
	origin := unixSeconds(readings[0])
	n := float64(len(readings))

	var sumX, sumY float64
	for _, r := range readings {
		sumX += unixSeconds(r) - origin
		sumY += r.Gravity
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for _, r := range readings {
		dx := unixSeconds(r) - origin - meanX
		sxx += dx * dx
		sxy += dx * (r.Gravity - meanY)
	}
	if sxx == 0 {
		return Trend{}, false
	}
	slope := sxy / sxx
	return Trend{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		origin:    origin,
	}, true
}

func forecastRule(readings []Reading, fgTarget float64) (Event, bool) {
	if len(readings) < minForecastReadings {
		return nil, false
	}
	trend, ok := FitTrend(readings)
	if !ok || trend.Slope >= 0 {
		return nil, false
	}
	predicted := trend.At(unixSeconds(readings[len(readings)-1]))
	hours := math.Max(0, (predicted-fgTarget)/(math.Abs(trend.Slope)*3600))
	return TrendForecast{
		HoursToTarget:         hours,
		PredictedFinalGravity: predicted,
	}, true
}

func unixSeconds(r Reading) float64 {
	return float64(r.TimeBasis.UnixNano()) / 1e9
}
