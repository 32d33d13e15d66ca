package analysis

import (
	"math"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func hourly(gravities, temperatures []float64) []Reading {
	readings := make([]Reading, len(gravities))
	for i := range gravities {
		readings[i] = Reading{
			TimeBasis:   t0.Add(time.Duration(i) * time.Hour),
			Gravity:     gravities[i],
			Temperature: temperatures[i],
		}
	}
	return readings
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testFermentation() Fermentation {
	return Fermentation{
		OriginalGravity:    1.050,
		TargetFinalGravity: 1.010,
		TargetTemperature:  18,
		Status:             StatusActive,
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind())
	}
	return out
}

// --- Attenuation ---

func TestAttenuation_Formula(t *testing.T) {
	assert.InDelta(t, 0.8, Attenuation(1.050, 1.010), 1e-9)
}

func TestAttenuation_OGAtOrBelowOneIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Attenuation(1.0, 1.2))
	assert.Equal(t, 0.0, Attenuation(1.0, 0.99))
	assert.NotPanics(t, func() {
		assert.Equal(t, 0.0, Attenuation(0.9, 1.0))
	})
}

func TestAttenuation_NotClamped(t *testing.T) {
	assert.Less(t, Attenuation(1.050, 1.055), 0.0)
	assert.Greater(t, Attenuation(1.050, 0.995), 1.0)
}

// --- Window ---

func TestWindow_TrailingSuffix(t *testing.T) {
	readings := hourly(constant(11, 1.02), constant(11, 20))

	w := Window(readings, 3)
	require.Len(t, w, 4)
	assert.Equal(t, t0.Add(7*time.Hour), w[0].TimeBasis)
	assert.Equal(t, t0.Add(10*time.Hour), w[3].TimeBasis)
}

func TestWindow_AllReadingsInside(t *testing.T) {
	readings := hourly(constant(3, 1.02), constant(3, 20))
	assert.Equal(t, readings, Window(readings, 12))
}

func TestWindow_Empty(t *testing.T) {
	assert.Empty(t, Window(nil, 12))
}

func TestWindow_FractionalHours(t *testing.T) {
	readings := hourly(constant(4, 1.02), constant(4, 20))
	w := Window(readings, 1.5)
	assert.Len(t, w, 2)
}

// --- Attenuation rule ---

func TestAttenuationRule_BoundaryInclusive(t *testing.T) {
	conf := DefaultAlertConfig()

	ev, ok := attenuationRule(0.80, conf)
	require.True(t, ok)
	assert.Equal(t, AttenuationReached{MeasuredPercent: 80, ThresholdPercent: 80}, ev)

	_, ok = attenuationRule(math.Nextafter(0.80, 0), conf)
	assert.False(t, ok)
}

func TestEvaluate_AttenuationExactlyAtThresholdFires(t *testing.T) {
	f := testFermentation()
	f.OriginalGravity = 2.0
	readings := hourly([]float64{1.5, 1.2}, []float64{20, 20})

	res, err := Evaluate(f, readings, DefaultAlertConfig())
	require.NoError(t, err)
	assert.Contains(t, kinds(res.Events), KindAttenuationReached)
}

// --- Stability rule ---

func TestStabilityRule_Plateau(t *testing.T) {
	readings := hourly([]float64{1.020, 1.019, 1.021}, constant(3, 20))

	ev, ok := stabilityRule(readings, DefaultAlertConfig())
	require.True(t, ok)
	stable := ev.(GravityStable)
	assert.InDelta(t, 0.002, stable.Variation, 1e-9)
	assert.Equal(t, 0.5, stable.Threshold)
	assert.Equal(t, 12.0, stable.WindowHours)
}

func TestStabilityRule_ThresholdBelowVariation(t *testing.T) {
	readings := hourly([]float64{1.020, 1.019, 1.021}, constant(3, 20))
	conf := DefaultAlertConfig()
	conf.GravityStabilityThreshold = 0.0015

	_, ok := stabilityRule(readings, conf)
	assert.False(t, ok)
}

func TestStabilityRule_SingleReadingInWindowIsSilent(t *testing.T) {
	readings := []Reading{
		{TimeBasis: t0, Gravity: 1.030, Temperature: 20},
		{TimeBasis: t0.Add(20 * time.Hour), Gravity: 1.020, Temperature: 20},
	}
	_, ok := stabilityRule(readings, DefaultAlertConfig())
	assert.False(t, ok)
}

func TestStabilityRule_SpikeOutsideWindowIgnored(t *testing.T) {
	readings := []Reading{
		{TimeBasis: t0, Gravity: 1.060, Temperature: 20},
		{TimeBasis: t0.Add(13 * time.Hour), Gravity: 1.0100, Temperature: 20},
		{TimeBasis: t0.Add(24 * time.Hour), Gravity: 1.0101, Temperature: 20},
	}
	conf := DefaultAlertConfig()
	conf.GravityStabilityThreshold = 0.001

	_, ok := stabilityRule(readings, conf)
	assert.True(t, ok)
}

// --- Descent rule ---

func TestDescentRule_EndpointSemantics(t *testing.T) {
	readings := hourly(constant(3, 1.02), []float64{20, 18, 21})

	_, ok := descentRule(readings, DefaultAlertConfig())
	assert.False(t, ok, "intermediate drop must not count, first minus last is -1")
}

func TestDescentRule_Fires(t *testing.T) {
	readings := hourly(constant(3, 1.02), []float64{21, 22, 20})

	ev, ok := descentRule(readings, DefaultAlertConfig())
	require.True(t, ok)
	descended := ev.(TemperatureDescended)
	assert.InDelta(t, 1.0, descended.Descent, 1e-9)
	assert.Equal(t, 6.0, descended.WindowHours)
}

func TestDescentRule_EqualToThresholdDoesNotFire(t *testing.T) {
	readings := hourly(constant(2, 1.02), []float64{20.5, 20})
	_, ok := descentRule(readings, DefaultAlertConfig())
	assert.False(t, ok)
}

func TestDescentRule_OnlyWindowEndpoints(t *testing.T) {
	// the 25 degree reading is 9h before the last one, outside the 6h window
	readings := hourly(constant(10, 1.02), []float64{25, 20, 20, 20, 20, 20, 20, 20, 20, 20})
	_, ok := descentRule(readings, DefaultAlertConfig())
	assert.False(t, ok)
}

// --- Trend forecast ---

func TestFitTrend_Linear(t *testing.T) {
	readings := hourly([]float64{1.050, 1.048, 1.046, 1.044, 1.042, 1.040}, constant(6, 20))

	trend, ok := FitTrend(readings)
	require.True(t, ok)
	assert.InDelta(t, -0.002/3600, trend.Slope, 1e-12)
	assert.InDelta(t, 1.040, trend.At(unixSeconds(readings[5])), 1e-9)
}

func TestFitTrend_SameInstant(t *testing.T) {
	readings := []Reading{
		{TimeBasis: t0, Gravity: 1.02},
		{TimeBasis: t0, Gravity: 1.01},
	}
	_, ok := FitTrend(readings)
	assert.False(t, ok)
}

func TestForecastRule_HoursToTarget(t *testing.T) {
	readings := hourly([]float64{1.050, 1.048, 1.046, 1.044, 1.042, 1.040}, constant(6, 20))

	ev, ok := forecastRule(readings, 1.010)
	require.True(t, ok)
	forecast := ev.(TrendForecast)
	assert.InDelta(t, 15.0, forecast.HoursToTarget, 1e-6)
	assert.InDelta(t, 1.040, forecast.PredictedFinalGravity, 1e-9)
}

func TestForecastRule_UsesFittedGravity(t *testing.T) {
	readings := hourly([]float64{1.050, 1.046, 1.046, 1.042, 1.041}, constant(5, 20))

	ev, ok := forecastRule(readings, 1.010)
	require.True(t, ok)
	assert.NotEqual(t, 1.041, ev.(TrendForecast).PredictedFinalGravity)
}

func TestForecastRule_PastTargetClampsToZero(t *testing.T) {
	readings := hourly([]float64{1.012, 1.011, 1.010, 1.009, 1.008}, constant(5, 20))

	ev, ok := forecastRule(readings, 1.010)
	require.True(t, ok)
	assert.Equal(t, 0.0, ev.(TrendForecast).HoursToTarget)
}

func TestForecastRule_FlatOrRisingIsSilent(t *testing.T) {
	_, ok := forecastRule(hourly(constant(6, 1.020), constant(6, 20)), 1.010)
	assert.False(t, ok)

	_, ok = forecastRule(hourly([]float64{1.010, 1.011, 1.012, 1.013, 1.014}, constant(5, 20)), 1.010)
	assert.False(t, ok)
}

func TestForecastRule_NeedsFiveReadings(t *testing.T) {
	_, ok := forecastRule(hourly([]float64{1.050, 1.048, 1.046, 1.044}, constant(4, 20)), 1.010)
	assert.False(t, ok)
}

func TestForecastRule_Deterministic(t *testing.T) {
	readings := hourly([]float64{1.050, 1.047, 1.046, 1.041, 1.040, 1.036}, constant(6, 20))

	a, okA := forecastRule(readings, 1.010)
	b, okB := forecastRule(readings, 1.010)
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}

// --- Evaluate ---

func TestEvaluate_InsufficientData(t *testing.T) {
	readings := hourly([]float64{1.040}, []float64{20})

	res, err := Evaluate(testFermentation(), readings, DefaultAlertConfig())
	require.NoError(t, err)
	assert.Equal(t, ResultInsufficientData, res.Status)
	assert.Equal(t, 1, res.ReadingsCount)
	assert.Empty(t, res.Events)
	assert.Zero(t, res.CurrentGravity)
}

func TestEvaluate_NoReadings(t *testing.T) {
	res, err := Evaluate(testFermentation(), nil, DefaultAlertConfig())
	require.NoError(t, err)
	assert.Equal(t, ResultInsufficientData, res.Status)
	assert.Equal(t, 0, res.ReadingsCount)
}

func TestEvaluate_Metrics(t *testing.T) {
	readings := hourly([]float64{1.040, 1.030}, []float64{19, 18.5})
	conf := DefaultAlertConfig()
	conf.GravityStabilityThreshold = 0.001

	res, err := Evaluate(testFermentation(), readings, conf)
	require.NoError(t, err)
	assert.Equal(t, ResultAnalyzed, res.Status)
	assert.Equal(t, 1.030, res.CurrentGravity)
	assert.Equal(t, 18.5, res.CurrentTemperature)
	assert.InDelta(t, 40.0, res.CurrentAttenuationPercent, 1e-9)
	assert.Equal(t, 2, res.ReadingsCount)
	assert.Empty(t, res.Events)
}

func TestEvaluate_AllRulesFireInFixedOrder(t *testing.T) {
	readings := hourly(
		[]float64{1.012, 1.011, 1.010, 1.009, 1.008},
		[]float64{20, 19.5, 19, 18.5, 18},
	)

	res, err := Evaluate(testFermentation(), readings, DefaultAlertConfig())
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		KindAttenuationReached,
		KindGravityStable,
		KindTemperatureDescended,
		KindTrendForecast,
	}, kinds(res.Events))
}

func TestEvaluate_OrderHoldsWithSubset(t *testing.T) {
	// no attenuation, no plateau: only descent and forecast fire
	readings := hourly(
		[]float64{1.050, 1.040, 1.030, 1.020, 1.030},
		[]float64{22, 21, 20, 19, 18},
	)
	conf := DefaultAlertConfig()
	conf.GravityStabilityThreshold = 0.001

	res, err := Evaluate(testFermentation(), readings, conf)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{KindTemperatureDescended, KindTrendForecast}, kinds(res.Events))
}

func TestEvaluate_Idempotent(t *testing.T) {
	readings := hourly(
		[]float64{1.050, 1.046, 1.041, 1.037, 1.030, 1.026},
		[]float64{20, 20.2, 19.8, 19.1, 19, 18.7},
	)
	f := testFermentation()
	conf := DefaultAlertConfig()

	a, err := Evaluate(f, readings, conf)
	require.NoError(t, err)
	b, err := Evaluate(f, readings, conf)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	readings := hourly([]float64{1.050, 1.046, 1.041}, []float64{20, 19, 18})
	before := append([]Reading(nil), readings...)

	_, err := Evaluate(testFermentation(), readings, DefaultAlertConfig())
	require.NoError(t, err)
	assert.Equal(t, before, readings)
}

func TestEvaluate_UnsortedReadings(t *testing.T) {
	readings := hourly([]float64{1.050, 1.046, 1.041}, []float64{20, 19, 18})
	readings[1], readings[2] = readings[2], readings[1]

	res, err := Evaluate(testFermentation(), readings, DefaultAlertConfig())
	assert.ErrorIs(t, err, ErrUnsortedReadings)
	assert.Equal(t, Result{}, res)
}

func TestEvaluate_MalformedReading(t *testing.T) {
	readings := hourly([]float64{1.050, math.NaN()}, []float64{20, math.NaN()})

	_, err := Evaluate(testFermentation(), readings, DefaultAlertConfig())
	assert.ErrorIs(t, err, ErrMalformedReading)

	readings = []Reading{{Gravity: 1.05, Temperature: 20}, {TimeBasis: t0, Gravity: 1.04, Temperature: 20}}
	_, err = Evaluate(testFermentation(), readings, DefaultAlertConfig())
	assert.ErrorIs(t, err, ErrMalformedReading)
}

func TestEvaluate_InvalidConfig(t *testing.T) {
	readings := hourly([]float64{1.050, 1.046}, []float64{20, 19})

	_, err := Evaluate(testFermentation(), readings, AlertConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEvaluate_EqualTimestampsAllowed(t *testing.T) {
	readings := []Reading{
		{TimeBasis: t0, Gravity: 1.04, Temperature: 20},
		{TimeBasis: t0, Gravity: 1.04, Temperature: 20},
	}
	res, err := Evaluate(testFermentation(), readings, DefaultAlertConfig())
	require.NoError(t, err)
	assert.Equal(t, ResultAnalyzed, res.Status)
}

// --- Config ---

func TestNewAlertConfig_Valid(t *testing.T) {
	conf, err := NewAlertConfig(0.8, 12, 0.5, 6, 0.5)
	require.NoError(t, err)
	assert.Equal(t, DefaultAlertConfig(), conf)
}

func TestNewAlertConfig_RejectsNonPositive(t *testing.T) {
	cases := map[string][5]float64{
		"attenuation":         {0, 12, 0.5, 6, 0.5},
		"stability hours":     {0.8, -1, 0.5, 6, 0.5},
		"stability threshold": {0.8, 12, 0, 6, 0.5},
		"descent hours":       {0.8, 12, 0.5, 0, 0.5},
		"descent threshold":   {0.8, 12, 0.5, 6, math.NaN()},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewAlertConfig(c[0], c[1], c[2], c[3], c[4])
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// --- JSON ---

func TestResult_JSONCarriesEventType(t *testing.T) {
	res := Result{
		Status: ResultAnalyzed,
		Events: []Event{
			AttenuationReached{MeasuredPercent: 82, ThresholdPercent: 80},
			TrendForecast{HoursToTarget: 3, PredictedFinalGravity: 1.011},
		},
	}
	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded struct {
		Status string           `json:"status"`
		Alerts []map[string]any `json:"alerts_triggered"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Alerts, 2)
	assert.Equal(t, "analyzed", decoded.Status)
	assert.Equal(t, "attenuation_reached", decoded.Alerts[0]["type"])
	assert.Equal(t, 82.0, decoded.Alerts[0]["value"])
	assert.Equal(t, "trend_forecast", decoded.Alerts[1]["type"])
	assert.Equal(t, 1.011, decoded.Alerts[1]["predicted_fg"])
}
