package analysis

import json "github.com/goccy/go-json"

type EventKind string

const (
	KindAttenuationReached   EventKind = "attenuation_reached"
	KindGravityStable        EventKind = "gravity_stable"
	KindTemperatureDescended EventKind = "temperature_descended"
	KindTrendForecast        EventKind = "trend_forecast"
)

// Event is one fired alert condition. The set of implementations is closed.
type Event interface {
	Kind() EventKind
	isEvent()
}

type AttenuationReached struct {
	MeasuredPercent  float64 `json:"value"`
	ThresholdPercent float64 `json:"threshold"`
}

type GravityStable struct {
	Variation   float64 `json:"variation"`
	Threshold   float64 `json:"threshold"`
	WindowHours float64 `json:"hours"`
}

type TemperatureDescended struct {
	Descent     float64 `json:"descent"`
	Threshold   float64 `json:"threshold"`
	WindowHours float64 `json:"hours"`
}

type TrendForecast struct {
	HoursToTarget         float64 `json:"hours_to_target"`
	PredictedFinalGravity float64 `json:"predicted_fg"`
}

func (AttenuationReached) Kind() EventKind   { return KindAttenuationReached }
func (GravityStable) Kind() EventKind        { return KindGravityStable }
func (TemperatureDescended) Kind() EventKind { return KindTemperatureDescended }
func (TrendForecast) Kind() EventKind        { return KindTrendForecast }

func (AttenuationReached) isEvent()   {}
func (GravityStable) isEvent()        {}
func (TemperatureDescended) isEvent() {}
func (TrendForecast) isEvent()        {}

func (e AttenuationReached) MarshalJSON() ([]byte, error) {
	type payload AttenuationReached
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		payload
	}{e.Kind(), payload(e)})
}

func (e GravityStable) MarshalJSON() ([]byte, error) {
	type payload GravityStable
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		payload
	}{e.Kind(), payload(e)})
}

func (e TemperatureDescended) MarshalJSON() ([]byte, error) {
	type payload TemperatureDescended
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		payload
	}{e.Kind(), payload(e)})
}

func (e TrendForecast) MarshalJSON() ([]byte, error) {
	type payload TrendForecast
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		payload
	}{e.Kind(), payload(e)})
}
