package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fermmon/internal/analysis"
	"fermmon/internal/models"
	"fermmon/internal/structures"
	"fermmon/internal/testutil"
)

func sampleMessage() Message {
	return Message{
		BatchName: "Czech Pils",
		Text:      "<b>Stable gravity detected</b>",
		Record: models.AlertRecord{
			ID:             3,
			FermentationID: 7,
			Kind:           analysis.KindGravityStable,
			Message:        "<b>Stable gravity detected</b>",
			TriggerValues:  json.RawMessage(`{"type":"gravity_stable","variation":0.0003}`),
		},
	}
}

func TestMessage_Payload(t *testing.T) {
	raw, err := sampleMessage().Payload()
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Czech Pils", out["batch_name"])
	assert.Equal(t, "gravity_stable", out["alert_type"])
	assert.Equal(t, float64(7), out["fermentation_id"])
	assert.Equal(t, 0.0003, out["trigger_values"].(map[string]interface{})["variation"])
}

func TestMultiNotifier_ContinuesAfterFailure(t *testing.T) {
	failing := &recordingNotifier{name: "broken", err: errors.New("boom")}
	ok := &recordingNotifier{name: "ok"}
	logger := &testutil.MockLogger{}

	m := NewMultiNotifier(logger, failing, ok)
	err := m.Notify(context.Background(), sampleMessage())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
	assert.Len(t, ok.msgs, 1)
	assert.Equal(t, 1, logger.Count("error"))
	assert.Equal(t, []string{"broken", "ok"}, m.Names())
}

func TestLogNotifier_LogsAlert(t *testing.T) {
	logger := &testutil.MockLogger{}
	require.NoError(t, NewLogNotifier(logger).Notify(context.Background(), sampleMessage()))
	assert.Equal(t, 1, logger.Count("info"))
}

func TestNewNotifierProvider_OnlyLogByDefault(t *testing.T) {
	m := NewNotifierProvider(&structures.Config{}, &testutil.MockLogger{})
	assert.Equal(t, []string{"log"}, m.Names())
}

func TestNewNotifierProvider_EnabledTransports(t *testing.T) {
	conf := &structures.Config{
		Telegram: structures.TelegramConfig{Enabled: true, ApiURL: "http://localhost", BotToken: "t", ChatID: "1"},
		Kafka:    structures.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "fermmon.alerts"},
	}
	m := NewNotifierProvider(conf, &testutil.MockLogger{})
	assert.Equal(t, []string{"log", "telegram", "kafka"}, m.Names())
	require.NoError(t, m.Close())
}

func TestRender_IncludesValuesAndEscapesBatchName(t *testing.T) {
	res := analyzed()
	text := render("Pils <2026>", res, attenuated)

	assert.Contains(t, text, "Pils &lt;2026&gt;")
	assert.Contains(t, text, "82.1%")
	assert.Contains(t, text, "1.0140")
	assert.Contains(t, text, "diacetyl rest")

	for _, e := range []analysis.Event{
		stable,
		analysis.TemperatureDescended{Descent: 1.2, Threshold: 0.5, WindowHours: 6},
		analysis.TrendForecast{HoursToTarget: 30.4, PredictedFinalGravity: 1.0102},
	} {
		assert.True(t, strings.Contains(render("Pils", res, e), "Batch: Pils"), e.Kind())
	}
	assert.Contains(t, render("Pils", res, stable), "0.0003")
	assert.Contains(t, render("Pils", res, stable), "last 12h")
	assert.Contains(t, render("Pils", res, analysis.TrendForecast{HoursToTarget: 30.4, PredictedFinalGravity: 1.0102}), "30.4h")
}
