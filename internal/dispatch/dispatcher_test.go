package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fermmon/internal/analysis"
	"fermmon/internal/models"
	"fermmon/internal/testutil"
)

type recordingNotifier struct {
	mu   sync.Mutex
	name string
	msgs []Message
	err  error
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingNotifier) Close() error { return nil }

func (r *recordingNotifier) kinds() []analysis.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]analysis.EventKind, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Record.Kind)
	}
	return out
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *recordingNotifier, *models.FermentationStore, *models.Fermentation, *testutil.MockMetrics) {
	t.Helper()
	store := models.NewFermentationStore()
	f, err := store.CreateFermentation(&models.InputFermentation{BatchName: "Czech Pils", OG: 1.048, FGTarget: 1.010})
	require.NoError(t, err)

	notifier := &recordingNotifier{name: "rec"}
	metrics := &testutil.MockMetrics{}
	d := NewDispatcher(store, notifier, &testutil.MockLogger{}, metrics)
	return d, notifier, store, f, metrics
}

func analyzed(events ...analysis.Event) analysis.Result {
	if events == nil {
		events = []analysis.Event{}
	}
	return analysis.Result{
		Status:                    analysis.ResultAnalyzed,
		CurrentGravity:            1.014,
		CurrentTemperature:        12.5,
		CurrentAttenuationPercent: 70.8,
		ReadingsCount:             12,
		Events:                    events,
	}
}

var (
	stable     = analysis.GravityStable{Variation: 0.0003, Threshold: 0.0005, WindowHours: 12}
	attenuated = analysis.AttenuationReached{MeasuredPercent: 82.1, ThresholdPercent: 80}
)

func TestDispatcher_SendsNewEventsAndRecordsAlerts(t *testing.T) {
	d, notifier, store, f, metrics := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(context.Background(), f, 1, analyzed(attenuated, stable)))

	assert.Equal(t, []analysis.EventKind{analysis.KindAttenuationReached, analysis.KindGravityStable}, notifier.kinds())
	alerts := store.Alerts(f.ID)
	require.Len(t, alerts, 2)
	assert.False(t, alerts[0].Acknowledged)
	assert.Contains(t, string(alerts[0].TriggerValues), `"type":"attenuation_reached"`)
	assert.Equal(t, 1, metrics.Dispatched(string(analysis.KindGravityStable)))
}

func TestDispatcher_SuppressesRepeatsUntilCleared(t *testing.T) {
	d, notifier, _, f, metrics := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, f, 2, analyzed(stable)))
	require.NoError(t, d.Dispatch(ctx, f, 3, analyzed(stable)))
	assert.Len(t, notifier.kinds(), 1)
	assert.Equal(t, 1, metrics.Suppressed(string(analysis.KindGravityStable)))
	assert.True(t, d.Latched(f.ID, analysis.KindGravityStable))

	// condition cleared, then fires again
	require.NoError(t, d.Dispatch(ctx, f, 4, analyzed()))
	assert.False(t, d.Latched(f.ID, analysis.KindGravityStable))
	require.NoError(t, d.Dispatch(ctx, f, 5, analyzed(stable)))
	assert.Len(t, notifier.kinds(), 2)
}

func TestDispatcher_InsufficientDataKeepsLatches(t *testing.T) {
	d, notifier, _, f, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, f, 6, analyzed(stable)))
	require.NoError(t, d.Dispatch(ctx, f, 7, analysis.Result{Status: analysis.ResultInsufficientData, Events: []analysis.Event{}}))
	require.NoError(t, d.Dispatch(ctx, f, 8, analyzed(stable)))

	assert.Len(t, notifier.kinds(), 1)
}

func TestDispatcher_LatchesArePerFermentation(t *testing.T) {
	d, notifier, store, f, _ := newTestDispatcher(t)
	_, err := store.UpdateStatus(f.ID, analysis.StatusDone)
	require.NoError(t, err)
	other, err := store.CreateFermentation(&models.InputFermentation{BatchName: "Dunkel", OG: 1.052, FGTarget: 1.013})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, f, 9, analyzed(stable)))
	require.NoError(t, d.Dispatch(ctx, other, 10, analyzed(stable)))

	assert.Len(t, notifier.kinds(), 2)
}

func TestDispatcher_NotifierErrorStillLatches(t *testing.T) {
	d, notifier, store, f, _ := newTestDispatcher(t)
	notifier.err = errors.New("offline")

	err := d.Dispatch(context.Background(), f, 11, analyzed(stable))
	assert.Error(t, err)
	assert.True(t, d.Latched(f.ID, analysis.KindGravityStable))
	assert.Len(t, store.Alerts(f.ID), 1)
}

func TestDispatcher_ConcurrentDispatchSendsOnce(t *testing.T) {
	d, notifier, _, f, _ := newTestDispatcher(t)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(readingID int64) {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), f, readingID, analyzed(stable))
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, notifier.kinds(), 1)
}

func TestDispatcher_StaleResultDoesNotRearm(t *testing.T) {
	d, notifier, _, f, _ := newTestDispatcher(t)
	ctx := context.Background()

	// evaluation of reading 13 finishes before the one of reading 12
	require.NoError(t, d.Dispatch(ctx, f, 13, analyzed(attenuated)))
	require.NoError(t, d.Dispatch(ctx, f, 12, analyzed()))
	assert.True(t, d.Latched(f.ID, analysis.KindAttenuationReached))

	require.NoError(t, d.Dispatch(ctx, f, 14, analyzed(attenuated)))

	assert.Equal(t, []analysis.EventKind{analysis.KindAttenuationReached}, notifier.kinds())
}

func TestDispatcher_SameReadingIsEvaluatedOnce(t *testing.T) {
	d, notifier, store, f, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, f, 3, analyzed(stable)))
	require.NoError(t, d.Dispatch(ctx, f, 3, analyzed()))
	require.NoError(t, d.Dispatch(ctx, f, 4, analyzed(stable)))

	assert.Len(t, notifier.kinds(), 1)
	assert.Len(t, store.Alerts(f.ID), 1)
}

type blockingNotifier struct {
	recordingNotifier
	release chan struct{}
}

func (b *blockingNotifier) Notify(ctx context.Context, msg Message) error {
	<-b.release
	return b.recordingNotifier.Notify(ctx, msg)
}

func TestDispatcher_SlowNotifierDoesNotHoldLatches(t *testing.T) {
	store := models.NewFermentationStore()
	f, err := store.CreateFermentation(&models.InputFermentation{BatchName: "Czech Pils", OG: 1.048, FGTarget: 1.010})
	require.NoError(t, err)
	notifier := &blockingNotifier{release: make(chan struct{})}
	d := NewDispatcher(store, notifier, &testutil.MockLogger{}, &testutil.MockMetrics{})

	done := make(chan error, 1)
	go func() { done <- d.Dispatch(context.Background(), f, 1, analyzed(stable)) }()

	// the latch is taken before the notifier returns
	assert.Eventually(t, func() bool { return d.Latched(f.ID, analysis.KindGravityStable) }, time.Second, 5*time.Millisecond)
	close(notifier.release)
	require.NoError(t, <-done)
	assert.Len(t, notifier.kinds(), 1)
}
