package dispatch

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"

	"fermmon/internal/analysis"
	"fermmon/internal/models"
	"fermmon/internal/providers"
)

type DispatcherInterface interface {
	Dispatch(ctx context.Context, f *models.Fermentation, readingID int64, res analysis.Result) error
}

// Dispatcher forwards evaluation events to the notifiers. A kind is sent once
// and then latched for that fermentation until an evaluation in which it does
// not fire. Results are ordered by the newest reading they cover; one that is
// not newer than the last seen result is dropped.
type Dispatcher struct {
	mu       sync.Mutex
	latched  map[int64]map[analysis.EventKind]struct{}
	seen     map[int64]int64
	store    *models.FermentationStore
	notifier Notifier
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewDispatcher(store *models.FermentationStore, notifier Notifier, logger providers.Logger, metrics providers.MetricsProviderInterface) *Dispatcher {
	return &Dispatcher{
		latched:  make(map[int64]map[analysis.EventKind]struct{}),
		seen:     make(map[int64]int64),
		store:    store,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch applies res to the latches of f and notifies about every kind that
// became due. readingID is the newest reading res was computed from.
func (d *Dispatcher) Dispatch(ctx context.Context, f *models.Fermentation, readingID int64, res analysis.Result) error {
	due, err := d.latch(f, readingID, res)

	// network I/O stays outside the latch lock
	for _, msg := range due {
		if nerr := d.notifier.Notify(ctx, msg); nerr != nil {
			err = nerr
		}
	}
	return err
}

// latch updates the latch set under the lock and records an alert for every
// newly due kind.
func (d *Dispatcher) latch(f *models.Fermentation, readingID int64, res analysis.Result) ([]Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.seen[f.ID]; ok && readingID <= last {
		d.logger.Debugf(providers.TypeDispatch, "Dropped result for fermentation %d up to reading %d, already at %d", f.ID, readingID, last)
		return nil, nil
	}
	d.seen[f.ID] = readingID

	if res.Status != analysis.ResultAnalyzed {
		return nil, nil
	}

	latched := d.latched[f.ID]
	if latched == nil {
		latched = make(map[analysis.EventKind]struct{})
		d.latched[f.ID] = latched
	}

	fired := make(map[analysis.EventKind]struct{}, len(res.Events))
	for _, e := range res.Events {
		fired[e.Kind()] = struct{}{}
	}
	for kind := range latched {
		if _, ok := fired[kind]; !ok {
			delete(latched, kind)
			d.logger.Debugf(providers.TypeDispatch, "Re-armed %s for fermentation %d", kind, f.ID)
		}
	}

	var due []Message
	var lastErr error
	for _, e := range res.Events {
		kind := e.Kind()
		if _, ok := latched[kind]; ok {
			d.metrics.IncAlertsSuppressed(string(kind))
			continue
		}
		latched[kind] = struct{}{}

		values, err := json.Marshal(e)
		if err != nil {
			d.logger.Errorf(providers.TypeDispatch, "Failed to encode %s: %s", kind, err)
			lastErr = err
			continue
		}

		msg := Message{BatchName: f.BatchName, Text: render(f.BatchName, res, e)}
		msg.Record = d.store.AddAlert(models.AlertRecord{
			FermentationID: f.ID,
			Kind:           kind,
			Message:        msg.Text,
			TriggerValues:  values,
		})
		d.metrics.IncAlertsDispatched(string(kind))
		due = append(due, msg)
	}
	return due, lastErr
}

// Latched reports whether kind is currently suppressed for the fermentation.
func (d *Dispatcher) Latched(fermentationID int64, kind analysis.EventKind) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.latched[fermentationID][kind]
	return ok
}
