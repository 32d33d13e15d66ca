package dispatch

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"fermmon/internal/models"
	"fermmon/internal/providers"
)

// Message is one rendered alert ready for delivery.
type Message struct {
	BatchName string
	Text      string
	Record    models.AlertRecord
}

// Payload is the machine-readable form sent to brokers.
func (m Message) Payload() ([]byte, error) {
	return json.Marshal(struct {
		models.AlertRecord
		BatchName string `json:"batch_name"`
	}{m.Record, m.BatchName})
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
	Close() error
}

// MultiNotifier delivers to every notifier. One failure does not stop the rest.
type MultiNotifier struct {
	notifiers []Notifier
	logger    providers.Logger
}

func NewMultiNotifier(logger providers.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers, logger: logger}
}

func (m *MultiNotifier) Name() string {
	return "multi"
}

func (m *MultiNotifier) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			m.logger.Errorf(providers.TypeDispatch, "Notifier %s failed for fermentation %d: %s", n.Name(), msg.Record.FermentationID, err)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) Close() error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) Names() []string {
	names := make([]string, 0, len(m.notifiers))
	for _, n := range m.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// LogNotifier writes alerts to the dispatch log. It is always enabled.
type LogNotifier struct {
	logger providers.Logger
}

func NewLogNotifier(logger providers.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Name() string {
	return "log"
}

func (l *LogNotifier) Notify(_ context.Context, msg Message) error {
	l.logger.Infof(providers.TypeDispatch, "Alert %s for %q (fermentation %d)", msg.Record.Kind, msg.BatchName, msg.Record.FermentationID)
	return nil
}

func (l *LogNotifier) Close() error {
	return nil
}
