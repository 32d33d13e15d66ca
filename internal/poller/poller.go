package poller

import (
	"context"
	"errors"
	"time"

	"fermmon/internal/models"
	"fermmon/internal/providers"
	"fermmon/internal/structures"
)

var ErrNotConfigured = errors.New("rapt credentials are not configured")

const telemetrySpan = 2 * time.Hour

// Ingester is the part of the fermentation service the poller feeds.
type Ingester interface {
	ActiveFermentation() (*models.Fermentation, error)
	LastReading(fermentationID int64) (models.Reading, bool)
	IngestReading(in *models.InputReading) (*models.Reading, error)
}

type Poller struct {
	conf     structures.PollerConfig
	client   *RaptClient
	ingester Ingester
	logger   providers.Logger
	now      func() time.Time
}

func NewPoller(conf *structures.Config, ingester Ingester, logger providers.Logger) *Poller {
	return &Poller{
		conf:     conf.Poller,
		client:   NewRaptClient(conf.Poller),
		ingester: ingester,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *Poller) configured() bool {
	return p.conf.Username != "" && p.conf.Secret != ""
}

// Enabled reports whether periodic polling should be scheduled.
func (p *Poller) Enabled() bool {
	return p.conf.Enabled && p.configured() && p.conf.DeviceID != ""
}

// Poll ingests the newest RAPT sample of the configured device. Samples that
// are not newer than the last stored reading are skipped.
func (p *Poller) Poll(ctx context.Context) error {
	if !p.configured() || p.conf.DeviceID == "" {
		return ErrNotConfigured
	}

	active, err := p.ingester.ActiveFermentation()
	if err != nil {
		p.logger.Warnf(providers.TypePoller, "Poll skipped: %s", err)
		return nil
	}

	token, err := p.client.Token(ctx)
	if err != nil {
		return err
	}

	end := p.now()
	telemetry, err := p.client.Telemetry(ctx, token, p.conf.DeviceID, end.Add(-telemetrySpan), end)
	if err != nil {
		return err
	}
	if len(telemetry) == 0 {
		p.logger.Infof(providers.TypePoller, "No telemetry for device %s in the last %s", p.conf.DeviceID, telemetrySpan)
		return nil
	}

	latest := telemetry[0]
	for _, t := range telemetry[1:] {
		if t.CreatedOn.After(latest.CreatedOn) {
			latest = t
		}
	}

	if last, ok := p.ingester.LastReading(active.ID); ok && !latest.CreatedOn.After(last.Timestamp) {
		p.logger.Debugf(providers.TypePoller, "Sample from %s already stored", latest.CreatedOn.Format(time.RFC3339))
		return nil
	}

	r, err := p.ingester.IngestReading(&models.InputReading{
		Timestamp:   latest.CreatedOn,
		Gravity:     latest.Gravity,
		Temperature: latest.Temperature,
		Battery:     int(latest.Battery),
		DeviceID:    p.conf.DeviceID,
	})
	if err != nil {
		return err
	}
	p.logger.Infof(providers.TypePoller, "Ingested SG %.4f, %.1f°C, attenuation %.1f%% for fermentation %d", r.Gravity, r.Temperature, r.AttenuationPercent, active.ID)
	return nil
}

// Hydrometers lists the devices on the RAPT account.
func (p *Poller) Hydrometers(ctx context.Context) ([]Hydrometer, error) {
	if !p.configured() {
		return nil, ErrNotConfigured
	}
	token, err := p.client.Token(ctx)
	if err != nil {
		return nil, err
	}
	return p.client.Hydrometers(ctx, token)
}
