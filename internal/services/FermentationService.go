package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"

	"fermmon/internal/analysis"
	"fermmon/internal/dispatch"
	"fermmon/internal/models"
	"fermmon/internal/providers"
	"fermmon/internal/structures"
)

var ErrInvalidReading = errors.New("invalid reading")

const evaluationTimeout = 30 * time.Second

type FermentationServiceInterface interface {
	CreateFermentation(in *models.InputFermentation) (*models.Fermentation, error)
	ListFermentations() []*models.Fermentation
	GetFermentation(id int64) (*models.Fermentation, error)
	ActiveFermentation() (*models.Fermentation, error)
	UpdateStatus(id int64, status analysis.FermentationStatus) (*models.Fermentation, error)
	IngestReading(in *models.InputReading) (*models.Reading, error)
	LastReading(fermentationID int64) (models.Reading, bool)
	Readings(fermentationID int64, hours float64) ([]models.Reading, error)
	History(fermentationID int64) (*models.Fermentation, []models.Reading, error)
	Analyze(fermentationID int64) (analysis.Result, error)
	Alerts(fermentationID int64) ([]models.AlertRecord, error)
	AcknowledgeAlert(id int64) (models.AlertRecord, error)
	Evaluations() uint64
	Revision() uint64
	Wait()
}

type FermentationService struct {
	store       *models.FermentationStore
	dispatcher  dispatch.DispatcherInterface
	alertConf   analysis.AlertConfig
	basis       models.TimeBasis
	lookback    time.Duration
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	evaluations *atomic.Uint64
	background  sync.WaitGroup
	now         func() time.Time
}

func NewFermentationService(conf *structures.Config, store *models.FermentationStore, dispatcher dispatch.DispatcherInterface, alertConf analysis.AlertConfig, logger providers.Logger, metrics providers.MetricsProviderInterface) FermentationServiceInterface {
	basis := models.TimeBasis(conf.Analysis.TimeBasis)
	if basis != models.TimeBasisSensor {
		basis = models.TimeBasisIngested
	}
	return &FermentationService{
		store:       store,
		dispatcher:  dispatcher,
		alertConf:   alertConf,
		basis:       basis,
		lookback:    hoursToDuration(conf.Analysis.LookbackHours),
		logger:      logger,
		metrics:     metrics,
		evaluations: atomic.NewUint64(0),
		now:         time.Now,
	}
}

func (s *FermentationService) CreateFermentation(in *models.InputFermentation) (*models.Fermentation, error) {
	f, err := s.store.CreateFermentation(in)
	if err != nil {
		return nil, err
	}
	s.logger.Infof(providers.TypeApp, "Created fermentation %d %q (OG %.4f, FG target %.4f)", f.ID, f.BatchName, f.OG, f.FGTarget)
	return f, nil
}

func (s *FermentationService) ListFermentations() []*models.Fermentation {
	return s.store.ListFermentations()
}

func (s *FermentationService) GetFermentation(id int64) (*models.Fermentation, error) {
	return s.store.GetFermentation(id)
}

func (s *FermentationService) ActiveFermentation() (*models.Fermentation, error) {
	return s.store.ActiveFermentation()
}

func (s *FermentationService) UpdateStatus(id int64, status analysis.FermentationStatus) (*models.Fermentation, error) {
	f, err := s.store.UpdateStatus(id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Infof(providers.TypeApp, "Fermentation %d is now %s", id, status)
	return f, nil
}

// IngestReading attaches the reading to the active fermentation and schedules
// an evaluation. The evaluation runs in the background.
func (s *FermentationService) IngestReading(in *models.InputReading) (*models.Reading, error) {
	if !isFinite(in.Gravity) || !isFinite(in.Temperature) || in.Gravity <= 0 {
		return nil, fmt.Errorf("%w: gravity %v, temperature %v", ErrInvalidReading, in.Gravity, in.Temperature)
	}

	f, err := s.store.ActiveFermentation()
	if err != nil {
		return nil, err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	stored, err := s.store.AddReading(f.ID, models.Reading{
		Timestamp:          ts,
		Gravity:            in.Gravity,
		Temperature:        in.Temperature,
		Battery:            in.Battery,
		AttenuationPercent: analysis.Attenuation(f.OG, in.Gravity) * 100,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncReadingsIngested()
	s.logger.Debugf(providers.TypeApp, "Reading %d for fermentation %d: SG %.4f, %.1f°C", stored.ID, f.ID, stored.Gravity, stored.Temperature)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.evaluate(f.ID)
	}()

	return &stored, nil
}

func (s *FermentationService) evaluate(fermentationID int64) {
	f, err := s.store.GetFermentation(fermentationID)
	if err != nil {
		s.logger.Errorf(providers.TypeAnalysis, "Evaluation skipped: %s", err)
		return
	}
	res, readingID, err := s.analyze(fermentationID)
	if err != nil {
		s.logger.Errorf(providers.TypeAnalysis, "Evaluation of fermentation %d failed: %s", fermentationID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), evaluationTimeout)
	defer cancel()
	if err := s.dispatcher.Dispatch(ctx, f, readingID, res); err != nil {
		s.logger.Errorf(providers.TypeDispatch, "Dispatch for fermentation %d: %s", fermentationID, err)
	}
}

func (s *FermentationService) LastReading(fermentationID int64) (models.Reading, bool) {
	return s.store.LastReading(fermentationID)
}

// Readings returns readings ingested during the last hours. Non-positive hours
// return the whole history.
func (s *FermentationService) Readings(fermentationID int64, hours float64) ([]models.Reading, error) {
	if _, err := s.store.GetFermentation(fermentationID); err != nil {
		return nil, err
	}
	var since time.Time
	if hours > 0 {
		since = s.now().Add(-hoursToDuration(hours))
	}
	return s.store.Readings(fermentationID, since), nil
}

func (s *FermentationService) History(fermentationID int64) (*models.Fermentation, []models.Reading, error) {
	f, err := s.store.GetFermentation(fermentationID)
	if err != nil {
		return nil, nil, err
	}
	return f, s.store.Readings(fermentationID, time.Time{}), nil
}

// Analyze runs the alert rules over the lookback window of a fermentation.
func (s *FermentationService) Analyze(fermentationID int64) (analysis.Result, error) {
	res, _, err := s.analyze(fermentationID)
	return res, err
}

// analyze also returns the id of the newest reading in the window, which
// orders results for the dispatcher.
func (s *FermentationService) analyze(fermentationID int64) (analysis.Result, int64, error) {
	f, err := s.store.GetFermentation(fermentationID)
	if err != nil {
		return analysis.Result{}, 0, err
	}

	var since time.Time
	if s.lookback > 0 {
		since = s.now().Add(-s.lookback)
	}
	stored := s.store.Readings(fermentationID, since)

	var readingID int64
	readings := make([]analysis.Reading, 0, len(stored))
	for _, r := range stored {
		readings = append(readings, r.ForAnalysis(s.basis))
		readingID = max(readingID, r.ID)
	}
	if s.basis == models.TimeBasisSensor {
		sort.SliceStable(readings, func(i, j int) bool {
			return readings[i].TimeBasis.Before(readings[j].TimeBasis)
		})
	}

	res, err := analysis.Evaluate(f.Params(), readings, s.alertConf)
	s.evaluations.Inc()
	if err != nil {
		s.metrics.IncEvaluations("error")
		return analysis.Result{}, 0, fmt.Errorf("fermentation %d: %w", fermentationID, err)
	}
	s.metrics.IncEvaluations(string(res.Status))
	s.logger.Debugf(providers.TypeAnalysis, "Fermentation %d: %s over %d readings, %d events", fermentationID, res.Status, res.ReadingsCount, len(res.Events))
	return res, readingID, nil
}

func (s *FermentationService) Alerts(fermentationID int64) ([]models.AlertRecord, error) {
	if _, err := s.store.GetFermentation(fermentationID); err != nil {
		return nil, err
	}
	return s.store.Alerts(fermentationID), nil
}

func (s *FermentationService) AcknowledgeAlert(id int64) (models.AlertRecord, error) {
	return s.store.AcknowledgeAlert(id)
}

// Evaluations counts rule evaluations since start, including failed ones.
func (s *FermentationService) Evaluations() uint64 {
	return s.evaluations.Load()
}

// Revision changes whenever stored data changes.
func (s *FermentationService) Revision() uint64 {
	return s.store.Revision()
}

// Wait blocks until background evaluations have finished.
func (s *FermentationService) Wait() {
	s.background.Wait()
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
