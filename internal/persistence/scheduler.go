package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"fermmon/internal/persistence/interfaces"
	"fermmon/internal/providers"
	"fermmon/internal/structures"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	fileManager *FileManager
	poller      interfaces.PollerInterface
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc

	// polls tracks running polls; stopped refuses new ones once Stop began
	pollMu  sync.Mutex
	stopped bool
	polls   sync.WaitGroup
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		if err := s.save(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return
		}
		s.logger.Debugf(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
	})

	if s.poller.Enabled() {
		s.cron.AddFunc(gron.Every(s.config.Poller.Interval), s.poll)
		// first reading without waiting a whole interval
		go s.poll()
	}

	s.cron.Start()
}

func (s *Scheduler) poll() {
	s.pollMu.Lock()
	if s.stopped {
		s.pollMu.Unlock()
		return
	}
	s.polls.Add(1)
	s.pollMu.Unlock()
	defer s.polls.Done()

	timeout := s.config.Poller.Timeout * 3
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := s.poller.Poll(ctx); err != nil {
		s.logger.Errorf(providers.TypePoller, "Poll failed: %s", err)
	}
}

func (s *Scheduler) save() error {
	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	return err
}

// Stop halts the jobs, cancels a running poll and waits for it to return, so
// no reading is ingested after Stop.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}

	s.pollMu.Lock()
	s.stopped = true
	s.pollMu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.polls.Wait()
}

func (s *Scheduler) Restore() error {
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting fermentations to file...")
	if err := s.save(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, fileManager *FileManager, poller interfaces.PollerInterface, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		fileManager: fileManager,
		poller:      poller,
		metrics:     metrics,
	}
}
