package models

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fermmon/internal/analysis"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrActiveExists         = errors.New("another fermentation is already active")
	ErrNoActiveFermentation = errors.New("no active fermentation")
	ErrInvalidStatus        = errors.New("invalid fermentation status")
)

// FermentationStore keeps batches, their readings and the alert log in memory.
// At most one fermentation is active at any time.
type FermentationStore struct {
	mu            sync.RWMutex
	fermentations map[int64]*Fermentation
	readings      map[int64][]Reading
	alerts        []AlertRecord
	lastFermID    int64
	lastReadingID int64
	lastAlertID   int64
	revision      uint64
	now           func() time.Time
}

func NewFermentationStore() *FermentationStore {
	return newFermentationStore(time.Now)
}

func newFermentationStore(now func() time.Time) *FermentationStore {
	return &FermentationStore{
		fermentations: make(map[int64]*Fermentation),
		readings:      make(map[int64][]Reading),
		now:           now,
	}
}

func (s *FermentationStore) CreateFermentation(in *InputFermentation) (*Fermentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := in.Status
	if status == "" {
		status = analysis.StatusActive
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status == analysis.StatusActive && s.activeLocked() != nil {
		return nil, ErrActiveExists
	}

	now := s.now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	s.lastFermID++
	f := &Fermentation{
		ID:           s.lastFermID,
		BatchName:    in.BatchName,
		YeastProfile: in.YeastProfile,
		OG:           in.OG,
		FGTarget:     in.FGTarget,
		TempTarget:   in.TempTarget,
		BrewfatherID: in.BrewfatherID,
		StartDate:    start,
		Status:       status,
		CreatedAt:    now,
	}
	s.fermentations[f.ID] = f
	s.revision++

	copy := *f
	return &copy, nil
}

func (s *FermentationStore) GetFermentation(id int64) (*Fermentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fermentations[id]
	if !ok {
		return nil, fmt.Errorf("fermentation %d: %w", id, ErrNotFound)
	}
	copy := *f
	return &copy, nil
}

// ListFermentations returns every batch, most recently started first.
func (s *FermentationStore) ListFermentations() []*Fermentation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Fermentation, 0, len(s.fermentations))
	for _, f := range s.fermentations {
		copy := *f
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].ID > result[j].ID
		}
		return result[i].StartDate.After(result[j].StartDate)
	})
	return result
}

func (s *FermentationStore) ActiveFermentation() (*Fermentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.activeLocked()
	if f == nil {
		return nil, ErrNoActiveFermentation
	}
	copy := *f
	return &copy, nil
}

func (s *FermentationStore) activeLocked() *Fermentation {
	var active *Fermentation
	for _, f := range s.fermentations {
		if f.Status != analysis.StatusActive {
			continue
		}
		if active == nil || f.StartDate.After(active.StartDate) {
			active = f
		}
	}
	return active
}

func (s *FermentationStore) UpdateStatus(id int64, status analysis.FermentationStatus) (*Fermentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	f, ok := s.fermentations[id]
	if !ok {
		return nil, fmt.Errorf("fermentation %d: %w", id, ErrNotFound)
	}
	if status == analysis.StatusActive {
		if active := s.activeLocked(); active != nil && active.ID != id {
			return nil, ErrActiveExists
		}
	}
	f.Status = status
	s.revision++

	copy := *f
	return &copy, nil
}

// AddReading appends a reading to a batch and stamps its ingestion time, so
// readings of one batch are always ordered by IngestedAt.
func (s *FermentationStore) AddReading(fermentationID int64, r Reading) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fermentations[fermentationID]; !ok {
		return Reading{}, fmt.Errorf("fermentation %d: %w", fermentationID, ErrNotFound)
	}
	s.lastReadingID++
	r.ID = s.lastReadingID
	r.FermentationID = fermentationID
	r.IngestedAt = s.now()
	if list := s.readings[fermentationID]; len(list) > 0 && r.IngestedAt.Before(list[len(list)-1].IngestedAt) {
		r.IngestedAt = list[len(list)-1].IngestedAt
	}
	s.readings[fermentationID] = append(s.readings[fermentationID], r)
	s.revision++
	return r, nil
}

// Readings returns the readings ingested after since (all of them when since is
// zero), ascending by ingestion time.
func (s *FermentationStore) Readings(fermentationID int64, since time.Time) []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.readings[fermentationID]
	start := sort.Search(len(list), func(i int) bool {
		return list[i].IngestedAt.After(since)
	})
	result := make([]Reading, len(list)-start)
	copy(result, list[start:])
	return result
}

func (s *FermentationStore) LastReading(fermentationID int64) (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.readings[fermentationID]
	if len(list) == 0 {
		return Reading{}, false
	}
	return list[len(list)-1], true
}

func (s *FermentationStore) AddAlert(a AlertRecord) AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAlertID++
	a.ID = s.lastAlertID
	a.CreatedAt = s.now()
	s.alerts = append(s.alerts, a)
	s.revision++
	return a
}

// Alerts returns the alert log of a batch, oldest first.
func (s *FermentationStore) Alerts(fermentationID int64) []AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]AlertRecord, 0)
	for _, a := range s.alerts {
		if a.FermentationID == fermentationID {
			result = append(result, a)
		}
	}
	return result
}

func (s *FermentationStore) AcknowledgeAlert(id int64) (AlertRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Acknowledged = true
			s.revision++
			return s.alerts[i], nil
		}
	}
	return AlertRecord{}, fmt.Errorf("alert %d: %w", id, ErrNotFound)
}

// Revision changes on every write. It is used to key cached responses.
func (s *FermentationStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *FermentationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fermentations)
}
