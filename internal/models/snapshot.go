package models

const SnapshotVersion = 1

// Snapshot is the persisted form of the store.
type Snapshot struct {
	Version       int                 `json:"version"`
	Fermentations []*Fermentation     `json:"fermentations"`
	Readings      map[int64][]Reading `json:"readings"`
	Alerts        []AlertRecord       `json:"alerts"`
}

func (s *FermentationStore) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Version:       SnapshotVersion,
		Fermentations: make([]*Fermentation, 0, len(s.fermentations)),
		Readings:      make(map[int64][]Reading, len(s.readings)),
		Alerts:        append([]AlertRecord(nil), s.alerts...),
	}
	for _, f := range s.fermentations {
		copy := *f
		snap.Fermentations = append(snap.Fermentations, &copy)
	}
	for id, list := range s.readings {
		snap.Readings[id] = append([]Reading(nil), list...)
	}
	return snap
}

// Restore replaces the store content with a snapshot. Id counters continue after
// the highest restored id.
func (s *FermentationStore) Restore(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fermentations = make(map[int64]*Fermentation, len(snap.Fermentations))
	s.readings = make(map[int64][]Reading, len(snap.Readings))
	s.alerts = append([]AlertRecord(nil), snap.Alerts...)
	s.lastFermID, s.lastReadingID, s.lastAlertID = 0, 0, 0

	for _, f := range snap.Fermentations {
		if f == nil {
			continue
		}
		copy := *f
		s.fermentations[f.ID] = &copy
		s.lastFermID = max(s.lastFermID, f.ID)
	}
	for id, list := range snap.Readings {
		s.readings[id] = append([]Reading(nil), list...)
		for _, r := range list {
			s.lastReadingID = max(s.lastReadingID, r.ID)
		}
	}
	for _, a := range s.alerts {
		s.lastAlertID = max(s.lastAlertID, a.ID)
	}
	s.revision++
}
