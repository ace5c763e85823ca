package persistence

import (
	"sync"

	"github.com/wfunc/dicebox/models"
)

// MemoryJournal keeps records for the lifetime of the process.
type MemoryJournal struct {
	records map[string][]models.PressRecord
	mutex   sync.RWMutex
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		records: make(map[string][]models.PressRecord),
	}
}

func (j *MemoryJournal) SavePress(record models.PressRecord) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	j.records[record.Owner] = append(j.records[record.Owner], record)
	return nil
}

func (j *MemoryJournal) LoadHistory(owner string, limit int) ([]models.PressRecord, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	all := j.records[owner]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]models.PressRecord, len(all))
	copy(out, all)
	return out, nil
}

func (j *MemoryJournal) LastPress(owner string) (models.PressRecord, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	all := j.records[owner]
	if len(all) == 0 {
		return models.PressRecord{}, ErrRecordNotFound
	}
	return all[len(all)-1], nil
}

func (j *MemoryJournal) Close() error {
	return nil
}
