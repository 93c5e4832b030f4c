package records

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is the in-memory fallback store, used when the service
// runs without a redis instance (local development, tests).
type MemoryRepo struct {
	mutex   sync.RWMutex
	records map[string]map[string]WeightRecord
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]map[string]WeightRecord),
	}
}

func (r *MemoryRepo) Store(_ context.Context, record WeightRecord) (*WeightRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	userRecords, ok := r.records[record.UserID]
	if !ok {
		userRecords = make(map[string]WeightRecord)
		r.records[record.UserID] = userRecords
	}
	userRecords[record.ID] = record

	return &record, nil
}

func (r *MemoryRepo) Get(_ context.Context, userID, recordID string) (*WeightRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	record, ok := r.records[userID][recordID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &record, nil
}

func (r *MemoryRepo) List(_ context.Context, userID string) ([]WeightRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	recordsList := make([]WeightRecord, 0, len(r.records[userID]))
	for _, record := range r.records[userID] {
		recordsList = append(recordsList, record)
	}

	sort.SliceStable(recordsList, func(i, j int) bool {
		return recordsList[i].Date.After(recordsList[j].Date.Time)
	})

	return recordsList, nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID, recordID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.records[userID][recordID]; !ok {
		return ErrRecordNotFound
	}
	delete(r.records[userID], recordID)
	return nil
}
