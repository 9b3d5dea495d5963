package relations

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// MemoryStore is an in-memory Store used by tests. It can inject a read
// failure for a single relation to exercise partial-read degradation.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*types.RelationRecord

	ListErr   error
	FailGetID string
}

// NewMemoryStore creates an empty in-memory relation store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*types.RelationRecord)}
}

func (s *MemoryStore) IDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var ids []string
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return types.CompareRelationIDs(ids[i], ids[j]) < 0
	})
	return ids, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*types.RelationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var records []*types.RelationRecord
	for _, r := range s.records {
		records = append(records, cloneRecord(r))
	}
	sort.Slice(records, func(i, j int) bool {
		return types.CompareRelationIDs(records[i].ID, records[j].ID) < 0
	})
	return records, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*types.RelationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.FailGetID {
		return nil, &types.TransientIOError{Op: "get relation " + id, Err: context.DeadlineExceeded}
	}
	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("relation not found: %s", id)
	}
	return cloneRecord(r), nil
}

func (s *MemoryStore) SetLocal(ctx context.Context, id string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("relation not found: %s", id)
	}
	r.LocalData = copyFields(fields)
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, record *types.RelationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneRecord(r *types.RelationRecord) *types.RelationRecord {
	return &types.RelationRecord{
		ID:         r.ID,
		Role:       r.Role,
		LocalData:  copyFields(r.LocalData),
		RemoteData: copyFields(r.RemoteData),
	}
}
