package memory

import (
	"context"
	"sort"
	"sync"

	"maternidad/internal/correction"
	"maternidad/internal/correction/store"
	"maternidad/pkg/domain"
)

// Store is the in-memory correction request store. The duplicate-pending
// scan runs under the same lock as the insert, mirroring the atomicity the
// postgres partial unique index provides.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	requests map[domain.CorrectionID]correction.Request
}

func New() *Store {
	return &Store{nextID: 1, requests: make(map[domain.CorrectionID]correction.Request)}
}

func (s *Store) Create(_ context.Context, req *correction.Request) (domain.CorrectionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.TargetID == req.TargetID && existing.State == correction.StatePending {
			return 0, store.ErrDuplicatePending
		}
	}
	req.ID = domain.CorrectionID(s.nextID)
	s.nextID++
	s.requests[req.ID] = *req
	return req.ID, nil
}

func (s *Store) Get(_ context.Context, id domain.CorrectionID) (*correction.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &req, nil
}

func (s *Store) List(_ context.Context) ([]correction.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]correction.Request, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req)
	}
	// Most-recent-first, matching the postgres ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) Update(_ context.Context, req *correction.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return store.ErrNotFound
	}
	s.requests[req.ID] = *req
	return nil
}
