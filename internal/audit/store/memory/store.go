package memory

import (
	"context"
	"sort"
	"sync"

	"maternidad/internal/audit"
)

// Store is the in-memory audit store used by tests and single-process runs.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	entries  []audit.Entry
	sessions []audit.SessionEntry
}

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) Append(_ context.Context, entry audit.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

func (s *Store) List(_ context.Context, filter audit.Filter) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]audit.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.SubjectType != "" && e.SubjectType != filter.SubjectType {
			continue
		}
		if filter.SubjectID != 0 && e.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Actor != nil && (e.Actor == nil || *e.Actor != *filter.Actor) {
			continue
		}
		matched = append(matched, e)
	}

	// Most-recent-first; id breaks ties within the same timestamp.
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *Store) AppendSession(_ context.Context, entry audit.SessionEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.sessions = append(s.sessions, entry)
	return entry.ID, nil
}

func (s *Store) ListSessions(_ context.Context, limit int) ([]audit.SessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.SessionEntry, len(s.sessions))
	copy(out, s.sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
