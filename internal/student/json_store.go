package student

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type fileState struct {
	Students map[string]Record `json:"students"`
}

// JSONStore keeps every record in a single JSON document rewritten on each
// mutation. Suitable for a department-sized data set.
type JSONStore struct {
	filePath string
	mu       sync.RWMutex
	state    fileState
	now      func() time.Time
}

func NewJSONStore(filePath string) (*JSONStore, error) {
	s := &JSONStore{
		filePath: filePath,
		state:    fileState{Students: make(map[string]Record)},
		now:      time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) Create(_ context.Context, r Record) (Record, error) {
	r, err := prepareNew(r, s.now())
	if err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Students[r.ID] = r
	return r, s.persistLocked()
}

func (s *JSONStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.Students[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *JSONStore) Update(_ context.Context, r Record) (Record, error) {
	if strings.TrimSpace(r.FullName) == "" {
		return Record{}, ErrNameRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.state.Students[r.ID]
	if !ok {
		return Record{}, ErrNotFound
	}
	r.CreatedAt = prev.CreatedAt
	r.UpdatedAt = s.now()
	s.state.Students[r.ID] = r
	return r, s.persistLocked()
}

func (s *JSONStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Students[id]; !ok {
		return ErrNotFound
	}
	delete(s.state.Students, id)
	return s.persistLocked()
}

func (s *JSONStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(Record) bool { return true }), nil
}

func (s *JSONStore) ListFeatured(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(r Record) bool { return r.Featured }), nil
}

func (s *JSONStore) SetFeatured(_ context.Context, id string, featured bool) (Record, error) {
	return s.mutate(id, func(r *Record) { r.Featured = featured })
}

func (s *JSONStore) AttachCard(_ context.Context, id, cardURL string) (Record, error) {
	return s.mutate(id, func(r *Record) {
		u := cardURL
		r.CardImageURL = &u
	})
}

func (s *JSONStore) mutate(id string, fn func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.Students[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	fn(&r)
	r.UpdatedAt = s.now()
	s.state.Students[id] = r
	return r, s.persistLocked()
}

// sortedLocked returns matching records ordered by creation time, then id,
// so listings are stable across map iteration order.
func (s *JSONStore) sortedLocked(keep func(Record) bool) []Record {
	out := make([]Record, 0, len(s.state.Students))
	for _, r := range s.state.Students {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Students == nil {
		state.Students = make(map[string]Record)
	}
	s.state = state
	return nil
}

func (s *JSONStore) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.filePath)
}
