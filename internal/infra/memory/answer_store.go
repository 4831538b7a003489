package memory

import (
	"context"
	"sync"

	"elearn-platform/internal/domain"
	"elearn-platform/internal/engine"
)

// AnswerStore keeps answer records in memory with stable insertion order.
// An overwritten record keeps its original position but updated fields.
type AnswerStore struct {
	mu    sync.RWMutex
	order []string
	recs  map[string]domain.AnswerRecord
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{recs: make(map[string]domain.AnswerRecord)}
}

// Upsert replaces any existing record for the same question.
func (s *AnswerStore) Upsert(rec domain.AnswerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.QuestionID]; !ok {
		s.order = append(s.order, rec.QuestionID)
	}
	s.recs[rec.QuestionID] = rec
}

func (s *AnswerStore) Get(questionID string) (domain.AnswerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[questionID]
	return rec, ok
}

// All returns records in first-answer order.
func (s *AnswerStore) All() []domain.AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AnswerRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.recs[id])
	}
	return out
}

func (s *AnswerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.recs = make(map[string]domain.AnswerRecord)
}

// AnswerStoreFactory hands out one store per session ID, so a reconnect
// within the same process restores earlier answers.
type AnswerStoreFactory struct {
	mu     sync.Mutex
	stores map[string]*AnswerStore
}

func NewAnswerStoreFactory() *AnswerStoreFactory {
	return &AnswerStoreFactory{stores: make(map[string]*AnswerStore)}
}

func (f *AnswerStoreFactory) ForSession(_ context.Context, sessionID string) engine.AnswerStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	if store, ok := f.stores[sessionID]; ok {
		return store
	}
	store := NewAnswerStore()
	f.stores[sessionID] = store
	return store
}
