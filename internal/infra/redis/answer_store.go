package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"elearn-platform/internal/domain"
	"elearn-platform/internal/engine"
	"github.com/redis/go-redis/v9"
)

// AnswerStore is a durable answer store: an in-memory copy is canonical for
// the live session and every change is written through to Redis as one JSON
// list under a session-scoped key, so answers survive a reload. Persistence
// is best-effort; if Redis is down the session keeps working and only the
// survive-reload guarantee is lost.
//
// One writer per session ID is assumed; last write wins on the whole list.
type AnswerStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	mu    sync.RWMutex
	order []string
	recs  map[string]domain.AnswerRecord
}

func newAnswerStore(ctx context.Context, client *redis.Client, sessionID string, ttl time.Duration) *AnswerStore {
	s := &AnswerStore{
		client: client,
		key:    "answers:" + sessionID,
		ttl:    ttl,
		recs:   make(map[string]domain.AnswerRecord),
	}
	s.restore(ctx)
	return s
}

func (s *AnswerStore) restore(ctx context.Context) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		return
	}
	var records []domain.AnswerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return
	}
	for _, rec := range records {
		if _, ok := s.recs[rec.QuestionID]; !ok {
			s.order = append(s.order, rec.QuestionID)
		}
		s.recs[rec.QuestionID] = rec
	}
}

func (s *AnswerStore) Upsert(rec domain.AnswerRecord) {
	s.mu.Lock()
	if _, ok := s.recs[rec.QuestionID]; !ok {
		s.order = append(s.order, rec.QuestionID)
	}
	s.recs[rec.QuestionID] = rec
	snapshot := s.allLocked()
	s.mu.Unlock()

	s.persist(snapshot)
}

func (s *AnswerStore) Get(questionID string) (domain.AnswerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[questionID]
	return rec, ok
}

func (s *AnswerStore) All() []domain.AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allLocked()
}

func (s *AnswerStore) Clear() {
	s.mu.Lock()
	s.order = nil
	s.recs = make(map[string]domain.AnswerRecord)
	s.mu.Unlock()

	_ = s.client.Del(context.Background(), s.key).Err()
}

func (s *AnswerStore) allLocked() []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.recs[id])
	}
	return out
}

func (s *AnswerStore) persist(records []domain.AnswerRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	// best-effort write-through
	_ = s.client.Set(context.Background(), s.key, data, s.ttl).Err()
}

// AnswerStoreFactory builds Redis-backed answer stores, replaying persisted
// answers for returning sessions.
type AnswerStoreFactory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnswerStoreFactory(client *redis.Client, ttl time.Duration) *AnswerStoreFactory {
	return &AnswerStoreFactory{client: client, ttl: ttl}
}

func (f *AnswerStoreFactory) ForSession(ctx context.Context, sessionID string) engine.AnswerStore {
	return newAnswerStore(ctx, f.client, sessionID, f.ttl)
}
