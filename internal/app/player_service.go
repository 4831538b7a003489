// Package app contains the player-session use cases: joining a video,
// driving the checkpoint engine on ticks, recording answers, and restoring
// state after a reload.
package app

import (
	"context"
	"math"
	"sync"
	"time"

	"elearn-platform/internal/checkpoint"
	"elearn-platform/internal/domain"
	"elearn-platform/internal/engine"
	"elearn-platform/internal/stats"
	"github.com/rs/zerolog"
)

// CheckpointRepository loads checkpoint sets (from cache/backing store).
type CheckpointRepository interface {
	GetSet(ctx context.Context, videoID string) (*checkpoint.Set, error)
}

// AnswerStores hands out the durable answer store for a session, replaying
// any persisted answers for returning sessions.
type AnswerStores interface {
	ForSession(ctx context.Context, sessionID string) engine.AnswerStore
}

// PositionCache persists the last playback position per session.
type PositionCache interface {
	Save(ctx context.Context, sessionID string, state domain.PlaybackState)
	Load(ctx context.Context, sessionID string) (domain.PlaybackState, bool)
}

// Restore is the state replayed to a client when it (re)joins.
type Restore struct {
	Position float64              `json:"position"`
	Answers  []domain.AnswerRecord `json:"answers"`
	Stats    domain.Stats         `json:"stats"`
}

// PlayerService owns the live viewer sessions.
type PlayerService struct {
	checkpoints CheckpointRepository
	answers     AnswerStores
	positions   PositionCache
	engineCfg   engine.Config
	log         zerolog.Logger
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewPlayerService(checkpoints CheckpointRepository, answers AnswerStores, positions PositionCache, cfg engine.Config, log zerolog.Logger) *PlayerService {
	return &PlayerService{
		checkpoints: checkpoints,
		answers:     answers,
		positions:   positions,
		engineCfg:   cfg,
		log:         log,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Join creates (or replaces) the session for a device and returns the state
// to replay: the cached playback position and previously stored answers.
// A video without a configured checkpoint set is a recoverable condition for
// the caller, surfaced as domain.ErrCheckpointSetNotFound.
func (s *PlayerService) Join(ctx context.Context, videoID, sessionID string, clock engine.Clock) (*Session, Restore, error) {
	set, err := s.checkpoints.GetSet(ctx, videoID)
	if err != nil {
		return nil, Restore{}, err
	}

	store := s.answers.ForSession(ctx, sessionID)
	session := &Session{
		id:      sessionID,
		videoID: videoID,
		svc:     s,
		engine:  engine.NewWithNow(set, clock, store, s.engineCfg, s.now),
		store:   store,
	}

	restore := Restore{
		Answers: store.All(),
		Stats:   stats.Compute(store.All()),
	}
	if state, ok := s.positions.Load(ctx, sessionID); ok && state.VideoID == videoID {
		restore.Position = state.PositionSeconds
		session.lastSaved = state.PositionSeconds
	}

	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.log.Info().Str("session", sessionID).Str("video", videoID).
		Int("checkpoints", set.Len()).Int("answers", restore.Stats.Answered).
		Msg("session joined")
	return session, restore, nil
}

// Get returns a live session by ID.
func (s *PlayerService) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

// Leave persists the final playback position and drops the session.
func (s *PlayerService) Leave(ctx context.Context, sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}
	session.persistPosition(ctx, true)
	s.log.Info().Str("session", sessionID).Msg("session left")
}

// Session is one viewer watching one video. All engine interaction is
// serialized behind its mutex: ticks, answers, and dismissals are processed
// one at a time, so a tick arriving mid-answer simply waits its turn.
type Session struct {
	id      string
	videoID string
	svc     *PlayerService
	engine  *engine.Engine
	store   engine.AnswerStore

	mu        sync.Mutex
	duration  float64
	lastSaved float64
}

// SetDuration records the media duration reported by the player's readiness
// callback.
func (s *Session) SetDuration(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = seconds
}

// Tick runs one engine evaluation and opportunistically persists the
// playback position once it has moved a full second.
func (s *Session) Tick(ctx context.Context) (engine.Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompt, fired := s.engine.Tick()
	if fired {
		s.svc.log.Debug().Str("session", s.id).Str("checkpoint", prompt.Checkpoint.ID).
			Float64("position", s.engine.LastPosition()).Msg("checkpoint triggered")
	}
	s.persistPositionLocked(ctx, false)
	return prompt, fired
}

// Answer records the viewer's choice for the active prompt and returns the
// record plus refreshed stats.
func (s *Session) Answer(choice string) (domain.AnswerRecord, domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.engine.Answer(choice)
	if err != nil {
		return domain.AnswerRecord{}, domain.Stats{}, err
	}
	return rec, stats.Compute(s.store.All()), nil
}

// Dismiss closes the active prompt without an answer.
func (s *Session) Dismiss() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Dismiss()
}

// Reset clears all stored answers for the session.
func (s *Session) Reset() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear()
	return stats.Compute(nil)
}

// Stats recomputes the accuracy summary from the answer store.
func (s *Session) Stats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stats.Compute(s.store.All())
}

// Answers returns the stored answer records in first-answer order.
func (s *Session) Answers() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

func (s *Session) persistPosition(ctx context.Context, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistPositionLocked(ctx, force)
}

func (s *Session) persistPositionLocked(ctx context.Context, force bool) {
	position := s.engine.LastPosition()
	if !force && math.Abs(position-s.lastSaved) < 1.0 {
		return
	}
	s.lastSaved = position
	s.svc.positions.Save(ctx, s.id, domain.PlaybackState{
		VideoID:         s.videoID,
		PositionSeconds: position,
		DurationSeconds: s.duration,
		UpdatedAt:       s.svc.now().Unix(),
	})
}
