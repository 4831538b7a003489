// Package engine implements the checkpoint trigger state machine: it watches
// a polled playback position, surfaces each checkpoint's question once per
// approach, and coordinates pausing and resuming the player.
package engine

import (
	"math"
	"time"

	"elearn-platform/internal/checkpoint"
	"elearn-platform/internal/domain"
)

// Clock abstracts the external video player. CurrentPosition is polled on a
// fixed tick; transport controls are fire-and-forget and must tolerate
// redundant calls (pausing a paused player is a no-op).
type Clock interface {
	CurrentPosition() float64
	Pause()
	Resume()
	Seek(seconds float64)
}

// AnswerStore persists one answer record per question. Implementations fail
// soft: a broken durable backing loses persistence across reloads but never
// surfaces an error into the tick path.
type AnswerStore interface {
	Upsert(rec domain.AnswerRecord)
	Get(questionID string) (domain.AnswerRecord, bool)
	All() []domain.AnswerRecord
	Clear()
}

// Config tunes trigger detection. The proximity threshold must stay below the
// position delta of one tick so fast playback cannot step over a window, yet
// above typical poll jitter.
type Config struct {
	ProximityThreshold float64
	TriggerCooldown    time.Duration
}

// DefaultConfig mirrors the reference player: 0.5 s window, 2 s cooldown.
func DefaultConfig() Config {
	return Config{ProximityThreshold: 0.5, TriggerCooldown: 2 * time.Second}
}

// State is the engine's global mode.
type State int

const (
	// Idle means no question is showing; ticks evaluate triggers.
	Idle State = iota
	// Prompting means one question overlay is visible and the clock is
	// paused; ticks only cache position until the prompt clears.
	Prompting
)

// Prompt describes a question surfaced by a trigger. PreviousChoice carries
// an earlier answer to the same question, so a viewer seeking back sees what
// they chose before (and may overwrite it).
type Prompt struct {
	Checkpoint     domain.Checkpoint `json:"checkpoint"`
	PreviousChoice string            `json:"previousChoice,omitempty"`
	HasPrevious    bool              `json:"hasPrevious"`
}

// Engine is the per-viewer trigger state machine. It is not safe for
// concurrent use: the owning session serializes Tick, Answer, and Dismiss
// on a single goroutine (or behind its own lock).
type Engine struct {
	set   *checkpoint.Set
	clock Clock
	store AnswerStore
	cfg   Config
	now   func() time.Time

	state         State
	active        domain.Checkpoint
	lastTriggered map[string]time.Time
	lastPosition  float64
}

func New(set *checkpoint.Set, clock Clock, store AnswerStore, cfg Config) *Engine {
	return NewWithNow(set, clock, store, cfg, time.Now)
}

// NewWithNow allows deterministic cooldown timestamps in tests.
func NewWithNow(set *checkpoint.Set, clock Clock, store AnswerStore, cfg Config, now func() time.Time) *Engine {
	if cfg.ProximityThreshold <= 0 {
		cfg.ProximityThreshold = DefaultConfig().ProximityThreshold
	}
	if cfg.TriggerCooldown <= 0 {
		cfg.TriggerCooldown = DefaultConfig().TriggerCooldown
	}
	return &Engine{
		set:           set,
		clock:         clock,
		store:         store,
		cfg:           cfg,
		now:           now,
		lastTriggered: make(map[string]time.Time),
	}
}

// Tick reads the current position and, while idle, evaluates triggers. It
// returns the prompt to display when a checkpoint fires. Only checkpoints
// inside the proximity window at this instant are considered, so a seek that
// jumps far past a checkpoint between ticks never fires it retroactively.
func (e *Engine) Tick() (Prompt, bool) {
	position := e.clock.CurrentPosition()
	e.lastPosition = position

	if e.state == Prompting {
		return Prompt{}, false
	}

	now := e.now()
	for _, cp := range e.set.Ordered() {
		if math.Abs(position-cp.TriggerSeconds) >= e.cfg.ProximityThreshold {
			continue
		}
		// Cooldown keeps a checkpoint from re-firing on consecutive ticks
		// while the viewer is still near it.
		if last, ok := e.lastTriggered[cp.ID]; ok && now.Sub(last) <= e.cfg.TriggerCooldown {
			continue
		}

		e.lastTriggered[cp.ID] = now
		e.state = Prompting
		e.active = cp
		e.clock.Pause()

		prompt := Prompt{Checkpoint: cp}
		if rec, ok := e.store.Get(cp.ID); ok {
			prompt.PreviousChoice = rec.Choice
			prompt.HasPrevious = true
		}
		return prompt, true
	}
	return Prompt{}, false
}

// Answer records the viewer's choice for the active prompt, replacing any
// earlier record for the same question, then clears the prompt and resumes
// playback. The choice must be one of the checkpoint's options.
func (e *Engine) Answer(choice string) (domain.AnswerRecord, error) {
	if e.state != Prompting {
		return domain.AnswerRecord{}, domain.ErrNoActivePrompt
	}
	valid := false
	for _, option := range e.active.Choices {
		if option == choice {
			valid = true
			break
		}
	}
	if !valid {
		return domain.AnswerRecord{}, domain.ErrChoiceNotFound
	}

	rec := domain.AnswerRecord{
		QuestionID: e.active.ID,
		Choice:     choice,
		Correct:    choice == e.active.CorrectAnswer,
		AnsweredAt: e.now(),
	}
	e.store.Upsert(rec)
	e.state = Idle
	e.clock.Resume()
	return rec, nil
}

// Dismiss closes the active prompt without recording an answer. The trigger
// timestamp set when the prompt fired stays in place, so the checkpoint will
// not immediately re-fire.
func (e *Engine) Dismiss() bool {
	if e.state != Prompting {
		return false
	}
	e.state = Idle
	e.clock.Resume()
	return true
}

// State reports the engine's current mode.
func (e *Engine) State() State {
	return e.state
}

// Active returns the checkpoint currently being prompted.
func (e *Engine) Active() (domain.Checkpoint, bool) {
	if e.state != Prompting {
		return domain.Checkpoint{}, false
	}
	return e.active, true
}

// LastPosition is the playback position observed on the most recent tick,
// cached even while prompting so it can be persisted for reload recovery.
func (e *Engine) LastPosition() float64 {
	return e.lastPosition
}
