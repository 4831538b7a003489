package engine

import (
	"testing"
	"time"

	"elearn-platform/internal/checkpoint"
	"elearn-platform/internal/domain"
)

// fakeClock scripts positions and records transport calls.
type fakeClock struct {
	position float64
	pauses   int
	resumes  int
	seeks    []float64
}

func (c *fakeClock) CurrentPosition() float64 { return c.position }
func (c *fakeClock) Pause()                   { c.pauses++ }
func (c *fakeClock) Resume()                  { c.resumes++ }
func (c *fakeClock) Seek(s float64)           { c.seeks = append(c.seeks, s) }

// fakeStore is a minimal in-memory AnswerStore for engine tests.
type fakeStore struct {
	order []string
	recs  map[string]domain.AnswerRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: make(map[string]domain.AnswerRecord)}
}

func (s *fakeStore) Upsert(rec domain.AnswerRecord) {
	if _, ok := s.recs[rec.QuestionID]; !ok {
		s.order = append(s.order, rec.QuestionID)
	}
	s.recs[rec.QuestionID] = rec
}

func (s *fakeStore) Get(id string) (domain.AnswerRecord, bool) {
	rec, ok := s.recs[id]
	return rec, ok
}

func (s *fakeStore) All() []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.recs[id])
	}
	return out
}

func (s *fakeStore) Clear() {
	s.order = nil
	s.recs = make(map[string]domain.AnswerRecord)
}

type fixture struct {
	engine *Engine
	clock  *fakeClock
	store  *fakeStore
	now    time.Time
}

func newFixture(t *testing.T, entries ...checkpoint.RawEntry) *fixture {
	t.Helper()
	if entries == nil {
		entries = []checkpoint.RawEntry{
			{ID: "q1", At: "5", Prompt: "first", Choices: []string{"A", "B"}, Answer: "A"},
			{ID: "q2", At: "25", Prompt: "second", Choices: []string{"Yes", "No"}, Answer: "Yes"},
		}
	}
	set, err := checkpoint.Build(entries)
	if err != nil {
		t.Fatalf("build set: %v", err)
	}
	f := &fixture{clock: &fakeClock{}, store: newFakeStore(), now: time.Unix(1000, 0)}
	f.engine = NewWithNow(set, f.clock, f.store, Config{ProximityThreshold: 0.3, TriggerCooldown: 2 * time.Second}, func() time.Time { return f.now })
	return f
}

func (f *fixture) tickAt(position float64, advance time.Duration) (Prompt, bool) {
	f.now = f.now.Add(advance)
	f.clock.position = position
	return f.engine.Tick()
}

func TestTriggersOnceInsideWindow(t *testing.T) {
	f := newFixture(t)

	fired := 0
	for _, pos := range []float64{4.8, 4.9, 5.0, 5.1, 5.2} {
		prompt, ok := f.tickAt(pos, 100*time.Millisecond)
		if ok {
			fired++
			if prompt.Checkpoint.ID != "q1" {
				t.Fatalf("expected q1, got %s", prompt.Checkpoint.ID)
			}
			// Fires on the first tick entering the window, pausing playback.
			if pos != 4.8 {
				t.Fatalf("expected trigger at 4.8, got %v", pos)
			}
			// Clear the prompt so later ticks reach trigger evaluation.
			f.engine.Dismiss()
		}
	}
	if fired != 1 {
		t.Fatalf("expected exactly one trigger, got %d", fired)
	}
	if f.clock.pauses != 1 {
		t.Fatalf("expected one pause, got %d", f.clock.pauses)
	}
}

func TestNoRetroactiveTriggerOnSeekPast(t *testing.T) {
	f := newFixture(t)

	if _, ok := f.tickAt(1.0, 100*time.Millisecond); ok {
		t.Fatalf("unexpected trigger at 1.0")
	}
	// Position jumps straight over the checkpoint at 5.0.
	if _, ok := f.tickAt(30.0, 100*time.Millisecond); ok {
		t.Fatalf("checkpoint must not fire retroactively after a seek past it")
	}
}

func TestPromptingSuppressesScanning(t *testing.T) {
	f := newFixture(t,
		checkpoint.RawEntry{ID: "q1", At: "5", Prompt: "first", Choices: []string{"A"}, Answer: "A"},
		checkpoint.RawEntry{ID: "q2", At: "5", Prompt: "second", Choices: []string{"B"}, Answer: "B"},
	)

	prompt, ok := f.tickAt(5.0, 100*time.Millisecond)
	if !ok || prompt.Checkpoint.ID != "q1" {
		t.Fatalf("expected q1 to fire first, got %+v ok=%v", prompt, ok)
	}
	// While prompting, ticks cache position but never evaluate triggers.
	if _, ok := f.tickAt(5.1, 100*time.Millisecond); ok {
		t.Fatalf("no trigger may fire while a prompt is showing")
	}
	if f.engine.LastPosition() != 5.1 {
		t.Fatalf("position must still be cached while prompting, got %v", f.engine.LastPosition())
	}

	// After answering, q2 is still in-window and fires on the next tick.
	if _, err := f.engine.Answer("A"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	prompt, ok = f.tickAt(5.1, 100*time.Millisecond)
	if !ok || prompt.Checkpoint.ID != "q2" {
		t.Fatalf("expected q2 after prompt cleared, got %+v ok=%v", prompt, ok)
	}
}

func TestCooldownBlocksImmediateRefire(t *testing.T) {
	f := newFixture(t)

	if _, ok := f.tickAt(5.0, 100*time.Millisecond); !ok {
		t.Fatalf("expected trigger")
	}
	f.engine.Dismiss()

	// Still in-window but inside the 2 s cooldown: no refire.
	if _, ok := f.tickAt(5.0, 500*time.Millisecond); ok {
		t.Fatalf("cooldown must suppress refire")
	}
	// Past the cooldown and still in-window (viewer seeked back): refires.
	if _, ok := f.tickAt(5.0, 3*time.Second); !ok {
		t.Fatalf("expected refire after cooldown")
	}
}

func TestAnswerRecordsAndResumes(t *testing.T) {
	f := newFixture(t)

	if _, ok := f.tickAt(5.0, 100*time.Millisecond); !ok {
		t.Fatalf("expected trigger")
	}
	rec, err := f.engine.Answer("B")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if rec.QuestionID != "q1" || rec.Correct {
		t.Fatalf("expected incorrect answer for q1, got %+v", rec)
	}
	if f.engine.State() != Idle {
		t.Fatalf("expected idle after answer")
	}
	if f.clock.resumes != 1 {
		t.Fatalf("expected resume after answer, got %d", f.clock.resumes)
	}
}

func TestAnswerValidatesChoice(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Answer("A"); err != domain.ErrNoActivePrompt {
		t.Fatalf("expected ErrNoActivePrompt, got %v", err)
	}

	if _, ok := f.tickAt(5.0, 100*time.Millisecond); !ok {
		t.Fatalf("expected trigger")
	}
	if _, err := f.engine.Answer("Z"); err != domain.ErrChoiceNotFound {
		t.Fatalf("expected ErrChoiceNotFound, got %v", err)
	}
	// Prompt stays active; a valid choice still goes through.
	if _, err := f.engine.Answer("A"); err != nil {
		t.Fatalf("answer after invalid choice: %v", err)
	}
}

func TestReanswerOverwritesAndShowsPreviousChoice(t *testing.T) {
	f := newFixture(t)

	if _, ok := f.tickAt(5.0, 100*time.Millisecond); !ok {
		t.Fatalf("expected trigger")
	}
	if _, err := f.engine.Answer("B"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	// Seek back past the cooldown: the prompt shows the earlier choice.
	prompt, ok := f.tickAt(5.0, 5*time.Second)
	if !ok {
		t.Fatalf("expected refire on seek back")
	}
	if !prompt.HasPrevious || prompt.PreviousChoice != "B" {
		t.Fatalf("expected previous choice B, got %+v", prompt)
	}

	rec, err := f.engine.Answer("A")
	if err != nil {
		t.Fatalf("re-answer: %v", err)
	}
	if !rec.Correct {
		t.Fatalf("expected corrected answer")
	}
	if len(f.store.All()) != 1 {
		t.Fatalf("expected one record after overwrite, got %d", len(f.store.All()))
	}
	if got, _ := f.store.Get("q1"); got.Choice != "A" {
		t.Fatalf("expected overwritten choice A, got %s", got.Choice)
	}
}

func TestDismissKeepsCooldown(t *testing.T) {
	f := newFixture(t)

	if f.engine.Dismiss() {
		t.Fatalf("dismiss with no prompt must be a no-op")
	}
	if _, ok := f.tickAt(5.0, 100*time.Millisecond); !ok {
		t.Fatalf("expected trigger")
	}
	if !f.engine.Dismiss() {
		t.Fatalf("expected dismiss to close prompt")
	}
	if f.clock.resumes != 1 {
		t.Fatalf("expected resume on dismiss")
	}
	if len(f.store.All()) != 0 {
		t.Fatalf("dismiss must not write a record")
	}
	if _, ok := f.tickAt(5.1, 100*time.Millisecond); ok {
		t.Fatalf("dismissed checkpoint must not immediately re-fire")
	}
}
