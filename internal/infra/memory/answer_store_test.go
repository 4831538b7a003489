package memory

import (
	"context"
	"testing"
	"time"

	"elearn-platform/internal/domain"
)

func TestUpsertIsIdempotentPerQuestion(t *testing.T) {
	store := NewAnswerStore()

	store.Upsert(domain.AnswerRecord{QuestionID: "q1", Choice: "A", Correct: true, AnsweredAt: time.Unix(1, 0)})
	store.Upsert(domain.AnswerRecord{QuestionID: "q2", Choice: "B", Correct: false, AnsweredAt: time.Unix(2, 0)})
	store.Upsert(domain.AnswerRecord{QuestionID: "q1", Choice: "C", Correct: false, AnsweredAt: time.Unix(3, 0)})

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	// Overwritten q1 keeps its original position with replaced fields.
	if all[0].QuestionID != "q1" || all[0].Choice != "C" || all[0].Correct {
		t.Fatalf("expected q1 first with choice C, got %+v", all[0])
	}
	if all[1].QuestionID != "q2" || all[1].Choice != "B" {
		t.Fatalf("expected q2 second with choice B, got %+v", all[1])
	}
}

func TestClearEmptiesStore(t *testing.T) {
	store := NewAnswerStore()
	store.Upsert(domain.AnswerRecord{QuestionID: "q1", Choice: "A"})
	store.Clear()
	if len(store.All()) != 0 {
		t.Fatalf("expected empty store after clear")
	}
	if _, ok := store.Get("q1"); ok {
		t.Fatalf("expected q1 gone after clear")
	}
}

func TestFactoryReusesStorePerSession(t *testing.T) {
	factory := NewAnswerStoreFactory()
	ctx := context.Background()

	first := factory.ForSession(ctx, "device-1")
	first.Upsert(domain.AnswerRecord{QuestionID: "q1", Choice: "A"})

	// Same session ID sees earlier answers; another session does not.
	again := factory.ForSession(ctx, "device-1")
	if _, ok := again.Get("q1"); !ok {
		t.Fatalf("expected same-session store to retain answers")
	}
	other := factory.ForSession(ctx, "device-2")
	if _, ok := other.Get("q1"); ok {
		t.Fatalf("expected sessions to be isolated")
	}
}
