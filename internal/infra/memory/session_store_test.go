package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if err := store.Create(ctx, sampleSession("s1", "class-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.FindActive(ctx, "class-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected no active session yet, got %v", err)
	}

	started, err := store.Update(ctx, "s1", func(s *domain.LiveSession) error {
		return s.Start(time.Now())
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", started.Status)
	}
	active, err := store.FindActive(ctx, "class-1")
	if err != nil || active.ID != "s1" {
		t.Fatalf("expected s1 active, got %+v err=%v", active, err)
	}

	if err := store.Create(ctx, sampleSession("s2", "class-1")); !errors.Is(err, domain.ErrConflictingSession) {
		t.Fatalf("expected conflicting session, got %v", err)
	}

	if _, err := store.Update(ctx, "s1", func(s *domain.LiveSession) error {
		return s.End(time.Now())
	}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := store.FindActive(ctx, "class-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected active marker cleared, got %v", err)
	}
	if err := store.Create(ctx, sampleSession("s2", "class-1")); err != nil {
		t.Fatalf("create after end: %v", err)
	}

	sessions, err := store.ListByClass(ctx, "class-1")
	if err != nil || len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d err=%v", len(sessions), err)
	}
}

func TestSessionStoreRejectsSecondActivation(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.Create(ctx, sampleSession("s1", "class-1"))
	_ = store.Create(ctx, sampleSession("s2", "class-1"))

	start := func(s *domain.LiveSession) error { return s.Start(time.Now()) }
	if _, err := store.Update(ctx, "s1", start); err != nil {
		t.Fatalf("start s1: %v", err)
	}
	if _, err := store.Update(ctx, "s2", start); !errors.Is(err, domain.ErrConflictingSession) {
		t.Fatalf("expected conflicting session, got %v", err)
	}
	s2, _ := store.Get(ctx, "s2")
	if s2.Status != domain.StatusCreated {
		t.Fatalf("rejected update must not persist, got %s", s2.Status)
	}
}

func TestSessionStoreFailedMutationIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.Create(ctx, sampleSession("s1", "class-1"))

	_, err := store.Update(ctx, "s1", func(s *domain.LiveSession) error {
		s.CurrentQuestionIndex = 5
		return domain.ErrInvalidTransition
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected mutation error, got %v", err)
	}
	s, _ := store.Get(ctx, "s1")
	if s.CurrentQuestionIndex != 0 {
		t.Fatalf("expected untouched index, got %d", s.CurrentQuestionIndex)
	}
	if _, err := store.Update(ctx, "missing", func(*domain.LiveSession) error { return nil }); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreLoadsQuestions(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.Create(ctx, sampleSession("s1", "class-1"))

	q, err := store.LoadQuestion(ctx, "s1-q2")
	if err != nil {
		t.Fatalf("load question: %v", err)
	}
	if q.SessionID != "s1" || q.Order != 1 || q.CorrectAnswer != "A" {
		t.Fatalf("unexpected question %+v", q)
	}
	if _, err := store.LoadQuestion(ctx, "nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func sampleSession(id, classID string) domain.LiveSession {
	questions := make([]domain.LiveQuestion, 3)
	for i := range questions {
		questions[i] = domain.LiveQuestion{
			ID:            id + "-q" + string(rune('1'+i)),
			SessionID:     id,
			Text:          "Pick A",
			Type:          domain.MultipleChoice,
			Options:       []string{"A", "B"},
			CorrectAnswer: "A",
			Order:         i,
		}
	}
	return domain.LiveSession{
		ID:        id,
		ClassID:   classID,
		Status:    domain.StatusCreated,
		Questions: questions,
		CreatedAt: time.Now(),
	}
}
