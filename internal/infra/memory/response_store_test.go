package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"live-quiz-service/internal/domain"
)

func TestResponseStoreRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	store := NewResponseStore()
	correct := true

	first, err := store.Insert(ctx, domain.LiveResponse{
		ID: "r1", SessionID: "s1", QuestionID: "q1", StudentID: "u1", Answer: "A", IsCorrect: &correct, SubmittedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	existing, err := store.Insert(ctx, domain.LiveResponse{
		ID: "r2", SessionID: "s1", QuestionID: "q1", StudentID: "u1", Answer: "B", SubmittedAt: time.Now(),
	})
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if existing.ID != first.ID || existing.Answer != "A" || !*existing.IsCorrect {
		t.Fatalf("expected stored response back, got %+v", existing)
	}
	if _, err := store.Get(ctx, "r2"); !errors.Is(err, domain.ErrResponseNotFound) {
		t.Fatalf("duplicate must not be stored, got %v", err)
	}
}

func TestResponseStoreConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	store := NewResponseStore()

	var g errgroup.Group
	var dupes [20]bool
	for i := 0; i < 20; i++ {
		i := i
		g.Go(func() error {
			// two students, ten attempts each
			student := fmt.Sprintf("u%d", i%2)
			_, err := store.Insert(ctx, domain.LiveResponse{
				ID:          fmt.Sprintf("r%d", i),
				SessionID:   "s1",
				QuestionID:  "q1",
				StudentID:   student,
				Answer:      "A",
				SubmittedAt: time.Now(),
			})
			if errors.Is(err, domain.ErrAlreadyAnswered) {
				dupes[i] = true
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("insert: %v", err)
	}

	responses, err := store.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("expected exactly one response per student, got %d", len(responses))
	}
	rejected := 0
	for _, d := range dupes {
		if d {
			rejected++
		}
	}
	if rejected != 18 {
		t.Fatalf("expected 18 rejected duplicates, got %d", rejected)
	}
}

func TestResponseStoreGradesOnce(t *testing.T) {
	ctx := context.Background()
	store := NewResponseStore()
	_, _ = store.Insert(ctx, domain.LiveResponse{ID: "r1", SessionID: "s1", QuestionID: "q1", StudentID: "u1", Answer: "blue light scatters"})

	graded, err := store.Grade(ctx, "r1", true, time.Now())
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if graded.IsCorrect == nil || !*graded.IsCorrect || graded.GradedAt == nil {
		t.Fatalf("unexpected graded response %+v", graded)
	}
	if _, err := store.Grade(ctx, "r1", false, time.Now()); !errors.Is(err, domain.ErrAlreadyGraded) {
		t.Fatalf("expected already graded, got %v", err)
	}
	stored, _ := store.Get(ctx, "r1")
	if !*stored.IsCorrect {
		t.Fatalf("second grade must not change the stored value")
	}
	if _, err := store.Grade(ctx, "missing", true, time.Now()); !errors.Is(err, domain.ErrResponseNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResponseStoreListsInSubmissionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewResponseStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, _ = store.Insert(ctx, domain.LiveResponse{ID: "r2", SessionID: "s1", QuestionID: "q2", StudentID: "u1", SubmittedAt: base.Add(2 * time.Second)})
	_, _ = store.Insert(ctx, domain.LiveResponse{ID: "r1", SessionID: "s1", QuestionID: "q1", StudentID: "u1", SubmittedAt: base})
	_, _ = store.Insert(ctx, domain.LiveResponse{ID: "r3", SessionID: "s2", QuestionID: "q9", StudentID: "u1", SubmittedAt: base})

	responses, _ := store.ListBySession(ctx, "s1")
	if len(responses) != 2 || responses[0].ID != "r1" || responses[1].ID != "r2" {
		t.Fatalf("unexpected order %+v", responses)
	}
}
