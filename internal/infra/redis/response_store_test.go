package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"live-quiz-service/internal/domain"
)

func TestResponseStoreRejectsDuplicateAnswer(t *testing.T) {
	mr, client := startRedis(t)
	store := NewResponseStore(client)
	ctx := context.Background()

	first := sampleResponse("r1", "s1", "q1", "student-1", time.Now())
	if _, err := store.Insert(ctx, first); err != nil {
		t.Fatalf("insert: %v", err)
	}

	second := sampleResponse("r2", "s1", "q1", "student-1", time.Now())
	second.Answer = "B"
	existing, err := store.Insert(ctx, second)
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if existing.ID != "r1" || existing.Answer != "A" {
		t.Fatalf("expected the original response back, got %+v", existing)
	}
	if mr.Exists("live:response:r2") {
		t.Fatalf("duplicate must not be stored")
	}
}

func TestResponseStoreConcurrentInsertsKeepOne(t *testing.T) {
	_, client := startRedis(t)
	store := NewResponseStore(client)
	ctx := context.Background()

	var g errgroup.Group
	accepted := make(chan string, 20)
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("r%d", i)
		g.Go(func() error {
			_, err := store.Insert(ctx, sampleResponse(id, "s1", "q1", "student-1", time.Now()))
			if err == nil {
				accepted <- id
				return nil
			}
			if errors.Is(err, domain.ErrAlreadyAnswered) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("insert: %v", err)
	}
	close(accepted)
	if n := len(accepted); n != 1 {
		t.Fatalf("expected exactly one accepted insert, got %d", n)
	}
	list, err := store.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one stored response, got %d", len(list))
	}
}

func TestResponseStoreGradesOnce(t *testing.T) {
	_, client := startRedis(t)
	store := NewResponseStore(client)
	ctx := context.Background()

	if _, err := store.Insert(ctx, sampleResponse("r1", "s1", "q1", "student-1", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}
	graded, err := store.Grade(ctx, "r1", true, time.Now())
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if graded.IsCorrect == nil || !*graded.IsCorrect || graded.GradedAt == nil {
		t.Fatalf("expected graded response, got %+v", graded)
	}
	if _, err := store.Grade(ctx, "r1", false, time.Now()); !errors.Is(err, domain.ErrAlreadyGraded) {
		t.Fatalf("expected already graded, got %v", err)
	}
	stored, _ := store.Get(ctx, "r1")
	if !*stored.IsCorrect {
		t.Fatalf("second grade must not overwrite the first")
	}
	if _, err := store.Grade(ctx, "missing", true, time.Now()); !errors.Is(err, domain.ErrResponseNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResponseStoreListsInSubmissionOrder(t *testing.T) {
	_, client := startRedis(t)
	store := NewResponseStore(client)
	ctx := context.Background()

	base := time.Now()
	inserts := []domain.LiveResponse{
		sampleResponse("r3", "s1", "q2", "student-1", base.Add(2*time.Second)),
		sampleResponse("r1", "s1", "q1", "student-1", base),
		sampleResponse("r2", "s1", "q1", "student-2", base.Add(time.Second)),
		sampleResponse("other", "s2", "q9", "student-1", base),
	}
	for _, r := range inserts {
		if _, err := store.Insert(ctx, r); err != nil {
			t.Fatalf("insert %s: %v", r.ID, err)
		}
	}
	list, err := store.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(list))
	}
	for i, want := range []string{"r1", "r2", "r3"} {
		if list[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, list[i].ID)
		}
	}
}

func sampleResponse(id, sessionID, questionID, studentID string, at time.Time) domain.LiveResponse {
	return domain.LiveResponse{
		ID:          id,
		SessionID:   sessionID,
		QuestionID:  questionID,
		StudentID:   studentID,
		Answer:      "A",
		SubmittedAt: at,
	}
}
