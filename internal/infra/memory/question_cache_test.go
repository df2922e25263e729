package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.Create(ctx, sampleSession("s1", "class-1"))
	loader := &countingLoader{QuestionLoader: store}
	cache := NewQuestionCache(loader, time.Minute)

	if _, err := cache.GetQuestion(ctx, "s1-q1"); err != nil {
		t.Fatalf("get question: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	q, err := cache.GetQuestion(ctx, "s1-q1")
	if err != nil {
		t.Fatalf("get question 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
	if q.CorrectAnswer != "A" {
		t.Fatalf("expected cached correct answer, got %+v", q)
	}
}

func TestQuestionCacheDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{QuestionLoader: NewSessionStore()}
	cache := NewQuestionCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetQuestion(ctx, "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected misses to reach the loader, got %d", loader.calls.Load())
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.Create(ctx, sampleSession("s1", "class-1"))
	loader := &countingLoader{QuestionLoader: store}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.GetQuestion(ctx, "s1-q1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetQuestion(ctx, "s1-q1")
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after expiry, got %d", loader.calls.Load())
	}
}

type countingLoader struct {
	app.QuestionLoader
	calls atomic.Int32
}

func (l *countingLoader) LoadQuestion(ctx context.Context, questionID string) (domain.LiveQuestion, error) {
	l.calls.Add(1)
	return l.QuestionLoader.LoadQuestion(ctx, questionID)
}
