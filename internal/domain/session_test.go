package domain

import (
	"errors"
	"testing"
	"time"
)

func threeQuestionSession() LiveSession {
	return LiveSession{
		ID:      "s1",
		ClassID: "c1",
		Status:  StatusCreated,
		Questions: []LiveQuestion{
			{ID: "q1", Order: 0}, {ID: "q2", Order: 1}, {ID: "q3", Order: 2},
		},
	}
}

func TestLifecycleFollowsTable(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := threeQuestionSession()

	if err := s.Advance(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected not active before start, got %v", err)
	}
	if err := s.Start(now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Status != StatusActive || s.CurrentQuestionIndex != 0 || s.StartedAt == nil {
		t.Fatalf("unexpected session after start: %+v", s)
	}
	if err := s.Start(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected second start to fail, got %v", err)
	}

	if err := s.Advance(); err != nil {
		t.Fatalf("advance 1: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("advance 2: %v", err)
	}
	if err := s.Advance(); !errors.Is(err, ErrNoMoreQuestions) {
		t.Fatalf("expected no more questions, got %v", err)
	}
	if s.CurrentQuestionIndex != 2 {
		t.Fatalf("expected index 2, got %d", s.CurrentQuestionIndex)
	}

	if err := s.End(now.Add(time.Minute)); err != nil {
		t.Fatalf("end: %v", err)
	}
	if s.EndedAt == nil || s.CurrentQuestionIndex != 2 {
		t.Fatalf("expected frozen index and ended_at, got %+v", s)
	}
	if err := s.Advance(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected not active after end, got %v", err)
	}
	if err := s.TransitionTo(StatusActive, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ended -> active to fail, got %v", err)
	}
	if err := s.End(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected second end to fail, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		want     bool
	}{
		{StatusCreated, StatusActive, true},
		{StatusCreated, StatusEnded, false},
		{StatusActive, StatusActive, true},
		{StatusActive, StatusEnded, true},
		{StatusActive, StatusCreated, false},
		{StatusEnded, StatusActive, false},
		{StatusEnded, StatusCreated, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestCreatedSessionCannotEnd(t *testing.T) {
	s := threeQuestionSession()
	if err := s.End(time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestAnswerMatchesIgnoresCaseAndWhitespace(t *testing.T) {
	cases := []struct {
		answer, correct string
		want            bool
	}{
		{"A", "a", true},
		{"  true ", "True", true},
		{"New   York", "new york", true},
		{"B", "A", false},
		{"", "A", false},
	}
	for _, tc := range cases {
		if got := AnswerMatches(tc.answer, tc.correct); got != tc.want {
			t.Fatalf("%q vs %q: expected %v, got %v", tc.answer, tc.correct, tc.want, got)
		}
	}
}

func TestSnapshotHidesCurrentQuestionUnlessActive(t *testing.T) {
	s := threeQuestionSession()
	if snap := s.Snapshot(); snap.CurrentQuestion != nil || snap.QuestionCount != 3 {
		t.Fatalf("unexpected created snapshot: %+v", snap)
	}
	_ = s.Start(time.Now())
	_ = s.Advance()
	snap := s.Snapshot()
	if snap.CurrentQuestion == nil || snap.CurrentQuestion.ID != "q2" {
		t.Fatalf("expected q2 as current question, got %+v", snap.CurrentQuestion)
	}
}
