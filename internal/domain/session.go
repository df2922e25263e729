package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var transitions = map[SessionStatus][]SessionStatus{
	StatusCreated: {StatusActive},
	StatusActive:  {StatusActive, StatusEnded},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
// Active -> Active is the advance step.
func CanTransition(from, to SessionStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Start moves a created session to its first question.
func (s *LiveSession) Start(now time.Time) error {
	if !CanTransition(s.Status, StatusActive) || s.Status == StatusActive {
		return ErrInvalidTransition
	}
	s.Status = StatusActive
	s.CurrentQuestionIndex = 0
	s.StartedAt = &now
	return nil
}

// Advance moves the broadcast pointer one question forward.
func (s *LiveSession) Advance() error {
	if s.Status != StatusActive {
		return ErrNotActive
	}
	if s.CurrentQuestionIndex+1 >= len(s.Questions) {
		return ErrNoMoreQuestions
	}
	s.CurrentQuestionIndex++
	return nil
}

// End closes the session. The broadcast pointer is frozen from here on.
func (s *LiveSession) End(now time.Time) error {
	if !CanTransition(s.Status, StatusEnded) {
		return ErrInvalidTransition
	}
	s.Status = StatusEnded
	s.EndedAt = &now
	return nil
}

// TransitionTo applies a status change through the lifecycle table.
func (s *LiveSession) TransitionTo(target SessionStatus, now time.Time) error {
	switch {
	case target == StatusActive && s.Status == StatusCreated:
		return s.Start(now)
	case target == StatusEnded:
		return s.End(now)
	}
	return ErrInvalidTransition
}

// NormalizeAnswer trims, collapses inner whitespace and case-folds an answer.
// A Caser is stateful, so each call builds its own.
func NormalizeAnswer(raw string) string {
	return cases.Fold().String(strings.Join(strings.Fields(raw), " "))
}

// AnswerMatches compares two answers after normalization.
func AnswerMatches(answer, correct string) bool {
	return NormalizeAnswer(answer) == NormalizeAnswer(correct)
}
