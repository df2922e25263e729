package app

import (
	"context"
	"sort"

	"live-quiz-service/internal/domain"
)

// GradingQueue is a filtered view over the ledger: short answer responses nobody has graded yet.
type GradingQueue struct {
	sessions *SessionStore
	ledger   *ResponseLedger
}

func NewGradingQueue(sessions *SessionStore, ledger *ResponseLedger) *GradingQueue {
	return &GradingQueue{sessions: sessions, ledger: ledger}
}

// Pending lists ungraded short answer responses, oldest submission first.
func (g *GradingQueue) Pending(ctx context.Context, sessionID string) ([]domain.LiveResponse, error) {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	subjective := make(map[string]struct{})
	for _, q := range session.Questions {
		if q.Type == domain.ShortAnswer {
			subjective[q.ID] = struct{}{}
		}
	}

	responses, err := g.ledger.ForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pending := make([]domain.LiveResponse, 0)
	for _, r := range responses {
		if _, ok := subjective[r.QuestionID]; ok && !r.Graded() {
			pending = append(pending, r)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
	})
	return pending, nil
}

// Resolve grades a pending response.
func (g *GradingQueue) Resolve(ctx context.Context, responseID string, isCorrect bool) (domain.LiveResponse, error) {
	return g.ledger.Grade(ctx, responseID, isCorrect)
}
