package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

var trueFalseOptions = []string{"True", "False"}

// SessionStore owns session status and question order. All writes go through the lifecycle table.
type SessionStore struct {
	repo  SessionRepository
	now   func() time.Time
	newID func() string
}

func NewSessionStore(repo SessionRepository) *SessionStore {
	return NewSessionStoreWithClock(repo, time.Now)
}

// NewSessionStoreWithClock allows deterministic timestamps in tests.
func NewSessionStoreWithClock(repo SessionRepository, now func() time.Time) *SessionStore {
	return &SessionStore{repo: repo, now: now, newID: uuid.NewString}
}

// Create stores a new session in the created state.
func (s *SessionStore) Create(ctx context.Context, classID string, timeLimitSeconds int, drafts []domain.QuestionDraft) (domain.LiveSession, error) {
	if strings.TrimSpace(classID) == "" {
		return domain.LiveSession{}, fmt.Errorf("%w: class id is required", domain.ErrInvalidInput)
	}
	if len(drafts) == 0 {
		return domain.LiveSession{}, fmt.Errorf("%w: a session needs at least one question", domain.ErrInvalidInput)
	}
	if timeLimitSeconds < 0 {
		return domain.LiveSession{}, fmt.Errorf("%w: negative time limit", domain.ErrInvalidInput)
	}

	session := domain.LiveSession{
		ID:               s.newID(),
		ClassID:          classID,
		Status:           domain.StatusCreated,
		TimeLimitSeconds: timeLimitSeconds,
		CreatedAt:        s.now().UTC(),
		Questions:        make([]domain.LiveQuestion, 0, len(drafts)),
	}
	for i, draft := range drafts {
		if strings.TrimSpace(draft.Text) == "" {
			return domain.LiveSession{}, fmt.Errorf("%w: question %d has no text", domain.ErrInvalidInput, i)
		}
		if !draft.Type.Valid() {
			return domain.LiveSession{}, fmt.Errorf("%w: question %d has unknown type %q", domain.ErrInvalidInput, i, draft.Type)
		}
		options := append([]string(nil), draft.Options...)
		switch {
		case draft.Type == domain.ShortAnswer:
			options = []string{}
		case draft.Type == domain.TrueFalse && len(options) == 0:
			options = append(options, trueFalseOptions...)
		}
		session.Questions = append(session.Questions, domain.LiveQuestion{
			ID:            s.newID(),
			SessionID:     session.ID,
			Text:          draft.Text,
			Type:          draft.Type,
			Options:       options,
			CorrectAnswer: draft.CorrectAnswer,
			Order:         i,
		})
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return domain.LiveSession{}, err
	}
	return session, nil
}

// Transition moves the session to target status.
func (s *SessionStore) Transition(ctx context.Context, sessionID string, target domain.SessionStatus) (domain.LiveSession, error) {
	return s.repo.Update(ctx, sessionID, func(session *domain.LiveSession) error {
		return session.TransitionTo(target, s.now().UTC())
	})
}

// Advance moves the broadcast pointer forward.
func (s *SessionStore) Advance(ctx context.Context, sessionID string) (domain.LiveSession, error) {
	return s.repo.Update(ctx, sessionID, func(session *domain.LiveSession) error {
		return session.Advance()
	})
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.LiveSession, error) {
	return s.repo.Get(ctx, sessionID)
}

// FindActive returns the class's active session. ok is false when there is none.
func (s *SessionStore) FindActive(ctx context.Context, classID string) (domain.LiveSession, bool, error) {
	session, err := s.repo.FindActive(ctx, classID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.LiveSession{}, false, nil
	}
	if err != nil {
		return domain.LiveSession{}, false, err
	}
	return session, true, nil
}

// Ended lists a class's concluded sessions, most recently ended first.
func (s *SessionStore) Ended(ctx context.Context, classID string) ([]domain.LiveSession, error) {
	sessions, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	ended := make([]domain.LiveSession, 0, len(sessions))
	for _, session := range sessions {
		if session.Status == domain.StatusEnded {
			ended = append(ended, session)
		}
	}
	sort.SliceStable(ended, func(i, j int) bool {
		return ended[i].EndedAt.After(*ended[j].EndedAt)
	})
	return ended, nil
}
