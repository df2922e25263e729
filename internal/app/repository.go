package app

import (
	"context"
	"time"

	"live-quiz-service/internal/domain"
)

// SessionRepository abstracts how sessions and their questions are stored (in-memory, Redis, Postgres).
//
// Update must apply mutate to a copy of the stored session and persist the result atomically with respect
// to other updates of the same session. When the mutation activates the session, the repository must
// reject it with domain.ErrConflictingSession if the class already has another active session.
type SessionRepository interface {
	Create(ctx context.Context, session domain.LiveSession) error
	Update(ctx context.Context, sessionID string, mutate func(*domain.LiveSession) error) (domain.LiveSession, error)
	Get(ctx context.Context, sessionID string) (domain.LiveSession, error)
	FindActive(ctx context.Context, classID string) (domain.LiveSession, error)
	ListByClass(ctx context.Context, classID string) ([]domain.LiveSession, error)
}

// QuestionLoader fetches a single question from the backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, questionID string) (domain.LiveQuestion, error)
}

// QuestionRepository is the (usually cached) question lookup used on the submission path.
type QuestionRepository interface {
	GetQuestion(ctx context.Context, questionID string) (domain.LiveQuestion, error)
}

// ResponseRepository stores responses.
//
// Insert must enforce the (question, student) uniqueness atomically. On a duplicate it returns the stored
// response together with domain.ErrAlreadyAnswered. Grade must only set correctness on an ungraded
// response and return domain.ErrAlreadyGraded otherwise. ListBySession orders by submission time.
type ResponseRepository interface {
	Insert(ctx context.Context, response domain.LiveResponse) (domain.LiveResponse, error)
	Get(ctx context.Context, responseID string) (domain.LiveResponse, error)
	Grade(ctx context.Context, responseID string, isCorrect bool, gradedAt time.Time) (domain.LiveResponse, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.LiveResponse, error)
}
