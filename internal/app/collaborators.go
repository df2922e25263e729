package app

import (
	"context"

	"live-quiz-service/internal/domain"
)

// GenerateRequest describes the question set a teacher asks the content generator for.
type GenerateRequest struct {
	ClassID          string                `json:"class_id"`
	Concepts         []string              `json:"concepts"`
	Chapter          string                `json:"chapter"`
	Types            []domain.QuestionType `json:"question_types"`
	Count            int                   `json:"count"`
	TimeLimitSeconds int                   `json:"time_limit_seconds"`
}

// QuestionGenerator produces the initial ordered question set of a session.
// Its output is treated as opaque content.
type QuestionGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]domain.QuestionDraft, error)
}

// Roster reports how many students a class has. ok is false for unknown classes.
type Roster interface {
	ClassSize(ctx context.Context, classID string) (size int, ok bool, err error)
}

// EventPublisher notifies external analytics about concluded sessions.
type EventPublisher interface {
	PublishSessionEnded(ctx context.Context, summary domain.LiveSessionSummary) error
}
