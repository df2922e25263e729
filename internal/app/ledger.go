package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

// ResponseLedger records answers, grades objective ones on arrival and accepts manual grades for the rest.
type ResponseLedger struct {
	repo      ResponseRepository
	questions QuestionRepository
	now       func() time.Time
	newID     func() string
}

func NewResponseLedger(repo ResponseRepository, questions QuestionRepository) *ResponseLedger {
	return NewResponseLedgerWithClock(repo, questions, time.Now)
}

// NewResponseLedgerWithClock allows deterministic timestamps in tests.
func NewResponseLedgerWithClock(repo ResponseRepository, questions QuestionRepository, now func() time.Time) *ResponseLedger {
	return &ResponseLedger{repo: repo, questions: questions, now: now, newID: uuid.NewString}
}

// Submit stores a student's answer. A repeated (question, student) pair returns the stored response
// together with domain.ErrAlreadyAnswered and leaves it untouched.
func (l *ResponseLedger) Submit(ctx context.Context, questionID, studentID, answer string, timeSpentSeconds int) (domain.LiveResponse, error) {
	if strings.TrimSpace(studentID) == "" {
		return domain.LiveResponse{}, fmt.Errorf("%w: student id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(answer) == "" {
		return domain.LiveResponse{}, fmt.Errorf("%w: answer is empty", domain.ErrInvalidInput)
	}
	if timeSpentSeconds < 0 {
		return domain.LiveResponse{}, fmt.Errorf("%w: negative time spent", domain.ErrInvalidInput)
	}

	question, err := l.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.LiveResponse{}, err
	}

	response := domain.LiveResponse{
		ID:               l.newID(),
		SessionID:        question.SessionID,
		QuestionID:       question.ID,
		StudentID:        studentID,
		Answer:           answer,
		TimeSpentSeconds: timeSpentSeconds,
		SubmittedAt:      l.now().UTC(),
	}
	if question.Type.Objective() {
		correct := domain.AnswerMatches(answer, question.CorrectAnswer)
		response.IsCorrect = &correct
		response.GradedAt = &response.SubmittedAt
	}
	return l.repo.Insert(ctx, response)
}

// Grade decides a short answer response. Each response is graded exactly once.
func (l *ResponseLedger) Grade(ctx context.Context, responseID string, isCorrect bool) (domain.LiveResponse, error) {
	response, err := l.repo.Get(ctx, responseID)
	if err != nil {
		return domain.LiveResponse{}, err
	}
	question, err := l.questions.GetQuestion(ctx, response.QuestionID)
	if err != nil {
		return domain.LiveResponse{}, err
	}
	if question.Type != domain.ShortAnswer {
		return domain.LiveResponse{}, domain.ErrWrongQuestionType
	}
	if response.Graded() {
		return domain.LiveResponse{}, domain.ErrAlreadyGraded
	}
	return l.repo.Grade(ctx, responseID, isCorrect, l.now().UTC())
}

func (l *ResponseLedger) Get(ctx context.Context, responseID string) (domain.LiveResponse, error) {
	return l.repo.Get(ctx, responseID)
}

// ForSession returns every response of a session in submission order.
func (l *ResponseLedger) ForSession(ctx context.Context, sessionID string) ([]domain.LiveResponse, error) {
	return l.repo.ListBySession(ctx, sessionID)
}

// ForStudent returns one student's responses within a session.
func (l *ResponseLedger) ForStudent(ctx context.Context, sessionID, studentID string) ([]domain.LiveResponse, error) {
	all, err := l.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	mine := make([]domain.LiveResponse, 0, 8)
	for _, r := range all {
		if r.StudentID == studentID {
			mine = append(mine, r)
		}
	}
	return mine, nil
}

// IsDuplicate reports whether err signals a repeated submission.
func IsDuplicate(err error) bool {
	return errors.Is(err, domain.ErrAlreadyAnswered)
}
