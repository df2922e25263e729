package redis

import (
	"time"

	"live-quiz-service/internal/domain"
)

// Stored forms keep the correct answer, which the domain types never serialize.

type questionRecord struct {
	ID            string              `json:"id"`
	SessionID     string              `json:"session_id"`
	Text          string              `json:"text"`
	Type          domain.QuestionType `json:"question_type"`
	Options       []string            `json:"options"`
	CorrectAnswer string              `json:"correct_answer"`
	Order         int                 `json:"order"`
}

type sessionRecord struct {
	ID                   string               `json:"id"`
	ClassID              string               `json:"class_id"`
	Status               domain.SessionStatus `json:"status"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	TimeLimitSeconds     int                  `json:"time_limit_seconds"`
	Questions            []questionRecord     `json:"questions"`
	CreatedAt            time.Time            `json:"created_at"`
	StartedAt            *time.Time           `json:"started_at,omitempty"`
	EndedAt              *time.Time           `json:"ended_at,omitempty"`
}

func toQuestionRecord(q domain.LiveQuestion) questionRecord {
	return questionRecord{
		ID:            q.ID,
		SessionID:     q.SessionID,
		Text:          q.Text,
		Type:          q.Type,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Order:         q.Order,
	}
}

func (r questionRecord) domain() domain.LiveQuestion {
	return domain.LiveQuestion{
		ID:            r.ID,
		SessionID:     r.SessionID,
		Text:          r.Text,
		Type:          r.Type,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Order:         r.Order,
	}
}

func toSessionRecord(s domain.LiveSession) sessionRecord {
	rec := sessionRecord{
		ID:                   s.ID,
		ClassID:              s.ClassID,
		Status:               s.Status,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		TimeLimitSeconds:     s.TimeLimitSeconds,
		Questions:            make([]questionRecord, len(s.Questions)),
		CreatedAt:            s.CreatedAt,
		StartedAt:            s.StartedAt,
		EndedAt:              s.EndedAt,
	}
	for i, q := range s.Questions {
		rec.Questions[i] = toQuestionRecord(q)
	}
	return rec
}

func (r sessionRecord) domain() domain.LiveSession {
	s := domain.LiveSession{
		ID:                   r.ID,
		ClassID:              r.ClassID,
		Status:               r.Status,
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		TimeLimitSeconds:     r.TimeLimitSeconds,
		Questions:            make([]domain.LiveQuestion, len(r.Questions)),
		CreatedAt:            r.CreatedAt,
		StartedAt:            r.StartedAt,
		EndedAt:              r.EndedAt,
	}
	for i, q := range r.Questions {
		s.Questions[i] = q.domain()
	}
	return s
}
