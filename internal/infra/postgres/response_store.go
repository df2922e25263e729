package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

const responseColumns = `id, session_id, question_id, student_id, answer, is_correct, time_spent_seconds, submitted_at, graded_at`

// ResponseStore persists responses; UNIQUE(question_id, student_id) backs the one-answer rule.
type ResponseStore struct {
	pool *pgxpool.Pool
}

func NewResponseStore(pool *pgxpool.Pool) *ResponseStore {
	return &ResponseStore{pool: pool}
}

func (s *ResponseStore) Insert(ctx context.Context, r domain.LiveResponse) (domain.LiveResponse, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO live_responses (`+responseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (question_id, student_id) DO NOTHING
		RETURNING id`,
		r.ID, r.SessionID, r.QuestionID, r.StudentID, r.Answer, r.IsCorrect,
		r.TimeSpentSeconds, r.SubmittedAt, r.GradedAt).Scan(&id)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.LiveResponse{}, fmt.Errorf("insert response: %w", err)
	}

	row := s.pool.QueryRow(ctx, `SELECT `+responseColumns+`
		FROM live_responses WHERE question_id=$1 AND student_id=$2`, r.QuestionID, r.StudentID)
	existing, err := scanResponse(row)
	if err != nil {
		return domain.LiveResponse{}, fmt.Errorf("load existing response: %w", err)
	}
	return existing, domain.ErrAlreadyAnswered
}

func (s *ResponseStore) Get(ctx context.Context, responseID string) (domain.LiveResponse, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+responseColumns+` FROM live_responses WHERE id=$1`, responseID)
	r, err := scanResponse(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LiveResponse{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.LiveResponse{}, fmt.Errorf("load response: %w", err)
	}
	return r, nil
}

func (s *ResponseStore) Grade(ctx context.Context, responseID string, isCorrect bool, gradedAt time.Time) (domain.LiveResponse, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE live_responses SET is_correct=$2, graded_at=$3
		WHERE id=$1 AND is_correct IS NULL
		RETURNING `+responseColumns, responseID, isCorrect, gradedAt)
	r, err := scanResponse(row)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.LiveResponse{}, fmt.Errorf("grade response: %w", err)
	}
	// Nothing updated: either the response does not exist or it was graded first.
	if _, err := s.Get(ctx, responseID); err != nil {
		return domain.LiveResponse{}, err
	}
	return domain.LiveResponse{}, domain.ErrAlreadyGraded
}

func (s *ResponseStore) ListBySession(ctx context.Context, sessionID string) ([]domain.LiveResponse, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+responseColumns+`
		FROM live_responses WHERE session_id=$1 ORDER BY submitted_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	out := []domain.LiveResponse{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return out, nil
}

func scanResponse(row pgx.Row) (domain.LiveResponse, error) {
	var r domain.LiveResponse
	err := row.Scan(&r.ID, &r.SessionID, &r.QuestionID, &r.StudentID, &r.Answer, &r.IsCorrect,
		&r.TimeSpentSeconds, &r.SubmittedAt, &r.GradedAt)
	return r, err
}
