package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// SessionStore persists sessions and their questions in Postgres.
// Transitions run in a transaction holding the session row lock plus an advisory lock on the class,
// so two sessions of one class cannot become active concurrently.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) Create(ctx context.Context, session domain.LiveSession) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, session.ClassID); err != nil {
		return fmt.Errorf("lock class: %w", err)
	}
	if err := checkNoOtherActive(ctx, tx, session.ClassID, session.ID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO live_sessions (id, class_id, status, current_question_index, time_limit_seconds, created_at, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.ClassID, string(session.Status), session.CurrentQuestionIndex,
		session.TimeLimitSeconds, session.CreatedAt, session.StartedAt, session.EndedAt)
	if err != nil {
		return mapWriteError("insert session", err)
	}

	for _, q := range session.Questions {
		options, err := json.Marshal(nonNil(q.Options))
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO live_questions (id, session_id, position, text, question_type, options, correct_answer)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
			q.ID, session.ID, q.Order, q.Text, string(q.Type), string(options), q.CorrectAnswer)
		if err != nil {
			return mapWriteError("insert question", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *SessionStore) Update(ctx context.Context, sessionID string, mutate func(*domain.LiveSession) error) (domain.LiveSession, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.LiveSession{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var classID string
	err = tx.QueryRow(ctx, `SELECT class_id FROM live_sessions WHERE id=$1`, sessionID).Scan(&classID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LiveSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.LiveSession{}, fmt.Errorf("load session class: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, classID); err != nil {
		return domain.LiveSession{}, fmt.Errorf("lock class: %w", err)
	}

	current, err := s.load(ctx, tx, sessionID, true)
	if err != nil {
		return domain.LiveSession{}, err
	}
	next := current
	next.Questions = append([]domain.LiveQuestion(nil), current.Questions...)
	if err := mutate(&next); err != nil {
		return domain.LiveSession{}, err
	}

	if next.Status == domain.StatusActive && current.Status != domain.StatusActive {
		if err := checkNoOtherActive(ctx, tx, classID, sessionID); err != nil {
			return domain.LiveSession{}, err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE live_sessions
		SET status=$2, current_question_index=$3, started_at=$4, ended_at=$5
		WHERE id=$1`,
		sessionID, string(next.Status), next.CurrentQuestionIndex, next.StartedAt, next.EndedAt)
	if err != nil {
		return domain.LiveSession{}, mapWriteError("update session", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.LiveSession{}, mapWriteError("commit", err)
	}
	return next, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.LiveSession, error) {
	return s.load(ctx, s.pool, sessionID, false)
}

func (s *SessionStore) FindActive(ctx context.Context, classID string) (domain.LiveSession, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM live_sessions WHERE class_id=$1 AND status='active'`, classID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LiveSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.LiveSession{}, fmt.Errorf("find active session: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *SessionStore) ListByClass(ctx context.Context, classID string) ([]domain.LiveSession, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM live_sessions WHERE class_id=$1 ORDER BY created_at, id`, classID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]domain.LiveSession, 0, len(ids))
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *SessionStore) LoadQuestion(ctx context.Context, questionID string) (domain.LiveQuestion, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, position, text, question_type, options, correct_answer
		FROM live_questions WHERE id=$1`, questionID)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LiveQuestion{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.LiveQuestion{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (s *SessionStore) load(ctx context.Context, q querier, sessionID string, forUpdate bool) (domain.LiveSession, error) {
	query := `
		SELECT id, class_id, status, current_question_index, time_limit_seconds, created_at, started_at, ended_at
		FROM live_sessions WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		session   domain.LiveSession
		status    string
		startedAt *time.Time
		endedAt   *time.Time
	)
	err := q.QueryRow(ctx, query, sessionID).Scan(
		&session.ID, &session.ClassID, &status, &session.CurrentQuestionIndex,
		&session.TimeLimitSeconds, &session.CreatedAt, &startedAt, &endedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LiveSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.LiveSession{}, fmt.Errorf("load session: %w", err)
	}
	session.Status = domain.SessionStatus(status)
	session.StartedAt = startedAt
	session.EndedAt = endedAt

	rows, err := q.Query(ctx, `
		SELECT id, session_id, position, text, question_type, options, correct_answer
		FROM live_questions WHERE session_id=$1 ORDER BY position`, sessionID)
	if err != nil {
		return domain.LiveSession{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return domain.LiveSession{}, fmt.Errorf("scan question: %w", err)
		}
		session.Questions = append(session.Questions, question)
	}
	if err := rows.Err(); err != nil {
		return domain.LiveSession{}, fmt.Errorf("load questions: %w", err)
	}
	return session, nil
}

func scanQuestion(row pgx.Row) (domain.LiveQuestion, error) {
	var (
		q       domain.LiveQuestion
		qType   string
		rawOpts []byte
	)
	if err := row.Scan(&q.ID, &q.SessionID, &q.Order, &q.Text, &qType, &rawOpts, &q.CorrectAnswer); err != nil {
		return domain.LiveQuestion{}, err
	}
	q.Type = domain.QuestionType(qType)
	if len(rawOpts) > 0 {
		if err := json.Unmarshal(rawOpts, &q.Options); err != nil {
			return domain.LiveQuestion{}, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	return q, nil
}

func checkNoOtherActive(ctx context.Context, q querier, classID, sessionID string) error {
	var other string
	err := q.QueryRow(ctx,
		`SELECT id FROM live_sessions WHERE class_id=$1 AND status='active' AND id<>$2 LIMIT 1`,
		classID, sessionID).Scan(&other)
	if err == nil {
		return domain.ErrConflictingSession
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check active session: %w", err)
	}
	return nil
}

// mapWriteError turns the one-active-session index violation into the domain conflict.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "live_sessions_one_active" {
		return domain.ErrConflictingSession
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nonNil(options []string) []string {
	if options == nil {
		return []string{}
	}
	return options
}
