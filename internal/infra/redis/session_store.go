package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

const maxTxRetries = 10

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SessionStore is a Redis implementation of app.SessionRepository and app.QuestionLoader.
// Keys:
//
//	live:session:{id}             session JSON (questions included)
//	live:question:{id}            question JSON
//	live:class:{classID}:sessions ZSET of session ids scored by creation time
//	live:class:{classID}:active   id of the class's active session
//
// Writes use WATCH/MULTI so that a transition and the class's active marker change together.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Create(ctx context.Context, session domain.LiveSession) error {
	data, err := json.Marshal(toSessionRecord(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	questions := make(map[string][]byte, len(session.Questions))
	for _, q := range session.Questions {
		raw, err := json.Marshal(toQuestionRecord(q))
		if err != nil {
			return fmt.Errorf("marshal question: %w", err)
		}
		questions[q.ID] = raw
	}

	activeKey := s.activeKey(session.ClassID)
	return s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, activeKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrConflictingSession
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.sessionKey(session.ID), data, 0)
			for id, raw := range questions {
				pipe.Set(ctx, s.questionKey(id), raw, 0)
			}
			pipe.ZAdd(ctx, s.classKey(session.ClassID), redis.Z{
				Score:  float64(session.CreatedAt.UnixMicro()),
				Member: session.ID,
			})
			if session.Status == domain.StatusActive {
				pipe.Set(ctx, activeKey, session.ID, 0)
			}
			return nil
		})
		return err
	}, activeKey)
}

func (s *SessionStore) Update(ctx context.Context, sessionID string, mutate func(*domain.LiveSession) error) (domain.LiveSession, error) {
	// The class never changes, so it is safe to learn it outside the transaction.
	current, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.LiveSession{}, err
	}
	sessionKey := s.sessionKey(sessionID)
	activeKey := s.activeKey(current.ClassID)

	var updated domain.LiveSession
	err = s.watch(ctx, func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		next := current
		next.Questions = append([]domain.LiveQuestion(nil), current.Questions...)
		if err := mutate(&next); err != nil {
			return err
		}

		activating := next.Status == domain.StatusActive && current.Status != domain.StatusActive
		if activating {
			other, err := tx.Get(ctx, activeKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil && other != sessionID {
				return domain.ErrConflictingSession
			}
		}
		clearing := false
		if next.Status == domain.StatusEnded {
			other, err := tx.Get(ctx, activeKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			clearing = other == sessionID
		}

		data, err := json.Marshal(toSessionRecord(next))
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionKey, data, 0)
			if activating {
				pipe.Set(ctx, activeKey, sessionID, 0)
			}
			if clearing {
				pipe.Del(ctx, activeKey)
			}
			return nil
		})
		if err == nil {
			updated = next
		}
		return err
	}, sessionKey, activeKey)
	if err != nil {
		return domain.LiveSession{}, err
	}
	return updated, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.LiveSession, error) {
	return s.read(ctx, s.client, sessionID)
}

func (s *SessionStore) FindActive(ctx context.Context, classID string) (domain.LiveSession, error) {
	id, err := s.client.Get(ctx, s.activeKey(classID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.LiveSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.LiveSession{}, err
	}
	return s.Get(ctx, id)
}

func (s *SessionStore) ListByClass(ctx context.Context, classID string) ([]domain.LiveSession, error) {
	ids, err := s.client.ZRange(ctx, s.classKey(classID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.LiveSession{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.sessionKey(id)
	}
	raws, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.LiveSession, 0, len(raws))
	for _, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var rec sessionRecord
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		sessions = append(sessions, rec.domain())
	}
	return sessions, nil
}

func (s *SessionStore) LoadQuestion(ctx context.Context, questionID string) (domain.LiveQuestion, error) {
	raw, err := s.client.Get(ctx, s.questionKey(questionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.LiveQuestion{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.LiveQuestion{}, err
	}
	var rec questionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.LiveQuestion{}, fmt.Errorf("unmarshal question: %w", err)
	}
	return rec.domain(), nil
}

func (s *SessionStore) read(ctx context.Context, c getter, sessionID string) (domain.LiveSession, error) {
	raw, err := c.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.LiveSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.LiveSession{}, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.LiveSession{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return rec.domain(), nil
}

// watch runs fn in an optimistic transaction, retrying when a watched key changed underneath it.
func (s *SessionStore) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	return watchWithRetry(ctx, s.client, fn, keys...)
}

func watchWithRetry(ctx context.Context, client *redis.Client, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis transaction on %v: too much contention", keys)
}

func (s *SessionStore) sessionKey(id string) string {
	return "live:session:" + id
}

func (s *SessionStore) questionKey(id string) string {
	return "live:question:" + id
}

func (s *SessionStore) classKey(classID string) string {
	return "live:class:" + classID + ":sessions"
}

func (s *SessionStore) activeKey(classID string) string {
	return "live:class:" + classID + ":active"
}
