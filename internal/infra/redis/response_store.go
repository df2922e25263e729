package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

// insertScript claims the (question, student) slot and writes the response in one step.
// KEYS: responders hash, response key, session index.
// ARGV: student id, response id, response json, score.
// Returns {1, id} when stored, {0, existing id} when the student already answered.
var insertScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
  return {0, redis.call('HGET', KEYS[1], ARGV[1])}
end
redis.call('SET', KEYS[2], ARGV[3])
redis.call('ZADD', KEYS[3], ARGV[4], ARGV[2])
return {1, ARGV[2]}
`)

// ResponseStore is a Redis implementation of app.ResponseRepository.
// Keys:
//
//	live:question:{id}:responders  HASH studentID -> responseID
//	live:response:{id}             response JSON
//	live:session:{id}:responses    ZSET of response ids scored by submission time
type ResponseStore struct {
	client *redis.Client
}

func NewResponseStore(client *redis.Client) *ResponseStore {
	return &ResponseStore{client: client}
}

func (s *ResponseStore) Insert(ctx context.Context, response domain.LiveResponse) (domain.LiveResponse, error) {
	data, err := json.Marshal(response)
	if err != nil {
		return domain.LiveResponse{}, fmt.Errorf("marshal response: %w", err)
	}
	keys := []string{
		s.respondersKey(response.QuestionID),
		s.responseKey(response.ID),
		s.sessionKey(response.SessionID),
	}
	score := strconv.FormatInt(response.SubmittedAt.UnixMicro(), 10)

	res, err := insertScript.Run(ctx, s.client, keys, response.StudentID, response.ID, data, score).Slice()
	if err != nil {
		return domain.LiveResponse{}, err
	}
	if len(res) != 2 {
		return domain.LiveResponse{}, fmt.Errorf("insert response: unexpected script reply %v", res)
	}
	stored, _ := res[0].(int64)
	id, _ := res[1].(string)
	if stored == 1 {
		return response, nil
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.LiveResponse{}, err
	}
	return existing, domain.ErrAlreadyAnswered
}

func (s *ResponseStore) Get(ctx context.Context, responseID string) (domain.LiveResponse, error) {
	raw, err := s.client.Get(ctx, s.responseKey(responseID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.LiveResponse{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.LiveResponse{}, err
	}
	var resp domain.LiveResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.LiveResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}

func (s *ResponseStore) Grade(ctx context.Context, responseID string, isCorrect bool, gradedAt time.Time) (domain.LiveResponse, error) {
	key := s.responseKey(responseID)
	var graded domain.LiveResponse
	err := watchWithRetry(ctx, s.client, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrResponseNotFound
		}
		if err != nil {
			return err
		}
		var resp domain.LiveResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if resp.Graded() {
			return domain.ErrAlreadyGraded
		}
		resp.IsCorrect = &isCorrect
		at := gradedAt
		resp.GradedAt = &at

		data, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			graded = resp
		}
		return err
	}, key)
	if err != nil {
		return domain.LiveResponse{}, err
	}
	return graded, nil
}

func (s *ResponseStore) ListBySession(ctx context.Context, sessionID string) ([]domain.LiveResponse, error) {
	ids, err := s.client.ZRange(ctx, s.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.LiveResponse{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.responseKey(id)
	}
	raws, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.LiveResponse, 0, len(raws))
	for _, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var resp domain.LiveResponse
		if err := json.Unmarshal([]byte(str), &resp); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		out = append(out, resp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *ResponseStore) respondersKey(questionID string) string {
	return "live:question:" + questionID + ":responders"
}

func (s *ResponseStore) responseKey(id string) string {
	return "live:response:" + id
}

func (s *ResponseStore) sessionKey(sessionID string) string {
	return "live:session:" + sessionID + ":responses"
}
