package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// QuestionCache keeps question content (answer key included) in Redis and falls back to a loader on miss.
// Stored as: SET live:cache:question:{questionID} {json} EX ttl
type QuestionCache struct {
	client *redis.Client
	loader app.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader app.QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, questionID string) (domain.LiveQuestion, error) {
	key := c.key(questionID)
	if q, ok := c.lookup(ctx, key); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(questionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.lookup(ctx, key); ok {
			return q, nil
		}

		q, err := c.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.LiveQuestion{}, err
		}
		if raw, err := json.Marshal(toQuestionRecord(q)); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return q, nil
	})
	if err != nil {
		return domain.LiveQuestion{}, err
	}
	return result.(domain.LiveQuestion), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string) (domain.LiveQuestion, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.LiveQuestion{}, false
	}
	var rec questionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.LiveQuestion{}, false
	}
	return rec.domain(), true
}

func (c *QuestionCache) key(questionID string) string {
	return "live:cache:question:" + questionID
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
