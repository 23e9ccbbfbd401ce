package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// QuestionCache caches each room's question list in Redis as JSON and falls back to the
// backing repository on a miss. Lists are stored as: SET quiz:room:{code}:questions <json>
// Writes go to the backing repository and delete the cached list.
type QuestionCache struct {
	client *redis.Client
	next   app.QuestionRepository
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionCache(client *redis.Client, next app.QuestionRepository, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		next:   next,
		ttl:    ttl,
	}
}

func (c *QuestionCache) ListQuestions(ctx context.Context, code string) ([]domain.Question, error) {
	if qs, ok := c.cached(ctx, code); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := c.cached(ctx, code); ok {
			return qs, nil
		}
		qs, err := c.next.ListQuestions(ctx, code)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(qs)
		if err != nil {
			return nil, fmt.Errorf("encode questions: %w", err)
		}
		if err := c.client.Set(ctx, c.key(code), raw, c.ttlWithJitter()).Err(); err != nil {
			log.Warn().Err(err).Str("room", code).Msg("question cache write failed")
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) AddQuestions(ctx context.Context, code string, questions ...domain.Question) error {
	defer c.invalidate(ctx, code)
	return c.next.AddQuestions(ctx, code, questions...)
}

func (c *QuestionCache) DeleteQuestion(ctx context.Context, code, questionID string) error {
	defer c.invalidate(ctx, code)
	return c.next.DeleteQuestion(ctx, code, questionID)
}

func (c *QuestionCache) cached(ctx context.Context, code string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, c.key(code)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("room", code).Msg("question cache read failed")
		}
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, false
	}
	return qs, true
}

func (c *QuestionCache) invalidate(ctx context.Context, code string) {
	if err := c.client.Del(ctx, c.key(code)).Err(); err != nil {
		log.Warn().Err(err).Str("room", code).Msg("question cache invalidation failed")
	}
}

func (c *QuestionCache) key(code string) string {
	return "quiz:room:" + code + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
