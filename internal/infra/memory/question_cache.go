package memory

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// QuestionCache caches room question lists with a TTL in front of another repository.
// Writes go through to the backing repository and drop the cached list.
type QuestionCache struct {
	next  app.QuestionRepository
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(next app.QuestionRepository, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		next:  next,
		ttl:   ttl,
		clock: time.Now,
		cache: make(map[string]cachedQuestions),
	}
}

func (c *QuestionCache) ListQuestions(ctx context.Context, code string) ([]domain.Question, error) {
	if qs, ok := c.lookup(code); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		if qs, ok := c.lookup(code); ok {
			return qs, nil
		}
		qs, err := c.next.ListQuestions(ctx, code)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[code] = cachedQuestions{
			questions: cloneQuestions(qs),
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneQuestions(result.([]domain.Question)), nil
}

func (c *QuestionCache) AddQuestions(ctx context.Context, code string, questions ...domain.Question) error {
	defer c.Invalidate(code)
	return c.next.AddQuestions(ctx, code, questions...)
}

func (c *QuestionCache) DeleteQuestion(ctx context.Context, code, questionID string) error {
	defer c.Invalidate(code)
	return c.next.DeleteQuestion(ctx, code, questionID)
}

// Invalidate drops the cached list for code.
func (c *QuestionCache) Invalidate(code string) {
	c.mu.Lock()
	delete(c.cache, code)
	c.mu.Unlock()
}

func (c *QuestionCache) lookup(code string) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[code]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return cloneQuestions(entry.questions), true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
