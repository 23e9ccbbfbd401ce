package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := &countingStore{QuestionStore: memory.NewQuestionStore()}
	_ = store.AddQuestions(ctx, "123456", sampleQuestion("q1"))
	cache := NewQuestionCache(newClient(mr), store, time.Minute)

	qs, err := cache.ListQuestions(ctx, "123456")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.calls != 1 || len(qs) != 1 {
		t.Fatalf("expected store called once, got %d", store.calls)
	}
	if !mr.Exists("quiz:room:123456:questions") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit cache, store not incremented.
	qs, _ = cache.ListQuestions(ctx, "123456")
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls=%d", store.calls)
	}
	if qs[0].CorrectAnswer != "4" || len(qs[0].IncorrectAnswers) != 3 {
		t.Fatalf("cached question lost fields: %+v", qs[0])
	}
}

func TestQuestionCacheInvalidatesOnWrite(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	cache := NewQuestionCache(newClient(mr), memory.NewQuestionStore(), time.Minute)
	_ = cache.AddQuestions(ctx, "123456", sampleQuestion("q1"))
	_, _ = cache.ListQuestions(ctx, "123456")

	if err := cache.AddQuestions(ctx, "123456", sampleQuestion("q2")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if mr.Exists("quiz:room:123456:questions") {
		t.Fatalf("expected cached list to be dropped")
	}
	qs, _ := cache.ListQuestions(ctx, "123456")
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}

	if err := cache.DeleteQuestion(ctx, "123456", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRoomStoreReservesAndReleases(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewRoomStore(newClient(mr), time.Minute)

	ok, err := store.Reserve(ctx, "123456")
	if err != nil || !ok {
		t.Fatalf("reserve: %v %v", ok, err)
	}
	if ok, _ := store.Reserve(ctx, "123456"); ok {
		t.Fatalf("expected second reservation to fail")
	}

	mr.FastForward(50 * time.Second)
	if err := store.Refresh(ctx, []string{"123456"}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	mr.FastForward(50 * time.Second)
	if !mr.Exists("quiz:room:123456") {
		t.Fatalf("expected refreshed reservation to survive")
	}

	if err := store.Release(ctx, "123456"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("quiz:room:123456") {
		t.Fatalf("expected redis key to be removed")
	}
}

type countingStore struct {
	*memory.QuestionStore
	calls int
}

func (s *countingStore) ListQuestions(ctx context.Context, code string) ([]domain.Question, error) {
	s.calls++
	return s.QuestionStore.ListQuestions(ctx, code)
}

func sampleQuestion(id string) domain.Question {
	return domain.Question{
		ID:               id,
		Prompt:           "What is 2 + 2?",
		CorrectAnswer:    "4",
		IncorrectAnswers: []string{"3", "5", "22"},
		TimeLimit:        20,
		Points:           1000,
		Source:           domain.SourceTest,
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
