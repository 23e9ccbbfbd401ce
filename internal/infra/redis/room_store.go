package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomStore reserves room codes in Redis so processes sharing the instance never hand out the
// same code. A reservation is a key with a TTL (quiz:room:{code}) that the owner refreshes while
// the room lives.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

func (s *RoomStore) Reserve(ctx context.Context, code string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(code), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve %s: %w", code, err)
	}
	return ok, nil
}

// Refresh extends the reservation of every live code.
func (s *RoomStore) Refresh(ctx context.Context, codes []string) error {
	if len(codes) == 0 || s.ttl <= 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, code := range codes {
		pipe.Expire(ctx, s.key(code), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RoomStore) Release(ctx context.Context, code string) error {
	return s.client.Del(ctx, s.key(code)).Err()
}

func (s *RoomStore) key(code string) string {
	return "quiz:room:" + code
}
