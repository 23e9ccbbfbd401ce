package memory

import (
	"context"
	"sync"
)

// RoomStore reserves room codes within a single process.
type RoomStore struct {
	mu    sync.Mutex
	codes map[string]struct{}
}

func NewRoomStore() *RoomStore {
	return &RoomStore{codes: make(map[string]struct{})}
}

func (s *RoomStore) Reserve(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[code]; taken {
		return false, nil
	}
	s.codes[code] = struct{}{}
	return true, nil
}

func (s *RoomStore) Release(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, code)
	return nil
}
