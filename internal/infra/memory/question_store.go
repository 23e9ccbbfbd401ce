package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// QuestionStore keeps each room's questions in memory, in insertion order.
type QuestionStore struct {
	mu    sync.RWMutex
	rooms map[string][]domain.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{rooms: make(map[string][]domain.Question)}
}

func (s *QuestionStore) ListQuestions(_ context.Context, code string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneQuestions(s.rooms[code]), nil
}

func (s *QuestionStore) AddQuestions(_ context.Context, code string, questions ...domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(s.rooms[code])+len(questions))
	for _, existing := range s.rooms[code] {
		seen[existing.ID] = struct{}{}
	}
	for _, q := range questions {
		if _, dup := seen[q.ID]; dup {
			return domain.Validation("duplicate question id")
		}
		seen[q.ID] = struct{}{}
	}
	s.rooms[code] = append(s.rooms[code], cloneQuestions(questions)...)
	return nil
}

func (s *QuestionStore) DeleteQuestion(_ context.Context, code, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.rooms[code]
	for i, q := range list {
		if q.ID == questionID {
			s.rooms[code] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}

func cloneQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.IncorrectAnswers = append([]string(nil), q.IncorrectAnswers...)
		out[i] = q
	}
	return out
}
