package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/domain"
)

// ListQuestions returns the room's questions, answers included, to its host.
func (s *QuizService) ListQuestions(ctx context.Context, code, hostID string) ([]domain.Question, error) {
	room, err := s.rooms.Room(code)
	if err != nil {
		return nil, err
	}
	if hostID == "" || hostID != room.HostID() {
		return nil, domain.ErrNotHost
	}
	return s.questions.ListQuestions(ctx, code)
}

// AddQuestions validates and appends questions to a room that has not started.
func (s *QuizService) AddQuestions(ctx context.Context, code, hostID string, questions ...domain.Question) ([]domain.Question, error) {
	room, err := s.rooms.Room(code)
	if err != nil {
		return nil, err
	}
	prepared, err := prepareQuestions(questions, domain.SourceCustom)
	if err != nil {
		return nil, err
	}
	err = room.EditQuestions(hostID, func() error {
		return s.questions.AddQuestions(ctx, code, prepared...)
	})
	if err != nil {
		return nil, err
	}
	return prepared, nil
}

// DeleteQuestion removes a question from a room that has not started.
func (s *QuizService) DeleteQuestion(ctx context.Context, code, hostID, questionID string) error {
	room, err := s.rooms.Room(code)
	if err != nil {
		return err
	}
	return room.EditQuestions(hostID, func() error {
		return s.questions.DeleteQuestion(ctx, code, questionID)
	})
}

// ImportQuestions fetches a batch from the trivia provider and appends it to the room.
// The fetch happens before the room is locked.
func (s *QuizService) ImportQuestions(ctx context.Context, code, hostID string, req domain.ImportRequest) ([]domain.Question, error) {
	if s.provider == nil {
		return nil, domain.Validation("question import is not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	room, err := s.rooms.Room(code)
	if err != nil {
		return nil, err
	}
	if hostID == "" || hostID != room.HostID() {
		return nil, domain.ErrNotHost
	}

	fetched, err := s.provider.FetchQuestions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch trivia questions: %w", err)
	}
	prepared, err := prepareQuestions(fetched, domain.SourceImported)
	if err != nil {
		return nil, err
	}
	err = room.EditQuestions(hostID, func() error {
		return s.questions.AddQuestions(ctx, code, prepared...)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("room", code).Int("count", len(prepared)).Msg("imported trivia questions")
	return prepared, nil
}

// prepareQuestions normalizes, validates and assigns ids. Nothing is returned unless every
// question is valid.
func prepareQuestions(questions []domain.Question, source domain.Provenance) ([]domain.Question, error) {
	if len(questions) == 0 {
		return nil, domain.Validation("no questions given")
	}
	out := make([]domain.Question, 0, len(questions))
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.Source == "" {
			q.Source = source
		}
		q = q.Normalize()
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %d: %w", i+1, domain.Validation("duplicate question id"))
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}
