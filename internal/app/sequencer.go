package app

import (
	"time"

	"live-quiz-service/internal/domain"
)

// Sequencer owns a room's ordered question list and the index of the current question.
// It is not safe for concurrent use; the owning Room serializes access.
type Sequencer struct {
	questions []domain.Question
	index     int
	started   bool
	startedAt time.Time

	// questionStartedAt is when the current question opened for answers.
	questionStartedAt time.Time
}

func NewSequencer() *Sequencer {
	return &Sequencer{index: -1}
}

// Start freezes questions as the room's question order and records the start time.
func (s *Sequencer) Start(questions []domain.Question, now time.Time) error {
	if s.started || s.index != -1 {
		return domain.ErrAlreadyStarted
	}
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}
	s.questions = append([]domain.Question(nil), questions...)
	s.index = -1
	s.started = true
	s.startedAt = now
	return nil
}

// Advance moves to the next question and returns it with the time it was prepared at.
// The index does not move past the last question.
func (s *Sequencer) Advance(now time.Time) (domain.Question, time.Time, error) {
	if !s.started {
		return domain.Question{}, time.Time{}, domain.ErrNotStarted
	}
	if s.index+1 >= len(s.questions) {
		return domain.Question{}, time.Time{}, domain.ErrNoMoreQuestions
	}
	s.index++
	s.questionStartedAt = time.Time{}
	return s.questions[s.index], now, nil
}

// MarkStarted records when the current question opened for answers.
func (s *Sequencer) MarkStarted(now time.Time) {
	s.questionStartedAt = now
}

// Current returns the active question, if any.
func (s *Sequencer) Current() (domain.Question, bool) {
	if s.index < 0 || s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// Question finds a question by id among the frozen list.
func (s *Sequencer) Question(id string) (domain.Question, bool) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

func (s *Sequencer) Questions() []domain.Question {
	return append([]domain.Question(nil), s.questions...)
}

func (s *Sequencer) Index() int { return s.index }

func (s *Sequencer) Len() int { return len(s.questions) }

func (s *Sequencer) Started() bool { return s.started }

func (s *Sequencer) StartedAt() time.Time { return s.startedAt }

func (s *Sequencer) QuestionStartedAt() time.Time { return s.questionStartedAt }

// HasNext reports whether Advance would succeed.
func (s *Sequencer) HasNext() bool {
	return s.started && s.index+1 < len(s.questions)
}
