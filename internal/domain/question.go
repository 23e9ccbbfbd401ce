package domain

import (
	"hash/fnv"
	"strings"
	"time"
	"unicode/utf8"
)

// Provenance records where a question came from.
type Provenance string

const (
	SourceCustom   Provenance = "custom"
	SourceImported Provenance = "imported"
	SourceTest     Provenance = "test"
)

const (
	DefaultTimeLimit = 20
	MinTimeLimit     = 5
	MaxTimeLimit     = 60

	DefaultPoints = 1000
	MinPoints     = 100
	MaxPoints     = 2000

	IncorrectAnswerCount = 3
)

// Question models a multiple choice question with exactly one correct answer.
type Question struct {
	ID               string     `json:"id"`
	Prompt           string     `json:"content"`
	CorrectAnswer    string     `json:"correct_answer"`
	IncorrectAnswers []string   `json:"incorrect_answers"`
	Category         string     `json:"category,omitempty"`
	Difficulty       string     `json:"difficulty,omitempty"`
	TimeLimit        int        `json:"time_limit"` // seconds
	Points           int        `json:"points"`
	Source           Provenance `json:"source"`
}

// Normalize trims text fields and fills in default time limit, points and provenance.
func (q Question) Normalize() Question {
	q.Prompt = strings.TrimSpace(q.Prompt)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	incorrect := make([]string, len(q.IncorrectAnswers))
	for i, a := range q.IncorrectAnswers {
		incorrect[i] = strings.TrimSpace(a)
	}
	q.IncorrectAnswers = incorrect
	q.Category = strings.TrimSpace(q.Category)
	q.Difficulty = strings.ToLower(strings.TrimSpace(q.Difficulty))
	if q.TimeLimit == 0 {
		q.TimeLimit = DefaultTimeLimit
	}
	if q.Points == 0 {
		q.Points = DefaultPoints
	}
	if q.Source == "" {
		q.Source = SourceCustom
	}
	return q
}

// Validate enforces the question invariants. Call it on a normalized question.
func (q Question) Validate() error {
	if n := utf8.RuneCountInString(q.Prompt); n < 5 || n > 500 {
		return Validation("question must be between 5 and 500 characters")
	}
	if n := utf8.RuneCountInString(q.CorrectAnswer); n < 1 || n > 200 {
		return Validation("correct answer must be between 1 and 200 characters")
	}
	if len(q.IncorrectAnswers) != IncorrectAnswerCount {
		return Validation("exactly 3 incorrect answers are required")
	}
	seen := map[string]struct{}{q.CorrectAnswer: {}}
	for _, a := range q.IncorrectAnswers {
		if n := utf8.RuneCountInString(a); n < 1 || n > 200 {
			return Validation("incorrect answers must be between 1 and 200 characters")
		}
		if _, dup := seen[a]; dup {
			return Validation("answers must be distinct")
		}
		seen[a] = struct{}{}
	}
	if q.TimeLimit < MinTimeLimit || q.TimeLimit > MaxTimeLimit {
		return Validation("time limit must be between 5 and 60 seconds")
	}
	if q.Points < MinPoints || q.Points > MaxPoints {
		return Validation("points must be between 100 and 2000")
	}
	switch q.Source {
	case SourceCustom, SourceImported, SourceTest:
	default:
		return Validation("unknown question source")
	}
	return nil
}

// Duration returns the time limit as a time.Duration.
func (q Question) Duration() time.Duration {
	return time.Duration(q.TimeLimit) * time.Second
}

// DisplayAnswers returns all four answers in display order. The incorrect answers keep their
// stored order; the correct answer is slotted at a position derived from the question id so the
// order is stable across reconnects without always being first.
func (q Question) DisplayAnswers() []string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(q.ID))
	pos := int(h.Sum32() % uint32(len(q.IncorrectAnswers)+1))

	out := make([]string, 0, len(q.IncorrectAnswers)+1)
	out = append(out, q.IncorrectAnswers[:pos]...)
	out = append(out, q.CorrectAnswer)
	out = append(out, q.IncorrectAnswers[pos:]...)
	return out
}

// ImportRequest asks a trivia provider for a batch of questions.
type ImportRequest struct {
	Amount     int    `json:"amount"`
	Category   int    `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Validate checks the batch size and difficulty.
func (r ImportRequest) Validate() error {
	if r.Amount < 1 || r.Amount > 50 {
		return Validation("amount must be between 1 and 50")
	}
	switch r.Difficulty {
	case "", "easy", "medium", "hard":
	default:
		return Validation("difficulty must be easy, medium or hard")
	}
	if r.Category < 0 {
		return Validation("category must not be negative")
	}
	return nil
}
