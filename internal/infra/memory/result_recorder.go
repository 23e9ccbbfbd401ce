package memory

import (
	"context"
	"sort"
	"sync"

	"live-quiz-service/internal/domain"
)

// ResultRecorder keeps answers and finished games in memory.
type ResultRecorder struct {
	mu      sync.Mutex
	answers map[string][]domain.Answer
	games   map[string]domain.GameSummary
}

func NewResultRecorder() *ResultRecorder {
	return &ResultRecorder{
		answers: make(map[string][]domain.Answer),
		games:   make(map[string]domain.GameSummary),
	}
}

func (r *ResultRecorder) RecordAnswer(_ context.Context, code string, answer domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers[code] {
		if a.PlayerID == answer.PlayerID && a.QuestionID == answer.QuestionID {
			return domain.ErrAnswerExists
		}
	}
	r.answers[code] = append(r.answers[code], answer)
	return nil
}

func (r *ResultRecorder) RecordGame(_ context.Context, summary domain.GameSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[summary.Code] = summary
	return nil
}

// Answers returns the answers recorded for a room.
func (r *ResultRecorder) Answers(code string) []domain.Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Answer(nil), r.answers[code]...)
}

// Game returns the recorded summary for a room.
func (r *ResultRecorder) Game(code string) (domain.GameSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[code]
	return g, ok
}

// RecentGames returns up to limit games hosted by hostID, most recently ended first.
func (r *ResultRecorder) RecentGames(_ context.Context, hostID string, limit int) ([]domain.GameSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.GameSummary
	for _, g := range r.games {
		if g.HostID != hostID {
			continue
		}
		g.Answers = append([]domain.Answer(nil), r.answers[g.Code]...)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
