package app

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"live-quiz-service/internal/domain"
)

type answerKey struct {
	playerID   string
	questionID string
}

// Ledger stores at most one answer per (player, question) and keeps player score and streak in step
// with the answers it holds. Access is serialized by the owning Room.
type Ledger struct {
	answers    map[answerKey]domain.Answer
	byQuestion map[string][]answerKey
}

func NewLedger() *Ledger {
	return &Ledger{
		answers:    make(map[answerKey]domain.Answer),
		byQuestion: make(map[string][]answerKey),
	}
}

// Revert restores the ledger and player to their state before a Submit.
type Revert struct {
	key    answerKey
	player *domain.Player
	score  int
	streak int
}

// Submit checks and inserts an answer for player against the active question.
// questionID must name active; the ledger and the player's score/streak change together or not at all.
func (l *Ledger) Submit(player *domain.Player, active domain.Question, questionID, text string, responseTime float64, at time.Time) (domain.Answer, Revert, error) {
	if player == nil {
		return domain.Answer{}, Revert{}, domain.ErrPlayerNotInRoom
	}
	if questionID != active.ID {
		return domain.Answer{}, Revert{}, domain.ErrQuestionMismatch
	}
	if responseTime < 0 {
		return domain.Answer{}, Revert{}, domain.Validation("response time must not be negative")
	}
	key := answerKey{playerID: player.ID, questionID: questionID}
	if _, exists := l.answers[key]; exists {
		return domain.Answer{}, Revert{}, domain.ErrAnswerExists
	}

	correct := text == active.CorrectAnswer
	awarded := 0
	if correct {
		awarded = Score(active.Points, active.TimeLimit, responseTime)
	}
	answer := domain.Answer{
		PlayerID:      player.ID,
		QuestionID:    questionID,
		Text:          text,
		Correct:       correct,
		ResponseTime:  responseTime,
		PointsAwarded: awarded,
		AnsweredAt:    at,
	}

	u := Revert{key: key, player: player, score: player.Score, streak: player.Streak}
	l.answers[key] = answer
	l.byQuestion[questionID] = append(l.byQuestion[questionID], key)
	player.Score += awarded
	if correct {
		player.Streak++
	} else {
		player.Streak = 0
	}
	return answer, u, nil
}

// rollback reverses a Submit that has not been followed by another insert for the same question.
func (l *Ledger) rollback(u Revert) {
	if _, ok := l.answers[u.key]; !ok {
		return
	}
	delete(l.answers, u.key)
	keys := l.byQuestion[u.key.questionID]
	for i := len(keys) - 1; i >= 0; i-- {
		if keys[i] == u.key {
			l.byQuestion[u.key.questionID] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	u.player.Score = u.score
	u.player.Streak = u.streak
}

// Has reports whether playerID already answered questionID.
func (l *Ledger) Has(playerID, questionID string) bool {
	_, ok := l.answers[answerKey{playerID: playerID, questionID: questionID}]
	return ok
}

// AnswersFor returns the answers to questionID in submission order.
func (l *Ledger) AnswersFor(questionID string) []domain.Answer {
	keys := l.byQuestion[questionID]
	out := make([]domain.Answer, 0, len(keys))
	for _, k := range keys {
		out = append(out, l.answers[k])
	}
	return out
}

// All returns every recorded answer, grouped by question in questionOrder.
func (l *Ledger) All(questionOrder []domain.Question) []domain.Answer {
	out := make([]domain.Answer, 0, len(l.answers))
	for _, q := range questionOrder {
		out = append(out, l.AnswersFor(q.ID)...)
	}
	return out
}

// Leaderboard orders players by score descending, ties broken by join order.
func Leaderboard(players []*domain.Player) []domain.LeaderboardEntry {
	sorted := append([]*domain.Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].JoinSeq < sorted[j].JoinSeq
	})

	entries := make([]domain.LeaderboardEntry, 0, len(sorted))
	for i, p := range sorted {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:      i + 1,
			RankLabel: humanize.Ordinal(i + 1),
			PlayerID:  p.ID,
			Nickname:  p.Nickname,
			Score:     p.Score,
			Streak:    p.Streak,
		})
	}
	return entries
}
