package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"live-quiz-service/internal/domain"
)

type gameModel struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID        int64      `bun:"id,pk,autoincrement"`
	Code      string     `bun:"code,notnull"`
	Title     string     `bun:"title,notnull"`
	HostID    string     `bun:"host_id,notnull"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
	StartedAt *time.Time `bun:"started_at"`
	EndedAt   time.Time  `bun:"ended_at,notnull"`

	Players []*gamePlayerModel `bun:"rel:has-many,join:id=game_id"`
}

type gamePlayerModel struct {
	bun.BaseModel `bun:"table:game_players,alias:gp"`

	GameID   int64     `bun:"game_id,pk"`
	PlayerID string    `bun:"player_id,pk"`
	Nickname string    `bun:"nickname,notnull"`
	Score    int       `bun:"score"`
	Streak   int       `bun:"streak"`
	JoinedAt time.Time `bun:"joined_at,notnull"`
}

type answerModel struct {
	bun.BaseModel `bun:"table:game_answers,alias:ga"`

	ID            int64     `bun:"id,pk,autoincrement"`
	RoomCode      string    `bun:"room_code,notnull"`
	PlayerID      string    `bun:"player_id,notnull"`
	QuestionID    string    `bun:"question_id,notnull"`
	AnswerText    string    `bun:"answer_text,notnull"`
	IsCorrect     bool      `bun:"is_correct"`
	ResponseTime  float64   `bun:"response_time"`
	PointsAwarded int       `bun:"points_awarded"`
	AnsweredAt    time.Time `bun:"answered_at,notnull"`
}

// ResultStore persists answers and finished games with bun.
type ResultStore struct {
	db *bun.DB
}

// Open connects bun to Postgres at dsn.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

// RecordAnswer inserts one answer. The (player, question) unique key backs the in-memory check.
func (s *ResultStore) RecordAnswer(ctx context.Context, code string, answer domain.Answer) error {
	m := &answerModel{
		RoomCode:      code,
		PlayerID:      answer.PlayerID,
		QuestionID:    answer.QuestionID,
		AnswerText:    answer.Text,
		IsCorrect:     answer.Correct,
		ResponseTime:  answer.ResponseTime,
		PointsAwarded: answer.PointsAwarded,
		AnsweredAt:    answer.AnsweredAt,
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return domain.ErrAnswerExists
		}
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// RecordGame stores the game and its final standings in one transaction.
func (s *ResultStore) RecordGame(ctx context.Context, summary domain.GameSummary) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		game := &gameModel{
			Code:      summary.Code,
			Title:     summary.Title,
			HostID:    summary.HostID,
			CreatedAt: summary.CreatedAt,
			StartedAt: summary.StartedAt,
			EndedAt:   summary.EndedAt,
		}
		if _, err := tx.NewInsert().Model(game).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		if len(summary.Players) == 0 {
			return nil
		}
		players := make([]*gamePlayerModel, 0, len(summary.Players))
		for _, p := range summary.Players {
			players = append(players, &gamePlayerModel{
				GameID:   game.ID,
				PlayerID: p.ID,
				Nickname: p.Nickname,
				Score:    p.Score,
				Streak:   p.Streak,
				JoinedAt: p.JoinedAt,
			})
		}
		if _, err := tx.NewInsert().Model(&players).Exec(ctx); err != nil {
			return fmt.Errorf("insert players: %w", err)
		}
		return nil
	})
}

// RecentGames returns the host's most recently ended games with their players and answers.
func (s *ResultStore) RecentGames(ctx context.Context, hostID string, limit int) ([]domain.GameSummary, error) {
	var games []*gameModel
	err := s.db.NewSelect().
		Model(&games).
		Relation("Players", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("gp.score DESC", "gp.joined_at ASC")
		}).
		Where("g.host_id = ?", hostID).
		Order("g.ended_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}

	out := make([]domain.GameSummary, 0, len(games))
	for _, g := range games {
		var answers []answerModel
		err := s.db.NewSelect().
			Model(&answers).
			Where("ga.room_code = ?", g.Code).
			Where("ga.answered_at <= ?", g.EndedAt).
			Where("ga.answered_at >= ?", g.CreatedAt).
			Order("ga.id").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("select answers: %w", err)
		}
		out = append(out, toSummary(g, answers))
	}
	return out, nil
}

func toSummary(g *gameModel, answers []answerModel) domain.GameSummary {
	s := domain.GameSummary{
		Code:      g.Code,
		Title:     g.Title,
		HostID:    g.HostID,
		CreatedAt: g.CreatedAt,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
	for _, p := range g.Players {
		s.Players = append(s.Players, domain.Player{
			ID:       p.PlayerID,
			Nickname: p.Nickname,
			Score:    p.Score,
			Streak:   p.Streak,
			JoinedAt: p.JoinedAt,
		})
	}
	for _, a := range answers {
		s.Answers = append(s.Answers, domain.Answer{
			PlayerID:      a.PlayerID,
			QuestionID:    a.QuestionID,
			Text:          a.AnswerText,
			Correct:       a.IsCorrect,
			ResponseTime:  a.ResponseTime,
			PointsAwarded: a.PointsAwarded,
			AnsweredAt:    a.AnsweredAt,
		})
	}
	return s
}
