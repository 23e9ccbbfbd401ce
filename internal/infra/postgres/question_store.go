package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// QuestionStore keeps room questions in the room_questions table.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) ListQuestions(ctx context.Context, code string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, content, correct_answer, incorrect_answers, category, difficulty, time_limit, points, source
		FROM room_questions
		WHERE room_code = $1
		ORDER BY position`, code)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var source string
		if err := rows.Scan(&q.ID, &q.Prompt, &q.CorrectAnswer, &q.IncorrectAnswers, &q.Category, &q.Difficulty, &q.TimeLimit, &q.Points, &source); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Source = domain.Provenance(source)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return out, nil
}

// AddQuestions inserts questions in one transaction, in order.
func (s *QuestionStore) AddQuestions(ctx context.Context, code string, questions ...domain.Question) error {
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, q := range questions {
			batch.Queue(`
				INSERT INTO room_questions (id, room_code, content, correct_answer, incorrect_answers, category, difficulty, time_limit, points, source)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				q.ID, code, q.Prompt, q.CorrectAnswer, q.IncorrectAnswers, q.Category, q.Difficulty, q.TimeLimit, q.Points, string(q.Source))
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for range questions {
			if _, err := br.Exec(); err != nil {
				return err
			}
		}
		return br.Close()
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Validation("duplicate question id")
		}
		return fmt.Errorf("add questions: %w", err)
	}
	return nil
}

func (s *QuestionStore) DeleteQuestion(ctx context.Context, code, questionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM room_questions WHERE room_code = $1 AND id = $2`, code, questionID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}
