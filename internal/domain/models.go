package domain

import "time"

// RoomState is a position in the room lifecycle.
type RoomState string

const (
	StateLobby            RoomState = "lobby"
	StateRunning          RoomState = "running"
	StateQuestionPrepared RoomState = "question_prepared"
	StateQuestionActive   RoomState = "question_active"
	StateQuestionEnded    RoomState = "question_ended"
	StateEnded            RoomState = "ended"
)

// Role distinguishes the controlling host from players on a connection.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// Player represents a room participant and their running score.
type Player struct {
	ID       string    `json:"id"`
	Nickname string    `json:"nickname"`
	Score    int       `json:"score"`
	Streak   int       `json:"current_streak"`
	Ready    bool      `json:"is_ready"`
	JoinedAt time.Time `json:"joined_at"`
	// JoinSeq orders players by join time; it breaks leaderboard ties.
	JoinSeq int `json:"-"`
}

// Answer is an immutable record of one submission for a (player, question) pair.
type Answer struct {
	PlayerID      string    `json:"player_id"`
	QuestionID    string    `json:"question_id"`
	Text          string    `json:"answer_text"`
	Correct       bool      `json:"is_correct"`
	ResponseTime  float64   `json:"response_time"`
	PointsAwarded int       `json:"points_awarded"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// LeaderboardEntry is a snapshot-friendly view of a player.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	RankLabel string `json:"rank_label"`
	PlayerID  string `json:"player_id"`
	Nickname  string `json:"nickname"`
	Score     int    `json:"score"`
	Streak    int    `json:"streak"`
}

// PlayerView is the public projection of a player used in membership snapshots.
type PlayerView struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	IsReady  bool   `json:"is_ready"`
}

// RoomSummary describes a room for REST callers.
type RoomSummary struct {
	Code          string       `json:"code"`
	Title         string       `json:"title"`
	HostID        string       `json:"host_id,omitempty"`
	State         RoomState    `json:"state"`
	Active        bool         `json:"is_active"`
	QuestionCount int          `json:"question_count"`
	CurrentIndex  int          `json:"current_question_index"`
	Players       []PlayerView `json:"players"`
	CreatedAt     time.Time    `json:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	EndedAt       *time.Time   `json:"ended_at,omitempty"`
}

// GameSummary is the durable record written when a game ends.
type GameSummary struct {
	Code      string     `json:"code"`
	Title     string     `json:"title"`
	HostID    string     `json:"host_id"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time  `json:"ended_at"`
	Players   []Player   `json:"players"`
	Answers   []Answer   `json:"answers"`
}

// PlayerStats aggregates a player's accuracy over a game.
type PlayerStats struct {
	PlayerID       string  `json:"player_id"`
	Nickname       string  `json:"nickname"`
	Score          int     `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	Accuracy       float64 `json:"accuracy"`
}

// QuestionStats aggregates answers to a single question.
type QuestionStats struct {
	QuestionID     string  `json:"question_id"`
	Content        string  `json:"content"`
	CorrectAnswer  string  `json:"correct_answer"`
	TotalAnswers   int     `json:"total_answers"`
	CorrectAnswers int     `json:"correct_answers"`
	Accuracy       float64 `json:"accuracy"`
}

// GameStats is the host-facing report for a room.
type GameStats struct {
	Title          string          `json:"title"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	EndedAt        *time.Time      `json:"ended_at,omitempty"`
	TotalPlayers   int             `json:"total_players"`
	TotalQuestions int             `json:"total_questions"`
	Players        []PlayerStats   `json:"players"`
	Questions      []QuestionStats `json:"questions"`
}
