package domain

import "time"

// Outbound event names.
const (
	EventPlayerJoined        = "player_joined"
	EventPlayerReady         = "player_ready"
	EventParticipantsChanged = "room_participants_changed"
	EventAllPlayersReady     = "all_players_ready"
	EventGameStarted         = "game_started"
	EventQuestionPreparing   = "question_preparing"
	EventQuestionStarted     = "question_started"
	EventAnswerResult        = "answer_result"
	EventAnswerSubmitted     = "answer_submitted"
	EventQuestionEnded       = "question_ended"
	EventLeaderboardUpdate   = "leaderboard_update"
	EventGameStateSync       = "game_state_sync"
	EventGameEnded           = "game_ended"
	EventJoinError           = "join_error"
	EventError               = "error"
	EventAnswerError         = "answer_error"
	EventPong                = "pong"
)

// Event is a typed outbound message addressed to one or more connections.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// NewEvent pairs an event name with its payload.
func NewEvent(typ string, payload any) Event {
	return Event{Type: typ, Payload: payload}
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	IsReady  bool   `json:"is_ready"`
	IsRejoin bool   `json:"is_rejoin"`
}

type PlayerReadyPayload struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
}

type ParticipantsPayload struct {
	ConnectedPlayers []PlayerView `json:"connected_players"`
	HostConnected    bool         `json:"host_connected"`
}

type Redirect struct {
	Host   string `json:"host"`
	Player string `json:"player"`
}

type GameStartedPayload struct {
	StartedAt            time.Time `json:"started_at"`
	TotalQuestions       int       `json:"total_questions"`
	CurrentQuestionIndex int       `json:"current_question_index"`
	Redirect             *Redirect `json:"redirect,omitempty"`
}

// QuestionView is the player-facing projection of a question. It never marks which answer is correct.
type QuestionView struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Answers   []string   `json:"answers"`
	TimeLimit int        `json:"time_limit"`
	Points    int        `json:"points"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// View projects q for clients.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:        q.ID,
		Content:   q.Prompt,
		Answers:   q.DisplayAnswers(),
		TimeLimit: q.TimeLimit,
		Points:    q.Points,
	}
}

type QuestionPreparingPayload struct {
	Question       QuestionView `json:"question"`
	TotalQuestions int          `json:"total_questions"`
	CurrentIndex   int          `json:"current_index"`
}

type AnswerResultPayload struct {
	QuestionID    string `json:"question_id"`
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	PointsAwarded int    `json:"points_awarded"`
	NewScore      int    `json:"new_score"`
	NewStreak     int    `json:"new_streak"`
}

type AnswerSubmittedPayload struct {
	PlayerID      string `json:"player_id"`
	Nickname      string `json:"nickname"`
	IsCorrect     bool   `json:"is_correct"`
	PointsAwarded int    `json:"points_awarded"`
	NewScore      int    `json:"new_score"`
	NewStreak     int    `json:"new_streak"`
}

type AnswerView struct {
	PlayerID      string  `json:"player_id"`
	Nickname      string  `json:"nickname"`
	IsCorrect     bool    `json:"is_correct"`
	PointsAwarded int     `json:"points_awarded"`
	ResponseTime  float64 `json:"response_time"`
}

type QuestionEndedPayload struct {
	QuestionID    string       `json:"question_id"`
	CorrectAnswer string       `json:"correct_answer"`
	Answers       []AnswerView `json:"answers"`
}

type LeaderboardPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type GameStateSyncPayload struct {
	State                RoomState     `json:"state"`
	CurrentQuestion      *QuestionView `json:"currentQuestion"`
	QuestionStartedAt    *time.Time    `json:"questionStartedAt"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	TotalQuestions       int           `json:"total_questions"`
	RemainingTime        float64       `json:"remainingTime"`
	ElapsedTime          float64       `json:"elapsedTime"`
	HasAnswered          bool          `json:"hasAnswered"`
	Score                int           `json:"score"`
	Streak               int           `json:"streak"`
}

type GameEndedPayload struct {
	EndedAt     time.Time          `json:"ended_at"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
