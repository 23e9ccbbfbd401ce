package app

import (
	"strings"

	"live-quiz-service/internal/domain"
)

// Command is one validated inbound client event.
type Command interface {
	// Name is the inbound event type the command was decoded from.
	Name() string
	Validate() error
}

// Inbound event names.
const (
	CmdPlayerJoin         = "player_join"
	CmdStartGame          = "game_started"
	CmdPrepareNext        = "preparing_next_question"
	CmdSubmitAnswer       = "submit_answer"
	CmdEndQuestion        = "end_question"
	CmdEndGame            = "end_game"
	CmdRequestLeaderboard = "request_leaderboard"
	CmdPing               = "ping"
)

type JoinCommand struct {
	Pin      string `json:"pin"`
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"is_host"`
	HostID   string `json:"host_id"`
	Rejoin   bool   `json:"rejoin"`
}

func (JoinCommand) Name() string { return CmdPlayerJoin }

func (c JoinCommand) Validate() error {
	if err := validatePin(c.Pin); err != nil {
		return err
	}
	if c.IsHost {
		if c.HostID == "" {
			return domain.Validation("host_id is required")
		}
		return nil
	}
	if c.PlayerID == "" && strings.TrimSpace(c.Nickname) == "" {
		return domain.Validation("player_id or nickname is required")
	}
	if c.Rejoin && c.PlayerID == "" {
		return domain.Validation("player_id is required to rejoin")
	}
	return nil
}

type StartGameCommand struct {
	Pin string `json:"pin"`
}

func (StartGameCommand) Name() string { return CmdStartGame }

func (c StartGameCommand) Validate() error { return validatePin(c.Pin) }

type PrepareNextCommand struct {
	Pin string `json:"pin"`
}

func (PrepareNextCommand) Name() string { return CmdPrepareNext }

func (c PrepareNextCommand) Validate() error { return validatePin(c.Pin) }

type SubmitAnswerCommand struct {
	PlayerID     string  `json:"player_id"`
	QuestionID   string  `json:"question_id"`
	Answer       string  `json:"answer"`
	ResponseTime float64 `json:"response_time"`
}

func (SubmitAnswerCommand) Name() string { return CmdSubmitAnswer }

func (c SubmitAnswerCommand) Validate() error {
	switch {
	case c.PlayerID == "":
		return domain.Validation("player_id is required")
	case c.QuestionID == "":
		return domain.Validation("question_id is required")
	case c.Answer == "":
		return domain.Validation("answer is required")
	case c.ResponseTime < 0:
		return domain.Validation("response_time must not be negative")
	}
	return nil
}

type EndQuestionCommand struct {
	Pin        string `json:"pin"`
	QuestionID string `json:"question_id"`
}

func (EndQuestionCommand) Name() string { return CmdEndQuestion }

func (c EndQuestionCommand) Validate() error {
	if err := validatePin(c.Pin); err != nil {
		return err
	}
	if c.QuestionID == "" {
		return domain.Validation("question_id is required")
	}
	return nil
}

type EndGameCommand struct {
	Pin string `json:"pin"`
}

func (EndGameCommand) Name() string { return CmdEndGame }

func (c EndGameCommand) Validate() error { return validatePin(c.Pin) }

type RequestLeaderboardCommand struct {
	Pin string `json:"pin"`
}

func (RequestLeaderboardCommand) Name() string { return CmdRequestLeaderboard }

func (c RequestLeaderboardCommand) Validate() error { return validatePin(c.Pin) }

type PingCommand struct{}

func (PingCommand) Name() string { return CmdPing }

func (PingCommand) Validate() error { return nil }

func validatePin(pin string) error {
	if len(pin) != 6 {
		return domain.Validation("pin must be a 6 digit code")
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return domain.Validation("pin must be a 6 digit code")
		}
	}
	return nil
}
