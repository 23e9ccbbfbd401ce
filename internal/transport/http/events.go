package http

import (
	"encoding/json"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// decodeCommand parses one client frame into a validated command.
func decodeCommand(data []byte) (app.Command, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, domain.Validation("malformed message")
	}

	var cmd app.Command
	switch msg.Type {
	case app.CmdPlayerJoin:
		cmd = decodePayload[app.JoinCommand](msg.Payload)
	case app.CmdStartGame:
		cmd = decodePayload[app.StartGameCommand](msg.Payload)
	case app.CmdPrepareNext:
		cmd = decodePayload[app.PrepareNextCommand](msg.Payload)
	case app.CmdSubmitAnswer:
		cmd = decodePayload[app.SubmitAnswerCommand](msg.Payload)
	case app.CmdEndQuestion:
		cmd = decodePayload[app.EndQuestionCommand](msg.Payload)
	case app.CmdEndGame:
		cmd = decodePayload[app.EndGameCommand](msg.Payload)
	case app.CmdRequestLeaderboard:
		cmd = decodePayload[app.RequestLeaderboardCommand](msg.Payload)
	case app.CmdPing:
		cmd = app.PingCommand{}
	default:
		return nil, domain.Validation("unsupported message type")
	}
	if cmd == nil {
		return nil, domain.Validation("invalid " + msg.Type + " payload")
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// decodePayload returns nil when raw does not decode into T.
func decodePayload[T app.Command](raw json.RawMessage) app.Command {
	var v T
	if len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
