package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/domain"
)

// QuestionRepository stores each room's question list in insertion order.
type QuestionRepository interface {
	ListQuestions(ctx context.Context, code string) ([]domain.Question, error)
	AddQuestions(ctx context.Context, code string, questions ...domain.Question) error
	DeleteQuestion(ctx context.Context, code, questionID string) error
}

// QuestionProvider fetches question batches from an external trivia source.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, req domain.ImportRequest) ([]domain.Question, error)
}

// QuizService contains the quiz use cases: it routes gateway commands to rooms and serves the
// REST surface.
type QuizService struct {
	rooms     *Registry
	questions QuestionRepository
	provider  QuestionProvider
}

func NewQuizService(rooms *Registry, questions QuestionRepository, provider QuestionProvider) *QuizService {
	return &QuizService{rooms: rooms, questions: questions, provider: provider}
}

// Registry exposes the room registry for lifecycle management.
func (s *QuizService) Registry() *Registry { return s.rooms }

// Connect registers a transport session that will receive events through sink.
func (s *QuizService) Connect(connID string, sink Sink) {
	s.rooms.Connect(connID, sink)
}

// Touch records activity on a connection.
func (s *QuizService) Touch(connID string) {
	s.rooms.Touch(connID)
}

// Disconnect detaches a transport session from its room.
func (s *QuizService) Disconnect(connID string) {
	s.rooms.Disconnect(connID)
}

// Handle applies one inbound command for connID. Failures are reported to that connection only,
// as join_error, answer_error or error, and also returned.
func (s *QuizService) Handle(ctx context.Context, connID string, cmd Command) error {
	s.rooms.Touch(connID)

	var err error
	switch c := cmd.(type) {
	case JoinCommand:
		_, err = s.join(connID, c)
		if err != nil {
			s.reject(connID, domain.EventJoinError, cmd, err)
		}
		return err
	case SubmitAnswerCommand:
		return s.submit(ctx, connID, c)
	case StartGameCommand:
		err = s.hostAction(connID, c.Pin, func(room *Room, caller string) error {
			return room.Start(ctx, caller, func(ctx context.Context) ([]domain.Question, error) {
				return s.questions.ListQuestions(ctx, room.Code())
			})
		})
	case PrepareNextCommand:
		err = s.hostAction(connID, c.Pin, func(room *Room, caller string) error {
			return room.PrepareNext(caller)
		})
	case EndQuestionCommand:
		err = s.hostAction(connID, c.Pin, func(room *Room, caller string) error {
			return room.EndQuestion(caller, c.QuestionID)
		})
	case EndGameCommand:
		err = s.hostAction(connID, c.Pin, func(room *Room, caller string) error {
			return room.EndGame(ctx, caller)
		})
	case RequestLeaderboardCommand:
		var room *Room
		room, err = s.rooms.Room(c.Pin)
		if err == nil {
			err = room.RequestLeaderboard(connID)
		}
	case PingCommand:
		err = s.rooms.Unicast(connID, domain.NewEvent(domain.EventPong, struct{}{}))
		return err
	default:
		err = domain.Validation("unknown event")
	}
	if err != nil {
		s.reject(connID, domain.EventError, cmd, err)
	}
	return err
}

func (s *QuizService) join(connID string, c JoinCommand) (JoinResult, error) {
	return s.rooms.Join(connID, c.Pin, JoinRequest{
		IsHost:   c.IsHost,
		HostID:   c.HostID,
		PlayerID: c.PlayerID,
		Nickname: c.Nickname,
	})
}

// hostAction runs fn against the room at pin with the caller's host identity. The identity is empty
// unless the connection joined that room as its host, so fn's authorization check fails for
// everyone else.
func (s *QuizService) hostAction(connID, pin string, fn func(room *Room, caller string) error) error {
	room, err := s.rooms.Room(pin)
	if err != nil {
		return err
	}
	conn, ok := s.rooms.Connection(connID)
	if !ok {
		return domain.ErrConnectionNotFound
	}
	caller := ""
	if conn.Code == pin && conn.Role == domain.RoleHost {
		caller = conn.Identity
	}
	return fn(room, caller)
}

func (s *QuizService) submit(ctx context.Context, connID string, c SubmitAnswerCommand) error {
	conn, ok := s.rooms.Connection(connID)
	if !ok || !conn.Bound() || conn.Role != domain.RolePlayer || conn.Identity != c.PlayerID {
		// Unauthenticated submitters get no reply.
		log.Warn().Str("conn", connID).Str("player", c.PlayerID).Msg("ignoring answer from unauthenticated submitter")
		return domain.ErrPlayerNotInRoom
	}
	room, err := s.rooms.Room(conn.Code)
	if err == nil {
		_, err = room.SubmitAnswer(ctx, connID, c.PlayerID, c.QuestionID, c.Answer, c.ResponseTime)
	}
	if err != nil {
		s.reject(connID, domain.EventAnswerError, c, err)
	}
	return err
}

func (s *QuizService) reject(connID, event string, cmd Command, err error) {
	ev := log.Debug()
	if domain.Kind(err) == nil {
		ev = log.Error()
	}
	ev.Err(err).Str("conn", connID).Str("command", cmd.Name()).Msg("command rejected")
	_ = s.rooms.Unicast(connID, domain.NewEvent(event, domain.ErrorPayload{Message: PublicMessage(err)}))
}

// PublicMessage returns the text shown to clients for err. Unclassified errors are not exposed.
func PublicMessage(err error) string {
	if domain.Kind(err) != nil {
		return err.Error()
	}
	return "something went wrong, please try again"
}

// CreateRoom opens a new lobby owned by hostID.
func (s *QuizService) CreateRoom(ctx context.Context, title, hostID string) (domain.RoomSummary, error) {
	room, err := s.rooms.CreateRoom(ctx, title, hostID)
	if err != nil {
		return domain.RoomSummary{}, err
	}
	return room.Summary(), nil
}

// Room describes the room at code.
func (s *QuizService) Room(code string) (domain.RoomSummary, error) {
	room, err := s.rooms.Room(code)
	if err != nil {
		return domain.RoomSummary{}, err
	}
	return room.Summary(), nil
}

// RegisterPlayer reserves a nickname in the lobby before the player connects.
func (s *QuizService) RegisterPlayer(code, nickname string) (domain.Player, error) {
	room, err := s.rooms.Room(code)
	if err != nil {
		return domain.Player{}, err
	}
	return room.Register(nickname)
}

// Leaderboard returns the standings for the room at code.
func (s *QuizService) Leaderboard(code string) ([]domain.LeaderboardEntry, error) {
	room, err := s.rooms.Room(code)
	if err != nil {
		return nil, err
	}
	return room.Leaderboard(), nil
}

// Stats returns the host report for the room at code.
func (s *QuizService) Stats(code, hostID string) (domain.GameStats, error) {
	room, err := s.rooms.Room(code)
	if err != nil {
		return domain.GameStats{}, err
	}
	if hostID == "" || hostID != room.HostID() {
		return domain.GameStats{}, domain.ErrNotHost
	}
	return room.Stats(), nil
}

// EndGame ends the room at code on behalf of hostID.
func (s *QuizService) EndGame(ctx context.Context, code, hostID string) error {
	room, err := s.rooms.Room(code)
	if err != nil {
		return err
	}
	return room.EndGame(ctx, hostID)
}
