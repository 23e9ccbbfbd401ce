package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/domain"
)

// Sink receives events for one connection. Deliver must not block; it reports false when the
// event could not be queued, in which case the sink is expected to close its connection.
type Sink interface {
	Deliver(ev domain.Event) bool
}

// ResultRecorder persists answers and finished games.
type ResultRecorder interface {
	RecordAnswer(ctx context.Context, code string, answer domain.Answer) error
	RecordGame(ctx context.Context, summary domain.GameSummary) error
}

// Scheduler runs f after d and returns a function that cancels it.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

// AfterFunc schedules with time.AfterFunc.
func AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

const (
	minNicknameLen = 2
	maxNicknameLen = 64
)

// RoomOptions carries a room's collaborators.
type RoomOptions struct {
	Now          func() time.Time
	After        Scheduler
	PrepareDelay time.Duration
	Recorder     ResultRecorder
}

func (o RoomOptions) withDefaults() RoomOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.After == nil {
		o.After = AfterFunc
	}
	if o.PrepareDelay <= 0 {
		o.PrepareDelay = 2 * time.Second
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return o
}

type member struct {
	role     domain.Role
	playerID string
	sink     Sink
}

// JoinRequest describes a connection asking to attach to a room.
type JoinRequest struct {
	IsHost   bool
	HostID   string
	PlayerID string
	Nickname string
}

// JoinResult tells the caller which identity the connection was bound to.
type JoinResult struct {
	Role     domain.Role
	PlayerID string
	Rejoin   bool
}

// AnswerOutcome is the accepted answer and the player's totals after it.
type AnswerOutcome struct {
	Answer    domain.Answer
	NewScore  int
	NewStreak int
}

// Room is the authoritative state of one quiz session. Every method takes the room's lock for its
// full duration and delivers events while holding it, so observers see mutations in order.
// The lock is never held across the preparation delay.
type Room struct {
	mu sync.Mutex

	code      string
	title     string
	hostID    string
	createdAt time.Time
	endedAt   time.Time
	state     domain.RoomState
	active    bool

	seq     *Sequencer
	ledger  *Ledger
	players map[string]*domain.Player
	order   []*domain.Player
	joinSeq int
	members map[string]member

	lastActivity time.Time
	cancelTimer  func() bool

	opts RoomOptions
}

// NewRoom creates a room in the lobby.
func NewRoom(code, title, hostID string, opts RoomOptions) *Room {
	opts = opts.withDefaults()
	now := opts.Now()
	return &Room{
		code:         code,
		title:        title,
		hostID:       hostID,
		createdAt:    now,
		state:        domain.StateLobby,
		active:       true,
		seq:          NewSequencer(),
		ledger:       NewLedger(),
		players:      make(map[string]*domain.Player),
		members:      make(map[string]member),
		lastActivity: now,
		opts:         opts,
	}
}

func (r *Room) Code() string { return r.code }

func (r *Room) HostID() string { return r.hostID }

func (r *Room) State() domain.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Register adds a player to the lobby without attaching a connection. The player is marked ready
// once a connection joins as them.
func (r *Room) Register(nickname string) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.addPlayerLocked(nickname)
	if err != nil {
		return domain.Player{}, err
	}
	r.touchLocked()
	r.broadcastParticipantsLocked()
	return *p, nil
}

// Join attaches connID to the room as the host or as a player.
func (r *Room) Join(connID string, sink Sink, req JoinRequest) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.IsHost {
		return r.joinHostLocked(connID, sink, req.HostID)
	}
	return r.joinPlayerLocked(connID, sink, req)
}

func (r *Room) joinHostLocked(connID string, sink Sink, hostID string) (JoinResult, error) {
	if hostID == "" || hostID != r.hostID {
		return JoinResult{}, domain.ErrNotHost
	}
	r.members[connID] = member{role: domain.RoleHost, sink: sink}
	r.touchLocked()
	log.Info().Str("room", r.code).Str("conn", connID).Msg("host connected")

	r.broadcastParticipantsLocked()
	if r.state != domain.StateLobby {
		r.deliverLocked(connID, domain.NewEvent(domain.EventGameStateSync, r.syncLocked("")))
	}
	return JoinResult{Role: domain.RoleHost}, nil
}

func (r *Room) joinPlayerLocked(connID string, sink Sink, req JoinRequest) (JoinResult, error) {
	if req.PlayerID != "" {
		p, ok := r.players[req.PlayerID]
		if !ok {
			return JoinResult{}, domain.ErrPlayerNotFound
		}
		rejoin := p.Ready
		p.Ready = true
		r.members[connID] = member{role: domain.RolePlayer, playerID: p.ID, sink: sink}
		r.touchLocked()
		log.Info().Str("room", r.code).Str("conn", connID).Str("player", p.ID).Bool("rejoin", rejoin).Msg("player connected")

		r.broadcastJoinLocked(p, rejoin)
		if r.state != domain.StateLobby {
			r.deliverLocked(connID, domain.NewEvent(domain.EventGameStateSync, r.syncLocked(p.ID)))
		}
		return JoinResult{Role: domain.RolePlayer, PlayerID: p.ID, Rejoin: rejoin}, nil
	}

	p, err := r.addPlayerLocked(req.Nickname)
	if err != nil {
		return JoinResult{}, err
	}
	p.Ready = true
	r.members[connID] = member{role: domain.RolePlayer, playerID: p.ID, sink: sink}
	r.touchLocked()
	log.Info().Str("room", r.code).Str("conn", connID).Str("player", p.ID).Msg("player joined")

	r.broadcastJoinLocked(p, false)
	return JoinResult{Role: domain.RolePlayer, PlayerID: p.ID}, nil
}

func (r *Room) addPlayerLocked(nickname string) (*domain.Player, error) {
	if !r.active || r.state == domain.StateEnded {
		return nil, domain.ErrGameEnded
	}
	if r.state != domain.StateLobby {
		return nil, domain.ErrAlreadyStarted
	}
	nickname = strings.TrimSpace(nickname)
	if n := utf8.RuneCountInString(nickname); n < minNicknameLen || n > maxNicknameLen {
		return nil, domain.Validation(fmt.Sprintf("nickname must be between %d and %d characters", minNicknameLen, maxNicknameLen))
	}
	for _, existing := range r.order {
		if strings.EqualFold(existing.Nickname, nickname) {
			return nil, domain.ErrNicknameTaken
		}
	}

	r.joinSeq++
	p := &domain.Player{
		ID:       uuid.NewString(),
		Nickname: nickname,
		JoinedAt: r.opts.Now(),
		JoinSeq:  r.joinSeq,
	}
	r.players[p.ID] = p
	r.order = append(r.order, p)
	return p, nil
}

func (r *Room) broadcastJoinLocked(p *domain.Player, rejoin bool) {
	r.broadcastLocked(domain.NewEvent(domain.EventPlayerJoined, domain.PlayerJoinedPayload{
		PlayerID: p.ID,
		Nickname: p.Nickname,
		Score:    p.Score,
		IsReady:  p.Ready,
		IsRejoin: rejoin,
	}))
	if !rejoin {
		r.broadcastLocked(domain.NewEvent(domain.EventPlayerReady, domain.PlayerReadyPayload{
			PlayerID: p.ID,
			Nickname: p.Nickname,
		}))
	}
	r.broadcastParticipantsLocked()
	if r.state == domain.StateLobby && r.allReadyLocked() {
		r.broadcastLocked(domain.NewEvent(domain.EventAllPlayersReady, struct{}{}))
	}
}

func (r *Room) allReadyLocked() bool {
	if len(r.order) == 0 {
		return false
	}
	for _, p := range r.order {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Leave detaches connID. It reports whether the connection was a member.
func (r *Room) Leave(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connID]
	if !ok {
		return false
	}
	delete(r.members, connID)
	r.touchLocked()
	log.Info().Str("room", r.code).Str("conn", connID).Str("role", string(m.role)).Msg("connection left")
	r.broadcastParticipantsLocked()
	return true
}

// Start freezes the question list returned by load and moves the room out of the lobby.
// load runs under the room lock so no question can be added between reading and freezing.
func (r *Room) Start(ctx context.Context, caller string, load func(ctx context.Context) ([]domain.Question, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorizeLocked(caller); err != nil {
		return err
	}
	switch r.state {
	case domain.StateLobby:
	case domain.StateEnded:
		return domain.ErrGameEnded
	default:
		return domain.ErrAlreadyStarted
	}

	questions, err := load(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	now := r.opts.Now()
	if err := r.seq.Start(questions, now); err != nil {
		return err
	}
	r.state = domain.StateRunning
	r.touchLocked()
	log.Info().Str("room", r.code).Int("questions", r.seq.Len()).Msg("game started")

	r.broadcastLocked(domain.NewEvent(domain.EventGameStarted, domain.GameStartedPayload{
		StartedAt:            now,
		TotalQuestions:       r.seq.Len(),
		CurrentQuestionIndex: r.seq.Index(),
		Redirect: &domain.Redirect{
			Host:   "/host/" + r.code + "/game",
			Player: "/play/" + r.code,
		},
	}))
	return nil
}

// PrepareNext advances to the next question, announces it, and schedules its activation after
// the preparation delay.
func (r *Room) PrepareNext(caller string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorizeLocked(caller); err != nil {
		return err
	}
	switch r.state {
	case domain.StateRunning, domain.StateQuestionEnded:
	case domain.StateLobby:
		return domain.ErrNotStarted
	case domain.StateEnded:
		return domain.ErrGameEnded
	default:
		return domain.ErrQuestionOpen
	}

	q, _, err := r.seq.Advance(r.opts.Now())
	if err != nil {
		return err
	}
	r.state = domain.StateQuestionPrepared
	r.touchLocked()
	index := r.seq.Index()
	log.Info().Str("room", r.code).Int("index", index).Str("question", q.ID).Msg("question preparing")

	r.broadcastLocked(domain.NewEvent(domain.EventQuestionPreparing, domain.QuestionPreparingPayload{
		Question:       q.View(),
		TotalQuestions: r.seq.Len(),
		CurrentIndex:   index,
	}))
	r.cancelTimer = r.opts.After(r.opts.PrepareDelay, func() { r.activate(index) })
	return nil
}

// activate opens question index for answers if the room is still waiting on it.
func (r *Room) activate(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != domain.StateQuestionPrepared || r.seq.Index() != index {
		return
	}
	r.cancelTimer = nil
	now := r.opts.Now()
	r.seq.MarkStarted(now)
	r.state = domain.StateQuestionActive

	q, _ := r.seq.Current()
	view := q.View()
	view.StartedAt = &now
	log.Info().Str("room", r.code).Int("index", index).Str("question", q.ID).Msg("question started")
	r.broadcastLocked(domain.NewEvent(domain.EventQuestionStarted, view))
}

// SubmitAnswer records playerID's answer to the active question, persists it, and notifies the
// submitting connection and then the room. Persistence failure rolls the answer back.
func (r *Room) SubmitAnswer(ctx context.Context, connID, playerID, questionID, text string, responseTime float64) (AnswerOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connID]
	if !ok || m.role != domain.RolePlayer || m.playerID != playerID {
		return AnswerOutcome{}, domain.ErrPlayerNotInRoom
	}
	player, ok := r.players[playerID]
	if !ok {
		return AnswerOutcome{}, domain.ErrPlayerNotInRoom
	}

	current, hasCurrent := r.seq.Current()
	switch r.state {
	case domain.StateQuestionActive:
	case domain.StateEnded:
		return AnswerOutcome{}, domain.ErrGameEnded
	case domain.StateQuestionEnded:
		if hasCurrent && current.ID == questionID {
			return AnswerOutcome{}, domain.ErrQuestionClosed
		}
		return AnswerOutcome{}, domain.ErrNoActiveQuestion
	default:
		return AnswerOutcome{}, domain.ErrNoActiveQuestion
	}

	answer, revert, err := r.ledger.Submit(player, current, questionID, text, responseTime, r.opts.Now())
	if err != nil {
		return AnswerOutcome{}, err
	}
	if err := r.opts.Recorder.RecordAnswer(ctx, r.code, answer); err != nil {
		r.ledger.rollback(revert)
		log.Error().Err(err).Str("room", r.code).Str("player", playerID).Str("question", questionID).Msg("record answer failed, rolled back")
		return AnswerOutcome{}, fmt.Errorf("record answer: %w", err)
	}
	r.touchLocked()

	out := AnswerOutcome{Answer: answer, NewScore: player.Score, NewStreak: player.Streak}
	r.deliverLocked(connID, domain.NewEvent(domain.EventAnswerResult, domain.AnswerResultPayload{
		QuestionID:    questionID,
		IsCorrect:     answer.Correct,
		CorrectAnswer: current.CorrectAnswer,
		PointsAwarded: answer.PointsAwarded,
		NewScore:      player.Score,
		NewStreak:     player.Streak,
	}))
	r.broadcastLocked(domain.NewEvent(domain.EventAnswerSubmitted, domain.AnswerSubmittedPayload{
		PlayerID:      player.ID,
		Nickname:      player.Nickname,
		IsCorrect:     answer.Correct,
		PointsAwarded: answer.PointsAwarded,
		NewScore:      player.Score,
		NewStreak:     player.Streak,
	}))
	return out, nil
}

// EndQuestion closes the current question and reveals its correct answer with every result.
// An empty questionID ends whichever question is current.
func (r *Room) EndQuestion(caller, questionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorizeLocked(caller); err != nil {
		return err
	}
	switch r.state {
	case domain.StateQuestionActive, domain.StateQuestionPrepared:
	case domain.StateEnded:
		return domain.ErrGameEnded
	case domain.StateQuestionEnded:
		return domain.ErrQuestionClosed
	default:
		return domain.ErrNoActiveQuestion
	}
	current, _ := r.seq.Current()
	if questionID != "" && questionID != current.ID {
		return domain.ErrQuestionMismatch
	}

	r.stopTimerLocked()
	r.state = domain.StateQuestionEnded
	r.touchLocked()

	answers := r.ledger.AnswersFor(current.ID)
	views := make([]domain.AnswerView, 0, len(answers))
	for _, a := range answers {
		nickname := ""
		if p, ok := r.players[a.PlayerID]; ok {
			nickname = p.Nickname
		}
		views = append(views, domain.AnswerView{
			PlayerID:      a.PlayerID,
			Nickname:      nickname,
			IsCorrect:     a.Correct,
			PointsAwarded: a.PointsAwarded,
			ResponseTime:  a.ResponseTime,
		})
	}
	log.Info().Str("room", r.code).Str("question", current.ID).Int("answers", len(views)).Msg("question ended")

	r.broadcastLocked(domain.NewEvent(domain.EventQuestionEnded, domain.QuestionEndedPayload{
		QuestionID:    current.ID,
		CorrectAnswer: current.CorrectAnswer,
		Answers:       views,
	}))
	r.broadcastLocked(domain.NewEvent(domain.EventLeaderboardUpdate, domain.LeaderboardPayload{
		Leaderboard: Leaderboard(r.order),
	}))
	return nil
}

// EndGame moves the room to Ended and records the game. If recording fails the room keeps its
// previous state.
func (r *Room) EndGame(ctx context.Context, caller string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorizeLocked(caller); err != nil {
		return err
	}
	if r.state == domain.StateEnded {
		return domain.ErrGameEnded
	}

	prevState, prevActive := r.state, r.active
	now := r.opts.Now()
	r.state = domain.StateEnded
	r.active = false
	r.endedAt = now

	if err := r.opts.Recorder.RecordGame(ctx, r.gameSummaryLocked()); err != nil {
		r.state, r.active, r.endedAt = prevState, prevActive, time.Time{}
		log.Error().Err(err).Str("room", r.code).Msg("record game failed, rolled back")
		return fmt.Errorf("record game: %w", err)
	}
	r.stopTimerLocked()
	r.touchLocked()
	log.Info().Str("room", r.code).Msg("game ended")

	r.broadcastLocked(domain.NewEvent(domain.EventGameEnded, domain.GameEndedPayload{
		EndedAt:     now,
		Leaderboard: Leaderboard(r.order),
	}))
	return nil
}

// RequestLeaderboard broadcasts the current standings on behalf of a member connection.
func (r *Room) RequestLeaderboard(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[connID]; !ok {
		return domain.ErrNotJoined
	}
	r.broadcastLocked(domain.NewEvent(domain.EventLeaderboardUpdate, domain.LeaderboardPayload{
		Leaderboard: Leaderboard(r.order),
	}))
	return nil
}

// Broadcast delivers ev to every connection in the room.
func (r *Room) Broadcast(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(ev)
}

// Leaderboard returns the current standings.
func (r *Room) Leaderboard() []domain.LeaderboardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Leaderboard(r.order)
}

// EditQuestions runs fn while the room is guaranteed to stay in the lobby.
func (r *Room) EditQuestions(caller string, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorizeLocked(caller); err != nil {
		return err
	}
	if r.state != domain.StateLobby {
		return domain.ErrAlreadyStarted
	}
	r.touchLocked()
	return fn()
}

// Summary describes the room for REST callers.
func (r *Room) Summary() domain.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]domain.PlayerView, 0, len(r.order))
	for _, p := range r.order {
		players = append(players, playerView(p))
	}
	s := domain.RoomSummary{
		Code:          r.code,
		Title:         r.title,
		HostID:        r.hostID,
		State:         r.state,
		Active:        r.active,
		QuestionCount: r.seq.Len(),
		CurrentIndex:  r.seq.Index(),
		Players:       players,
		CreatedAt:     r.createdAt,
	}
	if r.seq.Started() {
		t := r.seq.StartedAt()
		s.StartedAt = &t
	}
	if !r.endedAt.IsZero() {
		t := r.endedAt
		s.EndedAt = &t
	}
	return s
}

// Stats reports per-player and per-question accuracy.
func (r *Room) Stats() domain.GameStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	questions := r.seq.Questions()
	stats := domain.GameStats{
		Title:          r.title,
		TotalPlayers:   len(r.order),
		TotalQuestions: len(questions),
		Players:        make([]domain.PlayerStats, 0, len(r.order)),
		Questions:      make([]domain.QuestionStats, 0, len(questions)),
	}
	if r.seq.Started() {
		t := r.seq.StartedAt()
		stats.StartedAt = &t
	}
	if !r.endedAt.IsZero() {
		t := r.endedAt
		stats.EndedAt = &t
	}

	correctByPlayer := make(map[string]int)
	for _, q := range questions {
		answers := r.ledger.AnswersFor(q.ID)
		qs := domain.QuestionStats{
			QuestionID:    q.ID,
			Content:       q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
			TotalAnswers:  len(answers),
		}
		for _, a := range answers {
			if a.Correct {
				qs.CorrectAnswers++
				correctByPlayer[a.PlayerID]++
			}
		}
		qs.Accuracy = percent(qs.CorrectAnswers, qs.TotalAnswers)
		stats.Questions = append(stats.Questions, qs)
	}

	ranked := append([]*domain.Player(nil), r.order...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	for _, p := range ranked {
		stats.Players = append(stats.Players, domain.PlayerStats{
			PlayerID:       p.ID,
			Nickname:       p.Nickname,
			Score:          p.Score,
			CorrectAnswers: correctByPlayer[p.ID],
			Accuracy:       percent(correctByPlayer[p.ID], len(questions)),
		})
	}
	return stats
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// Idle reports whether the room has no connections and has seen no activity for ttl.
func (r *Room) Idle(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0 && now.Sub(r.lastActivity) >= ttl
}

// Close cancels any pending question activation.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
}

func (r *Room) authorizeLocked(caller string) error {
	if caller == "" || caller != r.hostID {
		return domain.ErrNotHost
	}
	return nil
}

func (r *Room) touchLocked() {
	r.lastActivity = r.opts.Now()
}

func (r *Room) stopTimerLocked() {
	if r.cancelTimer != nil {
		r.cancelTimer()
		r.cancelTimer = nil
	}
}

// syncLocked builds the resume snapshot for a reconnecting connection. playerID is empty for the host.
func (r *Room) syncLocked(playerID string) domain.GameStateSyncPayload {
	out := domain.GameStateSyncPayload{
		State:                r.state,
		CurrentQuestionIndex: r.seq.Index(),
		TotalQuestions:       r.seq.Len(),
	}
	if p, ok := r.players[playerID]; ok {
		out.Score = p.Score
		out.Streak = p.Streak
	}

	q, ok := r.seq.Current()
	if !ok {
		return out
	}
	view := q.View()
	out.CurrentQuestion = &view
	if playerID != "" {
		out.HasAnswered = r.ledger.Has(playerID, q.ID)
	}

	startedAt := r.seq.QuestionStartedAt()
	if startedAt.IsZero() {
		out.RemainingTime = float64(q.TimeLimit)
		return out
	}
	view.StartedAt = &startedAt
	out.QuestionStartedAt = &startedAt
	elapsed := r.opts.Now().Sub(startedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	out.ElapsedTime = elapsed
	if remaining := float64(q.TimeLimit) - elapsed; remaining > 0 && r.state == domain.StateQuestionActive {
		out.RemainingTime = remaining
	}
	return out
}

func (r *Room) gameSummaryLocked() domain.GameSummary {
	players := make([]domain.Player, 0, len(r.order))
	for _, p := range r.order {
		players = append(players, *p)
	}
	s := domain.GameSummary{
		Code:      r.code,
		Title:     r.title,
		HostID:    r.hostID,
		CreatedAt: r.createdAt,
		EndedAt:   r.endedAt,
		Players:   players,
		Answers:   r.ledger.All(r.seq.Questions()),
	}
	if r.seq.Started() {
		t := r.seq.StartedAt()
		s.StartedAt = &t
	}
	return s
}

func (r *Room) participantsLocked() domain.ParticipantsPayload {
	connected := make(map[string]bool)
	hostConnected := false
	for _, m := range r.members {
		if m.role == domain.RoleHost {
			hostConnected = true
			continue
		}
		connected[m.playerID] = true
	}
	views := make([]domain.PlayerView, 0, len(connected))
	for _, p := range r.order {
		if connected[p.ID] {
			views = append(views, playerView(p))
		}
	}
	return domain.ParticipantsPayload{ConnectedPlayers: views, HostConnected: hostConnected}
}

func (r *Room) broadcastParticipantsLocked() {
	r.broadcastLocked(domain.NewEvent(domain.EventParticipantsChanged, r.participantsLocked()))
}

func (r *Room) broadcastLocked(ev domain.Event) {
	for connID := range r.members {
		r.deliverLocked(connID, ev)
	}
}

func (r *Room) deliverLocked(connID string, ev domain.Event) {
	m, ok := r.members[connID]
	if !ok || m.sink == nil {
		return
	}
	if !m.sink.Deliver(ev) {
		log.Warn().Str("room", r.code).Str("conn", connID).Str("event", ev.Type).Msg("dropping slow connection")
	}
}

func playerView(p *domain.Player) domain.PlayerView {
	return domain.PlayerView{ID: p.ID, Nickname: p.Nickname, Score: p.Score, IsReady: p.Ready}
}

type nopRecorder struct{}

func (nopRecorder) RecordAnswer(context.Context, string, domain.Answer) error { return nil }

func (nopRecorder) RecordGame(context.Context, domain.GameSummary) error { return nil }
