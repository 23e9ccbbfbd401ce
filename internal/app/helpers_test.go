package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	closed bool
}

func (s *recordingSink) Deliver(ev domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

// last returns the most recent event of typ.
func (s *recordingSink) last(typ string) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Type == typ {
			return s.events[i], true
		}
	}
	return domain.Event{}, false
}

func (s *recordingSink) count(typ string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// manualScheduler holds deferred callbacks until fire is called.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*scheduled
}

type scheduled struct {
	delay     time.Duration
	f         func()
	cancelled bool
}

func (m *manualScheduler) After(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &scheduled{delay: d, f: f}
	m.pending = append(m.pending, s)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		was := !s.cancelled
		s.cancelled = true
		return was
	}
}

// fire runs every pending callback that was not cancelled.
func (m *manualScheduler) fire() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, s := range pending {
		if !s.cancelled {
			s.f()
		}
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingRecorder struct {
	mu       sync.Mutex
	failNext bool
	games    int
}

func (f *failingRecorder) RecordAnswer(context.Context, string, domain.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("db unavailable")
	}
	return nil
}

func (f *failingRecorder) RecordGame(context.Context, domain.GameSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("db unavailable")
	}
	f.games++
	return nil
}

type harness struct {
	t         *testing.T
	ctx       context.Context
	clock     *fakeClock
	scheduler *manualScheduler
	service   *app.QuizService
	registry  *app.Registry
	code      string
	hostSink  *recordingSink
}

const testHost = "host-1"

type harnessOption func(*app.RegistryOptions)

func withRecorder(r app.ResultRecorder) harnessOption {
	return func(o *app.RegistryOptions) { o.Room.Recorder = r }
}

// newHarness builds a service with one room holding n questions worth 1000 points over 20s,
// and a host connection "host" joined to it.
func newHarness(t *testing.T, n int, opts ...harnessOption) *harness {
	t.Helper()
	clock := newFakeClock()
	sched := &manualScheduler{}
	codes := 0
	ro := app.RegistryOptions{
		Now:        clock.Now,
		StaleAfter: 30 * time.Second,
		IdleTTL:    time.Hour,
		NewCode: func() string {
			codes++
			return fmt.Sprintf("%06d", 100000+codes)
		},
		Room: app.RoomOptions{
			Now:          clock.Now,
			After:        sched.After,
			PrepareDelay: 2 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(&ro)
	}
	registry := app.NewRegistry(memory.NewRoomStore(), ro)
	service := app.NewQuizService(registry, memory.NewQuestionStore(), nil)

	h := &harness{
		t:         t,
		ctx:       context.Background(),
		clock:     clock,
		scheduler: sched,
		service:   service,
		registry:  registry,
		hostSink:  &recordingSink{},
	}
	summary, err := service.CreateRoom(h.ctx, "Friday trivia", testHost)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	h.code = summary.Code

	if n > 0 {
		qs := make([]domain.Question, n)
		for i := range qs {
			qs[i] = domain.Question{
				ID:               fmt.Sprintf("q%d", i+1),
				Prompt:           fmt.Sprintf("Question number %d?", i+1),
				CorrectAnswer:    "right",
				IncorrectAnswers: []string{"wrong a", "wrong b", "wrong c"},
				TimeLimit:        20,
				Points:           1000,
			}
		}
		if _, err := service.AddQuestions(h.ctx, h.code, testHost, qs...); err != nil {
			t.Fatalf("add questions: %v", err)
		}
	}

	service.Connect("host", h.hostSink)
	if err := service.Handle(h.ctx, "host", app.JoinCommand{Pin: h.code, IsHost: true, HostID: testHost}); err != nil {
		t.Fatalf("host join: %v", err)
	}
	return h
}

// join connects connID and joins it as a new player with nickname.
func (h *harness) join(connID, nickname string) (*recordingSink, string) {
	h.t.Helper()
	sink := &recordingSink{}
	h.service.Connect(connID, sink)
	if err := h.service.Handle(h.ctx, connID, app.JoinCommand{Pin: h.code, Nickname: nickname}); err != nil {
		h.t.Fatalf("join %s: %v", nickname, err)
	}
	conn, _ := h.registry.Connection(connID)
	return sink, conn.Identity
}

func (h *harness) host(cmd app.Command) error {
	return h.service.Handle(h.ctx, "host", cmd)
}

// startQuestion starts the game if needed and opens the next question.
func (h *harness) startQuestion() {
	h.t.Helper()
	room, _ := h.registry.Room(h.code)
	if room.State() == domain.StateLobby {
		if err := h.host(app.StartGameCommand{Pin: h.code}); err != nil {
			h.t.Fatalf("start: %v", err)
		}
	}
	if err := h.host(app.PrepareNextCommand{Pin: h.code}); err != nil {
		h.t.Fatalf("prepare next: %v", err)
	}
	h.scheduler.fire()
	if got := room.State(); got != domain.StateQuestionActive {
		h.t.Fatalf("expected active question, got %s", got)
	}
}
