package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/domain"
)

// RoomStore reserves room codes so they stay unique, possibly across processes.
type RoomStore interface {
	// Reserve claims code and reports false when it is already taken.
	Reserve(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error
}

// Refresher is implemented by stores whose reservations expire unless refreshed.
type Refresher interface {
	Refresh(ctx context.Context, codes []string) error
}

// Connection is a transport session known to the registry.
type Connection struct {
	ID       string
	Code     string
	Role     domain.Role
	Identity string // host id for hosts, player id for players
	LastSeen time.Time
	sink     Sink
}

// Bound reports whether the connection has joined a room.
func (c Connection) Bound() bool { return c.Code != "" }

// Closer is implemented by sinks that can terminate their transport session.
type Closer interface {
	Close()
}

// RegistryOptions configures timing for the registry and the rooms it creates.
type RegistryOptions struct {
	Now           func() time.Time
	StaleAfter    time.Duration
	SweepInterval time.Duration
	IdleTTL       time.Duration
	NewCode       func() string
	Room          RoomOptions
}

const maxCodeAttempts = 20

func (o RegistryOptions) withDefaults() RegistryOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 30 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 5 * time.Second
	}
	if o.IdleTTL <= 0 {
		o.IdleTTL = 2 * time.Hour
	}
	if o.NewCode == nil {
		o.NewCode = func() string { return fmt.Sprintf("%06d", rand.IntN(1000000)) }
	}
	if o.Room.Now == nil {
		o.Room.Now = o.Now
	}
	return o
}

// Registry maps room codes to rooms and connection ids to connections.
// mu guards only the two maps. It is never held while a room lock is taken, so room
// broadcasts and ledger writes never wait on it.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	conns map[string]*Connection

	store RoomStore
	opts  RegistryOptions
}

func NewRegistry(store RoomStore, opts RegistryOptions) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		conns: make(map[string]*Connection),
		store: store,
		opts:  opts.withDefaults(),
	}
}

// CreateRoom creates a lobby room under a fresh 6 digit code.
func (r *Registry) CreateRoom(ctx context.Context, title, hostID string) (*Room, error) {
	title = strings.TrimSpace(title)
	if n := utf8.RuneCountInString(title); n < 1 || n > 200 {
		return nil, domain.Validation("title must be between 1 and 200 characters")
	}
	if hostID == "" {
		return nil, domain.ErrNotHost
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := r.opts.NewCode()

		r.mu.Lock()
		_, taken := r.rooms[code]
		r.mu.Unlock()
		if taken {
			continue
		}

		if r.store != nil {
			ok, err := r.store.Reserve(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("reserve room code: %w", err)
			}
			if !ok {
				continue
			}
		}

		room := NewRoom(code, title, hostID, r.opts.Room)
		r.mu.Lock()
		if _, taken := r.rooms[code]; taken {
			r.mu.Unlock()
			continue
		}
		r.rooms[code] = room
		r.mu.Unlock()

		log.Info().Str("room", code).Str("host", hostID).Msg("room created")
		return room, nil
	}
	return nil, domain.ErrNoFreeCode
}

// Room looks up a room by code.
func (r *Registry) Room(code string) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// Rooms returns a snapshot of all live rooms.
func (r *Registry) Rooms() []*Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}

// Connect registers a new transport session.
func (r *Registry) Connect(connID string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &Connection{ID: connID, LastSeen: r.opts.Now(), sink: sink}
}

// Touch records activity on a connection.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		c.LastSeen = r.opts.Now()
	}
}

// Connection returns a copy of the connection's current binding.
func (r *Registry) Connection(connID string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// Join attaches connID to the room at code. A connection bound to another room leaves it first.
func (r *Registry) Join(connID, code string, req JoinRequest) (JoinResult, error) {
	conn, ok := r.Connection(connID)
	if !ok {
		return JoinResult{}, domain.ErrConnectionNotFound
	}
	room, err := r.Room(code)
	if err != nil {
		return JoinResult{}, err
	}
	if conn.Bound() && conn.Code != code {
		if prev, err := r.Room(conn.Code); err == nil {
			prev.Leave(connID)
		}
	}

	res, err := room.Join(connID, conn.sink, req)
	if err != nil {
		return JoinResult{}, err
	}

	identity := res.PlayerID
	if res.Role == domain.RoleHost {
		identity = req.HostID
	}
	r.mu.Lock()
	if c, ok := r.conns[connID]; ok {
		c.Code, c.Role, c.Identity = code, res.Role, identity
		c.LastSeen = r.opts.Now()
		r.mu.Unlock()
		return res, nil
	}
	r.mu.Unlock()

	// The connection went away while joining.
	room.Leave(connID)
	return JoinResult{}, domain.ErrConnectionNotFound
}

// Disconnect forgets connID and detaches it from its room.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	r.detach(*c)
}

func (r *Registry) detach(c Connection) {
	if !c.Bound() {
		return
	}
	if room, err := r.Room(c.Code); err == nil {
		room.Leave(c.ID)
	}
}

// StaleAfter is the inactivity window after which a connection is evicted.
func (r *Registry) StaleAfter() time.Duration { return r.opts.StaleAfter }

// SweepStale evicts connections with no activity for the staleness window and returns their ids.
// Each eviction notifies the remaining room members.
func (r *Registry) SweepStale(now time.Time) []string {
	r.mu.Lock()
	var stale []Connection
	for id, c := range r.conns {
		if now.Sub(c.LastSeen) > r.opts.StaleAfter {
			stale = append(stale, *c)
			delete(r.conns, id)
		}
	}
	r.mu.Unlock()

	evicted := make([]string, 0, len(stale))
	for _, c := range stale {
		log.Info().Str("conn", c.ID).Str("room", c.Code).Dur("idle", now.Sub(c.LastSeen)).Msg("evicting stale connection")
		r.detach(c)
		if closer, ok := c.sink.(Closer); ok {
			closer.Close()
		}
		evicted = append(evicted, c.ID)
	}
	return evicted
}

// SweepIdleRooms removes rooms with no connections and no activity for the idle TTL.
func (r *Registry) SweepIdleRooms(ctx context.Context, now time.Time) []string {
	var removed []string
	for _, room := range r.Rooms() {
		if !room.Idle(now, r.opts.IdleTTL) {
			continue
		}
		r.mu.Lock()
		if r.rooms[room.Code()] == room {
			delete(r.rooms, room.Code())
		}
		r.mu.Unlock()

		room.Close()
		r.release(ctx, room.Code())
		removed = append(removed, room.Code())
		log.Info().Str("room", room.Code()).Msg("removed idle room")
	}
	return removed
}

func (r *Registry) release(ctx context.Context, code string) {
	if r.store == nil {
		return
	}
	if err := r.store.Release(ctx, code); err != nil {
		log.Warn().Err(err).Str("room", code).Msg("release room code failed")
	}
}

func (r *Registry) refresh(ctx context.Context) {
	refresher, ok := r.store.(Refresher)
	if !ok {
		return
	}
	rooms := r.Rooms()
	codes := make([]string, len(rooms))
	for i, room := range rooms {
		codes[i] = room.Code()
	}
	if err := refresher.Refresh(ctx, codes); err != nil {
		log.Warn().Err(err).Int("rooms", len(codes)).Msg("refresh room reservations failed")
	}
}

// Broadcast delivers ev to every connection in the room at code.
func (r *Registry) Broadcast(code string, ev domain.Event) error {
	room, err := r.Room(code)
	if err != nil {
		return err
	}
	room.Broadcast(ev)
	return nil
}

// Unicast delivers ev to a single connection.
func (r *Registry) Unicast(connID string, ev domain.Event) error {
	r.mu.Lock()
	c, ok := r.conns[connID]
	var sink Sink
	if ok {
		sink = c.sink
	}
	r.mu.Unlock()
	if !ok {
		return domain.ErrConnectionNotFound
	}
	if sink != nil && !sink.Deliver(ev) {
		log.Warn().Str("conn", connID).Str("event", ev.Type).Msg("dropping slow connection")
	}
	return nil
}

// Run sweeps stale connections and idle rooms until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := r.opts.Now()
			r.SweepStale(now)
			r.SweepIdleRooms(ctx, now)
			r.refresh(ctx)
		}
	}
}

// Close stops pending timers, closes every connection and releases all room codes.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	rooms := r.rooms
	conns := r.conns
	r.rooms = make(map[string]*Room)
	r.conns = make(map[string]*Connection)
	r.mu.Unlock()

	for _, c := range conns {
		if closer, ok := c.sink.(Closer); ok {
			closer.Close()
		}
	}
	for code, room := range rooms {
		room.Close()
		r.release(ctx, code)
	}
}
