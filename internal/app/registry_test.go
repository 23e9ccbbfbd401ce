package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func TestCreateRoomRegeneratesOnCollision(t *testing.T) {
	ctx := context.Background()
	codes := []string{"111111", "111111", "222222"}
	registry := app.NewRegistry(memory.NewRoomStore(), app.RegistryOptions{
		NewCode: func() string {
			c := codes[0]
			codes = codes[1:]
			return c
		},
	})

	first, err := registry.CreateRoom(ctx, "One", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := registry.CreateRoom(ctx, "Two", "host")
	if err != nil {
		t.Fatalf("create 2: %v", err)
	}
	if first.Code() != "111111" || second.Code() != "222222" {
		t.Fatalf("unexpected codes %s %s", first.Code(), second.Code())
	}
}

func TestCreateRoomRespectsStoreReservations(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRoomStore()
	_, _ = store.Reserve(ctx, "333333") // held by another process
	codes := []string{"333333", "444444"}
	registry := app.NewRegistry(store, app.RegistryOptions{
		NewCode: func() string {
			c := codes[0]
			codes = codes[1:]
			return c
		},
	})

	room, err := registry.CreateRoom(ctx, "Quiz", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Code() != "444444" {
		t.Fatalf("expected reserved code to be skipped, got %s", room.Code())
	}
}

func TestCreateRoomGivesUp(t *testing.T) {
	ctx := context.Background()
	registry := app.NewRegistry(memory.NewRoomStore(), app.RegistryOptions{
		NewCode: func() string { return "555555" },
	})
	if _, err := registry.CreateRoom(ctx, "A", "host"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := registry.CreateRoom(ctx, "B", "host"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict when codes run out, got %v", err)
	}
	if _, err := registry.CreateRoom(ctx, "  ", "host"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty title, got %v", err)
	}
}

func TestRoomLookup(t *testing.T) {
	registry := app.NewRegistry(nil, app.RegistryOptions{})
	if _, err := registry.Room("000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweepIdleRooms(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memory.NewRoomStore()
	registry := app.NewRegistry(store, app.RegistryOptions{
		Now:     clock.Now,
		IdleTTL: time.Hour,
		NewCode: func() string { return "777777" },
	})
	room, err := registry.CreateRoom(ctx, "Quiz", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	registry.Connect("c1", &recordingSink{})
	if _, err := registry.Join("c1", room.Code(), app.JoinRequest{IsHost: true, HostID: "host"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	clock.Advance(2 * time.Hour)
	if removed := registry.SweepIdleRooms(ctx, clock.Now()); len(removed) != 0 {
		t.Fatalf("room with a connection must not be removed")
	}

	registry.Disconnect("c1")
	clock.Advance(30 * time.Minute)
	if removed := registry.SweepIdleRooms(ctx, clock.Now()); len(removed) != 0 {
		t.Fatalf("room removed before idle ttl")
	}
	clock.Advance(31 * time.Minute)
	if removed := registry.SweepIdleRooms(ctx, clock.Now()); len(removed) != 1 {
		t.Fatalf("expected idle room removed")
	}
	if _, err := registry.Room(room.Code()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected room gone, got %v", err)
	}
	if ok, _ := store.Reserve(ctx, room.Code()); !ok {
		t.Fatalf("expected code released")
	}
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	registry := app.NewRegistry(nil, app.RegistryOptions{SweepInterval: 10 * time.Millisecond, StaleAfter: time.Millisecond})
	sink := &recordingSink{}
	registry.Connect("c1", sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- registry.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := registry.Connection("c1"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stale connection not swept")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
}

func TestJoinMovesConnectionBetweenRooms(t *testing.T) {
	ctx := context.Background()
	codes := []string{"100001", "100002"}
	registry := app.NewRegistry(nil, app.RegistryOptions{
		NewCode: func() string {
			c := codes[0]
			codes = codes[1:]
			return c
		},
	})
	a, _ := registry.CreateRoom(ctx, "A", "host")
	b, _ := registry.CreateRoom(ctx, "B", "host")

	registry.Connect("c1", &recordingSink{})
	if _, err := registry.Join("c1", a.Code(), app.JoinRequest{IsHost: true, HostID: "host"}); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, err := registry.Join("c1", b.Code(), app.JoinRequest{IsHost: true, HostID: "host"}); err != nil {
		t.Fatalf("join b: %v", err)
	}
	conn, _ := registry.Connection("c1")
	if conn.Code != b.Code() || conn.Role != domain.RoleHost || conn.Identity != "host" {
		t.Fatalf("unexpected binding %+v", conn)
	}
	if !a.Idle(time.Now().Add(3*time.Hour), time.Hour) {
		t.Fatalf("connection still attached to the first room")
	}
}
