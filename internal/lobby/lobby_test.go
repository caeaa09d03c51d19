package lobby

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
	"github.com/DoyleJ11/rrt-logic/internal/engine"
	"github.com/DoyleJ11/rrt-logic/internal/random"
	"github.com/DoyleJ11/rrt-logic/internal/store"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "client outbox closed unexpectedly")
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			// channel closed → no further snapshots possible
			return
		}
		t.Fatalf("expected no snapshot within %v, but got version %d", within, s.Version)
	case <-time.After(within):
	}
}

func requireClosed(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("outbox still open after %v", within)
		}
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func newGame(t *testing.T) store.Game {
	t.Helper()
	cfg, err := engine.NewGameConfig(engine.DifficultyEasy, []catalog.OperatorType{catalog.Stone, catalog.Sniper})
	require.NoError(t, err)
	return store.Game{Code: "RRT001", Seed: 1, Config: cfg, State: engine.Setup(cfg, random.NewSource(1))}
}

type recordingSaver struct {
	mu    sync.Mutex
	games []store.Game
	err   error
}

func (s *recordingSaver) Save(_ context.Context, g store.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.State = g.State.Clone()
	s.games = append(s.games, g)
	return s.err
}

func (s *recordingSaver) saved() []store.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.Game(nil), s.games...)
}

func TestLobby_Choose_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, newGame(t), Options{})

	clientOut := make(chan Snapshot, 2) // small buffer so broadcast doesn’t block
	l.Inbox() <- Join{ClientID: "c1", Outbox: clientOut}

	first := recvSnapshot(t, clientOut, 100*time.Millisecond)
	assert.Equal(t, 0, first.Version)
	assert.Equal(t, "RRT001", first.Code)
	assert.Empty(t, first.Events)
	assert.Equal(t, []engine.Choice{engine.IdleChoice(), engine.FaceChoice(), engine.AssistChoice(1)}, first.Choices)

	reply := make(chan Result, 1)
	l.Inbox() <- Choose{ClientID: "c1", Choice: engine.IdleChoice(), Reply: reply}

	next := recvSnapshot(t, clientOut, 100*time.Millisecond)
	assert.Equal(t, 1, next.Version)
	assert.True(t, engine.ContainsEvent(next.Events, engine.EvtIdle))
	assert.True(t, next.View.Operators[0].Idle)
	assert.Equal(t, engine.OperatorID(1), next.View.Active)

	res := <-reply
	require.NoError(t, res.Err)
	assert.Equal(t, next.Version, res.Snapshot.Version)

	l.Inbox() <- Shutdown{}
	requireClosed(t, clientOut, 100*time.Millisecond)
}

func TestLobby_IllegalChoiceRepliesWithoutVersionBump(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saver := &recordingSaver{}
	l := NewLobby(ctx, newGame(t), Options{Saver: saver})

	out := make(chan Snapshot, 2)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	snap, err := l.Choose(ctx, "c1", engine.SecureChoice())
	require.ErrorIs(t, err, engine.ErrIllegalChoice)
	assert.Equal(t, 0, snap.Version)

	recvNoSnapshot(t, out, 50*time.Millisecond)
	assert.Empty(t, saver.saved())
}

func TestLobby_SavesAfterEverySettledChoice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saver := &recordingSaver{}
	game := newGame(t)
	l := NewLobby(ctx, game, Options{Saver: saver, SaveTimeout: time.Second})

	_, err := l.Choose(ctx, "c1", engine.IdleChoice())
	require.NoError(t, err)
	snap, err := l.Choose(ctx, "c2", engine.FaceChoice())
	require.NoError(t, err)

	saved := saver.saved()
	require.Len(t, saved, 2)
	assert.Equal(t, 1, saved[0].Version)
	assert.Equal(t, 2, saved[1].Version)
	assert.Equal(t, "RRT001", saved[1].Code)
	assert.Equal(t, snap.View, saved[1].State.View())
}

func TestLobby_SaveFailureIsLoggedNotFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, logs := observer.New(zapcore.WarnLevel)
	saver := &recordingSaver{err: errors.New("disk full")}
	l := NewLobby(ctx, newGame(t), Options{Logger: zap.New(core), Saver: saver})

	snap, err := l.Choose(ctx, "c1", engine.IdleChoice())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Version)

	entries := logs.FilterMessage("save game").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "RRT001", entries[0].ContextMap()["code"])

	v, err := l.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Snapshot.Version)
}

func TestLobby_DropSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, newGame(t), Options{})

	clientOut := make(chan Snapshot, 1)
	l.Inbox() <- Join{ClientID: "c1", Outbox: clientOut}

	// The join snapshot fills the buffer, so the next broadcast cannot land.
	l.Inbox() <- Choose{ClientID: "c2", Choice: engine.IdleChoice()}

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	assert.Equal(t, 0, view.NumClients)
	assert.Equal(t, 1, view.Snapshot.Version)
	_ = recvSnapshot(t, clientOut, 100*time.Millisecond)
	requireClosed(t, clientOut, 100*time.Millisecond)
}

func TestLobby_JoinWithFullOutboxIsRefused(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, newGame(t), Options{})
	l.Inbox() <- Join{ClientID: "c1", Outbox: make(chan Snapshot)}

	v, err := l.State(ctx)
	require.NoError(t, err)
	assert.Zero(t, v.NumClients)
}

func TestLobby_LeaveClosesOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, newGame(t), Options{})

	a := make(chan Snapshot, 4)
	b := make(chan Snapshot, 4)
	l.Inbox() <- Join{ClientID: "a", Outbox: a}
	l.Inbox() <- Join{ClientID: "b", Outbox: b}
	_ = recvSnapshot(t, a, 100*time.Millisecond)
	_ = recvSnapshot(t, b, 100*time.Millisecond)

	l.Inbox() <- Leave{ClientID: "a"}
	requireClosed(t, a, 100*time.Millisecond)

	_, err := l.Choose(ctx, "b", engine.FaceChoice())
	require.NoError(t, err)
	snap := recvSnapshot(t, b, 100*time.Millisecond)
	assert.Equal(t, 1, snap.Version)
	assert.False(t, snap.View.Facing.IsNone())
}

func TestLobby_RejoinReplacesOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, newGame(t), Options{})

	first := make(chan Snapshot, 4)
	second := make(chan Snapshot, 4)
	l.Inbox() <- Join{ClientID: "c1", Outbox: first}
	l.Inbox() <- Join{ClientID: "c1", Outbox: second}

	_ = recvSnapshot(t, first, 100*time.Millisecond)
	requireClosed(t, first, 100*time.Millisecond)
	_ = recvSnapshot(t, second, 100*time.Millisecond)

	v, err := l.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.NumClients)
}

func TestLobby_ParentCancelStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLobby(ctx, newGame(t), Options{})

	out := make(chan Snapshot, 2)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	cancel()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("lobby did not stop")
	}
	requireClosed(t, out, 100*time.Millisecond)

	_, err := l.Choose(context.Background(), "c1", engine.IdleChoice())
	require.ErrorIs(t, err, ErrClosed)
	_, err = l.State(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestLobby_PlaysToGameOver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLobby(ctx, newGame(t), Options{Logger: zap.New(core)})

	// Always taking the first offered choice is a legal, finite line of play.
	v, err := l.State(ctx)
	require.NoError(t, err)
	snap := v.Snapshot
	for i := 0; len(snap.Choices) > 0; i++ {
		require.Less(t, i, 2000, "game did not end")
		snap, err = l.Choose(ctx, "c1", snap.Choices[0])
		require.NoError(t, err)
		assert.Equal(t, i+1, snap.Version)
	}

	assert.NotEqual(t, engine.OutcomeNone, snap.View.Outcome)
	assert.Equal(t, engine.StateGameOver, snap.View.Choice.Kind)
	assert.Len(t, logs.FilterMessage("game over").All(), 1)

	_, err = l.Choose(ctx, "c1", engine.IdleChoice())
	require.ErrorIs(t, err, engine.ErrIllegalChoice)
}

type panickingSaver struct{}

func (panickingSaver) Save(context.Context, store.Game) error { panic("driver bug") }

func TestLobby_PanicClosesOnlyThatLobby(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, logs := observer.New(zapcore.ErrorLevel)
	l := NewLobby(ctx, newGame(t), Options{Logger: zap.New(core), Saver: panickingSaver{}})

	out := make(chan Snapshot, 4)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	_, err := l.Choose(ctx, "c1", engine.IdleChoice())
	require.ErrorIs(t, err, ErrClosed)
	requireClosed(t, out, 100*time.Millisecond)

	select {
	case <-l.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("lobby still running")
	}
	entries := logs.FilterMessage("lobby crashed, closing").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "RRT001", entries[0].ContextMap()["code"])

	// Other sessions keep going.
	other := NewLobby(ctx, newGame(t), Options{})
	snap, err := other.Choose(ctx, "c1", engine.IdleChoice())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Version)
}
