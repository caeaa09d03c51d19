// Package lobby runs one game session as an actor: a single goroutine owns
// the table, applies choices in arrival order and pushes snapshots to every
// joined client.
package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/rrt-logic/internal/engine"
	"github.com/DoyleJ11/rrt-logic/internal/store"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

// Leave unregisters a client and closes its outbox.
type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// Choose submits a decision. Reply, when set, gets exactly one Result and
// should be buffered.
type Choose struct {
	ClientID string
	Choice   engine.Choice
	Reply    chan Result
}

func (Choose) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Snapshot is what clients see after each settled choice. Events holds the
// cascade that produced it and is empty for the snapshot sent on join.
type Snapshot struct {
	Code    string
	Version int
	View    engine.View
	Choices []engine.Choice
	Events  []engine.TableEvent
}

type Result struct {
	Snapshot Snapshot
	Err      error
}

type View struct {
	NumClients int
	Snapshot   Snapshot
}

// Saver persists the game after every settled choice.
type Saver interface {
	Save(ctx context.Context, g store.Game) error
}

type Options struct {
	Logger *zap.Logger
	// Saver may be nil, in which case nothing is persisted.
	Saver       Saver
	SaveTimeout time.Duration
}

type Lobby struct {
	inbox   chan Msg
	game    store.Game
	clients map[string]chan Snapshot
	log     *zap.Logger
	saver   Saver
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLobby starts the actor. The lobby takes ownership of game.State; the
// caller must not touch it afterwards.
func NewLobby(parent context.Context, game store.Game, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.SaveTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		game:    game,
		clients: make(map[string]chan Snapshot),
		log:     log.With(zap.String("code", game.Code)),
		saver:   opts.Saver,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	defer func() {
		// A panic ends this session only.
		if p := recover(); p != nil {
			l.log.Error("lobby crashed, closing", zap.Any("panic", p), zap.Int("version", l.game.Version), zap.Stack("stack"))
			l.shutdown()
		}
	}()
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				if old, ok := l.clients[msg.ClientID]; ok {
					close(old)
				}
				l.clients[msg.ClientID] = msg.Outbox
				// The joiner gets the current snapshot right away.
				if !offer(msg.Outbox, l.snapshot(nil)) {
					close(msg.Outbox)
					delete(l.clients, msg.ClientID)
					break
				}
				l.log.Debug("client joined", zap.String("client", msg.ClientID), zap.Int("clients", len(l.clients)))

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case Choose:
				if !l.choose(msg) {
					l.shutdown()
					return
				}

			case GetState:
				msg.Reply <- View{
					NumClients: len(l.clients),
					Snapshot:   l.snapshot(nil),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// choose applies one choice. It returns false when the engine refused one of
// its own events, which leaves the table untrustworthy.
func (l *Lobby) choose(msg Choose) bool {
	log := l.log.With(zap.String("client", msg.ClientID), zap.Stringer("choice", msg.Choice))

	events, err := l.game.State.Apply(msg.Choice)
	if errors.Is(err, engine.ErrContractViolation) {
		log.Error("engine contract violation, closing lobby", zap.Error(err), zap.Int("performed", len(events)))
		reply(msg.Reply, Result{Err: err})
		return false
	}
	if err != nil {
		log.Debug("choice rejected", zap.Error(err))
		reply(msg.Reply, Result{Snapshot: l.snapshot(nil), Err: err})
		return true
	}

	l.game.Version++
	snap := l.snapshot(events)
	l.broadcast(snap)
	l.save()
	reply(msg.Reply, Result{Snapshot: snap})

	if out := l.game.State.Outcome(); out != engine.OutcomeNone {
		log.Info("game over",
			zap.String("outcome", string(out)),
			zap.String("reason", l.game.State.OutcomeReason()),
			zap.Int("version", l.game.Version))
	}
	return true
}

func (l *Lobby) save() {
	if l.saver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
	defer cancel()
	if err := l.saver.Save(ctx, l.game); err != nil {
		l.log.Warn("save game", zap.Error(err), zap.Int("version", l.game.Version))
	}
}

func (l *Lobby) snapshot(events []engine.TableEvent) Snapshot {
	return Snapshot{
		Code:    l.game.Code,
		Version: l.game.Version,
		View:    l.game.State.View(),
		Choices: l.game.State.ValidChoices(),
		Events:  events,
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		if !offer(ch, snap) {
			// Client is slow/full - drop them.
			l.log.Info("dropping slow client", zap.String("client", id))
			close(ch)
			delete(l.clients, id)
		}
	}
}

func offer(ch chan Snapshot, snap Snapshot) bool {
	select {
	case ch <- snap:
		return true
	default:
		return false
	}
}

func reply(ch chan Result, r Result) {
	if ch == nil {
		return
	}
	select {
	case ch <- r:
	default:
	}
}

// Inbox exposes the raw inbox for callers that manage their own timeouts.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send queues msg, giving up when ctx ends or the lobby has stopped.
func (l *Lobby) Send(ctx context.Context, msg Msg) error {
	select {
	case l.inbox <- msg:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Choose submits c and waits for its result.
func (l *Lobby) Choose(ctx context.Context, clientID string, c engine.Choice) (Snapshot, error) {
	res := make(chan Result, 1)
	if err := l.Send(ctx, Choose{ClientID: clientID, Choice: c, Reply: res}); err != nil {
		return Snapshot{}, err
	}
	select {
	case r := <-res:
		return r.Snapshot, r.Err
	case <-l.done:
		// The loop may have replied just before stopping.
		select {
		case r := <-res:
			return r.Snapshot, r.Err
		default:
			return Snapshot{}, ErrClosed
		}
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// State returns the current snapshot and client count.
func (l *Lobby) State(ctx context.Context) (View, error) {
	res := make(chan View, 1)
	if err := l.Send(ctx, GetState{Reply: res}); err != nil {
		return View{}, err
	}
	select {
	case v := <-res:
		return v, nil
	case <-l.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Close stops the lobby without going through the inbox.
func (l *Lobby) Close() { l.cancel() }

// Done is closed once the loop has exited and every outbox is closed.
func (l *Lobby) Done() <-chan struct{} { return l.done }
