// Package hub keeps the registry of live lobbies by session code.
package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/rrt-logic/internal/lobby"
	"github.com/DoyleJ11/rrt-logic/internal/store"
)

var (
	ErrClosed    = errors.New("hub closed")
	ErrCodeTaken = errors.New("session code already in use")
)

type HubMsg interface{ isHubMsg() }

// CreateLobby starts a lobby for a fresh game. Reply gets nil when the code
// is already live.
type CreateLobby struct {
	Game  store.Game
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureLobby returns the live lobby for Game.Code, starting one from Game
// only if none is running.
type EnsureLobby struct {
	Game  store.Game
	Reply chan *lobby.Lobby
}

// RemoveLobby forgets Code if it still maps to Lobby. A nil Lobby removes
// whatever is registered.
type RemoveLobby struct {
	Code  string
	Lobby *lobby.Lobby
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Loader fetches a saved game for a code that has no live lobby.
type Loader interface {
	Load(ctx context.Context, code string) (store.Game, error)
}

type Options struct {
	Logger *zap.Logger
	Lobby  lobby.Options
	// Loader may be nil; Open then only finds live lobbies.
	Loader Loader
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	log     *zap.Logger
	opts    lobby.Options
	loader  Loader
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Lobby.Logger == nil {
		opts.Lobby.Logger = log
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		log:     log,
		opts:    opts.Lobby,
		loader:  opts.Loader,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if h.lobbies[msg.Game.Code] != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.start(msg.Game)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.Game.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.start(msg.Game)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil && (msg.Lobby == nil || msg.Lobby == lb) {
					lb.Close()
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby removed", zap.String("code", msg.Code), zap.Int("lobbies", len(h.lobbies)))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) start(g store.Game) *lobby.Lobby {
	lb := lobby.NewLobby(h.ctx, g, h.opts)
	h.lobbies[g.Code] = lb
	h.log.Info("lobby started", zap.String("code", g.Code), zap.Int("version", g.Version), zap.Int("lobbies", len(h.lobbies)))

	// A lobby that stops on its own (engine failure) must not linger here.
	go func() {
		select {
		case <-lb.Done():
			select {
			case h.inbox <- RemoveLobby{Code: g.Code, Lobby: lb}:
			case <-h.done:
			}
		case <-h.done:
		}
	}()
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Close()
	}
	for code, lb := range h.lobbies {
		<-lb.Done()
		delete(h.lobbies, code)
	}
	h.cancel()
	h.log.Info("hub stopped")
}

func (h *Hub) send(ctx context.Context, msg HubMsg) error {
	select {
	case h.inbox <- msg:
		return nil
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) await(ctx context.Context, reply chan *lobby.Lobby) (*lobby.Lobby, error) {
	select {
	case lb := <-reply:
		return lb, nil
	case <-h.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) request(ctx context.Context, msg HubMsg, reply chan *lobby.Lobby) (*lobby.Lobby, error) {
	if err := h.send(ctx, msg); err != nil {
		return nil, err
	}
	return h.await(ctx, reply)
}

// Create starts a lobby for g, failing with ErrCodeTaken if g.Code is live.
func (h *Hub) Create(ctx context.Context, g store.Game) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	lb, err := h.request(ctx, CreateLobby{Game: g, Reply: reply}, reply)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, ErrCodeTaken
	}
	return lb, nil
}

// Get returns the live lobby for code, or nil.
func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	return h.request(ctx, GetLobby{Code: code, Reply: reply}, reply)
}

func (h *Hub) Ensure(ctx context.Context, g store.Game) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	return h.request(ctx, EnsureLobby{Game: g, Reply: reply}, reply)
}

// Open returns the live lobby for code, resuming it from the loader when
// none is running. A code nobody knows yields store.ErrNotFound.
func (h *Hub) Open(ctx context.Context, code string) (*lobby.Lobby, error) {
	lb, err := h.Get(ctx, code)
	if err != nil || lb != nil {
		return lb, err
	}
	if h.loader == nil {
		return nil, store.ErrNotFound
	}
	g, err := h.loader.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	return h.Ensure(ctx, g)
}

func (h *Hub) Remove(ctx context.Context, code string) error {
	return h.send(ctx, RemoveLobby{Code: code})
}

// Shutdown stops every lobby and waits for the hub loop to exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	if err := h.send(ctx, ShutdownHub{}); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Done() <-chan struct{} { return h.done }
