// Package ws drives a lobby over a websocket: snapshots go out, choices come
// in.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/rrt-logic/internal/hub"
	"github.com/DoyleJ11/rrt-logic/internal/lobby"
	"github.com/DoyleJ11/rrt-logic/internal/store"
	"github.com/DoyleJ11/rrt-logic/internal/types"
	wire "github.com/DoyleJ11/rrt-logic/pkg/types"
)

const (
	writeTimeout = 3 * time.Second
	outboxSize   = 8

	// readIdle drops a client that sends nothing for this long.
	readIdle = 10 * time.Minute
)

type Options struct {
	// OriginPatterns is passed to websocket.Accept. Empty means same origin
	// only.
	OriginPatterns []string
}

func Handler(h *hub.Hub, log *zap.Logger, opts Options) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		lb, err := h.Open(r.Context(), code)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("open session", zap.String("code", code), zap.Error(err))
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		clog := log.With(zap.String("code", code), zap.String("client", clientID))
		serve(r.Context(), conn, lb, clientID, clog)
	}
}

func serve(ctx context.Context, conn *websocket.Conn, lb *lobby.Lobby, clientID string, log *zap.Logger) {
	out := make(chan lobby.Snapshot, outboxSize)
	if err := lb.Send(ctx, lobby.Join{ClientID: clientID, Outbox: out}); err != nil {
		conn.Close(websocket.StatusGoingAway, "session closed")
		return
	}
	log.Debug("client connected")
	defer func() {
		leaveCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = lb.Send(leaveCtx, lobby.Leave{ClientID: clientID})
		log.Debug("client disconnected")
	}()

	// Writer goroutine
	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()
	go func() {
		for snap := range out {
			s := types.FromSnapshot(snap)
			if err := write(writeCtx, conn, wire.ServerMessage{Type: wire.MsgStateSnapshot, Snapshot: &s}); err != nil {
				log.Debug("write snapshot", zap.Error(err))
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
		// Outbox closed: dropped as slow, or the lobby stopped.
		conn.Close(websocket.StatusGoingAway, "session closed")
	}()

	// Reader loop
	for {
		var cm wire.ClientMessage
		readCtx, cancel := context.WithTimeout(ctx, readIdle)
		err := wsjson.Read(readCtx, conn, &cm)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.Debug("read", zap.Error(err))
			}
			return
		}

		if cm.Type != wire.MsgChoose || cm.Choice == nil {
			sendError(ctx, conn, "unknown message type", log)
			continue
		}
		choice, err := types.ToChoice(*cm.Choice)
		if err != nil {
			sendError(ctx, conn, err.Error(), log)
			continue
		}

		// Success reaches this client through the outbox like everyone else.
		if _, err := lb.Choose(ctx, clientID, choice); err != nil {
			if errors.Is(err, lobby.ErrClosed) {
				return
			}
			sendError(ctx, conn, err.Error(), log)
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg wire.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func sendError(ctx context.Context, conn *websocket.Conn, msg string, log *zap.Logger) {
	if err := write(ctx, conn, wire.ServerMessage{Type: wire.MsgError, Error: msg}); err != nil {
		log.Debug("write error", zap.Error(err))
	}
}
