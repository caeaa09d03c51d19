package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
	"github.com/DoyleJ11/rrt-logic/internal/engine"
	"github.com/DoyleJ11/rrt-logic/internal/hub"
	"github.com/DoyleJ11/rrt-logic/internal/lobby"
	"github.com/DoyleJ11/rrt-logic/internal/random"
	"github.com/DoyleJ11/rrt-logic/internal/store"
	"github.com/DoyleJ11/rrt-logic/internal/types"
	wire "github.com/DoyleJ11/rrt-logic/pkg/types"
)

const (
	codeLength   = 6
	codeAttempts = 8
	// httpClient names choices submitted over plain HTTP in lobby logs.
	httpClient = "http"
)

// Deps is what the handlers need from the rest of the server.
type Deps struct {
	Hub    *hub.Hub
	Store  store.Repository
	Logger *zap.Logger
	// AllowClientSeed honors the seed field of POST /sessions.
	AllowClientSeed bool
	// OriginPatterns is forwarded to the websocket handler.
	OriginPatterns []string
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, wire.ErrorResponse{Error: msg})
}

// freeCode finds a code that is neither live nor saved.
func freeCode(r *http.Request, d Deps) (string, error) {
	for range codeAttempts {
		c, err := GenerateCode()
		if err != nil {
			return "", err
		}
		lb, err := d.Hub.Get(r.Context(), c)
		if err != nil {
			return "", err
		}
		if lb != nil {
			d.Logger.Debug("collision on code, regenerating", zap.String("code", c))
			continue
		}
		_, err = d.Store.Load(r.Context(), c)
		if errors.Is(err, store.ErrNotFound) {
			return c, nil
		}
		if err != nil {
			return "", err
		}
		d.Logger.Debug("collision on code, regenerating", zap.String("code", c))
	}
	return "", errors.New("no free session code")
}

func CreateSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		roster := make([]catalog.OperatorType, len(req.Operators))
		for i, op := range req.Operators {
			roster[i] = catalog.OperatorType(op)
		}
		cfg, err := engine.NewGameConfig(engine.Difficulty(req.Difficulty), roster)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var seed uint64
		if req.Seed != nil && d.AllowClientSeed {
			seed = *req.Seed
		} else if seed, err = random.NewSeed(); err != nil {
			d.Logger.Error("new seed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to seed game")
			return
		}

		code, err := freeCode(r, d)
		if err != nil {
			d.Logger.Error("generate code", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to generate code")
			return
		}

		game := store.Game{
			Code:   code,
			Seed:   seed,
			Config: cfg,
			State:  engine.Setup(cfg, random.NewSource(seed)),
		}
		if err := d.Store.Save(r.Context(), game); err != nil {
			d.Logger.Error("save new game", zap.String("code", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save game")
			return
		}
		if _, err := d.Hub.Create(r.Context(), game); err != nil {
			d.Logger.Error("create lobby", zap.String("code", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create session")
			return
		}

		d.Logger.Info("session created",
			zap.String("code", code),
			zap.String("difficulty", req.Difficulty),
			zap.Strings("operators", req.Operators),
			zap.Uint64("seed", seed))
		writeJSON(w, http.StatusCreated, wire.CreateSessionResponse{Code: code, Seed: seed})
	}
}

// openLobby resolves {code} and writes the error response itself when it
// fails.
func openLobby(w http.ResponseWriter, r *http.Request, d Deps) (*lobby.Lobby, bool) {
	code := chi.URLParam(r, "code")
	lb, err := d.Hub.Open(r.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		d.Logger.Error("open session", zap.String("code", code), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "session unavailable")
		return nil, false
	}
	return lb, true
}

func GetSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := openLobby(w, r, d)
		if !ok {
			return
		}
		v, err := lb.State(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "session unavailable")
			return
		}
		writeJSON(w, http.StatusOK, types.FromSnapshot(v.Snapshot))
	}
}

func SubmitChoice(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.ChooseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		choice, err := types.ToChoice(req.Choice)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		lb, ok := openLobby(w, r, d)
		if !ok {
			return
		}
		snap, err := lb.Choose(r.Context(), httpClient, choice)
		switch {
		case err == nil:
		case errors.Is(err, engine.ErrIllegalChoice):
			writeError(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, engine.ErrContractViolation):
			writeError(w, http.StatusInternalServerError, "session failed")
			return
		default:
			writeError(w, http.StatusServiceUnavailable, "session unavailable")
			return
		}

		s := types.FromSnapshot(snap)
		writeJSON(w, http.StatusOK, wire.ChooseResponse{Events: s.Events, Snapshot: s})
	}
}

// DeleteSession abandons a game: the lobby stops and the save is removed.
func DeleteSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if err := d.Hub.Remove(r.Context(), code); err != nil {
			writeError(w, http.StatusServiceUnavailable, "session unavailable")
			return
		}
		err := d.Store.Delete(r.Context(), code)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			d.Logger.Error("delete save game", zap.String("code", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to delete session")
			return
		}
		d.Logger.Info("session abandoned", zap.String("code", code))
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
