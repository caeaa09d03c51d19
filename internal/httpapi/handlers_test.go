package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
	"github.com/DoyleJ11/rrt-logic/internal/engine"
	"github.com/DoyleJ11/rrt-logic/internal/hub"
	"github.com/DoyleJ11/rrt-logic/internal/lobby"
	"github.com/DoyleJ11/rrt-logic/internal/random"
	"github.com/DoyleJ11/rrt-logic/internal/store"
	wire "github.com/DoyleJ11/rrt-logic/pkg/types"
)

type testServer struct {
	*httptest.Server
	hub   *hub.Hub
	store *store.Memory
}

func newTestServer(t *testing.T, allowSeed bool) *testServer {
	t.Helper()
	mem := store.NewMemory()
	h := hub.NewHub(context.Background(), hub.Options{Loader: mem, Lobby: lobby.Options{Saver: mem}})
	srv := httptest.NewServer(SetupRoutes(Deps{Hub: h, Store: mem, AllowClientSeed: allowSeed}))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return &testServer{Server: srv, hub: h, store: mem}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) create(t *testing.T, req wire.CreateSessionRequest) wire.CreateSessionResponse {
	t.Helper()
	var created wire.CreateSessionResponse
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/sessions", req, &created))
	return created
}

func seed(n uint64) *uint64 { return &n }

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, codeLength)
		assert.Regexp(t, `^[A-Z0-9]+$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, true)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil, nil))
}

func TestCreateSession(t *testing.T) {
	cases := []struct {
		name       string
		req        wire.CreateSessionRequest
		wantStatus int
	}{
		{name: "two operators", req: wire.CreateSessionRequest{Difficulty: "easy", Operators: []string{"stone", "sniper"}}, wantStatus: http.StatusCreated},
		{name: "no operators", req: wire.CreateSessionRequest{Difficulty: "easy"}, wantStatus: http.StatusBadRequest},
		{name: "duplicate", req: wire.CreateSessionRequest{Difficulty: "hard", Operators: []string{"rich", "rich"}}, wantStatus: http.StatusBadRequest},
		{name: "unknown operator", req: wire.CreateSessionRequest{Difficulty: "hard", Operators: []string{"wizard"}}, wantStatus: http.StatusBadRequest},
		{name: "unknown difficulty", req: wire.CreateSessionRequest{Difficulty: "nightmare", Operators: []string{"stone"}}, wantStatus: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, true)
			var created wire.CreateSessionResponse
			status := s.do(t, http.MethodPost, "/sessions", tc.req, &created)
			require.Equal(t, tc.wantStatus, status)
			if status != http.StatusCreated {
				return
			}

			assert.Len(t, created.Code, codeLength)
			g, err := s.store.Load(context.Background(), created.Code)
			require.NoError(t, err)
			assert.Equal(t, created.Seed, g.Seed)
			assert.Zero(t, g.Version)
		})
	}
}

func TestCreateSessionBadJSON(t *testing.T) {
	s := newTestServer(t, true)

	resp, err := http.Post(s.URL+"/sessions", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSessionSeed(t *testing.T) {
	req := wire.CreateSessionRequest{Difficulty: "normal", Operators: []string{"rogue", "charm", "admin"}, Seed: seed(77)}

	cfg, err := engine.NewGameConfig(engine.DifficultyNormal, []catalog.OperatorType{catalog.Rogue, catalog.Charm, catalog.Admin})
	require.NoError(t, err)
	want := engine.Setup(cfg, random.NewSource(77))

	t.Run("honored when allowed", func(t *testing.T) {
		s := newTestServer(t, true)
		created := s.create(t, req)
		assert.Equal(t, uint64(77), created.Seed)

		g, err := s.store.Load(context.Background(), created.Code)
		require.NoError(t, err)
		assert.Equal(t, want, g.State)
	})

	t.Run("ignored when not allowed", func(t *testing.T) {
		s := newTestServer(t, false)
		created := s.create(t, req)

		g, err := s.store.Load(context.Background(), created.Code)
		require.NoError(t, err)
		assert.Equal(t, created.Seed, g.Seed)
		assert.Equal(t, engine.Setup(cfg, random.NewSource(created.Seed)), g.State)
	})
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, true)
	created := s.create(t, wire.CreateSessionRequest{Difficulty: "easy", Operators: []string{"stone", "sniper"}, Seed: seed(1)})
	path := "/sessions/" + created.Code

	var snap wire.Snapshot
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil, &snap))
	assert.Equal(t, 0, snap.Version)
	assert.Equal(t, 5, snap.Table.Firewalls)
	assert.Len(t, snap.Table.Draw, 12)
	assert.Equal(t, []wire.Choice{{Kind: "idle"}, {Kind: "face"}, {Kind: "assist", Target: 1}}, snap.Choices)

	var res wire.ChooseResponse
	status := s.do(t, http.MethodPost, path+"/choices", wire.ChooseRequest{Choice: wire.Choice{Kind: "face"}}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, res.Snapshot.Version)
	require.NotEmpty(t, res.Events)
	assert.Equal(t, "Face", res.Events[0].Type)
	assert.NotNil(t, res.Snapshot.Table.Facing)
	assert.Len(t, res.Snapshot.Table.Draw, 11)

	status = s.do(t, http.MethodPost, path+"/choices", wire.ChooseRequest{Choice: wire.Choice{Kind: "idle"}}, nil)
	assert.Equal(t, http.StatusConflict, status)
	status = s.do(t, http.MethodPost, path+"/choices", wire.ChooseRequest{Choice: wire.Choice{Kind: "teleport"}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	g, err := s.store.Load(context.Background(), created.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Version)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, nil, nil))
}

func TestSessionResumesFromStore(t *testing.T) {
	s := newTestServer(t, true)
	created := s.create(t, wire.CreateSessionRequest{Difficulty: "easy", Operators: []string{"stone", "sniper"}, Seed: seed(1)})
	path := "/sessions/" + created.Code

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/choices", wire.ChooseRequest{Choice: wire.Choice{Kind: "idle"}}, nil))

	// Stop the live lobby; the next request reloads the save.
	lb, err := s.hub.Get(context.Background(), created.Code)
	require.NoError(t, err)
	require.NoError(t, s.hub.Remove(context.Background(), created.Code))
	<-lb.Done()

	var snap wire.Snapshot
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil, &snap))
	assert.Equal(t, 1, snap.Version)
	assert.True(t, snap.Table.Operators[0].Idle)
	assert.Equal(t, 1, snap.Table.Active)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t, true)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/sessions/NOPE00", nil, nil))
	status := s.do(t, http.MethodPost, "/sessions/NOPE00/choices", wire.ChooseRequest{Choice: wire.Choice{Kind: "idle"}}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
