package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
	"github.com/DoyleJ11/rrt-logic/internal/engine"
	"github.com/DoyleJ11/rrt-logic/internal/random"
)

func newGame(t *testing.T, code string) Game {
	t.Helper()
	cfg, err := engine.NewGameConfig(engine.DifficultyNormal, []catalog.OperatorType{catalog.Rogue, catalog.Charm})
	require.NoError(t, err)
	return Game{
		Code:   code,
		Seed:   42,
		Config: cfg,
		State:  engine.Setup(cfg, random.NewSource(42)),
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	g := newGame(t, "ABC123")

	_, err := m.Load(ctx, g.Code)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, g))
	got, err := m.Load(ctx, g.Code)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	require.NoError(t, m.Delete(ctx, g.Code))
	require.ErrorIs(t, m.Delete(ctx, g.Code), ErrNotFound)
	_, err = m.Load(ctx, g.Code)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryIsolatesState(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	g := newGame(t, "ISO001")
	require.NoError(t, m.Save(ctx, g))

	// Later moves on the caller's table must not leak into the save.
	_, err := g.State.Apply(engine.FaceChoice())
	require.NoError(t, err)

	got, err := m.Load(ctx, g.Code)
	require.NoError(t, err)
	assert.True(t, got.State.Facing().IsNone())

	_, err = got.State.Apply(engine.IdleChoice())
	require.NoError(t, err)
	again, err := m.Load(ctx, g.Code)
	require.NoError(t, err)
	assert.False(t, again.State.Operator(0).Idle())
}

func TestMemoryOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	g := newGame(t, "OVR001")
	require.NoError(t, m.Save(ctx, g))

	_, err := g.State.Apply(engine.IdleChoice())
	require.NoError(t, err)
	g.Version = 1
	require.NoError(t, m.Save(ctx, g))

	got, err := m.Load(ctx, g.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.True(t, got.State.Operator(0).Idle())
}

func TestSaveWithoutState(t *testing.T) {
	g := newGame(t, "NIL001")
	g.State = nil

	require.ErrorIs(t, NewMemory().Save(context.Background(), g), ErrNoState)
	_, err := toRecord(g)
	require.ErrorIs(t, err, ErrNoState)
}

func TestRecordConversion(t *testing.T) {
	g := newGame(t, "REC001")
	g.Seed = 1<<63 + 5
	g.Version = 3
	_, err := g.State.Apply(engine.FaceChoice())
	require.NoError(t, err)

	rec, err := toRecord(g)
	require.NoError(t, err)
	assert.Equal(t, "REC001", rec.Code)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.JSONEq(t, `{"difficulty":"normal","operators":["rogue","charm"]}`, string(rec.Config))

	back, err := fromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, g, back)
}

func TestFromRecordRejectsMismatch(t *testing.T) {
	g := newGame(t, "BAD001")
	rec, err := toRecord(g)
	require.NoError(t, err)

	rec.Config = []byte(`{"difficulty":"normal","operators":["rogue"]}`)
	_, err = fromRecord(rec)
	require.Error(t, err)

	rec.State = []byte(`{"firewalls":-4}`)
	_, err = fromRecord(rec)
	require.ErrorContains(t, err, "decode state")
}

func TestFromRecordRejectsUnplayableDecision(t *testing.T) {
	g := newGame(t, "BAD002")
	rec, err := toRecord(g)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.State, &raw))
	raw["choice"] = map[string]any{"kind": "face", "operator": 0}
	rec.State, err = json.Marshal(raw)
	require.NoError(t, err)

	_, err = fromRecord(rec)
	require.ErrorIs(t, err, engine.ErrInvariant)
}
