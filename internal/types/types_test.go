package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
	"github.com/DoyleJ11/rrt-logic/internal/engine"
	"github.com/DoyleJ11/rrt-logic/internal/lobby"
	"github.com/DoyleJ11/rrt-logic/internal/random"
	wire "github.com/DoyleJ11/rrt-logic/pkg/types"
)

func newTable(t *testing.T) *engine.TableState {
	t.Helper()
	cfg, err := engine.NewGameConfig(engine.DifficultyNormal, []catalog.OperatorType{catalog.Rich, catalog.Stone, catalog.Charm})
	require.NoError(t, err)
	return engine.Setup(cfg, random.NewSource(3))
}

func TestToChoice(t *testing.T) {
	cases := []struct {
		name    string
		in      wire.Choice
		want    engine.Choice
		wantErr bool
	}{
		{name: "idle", in: wire.Choice{Kind: "idle"}, want: engine.IdleChoice()},
		{name: "assist", in: wire.Choice{Kind: "assist", Target: 2}, want: engine.AssistChoice(2)},
		{name: "flow", in: wire.Choice{Kind: "flow", Skill: "stone", Source: 1, Target: 2}, want: engine.FlowChoice(catalog.Stone, 1, 2)},
		{name: "reorder", in: wire.Choice{Kind: "reorder", Order: []int{1, 0}}, want: engine.ReorderChoice([]int{1, 0})},
		{name: "discard", in: wire.Choice{Kind: "discard", Slot: 3}, want: engine.DiscardChoice(3)},
		{name: "unknown kind", in: wire.Choice{Kind: "surrender"}, wantErr: true},
		{name: "empty kind", in: wire.Choice{}, wantErr: true},
		{name: "unknown skill", in: wire.Choice{Kind: "skill", Skill: "wizard"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToChoice(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrBadChoice)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s want %s", got, tc.want)
		})
	}
}

func TestChoiceRoundTripThroughJSON(t *testing.T) {
	s := newTable(t)
	for step := 0; step < 40 && len(s.ValidChoices()) > 0; step++ {
		choices := s.ValidChoices()
		for _, c := range choices {
			data, err := json.Marshal(FromChoice(c))
			require.NoError(t, err)
			var w wire.Choice
			require.NoError(t, json.Unmarshal(data, &w))
			back, err := ToChoice(w)
			require.NoError(t, err)
			assert.True(t, c.Equal(back), "%s came back as %s", c, back)
		}
		_, err := s.Apply(choices[len(choices)-1])
		require.NoError(t, err)
	}
}

func TestFromViewHidesFaceDownCards(t *testing.T) {
	s := newTable(t)
	top := s.Draw()[len(s.Draw())-1].ID

	table := FromView(s.View())
	require.Len(t, table.Draw, len(s.Draw()))
	for _, c := range table.Draw {
		assert.Nil(t, c)
	}
	assert.Nil(t, table.Facing)
	assert.Equal(t, []bool{true, true, true}, table.Databases)
	assert.Len(t, table.Webservices, engine.NumWebservices)
	require.Len(t, table.Operators, 3)
	assert.Equal(t, "rich", table.Operators[0].Type)
	assert.Equal(t, []string{"rich"}, table.Operators[0].Skills)
	assert.Len(t, table.Operators[0].Secure, catalog.SecureSlots)
	assert.Equal(t, wire.ChoiceState{Kind: "choose_action", Operator: 0}, table.Choice)

	_, err := s.Apply(engine.FaceChoice())
	require.NoError(t, err)
	table = FromView(s.View())
	require.NotNil(t, table.Facing)
	def := catalog.CardOf(top)
	assert.Equal(t, wire.Card{
		ID:      top.Index(),
		Value:   def.Value,
		Virus:   def.Virus,
		Symbol:  def.Symbol.String(),
		Penalty: string(def.Penalty),
	}, *table.Facing)
}

func TestFromCardNone(t *testing.T) {
	assert.Nil(t, FromCard(catalog.NoCard))
}

func TestFromSnapshot(t *testing.T) {
	s := newTable(t)
	events, err := s.Apply(engine.IdleChoice())
	require.NoError(t, err)

	snap := FromSnapshot(lobby.Snapshot{
		Code:    "SNAP01",
		Version: 4,
		View:    s.View(),
		Choices: s.ValidChoices(),
		Events:  events,
	})

	assert.Equal(t, "SNAP01", snap.Code)
	assert.Equal(t, 4, snap.Version)
	require.Len(t, snap.Events, len(events))
	assert.Equal(t, string(engine.EvtIdle), snap.Events[0].Type)
	assert.Len(t, snap.Choices, len(s.ValidChoices()))
	assert.True(t, snap.Table.Operators[0].Idle)

	for i, ev := range events {
		if ev.Next != nil {
			require.NotNil(t, snap.Events[i].Next)
			assert.Equal(t, string(ev.Next.Kind), snap.Events[i].Next.Kind)
		}
	}
}
