// Package types converts between engine values and the public wire DTOs.
package types

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
	"github.com/DoyleJ11/rrt-logic/internal/engine"
	"github.com/DoyleJ11/rrt-logic/internal/lobby"
	wire "github.com/DoyleJ11/rrt-logic/pkg/types"
)

var ErrBadChoice = errors.New("malformed choice")

var choiceKinds = map[string]engine.ChoiceKind{}

func init() {
	for _, k := range []engine.ChoiceKind{
		engine.ChoiceIdle, engine.ChoiceFace, engine.ChoiceAssist, engine.ChoiceSecure,
		engine.ChoiceBacktrace, engine.ChoicePass, engine.ChoiceSkill, engine.ChoiceFlow,
		engine.ChoiceMove, engine.ChoiceReorder, engine.ChoiceHeal, engine.ChoiceDiscard,
	} {
		choiceKinds[string(k)] = k
	}
}

// ToChoice validates the shape of a wire choice. Whether it is legal right
// now is for the engine to decide.
func ToChoice(c wire.Choice) (engine.Choice, error) {
	kind, ok := choiceKinds[c.Kind]
	if !ok {
		return engine.Choice{}, fmt.Errorf("%w: unknown kind %q", ErrBadChoice, c.Kind)
	}
	skill := catalog.OperatorType(c.Skill)
	if c.Skill != "" && !skill.Valid() {
		return engine.Choice{}, fmt.Errorf("%w: unknown skill %q", ErrBadChoice, c.Skill)
	}
	var order []int
	if len(c.Order) > 0 {
		order = append(order, c.Order...)
	}
	return engine.Choice{
		Kind:   kind,
		Skill:  skill,
		Source: engine.OperatorID(c.Source),
		Target: engine.OperatorID(c.Target),
		Slot:   c.Slot,
		Order:  order,
	}, nil
}

func FromChoice(c engine.Choice) wire.Choice {
	return wire.Choice{
		Kind:   string(c.Kind),
		Skill:  string(c.Skill),
		Source: int(c.Source),
		Target: int(c.Target),
		Slot:   c.Slot,
		Order:  c.Order,
	}
}

func FromChoices(cs []engine.Choice) []wire.Choice {
	out := make([]wire.Choice, len(cs))
	for i, c := range cs {
		out[i] = FromChoice(c)
	}
	return out
}

func FromEvents(evs []engine.TableEvent) []wire.Event {
	out := make([]wire.Event, len(evs))
	for i, ev := range evs {
		out[i] = wire.Event{
			Type:       string(ev.Type),
			Operator:   int(ev.Operator),
			Target:     int(ev.Target),
			Delta:      ev.Delta,
			Index:      ev.Index,
			Skill:      string(ev.Skill),
			Capability: string(ev.Capability),
			Forced:     ev.Forced,
			Order:      ev.Order,
			Outcome:    string(ev.Outcome),
			Reason:     ev.Reason,
		}
		if ev.Next != nil {
			next := fromChoiceState(*ev.Next)
			out[i].Next = &next
		}
	}
	return out
}

// FromCard returns nil for catalog.NoCard.
func FromCard(id catalog.CardID) *wire.Card {
	if id.IsNone() {
		return nil
	}
	c := catalog.CardOf(id)
	return &wire.Card{
		ID:      id.Index(),
		Value:   c.Value,
		Virus:   c.Virus,
		Symbol:  c.Symbol.String(),
		Penalty: string(c.Penalty),
	}
}

func fromCards(ids []catalog.CardID) []*wire.Card {
	out := make([]*wire.Card, len(ids))
	for i, id := range ids {
		out[i] = FromCard(id)
	}
	return out
}

func fromChoiceState(c engine.ChoiceState) wire.ChoiceState {
	return wire.ChoiceState{Kind: string(c.Kind), Operator: int(c.Operator)}
}

func FromView(v engine.View) wire.Table {
	t := wire.Table{
		Firewalls:      v.Firewalls,
		MaxFirewalls:   v.MaxFirewalls,
		Databases:      append([]bool(nil), v.Databases[:]...),
		Webservices:    append([]bool(nil), v.Webservices[:]...),
		Draw:           fromCards(v.Draw),
		Breach:         fromCards(v.Breach),
		Discard:        fromCards(v.Discard),
		Round:          v.Round,
		Facing:         FromCard(v.Facing),
		FacingOperator: int(v.FacingOperator),
		Active:         int(v.Active),
		Choice:         fromChoiceState(v.Choice),
		Outcome:        string(v.Outcome),
		Reason:         v.Reason,
	}
	for _, o := range v.Operators {
		op := wire.Operator{
			Type:         string(o.Type),
			Secure:       fromCards(o.Secure[:]),
			Burnout:      o.Burnout,
			Desperation:  o.Desperation,
			Idle:         o.Idle,
			Skills:       make([]string, len(o.Skills)),
			Restrictions: make([]string, len(o.Restrictions)),
			Backtrace:    make([]wire.Card, len(o.Backtrace)),
		}
		for i, id := range o.Backtrace {
			op.Backtrace[i] = *FromCard(id)
		}
		for i, s := range o.Skills {
			op.Skills[i] = string(s)
		}
		for i, r := range o.Restrictions {
			op.Restrictions[i] = string(r)
		}
		t.Operators = append(t.Operators, op)
	}
	return t
}

func FromSnapshot(s lobby.Snapshot) wire.Snapshot {
	return wire.Snapshot{
		Code:    s.Code,
		Version: s.Version,
		Table:   FromView(s.View),
		Choices: FromChoices(s.Choices),
		Events:  FromEvents(s.Events),
	}
}
