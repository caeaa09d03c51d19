package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
)

var ErrIllegalChoice = errors.New("illegal choice")

type ChoiceKind string

const (
	ChoiceIdle      ChoiceKind = "idle"
	ChoiceFace      ChoiceKind = "face"
	ChoiceAssist    ChoiceKind = "assist"
	ChoiceSecure    ChoiceKind = "secure"
	ChoiceBacktrace ChoiceKind = "backtrace"
	ChoicePass      ChoiceKind = "pass"
	ChoiceSkill     ChoiceKind = "skill"
	ChoiceFlow      ChoiceKind = "flow"
	ChoiceMove      ChoiceKind = "move"
	ChoiceReorder   ChoiceKind = "reorder"
	ChoiceHeal      ChoiceKind = "heal"
	ChoiceDiscard   ChoiceKind = "discard"
)

// Choice is one decision a player can submit. Only the fields relevant to
// Kind are set; everything else stays zero so that choices compare equal
// with Equal.
type Choice struct {
	Kind   ChoiceKind           `json:"kind"`
	Skill  catalog.OperatorType `json:"skill,omitempty"`
	Source OperatorID           `json:"source,omitempty"`
	Target OperatorID           `json:"target,omitempty"`
	Slot   int                  `json:"slot,omitempty"`
	Order  []int                `json:"order,omitempty"`
}

func IdleChoice() Choice               { return Choice{Kind: ChoiceIdle} }
func FaceChoice() Choice               { return Choice{Kind: ChoiceFace} }
func AssistChoice(t OperatorID) Choice { return Choice{Kind: ChoiceAssist, Target: t} }
func SecureChoice() Choice             { return Choice{Kind: ChoiceSecure} }
func BacktraceChoice() Choice          { return Choice{Kind: ChoiceBacktrace} }
func PassChoice() Choice               { return Choice{Kind: ChoicePass} }

// SkillChoice uses a skill. Biggs and Charm pass the faced hacker to target;
// other skills ignore it.
func SkillChoice(t catalog.OperatorType, target OperatorID) Choice {
	return Choice{Kind: ChoiceSkill, Skill: t, Target: target}
}

func FlowChoice(t catalog.OperatorType, source, target OperatorID) Choice {
	return Choice{Kind: ChoiceFlow, Skill: t, Source: source, Target: target}
}

func MoveChoice(source, target OperatorID) Choice {
	return Choice{Kind: ChoiceMove, Source: source, Target: target}
}

func ReorderChoice(order []int) Choice {
	return Choice{Kind: ChoiceReorder, Order: slices.Clone(order)}
}

func HealChoice(t OperatorID) Choice { return Choice{Kind: ChoiceHeal, Target: t} }
func DiscardChoice(slot int) Choice  { return Choice{Kind: ChoiceDiscard, Slot: slot} }

func (c Choice) Equal(o Choice) bool {
	return c.Kind == o.Kind &&
		c.Skill == o.Skill &&
		c.Source == o.Source &&
		c.Target == o.Target &&
		c.Slot == o.Slot &&
		slices.Equal(c.Order, o.Order)
}

func (c Choice) String() string {
	switch c.Kind {
	case ChoiceAssist, ChoiceHeal:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Target)
	case ChoiceSkill:
		return fmt.Sprintf("skill(%s, %d)", c.Skill, c.Target)
	case ChoiceFlow:
		return fmt.Sprintf("flow(%s, %d->%d)", c.Skill, c.Source, c.Target)
	case ChoiceMove:
		return fmt.Sprintf("move(%d->%d)", c.Source, c.Target)
	case ChoiceReorder:
		return fmt.Sprintf("reorder%v", c.Order)
	case ChoiceDiscard:
		return fmt.Sprintf("discard(%d)", c.Slot)
	default:
		return string(c.Kind)
	}
}

// ValidChoices lists every choice the current decision accepts, in a stable
// order. It is empty only once the game is over.
func (s *TableState) ValidChoices() []Choice {
	op := s.choice.Operator

	switch s.choice.Kind {
	case StateChooseAction:
		var out []Choice
		o := s.operators[op]
		if !o.idle {
			out = append(out, IdleChoice())
		}
		if len(s.draw) > 0 {
			out = append(out, FaceChoice())
		}
		if !o.Restricted(catalog.CapGiveAssist) {
			for t := range s.operators {
				target := OperatorID(t)
				if target != op && !s.operators[t].HasSkill(o.kind) {
					out = append(out, AssistChoice(target))
				}
			}
		}
		return out

	case StateSkill:
		if s.isFacing() {
			return append([]Choice{PassChoice()}, s.placementSkills(op)...)
		}
		out := []Choice{PassChoice()}
		if s.rogueReady() {
			out = append(out, SkillChoice(catalog.Rogue, 0))
		}
		return out

	case StateFace:
		var out []Choice
		if s.canSecure(op) {
			out = append(out, SecureChoice())
		}
		return append(out, BacktraceChoice())

	case StateDiscardLeft:
		var out []Choice
		for slot, id := range s.operators[op].secure {
			if !id.IsNone() {
				out = append(out, DiscardChoice(slot))
			}
		}
		return out

	case StateFlow:
		out := []Choice{PassChoice()}
		for _, t := range s.usableFlows(op) {
			out = append(out, s.flowChoices(op, t)...)
		}
		return out

	case StateFlowAgain:
		return append([]Choice{PassChoice()}, s.flowChoices(op, s.lastFlow)...)

	case StateBiggsFlow:
		return s.moveChoices()

	case StateRichReorder:
		var out []Choice
		for _, order := range permutations(s.richCount(op)) {
			out = append(out, ReorderChoice(order))
		}
		return out

	case StateCharmHeal:
		var out []Choice
		for t, o := range s.operators {
			if o.burnout {
				out = append(out, HealChoice(OperatorID(t)))
			}
		}
		return out
	}
	return nil
}

func (s *TableState) canSecure(op OperatorID) bool {
	o := s.operators[op]
	slot, ok := catalog.CardOf(s.facing).Symbol.Slot()
	return ok && o.secure[slot].IsNone() && !o.Restricted(catalog.CapSecure)
}

// talentReady reports whether o may use skill t right now: it holds it, has
// not used it this turn and has not lost its talent.
func talentReady(o OperatorState, t catalog.OperatorType) bool {
	return o.HasSkill(t) && !o.skillUsed(t) && !o.Restricted(catalog.CapTalent)
}

// placementSkills are the skills the facing operator may use on the hacker
// in front of it before placing it. Passed and redrawn hackers get none.
func (s *TableState) placementSkills(op OperatorID) []Choice {
	if s.facingForced || op != s.facingOperator {
		return nil
	}
	o := s.operators[op]
	card := catalog.CardOf(s.facing)

	var out []Choice
	if talentReady(o, catalog.Stone) && slices.ContainsFunc(o.backtrace, func(id catalog.CardID) bool {
		return catalog.CardOf(id).Value == card.Value
	}) {
		out = append(out, SkillChoice(catalog.Stone, 0))
	}
	if talentReady(o, catalog.Rich) && len(s.draw) > 0 {
		out = append(out, SkillChoice(catalog.Rich, 0))
	}
	if talentReady(o, catalog.Biggs) && card.Value%2 == 1 {
		for _, n := range s.neighbors(op) {
			out = append(out, SkillChoice(catalog.Biggs, n))
		}
	}
	if talentReady(o, catalog.Charm) && card.Value%2 == 0 {
		for _, n := range s.neighbors(op) {
			out = append(out, SkillChoice(catalog.Charm, n))
		}
	}
	return out
}

// rogueReady: the active operator may face a second hacker this turn.
func (s *TableState) rogueReady() bool {
	o := s.operators[s.active]
	return s.flowUses == 0 && !o.idle && len(s.draw) > 0 && talentReady(o, catalog.Rogue)
}

// usableFlows lists the flows op holds and may use, in skill order. Received
// tokens are lost with the talent; the own flow is not.
func (s *TableState) usableFlows(op OperatorID) []catalog.OperatorType {
	o := s.operators[op]
	if o.burnout {
		return nil
	}
	var out []catalog.OperatorType
	for _, t := range o.skills {
		if t != o.kind && o.Restricted(catalog.CapTalent) {
			continue
		}
		if len(s.flowChoices(op, t)) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// flowChoices enumerates every way op can use flow t on the current table.
// Whether op holds t is up to the caller.
func (s *TableState) flowChoices(op OperatorID, t catalog.OperatorType) []Choice {
	var out []Choice
	switch t {
	case catalog.Stone:
		for src, from := range s.operators {
			for dst, to := range s.operators {
				if src != dst && !to.HasSkill(from.kind) {
					out = append(out, FlowChoice(t, OperatorID(src), OperatorID(dst)))
				}
			}
		}
	case catalog.Sniper, catalog.Rich:
		if len(s.draw) > 0 {
			out = append(out, FlowChoice(t, 0, 0))
		}
	case catalog.Rogue:
		for i, o := range s.operators {
			if len(o.backtrace) > 0 {
				out = append(out, FlowChoice(t, 0, OperatorID(i)))
			}
		}
	case catalog.Biggs:
		if len(s.moveChoices()) > 0 {
			out = append(out, FlowChoice(t, 0, 0))
		}
	case catalog.Charm:
		if s.firewalls < s.maxFirewalls || s.canHeal(op) {
			out = append(out, FlowChoice(t, 0, 0))
		}
	case catalog.Admin:
		if len(s.breach) > 0 {
			out = append(out, FlowChoice(t, 0, 0))
		}
	}
	return out
}

// canHeal: a desperate charm flow may heal a burned out operator.
func (s *TableState) canHeal(op OperatorID) bool {
	return s.operators[op].desperation &&
		slices.ContainsFunc(s.operators, func(o OperatorState) bool { return o.burnout })
}

func (s *TableState) moveChoices() []Choice {
	var out []Choice
	for src, o := range s.operators {
		if len(o.backtrace) == 0 {
			continue
		}
		for dst := range s.operators {
			if src != dst {
				out = append(out, MoveChoice(OperatorID(src), OperatorID(dst)))
			}
		}
	}
	return out
}

// flowReach is how many cards the sniper, rich and admin flows touch.
func (s *TableState) flowReach(op OperatorID) int {
	if s.operators[op].desperation {
		return 3
	}
	return 2
}

func (s *TableState) richCount(op OperatorID) int {
	return min(s.flowReach(op), len(s.draw))
}

// permutations of 0..k-1 in lexicographic order.
func permutations(k int) [][]int {
	if k <= 0 {
		return nil
	}
	var out [][]int
	var walk func(prefix []int, used []bool)
	walk = func(prefix []int, used []bool) {
		if len(prefix) == k {
			out = append(out, slices.Clone(prefix))
			return
		}
		for i := 0; i < k; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			walk(append(prefix, i), used)
			used[i] = false
		}
	}
	walk(make([]int, 0, k), make([]bool, k))
	return out
}
