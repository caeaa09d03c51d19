package engine

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
)

var ErrContractViolation = errors.New("engine contract violation")

// ContractError is returned by Perform when an event's precondition does not
// hold. It means the choice layer produced an illegal mutation; callers must
// treat it as fatal for the session.
type ContractError struct {
	Event  TableEvent
	Reason string
	Cause  error
}

func (e *ContractError) Error() string {
	if e.Event.Type == "" {
		return fmt.Sprintf("%s: %s", ErrContractViolation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrContractViolation, e.Event.Type, e.Reason)
}

func (e *ContractError) Is(target error) bool { return target == ErrContractViolation }
func (e *ContractError) Unwrap() error        { return e.Cause }

// recovered turns a panic raised while resolving a choice into the
// ContractError it carried, or a new one.
func recovered(p any) *ContractError {
	var ce *ContractError
	if err, ok := p.(error); ok && errors.As(err, &ce) {
		return ce
	}
	return &ContractError{Reason: fmt.Sprintf("panic: %v", p)}
}

func reject(ev TableEvent, format string, args ...any) error {
	return &ContractError{Event: ev, Reason: fmt.Sprintf(format, args...)}
}

type EventType string

const (
	EvtFirewallDelta    EventType = "FirewallDelta"
	EvtDatabaseRemove   EventType = "DatabaseRemove"
	EvtWebserviceRemove EventType = "WebserviceRemove"
	EvtFace             EventType = "Face"
	EvtIdle             EventType = "Idle"
	EvtAssist           EventType = "Assist"
	EvtActiveOperator   EventType = "ActiveOperator"
	EvtChoiceState      EventType = "ChoiceState"
	EvtSecure           EventType = "Secure"
	EvtBacktrace        EventType = "Backtrace"
	EvtDiscardFacing    EventType = "DiscardFacing"
	EvtBreachFacing     EventType = "BreachFacing"
	EvtBottomFacing     EventType = "BottomFacing"
	EvtPassFacing       EventType = "PassFacing"
	EvtTakeBacktrace    EventType = "TakeBacktrace"
	EvtBypass           EventType = "Bypass"
	EvtDrawToBacktrace  EventType = "DrawToBacktrace"
	EvtDiscardDraw      EventType = "DiscardDraw"
	EvtDiscardBreach    EventType = "DiscardBreach"
	EvtDiscardBacktrace EventType = "DiscardBacktrace"
	EvtDiscardSecure    EventType = "DiscardSecure"
	EvtRevive           EventType = "Revive"
	EvtRevealDraw       EventType = "RevealDraw"
	EvtReorder          EventType = "Reorder"
	EvtBurnout          EventType = "Burnout"
	EvtHeal             EventType = "Heal"
	EvtDesperation      EventType = "Desperation"
	EvtRestrict         EventType = "Restrict"
	EvtSkillUsed        EventType = "SkillUsed"
	EvtFlowUsed         EventType = "FlowUsed"
	EvtRevokeAssist     EventType = "RevokeAssist"
	EvtRoundAdvance     EventType = "RoundAdvance"
	EvtGameOver         EventType = "GameOver"
)

// TableEvent is one mutation of the table. Which fields matter depends on
// Type; see the constructors below.
type TableEvent struct {
	Type       EventType            `json:"type"`
	Operator   OperatorID           `json:"operator"`
	Target     OperatorID           `json:"target"`
	Delta      int                  `json:"delta,omitempty"`
	Index      int                  `json:"index,omitempty"`
	Skill      catalog.OperatorType `json:"skill,omitempty"`
	Capability catalog.Capability   `json:"capability,omitempty"`
	Forced     bool                 `json:"forced,omitempty"`
	Order      []int                `json:"order,omitempty"`
	Next       *ChoiceState         `json:"next,omitempty"`
	Outcome    Outcome              `json:"outcome,omitempty"`
	Reason     string               `json:"reason,omitempty"`
}

func FirewallDelta(d int) TableEvent    { return TableEvent{Type: EvtFirewallDelta, Delta: d} }
func DatabaseRemove(i int) TableEvent   { return TableEvent{Type: EvtDatabaseRemove, Index: i} }
func WebserviceRemove(i int) TableEvent { return TableEvent{Type: EvtWebserviceRemove, Index: i} }

// Face turns over the top of the draw pile for op to place.
func Face(op OperatorID) TableEvent { return TableEvent{Type: EvtFace, Operator: op} }

func Idle(op OperatorID) TableEvent { return TableEvent{Type: EvtIdle, Operator: op} }

// Assist gives from's own skill to target as a token.
func Assist(from, target OperatorID) TableEvent {
	return TableEvent{Type: EvtAssist, Operator: from, Target: target}
}

func ActiveOperator(op OperatorID) TableEvent {
	return TableEvent{Type: EvtActiveOperator, Operator: op}
}

func SetChoiceState(next ChoiceState) TableEvent {
	return TableEvent{Type: EvtChoiceState, Operator: next.Operator, Next: &next}
}

func Secure(op OperatorID) TableEvent    { return TableEvent{Type: EvtSecure, Operator: op} }
func Backtrace(op OperatorID) TableEvent { return TableEvent{Type: EvtBacktrace, Operator: op} }

func DiscardFacing() TableEvent { return TableEvent{Type: EvtDiscardFacing} }
func BreachFacing() TableEvent  { return TableEvent{Type: EvtBreachFacing} }
func BottomFacing() TableEvent  { return TableEvent{Type: EvtBottomFacing} }

func PassFacing(to OperatorID) TableEvent {
	return TableEvent{Type: EvtPassFacing, Target: to, Forced: true}
}

// TakeBacktrace lifts the last card of from's backtrace list and hands it to
// target to face.
func TakeBacktrace(from, target OperatorID) TableEvent {
	return TableEvent{Type: EvtTakeBacktrace, Operator: from, Target: target, Forced: true}
}

func Bypass() TableEvent        { return TableEvent{Type: EvtBypass} }
func DiscardDraw() TableEvent   { return TableEvent{Type: EvtDiscardDraw} }
func DiscardBreach() TableEvent { return TableEvent{Type: EvtDiscardBreach} }
func Revive() TableEvent        { return TableEvent{Type: EvtRevive} }

func DrawToBacktrace(op OperatorID) TableEvent {
	return TableEvent{Type: EvtDrawToBacktrace, Operator: op}
}

func DiscardBacktrace(op OperatorID, index int) TableEvent {
	return TableEvent{Type: EvtDiscardBacktrace, Operator: op, Index: index}
}

func DiscardSecure(op OperatorID, slot int) TableEvent {
	return TableEvent{Type: EvtDiscardSecure, Operator: op, Index: slot}
}

func RevealDraw(count int) TableEvent { return TableEvent{Type: EvtRevealDraw, Index: count} }

// Reorder rearranges the top len(order) cards of the draw pile: the card at
// position order[i] (0 is the top) ends up at position i.
func Reorder(order []int) TableEvent {
	return TableEvent{Type: EvtReorder, Order: slices.Clone(order)}
}

func Burnout(op OperatorID) TableEvent     { return TableEvent{Type: EvtBurnout, Operator: op} }
func Heal(op OperatorID) TableEvent        { return TableEvent{Type: EvtHeal, Operator: op} }
func Desperation(op OperatorID) TableEvent { return TableEvent{Type: EvtDesperation, Operator: op} }

func Restrict(op OperatorID, c catalog.Capability) TableEvent {
	return TableEvent{Type: EvtRestrict, Operator: op, Capability: c}
}

func SkillUsed(op OperatorID, t catalog.OperatorType) TableEvent {
	return TableEvent{Type: EvtSkillUsed, Operator: op, Skill: t}
}

func FlowUsed(op OperatorID, t catalog.OperatorType) TableEvent {
	return TableEvent{Type: EvtFlowUsed, Operator: op, Skill: t}
}

func RevokeAssist(op OperatorID, t catalog.OperatorType) TableEvent {
	return TableEvent{Type: EvtRevokeAssist, Operator: op, Skill: t}
}

func RoundAdvance() TableEvent { return TableEvent{Type: EvtRoundAdvance} }

func GameOver(o Outcome, reason string) TableEvent {
	return TableEvent{Type: EvtGameOver, Outcome: o, Reason: reason}
}

// Perform applies one event. The precondition is checked first and the table
// invariants after; on any failure a *ContractError is returned and the state
// is left exactly as it was.
func (s *TableState) Perform(ev TableEvent) error {
	if s.outcome != OutcomeNone {
		return reject(ev, "game is over")
	}

	next := s.Clone()
	if err := next.apply(ev); err != nil {
		return err
	}
	err := next.checkTable()
	if ev.Type == EvtChoiceState {
		// a new decision closes the cascade, so the table must support it
		err = multierr.Append(err, next.checkDecision())
	}
	if err != nil {
		return &ContractError{Event: ev, Reason: "invariant check failed", Cause: err}
	}
	if before, after := s.cardCount(), next.cardCount(); before != after {
		return reject(ev, "card count changed from %d to %d", before, after)
	}

	*s = *next
	return nil
}

// mustPerform is used on scratch copies while resolving a choice, where a
// rejected event can only be an engine bug.
func (s *TableState) mustPerform(ev TableEvent) {
	if err := s.Perform(ev); err != nil {
		panic(err)
	}
}

func (s *TableState) apply(ev TableEvent) error {
	switch ev.Type {
	case EvtFirewallDelta:
		result := s.firewalls + ev.Delta
		if result < 0 || result > s.maxFirewalls {
			return reject(ev, "firewalls must remain within 0..%d, cur %d delta %d", s.maxFirewalls, s.firewalls, ev.Delta)
		}
		s.firewalls = result

	case EvtDatabaseRemove:
		if ev.Index < 0 || ev.Index >= NumDatabases || !s.databases[ev.Index] {
			return reject(ev, "database %d not present", ev.Index)
		}
		s.databases[ev.Index] = false

	case EvtWebserviceRemove:
		if ev.Index < 0 || ev.Index >= NumWebservices || !s.webservices[ev.Index] {
			return reject(ev, "webservice %d not present", ev.Index)
		}
		s.webservices[ev.Index] = false

	case EvtFace:
		if s.isFacing() {
			return reject(ev, "already facing %s", s.facing)
		}
		if len(s.draw) == 0 {
			return reject(ev, "draw pile is empty")
		}
		if !s.validOperator(ev.Operator) {
			return reject(ev, "operator %d out of range", ev.Operator)
		}
		s.facing = s.popDraw().ID
		s.facingOperator = ev.Operator
		s.facingForced = ev.Forced

	case EvtIdle:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if o.idle {
			return reject(ev, "operator %d already idle", ev.Operator)
		}
		o.idle = true

	case EvtAssist:
		if ev.Operator == ev.Target {
			return reject(ev, "operator %d cannot assist itself", ev.Operator)
		}
		from, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if !s.validOperator(ev.Target) {
			return reject(ev, "target %d out of range", ev.Target)
		}
		to := &s.operators[ev.Target]
		if to.HasSkill(from.kind) {
			return reject(ev, "operator %d already holds %s", ev.Target, from.kind)
		}
		to.skills = append(to.skills, from.kind)

	case EvtActiveOperator:
		if !s.validOperator(ev.Operator) {
			return reject(ev, "operator %d out of range", ev.Operator)
		}
		s.active = ev.Operator
		s.flowUses = 0
		s.lastFlow = ""
		for i := range s.operators {
			s.operators[i].skillsUsed = nil
		}

	case EvtChoiceState:
		if ev.Next == nil {
			return reject(ev, "no state given")
		}
		if ev.Next.Kind == StateGameOver || ev.Next.Kind == "" {
			return reject(ev, "state %q must not be set directly", ev.Next.Kind)
		}
		if !s.validOperator(ev.Next.Operator) {
			return reject(ev, "operator %d out of range", ev.Next.Operator)
		}
		s.choice = *ev.Next

	case EvtSecure:
		o, err := s.facingFor(ev)
		if err != nil {
			return err
		}
		slot, ok := catalog.CardOf(s.facing).Symbol.Slot()
		if !ok {
			return reject(ev, "%s has no symbol to secure", s.facing)
		}
		if !o.secure[slot].IsNone() {
			return reject(ev, "secure slot %d already holds %s", slot, o.secure[slot])
		}
		if o.Restricted(catalog.CapSecure) {
			return reject(ev, "operator %d may not secure this round", ev.Operator)
		}
		o.secure[slot] = s.takeFacing()

	case EvtBacktrace:
		o, err := s.facingFor(ev)
		if err != nil {
			return err
		}
		if len(o.backtrace) >= MaxBacktrace {
			return reject(ev, "backtrace list of operator %d is full", ev.Operator)
		}
		o.backtrace = append(o.backtrace, s.takeFacing())

	case EvtDiscardFacing, EvtBreachFacing, EvtBottomFacing:
		if !s.isFacing() {
			return reject(ev, "not facing a card")
		}
		id := s.takeFacing()
		switch ev.Type {
		case EvtDiscardFacing:
			s.discard = append(s.discard, PileCard{ID: id, FaceUp: true})
		case EvtBreachFacing:
			s.breach = append(s.breach, PileCard{ID: id, FaceUp: true})
		default:
			s.draw = append([]PileCard{{ID: id}}, s.draw...)
		}

	case EvtPassFacing:
		if !s.isFacing() {
			return reject(ev, "not facing a card")
		}
		if !s.validOperator(ev.Target) || ev.Target == s.facingOperator {
			return reject(ev, "cannot pass to operator %d", ev.Target)
		}
		s.facingOperator = ev.Target
		s.facingForced = ev.Forced

	case EvtTakeBacktrace:
		if s.isFacing() {
			return reject(ev, "already facing %s", s.facing)
		}
		from, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if !s.validOperator(ev.Target) || ev.Target == ev.Operator {
			return reject(ev, "cannot hand a card to operator %d", ev.Target)
		}
		if len(from.backtrace) == 0 {
			return reject(ev, "backtrace list of operator %d is empty", ev.Operator)
		}
		last := len(from.backtrace) - 1
		s.facing = from.backtrace[last]
		from.backtrace = from.backtrace[:last]
		s.facingOperator = ev.Target
		s.facingForced = ev.Forced

	case EvtBypass, EvtDiscardDraw:
		if len(s.draw) == 0 {
			return reject(ev, "draw pile is empty")
		}
		c := s.popDraw()
		if ev.Type == EvtBypass {
			s.breach = append(s.breach, PileCard{ID: c.ID})
		} else {
			s.discard = append(s.discard, PileCard{ID: c.ID, FaceUp: true})
		}

	case EvtDrawToBacktrace:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if len(s.draw) == 0 {
			return reject(ev, "draw pile is empty")
		}
		if len(o.backtrace) >= MaxBacktrace {
			return reject(ev, "backtrace list of operator %d is full", ev.Operator)
		}
		o.backtrace = append(o.backtrace, s.popDraw().ID)

	case EvtDiscardBreach:
		if len(s.breach) == 0 {
			return reject(ev, "breach pile is empty")
		}
		c := s.breach[len(s.breach)-1]
		s.breach = s.breach[:len(s.breach)-1]
		s.discard = append(s.discard, PileCard{ID: c.ID, FaceUp: true})

	case EvtDiscardBacktrace:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if ev.Index < 0 || ev.Index >= len(o.backtrace) {
			return reject(ev, "no backtrace card %d for operator %d", ev.Index, ev.Operator)
		}
		id := o.backtrace[ev.Index]
		o.backtrace = slices.Delete(o.backtrace, ev.Index, ev.Index+1)
		s.discard = append(s.discard, PileCard{ID: id, FaceUp: true})

	case EvtDiscardSecure:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if ev.Index < 0 || ev.Index >= catalog.SecureSlots || o.secure[ev.Index].IsNone() {
			return reject(ev, "secure slot %d of operator %d is empty", ev.Index, ev.Operator)
		}
		s.discard = append(s.discard, PileCard{ID: o.secure[ev.Index], FaceUp: true})
		o.secure[ev.Index] = catalog.NoCard

	case EvtRevive:
		// No shuffle: the top discard goes under the draw pile, so a replay
		// needs nothing but the setup seed.
		if len(s.discard) == 0 {
			return reject(ev, "discard pile is empty")
		}
		c := s.discard[len(s.discard)-1]
		s.discard = s.discard[:len(s.discard)-1]
		s.draw = append([]PileCard{{ID: c.ID}}, s.draw...)

	case EvtRevealDraw:
		if ev.Index < 1 || ev.Index > len(s.draw) {
			return reject(ev, "cannot reveal %d of %d cards", ev.Index, len(s.draw))
		}
		for i := len(s.draw) - ev.Index; i < len(s.draw); i++ {
			s.draw[i].FaceUp = true
		}

	case EvtReorder:
		k := len(ev.Order)
		if k < 1 || k > len(s.draw) || !isPermutation(ev.Order) {
			return reject(ev, "invalid order %v for %d cards", ev.Order, len(s.draw))
		}
		top := len(s.draw) - 1
		old := slices.Clone(s.draw)
		for i, from := range ev.Order {
			s.draw[top-i] = old[top-from]
		}

	case EvtBurnout:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if o.burnout {
			return reject(ev, "operator %d already burned out", ev.Operator)
		}
		o.burnout = true

	case EvtHeal:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if !o.burnout {
			return reject(ev, "operator %d has no burnout", ev.Operator)
		}
		o.burnout = false

	case EvtDesperation:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if o.desperation {
			return reject(ev, "operator %d already desperate", ev.Operator)
		}
		o.desperation = true

	case EvtRestrict:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		switch ev.Capability {
		case catalog.CapSecure, catalog.CapGiveAssist, catalog.CapTalent:
		default:
			return reject(ev, "unknown capability %q", ev.Capability)
		}
		if o.Restricted(ev.Capability) {
			return reject(ev, "operator %d already restricted from %s", ev.Operator, ev.Capability)
		}
		o.restrictions = append(o.restrictions, ev.Capability)

	case EvtSkillUsed:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if !o.HasSkill(ev.Skill) {
			return reject(ev, "operator %d does not hold %s", ev.Operator, ev.Skill)
		}
		if !o.skillUsed(ev.Skill) {
			o.skillsUsed = append(o.skillsUsed, ev.Skill)
		}

	case EvtFlowUsed:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		if !o.HasSkill(ev.Skill) {
			return reject(ev, "operator %d does not hold %s", ev.Operator, ev.Skill)
		}
		if o.burnout {
			return reject(ev, "operator %d is burned out", ev.Operator)
		}
		s.flowUses++
		s.lastFlow = ev.Skill

	case EvtRevokeAssist:
		o, err := s.operatorFor(ev)
		if err != nil {
			return err
		}
		i := slices.Index(o.skills, ev.Skill)
		if i <= 0 {
			return reject(ev, "operator %d holds no %s token", ev.Operator, ev.Skill)
		}
		o.skills = slices.Delete(o.skills, i, i+1)

	case EvtRoundAdvance:
		if s.round >= Rounds-1 {
			return reject(ev, "round %d is the last", s.round)
		}
		s.round++
		s.flowUses = 0
		s.lastFlow = ""
		for i := range s.operators {
			o := &s.operators[i]
			o.idle = false
			o.restrictions = nil
			o.skillsUsed = nil
		}

	case EvtGameOver:
		if ev.Outcome != OutcomeWon && ev.Outcome != OutcomeLost {
			return reject(ev, "unknown outcome %q", ev.Outcome)
		}
		s.outcome = ev.Outcome
		s.reason = ev.Reason
		s.choice = ChoiceState{Kind: StateGameOver}

	default:
		return reject(ev, "unknown event")
	}
	return nil
}

func (s *TableState) operatorFor(ev TableEvent) (*OperatorState, error) {
	if !s.validOperator(ev.Operator) {
		return nil, reject(ev, "operator %d out of range", ev.Operator)
	}
	return &s.operators[ev.Operator], nil
}

func (s *TableState) facingFor(ev TableEvent) (*OperatorState, error) {
	if !s.isFacing() {
		return nil, reject(ev, "not facing a card")
	}
	if ev.Operator != s.facingOperator {
		return nil, reject(ev, "operator %d is not facing, operator %d is", ev.Operator, s.facingOperator)
	}
	return s.operatorFor(ev)
}

func (s *TableState) popDraw() PileCard {
	c := s.draw[len(s.draw)-1]
	s.draw = s.draw[:len(s.draw)-1]
	return c
}

func (s *TableState) takeFacing() catalog.CardID {
	id := s.facing
	s.facing = catalog.NoCard
	s.facingForced = false
	return id
}

func isPermutation(order []int) bool {
	seen := make([]bool, len(order))
	for _, v := range order {
		if v < 0 || v >= len(order) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
