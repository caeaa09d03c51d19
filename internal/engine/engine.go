// Package engine is the rules engine: table state, the choice state machine
// and the events that mutate the table. It does no I/O.
package engine

import (
	"fmt"
	"slices"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
)

// Choose resolves c into the ordered events that lead to the next decision
// (or the end of the game). It does not modify s; feed the events to Perform
// to advance, or use Apply. A table the engine cannot resolve yields a
// *ContractError instead of a panic.
func (s *TableState) Choose(c Choice) (events []TableEvent, err error) {
	defer func() {
		if p := recover(); p != nil {
			events, err = nil, recovered(p)
		}
	}()

	if !slices.ContainsFunc(s.ValidChoices(), c.Equal) {
		return nil, fmt.Errorf("%w: %s in %s", ErrIllegalChoice, c, s.choice)
	}
	r := &resolver{s: s.Clone()}
	r.resolve(c)
	return r.events, nil
}

// Apply chooses c and performs the resulting events. An error from Perform
// is a contract violation; s then holds every event up to the rejected one.
func (s *TableState) Apply(c Choice) ([]TableEvent, error) {
	events, err := s.Choose(c)
	if err != nil {
		return nil, err
	}
	for i, ev := range events {
		if err := s.Perform(ev); err != nil {
			return events[:i], err
		}
	}
	return events, nil
}

// resolver runs a cascade on a scratch copy, recording every event.
type resolver struct {
	s      *TableState
	events []TableEvent
}

func (r *resolver) emit(ev TableEvent) {
	r.s.mustPerform(ev)
	r.events = append(r.events, ev)
}

func (r *resolver) over() bool { return r.s.outcome != OutcomeNone }

func (r *resolver) next(kind StateKind, op OperatorID) {
	r.emit(SetChoiceState(ChoiceState{Kind: kind, Operator: op}))
}

func (r *resolver) lose(reason string) { r.emit(GameOver(OutcomeLost, reason)) }

func (r *resolver) resolve(c Choice) {
	op := r.s.choice.Operator

	switch r.s.choice.Kind {
	case StateChooseAction:
		switch c.Kind {
		case ChoiceIdle:
			r.emit(Idle(op))
			r.endTurn()
		case ChoiceAssist:
			r.emit(Assist(op, c.Target))
			r.emit(Idle(op))
			r.endTurn()
		case ChoiceFace:
			r.face(op)
		}

	case StateSkill:
		if r.s.isFacing() {
			r.placementSkill(op, c)
			return
		}
		if c.Kind == ChoicePass {
			r.flowCheck()
			return
		}
		r.emit(SkillUsed(op, catalog.Rogue))
		r.face(op)

	case StateFace:
		if c.Kind == ChoiceSecure {
			r.emit(Secure(op))
			r.postPlacement()
			return
		}
		r.backtrace(op)

	case StateDiscardLeft:
		r.emit(DiscardSecure(op, c.Slot))
		r.postPlacement()

	case StateFlow, StateFlowAgain:
		if c.Kind == ChoicePass {
			r.endTurn()
			return
		}
		r.flow(op, c)

	case StateBiggsFlow:
		r.emit(TakeBacktrace(c.Source, c.Target))
		r.next(StateFace, c.Target)

	case StateRichReorder:
		r.emit(Reorder(c.Order))
		r.postFlow()

	case StateCharmHeal:
		r.emit(Heal(c.Target))
		r.postFlow()
	}
}

// face turns over the next hacker for op and asks for a skill if one applies.
func (r *resolver) face(op OperatorID) {
	r.emit(Face(op))
	if len(r.s.placementSkills(op)) > 0 {
		r.next(StateSkill, op)
		return
	}
	r.next(StateFace, op)
}

func (r *resolver) placementSkill(op OperatorID, c Choice) {
	if c.Kind == ChoicePass {
		r.next(StateFace, op)
		return
	}
	r.emit(SkillUsed(op, c.Skill))
	switch c.Skill {
	case catalog.Stone:
		r.emit(DiscardFacing())
		r.postPlacement()
	case catalog.Rich:
		r.emit(BottomFacing())
		ev := Face(op)
		ev.Forced = true
		r.emit(ev)
		r.next(StateFace, op)
	case catalog.Biggs, catalog.Charm:
		r.emit(PassFacing(c.Target))
		r.next(StateFace, c.Target)
	}
}

// backtrace places the facing hacker in op's backtrace list and resolves
// what follows: overflow, desperation, virus spread and the penalty.
func (r *resolver) backtrace(op OperatorID) {
	o := r.s.operators[op]
	card := catalog.CardOf(r.s.facing)

	if len(o.backtrace)+1 > o.Stats().DesperationThreshold {
		r.emit(BreachFacing())
		r.lose(fmt.Sprintf("operator %d overflowed its backtrace list", op))
		return
	}
	spread := card.Virus && o.hasVirus()

	r.emit(Backtrace(op))
	r.checkDesperation(op)

	if spread {
		r.compromise()
		if r.over() {
			return
		}
	}
	if r.penalty(op, card) || r.over() {
		return
	}
	r.postPlacement()
}

func (r *resolver) checkDesperation(op OperatorID) {
	o := r.s.operators[op]
	if !o.desperation && len(o.backtrace) > o.Stats().NormalThreshold {
		r.emit(Desperation(op))
	}
}

// penalty applies the hacker's penalty to op. It reports true when the
// cascade stopped for a decision.
func (r *resolver) penalty(op OperatorID, card catalog.Card) bool {
	if card.Penalty == catalog.PenaltyNone {
		return false
	}
	o := r.s.operators[op]
	if !o.Restricted(catalog.CapTalent) {
		if card.Value%2 == 0 && o.HasSkill(catalog.Sniper) {
			r.emit(SkillUsed(op, catalog.Sniper))
			return false
		}
		if card.Value%2 == 1 && o.HasSkill(catalog.Admin) {
			r.emit(SkillUsed(op, catalog.Admin))
			return false
		}
	}

	for _, eff := range card.Penalty.Effects() {
		switch eff.Kind {
		case catalog.EffectCompromise:
			r.compromise()
		case catalog.EffectBurnout:
			r.burnout(op)
		case catalog.EffectBypass:
			if len(r.s.draw) > 0 {
				r.emit(Bypass())
			}
		case catalog.EffectRestrict:
			if !r.s.operators[op].Restricted(eff.Capability) {
				r.emit(Restrict(op, eff.Capability))
			}
		case catalog.EffectDrawLeft:
			r.drawInto(r.s.leftOf(op))
		case catalog.EffectDrawRight:
			r.drawInto(r.s.rightOf(op))
		case catalog.EffectIdle:
			if r.s.operators[op].idle {
				r.lose(fmt.Sprintf("operator %d cannot idle again", op))
			} else {
				r.emit(Idle(op))
			}
		case catalog.EffectRevive:
			if len(r.s.discard) > 0 {
				r.emit(Revive())
			}
		case catalog.EffectDiscardSecure:
			if r.s.operators[op].securedCount() > 0 {
				r.next(StateDiscardLeft, op)
				return true
			}
		}
		if r.over() {
			return true
		}
	}
	return false
}

func (r *resolver) compromise() {
	r.emit(FirewallDelta(-1))
	if r.s.firewalls == 0 {
		r.lose("all firewalls compromised")
	}
}

func (r *resolver) burnout(op OperatorID) {
	if r.s.operators[op].burnout {
		r.compromise()
		return
	}
	r.emit(Burnout(op))
}

// drawInto moves the top of the draw pile into op's backtrace list without
// facing it.
func (r *resolver) drawInto(op OperatorID) {
	if len(r.s.draw) == 0 {
		return
	}
	o := r.s.operators[op]
	if len(o.backtrace)+1 > o.Stats().DesperationThreshold {
		r.emit(Bypass())
		r.lose(fmt.Sprintf("operator %d overflowed its backtrace list", op))
		return
	}
	r.emit(DrawToBacktrace(op))
	r.checkDesperation(op)
}

// postPlacement continues the active operator's turn once a hacker has been
// placed or discarded.
func (r *resolver) postPlacement() {
	if r.s.flowUses > 0 {
		r.postFlow()
		return
	}
	if r.s.rogueReady() {
		r.next(StateSkill, r.s.active)
		return
	}
	r.flowCheck()
}

func (r *resolver) flowCheck() {
	a := r.s.active
	o := r.s.operators[a]
	if !o.idle && r.s.flowUses == 0 && len(r.s.usableFlows(a)) > 0 {
		r.next(StateFlow, a)
		return
	}
	r.endTurn()
}

func (r *resolver) flow(op OperatorID, c Choice) {
	desperate := r.s.operators[op].desperation
	r.emit(FlowUsed(op, c.Skill))

	switch c.Skill {
	case catalog.Stone:
		r.emit(Assist(c.Source, c.Target))
		if desperate {
			r.addFirewall()
		}
	case catalog.Sniper:
		for range min(r.s.flowReach(op), len(r.s.draw)) {
			r.emit(DiscardDraw())
		}
	case catalog.Rogue:
		r.emit(DiscardBacktrace(c.Target, len(r.s.operators[c.Target].backtrace)-1))
	case catalog.Biggs:
		r.next(StateBiggsFlow, op)
		return
	case catalog.Rich:
		r.emit(RevealDraw(r.s.richCount(op)))
		r.next(StateRichReorder, op)
		return
	case catalog.Charm:
		r.addFirewall()
		if r.s.canHeal(op) {
			r.next(StateCharmHeal, op)
			return
		}
	case catalog.Admin:
		for range min(r.s.flowReach(op), len(r.s.breach)) {
			r.emit(DiscardBreach())
		}
	}
	r.postFlow()
}

func (r *resolver) addFirewall() {
	if r.s.firewalls < r.s.maxFirewalls {
		r.emit(FirewallDelta(1))
	}
}

// postFlow offers the second use a desperate Rogue or Biggs flow gets.
func (r *resolver) postFlow() {
	a := r.s.active
	last := r.s.lastFlow
	if (last == catalog.Rogue || last == catalog.Biggs) &&
		r.s.operators[a].desperation &&
		r.s.flowUses == 1 &&
		slices.Contains(r.s.usableFlows(a), last) {
		r.next(StateFlowAgain, a)
		return
	}
	r.endTurn()
}

// endTurn hands initiative to the next operator clockwise who is not idle,
// or ends the round when there is none.
func (r *resolver) endTurn() {
	if next, ok := r.s.nextActive(r.s.active); ok {
		r.emit(ActiveOperator(next))
		r.next(StateChooseAction, next)
		return
	}
	r.endRound()
}

func (r *resolver) endRound() {
	covered := make([]bool, len(r.s.operators))
	for i, o := range r.s.operators {
		covered[i] = o.covered()
	}

	for i := range r.s.operators {
		if covered[i] {
			continue
		}
		r.webserviceHit(OperatorID(i))
		if r.over() {
			return
		}
	}

	for len(r.s.breach) > 0 {
		virus := catalog.CardOf(r.s.breach[len(r.s.breach)-1].ID).Virus
		r.emit(DiscardBreach())
		if virus {
			r.compromise()
			if r.over() {
				return
			}
		}
	}

	for i, o := range r.s.operators {
		for slot, id := range o.secure {
			if !id.IsNone() {
				r.emit(DiscardSecure(OperatorID(i), slot))
			}
		}
	}

	if !slices.Contains(covered, false) {
		if db := slices.Index(r.s.databases[:], true); db >= 0 {
			r.emit(DatabaseRemove(db))
			r.databaseBonus(db)
		}
	}

	for i, o := range r.s.operators {
		for _, t := range o.skills[1:] {
			r.emit(RevokeAssist(OperatorID(i), t))
		}
	}

	if r.s.round == Rounds-1 {
		r.emit(GameOver(OutcomeWon, "survived every round"))
		return
	}
	r.emit(RoundAdvance())
	first := OperatorID(r.s.round % len(r.s.operators))
	r.emit(ActiveOperator(first))
	r.next(StateChooseAction, first)
}

// databaseBonus rewards full coverage; which bonus depends on the database
// given up.
func (r *resolver) databaseBonus(db int) {
	switch db {
	case 0:
		for i, o := range r.s.operators {
			if o.burnout {
				r.emit(Heal(OperatorID(i)))
			}
		}
	case 1:
		r.addFirewall()
	case 2:
		for i, o := range r.s.operators {
			if n := len(o.backtrace); n > 0 {
				r.emit(DiscardBacktrace(OperatorID(i), n-1))
			}
		}
	}
}

// webserviceHit takes down the first standing webservice; what else breaks
// depends on which one fell.
func (r *resolver) webserviceHit(op OperatorID) {
	ws := slices.Index(r.s.webservices[:], true)
	if ws < 0 {
		r.compromise()
		return
	}
	r.emit(WebserviceRemove(ws))

	switch ws {
	case 0, 1:
		r.compromise()
	case 2, 3:
		r.burnout(op)
	case 4:
		if r.s.webservices[5] {
			r.emit(WebserviceRemove(5))
		} else {
			r.compromise()
		}
	case 5:
		if db := slices.Index(r.s.databases[:], true); db >= 0 {
			r.emit(DatabaseRemove(db))
		} else {
			r.compromise()
		}
	}
}
