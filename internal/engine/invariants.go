package engine

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
)

var ErrInvariant = errors.New("table invariant violated")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// CheckInvariants reports every broken table invariant at once, including a
// pending decision the table cannot support. It holds between choices; use
// it on restored or settled tables.
func (s *TableState) CheckInvariants() error {
	return multierr.Append(s.checkTable(), s.checkDecision())
}

// checkTable covers what must hold after every single event, even in the
// middle of a cascade.
func (s *TableState) checkTable() error {
	var err error

	if len(s.operators) == 0 || len(s.operators) > len(catalog.OperatorTypes()) {
		err = multierr.Append(err, violation("operator count %d", len(s.operators)))
	}
	if s.firewalls < 0 || s.firewalls > s.maxFirewalls {
		err = multierr.Append(err, violation("firewalls %d outside 0..%d", s.firewalls, s.maxFirewalls))
	}
	if s.round < 0 || s.round >= Rounds {
		err = multierr.Append(err, violation("round %d outside 0..%d", s.round, Rounds-1))
	}
	if !s.validOperator(s.active) {
		err = multierr.Append(err, violation("active operator %d out of range", s.active))
	}
	if s.choice.Kind != StateGameOver && !s.validOperator(s.choice.Operator) {
		err = multierr.Append(err, violation("choice state %s out of range", s.choice))
	}
	if s.isFacing() && !s.validOperator(s.facingOperator) {
		err = multierr.Append(err, violation("facing operator %d out of range", s.facingOperator))
	}

	seen := make(map[catalog.CardID]string)
	place := func(id catalog.CardID, where string) {
		if id.IsNone() {
			err = multierr.Append(err, violation("empty card in %s", where))
			return
		}
		if prev, dup := seen[id]; dup {
			err = multierr.Append(err, violation("%s in both %s and %s", id, prev, where))
			return
		}
		seen[id] = where
	}
	for _, c := range s.draw {
		place(c.ID, "draw")
	}
	for _, c := range s.breach {
		place(c.ID, "breach")
	}
	for _, c := range s.discard {
		place(c.ID, "discard")
	}
	if s.isFacing() {
		place(s.facing, "facing")
	}

	for i, o := range s.operators {
		if !o.kind.Valid() {
			err = multierr.Append(err, violation("operator %d has unknown type %q", i, o.kind))
			continue
		}
		if len(o.skills) == 0 || o.skills[0] != o.kind {
			err = multierr.Append(err, violation("operator %d lost its own skill", i))
		}
		if len(o.backtrace) > MaxBacktrace {
			err = multierr.Append(err, violation("operator %d backtrace length %d", i, len(o.backtrace)))
		}
		for slot, id := range o.secure {
			if id.IsNone() {
				continue
			}
			place(id, fmt.Sprintf("operator %d secure slot %d", i, slot))
			if want, ok := catalog.CardOf(id).Symbol.Slot(); !ok || want != slot {
				err = multierr.Append(err, violation("operator %d secure slot %d holds %s", i, slot, id))
			}
		}
		for _, id := range o.backtrace {
			place(id, fmt.Sprintf("operator %d backtrace", i))
		}
	}

	return err
}

// checkDecision reports a choice state that does not match the table, such
// as a placement decision with no hacker in front of anyone.
func (s *TableState) checkDecision() error {
	c := s.choice
	if (c.Kind == StateGameOver) != (s.outcome != OutcomeNone) {
		return violation("choice state %s with outcome %q", c, s.outcome)
	}
	if c.Kind == StateGameOver || !s.validOperator(c.Operator) {
		return nil
	}

	o := s.operators[c.Operator]
	placing := c.Kind == StateFace || (c.Kind == StateSkill && s.isFacing())
	var err error
	switch c.Kind {
	case StateChooseAction, StateFlow, StateSkill:
	case StateFace:
		if !s.isFacing() {
			err = multierr.Append(err, violation("%s without a faced hacker", c))
		}
	case StateDiscardLeft:
		if o.securedCount() == 0 {
			err = multierr.Append(err, violation("%s with nothing secured", c))
		}
	case StateFlowAgain:
		if !s.lastFlow.Valid() {
			err = multierr.Append(err, violation("%s without a previous flow", c))
		}
	case StateBiggsFlow:
		if len(s.moveChoices()) == 0 {
			err = multierr.Append(err, violation("%s with no backtrace to move", c))
		}
	case StateRichReorder:
		if len(s.draw) == 0 {
			err = multierr.Append(err, violation("%s with an empty draw pile", c))
		}
	case StateCharmHeal:
		if !slices.ContainsFunc(s.operators, func(o OperatorState) bool { return o.burnout }) {
			err = multierr.Append(err, violation("%s with nobody burned out", c))
		}
	default:
		err = multierr.Append(err, violation("unknown choice state %q", c.Kind))
	}

	switch {
	case placing && s.facingOperator != c.Operator:
		err = multierr.Append(err, violation("%s but operator %d holds the hacker", c, s.facingOperator))
	case !placing && s.isFacing():
		err = multierr.Append(err, violation("%s while %s is faced", c, s.facing))
	}
	return err
}

// cardCount is the number of hackers on the table, wherever they are.
func (s *TableState) cardCount() int {
	n := len(s.draw) + len(s.breach) + len(s.discard)
	if s.isFacing() {
		n++
	}
	for _, o := range s.operators {
		n += len(o.backtrace) + o.securedCount()
	}
	return n
}
