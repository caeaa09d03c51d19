package engine

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
)

const (
	NumDatabases   = 3
	NumWebservices = 6
	// MaxBacktrace bounds every backtrace list.
	MaxBacktrace = 13
	// Rounds is the number of rounds to survive.
	Rounds = 3
)

// OperatorID is an index into the roster, not an operator type.
type OperatorID int

// PileCard is a hacker in the draw, breach or discard pile.
type PileCard struct {
	ID     catalog.CardID `json:"id"`
	FaceUp bool           `json:"face_up"`
}

type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

type StateKind string

const (
	StateChooseAction StateKind = "choose_action"
	StateFace         StateKind = "face"
	StateSkill        StateKind = "skill"
	StateFlow         StateKind = "flow"
	StateFlowAgain    StateKind = "flow_again"
	StateBiggsFlow    StateKind = "biggs_flow"
	StateCharmHeal    StateKind = "charm_heal"
	StateRichReorder  StateKind = "rich_reorder"
	StateDiscardLeft  StateKind = "discard_left"
	StateGameOver     StateKind = "game_over"
)

// ChoiceState is the decision the table is waiting on and who makes it. The
// operator is not always the active one: a passed hacker is placed by the
// neighbor who received it.
type ChoiceState struct {
	Kind     StateKind  `json:"kind"`
	Operator OperatorID `json:"operator"`
}

func (c ChoiceState) String() string {
	if c.Kind == StateGameOver {
		return string(c.Kind)
	}
	return fmt.Sprintf("%s(%d)", c.Kind, c.Operator)
}

// OperatorState is one operator board.
type OperatorState struct {
	kind catalog.OperatorType
	// secure slots indexed by catalog.Symbol.Slot
	secure [catalog.SecureSlots]catalog.CardID
	// backtrace top is index 0, the most recently placed card is last
	backtrace    []catalog.CardID
	burnout      bool
	desperation  bool
	idle         bool
	skills       []catalog.OperatorType // own type first, then received tokens
	restrictions []catalog.Capability
	skillsUsed   []catalog.OperatorType
}

func newOperatorState(kind catalog.OperatorType) OperatorState {
	return OperatorState{
		kind:   kind,
		skills: []catalog.OperatorType{kind},
	}
}

func (o OperatorState) Type() catalog.OperatorType { return o.kind }
func (o OperatorState) Stats() catalog.Stats       { return catalog.StatsOf(o.kind) }

func (o OperatorState) SecureSlots() [catalog.SecureSlots]catalog.CardID { return o.secure }

func (o OperatorState) Backtrace() []catalog.CardID { return slices.Clone(o.backtrace) }

func (o OperatorState) Burnout() bool     { return o.burnout }
func (o OperatorState) Desperation() bool { return o.desperation }
func (o OperatorState) Idle() bool        { return o.idle }

func (o OperatorState) Skills() []catalog.OperatorType { return slices.Clone(o.skills) }

func (o OperatorState) HasSkill(t catalog.OperatorType) bool { return slices.Contains(o.skills, t) }

func (o OperatorState) Restricted(c catalog.Capability) bool {
	return slices.Contains(o.restrictions, c)
}

func (o OperatorState) Restrictions() []catalog.Capability { return slices.Clone(o.restrictions) }

func (o OperatorState) skillUsed(t catalog.OperatorType) bool {
	return slices.Contains(o.skillsUsed, t)
}

func (o OperatorState) securedCount() int {
	n := 0
	for _, id := range o.secure {
		if !id.IsNone() {
			n++
		}
	}
	return n
}

func (o OperatorState) covered() bool { return o.securedCount() == catalog.SecureSlots }

func (o OperatorState) hasVirus() bool {
	for _, id := range o.backtrace {
		if catalog.CardOf(id).Virus {
			return true
		}
	}
	return false
}

func (o OperatorState) clone() OperatorState {
	o.backtrace = slices.Clone(o.backtrace)
	o.skills = slices.Clone(o.skills)
	o.restrictions = slices.Clone(o.restrictions)
	o.skillsUsed = slices.Clone(o.skillsUsed)
	return o
}

// TableState is everything needed, together with the GameConfig, to describe
// (and resume) a game in progress. It is only changed through Perform.
type TableState struct {
	firewalls    int
	maxFirewalls int
	databases    [NumDatabases]bool
	webservices  [NumWebservices]bool
	// piles: the top is the last element
	draw    []PileCard
	breach  []PileCard
	discard []PileCard
	round   int

	facing         catalog.CardID
	facingOperator OperatorID
	// facingForced is set for passed or redrawn hackers, which must be
	// placed without using skills.
	facingForced bool

	active    OperatorID
	operators []OperatorState
	choice    ChoiceState

	flowUses int
	lastFlow catalog.OperatorType

	outcome Outcome
	reason  string
}

func (s *TableState) Firewalls() int                       { return s.firewalls }
func (s *TableState) MaxFirewalls() int                    { return s.maxFirewalls }
func (s *TableState) Databases() [NumDatabases]bool        { return s.databases }
func (s *TableState) Webservices() [NumWebservices]bool    { return s.webservices }
func (s *TableState) Draw() []PileCard                     { return slices.Clone(s.draw) }
func (s *TableState) Breach() []PileCard                   { return slices.Clone(s.breach) }
func (s *TableState) Discard() []PileCard                  { return slices.Clone(s.discard) }
func (s *TableState) Round() int                           { return s.round }
func (s *TableState) Facing() catalog.CardID               { return s.facing }
func (s *TableState) FacingOperator() OperatorID           { return s.facingOperator }
func (s *TableState) ActiveOperator() OperatorID           { return s.active }
func (s *TableState) ChoiceState() ChoiceState             { return s.choice }
func (s *TableState) Outcome() Outcome                     { return s.outcome }
func (s *TableState) OutcomeReason() string                { return s.reason }
func (s *TableState) OperatorCount() int                   { return len(s.operators) }
func (s *TableState) Operator(id OperatorID) OperatorState { return s.operators[id].clone() }

func (s *TableState) isFacing() bool { return !s.facing.IsNone() }

func (s *TableState) validOperator(id OperatorID) bool {
	return id >= 0 && int(id) < len(s.operators)
}

// Clone returns a deep copy.
func (s *TableState) Clone() *TableState {
	c := *s
	c.draw = slices.Clone(s.draw)
	c.breach = slices.Clone(s.breach)
	c.discard = slices.Clone(s.discard)
	c.operators = make([]OperatorState, len(s.operators))
	for i, o := range s.operators {
		c.operators[i] = o.clone()
	}
	return &c
}

type operatorStateJSON struct {
	Type         catalog.OperatorType                `json:"type"`
	Secure       [catalog.SecureSlots]catalog.CardID `json:"secure"`
	Backtrace    []catalog.CardID                    `json:"backtrace"`
	Burnout      bool                                `json:"burnout"`
	Desperation  bool                                `json:"desperation"`
	Idle         bool                                `json:"idle"`
	Skills       []catalog.OperatorType              `json:"skills"`
	Restrictions []catalog.Capability                `json:"restrictions,omitempty"`
	SkillsUsed   []catalog.OperatorType              `json:"skills_used,omitempty"`
}

type tableStateJSON struct {
	Firewalls      int                  `json:"firewalls"`
	MaxFirewalls   int                  `json:"max_firewalls"`
	Databases      [NumDatabases]bool   `json:"databases"`
	Webservices    [NumWebservices]bool `json:"webservices"`
	Draw           []PileCard           `json:"draw"`
	Breach         []PileCard           `json:"breach"`
	Discard        []PileCard           `json:"discard"`
	Round          int                  `json:"round"`
	Facing         catalog.CardID       `json:"facing"`
	FacingOperator OperatorID           `json:"facing_operator"`
	FacingForced   bool                 `json:"facing_forced"`
	Active         OperatorID           `json:"active"`
	Operators      []operatorStateJSON  `json:"operators"`
	Choice         ChoiceState          `json:"choice"`
	FlowUses       int                  `json:"flow_uses"`
	LastFlow       catalog.OperatorType `json:"last_flow,omitempty"`
	Outcome        Outcome              `json:"outcome,omitempty"`
	Reason         string               `json:"reason,omitempty"`
}

func (s *TableState) MarshalJSON() ([]byte, error) {
	raw := tableStateJSON{
		Firewalls:      s.firewalls,
		MaxFirewalls:   s.maxFirewalls,
		Databases:      s.databases,
		Webservices:    s.webservices,
		Draw:           s.draw,
		Breach:         s.breach,
		Discard:        s.discard,
		Round:          s.round,
		Facing:         s.facing,
		FacingOperator: s.facingOperator,
		FacingForced:   s.facingForced,
		Active:         s.active,
		Choice:         s.choice,
		FlowUses:       s.flowUses,
		LastFlow:       s.lastFlow,
		Outcome:        s.outcome,
		Reason:         s.reason,
	}
	for _, o := range s.operators {
		raw.Operators = append(raw.Operators, operatorStateJSON{
			Type:         o.kind,
			Secure:       o.secure,
			Backtrace:    o.backtrace,
			Burnout:      o.burnout,
			Desperation:  o.desperation,
			Idle:         o.idle,
			Skills:       o.skills,
			Restrictions: o.restrictions,
			SkillsUsed:   o.skillsUsed,
		})
	}
	return json.Marshal(raw)
}

// UnmarshalJSON restores a saved state and rejects it if it breaks any table
// invariant.
func (s *TableState) UnmarshalJSON(data []byte) error {
	var raw tableStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode table state: %w", err)
	}
	restored := TableState{
		firewalls:      raw.Firewalls,
		maxFirewalls:   raw.MaxFirewalls,
		databases:      raw.Databases,
		webservices:    raw.Webservices,
		draw:           raw.Draw,
		breach:         raw.Breach,
		discard:        raw.Discard,
		round:          raw.Round,
		facing:         raw.Facing,
		facingOperator: raw.FacingOperator,
		facingForced:   raw.FacingForced,
		active:         raw.Active,
		choice:         raw.Choice,
		flowUses:       raw.FlowUses,
		lastFlow:       raw.LastFlow,
		outcome:        raw.Outcome,
		reason:         raw.Reason,
	}
	for _, o := range raw.Operators {
		if !o.Type.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownOperator, o.Type)
		}
		restored.operators = append(restored.operators, OperatorState{
			kind:         o.Type,
			secure:       o.Secure,
			backtrace:    o.Backtrace,
			burnout:      o.Burnout,
			desperation:  o.Desperation,
			idle:         o.Idle,
			skills:       o.Skills,
			restrictions: o.Restrictions,
			skillsUsed:   o.SkillsUsed,
		})
	}
	if err := restored.CheckInvariants(); err != nil {
		return fmt.Errorf("restore table state: %w", err)
	}
	*s = restored
	return nil
}
