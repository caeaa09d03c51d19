package engine

import (
	"slices"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
)

// View is a read-only copy of the table for observers. Face-down pile cards
// show as catalog.NoCard.
type View struct {
	Firewalls      int                  `json:"firewalls"`
	MaxFirewalls   int                  `json:"max_firewalls"`
	Databases      [NumDatabases]bool   `json:"databases"`
	Webservices    [NumWebservices]bool `json:"webservices"`
	Draw           []catalog.CardID     `json:"draw"`
	Breach         []catalog.CardID     `json:"breach"`
	Discard        []catalog.CardID     `json:"discard"`
	Round          int                  `json:"round"`
	Facing         catalog.CardID       `json:"facing"`
	FacingOperator OperatorID           `json:"facing_operator"`
	Active         OperatorID           `json:"active"`
	Operators      []OperatorView       `json:"operators"`
	Choice         ChoiceState          `json:"choice"`
	Outcome        Outcome              `json:"outcome,omitempty"`
	Reason         string               `json:"reason,omitempty"`
}

type OperatorView struct {
	Type         catalog.OperatorType                `json:"type"`
	Secure       [catalog.SecureSlots]catalog.CardID `json:"secure"`
	Backtrace    []catalog.CardID                    `json:"backtrace"`
	Burnout      bool                                `json:"burnout"`
	Desperation  bool                                `json:"desperation"`
	Idle         bool                                `json:"idle"`
	Skills       []catalog.OperatorType              `json:"skills"`
	Restrictions []catalog.Capability                `json:"restrictions"`
}

func (s *TableState) View() View {
	v := View{
		Firewalls:      s.firewalls,
		MaxFirewalls:   s.maxFirewalls,
		Databases:      s.databases,
		Webservices:    s.webservices,
		Draw:           visible(s.draw),
		Breach:         visible(s.breach),
		Discard:        visible(s.discard),
		Round:          s.round,
		Facing:         s.facing,
		FacingOperator: s.facingOperator,
		Active:         s.active,
		Choice:         s.choice,
		Outcome:        s.outcome,
		Reason:         s.reason,
	}
	for _, o := range s.operators {
		v.Operators = append(v.Operators, OperatorView{
			Type:         o.kind,
			Secure:       o.secure,
			Backtrace:    slices.Clone(o.backtrace),
			Burnout:      o.burnout,
			Desperation:  o.desperation,
			Idle:         o.idle,
			Skills:       slices.Clone(o.skills),
			Restrictions: slices.Clone(o.restrictions),
		})
	}
	return v
}

func visible(pile []PileCard) []catalog.CardID {
	out := make([]catalog.CardID, len(pile))
	for i, c := range pile {
		if c.FaceUp {
			out[i] = c.ID
		}
	}
	return out
}
