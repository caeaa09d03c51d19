package types

// Snapshot is the table as every client sees it after a settled choice.
type Snapshot struct {
	Code    string   `json:"code"`
	Version int      `json:"version"`
	Table   Table    `json:"table"`
	Choices []Choice `json:"choices"`
	// Events is the cascade that led here; empty on join.
	Events []Event `json:"events,omitempty"`
}

// Table uses null for face-down pile cards and empty slots.
type Table struct {
	Firewalls      int         `json:"firewalls"`
	MaxFirewalls   int         `json:"max_firewalls"`
	Databases      []bool      `json:"databases"`
	Webservices    []bool      `json:"webservices"`
	Draw           []*Card     `json:"draw"`
	Breach         []*Card     `json:"breach"`
	Discard        []*Card     `json:"discard"`
	Round          int         `json:"round"`
	Facing         *Card       `json:"facing"`
	FacingOperator int         `json:"facing_operator"`
	Active         int         `json:"active"`
	Operators      []Operator  `json:"operators"`
	Choice         ChoiceState `json:"choice"`
	Outcome        string      `json:"outcome,omitempty"`
	Reason         string      `json:"reason,omitempty"`
}

type ChoiceState struct {
	Kind     string `json:"kind"`
	Operator int    `json:"operator"`
}

type Card struct {
	ID      int    `json:"id"`
	Value   int    `json:"value"`
	Virus   bool   `json:"virus"`
	Symbol  string `json:"symbol"`
	Penalty string `json:"penalty"`
}

type Operator struct {
	Type         string   `json:"type"`
	Secure       []*Card  `json:"secure"`
	Backtrace    []Card   `json:"backtrace"`
	Burnout      bool     `json:"burnout"`
	Desperation  bool     `json:"desperation"`
	Idle         bool     `json:"idle"`
	Skills       []string `json:"skills"`
	Restrictions []string `json:"restrictions"`
}

type Event struct {
	Type       string       `json:"type"`
	Operator   int          `json:"operator"`
	Target     int          `json:"target"`
	Delta      int          `json:"delta,omitempty"`
	Index      int          `json:"index,omitempty"`
	Skill      string       `json:"skill,omitempty"`
	Capability string       `json:"capability,omitempty"`
	Forced     bool         `json:"forced,omitempty"`
	Order      []int        `json:"order,omitempty"`
	Next       *ChoiceState `json:"next,omitempty"`
	Outcome    string       `json:"outcome,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}
