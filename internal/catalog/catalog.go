// Package catalog holds the fixed game content: operator stats, the 66 hacker
// cards and the penalty effects they carry. Nothing in here is ever mutated.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
)

type OperatorType string

const (
	// Stone skill: discard a faced hacker whose value matches one already in
	// the backtrace list. Flow: move an assist token between any two
	// operators; desperate, also add a firewall.
	Stone OperatorType = "stone"
	// Sniper skill: ignore penalties of even valued hackers. Flow: discard the
	// top 2 hackers of the draw pile (3 when desperate).
	Sniper OperatorType = "sniper"
	// Rogue skill: operate a second time in a turn. Flow: discard the last
	// card of any backtrace list; desperate, twice.
	Rogue OperatorType = "rogue"
	// Biggs skill: pass an odd valued hacker to a neighbor, who must face it.
	// Flow: hand a backtrace card from one operator to another, who then
	// faces it; desperate, twice.
	Biggs OperatorType = "biggs"
	// Rich skill: put the faced hacker under the draw pile and face the next
	// one. Flow: reveal and reorder the top 2 hackers (3 when desperate).
	Rich OperatorType = "rich"
	// Charm skill: pass an even valued hacker to a neighbor, who must face it.
	// Flow: add a firewall; desperate, also heal one burnout.
	Charm OperatorType = "charm"
	// Admin skill: ignore penalties of odd valued hackers. Flow: discard the
	// top 2 hackers of the breach pile (3 when desperate).
	Admin OperatorType = "admin"
)

// Stats are the backtrace thresholds of an operator. Once the backtrace list
// grows past NormalThreshold the operator is desperate; a list that would grow
// past DesperationThreshold loses the game.
type Stats struct {
	Type                 OperatorType
	NormalThreshold      int
	DesperationThreshold int
}

var operatorStats = map[OperatorType]Stats{
	Stone:  {Type: Stone, NormalThreshold: 9, DesperationThreshold: 12},
	Sniper: {Type: Sniper, NormalThreshold: 9, DesperationThreshold: 12},
	Rogue:  {Type: Rogue, NormalThreshold: 10, DesperationThreshold: 13},
	Biggs:  {Type: Biggs, NormalThreshold: 8, DesperationThreshold: 11},
	Rich:   {Type: Rich, NormalThreshold: 10, DesperationThreshold: 13},
	Charm:  {Type: Charm, NormalThreshold: 9, DesperationThreshold: 11},
	Admin:  {Type: Admin, NormalThreshold: 9, DesperationThreshold: 12},
}

// OperatorTypes returns the 7 operators in catalog order.
func OperatorTypes() []OperatorType {
	return []OperatorType{Stone, Sniper, Rogue, Biggs, Rich, Charm, Admin}
}

func (t OperatorType) Valid() bool {
	_, ok := operatorStats[t]
	return ok
}

// StatsOf panics for a type outside the catalog; validate with Valid first.
func StatsOf(t OperatorType) Stats {
	s, ok := operatorStats[t]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown operator type %q", t))
	}
	return s
}

// Symbol is printed on every hacker. Operators must secure one hacker of each
// symbol except NoSymbol by the end of a round.
type Symbol int

const (
	NoSymbol Symbol = iota
	Keyboard
	Webservice
	Database
)

// SecureSlots is the number of secure slots on an operator board.
const SecureSlots = 3

func Symbols() [4]Symbol {
	return [4]Symbol{NoSymbol, Keyboard, Webservice, Database}
}

// Slot returns the secure slot a symbol is kept in.
func (s Symbol) Slot() (int, bool) {
	switch s {
	case Keyboard:
		return 0, true
	case Webservice:
		return 1, true
	case Database:
		return 2, true
	default:
		return 0, false
	}
}

var symbolNames = map[Symbol]string{
	NoSymbol:   "none",
	Keyboard:   "keyboard",
	Webservice: "webservice",
	Database:   "database",
}

func (s Symbol) String() string {
	if n, ok := symbolNames[s]; ok {
		return n
	}
	return "unknown"
}

// Card is the definition of one hacker.
type Card struct {
	Value   int
	Virus   bool
	Symbol  Symbol
	Penalty Penalty
}

// CardCount is the number of distinct hackers in the catalog.
const CardCount = 66

var ErrInvalidCardID = errors.New("invalid card id")

// CardID identifies a hacker. Values only come from Cards or from decoding a
// previously encoded id, so a CardID always indexes the table. The zero value
// is NoCard.
type CardID struct {
	n uint8 // index + 1
}

// NoCard marks an empty slot. It must never be passed to CardOf.
var NoCard = CardID{}

func (id CardID) IsNone() bool { return id.n == 0 }

// Index is the position in the catalog, or -1 for NoCard.
func (id CardID) Index() int { return int(id.n) - 1 }

func (id CardID) String() string {
	if id.IsNone() {
		return "none"
	}
	return fmt.Sprintf("hacker#%d", id.Index())
}

func (id CardID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(id.n))
}

func (id *CardID) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode card id: %w", err)
	}
	if n < 0 || n > CardCount {
		return fmt.Errorf("%w: %d", ErrInvalidCardID, n)
	}
	id.n = uint8(n)
	return nil
}

// Cards enumerates every hacker id in catalog order.
func Cards() []CardID {
	ids := make([]CardID, CardCount)
	for i := range ids {
		ids[i] = CardID{n: uint8(i + 1)}
	}
	return ids
}

// CardOf panics when given NoCard; callers check IsNone first.
func CardOf(id CardID) Card {
	if id.IsNone() {
		panic("catalog: CardOf called with NoCard")
	}
	return hackers[id.Index()]
}
