package engine

import "github.com/DoyleJ11/rrt-logic/internal/catalog"

// maxDealtValue: lieutenants (5) and bosses (6) stay out of the draw pile.
const maxDealtValue = 4

// Shuffler is the only source of randomness in a game. *math/rand/v2.Rand
// satisfies it; a fixed seed deals the same draw pile every time.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Setup returns a table ready for the first operator's turn.
func Setup(cfg GameConfig, src Shuffler) *TableState {
	n := cfg.OperatorCount()
	firewalls := n + cfg.Difficulty().FirewallBonus()

	s := &TableState{
		firewalls:    firewalls,
		maxFirewalls: firewalls,
		draw:         deal(n*cfg.Difficulty().DrawMultiplier(), src),
		breach:       []PileCard{},
		discard:      []PileCard{},
		round:        0,
		facing:       catalog.NoCard,
		active:       0,
		choice:       ChoiceState{Kind: StateChooseAction, Operator: 0},
	}
	for i := range s.databases {
		s.databases[i] = true
	}
	for i := range s.webservices {
		s.webservices[i] = true
	}
	for _, op := range cfg.operators {
		s.operators = append(s.operators, newOperatorState(op))
	}
	return s
}

// deal samples count hackers without replacement from the dealable pool, all
// face down.
func deal(count int, src Shuffler) []PileCard {
	var pool []catalog.CardID
	for _, id := range catalog.Cards() {
		if catalog.CardOf(id).Value <= maxDealtValue {
			pool = append(pool, id)
		}
	}
	src.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if count > len(pool) {
		count = len(pool)
	}

	pile := make([]PileCard, count)
	for i := range pile {
		pile[i] = PileCard{ID: pool[i]}
	}
	return pile
}
