package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/rrt-logic/internal/catalog"
)

var ErrNoOperators = errors.New("no operators")
var ErrDuplicateOperator = errors.New("duplicate operator")
var ErrUnknownOperator = errors.New("unknown operator")
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// DuplicateOperatorError reports the first operator type listed twice.
type DuplicateOperatorError struct {
	Type catalog.OperatorType
}

func (e *DuplicateOperatorError) Error() string {
	return fmt.Sprintf("duplicate operator %q", e.Type)
}

func (e *DuplicateOperatorError) Is(target error) bool { return target == ErrDuplicateOperator }

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
	DifficultyHeroic Difficulty = "heroic"
)

type difficultyMod struct {
	firewallBonus  int
	drawMultiplier int
}

var difficultyMods = map[Difficulty]difficultyMod{
	DifficultyEasy:   {firewallBonus: 3, drawMultiplier: 6},
	DifficultyNormal: {firewallBonus: 2, drawMultiplier: 7},
	DifficultyHard:   {firewallBonus: 1, drawMultiplier: 7},
	DifficultyHeroic: {firewallBonus: 0, drawMultiplier: 7},
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyMods[d]
	return ok
}

// FirewallBonus is added to the operator count to get the starting firewalls.
func (d Difficulty) FirewallBonus() int { return difficultyMods[d].firewallBonus }

// DrawMultiplier is the number of hackers dealt per operator.
func (d Difficulty) DrawMultiplier() int { return difficultyMods[d].drawMultiplier }

// GameConfig is fixed for a whole game. Roster order is clockwise turn order.
type GameConfig struct {
	difficulty Difficulty
	operators  []catalog.OperatorType
}

// NewGameConfig validates the roster: at least one operator, all known, none
// repeated.
func NewGameConfig(difficulty Difficulty, operators []catalog.OperatorType) (GameConfig, error) {
	if !difficulty.Valid() {
		return GameConfig{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, difficulty)
	}
	if len(operators) == 0 {
		return GameConfig{}, ErrNoOperators
	}

	seen := make(map[catalog.OperatorType]bool, len(operators))
	for _, op := range operators {
		if !op.Valid() {
			return GameConfig{}, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
		}
		if seen[op] {
			return GameConfig{}, &DuplicateOperatorError{Type: op}
		}
		seen[op] = true
	}

	return GameConfig{
		difficulty: difficulty,
		operators:  append([]catalog.OperatorType(nil), operators...),
	}, nil
}

func (c GameConfig) Difficulty() Difficulty { return c.difficulty }

// Operators returns a copy of the roster.
func (c GameConfig) Operators() []catalog.OperatorType {
	return append([]catalog.OperatorType(nil), c.operators...)
}

func (c GameConfig) OperatorCount() int { return len(c.operators) }

type gameConfigJSON struct {
	Difficulty Difficulty             `json:"difficulty"`
	Operators  []catalog.OperatorType `json:"operators"`
}

func (c GameConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameConfigJSON{Difficulty: c.difficulty, Operators: c.operators})
}

// UnmarshalJSON runs the same validation as NewGameConfig.
func (c *GameConfig) UnmarshalJSON(data []byte) error {
	var raw gameConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode game config: %w", err)
	}
	cfg, err := NewGameConfig(raw.Difficulty, raw.Operators)
	if err != nil {
		return err
	}
	*c = cfg
	return nil
}
