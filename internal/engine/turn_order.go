package engine

// Roster order is clockwise. The left neighbor is the next operator
// clockwise, the right neighbor the previous one; a lone operator is its own
// neighbor on both sides.

func (s *TableState) leftOf(op OperatorID) OperatorID {
	return OperatorID((int(op) + 1) % len(s.operators))
}

func (s *TableState) rightOf(op OperatorID) OperatorID {
	n := len(s.operators)
	return OperatorID((int(op) - 1 + n) % n)
}

// neighbors lists the operators op can pass a hacker to: left first, never
// op itself, no repeats.
func (s *TableState) neighbors(op OperatorID) []OperatorID {
	var out []OperatorID
	for _, n := range []OperatorID{s.leftOf(op), s.rightOf(op)} {
		if n != op && (len(out) == 0 || out[0] != n) {
			out = append(out, n)
		}
	}
	return out
}

// nextActive finds the first operator clockwise after op that is not idle.
// op itself comes last, so a lone active operator keeps the turn.
func (s *TableState) nextActive(op OperatorID) (OperatorID, bool) {
	n := len(s.operators)
	for step := 1; step <= n; step++ {
		next := OperatorID((int(op) + step) % n)
		if !s.operators[next].idle {
			return next, true
		}
	}
	return 0, false
}
