package negamax

import (
	"github.com/samber/lo"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/move"
	"github.com/domino14/guardtowers/movegen"
)

// OrderMoves puts guardian moves first, then captures, then everything
// else. Each group keeps the generator's order. It looks only at the
// origin and destination squares of each move.
func OrderMoves(pos *board.Position, moves []move.Move) []move.Move {
	isGuardian := func(m move.Move, _ int) bool {
		return pos.KindAt(m.From) == board.Guardian
	}
	isCapture := func(m move.Move, _ int) bool {
		return movegen.IsCapture(pos, m)
	}
	guardian := lo.Filter(moves, isGuardian)
	rest := lo.Reject(moves, isGuardian)
	captures := lo.Filter(rest, isCapture)
	quiet := lo.Reject(rest, isCapture)

	ordered := make([]move.Move, 0, len(moves))
	ordered = append(ordered, guardian...)
	ordered = append(ordered, captures...)
	return append(ordered, quiet...)
}
