// Package evaluation scores positions statically.
package evaluation

import (
	"math"

	"github.com/domino14/guardtowers/board"
)

var center = board.NewSquare(3, 3)

// Evaluator adapts Evaluate to the search's evaluator interface.
type Evaluator struct{}

func (Evaluator) Evaluate(pos *board.Position, params *Params) (int, error) {
	return Evaluate(pos, params), nil
}

// Evaluate scores pos for the side to move. Every feature is computed for
// both sides and subtracted, so flipping the side to move negates the
// score. The result is always strictly inside (-WinScore, WinScore).
func Evaluate(pos *board.Position, params *Params) int {
	if params == nil {
		params = DefaultParams()
	}
	me := pos.SideToMove()
	opp := me.Opponent()

	meWon, oppWon := pos.HasWon(me), pos.HasWon(opp)
	switch {
	case meWon && oppWon:
		return 0
	case meWon:
		return clamp(params.WinBonus)
	case oppWon:
		return clamp(-params.WinBonus)
	}
	return clamp(sideScore(pos, me, params) - sideScore(pos, opp, params))
}

// EvaluateFEN parses s and evaluates it.
func EvaluateFEN(s string, params *Params) (int, error) {
	pos, err := board.ParseFEN(s)
	if err != nil {
		return 0, err
	}
	return Evaluate(pos, params), nil
}

func sideScore(pos *board.Position, c board.Color, params *Params) float64 {
	var pieces, tallHeight, mobility, centerSquares, threats, deep, advanced int
	enemyGuard, enemyGuardOK := pos.GuardianSquare(c.Opponent())

	for _, sq := range pos.Squares(c) {
		pc := pos.At(sq)
		pieces++
		if isCenter(sq) {
			centerSquares++
		}
		if !board.InHomeRows(c, sq) {
			advanced++
		}
		if pc.Kind != board.Tower {
			continue
		}
		h := int(pc.Height)
		if h >= 3 {
			tallHeight += h
		}
		if h <= 3 {
			mobility += h
			if enemyGuardOK && board.Manhattan(sq, enemyGuard) <= h+1 {
				threats++
			}
		}
		if h <= 2 && board.InHomeRows(c.Opponent(), sq) {
			deep++
		}
	}

	score := params.MaterialWeight*float64(pieces) +
		params.TowerHeight*float64(tallHeight) +
		params.CenterControl*float64(centerSquares) +
		params.Mobility*float64(mobility) +
		params.Aggression*float64(threats) +
		params.Positioning*float64(deep) +
		params.Tempo*float64(advanced)

	if g, ok := pos.GuardianSquare(c); ok {
		score -= params.GuardianAdvance * float64(board.Manhattan(g, board.TargetSquare(c)))
		score += params.CenterControl * float64(max(0, 3-board.Manhattan(g, center)))
		if onEdge(g) {
			score -= params.GuardianSafety / 2
		}
	}
	return score
}

func isCenter(sq board.Square) bool {
	return sq.X() >= 2 && sq.X() <= 4 && sq.Y() >= 2 && sq.Y() <= 4
}

func onEdge(sq board.Square) bool {
	return sq.X() == 0 || sq.Y() == 0 || sq.X() == board.Dim-1 || sq.Y() == board.Dim-1
}

func clamp(x float64) int {
	v := math.Round(x)
	if v >= WinScore {
		return WinScore - 1
	}
	if v <= -WinScore {
		return -(WinScore - 1)
	}
	return int(v)
}
