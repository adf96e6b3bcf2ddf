// Package movegen generates and applies moves for a tower position.
package movegen

import (
	"fmt"
	"sort"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/move"
)

// MoveGenerator is what the search needs from a rules engine.
type MoveGenerator interface {
	GenAll(pos *board.Position, c board.Color) []move.Move
	Apply(pos *board.Position, m move.Move) error
}

// Generator is the standard rules engine. It has no state; the zero value
// is ready to use.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) GenAll(pos *board.Position, c board.Color) []move.Move {
	return GenAll(pos, c)
}

func (g *Generator) Apply(pos *board.Position, m move.Move) error {
	return Apply(pos, m)
}

// GenAll returns every legal move for c. The order is deterministic:
// origin squares in reading order, then directions up, down, left, right,
// then stack heights ascending.
func GenAll(pos *board.Position, c board.Color) []move.Move {
	plays := make([]move.Move, 0, 48)
	for _, from := range pos.Squares(c) {
		pc := pos.At(from)
		if pc.Kind == board.Guardian {
			plays = genGuardian(pos, from, plays)
			continue
		}
		plays = genTower(pos, from, pc, plays)
	}
	return plays
}

func genGuardian(pos *board.Position, from board.Square, plays []move.Move) []move.Move {
	for _, d := range board.Directions {
		to := board.NewSquare(from.X()+d[0], from.Y()+d[1])
		if to == board.NoSquare {
			continue
		}
		if pos.CanLand(pos.Owner(from), board.Guardian, 1, to) {
			plays = append(plays, move.New(from, to, 1))
		}
	}
	return plays
}

func genTower(pos *board.Position, from board.Square, pc board.Piece, plays []move.Move) []move.Move {
	for _, d := range board.Directions {
		for n := 1; n <= int(pc.Height); n++ {
			to := board.NewSquare(from.X()+n*d[0], from.Y()+n*d[1])
			if to == board.NoSquare {
				break
			}
			if pos.CanLand(pc.Color, board.Tower, n, to) {
				plays = append(plays, move.New(from, to, n))
			}
			// Anything on this square blocks longer moves.
			if pos.KindAt(to) != board.Empty {
				break
			}
		}
	}
	return plays
}

// Apply plays m for the side to move. It does not flip the side to move.
// Moves that are not legal for the side to move are rejected and leave pos
// untouched.
func Apply(pos *board.Position, m move.Move) error {
	if !m.From.Valid() {
		return fmt.Errorf("%w: %v", board.ErrIllegalMove, m)
	}
	if owner := pos.Owner(m.From); owner != pos.SideToMove() {
		return fmt.Errorf("%w: %v does not move a %s piece", board.ErrIllegalMove, m, pos.SideToMove())
	}
	return pos.Play(m.From, m.To, m.Height)
}

// IsCapture reports whether m lands on an enemy piece.
func IsCapture(pos *board.Position, m move.Move) bool {
	dest := pos.At(m.To)
	return dest.Kind != board.Empty && dest.Color != pos.Owner(m.From)
}

// Threatened returns the squares holding c's pieces that the opponent
// could capture with one move, in reading order.
func Threatened(pos *board.Position, c board.Color) []board.Square {
	seen := map[board.Square]bool{}
	for _, m := range GenAll(pos, c.Opponent()) {
		if pos.Owner(m.To) == c {
			seen[m.To] = true
		}
	}
	sqs := make([]board.Square, 0, len(seen))
	for sq := range seen {
		sqs = append(sqs, sq)
	}
	sort.Slice(sqs, func(i, j int) bool { return sqs[i] < sqs[j] })
	return sqs
}
