package board

import (
	"fmt"
	"strings"
)

var (
	// RedStart and BlueStart are the guardians' starting squares. Each
	// side's guardian wins by reaching the other side's start square.
	RedStart  = NewSquare(3, 0) // D7
	BlueStart = NewSquare(3, Dim-1)
)

// StartingFEN is the standard initial position.
const StartingFEN = "r1r11RG1r1r1/2r11r12/3r13/7/3b13/2b11b12/b1b11BG1b1b1 r"

// Position is a full game state: what is on each square, and who moves
// next. It is a value type; Copy is cheap.
type Position struct {
	squares    [NumSquares]Piece
	sideToMove Color
}

// NewEmptyPosition returns a board with nothing on it.
func NewEmptyPosition(sideToMove Color) *Position {
	return &Position{sideToMove: sideToMove}
}

// Copy returns a deep copy. Changes to the copy never show up in p.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

func (p *Position) SideToMove() Color {
	return p.sideToMove
}

func (p *Position) SetSideToMove(c Color) {
	p.sideToMove = c
}

// Flip hands the move to the other side without changing the board.
func (p *Position) Flip() {
	p.sideToMove = p.sideToMove.Opponent()
}

func (p *Position) At(sq Square) Piece {
	return p.squares[sq]
}

func (p *Position) Set(sq Square, pc Piece) {
	p.squares[sq] = pc
}

func (p *Position) Owner(sq Square) Color {
	return p.squares[sq].Color
}

func (p *Position) KindAt(sq Square) Kind {
	return p.squares[sq].Kind
}

func (p *Position) HeightAt(sq Square) int {
	return int(p.squares[sq].Height)
}

// StartSquare is where c's guardian starts.
func StartSquare(c Color) Square {
	if c == Red {
		return RedStart
	}
	return BlueStart
}

// TargetSquare is the square c's guardian must reach to win.
func TargetSquare(c Color) Square {
	return StartSquare(c.Opponent())
}

// InHomeRows reports whether sq lies in the three rows nearest c's start.
func InHomeRows(c Color, sq Square) bool {
	if c == Red {
		return sq.Y() <= 2
	}
	return sq.Y() >= Dim-3
}

// GuardianSquare finds c's guardian.
func (p *Position) GuardianSquare(c Color) (Square, bool) {
	for i := range p.squares {
		if p.squares[i].Kind == Guardian && p.squares[i].Color == c {
			return Square(i), true
		}
	}
	return NoSquare, false
}

func (p *Position) HasGuardian(c Color) bool {
	_, ok := p.GuardianSquare(c)
	return ok
}

// GuardianDistance is the Manhattan distance from c's guardian to its
// target square, or -1 if c has no guardian left.
func (p *Position) GuardianDistance(c Color) int {
	sq, ok := p.GuardianSquare(c)
	if !ok {
		return -1
	}
	return Manhattan(sq, TargetSquare(c))
}

// Material counts the squares c occupies. A tower counts once no matter
// how tall it is.
func (p *Position) Material(c Color) int {
	n := 0
	for i := range p.squares {
		if p.squares[i].Kind != Empty && p.squares[i].Color == c {
			n++
		}
	}
	return n
}

// Squares returns the squares c occupies, in reading order.
func (p *Position) Squares(c Color) []Square {
	var sqs []Square
	for i := range p.squares {
		if p.squares[i].Kind != Empty && p.squares[i].Color == c {
			sqs = append(sqs, Square(i))
		}
	}
	return sqs
}

// ToDisplayText renders the board for a terminal.
func (p *Position) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for i := 0; i < Dim; i++ {
		sb.WriteString(fmt.Sprintf(" %c ", 'A'+i))
	}
	sb.WriteString("\n   " + strings.Repeat("-", Dim*3) + "\n")
	for y := 0; y < Dim; y++ {
		sb.WriteString(fmt.Sprintf("%2d|", Dim-y))
		for x := 0; x < Dim; x++ {
			sb.WriteString(p.squares[NewSquare(x, y)].displayString() + " ")
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("   " + strings.Repeat("-", Dim*3) + "\n")
	sb.WriteString(fmt.Sprintf("%s to move\n", p.sideToMove))
	return sb.String()
}

// HasWon reports whether c's guardian stands on its target square or the
// opponent's guardian is gone.
func (p *Position) HasWon(c Color) bool {
	return p.GuardianDistance(c) == 0 || !p.HasGuardian(c.Opponent())
}
