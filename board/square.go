package board

import (
	"errors"
	"fmt"
)

const (
	// Dim is the width and height of the board.
	Dim        = 7
	NumSquares = Dim * Dim
	// MaxHeight is the tallest a tower can get.
	MaxHeight = 7
)

// A Square is an index into the board, in reading order: the top-left
// square (A7) is 0 and the bottom-right square (G1) is 48.
type Square int8

const NoSquare Square = -1

var ErrInvalidSquare = errors.New("invalid square")

// NewSquare returns the square at column x and serialized row y (y = 0 is
// the top row). It returns NoSquare if the coordinates are off the board.
func NewSquare(x, y int) Square {
	if x < 0 || x >= Dim || y < 0 || y >= Dim {
		return NoSquare
	}
	return Square(y*Dim + x)
}

func (s Square) X() int {
	return int(s) % Dim
}

func (s Square) Y() int {
	return int(s) / Dim
}

func (s Square) Valid() bool {
	return s >= 0 && int(s) < NumSquares
}

// Row is the user-visible row number; rows are numbered from the bottom.
func (s Square) Row() int {
	return Dim - s.Y()
}

// String returns the square in user-visible notation, e.g. D7.
func (s Square) String() string {
	if !s.Valid() {
		return "??"
	}
	return fmt.Sprintf("%c%d", 'A'+s.X(), s.Row())
}

// SquareFromString parses user-visible notation such as "D7" or "d7".
func SquareFromString(str string) (Square, error) {
	if len(str) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, str)
	}
	col := str[0]
	if col >= 'a' && col <= 'z' {
		col -= 'a' - 'A'
	}
	x := int(col) - 'A'
	row := int(str[1]) - '0'
	sq := NewSquare(x, Dim-row)
	if sq == NoSquare || row < 1 || row > Dim {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, str)
	}
	return sq, nil
}

// Manhattan returns the orthogonal distance between two squares.
func Manhattan(a, b Square) int {
	return abs(a.X()-b.X()) + abs(a.Y()-b.Y())
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Direction offsets, in the order moves are generated.
var Directions = [4][2]int{
	{0, -1}, // up
	{0, 1},  // down
	{-1, 0}, // left
	{1, 0},  // right
}
