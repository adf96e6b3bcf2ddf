package board

import (
	"errors"
	"fmt"
)

var ErrIllegalMove = errors.New("illegal move")

// CanLand reports whether a stack of height n belonging to c may finish a
// move on sq. It does not look at the path.
func (p *Position) CanLand(c Color, kind Kind, n int, sq Square) bool {
	dest := p.squares[sq]
	switch {
	case dest.Kind == Empty:
		return true
	case dest.Color == c:
		// Own guardians are never stacked on, and the guardian never
		// lands on a friendly tower.
		return kind == Tower && dest.Kind == Tower && int(dest.Height)+n <= MaxHeight
	case kind == Guardian:
		return true
	case dest.Kind == Guardian:
		return true
	}
	// Tower onto enemy tower: capture only if we are at least as tall.
	return n >= int(dest.Height)
}

// PathClear reports whether every square strictly between from and to is
// empty. from and to must share a row or a column.
func (p *Position) PathClear(from, to Square) bool {
	dx, dy := sign(to.X()-from.X()), sign(to.Y()-from.Y())
	x, y := from.X()+dx, from.Y()+dy
	for NewSquare(x, y) != to {
		if p.squares[NewSquare(x, y)].Kind != Empty {
			return false
		}
		x += dx
		y += dy
	}
	return true
}

// Validate checks a move for the side that owns the origin square.
func (p *Position) Validate(from, to Square, n int) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: square off the board", ErrIllegalMove)
	}
	pc := p.squares[from]
	if pc.Kind == Empty {
		return fmt.Errorf("%w: no piece on %s", ErrIllegalMove, from)
	}
	if n < 1 || n > int(pc.Height) {
		return fmt.Errorf("%w: cannot move %d from a stack of %d on %s", ErrIllegalMove, n, pc.Height, from)
	}
	if from.X() != to.X() && from.Y() != to.Y() {
		return fmt.Errorf("%w: %s-%s is not orthogonal", ErrIllegalMove, from, to)
	}
	if Manhattan(from, to) != n {
		return fmt.Errorf("%w: stack of %d must move exactly %d squares", ErrIllegalMove, n, n)
	}
	if !p.PathClear(from, to) {
		return fmt.Errorf("%w: path from %s to %s is blocked", ErrIllegalMove, from, to)
	}
	if !p.CanLand(pc.Color, pc.Kind, n, to) {
		return fmt.Errorf("%w: cannot land on %s", ErrIllegalMove, to)
	}
	return nil
}

// Play moves n pieces from one square to another. The move is validated
// first; on error the position is left untouched.
func (p *Position) Play(from, to Square, n int) error {
	if err := p.Validate(from, to, n); err != nil {
		return err
	}
	p.play(from, to, n)
	return nil
}

// play applies an already validated move.
func (p *Position) play(from, to Square, n int) {
	src := p.squares[from]
	dest := p.squares[to]
	if src.Kind == Guardian {
		p.squares[to] = src
		p.squares[from] = EmptyPiece
		return
	}
	if dest.Kind == Tower && dest.Color == src.Color {
		p.squares[to] = NewTower(src.Color, int(dest.Height)+n)
	} else {
		p.squares[to] = NewTower(src.Color, n)
	}
	if int(src.Height) == n {
		p.squares[from] = EmptyPiece
	} else {
		p.squares[from] = NewTower(src.Color, int(src.Height)-n)
	}
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}
