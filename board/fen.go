package board

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN returns a Position from a FEN string such as
//
//	r1r11RG1r1r1/2r11r12/3r13/7/3b13/2b11b12/b1b11BG1b1b1 r
//
// Rows go from the top of the board (row 7) to the bottom (row 1).
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: must have exactly 2 space-separated fields", ErrInvalidFEN)
	}
	side := ColorFromTag(fields[1])
	if side == NoColor {
		return nil, fmt.Errorf("%w: side to move must be r or b, got %q", ErrInvalidFEN, fields[1])
	}
	rows := strings.Split(fields[0], "/")
	if len(rows) != Dim {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidFEN, Dim, len(rows))
	}
	p := NewEmptyPosition(side)
	guardians := map[Color]int{}
	for y, row := range rows {
		pieces, err := rowToPieces(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidFEN, Dim-y, err)
		}
		for x, pc := range pieces {
			if pc.Kind == Guardian {
				guardians[pc.Color]++
			}
			p.squares[NewSquare(x, y)] = pc
		}
	}
	for c, n := range guardians {
		if n > 1 {
			return nil, fmt.Errorf("%w: %s has %d guardians", ErrInvalidFEN, c, n)
		}
	}
	return p, nil
}

// rowToPieces "decompresses" a single FEN row. Empty runs are a single
// digit; a tower is a color letter followed by exactly one height digit,
// so "r11" is a height-1 tower followed by one empty square.
func rowToPieces(row string) ([]Piece, error) {
	pieces := make([]Piece, 0, Dim)
	for i := 0; i < len(row); {
		ch := row[i]
		switch {
		case ch == 'R' || ch == 'B':
			if i+1 >= len(row) || row[i+1] != 'G' {
				return nil, fmt.Errorf("unknown token at %d", i)
			}
			c := Red
			if ch == 'B' {
				c = Blue
			}
			pieces = append(pieces, NewGuardian(c))
			i += 2
		case ch == 'r' || ch == 'b':
			if i+1 >= len(row) || row[i+1] < '1' || row[i+1] > '0'+MaxHeight {
				return nil, fmt.Errorf("tower at %d needs a height from 1 to %d", i, MaxHeight)
			}
			pieces = append(pieces, NewTower(ColorFromTag(string(ch)), int(row[i+1]-'0')))
			i += 2
		case ch >= '1' && ch <= '0'+Dim:
			for n := 0; n < int(ch-'0'); n++ {
				pieces = append(pieces, EmptyPiece)
			}
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", ch)
		}
		if len(pieces) > Dim {
			return nil, fmt.Errorf("row is wider than %d squares", Dim)
		}
	}
	if len(pieces) != Dim {
		return nil, fmt.Errorf("row has %d squares, expected %d", len(pieces), Dim)
	}
	return pieces, nil
}

// Serialize returns the canonical FEN for this board with the given side
// to move. Equal positions always serialize identically, so the result
// is usable as a cache key.
func (p *Position) Serialize(side Color) string {
	var sb strings.Builder
	sb.Grow(64)
	for y := 0; y < Dim; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		empties := 0
		for x := 0; x < Dim; x++ {
			pc := p.squares[NewSquare(x, y)]
			if pc.Kind == Empty {
				empties++
				continue
			}
			if empties > 0 {
				sb.WriteByte(byte('0' + empties))
				empties = 0
			}
			sb.WriteString(pc.fenString())
		}
		if empties > 0 {
			sb.WriteByte(byte('0' + empties))
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(side.Tag())
	return sb.String()
}

// FEN serializes the position with its own side to move.
func (p *Position) FEN() string {
	return p.Serialize(p.sideToMove)
}

func (p *Position) String() string {
	return p.FEN()
}
