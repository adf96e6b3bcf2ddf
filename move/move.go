package move

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/domino14/guardtowers/board"
)

var ErrBadMoveString = errors.New("bad move string")

// Move is a single ply: Height pieces leave From and land on To. For a
// guardian move Height is always 1.
type Move struct {
	From   board.Square
	To     board.Square
	Height int
}

// NoMove is returned when the side to move has nothing to play.
var NoMove = Move{From: board.NoSquare, To: board.NoSquare}

var reMove *regexp.Regexp

func init() {
	reMove = regexp.MustCompile(`^(?P<from>[A-Ga-g][1-7])-(?P<to>[A-Ga-g][1-7])-(?P<height>[1-7])$`)
}

func New(from, to board.Square, height int) Move {
	return Move{From: from, To: to, Height: height}
}

func (m Move) IsNoMove() bool {
	return m == NoMove
}

func (m Move) Equals(o Move) bool {
	return m == o
}

// ShortDescription is the wire format used by the game server, e.g.
// "D7-D6-1".
func (m Move) ShortDescription() string {
	if m.IsNoMove() {
		return "(none)"
	}
	return fmt.Sprintf("%s-%s-%d", m.From, m.To, m.Height)
}

func (m Move) String() string {
	return m.ShortDescription()
}

// FromString parses the ShortDescription notation.
func FromString(s string) (Move, error) {
	match := reMove.FindStringSubmatch(s)
	if match == nil {
		return NoMove, fmt.Errorf("%w: %q", ErrBadMoveString, s)
	}
	from, err := board.SquareFromString(match[reMove.SubexpIndex("from")])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrBadMoveString, err)
	}
	to, err := board.SquareFromString(match[reMove.SubexpIndex("to")])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrBadMoveString, err)
	}
	h, err := strconv.Atoi(match[reMove.SubexpIndex("height")])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrBadMoveString, err)
	}
	return New(from, to, h), nil
}

// ValidString reports whether s is well formed. It does not check the move
// against any position.
func ValidString(s string) bool {
	return reMove.MatchString(s)
}
