package board

// Color is a side. NoColor is used for empty squares.
type Color uint8

const (
	NoColor Color = iota
	Red
	Blue
)

func (c Color) Opponent() Color {
	switch c {
	case Red:
		return Blue
	case Blue:
		return Red
	}
	return NoColor
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	}
	return "none"
}

// Tag is the single-letter side tag used in FEN strings.
func (c Color) Tag() string {
	switch c {
	case Red:
		return "r"
	case Blue:
		return "b"
	}
	return "-"
}

// ColorFromTag is the inverse of Tag.
func ColorFromTag(tag string) Color {
	switch tag {
	case "r":
		return Red
	case "b":
		return Blue
	}
	return NoColor
}

type Kind uint8

const (
	Empty Kind = iota
	Tower
	Guardian
)

// A Piece is whatever sits on a square. Guardians always have height 1.
type Piece struct {
	Color  Color
	Kind   Kind
	Height uint8
}

var EmptyPiece = Piece{}

func NewTower(c Color, height int) Piece {
	return Piece{Color: c, Kind: Tower, Height: uint8(height)}
}

func NewGuardian(c Color) Piece {
	return Piece{Color: c, Kind: Guardian, Height: 1}
}

func (p Piece) IsEmpty() bool {
	return p.Kind == Empty
}

// fenString is the piece's representation in a FEN row.
func (p Piece) fenString() string {
	switch p.Kind {
	case Guardian:
		if p.Color == Red {
			return "RG"
		}
		return "BG"
	case Tower:
		return p.Color.Tag() + string(rune('0'+p.Height))
	}
	return ""
}

// displayString is two characters wide for the ASCII board.
func (p Piece) displayString() string {
	switch p.Kind {
	case Guardian:
		if p.Color == Red {
			return "RG"
		}
		return "BG"
	case Tower:
		return p.Color.Tag() + string(rune('0'+p.Height))
	}
	return " ."
}
