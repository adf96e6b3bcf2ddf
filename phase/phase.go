// Package phase classifies how far along and how dangerous a position is,
// and sizes the search time budget from that.
package phase

import (
	"time"

	"github.com/samber/lo"

	"github.com/domino14/guardtowers/board"
)

type Phase string

const (
	Opening         Phase = "opening"
	Midgame         Phase = "midgame"
	Endgame         Phase = "endgame"
	OpeningCritical Phase = "opening_critical"
	MidgameCritical Phase = "midgame_critical"
	Critical        Phase = "critical"
	EndgameCritical Phase = "endgame_critical"
)

// DefaultBudget applies to any phase missing from the table.
const DefaultBudget = 200 * time.Millisecond

var budgets = map[Phase]time.Duration{
	Opening:         200 * time.Millisecond,
	Midgame:         300 * time.Millisecond,
	OpeningCritical: 400 * time.Millisecond,
	MidgameCritical: 500 * time.Millisecond,
	Critical:        500 * time.Millisecond,
	Endgame:         200 * time.Millisecond,
	EndgameCritical: 200 * time.Millisecond,
}

// Analysis is everything the classifier looked at, from the side to move's
// point of view.
type Analysis struct {
	Phase         Phase
	TotalMaterial int
	MyMaterial    int
	EnemyMaterial int
	Differential  int
	Invasion      int
	Criticality   int
}

// Classify looks at material and home-row invasion for the side to move.
func Classify(pos *board.Position) Analysis {
	me := pos.SideToMove()
	opp := me.Opponent()

	a := Analysis{
		MyMaterial:    pos.Material(me),
		EnemyMaterial: pos.Material(opp),
	}
	a.TotalMaterial = a.MyMaterial + a.EnemyMaterial
	a.Differential = a.MyMaterial - a.EnemyMaterial
	a.Invasion = lo.CountBy(pos.Squares(opp), func(sq board.Square) bool {
		return board.InHomeRows(me, sq)
	})

	var base Phase
	switch {
	case a.TotalMaterial >= 12:
		base = Opening
	case a.TotalMaterial >= 7:
		base = Midgame
	default:
		base = Endgame
	}

	switch {
	case a.Differential <= -3:
		a.Criticality += 2
	case a.Differential <= -1:
		a.Criticality++
	}
	switch {
	case a.Invasion >= 3:
		a.Criticality += 2
	case a.Invasion >= 1:
		a.Criticality++
	}
	if a.MyMaterial <= 2 || a.EnemyMaterial <= 2 {
		a.Criticality += 3
	}

	switch {
	case a.Criticality >= 3:
		a.Phase = Critical
	case a.Criticality >= 1 && base != Endgame:
		a.Phase = base + "_critical"
	default:
		a.Phase = base
	}
	return a
}

// Budget is the search time for a phase.
func Budget(p Phase) time.Duration {
	if b, ok := budgets[p]; ok {
		return b
	}
	return DefaultBudget
}

// Allocate classifies pos and returns its phase and time budget.
func Allocate(pos *board.Position) (Phase, time.Duration) {
	a := Classify(pos)
	return a.Phase, Budget(a.Phase)
}
