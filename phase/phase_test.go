package phase

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/domino14/guardtowers/board"
)

func classifyFEN(t *testing.T, fen string) Analysis {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return Classify(pos)
}

func TestClassify(t *testing.T) {
	is := is.New(t)
	type testcase struct {
		name   string
		fen    string
		phase  Phase
		budget time.Duration
	}
	for _, tc := range []testcase{
		{"start", board.StartingFEN, Opening, 200 * time.Millisecond},
		{"invaded-opening", "r1r11RG1r1r1/2r1b1r12/3r13/7/7/2b11b12/b1b11BG1b1b1 r", OpeningCritical, 400 * time.Millisecond},
		{"behind-midgame", "3RG3/r16/6r1/b1b1b14/7/b15b1/3BG3 r", MidgameCritical, 500 * time.Millisecond},
		{"ahead-midgame", "3RG3/r16/6r1/b1b1b14/7/b15b1/3BG3 b", Midgame, 300 * time.Millisecond},
		{"endgame-stays-endgame", "3RG3/r1r15/b16/7/7/b16/3BG3 r", Endgame, 200 * time.Millisecond},
		{"low-material", "3RG3/7/7/7/7/b1b15/3BG3 r", Critical, 500 * time.Millisecond},
	} {
		pos, err := board.ParseFEN(tc.fen)
		is.NoErr(err)
		p, budget := Allocate(pos)
		if p != tc.phase || budget != tc.budget {
			t.Errorf("%s: got %v/%v, expected %v/%v", tc.name, p, budget, tc.phase, tc.budget)
		}
	}
}

func TestClassifyCounts(t *testing.T) {
	is := is.New(t)
	// Red has its guardian and two towers, blue has its guardian and five.
	a := classifyFEN(t, "3RG3/r16/6r1/b1b1b14/7/b15b1/3BG3 r")
	is.Equal(a.TotalMaterial, 9)
	is.Equal(a.MyMaterial, 3)
	is.Equal(a.Differential, -3)
	is.Equal(a.Invasion, 0)
	is.Equal(a.Criticality, 2)
	is.Equal(a.Phase, MidgameCritical)
	is.Equal(Budget(a.Phase), 500*time.Millisecond)
}

func TestInvasionCountsEnemyInMyHomeRows(t *testing.T) {
	is := is.New(t)
	// Three blue towers in red's home rows.
	a := classifyFEN(t, "b1b11RG3/b16/7/7/r1r1r14/7/3BG3 r")
	is.Equal(a.Invasion, 3)
	is.Equal(a.Criticality, 2)
	is.Equal(a.Phase, MidgameCritical)
}

func TestUnknownPhaseBudget(t *testing.T) {
	is := is.New(t)
	is.Equal(Budget(Phase("mystery")), DefaultBudget)
	is.Equal(Budget(EndgameCritical), 200*time.Millisecond)
}
