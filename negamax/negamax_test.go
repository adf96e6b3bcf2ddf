package negamax

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/evaluation"
	"github.com/domino14/guardtowers/move"
	"github.com/domino14/guardtowers/movegen"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

const ampleTime = time.Minute

func setUpSolver(maxDepth int, nullMove bool) *Solver {
	s := NewSolver(nil, nil)
	s.SetMaxDepth(maxDepth)
	s.SetNullMoveOptim(nullMove)
	s.SetFixedBudget(ampleTime)
	return s
}

func testSession(s *Solver) *session {
	return s.newSession(time.Now().Add(ampleTime), evaluation.DefaultParams())
}

func mustParse(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func isLegal(pos *board.Position, m move.Move) bool {
	for _, legal := range movegen.GenAll(pos, pos.SideToMove()) {
		if legal == m {
			return true
		}
	}
	return false
}

// Symmetry is checked at leaves and terminal nodes only. A deeper search
// can break it through the lossy table, which keys on the hash of the
// serialized position.
func TestZeroSumAtLeaves(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(2, false)
	for _, fen := range []string{
		board.StartingFEN,
		"3RG1r11/3r33/r36/7/b32b33/7/3BG2b1 b",
		"b36/3b12r3/7/7/1r2RG4/7/BG4r11 b",
		"7/6r3/1RG5/3b43/1r25/7/2BG3r1 r",
	} {
		pos := mustParse(t, fen)
		flipped := pos.Copy()
		flipped.Flip()
		a, err := testSession(s).negamax(context.Background(), pos, 0, -Infinity, Infinity)
		is.NoErr(err)
		b, err := testSession(s).negamax(context.Background(), flipped, 0, -Infinity, Infinity)
		is.NoErr(err)
		is.Equal(a, -b)
	}
}

func TestZeroSumTerminal(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(2, false)
	// Red's guardian stands on D1; blue's guardian is gone in the second.
	for _, fen := range []string{"7/7/7/7/7/3BG3/3RG3 r", "3RG3/7/7/7/7/b16/7 b"} {
		pos := mustParse(t, fen)
		flipped := pos.Copy()
		flipped.Flip()
		for depth := 0; depth <= 2; depth++ {
			a, err := testSession(s).negamax(context.Background(), pos, depth, -Infinity, Infinity)
			is.NoErr(err)
			b, err := testSession(s).negamax(context.Background(), flipped, depth, -Infinity, Infinity)
			is.NoErr(err)
			is.Equal(a, -b)
			is.Equal(abs(a), WinScore)
		}
	}
}

func TestStartingPositionDepthOne(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(1, false)
	pos := mustParse(t, board.StartingFEN)
	res, err := s.ChooseBestMove(context.Background(), pos, nil)
	is.NoErr(err)
	is.True(isLegal(pos, res.Move))
	is.Equal(res.ReachedDepth, 1)
	// Every root move is visited once and nothing deeper.
	is.Equal(res.NodesVisited, uint64(len(movegen.GenAll(pos, board.Red))))
	is.Equal(res.NodesVisited, uint64(25))
	is.Equal(res.Move.ShortDescription(), "D7-D6-1")
	is.True(!res.Fallback)
	is.True(res.SessionID != "")
}

func TestTakesGuardianWithTower(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(DefaultMaxDepth, true)
	res, err := s.ChooseBestMoveFEN(context.Background(), "3RG3/7/7/7/7/3r13/3BG3 r", nil)
	is.NoErr(err)
	is.Equal(res.Move.ShortDescription(), "D2-D1-1")
	is.Equal(res.Score, WinScore)
	// The win is proven at depth 1, so deepening stops there.
	is.Equal(res.ReachedDepth, 1)
	is.True(!res.WinShortcut)
}

func TestWinShortcut(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(DefaultMaxDepth, true)
	for fen, expected := range map[string]string{
		// Guardian takes guardian.
		"7/7/7/3RG3/3BG3/7/7 r": "D4-D3-1",
		// Guardian steps onto its target.
		"7/7/7/7/7/3RG3/6BG r": "D2-D1-1",
	} {
		res, err := s.ChooseBestMoveFEN(context.Background(), fen, nil)
		is.NoErr(err)
		is.Equal(res.Move.ShortDescription(), expected)
		is.True(res.WinShortcut)
		is.Equal(res.NodesVisited, uint64(0))
	}
}

func TestNoLegalMoves(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(DefaultMaxDepth, true)
	res, err := s.ChooseBestMoveFEN(context.Background(), "7/7/7/7/7/7/3BG3 r", nil)
	is.NoErr(err)
	is.True(res.Move.IsNoMove())
	is.Equal(res.NodesVisited, uint64(0))
}

func TestBadFENIsRejected(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(DefaultMaxDepth, true)
	_, err := s.ChooseBestMoveFEN(context.Background(), "7/7/7 r", nil)
	is.True(errors.Is(err, board.ErrInvalidFEN))
}

func TestDeterministic(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(3, true)
	pos := mustParse(t, board.StartingFEN)
	first, err := s.ChooseBestMove(context.Background(), pos, nil)
	is.NoErr(err)
	for i := 0; i < 3; i++ {
		again, err := s.ChooseBestMove(context.Background(), pos, nil)
		is.NoErr(err)
		is.Equal(again.Move, first.Move)
		is.Equal(again.Score, first.Score)
		is.Equal(again.NodesVisited, first.NodesVisited)
		// Every call starts from an empty table.
		is.Equal(again.Cache, first.Cache)
		is.True(again.SessionID != first.SessionID)
	}
	// The search never touches the caller's position.
	is.Equal(pos.FEN(), board.StartingFEN)
}

func TestDeadlineRespected(t *testing.T) {
	is := is.New(t)
	s := NewSolver(nil, nil)
	s.SetMaxDepth(12)
	budget := 300 * time.Millisecond
	s.SetFixedBudget(budget)
	pos := mustParse(t, "r5r5r5RG1r5r5/7/7/7/7/7/b5b5b51BG1b5 r")

	tstart := time.Now()
	res, err := s.ChooseBestMove(context.Background(), pos, nil)
	elapsed := time.Since(tstart)
	is.NoErr(err)
	is.True(elapsed < budget+200*time.Millisecond)
	is.True(res.ReachedDepth < 12)
	is.True(isLegal(pos, res.Move))
	is.Equal(res.Budget, budget)
}

func TestPhaseBudgetIsUsedByDefault(t *testing.T) {
	is := is.New(t)
	s := NewSolver(nil, nil)
	s.SetMaxDepth(1)
	res, err := s.ChooseBestMoveFEN(context.Background(), board.StartingFEN, nil)
	is.NoErr(err)
	is.Equal(string(res.Phase), "opening")
	is.Equal(res.Budget, 200*time.Millisecond)
}

func TestCanceledContextFallsBack(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(DefaultMaxDepth, true)
	pos := mustParse(t, board.StartingFEN)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.ChooseBestMove(ctx, pos, nil)
	is.NoErr(err)
	is.True(res.Fallback)
	is.Equal(res.ReachedDepth, 0)
	is.True(isLegal(pos, res.Move))
}

func TestExpiredDeadlineCancelsNegamax(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(3, true)
	sess := s.newSession(time.Now(), evaluation.DefaultParams())
	_, err := sess.negamax(context.Background(), mustParse(t, board.StartingFEN), 3, -Infinity, Infinity)
	is.True(errors.Is(err, ErrTimeUp))
	is.Equal(sess.nodes, uint64(0))
	is.Equal(sess.cache.Stats().Created, uint64(0))
}

var errBoom = errors.New("boom")

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(*board.Position, *evaluation.Params) (int, error) {
	return 0, errBoom
}

func TestEvaluatorErrorPropagates(t *testing.T) {
	is := is.New(t)
	s := NewSolver(nil, failingEvaluator{})
	s.SetFixedBudget(ampleTime)
	res, err := s.ChooseBestMoveFEN(context.Background(), board.StartingFEN, nil)
	is.True(errors.Is(err, errBoom))
	is.True(res == nil)
}

func TestNullMoveCutoffReturnsBeta(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, board.StartingFEN)

	sess := testSession(setUpSolver(3, true))
	v, err := sess.negamax(context.Background(), pos, 3, -Infinity, -1000)
	is.NoErr(err)
	is.Equal(v, -1000)
	cached, ok := sess.cache.Lookup(pos.FEN(), 3)
	is.True(ok)
	is.Equal(cached, -1000)

	sess = testSession(setUpSolver(3, false))
	v, err = sess.negamax(context.Background(), pos, 3, -Infinity, -1000)
	is.NoErr(err)
	is.True(v != -1000)
}

func TestHashWidthIndependence(t *testing.T) {
	is := is.New(t)
	// Two red towers that can be moved in either order, so the same
	// positions come up through different move orders.
	fen := "3RG3/7/7/1r13r11/7/7/3BG3 r"
	lossy := setUpSolver(3, false)
	exact := setUpSolver(3, false)
	exact.SetExactCache(true)

	a, err := lossy.ChooseBestMoveFEN(context.Background(), fen, nil)
	is.NoErr(err)
	b, err := exact.ChooseBestMoveFEN(context.Background(), fen, nil)
	is.NoErr(err)
	is.Equal(a.Move, b.Move)
	is.Equal(a.Score, b.Score)
	is.Equal(a.ReachedDepth, 3)
	is.True(b.Cache.Hits > 0)
}

func TestOrderMoves(t *testing.T) {
	pos := mustParse(t, "7/7/7/2b5RGr12/3BG3/7/7 r")
	ordered := OrderMoves(pos, movegen.GenAll(pos, board.Red))
	got := make([]string, len(ordered))
	for i, m := range ordered {
		got[i] = m.ShortDescription()
	}
	expected := []string{
		// guardian
		"D4-D5-1", "D4-D3-1", "D4-C4-1",
		// the E4 tower has no captures; quiet moves keep generator order
		"E4-E5-1", "E4-E3-1", "E4-F4-1",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderMovesCapturesBeforeQuiet(t *testing.T) {
	is := is.New(t)
	// Red tower on A4 can take the blue tower on A5 or step aside.
	pos := mustParse(t, "3RG3/7/b16/r16/7/7/3BG3 r")
	ordered := OrderMoves(pos, movegen.GenAll(pos, board.Red))
	is.Equal(ordered[0].From, board.RedStart)
	var firstTower int
	for i, m := range ordered {
		if m.From != board.RedStart {
			firstTower = i
			break
		}
	}
	is.Equal(ordered[firstTower].ShortDescription(), "A4-A5-1")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
