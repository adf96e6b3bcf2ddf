package negamax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/evaluation"
	"github.com/domino14/guardtowers/movegen"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
**/

// WinScore is the score of a proven win for the side to move.
const WinScore = evaluation.WinScore

// Infinity is outside every reachable score and safe to negate.
const Infinity = WinScore + 1

var ErrTimeUp = errors.New("search time is up")

// Evaluator scores a leaf from the side to move's point of view. Scores
// must be strictly inside (-WinScore, WinScore).
type Evaluator interface {
	Evaluate(pos *board.Position, params *evaluation.Params) (int, error)
}

// session is everything that lives for exactly one ChooseBestMove call.
// Nothing in it is shared between calls.
type session struct {
	id       string
	cache    Cache
	nodes    uint64
	deadline time.Time
	params   *evaluation.Params

	gen               movegen.MoveGenerator
	eval              Evaluator
	nullMove          bool
	nullMoveReduction int
	timeBuffer        time.Duration
}

// checkTime returns ErrTimeUp once the deadline, less the safety buffer,
// has passed, or the context's error if it is done.
func (s *session) checkTime(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !time.Now().Before(s.deadline.Add(-s.timeBuffer)) {
		return ErrTimeUp
	}
	return nil
}

// isCancellation tells deadline and context errors apart from rules or
// evaluator failures.
func isCancellation(err error) bool {
	return errors.Is(err, ErrTimeUp) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// negamax returns the score of pos for its side to move. Any error aborts
// the whole search: callers return it immediately without touching their
// window, the cache or their best score.
func (s *session) negamax(ctx context.Context, pos *board.Position, depth int, α, β int) (int, error) {
	if err := s.checkTime(ctx); err != nil {
		return 0, err
	}
	s.nodes++

	me := pos.SideToMove()
	key := pos.Serialize(me)
	if score, ok := s.cache.Lookup(key, depth); ok {
		return score, nil
	}

	if pos.HasWon(me) {
		s.cache.Store(key, depth, WinScore)
		return WinScore, nil
	}
	if pos.HasWon(me.Opponent()) {
		s.cache.Store(key, depth, -WinScore)
		return -WinScore, nil
	}

	children := s.gen.GenAll(pos, me)
	if depth == 0 || len(children) == 0 {
		score, err := s.eval.Evaluate(pos, s.params)
		if err != nil {
			return 0, fmt.Errorf("evaluating %s: %w", key, err)
		}
		s.cache.Store(key, depth, score)
		return score, nil
	}

	if s.nullMove && depth > 2 {
		probe := pos.Copy()
		probe.Flip()
		value, err := s.negamax(ctx, probe, max(0, depth-1-s.nullMoveReduction), -β, -α)
		if err != nil {
			return 0, err
		}
		if -value >= β {
			s.cache.Store(key, depth, β)
			return β, nil
		}
	}

	bestValue := -Infinity
	for _, child := range OrderMoves(pos, children) {
		cp := pos.Copy()
		if err := s.gen.Apply(cp, child); err != nil {
			return 0, fmt.Errorf("applying %v to %s: %w", child, key, err)
		}
		cp.Flip()
		value, err := s.negamax(ctx, cp, depth-1, -β, -α)
		if err != nil {
			return 0, err
		}
		bestValue = max(bestValue, -value)
		α = max(α, bestValue)
		if bestValue >= WinScore || α >= β {
			break
		}
	}

	s.cache.Store(key, depth, bestValue)
	return bestValue, nil
}
