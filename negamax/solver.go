// Package negamax picks moves with an iterative-deepening alpha-beta
// search under a wall-clock budget.
package negamax

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/evaluation"
	"github.com/domino14/guardtowers/move"
	"github.com/domino14/guardtowers/movegen"
	"github.com/domino14/guardtowers/phase"
)

const (
	DefaultMaxDepth   = 4
	NullMoveReduction = 1
	// TimeBuffer is subtracted from the deadline so the search stops a
	// little early.
	TimeBuffer = 50 * time.Millisecond
	// WinCheckMoves is how many ordered root moves are tried for an
	// immediate win before deepening starts.
	WinCheckMoves = 3
)

// Result is the outcome of one search. Everything except Move is for
// diagnostics.
type Result struct {
	Move         move.Move
	Score        int
	NodesVisited uint64
	ReachedDepth int
	Phase        phase.Phase
	Budget       time.Duration
	// WinShortcut is set when the move came from the immediate-win check.
	WinShortcut bool
	// Fallback is set when not even depth 1 finished and the move was
	// picked at random.
	Fallback  bool
	Elapsed   time.Duration
	SessionID string
	Cache     Stats
}

// Solver holds search settings. It keeps no state between calls, so one
// Solver can serve many sequential searches.
type Solver struct {
	gen  movegen.MoveGenerator
	eval Evaluator

	maxDepth          int
	nullMoveOptim     bool
	nullMoveReduction int
	timeBuffer        time.Duration
	winCheckMoves     int
	fixedBudget       time.Duration
	exactCache        bool
}

// NewSolver returns a Solver with the standard settings. nil arguments
// select the standard rules and evaluator.
func NewSolver(gen movegen.MoveGenerator, eval Evaluator) *Solver {
	if gen == nil {
		gen = movegen.NewGenerator()
	}
	if eval == nil {
		eval = evaluation.Evaluator{}
	}
	return &Solver{
		gen:               gen,
		eval:              eval,
		maxDepth:          DefaultMaxDepth,
		nullMoveOptim:     true,
		nullMoveReduction: NullMoveReduction,
		timeBuffer:        TimeBuffer,
		winCheckMoves:     WinCheckMoves,
	}
}

func (s *Solver) SetMaxDepth(d int) {
	s.maxDepth = max(1, d)
}

func (s *Solver) MaxDepth() int {
	return s.maxDepth
}

func (s *Solver) SetNullMoveOptim(n bool) {
	s.nullMoveOptim = n
}

func (s *Solver) SetNullMoveReduction(r int) {
	s.nullMoveReduction = max(0, r)
}

func (s *Solver) SetTimeBuffer(b time.Duration) {
	s.timeBuffer = b
}

func (s *Solver) SetWinCheckMoves(n int) {
	s.winCheckMoves = max(0, n)
}

// SetFixedBudget overrides the phase-based time budget. Zero restores it.
func (s *Solver) SetFixedBudget(b time.Duration) {
	s.fixedBudget = b
}

// SetExactCache switches to the collision-free table. It is slower and
// meant for debugging.
func (s *Solver) SetExactCache(e bool) {
	s.exactCache = e
}

func (s *Solver) newSession(deadline time.Time, params *evaluation.Params) *session {
	var cache Cache
	if s.exactCache {
		cache = NewDebugTranspositionTable()
	} else {
		cache = NewTranspositionTable(s.maxDepth)
	}
	return &session{
		id:                uuid.NewString(),
		cache:             cache,
		deadline:          deadline,
		params:            params,
		gen:               s.gen,
		eval:              s.eval,
		nullMove:          s.nullMoveOptim,
		nullMoveReduction: s.nullMoveReduction,
		timeBuffer:        s.timeBuffer,
	}
}

// ChooseBestMove searches pos for its side to move. The returned Move is
// move.NoMove if there are no legal moves. Running out of time is not an
// error: the best move of the last finished depth is returned. Errors come
// only from the rules engine or the evaluator.
func (s *Solver) ChooseBestMove(ctx context.Context, pos *board.Position, params *evaluation.Params) (*Result, error) {
	tstart := time.Now()
	if params == nil {
		params = evaluation.DefaultParams()
	}
	ph, budget := phase.Allocate(pos)
	if s.fixedBudget > 0 {
		budget = s.fixedBudget
	}
	sess := s.newSession(tstart.Add(budget), params)
	res := &Result{Move: move.NoMove, Phase: ph, Budget: budget, SessionID: sess.id}
	defer func() {
		res.NodesVisited = sess.nodes
		res.Elapsed = time.Since(tstart)
		res.Cache = sess.cache.Stats()
		log.Debug().
			Str("session-id", sess.id).
			Str("move", res.Move.ShortDescription()).
			Int("score", res.Score).
			Int("depth", res.ReachedDepth).
			Uint64("nodes", res.NodesVisited).
			Uint64("ttable-created", res.Cache.Created).
			Uint64("ttable-lookups", res.Cache.Lookups).
			Uint64("ttable-hits", res.Cache.Hits).
			Uint64("ttable-collisions", res.Cache.Collisions).
			Bool("fallback", res.Fallback).
			Float64("time-elapsed-sec", res.Elapsed.Seconds()).
			Msg("search-returning")
	}()

	mover := pos.SideToMove()
	rootMoves := OrderMoves(pos, s.gen.GenAll(pos, mover))
	log.Debug().Str("session-id", sess.id).Str("phase", string(ph)).
		Dur("budget", budget).Int("root-moves", len(rootMoves)).Msg("search-config")
	if len(rootMoves) == 0 {
		return res, nil
	}

	for _, m := range rootMoves[:min(s.winCheckMoves, len(rootMoves))] {
		cp := pos.Copy()
		if err := s.gen.Apply(cp, m); err != nil {
			return nil, err
		}
		if cp.HasWon(mover) {
			res.Move = m
			res.Score = WinScore
			res.WinShortcut = true
			return res, nil
		}
	}

	err := s.iterativelyDeepen(ctx, sess, pos, rootMoves, res)
	if err != nil {
		return nil, err
	}
	if res.ReachedDepth == 0 {
		res.Move = rootMoves[frand.Intn(len(rootMoves))]
		res.Fallback = true
		log.Warn().Str("session-id", sess.id).Msg("no-depth-completed-using-random-move")
	}
	return res, nil
}

// iterativelyDeepen fills res with the best move of the deepest depth that
// finished. Partial results from an interrupted depth are thrown away.
func (s *Solver) iterativelyDeepen(ctx context.Context, sess *session, pos *board.Position,
	rootMoves []move.Move, res *Result) error {

	for depth := 1; depth <= s.maxDepth; depth++ {
		log.Trace().Str("session-id", sess.id).Int("plies", depth).Msg("deepening-iteratively")
		α, β := -Infinity, Infinity
		bestValue := -Infinity
		bestMove := move.NoMove
		for _, m := range rootMoves {
			if err := sess.checkTime(ctx); err != nil {
				return nil
			}
			cp := pos.Copy()
			if err := s.gen.Apply(cp, m); err != nil {
				return err
			}
			cp.Flip()
			value, err := sess.negamax(ctx, cp, depth-1, -β, -α)
			if err != nil {
				if isCancellation(err) {
					log.Debug().Str("session-id", sess.id).Int("plies", depth).
						Err(err).Msg("depth-interrupted")
					return nil
				}
				return err
			}
			if -value > bestValue {
				bestValue = -value
				bestMove = m
			}
			α = max(α, bestValue)
			if bestValue >= WinScore {
				break
			}
		}
		res.Move = bestMove
		res.Score = bestValue
		res.ReachedDepth = depth
		log.Debug().Str("session-id", sess.id).Int("plies", depth).
			Str("move", bestMove.ShortDescription()).Int("score", bestValue).Msg("best-val")
		if bestValue >= WinScore {
			return nil
		}
	}
	return nil
}

// ChooseBestMoveFEN parses fen and searches it.
func (s *Solver) ChooseBestMoveFEN(ctx context.Context, fen string, params *evaluation.Params) (*Result, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return s.ChooseBestMove(ctx, pos, params)
}
