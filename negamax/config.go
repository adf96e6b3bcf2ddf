package negamax

import (
	"github.com/domino14/guardtowers/config"
)

// NewSolverFromConfig builds a Solver with the standard rules and evaluator
// and the search settings from cfg.
func NewSolverFromConfig(cfg *config.Config) *Solver {
	s := NewSolver(nil, nil)
	s.SetMaxDepth(cfg.GetInt(config.ConfigMaxDepth))
	s.SetNullMoveOptim(cfg.GetBool(config.ConfigNullMovePruning))
	s.SetNullMoveReduction(cfg.GetInt(config.ConfigNullMoveReduction))
	s.SetTimeBuffer(cfg.GetDuration(config.ConfigTimeBuffer))
	s.SetWinCheckMoves(cfg.GetInt(config.ConfigWinCheckMoves))
	s.SetFixedBudget(cfg.GetDuration(config.ConfigFixedBudget))
	s.SetExactCache(cfg.GetBool(config.ConfigExactCache))
	return s
}
