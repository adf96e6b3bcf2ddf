package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/config"
	"github.com/domino14/guardtowers/evaluation"
	"github.com/domino14/guardtowers/move"
	"github.com/domino14/guardtowers/movegen"
	"github.com/domino14/guardtowers/negamax"
	"github.com/domino14/guardtowers/phase"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) Duration(key string) (time.Duration, bool, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, false, nil
	}
	d, err := time.ParseDuration(v[0])
	return d, true, err
}

func msg(message string) *Response {
	return &Response{message: message}
}

// settable are the config keys the `set` command may change.
var settable = []string{
	config.ConfigMaxDepth,
	config.ConfigNullMovePruning,
	config.ConfigNullMoveReduction,
	config.ConfigTimeBuffer,
	config.ConfigWinCheckMoves,
	config.ConfigFixedBudget,
	config.ConfigExactCache,
}

func (sc *ShellController) settingsText() string {
	out := strings.Builder{}
	out.WriteString("Settings:\n")
	for _, key := range settable {
		out.WriteString("  " + key + ": ")
		out.WriteString(sc.config.GetString(key) + "\n")
	}
	return out.String()
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.settingsText()), nil
	}
	opt := cmd.args[0]
	found := false
	for _, k := range settable {
		if k == opt {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.New("No such option: " + opt)
	}
	if len(cmd.args) == 1 {
		return msg(opt + ": " + sc.config.GetString(opt)), nil
	}
	val := cmd.args[1]
	switch opt {
	case config.ConfigNullMovePruning, config.ConfigExactCache:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, err
		}
		sc.config.Set(opt, b)
	case config.ConfigTimeBuffer, config.ConfigFixedBudget:
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, err
		}
		sc.config.Set(opt, d)
	default:
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, err
		}
		sc.config.Set(opt, n)
	}
	return msg(opt + " set to " + sc.config.GetString(opt)), nil
}

func (sc *ShellController) position(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("position <fen> | position start")
	}
	fen := strings.Join(cmd.args, " ")
	if fen == "start" {
		fen = board.StartingFEN
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	sc.pos = pos
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	return msg(sc.pos.ToDisplayText() + "\n" + sc.pos.FEN()), nil
}

func (sc *ShellController) generate(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	moves := negamax.OrderMoves(sc.pos, movegen.GenAll(sc.pos, sc.pos.SideToMove()))
	out := strings.Builder{}
	fmt.Fprintf(&out, "%d moves for %s\n", len(moves), sc.pos.SideToMove())
	for i, m := range moves {
		tag := ""
		if movegen.IsCapture(sc.pos, m) {
			tag = " x"
		}
		fmt.Fprintf(&out, "%3d: %s%s\n", i+1, m.ShortDescription(), tag)
	}
	return msg(out.String()), nil
}

// play applies a move for the side to move and hands the turn over.
func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("play <from>-<to>-<height>")
	}
	m, err := move.FromString(cmd.args[0])
	if err != nil {
		return nil, err
	}
	cp := sc.pos.Copy()
	if err := movegen.Apply(cp, m); err != nil {
		return nil, err
	}
	mover := cp.SideToMove()
	cp.Flip()
	sc.pos = cp
	out := sc.pos.ToDisplayText()
	if sc.pos.HasWon(mover) {
		out += fmt.Sprintf("\n%s wins", mover)
	}
	return msg(out), nil
}

func (sc *ShellController) threats(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	out := strings.Builder{}
	for _, c := range []board.Color{board.Red, board.Blue} {
		sqs := movegen.Threatened(sc.pos, c)
		names := make([]string, len(sqs))
		for i, sq := range sqs {
			names[i] = sq.String()
		}
		fmt.Fprintf(&out, "%s pieces under attack: %s\n", c, strings.Join(names, " "))
	}
	return msg(out.String()), nil
}

func (sc *ShellController) phase(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	a := phase.Classify(sc.pos)
	return msg(fmt.Sprintf(
		"phase: %s (budget %v)\nmaterial: %d (mine %d, enemy %d, differential %d)\ninvasion: %d\ncriticality: %d",
		a.Phase, phase.Budget(a.Phase), a.TotalMaterial, a.MyMaterial, a.EnemyMaterial,
		a.Differential, a.Invasion, a.Criticality)), nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	v := evaluation.Evaluate(sc.pos, sc.params)
	return msg(fmt.Sprintf("%s to move: %d", sc.pos.SideToMove(), v)), nil
}

func (sc *ShellController) paramsCmd(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 || cmd.args[0] == "show" {
		out := strings.Builder{}
		for _, n := range sc.params.List() {
			fmt.Fprintf(&out, "  %-18s %10.2f\n", n.Name, n.Value)
		}
		devs := sc.params.MajorDeviations()
		if len(devs) > 0 {
			out.WriteString("Major changes from defaults:\n")
			for _, d := range devs {
				fmt.Fprintf(&out, "  %-18s %10.2f -> %-10.2f (%+.1f%%)\n",
					d.Name, d.Default, d.Value, d.Percent)
			}
		}
		return msg(out.String()), nil
	}
	switch cmd.args[0] {
	case "load":
		if len(cmd.args) != 2 {
			return nil, errors.New("params load <path>")
		}
		p, err := evaluation.LoadParams(cmd.args[1])
		if err != nil {
			return nil, err
		}
		sc.params = p
		return msg("loaded " + cmd.args[1]), nil
	case "save":
		if len(cmd.args) != 2 {
			return nil, errors.New("params save <path>")
		}
		if err := evaluation.SaveParams(sc.params, cmd.args[1]); err != nil {
			return nil, err
		}
		return msg("saved " + cmd.args[1]), nil
	case "reset":
		sc.params = evaluation.DefaultParams()
		return msg("params reset to defaults"), nil
	}
	return nil, errors.New("params [show|load <path>|save <path>|reset]")
}

// solverFor applies per-command overrides on top of the configured solver.
func (sc *ShellController) solverFor(cmd *shellcmd) (*negamax.Solver, error) {
	s := negamax.NewSolverFromConfig(sc.config)
	depth, err := cmd.options.IntDefault("depth", s.MaxDepth())
	if err != nil {
		return nil, err
	}
	s.SetMaxDepth(depth)
	if d, ok, err := cmd.options.Duration("time"); err != nil {
		return nil, err
	} else if ok {
		s.SetFixedBudget(d)
	}
	if v := cmd.options.String("nullmove"); v != "" {
		s.SetNullMoveOptim(cmd.options.Bool("nullmove"))
	}
	return s, nil
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	s, err := sc.solverFor(cmd)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	sc.searchCancel = cancel
	defer cancel()
	res, err := s.ChooseBestMove(ctx, sc.pos, sc.params)
	if err != nil {
		return nil, err
	}
	return msg(resultText(res)), nil
}

func resultText(res *negamax.Result) string {
	out := strings.Builder{}
	fmt.Fprintf(&out, "Best move: %s\n", res.Move.ShortDescription())
	fmt.Fprintf(&out, "Score: %d\n", res.Score)
	fmt.Fprintf(&out, "Depth: %d\n", res.ReachedDepth)
	fmt.Fprintf(&out, "Nodes: %d\n", res.NodesVisited)
	fmt.Fprintf(&out, "Phase: %s (budget %v)\n", res.Phase, res.Budget)
	fmt.Fprintf(&out, "Elapsed: %v\n", res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&out, "Table: %d stored, %d/%d hits, %d collisions\n",
		res.Cache.Created, res.Cache.Hits, res.Cache.Lookups, res.Cache.Collisions)
	if res.WinShortcut {
		out.WriteString("Immediate win found before searching.\n")
	}
	if res.Fallback {
		out.WriteString("No depth finished in time; move picked at random.\n")
	}
	return out.String()
}
