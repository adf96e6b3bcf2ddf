package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"gonum.org/v1/gonum/stat"

	"github.com/domino14/guardtowers/negamax"
)

type benchStats struct {
	runs      int
	mean      float64
	stddev    float64
	median    float64
	p95       float64
	nodes     uint64
	depths    map[int]int
	durations []float64
}

// runBench searches the current position n times and collects timings in
// milliseconds.
func (sc *ShellController) runBench(ctx context.Context, s *negamax.Solver, n int) (*benchStats, error) {
	st := &benchStats{runs: n, depths: map[int]int{}}
	for i := 0; i < n; i++ {
		res, err := s.ChooseBestMove(ctx, sc.pos, sc.params)
		if err != nil {
			return nil, err
		}
		st.durations = append(st.durations, float64(res.Elapsed)/float64(time.Millisecond))
		st.nodes += res.NodesVisited
		st.depths[res.ReachedDepth]++
	}
	sorted := append([]float64(nil), st.durations...)
	sort.Float64s(sorted)
	st.mean, st.stddev = stat.MeanStdDev(sorted, nil)
	st.median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	st.p95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return st, nil
}

func (sc *ShellController) bench(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	n, err := cmd.options.IntDefault("n", 10)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errors.New("n must be at least 1")
	}
	s, err := sc.solverFor(cmd)
	if err != nil {
		return nil, err
	}
	st, err := sc.runBench(context.Background(), s, n)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d searches\n", st.runs)
	fmt.Fprintf(&sb, "time ms: mean %.1f, stddev %.1f, median %.1f, p95 %.1f\n",
		st.mean, st.stddev, st.median, st.p95)
	fmt.Fprintf(&sb, "nodes/search: %d\n", st.nodes/uint64(st.runs))
	depths := make([]int, 0, len(st.depths))
	for d := range st.depths {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	for _, d := range depths {
		fmt.Fprintf(&sb, "depth %d reached %d times\n", d, st.depths[d])
	}
	if st.runs > 1 {
		hist := histogram.Hist(min(10, st.runs), st.durations)
		if err := histogram.Fprint(&sb, hist, histogram.Linear(40)); err != nil {
			return nil, err
		}
	}
	return msg(sb.String()), nil
}

// benchDepth searches the current position once per depth limit, so node
// counts can be compared across depths.
func (sc *ShellController) benchDepth(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoPosition
	}
	maxDepth, err := cmd.options.IntDefault("depth", 4)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-5s  %-10s  %-8s  %-10s  %-10s  %s\n", "Depth", "Move", "Score", "Nodes", "Time", "Reached")
	for d := 1; d <= maxDepth; d++ {
		c := &shellcmd{cmd: cmd.cmd, args: cmd.args, options: CmdOptions{"depth": {fmt.Sprint(d)}}}
		for k, v := range cmd.options {
			if k != "depth" {
				c.options[k] = v
			}
		}
		s, err := sc.solverFor(c)
		if err != nil {
			return nil, err
		}
		res, err := s.ChooseBestMove(context.Background(), sc.pos, sc.params)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "%-5d  %-10s  %-8d  %-10d  %-10v  %d\n", d, res.Move.ShortDescription(),
			res.Score, res.NodesVisited, res.Elapsed.Round(time.Millisecond), res.ReachedDepth)
	}
	return msg(sb.String()), nil
}
