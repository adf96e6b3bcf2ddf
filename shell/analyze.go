package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/negamax"
)

type analysisRow struct {
	fen string
	res *negamax.Result
	err error
}

// readFENs reads one position per line. Blank lines and lines starting
// with # are skipped.
func readFENs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var fens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fens = append(fens, line)
	}
	return fens, scanner.Err()
}

// analyze searches every position in a file, several at a time.
func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("analyze <file> [-threads n] [-depth n] [-time d] [-continue true]")
	}
	threads, err := cmd.options.IntDefault("threads", 4)
	if err != nil {
		return nil, err
	}
	if threads < 1 {
		return nil, errors.New("threads must be at least 1")
	}
	continueOnError := cmd.options.Bool("continue")
	fens, err := readFENs(cmd.args[0])
	if err != nil {
		return nil, err
	}
	rows, err := sc.analyzeFENs(context.Background(), cmd, fens, threads, continueOnError)
	if err != nil {
		return nil, err
	}
	return msg(formatAnalysis(rows)), nil
}

func (sc *ShellController) analyzeFENs(ctx context.Context, cmd *shellcmd, fens []string,
	threads int, continueOnError bool) ([]analysisRow, error) {

	rows := make([]analysisRow, len(fens))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, fen := range fens {
		rows[i].fen = fen
		g.Go(func() error {
			// A Solver is cheap; each search gets its own.
			s, err := sc.solverFor(cmd)
			if err != nil {
				return err
			}
			pos, err := board.ParseFEN(fen)
			if err == nil {
				rows[i].res, err = s.ChooseBestMove(ctx, pos, sc.params)
			}
			if err != nil {
				if !continueOnError {
					return fmt.Errorf("position %d: %w", i+1, err)
				}
				rows[i].err = err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func formatAnalysis(rows []analysisRow) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s  %-10s  %-8s  %-5s  %-9s  %-18s  %s\n",
		"#", "Move", "Score", "Depth", "Nodes", "Phase", "Position"))
	sb.WriteString(strings.Repeat("-", 100))
	sb.WriteString("\n")
	for i, r := range rows {
		if r.err != nil {
			sb.WriteString(fmt.Sprintf("%-4d  error: %v  %s\n", i+1, r.err, r.fen))
			continue
		}
		sb.WriteString(fmt.Sprintf("%-4d  %-10s  %-8d  %-5d  %-9d  %-18s  %s\n",
			i+1, r.res.Move.ShortDescription(), r.res.Score, r.res.ReachedDepth,
			r.res.NodesVisited, r.res.Phase, r.fen))
	}
	return sb.String()
}
