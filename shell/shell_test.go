package shell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testController() *ShellController {
	return newController(config.DefaultConfig(), "test")
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"best -depth 5",
			&shellcmd{"best", nil, CmdOptions{"depth": {"5"}}},
			nil},
		{"params load weights.yaml",
			&shellcmd{"params", []string{"load", "weights.yaml"}, CmdOptions{}},
			nil},
		{"analyze 'my positions.txt' -threads 2 -time 300ms ",
			&shellcmd{"analyze",
				[]string{"my positions.txt"},
				CmdOptions{"threads": {"2"}, "time": {"300ms"}}},
			nil,
		},
		{"set null-move-reduction -1",
			&shellcmd{"set", []string{"null-move-reduction", "-1"}, CmdOptions{}},
			nil},
		{"best -depth", nil, errWrongOptionSyntax},
	}
	for _, tc := range cases {
		cmd, err := extractFields(tc.line)
		is.Equal(cmd, tc.expCmd)
		is.Equal(err, tc.expErr)
	}
}

func TestPositionAndShow(t *testing.T) {
	is := is.New(t)
	sc := testController()
	fen := "3RG3/7/7/1r13r11/7/7/3BG3 r"
	_, err := sc.handle("position " + fen)
	is.NoErr(err)
	resp, err := sc.handle("show")
	is.NoErr(err)
	is.True(strings.HasSuffix(resp.message, fen))

	_, err = sc.handle("position start")
	is.NoErr(err)
	is.Equal(sc.pos.FEN(), board.StartingFEN)

	_, err = sc.handle("position 7/7 r")
	is.True(err != nil)
	// A bad FEN leaves the old position alone.
	is.Equal(sc.pos.FEN(), board.StartingFEN)
}

func TestGenListsEveryMove(t *testing.T) {
	is := is.New(t)
	sc := testController()
	resp, err := sc.handle("gen")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "25 moves for red"))
	// Guardian moves are listed first.
	is.True(strings.Contains(resp.message, "  1: D7-"))
}

func TestPlayHandsOverTurn(t *testing.T) {
	is := is.New(t)
	sc := testController()
	_, err := sc.handle("play D7-D6-1")
	is.NoErr(err)
	is.Equal(sc.pos.SideToMove(), board.Blue)

	// Red can't move twice.
	_, err = sc.handle("play D6-D5-1")
	is.True(err != nil)
	_, err = sc.handle("play nonsense")
	is.True(err != nil)
}

func TestPlayReportsWin(t *testing.T) {
	is := is.New(t)
	sc := testController()
	_, err := sc.handle("position 7/7/7/7/7/3RG3/6BG r")
	is.NoErr(err)
	resp, err := sc.handle("play D2-D1-1")
	is.NoErr(err)
	is.True(strings.HasSuffix(resp.message, "red wins"))
}

func TestBest(t *testing.T) {
	is := is.New(t)
	sc := testController()
	resp, err := sc.handle("best -depth 1 -time 1m")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "Best move: D7-D6-1\n"))
	is.True(strings.Contains(resp.message, "Depth: 1\n"))
	is.True(strings.Contains(resp.message, "Nodes: 25\n"))

	_, err = sc.handle("best -depth two")
	is.True(err != nil)
}

func TestPhaseAndEval(t *testing.T) {
	is := is.New(t)
	sc := testController()
	resp, err := sc.handle("phase")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "phase: opening (budget 200ms)"))
	resp, err = sc.handle("eval")
	is.NoErr(err)
	is.Equal(resp.message, "red to move: 0")
}

func TestThreats(t *testing.T) {
	is := is.New(t)
	sc := testController()
	_, err := sc.handle("position 3RG3/7/b16/r16/7/7/3BG3 r")
	is.NoErr(err)
	resp, err := sc.handle("threats")
	is.NoErr(err)
	is.Equal(resp.message, "red pieces under attack: A4\nblue pieces under attack: A5\n")
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc := testController()
	resp, err := sc.handle("set max-depth 6")
	is.NoErr(err)
	is.Equal(resp.message, "max-depth set to 6")
	is.Equal(sc.config.GetInt(config.ConfigMaxDepth), 6)

	_, err = sc.handle("set fixed-budget 750ms")
	is.NoErr(err)
	s, err := sc.solverFor(&shellcmd{options: CmdOptions{}})
	is.NoErr(err)
	is.Equal(s.MaxDepth(), 6)

	_, err = sc.handle("set null-move-pruning maybe")
	is.True(err != nil)
	_, err = sc.handle("set lexicon NWL23")
	is.True(err != nil)

	resp, err = sc.handle("set")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "fixed-budget: 750ms"))
}

func TestParamsSaveAndLoad(t *testing.T) {
	is := is.New(t)
	sc := testController()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	sc.params.Tempo = 30
	_, err := sc.handle("params save " + path)
	is.NoErr(err)
	_, err = sc.handle("params reset")
	is.NoErr(err)
	is.Equal(sc.params.Tempo, 20.0)
	_, err = sc.handle("params load " + path)
	is.NoErr(err)
	is.Equal(sc.params.Tempo, 30.0)

	// A 50% change is not a major one.
	resp, err := sc.handle("params")
	is.NoErr(err)
	is.True(!strings.Contains(resp.message, "Major changes from defaults:"))
}

func TestParamsShowsTopThreeMajorChanges(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sc.params.Mobility = 40
	sc.params.Tempo = 50
	sc.params.Aggression = 0
	sc.params.CenterControl = 50
	resp, err := sc.handle("params show")
	is.NoErr(err)
	_, changes, found := strings.Cut(resp.message, "Major changes from defaults:\n")
	is.True(found)
	lines := strings.Split(strings.TrimSpace(changes), "\n")
	is.Equal(len(lines), 3)
	is.True(strings.HasPrefix(strings.TrimSpace(lines[0]), "mobility "))
	is.True(strings.HasPrefix(strings.TrimSpace(lines[2]), "aggression "))
}

func TestAnalyzeFile(t *testing.T) {
	is := is.New(t)
	sc := testController()
	path := filepath.Join(t.TempDir(), "positions.txt")
	contents := "# two positions and a broken one\n" +
		board.StartingFEN + "\n\n" +
		"3RG3/7/7/7/7/3r13/3BG3 r\n" +
		"7/7 r\n"
	is.NoErr(os.WriteFile(path, []byte(contents), 0o644))

	_, err := sc.handle("analyze " + path + " -depth 1 -time 1m")
	is.True(err != nil)

	resp, err := sc.handle("analyze " + path + " -depth 1 -time 1m -threads 2 -continue true")
	is.NoErr(err)
	lines := strings.Split(strings.TrimSpace(resp.message), "\n")
	is.Equal(len(lines), 5)
	is.True(strings.HasPrefix(lines[2], "1     D7-D6-1"))
	is.True(strings.HasPrefix(lines[3], "2     D2-D1-1"))
	is.True(strings.HasPrefix(lines[4], "3     error:"))
}

func TestBench(t *testing.T) {
	is := is.New(t)
	sc := testController()
	resp, err := sc.handle("bench -n 3 -depth 1 -time 1m")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "3 searches\n"))
	is.True(strings.Contains(resp.message, "nodes/search: 25\n"))
	is.True(strings.Contains(resp.message, "depth 1 reached 3 times\n"))
}

func TestBenchDepth(t *testing.T) {
	is := is.New(t)
	sc := testController()
	resp, err := sc.handle("bench-depth -depth 2 -time 1m")
	is.NoErr(err)
	lines := strings.Split(strings.TrimSpace(resp.message), "\n")
	is.Equal(len(lines), 3)
	is.True(strings.HasPrefix(lines[1], "1      D7-D6-1 "))
	is.True(strings.Contains(lines[1], "  25 "))
	is.True(strings.HasSuffix(lines[2], "  2"))
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc := testController()
	resp, err := sc.handle("help")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "guardtowers test\n"))
	for _, topic := range helpTopics {
		_, err := sc.handle("help " + topic)
		is.NoErr(err)
	}
	_, err = sc.handle("help ../shell")
	is.True(err != nil)
}

func TestUnknownCommand(t *testing.T) {
	is := is.New(t)
	sc := testController()
	_, err := sc.handle("endgame")
	is.True(err != nil)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	c := NewShellCompleter(testController())
	matches, n := c.Do([]rune("be"), 2)
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("st"), []rune("nch"), []rune("nch-depth")})

	line := []rune("best -nullmove ")
	matches, _ = c.Do(line, len(line))
	is.Equal(matches, [][]rune{[]rune("true"), []rune("false")})

	line = []rune("set null-move-pruning ")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), 2)
}
