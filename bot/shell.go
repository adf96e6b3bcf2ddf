package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/config"
	"github.com/domino14/guardtowers/move"
	"github.com/domino14/guardtowers/movegen"
	"github.com/domino14/guardtowers/negamax"
)

// shellResponse is text for the player, not a bot reply.
type shellResponse struct {
	message string
}

func shellMsg(message string) *shellResponse {
	return &shellResponse{message: message}
}

type ShellController struct {
	l      *readline.Instance
	config *config.Config
	client Client

	pos      *board.Position
	selfSide board.Color
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func NewShellController(cfg *config.Config) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mguardtowers>\033[0m ",
		HistoryFile:     "/tmp/guardtowers-bot-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})

	if err != nil {
		panic(err)
	}
	return &ShellController{l: l, config: cfg}
}

// IsPlaying is true while a game is loaded, nobody has won, and the side
// to move has a move.
func (sc *ShellController) IsPlaying() bool {
	if sc.pos == nil || sc.pos.HasWon(board.Red) || sc.pos.HasWon(board.Blue) {
		return false
	}
	return len(movegen.GenAll(sc.pos, sc.pos.SideToMove())) > 0
}

func (sc *ShellController) IsBotOnTurn() bool {
	return sc.IsPlaying() && sc.pos.SideToMove() != sc.selfSide
}

func (sc *ShellController) getMove() error {
	sc.showMessage("Requesting move from bot")
	m, err := sc.client.RequestMove(sc.pos)
	if err != nil {
		sc.showMessage("Bot returned error: " + err.Error())
		return err
	} else {
		sc.showMessage("Bot returned move: " + m.ShortDescription())
	}
	resp, err := sc.commit(m)
	if err != nil {
		return err
	}
	sc.showMessage(resp.message)
	return nil
}

// newGame starts from the opening position. The player takes red unless
// args say otherwise.
func (sc *ShellController) newGame(args []string) (*shellResponse, error) {
	pos, err := board.ParseFEN(board.StartingFEN)
	if err != nil {
		return nil, err
	}
	sc.selfSide = board.Red
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "red", "r":
		case "blue", "b":
			sc.selfSide = board.Blue
		case "random":
			if frand.Intn(2) == 1 {
				sc.selfSide = board.Blue
			}
		default:
			return nil, errors.New("new [red|blue|random]")
		}
	}
	sc.pos = pos
	if pos.SideToMove() == sc.selfSide {
		return shellMsg(sc.pos.ToDisplayText()), nil
	} else {
		return shellMsg("Opponent goes first"), nil
	}
}

func (sc *ShellController) show() (*shellResponse, error) {
	if sc.pos == nil {
		return nil, errors.New("no game; start one with `new`")
	}
	return shellMsg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) play(args []string) (*shellResponse, error) {
	if !sc.IsPlaying() {
		return nil, errors.New("game is over")
	}
	if len(args) != 1 {
		return nil, errors.New("play <from>-<to>-<height>")
	}
	if sc.pos.SideToMove() != sc.selfSide {
		return nil, errors.New("it is not your turn")
	}
	m, err := move.FromString(args[0])
	if err != nil {
		return nil, err
	}
	return sc.commit(m)
}

func (sc *ShellController) commit(m move.Move) (*shellResponse, error) {
	cp := sc.pos.Copy()
	if err := movegen.Apply(cp, m); err != nil {
		return nil, err
	}
	mover := cp.SideToMove()
	cp.Flip()
	sc.pos = cp
	msg := sc.pos.ToDisplayText()
	if sc.pos.HasWon(mover) {
		msg += fmt.Sprintf("\n%s wins", mover)
	}
	return shellMsg(msg), nil
}

// aiplay lets the local engine move for the player.
func (sc *ShellController) aiplay() (*shellResponse, error) {
	if !sc.IsPlaying() {
		return nil, errors.New("game is over")
	}
	res, err := negamax.NewSolverFromConfig(sc.config).ChooseBestMove(context.Background(), sc.pos, nil)
	if err != nil {
		return nil, err
	}
	return sc.commit(res.Move)
}

func (sc *ShellController) handle(line string) (*shellResponse, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	cmd := fields[0]
	args := fields[1:]
	switch cmd {
	case "new", "n":
		return sc.newGame(args)
	case "show", "s", "b":
		return sc.show()
	case "play", "pl", "p":
		return sc.play(args)
	case "aiplay", "ai", "a":
		return sc.aiplay()
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

func (sc *ShellController) Loop(channel string, sig chan os.Signal) {

	defer sc.l.Close()

	// Initialize the NATS client
	nc, err := nats.Connect(sc.config.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Error().Err(err).Msg("could not connect to NATS")
		sig <- syscall.SIGINT
		return
	}
	defer nc.Close()
	sc.client = Client{nc: nc, channel: channel}

	// Run the readline loop
	for {
		if sc.IsBotOnTurn() {
			err = sc.getMove()
			if err == nil {
				continue
			}
			// Ask again after the next command; `aiplay` moves for the bot.
			sc.showError(err)
		}

		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		if line == "exit" {
			sig <- syscall.SIGINT
			break
		} else {
			resp, err := sc.handle(line)
			if err != nil {
				sc.showError(err)
			} else if resp != nil {
				sc.showMessage(resp.message)
			}
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}
