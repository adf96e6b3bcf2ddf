// Package gameclient plays on a tournament game server: it polls the
// server for the game state and sends a move whenever it is our turn.
//
// The wire format is one JSON value per line. On connect the server sends
// the player number (0 plays red, 1 plays blue). After that every message
// from the client gets exactly one line back.
package gameclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/config"
	"github.com/domino14/guardtowers/evaluation"
	"github.com/domino14/guardtowers/metrics"
	"github.com/domino14/guardtowers/move"
	"github.com/domino14/guardtowers/negamax"
)

var (
	ErrNoPlayer   = errors.New("server sent no player assignment")
	ErrBadState   = errors.New("bad game state from server")
	ErrBadMoveOut = errors.New("refusing to send badly formed move")
)

const (
	DefaultRetryDelay   = 2 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	getRequest          = "get"
	// timeMargin is kept back from the server's clock for the round trip.
	timeMargin = 100 * time.Millisecond
)

// State is the server's view of the game.
type State struct {
	Board         string `json:"board"`
	Turn          string `json:"turn"`
	BothConnected bool   `json:"bothConnected"`
	// Time is our remaining clock in milliseconds.
	Time int64 `json:"time"`
	End  bool  `json:"end"`
}

// Position parses the board, using Turn as the side to move if the board
// string has no side tag.
func (s *State) Position() (*board.Position, error) {
	fen := strings.TrimSpace(s.Board)
	if !strings.Contains(fen, " ") {
		fen += " " + s.Turn
	}
	return board.ParseFEN(fen)
}

type Options struct {
	Addr         string
	Attempts     uint
	RetryDelay   time.Duration
	PollInterval time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:         cfg.GetString(config.ConfigServerAddr),
		Attempts:     uint(max(1, cfg.GetInt(config.ConfigServerRetries))),
		RetryDelay:   DefaultRetryDelay,
		PollInterval: DefaultPollInterval,
	}
}

type Client struct {
	opts   Options
	conn   net.Conn
	rd     *bufio.Reader
	player board.Color

	solver *negamax.Solver
	params *evaluation.Params
}

// Dial connects and reads the player assignment, retrying the whole
// handshake up to opts.Attempts times.
func Dial(ctx context.Context, opts Options, solver *negamax.Solver, params *evaluation.Params) (*Client, error) {
	c := &Client{opts: opts, solver: solver, params: params}
	var d net.Dialer
	err := retry.Do(
		func() error {
			conn, err := d.DialContext(ctx, "tcp", opts.Addr)
			if err != nil {
				return err
			}
			c.conn = conn
			c.rd = bufio.NewReader(conn)
			if err := c.readPlayer(); err != nil {
				conn.Close()
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Err(err).Uint("attempt", n+1).Str("addr", opts.Addr).Msg("connection-attempt-failed")
		}),
	)
	if err != nil {
		return nil, err
	}
	log.Info().Str("player", c.player.String()).Msg("connected")
	return c, nil
}

func (c *Client) readPlayer() error {
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	var n int
	switch v := raw.(type) {
	case float64:
		n = int(v)
	case string:
		n, err = strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrNoPlayer, v)
		}
	default:
		return ErrNoPlayer
	}
	switch n {
	case 0:
		c.player = board.Red
	case 1:
		c.player = board.Blue
	default:
		return fmt.Errorf("%w: player %d", ErrNoPlayer, n)
	}
	return nil
}

func (c *Client) Player() board.Color {
	return c.player
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// send writes v as one JSON line and returns the reply line.
func (c *Client) send(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return "", err
	}
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// getState polls the server, asking again on an empty reply.
func (c *Client) getState(ctx context.Context) (*State, error) {
	var reply string
	err := retry.Do(
		func() error {
			var err error
			reply, err = c.send(getRequest)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if reply == "" {
				return errors.New("empty response")
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.opts.Attempts),
		retry.Delay(c.opts.RetryDelay/2),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	st := &State{}
	if err := json.Unmarshal([]byte(reply), st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadState, err)
	}
	return st, nil
}

func (c *Client) ourTurn(st *State) bool {
	return st.BothConnected && st.Turn == c.player.Tag()
}

// play searches the position and sends the chosen move.
func (c *Client) play(ctx context.Context, st *State) (move.Move, error) {
	pos, err := st.Position()
	if err != nil {
		return move.NoMove, fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if st.Time > 0 {
		left := time.Duration(st.Time)*time.Millisecond - timeMargin
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, max(left, 0))
		defer cancel()
	}
	res, err := c.solver.ChooseBestMove(ctx, pos, c.params)
	metrics.ObserveSearch("gameclient", res, err)
	if err != nil {
		return move.NoMove, err
	}
	if res.Move.IsNoMove() {
		return move.NoMove, errors.New("no legal moves")
	}
	desc := res.Move.ShortDescription()
	if !move.ValidString(desc) {
		return move.NoMove, fmt.Errorf("%w: %s", ErrBadMoveOut, desc)
	}
	log.Info().Str("board", st.Board).Int64("time-ms", st.Time).
		Str("move", desc).Int("depth", res.ReachedDepth).Msg("sending-move")
	if _, err := c.send(desc); err != nil {
		return move.NoMove, err
	}
	return res.Move, nil
}

// Run plays until the server reports the end of the game or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	for {
		st, err := c.getState(ctx)
		if err != nil {
			return err
		}
		if st.End {
			log.Info().Msg("game-ended")
			return nil
		}
		if c.ourTurn(st) {
			if _, err := c.play(ctx, st); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opts.PollInterval):
		}
	}
}
