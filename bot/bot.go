// Package bot serves moves over NATS request/reply and has a small shell
// for playing against a running bot.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/config"
	"github.com/domino14/guardtowers/evaluation"
	"github.com/domino14/guardtowers/metrics"
	"github.com/domino14/guardtowers/negamax"
)

// Request asks for a move in the position given by FEN. Params, if set,
// override the bot's evaluation weights; missing keys keep their defaults.
type Request struct {
	FEN    string          `json:"fen"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response carries the chosen move, or Error if there is none.
type Response struct {
	Move     string `json:"move,omitempty"`
	Score    int    `json:"score"`
	Depth    int    `json:"depth"`
	Nodes    uint64 `json:"nodes"`
	Phase    string `json:"phase,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Bot struct {
	config *config.Config
	solver *negamax.Solver
	params *evaluation.Params
}

func NewBot(cfg *config.Config) *Bot {
	return &Bot{
		config: cfg,
		solver: negamax.NewSolverFromConfig(cfg),
		params: evaluation.LoadParamsOrDefault(cfg.GetString(config.ConfigParamsPath)),
	}
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{Error: msg}
}

// Deserialize parses a request into a position and the weights to search
// it with.
func (bot *Bot) Deserialize(data []byte) (*board.Position, *evaluation.Params, error) {
	req := Request{}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, nil, err
	}
	pos, err := board.ParseFEN(req.FEN)
	if err != nil {
		return nil, nil, err
	}
	params := bot.params
	if len(req.Params) > 0 {
		params = evaluation.DefaultParams()
		if err := json.Unmarshal(req.Params, params); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", evaluation.ErrInvalidParams, err)
		}
		if err := params.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return pos, params, nil
}

func (bot *Bot) handle(ctx context.Context, data []byte) *Response {
	pos, params, err := bot.Deserialize(data)
	if err != nil {
		return errorResponse("Could not parse request", err)
	}
	res, err := bot.solver.ChooseBestMove(ctx, pos, params)
	metrics.ObserveSearch("bot", res, err)
	if err != nil {
		return errorResponse("Search failed", err)
	}
	if res.Move.IsNoMove() {
		return errorResponse("No legal moves", nil)
	}
	log.Info().Str("session-id", res.SessionID).Msgf("Generated move: %s", res.Move.ShortDescription())
	return &Response{
		Move:     res.Move.ShortDescription(),
		Score:    res.Score,
		Depth:    res.ReachedDepth,
		Nodes:    res.NodesVisited,
		Phase:    string(res.Phase),
		Fallback: res.Fallback,
	}
}

func (bot *Bot) reply(ctx context.Context, m *nats.Msg) {
	log.Info().Msgf("RECV: %d bytes", len(m.Data))
	resp := bot.handle(ctx, m.Data)
	data, err := json.Marshal(resp)
	if err != nil {
		// Should never happen, ideally, but we need to do something sensible here.
		data = []byte(`{"error":"` + err.Error() + `"}`)
	}
	err = retry.Do(
		func() error { return m.Respond(data) },
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("respond-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		log.Err(err).Msg("bot-move-failed")
	}
}

// Main answers move requests on channel until ctx is done.
func Main(ctx context.Context, channel string, bot *Bot) error {
	nc, err := nats.Connect(bot.config.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Drain()

	_, err = nc.Subscribe(channel, func(m *nats.Msg) {
		bot.reply(ctx, m)
	})
	if err != nil {
		return err
	}
	nc.Flush()

	if err := nc.LastError(); err != nil {
		return err
	}

	log.Info().Msgf("Listening on [%s]", channel)
	<-ctx.Done()
	return nil
}
