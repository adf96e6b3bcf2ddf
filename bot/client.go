package bot

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/guardtowers/board"
	"github.com/domino14/guardtowers/move"
)

const requestTimeout = 10 * time.Second

type Client struct {
	// NATS connection
	nc      *nats.Conn
	channel string
}

func MakeRequest(pos *board.Position) ([]byte, error) {
	return json.Marshal(Request{FEN: pos.FEN()})
}

// ParseResponse turns a bot reply into a move.
func ParseResponse(data []byte) (move.Move, error) {
	resp := Response{}
	if err := json.Unmarshal(data, &resp); err != nil {
		return move.NoMove, err
	}
	if resp.Error != "" {
		return move.NoMove, errors.New("Bot returned: " + resp.Error)
	}
	return move.FromString(resp.Move)
}

// Send a position to the bot and get a move back.
func (c *Client) RequestMove(pos *board.Position) (move.Move, error) {
	data, err := MakeRequest(pos)
	if err != nil {
		return move.NoMove, err
	}
	res, err := c.nc.Request(c.channel, data, requestTimeout)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return move.NoMove, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))
	return ParseResponse(res.Data)
}
