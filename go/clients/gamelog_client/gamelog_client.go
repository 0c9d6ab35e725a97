package gamelog_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/scorekeeper/go/clients"
	"github.com/mcdev12/scorekeeper/go/internal/roster"
	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/rs/zerolog/log"
)

// Client talks to the league's game-log endpoint. It is both the roster source and the
// submission sink.
type Client struct {
	*clients.BaseClient
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	client := &Client{
		BaseClient: clients.NewBaseClient(endpoint),
	}

	client.SetHeader(JsonHeader, JsonContentType)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return client
}

// FetchPairs retrieves every (team, player) row
func (c *Client) FetchPairs(ctx context.Context) ([]roster.Pair, error) {
	body, err := c.Get(ctx, rostersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get rosters: %w", err)
	}

	var pairs []roster.Pair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rosters: %w", err)
	}
	return pairs, nil
}

// Send posts the game log. The endpoint's reply is opaque, so any response counts as delivered;
// only a failure to reach the endpoint is an error.
func (c *Client) Send(ctx context.Context, payload scorelog.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal game log: %w", err)
	}

	status, err := c.Deliver(ctx, http.MethodPost, submitPath, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to post game log: %w", err)
	}

	if status < 200 || status >= 300 {
		log.Warn().Int("status", status).Str("game_id", payload.GameID).Msg("game log endpoint replied with non-2xx status")
	}
	return nil
}
