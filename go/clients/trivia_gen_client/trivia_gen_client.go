package trivia_gen_client

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/trivianight/go/clients"
	"github.com/mcdev12/trivianight/go/internal/models"
)

const (
	GenerateEndpoint = "/v1/rounds"
	APIKeyHeader     = "X-API-Key"
)

// TriviaGenClient calls a remote content service that builds rounds.
type TriviaGenClient struct {
	*clients.BaseClient
}

func NewTriviaGenClient(baseURL, apiKey string) *TriviaGenClient {
	client := &TriviaGenClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader(APIKeyHeader, apiKey)
	}
	return client
}

type generateResponse struct {
	Round *models.TriviaRound `json:"round"`
	Error string              `json:"error,omitempty"`
}

func (c *TriviaGenClient) Generate(ctx context.Context, settings models.TriviaGameSettings) (*models.TriviaRound, error) {
	var resp generateResponse
	if err := c.PostJSON(ctx, GenerateEndpoint, settings, &resp); err != nil {
		var se *clients.StatusError
		if errors.As(err, &se) && se.StatusCode < 500 {
			return nil, fmt.Errorf("content service rejected the settings: %s", se.Body)
		}
		return nil, fmt.Errorf("generate round: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if resp.Round == nil {
		return nil, errors.New("content service returned no round")
	}
	return resp.Round, nil
}
