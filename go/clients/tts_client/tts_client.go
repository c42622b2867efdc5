package tts_client

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mcdev12/trivianight/go/clients"
	"github.com/mcdev12/trivianight/go/internal/models"
)

const (
	SynthesizeEndpoint = "/v1/synthesize"
	APIKeyHeader       = "X-API-Key"
)

// voiceNames maps server voices to the provider's voice identifiers.
var voiceNames = map[models.VoiceType]string{
	models.VoiceTypeAnnouncer: "announcer",
	models.VoiceTypeCasual:    "casual",
}

type TTSClient struct {
	*clients.BaseClient
}

func NewTTSClient(baseURL, apiKey string) *TTSClient {
	client := &TTSClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader(APIKeyHeader, apiKey)
	}
	return client
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

type synthesizeResponse struct {
	Audio           string  `json:"audio"`
	Format          string  `json:"format"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Synthesize renders line with the given voice. Client-side voices return nil audio.
func (c *TTSClient) Synthesize(ctx context.Context, line string, voice models.VoiceType) (*models.Audio, error) {
	name, ok := voiceNames[voice]
	if !ok {
		return nil, nil
	}

	var resp synthesizeResponse
	if err := c.PostJSON(ctx, SynthesizeEndpoint, synthesizeRequest{Text: line, Voice: name, Format: "mp3"}, &resp); err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return &models.Audio{
		Data:     data,
		Format:   resp.Format,
		Duration: time.Duration(resp.DurationSeconds * float64(time.Second)),
	}, nil
}
