package content

import (
	"context"

	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Generator builds a trivia round from settings.
type Generator interface {
	Generate(ctx context.Context, settings models.TriviaGameSettings) (*models.TriviaRound, error)
}

// FallbackGenerator tries Primary and uses Secondary when it fails.
type FallbackGenerator struct {
	Primary   Generator
	Secondary Generator
}

func (g *FallbackGenerator) Generate(ctx context.Context, settings models.TriviaGameSettings) (*models.TriviaRound, error) {
	round, err := g.Primary.Generate(ctx, settings)
	if err == nil {
		return round, nil
	}
	if g.Secondary == nil || ctx.Err() != nil {
		return nil, err
	}
	log.Warn().Err(err).Msg("primary content generator failed, using fallback")
	return g.Secondary.Generate(ctx, settings)
}
