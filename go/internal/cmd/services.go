package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivianight/go/clients/trivia_gen_client"
	"github.com/mcdev12/trivianight/go/clients/tts_client"
	"github.com/mcdev12/trivianight/go/internal/admin"
	"github.com/mcdev12/trivianight/go/internal/config"
	"github.com/mcdev12/trivianight/go/internal/content"
	"github.com/mcdev12/trivianight/go/internal/game/eventbus"
	"github.com/mcdev12/trivianight/go/internal/game/gateway"
	"github.com/mcdev12/trivianight/go/internal/game/session"
	"github.com/mcdev12/trivianight/go/internal/speech"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Sessions *session.Manager
	Gateway  *gateway.Service
	Admin    *admin.Service
	Metrics  *eventbus.CounterMetrics

	jetstream *eventbus.JetStreamPublisher
}

func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Collaborators → Session manager → Gateway (router) → Admin

	generator, err := setupGenerator(cfg)
	if err != nil {
		return nil, err
	}

	metrics := eventbus.NewCounterMetrics()
	var publisher eventbus.Publisher = eventbus.NoOpPublisher{}
	var js *eventbus.JetStreamPublisher
	if cfg.NATSEnabled {
		js, err = eventbus.NewJetStreamPublisher(ctx, cfg.NATS)
		if err != nil {
			return nil, fmt.Errorf("failed to set up event bus: %w", err)
		}
		publisher = js
	} else {
		log.Info().Msg("NATS_URL not set, session events are not published")
	}

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	sessions := session.NewManager(cfg.Session, session.Deps{
		Broadcaster: cm,
		Generator:   generator,
		Synthesizer: setupSynthesizer(cfg),
		Publisher:   eventbus.NewMetricPublisher(publisher, metrics),
		Clock:       clockwork.NewRealClock(),
	})

	gwConfig := gateway.DefaultConfig()
	gwConfig.HandlerTimeout = cfg.HandlerTimeout
	gw := gateway.NewService(gwConfig, cm, sessions)

	return &Services{
		Sessions:  sessions,
		Gateway:   gw,
		Admin:     admin.NewService(sessions, gw.Router()),
		Metrics:   metrics,
		jetstream: js,
	}, nil
}

func setupGenerator(cfg *config.Config) (content.Generator, error) {
	bank, err := content.LoadBank(cfg.ClueBankPath)
	if err != nil {
		return nil, err
	}
	local := content.NewBankGenerator(bank, uint64(time.Now().UnixNano()))
	if cfg.GeneratorURL == "" {
		return local, nil
	}
	log.Info().Str("url", cfg.GeneratorURL).Msg("using remote trivia generator with local fallback")
	return &content.FallbackGenerator{
		Primary:   trivia_gen_client.NewTriviaGenClient(cfg.GeneratorURL, cfg.GeneratorAPIKey),
		Secondary: local,
	}, nil
}

func setupSynthesizer(cfg *config.Config) speech.Synthesizer {
	if !cfg.SpeechEnabled || cfg.TTSURL == "" {
		return speech.Disabled{}
	}
	return speech.NewCache(tts_client.NewTTSClient(cfg.TTSURL, cfg.TTSAPIKey), 512)
}

func (s *Services) Close() {
	if s.jetstream != nil {
		if err := s.jetstream.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event bus")
		}
	}
}
