package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// UpdateSettingsPreset changes the preset. Creator only, lobby only. The other
// hosts are told; the actor already knows.
func (s *Session) UpdateSettingsPreset(ctx context.Context, conn string, preset models.SettingsPreset) error {
	return s.do(ctx, func() error {
		if !s.IsCreator(conn) || s.state != models.SessionStateLobby || !preset.Valid() {
			return nil
		}
		s.preset = preset
		s.round = nil
		log.Info().Str("session", s.Name).Str("preset", string(preset)).Msg("settings preset updated")
		s.toHostsExcept(conn, events.New(events.EventTypeUpdateGameSettingsPreset,
			events.UpdateGameSettingsPresetPayload{Preset: preset}))
		return nil
	})
}

// UpdateVoiceType may be changed by any host at any time. Every host is told,
// including the actor.
func (s *Session) UpdateVoiceType(ctx context.Context, conn string, voice models.VoiceType) error {
	return s.do(ctx, func() error {
		if _, ok := s.hosts[conn]; !ok || !voice.Valid() {
			return nil
		}
		s.voiceType = voice
		log.Info().Str("session", s.Name).Str("voice_type", string(voice)).Msg("voice type updated")
		s.toHosts(events.New(events.EventTypeUpdateVoiceType, events.UpdateVoiceTypePayload{
			VoiceType:       voice,
			LegacySynthesis: !s.cfg.SpeechEnabled,
		}))
		return nil
	})
}

// GenerateCustomGame asks the content generator for a round built from settings.
// The queue stays occupied while the generator runs. On failure nothing changes
// and a UserError is returned.
func (s *Session) GenerateCustomGame(ctx context.Context, conn string, settings models.TriviaGameSettings) error {
	return s.do(ctx, func() error {
		if !s.IsCreator(conn) || s.state != models.SessionStateLobby {
			return ErrIgnored
		}
		if s.deps.Generator == nil {
			return userErrorf("Custom games are not available right now.")
		}

		genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		defer cancel()
		round, err := s.deps.Generator.Generate(genCtx, settings)

		if s.isClosed() {
			return ErrSessionClosed
		}
		if s.state != models.SessionStateLobby {
			return ErrIgnored
		}
		if err != nil {
			log.Warn().Err(err).Str("session", s.Name).Msg("custom game generation failed")
			return generationError(err)
		}
		if round == nil || len(round.Categories) == 0 {
			return userErrorf("The generated game was empty. Please try again.")
		}

		s.round = round
		s.preset = models.SettingsPresetCustom
		log.Info().
			Str("session", s.Name).
			Int("categories", len(round.Categories)).
			Msg("custom game generated")
		s.toHosts(s.roundEvent(true))
		s.toHosts(events.New(events.EventTypeUpdateGameSettingsPreset,
			events.UpdateGameSettingsPresetPayload{Preset: s.preset}))
		return nil
	})
}

func generationError(err error) error {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return userErrorf("Generating the game took too long. Please try again.")
	}
	return userErrorf("Could not generate a game: %s", fmt.Sprint(err))
}
