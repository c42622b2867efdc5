package session

import (
	"context"
	"encoding/base64"
	"math"
	"strings"
	"time"

	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/game/timers"
	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// phaseTimeoutKinds maps a reading state to the timeout a duration report corrects.
var phaseTimeoutKinds = map[models.SessionState]timers.Kind{
	models.SessionStateReadingCategoryNames: timers.KindReadingCategoryName,
	models.SessionStateReadingClueSelection: timers.KindReadingClueSelection,
	models.SessionStateReadingClue:          timers.KindReadingClue,
}

// estimateNarration guesses how long a line takes to read aloud.
func (s *Session) estimateNarration(line string) time.Duration {
	wps := s.cfg.WordsPerSecond
	if wps <= 0 {
		wps = 2.5
	}
	words := len(strings.Fields(line))
	d := time.Duration(float64(words)/wps*float64(time.Second)) + s.cfg.NarrationPadding
	if d < s.cfg.MinNarration {
		d = s.cfg.MinNarration
	}
	return d
}

// narrate makes line the current voice line and arms kind with an estimated
// duration. onDone runs when the timeout fires.
func (s *Session) narrate(kind timers.Kind, line string, onDone func()) {
	if onDone == nil {
		onDone = func() {}
	}
	s.currentVoiceLine = line
	s.toHosts(events.New(events.EventTypeVoiceLine, events.VoiceLinePayload{Line: line}))
	s.after(kind, s.estimateNarration(line), onDone)
	s.synthesize(line, false)
}

// announce speaks a short line over the current phase. Announcement and phase
// timeouts run side by side.
func (s *Session) announce(line string, onDone func()) {
	s.currentVoiceLine = line
	s.currentAnnouncement = line
	s.toHosts(events.New(events.EventTypeVoiceLine, events.VoiceLinePayload{Line: line, Announcement: true}))
	s.after(timers.KindAnnouncement, s.estimateNarration(line), func() {
		s.currentAnnouncement = ""
		if onDone != nil {
			onDone()
		}
	})
	s.synthesize(line, true)
}

func (s *Session) clearAnnouncement() {
	s.currentAnnouncement = ""
	s.timers.Cancel(s.Name, timers.KindAnnouncement)
}

// UpdateVoiceDuration applies a rendered duration reported by a host display.
// Reports for a line that is no longer current are dropped.
func (s *Session) UpdateVoiceDuration(ctx context.Context, conn, voiceLine string, seconds float64) error {
	return s.do(ctx, func() error {
		if _, ok := s.hosts[conn]; !ok {
			return nil
		}
		if voiceLine != s.currentVoiceLine || seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			log.Debug().
				Str("session", s.Name).
				Str("voice_line", voiceLine).
				Msg("discarding stale voice duration")
			return nil
		}
		s.correctDuration(time.Duration(seconds * float64(time.Second)))
		return nil
	})
}

// correctDuration re-arms the phase timeout matching the current state and, if an
// announcement is playing, the announcement timeout, both with d.
func (s *Session) correctDuration(d time.Duration) {
	if kind, ok := phaseTimeoutKinds[s.state]; ok {
		if s.timers.Reschedule(s.Name, kind, d) {
			log.Debug().
				Str("session", s.Name).
				Str("kind", string(kind)).
				Dur("duration", d).
				Msg("corrected phase timeout")
		}
	}
	if s.currentAnnouncement != "" {
		s.timers.Reschedule(s.Name, timers.KindAnnouncement, d)
	}
}

// synthesize renders line off the queue when the voice is server side. The
// result is applied on the queue only if the line is still current.
func (s *Session) synthesize(line string, announcement bool) {
	if !s.cfg.SpeechEnabled || s.deps.Synthesizer == nil || !s.voiceType.ServerSynthesized() {
		return
	}
	voice := s.voiceType
	timeout := s.cfg.SynthesisTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		audio, err := s.deps.Synthesizer.Synthesize(ctx, line, voice)
		s.Submit(func() { s.applySynthesis(line, announcement, audio, err) })
	}()
}

func (s *Session) applySynthesis(line string, announcement bool, audio *models.Audio, err error) {
	if s.isClosed() || line != s.currentVoiceLine {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("session", s.Name).Msg("speech synthesis failed")
		return
	}
	if audio == nil || len(audio.Data) == 0 {
		return
	}
	s.toHosts(events.New(events.EventTypeVoiceLine, events.VoiceLinePayload{
		Line:         line,
		Announcement: announcement,
		Audio:        base64.StdEncoding.EncodeToString(audio.Data),
	}))
	if audio.Duration > 0 {
		s.correctDuration(audio.Duration)
	}
}
