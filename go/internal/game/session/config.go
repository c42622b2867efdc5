package session

import (
	"time"

	"github.com/mcdev12/trivianight/go/internal/models"
)

// Config tunes game pacing and collaborators for every session a Manager creates.
type Config struct {
	MinPlayers int

	// Narration estimate: words / WordsPerSecond + NarrationPadding.
	WordsPerSecond   float64
	NarrationPadding time.Duration
	MinNarration     time.Duration

	TossupWindow   time.Duration
	ResponseWindow time.Duration
	WagerWindow    time.Duration

	GenerationTimeout time.Duration
	SynthesisTimeout  time.Duration

	// SpeechEnabled is forwarded to hosts as the inverse of legacy synthesis.
	SpeechEnabled bool

	DefaultPreset    models.SettingsPreset
	DefaultVoiceType models.VoiceType
	Presets          map[models.SettingsPreset]models.TriviaGameSettings

	NameSyllables   int
	NameMaxAttempts int
	QueueSize       int
}

func DefaultConfig() Config {
	return Config{
		MinPlayers:        1,
		WordsPerSecond:    2.5,
		NarrationPadding:  time.Second,
		MinNarration:      1500 * time.Millisecond,
		TossupWindow:      8 * time.Second,
		ResponseWindow:    12 * time.Second,
		WagerWindow:       20 * time.Second,
		GenerationTimeout: 45 * time.Second,
		SynthesisTimeout:  15 * time.Second,
		DefaultPreset:     models.SettingsPresetNormal,
		DefaultVoiceType:  models.VoiceTypeLocal,
		Presets: map[models.SettingsPreset]models.TriviaGameSettings{
			models.SettingsPresetNormal: {Categories: 5, CluesPerCat: 5, BaseValue: 200, WagerClues: 1},
			models.SettingsPresetQuick:  {Categories: 3, CluesPerCat: 3, BaseValue: 200, WagerClues: 1},
			models.SettingsPresetLong:   {Categories: 6, CluesPerCat: 5, BaseValue: 200, WagerClues: 2},
		},
		NameSyllables:   3,
		NameMaxAttempts: 20,
		QueueSize:       64,
	}
}

func (c Config) settingsFor(p models.SettingsPreset) models.TriviaGameSettings {
	if s, ok := c.Presets[p]; ok {
		return s
	}
	return c.Presets[c.DefaultPreset]
}
