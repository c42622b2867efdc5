package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/trivianight/go/internal/game/eventbus"
	"github.com/mcdev12/trivianight/go/internal/game/session"
	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is everything the server binary reads from its environment.
type Config struct {
	Port     string
	LogLevel zerolog.Level

	NATS eventbus.JetStreamConfig
	// NATSEnabled is false when NATS_URL is empty.
	NATSEnabled bool

	SpeechEnabled bool
	TTSURL        string
	TTSAPIKey     string

	GeneratorURL    string
	GeneratorAPIKey string
	ClueBankPath    string
	PresetsPath     string

	HandlerTimeout time.Duration
	Session        session.Config
}

// Load builds a Config from environment variables, falling back to defaults.
func Load() (*Config, error) {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	nats := eventbus.DefaultJetStreamConfig()
	nats.URL = os.Getenv("NATS_URL")
	nats.StreamName = getEnv("NATS_STREAM", nats.StreamName)
	nats.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", nats.SubjectPrefix)

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        level,
		NATS:            nats,
		NATSEnabled:     nats.URL != "",
		SpeechEnabled:   getEnvAsBool("SPEECH_ENABLED", false),
		TTSURL:          os.Getenv("TTS_URL"),
		TTSAPIKey:       os.Getenv("TTS_API_KEY"),
		GeneratorURL:    os.Getenv("GENERATOR_URL"),
		GeneratorAPIKey: os.Getenv("GENERATOR_API_KEY"),
		ClueBankPath:    os.Getenv("CLUE_BANK_PATH"),
		PresetsPath:     os.Getenv("PRESETS_PATH"),
		HandlerTimeout:  getEnvAsDuration("HANDLER_TIMEOUT", 60*time.Second),
	}

	sc := session.DefaultConfig()
	sc.MinPlayers = getEnvAsInt("MIN_PLAYERS", sc.MinPlayers)
	sc.WordsPerSecond = getEnvAsFloat("NARRATION_WORDS_PER_SECOND", sc.WordsPerSecond)
	sc.NarrationPadding = getEnvAsDuration("NARRATION_PADDING", sc.NarrationPadding)
	sc.TossupWindow = getEnvAsDuration("TOSSUP_WINDOW", sc.TossupWindow)
	sc.ResponseWindow = getEnvAsDuration("RESPONSE_WINDOW", sc.ResponseWindow)
	sc.WagerWindow = getEnvAsDuration("WAGER_WINDOW", sc.WagerWindow)
	sc.GenerationTimeout = getEnvAsDuration("GENERATION_TIMEOUT", sc.GenerationTimeout)
	sc.NameSyllables = getEnvAsInt("SESSION_NAME_SYLLABLES", sc.NameSyllables)
	sc.NameMaxAttempts = getEnvAsInt("SESSION_NAME_MAX_ATTEMPTS", sc.NameMaxAttempts)
	sc.SpeechEnabled = cfg.SpeechEnabled

	if cfg.PresetsPath != "" {
		presets, err := LoadPresets(cfg.PresetsPath)
		if err != nil {
			return nil, err
		}
		for preset, settings := range presets {
			sc.Presets[preset] = settings
		}
	}
	if sc.MinPlayers < 1 {
		return nil, fmt.Errorf("MIN_PLAYERS must be at least 1, got %d", sc.MinPlayers)
	}
	if sc.WordsPerSecond <= 0 {
		return nil, fmt.Errorf("NARRATION_WORDS_PER_SECOND must be positive")
	}
	cfg.Session = sc
	return cfg, nil
}

type presetFile struct {
	Presets map[string]models.TriviaGameSettings `yaml:"presets"`
}

// LoadPresets reads preset overrides from a YAML file:
//
//	presets:
//	  QUICK: {categories: 2, clues_per_category: 3, base_value: 100}
func LoadPresets(path string) (map[models.SettingsPreset]models.TriviaGameSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return ParsePresets(data)
}

func ParsePresets(data []byte) (map[models.SettingsPreset]models.TriviaGameSettings, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	out := make(map[models.SettingsPreset]models.TriviaGameSettings, len(file.Presets))
	for name, settings := range file.Presets {
		preset := models.SettingsPreset(name)
		if !preset.Valid() {
			return nil, fmt.Errorf("unknown preset %q", name)
		}
		if settings.Categories <= 0 || settings.CluesPerCat <= 0 {
			return nil, fmt.Errorf("preset %s needs categories and clues_per_category", name)
		}
		out[preset] = settings
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
