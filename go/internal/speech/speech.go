package speech

import (
	"context"
	"sync"

	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Synthesizer renders a narration line for a voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, line string, voice models.VoiceType) (*models.Audio, error)
}

// Disabled never renders audio, so sessions fall back to estimated narration.
type Disabled struct{}

func (Disabled) Synthesize(context.Context, string, models.VoiceType) (*models.Audio, error) {
	return nil, nil
}

type cacheKey struct {
	voice models.VoiceType
	line  string
}

// Cache memoizes rendered lines by voice and text.
type Cache struct {
	next  Synthesizer
	limit int

	mu      sync.Mutex
	entries map[cacheKey]*models.Audio
	order   []cacheKey
}

func NewCache(next Synthesizer, limit int) *Cache {
	if limit <= 0 {
		limit = 256
	}
	return &Cache{next: next, limit: limit, entries: make(map[cacheKey]*models.Audio)}
}

func (c *Cache) Synthesize(ctx context.Context, line string, voice models.VoiceType) (*models.Audio, error) {
	if !voice.ServerSynthesized() {
		return nil, nil
	}
	key := cacheKey{voice: voice, line: line}

	c.mu.Lock()
	if audio, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return audio, nil
	}
	c.mu.Unlock()

	audio, err := c.next.Synthesize(ctx, line, voice)
	if err != nil || audio == nil {
		return audio, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = audio
		c.order = append(c.order, key)
		if len(c.order) > c.limit {
			evicted := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, evicted)
			log.Debug().Str("voice", string(evicted.voice)).Msg("evicted cached narration")
		}
	}
	return audio, nil
}

// Len reports the number of cached lines.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
