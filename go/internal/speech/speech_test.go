package speech

import (
	"context"
	"testing"
	"time"

	"github.com/mcdev12/trivianight/go/internal/models"
)

type countingSynth struct{ calls int }

func (s *countingSynth) Synthesize(_ context.Context, line string, _ models.VoiceType) (*models.Audio, error) {
	s.calls++
	return &models.Audio{Data: []byte(line), Format: "mp3", Duration: time.Second}, nil
}

func TestDisabled_ReturnsNoAudio(t *testing.T) {
	audio, err := Disabled{}.Synthesize(context.Background(), "hello", models.VoiceTypeAnnouncer)
	if audio != nil || err != nil {
		t.Fatalf("Disabled = %v, %v", audio, err)
	}
}

func TestCache_HitsSkipBackend(t *testing.T) {
	backend := &countingSynth{}
	c := NewCache(backend, 4)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Synthesize(ctx, "Planets", models.VoiceTypeAnnouncer); err != nil {
			t.Fatalf("synthesize: %v", err)
		}
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", backend.calls)
	}
	if _, err := c.Synthesize(ctx, "Planets", models.VoiceTypeCasual); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if backend.calls != 2 {
		t.Fatalf("a different voice should miss, calls = %d", backend.calls)
	}
}

func TestCache_LocalVoiceBypasses(t *testing.T) {
	backend := &countingSynth{}
	c := NewCache(backend, 4)
	audio, err := c.Synthesize(context.Background(), "x", models.VoiceTypeLocal)
	if audio != nil || err != nil || backend.calls != 0 {
		t.Fatalf("local voice = %v, %v, calls %d", audio, err, backend.calls)
	}
}

func TestCache_EvictsOldest(t *testing.T) {
	backend := &countingSynth{}
	c := NewCache(backend, 2)
	ctx := context.Background()
	for _, line := range []string{"a", "b", "c"} {
		_, _ = c.Synthesize(ctx, line, models.VoiceTypeAnnouncer)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	_, _ = c.Synthesize(ctx, "a", models.VoiceTypeAnnouncer)
	if backend.calls != 4 {
		t.Fatalf("evicted line should be re-rendered, calls = %d", backend.calls)
	}
}
