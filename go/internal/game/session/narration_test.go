package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/game/timers"
	"github.com/mcdev12/trivianight/go/internal/models"
)

// gatedSynth holds each line until the test releases it.
type gatedSynth struct {
	audio    models.Audio
	requests chan string

	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedSynth(d time.Duration) *gatedSynth {
	return &gatedSynth{
		audio:    models.Audio{Data: []byte("mp3"), Format: "mp3", Duration: d},
		requests: make(chan string, 16),
		gates:    make(map[string]chan struct{}),
	}
}

func (g *gatedSynth) gate(line string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[line]
	if !ok {
		ch = make(chan struct{})
		g.gates[line] = ch
	}
	return ch
}

func (g *gatedSynth) release(line string) { close(g.gate(line)) }

func (g *gatedSynth) Synthesize(ctx context.Context, line string, _ models.VoiceType) (*models.Audio, error) {
	g.requests <- line
	select {
	case <-g.gate(line):
		audio := g.audio
		return &audio, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedSynth) nextRequest(t *testing.T) string {
	t.Helper()
	select {
	case line := <-g.requests:
		return line
	case <-time.After(2 * time.Second):
		t.Fatalf("no synthesis request")
		return ""
	}
}

func newSpeechFixture(t *testing.T, synth *gatedSynth) (*fixture, *Session) {
	t.Helper()
	f := newFixtureWith(t, func(cfg *Config, deps *Deps) {
		cfg.SpeechEnabled = true
		cfg.SynthesisTimeout = 5 * time.Second
		deps.Synthesizer = synth
	})
	s := f.create(t, "BAKOTI")
	if err := s.UpdateVoiceType(ctx(t), "creator", models.VoiceTypeAnnouncer); err != nil {
		t.Fatalf("voice type: %v", err)
	}
	return f, s
}

func audioLines(t *testing.T, rec *recorder, conn string) int {
	t.Helper()
	n := 0
	for _, ev := range rec.eventsFor(conn, events.EventTypeVoiceLine) {
		var p events.VoiceLinePayload
		if err := ev.DecodePayload(&p); err != nil {
			t.Fatalf("decode voice line: %v", err)
		}
		if p.Audio != "" {
			n++
		}
	}
	return n
}

func TestSession_Synthesis_CorrectsCurrentPhase(t *testing.T) {
	synth := newGatedSynth(700 * time.Millisecond)
	f, s := newSpeechFixture(t, synth)
	f.startWithPlayer(t, s)

	line := synth.nextRequest(t)
	synth.release(line)
	eventually(t, func() bool { return audioLines(t, f.rec, "creator") == 1 }, "audio voice line sent to host")

	deadline, ok := f.mgr.Timers().Deadline("BAKOTI", timers.KindReadingCategoryName)
	if want := f.clock.Now().Add(700 * time.Millisecond); !ok || !deadline.Equal(want) {
		t.Fatalf("category deadline = %v (%v), want %v", deadline, ok, want)
	}

	f.clock.Advance(700 * time.Millisecond)
	eventually(t, func() bool {
		return snapshot(t, s).State == models.SessionStateClueSelection
	}, "corrected timeout fires at the audio duration")
}

func TestSession_Synthesis_StaleResultDropped(t *testing.T) {
	synth := newGatedSynth(700 * time.Millisecond)
	f, s := newSpeechFixture(t, synth)
	f.startWithPlayer(t, s)
	categories := synth.nextRequest(t)

	f.advanceUntil(t, s, models.SessionStateClueSelection)
	if err := s.SelectClue(ctx(t), "alice", 0, 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := synth.nextRequest(t); got == categories {
		t.Fatalf("expected a request for the clue selection line")
	}
	before, ok := f.mgr.Timers().Deadline("BAKOTI", timers.KindReadingClueSelection)
	if !ok {
		t.Fatalf("clue selection timeout not armed")
	}

	synth.release(categories)
	// Give the stale result time to reach the queue; the snapshot runs behind it.
	time.Sleep(50 * time.Millisecond)
	snapshot(t, s)

	after, ok := f.mgr.Timers().Deadline("BAKOTI", timers.KindReadingClueSelection)
	if !ok || !after.Equal(before) {
		t.Fatalf("stale synthesis moved the deadline from %v to %v", before, after)
	}
	if n := audioLines(t, f.rec, "creator"); n != 0 {
		t.Fatalf("stale synthesis sent %d audio lines", n)
	}
}
