// Package subsynth is a polyphonic subtractive synthesizer engine. The host
// drives it one block at a time through Render; control comes in as MIDI
// bytes, note calls, and symbolic parameter setters. Rendering never
// allocates after warm-up. Rendering and every control call share one
// engine mutex, so a render waits while a control call holds it.
// Control-path failures are returned as errors with engine state unchanged.
package subsynth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cbegin/subsynth-go/internal/audio"
	"github.com/cbegin/subsynth-go/internal/clock"
	"github.com/cbegin/subsynth-go/internal/dsp"
	"github.com/cbegin/subsynth-go/internal/effects"
	"github.com/cbegin/subsynth-go/internal/midi"
	"github.com/cbegin/subsynth-go/internal/mod"
	"github.com/cbegin/subsynth-go/internal/rtlog"
	"github.com/cbegin/subsynth-go/internal/tuning"
	"github.com/cbegin/subsynth-go/internal/voice"
)

// MusicalTime re-exports the clock's bar/beat/tick triple. Bars and beats
// are 1-based; ticks run 0..959 within the beat.
type MusicalTime = clock.MusicalTime

// PPQ is the musical clock resolution in pulses per quarter note.
const PPQ = clock.PPQ

// ChorusMode re-exports the master chorus voicings.
type ChorusMode = effects.ChorusMode

const (
	ChorusOff = effects.ChorusOff
	ChorusI   = effects.ChorusI
	ChorusII  = effects.ChorusII
	ChorusIII = effects.ChorusIII
)

// LogEntry is one drained telemetry record from the audio thread.
type LogEntry struct {
	Tag     string
	Message string
	Value   float32
	IsEvent bool
}

// Option configures a new Engine.
type Option func(*config)

type config struct {
	bpm         float64
	blockSize   int
	referenceHz float64
}

// WithBPM sets the initial tempo of the musical clock.
func WithBPM(bpm float64) Option {
	return func(c *config) { c.bpm = bpm }
}

// WithBlockSize sets the scratch block size the engine pre-allocates.
func WithBlockSize(frames int) Option {
	return func(c *config) { c.blockSize = frames }
}

// WithReferencePitch sets the 12-TET reference for A4 in Hz.
func WithReferencePitch(hz float64) Option {
	return func(c *config) { c.referenceHz = hz }
}

// Engine binds the voice pool, musical clock, MIDI parser, tuning and
// master effects under the block-callback contract.
type Engine struct {
	mu sync.Mutex

	sampleRate int
	blockSize  int

	vm     *voice.Manager
	clk    *clock.Clock
	parser midi.Parser
	tun    *tuning.TwelveTone
	log    *rtlog.Logger

	delay        *effects.Delay
	chorus       *effects.Chorus
	delayEnabled bool

	// scratch for the interleaved path, sized on first use
	renderL, renderR []float32
}

// New creates an engine at the given sample rate.
func New(sampleRate int, opts ...Option) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, errors.New("subsynth: sample rate must be positive")
	}
	cfg := config{bpm: 120, blockSize: 512, referenceHz: 440}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.blockSize <= 0 {
		return nil, errors.New("subsynth: block size must be positive")
	}
	if cfg.bpm <= 0 {
		return nil, errors.New("subsynth: bpm must be positive")
	}

	e := &Engine{
		sampleRate: sampleRate,
		blockSize:  cfg.blockSize,
		vm:         voice.NewManager(float64(sampleRate), cfg.blockSize),
		clk:        clock.New(float64(sampleRate), cfg.bpm),
		tun:        tuning.NewTwelveTone(cfg.referenceHz, 69),
		log:        rtlog.Default,
		delay:      effects.NewDelay(sampleRate, 2.0, 0.3, 0.35, 0.3),
		chorus:     effects.NewChorus(sampleRate),
	}
	e.chorus.SetMode(effects.ChorusOff)

	audio.Shared.SetSampleRate(sampleRate)
	audio.Shared.SetBlockSize(cfg.blockSize)
	return e, nil
}

// SampleRate returns the rate the engine was built for.
func (e *Engine) SampleRate() int { return e.sampleRate }

// Render fills one stereo block. It advances the musical clock by the frame
// count, pulls the voice sum, runs the master effects, and saturates the
// result into [-1, 1]. The two slices must be the same length; the shorter
// one bounds the block.
func (e *Engine) Render(left, right []float32) {
	frames := len(left)
	if len(right) < frames {
		frames = len(right)
	}
	if frames == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.clk.Advance(frames)

	buf := dsp.AudioBuffer{Left: left[:frames], Right: right[:frames]}
	e.vm.PullStereo(&buf)

	chorusOn := e.chorus.Mode() != effects.ChorusOff
	for i := 0; i < frames; i++ {
		l, r := buf.Left[i], buf.Right[i]
		if chorusOn {
			l, r = e.chorus.Process(l, r)
		}
		if e.delayEnabled {
			l, r = e.delay.Process(l, r)
		}
		buf.Left[i] = saturate(l)
		buf.Right[i] = saturate(r)
	}
}

// RenderMono fills one mono block: the degenerate single-buffer case of the
// block callback. The caller may duplicate the result to a second channel.
func (e *Engine) RenderMono(out []float32) {
	if len(out) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clk.Advance(len(out))
	e.vm.Pull(out)
	for i, s := range out {
		out[i] = saturate(s)
	}
}

// RenderInterleaved fills an interleaved stereo buffer. It satisfies the
// realtime backend's BlockSource contract.
func (e *Engine) RenderInterleaved(dst []float32) {
	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	if cap(e.renderL) < frames {
		e.renderL = make([]float32, frames)
		e.renderR = make([]float32, frames)
	}
	l := e.renderL[:frames]
	r := e.renderR[:frames]
	e.Render(l, r)
	for i := 0; i < frames; i++ {
		dst[i*2] = l[i]
		dst[i*2+1] = r[i]
	}
}

// NoteOn triggers a MIDI pitch with velocity in [0, 1].
func (e *Engine) NoteOn(note int, velocity float64) error {
	if note < 0 || note > 127 {
		return fmt.Errorf("subsynth: note %d out of range", note)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.NoteOn(note, velocity, e.tun.Frequency(note))
	return nil
}

// NoteOff releases a MIDI pitch. Unknown pitches are a no-op.
func (e *Engine) NoteOff(note int) error {
	if note < 0 || note > 127 {
		return fmt.Errorf("subsynth: note %d out of range", note)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.NoteOff(note)
	return nil
}

// NoteOnName triggers a note by spelling, e.g. "A4", "C#3", "Bb-1". An
// invalid spelling returns an error and leaves the engine unchanged.
func (e *Engine) NoteOnName(name string, velocity float64) error {
	note, err := tuning.ParseNote(name)
	if err != nil {
		return err
	}
	return e.NoteOn(note, velocity)
}

// NoteOffName releases a note by spelling.
func (e *Engine) NoteOffName(name string) error {
	note, err := tuning.ParseNote(name)
	if err != nil {
		return err
	}
	return e.NoteOff(note)
}

// NoteOnPanned triggers a pitch and places it in the stereo field.
func (e *Engine) NoteOnPanned(note int, velocity, pan float64) error {
	if note < 0 || note > 127 {
		return fmt.Errorf("subsynth: note %d out of range", note)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.NoteOn(note, velocity, e.tun.Frequency(note))
	e.vm.SetNotePan(note, pan)
	return nil
}

// SetNotePan adjusts the pan of a sounding pitch.
func (e *Engine) SetNotePan(note int, pan float64) error {
	if note < 0 || note > 127 {
		return fmt.Errorf("subsynth: note %d out of range", note)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.SetNotePan(note, pan)
	return nil
}

// SetChannelAftertouch routes channel pressure, in [0, 1], to every
// sounding voice.
func (e *Engine) SetChannelAftertouch(value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.SetChannelAftertouch(value)
}

// SubmitMIDI parses raw MIDI bytes and dispatches the decoded events.
// sampleOffset stamps the events for telemetry; intra-block placement is
// not applied.
func (e *Engine) SubmitMIDI(data []byte, sampleOffset uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parser.Parse(data, sampleOffset, func(ev midi.Event) {
		e.log.LogEvent("MidiEvent", float32(ev.Status))
		e.vm.HandleEvent(ev)
	})
}

// MusicalTime returns the current bar, beat and tick.
func (e *Engine) MusicalTime() MusicalTime {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clk.Now()
}

// SetBPM changes the tempo. The clock anchors first, so musical time is
// continuous across the change.
func (e *Engine) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("subsynth: bpm %v must be positive", bpm)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clk.SetBPM(bpm)
	return nil
}

// BPM returns the current tempo.
func (e *Engine) BPM() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clk.BPM()
}

// SetMeter sets the number of beats per bar.
func (e *Engine) SetMeter(beatsPerBar int) error {
	if beatsPerBar <= 0 {
		return fmt.Errorf("subsynth: meter %d must be positive", beatsPerBar)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clk.SetMeter(beatsPerBar)
	return nil
}

// SetModulation adds or updates a matrix connection on every voice. A full
// matrix drops the route silently, per the resource-exhaustion policy, with
// a telemetry message for the drain.
func (e *Engine) SetModulation(source, target int, intensity float64) error {
	if source < 0 || source >= int(mod.NumSources) {
		return fmt.Errorf("subsynth: modulation source %d out of range", source)
	}
	if target < 0 || target >= int(mod.NumTargets) {
		return fmt.Errorf("subsynth: modulation target %d out of range", target)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	dropped := false
	e.vm.ForEachVoice(func(v *voice.Voice) {
		if !v.Matrix().Set(mod.Source(source), mod.Target(target), intensity) {
			dropped = true
		}
	})
	if dropped {
		e.log.LogMessage("ModMatrix", "connection table full, route dropped")
	}
	return nil
}

// ClearModulations removes every matrix connection from every voice. The
// default Envelope→Amplitude route returns on the next note-on.
func (e *Engine) ClearModulations() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.ForEachVoice(func(v *voice.Voice) {
		v.Matrix().ClearAll()
	})
}

// SetChorusMode selects the master chorus voicing.
func (e *Engine) SetChorusMode(mode ChorusMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chorus.SetMode(mode)
}

// SetDelayEnabled toggles the master delay.
func (e *Engine) SetDelayEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delayEnabled = enabled
}

// Reset silences all voices and clears allocation state.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Reset()
	e.delay.Reset()
	e.chorus.Reset()
}

// DrainLogs pops every queued audio-thread telemetry entry into fn. Call it
// from a non-realtime goroutine.
func (e *Engine) DrainLogs(fn func(LogEntry)) {
	e.log.Drain(func(entry *rtlog.Entry) {
		fn(LogEntry{
			Tag:     entry.TagString(),
			Message: entry.MessageString(),
			Value:   entry.Value,
			IsEvent: entry.Type == rtlog.Event,
		})
	})
}

func saturate(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
