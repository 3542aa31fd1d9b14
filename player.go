package subsynth

import (
	"time"

	intaudio "github.com/cbegin/subsynth-go/internal/audio"
)

// Player drives an Engine through the realtime audio backend. The backend's
// callback pulls interleaved stereo blocks from the engine; everything else
// on the Player is control-thread API.
type Player struct {
	engine  *Engine
	backend *intaudio.Player
}

// NewPlayer creates a realtime player for the engine. The first player in
// the process fixes the output sample rate; creating a second player at a
// different rate fails.
func NewPlayer(engine *Engine) (*Player, error) {
	backend, err := intaudio.NewPlayer(engine.SampleRate(), engine)
	if err != nil {
		return nil, err
	}
	return &Player{engine: engine, backend: backend}, nil
}

// Engine returns the engine this player drives.
func (p *Player) Engine() *Engine { return p.engine }

// Play starts or resumes output.
func (p *Player) Play() { p.backend.Play() }

// Pause suspends output without tearing the stream down.
func (p *Player) Pause() { p.backend.Pause() }

// IsPlaying reports whether the stream is running.
func (p *Player) IsPlaying() bool { return p.backend.IsPlaying() }

// Position returns the playback position the listener actually hears.
func (p *Player) Position() time.Duration { return p.backend.Position() }

// Stop closes the stream.
func (p *Player) Stop() error { return p.backend.Stop() }
