// Package filter implements the voice filter.
package filter

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/dsp"
)

const (
	minCutoff = 20.0
	maxRes    = 1.0
)

var _ dsp.Filter = (*Ladder)(nil)

// Ladder is a Moog-style 4-pole transistor ladder: four one-pole stages with
// tanh-limited feedback from the last stage. The stereo path runs dual-mono
// through a single state set.
type Ladder struct {
	sampleRate float64
	cutoff     float64
	resonance  float64
	g          float64
	stage      [4]float64
}

// NewLadder creates a ladder filter, fully open by default.
func NewLadder(sampleRate float64) *Ladder {
	f := &Ladder{sampleRate: sampleRate, cutoff: 20000}
	f.updateCoefficients()
	return f
}

// SetCutoff sets the cutoff frequency, clamped to [20 Hz, 0.45·fs].
func (f *Ladder) SetCutoff(hz float64) {
	hi := f.sampleRate * 0.45
	if hz < minCutoff {
		hz = minCutoff
	}
	if hz > hi {
		hz = hi
	}
	f.cutoff = hz
	f.updateCoefficients()
}

// SetResonance sets the feedback amount, clamped to [0, 1].
func (f *Ladder) SetResonance(q float64) {
	if q < 0 {
		q = 0
	}
	if q > maxRes {
		q = maxRes
	}
	f.resonance = q
}

// Cutoff returns the current cutoff in Hz.
func (f *Ladder) Cutoff() float64 { return f.cutoff }

// Resonance returns the current resonance.
func (f *Ladder) Resonance() float64 { return f.resonance }

// Tick filters one sample.
func (f *Ladder) Tick(in float64) float64 {
	input := in - math.Tanh(f.stage[3]*f.resonance*4)
	f.stage[0] += f.g * (input - f.stage[0])
	f.stage[1] += f.g * (f.stage[0] - f.stage[1])
	f.stage[2] += f.g * (f.stage[1] - f.stage[2])
	f.stage[3] += f.g * (f.stage[2] - f.stage[3])
	return f.stage[3]
}

// Pull filters a mono block in place.
func (f *Ladder) Pull(out []float32) {
	for i, s := range out {
		out[i] = float32(f.Tick(float64(s)))
	}
}

// PullStereo filters a stereo block dual-mono: the channels are averaged,
// filtered through the shared state, and written back to both sides.
func (f *Ladder) PullStereo(buf *dsp.AudioBuffer) {
	for i := range buf.Left {
		mixed := (float64(buf.Left[i]) + float64(buf.Right[i])) * 0.5
		y := float32(f.Tick(mixed))
		buf.Left[i] = y
		buf.Right[i] = y
	}
}

// Reset clears the stage accumulators. Cutoff and resonance survive.
func (f *Ladder) Reset() {
	for i := range f.stage {
		f.stage[i] = 0
	}
}

func (f *Ladder) updateCoefficients() {
	g := 2 * math.Pi * f.cutoff / f.sampleRate
	if g > 1 {
		g = 1
	}
	if g < 0 {
		g = 0
	}
	f.g = g
}
