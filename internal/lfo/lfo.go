// Package lfo implements the low-frequency modulation oscillator of a voice.
package lfo

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/dsp"
)

// Waveform constants for the modulation shape.
const (
	WaveSine = iota
	WaveTriangle
	WaveSquare
	WaveSaw
)

var _ dsp.Processor = (*LFO)(nil)

// LFO is a control-rate oscillator. It produces one value per block and
// advances its phase by the block length, so modulation cost is independent
// of the audio rate. Intensity changes are smoothed with a one-pole so
// block-to-block jumps do not zipper.
type LFO struct {
	sampleRate float64
	frequency  float64
	intensity  float64
	smoothed   float64
	smoothK    float64
	waveform   int
	phase      float64
}

// New creates an LFO at 1 Hz, full intensity, sine shape.
func New(sampleRate float64) *LFO {
	l := &LFO{
		sampleRate: sampleRate,
		frequency:  1,
		intensity:  1,
		smoothed:   1,
		waveform:   WaveSine,
	}
	l.SetSmoothingTime(0.01)
	return l
}

// SetFrequency sets the oscillation rate in Hz.
func (l *LFO) SetFrequency(hz float64) { l.frequency = hz }

// Frequency returns the oscillation rate in Hz.
func (l *LFO) Frequency() float64 { return l.frequency }

// SetIntensity sets the output scale. The change reaches the output through
// the smoothing filter.
func (l *LFO) SetIntensity(v float64) { l.intensity = v }

// Intensity returns the target output scale.
func (l *LFO) Intensity() float64 { return l.intensity }

// SetWaveform selects the modulation shape. Unknown values fall back to sine.
func (l *LFO) SetWaveform(w int) {
	if w < WaveSine || w > WaveSaw {
		w = WaveSine
	}
	l.waveform = w
}

// Waveform returns the current modulation shape.
func (l *LFO) Waveform() int { return l.waveform }

// SetSmoothingTime sets the intensity smoothing constant in seconds, assuming
// a nominal block cadence.
func (l *LFO) SetSmoothingTime(seconds float64) {
	if seconds <= 0 {
		l.smoothK = 1
		return
	}
	// One smoothing step per block; approximated for a 512-frame block.
	l.smoothK = 1 - math.Exp(-1/(seconds*(l.sampleRate/512)))
}

// BlockValue returns the modulation value for a block of n frames and
// advances the phase accordingly.
func (l *LFO) BlockValue(n int) float64 {
	v := l.waveValue()
	l.smoothed += l.smoothK * (l.intensity - l.smoothed)
	out := v * l.smoothed
	l.phase = math.Mod(l.phase+l.frequency/l.sampleRate*float64(n), 1)
	return out
}

// Pull fills a mono block with the block value, advancing the phase by the
// block length.
func (l *LFO) Pull(out []float32) {
	v := float32(l.BlockValue(len(out)))
	for i := range out {
		out[i] = v
	}
}

// PullStereo duplicates the mono pull to both channels.
func (l *LFO) PullStereo(buf *dsp.AudioBuffer) { dsp.StereoFromMono(l, buf) }

// Reset zeroes the phase and snaps the smoothed intensity to its target.
func (l *LFO) Reset() {
	l.phase = 0
	l.smoothed = l.intensity
}

func (l *LFO) waveValue() float64 {
	switch l.waveform {
	case WaveTriangle:
		if l.phase < 0.5 {
			return 4*l.phase - 1
		}
		return 3 - 4*l.phase
	case WaveSquare:
		if l.phase < 0.5 {
			return 1
		}
		return -1
	case WaveSaw:
		return 2*l.phase - 1
	default:
		return math.Sin(2 * math.Pi * l.phase)
	}
}
