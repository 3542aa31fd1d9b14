package osc

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/dsp"
)

func pow2(x float64) float64 { return math.Exp2(x) }

var _ dsp.Oscillator = (*VCO)(nil)

// VCO is the primary pitched source of a voice. One phase accumulator feeds
// two simultaneous taps, a PolyBLEP sawtooth and a PolyBLEP pulse with
// variable width, so the saw and pulse outputs never drift against each
// other or against the phase-locked sub oscillator.
type VCO struct {
	pitchBase
	phase     float64
	baseWidth float64
	pwmDelta  float64

	// per-sample tap outputs, refreshed by Tick
	sawOut   float64
	pulseOut float64
}

// NewVCO creates a VCO at the given sample rate.
func NewVCO(sampleRate float64) *VCO {
	v := &VCO{baseWidth: 0.5}
	v.sampleRate = sampleRate
	v.SetFrequency(defaultFrequency)
	return v
}

// SetPulseWidth sets the base pulse width, clamped to [0.01, 0.99].
func (v *VCO) SetPulseWidth(w float64) {
	v.baseWidth = clampF(w, 0.01, 0.99)
}

// PulseWidth returns the base pulse width.
func (v *VCO) PulseWidth() float64 { return v.baseWidth }

// SetPulseWidthMod sets the per-block pulse width modulation offset.
func (v *VCO) SetPulseWidthMod(delta float64) { v.pwmDelta = delta }

// Phase returns the current accumulator phase in [0,1), for sub-oscillator
// tracking.
func (v *VCO) Phase() float64 { return v.phase }

// Tick advances the VCO one sample and refreshes both tap outputs.
func (v *VCO) Tick() {
	freq := v.step()
	dt := freq / v.sampleRate

	v.phase += dt
	if v.phase >= 1 {
		v.phase -= 1
	}
	if v.phase < 0 {
		v.phase += 1
	}

	// Sawtooth tap with step correction at the wrap.
	saw := 2*v.phase - 1
	saw -= polyBLEP(v.phase, dt)
	v.sawOut = 0.5 * saw

	// Pulse tap with corrections at both transitions.
	width := clampF(v.baseWidth+v.pwmDelta, 0.01, 0.99)
	var pulse float64
	if v.phase < width {
		pulse = 0.5
	} else {
		pulse = -0.5
	}
	pulse += polyBLEP(v.phase, dt)
	pulse -= polyBLEP(math.Mod(v.phase+(1-width), 1), dt)
	v.pulseOut = pulse
}

// Saw returns the sawtooth tap from the last Tick, in [-0.5, 0.5].
func (v *VCO) Saw() float64 { return v.sawOut }

// Pulse returns the pulse tap from the last Tick, in [-0.5, 0.5].
func (v *VCO) Pulse() float64 { return v.pulseOut }

// Pull fills a mono block with the pulse tap. The VCO is normally ticked
// sample-by-sample inside a voice; the block path exists so it satisfies the
// oscillator contract on its own.
func (v *VCO) Pull(out []float32) {
	for i := range out {
		v.Tick()
		out[i] = float32(v.pulseOut)
	}
}

// PullStereo duplicates the mono pull to both channels.
func (v *VCO) PullStereo(buf *dsp.AudioBuffer) { dsp.StereoFromMono(v, buf) }

// Reset clears phase and glide state, preserving frequency and pulse width.
func (v *VCO) Reset() {
	v.phase = 0
	v.sawOut = 0
	v.pulseOut = 0
	v.pwmDelta = 0
	v.resetPitch()
}

func clampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
