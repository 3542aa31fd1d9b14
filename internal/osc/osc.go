// Package osc implements the pitched sources of a voice: a VCO with
// simultaneous saw and pulse taps off one phase accumulator, a wavetable
// oscillator, and a phase-locked sub oscillator.
package osc

const defaultFrequency = 440.0

// pitchBase carries the frequency state shared by all oscillators: the
// current and target frequency, an optional linear Hz glide, and a pitch
// modulation offset in octaves.
type pitchBase struct {
	sampleRate    float64
	currentFreq   float64
	targetFreq    float64
	freqStep      float64
	pitchMod      float64 // octaves
	transitioning bool
}

// SetFrequency sets the frequency instantly and cancels any glide.
func (p *pitchBase) SetFrequency(hz float64) {
	p.currentFreq = hz
	p.targetFreq = hz
	p.freqStep = 0
	p.transitioning = false
}

// SetFrequencyGlide ramps linearly from the current frequency to hz over the
// given duration. A non-positive duration is an instant jump.
func (p *pitchBase) SetFrequencyGlide(hz float64, seconds float64) {
	if seconds <= 0 {
		p.SetFrequency(hz)
		return
	}
	p.targetFreq = hz
	total := seconds * p.sampleRate
	p.freqStep = (hz - p.currentFreq) / total
	p.transitioning = true
}

// SetPitchMod sets the modulation offset in octaves: f = freq * 2^octaves.
func (p *pitchBase) SetPitchMod(octaves float64) { p.pitchMod = octaves }

// Frequency returns the current (mid-glide) frequency in Hz.
func (p *pitchBase) Frequency() float64 { return p.currentFreq }

// step advances the glide by one sample and returns the effective frequency
// including pitch modulation. The ramp halts exactly at the target; the sign
// of the step decides the termination comparison.
func (p *pitchBase) step() float64 {
	if p.transitioning {
		p.currentFreq += p.freqStep
		if (p.freqStep > 0 && p.currentFreq >= p.targetFreq) ||
			(p.freqStep < 0 && p.currentFreq <= p.targetFreq) {
			p.currentFreq = p.targetFreq
			p.transitioning = false
		}
	}
	if p.pitchMod == 0 {
		return p.currentFreq
	}
	return p.currentFreq * pow2(p.pitchMod)
}

// resetPitch clears glide state. The frequency itself is preserved so a
// reused oscillator does not stall at 0 Hz; a never-set frequency falls back
// to a safe default.
func (p *pitchBase) resetPitch() {
	if p.currentFreq == 0 {
		p.currentFreq = defaultFrequency
		p.targetFreq = defaultFrequency
	}
	p.freqStep = 0
	p.transitioning = false
}

// polyBLEP is the two-sample band-limited step correction applied at
// waveform discontinuities. t is the phase in [0,1), dt the per-sample
// phase increment.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
