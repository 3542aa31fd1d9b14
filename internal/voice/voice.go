// Package voice implements the polyphonic slot: one pitched note rendered
// through an oscillator bank, source mixer, filter and envelope, modulated
// by a private matrix. The manager in this package maps MIDI pitches onto a
// fixed pool of these slots.
package voice

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/dsp"
	"github.com/cbegin/subsynth-go/internal/env"
	"github.com/cbegin/subsynth-go/internal/filter"
	"github.com/cbegin/subsynth-go/internal/lfo"
	"github.com/cbegin/subsynth-go/internal/mod"
	"github.com/cbegin/subsynth-go/internal/osc"
)

const (
	minModCutoff = 20.0
	maxModCutoff = 20000.0
	maxModRes    = 0.99
	ampSmoothSec = 0.001
)

// Voice is one polyphonic slot. The signal chain per sample: the VCO's saw
// and pulse taps, the phase-locked sub, a noise source and a wavetable
// oscillator feed the five-channel mixer; the mix runs through the ladder
// filter and a VCA driven by the modulation matrix's amplitude sum.
//
// Modulation runs at block rate: the envelope and LFO are sampled once per
// block and routed through the matrix to the pitch, cutoff, resonance,
// amplitude and pulse-width anchors. The amplitude factor is smoothed with a
// one-pole so block-rate steps do not zipper.
type Voice struct {
	sampleRate float64

	vco    *osc.VCO
	sub    *osc.Sub
	wav    *osc.Wavetable
	mixer  Mixer
	filt   *filter.Ladder
	env    *env.ADSR
	lfo    *lfo.LFO
	matrix mod.Matrix

	baseFrequency float64
	baseCutoff    float64
	baseResonance float64
	baseAmplitude float64
	pan           float64

	velocity   float64
	aftertouch float64

	ampSmoothed float64
	ampSmoothK  float64
	noiseState  uint32
}

// New constructs a voice with an audible default patch: pulse plus sub into
// a moderately open filter, organ-like envelope, and the default
// Envelope→Amplitude connection at full intensity.
func New(sampleRate float64) *Voice {
	v := &Voice{
		sampleRate:    sampleRate,
		vco:           osc.NewVCO(sampleRate),
		sub:           osc.NewSub(osc.OneDown),
		wav:           osc.NewWavetable(sampleRate, osc.Sine),
		filt:          filter.NewLadder(sampleRate),
		env:           env.NewADSR(sampleRate),
		lfo:           lfo.New(sampleRate),
		baseFrequency: 440,
		baseCutoff:    4000,
		baseResonance: 0.2,
		baseAmplitude: 1,
		noiseState:    0x9e3779b9,
	}
	v.ampSmoothK = 1 - math.Exp(-1/(ampSmoothSec*sampleRate))

	v.mixer.SetGain(ChanPulse, 0.7)
	v.mixer.SetGain(ChanSub, 0.3)

	v.env.SetAttack(0.015)
	v.env.SetDecay(0.001)
	v.env.SetSustain(1.0)
	v.env.SetRelease(0.050)

	v.filt.SetCutoff(v.baseCutoff)
	v.filt.SetResonance(v.baseResonance)

	v.matrix.Set(mod.SrcEnvelope, mod.TgtAmplitude, 1.0)
	return v
}

// NoteOn resets the primitives, tunes the oscillators to frequency and gates
// the envelope. The default Envelope→Amplitude connection is reinserted if a
// patch cleared it, so a voice is never silent by accident.
func (v *Voice) NoteOn(frequency float64, velocity float64) {
	v.vco.Reset()
	v.sub.Reset()
	v.wav.Reset()
	v.filt.Reset()
	v.env.Reset()
	v.lfo.Reset()
	v.ampSmoothed = 0

	v.baseFrequency = frequency
	v.vco.SetFrequency(frequency)
	v.wav.SetFrequency(frequency)
	v.velocity = clamp(velocity, 0, 1)
	v.aftertouch = 0

	if !v.matrix.Has(mod.SrcEnvelope, mod.TgtAmplitude) {
		v.matrix.Set(mod.SrcEnvelope, mod.TgtAmplitude, 1.0)
	}
	v.env.GateOn()
}

// NoteOff gates the envelope off; the voice keeps sounding through its
// release stage.
func (v *Voice) NoteOff() { v.env.GateOff() }

// IsActive reports whether the envelope has not reached its terminal state.
func (v *Voice) IsActive() bool { return v.env.IsActive() }

// IsReleasing reports whether the envelope is in its release stage.
func (v *Voice) IsReleasing() bool { return v.env.IsReleasing() }

// SetPan sets the stereo position in [-1, 1].
func (v *Voice) SetPan(pan float64) { v.pan = clamp(pan, -1, 1) }

// Pan returns the stereo position.
func (v *Voice) Pan() float64 { return v.pan }

// SetAftertouch sets the aftertouch modulation source value in [0, 1].
func (v *Voice) SetAftertouch(value float64) { v.aftertouch = clamp(value, 0, 1) }

// Velocity returns the note-on velocity in [0, 1].
func (v *Voice) Velocity() float64 { return v.velocity }

// Envelope exposes the amplitude envelope for parameter setters.
func (v *Voice) Envelope() *env.ADSR { return v.env }

// Filter exposes the ladder filter.
func (v *Voice) Filter() *filter.Ladder { return v.filt }

// LFO exposes the modulation oscillator.
func (v *Voice) LFO() *lfo.LFO { return v.lfo }

// Matrix exposes the voice's private modulation matrix.
func (v *Voice) Matrix() *mod.Matrix { return &v.matrix }

// VCO exposes the primary oscillator.
func (v *Voice) VCO() *osc.VCO { return v.vco }

// Wavetable exposes the fifth-channel oscillator.
func (v *Voice) Wavetable() *osc.Wavetable { return v.wav }

// SetGain sets a mixer channel gain.
func (v *Voice) SetGain(channel int, gain float64) { v.mixer.SetGain(channel, gain) }

// Gain returns a mixer channel gain.
func (v *Voice) Gain(channel int) float64 { return v.mixer.Gain(channel) }

// SetBaseCutoff sets the filter cutoff anchor in Hz.
func (v *Voice) SetBaseCutoff(hz float64) { v.baseCutoff = clamp(hz, minModCutoff, maxModCutoff) }

// BaseCutoff returns the filter cutoff anchor.
func (v *Voice) BaseCutoff() float64 { return v.baseCutoff }

// SetBaseResonance sets the filter resonance anchor.
func (v *Voice) SetBaseResonance(q float64) { v.baseResonance = clamp(q, 0, maxModRes) }

// BaseResonance returns the filter resonance anchor.
func (v *Voice) BaseResonance() float64 { return v.baseResonance }

// SetBaseAmplitude sets the output level anchor.
func (v *Voice) SetBaseAmplitude(a float64) { v.baseAmplitude = clamp(a, 0, 2) }

// BaseAmplitude returns the output level anchor.
func (v *Voice) BaseAmplitude() float64 { return v.baseAmplitude }

// prepareBlock samples the modulation sources for a block of n frames,
// applies the routed sums to the anchors, and returns the VCA target.
// The envelope advances by the full block so its timing stays
// sample-accurate; the block's source value is its level at the block end.
func (v *Voice) prepareBlock(n int) float64 {
	var envVal float64
	for i := 0; i < n; i++ {
		envVal = v.env.NextSample()
	}
	lfoVal := v.lfo.BlockValue(n)

	values := mod.SourceValues{}
	values[mod.SrcEnvelope] = envVal
	values[mod.SrcLFO] = lfoVal
	values[mod.SrcVelocity] = v.velocity
	values[mod.SrcAftertouch] = v.aftertouch

	pitchSum := v.matrix.SumForTarget(mod.TgtPitch, &values)
	v.vco.SetPitchMod(pitchSum)
	v.wav.SetPitchMod(pitchSum)

	cutoffSum := v.matrix.SumForTarget(mod.TgtCutoff, &values)
	v.filt.SetCutoff(clamp(v.baseCutoff*math.Exp2(cutoffSum), minModCutoff, maxModCutoff))

	resSum := v.matrix.SumForTarget(mod.TgtResonance, &values)
	v.filt.SetResonance(clamp(v.baseResonance+resSum, 0, maxModRes))

	v.vco.SetPulseWidthMod(v.matrix.SumForTarget(mod.TgtPulseWidth, &values))

	ampSum := v.matrix.SumForTarget(mod.TgtAmplitude, &values)
	return clamp(ampSum, 0, 1) * v.baseAmplitude
}

// nextSample renders one mono sample through the mixer, filter and VCA.
func (v *Voice) nextSample(ampTarget float64) float64 {
	v.vco.Tick()
	var inputs [NumChannels]float64
	inputs[ChanSaw] = v.vco.Saw()
	inputs[ChanPulse] = v.vco.Pulse()
	inputs[ChanSub] = v.sub.Sample(v.vco.Phase())
	inputs[ChanNoise] = v.nextNoise()
	inputs[ChanWavetable] = v.wav.Tick()

	mixed := v.mixer.Mix(&inputs)
	filtered := v.filt.Tick(mixed)

	v.ampSmoothed += v.ampSmoothK * (ampTarget - v.ampSmoothed)
	return filtered * v.ampSmoothed
}

// Pull renders one mono block.
func (v *Voice) Pull(out []float32) {
	amp := v.prepareBlock(len(out))
	for i := range out {
		out[i] = float32(v.nextSample(amp))
	}
}

// PullStereo renders one stereo block with constant-power panning.
func (v *Voice) PullStereo(buf *dsp.AudioBuffer) {
	amp := v.prepareBlock(buf.Frames())
	panRad := (v.pan + 1) * (math.Pi / 4)
	gainL := float32(math.Cos(panRad))
	gainR := float32(math.Sin(panRad))
	for i := range buf.Left {
		s := float32(v.nextSample(amp))
		buf.Left[i] = s * gainL
		buf.Right[i] = s * gainR
	}
}

// Reset clears all primitive state: phase, envelope stage, filter and VCA
// accumulators. Parameters, pan and the matrix survive.
func (v *Voice) Reset() {
	v.vco.Reset()
	v.sub.Reset()
	v.wav.Reset()
	v.filt.Reset()
	v.env.Reset()
	v.lfo.Reset()
	v.ampSmoothed = 0
	v.aftertouch = 0
}

func (v *Voice) nextNoise() float64 {
	// xorshift32; cheap and stateful per voice
	x := v.noiseState
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	v.noiseState = x
	return float64(x)/float64(math.MaxUint32) - 0.5
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
