// Package env implements the amplitude envelope of a voice.
package env

import "github.com/cbegin/subsynth-go/internal/dsp"

// Stage is the current ADSR state.
type Stage int

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

const minTime = 0.001 // 1 ms floor on all time parameters

var _ dsp.Envelope = (*ADSR)(nil)

// ADSR is a four-stage linear envelope. Output is in [0, 1] and is 0 in
// Idle; with a sustain level of 0 it also holds 0 in Sustain while the gate
// stays on, and the envelope still reports active there. Gate-on re-enters
// Attack from the current level so a retrigger does not click.
type ADSR struct {
	sampleRate float64
	stage      Stage
	level      float64

	attackTime   float64
	decayTime    float64
	sustainLevel float64
	releaseTime  float64

	attackRate  float64
	decayRate   float64
	releaseRate float64
}

// NewADSR creates an envelope with moderate defaults.
func NewADSR(sampleRate float64) *ADSR {
	e := &ADSR{
		sampleRate:   sampleRate,
		attackTime:   0.01,
		decayTime:    0.1,
		sustainLevel: 0.7,
		releaseTime:  0.2,
	}
	e.updateRates()
	return e
}

// GateOn starts the attack stage.
func (e *ADSR) GateOn() {
	e.stage = Attack
	e.updateRates()
}

// GateOff starts the release stage, unless already idle.
func (e *ADSR) GateOff() {
	if e.stage != Idle {
		e.stage = Release
		e.updateRates()
	}
}

// IsActive reports whether the envelope has not yet reached Idle.
func (e *ADSR) IsActive() bool { return e.stage != Idle }

// IsReleasing reports whether the envelope is in its release stage.
func (e *ADSR) IsReleasing() bool { return e.stage == Release }

// Stage returns the current stage.
func (e *ADSR) Stage() Stage { return e.stage }

// Level returns the current output level without advancing time.
func (e *ADSR) Level() float64 { return e.level }

// SetAttack sets the attack time in seconds (1 ms floor).
func (e *ADSR) SetAttack(seconds float64) {
	e.attackTime = maxF(minTime, seconds)
	e.updateRates()
}

// SetDecay sets the decay time in seconds (1 ms floor).
func (e *ADSR) SetDecay(seconds float64) {
	e.decayTime = maxF(minTime, seconds)
	e.updateRates()
}

// SetSustain sets the sustain level, clamped to [0, 1].
func (e *ADSR) SetSustain(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	e.sustainLevel = level
	e.updateRates()
}

// SetRelease sets the release time in seconds (1 ms floor).
func (e *ADSR) SetRelease(seconds float64) {
	e.releaseTime = maxF(minTime, seconds)
	e.updateRates()
}

// Attack returns the attack time in seconds.
func (e *ADSR) Attack() float64 { return e.attackTime }

// Decay returns the decay time in seconds.
func (e *ADSR) Decay() float64 { return e.decayTime }

// Sustain returns the sustain level.
func (e *ADSR) Sustain() float64 { return e.sustainLevel }

// Release returns the release time in seconds.
func (e *ADSR) Release() float64 { return e.releaseTime }

// NextSample advances the envelope one sample and returns the new level.
func (e *ADSR) NextSample() float64 {
	switch e.stage {
	case Attack:
		e.level += e.attackRate
		if e.level >= 1 {
			e.level = 1
			e.stage = Decay
		}
	case Decay:
		e.level -= e.decayRate
		if e.level <= e.sustainLevel {
			e.level = e.sustainLevel
			e.stage = Sustain
		}
	case Sustain:
		e.level = e.sustainLevel
	case Release:
		e.level -= e.releaseRate
		if e.level <= 0 {
			e.level = 0
			e.stage = Idle
		}
	case Idle:
		e.level = 0
	}
	return e.level
}

// Pull fills a mono block with consecutive envelope samples.
func (e *ADSR) Pull(out []float32) {
	for i := range out {
		out[i] = float32(e.NextSample())
	}
}

// PullStereo duplicates the mono pull to both channels.
func (e *ADSR) PullStereo(buf *dsp.AudioBuffer) { dsp.StereoFromMono(e, buf) }

// Reset returns to Idle at level 0. Times and sustain survive.
func (e *ADSR) Reset() {
	e.stage = Idle
	e.level = 0
}

func (e *ADSR) updateRates() {
	e.attackRate = 1 / (e.attackTime * e.sampleRate)
	e.decayRate = (1 - e.sustainLevel) / (e.decayTime * e.sampleRate)
	e.releaseRate = e.sustainLevel / (e.releaseTime * e.sampleRate)
	if e.releaseRate <= 0 {
		e.releaseRate = 1 / (e.releaseTime * e.sampleRate)
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
