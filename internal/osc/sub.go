package osc

import "github.com/cbegin/subsynth-go/internal/dsp"

// SubOctave selects how far below the parent the sub oscillator sits.
type SubOctave int

const (
	OneDown SubOctave = 1 // f/2
	TwoDown SubOctave = 2 // f/4
)

// Sub is a phase-locked square wave one or two octaves below its parent
// oscillator. It has no accumulator of its own: it counts the parent's phase
// wraps, so the two can never drift apart.
type Sub struct {
	octave          SubOctave
	lastParentPhase float64
	wrapCount       uint32
}

// NewSub creates a sub oscillator.
func NewSub(octave SubOctave) *Sub {
	if octave != TwoDown {
		octave = OneDown
	}
	return &Sub{octave: octave}
}

// SetOctave switches between f/2 and f/4.
func (s *Sub) SetOctave(octave SubOctave) {
	if octave == OneDown || octave == TwoDown {
		s.octave = octave
	}
}

// Sample produces the sub output for the parent's current phase, in
// [-0.5, 0.5]. In OneDown mode a half-phase flip offsets the sub against the
// parent so the summed waveform keeps its headroom; TwoDown has no flip.
func (s *Sub) Sample(parentPhase float64) float64 {
	if parentPhase < s.lastParentPhase {
		s.wrapCount++
	}
	s.lastParentPhase = parentPhase

	var positive bool
	if s.octave == OneDown {
		positive = s.wrapCount%2 == 0
		// Half-phase flip pushes the sub against the parent's pull.
		if parentPhase >= 0.5 {
			positive = !positive
		}
	} else {
		positive = s.wrapCount%4 < 2
	}
	if positive {
		return 0.5
	}
	return -0.5
}

// Pull fills a mono block with zeros; the sub only produces output when
// sampled against a parent phase inside a voice.
func (s *Sub) Pull(out []float32) {
	for i := range out {
		out[i] = 0
	}
}

// PullStereo clears the buffer, matching the mono path.
func (s *Sub) PullStereo(buf *dsp.AudioBuffer) { buf.Clear() }

// Reset clears wrap tracking.
func (s *Sub) Reset() {
	s.lastParentPhase = 0
	s.wrapCount = 0
}
