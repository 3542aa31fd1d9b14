package osc

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/dsp"
)

// Shape selects the wavetable contents.
type Shape int

const (
	Sine Shape = iota
	Saw
	Square
	Triangle
)

const tableSize = 2048

var tables [4][]float64

func init() {
	for shape := range tables {
		t := make([]float64, tableSize)
		for i := range t {
			phase := float64(i) / tableSize
			switch Shape(shape) {
			case Sine:
				t[i] = math.Sin(2 * math.Pi * phase)
			case Saw:
				t[i] = 2*phase - 1
			case Square:
				if phase < 0.5 {
					t[i] = 1
				} else {
					t[i] = -1
				}
			case Triangle:
				if phase < 0.5 {
					t[i] = 4*phase - 1
				} else {
					t[i] = 3 - 4*phase
				}
			}
		}
		tables[shape] = t
	}
}

var _ dsp.Oscillator = (*Wavetable)(nil)

// Wavetable is a table-lookup oscillator with linear interpolation. It backs
// the fifth mixer channel of a voice and is also usable standalone.
type Wavetable struct {
	pitchBase
	shape Shape
	phase float64
}

// NewWavetable creates a wavetable oscillator at the given sample rate.
func NewWavetable(sampleRate float64, shape Shape) *Wavetable {
	w := &Wavetable{shape: shape}
	w.sampleRate = sampleRate
	w.SetFrequency(defaultFrequency)
	return w
}

// SetShape switches the table.
func (w *Wavetable) SetShape(shape Shape) {
	if shape >= Sine && shape <= Triangle {
		w.shape = shape
	}
}

// Shape returns the current table selection.
func (w *Wavetable) Shape() Shape { return w.shape }

// Tick advances one sample and returns the interpolated table value in
// [-1, 1].
func (w *Wavetable) Tick() float64 {
	freq := w.step()
	w.phase += freq / w.sampleRate
	if w.phase >= 1 {
		w.phase -= 1
	}
	if w.phase < 0 {
		w.phase += 1
	}

	t := tables[w.shape]
	pos := w.phase * tableSize
	idx := int(pos)
	frac := pos - float64(idx)
	next := idx + 1
	if next >= tableSize {
		next = 0
	}
	return t[idx]*(1-frac) + t[next]*frac
}

// Pull fills a mono block.
func (w *Wavetable) Pull(out []float32) {
	for i := range out {
		out[i] = float32(w.Tick())
	}
}

// PullStereo duplicates the mono pull to both channels.
func (w *Wavetable) PullStereo(buf *dsp.AudioBuffer) { dsp.StereoFromMono(w, buf) }

// Reset clears phase and glide state, preserving frequency and shape.
func (w *Wavetable) Reset() {
	w.phase = 0
	w.resetPitch()
}
