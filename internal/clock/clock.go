// Package clock tracks musical time with sample accuracy.
package clock

import "math"

// PPQ is the tick resolution: pulses per quarter note.
const PPQ = 960

// MusicalTime is a point in musical time. Bars and beats are 1-based, ticks
// are 0-based within the beat.
type MusicalTime struct {
	Bar  int64
	Beat int64
	Tick int64
}

// Clock accumulates samples and derives ticks from them. Every tempo or
// sample-rate change first anchors the current sample and tick totals, then
// recomputes the tick duration, so the derived tick count is continuous at
// the change and only diverges afterward.
type Clock struct {
	sampleRate  float64
	bpm         float64
	beatsPerBar int64

	samplesPerTick   float64
	totalSamples     float64
	totalSamplesBase float64
	totalTicks       int64
	totalTicksBase   int64
}

// New creates a clock at the given sample rate and tempo, 4/4 meter.
func New(sampleRate, bpm float64) *Clock {
	c := &Clock{sampleRate: sampleRate, bpm: bpm, beatsPerBar: 4}
	c.updateTickDuration()
	return c
}

// SetBPM changes the tempo, anchoring first to preserve the current time.
func (c *Clock) SetBPM(bpm float64) {
	if bpm <= 0 {
		return
	}
	c.anchor()
	c.bpm = bpm
	c.updateTickDuration()
}

// BPM returns the current tempo.
func (c *Clock) BPM() float64 { return c.bpm }

// SetSampleRate changes the sample rate, anchoring first.
func (c *Clock) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		return
	}
	c.anchor()
	c.sampleRate = sampleRate
	c.updateTickDuration()
}

// SetMeter sets the number of beats per bar.
func (c *Clock) SetMeter(beatsPerBar int) {
	if beatsPerBar > 0 {
		c.beatsPerBar = int64(beatsPerBar)
	}
}

// BeatsPerBar returns the current meter numerator.
func (c *Clock) BeatsPerBar() int { return int(c.beatsPerBar) }

// Advance moves the clock forward by n samples and rederives the tick total
// from the last anchor.
func (c *Clock) Advance(n int) {
	c.totalSamples += float64(n)
	sinceBase := c.totalSamples - c.totalSamplesBase
	c.totalTicks = c.totalTicksBase + int64(math.Floor(sinceBase/c.samplesPerTick))
}

// TotalTicks returns the tick count since the clock started.
func (c *Clock) TotalTicks() int64 { return c.totalTicks }

// Now returns the current bar, beat and tick.
func (c *Clock) Now() MusicalTime {
	remaining := c.totalTicks
	ticksPerBar := PPQ * c.beatsPerBar

	bar := remaining/ticksPerBar + 1
	remaining %= ticksPerBar
	beat := remaining/PPQ + 1
	tick := remaining % PPQ

	return MusicalTime{Bar: bar, Beat: beat, Tick: tick}
}

func (c *Clock) anchor() {
	c.totalTicksBase = c.totalTicks
	c.totalSamplesBase = c.totalSamples
}

func (c *Clock) updateTickDuration() {
	ticksPerSecond := c.bpm / 60 * PPQ
	c.samplesPerTick = c.sampleRate / ticksPerSecond
}
