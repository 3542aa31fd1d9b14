package audio

import "sync/atomic"

// Settings holds the hardware-negotiated audio configuration. It has two
// writers: the engine constructor (sample rate and block size) and the
// realtime player (sample rate and channel count). Any thread may read.
type Settings struct {
	sampleRate  atomic.Int32
	blockSize   atomic.Int32
	numChannels atomic.Int32
}

// NewSettings returns settings with conventional defaults.
func NewSettings() *Settings {
	s := &Settings{}
	s.sampleRate.Store(44100)
	s.blockSize.Store(512)
	s.numChannels.Store(2)
	return s
}

// SetSampleRate publishes the negotiated sample rate.
func (s *Settings) SetSampleRate(hz int) { s.sampleRate.Store(int32(hz)) }

// SampleRate returns the negotiated sample rate.
func (s *Settings) SampleRate() int { return int(s.sampleRate.Load()) }

// SetBlockSize publishes the negotiated block size in frames.
func (s *Settings) SetBlockSize(frames int) { s.blockSize.Store(int32(frames)) }

// BlockSize returns the negotiated block size in frames.
func (s *Settings) BlockSize() int { return int(s.blockSize.Load()) }

// SetNumChannels publishes the negotiated channel count.
func (s *Settings) SetNumChannels(n int) { s.numChannels.Store(int32(n)) }

// NumChannels returns the negotiated channel count.
func (s *Settings) NumChannels() int { return int(s.numChannels.Load()) }

// Shared is the process-wide settings instance; the hardware configuration
// it models is inherently global.
var Shared = NewSettings()
