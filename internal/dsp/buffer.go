package dsp

// AudioBuffer is a stereo block: two equal-length mutable channel slices.
// The backing storage belongs to either the host callback or a BufferPool
// block; the views are only valid for the duration of one block render.
type AudioBuffer struct {
	Left  []float32
	Right []float32
}

// Frames returns the block length in frames.
func (b *AudioBuffer) Frames() int { return len(b.Left) }

// Clear zeroes both channels.
func (b *AudioBuffer) Clear() {
	for i := range b.Left {
		b.Left[i] = 0
	}
	for i := range b.Right {
		b.Right[i] = 0
	}
}
