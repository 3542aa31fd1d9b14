package dsp

import "time"

// Processor is a pull-based processing unit. A pull fills (for sources) or
// transforms in place (for modifiers) exactly len(out) samples and advances
// internal state by that many samples of simulated time. Implementations must
// not retain the caller's slices past the call.
type Processor interface {
	// Pull processes one mono block.
	Pull(out []float32)
	// PullStereo processes one stereo block. Mono-only processors call
	// StereoFromMono to duplicate the left channel.
	PullStereo(buf *AudioBuffer)
	// Reset returns the processor to its post-construction state. User-set
	// parameters (frequency, cutoff, envelope times) survive; only phase,
	// stage and accumulator state is cleared.
	Reset()
}

// Envelope is a gated control-signal processor. Output lies in [0, 1] and
// is 0 in the terminal idle state.
type Envelope interface {
	Processor
	GateOn()
	GateOff()
	IsActive() bool
	IsReleasing() bool
}

// Filter is a processor with a controllable cutoff and resonance.
type Filter interface {
	Processor
	SetCutoff(hz float64)
	SetResonance(q float64)
}

// Oscillator is a pitched source. SetFrequencyGlide ramps linearly in Hz
// over the given duration and halts exactly at the target.
type Oscillator interface {
	Processor
	SetFrequency(hz float64)
	SetFrequencyGlide(hz float64, seconds float64)
}

// StereoFromMono is the default stereo path for mono processors: pull the
// mono block into the left channel and duplicate it to the right.
func StereoFromMono(p interface{ Pull([]float32) }, buf *AudioBuffer) {
	p.Pull(buf.Left)
	copy(buf.Right, buf.Left)
}

// Metrics is an optional per-processor performance snapshot.
type Metrics struct {
	LastBlock   time.Duration
	MaxBlock    time.Duration
	TotalBlocks uint64
}

// MetricsProvider is implemented by processors that record block timings.
type MetricsProvider interface {
	Metrics() Metrics
}

// Graph is a serial processing chain. The first node fills the buffer, the
// remaining nodes transform it in place. There is no scheduler; a pull walks
// the list once.
type Graph struct {
	nodes   []Processor
	profile bool
	metrics Metrics
}

// NewGraph creates an empty serial chain.
func NewGraph() *Graph { return &Graph{} }

// Add appends a node to the end of the chain. Nil nodes are ignored.
func (g *Graph) Add(node Processor) {
	if node != nil {
		g.nodes = append(g.nodes, node)
	}
}

// Clear removes all nodes.
func (g *Graph) Clear() { g.nodes = g.nodes[:0] }

// SetProfiling enables block-timing capture. Off by default; the capture
// itself is two clock reads per block.
func (g *Graph) SetProfiling(on bool) { g.profile = on }

// Metrics returns the accumulated timing snapshot.
func (g *Graph) Metrics() Metrics { return g.metrics }

// Pull runs the chain over a mono block.
func (g *Graph) Pull(out []float32) {
	var start time.Time
	if g.profile {
		start = time.Now()
	}
	if len(g.nodes) == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for _, n := range g.nodes {
		n.Pull(out)
	}
	if g.profile {
		g.record(time.Since(start))
	}
}

// PullStereo runs the chain over a stereo block.
func (g *Graph) PullStereo(buf *AudioBuffer) {
	var start time.Time
	if g.profile {
		start = time.Now()
	}
	if len(g.nodes) == 0 {
		buf.Clear()
		return
	}
	for _, n := range g.nodes {
		n.PullStereo(buf)
	}
	if g.profile {
		g.record(time.Since(start))
	}
}

// Reset resets every node in the chain.
func (g *Graph) Reset() {
	for _, n := range g.nodes {
		n.Reset()
	}
}

func (g *Graph) record(d time.Duration) {
	g.metrics.LastBlock = d
	if d > g.metrics.MaxBlock {
		g.metrics.MaxBlock = d
	}
	g.metrics.TotalBlocks++
}
