package effects

import "math"

// ChorusMode selects the classic dual-BBD chorus voicings.
type ChorusMode int

const (
	ChorusOff ChorusMode = iota
	ChorusI              // ~0.4 Hz, subtle
	ChorusII             // ~0.6 Hz, wider
	ChorusIII            // ~1.0 Hz, both engaged
)

const chorusBaseDelay = 0.0035 // 3.5 ms BBD center tap

// Chorus emulates a bucket-brigade stereo chorus: two short modulated delay
// lines whose LFO is inverted between channels, which is where the stereo
// width comes from.
type Chorus struct {
	sampleRate float64
	bufL, bufR []float32
	writePos   int
	mode       ChorusMode
	lfoRate    float64
	lfoDepth   float64 // seconds of delay sweep
	lfoPhase   float64
}

// NewChorus creates a chorus with a 10 ms bucket per channel.
func NewChorus(sampleRate int) *Chorus {
	size := sampleRate / 100
	if size < 8 {
		size = 8
	}
	c := &Chorus{
		sampleRate: float64(sampleRate),
		bufL:       make([]float32, size),
		bufR:       make([]float32, size),
	}
	c.SetMode(ChorusI)
	return c
}

// SetMode selects the voicing; ChorusOff bypasses.
func (c *Chorus) SetMode(mode ChorusMode) {
	c.mode = mode
	switch mode {
	case ChorusI:
		c.lfoRate, c.lfoDepth = 0.4, 0.002
	case ChorusII:
		c.lfoRate, c.lfoDepth = 0.6, 0.002
	case ChorusIII:
		c.lfoRate, c.lfoDepth = 1.0, 0.003
	default:
		c.lfoRate, c.lfoDepth = 0, 0
	}
}

// Mode returns the current voicing.
func (c *Chorus) Mode() ChorusMode { return c.mode }

func (c *Chorus) read(buf []float32, delaySeconds float64) float32 {
	size := len(buf)
	delaySamples := delaySeconds * c.sampleRate
	readPos := float64(c.writePos) - delaySamples
	for readPos < 0 {
		readPos += float64(size)
	}
	i0 := int(readPos) % size
	i1 := (i0 + 1) % size
	frac := float32(readPos - math.Floor(readPos))
	return buf[i0] + frac*(buf[i1]-buf[i0])
}

func (c *Chorus) Process(l, r float32) (float32, float32) {
	if c.mode == ChorusOff {
		return l, r
	}

	mod := math.Sin(2 * math.Pi * c.lfoPhase)
	c.lfoPhase += c.lfoRate / c.sampleRate
	if c.lfoPhase >= 1 {
		c.lfoPhase -= 1
	}

	c.bufL[c.writePos] = l
	c.bufR[c.writePos] = r

	wetL := c.read(c.bufL, chorusBaseDelay+mod*c.lfoDepth)
	wetR := c.read(c.bufR, chorusBaseDelay-mod*c.lfoDepth)

	c.writePos++
	if c.writePos >= len(c.bufL) {
		c.writePos = 0
	}

	return 0.5*l + 0.5*wetL, 0.5*r + 0.5*wetR
}

func (c *Chorus) Reset() {
	for i := range c.bufL {
		c.bufL[i] = 0
		c.bufR[i] = 0
	}
	c.writePos = 0
	c.lfoPhase = 0
}
