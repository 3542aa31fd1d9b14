package effects

// Delay is a stereo feedback delay with linear-interpolated reads and a
// wet/dry mix. Both channels share one delay time; feedback stays within
// each channel.
type Delay struct {
	sampleRate   float64
	bufL, bufR   []float32
	writePos     int
	delaySamples float64
	feedback     float32
	mix          float32
}

// NewDelay creates a delay with up to maxSeconds of buffer.
// delaySeconds: initial delay time; feedback: 0..0.99; mix: wet amount 0..1.
func NewDelay(sampleRate int, maxSeconds, delaySeconds float64, feedback, mix float32) *Delay {
	size := int(float64(sampleRate) * maxSeconds)
	if size < 4 {
		size = 4
	}
	d := &Delay{
		sampleRate: float64(sampleRate),
		bufL:       make([]float32, size),
		bufR:       make([]float32, size),
		feedback:   clamp(feedback, 0, 0.99),
		mix:        clamp(mix, 0, 1),
	}
	d.SetDelayTime(delaySeconds)
	return d
}

// SetDelayTime sets the delay in seconds, clamped to the buffer length.
func (d *Delay) SetDelayTime(seconds float64) {
	maxSec := float64(len(d.bufL)) / d.sampleRate
	if seconds < 0.001 {
		seconds = 0.001
	}
	if seconds > maxSec {
		seconds = maxSec
	}
	d.delaySamples = seconds * d.sampleRate
}

// SetFeedback sets the regeneration amount, clamped to [0, 0.99].
func (d *Delay) SetFeedback(fb float32) { d.feedback = clamp(fb, 0, 0.99) }

// SetMix sets the wet amount, clamped to [0, 1].
func (d *Delay) SetMix(mix float32) { d.mix = clamp(mix, 0, 1) }

func (d *Delay) readChannel(buf []float32) float32 {
	size := len(buf)
	readPos := float32(d.writePos) - float32(d.delaySamples)
	for readPos < 0 {
		readPos += float32(size)
	}
	i0 := int(readPos) % size
	i1 := (i0 + 1) % size
	frac := readPos - float32(int(readPos))
	return buf[i0] + frac*(buf[i1]-buf[i0])
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	delL := d.readChannel(d.bufL)
	delR := d.readChannel(d.bufR)

	d.bufL[d.writePos] = l + delL*d.feedback
	d.bufR[d.writePos] = r + delR*d.feedback
	d.writePos++
	if d.writePos >= len(d.bufL) {
		d.writePos = 0
	}

	return l*(1-d.mix) + delL*d.mix, r*(1-d.mix) + delR*d.mix
}

func (d *Delay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.writePos = 0
}
