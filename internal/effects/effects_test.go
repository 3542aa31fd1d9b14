package effects

import (
	"math"
	"testing"
)

func TestDelayEchoesAfterDelayTime(t *testing.T) {
	d := NewDelay(48000, 1.0, 0.01, 0, 1) // 10 ms, no feedback, fully wet
	// One impulse, then silence.
	l, _ := d.Process(1, 1)
	if l != 0 {
		t.Fatalf("wet output leaked the dry impulse: %v", l)
	}
	var echoAt int
	for i := 1; i < 960; i++ {
		l, _ = d.Process(0, 0)
		if l > 0.5 && echoAt == 0 {
			echoAt = i
		}
	}
	if echoAt < 470 || echoAt > 490 {
		t.Fatalf("echo arrived at sample %d, want ~480", echoAt)
	}
}

func TestDelayFeedbackDecays(t *testing.T) {
	d := NewDelay(48000, 1.0, 0.005, 0.5, 1)
	d.Process(1, 1)
	var first, second float32
	for i := 1; i < 960; i++ {
		l, _ := d.Process(0, 0)
		if l > 0.1 {
			if first == 0 {
				first = l
			} else if second == 0 && l < first*0.9 {
				second = l
			}
		}
	}
	if first == 0 || second == 0 {
		t.Fatalf("expected at least two echoes, got %v and %v", first, second)
	}
	if second >= first {
		t.Fatalf("feedback echo grew: %v then %v", first, second)
	}
}

func TestDelayDryBypassAtZeroMix(t *testing.T) {
	d := NewDelay(48000, 1.0, 0.1, 0.3, 0)
	l, r := d.Process(0.25, -0.25)
	if l != 0.25 || r != -0.25 {
		t.Fatalf("zero mix altered the dry signal: %v %v", l, r)
	}
}

func TestChorusOffIsTransparent(t *testing.T) {
	c := NewChorus(48000)
	c.SetMode(ChorusOff)
	for i := 0; i < 100; i++ {
		in := float32(math.Sin(float64(i) * 0.1))
		l, r := c.Process(in, in)
		if l != in || r != in {
			t.Fatalf("bypassed chorus altered sample %d", i)
		}
	}
}

func TestChorusWidensStereo(t *testing.T) {
	c := NewChorus(48000)
	c.SetMode(ChorusII)
	var diff float64
	for i := 0; i < 48000; i++ {
		in := float32(math.Sin(2 * math.Pi * 440 * float64(i) / 48000))
		l, r := c.Process(in, in)
		diff += math.Abs(float64(l - r))
	}
	if diff < 1 {
		t.Fatalf("chorus produced no stereo difference from a mono input")
	}
}

func TestChainAppliesEveryEffect(t *testing.T) {
	chain := NewChain(
		gainEffect{2},
		gainEffect{0.5},
	)
	l, r := chain.Process(0.5, -0.5)
	if l != 0.5 || r != -0.5 {
		t.Fatalf("chain of inverse gains not transparent: %v %v", l, r)
	}
}

type gainEffect struct{ g float32 }

func (e gainEffect) Process(l, r float32) (float32, float32) { return l * e.g, r * e.g }
func (e gainEffect) Reset()                                  {}

func TestResetClearsDelayBuffer(t *testing.T) {
	d := NewDelay(48000, 0.5, 0.01, 0.5, 1)
	for i := 0; i < 1000; i++ {
		d.Process(1, 1)
	}
	d.Reset()
	for i := 0; i < 960; i++ {
		l, r := d.Process(0, 0)
		if l != 0 || r != 0 {
			t.Fatalf("delay buffer survived reset at %d: %v %v", i, l, r)
		}
	}
}
