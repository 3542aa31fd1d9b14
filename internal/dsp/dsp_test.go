package dsp

import "testing"

// fillProc writes a constant; addProc transforms in place. Together they
// exercise the source-then-modifier chain contract.
type fillProc struct{ value float32 }

func (p *fillProc) Pull(out []float32) {
	for i := range out {
		out[i] = p.value
	}
}
func (p *fillProc) PullStereo(buf *AudioBuffer) { StereoFromMono(p, buf) }
func (p *fillProc) Reset()                      { p.value = 0 }

type addProc struct{ delta float32 }

func (p *addProc) Pull(out []float32) {
	for i := range out {
		out[i] += p.delta
	}
}
func (p *addProc) PullStereo(buf *AudioBuffer) {
	p.Pull(buf.Left)
	p.Pull(buf.Right)
}
func (p *addProc) Reset() {}

func TestGraphRunsNodesInOrder(t *testing.T) {
	g := NewGraph()
	g.Add(&fillProc{value: 1})
	g.Add(&addProc{delta: 2})
	g.Add(&addProc{delta: 4})

	out := make([]float32, 16)
	g.Pull(out)
	for i, s := range out {
		if s != 7 {
			t.Fatalf("sample %d = %v, want 7", i, s)
		}
	}
}

func TestEmptyGraphOutputsSilence(t *testing.T) {
	g := NewGraph()
	out := []float32{9, 9, 9}
	g.Pull(out)
	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0", i, s)
		}
	}
}

func TestGraphStereoDefaultDuplicatesLeft(t *testing.T) {
	g := NewGraph()
	g.Add(&fillProc{value: 0.25})
	left := make([]float32, 8)
	right := make([]float32, 8)
	buf := AudioBuffer{Left: left, Right: right}
	g.PullStereo(&buf)
	for i := range left {
		if left[i] != 0.25 || right[i] != 0.25 {
			t.Fatalf("frame %d = (%v,%v), want (0.25,0.25)", i, left[i], right[i])
		}
	}
}

func TestGraphResetReachesAllNodes(t *testing.T) {
	f := &fillProc{value: 3}
	g := NewGraph()
	g.Add(f)
	g.Reset()
	if f.value != 0 {
		t.Fatalf("reset did not reach node")
	}
}

func TestGraphMetrics(t *testing.T) {
	g := NewGraph()
	g.Add(&fillProc{value: 1})
	g.SetProfiling(true)
	out := make([]float32, 64)
	for i := 0; i < 5; i++ {
		g.Pull(out)
	}
	m := g.Metrics()
	if m.TotalBlocks != 5 {
		t.Fatalf("blocks = %d, want 5", m.TotalBlocks)
	}
	if m.MaxBlock < m.LastBlock {
		t.Fatalf("max %v below last %v", m.MaxBlock, m.LastBlock)
	}
}

func TestPoolReusesBlocks(t *testing.T) {
	p := NewPool(256, 4)
	if p.Available() != 4 {
		t.Fatalf("fresh pool depth = %d, want 4", p.Available())
	}
	b := p.Borrow()
	if p.Available() != 3 {
		t.Fatalf("depth after borrow = %d, want 3", p.Available())
	}
	p.Release(b)
	if p.Available() != 4 {
		t.Fatalf("depth after release = %d, want 4", p.Available())
	}
	if got := p.Borrow(); got != b {
		t.Fatalf("expected LIFO reuse of the released block")
	}
}

func TestPoolOverflowFabricatesAndReports(t *testing.T) {
	p := NewPool(64, 1)
	overflows := 0
	p.SetOverflowFunc(func() { overflows++ })

	a := p.Borrow()
	b := p.Borrow() // empty: fabricated
	if overflows != 1 {
		t.Fatalf("overflow count = %d, want 1", overflows)
	}
	if len(b.Left) != 64 || len(b.Right) != 64 {
		t.Fatalf("fabricated block mis-sized")
	}

	// Releasing both: only capacity-many are kept.
	p.Release(a)
	p.Release(b)
	if p.Available() != 1 {
		t.Fatalf("depth after over-release = %d, want 1", p.Available())
	}
}

func TestBlockBufferView(t *testing.T) {
	p := NewPool(128, 1)
	b := p.Borrow()
	defer p.Release(b)
	buf := b.Buffer(32)
	if buf.Frames() != 32 {
		t.Fatalf("view frames = %d, want 32", buf.Frames())
	}
	buf.Left[0] = 1
	buf.Right[31] = 1
	buf.Clear()
	if buf.Left[0] != 0 || buf.Right[31] != 0 {
		t.Fatalf("clear missed samples")
	}
}
