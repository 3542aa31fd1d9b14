package voice

import (
	"testing"

	"github.com/cbegin/subsynth-go/internal/dsp"
	"github.com/cbegin/subsynth-go/internal/midi"
)

const testRate = 48000

func fillPool(t *testing.T, m *Manager) {
	t.Helper()
	for note := 60; note < 60+MaxVoices; note++ {
		m.NoteOn(note, 1, 0)
	}
	if m.ActiveCount() != MaxVoices {
		t.Fatalf("expected %d active slots, got %d", MaxVoices, m.ActiveCount())
	}
}

func checkBijection(t *testing.T, m *Manager) {
	t.Helper()
	for pitch := 0; pitch < 128; pitch++ {
		idx := m.SlotForNote(pitch)
		if idx < 0 {
			continue
		}
		if m.SlotNote(idx) != pitch {
			t.Fatalf("noteToSlot[%d]=%d but slot holds %d", pitch, idx, m.SlotNote(idx))
		}
		if !m.SlotActive(idx) {
			t.Fatalf("noteToSlot[%d]=%d but slot inactive", pitch, idx)
		}
		for other := 0; other < MaxVoices; other++ {
			if other != idx && m.SlotNote(other) == pitch && m.SlotActive(other) {
				t.Fatalf("pitch %d held by slots %d and %d", pitch, idx, other)
			}
		}
	}
}

func TestStealOldestWhenAllActive(t *testing.T) {
	m := NewManager(testRate, 256)
	fillPool(t, m)
	victim := m.SlotForNote(60) // first triggered, smallest timestamp

	m.NoteOn(80, 1, 0)

	if m.SlotForNote(60) != -1 {
		t.Fatalf("pitch 60 still mapped after steal")
	}
	if got := m.SlotForNote(80); got != victim {
		t.Fatalf("pitch 80 landed in slot %d, want stolen slot %d", got, victim)
	}
	for note := 61; note < 76; note++ {
		if m.SlotForNote(note) == -1 {
			t.Errorf("pitch %d lost its slot during the steal", note)
		}
	}
	checkBijection(t, m)
}

func TestStealPrefersReleasing(t *testing.T) {
	m := NewManager(testRate, 256)
	fillPool(t, m)
	releasing := m.SlotForNote(65)

	m.NoteOff(65)
	m.NoteOn(90, 1, 0)

	if got := m.SlotForNote(90); got != releasing {
		t.Fatalf("pitch 90 landed in slot %d, want releasing slot %d", got, releasing)
	}
	if m.SlotForNote(60) == -1 {
		t.Fatalf("oldest active pitch was stolen despite a releasing candidate")
	}
	checkBijection(t, m)
}

func TestRetriggerInPlace(t *testing.T) {
	m := NewManager(testRate, 256)
	m.NoteOn(60, 1, 0)
	slot := m.SlotForNote(60)
	m.NoteOn(60, 0.5, 0)
	if got := m.SlotForNote(60); got != slot {
		t.Fatalf("retrigger moved pitch 60 from slot %d to %d", slot, got)
	}
	if m.ActiveCount() != 1 {
		t.Fatalf("retrigger claimed a second slot")
	}
}

func TestNoteOffUnknownPitchIsNoOp(t *testing.T) {
	m := NewManager(testRate, 256)
	m.NoteOn(60, 1, 0)
	m.NoteOff(72)
	if m.SlotForNote(60) == -1 {
		t.Fatalf("note off on unknown pitch disturbed an unrelated voice")
	}
}

func TestLazyReclamation(t *testing.T) {
	m := NewManager(testRate, 256)
	m.NoteOn(60, 1, 0)
	slot := m.SlotForNote(60)
	m.NoteOff(60)

	if !m.SlotActive(slot) {
		t.Fatalf("slot reclaimed before the render observed the envelope")
	}

	// The default release is 50 ms; render half a second to pass it.
	out := make([]float32, 256)
	for i := 0; i < testRate/2/len(out); i++ {
		m.Pull(out)
	}
	if m.SlotActive(slot) {
		t.Fatalf("slot not reclaimed after the release tail")
	}
	if m.SlotNote(slot) != -1 {
		t.Fatalf("reclaimed slot still holds a pitch")
	}
	checkBijection(t, m)
}

func TestVelocityZeroEventIsNoteOff(t *testing.T) {
	m := NewManager(testRate, 256)
	m.HandleEvent(midi.Event{Status: 0x90, Data1: 60, Data2: 100})
	if m.SlotForNote(60) == -1 {
		t.Fatalf("note on event did not allocate")
	}
	m.HandleEvent(midi.Event{Status: 0x90, Data1: 60, Data2: 0})
	if m.SlotForNote(60) != -1 {
		t.Fatalf("velocity-0 note on did not release the pitch")
	}
	slot := 0
	if !m.VoiceAt(slot).IsReleasing() {
		t.Fatalf("voice not releasing after velocity-0 note on")
	}
}

func TestStereoSumIsAudibleAndBounded(t *testing.T) {
	m := NewManager(testRate, 256)
	for _, note := range []int{60, 64, 67} {
		m.NoteOn(note, 1, 0)
	}
	left := make([]float32, 256)
	right := make([]float32, 256)
	buf := dsp.AudioBuffer{Left: left, Right: right}

	var peak float32
	for i := 0; i < 40; i++ {
		m.PullStereo(&buf)
		for j := range left {
			if a := abs32(left[j]); a > peak {
				peak = a
			}
			if a := abs32(right[j]); a > peak {
				peak = a
			}
		}
	}
	if peak < 0.05 {
		t.Fatalf("chord peak = %v, expected audible output", peak)
	}
	if peak > 1 {
		t.Fatalf("chord peak = %v, master gain failed to bound the sum", peak)
	}
}

func TestRenderDoesNotAllocateInSteadyState(t *testing.T) {
	m := NewManager(testRate, 256)
	for _, note := range []int{60, 64, 67, 71} {
		m.NoteOn(note, 1, 0)
	}
	left := make([]float32, 256)
	right := make([]float32, 256)
	buf := dsp.AudioBuffer{Left: left, Right: right}
	m.PullStereo(&buf) // warm up

	allocs := testing.AllocsPerRun(50, func() {
		m.PullStereo(&buf)
	})
	if allocs != 0 {
		t.Fatalf("steady-state render allocates %v times per block", allocs)
	}
}

func TestManagerResetClearsEverything(t *testing.T) {
	m := NewManager(testRate, 256)
	fillPool(t, m)
	m.Reset()
	if m.ActiveCount() != 0 {
		t.Fatalf("slots survive reset")
	}
	for pitch := 0; pitch < 128; pitch++ {
		if m.SlotForNote(pitch) != -1 {
			t.Fatalf("pitch map survives reset")
		}
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
