package subsynth

import (
	"bytes"
	"path/filepath"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(48000)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func renderPeak(e *Engine, blocks, frames int) float32 {
	left := make([]float32, frames)
	right := make([]float32, frames)
	var peak float32
	for i := 0; i < blocks; i++ {
		e.Render(left, right)
		for j := 0; j < frames; j++ {
			if a := left[j]; a < 0 {
				a = -a
				if a > peak {
					peak = a
				}
			} else if a > peak {
				peak = a
			}
		}
	}
	return peak
}

func TestNoteOnNameA4(t *testing.T) {
	e := newTestEngine(t)
	if err := e.NoteOnName("A4", 1); err != nil {
		t.Fatal(err)
	}
	if peak := renderPeak(e, 20, 256); peak < 0.01 {
		t.Fatalf("A4 inaudible, peak = %v", peak)
	}
}

func TestInvalidNoteNameLeavesEngineSilent(t *testing.T) {
	e := newTestEngine(t)
	if err := e.NoteOnName("H4", 1); err == nil {
		t.Fatalf("invalid spelling accepted")
	}
	if peak := renderPeak(e, 10, 256); peak != 0 {
		t.Fatalf("failed note on left the engine sounding, peak = %v", peak)
	}
}

func TestNoteRangeChecks(t *testing.T) {
	e := newTestEngine(t)
	if err := e.NoteOn(128, 1); err == nil {
		t.Fatalf("note 128 accepted")
	}
	if err := e.NoteOff(-1); err == nil {
		t.Fatalf("note -1 accepted")
	}
}

func TestOutputStaysInRange(t *testing.T) {
	e := newTestEngine(t)
	for note := 48; note < 64; note++ {
		if err := e.NoteOn(note, 1); err != nil {
			t.Fatal(err)
		}
	}
	left := make([]float32, 512)
	right := make([]float32, 512)
	for i := 0; i < 50; i++ {
		e.Render(left, right)
		for j := range left {
			if left[j] < -1 || left[j] > 1 || right[j] < -1 || right[j] > 1 {
				t.Fatalf("output escaped [-1,1] at block %d", i)
			}
		}
	}
}

func TestRenderAdvancesMusicalClock(t *testing.T) {
	e := newTestEngine(t)
	start := e.MusicalTime()
	if start.Bar != 1 || start.Beat != 1 || start.Tick != 0 {
		t.Fatalf("start time = %+v", start)
	}
	// One beat at 120 BPM / 48 kHz is 24000 samples.
	left := make([]float32, 500)
	right := make([]float32, 500)
	for i := 0; i < 48; i++ {
		e.Render(left, right)
	}
	now := e.MusicalTime()
	if now.Beat != 2 || now.Bar != 1 {
		t.Fatalf("after one beat of audio: %+v", now)
	}
}

func TestBPMRoundTripAndContinuity(t *testing.T) {
	e := newTestEngine(t)
	left := make([]float32, 512)
	right := make([]float32, 512)
	for i := 0; i < 20; i++ {
		e.Render(left, right)
	}
	before := e.MusicalTime()
	if err := e.SetBPM(93.5); err != nil {
		t.Fatal(err)
	}
	if got := e.BPM(); got != 93.5 {
		t.Fatalf("BPM = %v, want 93.5", got)
	}
	if after := e.MusicalTime(); after != before {
		t.Fatalf("tempo change moved musical time: %+v -> %+v", before, after)
	}
	if err := e.SetBPM(0); err == nil {
		t.Fatalf("zero BPM accepted")
	}
}

func TestSubmitMIDIRunningStatus(t *testing.T) {
	e := newTestEngine(t)
	// Three note-ons under running status.
	e.SubmitMIDI([]byte{0x90, 0x43, 0x64, 0x45, 0x64, 0x47, 0x64}, 0)
	if peak := renderPeak(e, 20, 256); peak < 0.01 {
		t.Fatalf("MIDI chord inaudible, peak = %v", peak)
	}
	// Velocity-0 note-ons release all three.
	e.SubmitMIDI([]byte{0x90, 0x43, 0x00, 0x45, 0x00, 0x47, 0x00}, 0)
	// Render past the 50 ms release tail, then expect silence.
	renderPeak(e, 40, 256)
	if peak := renderPeak(e, 10, 256); peak != 0 {
		t.Fatalf("voices sound after velocity-0 note offs, peak = %v", peak)
	}
}

func TestParamRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetParam("cutoff", 2500); err != nil {
		t.Fatal(err)
	}
	got, err := e.Param("cutoff")
	if err != nil {
		t.Fatal(err)
	}
	if got != 2500 {
		t.Fatalf("cutoff = %v, want 2500", got)
	}
	if err := e.SetParam("flanger_amount", 1); err == nil {
		t.Fatalf("unknown parameter accepted")
	}
	if _, err := e.Param("flanger_amount"); err == nil {
		t.Fatalf("unknown parameter readable")
	}
}

func TestADSRSettersClamp(t *testing.T) {
	e := newTestEngine(t)
	e.SetADSR(0, 0, 2, -1)
	attack, _ := e.Param("attack")
	if attack != 0.001 {
		t.Fatalf("attack = %v, want 1 ms floor", attack)
	}
	sustain, _ := e.Param("sustain")
	if sustain != 1 {
		t.Fatalf("sustain = %v, want clamp to 1", sustain)
	}
}

func TestPatchRoundTripIsByteIdentical(t *testing.T) {
	e := newTestEngine(t)
	e.SetParam("cutoff", 1234)
	e.SetParam("saw_gain", 0.6)
	e.SetModulation(1, 0, 0.05) // LFO → pitch vibrato

	first, err := e.MarshalPatch("Test")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyPatch(first); err != nil {
		t.Fatal(err)
	}
	second, err := e.MarshalPatch("Test")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("patch round trip differs:\n%s\n---\n%s", first, second)
	}
}

func TestPatchFileRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	e.SetParam("resonance", 0.33)
	path := filepath.Join(t.TempDir(), "test.json")
	if err := e.SavePatch(path, "Test"); err != nil {
		t.Fatal(err)
	}

	other := newTestEngine(t)
	if err := other.LoadPatch(path); err != nil {
		t.Fatal(err)
	}
	got, _ := other.Param("resonance")
	if got != 0.33 {
		t.Fatalf("resonance after load = %v, want 0.33", got)
	}
}

func TestBadPatchLeavesStateUnchanged(t *testing.T) {
	e := newTestEngine(t)
	e.SetParam("cutoff", 3210)
	bad := []byte(`{"version":1,"name":"x","parameters":{"bogus_param":1},"modulations":[]}`)
	if err := e.ApplyPatch(bad); err == nil {
		t.Fatalf("patch with unknown parameter accepted")
	}
	got, _ := e.Param("cutoff")
	if got != 3210 {
		t.Fatalf("failed patch load changed state: cutoff = %v", got)
	}
}

func TestModulationRangeChecks(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetModulation(9, 0, 1); err == nil {
		t.Fatalf("invalid source accepted")
	}
	if err := e.SetModulation(0, 9, 1); err == nil {
		t.Fatalf("invalid target accepted")
	}
	if err := e.SetModulation(1, 1, 0.5); err != nil {
		t.Fatal(err)
	}
}

func TestRenderInterleaved(t *testing.T) {
	e := newTestEngine(t)
	e.NoteOn(60, 1)
	dst := make([]float32, 512)
	var peak float32
	for i := 0; i < 20; i++ {
		e.RenderInterleaved(dst)
		for _, s := range dst {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
	}
	if peak < 0.01 {
		t.Fatalf("interleaved render silent")
	}
}

func TestRenderMono(t *testing.T) {
	e := newTestEngine(t)
	e.NoteOn(69, 1)
	out := make([]float32, 512)
	var peak float32
	for i := 0; i < 20; i++ {
		e.RenderMono(out)
		for _, s := range out {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
	}
	if peak < 0.01 {
		t.Fatalf("mono render silent")
	}
}

func TestDelayAndChorusToggles(t *testing.T) {
	e := newTestEngine(t)
	e.SetDelayEnabled(true)
	e.SetChorusMode(ChorusI)
	e.NoteOn(60, 1)
	if peak := renderPeak(e, 30, 256); peak < 0.01 {
		t.Fatalf("engine silent with master effects enabled")
	}
	e.SetDelayEnabled(false)
	e.SetChorusMode(ChorusOff)
}

func TestDrainLogsSeesVoiceSteal(t *testing.T) {
	e := newTestEngine(t)
	for note := 40; note < 57; note++ { // 17 notes into 16 voices
		if err := e.NoteOn(note, 1); err != nil {
			t.Fatal(err)
		}
	}
	found := false
	e.DrainLogs(func(entry LogEntry) {
		if entry.Tag == "VoiceSteal" {
			found = true
		}
	})
	if !found {
		t.Fatalf("voice steal not reported to the log drain")
	}
}

func TestResetSilences(t *testing.T) {
	e := newTestEngine(t)
	e.NoteOn(60, 1)
	renderPeak(e, 5, 256)
	e.Reset()
	if peak := renderPeak(e, 5, 256); peak != 0 {
		t.Fatalf("reset engine still sounding, peak = %v", peak)
	}
}
