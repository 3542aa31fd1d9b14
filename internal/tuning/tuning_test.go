package tuning

import "testing"

func TestParseNote(t *testing.T) {
	for _, tc := range []struct {
		name string
		want int
	}{
		{"A4", 69},
		{"a4", 69},
		{"C4", 60},
		{"C-1", 0},
		{"G9", 127},
		{"C#3", 49},
		{"Db3", 49},
		{"Bb2", 46},
		{"A#2", 46},
		{"B3", 59},
	} {
		got, err := ParseNote(tc.name)
		if err != nil {
			t.Errorf("ParseNote(%q) failed: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseNote(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestParseNoteRejectsGarbage(t *testing.T) {
	for _, name := range []string{"", "H4", "A", "A#", "Axx", "4", "C99", "C-3"} {
		if _, err := ParseNote(name); err == nil {
			t.Errorf("ParseNote(%q) unexpectedly succeeded", name)
		}
	}
}

func TestConcertPitch(t *testing.T) {
	tun := Default()
	if got := tun.Frequency(69); got != 440.0 {
		t.Fatalf("A4 = %v Hz, want exactly 440", got)
	}
	// One octave apart is an exact doubling.
	if got := tun.Frequency(81); got != 880.0 {
		t.Fatalf("A5 = %v Hz, want exactly 880", got)
	}
	if got := tun.Frequency(57); got != 220.0 {
		t.Fatalf("A3 = %v Hz, want exactly 220", got)
	}
}

func TestAlternateReference(t *testing.T) {
	tun := NewTwelveTone(432, 69)
	if got := tun.Frequency(69); got != 432.0 {
		t.Fatalf("A4 = %v Hz with A=432 reference", got)
	}
}
