// Package tuning maps note spellings to MIDI pitches and pitches to
// frequencies.
package tuning

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var nameToOffset = map[string]int{
	"C": 0, "C#": 1, "DB": 1, "D": 2, "D#": 3, "EB": 3,
	"E": 4, "F": 5, "F#": 6, "GB": 6, "G": 7, "G#": 8,
	"AB": 8, "A": 9, "A#": 10, "BB": 10, "B": 11,
}

// ParseNote converts a spelling like "C4", "A#2" or "Gb-1" into a MIDI note
// number. Octaves follow the C-1 = 0 convention, so A4 = 69.
func ParseNote(name string) (int, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return 0, fmt.Errorf("tuning: empty note name")
	}

	i := 0
	letter := strings.ToUpper(s[i : i+1])
	i++
	if i < len(s) && (s[i] == '#' || s[i] == 'b' || s[i] == 'B') {
		letter += strings.ToUpper(s[i : i+1])
		i++
	}

	offset, ok := nameToOffset[letter]
	if !ok {
		return 0, fmt.Errorf("tuning: invalid note name %q", name)
	}

	if i >= len(s) {
		return 0, fmt.Errorf("tuning: octave missing in %q", name)
	}
	octave, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, fmt.Errorf("tuning: invalid octave in %q", name)
	}

	note := (octave+1)*12 + offset
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("tuning: %q is outside the MIDI range", name)
	}
	return note, nil
}

// TwelveTone is standard 12-tone equal temperament around a reference pitch.
type TwelveTone struct {
	referenceHz   float64
	referenceNote int
}

// NewTwelveTone creates a tuning with the given reference. The common
// default is A4 (MIDI 69) at 440 Hz.
func NewTwelveTone(referenceHz float64, referenceNote int) *TwelveTone {
	return &TwelveTone{referenceHz: referenceHz, referenceNote: referenceNote}
}

// Default is concert-pitch 12-TET: A4 = 440 Hz.
func Default() *TwelveTone { return NewTwelveTone(440, 69) }

// Frequency returns the pitch of a MIDI note in Hz.
func (t *TwelveTone) Frequency(note int) float64 {
	return t.referenceHz * math.Exp2(float64(note-t.referenceNote)/12)
}
