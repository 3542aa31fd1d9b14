package voice

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/dsp"
	"github.com/cbegin/subsynth-go/internal/midi"
	"github.com/cbegin/subsynth-go/internal/rtlog"
)

// MaxVoices is the fixed polyphony of the manager.
const MaxVoices = 16

// Master gains applied to the voice sum, sized so a full chord stays inside
// [-1, 1] after saturation.
const (
	masterGainMono   = 0.4
	masterGainStereo = 0.2
)

type slot struct {
	voice          *Voice
	currentNote    int
	active         bool
	lastNoteOnTime uint64
}

// Manager maps MIDI pitches onto the fixed voice pool, renders the summed
// output, and steals voices when the pool is exhausted. Allocation state is
// single-writer: whichever thread dispatches note events owns the table.
type Manager struct {
	sampleRate float64
	slots      [MaxVoices]slot
	noteToSlot [128]int
	timestamp  uint64
	pool       *dsp.Pool
	log        *rtlog.Logger
}

// NewManager creates a manager with its own scratch pool.
func NewManager(sampleRate float64, blockSize int) *Manager {
	m := &Manager{
		sampleRate: sampleRate,
		pool:       dsp.NewPool(blockSize, MaxVoices+2),
		log:        rtlog.Default,
	}
	m.pool.SetOverflowFunc(func() {
		m.log.LogMessage("BufferPool", "free list empty, allocating")
	})
	for i := range m.slots {
		m.slots[i] = slot{voice: New(sampleRate), currentNote: -1}
	}
	for i := range m.noteToSlot {
		m.noteToSlot[i] = -1
	}
	return m
}

func (m *Manager) nextTimestamp() uint64 {
	m.timestamp++
	return m.timestamp
}

// NoteOn assigns a voice to the pitch. A pitch already sounding retriggers
// in place. Otherwise an idle voice is claimed; with none available, the
// steal order is releasing-first, then least-recently triggered. frequency
// overrides the 12-TET default when positive.
func (m *Manager) NoteOn(note int, velocity float64, frequency float64) {
	if note < 0 || note > 127 {
		return
	}
	freq := frequency
	if freq <= 0 {
		freq = noteToFreq(note)
	}

	// Retrigger in place.
	if idx := m.noteToSlot[note]; idx >= 0 {
		s := &m.slots[idx]
		if s.active && s.currentNote == note {
			s.lastNoteOnTime = m.nextTimestamp()
			s.voice.NoteOn(freq, velocity)
			return
		}
	}

	// Claim an idle voice.
	for i := range m.slots {
		if !m.slots[i].voice.IsActive() {
			m.claim(i, note, velocity, freq)
			return
		}
	}

	// Steal: releasing voices first, then the oldest.
	candidate := -1
	for i := range m.slots {
		if m.slots[i].voice.IsReleasing() {
			candidate = i
			break
		}
	}
	if candidate == -1 {
		oldest := uint64(math.MaxUint64)
		for i := range m.slots {
			if m.slots[i].lastNoteOnTime < oldest {
				oldest = m.slots[i].lastNoteOnTime
				candidate = i
			}
		}
	}

	s := &m.slots[candidate]
	m.log.LogEvent("VoiceSteal", float32(s.currentNote))
	if s.currentNote >= 0 && m.noteToSlot[s.currentNote] == candidate {
		m.noteToSlot[s.currentNote] = -1
	}
	s.voice.Reset()
	s.voice.SetPan(0)
	m.claim(candidate, note, velocity, freq)
}

func (m *Manager) claim(idx, note int, velocity, freq float64) {
	s := &m.slots[idx]
	s.currentNote = note
	s.active = true
	s.lastNoteOnTime = m.nextTimestamp()
	m.noteToSlot[note] = idx
	s.voice.NoteOn(freq, velocity)
}

// NoteOnPanned triggers a note and places it in the stereo field.
func (m *Manager) NoteOnPanned(note int, velocity, pan float64) {
	m.NoteOn(note, velocity, 0)
	m.SetNotePan(note, pan)
}

// SetNotePan adjusts the pan of a currently sounding pitch; unknown pitches
// are a no-op.
func (m *Manager) SetNotePan(note int, pan float64) {
	if note < 0 || note > 127 {
		return
	}
	if idx := m.noteToSlot[note]; idx >= 0 {
		s := &m.slots[idx]
		if s.active && s.currentNote == note {
			s.voice.SetPan(pan)
		}
	}
}

// NoteOff gates off the voice holding the pitch. The slot stays marked
// active until the render loop observes the envelope's terminal state.
func (m *Manager) NoteOff(note int) {
	if note < 0 || note > 127 {
		return
	}
	if idx := m.noteToSlot[note]; idx >= 0 {
		s := &m.slots[idx]
		if s.active && s.currentNote == note {
			s.voice.NoteOff()
			m.noteToSlot[note] = -1
		}
	}
}

// SetChannelAftertouch routes channel pressure to every sounding voice.
func (m *Manager) SetChannelAftertouch(value float64) {
	for i := range m.slots {
		if m.slots[i].active {
			m.slots[i].voice.SetAftertouch(value)
		}
	}
}

// SetPolyAftertouch routes polyphonic pressure to the voice holding a pitch.
func (m *Manager) SetPolyAftertouch(note int, value float64) {
	if note < 0 || note > 127 {
		return
	}
	if idx := m.noteToSlot[note]; idx >= 0 {
		s := &m.slots[idx]
		if s.active && s.currentNote == note {
			s.voice.SetAftertouch(value)
		}
	}
}

// HandleEvent dispatches a parsed MIDI event. Only note on/off drive the
// allocator; pressure messages update the aftertouch source, everything
// else is decoded upstream and ignored here.
func (m *Manager) HandleEvent(e midi.Event) {
	switch {
	case e.IsNoteOn():
		m.NoteOn(int(e.Data1), float64(e.Data2)/127, 0)
	case e.IsNoteOff():
		m.NoteOff(int(e.Data1))
	case e.Status&0xF0 == midi.StatusChannelPressure:
		m.SetChannelAftertouch(float64(e.Data1) / 127)
	case e.Status&0xF0 == midi.StatusPolyAftertouch:
		m.SetPolyAftertouch(int(e.Data1), float64(e.Data2)/127)
	}
}

// Pull renders the mono voice sum into out.
func (m *Manager) Pull(out []float32) {
	for i := range out {
		out[i] = 0
	}
	block := m.pool.Borrow()
	defer m.pool.Release(block)
	scratch := block.Left[:len(out)]

	for i := range m.slots {
		s := &m.slots[i]
		if !s.active {
			continue
		}
		if s.voice.IsActive() {
			s.voice.Pull(scratch)
			for j := range out {
				out[j] += scratch[j]
			}
		} else {
			m.reclaim(i)
		}
	}
	for i := range out {
		out[i] *= masterGainMono
	}
}

// PullStereo renders the stereo voice sum into buf.
func (m *Manager) PullStereo(buf *dsp.AudioBuffer) {
	buf.Clear()
	block := m.pool.Borrow()
	defer m.pool.Release(block)
	voiceBuf := block.Buffer(buf.Frames())

	for i := range m.slots {
		s := &m.slots[i]
		if !s.active {
			continue
		}
		if s.voice.IsActive() {
			s.voice.PullStereo(&voiceBuf)
			for j := range buf.Left {
				buf.Left[j] += voiceBuf.Left[j]
				buf.Right[j] += voiceBuf.Right[j]
			}
		} else {
			m.reclaim(i)
		}
	}
	for i := range buf.Left {
		buf.Left[i] *= masterGainStereo
		buf.Right[i] *= masterGainStereo
	}
}

// reclaim lazily frees a slot whose envelope has terminated.
func (m *Manager) reclaim(i int) {
	s := &m.slots[i]
	s.active = false
	if s.currentNote >= 0 && m.noteToSlot[s.currentNote] == i {
		m.noteToSlot[s.currentNote] = -1
	}
	s.currentNote = -1
}

// Reset silences and clears every slot.
func (m *Manager) Reset() {
	for i := range m.slots {
		m.slots[i].voice.Reset()
		m.slots[i].currentNote = -1
		m.slots[i].active = false
		m.slots[i].lastNoteOnTime = 0
	}
	for i := range m.noteToSlot {
		m.noteToSlot[i] = -1
	}
	m.timestamp = 0
}

// VoiceAt returns the voice in slot i, or nil for out-of-range indices.
func (m *Manager) VoiceAt(i int) *Voice {
	if i < 0 || i >= MaxVoices {
		return nil
	}
	return m.slots[i].voice
}

// ForEachVoice applies fn to every voice, sounding or not. The facade uses
// this to fan master parameters out to the pool.
func (m *Manager) ForEachVoice(fn func(*Voice)) {
	for i := range m.slots {
		fn(m.slots[i].voice)
	}
}

// SlotForNote returns the slot index holding a pitch, or -1.
func (m *Manager) SlotForNote(note int) int {
	if note < 0 || note > 127 {
		return -1
	}
	return m.noteToSlot[note]
}

// SlotNote returns the pitch held by a slot, or -1.
func (m *Manager) SlotNote(i int) int {
	if i < 0 || i >= MaxVoices {
		return -1
	}
	return m.slots[i].currentNote
}

// SlotActive reports whether a slot is marked sounding.
func (m *Manager) SlotActive(i int) bool {
	if i < 0 || i >= MaxVoices {
		return false
	}
	return m.slots[i].active
}

// ActiveCount returns the number of slots currently marked sounding.
func (m *Manager) ActiveCount() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].active {
			n++
		}
	}
	return n
}

func noteToFreq(note int) float64 {
	return 440 * math.Exp2(float64(note-69)/12)
}
