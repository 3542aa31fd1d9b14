// Package midi implements a sample-stamped MIDI 1.0 byte-stream parser.
package midi

// Status high nibbles for channel messages.
const (
	StatusNoteOff         = 0x80
	StatusNoteOn          = 0x90
	StatusPolyAftertouch  = 0xA0
	StatusControlChange   = 0xB0
	StatusProgramChange   = 0xC0
	StatusChannelPressure = 0xD0
	StatusPitchBend       = 0xE0
)

// Event is one decoded channel message, stamped with the caller-supplied
// sample offset of the chunk it arrived in.
type Event struct {
	Status       byte
	Data1        byte
	Data2        byte
	SampleOffset uint32
}

// IsNoteOn reports a note-on with non-zero velocity.
func (e Event) IsNoteOn() bool {
	return e.Status&0xF0 == StatusNoteOn && e.Data2 > 0
}

// IsNoteOff reports an explicit note-off, or a note-on with velocity zero,
// which the wire format uses as a note-off under running status.
func (e Event) IsNoteOff() bool {
	if e.Status&0xF0 == StatusNoteOff {
		return true
	}
	return e.Status&0xF0 == StatusNoteOn && e.Data2 == 0
}

// Channel returns the 0-15 channel of the message.
func (e Event) Channel() byte { return e.Status & 0x0F }

type state int

const (
	waitingForStatus state = iota
	waitingForData1
	waitingForData2
)

// Parser is a running-status state machine over a raw MIDI byte stream.
// System real-time bytes (0xF8-0xFF) are ignored. A data byte arriving in
// the idle state reuses the cached running status.
type Parser struct {
	state         state
	runningStatus byte
	pendingStatus byte
	pendingData1  byte
}

// Parse consumes a chunk of bytes, invoking emit for every completed event.
// sampleOffset stamps each emitted event.
func (p *Parser) Parse(data []byte, sampleOffset uint32, emit func(Event)) {
	for _, b := range data {
		if b >= 0x80 {
			if b >= 0xF8 {
				continue // system real-time, transparent to the stream
			}
			p.pendingStatus = b
			p.runningStatus = b
			p.state = waitingForData1
			continue
		}

		if p.state == waitingForStatus && p.runningStatus != 0 {
			p.pendingStatus = p.runningStatus
			p.state = waitingForData1
		}

		switch p.state {
		case waitingForData1:
			p.pendingData1 = b
			if expectedDataBytes(p.pendingStatus) == 1 {
				emit(Event{Status: p.pendingStatus, Data1: b, SampleOffset: sampleOffset})
				p.state = waitingForStatus
			} else {
				p.state = waitingForData2
			}
		case waitingForData2:
			emit(Event{
				Status:       p.pendingStatus,
				Data1:        p.pendingData1,
				Data2:        b,
				SampleOffset: sampleOffset,
			})
			p.state = waitingForStatus
		case waitingForStatus:
			// data byte with no status context; drop it
		}
	}
}

// Reset clears parser state, including the running status.
func (p *Parser) Reset() {
	p.state = waitingForStatus
	p.runningStatus = 0
	p.pendingStatus = 0
	p.pendingData1 = 0
}

func expectedDataBytes(status byte) int {
	switch status & 0xF0 {
	case StatusNoteOff, StatusNoteOn, StatusPolyAftertouch, StatusControlChange, StatusPitchBend:
		return 2
	case StatusProgramChange, StatusChannelPressure:
		return 1
	default:
		return 0
	}
}
