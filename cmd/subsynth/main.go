// Command subsynth is an interactive synthesizer: the computer keyboard
// plays notes through the engine with a low-latency oto output stream.
// A patch file given with -patch is hot-reloaded whenever it changes.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"

	"github.com/cbegin/subsynth-go"
)

// keyNotes maps the middle row to a C major-ish keyboard: white keys on
// asdf..., black keys on the row above.
var keyNotes = map[byte]int{
	'a': 60, 'w': 61, 's': 62, 'e': 63, 'd': 64, 'f': 65, 't': 66,
	'g': 67, 'y': 68, 'h': 69, 'u': 70, 'j': 71, 'k': 72, 'o': 73, 'l': 74,
}

const noteHold = 250 * time.Millisecond

type engineStream struct {
	engine *subsynth.Engine
	buf    []float32
}

func (s *engineStream) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	s.buf = s.buf[:need]
	s.engine.RenderInterleaved(s.buf)
	for i, v := range s.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		bpm        = flag.Float64("bpm", 120, "musical clock tempo")
		patchPath  = flag.String("patch", "", "patch file to load and watch")
	)
	flag.Parse()

	engine, err := subsynth.New(*sampleRate, subsynth.WithBPM(*bpm))
	if err != nil {
		log.Fatal(err)
	}
	if *patchPath != "" {
		if err := engine.LoadPatch(*patchPath); err != nil {
			log.Fatal(err)
		}
		go watchPatch(engine, *patchPath)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		log.Fatal(err)
	}
	<-ready
	player := ctx.NewPlayer(&engineStream{engine: engine})
	player.Play()
	defer player.Close()

	go drainLogs(engine)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatalf("failed to set raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("keys a..l play notes, z/x shift octave, c chorus, v delay, q quits\r\n")

	octaveShift := 0
	chorusMode := subsynth.ChorusOff
	delayOn := false
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			break
		}
		key := buf[0]
		switch key {
		case 'q', 3: // q or ctrl-c
			return
		case 'z':
			if octaveShift > -3 {
				octaveShift--
			}
		case 'x':
			if octaveShift < 3 {
				octaveShift++
			}
		case 'c':
			chorusMode = (chorusMode + 1) % 4
			engine.SetChorusMode(chorusMode)
			fmt.Printf("chorus mode %d\r\n", chorusMode)
		case 'v':
			delayOn = !delayOn
			engine.SetDelayEnabled(delayOn)
			fmt.Printf("delay %v\r\n", delayOn)
		default:
			note, ok := keyNotes[key]
			if !ok {
				continue
			}
			note += octaveShift * 12
			if err := engine.NoteOn(note, 0.8); err != nil {
				continue
			}
			time.AfterFunc(noteHold, func() { _ = engine.NoteOff(note) })
		}
	}
}

// watchPatch reloads the patch whenever the file is rewritten.
func watchPatch(engine *subsynth.Engine, path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("patch watch unavailable: %v", err)
		return
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		log.Printf("patch watch %s: %v", path, err)
		return
	}
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := engine.LoadPatch(path); err != nil {
					log.Printf("patch reload failed: %v", err)
				} else {
					fmt.Printf("patch reloaded\r\n")
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("patch watch error: %v", err)
		}
	}
}

// drainLogs forwards audio-thread telemetry to the terminal.
func drainLogs(engine *subsynth.Engine) {
	for {
		time.Sleep(100 * time.Millisecond)
		engine.DrainLogs(func(entry subsynth.LogEntry) {
			if entry.IsEvent {
				fmt.Printf("[%s] %v\r\n", entry.Tag, entry.Value)
			} else {
				fmt.Printf("[%s] %s\r\n", entry.Tag, entry.Message)
			}
		})
	}
}
