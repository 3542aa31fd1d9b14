// Command metronome plays a click on every beat of the engine's musical
// clock, accented on the downbeat, and prints bar:beat as it goes.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cbegin/subsynth-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		bpm        = flag.Float64("bpm", 120, "tempo in beats per minute")
		meter      = flag.Int("meter", 4, "beats per bar")
		bars       = flag.Int("bars", 8, "number of bars to play (0 = forever)")
	)
	flag.Parse()

	engine, err := subsynth.New(*sampleRate, subsynth.WithBPM(*bpm))
	if err != nil {
		log.Fatal(err)
	}
	if err := engine.SetMeter(*meter); err != nil {
		log.Fatal(err)
	}

	// Short, bright click: fast envelope, filter wide open.
	engine.SetADSR(0.001, 0.030, 0, 0.010)
	for name, value := range map[string]float64{
		"cutoff":     12000,
		"resonance":  0,
		"pulse_gain": 0.9,
		"sub_gain":   0,
	} {
		if err := engine.SetParam(name, value); err != nil {
			log.Fatal(err)
		}
	}

	player, err := subsynth.NewPlayer(engine)
	if err != nil {
		log.Fatal(err)
	}
	defer player.Stop()
	player.Play()

	last := subsynth.MusicalTime{}
	for {
		now := engine.MusicalTime()
		if now.Bar != last.Bar || now.Beat != last.Beat {
			last = now
			if *bars > 0 && now.Bar > int64(*bars) {
				return
			}
			note := "G5"
			if now.Beat == 1 {
				note = "C6" // downbeat accent
			}
			if err := engine.NoteOnName(note, 1.0); err != nil {
				log.Fatal(err)
			}
			time.AfterFunc(50*time.Millisecond, func() { _ = engine.NoteOffName(note) })
			fmt.Printf("%d:%d\n", now.Bar, now.Beat)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
