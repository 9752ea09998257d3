//go:build cgo

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/vsariola/polysine"
	"github.com/vsariola/polysine/analysis"
	"github.com/vsariola/polysine/engine"
	"github.com/vsariola/polysine/gomidi"
	"github.com/vsariola/polysine/oto"
	"github.com/vsariola/polysine/version"
)

var midiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix (default from config; empty takes the first input)")
var listInputs = flag.Bool("list", false, "list MIDI inputs and exit")
var configFile = flag.String("config", "", "read settings from this .yml file, on top of the user config")
var showMeter = flag.Bool("meter", false, "print the output level and number of live voices once a second")
var versionFlag = flag.Bool("v", false, "print version")

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	config, err := polysine.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if *configFile != "" {
		if err := config.ReadFile(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	if isFlagPassed("midi-input") {
		config.MIDIInput = *midiInput
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("invalid settings: %v", err)
	}
	midiContext, err := gomidi.NewContext(config.SampleRate)
	if err != nil {
		log.Fatal(err)
	}
	defer midiContext.Close()
	if *listInputs {
		for input := range midiContext.InputDevices {
			fmt.Println(input)
		}
		return
	}
	if err := midiContext.OpenByPrefix(config.MIDIInput); err != nil {
		log.Fatalf("failed to open MIDI input: %v", err)
	}
	audioContext, err := oto.NewContext(config.SampleRate, config.Channels)
	if err != nil {
		log.Fatalf("could not acquire oto AudioContext: %v", err)
	}
	source := newLiveSource(engine.New(config.SampleRate), midiContext, config)
	playback := audioContext.Play(source)
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-interrupt:
			if err := playback.Close(); err != nil {
				log.Print(err)
			}
			audioContext.Close()
			return
		case <-ticker.C:
			if !*showMeter {
				continue
			}
			select {
			case s := <-source.status:
				fmt.Printf("peak %6.1f dBFS, rms %6.1f dBFS, %2d voices\n", analysis.Decibels(s.level.Peak), analysis.Decibels(s.level.RMS), s.voices)
			default:
			}
		}
	}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
