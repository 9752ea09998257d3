package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsariola/polysine"
	"github.com/vsariola/polysine/engine"
	"github.com/vsariola/polysine/gomidi"
	"github.com/vsariola/polysine/oto"
	"github.com/vsariola/polysine/version"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the current working directory.")
	play := flag.Bool("p", false, "Play the input scores (default behaviour when no other output is defined).")
	rawOut := flag.Bool("r", false, "Output the rendered score as .raw file. By default, saves interleaved float32 samples to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered score as .wav file.")
	pcm := flag.Bool("c", false, "Convert .raw output to 16-bit signed PCM.")
	bits := flag.Int("bits", 16, "Bits per sample in .wav output: 16 or 24.")
	configFile := flag.String("config", "", "Read settings from this .yml file, on top of the user config.")
	sampleRate := flag.Int("rate", 0, "Sample rate in Hz. Overrides the config.")
	blockSize := flag.Int("block", 0, "Block size in samples. Overrides the config.")
	channels := flag.Int("ch", 0, "Number of output channels. Overrides the config.")
	smooth := flag.Float64("smooth", 0, "Smooth parameter, (0, 1]. Overrides the config.")
	gain := flag.Float64("gain", 0, "Gain parameter, [0, 1]; 0.5 is unity gain. Overrides the config.")
	tail := flag.Float64("tail", 2, "Seconds to render after the last event of a MIDI file.")
	reportFile := flag.String("report", "", "Text template for the report printed after rendering each file.")
	quiet := flag.Bool("q", false, "Do not print reports.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	config, err := polysine.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	if *configFile != "" {
		if err := config.ReadFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			config.SampleRate = *sampleRate
		case "block":
			config.BlockSize = *blockSize
		case "ch":
			config.Channels = *channels
		case "smooth":
			config.Smooth = *smooth
		case "gain":
			config.Gain = *gain
		}
	})
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid settings: %v\n", err)
		os.Exit(1)
	}
	if *bits != 16 && *bits != 24 {
		fmt.Fprintf(os.Stderr, "unsupported bits per sample: %v\n", *bits)
		os.Exit(1)
	}
	if !*rawOut && !*wavOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	tmpl, err := newReportTemplate(*reportFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	var audioContext polysine.AudioContext
	if *play {
		audioContext, err = oto.NewContext(config.SampleRate, config.Channels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
			os.Exit(1)
		}
	}
	process := func(filename string) error {
		outputPath := func(extension string) (string, error) {
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return "", fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return "", fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			_, name := filepath.Split(filename)
			return filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+extension), nil
		}
		var score polysine.Score
		var err error
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".mid", ".midi":
			score, err = gomidi.ReadScore(filename, config.SampleRate, int(*tail*float64(config.SampleRate)))
		default:
			score, err = polysine.ReadScore(filename)
		}
		if err != nil {
			return err
		}
		synth := &meteredSynth{Engine: engine.New(config.SampleRate)}
		buffer, err := polysine.Render(synth, score, config.Params(), config.SampleRate, config.BlockSize, config.Channels)
		if err != nil {
			return fmt.Errorf("polysine.Render failed: %v", err)
		}
		var playWaiter polysine.CloserWaiter
		if *play {
			playWaiter = audioContext.Play(buffer.Source())
		}
		var outputs []string
		if *rawOut {
			raw, err := buffer.Raw(*pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %v", err)
			}
			f, err := outputPath(".raw")
			if err != nil {
				return err
			}
			if err := os.WriteFile(f, raw, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			outputs = append(outputs, f)
		}
		if *wavOut {
			f, err := outputPath(".wav")
			if err != nil {
				return err
			}
			if err := writeWav(f, &buffer, *bits/8); err != nil {
				return err
			}
			outputs = append(outputs, f)
		}
		if !*quiet {
			r := makeReport(filename, score, buffer, config.BlockSize, synth.maxVoices)
			r.Outputs = outputs
			if err := r.write(os.Stdout, tmpl); err != nil {
				return err
			}
		}
		if *play {
			playWaiter.Wait()
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			var files []string
			for _, pattern := range []string{"*.yml", "*.json", "*.mid"} {
				matches, err := filepath.Glob(filepath.Join(param, pattern))
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not glob the path %v for %v files: %v\n", param, pattern, err)
					retval = 1
					continue
				}
				files = append(files, matches...)
			}
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	if audioContext != nil {
		audioContext.Close()
	}
	os.Exit(retval)
}

func writeWav(filename string, buffer *polysine.AudioBuffer, precision int) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file %v: %v", filename, err)
	}
	if err := buffer.WriteWav(f, precision); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close file %v: %v", filename, err)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Polysine command line utility for rendering and playing .yml/.json/.mid scores.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
