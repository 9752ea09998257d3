package main

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/vsariola/polysine"
	"github.com/vsariola/polysine/analysis"
	"github.com/vsariola/polysine/engine"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type (
	report struct {
		File       string
		SampleRate int
		Channels   int
		BlockSize  int
		Frames     int
		Seconds    float64
		Events     int
		MaxVoices  int
		PeakDB     float64
		RMSDB      float64
		Frequency  float64 // zero if the output has no clear pitch
		Outputs    []string
	}

	// meteredSynth records the largest number of live voices seen at the
	// end of a block.
	meteredSynth struct {
		*engine.Engine
		maxVoices int
	}
)

//go:embed report.tmpl
var defaultReportTemplate string

func (m *meteredSynth) Process(block *polysine.Block) {
	m.Engine.Process(block)
	m.maxVoices = max(m.maxVoices, m.Engine.ActiveVoices())
}

func newReportTemplate(filename string) (*template.Template, error) {
	text := defaultReportTemplate
	if filename != "" {
		b, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("could not read report template: %v", err)
		}
		text = string(b)
	}
	printer := message.NewPrinter(language.English)
	funcs := sprig.TxtFuncMap()
	funcs["group"] = func(n int) string { return printer.Sprintf("%d", n) }
	tmpl, err := template.New("report").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("could not parse report template: %v", err)
	}
	return tmpl, nil
}

func makeReport(filename string, score polysine.Score, buffer polysine.AudioBuffer, blockSize, maxVoices int) report {
	mono := make([]float32, buffer.Frames())
	for i := range mono {
		mono[i] = buffer.Samples[i*buffer.Channels]
	}
	var meter analysis.Meter
	level := meter.Measure(mono)
	freq, err := analysis.DominantFrequency(mono, buffer.SampleRate)
	if err != nil {
		freq = 0
	}
	return report{
		File:       filename,
		SampleRate: buffer.SampleRate,
		Channels:   buffer.Channels,
		BlockSize:  blockSize,
		Frames:     buffer.Frames(),
		Seconds:    float64(buffer.Frames()) / float64(buffer.SampleRate),
		Events:     len(score.Events),
		MaxVoices:  maxVoices,
		PeakDB:     analysis.Decibels(level.Peak),
		RMSDB:      analysis.Decibels(level.RMS),
		Frequency:  freq,
	}
}

func (r report) write(w io.Writer, tmpl *template.Template) error {
	if err := tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("could not execute report template: %v", err)
	}
	fmt.Fprintln(w)
	return nil
}
