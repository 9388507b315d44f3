package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cbegin/seqsynth-go"
	"github.com/cbegin/seqsynth-go/internal/config"
)

var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
	slog.SetDefault(logger)
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML instrument file")
		inPath     = flag.String("in", "", "Standard MIDI File to render")
		outPath    = flag.String("out", "out.wav", "output WAV path")
		sampleRate = flag.Int("sample-rate", 0, "output sample rate (overrides config)")
		buffer     = flag.Int("buffer", 0, "host buffer frames (overrides config)")
		tail       = flag.Float64("tail", 1, "seconds rendered after the last event")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()
	initLogger(*debug)
	logger = logger.With("session", uuid.NewString())

	if err := run(*configPath, *inPath, *outPath, *sampleRate, *buffer, *tail); err != nil {
		logger.Error("render failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath, inPath, outPath string, sampleRate, buffer int, tail float64) error {
	if inPath == "" {
		return errors.New("-in is required")
	}
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if sampleRate > 0 {
		cfg.SampleRate = sampleRate
	}
	if buffer > 0 {
		cfg.BufferFrames = buffer
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	samples, err := seqsynth.RenderSMFFile(inPath, cfg.SampleRate,
		seqsynth.WithLogger(logger),
		seqsynth.WithBlockSize(cfg.BlockSize),
		seqsynth.WithBufferFrames(cfg.BufferFrames),
		seqsynth.WithTempo(cfg.Tempo),
		seqsynth.WithTimeSignature(cfg.TimeSignature[0], cfg.TimeSignature[1]),
		seqsynth.WithParams(cfg.Params),
		seqsynth.WithEffects(cfg.Effects),
		seqsynth.WithTail(tail),
	)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := seqsynth.WriteWAV(f, samples, cfg.SampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}
	frames := len(samples) / 2
	logger.Info("rendered",
		"in", inPath,
		"out", outPath,
		"frames", frames,
		"seconds", float64(frames)/float64(cfg.SampleRate),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
