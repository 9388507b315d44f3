package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/seqsynth-go"
	"github.com/cbegin/seqsynth-go/internal/config"
)

var logger = slog.Default()

func initLogger(debug bool, logPath string) (func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// the TUI owns the terminal, so logs go to a file when one is given
	w, closeFn := os.Stderr, func() {}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file")
		}
		w, closeFn = f, func() { f.Close() }
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
	slog.SetDefault(logger)
	return closeFn, nil
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML instrument file")
		port       = flag.String("port", "", "MIDI input name (substring, overrides config)")
		list       = flag.Bool("list", false, "list MIDI inputs and exit")
		sampleRate = flag.Int("sample-rate", 0, "output sample rate (overrides config)")
		tempo      = flag.Float64("tempo", 0, "tempo in BPM (overrides config)")
		latency    = flag.Duration("latency", 0, "audio device buffer, e.g. 20ms (0 = device default)")
		noTUI      = flag.Bool("no-tui", false, "play without the meter display")
		logPath    = flag.String("log", "", "write logs to this file instead of stderr")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	if *list {
		for _, name := range seqsynth.InPortNames() {
			fmt.Println(name)
		}
		return
	}

	closeLog, err := initLogger(*debug, *logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()
	logger = logger.With("session", uuid.NewString())

	if err := run(*configPath, *port, *sampleRate, *tempo, *latency, !*noTUI); err != nil {
		logger.Error("play failed", "err", err)
		closeLog()
		os.Exit(1)
	}
}

func run(configPath, port string, sampleRate int, tempo float64, latency time.Duration, tui bool) error {
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
	if tempo > 0 {
		cfg.Tempo = tempo
	}
	if port != "" {
		cfg.MIDIIn = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	in, err := seqsynth.NewInstrument(cfg.SampleRate,
		seqsynth.WithLogger(logger),
		seqsynth.WithBlockSize(cfg.BlockSize),
		seqsynth.WithBufferFrames(cfg.BufferFrames),
		seqsynth.WithTempo(cfg.Tempo),
		seqsynth.WithTimeSignature(cfg.TimeSignature[0], cfg.TimeSignature[1]),
		seqsynth.WithEffects(cfg.Effects),
		seqsynth.WithOutputBuffer(latency),
	)
	if err != nil {
		return err
	}
	if err := cfg.Apply(in.Params()); err != nil {
		return err
	}

	stop, err := in.ListenMIDI(cfg.MIDIIn)
	if err != nil {
		return err
	}
	defer stop()

	if err := in.Play(); err != nil {
		return err
	}
	defer in.Stop()

	if !tui {
		logger.Info("playing, press enter to stop")
		fmt.Scanln()
		return nil
	}
	_, err = tea.NewProgram(newModel(in), tea.WithAltScreen()).Run()
	return errors.Wrap(err, "meter display")
}
