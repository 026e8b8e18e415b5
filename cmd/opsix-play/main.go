package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsix/opsix"
	"github.com/opsix/opsix/cmd"
	"github.com/opsix/opsix/control"
	"github.com/opsix/opsix/control/gomidi"
	"github.com/opsix/opsix/control/keyboard"
	"github.com/opsix/opsix/control/serial"
	"github.com/opsix/opsix/fm"
	"github.com/opsix/opsix/oto"
	"github.com/opsix/opsix/preset"
	"github.com/opsix/opsix/recorder"
	"github.com/opsix/opsix/version"
)

type options struct {
	keys   bool
	record string
	pcm    bool
}

func main() {
	configFile := flag.String("config", "", "Read the player configuration from a .yml file.")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error.")
	rate := flag.Int("rate", 0, "Sample rate in Hz. Overrides the config file.")
	presetName := flag.String("preset", "", "Name of the preset to start with. Overrides the config file.")
	midiIn := flag.String("midi", "", "Prefix of the MIDI input port name. Overrides the config file.")
	serialPort := flag.String("serial", "", "Serial port of a control surface. Overrides the config file.")
	keys := flag.Bool("keys", false, "Play notes from the computer keyboard.")
	record := flag.String("record", "", "Record the output to a .wav file.")
	pcm := flag.Bool("c", false, "Record 16-bit signed PCM instead of float32.")
	list := flag.Bool("list", false, "List MIDI inputs, serial ports and presets, then exit.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	logger, err := cmd.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg := cmd.DefaultConfig()
	if *configFile != "" {
		if cfg, err = cmd.LoadConfig(*configFile); err != nil {
			logger.Error("could not load config", "err", err)
			os.Exit(1)
		}
	}
	if *rate != 0 {
		cfg.SampleRate = *rate
	}
	if *presetName != "" {
		cfg.Preset = *presetName
	}
	if *midiIn != "" {
		cfg.MIDI.Input = *midiIn
	}
	if *serialPort != "" {
		cfg.Serial.Port = *serialPort
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(2)
	}
	if *list {
		listDevices()
		os.Exit(0)
	}
	if err := run(cfg, options{keys: *keys, record: *record, pcm: *pcm}, logger); err != nil {
		logger.Error("player failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg cmd.Config, opts options, logger *slog.Logger) error {
	engine, err := fm.NewEngine(cfg.SampleRate)
	if err != nil {
		return err
	}
	bank, err := preset.Default()
	if err != nil {
		return err
	}
	if cfg.Preset != "" {
		// the router is not running yet, so the engine has no other producer
		if err := loadPreset(engine, bank, cfg.Preset); err != nil {
			return err
		}
	}
	router := control.NewRouter(engine, &control.Translator{Channel: cfg.MIDI.Channel, Patches: bank}, logger)
	go router.Run()
	defer router.Stop(time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := opsix.AudioSource(func(buffer opsix.AudioBuffer) {
		engine.Process(buffer, cfg.SampleRate)
	})
	recordDone := make(chan error, 1)
	if opts.record != "" {
		f, err := os.Create(opts.record)
		if err != nil {
			return fmt.Errorf("cannot create recording: %w", err)
		}
		defer f.Close()
		rec, err := recorder.New(f, cfg.SampleRate, opts.pcm, logger)
		if err != nil {
			return err
		}
		source = rec.Tap(source)
		go func() { recordDone <- rec.Run(ctx, 100*time.Millisecond) }()
	} else {
		recordDone <- nil
	}

	audio, err := oto.NewContext(cfg.SampleRate, cfg.Latency)
	if err != nil {
		return err
	}
	defer audio.Close()
	out, err := audio.Play(source)
	if err != nil {
		return err
	}
	defer out.Close()

	monitor := control.NewMonitor(engine, cfg.MeterInterval, logger)
	quit := make(chan struct{}, 1)

	if cfg.MIDI.Input != "" {
		in, err := gomidi.Open(cfg.MIDI.Input, router.Events, logger)
		if errors.Is(err, gomidi.ErrNotCompiled) {
			logger.Warn("midi input needs cgo, continuing without it")
		} else if err != nil {
			return err
		} else {
			defer in.Close()
		}
	}
	if cfg.Serial.Port != "" {
		surface, err := serial.Open(cfg.Serial.Port, cfg.Serial.Baud, logger)
		if err != nil {
			return err
		}
		defer surface.Close()
		go surface.Run(router.Events)
		monitor.OnUpdate = func(_ *opsix.Snapshot, m *control.Meter) {
			if err := surface.SendLevels(m); err != nil {
				logger.Debug("could not send levels", "err", err)
			}
		}
	}
	if opts.keys {
		restore, err := keyboard.RawTerminal(int(os.Stdin.Fd()))
		if err != nil {
			return err
		}
		defer restore()
		go func() {
			if err := keyboard.New(router.Events).Run(os.Stdin); err != nil {
				logger.Error("keyboard stopped", "err", err)
			}
			quit <- struct{}{}
		}()
	}

	go monitor.Run(ctx)
	logger.Info("playing", "version", version.VersionOrHash, "rate", cfg.SampleRate, "presets", len(bank.Presets))
	select {
	case <-ctx.Done():
	case <-quit:
		stop()
	}
	logger.Info("stopping")
	if err := <-recordDone; err != nil {
		return fmt.Errorf("recording failed: %w", err)
	}
	return nil
}

func loadPreset(engine *fm.Engine, bank *preset.Bank, name string) error {
	program := bank.Find(name)
	patch, err := bank.Patch(program)
	if err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	cmds, err := patch.Commands(nil)
	if err != nil {
		return err
	}
	for _, c := range cmds {
		if !engine.Enqueue(c) {
			return fmt.Errorf("preset %q does not fit in the command queue", name)
		}
	}
	return nil
}

func listDevices() {
	if inputs, err := gomidi.Inputs(); err == nil {
		fmt.Println("MIDI inputs:")
		for _, name := range inputs {
			fmt.Println("  " + name)
		}
	}
	if ports, err := serial.Ports(); err == nil {
		fmt.Println("Serial ports:")
		for _, name := range ports {
			fmt.Println("  " + name)
		}
	}
	if bank, err := preset.Default(); err == nil {
		fmt.Println("Presets:")
		for i, name := range bank.Names() {
			fmt.Printf("  %3d %s\n", i, name)
		}
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "opsix plays the six operator FM synthesizer live.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
