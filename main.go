// main.go - Main entry point for the Intuition8 virtual machine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition8
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/retroenv/retrogolib/log"
)

func boilerPlate() {
	fmt.Println("\nIntuition8 - a CHIP-8 virtual machine from the Intuition Engine family.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/Intuition8")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func createLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func main() {
	var (
		etiMode  bool
		terminal bool
		debug    bool
		quiet    bool
		scale    int
		clockHz  int
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&etiMode, "eti660", false, "Use the ETI-660 programme origin (0x600)")
	flagSet.BoolVar(&terminal, "terminal", false, "Render into the terminal instead of a window")
	flagSet.BoolVar(&debug, "debug", false, "Enable debug logging")
	flagSet.BoolVar(&quiet, "quiet", false, "Log errors only")
	flagSet.IntVar(&scale, "scale", 10, "Window scale factor")
	flagSet.IntVar(&clockHz, "clock", DEFAULT_CLOCK_HZ, "Instruction clock in Hz")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./intuition8 [-eti660] [-terminal] [-scale N] [-clock HZ] filename")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	filename := flagSet.Arg(0)
	if filename == "" {
		flagSet.Usage()
		os.Exit(1)
	}

	if !terminal {
		boilerPlate()
	}

	logger := createLogger(debug, quiet)

	machine := NewMachine(MachineConfig{
		ETIMode: etiMode,
		Logger:  logger,
	})

	backend := VIDEO_BACKEND_EBITEN
	if terminal {
		backend = VIDEO_BACKEND_TERMINAL
	}

	videoChip, err := NewVideoChip(backend, scale)
	if err != nil {
		logger.Fatal("Failed to initialize video", log.Err(err))
	}

	if terminal {
		// The terminal bell is the whole sound chip on this backend.
		machine.OnBeep = func(active bool) {
			if active {
				fmt.Print("\a")
			}
		}
	} else {
		machine.OnBeep = func(active bool) {
			logger.Debug("Beep signal", log.String("state", beepState(active)))
		}
	}

	runner := NewMachineRunner(machine, videoChip, logger, RunnerConfig{
		ClockHz: clockHz,
	})

	if err := runner.LoadProgram(filename); err != nil {
		logger.Fatal("Failed to load programme", log.Err(err))
	}

	if err := videoChip.Start(); err != nil {
		logger.Fatal("Failed to start video", log.Err(err))
	}
	defer videoChip.Stop()

	stop := make(chan struct{})
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		<-interrupts
		close(stop)
	}()

	runner.Run(stop)
}

func beepState(active bool) string {
	if active {
		return "on"
	}
	return "off"
}
