// runner.go - Host execution loop for Intuition8

package main

import (
	"os"
	"sync"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const (
	// TIMER_HZ is the real-time rate of the frame loop: one timer tick and
	// one presented frame per period, independent of the instruction clock.
	TIMER_HZ = 60

	DEFAULT_CLOCK_HZ = 700
)

type RunnerConfig struct {
	// ClockHz is the instruction rate. Defaults to DEFAULT_CLOCK_HZ, a
	// comfortable speed for most historical programmes.
	ClockHz int
}

// MachineRunner paces the machine: every frame it executes a clock-derived
// batch of cycles, ticks the timers once, and presents the framebuffer.
// The machine itself contains no loop or timing logic.
type MachineRunner struct {
	mutex   sync.Mutex
	machine *Machine
	video   *VideoChip
	logger  *log.Logger
	clockHz int
	halted  bool

	programName string
	program     []byte
}

func NewMachineRunner(machine *Machine, video *VideoChip, logger *log.Logger, config RunnerConfig) *MachineRunner {
	clockHz := config.ClockHz
	if clockHz <= 0 {
		clockHz = DEFAULT_CLOCK_HZ
	}

	r := &MachineRunner{
		machine: machine,
		video:   video,
		logger:  logger,
		clockHz: clockHz,
	}

	output := video.Output()
	output.SetInputHandler(func(key byte, pressed bool) {
		if pressed {
			machine.Keys.Press(key)
		} else {
			machine.Keys.Release(key)
		}
	})
	output.SetResetHandler(r.HardReset)

	return r
}

// LoadProgram reads a raw ROM image and copies it into the workspace. The
// image is retained so a hard reset can reload it.
func (r *MachineRunner) LoadProgram(filename string) error {
	program, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	n, err := r.machine.Load(program)
	if err != nil {
		return err
	}
	r.programName = filename
	r.program = program

	r.logger.Info("Programme loaded",
		log.String("file", filename),
		log.Uint("bytes", uint(n)),
		log.Hex("origin", r.machine.ProgramStart()))
	return nil
}

// HardReset re-initialises the machine and reloads the last programme.
// Wired to the video backend's reset chord (F10 / Ctrl+R).
func (r *MachineRunner) HardReset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.machine.Initialize()
	if r.program != nil {
		if _, err := r.machine.Load(r.program); err != nil {
			r.logger.Error("Reload after reset failed", log.Err(err))
			r.halted = true
			return
		}
	}
	r.halted = false
	r.logger.Info("Hard reset", log.String("file", r.programName))
}

// CyclesPerFrame reports how many instructions execute per 60Hz frame.
func (r *MachineRunner) CyclesPerFrame() int {
	cycles := r.clockHz / TIMER_HZ
	if cycles < 1 {
		cycles = 1
	}
	return cycles
}

// Halted reports whether execution stopped on a machine fault.
func (r *MachineRunner) Halted() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.halted
}

// RunFrame executes one frame's worth of work: a batch of cycles, one timer
// tick and one frame presentation. A machine fault halts execution and
// leaves the last frame on screen; the display keeps running so the fault
// state stays visible until a hard reset.
func (r *MachineRunner) RunFrame() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.halted {
		for i := 0; i < r.CyclesPerFrame(); i++ {
			if err := r.machine.Cycle(); err != nil {
				r.logger.Error("Machine fault, execution halted",
					log.Err(err),
					log.Hex("pc", r.machine.PC))
				r.halted = true
				break
			}
		}
		if !r.halted {
			r.machine.TickTimers()
		}
	}

	if err := r.video.Present(&r.machine.Screen); err != nil {
		r.logger.Error("Frame presentation failed", log.Err(err))
	}
}

// Run drives the frame loop until the stop channel fires or the video
// output goes away.
func (r *MachineRunner) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / TIMER_HZ)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-r.video.Output().Done():
			return
		case <-ticker.C:
			r.RunFrame()
		}
	}
}
