// runner_test.go - Host execution loop test suite for Intuition8

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/log"
)

func newTestRunner(t *testing.T, clockHz int) (*MachineRunner, *Machine, *HeadlessVideoOutput) {
	t.Helper()

	cfg := log.DefaultConfig()
	cfg.Level = log.ErrorLevel
	logger := log.NewWithConfig(cfg)

	machine := NewMachine(MachineConfig{Logger: logger, Seed: 1})
	chip := newTestVideoChip(t)
	if err := chip.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(chip.Stop)

	runner := NewMachineRunner(machine, chip, logger, RunnerConfig{ClockHz: clockHz})
	return runner, machine, chip.Output().(*HeadlessVideoOutput)
}

// TestCyclesPerFrame verifies the clock to per-frame batch conversion,
// including the one-instruction floor for very slow clocks.
func TestCyclesPerFrame(t *testing.T) {
	tests := []struct {
		clockHz int
		want    int
	}{
		{700, 11},
		{600, 10},
		{60, 1},
		{30, 1},
		{0, DEFAULT_CLOCK_HZ / TIMER_HZ}, // default clock
	}

	for _, tt := range tests {
		runner, _, _ := newTestRunner(t, tt.clockHz)
		if got := runner.CyclesPerFrame(); got != tt.want {
			t.Fatalf("clock %dHz: %d cycles per frame, expected %d", tt.clockHz, got, tt.want)
		}
	}
}

// TestRunFrameExecutesAndPresents verifies that one frame runs the cycle
// batch, ticks the timers once and pushes exactly one frame.
func TestRunFrameExecutesAndPresents(t *testing.T) {
	runner, machine, output := newTestRunner(t, 600)

	// A tight jump-to-self loop keeps execution legal indefinitely.
	writeOpcode(machine, machine.PC, 0x1200)
	machine.DelayTimer = 5

	runner.RunFrame()

	if runner.Halted() {
		t.Fatal("runner halted on a legal programme")
	}
	if machine.DelayTimer != 4 {
		t.Fatalf("delay timer %d after one frame, expected 4", machine.DelayTimer)
	}
	if output.GetFrameCount() != 1 {
		t.Fatalf("frame count %d, expected 1", output.GetFrameCount())
	}
}

// TestRunFrameHaltsOnFault verifies that a machine fault stops execution
// but leaves the display loop presenting.
func TestRunFrameHaltsOnFault(t *testing.T) {
	runner, machine, output := newTestRunner(t, 700)

	// A return with an empty subroutine stack faults on the first cycle.
	writeOpcode(machine, machine.PC, 0x00EE)
	machine.DelayTimer = 5

	runner.RunFrame()
	if !runner.Halted() {
		t.Fatal("runner did not halt on fault")
	}
	if machine.DelayTimer != 5 {
		t.Fatal("timers ticked on the faulting frame")
	}

	runner.RunFrame()
	if output.GetFrameCount() != 2 {
		t.Fatalf("frame count %d, expected halted runner to keep presenting", output.GetFrameCount())
	}
}

// TestLoadProgramAndHardReset verifies ROM loading from disk and that a
// hard reset reloads the retained image and clears the halt state.
func TestLoadProgramAndHardReset(t *testing.T) {
	runner, machine, _ := newTestRunner(t, 700)

	rom := []byte{0x00, 0xEE} // faults immediately
	path := filepath.Join(t.TempDir(), "fault.ch8")
	if err := os.WriteFile(path, rom, 0o644); err != nil {
		t.Fatalf("failed to write ROM: %v", err)
	}

	if err := runner.LoadProgram(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if machine.Memory[PROGRAM_START] != 0x00 || machine.Memory[PROGRAM_START+1] != 0xEE {
		t.Fatal("ROM bytes not in workspace")
	}

	runner.RunFrame()
	if !runner.Halted() {
		t.Fatal("runner did not halt")
	}
	machine.V[3] = 0x42

	runner.HardReset()

	if runner.Halted() {
		t.Fatal("halt state survived hard reset")
	}
	if machine.V[3] != 0 {
		t.Fatal("register state survived hard reset")
	}
	if machine.PC != PROGRAM_START {
		t.Fatalf("PC=0x%03X after hard reset", machine.PC)
	}
	if machine.Memory[PROGRAM_START] != 0x00 || machine.Memory[PROGRAM_START+1] != 0xEE {
		t.Fatal("ROM not reloaded after hard reset")
	}
}

func TestLoadProgramMissingFile(t *testing.T) {
	runner, _, _ := newTestRunner(t, 700)

	if err := runner.LoadProgram(filepath.Join(t.TempDir(), "absent.ch8")); err == nil {
		t.Fatal("missing ROM file accepted")
	}
}

// TestInputWiring verifies that backend key events reach the machine pad
// through the runner's input handler.
func TestInputWiring(t *testing.T) {
	_, machine, output := newTestRunner(t, 700)

	output.PressPad(0x5, true)
	if !machine.Keys.Pressed(0x5) {
		t.Fatal("backend press did not reach the pad")
	}

	output.PressPad(0x5, false)
	if machine.Keys.Pressed(0x5) {
		t.Fatal("backend release did not reach the pad")
	}
}

// TestRunStopsOnBackendClose verifies that the frame loop exits when the
// video output goes away.
func TestRunStopsOnBackendClose(t *testing.T) {
	runner, machine, output := newTestRunner(t, 700)
	writeOpcode(machine, machine.PC, 0x1200)

	finished := make(chan struct{})
	go func() {
		runner.Run(make(chan struct{}))
		close(finished)
	}()

	if err := output.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	<-finished
}
