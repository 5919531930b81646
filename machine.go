// machine.go - CHIP-8 machine state for Intuition8

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition8
License: GPLv3 or later
*/

/*
machine.go - CHIP-8 Machine State Aggregate

This module holds the complete state of one CHIP-8 machine instance: the
4096-byte address space, the sixteen general registers, the index register,
the programme counter, the subroutine stack, both countdown timers, the
64x32 monochrome framebuffer and the sixteen-key pad.

Memory layout:

    0x000 - 0x04F  interpreter area (unused, kept zeroed)
    0x050 - 0x09F  built-in font glyphs, 5 bytes per hex digit
    0x200 - 0xFFF  programme workspace (standard mode)
    0x600 - 0xFFF  programme workspace (ETI-660 mode)

The machine performs no scheduling and spawns no goroutines. One Cycle()
call executes exactly one instruction; TickTimers() decrements the delay
and sound timers and is expected to be driven by the host at 60Hz. The
embedding application owns the instance and is responsible for serialising
cycle execution against framebuffer reads. Keypad writes arrive from the
host input layer and are serialised inside the Keypad itself.
*/

package main

import (
	"math/rand"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const (
	MEMORY_SIZE = 4096

	FONT_BASE       = 0x050
	FONT_GLYPH_SIZE = 5

	PROGRAM_START     = 0x200
	PROGRAM_START_ETI = 0x600

	NUM_REGISTERS = 16
	STACK_DEPTH   = 16

	// I and all computed jump targets are 12-bit quantities.
	ADDRESS_MASK = 0x0FFF
)

// fontset holds the 80-byte glyph table for the hex digits 0-F,
// seeded at FONT_BASE by Initialize. Each glyph is 5 rows of 8 pixels.
var fontset = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

type MachineConfig struct {
	// ETIMode selects the ETI-660 programme origin (0x600) instead of the
	// standard 0x200. Fixed for the lifetime of the machine instance.
	ETIMode bool

	Logger *log.Logger

	// Seed overrides the CXNN random source seed. Zero means time-based.
	Seed int64
}

type Machine struct {
	Memory [MEMORY_SIZE]byte
	V      [NUM_REGISTERS]byte
	I      uint16
	PC     uint16
	Stack  [STACK_DEPTH]uint16
	SP     byte

	DelayTimer byte
	SoundTimer byte

	Keys   *Keypad
	Screen Screen

	// OnBeep is invoked with true when the sound timer becomes active and
	// with false when it runs out. No waveform is synthesised here; the
	// host decides how to surface the signal.
	OnBeep func(active bool)

	// OnDelayExpired is invoked when the delay timer transitions to zero.
	OnDelayExpired func()

	etiMode      bool
	programStart uint16
	beeping      bool
	rng          *rand.Rand
	logger       *log.Logger
}

func NewMachine(config MachineConfig) *Machine {
	logger := config.Logger
	if logger == nil {
		logger = log.NewWithConfig(log.DefaultConfig())
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	m := &Machine{
		Keys:    NewKeypad(),
		etiMode: config.ETIMode,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger,
	}
	m.programStart = PROGRAM_START
	if m.etiMode {
		m.programStart = PROGRAM_START_ETI
	}

	m.Initialize()
	return m
}

// Initialize resets every machine field to its canonical power-on state and
// re-seeds the font glyph table. It is called once at construction and again
// by the host on a hard reset; instruction execution never invokes it.
func (m *Machine) Initialize() {
	for i := range m.Memory {
		m.Memory[i] = 0
	}
	for i := range m.V {
		m.V[i] = 0
	}
	for i := range m.Stack {
		m.Stack[i] = 0
	}

	copy(m.Memory[FONT_BASE:], fontset[:])

	m.I = 0
	m.PC = m.programStart
	m.SP = 0
	m.DelayTimer = 0
	m.SoundTimer = 0
	m.beeping = false

	m.Screen.Clear()
	m.Keys.Reset()
}

// ProgramStart reports the first workspace address for the active mode.
func (m *Machine) ProgramStart() uint16 {
	return m.programStart
}

// WorkspaceSize reports how many bytes of programme workspace are available.
func (m *Machine) WorkspaceSize() int {
	return MEMORY_SIZE - int(m.programStart)
}

// Load copies a raw programme image into the workspace and returns the
// number of bytes copied. Images that would extend past the end of memory
// are rejected outright rather than truncated, so that no bytes beyond
// 0xFFF can ever be corrupted by a load.
func (m *Machine) Load(program []byte) (int, error) {
	if len(program) > m.WorkspaceSize() {
		return 0, &MachineError{
			Kind:   SegmentationFault,
			Op:     "load",
			Addr:   uint16(ADDRESS_MASK),
			Detail: "programme exceeds workspace",
		}
	}

	copy(m.Memory[m.programStart:], program)
	return len(program), nil
}

// TickTimers decrements the delay and sound timers by one each, clamped at
// zero, and emits the expired/beep signals on the relevant transitions. The
// host drives this on its own real-time 60Hz tick, independent of the
// instruction rate.
func (m *Machine) TickTimers() {
	if m.DelayTimer > 0 {
		m.DelayTimer--
		if m.DelayTimer == 0 && m.OnDelayExpired != nil {
			m.OnDelayExpired()
		}
	}
	if m.SoundTimer > 0 {
		m.SoundTimer--
	}

	active := m.SoundTimer > 0
	if active != m.beeping {
		m.beeping = active
		if m.OnBeep != nil {
			m.OnBeep(active)
		}
	}
}
