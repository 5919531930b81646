// cpu_chip8.go - CHIP-8 execution engine for Intuition8

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition8
License: GPLv3 or later
*/

/*
cpu_chip8.go - CHIP-8 Fetch/Decode/Execute Engine

This module implements the canonical CHIP-8 instruction set against the
machine state aggregate in machine.go. One Cycle() call executes exactly
one instruction: two bytes are fetched big-endian at PC, PC advances by 2
before dispatch, and the decoded operation mutates registers, memory,
framebuffer or timers.

Dispatch is data-driven: the opcode's top nibble indexes a fixed 16-entry
family table, and each family handler selects the specific operation from
the remaining nibbles or the low byte. Opcodes that fall through every
family's cases are not faults - they are logged and treated as a two-byte
no-op. Faults (bad addresses, stack misuse) surface as MachineError values
and never mutate state beyond the point of failure; partial side effects
already applied by the failing instruction are left in place.

Because PC is advanced immediately after the fetch, every branch, call,
jump and return below operates on the address of the *next* instruction,
which is exactly how the skip and return semantics are defined.
*/

package main

import "github.com/retroenv/retrogolib/log"

// opcode is one 16-bit CHIP-8 instruction, notated NNNN with X/Y register
// nibbles and N/NN/NNN immediates.
type opcode uint16

func (op opcode) family() byte { return byte(op >> 12) }
func (op opcode) x() byte      { return byte(op>>8) & 0x0F }
func (op opcode) y() byte      { return byte(op>>4) & 0x0F }
func (op opcode) n() byte      { return byte(op) & 0x0F }
func (op opcode) nn() byte     { return byte(op) }
func (op opcode) nnn() uint16  { return uint16(op) & ADDRESS_MASK }

type opcodeHandler func(m *Machine, op opcode) error

// opcodeFamilies dispatches on the opcode's top nibble. Sub-cases within a
// family are resolved by the handlers themselves.
var opcodeFamilies = [16]opcodeHandler{
	0x0: opSystem,
	0x1: opJump,
	0x2: opCall,
	0x3: opSkipEqImm,
	0x4: opSkipNeImm,
	0x5: opSkipEqReg,
	0x6: opLoadImm,
	0x7: opAddImm,
	0x8: opALU,
	0x9: opSkipNeReg,
	0xA: opLoadIndex,
	0xB: opJumpV0,
	0xC: opRandom,
	0xD: opDraw,
	0xE: opKeySkip,
	0xF: opMisc,
}

// Cycle fetches, decodes and executes exactly one instruction. It performs
// no timer work and no pacing; the host invokes it at whatever cadence it
// wants and calls TickTimers on its own 60Hz clock.
func (m *Machine) Cycle() error {
	if int(m.PC)+1 >= MEMORY_SIZE {
		return &MachineError{
			Kind:   SegmentationFault,
			Op:     "fetch",
			Addr:   m.PC,
			Detail: "programme counter outside memory",
		}
	}

	op := opcode(uint16(m.Memory[m.PC])<<8 | uint16(m.Memory[m.PC+1]))
	m.PC += 2

	handler := opcodeFamilies[op.family()]
	if handler == nil {
		return &MachineError{
			Kind:   UnexpectedError,
			Op:     "dispatch",
			Addr:   m.PC - 2,
			Detail: "no handler for opcode family",
		}
	}
	return handler(m, op)
}

func (m *Machine) logUnknownOpcode(op opcode) {
	m.logger.Warn("Unknown opcode treated as no-op",
		log.Hex("opcode", uint16(op)),
		log.Hex("pc", m.PC-2))
}

// opSystem handles the 0-prefixed family: 00E0 clear, 00EE return, and the
// historical 0NNN machine-code call which is skipped on this machine.
func opSystem(m *Machine, op opcode) error {
	switch uint16(op) {
	case 0x00E0:
		m.Screen.Clear()
		return nil

	case 0x00EE:
		if m.SP == 0 {
			return &MachineError{
				Kind: SubroutineStackEmpty,
				Op:   "00EE",
				Addr: m.PC - 2,
			}
		}
		m.SP--
		addr := m.Stack[m.SP]
		if addr < m.programStart || addr > ADDRESS_MASK {
			return &MachineError{
				Kind:   SegmentationFault,
				Op:     "00EE",
				Addr:   addr,
				Detail: "return target outside workspace",
			}
		}
		m.Stack[m.SP] = 0
		m.PC = addr
		return nil

	default:
		m.logger.Debug("Machine code call ignored",
			log.Hex("opcode", uint16(op)))
		return nil
	}
}

// opJump implements 1NNN.
func opJump(m *Machine, op opcode) error {
	target := op.nnn()
	if int(target) >= MEMORY_SIZE {
		return &MachineError{
			Kind:   SegmentationFault,
			Op:     "1NNN",
			Addr:   target,
			Detail: "jump target outside memory",
		}
	}
	m.PC = target
	return nil
}

// opCall implements 2NNN. The pushed address is the post-fetch PC, so the
// matching 00EE resumes at the instruction after the call.
func opCall(m *Machine, op opcode) error {
	target := op.nnn()
	if target < m.programStart {
		return &MachineError{
			Kind:   SegmentationFault,
			Op:     "2NNN",
			Addr:   target,
			Detail: "call target outside workspace",
		}
	}
	if m.SP >= STACK_DEPTH {
		return &MachineError{
			Kind: SubroutineStackOverflow,
			Op:   "2NNN",
			Addr: target,
		}
	}
	m.Stack[m.SP] = m.PC
	m.SP++
	m.PC = target
	return nil
}

func opSkipEqImm(m *Machine, op opcode) error {
	if m.V[op.x()] == op.nn() {
		m.PC += 2
	}
	return nil
}

func opSkipNeImm(m *Machine, op opcode) error {
	if m.V[op.x()] != op.nn() {
		m.PC += 2
	}
	return nil
}

func opSkipEqReg(m *Machine, op opcode) error {
	if op.n() != 0 {
		m.logUnknownOpcode(op)
		return nil
	}
	if m.V[op.x()] == m.V[op.y()] {
		m.PC += 2
	}
	return nil
}

func opSkipNeReg(m *Machine, op opcode) error {
	if op.n() != 0 {
		m.logUnknownOpcode(op)
		return nil
	}
	if m.V[op.x()] != m.V[op.y()] {
		m.PC += 2
	}
	return nil
}

func opLoadImm(m *Machine, op opcode) error {
	m.V[op.x()] = op.nn()
	return nil
}

// opAddImm implements 7XNN: a wrapping add that never touches VF.
func opAddImm(m *Machine, op opcode) error {
	m.V[op.x()] += op.nn()
	return nil
}

// opALU implements the 8XYN register-register operations. The carry, borrow
// and shifted-out-bit conventions all land in VF as a side effect; VF is
// never read as an ordinary operand here.
func opALU(m *Machine, op opcode) error {
	x, y := op.x(), op.y()

	switch op.n() {
	case 0x0:
		m.V[x] = m.V[y]
	case 0x1:
		m.V[x] |= m.V[y]
	case 0x2:
		m.V[x] &= m.V[y]
	case 0x3:
		m.V[x] ^= m.V[y]
	case 0x4:
		sum := uint16(m.V[x]) + uint16(m.V[y])
		m.V[x] = byte(sum)
		m.V[0xF] = byte(sum >> 8)
	case 0x5:
		noBorrow := m.V[x] >= m.V[y]
		m.V[x] -= m.V[y]
		m.V[0xF] = btob(noBorrow)
	case 0x6:
		lsb := m.V[x] & 0x01
		m.V[x] >>= 1
		m.V[0xF] = lsb
	case 0x7:
		noBorrow := m.V[y] >= m.V[x]
		m.V[x] = m.V[y] - m.V[x]
		m.V[0xF] = btob(noBorrow)
	case 0xE:
		msb := m.V[x] >> 7
		m.V[x] <<= 1
		m.V[0xF] = msb
	default:
		m.logUnknownOpcode(op)
	}
	return nil
}

func opLoadIndex(m *Machine, op opcode) error {
	m.I = op.nnn()
	return nil
}

// opJumpV0 implements BNNN: PC = NNN + V0 truncated to the 12-bit address
// space. Overflow past 12 bits wraps and is logged, never faulted.
func opJumpV0(m *Machine, op opcode) error {
	target := op.nnn() + uint16(m.V[0])
	wrapped := target & ADDRESS_MASK
	if target != wrapped {
		m.logger.Warn("BNNN target wrapped to 12 bits",
			log.Hex("target", target),
			log.Hex("wrapped", wrapped))
	}
	m.PC = wrapped
	return nil
}

// opRandom implements CXNN with a uniformly distributed byte source.
func opRandom(m *Machine, op opcode) error {
	m.V[op.x()] = byte(m.rng.Intn(256)) & op.nn()
	return nil
}

// opDraw implements DXYN, the sprite blit. The sprite is N rows of 8 pixels
// stored at I, XOR-composited at (VX, VY) taken as direct coordinates.
// Sprites overflowing the right or bottom edge are clipped, not wrapped;
// a sprite whose origin is already off-screen is skipped without touching
// any state. VF reports whether any set pixel was unset by the XOR.
func opDraw(m *Machine, op opcode) error {
	x := int(m.V[op.x()])
	y := int(m.V[op.y()])
	n := int(op.n())

	if n == 0 {
		m.logger.Debug("Draw skipped: zero-height sprite",
			log.Hex("opcode", uint16(op)))
		return nil
	}
	if x >= SCREEN_WIDTH || y >= SCREEN_HEIGHT {
		m.logger.Debug("Draw skipped: origin off-screen",
			log.Uint("x", uint(x)),
			log.Uint("y", uint(y)))
		return nil
	}
	if int(m.I)+8*n > MEMORY_SIZE {
		return &MachineError{
			Kind:   SegmentationFault,
			Op:     "DXYN",
			Addr:   m.I,
			Detail: "sprite span outside memory",
		}
	}

	rows := n
	if y+rows > SCREEN_HEIGHT {
		rows = SCREEN_HEIGHT - y
	}
	cols := 8
	if x+cols > SCREEN_WIDTH {
		cols = SCREEN_WIDTH - x
	}

	collision := false
	for r := 0; r < rows; r++ {
		sprite := m.Memory[int(m.I)+r]
		row := m.Screen.Row(y + r)
		for c := 0; c < cols; c++ {
			bit := (sprite >> (7 - c)) & 1
			if bit == 0 {
				continue
			}
			if row[x+c] != 0 {
				collision = true
			}
			row[x+c] ^= 1
		}
	}

	m.V[0xF] = btob(collision)
	return nil
}

// opKeySkip implements EX9E and EXA1 against the host-written keypad.
func opKeySkip(m *Machine, op opcode) error {
	key := m.V[op.x()]
	switch op.nn() {
	case 0x9E:
		if key >= NUM_KEYS {
			return &MachineError{
				Kind:   IndexOutOfBounds,
				Op:     "EX9E",
				Addr:   m.PC - 2,
				Detail: "key index above 0xF",
			}
		}
		if m.Keys.Pressed(key) {
			m.PC += 2
		}
	case 0xA1:
		if key >= NUM_KEYS {
			return &MachineError{
				Kind:   IndexOutOfBounds,
				Op:     "EXA1",
				Addr:   m.PC - 2,
				Detail: "key index above 0xF",
			}
		}
		if !m.Keys.Pressed(key) {
			m.PC += 2
		}
	default:
		m.logUnknownOpcode(op)
	}
	return nil
}

// opMisc implements the FX-- family: timer moves, index arithmetic, glyph
// addressing, BCD decomposition, register block transfers and the FX0A
// blocking key wait.
func opMisc(m *Machine, op opcode) error {
	x := op.x()

	switch op.nn() {
	case 0x07:
		m.V[x] = m.DelayTimer

	case 0x0A:
		// Blocking key wait: rewind PC so the instruction re-executes
		// every cycle until a key is down, then capture it into VX.
		if key, ok := m.Keys.FirstPressed(); ok {
			m.V[x] = key
		} else {
			m.PC -= 2
		}

	case 0x15:
		m.DelayTimer = m.V[x]

	case 0x18:
		m.SoundTimer = m.V[x]

	case 0x1E:
		prev := m.I
		m.I += uint16(m.V[x])
		if m.I < prev {
			m.logger.Warn("FX1E index wrapped at 16 bits",
				log.Hex("previous", prev),
				log.Hex("index", m.I))
		}

	case 0x29:
		m.I = FONT_BASE + FONT_GLYPH_SIZE*uint16(m.V[x]&0x0F)

	case 0x33:
		if int(m.I)+2 >= MEMORY_SIZE {
			return &MachineError{
				Kind:   SegmentationFault,
				Op:     "FX33",
				Addr:   m.I,
				Detail: "BCD span outside memory",
			}
		}
		v := m.V[x]
		m.Memory[m.I] = v / 100
		m.Memory[m.I+1] = (v / 10) % 10
		m.Memory[m.I+2] = v % 10

	case 0x55:
		if int(m.I)+int(x) >= MEMORY_SIZE {
			return &MachineError{
				Kind:   SegmentationFault,
				Op:     "FX55",
				Addr:   m.I,
				Detail: "register dump span outside memory",
			}
		}
		for i := byte(0); i <= x; i++ {
			m.Memory[m.I+uint16(i)] = m.V[i]
		}

	case 0x65:
		if int(m.I)+int(x) >= MEMORY_SIZE {
			return &MachineError{
				Kind:   SegmentationFault,
				Op:     "FX65",
				Addr:   m.I,
				Detail: "register load span outside memory",
			}
		}
		for i := byte(0); i <= x; i++ {
			m.V[i] = m.Memory[m.I+uint16(i)]
		}

	default:
		m.logUnknownOpcode(op)
	}
	return nil
}

func btob(b bool) byte {
	if b {
		return 1
	}
	return 0
}
