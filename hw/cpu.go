package hw

import (
	"io"

	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

type interruptKind uint8

const (
	intBRK interruptKind = iota // software, the BRK opcode
	intIRQ
	intNMI
)

// CPU is a cycle-stepped Ricoh 2A03 (6502 without decimal mode).
//
// Each call to Step executes one clock cycle, that is exactly one bus access.
// An instruction is spread over several Steps; the in-flight instruction is
// described by op and cycle, the number of cycles already executed.
type CPU struct {
	Bus *hwio.Table

	// StrictOpcodes makes unsupported opcodes halt the CPU instead of being
	// executed as NOPs.
	StrictOpcodes bool

	Cycles int64 // CPU cycles since power up

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	// micro-state of the in-flight instruction
	opcode  uint8
	op      *opdef
	cycle   int
	addr    uint16 // effective address
	ptr     uint8  // zero page pointer
	data    uint8
	crossed bool // page crossed while indexing
	vector  uint16
	intr    interruptKind

	// interrupt lines
	nmiPending bool
	irqFlag    hwdefs.IRQSource
	pollI      bool // I flag as seen by the interrupt poll

	openbus uint8 // last value seen on the data bus

	halted bool
	err    error

	// Non-nil when execution tracing is enabled.
	tracer *tracer
	dbg    Debugger
}

// NewCPU creates a new CPU at power-up state, accessing memory through bus.
func NewCPU(bus *hwio.Table) *CPU {
	return &CPU{
		Bus: bus,
		SP:  0xFD,
		P:   Reserved | Interrupt,
		dbg: nopDebugger{},
	}
}

// Reset resets the CPU and loads PC from the reset vector. After a hard
// reset (power up), registers are cleared, a soft reset only decrements the
// stack pointer. In both cases the 7 cycles of the reset sequence are
// accounted for.
func (c *CPU) Reset(soft bool) {
	if soft {
		c.SP -= 0x03
	} else {
		c.A = 0x00
		c.X = 0x00
		c.Y = 0x00
		c.SP = 0xFD
		c.P = Reserved
		c.irqFlag = 0
	}
	c.P.set(Interrupt, true)
	c.pollI = true

	// Directly read from the bus, outside of the cycle accounting.
	c.PC = hwio.Read16(c.Bus, ResetVector)

	c.Cycles = 7
	c.op = nil
	c.cycle = 0
	c.intr = intBRK
	c.nmiPending = false
	c.halted = false
	c.err = nil

	log.ModCPU.DebugZ("reset").Bool("soft", soft).Hex16("PC", c.PC).End()
}

// AtBoundary reports whether the CPU sits between two instructions.
func (c *CPU) AtBoundary() bool {
	return c.cycle == 0
}

// IsHalted reports whether the CPU stopped on an unsupported opcode.
func (c *CPU) IsHalted() bool {
	return c.halted
}

// CurrentCycle returns the number of cycles since power up.
func (c *CPU) CurrentCycle() int64 {
	return c.Cycles
}

// OpenBus returns the last value seen on the data bus.
func (c *CPU) OpenBus() uint8 {
	return c.openbus
}

// Step executes one CPU cycle. It only fails if the CPU is halted, after
// having fetched an unsupported opcode while StrictOpcodes is set.
func (c *CPU) Step() error {
	if c.halted {
		return c.err
	}

	c.Cycles++
	if c.cycle != 0 {
		c.cycle++
		c.exec()
		return nil
	}

	// Instruction boundary: interrupts are polled here only.
	switch {
	case c.nmiPending:
		c.nmiPending = false
		c.startInterrupt(intNMI)
		return nil
	case c.irqFlag != 0 && !c.pollI:
		c.startInterrupt(intIRQ)
		return nil
	}

	c.traceOp()
	c.opcode = c.read(c.PC)
	c.PC++
	c.cycle = 1
	c.op = &ops[c.opcode]
	c.pollI = c.P.has(Interrupt)

	if !c.op.supported() {
		err := hwdefs.Errorf(hwdefs.UnsupportedOpcode, "opcode $%02X at $%04X", c.opcode, c.PC-1)
		if c.StrictOpcodes {
			log.ModCPU.ErrorZ("CPU halted").
				Hex16("PC", c.PC-1).
				Hex8("opcode", c.opcode).
				End()
			c.halted = true
			c.err = err
			return err
		}
		log.ModCPU.WarnZ("unsupported opcode executed as NOP").
			Hex16("PC", c.PC-1).
			Hex8("opcode", c.opcode).
			End()
		c.op = &unsupportedNOP
	}
	return nil
}

// startInterrupt performs the first cycle of the hardware interrupt sequence,
// which shares its micro-code with BRK.
func (c *CPU) startInterrupt(kind interruptKind) {
	c.read(c.PC) // dummy read
	c.intr = kind
	c.op = &interruptOp
	c.cycle = 1
}

// done ends the current instruction.
func (c *CPU) done() {
	c.cycle = 0
	if !c.op.delayI {
		c.pollI = c.P.has(Interrupt)
	}
}

/* interrupt lines */

// NMI latches a non-maskable interrupt request (an edge on the NMI line). It
// is serviced at the next instruction boundary.
func (c *CPU) NMI() {
	c.nmiPending = true
}

// IRQ asserts the external IRQ line, until cleared with ClearIRQSource.
func (c *CPU) IRQ() {
	c.SetIRQSource(hwdefs.External)
}

func (c *CPU) SetIRQSource(src hwdefs.IRQSource)      { c.irqFlag |= src }
func (c *CPU) HasIRQSource(src hwdefs.IRQSource) bool { return (c.irqFlag & src) != 0 }
func (c *CPU) ClearIRQSource(src hwdefs.IRQSource)    { c.irqFlag &^= src }

/* bus accesses */

func (c *CPU) read(addr uint16) uint8 {
	c.openbus = c.Bus.Read8(addr)
	return c.openbus
}

func (c *CPU) write(addr uint16, val uint8) {
	c.openbus = val
	c.Bus.Write8(addr, val)
}

// fetch reads the byte at PC and increments PC.
func (c *CPU) fetch() uint8 {
	v := c.read(c.PC)
	c.PC++
	return v
}

/* stack operations */

func (c *CPU) push(val uint8) {
	c.write(0x0100|uint16(c.SP), val)
	c.SP--
}

func (c *CPU) peekStack() uint8 {
	return c.read(0x0100 | uint16(c.SP))
}

func (c *CPU) pull() uint8 {
	c.SP++
	return c.read(0x0100 | uint16(c.SP))
}

/* tracing / debugging */

func (c *CPU) traceOp() {
	if c.tracer != nil {
		state := cpuState{
			A:     c.A,
			X:     c.X,
			Y:     c.Y,
			P:     c.P,
			SP:    c.SP,
			Clock: c.Cycles - 1,
			PC:    c.PC,
		}
		if ppu := c.tracer.ppu; ppu != nil {
			state.Scanline = ppu.Scanline
			if ppu.Scanline == ppu.preRenderLine {
				state.Scanline = -1
			}
			state.PPUCycle = ppu.Cycle
		}
		c.tracer.write(state)
	}
	c.dbg.Trace(c.PC)
}

// SetTraceOutput enables the execution trace, written to w before each
// instruction. ppu, if non-nil, provides the PPU position.
func (c *CPU) SetTraceOutput(w io.Writer, ppu *PPU) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, d: c, ppu: ppu}
}

func (c *CPU) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = nopDebugger{}
	}
	c.dbg = dbg
}
