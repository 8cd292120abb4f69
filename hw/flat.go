package hw

import (
	"github.com/go-faster/errors"

	"nescore/hw/hwio"
)

// FlatProgramStart is where Flat.Load places programs by default.
const FlatProgramStart = 0x0600

// Flat is a bare 6502 system where the CPU sees 64KB of RAM and nothing else.
// It's used to run raw 6502 programs outside of the NES memory map.
type Flat struct {
	CPU *CPU
	RAM hwio.Mem `hwio:"offset=0x0,size=0x10000"`
}

// NewFlat returns a flat system with zeroed memory.
func NewFlat() *Flat {
	f := &Flat{}
	hwio.MustInitRegs(f)
	bus := hwio.NewTable("flat")
	bus.MapBank(0x0000, f, 0)
	f.CPU = NewCPU(bus)
	return f
}

// Load copies prog at org, points the reset vector to it and resets the CPU.
func (f *Flat) Load(prog []byte, org uint16) {
	copy(f.RAM.Data[org:], prog)
	hwio.Write16(f.CPU.Bus, ResetVector, org)
	f.CPU.Reset(false)
}

// ErrCycleLimit is returned by Flat.Run when the program didn't reach BRK.
var ErrCycleLimit = errors.New("cycle limit reached")

// Run runs the loaded program until it reaches a BRK instruction, which
// isn't executed, or until maxCycles cycles have been executed.
func (f *Flat) Run(maxCycles int64) error {
	until := f.CPU.Cycles + maxCycles
	for f.CPU.Cycles < until {
		if f.CPU.AtBoundary() && f.CPU.Bus.Peek8(f.CPU.PC) == 0x00 {
			return nil
		}
		if err := f.CPU.Step(); err != nil {
			return err
		}
	}
	return errors.Wrapf(ErrCycleLimit, "PC=$%04X", f.CPU.PC)
}

// Instr runs exactly one instruction (or interrupt sequence) and returns the
// number of cycles it took.
func (f *Flat) Instr() (int, error) {
	start := f.CPU.Cycles
	for {
		if err := f.CPU.Step(); err != nil {
			return int(f.CPU.Cycles - start), err
		}
		if f.CPU.AtBoundary() {
			return int(f.CPU.Cycles - start), nil
		}
	}
}
