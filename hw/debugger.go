package hw

// Debugger receives notifications from a running console. The hooks run
// inside the emulation loop: they must not modify the console state.
type Debugger interface {
	// Trace is called when the CPU is about to fetch the opcode at pc.
	Trace(pc uint16)

	// Interrupt is called once the CPU jumped to an NMI or IRQ handler.
	// BRK doesn't trigger it.
	Interrupt(ev InterruptEvent)

	// FrameEnd is called when the PPU completed frame n.
	FrameEnd(n uint64)
}

type InterruptEvent struct {
	NMI     bool
	From    uint16 // address of the interrupted instruction
	Handler uint16
	Cycle   int64 // CPU cycle of the jump
}

type nopDebugger struct{}

func (nopDebugger) Trace(uint16)             {}
func (nopDebugger) Interrupt(InterruptEvent) {}
func (nopDebugger) FrameEnd(uint64)          {}
