package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// DMA handles the transfer of OAM (sprites attributes) to the PPU, started
// by a write to $4014.
//
// The CPU is halted for the whole transfer: one halt cycle, one more
// cycle if needed to align on a read (even) cycle, then 256 read/write pairs
// to $2004. That's 513 or 514 cycles.
type DMA struct {
	cpu *CPU

	OAMDMA hwio.Reg8 `hwio:"offset=0x14,rcb,pcb,wcb"`

	running bool
	halted  bool // halt cycle done
	page    uint8
	count   int // number of cycles of the current read/write pairs
	val     uint8
}

func (dma *DMA) InitBus(cpu *CPU) {
	hwio.MustInitRegs(dma)
	dma.cpu = cpu
	dma.reset()
}

func (dma *DMA) reset() {
	dma.running = false
	dma.halted = false
	dma.page = 0
	dma.count = 0
}

// Running reports whether a transfer is in progress, in which case the DMA
// unit owns the bus instead of the CPU.
func (dma *DMA) Running() bool {
	return dma.running
}

// $4014 is write-only, reading it returns the open bus.
func (dma *DMA) ReadOAMDMA(uint8) uint8 { return dma.cpu.OpenBus() }
func (dma *DMA) PeekOAMDMA(uint8) uint8 { return dma.cpu.OpenBus() }

func (dma *DMA) WriteOAMDMA(_, val uint8) {
	log.ModDMA.DebugZ("start OAM DMA transfer").
		Hex8("page", val).
		Int64("cycle", dma.cpu.Cycles).
		End()

	dma.page = val
	dma.running = true
	dma.halted = false
	dma.count = 0
}

// Step runs one CPU cycle of the transfer.
func (dma *DMA) Step() {
	cpu := dma.cpu
	cpu.Cycles++

	if !dma.halted {
		dma.halted = true
		return
	}

	if dma.count&1 == 0 {
		if cpu.Cycles&1 != 0 {
			// Wait for a read cycle.
			return
		}
		dma.val = cpu.read(uint16(dma.page)<<8 | uint16(dma.count>>1))
		dma.count++
		return
	}

	cpu.write(0x2004, dma.val)
	dma.count++
	if dma.count == 512 {
		dma.running = false
		log.ModDMA.DebugZ("end OAM DMA transfer").Int64("cycle", cpu.Cycles).End()
	}
}
