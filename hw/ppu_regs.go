package hw

import (
	"nescore/emu/log"
)

// loopy is the layout of the v and t VRAM address registers.
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy uint16

func (l loopy) coarseX() uint16   { return uint16(l) & 0x1F }
func (l loopy) coarseY() uint16   { return uint16(l) >> 5 & 0x1F }
func (l loopy) nametable() uint16 { return uint16(l) >> 10 & 0x03 }
func (l loopy) fineY() uint16     { return uint16(l) >> 12 & 0x07 }

// addr is the address put on the PPU bus (14 bits).
func (l loopy) addr() uint16 { return uint16(l) & 0x3FFF }

// ReadLatch is the read callback of write-only registers, which return the
// content of the I/O latch.
func (p *PPU) ReadLatch(uint8) uint8 {
	return p.latch
}

// PPUCTRL: $2000
func (p *PPU) WritePPUCTRL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUCTRL").Hex8("val", val).End()
	p.latch = val

	// Transfer the nametable bits.
	p.t = p.t&^0x0C00 | loopy(val&ctrlNametable)<<10

	// By toggling the nmi bit during vblank without reading PPUSTATUS, a
	// program can cause /nmi to be pulled low multiple times, causing
	// multiple NMIs to be generated.
	switch {
	case val&ctrlNMI == 0:
		p.nmiOut = false
	case old&ctrlNMI == 0 && p.PPUSTATUS.Value&statusVblank != 0:
		p.nmiOut = true
	}
}

// PPUMASK: $2001
func (p *PPU) WritePPUMASK(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUMASK").Hex8("val", val).End()
	p.latch = val
}

// PPUSTATUS: $2002
func (p *PPU) ReadPPUSTATUS(val uint8) uint8 {
	ret := val&0xE0 | p.latch&0x1F

	if p.Scanline == vblankLine && p.Cycle == 0 {
		// Race: reading one dot before the flag gets set returns it clear,
		// and it's not set (no NMI either) for the rest of the frame.
		p.suppressVBL = true
	}
	p.PPUSTATUS.Value &^= statusVblank
	p.w = false
	p.latch = ret
	return ret
}

func (p *PPU) PeekPPUSTATUS(val uint8) uint8 {
	return val&0xE0 | p.latch&0x1F
}

// Writes to PPUSTATUS only reach the I/O latch.
func (p *PPU) WritePPUSTATUS(old, val uint8) {
	p.latch = val
	p.PPUSTATUS.Value = old
}

// OAMADDR: $2003
func (p *PPU) WriteOAMADDR(old, val uint8) {
	p.latch = val
}

// OAMDATA: $2004
func (p *PPU) ReadOAMDATA(uint8) uint8 {
	p.latch = p.oam[p.OAMADDR.Value]
	return p.latch
}

func (p *PPU) PeekOAMDATA(uint8) uint8 {
	return p.oam[p.OAMADDR.Value]
}

func (p *PPU) WriteOAMDATA(old, val uint8) {
	p.latch = val
	addr := p.OAMADDR.Value
	if addr&3 == 2 {
		// Bits 2-4 of sprite attributes don't exist.
		val &= 0xE3
	}
	p.oam[addr] = val
	p.OAMADDR.Value++
}

// PPUSCROLL: $2005
func (p *PPU) WritePPUSCROLL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUSCROLL").Hex8("val", val).Bool("w", p.w).End()
	p.latch = val

	if !p.w { // first write
		p.finex = val & 0b111
		p.t = p.t&^0x001F | loopy(val>>3)
	} else { // second write
		p.t &^= 0b0111_0011_1110_0000
		p.t |= loopy(val&0b111) << 12
		p.t |= loopy(val&0b1111_1000) << 2
	}

	p.w = !p.w
}

// To read/write VRAM from CPU, PPUADDR is set to the address of the operation.
// It's a 16-bit register so 2 writes are necessary.
// PPUADDR: $2006
func (p *PPU) WritePPUADDR(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUADDR").Hex8("val", val).Bool("w", p.w).End()
	p.latch = val

	if !p.w { // first write
		// Bit 14 of t gets cleared.
		p.t = p.t&^0x7F00 | loopy(val&0b11_1111)<<8
	} else { // second write
		p.t = p.t&^0x00FF | loopy(val)
		p.v = p.t
	}

	p.w = !p.w
}

// PPUDATA: $2007
func (p *PPU) ReadPPUDATA(uint8) uint8 {
	addr := p.v.addr()

	var val uint8
	if addr < 0x3F00 {
		// Reading VRAM is too slow so the actual data
		// will be returned at the next read.
		val = p.rdbuf
		p.rdbuf = p.Bus.Read8(addr)
	} else {
		// Reading palette data is immediate, the upper 2 bits come from the
		// I/O latch. The buffer gets the nametable byte 'below' the palette.
		val = p.latch&0xC0 | p.Bus.Read8(addr)
		p.rdbuf = p.Bus.Read8(addr - 0x1000)
	}

	log.ModPPU.DebugZ("VRAM read").Hex16("addr", addr).Hex8("val", val).End()
	p.incVRAMAddr()
	p.latch = val
	return val
}

func (p *PPU) PeekPPUDATA(uint8) uint8 {
	addr := p.v.addr()
	if addr < 0x3F00 {
		return p.rdbuf
	}
	return p.latch&0xC0 | p.Bus.Peek8(addr)
}

// PPUDATA: $2007
func (p *PPU) WritePPUDATA(old, val uint8) {
	addr := p.v.addr()
	log.ModPPU.DebugZ("VRAM write").Hex16("addr", addr).Hex8("val", val).End()

	p.latch = val
	p.Bus.Write8(addr, val)
	p.incVRAMAddr()
}

// After each i/o on PPUDATA, the VRAM address is incremented.
func (p *PPU) incVRAMAddr() {
	if p.renderingEnabled() && (p.Scanline < 240 || p.Scanline == p.preRenderLine) {
		// During rendering, both the coarse X and Y increments are
		// triggered.
		p.incX()
		p.incY()
		return
	}

	if p.PPUCTRL.Value&ctrlIncr32 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// incX increments coarse X, wrapping into the horizontally adjacent
// nametable.
func (p *PPU) incX() {
	if p.v.coarseX() == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
		return
	}
	p.v++
}

// incY increments fine Y, overflowing into coarse Y. Coarse Y wraps at 29
// into the vertically adjacent nametable. Values 30-31 (attribute table)
// wrap at 31 without switching nametable.
func (p *PPU) incY() {
	if p.v.fineY() < 7 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000

	y := p.v.coarseY()
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = p.v&^0x03E0 | loopy(y)<<5
}

// copyX copies the horizontal bits from t to v.
func (p *PPU) copyX() {
	p.v = p.v&^0x041F | p.t&0x041F
}

// copyY copies the vertical bits from t to v.
func (p *PPU) copyY() {
	p.v = p.v&^0x7BE0 | p.t&0x7BE0
}
