package mappers

import (
	"nescore/hw/hwdefs"
	"nescore/ines"
)

const (
	prgPageSize = 0x2000 // PRG is mapped by 8KB pages
	chrPageSize = 0x0400 // CHR is mapped by 1KB pages
)

// base implements the bank mapping shared by all boards. Boards select banks
// with the select* methods and embed base for the rest of the interface.
type base struct {
	desc MapperDesc
	rom  *ines.Rom
	host Host

	prgrom []byte
	prgram []byte // nil if the board has none
	chr    []byte // CHR ROM, or CHR RAM if chrRAM is true
	chrRAM bool

	prgRAMEnabled bool
	ntm           ines.NTMirroring

	prgmap [4]int // offsets of the 8KB pages at $8000, $A000, $C000, $E000
	chrmap [8]int // offsets of the 1KB pages at $0000-$1FFF
}

func newbase(desc MapperDesc, rom *ines.Rom, host Host) (*base, error) {
	if len(rom.PRGROM) == 0 || len(rom.PRGROM)%prgPageSize != 0 {
		return nil, hwdefs.Errorf(hwdefs.InvalidImage, "%s: PRG ROM size must be a multiple of 8KB, got %d", desc.Name, len(rom.PRGROM))
	}
	if len(rom.CHRROM)%chrPageSize != 0 {
		return nil, hwdefs.Errorf(hwdefs.InvalidImage, "%s: CHR ROM size must be a multiple of 1KB, got %d", desc.Name, len(rom.CHRROM))
	}

	b := &base{
		desc:          desc,
		rom:           rom,
		host:          host,
		prgrom:        rom.PRGROM,
		chr:           rom.CHRROM,
		ntm:           rom.Mirroring(),
		prgRAMEnabled: true,
	}
	if len(b.chr) == 0 {
		b.chr = make([]byte, rom.CHRRAMSize())
		b.chrRAM = true
	}
	if sz := rom.PRGRAMSize(); sz > 0 {
		b.prgram = make([]byte, max(sz, prgPageSize))
	}

	b.selectPRGPage16KB(0, 0)
	b.selectPRGPage16KB(1, -1)
	b.selectCHRPage8KB(0)
	return b, nil
}

func (b *base) board() *base { return b }

func (b *base) Name() string                { return b.desc.Name }
func (b *base) Mirroring() ines.NTMirroring { return b.ntm }
func (b *base) Scanline()                   {}
func (b *base) IRQ() bool                   { return false }

func (b *base) ReadPRG(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		return b.prgrom[b.prgmap[(addr-0x8000)/prgPageSize]+int(addr%prgPageSize)]
	case addr >= 0x6000 && b.prgram != nil && b.prgRAMEnabled:
		return b.prgram[int(addr-0x6000)%len(b.prgram)]
	}
	// Nothing drives the data bus.
	return b.host.OpenBus()
}

// WritePRG handles writes to PRG RAM, boards handle the rest.
func (b *base) WritePRG(addr uint16, val uint8) {
	if addr >= 0x6000 && addr < 0x8000 && b.prgram != nil && b.prgRAMEnabled {
		b.prgram[int(addr-0x6000)%len(b.prgram)] = val
	}
}

func (b *base) ReadCHR(addr uint16) uint8 {
	addr &= 0x1FFF
	return b.chr[b.chrmap[addr/chrPageSize]+int(addr%chrPageSize)]
}

func (b *base) WriteCHR(addr uint16, val uint8) {
	if !b.chrRAM {
		return
	}
	addr &= 0x1FFF
	b.chr[b.chrmap[addr/chrPageSize]+int(addr%chrPageSize)] = val
}

// bankOffset returns the offset of the bank of the given size in a memory of
// length memlen. Negative banks count from the end, bank numbers wrap
// around like the unconnected high address lines do.
func bankOffset(memlen, size, bank int) int {
	nbanks := max(memlen/size, 1)
	bank %= nbanks
	if bank < 0 {
		bank += nbanks
	}
	return (bank * size) % max(memlen, 1)
}

func (b *base) selectPRGPage8KB(slot, bank int) {
	b.prgmap[slot] = bankOffset(len(b.prgrom), prgPageSize, bank)
}

func (b *base) selectPRGPage16KB(slot, bank int) {
	off := bankOffset(len(b.prgrom), 2*prgPageSize, bank)
	b.prgmap[slot*2] = off
	b.prgmap[slot*2+1] = (off + prgPageSize) % len(b.prgrom)
}

func (b *base) selectPRGPage32KB(bank int) {
	off := bankOffset(len(b.prgrom), 4*prgPageSize, bank)
	for i := range 4 {
		b.prgmap[i] = (off + i*prgPageSize) % len(b.prgrom)
	}
}

func (b *base) selectCHRPage1KB(slot, bank int) {
	b.chrmap[slot] = bankOffset(len(b.chr), chrPageSize, bank)
}

func (b *base) selectCHRPage2KB(slot, bank int) {
	off := bankOffset(len(b.chr), 2*chrPageSize, bank)
	for i := range 2 {
		b.chrmap[slot*2+i] = (off + i*chrPageSize) % len(b.chr)
	}
}

func (b *base) selectCHRPage4KB(slot, bank int) {
	off := bankOffset(len(b.chr), 4*chrPageSize, bank)
	for i := range 4 {
		b.chrmap[slot*4+i] = (off + i*chrPageSize) % len(b.chr)
	}
}

func (b *base) selectCHRPage8KB(bank int) {
	off := bankOffset(len(b.chr), 8*chrPageSize, bank)
	for i := range 8 {
		b.chrmap[i] = (off + i*chrPageSize) % len(b.chr)
	}
}

func (b *base) setNTMirroring(m ines.NTMirroring) {
	if b.ntm == m {
		return
	}
	modMapper.DebugZ("select NT mirroring").
		String("mapper", b.desc.Name).
		Stringer("prev", b.ntm).
		Stringer("new", m).
		End()
	b.ntm = m
}

// busConflict returns the value actually seen by the board when the CPU
// writes val at addr: on boards with bus conflicts, the ROM drives the data
// bus at the same time as the CPU, the result is a logical AND.
func (b *base) busConflict(addr uint16, val uint8) uint8 {
	return val & b.ReadPRG(addr)
}
