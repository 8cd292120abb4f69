package mappers

import (
	"nescore/ines"
)

var MMC1 = MapperDesc{
	Name: "MMC1",
	New:  newMMC1,
}

// MMC1 internal registers, selected by bits 13-14 of the address of the
// fifth serial write.
const (
	mmc1Control = iota // $8000-$9FFF: ...C PPMM
	mmc1CHR0           // $A000-$BFFF
	mmc1CHR1           // $C000-$DFFF
	mmc1PRG            // $E000-$FFFF: ...R PPPP
)

// Nametable arrangement, by the 2 low bits of the control register.
var mmc1Mirroring = [4]ines.NTMirroring{
	ines.OnlyAScreen,
	ines.OnlyBScreen,
	ines.VertMirroring,
	ines.HorzMirroring,
}

// mmc1 (SxROM boards) is configured through a serial port: 5 writes of bit 0
// to $8000-$FFFF fill an internal register.
type mmc1 struct {
	*base

	regs [4]uint8

	shift     uint8 // bits received so far, LSB first
	nbits     uint8
	lastWrite int64 // CPU cycle of the last serial write
}

func newMMC1(b *base) Mapper {
	m := &mmc1{base: b, lastWrite: -2}

	// Power up in 16KB mode with $C000 fixed to the last bank, so that
	// boards without PRG banking get a usable layout.
	m.regs[mmc1Control] = 0x0C
	for i, ntm := range mmc1Mirroring {
		if ntm == b.ntm {
			m.regs[mmc1Control] |= uint8(i)
		}
	}
	m.apply()
	return m
}

func (m *mmc1) WritePRG(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WritePRG(addr, val)
		return
	}

	// The serial port ignores a write on the cycle following another one,
	// like the dummy write of read-modify-write instructions.
	now := m.host.CurrentCycle()
	consecutive := now-m.lastWrite < 2
	m.lastWrite = now
	if consecutive {
		return
	}

	if val&0x80 != 0 {
		// Clear the shift register and set PRG mode 3, the rest of the
		// control register is kept.
		m.shift, m.nbits = 0, 0
		m.regs[mmc1Control] |= 0x0C
		m.apply()
		return
	}

	m.shift |= (val & 1) << m.nbits
	m.nbits++
	if m.nbits < 5 {
		return
	}

	reg := (addr >> 13) & 3
	m.regs[reg] = m.shift
	m.shift, m.nbits = 0, 0

	modMapper.DebugZ("MMC1 register write").
		Uint16("addr", addr).
		Int("reg", int(reg)).
		Uint8("val", m.regs[reg]).
		End()
	m.apply()
}

// apply maps the banks according to the internal registers.
func (m *mmc1) apply() {
	ctrl := m.regs[mmc1Control]
	m.setNTMirroring(mmc1Mirroring[ctrl&3])

	prg := int(m.regs[mmc1PRG] & 0x0F)
	m.prgRAMEnabled = m.regs[mmc1PRG]&0x10 == 0

	switch (ctrl >> 2) & 3 {
	case 0, 1:
		// 32KB at $8000, the low bit of the bank number is ignored.
		m.selectPRGPage16KB(0, prg&^1)
		m.selectPRGPage16KB(1, prg|1)
	case 2:
		m.selectPRGPage16KB(0, 0)
		m.selectPRGPage16KB(1, prg)
	case 3:
		m.selectPRGPage16KB(0, prg)
		m.selectPRGPage16KB(1, -1)
	}

	chr0 := int(m.regs[mmc1CHR0] & 0x1F)
	if ctrl&0x10 == 0 {
		// 8KB mode.
		m.selectCHRPage4KB(0, chr0&^1)
		m.selectCHRPage4KB(1, chr0|1)
		return
	}
	m.selectCHRPage4KB(0, chr0)
	m.selectCHRPage4KB(1, int(m.regs[mmc1CHR1]&0x1F))
}
