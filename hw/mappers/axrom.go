package mappers

import (
	"nescore/ines"
)

var AxROM = MapperDesc{
	Name: "AxROM",
	New:  newAxROM,
}

type axrom struct {
	*base

	prgbank      int
	busConflicts bool
}

func (m *axrom) WritePRG(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WritePRG(addr, val)
		return
	}
	if m.busConflicts {
		val = m.busConflict(addr, val)
	}

	// 7  bit  0
	// ---- ----
	// xxxM xPPP
	//    |  |||
	//    |  +++- Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	//    +------ Select 1 KB VRAM page for all 4 nametables
	prev := m.prgbank
	m.prgbank = int(val & 0x7)
	if prev != m.prgbank {
		m.selectPRGPage32KB(m.prgbank)
	}

	if val&0x10 == 0x10 {
		m.setNTMirroring(ines.OnlyBScreen)
	} else {
		m.setNTMirroring(ines.OnlyAScreen)
	}
}

func newAxROM(b *base) Mapper {
	m := &axrom{
		base:         b,
		busConflicts: b.rom.SubMapper() == 2,
	}
	m.selectPRGPage32KB(0)
	m.ntm = ines.OnlyAScreen
	return m
}
