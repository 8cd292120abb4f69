package mappers

var UxROM = MapperDesc{
	Name: "UxROM",
	New:  newUxROM,
}

type uxrom struct {
	*base

	prgbank      int
	busConflicts bool
}

func (m *uxrom) WritePRG(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WritePRG(addr, val)
		return
	}
	if m.busConflicts {
		val = m.busConflict(addr, val)
	}

	// 7  bit  0
	// ---- ----
	// xxxx pPPP
	//      ||||
	//      ++++- Select 16 KB PRG ROM bank for CPU $8000-$BFFF
	//            (UNROM uses bits 2-0; UOROM uses bits 3-0)
	prev := m.prgbank
	m.prgbank = int(val & 0x0F)
	if prev != m.prgbank {
		m.selectPRGPage16KB(0, m.prgbank)
		modMapper.DebugZ("PRGROM bank switch").String("mapper", m.desc.Name).Int("prev", prev).Int("new", m.prgbank).End()
	}
}

func newUxROM(b *base) Mapper {
	m := &uxrom{
		base:         b,
		busConflicts: b.rom.SubMapper() == 2,
	}
	m.selectPRGPage16KB(0, 0)
	m.selectPRGPage16KB(1, -1)
	return m
}
