package mappers

var GxROM = MapperDesc{
	Name: "GxROM",
	New:  newGxROM,
}

type gxrom struct {
	*base

	chrbank int
	prgbank int
}

func (m *gxrom) WritePRG(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WritePRG(addr, val)
		return
	}

	// GxROM has bus conflicts.
	val = m.busConflict(addr, val)

	// 7  bit  0
	// ---- ----
	// xxPP xxCC
	//   ||   ||
	//   ||   ++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	//   ++------ Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	prevchr := m.chrbank
	m.chrbank = int(val & 0x3)
	if prevchr != m.chrbank {
		m.selectCHRPage8KB(m.chrbank)
		modMapper.DebugZ("CHRROM bank switch").String("mapper", m.desc.Name).Int("prev", prevchr).Int("new", m.chrbank).End()
	}

	prevprg := m.prgbank
	m.prgbank = int((val >> 4) & 0x3)
	if prevprg != m.prgbank {
		m.selectPRGPage32KB(m.prgbank)
		modMapper.DebugZ("PRGROM bank switch").String("mapper", m.desc.Name).Int("prev", prevprg).Int("new", m.prgbank).End()
	}
}

func newGxROM(b *base) Mapper {
	m := &gxrom{base: b}
	m.selectPRGPage32KB(0)
	return m
}
