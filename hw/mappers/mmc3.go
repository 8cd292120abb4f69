package mappers

import "nescore/ines"

var MMC3 = MapperDesc{
	Name: "MMC3",
	New:  newMMC3,
}

type mmc3 struct {
	*base

	bankSelect uint8
	regs       [8]int

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnabled bool
	irqLine    bool
}

func (m *mmc3) WritePRG(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WritePRG(addr, val)
		return
	}

	even := addr&1 == 0
	switch addr & 0xE000 {
	case 0x8000:
		if even {
			// 7  bit  0
			// ---- ----
			// CPMx xRRR
			// |||   |||
			// |||   +++- Specify which bank register to update on next write to Bank Data register
			// ||+------- Nothing on the MMC3
			// |+-------- PRG ROM bank mode (0: $8000-$9FFF swappable, $C000-$DFFF fixed to second-last bank;
			// |                             1: $C000-$DFFF swappable, $8000-$9FFF fixed to second-last bank)
			// +--------- CHR A12 inversion (0: two 2 KB banks at $0000-$0FFF, four 1 KB banks at $1000-$1FFF;
			//                               1: two 2 KB banks at $1000-$1FFF, four 1 KB banks at $0000-$0FFF)
			m.bankSelect = val
		} else {
			m.regs[m.bankSelect&0x07] = int(val)
		}
		m.remap()
	case 0xA000:
		if even {
			if m.rom.Mirroring() != ines.FourScreen {
				if val&1 == 0 {
					m.setNTMirroring(ines.VertMirroring)
				} else {
					m.setNTMirroring(ines.HorzMirroring)
				}
			}
		} else {
			// Write protection (bit 6) isn't emulated, like most emulators
			// do to stay compatible with MMC6 games.
			m.prgRAMEnabled = val&0x80 != 0
		}
	case 0xC000:
		if even {
			m.irqLatch = val
		} else {
			m.irqCounter = 0
			m.irqReload = true
		}
	case 0xE000:
		if even {
			m.irqEnabled = false
			m.irqLine = false
		} else {
			m.irqEnabled = true
		}
	}
}

func (m *mmc3) remap() {
	if m.bankSelect&0x40 == 0 {
		m.selectPRGPage8KB(0, m.regs[6]&0x3F)
		m.selectPRGPage8KB(2, -2)
	} else {
		m.selectPRGPage8KB(0, -2)
		m.selectPRGPage8KB(2, m.regs[6]&0x3F)
	}
	m.selectPRGPage8KB(1, m.regs[7]&0x3F)
	m.selectPRGPage8KB(3, -1)

	// 2KB banks ignore the low bit of their register.
	var inv int
	if m.bankSelect&0x80 != 0 {
		inv = 4
	}
	m.selectCHRPage1KB(inv+0, m.regs[0]&0xFE)
	m.selectCHRPage1KB(inv+1, m.regs[0]|0x01)
	m.selectCHRPage1KB(inv+2, m.regs[1]&0xFE)
	m.selectCHRPage1KB(inv+3, m.regs[1]|0x01)
	other := inv ^ 4
	m.selectCHRPage1KB(other+0, m.regs[2])
	m.selectCHRPage1KB(other+1, m.regs[3])
	m.selectCHRPage1KB(other+2, m.regs[4])
	m.selectCHRPage1KB(other+3, m.regs[5])
}

// Scanline clocks the IRQ counter. On the real board it's clocked by the
// rising edges of PPU A12, that happen once per scanline with the usual
// pattern table setup (background at $0000, sprites at $1000).
func (m *mmc3) Scanline() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		modMapper.DebugZ("IRQ").String("mapper", m.desc.Name).End()
		m.irqLine = true
	}
}

func (m *mmc3) IRQ() bool { return m.irqLine }

func newMMC3(b *base) Mapper {
	m := &mmc3{base: b}
	m.regs = [8]int{0, 2, 4, 5, 6, 7, 0, 1}
	m.remap()
	return m
}
