// Package mappers implements the cartridge boards. Each board translates CPU
// and PPU accesses of the cartridge address ranges into ROM/RAM bank accesses.
package mappers

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/ines"
)

var modMapper = log.NewModule("mapper")

// Mapper is the capability set shared by all boards. The CPU bus and the PPU
// only ever use this interface.
type Mapper interface {
	Name() string

	// ReadPRG and WritePRG handle CPU accesses in $4020-$FFFF.
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, val uint8)

	// ReadCHR and WriteCHR handle PPU accesses in $0000-$1FFF.
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, val uint8)

	// Scanline is called by the PPU once per rendered scanline.
	Scanline()

	// Mirroring returns the current nametable mirroring.
	Mirroring() ines.NTMirroring

	// IRQ reports whether the cartridge IRQ line is asserted.
	IRQ() bool

	board() *base
}

// Host is the console, seen from the cartridge.
type Host interface {
	// CurrentCycle returns the number of CPU cycles since power up.
	CurrentCycle() int64
	// OpenBus returns the last value driven on the CPU data bus.
	OpenBus() uint8
}

type MapperDesc struct {
	Name string
	New  func(*base) Mapper
}

// All supported boards, by iNES mapper number.
var All = map[uint16]MapperDesc{
	0:  NROM,
	1:  MMC1,
	2:  UxROM,
	3:  CNROM,
	4:  MMC3,
	7:  AxROM,
	66: GxROM,
}

// Load creates the mapper for the given rom. It fails with UnsupportedMapper
// if the board isn't emulated.
func Load(rom *ines.Rom, host Host) (Mapper, error) {
	desc, ok := All[rom.Mapper()]
	if !ok {
		return nil, hwdefs.Errorf(hwdefs.UnsupportedMapper, "mapper %d (submapper %d)", rom.Mapper(), rom.SubMapper())
	}
	b, err := newbase(desc, rom, host)
	if err != nil {
		return nil, err
	}
	m := desc.New(b)

	modMapper.InfoZ("cartridge loaded").
		String("mapper", desc.Name).
		Int("prgrom", len(rom.PRGROM)).
		Int("chrrom", len(rom.CHRROM)).
		Int("chrram", rom.CHRRAMSize()).
		Stringer("mirroring", m.Mirroring()).
		End()
	return m, nil
}
