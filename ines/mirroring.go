package ines

//go:generate go tool stringer -type=NTMirroring -output=mirroring_string.go

// NTMirroring is the nametable mirroring mode, that is how the 4 logical
// nametables of the PPU address space map to physical VRAM.
type NTMirroring uint8

const (
	HorzMirroring NTMirroring = iota // A A / B B
	VertMirroring                    // A B / A B
	OnlyAScreen                      // A A / A A
	OnlyBScreen                      // B B / B B
	FourScreen                       // A B / C D (extra VRAM on the cartridge)
)

var ntlayout = [...][4]uint16{
	HorzMirroring: {0, 0, 1, 1},
	VertMirroring: {0, 1, 0, 1},
	OnlyAScreen:   {0, 0, 0, 0},
	OnlyBScreen:   {1, 1, 1, 1},
	FourScreen:    {0, 1, 2, 3},
}

// VRAMOffset maps a PPU address in $2000-$3EFF to an offset into a 4KB
// nametable memory.
func (m NTMirroring) VRAMOffset(addr uint16) uint16 {
	addr &= 0x0FFF
	return ntlayout[m][addr>>10]<<10 | addr&0x03FF
}
