package tests

import "bytes"

// ROM describes a cartridge image to build for tests.
type ROM struct {
	Mapper    uint16
	SubMapper uint8 // forces a NES 2.0 header if non-zero
	NES2      bool
	Vertical  bool
	Battery   bool
	Trainer   []byte
	PRG       []byte // multiple of 16KB
	CHR       []byte // multiple of 8KB, empty for CHR RAM
}

// Bytes returns the iNES (or NES 2.0) encoded image.
func (r ROM) Bytes() []byte {
	var hdr [16]byte
	copy(hdr[:], "NES\x1a")
	hdr[4] = uint8(len(r.PRG) / 16384)
	hdr[5] = uint8(len(r.CHR) / 8192)
	hdr[6] = uint8(r.Mapper&0x0F) << 4
	if r.Vertical {
		hdr[6] |= 0x01
	}
	if r.Battery {
		hdr[6] |= 0x02
	}
	if len(r.Trainer) > 0 {
		hdr[6] |= 0x04
	}
	hdr[7] = uint8(r.Mapper & 0xF0)
	if r.NES2 || r.SubMapper != 0 || r.Mapper > 0xFF {
		hdr[7] |= 0x08
		hdr[8] = r.SubMapper<<4 | uint8(r.Mapper>>8)&0x0F
		hdr[10] = 0x07 // 8KB PRG RAM
		if len(r.CHR) == 0 {
			hdr[11] = 0x07 // 8KB CHR RAM
		}
	}

	var buf bytes.Buffer
	buf.Write(hdr[:])
	if len(r.Trainer) > 0 {
		tr := make([]byte, 512)
		copy(tr, r.Trainer)
		buf.Write(tr)
	}
	buf.Write(r.PRG)
	buf.Write(r.CHR)
	return buf.Bytes()
}

// PRG is a PRG ROM image being assembled, seen from the CPU with its last
// 16KB bank fixed at $C000-$FFFF.
type PRG []byte

// NewPRG returns a PRG ROM of n 16KB banks, filled with NOP.
func NewPRG(n int) PRG {
	return PRG(bytes.Repeat([]byte{0xEA}, n*16384))
}

// Bank returns the 16KB bank at index i.
func (p PRG) Bank(i int) []byte {
	return p[i*16384 : (i+1)*16384]
}

// Put writes code at the CPU address addr in the last 16KB bank (addresses
// $8000-$BFFF are mirrored onto $C000-$FFFF).
func (p PRG) Put(addr uint16, code ...byte) {
	off := len(p) - 16384 + int(addr&0x3FFF)
	copy(p[off:], code)
}

// SetVectors sets the NMI, RESET and IRQ/BRK vectors.
func (p PRG) SetVectors(nmi, reset, irq uint16) {
	p.Put(0xFFFA,
		uint8(nmi), uint8(nmi>>8),
		uint8(reset), uint8(reset>>8),
		uint8(irq), uint8(irq>>8))
}

// NROM returns a 16KB NROM image running code at $C000, with NMI handler nmi
// at $D000 and IRQ handler irq at $E000. CHR is 8KB of zeroes.
func NROM(code, nmi, irq []byte) []byte {
	prg := NewPRG(1)
	prg.Put(0xC000, code...)
	prg.Put(0xD000, nmi...)
	prg.Put(0xE000, irq...)
	prg.SetVectors(0xD000, 0xC000, 0xE000)
	return ROM{PRG: prg, CHR: make([]byte, 8192)}.Bytes()
}
