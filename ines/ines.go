// Package ines implements a reader for roms in the iNES and NES 2.0 file
// formats, used for the distribution of NES binary programs.
package ines

import (
	"bytes"
	"io"
	"os"

	"github.com/go-faster/errors"

	"nescore/hw/hwdefs"
)

const Magic = "NES\x1a"

const (
	headerSize  = 16
	trainerSize = 512
	prgUnit     = 16384
	chrUnit     = 8192

	// Exponent-multiplier sizes are rejected past this value.
	maxROMSize = 1 << 30
)

// Rom is a parsed cartridge image. Its content is immutable once decoded.
type Rom struct {
	header
	Trainer []byte // Trainer, 512 bytes if present, or empty.
	PRGROM  []byte // PRGROM is PRG ROM data.
	CHRROM  []byte // CHRROM is CHR ROM data (empty if the board uses CHR RAM).
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(buf)
}

// Decode decodes a rom image from buf.
func Decode(buf []byte) (*Rom, error) {
	rom := new(Rom)
	if _, err := rom.ReadFrom(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if err := rom.decode(buf); err != nil {
		return 0, hwdefs.Wrap(hwdefs.InvalidImage, err, "failed to decode header")
	}
	off := headerSize

	section := func(name string, size int) ([]byte, error) {
		if size < 0 || len(buf)-off < size {
			return nil, hwdefs.Errorf(hwdefs.InvalidImage,
				"incomplete %s section: want %d bytes, got %d", name, size, max(len(buf)-off, 0))
		}
		s := bytes.Clone(buf[off : off+size])
		off += size
		return s, nil
	}

	if rom.HasTrainer() {
		if rom.Trainer, err = section("TRAINER", trainerSize); err != nil {
			return 0, err
		}
	}
	if rom.PRGROM, err = section("PRG", rom.prgsz); err != nil {
		return 0, err
	}
	if rom.CHRROM, err = section("CHR", rom.chrsz); err != nil {
		return 0, err
	}
	return int64(len(buf)), nil
}

type header struct {
	raw      [headerSize]byte
	nes2     bool
	archaic  bool // bytes 7-15 are garbage (e.g "DiskDude!")
	prgsz    int
	chrsz    int
	prgramsz int
	chrramsz int
}

func (hdr *header) decode(p []byte) error {
	if len(p) < headerSize {
		return errors.Errorf("too small, needs %d bytes, got %d", headerSize, len(p))
	}
	if string(p[:4]) != Magic {
		return errors.Errorf("invalid magic number % x", p[:4])
	}
	copy(hdr.raw[:], p[:headerSize])

	switch hdr.raw[7] & 0x0C {
	case 0x08:
		hdr.nes2 = true
	case 0x00:
		// Some old dumping tools wrote their name in bytes 7-15.
		hdr.archaic = !bytes.Equal(hdr.raw[12:16], []byte{0, 0, 0, 0})
	default:
		hdr.archaic = true
	}

	if hdr.nes2 {
		var ok bool
		if hdr.prgsz, ok = nes2ROMSize(hdr.raw[4], hdr.raw[9]&0x0F, prgUnit); !ok {
			return errors.Errorf("PRG ROM size out of range (byte 4: $%02X)", hdr.raw[4])
		}
		if hdr.chrsz, ok = nes2ROMSize(hdr.raw[5], hdr.raw[9]>>4, chrUnit); !ok {
			return errors.Errorf("CHR ROM size out of range (byte 5: $%02X)", hdr.raw[5])
		}
		hdr.prgramsz = nes2RAMSize(hdr.raw[10]&0x0F) + nes2RAMSize(hdr.raw[10]>>4)
		hdr.chrramsz = nes2RAMSize(hdr.raw[11]&0x0F) + nes2RAMSize(hdr.raw[11]>>4)
	} else {
		hdr.prgsz = int(hdr.raw[4]) * prgUnit
		hdr.chrsz = int(hdr.raw[5]) * chrUnit
		// 0 means 8KB for compatibility.
		hdr.prgramsz = 8192
		if !hdr.archaic && hdr.raw[8] != 0 {
			hdr.prgramsz = int(hdr.raw[8]) * 8192
		}
		if hdr.chrsz == 0 {
			hdr.chrramsz = 8192
		}
	}

	if hdr.prgsz == 0 {
		return errors.New("no PRG ROM")
	}
	return nil
}

// NES 2.0 ROM size: if the MSB nibble is $F, the LSB byte encodes the size as
// 2^E * (MM*2+1), otherwise it's a 12-bit count of units. ok is false if the
// size exceeds maxROMSize.
func nes2ROMSize(lsb, msb uint8, unit int) (size int, ok bool) {
	if msb == 0x0F {
		exp := lsb >> 2
		mul := int(lsb&0x03)*2 + 1
		if exp >= 30 {
			return 0, false
		}
		size = (1 << exp) * mul
	} else {
		size = (int(msb)<<8 | int(lsb)) * unit
	}
	return size, size <= maxROMSize
}

// NES 2.0 RAM size is a shift count: 64 << n, 0 meaning none.
func nes2RAMSize(n uint8) int {
	if n == 0 {
		return 0
	}
	return 64 << n
}

// IsNES2 reports whether the header is in the NES 2.0 format.
func (hdr *header) IsNES2() bool { return hdr.nes2 }

// HasTrainer indicates the presence of a trainer section in the rom.
func (hdr *header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// HasBattery indicates the presence of battery-backed memory in the cartridge.
func (hdr *header) HasBattery() bool {
	return hdr.raw[6]&0x02 != 0
}

// Mapper returns the mapper number.
func (hdr *header) Mapper() uint16 {
	m := uint16(hdr.raw[6] >> 4)
	if !hdr.archaic {
		m |= uint16(hdr.raw[7] & 0xF0)
	}
	if hdr.nes2 {
		m |= uint16(hdr.raw[8]&0x0F) << 8
	}
	return m
}

// SubMapper returns the submapper number (always 0 for iNES roms).
func (hdr *header) SubMapper() uint8 {
	if !hdr.nes2 {
		return 0
	}
	return hdr.raw[8] >> 4
}

// Mirroring returns the nametable mirroring set by the board hardware.
func (hdr *header) Mirroring() NTMirroring {
	switch {
	case hdr.raw[6]&0x08 != 0:
		return FourScreen
	case hdr.raw[6]&0x01 != 0:
		return VertMirroring
	}
	return HorzMirroring
}

// PRGRAMSize returns the size of the PRG RAM (volatile and non-volatile).
func (hdr *header) PRGRAMSize() int { return hdr.prgramsz }

// CHRRAMSize returns the size of the CHR RAM, 0 if the board has CHR ROM.
func (hdr *header) CHRRAMSize() int {
	if hdr.chrsz == 0 && hdr.chrramsz == 0 {
		return 8192
	}
	return hdr.chrramsz
}

// Region returns the timing declared in the header. Roms declaring multiple
// regions or Dendy timing are reported as NTSC.
func (hdr *header) Region() hwdefs.Region {
	if hdr.nes2 {
		if hdr.raw[12]&0x03 == 1 {
			return hwdefs.PAL
		}
		return hwdefs.NTSC
	}
	if !hdr.archaic && hdr.raw[9]&0x01 != 0 {
		return hwdefs.PAL
	}
	return hwdefs.NTSC
}
