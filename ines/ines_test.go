package ines

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/hw/hwdefs"
	"nescore/tests"
)

type romInfos struct {
	Mapper     uint16
	SubMapper  uint8
	NES2       bool
	Mirroring  NTMirroring
	Battery    bool
	Trainer    int
	PRGROM     int
	CHRROM     int
	PRGRAMSize int
	CHRRAMSize int
}

func infos(rom *Rom) romInfos {
	return romInfos{
		Mapper:     rom.Mapper(),
		SubMapper:  rom.SubMapper(),
		NES2:       rom.IsNES2(),
		Mirroring:  rom.Mirroring(),
		Battery:    rom.HasBattery(),
		Trainer:    len(rom.Trainer),
		PRGROM:     len(rom.PRGROM),
		CHRROM:     len(rom.CHRROM),
		PRGRAMSize: rom.PRGRAMSize(),
		CHRRAMSize: rom.CHRRAMSize(),
	}
}

func TestDecode(t *testing.T) {
	tcs := []struct {
		name string
		rom  tests.ROM
		want romInfos
	}{
		{
			name: "nrom",
			rom:  tests.ROM{PRG: make([]byte, 16384), CHR: make([]byte, 8192)},
			want: romInfos{
				Mirroring:  HorzMirroring,
				PRGROM:     16384,
				CHRROM:     8192,
				PRGRAMSize: 8192,
			},
		},
		{
			name: "mmc1 chr-ram battery",
			rom:  tests.ROM{Mapper: 1, Battery: true, Vertical: true, PRG: make([]byte, 4*16384)},
			want: romInfos{
				Mapper:     1,
				Mirroring:  VertMirroring,
				Battery:    true,
				PRGROM:     4 * 16384,
				PRGRAMSize: 8192,
				CHRRAMSize: 8192,
			},
		},
		{
			name: "gxrom trainer",
			rom:  tests.ROM{Mapper: 66, Trainer: []byte{1, 2, 3}, PRG: make([]byte, 2*16384), CHR: make([]byte, 2*8192)},
			want: romInfos{
				Mapper:     66,
				Mirroring:  HorzMirroring,
				Trainer:    512,
				PRGROM:     2 * 16384,
				CHRROM:     2 * 8192,
				PRGRAMSize: 8192,
			},
		},
		{
			name: "nes2 submapper",
			rom:  tests.ROM{Mapper: 2, SubMapper: 2, PRG: make([]byte, 8*16384)},
			want: romInfos{
				Mapper:     2,
				SubMapper:  2,
				NES2:       true,
				Mirroring:  HorzMirroring,
				PRGROM:     8 * 16384,
				PRGRAMSize: 8192,
				CHRRAMSize: 8192,
			},
		},
	}
	for _, tt := range tcs {
		t.Run(tt.name, func(t *testing.T) {
			rom, err := Decode(tt.rom.Bytes())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, infos(rom)); diff != "" {
				t.Errorf("rom infos mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeSections(t *testing.T) {
	prg := bytes.Repeat([]byte{0xAA}, 16384)
	chr := bytes.Repeat([]byte{0x55}, 8192)
	rom, err := Decode(tests.ROM{PRG: prg, CHR: chr}.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rom.PRGROM, prg) {
		t.Errorf("PRGROM content mismatch")
	}
	if !bytes.Equal(rom.CHRROM, chr) {
		t.Errorf("CHRROM content mismatch")
	}
}

func TestDecodeFourScreen(t *testing.T) {
	buf := tests.ROM{Mapper: 4, PRG: make([]byte, 2*16384), CHR: make([]byte, 8192)}.Bytes()
	buf[6] |= 0x08
	rom, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := rom.Mirroring(); got != FourScreen {
		t.Errorf("Mirroring() = %s, want %s", got, FourScreen)
	}
}

func TestDecodeDiskDude(t *testing.T) {
	buf := tests.ROM{Mapper: 2, PRG: make([]byte, 2*16384), CHR: make([]byte, 8192)}.Bytes()
	copy(buf[7:], "DiskDude!")

	rom, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := rom.Mapper(); got != 2 {
		t.Errorf("Mapper() = %d, want 2 (upper nibble should be ignored)", got)
	}
}

func TestDecodeNES2ExponentSize(t *testing.T) {
	buf := tests.ROM{NES2: true, PRG: make([]byte, 16384)}.Bytes()
	// 2^14 * (0*2+1) = 16KB
	buf[4] = 14 << 2
	buf[9] = 0x0F
	rom, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rom.PRGROM) != 16384 {
		t.Errorf("len(PRGROM) = %d, want 16384", len(rom.PRGROM))
	}
}

func TestDecodeInvalid(t *testing.T) {
	good := tests.ROM{PRG: make([]byte, 16384), CHR: make([]byte, 8192)}.Bytes()

	badMagic := bytes.Clone(good)
	badMagic[3] = 0x1b

	withTrainer := bytes.Clone(good)
	withTrainer[6] |= 0x04

	noPRG := bytes.Clone(good)
	noPRG[4] = 0

	// NES 2.0 exponent-multiplier sizes: 2^63 and 2^29*7 bytes.
	hugePRG := bytes.Clone(good)
	hugePRG[7] = hugePRG[7]&^0x0C | 0x08
	hugePRG[4], hugePRG[9] = 0xFC, 0x0F

	bigCHR := bytes.Clone(good)
	bigCHR[7] = bigCHR[7]&^0x0C | 0x08
	bigCHR[5], bigCHR[9] = 0x77, 0xF0

	tcs := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short header", good[:10]},
		{"bad magic", badMagic},
		{"truncated PRG", good[:16+1000]},
		{"truncated CHR", good[:len(good)-1]},
		{"missing trainer", withTrainer},
		{"no PRG", noPRG},
		{"PRG size overflow", hugePRG},
		{"CHR size too big", bigCHR},
	}
	for _, tt := range tcs {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf)
			if !hwdefs.IsKind(err, hwdefs.InvalidImage) {
				t.Errorf("Decode() error = %v, want InvalidImage", err)
			}
		})
	}
}

func TestVRAMOffset(t *testing.T) {
	tcs := []struct {
		m    NTMirroring
		addr uint16
		want uint16
	}{
		{HorzMirroring, 0x2000, 0x000},
		{HorzMirroring, 0x2400, 0x000},
		{HorzMirroring, 0x2800, 0x400},
		{HorzMirroring, 0x2C05, 0x405},
		{VertMirroring, 0x2400, 0x400},
		{VertMirroring, 0x2800, 0x000},
		{VertMirroring, 0x3C10, 0x410},
		{OnlyAScreen, 0x2FFF, 0x3FF},
		{OnlyBScreen, 0x2000, 0x400},
		{FourScreen, 0x2C00, 0xC00},
	}
	for _, tt := range tcs {
		if got := tt.m.VRAMOffset(tt.addr); got != tt.want {
			t.Errorf("%s.VRAMOffset(%04X) = %03X, want %03X", tt.m, tt.addr, got, tt.want)
		}
	}
}
