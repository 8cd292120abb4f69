package hw

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"nescore/emu/log"
	"nescore/ines"
	"nescore/tests"
)

func TestInstructionsV5(t *testing.T) {
	dir := filepath.Join(tests.RomsPath(t), "instr_test-v5", "rom_singles")
	files := []string{
		"01-basics.nes",
		"02-implied.nes",
		"04-zero_page.nes",
		"05-zp_xy.nes",
		"06-absolute.nes",
		"08-ind_x.nes",
		"09-ind_y.nes",
		"10-branches.nes",
		"11-stack.nes",
		"12-jmp_jsr.nes",
		"13-rts.nes",
		"14-rti.nes",
		"15-brk.nes",
		"16-special.nes",
	}
	for _, path := range files {
		t.Run(path, runTestRom(filepath.Join(dir, path)))
	}
}

func TestAPUTestRoms(t *testing.T) {
	dir := filepath.Join(tests.RomsPath(t), "apu_test", "rom_singles")
	files := []string{
		"1-len_ctr.nes",
		"2-len_table.nes",
		"3-irq_flag.nes",
	}
	for _, path := range files {
		t.Run(path, runTestRom(filepath.Join(dir, path)))
	}
}

func TestPPUTestRoms(t *testing.T) {
	dir := filepath.Join(tests.RomsPath(t), "ppu_vbl_nmi", "rom_singles")
	files := []string{
		"01-vbl_basics.nes",
		"02-vbl_set_time.nes",
		"03-vbl_clear_time.nes",
	}
	for _, path := range files {
		t.Run(path, runTestRom(filepath.Join(dir, path)))
	}
}

func TestOAMRead(t *testing.T) {
	runTestRom(filepath.Join(tests.RomsPath(t), "oam_read", "oam_read.nes"))(t)
}

// runTestRom runs one of blargg's test roms, which report their results in
// PRG RAM:
//   - $6000 holds the status: $80 while running, $81 when the reset button
//     must be pressed, $00-$7F is the final result code.
//   - $6001-$6003 holds $DE $B0 $61 once the data at $6000 is valid.
//   - $6004 holds the text output, zero-terminated.
func runTestRom(path string) func(t *testing.T) {
	return func(t *testing.T) {
		if !testing.Verbose() {
			log.SetOutput(io.Discard)
		}

		rom, err := ines.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		c := NewConsole(ConsoleConfig{Region: rom.Region()})
		if err := c.LoadCartridge(rom); err != nil {
			t.Fatal(err)
		}
		c.PowerOn()

		magic := []byte{0xDE, 0xB0, 0x61}
		magicSet := false
		resetAt := uint64(0)

		const maxFrames = 60 * 60
		for range maxFrames {
			if _, err := c.RunUntilFrame(); err != nil {
				t.Fatal(err)
			}

			data := []byte{c.Peek8(0x6001), c.Peek8(0x6002), c.Peek8(0x6003)}
			if !magicSet {
				magicSet = bytes.Equal(data, magic)
				continue
			}
			if !bytes.Equal(data, magic) {
				t.Fatalf("corrupted memory")
			}

			switch status := c.Peek8(0x6000); {
			case status == 0x81:
				// The reset button must be pressed at least 100ms from now.
				if resetAt == 0 {
					resetAt = c.PPU.Frames + 10
				} else if c.PPU.Frames >= resetAt {
					resetAt = 0
					c.Reset()
				}
			case status < 0x80:
				if status != 0 {
					t.Fatalf("test failed:\ncode 0x%02x\ntext %s", status, romText(c, 0x6004))
				}
				return
			}
		}
		t.Fatalf("test still running after %d frames:\n%s", maxFrames, romText(c, 0x6004))
	}
}

func romText(c *Console, addr uint16) string {
	var buf []byte
	for ; addr < 0x8000; addr++ {
		b := c.Peek8(addr)
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}
