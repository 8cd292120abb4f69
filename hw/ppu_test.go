package hw

import (
	"testing"

	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
	"nescore/hw/mappers"
	"nescore/ines"
	"nescore/tests"
)

// newTestPPU returns a PPU after power up, with its registers mapped on a
// CPU bus.
func newTestPPU(region hwdefs.Region) (*PPU, *hwio.Table) {
	p := NewPPU(region)
	p.InitBus()
	p.Reset(hwdefs.HardReset)

	bus := hwio.NewTable("cpu")
	for addr := 0x2000; addr < 0x4000; addr += 8 {
		bus.MapBank(uint16(addr), p, 1)
	}
	return p, bus
}

func tickTo(p *PPU, line, dot int) {
	for p.Scanline != line || p.Cycle != dot {
		p.Tick()
	}
}

func setVRAMAddr(bus *hwio.Table, addr uint16) {
	bus.Write8(0x2006, uint8(addr>>8))
	bus.Write8(0x2006, uint8(addr))
}

func TestPPUScrollAndAddrLatches(t *testing.T) {
	p, bus := newTestPPU(hwdefs.NTSC)

	bus.Write8(0x2005, 0x7D) // coarse X 15, fine X 5
	bus.Write8(0x2005, 0x5E) // coarse Y 11, fine Y 6
	v, tt, finex, w := p.VRAM()
	wantReg(t, "t", tt, 0x616F)
	wantReg(t, "finex", finex, 5)
	wantEq(t, "w", w, false)
	wantReg(t, "v", v, 0)

	bus.Write8(0x2000, 0x03)
	_, tt, _, _ = p.VRAM()
	wantReg(t, "t", tt, 0x6D6F)

	// $3FFE mirrors $2006.
	bus.Write8(0x3FFE, 0x3F)
	_, tt, _, w = p.VRAM()
	wantReg(t, "t", tt, 0x3F6F)
	wantEq(t, "w", w, true)

	bus.Write8(0x2006, 0x10)
	v, tt, _, w = p.VRAM()
	wantReg(t, "t", tt, 0x3F10)
	wantReg(t, "v", v, 0x3F10)
	wantEq(t, "w", w, false)

	// Reading PPUSTATUS resets the write toggle.
	bus.Write8(0x2006, 0x21)
	bus.Read8(0x2002)
	_, _, _, w = p.VRAM()
	wantEq(t, "w", w, false)
}

func TestPPUDataReadBuffer(t *testing.T) {
	p, bus := newTestPPU(hwdefs.NTSC)

	setVRAMAddr(bus, 0x2100)
	bus.Write8(0x2007, 0xAB)
	bus.Write8(0x2007, 0xCD)

	setVRAMAddr(bus, 0x2100)
	wantReg(t, "1st read", bus.Read8(0x2007), 0x00) // stale buffer
	wantReg(t, "2nd read", bus.Read8(0x2007), 0xAB)
	wantReg(t, "3rd read", bus.Read8(0x2007), 0xCD)

	// Horizontal mirroring: $2400 is $2000.
	wantReg(t, "$2501", p.Bus.Peek8(0x2501), 0xCD)
	// $3000-$3EFF mirrors $2000-$2EFF.
	wantReg(t, "$3100", p.Bus.Peek8(0x3100), 0xAB)

	// Increment by 32.
	bus.Write8(0x2000, ctrlIncr32)
	setVRAMAddr(bus, 0x2800)
	bus.Write8(0x2007, 0x01)
	bus.Write8(0x2007, 0x02)
	wantReg(t, "$2800", p.Bus.Peek8(0x2800), 0x01)
	wantReg(t, "$2820", p.Bus.Peek8(0x2820), 0x02)
	v, _, _, _ := p.VRAM()
	wantReg(t, "v", v, 0x2840)
}

func TestPPUPaletteAccess(t *testing.T) {
	p, bus := newTestPPU(hwdefs.NTSC)

	setVRAMAddr(bus, 0x2F00)
	bus.Write8(0x2007, 0x77)

	// Sprite backdrop entries mirror the background ones.
	setVRAMAddr(bus, 0x3F10)
	bus.Write8(0x2007, 0x2A)
	// Palette entries are 6-bit wide.
	setVRAMAddr(bus, 0x3F01)
	bus.Write8(0x2007, 0xFF)

	setVRAMAddr(bus, 0x3F00)
	wantReg(t, "$3F00", bus.Read8(0x2007), 0x2A)
	wantReg(t, "$3F01", bus.Read8(0x2007), 0x3F)

	// Palette reads fill the buffer with the nametable byte below.
	setVRAMAddr(bus, 0x3F00)
	bus.Read8(0x2007)
	setVRAMAddr(bus, 0x2000)
	wantReg(t, "buffer", bus.Read8(0x2007), 0x77)

	pal := p.PaletteRAM()
	wantReg(t, "palette[0]", pal[0], 0x2A)
	wantReg(t, "palette[0x10]", pal[0x10], 0x00)
}

func TestPPUVBlankAndNMI(t *testing.T) {
	p, bus := newTestPPU(hwdefs.NTSC)
	bus.Write8(0x2000, ctrlNMI)

	tickTo(p, vblankLine, 0)
	if p.PPUSTATUS.Value&statusVblank != 0 {
		t.Fatalf("vblank set at (241,0)")
	}
	if p.TakeNMI() {
		t.Fatalf("NMI raised at (241,0)")
	}

	p.Tick()
	if p.PPUSTATUS.Value&statusVblank == 0 {
		t.Fatalf("vblank not set at (241,1)")
	}
	if !p.TakeNMI() {
		t.Fatalf("NMI not raised at (241,1)")
	}
	if p.TakeNMI() {
		t.Fatalf("NMI taken twice")
	}

	// Enabling NMI while in vblank raises another one.
	bus.Write8(0x2000, 0)
	bus.Write8(0x2000, ctrlNMI)
	if !p.TakeNMI() {
		t.Fatalf("NMI not raised when enabled during vblank")
	}

	tickTo(p, p.preRenderLine, 0)
	if p.PPUSTATUS.Value&statusVblank == 0 {
		t.Fatalf("vblank cleared before pre-render dot 1")
	}
	p.Tick()
	if p.PPUSTATUS.Value&(statusVblank|statusSprite0|statusOverflow) != 0 {
		t.Fatalf("PPUSTATUS = %02X, flags not cleared at pre-render dot 1", p.PPUSTATUS.Value)
	}
}

func TestPPUStatusReadClearsVBlank(t *testing.T) {
	p, bus := newTestPPU(hwdefs.NTSC)

	tickTo(p, vblankLine, 1)
	if got := bus.Read8(0x2002); got&statusVblank == 0 {
		t.Fatalf("PPUSTATUS = %02X, want vblank set", got)
	}
	if got := bus.Read8(0x2002); got&statusVblank != 0 {
		t.Fatalf("PPUSTATUS = %02X, want vblank cleared by previous read", got)
	}
}

func TestPPUStatusRaceSuppressesVBlank(t *testing.T) {
	p, bus := newTestPPU(hwdefs.NTSC)
	bus.Write8(0x2000, ctrlNMI)

	tickTo(p, vblankLine, 0)
	if got := bus.Read8(0x2002); got&statusVblank != 0 {
		t.Fatalf("PPUSTATUS = %02X, want vblank clear", got)
	}
	p.Tick()
	if p.PPUSTATUS.Value&statusVblank != 0 {
		t.Errorf("vblank set despite the PPUSTATUS read one dot before")
	}
	if p.TakeNMI() {
		t.Errorf("NMI raised despite the PPUSTATUS read one dot before")
	}

	// Next frame is not affected.
	p.Tick()
	tickTo(p, vblankLine, 1)
	if !p.TakeNMI() {
		t.Errorf("NMI not raised on next frame")
	}
}

// dotsPerFrame returns the number of dots of the next n frames.
func dotsPerFrame(p *PPU, n int) []int {
	for !p.FrameDone() {
		p.Tick()
	}

	var dots []int
	for range n {
		count := 0
		for !p.FrameDone() {
			p.Tick()
			count++
		}
		dots = append(dots, count)
	}
	return dots
}

func TestPPUOddFrameSkip(t *testing.T) {
	tests := []struct {
		name   string
		region hwdefs.Region
		mask   uint8
		want   []int
	}{
		{"ntsc rendering", hwdefs.NTSC, maskShowBg, []int{89342, 89341, 89342, 89341}},
		{"ntsc no rendering", hwdefs.NTSC, 0, []int{89342, 89342, 89342, 89342}},
		{"pal rendering", hwdefs.PAL, maskShowBg, []int{106392, 106392, 106392, 106392}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, bus := newTestPPU(tt.region)
			bus.Write8(0x2001, tt.mask)

			got := dotsPerFrame(p, len(tt.want))
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("dots per frame = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPPUSpriteOverflow(t *testing.T) {
	const line = 100

	type spr struct{ n, y, tile uint8 }
	tests := []struct {
		name    string
		sprites []spr
		count   int
		want    bool
	}{
		{
			name:    "8 sprites",
			sprites: []spr{{0, line, 0}, {1, line, 0}, {2, line, 0}, {3, line, 0}, {4, line, 0}, {5, line, 0}, {6, line, 0}, {7, line, 0}},
			count:   8,
			want:    false,
		},
		{
			name:    "9 sprites",
			sprites: []spr{{0, line, 0}, {1, line, 0}, {2, line, 0}, {3, line, 0}, {4, line, 0}, {5, line, 0}, {6, line, 0}, {7, line, 0}, {8, line, 0}},
			count:   8,
			want:    true,
		},
		{
			// The 9th sprite is out of range, then the tile number of the
			// 10th sprite is taken as its Y coordinate.
			name:    "false positive",
			sprites: []spr{{0, line, 0}, {1, line, 0}, {2, line, 0}, {3, line, 0}, {4, line, 0}, {5, line, 0}, {6, line, 0}, {7, line, 0}, {9, 0xFF, line}},
			count:   8,
			want:    true,
		},
		{
			// The 10th sprite is in range but its Y coordinate isn't
			// looked at.
			name:    "false negative",
			sprites: []spr{{0, line, 0}, {1, line, 0}, {2, line, 0}, {3, line, 0}, {4, line, 0}, {5, line, 0}, {6, line, 0}, {7, line, 0}, {9, line, 0xFF}},
			count:   8,
			want:    false,
		},
		{
			name:    "fewer than 8",
			sprites: []spr{{3, line - 7, 0}, {10, line - 8, 0}, {63, line, 0}},
			count:   2,
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPPU(hwdefs.NTSC)
			for i := range p.oam {
				p.oam[i] = 0xFF
			}
			for _, s := range tt.sprites {
				p.oam[s.n*4] = s.y
				p.oam[s.n*4+1] = s.tile
			}
			p.Scanline = line

			p.evaluateSprites()

			wantReg(t, "count", p.spr.count, tt.count)
			wantEq(t, "overflow", p.PPUSTATUS.Value&statusOverflow != 0, tt.want)
		})
	}
}

func TestPPUBackdrop(t *testing.T) {
	tests := []struct {
		name string
		mask uint8
		want uint8
	}{
		{"color", 0, 0x21},
		{"greyscale", maskGreyscale, 0x20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, bus := newTestPPU(hwdefs.NTSC)
			setVRAMAddr(bus, 0x3F00)
			bus.Write8(0x2007, 0x21)
			setVRAMAddr(bus, 0x2000)
			bus.Write8(0x2001, tt.mask)

			for !p.FrameDone() {
				p.Tick()
			}
			for i, c := range p.Frame().Pix {
				if c != tt.want {
					t.Fatalf("pixel (%d,%d) = %02X, want %02X", i%256, i/256, c, tt.want)
				}
			}
		})
	}
}

type testHost struct{}

func (testHost) CurrentCycle() int64 { return 0 }
func (testHost) OpenBus() uint8      { return 0 }

func TestPPURenderSprite0Hit(t *testing.T) {
	// Tile 1 is fully opaque (color 1).
	chr := make([]byte, 0x2000)
	for i := range 8 {
		chr[0x10+i] = 0xFF
	}
	rom, err := ines.Decode(tests.ROM{PRG: tests.NewPRG(1), CHR: chr}.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	m, err := mappers.Load(rom, testHost{})
	if err != nil {
		t.Fatal(err)
	}

	p, bus := newTestPPU(hwdefs.NTSC)
	p.SetMapper(m)

	// Nametable 0 filled with tile 1.
	setVRAMAddr(bus, 0x2000)
	for range 960 {
		bus.Write8(0x2007, 0x01)
	}

	setVRAMAddr(bus, 0x3F00)
	bus.Write8(0x2007, 0x0F)
	bus.Write8(0x2007, 0x11)
	setVRAMAddr(bus, 0x3F11)
	bus.Write8(0x2007, 0x16)

	// Sprite 0 at (30,20), shown from line 21.
	bus.Write8(0x2003, 0x00)
	for _, b := range []uint8{20, 1, 0, 30} {
		bus.Write8(0x2004, b)
	}

	setVRAMAddr(bus, 0x0000)
	bus.Write8(0x2000, 0x00)
	bus.Write8(0x2001, maskShowBg|maskShowSprites|maskLeftBg|maskLeftSprites)

	for !p.FrameDone() {
		p.Tick()
	}

	if p.PPUSTATUS.Value&statusSprite0 == 0 {
		t.Errorf("sprite 0 hit not set")
	}

	f := p.Frame()
	pixels := []struct {
		x, y int
		want uint8
	}{
		{30, 21, 0x16},
		{37, 28, 0x16},
		{29, 21, 0x11},
		{38, 21, 0x11},
		{30, 20, 0x11},
		{30, 29, 0x11},
		{128, 200, 0x11},
	}
	for _, px := range pixels {
		if got := f.At(px.x, px.y); got != px.want {
			t.Errorf("pixel (%d,%d) = %02X, want %02X", px.x, px.y, got, px.want)
		}
	}
}
