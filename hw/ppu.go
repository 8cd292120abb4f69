package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
	"nescore/hw/mappers"
	"nescore/ines"
)

// NumDots is the number of PPU dots (cycles) per scanline.
const NumDots = 341

const vblankLine = 241

const (
	// PPUCTRL bits
	// $2000

	// Nametable selection mask
	// (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
	ctrlNametable = 0b11

	// VRAM address increment per CPU read/write of PPUDATA
	// (0: +1 i.e. horizontal; 1: +32 i.e. vertical)
	ctrlIncr32 = 1 << 2

	// Sprite pattern table address for 8x8 sprites
	// (0: $0000; 1: $1000; ignored in 8x16 mode)
	ctrlSpriteTable = 1 << 3

	// Background pattern table address (0: $0000; 1: $1000)
	ctrlBgTable = 1 << 4

	// Sprite size (0: 8x8 pixels; 1: 8x16 pixels)
	ctrlSprite16 = 1 << 5

	// Generate an NMI at the start of the
	// vertical blanking interval (0: off; 1: on)
	ctrlNMI = 1 << 7
)

const (
	// PPUMASK bits
	// $2001

	maskGreyscale   = 1 << 0
	maskLeftBg      = 1 << 1 // show background in leftmost 8 pixels
	maskLeftSprites = 1 << 2 // show sprites in leftmost 8 pixels
	maskShowBg      = 1 << 3
	maskShowSprites = 1 << 4
)

const (
	// PPUSTATUS bits
	// $2002

	// Sprite overflow. The intent was for this flag to be set
	// whenever more than eight sprites appear on a scanline, but a
	// hardware bug causes the actual behavior to be more complicated
	// and generate false positives as well as false negatives; see
	// evaluateSprites. This flag is set during sprite evaluation and
	// cleared at dot 1 (the second dot) of the pre-render line.
	statusOverflow = 1 << 5

	// Sprite 0 Hit.  Set when a nonzero pixel of sprite 0 overlaps
	// a nonzero background pixel; cleared at dot 1 of the pre-render
	// line.  Used for raster timing.
	statusSprite0 = 1 << 6

	// Vertical blank has started (0: not in vblank; 1: in vblank).
	// Set at dot 1 of line 241 (the line *after* the post-render
	// line); cleared after reading $2002 and at dot 1 of the
	// pre-render line.
	statusVblank = 1 << 7
)

// PPU is the Ricoh 2C02 (NTSC) or 2C07 (PAL) picture processing unit.
//
// Scanline and Cycle are the position of the last processed dot.
type PPU struct {
	Bus    *hwio.Table // PPU address space ($0000-$3FFF)
	mapper mappers.Mapper

	region        hwdefs.Region
	preRenderLine int

	Cycle    int    // Current dot in scanline (0-340)
	Scanline int    // Current scanline
	Frames   uint64 // Number of completed frames
	oddFrame bool

	//	$0000-$1FFF	$2000	Pattern tables (cartridge)
	CHR hwio.Device `hwio:"offset=0x0000,size=0x2000,rcb,pcb=ReadCHR,wcb"`

	// $2000-$2FFF	$1000	Nametables
	// $3000-$3EFF	$0F00	Mirrors of $2000-$2EFF
	Nametables hwio.Device `hwio:"offset=0x2000,size=0x1F00,rcb,pcb=ReadNAMETABLES,wcb"`

	// $3F00-$3F1F	$0020	Palette RAM indexes
	// $3F20-$3FFF	$00E0	Mirrors of $3F00-$3F1F
	Palettes hwio.Device `hwio:"offset=0x3F00,size=0x100,rcb,pcb=ReadPALETTES,wcb"`

	// CPU-exposed memory-mapped PPU registers
	// mapped from $2000 to $2007, mirrored up to $3fff
	PPUCTRL   hwio.Reg8 `hwio:"bank=1,offset=0x0,rcb=ReadLatch,pcb=ReadLatch,wcb"`
	PPUMASK   hwio.Reg8 `hwio:"bank=1,offset=0x1,rcb=ReadLatch,pcb=ReadLatch,wcb"`
	PPUSTATUS hwio.Reg8 `hwio:"bank=1,offset=0x2,rcb,pcb,wcb"`
	OAMADDR   hwio.Reg8 `hwio:"bank=1,offset=0x3,rcb=ReadLatch,pcb=ReadLatch,wcb"`
	OAMDATA   hwio.Reg8 `hwio:"bank=1,offset=0x4,rcb,pcb,wcb"`
	PPUSCROLL hwio.Reg8 `hwio:"bank=1,offset=0x5,rcb=ReadLatch,pcb=ReadLatch,wcb"`
	PPUADDR   hwio.Reg8 `hwio:"bank=1,offset=0x6,rcb=ReadLatch,pcb=ReadLatch,wcb"`
	PPUDATA   hwio.Reg8 `hwio:"bank=1,offset=0x7,rcb,pcb,wcb"`

	vram    [0x1000]uint8 // 4KB to support four-screen boards
	palette [32]uint8
	oam     [256]uint8

	// VRAM address registers
	v, t  loopy
	finex uint8
	w     bool // write toggle

	latch uint8 // PPU I/O latch, seen when reading write-only registers
	rdbuf uint8 // PPUDATA read buffer

	nmiOut      bool // NMI raised, not yet taken by the CPU
	suppressVBL bool // PPUSTATUS read just before vblank

	bg  bgPipeline
	spr spriteLine

	front, back *Frame
	frameDone   bool
}

func NewPPU(region hwdefs.Region) *PPU {
	p := &PPU{
		Bus:           hwio.NewTable("ppu"),
		region:        region,
		preRenderLine: region.PreRenderLine(),
		front:         new(Frame),
		back:          new(Frame),
	}
	return p
}

func (p *PPU) InitBus() {
	hwio.MustInitRegs(p)
	p.Bus.MapBank(0x0000, p, 0)
}

// SetMapper connects the cartridge to the PPU bus.
func (p *PPU) SetMapper(m mappers.Mapper) {
	p.mapper = m
}

// Reset puts the PPU in its power up (hard) or reset (soft) state. The
// position is set at the top of the frame.
func (p *PPU) Reset(soft bool) {
	p.PPUCTRL.Value = 0
	p.PPUMASK.Value = 0
	p.PPUSCROLL.Value = 0
	p.PPUDATA.Value = 0
	p.w = false
	p.rdbuf = 0
	p.t = 0
	p.finex = 0
	p.oddFrame = false
	p.nmiOut = false
	p.suppressVBL = false
	if !soft {
		p.PPUSTATUS.Value = 0
		p.OAMADDR.Value = 0
		p.v = 0
		p.latch = 0
		clear(p.vram[:])
		clear(p.palette[:])
		clear(p.oam[:])
		p.Frames = 0
	}
	p.bg = bgPipeline{}
	p.spr = spriteLine{}
	p.Scanline = 0
	p.Cycle = 0
	p.frameDone = false

	log.ModPPU.DebugZ("reset").Bool("soft", soft).Stringer("region", p.region).End()
}

// Tick runs the PPU for one dot.
func (p *PPU) Tick() {
	p.advance()

	switch line := p.Scanline; {
	case line < 240:
		p.renderDot(false)
	case line == vblankLine:
		if p.Cycle == 1 {
			p.startVBlank()
		}
	case line == p.preRenderLine:
		if p.Cycle == 1 {
			// Clear vblank, sprite0Hit and spriteOverflow
			p.PPUSTATUS.Value &^= statusVblank | statusSprite0 | statusOverflow
			p.suppressVBL = false
		}
		p.renderDot(true)
	}
}

func (p *PPU) advance() {
	p.Cycle++
	if p.Cycle == NumDots-1 && p.Scanline == p.preRenderLine &&
		p.oddFrame && p.region == hwdefs.NTSC && p.renderingEnabled() {
		// Odd frames are one dot shorter, the last dot of the pre-render
		// line is skipped.
		p.Cycle = NumDots
	}
	if p.Cycle < NumDots {
		return
	}

	p.Cycle = 0
	p.Scanline++
	switch {
	case p.Scanline == p.preRenderLine:
		p.endFrame()
	case p.Scanline > p.preRenderLine:
		p.Scanline = 0
		p.oddFrame = !p.oddFrame
	}
}

func (p *PPU) startVBlank() {
	if p.suppressVBL {
		log.ModPPU.DebugZ("vblank suppressed").Uint64("frame", p.Frames).End()
		p.suppressVBL = false
		return
	}
	p.PPUSTATUS.Value |= statusVblank
	if p.PPUCTRL.Value&ctrlNMI != 0 {
		p.nmiOut = true
	}
}

func (p *PPU) endFrame() {
	p.front, p.back = p.back, p.front
	p.frameDone = true
	p.Frames++
}

// TakeNMI reports whether the PPU raised an NMI since the last call.
func (p *PPU) TakeNMI() bool {
	nmi := p.nmiOut
	p.nmiOut = false
	return nmi
}

// FrameDone reports whether a frame completed since the last call.
func (p *PPU) FrameDone() bool {
	done := p.frameDone
	p.frameDone = false
	return done
}

// Frame returns the last completed frame. It's only valid until the next
// frame completes.
func (p *PPU) Frame() *Frame {
	return p.front
}

func (p *PPU) renderingEnabled() bool {
	return p.PPUMASK.Value&(maskShowBg|maskShowSprites) != 0
}

func (p *PPU) mirroring() ines.NTMirroring {
	if p.mapper == nil {
		return ines.HorzMirroring
	}
	return p.mapper.Mirroring()
}

/* PPU bus */

func (p *PPU) ReadCHR(addr uint16) uint8 {
	if p.mapper == nil {
		return 0
	}
	return p.mapper.ReadCHR(addr)
}

func (p *PPU) WriteCHR(addr uint16, val uint8) {
	if p.mapper == nil {
		return
	}
	p.mapper.WriteCHR(addr, val)
}

func (p *PPU) ReadNAMETABLES(addr uint16) uint8 {
	return p.vram[p.mirroring().VRAMOffset(addr)]
}

func (p *PPU) WriteNAMETABLES(addr uint16, val uint8) {
	p.vram[p.mirroring().VRAMOffset(addr)] = val
}

// paletteIndex maps a palette address to the palette RAM. The backdrop
// entries of the sprite palettes ($3F10/$3F14/$3F18/$3F1C) are mirrors of the
// background ones.
func paletteIndex(addr uint16) uint16 {
	i := addr & 0x1F
	if i&0x13 == 0x10 {
		i &^= 0x10
	}
	return i
}

func (p *PPU) ReadPALETTES(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) WritePALETTES(addr uint16, val uint8) {
	p.palette[paletteIndex(addr)] = val & 0x3F
}

/* introspection */

// OAM returns a copy of the primary OAM.
func (p *PPU) OAM() [256]uint8 { return p.oam }

// PaletteRAM returns a copy of the palette RAM.
func (p *PPU) PaletteRAM() [32]uint8 { return p.palette }

// VRAM returns the current VRAM address (v), the temporary address (t), the
// fine X scroll and the write toggle.
func (p *PPU) VRAM() (v, t uint16, finex uint8, w bool) {
	return uint16(p.v), uint16(p.t), p.finex, p.w
}
