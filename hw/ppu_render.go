package hw

import (
	"math/bits"
)

// bgPipeline holds the background tile fetches and shift registers.
type bgPipeline struct {
	// latches filled by the memory fetches
	nt    uint8
	at    uint8 // 2-bit palette number
	patLo uint8
	patHi uint8

	// shift registers, the high byte holds the tile being drawn.
	shiftLo   uint16
	shiftHi   uint16
	shiftAtLo uint16
	shiftAtHi uint16
}

func (bg *bgPipeline) load() {
	bg.shiftLo = bg.shiftLo&0xFF00 | uint16(bg.patLo)
	bg.shiftHi = bg.shiftHi&0xFF00 | uint16(bg.patHi)

	var lo, hi uint16
	if bg.at&1 != 0 {
		lo = 0xFF
	}
	if bg.at&2 != 0 {
		hi = 0xFF
	}
	bg.shiftAtLo = bg.shiftAtLo&0xFF00 | lo
	bg.shiftAtHi = bg.shiftAtHi&0xFF00 | hi
}

func (bg *bgPipeline) shift() {
	bg.shiftLo <<= 1
	bg.shiftHi <<= 1
	bg.shiftAtLo <<= 1
	bg.shiftAtHi <<= 1
}

// pixel returns the background pixel and palette number, at fine X.
func (bg *bgPipeline) pixel(finex uint8) (pix, pal uint8) {
	mux := uint16(0x8000) >> finex
	if bg.shiftLo&mux != 0 {
		pix |= 1
	}
	if bg.shiftHi&mux != 0 {
		pix |= 2
	}
	if bg.shiftAtLo&mux != 0 {
		pal |= 1
	}
	if bg.shiftAtHi&mux != 0 {
		pal |= 2
	}
	return pix, pal
}

// sprite is one of the 8 sprite output units.
type sprite struct {
	x      uint8
	attr   uint8
	lo, hi uint8 // pattern, already flipped horizontally if needed
}

// spriteLine holds the sprites to draw on the current scanline.
type spriteLine struct {
	secondary [32]uint8 // secondary OAM
	idx       [8]uint8  // index in OAM of the sprites in secondary OAM
	count     int
	units     [8]sprite
	zero      bool // units[0] is sprite 0
}

// renderDot runs a dot of a visible (or the pre-render) scanline.
func (p *PPU) renderDot(prerender bool) {
	dot := p.Cycle

	if !p.renderingEnabled() {
		if !prerender && dot >= 1 && dot <= 256 {
			p.backdrop(dot - 1)
		}
		return
	}

	// Background fetches.
	switch {
	case (dot >= 2 && dot <= 257) || (dot >= 321 && dot <= 337):
		if p.PPUMASK.Value&maskShowBg != 0 {
			p.bg.shift()
		}
		p.fetchBackground(dot)
	case dot == 338 || dot == 340:
		// Unused nametable fetches
		p.bg.nt = p.Bus.Read8(0x2000 | uint16(p.v)&0x0FFF)
	}

	switch {
	case dot == 256:
		p.incY()
	case dot == 257:
		p.copyX()
	case prerender && dot >= 280 && dot <= 304:
		p.copyY()
	}

	if !prerender && dot >= 1 && dot <= 256 {
		p.renderPixel(dot - 1)
	}

	if dot >= 257 && dot <= 320 {
		p.OAMADDR.Value = 0
	}
	switch dot {
	case 257:
		if prerender {
			p.spr.count = 0
			p.spr.zero = false
		} else {
			p.evaluateSprites()
			p.fetchSprites()
		}
	case 260:
		if p.mapper != nil {
			p.mapper.Scanline()
		}
	}
}

// fetchBackground performs the 8-dot fetch cycle of a background tile:
// nametable byte, attribute byte, pattern low, pattern high.
func (p *PPU) fetchBackground(dot int) {
	switch (dot - 1) % 8 {
	case 0:
		p.bg.load()
		p.bg.nt = p.Bus.Read8(0x2000 | uint16(p.v)&0x0FFF)
	case 2:
		v := uint16(p.v)
		at := p.Bus.Read8(0x23C0 | v&0x0C00 | (v>>4)&0x38 | (v>>2)&0x07)
		if p.v.coarseY()&2 != 0 {
			at >>= 4
		}
		if p.v.coarseX()&2 != 0 {
			at >>= 2
		}
		p.bg.at = at & 3
	case 4:
		p.bg.patLo = p.Bus.Read8(p.bgPatternAddr())
	case 6:
		p.bg.patHi = p.Bus.Read8(p.bgPatternAddr() + 8)
	case 7:
		p.incX()
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	var table uint16
	if p.PPUCTRL.Value&ctrlBgTable != 0 {
		table = 0x1000
	}
	return table | uint16(p.bg.nt)<<4 | p.v.fineY()
}

func (p *PPU) spriteHeight() int {
	if p.PPUCTRL.Value&ctrlSprite16 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites fills secondary OAM with the (up to) 8 first sprites in
// range of the next scanline, and sets the sprite overflow flag.
func (p *PPU) evaluateSprites() {
	line := p.Scanline
	h := p.spriteHeight()
	inRange := func(y uint8) bool {
		row := line - int(y)
		return row >= 0 && row < h
	}

	spr := &p.spr
	for i := range spr.secondary {
		spr.secondary[i] = 0xFF
	}
	spr.count = 0
	spr.zero = false

	n := 0
	for ; n < 64 && spr.count < 8; n++ {
		if !inRange(p.oam[n*4]) {
			continue
		}
		copy(spr.secondary[spr.count*4:], p.oam[n*4:n*4+4])
		spr.idx[spr.count] = uint8(n)
		if n == 0 {
			spr.zero = true
		}
		spr.count++
	}

	// Once 8 sprites have been found, the PPU keeps looking for more to set
	// the overflow flag. Hardware bug: for each sprite not in range, both the
	// sprite index (n) and the byte index (m) are incremented, so the next
	// 'y' checked is in fact a tile number, attribute or x coordinate. This
	// causes false positives and false negatives.
	m := 0
	for ; n < 64; n++ {
		if inRange(p.oam[n*4+m]) {
			p.PPUSTATUS.Value |= statusOverflow
			break
		}
		m = (m + 1) & 3
	}
}

// fetchSprites loads the sprite output units with the pattern data of the
// sprites found in secondary OAM.
func (p *PPU) fetchSprites() {
	h := p.spriteHeight()
	spr := &p.spr
	for i := range spr.count {
		y, tile, attr, x := spr.secondary[i*4], spr.secondary[i*4+1], spr.secondary[i*4+2], spr.secondary[i*4+3]

		row := uint16(p.Scanline - int(y))
		if attr&0x80 != 0 { // vertical flip
			row = uint16(h-1) - row
		}

		var addr uint16
		if h == 16 {
			// 8x16 sprites take their pattern table from the tile number.
			table := uint16(tile&1) << 12
			tile &^= 1
			if row >= 8 {
				tile++
				row -= 8
			}
			addr = table | uint16(tile)<<4 | row
		} else {
			var table uint16
			if p.PPUCTRL.Value&ctrlSpriteTable != 0 {
				table = 0x1000
			}
			addr = table | uint16(tile)<<4 | row
		}

		lo := p.Bus.Read8(addr)
		hi := p.Bus.Read8(addr + 8)
		if attr&0x40 != 0 { // horizontal flip
			lo = bits.Reverse8(lo)
			hi = bits.Reverse8(hi)
		}
		spr.units[i] = sprite{x: x, attr: attr, lo: lo, hi: hi}
	}
}

// spritePixel returns the first opaque sprite pixel at x, its palette, its
// priority (behind background if true) and whether it's sprite 0.
func (p *PPU) spritePixel(x int) (pix, pal uint8, behind, zero bool) {
	for i := range p.spr.count {
		s := &p.spr.units[i]
		dx := x - int(s.x)
		if dx < 0 || dx > 7 {
			continue
		}
		shift := 7 - dx
		pix = (s.hi>>shift&1)<<1 | s.lo>>shift&1
		if pix == 0 {
			continue
		}
		return pix, s.attr & 3, s.attr&0x20 != 0, i == 0 && p.spr.zero
	}
	return 0, 0, false, false
}

// renderPixel computes the pixel at column x of the current scanline.
func (p *PPU) renderPixel(x int) {
	mask := p.PPUMASK.Value

	var bgPix, bgPal uint8
	if mask&maskShowBg != 0 && (x >= 8 || mask&maskLeftBg != 0) {
		bgPix, bgPal = p.bg.pixel(p.finex)
	}

	var (
		spPix, spPal uint8
		behind, zero bool
	)
	if mask&maskShowSprites != 0 && (x >= 8 || mask&maskLeftSprites != 0) {
		spPix, spPal, behind, zero = p.spritePixel(x)
	}

	var addr uint16
	switch {
	case bgPix == 0 && spPix == 0:
		addr = 0
	case bgPix == 0:
		addr = 0x10 | uint16(spPal)<<2 | uint16(spPix)
	case spPix == 0:
		addr = uint16(bgPal)<<2 | uint16(bgPix)
	default:
		// Sprite 0 hit never happens at x=255.
		if zero && x != 255 {
			p.PPUSTATUS.Value |= statusSprite0
		}
		if behind {
			addr = uint16(bgPal)<<2 | uint16(bgPix)
		} else {
			addr = 0x10 | uint16(spPal)<<2 | uint16(spPix)
		}
	}

	p.output(x, p.palette[paletteIndex(addr)])
}

// backdrop outputs the pixel at x when rendering is disabled: the backdrop
// color, unless v points to the palette, in which case that color is shown.
func (p *PPU) backdrop(x int) {
	var idx uint16
	if addr := p.v.addr(); addr >= 0x3F00 {
		idx = paletteIndex(addr)
	}
	p.output(x, p.palette[idx])
}

func (p *PPU) output(x int, color uint8) {
	if p.PPUMASK.Value&maskGreyscale != 0 {
		color &= 0x30
	}
	p.back.Pix[p.Scanline*256+x] = color
}
