package hwdefs

import (
	"fmt"
	"strings"
)

type IRQSource uint8

const (
	External     IRQSource = 1 << iota // driven by the host
	FrameCounter                       // APU frame counter
	Cartridge                          // mapper IRQ line

	numSources = 3
)

var irqSrcNames = [numSources]string{
	"ext",
	"fcnt",
	"cart",
}

func (irq IRQSource) String() string {
	var names []string
	for i := range numSources {
		if irq&(1<<i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}

const (
	SoftReset = true
	HardReset = false
)

const NumAudioChannels = 4 // Square1, Square2, Triangle, Noise

// Frame dimensions, in pixels.
const (
	ScreenWidth  = 256
	ScreenHeight = 240
)

//go:generate go tool stringer -type=Region

// Region is the console timing variant.
type Region uint8

const (
	NTSC Region = iota
	PAL
)

// Master clock dividers. The master clock runs at 21.477272 MHz on NTSC and
// 26.601712 MHz on PAL.
var (
	cpuDividers = [...]int64{NTSC: 12, PAL: 16}
	ppuDividers = [...]int64{NTSC: 4, PAL: 5}
	scanlines   = [...]int{NTSC: 262, PAL: 312}
	clockRates  = [...]float64{NTSC: 1789773, PAL: 1662607}
)

// CPUDivider returns the number of master clock ticks per CPU cycle.
func (r Region) CPUDivider() int64 { return cpuDividers[r] }

// PPUDivider returns the number of master clock ticks per PPU dot.
func (r Region) PPUDivider() int64 { return ppuDividers[r] }

// Scanlines returns the number of scanlines per frame, pre-render included.
func (r Region) Scanlines() int { return scanlines[r] }

// PreRenderLine returns the index of the pre-render scanline (the last one).
func (r Region) PreRenderLine() int { return scanlines[r] - 1 }

// CPUClockRate is the CPU frequency in Hz.
func (r Region) CPUClockRate() float64 { return clockRates[r] }

// UnmarshalText implements encoding.TextUnmarshaler (used by the config file
// and the command line).
func (r *Region) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "ntsc", "":
		*r = NTSC
	case "pal":
		*r = PAL
	default:
		return fmt.Errorf("unknown region %q", text)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (r Region) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(r.String())), nil
}
