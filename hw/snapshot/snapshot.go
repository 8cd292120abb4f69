// Package snapshot describes the observable state of a console, as exported
// to debugging tools. Snapshots are encoded as JSON.
package snapshot

type Console struct {
	Region string
	Mapper string
	Frames uint64

	CPU CPU
	PPU PPU
	APU APU
	RAM [0x800]uint8
}

type CPU struct {
	PC     uint16
	A      uint8
	X      uint8
	Y      uint8
	SP     uint8
	P      uint8
	Cycles int64
	Halted bool
}

type PPU struct {
	Scanline int
	Cycle    int

	PPUCTRL   uint8
	PPUMASK   uint8
	PPUSTATUS uint8
	OAMADDR   uint8

	V     uint16
	T     uint16
	FineX uint8
	W     bool

	OAM     [0x100]uint8
	Palette [0x20]uint8
}

type APU struct {
	Status  uint8
	Outputs [4]uint8 // Square1, Square2, Triangle, Noise
}
