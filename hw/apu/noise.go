package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// noiseChannel ($400C-$400F) outputs the envelope volume gated by bit 0 of
// a 15-bit linear feedback shift register.
type noiseChannel struct {
	voice
	apu *APU
	env envelope

	lfsr     uint16
	tapShort bool // short mode, 93-step sequences

	Vol    hwio.Reg8 `hwio:"offset=0x0C,wcb"`
	Unused hwio.Reg8 `hwio:"offset=0x0D,wcb"`
	Period hwio.Reg8 `hwio:"offset=0x0E,wcb"`
	Hi     hwio.Reg8 `hwio:"offset=0x0F,wcb"`
}

func newNoiseChannel(a *APU, m mixer) noiseChannel {
	return noiseChannel{
		voice: newVoice(a, m, Noise),
		apu:   a,
	}
}

// Timer periods, in CPU cycles, indexed by region.
var noisePeriods = [...][16]uint16{
	{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068},
	{4, 8, 14, 30, 60, 88, 118, 148, 188, 236, 354, 472, 708, 944, 1890, 3778},
}

// $400C: --LC VVVV
func (nc *noiseChannel) WriteVOL(_, val uint8) {
	nc.apu.Run()
	nc.length.setHalt(val&0x20 != 0)
	nc.env.write(val)

	log.ModSound.InfoZ("write noise volume").Uint8("reg", val).End()
}

func (nc *noiseChannel) WriteUNUSED(_, _ uint8) {
	nc.apu.Run()
}

// $400E: M--- PPPP
func (nc *noiseChannel) WritePERIOD(_, val uint8) {
	nc.apu.Run()
	nc.timer.period = noisePeriods[nc.apu.region][val&0x0F] - 1
	nc.tapShort = val&0x80 != 0

	log.ModSound.InfoZ("write noise period").
		Uint8("reg", val).
		Uint16("period", nc.timer.period).
		Bool("short", nc.tapShort).
		End()
}

// $400F: LLLL L---
func (nc *noiseChannel) WriteHI(_, val uint8) {
	nc.apu.Run()
	nc.length.load(val >> 3)
	nc.env.start = true

	log.ModSound.InfoZ("write noise length").Uint8("reg", val).End()
}

func (nc *noiseChannel) clockLFSR() {
	tap := 1
	if nc.tapShort {
		tap = 6
	}
	feedback := (nc.lfsr ^ nc.lfsr>>tap) & 1
	nc.lfsr = nc.lfsr>>1 | feedback<<14
}

func (nc *noiseChannel) run(cycle uint32) {
	for nc.timer.step(cycle) {
		nc.clockLFSR()

		var level uint8
		if nc.lfsr&1 == 0 && nc.active() {
			level = nc.env.volume()
		}
		nc.setOutput(int8(level))
	}
}

func (nc *noiseChannel) quarterFrame() { nc.env.tick(nc.length.halt) }
func (nc *noiseChannel) halfFrame()    { nc.tickLength() }

func (nc *noiseChannel) reset(soft bool) {
	nc.voice.reset(soft)
	nc.env = envelope{}
	nc.timer.period = noisePeriods[nc.apu.region][0] - 1
	nc.lfsr = 1
	nc.tapShort = false
}
