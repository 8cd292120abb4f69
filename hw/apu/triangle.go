package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// triangleChannel ($4008-$400B) has no volume control: its 32-step sequencer
// is gated by both the length counter and the linear counter.
type triangleChannel struct {
	voice
	apu    *APU
	linear linearCounter

	step uint8 // 0-31

	Linear hwio.Reg8 `hwio:"offset=0x08,wcb"`
	Unused hwio.Reg8 `hwio:"offset=0x09,wcb"`
	Lo     hwio.Reg8 `hwio:"offset=0x0A,wcb"`
	Hi     hwio.Reg8 `hwio:"offset=0x0B,wcb"`
}

func newTriangleChannel(a *APU, m mixer) triangleChannel {
	return triangleChannel{
		voice: newVoice(a, m, Triangle),
		apu:   a,
	}
}

// triangleLevel returns the output at sequencer step: 15 down to 0, then 0 up
// to 15.
func triangleLevel(step uint8) int8 {
	if step < 16 {
		return int8(15 - step)
	}
	return int8(step - 16)
}

// $4008: CRRR RRRR
func (tc *triangleChannel) WriteLINEAR(_, val uint8) {
	tc.apu.Run()
	tc.linear.control = val&0x80 != 0
	tc.linear.reloadVal = val & 0x7F
	tc.length.setHalt(tc.linear.control)

	log.ModSound.InfoZ("write triangle linear").
		Uint8("reg", val).
		Bool("ctrl", tc.linear.control).
		Uint8("reload", tc.linear.reloadVal).
		End()
}

func (tc *triangleChannel) WriteUNUSED(_, _ uint8) {
	tc.apu.Run()
}

// $400A: timer low bits.
func (tc *triangleChannel) WriteLO(_, val uint8) {
	tc.apu.Run()
	tc.timer.period = tc.timer.period&0x700 | uint16(val)

	log.ModSound.InfoZ("write triangle timer").
		Uint8("reg", val).
		Uint16("period", tc.timer.period).
		End()
}

// $400B: LLLL LHHH
func (tc *triangleChannel) WriteHI(_, val uint8) {
	tc.apu.Run()
	tc.length.load(val >> 3)
	tc.timer.period = tc.timer.period&0xFF | uint16(val&0x07)<<8
	tc.linear.reload = true

	log.ModSound.InfoZ("write triangle length").
		Uint8("reg", val).
		Uint16("period", tc.timer.period).
		End()
}

func (tc *triangleChannel) run(cycle uint32) {
	for tc.timer.step(cycle) {
		if !tc.active() || tc.linear.counter == 0 {
			continue
		}
		tc.step = (tc.step + 1) & 0x1F
		// Ultrasonic periods are not output, the real hardware produces
		// an inaudible frequency but it pops when the channel stops.
		if tc.timer.period >= 2 {
			tc.setOutput(triangleLevel(tc.step))
		}
	}
}

func (tc *triangleChannel) quarterFrame() { tc.linear.tick() }
func (tc *triangleChannel) halfFrame()    { tc.tickLength() }

func (tc *triangleChannel) reset(soft bool) {
	tc.voice.reset(soft)
	tc.linear = linearCounter{}
	tc.step = 0
}

// linearCounter is a finer grained duration counter, clocked on quarter
// frames.
type linearCounter struct {
	control   bool
	reloadVal uint8
	reload    bool
	counter   uint8
}

func (lc *linearCounter) tick() {
	if lc.reload {
		lc.counter = lc.reloadVal
	} else if lc.counter > 0 {
		lc.counter--
	}
	if !lc.control {
		lc.reload = false
	}
}
