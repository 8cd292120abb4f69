package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// squareChannel is one of the two pulse channels ($4000-$4003 and
// $4004-$4007).
//
//	 Sweep -----> Timer / 2 -----> Sequencer      Length counter
//	                                   |                |
//	                                   v                v
//	Envelope ----------------------> Gate ---------> Gate --------> mixer
type squareChannel struct {
	voice
	apu   *APU
	env   envelope
	sweep sweep

	duty uint8 // 0-3
	step uint8 // sequencer position, counts down
	raw  uint16

	Vol   hwio.Reg8 `hwio:"offset=0x00,wcb"`
	Sweep hwio.Reg8 `hwio:"offset=0x01,wcb"`
	Lo    hwio.Reg8 `hwio:"offset=0x02,wcb"`
	Hi    hwio.Reg8 `hwio:"offset=0x03,wcb"`
}

func newSquareChannel(a *APU, m mixer, ch Channel) squareChannel {
	return squareChannel{
		voice: newVoice(a, m, ch),
		apu:   a,
		// Pulse 1 negates with one's complement, pulse 2 with two's.
		sweep: sweep{onesComplement: ch == Square1},
	}
}

// Waveforms, bit n is the output at sequencer step n.
var dutyWaveforms = [4]uint8{
	0b1000_0000, // 12.5%
	0b1100_0000, // 25%
	0b1111_0000, // 50%
	0b0011_1111, // 25% negated
}

// $4000: DDLC VVVV
func (sc *squareChannel) WriteVOL(_, val uint8) {
	sc.apu.Run()
	sc.duty = val >> 6
	sc.length.setHalt(val&0x20 != 0)
	sc.env.write(val)

	log.ModSound.InfoZ("write pulse volume").
		Uint8("reg", val).
		Uint8("duty", sc.duty).
		End()
}

// $4001: EPPP NSSS
func (sc *squareChannel) WriteSWEEP(_, val uint8) {
	sc.apu.Run()
	sc.sweep.write(val)
	sc.sweep.update(sc.raw)

	log.ModSound.InfoZ("write pulse sweep").Uint8("reg", val).End()
}

// $4002: timer low bits.
func (sc *squareChannel) WriteLO(_, val uint8) {
	sc.apu.Run()
	sc.setPeriod(sc.raw&0x700 | uint16(val))

	log.ModSound.InfoZ("write pulse timer").
		Uint8("reg", val).
		Uint16("period", sc.raw).
		End()
}

// $4003: LLLL LHHH
func (sc *squareChannel) WriteHI(_, val uint8) {
	sc.apu.Run()
	sc.length.load(val >> 3)
	sc.setPeriod(sc.raw&0xFF | uint16(val&0x07)<<8)

	// Restart the sequencer and the envelope.
	sc.step = 0
	sc.env.start = true

	log.ModSound.InfoZ("write pulse length").
		Uint8("reg", val).
		Uint16("period", sc.raw).
		End()
}

func (sc *squareChannel) setPeriod(raw uint16) {
	sc.raw = raw
	// The pulse timer is clocked every other CPU cycle.
	sc.timer.period = raw*2 + 1
	sc.sweep.update(raw)
}

// muted reports whether the period is out of range, either because it's
// too small or because the sweep unit would push it past $7FF.
func (sc *squareChannel) muted() bool {
	return sc.raw < 8 || (!sc.sweep.negate && sc.sweep.target > 0x7FF)
}

func (sc *squareChannel) run(cycle uint32) {
	for sc.timer.step(cycle) {
		sc.step = (sc.step - 1) & 7

		var level uint8
		if !sc.muted() && sc.active() {
			level = (dutyWaveforms[sc.duty] >> sc.step & 1) * sc.env.volume()
		}
		sc.setOutput(int8(level))
	}
}

func (sc *squareChannel) quarterFrame() {
	sc.env.tick(sc.length.halt)
}

func (sc *squareChannel) halfFrame() {
	sc.tickLength()
	if sc.sweep.tick() && sc.raw >= 8 && sc.sweep.target <= 0x7FF {
		sc.setPeriod(uint16(sc.sweep.target))
	}
}

func (sc *squareChannel) reset(soft bool) {
	sc.voice.reset(soft)
	sc.env = envelope{}
	sc.sweep = sweep{onesComplement: sc.sweep.onesComplement}
	sc.duty, sc.step, sc.raw = 0, 0, 0
	sc.sweep.update(0)
}

// sweep periodically adjusts the period of a pulse channel.
type sweep struct {
	onesComplement bool

	enabled bool
	negate  bool
	period  uint8 // divider period, P+1
	shift   uint8
	reload  bool
	divider uint8
	target  uint32
}

func (s *sweep) write(val uint8) {
	s.enabled = val&0x80 != 0
	s.period = (val>>4)&0x07 + 1
	s.negate = val&0x08 != 0
	s.shift = val & 0x07
	s.reload = true
}

// update recomputes the target period from the current raw period.
func (s *sweep) update(raw uint16) {
	delta := raw >> s.shift
	switch {
	case !s.negate:
		s.target = uint32(raw + delta)
	case s.onesComplement:
		s.target = uint32(raw - delta - 1)
	default:
		s.target = uint32(raw - delta)
	}
}

// tick clocks the divider on a half frame and reports whether the channel
// period must be set to the target.
func (s *sweep) tick() bool {
	s.divider--
	adjust := s.divider == 0 && s.enabled && s.shift > 0
	if s.divider == 0 {
		s.divider = s.period
	}
	if s.reload {
		s.divider = s.period
		s.reload = false
	}
	return adjust
}
