// Package apu implements the 2A03 audio processing unit: 2 pulse channels, a
// triangle channel, a noise channel and the frame counter.
//
// Channels are run lazily: the APU only catches up with the CPU when a
// register is accessed, when the frame counter is about to clock, or at the
// end of a frame.
package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
)

type APU struct {
	cpu    cpu
	mixer  *Mixer
	region hwdefs.Region

	Square1  squareChannel
	Square2  squareChannel
	Triangle triangleChannel
	Noise    noiseChannel

	// Same channels, indexed by Channel.
	chans        [hwdefs.NumAudioChannels]channel
	frameCounter frameCounter

	prevCycle uint32
	curCycle  uint32
	dirty     bool // a length counter has a pending change

	STATUS hwio.Reg8 `hwio:"offset=0x15,pcb,rcb,wcb"`
}

type channel interface {
	run(cycle uint32)
	reloadLength()
	quarterFrame()
	halfFrame()
	endFrame()
	setEnabled(bool)
	active() bool
	output() uint8
	reset(soft bool)
}

func New(cpu cpu, mixer *Mixer, region hwdefs.Region) *APU {
	a := &APU{
		cpu:    cpu,
		mixer:  mixer,
		region: region,
	}
	a.Square1 = newSquareChannel(a, mixer, Square1)
	a.Square2 = newSquareChannel(a, mixer, Square2)
	a.Triangle = newTriangleChannel(a, mixer)
	a.Noise = newNoiseChannel(a, mixer)
	a.chans = [...]channel{
		Square1:  &a.Square1,
		Square2:  &a.Square2,
		Triangle: &a.Triangle,
		Noise:    &a.Noise,
	}
	a.frameCounter.init(a, cpu, region)

	hwio.MustInitRegs(a)
	hwio.MustInitRegs(&a.Square1)
	hwio.MustInitRegs(&a.Square2)
	hwio.MustInitRegs(&a.Triangle)
	hwio.MustInitRegs(&a.Noise)
	return a
}

// InitBus maps $4000-$4015 on the CPU bus. $4017 is shared with the second
// controller port, its write side is WriteFrameCounter.
func (a *APU) InitBus(bus *hwio.Table) {
	bus.MapBank(0x4000, &a.Square1, 0)
	bus.MapBank(0x4004, &a.Square2, 0)
	bus.MapBank(0x4000, &a.Triangle, 0)
	bus.MapBank(0x4000, &a.Noise, 0)
	bus.MapBank(0x4000, a, 0)
}

// WriteFrameCounter handles writes to $4017.
func (a *APU) WriteFrameCounter(_, val uint8) {
	a.frameCounter.write(val)
}

// Status returns the value of $4015, without side effects.
//
//	-F-- NT21
func (a *APU) Status() uint8 {
	var status uint8
	for i, ch := range a.chans {
		if ch.active() {
			status |= 1 << i
		}
	}
	if a.cpu.HasIRQSource(hwdefs.FrameCounter) {
		status |= 0x40
	}
	return status
}

func (a *APU) PeekSTATUS(uint8) uint8 {
	return a.Status()
}

func (a *APU) ReadSTATUS(uint8) uint8 {
	a.Run()
	status := a.Status()

	// Reading $4015 acknowledges the frame interrupt.
	a.cpu.ClearIRQSource(hwdefs.FrameCounter)

	log.ModSound.InfoZ("read status").Uint8("status", status).End()
	return status
}

func (a *APU) WriteSTATUS(_, val uint8) {
	log.ModSound.InfoZ("write status").Uint8("val", val).End()

	a.Run()
	for i, ch := range a.chans {
		ch.setEnabled(val&(1<<i) != 0)
	}
}

// Outputs returns the current DAC value of each channel.
func (a *APU) Outputs() [hwdefs.NumAudioChannels]uint8 {
	var out [hwdefs.NumAudioChannels]uint8
	for i, ch := range a.chans {
		out[i] = ch.output()
	}
	return out
}

// FrameCounterTick clocks the envelopes and the linear counter, and on half
// frames the length counters and sweep units.
func (a *APU) FrameCounterTick(ftyp FrameType) {
	for _, ch := range a.chans {
		ch.quarterFrame()
		if ftyp == HalfFrame {
			ch.halfFrame()
		}
	}
}

func (a *APU) Reset(soft bool) {
	a.curCycle = 0
	a.prevCycle = 0

	for _, ch := range a.chans {
		ch.reset(soft)
	}
	a.frameCounter.reset(soft)
	a.mixer.Reset()
}

// Tick advances the APU by one CPU cycle.
func (a *APU) Tick() {
	a.curCycle++
	switch {
	case a.curCycle == cycleLength-1:
		a.EndFrame()
	case a.dirty:
		a.dirty = false
		a.Run()
	case a.frameCounter.needToRun(a.curCycle - a.prevCycle):
		a.Run()
	}
}

// EndFrame runs the channels up to the current cycle and flushes the
// mixer.
func (a *APU) EndFrame() {
	a.Run()
	for _, ch := range a.chans {
		ch.endFrame()
	}
	a.mixer.endFrame(a.curCycle, a.cpu.CurrentCycle())

	a.curCycle = 0
	a.prevCycle = 0
}

// Run catches up with the CPU: the frame counter and all channels are run
// up to the current cycle.
func (a *APU) Run() {
	pending := int32(a.curCycle - a.prevCycle)

	for pending > 0 {
		a.prevCycle += a.frameCounter.run(&pending)

		// Length counter loads are applied after the frame counter ran,
		// so that a counter clocked on the same cycle ignores the load.
		for _, ch := range a.chans {
			ch.reloadLength()
		}
		for _, ch := range a.chans {
			ch.run(a.prevCycle)
		}
	}
}

// SetNeedToRun forces the APU to run on the next cycle.
func (a *APU) SetNeedToRun() { a.dirty = true }
