package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
)

// Sequencer steps, in CPU cycles, for the 4-step and 5-step modes.
var stepCycles = [...][2][6]int32{
	hwdefs.NTSC: {
		{7457, 14913, 22371, 29828, 29829, 29830},
		{7457, 14913, 22371, 29829, 37281, 37282},
	},
	hwdefs.PAL: {
		{8313, 16627, 24939, 33252, 33253, 33254},
		{8313, 16627, 24939, 33253, 41565, 41566},
	},
}

var frameType = [2][6]FrameType{
	{QuarterFrame, HalfFrame, QuarterFrame, NoFrame, HalfFrame, NoFrame},
	{QuarterFrame, HalfFrame, QuarterFrame, NoFrame, HalfFrame, NoFrame},
}

type frameCounter struct {
	apu apu
	cpu cpu

	steps             *[2][6]int32
	prevCycle         int32
	curStep           uint32
	stepMode          uint32 // 0: 4-step mode, 1: 5-step mode
	inhibitIRQ        bool
	blockTick         uint8
	newval            int16
	writeDelayCounter int8
}

func (fc *frameCounter) init(apu apu, cpu cpu, region hwdefs.Region) {
	fc.apu = apu
	fc.cpu = cpu
	fc.steps = &stepCycles[region]
}

func (fc *frameCounter) reset(soft bool) {
	fc.prevCycle = 0

	// The mode in $4017 is unchanged by a soft reset.
	if !soft {
		fc.stepMode = 0
	}

	fc.curStep = 0

	// After reset or power-up, the APU acts as if $4017 were written with
	// $00 from 9 to 12 clocks before the first instruction begins.
	fc.newval = 0
	if fc.stepMode != 0 {
		fc.newval = 0x80
	}
	fc.writeDelayCounter = 3
	fc.inhibitIRQ = false

	fc.blockTick = 0
}

func (fc *frameCounter) write(val uint8) {
	log.ModSound.DebugZ("write frame counter").Uint8("val", val).End()
	fc.apu.Run()
	fc.newval = int16(val)

	if fc.cpu.CurrentCycle()&0x01 != 0 {
		// If the write occurs between APU cycles, the effects occur 4 CPU
		// cycles after the write cycle.
		fc.writeDelayCounter = 4
	} else {
		// If the write occurs during an APU cycle, the effects occur 3 CPU
		// cycles after the $4017 write cycle.
		fc.writeDelayCounter = 3
	}

	fc.inhibitIRQ = (val & 0x40) == 0x40
	if fc.inhibitIRQ {
		fc.cpu.ClearIRQSource(hwdefs.FrameCounter)
	}
}

// run runs the sequencer for at most *cyclesToRun cycles, stopping at the
// next step. It returns the number of cycles actually run.
func (fc *frameCounter) run(cyclesToRun *int32) uint32 {
	var cyclesRan int32

	step := fc.steps[fc.stepMode][fc.curStep]
	if fc.prevCycle+*cyclesToRun >= step {
		if !fc.inhibitIRQ && fc.stepMode == 0 && fc.curStep >= 3 {
			// IRQ is set on the last 3 cycles of the 4-step sequence.
			fc.cpu.SetIRQSource(hwdefs.FrameCounter)
		}

		ftyp := frameType[fc.stepMode][fc.curStep]
		if ftyp != NoFrame && fc.blockTick == 0 {
			fc.apu.FrameCounterTick(ftyp)

			// Writes to $4017 can't clock the frame counter on the next
			// cycle (this odd cycle and the following even one).
			fc.blockTick = 2
		}

		if step < fc.prevCycle {
			cyclesRan = 0
		} else {
			cyclesRan = step - fc.prevCycle
		}

		*cyclesToRun -= cyclesRan

		fc.curStep++
		if fc.curStep == 6 {
			fc.curStep = 0
			fc.prevCycle = 0
		} else {
			fc.prevCycle += cyclesRan
		}
	} else {
		cyclesRan = *cyclesToRun
		*cyclesToRun = 0
		fc.prevCycle += cyclesRan
	}

	if fc.newval >= 0 {
		fc.writeDelayCounter--
		if fc.writeDelayCounter == 0 {
			// Apply the new value once the delay has elapsed.
			fc.stepMode = 0
			if (fc.newval & 0x80) == 0x80 {
				fc.stepMode = 1
			}

			fc.writeDelayCounter = -1
			fc.curStep = 0
			fc.prevCycle = 0
			fc.newval = -1

			if fc.stepMode != 0 && fc.blockTick == 0 {
				// Writing $4017 with bit 7 set immediately clocks the
				// quarter and half frame units.
				fc.apu.FrameCounterTick(HalfFrame)
				fc.blockTick = 2
			}
		}
	}

	if fc.blockTick > 0 {
		fc.blockTick--
	}

	return uint32(cyclesRan)
}

// needToRun reports whether the frame counter must run now: a new value is
// pending, a tick is blocked, or the sequencer is about to reach its next
// step.
func (fc *frameCounter) needToRun(cyclesToRun uint32) bool {
	return fc.newval >= 0 ||
		fc.blockTick > 0 ||
		(fc.prevCycle+int32(cyclesToRun) >= fc.steps[fc.stepMode][fc.curStep]-1)
}
