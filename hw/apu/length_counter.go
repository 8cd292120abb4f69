package apu

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// lengthCounter silences a channel once it reaches 0. Writes to the channel
// registers are applied on the next APU run (see reload), after the frame
// counter had a chance to clock the counter during the same cycle.
type lengthCounter struct {
	apu      apu
	triangle bool

	enabled  bool
	counter  uint8
	halt     bool
	nextHalt bool

	pending uint8 // value to load, 0 if none
	before  uint8 // counter value when the load was requested
}

// setHalt requests a change of the halt flag, which doubles as the envelope
// loop flag (or the linear counter control flag for the triangle).
func (lc *lengthCounter) setHalt(halt bool) {
	lc.apu.SetNeedToRun()
	lc.nextHalt = halt
}

// load requests the counter to be loaded with the table entry idx. It's
// ignored if the channel is disabled.
func (lc *lengthCounter) load(idx uint8) {
	if !lc.enabled {
		return
	}
	lc.pending = lengthTable[idx&0x1F]
	lc.before = lc.counter
	lc.apu.SetNeedToRun()
}

func (lc *lengthCounter) reload() {
	if lc.pending != 0 {
		// A load racing with a clock of the counter is ignored.
		if lc.counter == lc.before {
			lc.counter = lc.pending
		}
		lc.pending = 0
	}
	lc.halt = lc.nextHalt
}

func (lc *lengthCounter) tick() {
	if !lc.halt && lc.counter > 0 {
		lc.counter--
	}
}

func (lc *lengthCounter) setEnabled(on bool) {
	lc.enabled = on
	if !on {
		lc.counter = 0
	}
}

func (lc *lengthCounter) reset(soft bool) {
	lc.enabled = false
	// The triangle length counter survives a soft reset.
	if soft && lc.triangle {
		return
	}
	lc.counter = 0
	lc.halt, lc.nextHalt = false, false
	lc.pending, lc.before = 0, 0
}
