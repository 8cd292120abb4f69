package apu

// voice is the part common to all channels: a length counter gating the
// channel and a timer that clocks its waveform generator.
type voice struct {
	length lengthCounter
	timer  timer
}

func newVoice(a *APU, m mixer, ch Channel) voice {
	return voice{
		length: lengthCounter{apu: a, triangle: ch == Triangle},
		timer:  timer{ch: ch, mixer: m},
	}
}

func (v *voice) reset(soft bool) {
	v.length.reset(soft)
	v.timer = timer{ch: v.timer.ch, mixer: v.timer.mixer}
}

func (v *voice) tickLength()          { v.length.tick() }
func (v *voice) reloadLength()        { v.length.reload() }
func (v *voice) endFrame()            { v.timer.prevCycle = 0 }
func (v *voice) setEnabled(on bool)   { v.length.setEnabled(on) }
func (v *voice) active() bool         { return v.length.counter > 0 }
func (v *voice) output() uint8        { return uint8(v.timer.out) }
func (v *voice) setOutput(level int8) { v.timer.setOutput(level) }

// timer divides the CPU clock for a channel and timestamps the channel
// output changes for the mixer.
type timer struct {
	ch    Channel
	mixer mixer

	prevCycle uint32
	counter   uint16
	period    uint16
	out       int8
}

func (t *timer) setOutput(level int8) {
	if level == t.out {
		return
	}
	t.mixer.addDelta(t.ch, t.prevCycle, int16(level-t.out))
	t.out = level
}

// step runs the timer toward cycle. It stops and returns true each time the
// counter expires, in which case the caller clocks its sequencer and calls
// step again.
func (t *timer) step(cycle uint32) bool {
	elapsed := uint16(cycle - t.prevCycle)
	if elapsed <= t.counter {
		t.counter -= elapsed
		t.prevCycle = cycle
		return false
	}
	t.prevCycle += uint32(t.counter) + 1
	t.counter = t.period
	return true
}
