package apu

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/hw/hwdefs"
)

type testCPU struct {
	cycle int64
	irq   hwdefs.IRQSource
}

func (c *testCPU) CurrentCycle() int64                    { return c.cycle }
func (c *testCPU) SetIRQSource(src hwdefs.IRQSource)      { c.irq |= src }
func (c *testCPU) ClearIRQSource(src hwdefs.IRQSource)    { c.irq &^= src }
func (c *testCPU) HasIRQSource(src hwdefs.IRQSource) bool { return c.irq&src != 0 }

func newTestAPU(t *testing.T) (*APU, *testCPU) {
	t.Helper()
	cpu := &testCPU{}
	a := New(cpu, NewMixer(hwdefs.NTSC, DefaultSampleRate, nil), hwdefs.NTSC)
	a.Reset(false)
	return a, cpu
}

func (c *testCPU) tick(a *APU, n int) {
	for range n {
		c.cycle++
		a.Tick()
	}
}

func TestEnvelope(t *testing.T) {
	var env envelope
	env.write(0x00) // decay, divider period 0
	env.start = true

	var got []uint8
	for range 17 {
		env.tick(false)
		got = append(got, env.volume())
	}
	want := []uint8{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decay mismatch (-want +got):\n%s", diff)
	}

	env.tick(true)
	if env.volume() != 15 {
		t.Errorf("looping envelope volume = %d, want 15", env.volume())
	}

	env.write(0x17) // constant volume 7
	if env.volume() != 7 {
		t.Errorf("constant volume = %d, want 7", env.volume())
	}
}

func TestSweepTarget(t *testing.T) {
	tcs := []struct {
		name  string
		ones  bool
		reg   uint8
		raw   uint16
		want  uint32
		muted bool
	}{
		{"add", false, 0x81, 0x100, 0x180, false},
		{"negate square1", true, 0x89, 0x100, 0x07F, false},
		{"negate square2", false, 0x89, 0x100, 0x080, false},
		{"overflow mutes", false, 0x81, 0x600, 0x900, true},
		{"disabled sweep still mutes", false, 0x01, 0x600, 0x900, true},
	}
	for _, tt := range tcs {
		t.Run(tt.name, func(t *testing.T) {
			sc := squareChannel{sweep: sweep{onesComplement: tt.ones}}
			sc.sweep.write(tt.reg)
			sc.setPeriod(tt.raw)
			if sc.sweep.target != tt.want {
				t.Errorf("target = $%03X, want $%03X", sc.sweep.target, tt.want)
			}
			if sc.muted() != tt.muted {
				t.Errorf("muted() = %t, want %t", sc.muted(), tt.muted)
			}
		})
	}
}

func TestSquareMutedPeriods(t *testing.T) {
	var sc squareChannel
	sc.setPeriod(7)
	if !sc.muted() {
		t.Error("period 7 should mute the channel")
	}
	sc.setPeriod(8)
	if sc.muted() {
		t.Error("period 8 should not mute the channel")
	}
}

func TestLengthCounter(t *testing.T) {
	a, _ := newTestAPU(t)
	lc := &a.Square1.length

	lc.load(1)
	lc.reload()
	if lc.counter != 0 {
		t.Fatalf("disabled channel loaded counter %d", lc.counter)
	}

	lc.setEnabled(true)
	lc.load(1)
	lc.reload()
	if lc.counter != 254 {
		t.Fatalf("counter = %d, want 254", lc.counter)
	}

	lc.tick()
	if lc.counter != 253 {
		t.Errorf("counter = %d after tick, want 253", lc.counter)
	}

	lc.setHalt(true)
	lc.reload()
	lc.tick()
	if lc.counter != 253 {
		t.Errorf("halted counter = %d, want 253", lc.counter)
	}

	// A load requested right before a clock of the counter is ignored.
	lc.setHalt(false)
	lc.reload()
	lc.load(3) // 2
	lc.tick()
	lc.reload()
	if lc.counter != 252 {
		t.Errorf("counter = %d after racing load, want 252", lc.counter)
	}

	lc.setEnabled(false)
	if lc.counter != 0 {
		t.Errorf("counter = %d after disabling, want 0", lc.counter)
	}
}

func TestTriangleLengthSurvivesSoftReset(t *testing.T) {
	a, _ := newTestAPU(t)
	a.WriteSTATUS(0, 0x0F)
	a.Square1.WriteHI(0, 0x08)
	a.Triangle.WriteHI(0, 0x08)
	a.Run()
	a.Square1.reloadLength()
	a.Triangle.reloadLength()

	a.Reset(true)
	if a.Square1.length.counter != 0 {
		t.Errorf("pulse length counter = %d, want 0", a.Square1.length.counter)
	}
	if a.Triangle.length.counter != 254 {
		t.Errorf("triangle length counter = %d, want 254", a.Triangle.length.counter)
	}
}

func TestTriangleLevels(t *testing.T) {
	var got []int8
	for step := range uint8(32) {
		got = append(got, triangleLevel(step))
	}
	want := []int8{
		15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}
}

func TestNoiseLFSRPeriod(t *testing.T) {
	nc := noiseChannel{lfsr: 1}
	for i := 1; i <= 1<<15; i++ {
		nc.clockLFSR()
		if nc.lfsr == 1 {
			if i != 32767 {
				t.Fatalf("long mode period = %d, want 32767", i)
			}
			return
		}
	}
	t.Fatal("LFSR never returned to its seed")
}

func TestFrameIRQ(t *testing.T) {
	a, cpu := newTestAPU(t)

	cpu.tick(a, 29000)
	if cpu.irq != 0 {
		t.Fatalf("frame IRQ raised too early")
	}
	cpu.tick(a, 1000)
	if cpu.irq&hwdefs.FrameCounter == 0 {
		t.Fatalf("frame IRQ not raised at the end of the 4-step sequence")
	}

	if st := a.ReadSTATUS(0); st&0x40 == 0 {
		t.Errorf("$4015 = %02X, want frame interrupt flag", st)
	}
	if cpu.irq != 0 {
		t.Errorf("reading $4015 didn't acknowledge the IRQ")
	}
	if st := a.PeekSTATUS(0); st&0x40 != 0 {
		t.Errorf("$4015 = %02X after acknowledge", st)
	}
}

func TestFrameIRQInhibit(t *testing.T) {
	for _, val := range []uint8{0x40, 0x80} {
		a, cpu := newTestAPU(t)
		a.WriteFrameCounter(0, val)
		cpu.tick(a, 40000)
		if cpu.irq != 0 {
			t.Errorf("$4017=%02X: frame IRQ raised", val)
		}
	}
}

func TestStatusAndLengthClock(t *testing.T) {
	a, cpu := newTestAPU(t)

	a.WriteSTATUS(0, 0x0F)
	a.Square1.WriteHI(0, 0x08)  // 254
	a.Square2.WriteVOL(0, 0x20) // halt
	a.Square2.WriteHI(0, 0x08)
	a.Noise.WriteHI(0, 0x18) // 2
	cpu.tick(a, 1)

	if st := a.PeekSTATUS(0); st != 0x0B {
		t.Fatalf("$4015 = %02X, want 0B", st)
	}

	// Two half frames per 4-step sequence.
	cpu.tick(a, 29900)
	a.Run()
	if got := a.Square1.length.counter; got != 252 {
		t.Errorf("pulse 1 length = %d, want 252", got)
	}
	if got := a.Square2.length.counter; got != 254 {
		t.Errorf("halted pulse 2 length = %d, want 254", got)
	}
	if st := a.PeekSTATUS(0); st&0x0F != 0x03 {
		t.Errorf("$4015 = %02X, want noise silenced", st)
	}

	a.WriteSTATUS(0, 0x00)
	if st := a.PeekSTATUS(0); st&0x0F != 0 {
		t.Errorf("$4015 = %02X after disabling all channels", st)
	}
}

func TestSquareOutput(t *testing.T) {
	a, cpu := newTestAPU(t)

	a.WriteSTATUS(0, 0x01)
	a.Square1.WriteVOL(0, 0xBF) // 50% duty, halt, constant volume 15
	a.Square1.WriteLO(0, 0x40)
	a.Square1.WriteHI(0, 0x08)

	levels := map[uint8]int{}
	for range 2000 {
		cpu.tick(a, 1)
		a.Run()
		levels[a.Outputs()[Square1]]++
	}
	if len(levels) != 2 || levels[0] == 0 || levels[15] == 0 {
		t.Errorf("pulse 1 levels = %v, want a 0/15 square wave", levels)
	}

	a.WriteSTATUS(0, 0x00)
	cpu.tick(a, 500)
	a.Run()
	if out := a.Outputs()[Square1]; out != 0 {
		t.Errorf("disabled pulse 1 output = %d", out)
	}
}

func TestMixerVolume(t *testing.T) {
	m := NewMixer(hwdefs.NTSC, DefaultSampleRate, nil)
	m.curOutput[Square1] = 15
	full := m.outputVolume()
	if full <= 0 {
		t.Fatalf("output = %d at full volume", full)
	}

	m.SetVolume(Square1, 0.5)
	m.Reset()
	m.curOutput[Square1] = 15
	if half := m.outputVolume(); half <= 0 || half >= full {
		t.Errorf("output = %d at half volume, full is %d", half, full)
	}

	m.SetVolume(Square1, -1)
	if out := m.outputVolume(); out != 0 {
		t.Errorf("muted output = %d", out)
	}
	m.SetVolume(Square1, 2)
	if out := m.outputVolume(); out != full {
		t.Errorf("output = %d with volume clamped to 1, want %d", out, full)
	}
}
