package hw

import (
	"testing"

	"nescore/hw/hwio"
)

func newTestInput(tb testing.TB) (*InputPorts, *hwio.Table, *[]uint8) {
	tb.Helper()

	var fcWrites []uint8
	ip := &InputPorts{}
	ip.initBus(func(_, val uint8) { fcWrites = append(fcWrites, val) })

	bus := hwio.NewTable("cpu")
	bus.MapBank(0x4000, ip, 0)
	return ip, bus, &fcWrites
}

func TestInputPortsShiftRegister(t *testing.T) {
	ip, bus, _ := newTestInput(t)
	ip.SetButtons(0, ButtonsOf(PadA, PadStart, PadLeft))
	ip.SetButtons(1, ButtonsOf(PadB))

	bus.Write8(0x4016, 1)
	bus.Write8(0x4016, 0)

	want1 := []uint8{1, 0, 0, 1, 0, 0, 1, 0, 1, 1, 1}
	for i, want := range want1 {
		if got := bus.Read8(0x4016); got != 0x40|want {
			t.Errorf("JOY1 read #%d = %02X, want %02X", i, got, 0x40|want)
		}
	}
	want2 := []uint8{0, 1, 0, 0, 0, 0, 0, 0, 1}
	for i, want := range want2 {
		if got := bus.Read8(0x4017); got != 0x40|want {
			t.Errorf("JOY2 read #%d = %02X, want %02X", i, got, 0x40|want)
		}
	}
}

func TestInputPortsStrobeHigh(t *testing.T) {
	ip, bus, _ := newTestInput(t)
	ip.SetButtons(0, ButtonsOf(PadA))

	// While strobe is high, the state of the first button is reported.
	bus.Write8(0x4016, 1)
	for range 10 {
		if got := bus.Read8(0x4016); got != 0x41 {
			t.Fatalf("JOY1 = %02X, want 41", got)
		}
	}

	ip.SetButtons(0, ButtonsOf(PadB))
	if got := bus.Read8(0x4016); got != 0x40 {
		t.Fatalf("JOY1 = %02X, want 40", got)
	}
}

func TestInputPortsPeek(t *testing.T) {
	ip, bus, _ := newTestInput(t)
	ip.SetButtons(0, ButtonsOf(PadA, PadB))

	bus.Write8(0x4016, 1)
	bus.Write8(0x4016, 0)

	for range 3 {
		wantReg(t, "peek", bus.Peek8(0x4016), 0x41)
	}
	bus.Read8(0x4016)
	bus.Read8(0x4016)
	wantReg(t, "peek", bus.Peek8(0x4016), 0x40)
}

func TestInputPortsFrameCounterWrites(t *testing.T) {
	_, bus, fcWrites := newTestInput(t)

	bus.Write8(0x4017, 0x40)
	bus.Write8(0x4017, 0x80)

	if len(*fcWrites) != 2 || (*fcWrites)[0] != 0x40 || (*fcWrites)[1] != 0x80 {
		t.Errorf("frame counter writes = %02X, want [40 80]", *fcWrites)
	}
}

func TestButtonsString(t *testing.T) {
	tests := []struct {
		b    Buttons
		want string
	}{
		{0, ""},
		{ButtonsOf(PadA), "A"},
		{ButtonsOf(PadStart, PadA, PadRight), "A|Start|Right"},
	}
	for _, tt := range tests {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("Buttons(%08b).String() = %q, want %q", uint8(tt.b), got, tt.want)
		}
	}
}
