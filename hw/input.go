package hw

import (
	"strings"

	"nescore/emu/log"
	"nescore/hw/hwio"
)

// PaddleButton identifies a button of a standard NES controller. Buttons are
// reported in this order by the controller shift register.
type PaddleButton uint8

const (
	PadA PaddleButton = iota
	PadB
	PadSelect
	PadStart
	PadUp
	PadDown
	PadLeft
	PadRight

	PadButtonCount
)

var buttonNames = [PadButtonCount]string{
	"A", "B",
	"Select", "Start",
	"Up", "Down", "Left", "Right",
}

func (pb PaddleButton) String() string {
	return buttonNames[pb]
}

// Buttons is the set of pressed buttons of a controller, bit n is set when
// PaddleButton n is pressed.
type Buttons uint8

func (b Buttons) Pressed(btn PaddleButton) bool {
	return b&(1<<btn) != 0
}

func (b Buttons) String() string {
	var names []string
	for btn := range PadButtonCount {
		if b.Pressed(btn) {
			names = append(names, btn.String())
		}
	}
	return strings.Join(names, "|")
}

// ButtonsOf returns the set of the given buttons.
func ButtonsOf(btns ...PaddleButton) Buttons {
	var b Buttons
	for _, btn := range btns {
		b |= 1 << btn
	}
	return b
}

// InputPorts handles the controller ports $4016 and $4017. Writes to $4017
// go to the APU frame counter.
type InputPorts struct {
	JOY1 hwio.Reg8 `hwio:"offset=0x16,rcb,pcb,wcb"`
	JOY2 hwio.Reg8 `hwio:"offset=0x17,rcb,pcb,wcb"`

	pads         [2]Buttons // set by the host
	frameCounter func(old, val uint8)

	prevStrobe, strobe bool     // to observe strobe falling edge.
	state              [2]uint8 // state shift registers.
}

func (ip *InputPorts) initBus(frameCounter func(old, val uint8)) {
	hwio.MustInitRegs(ip)
	ip.frameCounter = frameCounter
}

// SetButtons sets the state of the controller plugged in port (0 or 1).
func (ip *InputPorts) SetButtons(port int, b Buttons) {
	if ip.pads[port] != b {
		log.ModInput.DebugZ("buttons").Int("port", port).Stringer("pressed", b).End()
	}
	ip.pads[port] = b
}

func (ip *InputPorts) regval(port uint8) uint8 {
	ret := ip.state[port] & 1
	ip.state[port] >>= 1

	// After 8 bits are read, all subsequent bits report 1 on a standard
	// controller.
	ip.state[port] |= 0x80

	// Upper bits are open bus, the last byte of the address ($40).
	return 0x40 | ret
}

// capture state of both controllers.
func (ip *InputPorts) loadstate() {
	ip.state[0] = uint8(ip.pads[0])
	ip.state[1] = uint8(ip.pads[1])
}

// JOY1: $4016
func (ip *InputPorts) WriteJOY1(_, val uint8) {
	ip.prevStrobe = ip.strobe
	ip.strobe = val&1 == 1
	if ip.prevStrobe && !ip.strobe {
		ip.loadstate()
	}
}

func (ip *InputPorts) ReadJOY1(uint8) uint8 {
	if ip.strobe {
		ip.loadstate()
	}
	return ip.regval(0)
}

func (ip *InputPorts) PeekJOY1(uint8) uint8 {
	return 0x40 | ip.state[0]&1
}

// JOY2: $4017
func (ip *InputPorts) ReadJOY2(uint8) uint8 {
	if ip.strobe {
		ip.loadstate()
	}
	return ip.regval(1)
}

func (ip *InputPorts) PeekJOY2(uint8) uint8 {
	return 0x40 | ip.state[1]&1
}

func (ip *InputPorts) WriteJOY2(old, val uint8) {
	if ip.frameCounter != nil {
		ip.frameCounter(old, val)
	}
}
