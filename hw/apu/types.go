package apu

import "nescore/hw/hwdefs"

type Channel uint8

const (
	Square1 Channel = iota
	Square2
	Triangle
	Noise
)

var channelNames = [...]string{"square1", "square2", "triangle", "noise"}

func (ch Channel) String() string {
	if int(ch) < len(channelNames) {
		return channelNames[ch]
	}
	return "unknown"
}

// ChannelByName returns the channel with the given name, as returned by
// String.
func ChannelByName(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

type FrameType uint8

const (
	NoFrame FrameType = iota
	QuarterFrame
	HalfFrame
)

// cpu is the APU view of the CPU: the frame counter drives an IRQ line.
type cpu interface {
	CurrentCycle() int64
	SetIRQSource(src hwdefs.IRQSource)
	ClearIRQSource(src hwdefs.IRQSource)
	HasIRQSource(src hwdefs.IRQSource) bool
}

type mixer interface {
	addDelta(ch Channel, time uint32, delta int16)
}

type apu interface {
	SetNeedToRun()
	Run()
	FrameCounterTick(FrameType)
}
