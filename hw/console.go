package hw

import (
	"io"

	"github.com/go-faster/errors"

	"nescore/emu/log"
	"nescore/hw/apu"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
	"nescore/hw/mappers"
	"nescore/hw/snapshot"
	"nescore/ines"
)

// ConsoleConfig holds the settings of a Console, fixed at creation.
type ConsoleConfig struct {
	Region hwdefs.Region

	// StrictOpcodes makes unsupported opcodes fatal (see CPU.StrictOpcodes).
	StrictOpcodes bool

	// Audio receives the APU samples. If nil, samples are discarded.
	Audio      chan<- apu.SampleBatch
	SampleRate int

	// Volumes of the audio channels, in [0, 1]. Missing channels are at full
	// volume.
	Volumes map[apu.Channel]float64
}

// Console is the whole system: CPU, PPU, APU and their buses. The cartridge
// is plugged with LoadCartridge.
//
// A Console is driven by the host, one CPU cycle at a time with StepCycle or
// one frame at a time with RunUntilFrame. It's not safe for concurrent use
// but distinct consoles don't share any state.
type Console struct {
	CPU   *CPU
	PPU   *PPU
	APU   *apu.APU
	DMA   DMA
	Input InputPorts

	Bus    *hwio.Table // CPU address space
	Rom    *ines.Rom
	Mapper mappers.Mapper

	//	$0000-$07FF	$0800	2KB internal RAM
	//	$0800-$1FFF	$1800	Mirrors of $0000-$07FF
	RAM hwio.Mem `hwio:"offset=0x0000,size=0x800,vsize=0x2000"`

	// Nothing answers in $4018-$401F (CPU test mode registers), nor in
	// cartridge space when no cartridge is plugged.
	openbus hwio.Device

	cfg    ConsoleConfig
	mixer  *apu.Mixer
	master int64 // master clock ticks, at the end of the last CPU cycle
	ppuclk int64 // master clock ticks consumed by the PPU

	frameDone bool
	dbg       Debugger
}

// NewConsole creates a console, without cartridge. PowerOn must be called
// before running it.
func NewConsole(cfg ConsoleConfig) *Console {
	c := &Console{
		Bus: hwio.NewTable("cpu"),
		cfg: cfg,
		dbg: nopDebugger{},
	}
	c.openbus = hwio.Device{
		Name:    "open bus",
		ReadCb:  c.readOpenBus,
		PeekCb:  c.readOpenBus,
		WriteCb: func(uint16, uint8) {},
	}

	c.CPU = NewCPU(c.Bus)
	c.CPU.StrictOpcodes = cfg.StrictOpcodes
	c.PPU = NewPPU(cfg.Region)
	c.mixer = apu.NewMixer(cfg.Region, cfg.SampleRate, cfg.Audio)
	for ch, vol := range cfg.Volumes {
		c.mixer.SetVolume(ch, vol)
	}
	c.APU = apu.New(c.CPU, c.mixer, cfg.Region)

	c.initBus()
	return c
}

func (c *Console) initBus() {
	hwio.MustInitRegs(c)
	c.Bus.MapBank(0x0000, c, 0)

	// $2000-$2007 PPU registers, mirrored every 8 bytes up to $3FFF.
	c.PPU.InitBus()
	for addr := 0x2000; addr < 0x4000; addr += 8 {
		c.Bus.MapBank(uint16(addr), c.PPU, 1)
	}

	// $4000-$4017: APU and I/O registers. Nothing answers reads of the
	// write-only registers.
	c.Bus.Unmapped = &c.openbus
	c.APU.InitBus(c.Bus)
	c.DMA.InitBus(c.CPU)
	c.Bus.MapBank(0x4000, &c.DMA, 0)
	c.Input.initBus(c.APU.WriteFrameCounter)
	c.Bus.MapBank(0x4000, &c.Input, 0)
}

func (c *Console) readOpenBus(uint16) uint8 {
	return c.CPU.OpenBus()
}

// CurrentCycle and OpenBus implement mappers.Host.
func (c *Console) CurrentCycle() int64 { return c.CPU.CurrentCycle() }
func (c *Console) OpenBus() uint8      { return c.CPU.OpenBus() }

// LoadCartridge plugs the cartridge described by rom, replacing the current
// one, if any. It fails if the rom mapper isn't supported, in which case the
// current cartridge stays plugged.
func (c *Console) LoadCartridge(rom *ines.Rom) error {
	m, err := mappers.Load(rom, c)
	if err != nil {
		return errors.Wrap(err, "failed to load cartridge")
	}

	c.EjectCartridge()
	c.Rom = rom
	c.plug(m)
	return nil
}

// EjectCartridge removes the cartridge. Cartridge space then reads as open
// bus and the PPU pattern tables as zeroes.
func (c *Console) EjectCartridge() {
	if c.Mapper == nil {
		return
	}
	log.ModMem.InfoZ("cartridge ejected").String("mapper", c.Mapper.Name()).End()

	c.Bus.Unmap(cartStart, 0xFFFF)
	c.PPU.SetMapper(nil)
	c.Mapper = nil
	c.Rom = nil
}

const cartStart = 0x4020

func (c *Console) plug(m mappers.Mapper) {
	c.Mapper = m
	c.PPU.SetMapper(m)

	// $4020-$FFFF: cartridge space.
	c.Bus.MapDevice(cartStart, &hwio.Device{
		Name:    "cartridge",
		Size:    0x10000 - cartStart,
		ReadCb:  m.ReadPRG,
		PeekCb:  m.ReadPRG,
		WriteCb: m.WritePRG,
	})
}

// PowerOn puts the whole system in its power up state, as if the power
// switch had just been turned on. The cartridge board is powered up too: its
// bank registers and RAM are lost.
func (c *Console) PowerOn() {
	clear(c.RAM.Data)
	if c.Rom != nil {
		// The rom has already been accepted by mappers.Load.
		m, err := mappers.Load(c.Rom, c)
		if err != nil {
			panic(err)
		}
		c.plug(m)
	}
	c.reset(hwdefs.HardReset)
}

// Reset presses the reset button. State is reset in place.
func (c *Console) Reset() {
	c.reset(hwdefs.SoftReset)
}

func (c *Console) reset(soft bool) {
	c.master = 0
	c.ppuclk = 0
	c.frameDone = false
	c.DMA.reset()
	c.PPU.Reset(soft)
	c.APU.Reset(soft)
	c.CPU.Reset(soft)

	// The reset sequence takes 7 CPU cycles, the PPU runs meanwhile.
	c.catchUpPPU(c.CPU.Cycles * c.cfg.Region.CPUDivider())

	log.ModEmu.InfoZ("console reset").
		Bool("soft", soft).
		Stringer("region", c.cfg.Region).
		End()
}

// StepCycle runs the system for one CPU cycle: the CPU (or the DMA unit if
// it owns the bus), the APU, then the PPU up to the same point in time.
//
// It only fails if the CPU halted on an unsupported opcode, see
// ConsoleConfig.StrictOpcodes.
func (c *Console) StepCycle() error {
	if c.DMA.Running() {
		c.DMA.Step()
	} else if err := c.CPU.Step(); err != nil {
		return err
	}

	c.APU.Tick()
	c.catchUpPPU(c.master + c.cfg.Region.CPUDivider())

	if c.Mapper != nil {
		if c.Mapper.IRQ() {
			c.CPU.SetIRQSource(hwdefs.Cartridge)
		} else {
			c.CPU.ClearIRQSource(hwdefs.Cartridge)
		}
	}

	// The CPU latches the NMI edge on any cycle but only services it between
	// instructions, or by hijacking a BRK/IRQ sequence before its vector
	// fetch.
	if c.PPU.TakeNMI() {
		c.CPU.NMI()
	}

	if c.PPU.FrameDone() {
		c.frameDone = true
		c.APU.EndFrame()
		c.dbg.FrameEnd(c.PPU.Frames)
	}
	return nil
}

// catchUpPPU runs the PPU until the master clock reaches master.
func (c *Console) catchUpPPU(master int64) {
	c.master = master
	div := c.cfg.Region.PPUDivider()
	for c.ppuclk+div <= c.master {
		c.ppuclk += div
		c.PPU.Tick()
	}
}

// RunUntilFrame runs the system until the PPU completes a frame, and returns
// it. The frame is only valid until the next one completes.
func (c *Console) RunUntilFrame() (*Frame, error) {
	c.frameDone = false
	for !c.frameDone {
		if err := c.StepCycle(); err != nil {
			return nil, err
		}
	}
	return c.PPU.Frame(), nil
}

// Frame returns the last completed frame.
func (c *Console) Frame() *Frame {
	return c.PPU.Frame()
}

// SetButtons sets the state of the controller in port (0 or 1).
func (c *Console) SetButtons(port int, b Buttons) {
	c.Input.SetButtons(port, b)
}

// Peek8 returns the byte at addr on the CPU bus, without side effects.
func (c *Console) Peek8(addr uint16) uint8 {
	return c.Bus.Peek8(addr)
}

// Region returns the timing variant of the console.
func (c *Console) Region() hwdefs.Region {
	return c.cfg.Region
}

// DroppedAudio returns the number of sample batches dropped because the
// audio consumer didn't keep up.
func (c *Console) DroppedAudio() int {
	return c.mixer.Dropped()
}

// SetTraceOutput enables the execution trace (nil disables it).
func (c *Console) SetTraceOutput(w io.Writer) {
	c.CPU.SetTraceOutput(w, c.PPU)
}

// SetDebugger connects a debugger, nil disconnects it.
func (c *Console) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = nopDebugger{}
	}
	c.dbg = dbg
	c.CPU.SetDebugger(dbg)
}

// Snapshot captures the observable state of the system. It doesn't modify
// the emulation state.
func (c *Console) Snapshot() *snapshot.Console {
	v, t, finex, w := c.PPU.VRAM()

	s := &snapshot.Console{
		Region: c.cfg.Region.String(),
		Frames: c.PPU.Frames,
		CPU: snapshot.CPU{
			PC:     c.CPU.PC,
			A:      c.CPU.A,
			X:      c.CPU.X,
			Y:      c.CPU.Y,
			SP:     c.CPU.SP,
			P:      uint8(c.CPU.P),
			Cycles: c.CPU.Cycles,
			Halted: c.CPU.IsHalted(),
		},
		PPU: snapshot.PPU{
			Scanline:  c.PPU.Scanline,
			Cycle:     c.PPU.Cycle,
			PPUCTRL:   c.PPU.PPUCTRL.Value,
			PPUMASK:   c.PPU.PPUMASK.Value,
			PPUSTATUS: c.PPU.PPUSTATUS.Value,
			OAMADDR:   c.PPU.OAMADDR.Value,
			V:         v,
			T:         t,
			FineX:     finex,
			W:         w,
			OAM:       c.PPU.OAM(),
			Palette:   c.PPU.PaletteRAM(),
		},
		APU: snapshot.APU{
			Status:  c.APU.Status(),
			Outputs: c.APU.Outputs(),
		},
	}
	copy(s.RAM[:], c.RAM.Data)
	if c.Mapper != nil {
		s.Mapper = c.Mapper.Name()
	}
	return s
}
