package hwio

import (
	"fmt"

	"nescore/emu/log"
	"nescore/hw/hwdefs"
)

type BankIO8 interface {
	Read8(addr uint16) uint8
	// Peek8 reads a byte without side effects (debugging/tracing).
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

func Write16(b BankIO8, addr uint16, val uint16) {
	b.Write8(addr, uint8(val))
	b.Write8(addr+1, uint8(val>>8))
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr)
	hi := b.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// AddrSpace is the size of the 16-bit address space routed by a Table.
const AddrSpace = 0x10000

// Table routes 8-bit accesses of a 64K address space to the devices mapped
// on it.
type Table struct {
	Name string

	// Unmapped handles accesses to addresses with no device. If nil, such
	// accesses panic with a BusAddressFault.
	Unmapped BankIO8

	slots [AddrSpace]BankIO8
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	clear(t.slots[:])
}

// MapBank maps a register bank, that is a structure containing multiple
// Mem, Reg8 or Device fields. Only fields having an "hwio" struct tag are
// considered. The tag contains the following options:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
//
// See MustInitRegs for the other options.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr uint16, size int, io BankIO8) {
	end := int(addr) + size
	if size <= 0 || end > AddrSpace {
		panic(fmt.Sprintf("hwio: invalid mapping %s[%04X] size=%d", t.Name, addr, size))
	}
	for i := int(addr); i < end; i++ {
		t.slots[i] = io
	}
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

// MapDevice maps dev at [addr, addr+dev.Size).
func (t *Table) MapDevice(addr uint16, dev *Device) {
	log.ModHwIo.DebugZ("mapping device").
		Hex16("addr", addr).
		Int("size", dev.Size).
		String("name", dev.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, dev.Size, dev)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", mem.VSize).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, mem.VSize, mem.view())
}

// Unmap removes any device mapped in [begin, end].
func (t *Table) Unmap(begin, end uint16) {
	log.ModHwIo.DebugZ("unmapping").
		Hex16("addr", begin).
		Hex16("end", end).
		String("bus", t.Name).
		End()

	clear(t.slots[begin : int(end)+1])
}

func (t *Table) fault(op string, addr uint16) BankIO8 {
	if t.Unmapped != nil {
		return t.Unmapped
	}
	panic(hwdefs.Errorf(hwdefs.BusAddressFault, "%s %s[%04X]", op, t.Name, addr))
}

// Read8 forwards the read to the device mapped at addr.
func (t *Table) Read8(addr uint16) uint8 {
	io := t.slots[addr]
	if io == nil {
		return t.fault("read", addr).Read8(addr)
	}
	return io.Read8(addr)
}

// Peek8 is the side-effect free version of Read8.
func (t *Table) Peek8(addr uint16) uint8 {
	io := t.slots[addr]
	if io == nil {
		return t.fault("peek", addr).Peek8(addr)
	}
	return io.Peek8(addr)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.slots[addr]
	if io == nil {
		t.fault("write", addr).Write8(addr, val)
		return
	}
	if mem, ok := io.(*memView); ok {
		if !mem.store(addr, val) {
			log.ModHwIo.ErrorZ("Write8 to read-only address").
				String("name", t.Name).
				Hex16("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	io.Write8(addr, val)
}
