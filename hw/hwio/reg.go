package hwio

import "nescore/emu/log"

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// denied reports whether flags forbid a read (or a write) and logs it.
func (f RWFlags) denied(write bool, name string, addr uint16) bool {
	var msg string
	switch {
	case write && f&ReadOnlyFlag != 0:
		msg = "write to readonly register"
	case !write && f&WriteOnlyFlag != 0:
		msg = "read from writeonly register"
	default:
		return false
	}
	log.ModHwIo.WarnZ(msg).String("name", name).Hex16("addr", addr).End()
	return true
}

// Reg8 is an 8-bit register. Bits set in RoMask can't be modified by writes.
//
// Callbacks receive the register value: ReadCb returns the value seen by the
// CPU, WriteCb is called after the value has been updated.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old uint8, val uint8)
}

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if reg.Flags.denied(true, reg.Name, addr) {
		return
	}
	old := reg.Value
	reg.Value = (old & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg8) Read8(addr uint16) uint8 {
	switch {
	case reg.Flags.denied(false, reg.Name, addr):
		return 0
	case reg.ReadCb != nil:
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg8) Peek8(uint16) uint8 {
	switch {
	case reg.PeekCb != nil:
		return reg.PeekCb(reg.Value)
	case reg.Flags&WriteOnlyFlag != 0:
		return 0
	}
	return reg.Value
}

// Device is an address range whose accesses are all forwarded to callbacks.
// A missing callback reads as 0 and ignores writes.
type Device struct {
	Name  string
	Size  int
	Flags RWFlags

	ReadCb  func(addr uint16) uint8
	PeekCb  func(addr uint16) uint8
	WriteCb func(addr uint16, val uint8)
}

func (d *Device) Read8(addr uint16) uint8 {
	if d.ReadCb == nil || d.Flags.denied(false, d.Name, addr) {
		return 0
	}
	return d.ReadCb(addr)
}

func (d *Device) Peek8(addr uint16) uint8 {
	if d.PeekCb == nil {
		return 0
	}
	return d.PeekCb(addr)
}

func (d *Device) Write8(addr uint16, val uint8) {
	if d.WriteCb == nil || d.Flags.denied(true, d.Name, addr) {
		return
	}
	d.WriteCb(addr, val)
}
