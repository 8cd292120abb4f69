package hwio

import "fmt"

// Mem is a linear memory area that can be mapped into a Table.
//
// len(Data) must be a power of 2. When VSize is bigger, the area is mirrored
// over VSize bytes.
type Mem struct {
	Name  string
	Data  []byte
	VSize int

	// Writes to a read-only area are dropped and logged.
	ReadOnly bool
}

// memView is the BankIO8 a Table uses to access a Mem. It's a snapshot of the
// Mem taken at mapping time.
type memView struct {
	data     []byte
	mask     uint16
	readOnly bool
}

func (m *Mem) view() *memView {
	n := len(m.Data)
	if n == 0 || n&(n-1) != 0 {
		panic(fmt.Sprintf("hwio: memory area %q has size %d, not a power of 2", m.Name, n))
	}
	return &memView{
		data:     m.Data,
		mask:     uint16(n - 1),
		readOnly: m.ReadOnly,
	}
}

func (v *memView) Read8(addr uint16) uint8 { return v.data[addr&v.mask] }
func (v *memView) Peek8(addr uint16) uint8 { return v.data[addr&v.mask] }

func (v *memView) Write8(addr uint16, val uint8) { v.store(addr, val) }

// store performs a write and reports false if it hit a read-only area.
func (v *memView) store(addr uint16, val uint8) bool {
	if v.readOnly {
		return false
	}
	v.data[addr&v.mask] = val
	return true
}
