package hw

type addrMode uint8

const (
	modeImp addrMode = iota // implied
	modeAcc                 // accumulator
	modeImm                 // #$nn
	modeZP                  // $nn
	modeZPX                 // $nn,X
	modeZPY                 // $nn,Y
	modeAbs                 // $nnnn
	modeAbx                 // $nnnn,X
	modeAby                 // $nnnn,Y
	modeInd                 // ($nnnn)
	modeIzx                 // ($nn,X)
	modeIzy                 // ($nn),Y
	modeRel                 // branch offset
)

// opdef describes an opcode. Exactly one of the operation functions is set,
// which also determines the access pattern of the addressing mode.
type opdef struct {
	name     string
	mode     addrMode
	official bool
	delayI   bool // the interrupt poll sees the I flag prior to the change

	read   func(*CPU, uint8)       // operand is read
	write  func(*CPU) uint8        // operand is written
	rmw    func(*CPU, uint8) uint8 // operand is read, modified and written back
	impl   func(*CPU)              // no operand
	branch func(*CPU) bool         // relative branch, taken if true
	seq    func(*CPU)              // custom micro-code, driven by c.cycle
}

func (op *opdef) supported() bool {
	return op.read != nil || op.write != nil || op.rmw != nil ||
		op.impl != nil || op.branch != nil || op.seq != nil
}

// exec runs cycle c.cycle (2 or more) of the current instruction.
func (c *CPU) exec() {
	op := c.op
	if op.seq != nil {
		op.seq(c)
		return
	}

	switch op.mode {
	case modeImp:
		c.read(c.PC) // dummy read
		op.impl(c)
		c.done()

	case modeAcc:
		c.read(c.PC) // dummy read
		c.A = op.rmw(c, c.A)
		c.done()

	case modeImm:
		op.read(c, c.fetch())
		c.done()

	case modeZP:
		if c.cycle == 2 {
			c.addr = uint16(c.fetch())
			return
		}
		c.access(3)

	case modeZPX, modeZPY:
		switch c.cycle {
		case 2:
			c.addr = uint16(c.fetch())
		case 3:
			// Zero page indexing never leaves the zero page.
			c.read(c.addr) // dummy read
			c.addr = uint16(uint8(c.addr) + c.index(op.mode))
		default:
			c.access(4)
		}

	case modeAbs:
		switch c.cycle {
		case 2:
			c.addr = uint16(c.fetch())
		case 3:
			c.addr |= uint16(c.fetch()) << 8
		default:
			c.access(4)
		}

	case modeAbx, modeAby:
		switch c.cycle {
		case 2:
			c.addr = uint16(c.fetch())
		case 3:
			c.indexAddr(c.addr|uint16(c.fetch())<<8, c.index(op.mode))
		case 4:
			c.partialRead()
		default:
			c.access(5)
		}

	case modeIzx:
		switch c.cycle {
		case 2:
			c.ptr = c.fetch()
		case 3:
			c.read(uint16(c.ptr)) // dummy read
			c.ptr += c.X
		case 4:
			c.addr = uint16(c.read(uint16(c.ptr)))
		case 5:
			c.addr |= uint16(c.read(uint16(c.ptr+1))) << 8
		default:
			c.access(6)
		}

	case modeIzy:
		switch c.cycle {
		case 2:
			c.ptr = c.fetch()
		case 3:
			c.addr = uint16(c.read(uint16(c.ptr)))
		case 4:
			// The pointer high byte wraps around in the zero page.
			c.indexAddr(c.addr|uint16(c.read(uint16(c.ptr+1)))<<8, c.Y)
		case 5:
			c.partialRead()
		default:
			c.access(6)
		}

	case modeRel:
		switch c.cycle {
		case 2:
			off := c.fetch()
			if !op.branch(c) {
				c.done()
				return
			}
			c.addr = c.PC + uint16(int8(off))
		case 3:
			c.read(c.PC) // dummy read
			if c.addr&0xFF00 == c.PC&0xFF00 {
				c.PC = c.addr
				c.done()
				return
			}
			// Page crossed: PCH is fixed on the next cycle.
			c.PC = c.PC&0xFF00 | c.addr&0x00FF
		case 4:
			c.read(c.PC) // dummy read
			c.PC = c.addr
			c.done()
		}

	default:
		panic("unexpected addressing mode")
	}
}

func (c *CPU) index(mode addrMode) uint8 {
	switch mode {
	case modeZPY, modeAby:
		return c.Y
	}
	return c.X
}

func (c *CPU) indexAddr(base uint16, idx uint8) {
	c.addr = base + uint16(idx)
	c.crossed = base&0xFF00 != c.addr&0xFF00
}

// partialRead is the indexed read performed before the high byte of the
// effective address has been fixed, so it hits the wrong page when indexing
// crossed one. For read instructions without page crossing this is the actual
// operand read, saving one cycle.
func (c *CPU) partialRead() {
	addr := c.addr
	if c.crossed {
		addr -= 0x100
	}
	v := c.read(addr)
	if c.op.read != nil && !c.crossed {
		c.op.read(c, v)
		c.done()
	}
}

// access performs the operand access at the effective address, starting at
// instruction cycle n. Read and write take one cycle, read-modify-write
// three: read, write back of the unmodified value, write of the result.
func (c *CPU) access(n int) {
	op := c.op
	switch {
	case op.read != nil:
		op.read(c, c.read(c.addr))
		c.done()
	case op.write != nil:
		c.write(c.addr, op.write(c))
		c.done()
	case op.rmw != nil:
		switch c.cycle - n {
		case 0:
			c.data = c.read(c.addr)
		case 1:
			c.write(c.addr, c.data) // dummy write
			c.data = op.rmw(c, c.data)
		case 2:
			c.write(c.addr, c.data)
			c.done()
		}
	}
}

/* custom micro-code */

// seqBRK is shared by BRK, IRQ and NMI.
func (c *CPU) seqBRK() {
	switch c.cycle {
	case 2:
		c.read(c.PC)
		if c.intr == intBRK {
			// BRK is a 2-byte opcode, the padding byte is skipped.
			c.PC++
		}
	case 3:
		c.push(uint8(c.PC >> 8))
	case 4:
		c.push(uint8(c.PC))
	case 5:
		p := c.P | Reserved
		p.set(Break, c.intr == intBRK)
		c.push(uint8(p))

		// Interrupt hijacking: an NMI asserted before the vector is fetched
		// takes over the vector of BRK and IRQ, the B flag pushed on the
		// stack is left untouched.
		c.vector = IRQVector
		if c.intr == intNMI || c.nmiPending {
			c.nmiPending = false
			c.vector = NMIVector
		}
	case 6:
		c.addr = uint16(c.read(c.vector))
		c.P.set(Interrupt, true)
	case 7:
		from := c.PC
		c.PC = c.addr | uint16(c.read(c.vector+1))<<8
		if c.intr != intBRK {
			c.dbg.Interrupt(InterruptEvent{
				NMI:     c.vector == NMIVector,
				From:    from,
				Handler: c.PC,
				Cycle:   c.Cycles,
			})
		}
		c.intr = intBRK
		c.done()
	}
}

func (c *CPU) seqJSR() {
	switch c.cycle {
	case 2:
		c.addr = uint16(c.fetch())
	case 3:
		c.peekStack() // dummy read
	case 4:
		c.push(uint8(c.PC >> 8))
	case 5:
		c.push(uint8(c.PC))
	case 6:
		c.PC = c.addr | uint16(c.read(c.PC))<<8
		c.done()
	}
}

func (c *CPU) seqRTS() {
	switch c.cycle {
	case 2:
		c.read(c.PC) // dummy read
	case 3:
		c.peekStack() // dummy read
	case 4:
		c.addr = uint16(c.pull())
	case 5:
		c.PC = c.addr | uint16(c.pull())<<8
	case 6:
		c.fetch() // dummy read, increments PC
		c.done()
	}
}

func (c *CPU) seqRTI() {
	switch c.cycle {
	case 2:
		c.read(c.PC) // dummy read
	case 3:
		c.peekStack() // dummy read
	case 4:
		c.P = P(c.pull())&^Break | Reserved
	case 5:
		c.addr = uint16(c.pull())
	case 6:
		c.PC = c.addr | uint16(c.pull())<<8
		c.done()
	}
}

func (c *CPU) seqPHA() {
	switch c.cycle {
	case 2:
		c.read(c.PC) // dummy read
	case 3:
		c.push(c.A)
		c.done()
	}
}

func (c *CPU) seqPHP() {
	switch c.cycle {
	case 2:
		c.read(c.PC) // dummy read
	case 3:
		c.push(uint8(c.P | Break | Reserved))
		c.done()
	}
}

func (c *CPU) seqPLA() {
	switch c.cycle {
	case 2:
		c.read(c.PC) // dummy read
	case 3:
		c.peekStack() // dummy read
	case 4:
		c.A = c.pull()
		c.P.checkNZ(c.A)
		c.done()
	}
}

func (c *CPU) seqPLP() {
	switch c.cycle {
	case 2:
		c.read(c.PC) // dummy read
	case 3:
		c.peekStack() // dummy read
	case 4:
		c.P = P(c.pull())&^Break | Reserved
		c.done()
	}
}

func (c *CPU) seqJMPAbs() {
	switch c.cycle {
	case 2:
		c.addr = uint16(c.fetch())
	case 3:
		c.PC = c.addr | uint16(c.fetch())<<8
		c.done()
	}
}

func (c *CPU) seqJMPInd() {
	switch c.cycle {
	case 2:
		c.vector = uint16(c.fetch())
	case 3:
		c.vector |= uint16(c.fetch()) << 8
	case 4:
		c.addr = uint16(c.read(c.vector))
	case 5:
		// Hardware bug: the pointer high byte is fetched without carry from
		// the low byte, so JMP ($xxFF) reads its high byte at $xx00.
		hi := c.vector&0xFF00 | uint16(uint8(c.vector)+1)
		c.PC = c.addr | uint16(c.read(hi))<<8
		c.done()
	}
}
