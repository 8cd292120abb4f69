package hw

// ops is the opcode table, indexed by opcode. Entries without an operation
// are unsupported opcodes.
var ops [256]opdef

// interruptOp runs the IRQ/NMI sequence.
var interruptOp = opdef{name: "INT", mode: modeImp, seq: (*CPU).seqBRK}

// unsupportedNOP replaces unsupported opcodes when they aren't fatal.
var unsupportedNOP = opdef{name: "NOP", mode: modeImp, impl: (*CPU).nop}

// def registers an opcode. fn determines the access pattern.
func def(opcode uint8, name string, mode addrMode, fn any) {
	op := opdef{name: name, mode: mode, official: true}
	switch fn := fn.(type) {
	case func(*CPU, uint8):
		op.read = fn
	case func(*CPU) uint8:
		op.write = fn
	case func(*CPU, uint8) uint8:
		op.rmw = fn
	case func(*CPU):
		op.impl = fn
	case func(*CPU) bool:
		op.branch = fn
	default:
		panic("invalid operation for opcode " + name)
	}
	ops[opcode] = op
}

// defSeq registers an opcode with custom micro-code.
func defSeq(opcode uint8, name string, mode addrMode, seq func(*CPU)) {
	ops[opcode] = opdef{name: name, mode: mode, official: true, seq: seq}
}

// unofficial registers an undocumented opcode.
func unofficial(opcode uint8, name string, mode addrMode, fn any) {
	def(opcode, name, mode, fn)
	ops[opcode].official = false
}

func init() {
	// Load/store.
	defAll("LDA", (*CPU).lda, 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1)
	def(0xA2, "LDX", modeImm, (*CPU).ldx)
	def(0xA6, "LDX", modeZP, (*CPU).ldx)
	def(0xB6, "LDX", modeZPY, (*CPU).ldx)
	def(0xAE, "LDX", modeAbs, (*CPU).ldx)
	def(0xBE, "LDX", modeAby, (*CPU).ldx)
	def(0xA0, "LDY", modeImm, (*CPU).ldy)
	def(0xA4, "LDY", modeZP, (*CPU).ldy)
	def(0xB4, "LDY", modeZPX, (*CPU).ldy)
	def(0xAC, "LDY", modeAbs, (*CPU).ldy)
	def(0xBC, "LDY", modeAbx, (*CPU).ldy)
	def(0x85, "STA", modeZP, (*CPU).sta)
	def(0x95, "STA", modeZPX, (*CPU).sta)
	def(0x8D, "STA", modeAbs, (*CPU).sta)
	def(0x9D, "STA", modeAbx, (*CPU).sta)
	def(0x99, "STA", modeAby, (*CPU).sta)
	def(0x81, "STA", modeIzx, (*CPU).sta)
	def(0x91, "STA", modeIzy, (*CPU).sta)
	def(0x86, "STX", modeZP, (*CPU).stx)
	def(0x96, "STX", modeZPY, (*CPU).stx)
	def(0x8E, "STX", modeAbs, (*CPU).stx)
	def(0x84, "STY", modeZP, (*CPU).sty)
	def(0x94, "STY", modeZPX, (*CPU).sty)
	def(0x8C, "STY", modeAbs, (*CPU).sty)

	// Arithmetic and logic.
	defAll("ADC", (*CPU).adc, 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71)
	defAll("SBC", (*CPU).sbc, 0xE9, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1)
	defAll("AND", (*CPU).and, 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31)
	defAll("ORA", (*CPU).ora, 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11)
	defAll("EOR", (*CPU).eor, 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51)
	defAll("CMP", (*CPU).cmp, 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1)
	def(0xE0, "CPX", modeImm, (*CPU).cpx)
	def(0xE4, "CPX", modeZP, (*CPU).cpx)
	def(0xEC, "CPX", modeAbs, (*CPU).cpx)
	def(0xC0, "CPY", modeImm, (*CPU).cpy)
	def(0xC4, "CPY", modeZP, (*CPU).cpy)
	def(0xCC, "CPY", modeAbs, (*CPU).cpy)
	def(0x24, "BIT", modeZP, (*CPU).bit)
	def(0x2C, "BIT", modeAbs, (*CPU).bit)

	// Read-modify-write.
	defShift("ASL", (*CPU).asl, 0x0A, 0x06, 0x16, 0x0E, 0x1E)
	defShift("LSR", (*CPU).lsr, 0x4A, 0x46, 0x56, 0x4E, 0x5E)
	defShift("ROL", (*CPU).rol, 0x2A, 0x26, 0x36, 0x2E, 0x3E)
	defShift("ROR", (*CPU).ror, 0x6A, 0x66, 0x76, 0x6E, 0x7E)
	def(0xE6, "INC", modeZP, (*CPU).inc)
	def(0xF6, "INC", modeZPX, (*CPU).inc)
	def(0xEE, "INC", modeAbs, (*CPU).inc)
	def(0xFE, "INC", modeAbx, (*CPU).inc)
	def(0xC6, "DEC", modeZP, (*CPU).dec)
	def(0xD6, "DEC", modeZPX, (*CPU).dec)
	def(0xCE, "DEC", modeAbs, (*CPU).dec)
	def(0xDE, "DEC", modeAbx, (*CPU).dec)

	// Implied.
	def(0xE8, "INX", modeImp, (*CPU).inx)
	def(0xC8, "INY", modeImp, (*CPU).iny)
	def(0xCA, "DEX", modeImp, (*CPU).dex)
	def(0x88, "DEY", modeImp, (*CPU).dey)
	def(0xAA, "TAX", modeImp, (*CPU).tax)
	def(0xA8, "TAY", modeImp, (*CPU).tay)
	def(0x8A, "TXA", modeImp, (*CPU).txa)
	def(0x98, "TYA", modeImp, (*CPU).tya)
	def(0xBA, "TSX", modeImp, (*CPU).tsx)
	def(0x9A, "TXS", modeImp, (*CPU).txs)
	def(0x18, "CLC", modeImp, (*CPU).clc)
	def(0x38, "SEC", modeImp, (*CPU).sec)
	def(0x58, "CLI", modeImp, (*CPU).cli)
	def(0x78, "SEI", modeImp, (*CPU).sei)
	def(0xB8, "CLV", modeImp, (*CPU).clv)
	def(0xD8, "CLD", modeImp, (*CPU).cld)
	def(0xF8, "SED", modeImp, (*CPU).sed)
	def(0xEA, "NOP", modeImp, (*CPU).nop)
	ops[0x58].delayI = true
	ops[0x78].delayI = true

	// Branches.
	def(0x10, "BPL", modeRel, (*CPU).bpl)
	def(0x30, "BMI", modeRel, (*CPU).bmi)
	def(0x50, "BVC", modeRel, (*CPU).bvc)
	def(0x70, "BVS", modeRel, (*CPU).bvs)
	def(0x90, "BCC", modeRel, (*CPU).bcc)
	def(0xB0, "BCS", modeRel, (*CPU).bcs)
	def(0xD0, "BNE", modeRel, (*CPU).bne)
	def(0xF0, "BEQ", modeRel, (*CPU).beq)

	// Control flow and stack.
	defSeq(0x00, "BRK", modeImp, (*CPU).seqBRK)
	defSeq(0x20, "JSR", modeAbs, (*CPU).seqJSR)
	defSeq(0x60, "RTS", modeImp, (*CPU).seqRTS)
	defSeq(0x40, "RTI", modeImp, (*CPU).seqRTI)
	defSeq(0x4C, "JMP", modeAbs, (*CPU).seqJMPAbs)
	defSeq(0x6C, "JMP", modeInd, (*CPU).seqJMPInd)
	defSeq(0x48, "PHA", modeImp, (*CPU).seqPHA)
	defSeq(0x08, "PHP", modeImp, (*CPU).seqPHP)
	defSeq(0x68, "PLA", modeImp, (*CPU).seqPLA)
	defSeq(0x28, "PLP", modeImp, (*CPU).seqPLP)
	ops[0x28].delayI = true

	// Stable undocumented opcodes.
	for _, opcode := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		unofficial(opcode, "NOP", modeImp, (*CPU).nop)
	}
	for _, opcode := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		unofficial(opcode, "NOP", modeImm, (*CPU).nopRead)
	}
	for _, opcode := range []uint8{0x04, 0x44, 0x64} {
		unofficial(opcode, "NOP", modeZP, (*CPU).nopRead)
	}
	for _, opcode := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		unofficial(opcode, "NOP", modeZPX, (*CPU).nopRead)
	}
	unofficial(0x0C, "NOP", modeAbs, (*CPU).nopRead)
	for _, opcode := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		unofficial(opcode, "NOP", modeAbx, (*CPU).nopRead)
	}
	unofficial(0xEB, "SBC", modeImm, (*CPU).sbc)
	unofficial(0x0B, "ANC", modeImm, (*CPU).anc)
	unofficial(0x2B, "ANC", modeImm, (*CPU).anc)
	unofficial(0x4B, "ALR", modeImm, (*CPU).alr)
	unofficial(0x6B, "ARR", modeImm, (*CPU).arr)
	unofficial(0xCB, "AXS", modeImm, (*CPU).axs)

	unofficial(0xA7, "LAX", modeZP, (*CPU).lax)
	unofficial(0xB7, "LAX", modeZPY, (*CPU).lax)
	unofficial(0xAF, "LAX", modeAbs, (*CPU).lax)
	unofficial(0xBF, "LAX", modeAby, (*CPU).lax)
	unofficial(0xA3, "LAX", modeIzx, (*CPU).lax)
	unofficial(0xB3, "LAX", modeIzy, (*CPU).lax)
	unofficial(0x87, "SAX", modeZP, (*CPU).sax)
	unofficial(0x97, "SAX", modeZPY, (*CPU).sax)
	unofficial(0x8F, "SAX", modeAbs, (*CPU).sax)
	unofficial(0x83, "SAX", modeIzx, (*CPU).sax)

	defUnofficialRMW("SLO", (*CPU).slo, 0x07, 0x17, 0x0F, 0x1F, 0x1B, 0x03, 0x13)
	defUnofficialRMW("RLA", (*CPU).rla, 0x27, 0x37, 0x2F, 0x3F, 0x3B, 0x23, 0x33)
	defUnofficialRMW("SRE", (*CPU).sre, 0x47, 0x57, 0x4F, 0x5F, 0x5B, 0x43, 0x53)
	defUnofficialRMW("RRA", (*CPU).rra, 0x67, 0x77, 0x6F, 0x7F, 0x7B, 0x63, 0x73)
	defUnofficialRMW("DCP", (*CPU).dcp, 0xC7, 0xD7, 0xCF, 0xDF, 0xDB, 0xC3, 0xD3)
	defUnofficialRMW("ISC", (*CPU).isc, 0xE7, 0xF7, 0xEF, 0xFF, 0xFB, 0xE3, 0xF3)
}

// defAll registers the 8 addressing modes of the ALU group, in the order
// imm, zp, zp X, abs, abs X, abs Y, (ind,X), (ind),Y.
func defAll(name string, fn func(*CPU, uint8), opcodes ...uint8) {
	modes := [...]addrMode{modeImm, modeZP, modeZPX, modeAbs, modeAbx, modeAby, modeIzx, modeIzy}
	for i, opcode := range opcodes {
		def(opcode, name, modes[i], fn)
	}
}

// defShift registers the 5 addressing modes of shifts and rotations, in the
// order acc, zp, zp X, abs, abs X.
func defShift(name string, fn func(*CPU, uint8) uint8, opcodes ...uint8) {
	modes := [...]addrMode{modeAcc, modeZP, modeZPX, modeAbs, modeAbx}
	for i, opcode := range opcodes {
		def(opcode, name, modes[i], fn)
	}
}

// defUnofficialRMW registers the 7 addressing modes of the combined
// read-modify-write opcodes, in the order zp, zp X, abs, abs X, abs Y,
// (ind,X), (ind),Y.
func defUnofficialRMW(name string, fn func(*CPU, uint8) uint8, opcodes ...uint8) {
	modes := [...]addrMode{modeZP, modeZPX, modeAbs, modeAbx, modeAby, modeIzx, modeIzy}
	for i, opcode := range opcodes {
		unofficial(opcode, name, modes[i], fn)
	}
}

/* read operations */

func (c *CPU) lda(v uint8) { c.A = v; c.P.checkNZ(v) }
func (c *CPU) ldx(v uint8) { c.X = v; c.P.checkNZ(v) }
func (c *CPU) ldy(v uint8) { c.Y = v; c.P.checkNZ(v) }
func (c *CPU) and(v uint8) { c.A &= v; c.P.checkNZ(c.A) }
func (c *CPU) ora(v uint8) { c.A |= v; c.P.checkNZ(c.A) }
func (c *CPU) eor(v uint8) { c.A ^= v; c.P.checkNZ(c.A) }
func (c *CPU) lax(v uint8) { c.A = v; c.X = v; c.P.checkNZ(v) }

func (c *CPU) nopRead(uint8) {}

// The decimal flag is ignored, the 2A03 has no BCD mode.
func (c *CPU) adc(v uint8) {
	sum := uint16(c.A) + uint16(v) + uint16(c.P.carry())
	c.P.checkCV(c.A, v, sum)
	c.A = uint8(sum)
	c.P.checkNZ(c.A)
}

func (c *CPU) sbc(v uint8) {
	c.adc(^v)
}

func (c *CPU) compare(reg, v uint8) {
	c.P.set(Carry, reg >= v)
	c.P.checkNZ(reg - v)
}

func (c *CPU) cmp(v uint8) { c.compare(c.A, v) }
func (c *CPU) cpx(v uint8) { c.compare(c.X, v) }
func (c *CPU) cpy(v uint8) { c.compare(c.Y, v) }

func (c *CPU) bit(v uint8) {
	c.P.set(Zero, c.A&v == 0)
	c.P.set(Overflow, v&0x40 != 0)
	c.P.set(Negative, v&0x80 != 0)
}

func (c *CPU) anc(v uint8) {
	c.and(v)
	c.P.set(Carry, c.P.has(Negative))
}

func (c *CPU) alr(v uint8) {
	c.A &= v
	c.A = c.lsr(c.A)
}

func (c *CPU) arr(v uint8) {
	c.A &= v
	c.A = c.ror(c.A)
	c.P.set(Carry, c.A&0x40 != 0)
	c.P.set(Overflow, (c.A>>6^c.A>>5)&1 != 0)
}

func (c *CPU) axs(v uint8) {
	ax := c.A & c.X
	c.P.set(Carry, ax >= v)
	c.X = ax - v
	c.P.checkNZ(c.X)
}

/* write operations */

func (c *CPU) sta() uint8 { return c.A }
func (c *CPU) stx() uint8 { return c.X }
func (c *CPU) sty() uint8 { return c.Y }
func (c *CPU) sax() uint8 { return c.A & c.X }

/* read-modify-write operations */

func (c *CPU) asl(v uint8) uint8 {
	c.P.set(Carry, v&0x80 != 0)
	v <<= 1
	c.P.checkNZ(v)
	return v
}

func (c *CPU) lsr(v uint8) uint8 {
	c.P.set(Carry, v&0x01 != 0)
	v >>= 1
	c.P.checkNZ(v)
	return v
}

func (c *CPU) rol(v uint8) uint8 {
	carry := c.P.carry()
	c.P.set(Carry, v&0x80 != 0)
	v = v<<1 | carry
	c.P.checkNZ(v)
	return v
}

func (c *CPU) ror(v uint8) uint8 {
	carry := c.P.carry()
	c.P.set(Carry, v&0x01 != 0)
	v = v>>1 | carry<<7
	c.P.checkNZ(v)
	return v
}

func (c *CPU) inc(v uint8) uint8 { v++; c.P.checkNZ(v); return v }
func (c *CPU) dec(v uint8) uint8 { v--; c.P.checkNZ(v); return v }

func (c *CPU) slo(v uint8) uint8 { v = c.asl(v); c.ora(v); return v }
func (c *CPU) rla(v uint8) uint8 { v = c.rol(v); c.and(v); return v }
func (c *CPU) sre(v uint8) uint8 { v = c.lsr(v); c.eor(v); return v }
func (c *CPU) rra(v uint8) uint8 { v = c.ror(v); c.adc(v); return v }
func (c *CPU) dcp(v uint8) uint8 { v--; c.cmp(v); return v }
func (c *CPU) isc(v uint8) uint8 { v++; c.sbc(v); return v }

/* implied operations */

func (c *CPU) inx() { c.X++; c.P.checkNZ(c.X) }
func (c *CPU) iny() { c.Y++; c.P.checkNZ(c.Y) }
func (c *CPU) dex() { c.X--; c.P.checkNZ(c.X) }
func (c *CPU) dey() { c.Y--; c.P.checkNZ(c.Y) }
func (c *CPU) tax() { c.X = c.A; c.P.checkNZ(c.X) }
func (c *CPU) tay() { c.Y = c.A; c.P.checkNZ(c.Y) }
func (c *CPU) txa() { c.A = c.X; c.P.checkNZ(c.A) }
func (c *CPU) tya() { c.A = c.Y; c.P.checkNZ(c.A) }
func (c *CPU) tsx() { c.X = c.SP; c.P.checkNZ(c.X) }
func (c *CPU) txs() { c.SP = c.X }
func (c *CPU) clc() { c.P.set(Carry, false) }
func (c *CPU) sec() { c.P.set(Carry, true) }
func (c *CPU) cli() { c.P.set(Interrupt, false) }
func (c *CPU) sei() { c.P.set(Interrupt, true) }
func (c *CPU) clv() { c.P.set(Overflow, false) }
func (c *CPU) cld() { c.P.set(Decimal, false) }
func (c *CPU) sed() { c.P.set(Decimal, true) }
func (c *CPU) nop() {}

/* branch conditions */

func (c *CPU) bpl() bool { return !c.P.has(Negative) }
func (c *CPU) bmi() bool { return c.P.has(Negative) }
func (c *CPU) bvc() bool { return !c.P.has(Overflow) }
func (c *CPU) bvs() bool { return c.P.has(Overflow) }
func (c *CPU) bcc() bool { return !c.P.has(Carry) }
func (c *CPU) bcs() bool { return c.P.has(Carry) }
func (c *CPU) bne() bool { return !c.P.has(Zero) }
func (c *CPU) beq() bool { return c.P.has(Zero) }
