package hw

import (
	"bytes"
	"fmt"
)

// oplen is the instruction length, by addressing mode.
var oplen = [...]uint16{
	modeImp: 1, modeAcc: 1,
	modeImm: 2, modeZP: 2, modeZPX: 2, modeZPY: 2, modeIzx: 2, modeIzy: 2, modeRel: 2,
	modeAbs: 3, modeAbx: 3, modeAby: 3, modeInd: 3,
}

// Disasm disassembles the instruction at pc. Operand values are obtained with
// side-effect free reads.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	opcode := c.Bus.Peek8(pc)
	op := &ops[opcode]

	name := op.name
	switch {
	case !op.supported():
		name = "*???"
	case !op.official:
		name = "*" + name
	}

	d := DisasmOp{PC: pc, Opcode: name}
	n := oplen[op.mode]
	for i := range n {
		d.Buf = append(d.Buf, c.Bus.Peek8(pc+i))
	}
	d.Oper = c.disasmOperand(op, pc, d.Buf)
	return d
}

func (c *CPU) disasmOperand(op *opdef, pc uint16, buf []byte) string {
	peek := c.Bus.Peek8
	var (
		op8  uint8
		op16 uint16
	)
	if len(buf) > 1 {
		op8 = buf[1]
		op16 = uint16(op8)
	}
	if len(buf) > 2 {
		op16 |= uint16(buf[2]) << 8
	}

	switch op.mode {
	case modeAcc:
		return "A"
	case modeImm:
		return fmt.Sprintf("#$%02X", op8)
	case modeZP:
		return fmt.Sprintf("$%02X = %02X", op8, peek(uint16(op8)))
	case modeZPX, modeZPY:
		reg, idx := "X", c.X
		if op.mode == modeZPY {
			reg, idx = "Y", c.Y
		}
		addr := uint16(op8 + idx)
		return fmt.Sprintf("$%02X,%s @ %02X = %02X", op8, reg, addr, peek(addr))
	case modeAbs:
		if op.seq != nil {
			// JMP/JSR
			return fmt.Sprintf("$%04X", op16)
		}
		return fmt.Sprintf("%s = %02X", formatAddr(op16), peek(op16))
	case modeAbx, modeAby:
		reg, idx := "X", c.X
		if op.mode == modeAby {
			reg, idx = "Y", c.Y
		}
		addr := op16 + uint16(idx)
		return fmt.Sprintf("$%04X,%s @ %04X = %02X", op16, reg, addr, peek(addr))
	case modeInd:
		hi := op16&0xFF00 | uint16(uint8(op16)+1)
		dst := uint16(peek(op16)) | uint16(peek(hi))<<8
		return fmt.Sprintf("($%04X) = %04X", op16, dst)
	case modeIzx:
		ptr := op8 + c.X
		addr := uint16(peek(uint16(ptr))) | uint16(peek(uint16(ptr+1)))<<8
		return fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", op8, ptr, addr, peek(addr))
	case modeIzy:
		base := uint16(peek(uint16(op8))) | uint16(peek(uint16(op8+1)))<<8
		addr := base + uint16(c.Y)
		return fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", op8, base, addr, peek(addr))
	case modeRel:
		return fmt.Sprintf("$%04X", pc+2+uint16(int8(op8)))
	}
	return ""
}

// DisasmOp is a disassembled instruction.
type DisasmOp struct {
	PC     uint16
	Buf    []byte // instruction bytes
	Opcode string // mnemonic, prefixed with '*' for unofficial opcodes
	Oper   string // operand, with the effective address and value
}

const (
	mnemonicCol = 16
	disasmWidth = 48
)

func padTo(dst []byte, n int) []byte {
	for len(dst) < n {
		dst = append(dst, ' ')
	}
	return dst
}

// appendTo appends the instruction to dst, in a 48 columns wide field.
func (d DisasmOp) appendTo(dst []byte) []byte {
	start := len(dst)
	dst = appendHex16(dst, d.PC)
	dst = append(dst, ' ', ' ')
	for _, b := range d.Buf {
		dst = append(appendHex8(dst, b), ' ')
	}

	col := mnemonicCol
	if len(d.Opcode) > 0 && d.Opcode[0] == '*' {
		// The star goes in the separator column.
		col--
	}
	dst = append(padTo(dst, start+col), d.Opcode...)
	if d.Oper != "" {
		dst = append(append(dst, ' '), d.Oper...)
	}

	if len(dst)-start >= disasmWidth {
		return append(dst, ' ')
	}
	return padTo(dst, start+disasmWidth)
}

func (d DisasmOp) String() string {
	return string(bytes.TrimRight(d.appendTo(nil), " "))
}

// Names of the memory mapped registers, shown in place of their address.
var regNames = map[uint16]string{
	0x2000: "PPUCTRL",
	0x2001: "PPUMASK",
	0x2002: "PPUSTATUS",
	0x2003: "OAMADDR",
	0x2004: "OAMDATA",
	0x2005: "PPUSCROLL",
	0x2006: "PPUADDR",
	0x2007: "PPUDATA",
	0x4000: "SQ1_VOL",
	0x4001: "SQ1_SWEEP",
	0x4002: "SQ1_LO",
	0x4003: "SQ1_HI",
	0x4004: "SQ2_VOL",
	0x4005: "SQ2_SWEEP",
	0x4006: "SQ2_LO",
	0x4007: "SQ2_HI",
	0x4008: "TRI_LINEAR",
	0x400A: "TRI_LO",
	0x400B: "TRI_HI",
	0x400C: "NOISE_VOL",
	0x400E: "NOISE_LO",
	0x400F: "NOISE_HI",
	0x4014: "OAMDMA",
	0x4015: "SND_CHN",
	0x4016: "JOY1",
	0x4017: "JOY2",
}

func formatAddr(addr uint16) string {
	if name, ok := regNames[addr]; ok {
		return name
	}
	return fmt.Sprintf("$%04X", addr)
}
