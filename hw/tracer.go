package hw

import (
	"fmt"
	"io"
)

// cpuState is the CPU state printed on each trace line.
type cpuState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Clock    int64
	PPUCycle int
	Scanline int // -1 for the pre-render line
}

type disasmer interface {
	Disasm(pc uint16) DisasmOp
}

// tracer writes an execution log in the nestest.log layout, one line per
// instruction:
//
//	C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7
type tracer struct {
	d   disasmer
	w   io.Writer
	ppu *PPU // nil when there's no PPU

	line []byte
}

const hexDigits = "0123456789ABCDEF"

func appendHex8(dst []byte, v uint8) []byte {
	return append(dst, hexDigits[v>>4], hexDigits[v&0x0F])
}

func appendHex16(dst []byte, v uint16) []byte {
	return appendHex8(appendHex8(dst, uint8(v>>8)), uint8(v))
}

func appendReg(dst []byte, name string, v uint8) []byte {
	dst = append(dst, name...)
	dst = append(dst, ':')
	return appendHex8(dst, v)
}

func (t *tracer) write(s cpuState) {
	b := t.d.Disasm(s.PC).appendTo(t.line[:0])
	b = appendReg(b, "A", s.A)
	b = appendReg(append(b, ' '), "X", s.X)
	b = appendReg(append(b, ' '), "Y", s.Y)
	b = appendReg(append(b, ' '), "P", uint8(s.P))
	b = appendReg(append(b, ' '), "SP", s.SP)
	b = fmt.Appendf(b, " PPU:%3d,%3d CYC:%d\n", s.Scanline, s.PPUCycle, s.Clock)
	t.line = b

	t.w.Write(b)
}
