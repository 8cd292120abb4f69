package snapshot

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// MarshalJSON encodes the snapshot. Memory areas are base64 encoded.
func (s *Console) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	e.SetIdent(2)
	s.Encode(&e)
	return e.Bytes(), nil
}

func (s *Console) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("region", func(e *jx.Encoder) { e.Str(s.Region) })
		e.Field("mapper", func(e *jx.Encoder) { e.Str(s.Mapper) })
		e.Field("frames", func(e *jx.Encoder) { e.UInt64(s.Frames) })
		e.Field("cpu", s.CPU.Encode)
		e.Field("ppu", s.PPU.Encode)
		e.Field("apu", s.APU.Encode)
		e.Field("ram", func(e *jx.Encoder) { e.Base64(s.RAM[:]) })
	})
}

func (s *CPU) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("pc", func(e *jx.Encoder) { e.UInt16(s.PC) })
		e.Field("a", func(e *jx.Encoder) { e.UInt8(s.A) })
		e.Field("x", func(e *jx.Encoder) { e.UInt8(s.X) })
		e.Field("y", func(e *jx.Encoder) { e.UInt8(s.Y) })
		e.Field("sp", func(e *jx.Encoder) { e.UInt8(s.SP) })
		e.Field("p", func(e *jx.Encoder) { e.UInt8(s.P) })
		e.Field("cycles", func(e *jx.Encoder) { e.Int64(s.Cycles) })
		e.Field("halted", func(e *jx.Encoder) { e.Bool(s.Halted) })
	})
}

func (s *PPU) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("scanline", func(e *jx.Encoder) { e.Int(s.Scanline) })
		e.Field("cycle", func(e *jx.Encoder) { e.Int(s.Cycle) })
		e.Field("ppuctrl", func(e *jx.Encoder) { e.UInt8(s.PPUCTRL) })
		e.Field("ppumask", func(e *jx.Encoder) { e.UInt8(s.PPUMASK) })
		e.Field("ppustatus", func(e *jx.Encoder) { e.UInt8(s.PPUSTATUS) })
		e.Field("oamaddr", func(e *jx.Encoder) { e.UInt8(s.OAMADDR) })
		e.Field("v", func(e *jx.Encoder) { e.UInt16(s.V) })
		e.Field("t", func(e *jx.Encoder) { e.UInt16(s.T) })
		e.Field("finex", func(e *jx.Encoder) { e.UInt8(s.FineX) })
		e.Field("w", func(e *jx.Encoder) { e.Bool(s.W) })
		e.Field("oam", func(e *jx.Encoder) { e.Base64(s.OAM[:]) })
		e.Field("palette", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, v := range s.Palette {
					e.UInt8(v)
				}
			})
		})
	})
}

func (s *APU) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.UInt8(s.Status) })
		e.Field("outputs", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, v := range s.Outputs {
					e.UInt8(v)
				}
			})
		})
	})
}

// UnmarshalJSON decodes a snapshot encoded with MarshalJSON.
func (s *Console) UnmarshalJSON(data []byte) error {
	return s.Decode(jx.DecodeBytes(data))
}

func (s *Console) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "region":
			s.Region, err = d.Str()
		case "mapper":
			s.Mapper, err = d.Str()
		case "frames":
			s.Frames, err = d.UInt64()
		case "cpu":
			err = s.CPU.Decode(d)
		case "ppu":
			err = s.PPU.Decode(d)
		case "apu":
			err = s.APU.Decode(d)
		case "ram":
			err = decodeBytes(d, s.RAM[:])
		default:
			err = d.Skip()
		}
		return wrapField(err, key)
	})
}

func (s *CPU) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "pc":
			s.PC, err = d.UInt16()
		case "a":
			s.A, err = d.UInt8()
		case "x":
			s.X, err = d.UInt8()
		case "y":
			s.Y, err = d.UInt8()
		case "sp":
			s.SP, err = d.UInt8()
		case "p":
			s.P, err = d.UInt8()
		case "cycles":
			s.Cycles, err = d.Int64()
		case "halted":
			s.Halted, err = d.Bool()
		default:
			err = d.Skip()
		}
		return wrapField(err, key)
	})
}

func (s *PPU) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "scanline":
			s.Scanline, err = d.Int()
		case "cycle":
			s.Cycle, err = d.Int()
		case "ppuctrl":
			s.PPUCTRL, err = d.UInt8()
		case "ppumask":
			s.PPUMASK, err = d.UInt8()
		case "ppustatus":
			s.PPUSTATUS, err = d.UInt8()
		case "oamaddr":
			s.OAMADDR, err = d.UInt8()
		case "v":
			s.V, err = d.UInt16()
		case "t":
			s.T, err = d.UInt16()
		case "finex":
			s.FineX, err = d.UInt8()
		case "w":
			s.W, err = d.Bool()
		case "oam":
			err = decodeBytes(d, s.OAM[:])
		case "palette":
			err = decodeArray(d, s.Palette[:])
		default:
			err = d.Skip()
		}
		return wrapField(err, key)
	})
}

func (s *APU) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "status":
			s.Status, err = d.UInt8()
		case "outputs":
			err = decodeArray(d, s.Outputs[:])
		default:
			err = d.Skip()
		}
		return wrapField(err, key)
	})
}

// decodeBytes decodes a base64 string into dst, which must have the exact
// decoded length.
func decodeBytes(d *jx.Decoder, dst []byte) error {
	buf, err := d.Base64()
	if err != nil {
		return err
	}
	if len(buf) != len(dst) {
		return errors.Errorf("got %d bytes, want %d", len(buf), len(dst))
	}
	copy(dst, buf)
	return nil
}

// decodeArray decodes an array of bytes into dst, which must have the exact
// array length.
func decodeArray(d *jx.Decoder, dst []byte) error {
	n := 0
	err := d.Arr(func(d *jx.Decoder) error {
		v, err := d.UInt8()
		if err != nil {
			return err
		}
		if n < len(dst) {
			dst[n] = v
		}
		n++
		return nil
	})
	if err != nil {
		return err
	}
	if n != len(dst) {
		return errors.Errorf("got %d elements, want %d", n, len(dst))
	}
	return nil
}

func wrapField(err error, key string) error {
	if err != nil {
		return errors.Wrapf(err, "%q", key)
	}
	return nil
}
