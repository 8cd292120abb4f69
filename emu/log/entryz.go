package log

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

const maxZFields = 16

type fieldKind uint8

const (
	kindBool fieldKind = iota
	kindString
	kindHex
	kindInt
	kindUint
	kindError
	kindDuration
	kindStringer
)

// A zfield holds a value until the entry is emitted, so that a discarded
// entry is never formatted.
type zfield struct {
	key   string
	kind  fieldKind
	width int // number of hex digits
	num   uint64
	str   string
	iface any
}

func (f *zfield) value() string {
	switch f.kind {
	case kindBool:
		return strconv.FormatBool(f.num != 0)
	case kindString:
		return f.str
	case kindHex:
		s := strconv.FormatUint(f.num, 16)
		if pad := f.width - len(s); pad > 0 {
			s = strings.Repeat("0", pad) + s
		}
		return s
	case kindInt:
		return strconv.FormatInt(int64(f.num), 10)
	case kindUint:
		return strconv.FormatUint(f.num, 10)
	case kindError:
		if f.iface == nil {
			return "<nil>"
		}
		return f.iface.(error).Error()
	case kindDuration:
		return time.Duration(f.num).String()
	case kindStringer:
		return f.iface.(fmt.Stringer).String()
	}
	return ""
}

// EntryZ is a log entry that is built field by field and emitted with End.
// All methods are nil-safe: a disabled module returns a nil *EntryZ and every
// call on it is a no-op.
type EntryZ struct {
	mod     Module
	lvl     Level
	msg     string
	fields  [maxZFields]zfield
	nfields int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func (z *EntryZ) add(f zfield) *EntryZ {
	if z == nil {
		return nil
	}
	if z.nfields < len(z.fields) {
		z.fields[z.nfields] = f
		z.nfields++
	}
	return z
}

func (z *EntryZ) Bool(key string, v bool) *EntryZ {
	f := zfield{key: key, kind: kindBool}
	if v {
		f.num = 1
	}
	return z.add(f)
}

func (z *EntryZ) String(key, v string) *EntryZ {
	return z.add(zfield{key: key, kind: kindString, str: v})
}

func (z *EntryZ) Hex8(key string, v uint8) *EntryZ {
	return z.add(zfield{key: key, kind: kindHex, width: 2, num: uint64(v)})
}

func (z *EntryZ) Hex16(key string, v uint16) *EntryZ {
	return z.add(zfield{key: key, kind: kindHex, width: 4, num: uint64(v)})
}

func (z *EntryZ) Int(key string, v int) *EntryZ {
	return z.add(zfield{key: key, kind: kindInt, num: uint64(v)})
}

func (z *EntryZ) Int64(key string, v int64) *EntryZ {
	return z.add(zfield{key: key, kind: kindInt, num: uint64(v)})
}

func (z *EntryZ) Uint8(key string, v uint8) *EntryZ {
	return z.add(zfield{key: key, kind: kindUint, num: uint64(v)})
}

func (z *EntryZ) Uint16(key string, v uint16) *EntryZ {
	return z.add(zfield{key: key, kind: kindUint, num: uint64(v)})
}

func (z *EntryZ) Uint64(key string, v uint64) *EntryZ {
	return z.add(zfield{key: key, kind: kindUint, num: v})
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	f := zfield{key: key, kind: kindError}
	if err != nil {
		f.iface = err
	}
	return z.add(f)
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	return z.add(zfield{key: key, kind: kindDuration, num: uint64(d)})
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	return z.add(zfield{key: key, kind: kindStringer, iface: s})
}

// End emits the entry and releases it.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	fields := make(logrus.Fields, z.nfields+1)
	for i := range z.fields[:z.nfields] {
		fields[z.fields[i].key] = z.fields[i].value()
	}
	emit(z.mod, z.lvl, fields, z.msg)

	clear(z.fields[:z.nfields])
	entryPool.Put(z)
}
