package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type bankReg struct {
	offset uint16
	regPtr any
}

type tagOpts map[string]string

func parseTag(tag string) tagOpts {
	opts := make(tagOpts)
	for _, kv := range strings.Split(tag, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		opts[k] = v
	}
	return opts
}

func (o tagOpts) uint(key string) (uint64, bool, error) {
	s, ok := o[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s=%q: %v", key, s, err)
	}
	return v, true, nil
}

func structValue(bank any) (reflect.Value, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("hwio: bank must be a pointer to struct, got %T", bank)
	}
	return v.Elem(), nil
}

// bankGetRegs returns the registers of bank having the given bank number.
func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	sv, err := structValue(bank)
	if err != nil {
		return nil, err
	}

	var regs []bankReg
	st := sv.Type()
	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts := parseTag(tag)
		off, ok, err := opts.uint("offset")
		if err != nil {
			return nil, fmt.Errorf("hwio: field %s: %v", f.Name, err)
		}
		if !ok {
			continue
		}
		num, _, err := opts.uint("bank")
		if err != nil {
			return nil, fmt.Errorf("hwio: field %s: %v", f.Name, err)
		}
		if int(num) != bankNum {
			continue
		}
		regs = append(regs, bankReg{
			offset: uint16(off),
			regPtr: sv.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

// InitRegs initializes the Mem, Reg8 and Device fields of the structure
// pointed to by bank, according to their "hwio" struct tag. Besides offset and
// bank (see Table.MapBank), the following options are recognized:
//
//	size=N          Mem: physical size (the buffer is allocated if nil).
//	                Device: size of the address range.
//	vsize=N         Mem: virtual size (defaults to size).
//	reset=N         Reg8: initial value.
//	rwmask=N        Reg8: mask of writable bits (defaults to 0xFF).
//	readonly        Writes are ignored.
//	writeonly       Reads return 0.
//	rcb[=Method]    Read callback. The default method name is "Read" followed
//	                by the upper-cased field name.
//	pcb[=Method]    Peek callback ("Peek" + NAME).
//	wcb[=Method]    Write callback ("Write" + NAME).
//
// Reg8 callbacks have the signatures func(uint8) uint8 (read and peek) and
// func(old, val uint8). Device callbacks are func(uint16) uint8 and
// func(uint16, uint8).
func InitRegs(bank any) error {
	sv, err := structValue(bank)
	if err != nil {
		return err
	}
	bv := reflect.ValueOf(bank)

	st := sv.Type()
	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts := parseTag(tag)
		fptr := sv.Field(i).Addr().Interface()

		var err error
		switch r := fptr.(type) {
		case *Mem:
			err = initMem(r, f.Name, opts)
		case *Reg8:
			err = initReg8(r, f.Name, opts, bv)
		case *Device:
			err = initDevice(r, f.Name, opts, bv)
		default:
			err = fmt.Errorf("unsupported type %T", fptr)
		}
		if err != nil {
			return fmt.Errorf("hwio: field %s: %v", f.Name, err)
		}
	}
	return nil
}

func rwFlags(opts tagOpts) RWFlags {
	var flags RWFlags
	if _, ok := opts["readonly"]; ok {
		flags |= ReadOnlyFlag
	}
	if _, ok := opts["writeonly"]; ok {
		flags |= WriteOnlyFlag
	}
	return flags
}

func initMem(m *Mem, name string, opts tagOpts) error {
	if m.Name == "" {
		m.Name = name
	}
	size, ok, err := opts.uint("size")
	if err != nil {
		return err
	}
	if !ok && m.Data == nil {
		return fmt.Errorf("missing size")
	}
	if m.Data == nil {
		m.Data = make([]byte, size)
	}
	vsize, ok, err := opts.uint("vsize")
	if err != nil {
		return err
	}
	if !ok {
		vsize = uint64(len(m.Data))
	}
	m.VSize = int(vsize)
	m.ReadOnly = rwFlags(opts)&ReadOnlyFlag != 0
	return nil
}

func initReg8(r *Reg8, name string, opts tagOpts, bank reflect.Value) error {
	r.Name = name
	r.Flags = rwFlags(opts)

	reset, _, err := opts.uint("reset")
	if err != nil {
		return err
	}
	r.Value = uint8(reset)

	rwmask, ok, err := opts.uint("rwmask")
	if err != nil {
		return err
	}
	if !ok {
		rwmask = 0xff
	}
	r.RoMask = ^uint8(rwmask)

	if err := lookupCb(bank, opts, "rcb", "Read", name, &r.ReadCb); err != nil {
		return err
	}
	if err := lookupCb(bank, opts, "pcb", "Peek", name, &r.PeekCb); err != nil {
		return err
	}
	return lookupCb(bank, opts, "wcb", "Write", name, &r.WriteCb)
}

func initDevice(d *Device, name string, opts tagOpts, bank reflect.Value) error {
	d.Name = name
	d.Flags = rwFlags(opts)

	size, ok, err := opts.uint("size")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("missing size")
	}
	d.Size = int(size)

	if err := lookupCb(bank, opts, "rcb", "Read", name, &d.ReadCb); err != nil {
		return err
	}
	if err := lookupCb(bank, opts, "pcb", "Peek", name, &d.PeekCb); err != nil {
		return err
	}
	return lookupCb(bank, opts, "wcb", "Write", name, &d.WriteCb)
}

// lookupCb sets *fn to the method of bank named by the tag option key, if
// present.
func lookupCb[F any](bank reflect.Value, opts tagOpts, key, prefix, field string, fn *F) error {
	mname, ok := opts[key]
	if !ok {
		return nil
	}
	if mname == "" {
		mname = prefix + strings.ToUpper(field)
	}
	m := bank.MethodByName(mname)
	if !m.IsValid() {
		return fmt.Errorf("%s: method %s not found", key, mname)
	}
	f, ok := m.Interface().(F)
	if !ok {
		return fmt.Errorf("%s: method %s has type %s, want %T", key, mname, m.Type(), *fn)
	}
	*fn = f
	return nil
}
