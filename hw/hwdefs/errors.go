package hwdefs

import (
	"github.com/go-faster/errors"
)

//go:generate go tool stringer -type=Kind

// Kind classifies the errors reported by the emulation core.
type Kind uint8

const (
	// InvalidImage is a malformed cartridge container. Fatal, the cartridge
	// is refused.
	InvalidImage Kind = iota + 1

	// UnsupportedMapper is a cartridge board that is recognized but not
	// emulated. Fatal, reported at load time.
	UnsupportedMapper

	// UnsupportedOpcode is an opcode the CPU doesn't emulate. Depending on
	// the opcode policy it's either executed as a NOP or halts the CPU.
	UnsupportedOpcode

	// BusAddressFault is an access to an address with no device mapped. The
	// memory map covers the whole address space so this is a programming
	// error.
	BusAddressFault
)

// Error is the error type returned by the emulation core.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf creates an error of the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

// Wrap wraps err into an error of the given kind.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

// IsKind reports whether any error in err's chain is of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
