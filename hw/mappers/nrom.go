package mappers

var NROM = MapperDesc{
	Name: "NROM",
	New:  newNROM,
}

// NROM has no bank switching: 16KB PRG ROM is mirrored at $8000 and $C000,
// 32KB fills the whole range.
type nrom struct {
	*base
}

func newNROM(b *base) Mapper {
	return &nrom{base: b}
}
