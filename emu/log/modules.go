package log

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// A Module is a named log source. Debug and info entries of a module are only
// emitted once its bit is set in the debug mask.
type Module uint

type ModuleMask uint64

const ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF

const (
	ModEmu Module = iota + 1
	ModCPU
	ModMem
	ModHwIo
	ModPPU
	ModDMA
	ModInput
	ModSound

	endStandardMods
)

// registry of module names, indexed by Module. Index 0 is never a valid
// module. Packages register extra modules with NewModule at init time.
var modules = []string{
	"<error>", "emu", "cpu", "mem", "hwio", "ppu", "dma", "input", "sound",
}

var debugMask atomic.Uint64

// NewModule registers a new module. It must be called during package
// initialization.
func NewModule(name string) Module {
	if len(modules) >= 64 {
		panic("log: too many modules")
	}
	modules = append(modules, name)
	return Module(len(modules) - 1)
}

// ModuleByName returns the module registered under name.
func ModuleByName(name string) (Module, bool) {
	for idx := 1; idx < len(modules); idx++ {
		if modules[idx] == name {
			return Module(idx), true
		}
	}
	return 0, false
}

// ModuleNames returns the names of all registered modules.
func ModuleNames() []string {
	return append([]string(nil), modules[1:]...)
}

// ParseModules parses a list of module names into a mask. "all" selects every
// module. "no" selects none and can't be combined with other names, in which
// case disable is true.
func ParseModules(names []string) (mask ModuleMask, disable bool, err error) {
	all := false
	for _, name := range names {
		switch name = strings.TrimSpace(name); name {
		case "":
		case "all":
			all = true
		case "no":
			disable = true
		default:
			mod, ok := ModuleByName(name)
			if !ok {
				return 0, false, fmt.Errorf("unknown log module %q", name)
			}
			mask |= mod.Mask()
		}
	}

	switch {
	case disable && (all || mask != 0):
		return 0, false, fmt.Errorf("log module 'no' can't be combined with other modules")
	case all:
		mask = ModuleMaskAll
	}
	return mask, disable, nil
}

func EnableDebugModules(mask ModuleMask) {
	for {
		old := debugMask.Load()
		if debugMask.CompareAndSwap(old, old|uint64(mask)) {
			return
		}
	}
}

func DisableDebugModules(mask ModuleMask) {
	for {
		old := debugMask.Load()
		if debugMask.CompareAndSwap(old, old&^uint64(mask)) {
			return
		}
	}
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) String() string {
	if int(mod) < len(modules) {
		return modules[mod]
	}
	return modules[0]
}

func (mod Module) Enabled(level Level) bool {
	if disabled.Load() {
		return false
	}
	return level <= WarnLevel || ModuleMask(debugMask.Load())&mod.Mask() != 0
}

func (mod Module) logf(lvl Level, format string, args ...any) {
	if mod.Enabled(lvl) {
		emit(mod, lvl, nil, fmt.Sprintf(format, args...))
	}
}

func (mod Module) Debugf(format string, args ...any) { mod.logf(DebugLevel, format, args...) }
func (mod Module) Infof(format string, args ...any)  { mod.logf(InfoLevel, format, args...) }
func (mod Module) Warnf(format string, args ...any)  { mod.logf(WarnLevel, format, args...) }
func (mod Module) Errorf(format string, args ...any) { mod.logf(ErrorLevel, format, args...) }
func (mod Module) Fatalf(format string, args ...any) { mod.logf(FatalLevel, format, args...) }

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if !mod.Enabled(lvl) {
		return nil
	}
	e := entryPool.Get().(*EntryZ)
	e.mod, e.lvl, e.msg = mod, lvl, msg
	e.nfields = 0
	return e
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
