package apu

// envelope generates the volume of the pulse and noise channels: either a
// constant volume or a sawtooth decaying from 15 to 0, optionally looping.
type envelope struct {
	constant bool
	param    uint8 // constant volume, or decay divider period

	start   bool
	divider uint8
	decay   uint8
}

// write handles the low 5 bits of $4000/$4004/$400C.
func (env *envelope) write(val uint8) {
	env.constant = val&0x10 != 0
	env.param = val & 0x0F
}

func (env *envelope) volume() uint8 {
	if env.constant {
		return env.param
	}
	return env.decay
}

// tick is called on every quarter frame.
func (env *envelope) tick(loop bool) {
	switch {
	case env.start:
		env.start = false
		env.decay = 15
		env.divider = env.param
	case env.divider > 0:
		env.divider--
	default:
		env.divider = env.param
		switch {
		case env.decay > 0:
			env.decay--
		case loop:
			env.decay = 15
		}
	}
}
