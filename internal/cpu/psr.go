package cpu

import "gbacpu/internal/bitutil"

// Mode is one of the seven legal ARM7TDMI processor modes (the mode field
// of CPSR/SPSR, bits 4..0).
type Mode uint8

const (
	ModeUser       Mode = 0b10000
	ModeFIQ        Mode = 0b10001
	ModeIRQ        Mode = 0b10010
	ModeSupervisor Mode = 0b10011
	ModeAbort      Mode = 0b10111
	ModeUndefined  Mode = 0b11011
	ModeSystem     Mode = 0b11111
)

// IsLegal reports whether m is one of the seven architecturally defined
// mode encodings. Any other 5-bit value is unpredictable per spec §4.3.
func (m Mode) IsLegal() bool {
	switch m {
	case ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "USR"
	case ModeFIQ:
		return "FIQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSupervisor:
		return "SVC"
	case ModeAbort:
		return "ABT"
	case ModeUndefined:
		return "UND"
	case ModeSystem:
		return "SYS"
	default:
		return "???"
	}
}

// PSR is a packed 32-bit Current/Saved Program Status Register. Bit layout
// per spec §3: 31/30/29/28 = N/Z/C/V, 7 = I, 6 = F, 5 = T, 4..0 = mode.
type PSR uint32

func (p PSR) N() bool { return bitutil.Bit(uint32(p), 31) }
func (p PSR) Z() bool { return bitutil.Bit(uint32(p), 30) }
func (p PSR) C() bool { return bitutil.Bit(uint32(p), 29) }
func (p PSR) V() bool { return bitutil.Bit(uint32(p), 28) }
func (p PSR) I() bool { return bitutil.Bit(uint32(p), 7) }
func (p PSR) F() bool { return bitutil.Bit(uint32(p), 6) }
func (p PSR) T() bool { return bitutil.Bit(uint32(p), 5) }

func (p PSR) Mode() Mode { return Mode(bitutil.Bits(uint32(p), 0, 5)) }

func (p PSR) SetN(v bool) PSR { return PSR(bitutil.SetBit(uint32(p), 31, v)) }
func (p PSR) SetZ(v bool) PSR { return PSR(bitutil.SetBit(uint32(p), 30, v)) }
func (p PSR) SetC(v bool) PSR { return PSR(bitutil.SetBit(uint32(p), 29, v)) }
func (p PSR) SetV(v bool) PSR { return PSR(bitutil.SetBit(uint32(p), 28, v)) }
func (p PSR) SetI(v bool) PSR { return PSR(bitutil.SetBit(uint32(p), 7, v)) }
func (p PSR) SetF(v bool) PSR { return PSR(bitutil.SetBit(uint32(p), 6, v)) }
func (p PSR) SetT(v bool) PSR { return PSR(bitutil.SetBit(uint32(p), 5, v)) }

func (p PSR) SetMode(m Mode) PSR {
	return PSR(bitutil.SetBits(uint32(p), 0, 5, uint32(m)))
}

// IsPrivileged reports whether the PSR's mode is anything but User.
func (p PSR) IsPrivileged() bool { return p.Mode() != ModeUser }

// HasSPSR reports whether this mode banks a private SPSR (all modes except
// User and System do).
func (p PSR) HasSPSR() bool {
	m := p.Mode()
	return m != ModeUser && m != ModeSystem
}

// ToBits returns the raw 32-bit encoding.
func (p PSR) ToBits() uint32 { return uint32(p) }

// SetBits applies an MSR-style field write over [lo, hi).
func (p PSR) SetBits(lo, hi uint, value uint32) PSR {
	return PSR(bitutil.SetBits(uint32(p), lo, hi, value))
}
