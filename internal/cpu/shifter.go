package cpu

import "gbacpu/internal/bitutil"

// shifterResult is the (value, carry_out) pair every Mode 1 evaluation
// produces (spec §4.5).
type shifterResult struct {
	Value    uint32
	CarryOut bool
}

// evalOperand2 evaluates a Mode 1 (data-processing operand) descriptor
// against the current register file and carry flag, following the table
// in spec §4.5 exactly: immediate rotate, and LSL/LSR/ASR/ROR/RRX with
// their distinct n=0/n<32/n=32/n>32 carry rules. Grounded on
// original_source/src/execute.rs's addr_mode_1, which is the only complete
// reference for this table in the pack (LJS360d-RoBA's calcOp2 only
// partially implemented Mode 1 and underflowed on shift-immediate 0).
func (c *CPU) evalOperand2(op Operand2) shifterResult {
	if op.Imm {
		rotate := uint(op.Rotate) * 2
		value := bitutil.RotateRight32(uint32(op.ImmValue), rotate)
		if rotate == 0 {
			return shifterResult{Value: value, CarryOut: c.regs.CPSR().C()}
		}
		return shifterResult{Value: value, CarryOut: bitutil.Bit(value, 31)}
	}

	rm := c.regs.Read(op.Rm)
	var amount uint32
	if op.ShiftIsReg {
		amount = c.regs.Read(op.Rs) & 0xFF
	} else {
		amount = uint32(op.ShiftAmount)
	}

	switch op.Shift {
	case ShiftLSL:
		return shiftLSL(rm, amount, op.ShiftIsReg, c.regs.CPSR().C())
	case ShiftLSR:
		return shiftLSR(rm, amount, op.ShiftIsReg, c.regs.CPSR().C())
	case ShiftASR:
		return shiftASR(rm, amount, op.ShiftIsReg, c.regs.CPSR().C())
	case ShiftROR:
		if !op.ShiftIsReg && amount == 0 {
			return shiftRRX(rm, c.regs.CPSR().C())
		}
		return shiftROR(rm, amount, op.ShiftIsReg, c.regs.CPSR().C())
	}
	panic("cpu: unreachable shift type")
}

func shiftLSL(rm, n uint32, isReg bool, oldC bool) shifterResult {
	switch {
	case n == 0:
		return shifterResult{Value: rm, CarryOut: oldC}
	case n < 32:
		return shifterResult{Value: rm << n, CarryOut: bitutil.Bit(rm, uint(32-n))}
	case n == 32:
		return shifterResult{Value: 0, CarryOut: bitutil.Bit(rm, 0)}
	default:
		return shifterResult{Value: 0, CarryOut: false}
	}
}

func shiftLSR(rm, n uint32, isReg bool, oldC bool) shifterResult {
	if n == 0 {
		if isReg {
			return shifterResult{Value: rm, CarryOut: oldC}
		}
		// LSR #0 in the immediate encoding means "LSR #32".
		return shifterResult{Value: 0, CarryOut: bitutil.Bit(rm, 31)}
	}
	switch {
	case n < 32:
		return shifterResult{Value: rm >> n, CarryOut: bitutil.Bit(rm, uint(n-1))}
	case n == 32:
		return shifterResult{Value: 0, CarryOut: bitutil.Bit(rm, 31)}
	default:
		return shifterResult{Value: 0, CarryOut: false}
	}
}

func shiftASR(rm, n uint32, isReg bool, oldC bool) shifterResult {
	signed := int32(rm)
	if n == 0 {
		if isReg {
			return shifterResult{Value: rm, CarryOut: oldC}
		}
		n = 32 // ASR #0 in the immediate encoding means "ASR #32".
	}
	if n >= 32 {
		if signed < 0 {
			return shifterResult{Value: 0xFFFFFFFF, CarryOut: true}
		}
		return shifterResult{Value: 0, CarryOut: false}
	}
	return shifterResult{Value: uint32(signed >> n), CarryOut: bitutil.Bit(rm, uint(n-1))}
}

func shiftROR(rm, n uint32, isReg bool, oldC bool) shifterResult {
	if n == 0 { // only reached via the register form per evalOperand2's RRX dispatch
		return shifterResult{Value: rm, CarryOut: oldC}
	}
	if n%32 == 0 { // register form, multiple of 32 but nonzero
		return shifterResult{Value: rm, CarryOut: bitutil.Bit(rm, 31)}
	}
	m := n % 32
	return shifterResult{Value: bitutil.RotateRight32(rm, uint(m)), CarryOut: bitutil.Bit(rm, uint(m-1))}
}

func shiftRRX(rm uint32, oldC bool) shifterResult {
	var c uint32
	if oldC {
		c = 1
	}
	value := (c << 31) | (rm >> 1)
	return shifterResult{Value: value, CarryOut: bitutil.Bit(rm, 0)}
}

// evalMode2Shift evaluates the shift embedded in a Mode 2 scaled-register
// offset. Mode 2 shift amounts are always 5-bit immediates (never a
// register-specified amount), so this always takes the non-register-amount
// branch of the Mode 1 rules, per spec §4.5.
func (c *CPU) evalMode2Shift(rm uint32, shift ShiftType, amount uint8) uint32 {
	switch shift {
	case ShiftLSL:
		return shiftLSL(rm, uint32(amount), false, c.regs.CPSR().C()).Value
	case ShiftLSR:
		return shiftLSR(rm, uint32(amount), false, c.regs.CPSR().C()).Value
	case ShiftASR:
		return shiftASR(rm, uint32(amount), false, c.regs.CPSR().C()).Value
	case ShiftROR:
		if amount == 0 {
			return shiftRRX(rm, c.regs.CPSR().C()).Value
		}
		return shiftROR(rm, uint32(amount), false, c.regs.CPSR().C()).Value
	}
	panic("cpu: unreachable shift type")
}

// evalMode2 computes the effective address and post-instruction base value
// for a word/byte load-store, applying the offset/pre-indexed/post-indexed
// addressing disciplines of spec §3/§4.5.
func (c *CPU) evalMode2(rn uint8, u bool, discipline AddrDiscipline, off Mode2Offset) (effective, newBase uint32) {
	base := c.regs.Read(rn)
	var offsetValue uint32
	if off.Imm {
		offsetValue = uint32(off.ImmValue)
	} else {
		rm := c.regs.Read(off.Rm)
		offsetValue = c.evalMode2Shift(rm, off.Shift, off.ShiftAmount)
	}

	var computed uint32
	if u {
		computed = base + offsetValue
	} else {
		computed = base - offsetValue
	}

	switch discipline {
	case AddrPreIndexed:
		return computed, computed
	case AddrPostIndexed:
		return base, computed
	default: // AddrOffset
		return computed, base
	}
}

// evalMode3 is Mode 2's counterpart for halfword/signed-byte transfers:
// same indexing disciplines, but the offset is restricted to an 8-bit
// immediate or a bare register (spec §3). (P=0,W=1) is rejected by the
// decoder before this is ever called.
func (c *CPU) evalMode3(rn uint8, u bool, discipline AddrDiscipline, off Mode3Offset) (effective, newBase uint32) {
	base := c.regs.Read(rn)
	var offsetValue uint32
	if off.Imm {
		offsetValue = uint32(off.ImmValue)
	} else {
		offsetValue = c.regs.Read(off.Rm)
	}

	var computed uint32
	if u {
		computed = base + offsetValue
	} else {
		computed = base - offsetValue
	}

	switch discipline {
	case AddrPreIndexed:
		return computed, computed
	case AddrPostIndexed:
		return base, computed
	default:
		return computed, base
	}
}
