package cpu

import "testing"

// TestShifterCarryLaw checks the LSL/LSR/ASR/ROR carry-out formulas against
// spec §4.5's table for the four boundary cases every barrel shifter
// implementation has to get right: n=0, 0<n<32, n=32, n>32 (spec §8's
// "shifter carry law" testable property).
func TestShifterCarryLaw(t *testing.T) {
	rm := uint32(0x80000001)

	cases := []struct {
		name     string
		fn       func() shifterResult
		wantVal  uint32
		wantCOut bool
	}{
		{"LSL#0", func() shifterResult { return shiftLSL(rm, 0, false, true) }, rm, true},
		{"LSL#1", func() shifterResult { return shiftLSL(rm, 1, false, false) }, rm << 1, true}, // bit31 shifted out
		{"LSL#32", func() shifterResult { return shiftLSL(rm, 32, true, false) }, 0, true},       // bit0 of rm
		{"LSL#33", func() shifterResult { return shiftLSL(rm, 33, true, false) }, 0, false},

		{"LSR#0(imm->LSR#32)", func() shifterResult { return shiftLSR(rm, 0, false, true) }, 0, true}, // bit31
		{"LSR#0(reg)", func() shifterResult { return shiftLSR(rm, 0, true, true) }, rm, true},
		{"LSR#1", func() shifterResult { return shiftLSR(rm, 1, false, false) }, rm >> 1, true}, // bit0 of rm
		{"LSR#32", func() shifterResult { return shiftLSR(rm, 32, true, false) }, 0, true},       // bit31
		{"LSR#33", func() shifterResult { return shiftLSR(rm, 33, true, false) }, 0, false},

		{"ASR#0(imm->ASR#32,neg)", func() shifterResult { return shiftASR(rm, 0, false, false) }, 0xFFFFFFFF, true},
		{"ASR#1,neg", func() shifterResult { return shiftASR(rm, 1, false, false) }, uint32(int32(rm) >> 1), true},
		{"ASR#32,pos", func() shifterResult { return shiftASR(0x40000000, 32, true, false) }, 0, false},
		{"ASR#40,neg", func() shifterResult { return shiftASR(rm, 40, true, false) }, 0xFFFFFFFF, true},

		{"ROR#0->RRX,C=1", func() shifterResult { return shiftRRX(rm, true) }, 0x80000000 | (rm >> 1), true},
		{"ROR#0->RRX,C=0", func() shifterResult { return shiftRRX(rm, false) }, rm >> 1, true},
		{"ROR#4", func() shifterResult { return shiftROR(0x00000010, 4, false, false) }, 1, false},
		{"ROR#32(reg)", func() shifterResult { return shiftROR(rm, 32, true, false) }, rm, true}, // bit31
		{"ROR#36(reg)", func() shifterResult { return shiftROR(rm, 36, true, false) }, 0x18000000, false}, // rotate-by-4 equivalent; carry = bit3 of rm (0)
	}

	for _, c := range cases {
		got := c.fn()
		if got.Value != c.wantVal {
			t.Errorf("%s: value = %#x, want %#x", c.name, got.Value, c.wantVal)
		}
		if got.CarryOut != c.wantCOut {
			t.Errorf("%s: carry = %v, want %v", c.name, got.CarryOut, c.wantCOut)
		}
	}
}

func TestEvalOperand2Immediate(t *testing.T) {
	c := &CPU{regs: NewRegisters()}
	c.regs.SetCPSR(c.regs.CPSR().SetC(true))

	// rotate=0: carry-out is the old C flag, unchanged.
	r := c.evalOperand2(Operand2{Imm: true, ImmValue: 0xFF, Rotate: 0})
	if r.Value != 0xFF || !r.CarryOut {
		t.Fatalf("rotate=0: got value=%#x carry=%v", r.Value, r.CarryOut)
	}

	// rotate=8 (rotate right by 16): 0x000000FF ROR 16 = 0x00FF0000, carry = bit31 of result.
	r = c.evalOperand2(Operand2{Imm: true, ImmValue: 0xFF, Rotate: 8})
	if r.Value != 0x00FF0000 {
		t.Fatalf("rotate=8: got value=%#x, want 0x00ff0000", r.Value)
	}
	if r.CarryOut {
		t.Fatalf("rotate=8: carry should be bit31 of result (0), got true")
	}
}
