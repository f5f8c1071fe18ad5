package cpu

import (
	"fmt"
	"strings"

	"gbacpu/internal/bitutil"
)

// Disassemble renders a decoded Instruction as GNU-style ARM assembly text,
// e.g. "movs r0, #1" or "ldreq r1, [r2, #4]!". The condition suffix is
// elided for AL, matching the convention every disassembler in the
// retrieved pack follows - an unconditional instruction is simply printed
// without one, not with "al" appended.
//
// Grounded on original_source/src/instruction.rs's Display impl (the only
// disassembler anywhere in the pack, covering condition/S-bit suffixing and
// per-family operand formatting); translated here from Rust format! calls
// into Go's fmt.Sprintf and extended to every family that file only stubs
// with a mnemonic (multiply, multiply-long, halfword, block transfer, swap,
// SWI, coprocessor).
func Disassemble(instr Instruction) string {
	switch v := instr.(type) {
	case Branch:
		mnemonic := "b"
		if v.Link {
			mnemonic = "bl"
		}
		return fmt.Sprintf("%s%s\t#%d", mnemonic, condSuffix(v.Cond), v.Delta)

	case BranchExchange:
		return fmt.Sprintf("bx%s\t%s", condSuffix(v.Cond), reg(v.Rm))

	case DataProcessing:
		s := ""
		if v.S && !v.Op.IsTest() {
			s = "s"
		}
		mnemonic := strings.ToLower(v.Op.String())
		switch {
		case v.Op.IsTest():
			return fmt.Sprintf("%s%s\t%s, %s", mnemonic, condSuffix(v.Cond), reg(v.Rn), formatOperand2(v.Operand2))
		case v.Op.IsUnary():
			return fmt.Sprintf("%s%s%s\t%s, %s", mnemonic, condSuffix(v.Cond), s, reg(v.Rd), formatOperand2(v.Operand2))
		default:
			return fmt.Sprintf("%s%s%s\t%s, %s, %s", mnemonic, condSuffix(v.Cond), s, reg(v.Rd), reg(v.Rn), formatOperand2(v.Operand2))
		}

	case Multiply:
		mnemonic := "mul"
		if v.Op == MulMLA {
			mnemonic = "mla"
		}
		s := ""
		if v.S {
			s = "s"
		}
		if v.Op == MulMLA {
			return fmt.Sprintf("%s%s%s\t%s, %s, %s, %s", mnemonic, condSuffix(v.Cond), s, reg(v.Rd), reg(v.Rm), reg(v.Rs), reg(v.Rn))
		}
		return fmt.Sprintf("%s%s%s\t%s, %s, %s", mnemonic, condSuffix(v.Cond), s, reg(v.Rd), reg(v.Rm), reg(v.Rs))

	case MultiplyLong:
		names := [...]string{"umull", "umlal", "smull", "smlal"}
		s := ""
		if v.S {
			s = "s"
		}
		return fmt.Sprintf("%s%s%s\t%s, %s, %s, %s", names[v.Op], condSuffix(v.Cond), s, reg(v.RdLo), reg(v.RdHi), reg(v.Rm), reg(v.Rs))

	case MRS:
		psr := "cpsr"
		if v.FromSPSR {
			psr = "spsr"
		}
		return fmt.Sprintf("mrs%s\t%s, %s", condSuffix(v.Cond), reg(v.Rd), psr)

	case MSR:
		psr := "cpsr"
		if v.ToSPSR {
			psr = "spsr"
		}
		psr += formatMSRFields(v.Fields)
		if v.Imm {
			return fmt.Sprintf("msr%s\t%s, #%d", condSuffix(v.Cond), psr, v.ImmValue)
		}
		return fmt.Sprintf("msr%s\t%s, %s", condSuffix(v.Cond), psr, reg(v.Rm))

	case HalfwordTransfer:
		return fmt.Sprintf("%s%s\t%s, %s", strings.ToLower(v.Op.String()), condSuffix(v.Cond), reg(v.Rd), formatMode3(v.Rn, v.U, v.Discipline, v.Offset))

	case LoadStore:
		mnemonic := "str"
		if v.L {
			mnemonic = "ldr"
		}
		b := ""
		if v.B {
			b = "b"
		}
		t := ""
		if v.T {
			t = "t"
		}
		return fmt.Sprintf("%s%s%s%s\t%s, %s", mnemonic, condSuffix(v.Cond), b, t, reg(v.Rd), formatMode2(v.Rn, v.U, v.Discipline, v.Offset))

	case BlockTransfer:
		mnemonic := "stm"
		if v.L {
			mnemonic = "ldm"
		}
		mode := blockAddrMode(v.P, v.U)
		w := ""
		if v.W {
			w = "!"
		}
		caret := ""
		if v.S {
			caret = "^"
		}
		return fmt.Sprintf("%s%s%s\t%s%s, {%s}%s", mnemonic, condSuffix(v.Cond), mode, reg(v.Rn), w, formatRegisterList(v.RegisterList), caret)

	case Swap:
		mnemonic := "swp"
		if v.B {
			mnemonic = "swpb"
		}
		return fmt.Sprintf("%s%s\t%s, %s, [%s]", mnemonic, condSuffix(v.Cond), reg(v.Rd), reg(v.Rm), reg(v.Rn))

	case SWI:
		return fmt.Sprintf("swi%s\t#%#x", condSuffix(v.Cond), v.Comment)

	case Coprocessor:
		names := [...]string{"cdp", "ldc", "stc", "mcr", "mrc"}
		return fmt.Sprintf("%s%s\t#%#08x", names[v.Op], condSuffix(v.Cond), v.Raw)

	default:
		return "<unknown instruction>"
	}
}

func condSuffix(c Cond) string {
	if c == CondAL {
		return ""
	}
	return strings.ToLower(c.String())
}

func reg(n uint8) string {
	switch n {
	case 13:
		return "sp"
	case 14:
		return "lr"
	case 15:
		return "pc"
	default:
		return fmt.Sprintf("r%d", n)
	}
}

func formatOperand2(op Operand2) string {
	if op.Imm {
		value := uint32(op.ImmValue)
		if op.Rotate != 0 {
			value = bitutil.RotateRight32(value, uint(op.Rotate)*2)
		}
		return fmt.Sprintf("#%d", value)
	}
	base := reg(op.Rm)
	if op.Shift == ShiftLSL && !op.ShiftIsReg && op.ShiftAmount == 0 {
		return base
	}
	if op.ShiftIsReg {
		return fmt.Sprintf("%s, %s %s", base, op.Shift.String(), reg(op.Rs))
	}
	if op.Shift == ShiftROR && op.ShiftAmount == 0 {
		return fmt.Sprintf("%s, rrx", base)
	}
	return fmt.Sprintf("%s, %s #%d", base, op.Shift.String(), op.ShiftAmount)
}

func formatMSRFields(fields MSRFieldMask) string {
	var b strings.Builder
	if fields&MSRFieldControl != 0 {
		b.WriteByte('c')
	}
	if fields&MSRFieldExtension != 0 {
		b.WriteByte('x')
	}
	if fields&MSRFieldStatus != 0 {
		b.WriteByte('s')
	}
	if fields&MSRFieldFlags != 0 {
		b.WriteByte('f')
	}
	if b.Len() == 0 {
		return ""
	}
	return "_" + b.String()
}

func formatMode2(rn uint8, u bool, discipline AddrDiscipline, off Mode2Offset) string {
	sign := ""
	if !u {
		sign = "-"
	}
	var offStr string
	if off.Imm {
		offStr = fmt.Sprintf("#%s%d", sign, off.ImmValue)
	} else if off.Shift == ShiftLSL && off.ShiftAmount == 0 {
		offStr = sign + reg(off.Rm)
	} else {
		offStr = fmt.Sprintf("%s%s, %s #%d", sign, reg(off.Rm), off.Shift.String(), off.ShiftAmount)
	}
	return formatAddr(rn, discipline, offStr)
}

func formatMode3(rn uint8, u bool, discipline AddrDiscipline, off Mode3Offset) string {
	sign := ""
	if !u {
		sign = "-"
	}
	var offStr string
	if off.Imm {
		offStr = fmt.Sprintf("#%s%d", sign, off.ImmValue)
	} else {
		offStr = sign + reg(off.Rm)
	}
	return formatAddr(rn, discipline, offStr)
}

func formatAddr(rn uint8, discipline AddrDiscipline, offStr string) string {
	switch discipline {
	case AddrPreIndexed:
		return fmt.Sprintf("[%s, %s]!", reg(rn), offStr)
	case AddrPostIndexed:
		return fmt.Sprintf("[%s], %s", reg(rn), offStr)
	default:
		return fmt.Sprintf("[%s, %s]", reg(rn), offStr)
	}
}

func blockAddrMode(p, u bool) string {
	switch {
	case u && p:
		return "ib"
	case u && !p:
		return "ia"
	case !u && p:
		return "db"
	default:
		return "da"
	}
}

func formatRegisterList(list uint16) string {
	var parts []string
	for r := uint8(0); r < 16; r++ {
		if list&(1<<r) != 0 {
			parts = append(parts, reg(r))
		}
	}
	return strings.Join(parts, ", ")
}

