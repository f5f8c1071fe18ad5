// Package cpuerr defines the fatal error categories the core's fail-fast
// model (spec §7) surfaces to the host. Nothing in the core retries or
// recovers from these locally.
package cpuerr

import "fmt"

// DecodeError reports a 32-bit word that matched none of the decoder's 13
// instruction classes (spec §4.4 — the decoder must fail closed).
type DecodeError struct {
	PC   uint32
	Word uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at pc=%#08x: unrecognised instruction %#08x", e.PC, e.Word)
}

// UnpredictableError reports a bit pattern the ARM reference marks
// architecturally unpredictable (an invalid CPSR mode field written by MSR,
// (P=0,W=1) in mode 3, non-boolean IME/POSTFLG/HALTCNT writes). The NV
// condition is not reported through it: such an instruction is skipped.
type UnpredictableError struct {
	PC     uint32
	Reason string
}

func (e *UnpredictableError) Error() string {
	return fmt.Sprintf("unpredictable behavior at pc=%#08x: %s", e.PC, e.Reason)
}

// UnmappedAccessError reports a read or write to an address no device
// claims. internal/bus builds 16- and 32-bit accesses out of byte
// accesses, so every error it returns has Width 8 and the address of the
// faulting byte, not the width and start address of the wider access.
type UnmappedAccessError struct {
	Addr  uint32
	Width int // access width in bits
	Write bool
}

func (e *UnmappedAccessError) Error() string {
	verb := "read"
	if e.Write {
		verb = "write"
	}
	return fmt.Sprintf("unmapped %d-bit %s at address %#08x", e.Width, verb, e.Addr)
}

// UndefinedInstructionError describes an undefined-instruction fault. The
// executor does not return it: coprocessor operations, which the GBA's
// ARM7TDMI has none of, trap to the Undefined vector instead (spec §4.6).
type UndefinedInstructionError struct {
	PC   uint32
	Word uint32
}

func (e *UndefinedInstructionError) Error() string {
	return fmt.Sprintf("undefined instruction at pc=%#08x: %#08x", e.PC, e.Word)
}

// UnimplementedError reports a feature this phase of the core does not
// implement at all - currently only Thumb-state fetch/decode, reserved by
// spec.md as a second decoder following the same pattern as the ARM one.
type UnimplementedError struct {
	PC     uint32
	Reason string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("unimplemented at pc=%#08x: %s", e.PC, e.Reason)
}
