// Package cpu implements the ARM7TDMI instruction-set interpreter: the
// register file, program status registers, ARM decoder, addressing-mode
// shifters, executor, and the pipelined tick loop that drives them (spec
// §1/§2). Thumb is reserved (spec Non-goals) - DecodeArm and the executor
// cover the ARM instruction set only.
package cpu

import (
	"gbacpu/internal/cpuerr"
	"gbacpu/internal/interfaces"
	"gbacpu/util/dbg"
)

// IRQLine is the one-bit interrupt signal the CPU core samples at the end
// of every tick (spec §6). The interrupt controller (internal/irq) is the
// only conforming implementation; this narrow interface is what keeps the
// core from depending on the controller's concrete type, per spec §9's
// "explicit mutable arguments... rather than persistent references" note.
type IRQLine interface {
	IsAsserted() bool
}

// CPU is the ARM7TDMI core: register file + PSRs (via Registers), a
// 2-slot address pipeline, and the external Bus/IRQLine collaborators
// (spec §6). Grounded on LJS360d-RoBA/internal/cpu/cpu.go's CPU struct and
// pipeline field, whose Step()/FlushPipeline() pair independently advanced
// PC (leaving them inconsistent with each other); this replaces both with
// a single tick() implementing spec §4.7's 6-step algorithm.
type CPU struct {
	regs *Registers
	bus  interfaces.BusInterface
	irq  IRQLine

	// pipeline holds the two most recently enqueued fetch addresses;
	// pipelineValid tracks which slots hold a real address versus a bubble
	// left behind by a flush (spec §3 "Pipeline" invariant).
	pipeline      [2]uint32
	pipelineValid [2]bool

	// fetchPC is the address the tick loop will enqueue next tick. It is
	// kept distinct from Registers.PC() (which instructions read/write as
	// R15) so the executor's prefetch-biased R15 reads (spec §3) are not
	// disturbed by the pipeline's own bookkeeping.
	fetchPC uint32

	cycles uint64
}

// New constructs a CPU over the given bus and interrupt line, in its
// architectural reset state (spec §4.7 implicitly assumes a reset CPU: PC
// at the BIOS entry vector, Supervisor mode, IRQ/FIQ disabled, ARM state).
func New(bus interfaces.BusInterface, irq IRQLine) *CPU {
	c := &CPU{bus: bus, irq: irq}
	c.Reset()
	return c
}

// Registers exposes the register file for host-side inspection (the
// disassembler, debug tooling, tests). Ordinary emulation never needs to
// reach through this — the executor has c.regs directly.
func (c *CPU) Registers() *Registers { return c.regs }

// Bus returns the memory-map collaborator this CPU was constructed with.
func (c *CPU) Bus() interfaces.BusInterface { return c.bus }

const resetVector = 0x00000000

// Reset restores architectural reset state: a fresh register file at the
// BIOS entry vector in Supervisor mode with IRQ/FIQ disabled, and an empty
// (all-bubble) pipeline.
func (c *CPU) Reset() {
	c.regs = NewRegisters()
	c.regs.SetPC(resetVector)
	c.fetchPC = resetVector
	c.pipeline = [2]uint32{}
	c.pipelineValid = [2]bool{}
	c.cycles = 0
}

// Tick runs exactly one pipeline step (spec §4.7): it records the current
// fetch pointer, advances the 2-slot address pipeline, and - if the
// dequeued slot holds a real address - fetches, decodes, and executes the
// instruction there before advancing or flushing the fetch pointer and
// sampling the IRQ line. It never blocks and always returns (spec §5).
//
// A non-nil error is one of the fail-fast categories in spec §7 (decode
// failure, architectural-unpredictable, or unmapped memory access); the
// host decides whether to halt or keep ticking.
func (c *CPU) Tick() error {
	p := c.fetchPC

	e, eValid := c.pipeline[1], c.pipelineValid[1]
	c.pipeline[1], c.pipelineValid[1] = c.pipeline[0], c.pipelineValid[0]
	c.pipeline[0], c.pipelineValid[0] = p, true

	branched := false
	if eValid {
		if err := c.executeAt(e); err != nil {
			return err
		}
		branched = c.regs.PC() != e
	}

	step := uint32(4)
	if c.regs.CPSR().T() {
		step = 2
	}

	// spec §4.7 step 4: if execution left PC equal to P (no branch), the
	// fetch pointer advances from P by one instruction width - never from
	// E, the address that was just executed - or it regresses behind
	// addresses already fetched and every instruction past the first is
	// re-executed.
	if eValid && branched {
		c.fetchPC = c.regs.PC()
		c.pipeline = [2]uint32{}
		c.pipelineValid = [2]bool{}
	} else {
		c.fetchPC = p + step
	}

	c.cycles++

	if c.irq != nil && c.irq.IsAsserted() && !c.regs.CPSR().I() {
		c.takeIRQ()
	}
	return nil
}

// executeAt fetches, decodes, and executes the instruction at addr. It
// sets Registers.PC() to addr for the duration so that a source operand
// read of R15 observes the architectural prefetch offset (addr+8 ARM,
// addr+4 Thumb) exactly as spec §3/§4.2 require.
func (c *CPU) executeAt(addr uint32) error {
	c.regs.SetPC(addr)

	if c.regs.CPSR().T() {
		return &cpuerr.UnimplementedError{PC: addr, Reason: "thumb instruction decode (spec Non-goal)"}
	}

	word, err := c.bus.Read32(addr)
	if err != nil {
		return err
	}
	instr, err := DecodeArm(word)
	if err != nil {
		setErrPC(err, addr)
		return err
	}
	if err := c.executeArm(instr, addr, word); err != nil {
		setErrPC(err, addr)
		return err
	}
	return nil
}

// setErrPC fills in the PC field of the fail-fast error categories that
// carry one (spec §7), so callers need not thread addr through every
// return path that can produce one.
func setErrPC(err error, addr uint32) {
	switch e := err.(type) {
	case *cpuerr.DecodeError:
		e.PC = addr
	case *cpuerr.UnpredictableError:
		e.PC = addr
	case *cpuerr.UndefinedInstructionError:
		e.PC = addr
	}
}

// takeIRQ implements spec §4.7 step 6: save PC+4 to R14_irq, copy CPSR to
// SPSR_irq, switch to IRQ mode, clear T, set I, leave F unchanged, and jump
// to vector 0x18. By the time this runs, Tick has already set fetchPC to
// the next address the pipeline will fetch (p+step, or the branch target
// after a flush), with no +8/+4 prefetch bias; R14_irq receives that
// address plus 4.
func (c *CPU) takeIRQ() {
	lr := c.fetchPC + 4
	c.enterException(ModeIRQ, 0x18, lr)
}

// enterException is the shared exception-entry sequence spec §4.6/§4.7
// describe for SWI, Undefined, and IRQ: bank the old CPSR into the new
// mode's SPSR, switch mode, clear T, set I (F is untouched - this core
// never raises FIQ), and jump to the vector. No reference implementation
// of the IRQ handler body existed anywhere in the retrieved pack (the
// Rust original leaves it as a comment); this follows spec §4.7 step 6
// directly.
func (c *CPU) enterException(mode Mode, vector uint32, lr uint32) {
	old := c.regs.CPSR()
	c.regs.SetMode(mode)
	c.regs.SetSPSR(old)
	c.regs.Write(14, lr)
	next := old.SetMode(mode).SetT(false).SetI(true)
	c.regs.SetCPSR(next)
	c.regs.SetPC(vector)
	c.fetchPC = vector
	c.pipeline = [2]uint32{}
	c.pipelineValid = [2]bool{}
}

func (c *CPU) diagNV(addr uint32) {
	dbg.Printf("cpu: NV condition at pc=%#08x treated as never-execute\n", addr)
}

var _ interfaces.CPUInterface = (*CPU)(nil)
