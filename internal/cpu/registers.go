package cpu

// Registers is the ARM7TDMI register file: 16 logical registers redirected
// to physical banked slots by current mode (spec §3/§4.2). Banking is
// implemented as direct switch-on-mode dispatch over dedicated struct
// fields — a (mode, index) -> physical slot mapping, never a value copy on
// mode transition — following LJS360d-RoBA's internal/cpu/registers.go.
type Registers struct {
	// R0-R7: never banked.
	r0_7 [8]uint32

	// R8-R12: banked only in FIQ mode.
	r8_12     [5]uint32
	r8_12_fiq [5]uint32

	// R13 (SP) / R14 (LR): banked in every exception mode; System shares
	// the User bank.
	spUsr, lrUsr uint32
	spSvc, lrSvc uint32
	spAbt, lrAbt uint32
	spUnd, lrUnd uint32
	spIrq, lrIrq uint32
	spFiq, lrFiq uint32

	pc uint32 // raw PC — unbiased; see PC()/Read(15)

	cpsr PSR

	spsrSvc, spsrAbt, spsrUnd, spsrIrq, spsrFiq PSR
}

// NewRegisters returns a register file in its architectural reset state:
// Supervisor mode, IRQ and FIQ disabled, ARM state.
func NewRegisters() *Registers {
	regs := &Registers{}
	regs.cpsr = PSR(0).SetMode(ModeSupervisor).SetI(true).SetF(true)
	return regs
}

// Mode returns the current processor mode (read from CPSR's mode field).
func (r *Registers) Mode() Mode { return r.cpsr.Mode() }

// SetMode switches the banking view. R0-R7 (and R8-R12 outside FIQ) and R15
// pass through unchanged; the CPSR's mode field is updated to m.
func (r *Registers) SetMode(m Mode) {
	r.cpsr = r.cpsr.SetMode(m)
}

// CPSR returns the current program status register.
func (r *Registers) CPSR() PSR { return r.cpsr }

// SetCPSR replaces the current program status register wholesale.
func (r *Registers) SetCPSR(p PSR) { r.cpsr = p }

// SPSR returns the saved PSR for the current mode and whether the current
// mode banks one at all (User/System do not, per spec §3).
func (r *Registers) SPSR() (PSR, bool) {
	switch r.Mode() {
	case ModeSupervisor:
		return r.spsrSvc, true
	case ModeAbort:
		return r.spsrAbt, true
	case ModeUndefined:
		return r.spsrUnd, true
	case ModeIRQ:
		return r.spsrIrq, true
	case ModeFIQ:
		return r.spsrFiq, true
	default:
		return 0, false
	}
}

// SetSPSR writes the saved PSR for the current mode. A no-op when the
// current mode has no SPSR.
func (r *Registers) SetSPSR(p PSR) {
	switch r.Mode() {
	case ModeSupervisor:
		r.spsrSvc = p
	case ModeAbort:
		r.spsrAbt = p
	case ModeUndefined:
		r.spsrUnd = p
	case ModeIRQ:
		r.spsrIrq = p
	case ModeFIQ:
		r.spsrFiq = p
	}
}

// pcBias returns the prefetch offset the architecture adds when R15 is
// read as a source operand: +8 in ARM state, +4 in Thumb state.
func (r *Registers) pcBias() uint32 {
	if r.cpsr.T() {
		return 4
	}
	return 8
}

// PC returns the raw PC with no prefetch bias applied: the address the tick
// loop set before executing the current instruction, or a branch target
// written through R15. The tick loop's own fetch pointer is kept
// separately. Use Read(15) to obtain the architectural PC+8/+4 value
// software observes when R15 is used as a data operand.
func (r *Registers) PC() uint32 { return r.pc }

// SetPC installs a new raw PC (used by the tick loop; ordinary
// instructions branch by calling Write(15, v), which sets the same field).
func (r *Registers) SetPC(v uint32) { r.pc = v }

// Read returns the value of logical register reg (0..15) under the current
// mode's banking view.
func (r *Registers) Read(reg uint8) uint32 {
	switch {
	case reg == 15:
		return r.pc + r.pcBias()
	case reg <= 7:
		return r.r0_7[reg]
	case reg <= 12:
		if r.Mode() == ModeFIQ {
			return r.r8_12_fiq[reg-8]
		}
		return r.r8_12[reg-8]
	case reg == 13:
		return r.readBankedSP()
	case reg == 14:
		return r.readBankedLR()
	default:
		panic("cpu: register index out of range")
	}
}

// Write mutates the currently banked physical slot for reg. Writing R15 is
// the only way ordinary instructions cause a branch — it installs a new raw
// PC with no bias applied.
func (r *Registers) Write(reg uint8, v uint32) {
	switch {
	case reg == 15:
		r.pc = v
	case reg <= 7:
		r.r0_7[reg] = v
	case reg <= 12:
		if r.Mode() == ModeFIQ {
			r.r8_12_fiq[reg-8] = v
		} else {
			r.r8_12[reg-8] = v
		}
	case reg == 13:
		r.writeBankedSP(v)
	case reg == 14:
		r.writeBankedLR(v)
	default:
		panic("cpu: register index out of range")
	}
}

func (r *Registers) readBankedSP() uint32 {
	switch r.Mode() {
	case ModeSupervisor:
		return r.spSvc
	case ModeAbort:
		return r.spAbt
	case ModeUndefined:
		return r.spUnd
	case ModeIRQ:
		return r.spIrq
	case ModeFIQ:
		return r.spFiq
	default:
		return r.spUsr
	}
}

func (r *Registers) writeBankedSP(v uint32) {
	switch r.Mode() {
	case ModeSupervisor:
		r.spSvc = v
	case ModeAbort:
		r.spAbt = v
	case ModeUndefined:
		r.spUnd = v
	case ModeIRQ:
		r.spIrq = v
	case ModeFIQ:
		r.spFiq = v
	default:
		r.spUsr = v
	}
}

func (r *Registers) readBankedLR() uint32 {
	switch r.Mode() {
	case ModeSupervisor:
		return r.lrSvc
	case ModeAbort:
		return r.lrAbt
	case ModeUndefined:
		return r.lrUnd
	case ModeIRQ:
		return r.lrIrq
	case ModeFIQ:
		return r.lrFiq
	default:
		return r.lrUsr
	}
}

func (r *Registers) writeBankedLR(v uint32) {
	switch r.Mode() {
	case ModeSupervisor:
		r.lrSvc = v
	case ModeAbort:
		r.lrAbt = v
	case ModeUndefined:
		r.lrUnd = v
	case ModeIRQ:
		r.lrIrq = v
	case ModeFIQ:
		r.lrFiq = v
	default:
		r.lrUsr = v
	}
}

// ReadUser and WriteUser bypass the current mode's banking and always
// address the User/System register bank, regardless of the CPU's current
// mode. Used by the LDM/STM variant-2 (user-bank transfer) executor per
// spec §4.6 — it "transfers the user-mode register bank regardless of
// current mode."
func (r *Registers) ReadUser(reg uint8) uint32 {
	switch {
	case reg == 15:
		return r.pc + r.pcBias()
	case reg <= 7:
		return r.r0_7[reg]
	case reg <= 12:
		return r.r8_12[reg-8]
	case reg == 13:
		return r.spUsr
	case reg == 14:
		return r.lrUsr
	default:
		panic("cpu: register index out of range")
	}
}

func (r *Registers) WriteUser(reg uint8, v uint32) {
	switch {
	case reg == 15:
		r.pc = v
	case reg <= 7:
		r.r0_7[reg] = v
	case reg <= 12:
		r.r8_12[reg-8] = v
	case reg == 13:
		r.spUsr = v
	case reg == 14:
		r.lrUsr = v
	default:
		panic("cpu: register index out of range")
	}
}

func (r *Registers) String() string {
	return "Registers{mode=" + r.Mode().String() + "}"
}
