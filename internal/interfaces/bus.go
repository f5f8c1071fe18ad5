package interfaces

import "gbacpu/internal/io"

// BusInterface is the external memory-map collaborator the CPU core
// consumes (spec §6). Reads/writes return an error so unmapped accesses
// and architecturally-unpredictable register writes (e.g. a non-boolean
// IME write) surface as the fatal conditions spec §7 requires, rather than
// being silently absorbed.
type BusInterface interface {
	GetIORegsPtr() *io.IORegs
	Read8(addr uint32) (uint8, error)
	Write8(addr uint32, value uint8) error
	Read16(addr uint32) (uint16, error)
	Write16(addr uint32, value uint16) error
	Read32(addr uint32) (uint32, error)
	Write32(addr uint32, value uint32) error
	Tick(cycles int)
}
