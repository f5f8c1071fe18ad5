// Package memory implements the flat byte-addressable devices the bus
// dispatches to: BIOS (read-only), EWRAM, and IWRAM. Grounded on
// LJS360d-RoBA/internal/memory/{bios,ewram,iwram}.go, fixed so each device
// is self-contained (the teacher referenced size constants and an
// embedded-BIOS package that did not exist anywhere in the tree). Each
// device exposes Read8/Write8 only - the bus composes 16/32-bit accesses
// out of bytes itself (internal/bus/bus.go's Read16/Read32), so a second,
// wide accessor per device would be unreached dead weight.
package memory

const (
	// EWRAMSize is the 256KB on-board work RAM region (spec §6).
	EWRAMSize = 0x40000
	// IWRAMSize is the 32KB on-chip work RAM region (spec §6).
	IWRAMSize = 0x8000
	// BIOSSize is the 16KB boot ROM region (spec §6).
	BIOSSize = 0x4000
)

// EWRAM is the GBA's 256KB external work RAM.
type EWRAM struct{ data [EWRAMSize]byte }

func NewEWRAM() *EWRAM { return &EWRAM{} }

func (e *EWRAM) Read8(addr uint32) byte         { return e.data[addr%EWRAMSize] }
func (e *EWRAM) Write8(addr uint32, value byte) { e.data[addr%EWRAMSize] = value }

// IWRAM is the GBA's 32KB internal work RAM.
type IWRAM struct{ data [IWRAMSize]byte }

func NewIWRAM() *IWRAM { return &IWRAM{} }

func (i *IWRAM) Read8(addr uint32) byte         { return i.data[addr%IWRAMSize] }
func (i *IWRAM) Write8(addr uint32, value byte) { i.data[addr%IWRAMSize] = value }

// BIOS is the GBA's internal boot ROM: read-only, and injected by the host
// rather than embedded in the binary (spec §6: "the host provides the
// memory map... file-backed readers for BIOS and ROM are typical"). A read
// past the end of the supplied image returns zero rather than panicking,
// since a development host may supply a short or empty BIOS image.
type BIOS struct{ data []byte }

// NewBIOS wraps a host-supplied BIOS image. data may be shorter than
// BIOSSize or nil.
func NewBIOS(data []byte) *BIOS { return &BIOS{data: data} }

func (b *BIOS) Read8(addr uint32) byte {
	if int(addr) >= len(b.data) {
		return 0
	}
	return b.data[addr]
}
