// Package ppu is a minimal, inert stand-in for the GBA's picture processing
// unit. Graphics rendering is an explicit Non-goal of the CPU core (spec
// §1); this package exists only so the bus's region dispatch for
// palette/VRAM/OAM and the DISPCNT/VCOUNT I/O registers stays total — a
// program that pokes those addresses observes plain read/write RAM (VCOUNT
// is read-only; writes to it are ignored) rather than faulting, matching real hardware's "the video controller is always
// there even when you don't use it" shape, without implementing any
// rendering pipeline.
package ppu

const (
	PaletteSize = 0x400
	VRAMSize    = 0x18000
	OAMSize     = 0x400
)

type PPU struct {
	palette [PaletteSize]byte
	vram    [VRAMSize]byte
	oam     [OAMSize]byte

	dispcnt uint16
	vcount  uint16
}

func New() *PPU { return &PPU{} }

func (p *PPU) ReadPalette8(addr uint32) uint8         { return p.palette[addr%PaletteSize] }
func (p *PPU) WritePalette8(addr uint32, value uint8) { p.palette[addr%PaletteSize] = value }
func (p *PPU) ReadVRAM8(addr uint32) uint8            { return p.vram[addr%VRAMSize] }
func (p *PPU) WriteVRAM8(addr uint32, value uint8)    { p.vram[addr%VRAMSize] = value }
func (p *PPU) ReadOAM8(addr uint32) uint8             { return p.oam[addr%OAMSize] }
func (p *PPU) WriteOAM8(addr uint32, value uint8)     { p.oam[addr%OAMSize] = value }

// IsIORegister reports whether the I/O-relative offset belongs to this
// component's register window (DISPCNT at 0x00, VCOUNT at 0x06).
func (p *PPU) IsIORegister(offset uint32) bool {
	return offset == 0x00 || offset == 0x01 || offset == 0x06 || offset == 0x07
}

func (p *PPU) ReadIORegister8(offset uint32) uint8 {
	switch offset {
	case 0x00:
		return uint8(p.dispcnt)
	case 0x01:
		return uint8(p.dispcnt >> 8)
	case 0x06:
		return uint8(p.vcount)
	case 0x07:
		return uint8(p.vcount >> 8)
	default:
		return 0
	}
}

func (p *PPU) WriteIORegister8(offset uint32, value uint8) {
	switch offset {
	case 0x00:
		p.dispcnt = (p.dispcnt & 0xFF00) | uint16(value)
	case 0x01:
		p.dispcnt = (p.dispcnt & 0x00FF) | uint16(value)<<8
	}
}

// Tick advances the scanline counter. No rendering occurs; this exists so
// the bus's Tick forwarding has somewhere harmless to go.
func (p *PPU) Tick(cycles int) {
	const cyclesPerScanline = 1232
	p.vcount = (p.vcount + uint16(cycles/cyclesPerScanline)) % 228
}
