// Package bus implements the GBA memory map the CPU core consumes through
// interfaces.BusInterface (spec §6). Grounded on
// LJS360d-RoBA/internal/bus/bus.go's region-dispatch shape, with its
// imports of nonexistent apu/dma/joypad/timer packages removed (those
// subsystems are explicit spec.md Non-goals and never existed anywhere in
// the retrieved tree) and unmapped/unpredictable accesses surfaced as
// errors instead of silently falling through to an open-bus value.
package bus

import (
	"gbacpu/internal/cartridge"
	"gbacpu/internal/cpuerr"
	"gbacpu/internal/interfaces"
	"gbacpu/internal/io"
	"gbacpu/internal/irq"
	"gbacpu/internal/memory"
	"gbacpu/internal/ppu"
	"gbacpu/util/dbg"
)

// Address map (spec §6).
const (
	biosStart, biosEnd     = 0x00000000, 0x00003FFF
	ewramStart, ewramEnd   = 0x02000000, 0x0203FFFF
	iwramStart, iwramEnd   = 0x03000000, 0x03007FFF
	ioStart, ioEnd         = 0x04000000, 0x040003FE
	palStart, palEnd       = 0x05000000, 0x050003FF
	vramStart, vramEnd     = 0x06000000, 0x06017FFF
	oamStart, oamEnd       = 0x07000000, 0x070003FF
	romWS0Start, romWS0End = 0x08000000, 0x09FFFFFF
	romWS1Start, romWS1End = 0x0A000000, 0x0BFFFFFF
	romWS2Start, romWS2End = 0x0C000000, 0x0DFFFFFF
	sramStart, sramEnd     = 0x0E000000, 0x0E00FFFF

	postflgAddr = 0x04000300
	haltcntAddr = 0x04000301
	memcntAddr  = 0x04000800
)

// Bus wires the external memory-map collaborators the CPU core reads and
// writes through. It satisfies interfaces.BusInterface.
type Bus struct {
	bios  *memory.BIOS
	ewram *memory.EWRAM
	iwram *memory.IWRAM
	io    *io.IORegs
	irq   *irq.Controller
	ppu   *ppu.PPU
	cart  *cartridge.Cartridge

	postflg byte
	haltcnt byte
	memcnt  uint32

	CycleCount uint64
}

// New creates a Bus over the given devices. bios/ewram/iwram/ppu/cart/io
// must all be non-nil.
func New(bios *memory.BIOS, ewram *memory.EWRAM, iwram *memory.IWRAM, p *ppu.PPU, cart *cartridge.Cartridge, ioRegs *io.IORegs, irqCtl *irq.Controller) *Bus {
	return &Bus{
		bios:  bios,
		ewram: ewram,
		iwram: iwram,
		io:    ioRegs,
		irq:   irqCtl,
		ppu:   p,
		cart:  cart,
	}
}

// GetIORegsPtr exposes the raw I/O register backing store for components
// (the PPU, the cartridge loader) that need to poke it directly.
func (b *Bus) GetIORegsPtr() *io.IORegs { return b.io }

// IRQController returns the bus's interrupt controller, so the tick loop
// can sample IsAsserted() and the host can drive external interrupt
// sources via Assert().
func (b *Bus) IRQController() *irq.Controller { return b.irq }

func (b *Bus) Read8(addr uint32) (uint8, error) {
	switch {
	case addr >= biosStart && addr <= biosEnd:
		return b.bios.Read8(addr - biosStart), nil

	case addr >= ewramStart && addr <= ewramEnd:
		return b.ewram.Read8(addr - ewramStart), nil

	case addr >= iwramStart && addr <= iwramEnd:
		return b.iwram.Read8(addr - iwramStart), nil

	case addr == postflgAddr:
		return b.postflg, nil

	case addr == haltcntAddr:
		return b.haltcnt, nil

	case addr >= memcntAddr && addr < memcntAddr+4:
		return byte(b.memcnt >> (8 * (addr - memcntAddr))), nil

	case isIRQRegister(addr):
		offset := addr - ioStart
		halfword := b.irq.ReadHalfword(offset &^ 1)
		if offset&1 == 0 {
			return byte(halfword), nil
		}
		return byte(halfword >> 8), nil

	case addr >= ioStart && addr <= ioEnd:
		offset := addr - ioStart
		if b.ppu.IsIORegister(offset) {
			return b.ppu.ReadIORegister8(offset), nil
		}
		return b.io.GetReg(offset), nil

	case addr >= palStart && addr <= palEnd:
		return b.ppu.ReadPalette8(addr - palStart), nil

	case addr >= vramStart && addr <= vramEnd:
		return b.ppu.ReadVRAM8(addr - vramStart), nil

	case addr >= oamStart && addr <= oamEnd:
		return b.ppu.ReadOAM8(addr - oamStart), nil

	case romRange(addr):
		return b.cart.ReadROM8(addr & 0x01FFFFFF), nil

	case addr >= sramStart && addr <= sramEnd:
		return b.cart.ReadSRAM8(addr - sramStart), nil

	default:
		dbg.Printf("bus: unmapped 8-bit read at %#08x\n", addr)
		return 0, &cpuerr.UnmappedAccessError{Addr: addr, Width: 8, Write: false}
	}
}

func (b *Bus) Write8(addr uint32, value uint8) error {
	switch {
	case addr >= biosStart && addr <= biosEnd:
		return &cpuerr.UnmappedAccessError{Addr: addr, Width: 8, Write: true}

	case addr >= ewramStart && addr <= ewramEnd:
		b.ewram.Write8(addr-ewramStart, value)
		return nil

	case addr >= iwramStart && addr <= iwramEnd:
		b.iwram.Write8(addr-iwramStart, value)
		return nil

	case addr == postflgAddr:
		if value > 1 {
			return &cpuerr.UnpredictableError{Reason: "non-boolean value written to POSTFLG"}
		}
		b.postflg = value
		return nil

	case addr == haltcntAddr:
		if value > 1 {
			return &cpuerr.UnpredictableError{Reason: "non-boolean value written to HALTCNT"}
		}
		b.haltcnt = value
		return nil

	case addr >= memcntAddr && addr < memcntAddr+4:
		shift := 8 * (addr - memcntAddr)
		b.memcnt = (b.memcnt &^ (0xFF << shift)) | uint32(value)<<shift
		return nil

	case isIRQRegister(addr):
		offset := addr - ioStart
		base := offset &^ 1
		cur := b.irq.ReadHalfword(base)
		if base == 0x202 {
			// IF is write-1-to-clear: the byte not written must not clear anything.
			cur = 0
		}
		var next uint16
		if offset&1 == 0 {
			next = (cur &^ 0xFF) | uint16(value)
		} else {
			next = (cur &^ 0xFF00) | uint16(value)<<8
		}
		return b.irq.WriteHalfword(base, next)

	case addr >= ioStart && addr <= ioEnd:
		offset := addr - ioStart
		if b.ppu.IsIORegister(offset) {
			b.ppu.WriteIORegister8(offset, value)
			return nil
		}
		b.io.SetReg(offset, value)
		return nil

	case addr >= palStart && addr <= palEnd:
		b.ppu.WritePalette8(addr-palStart, value)
		return nil

	case addr >= vramStart && addr <= vramEnd:
		b.ppu.WriteVRAM8(addr-vramStart, value)
		return nil

	case addr >= oamStart && addr <= oamEnd:
		b.ppu.WriteOAM8(addr-oamStart, value)
		return nil

	case romRange(addr):
		return &cpuerr.UnmappedAccessError{Addr: addr, Width: 8, Write: true}

	case addr >= sramStart && addr <= sramEnd:
		b.cart.WriteSRAM8(addr-sramStart, value)
		return nil

	default:
		dbg.Printf("bus: unmapped 8-bit write at %#08x\n", addr)
		return &cpuerr.UnmappedAccessError{Addr: addr, Width: 8, Write: true}
	}
}

func romRange(addr uint32) bool {
	return (addr >= romWS0Start && addr <= romWS0End) ||
		(addr >= romWS1Start && addr <= romWS1End) ||
		(addr >= romWS2Start && addr <= romWS2End)
}

// isIRQRegister reports whether addr falls in one of the three IE/IF/IME
// halfwords (0x04000200-0x04000201, 0x202-0x203, 0x208-0x209).
func isIRQRegister(addr uint32) bool {
	if addr < ioStart {
		return false
	}
	offset := addr - ioStart
	return offset == 0x200 || offset == 0x201 || offset == 0x202 || offset == 0x203 ||
		offset == 0x208 || offset == 0x209
}

func (b *Bus) Read16(addr uint32) (uint16, error) {
	lo, err := b.Read8(addr)
	if err != nil {
		return 0, err
	}
	hi, err := b.Read8(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func (b *Bus) Write16(addr uint32, value uint16) error {
	if err := b.Write8(addr, byte(value)); err != nil {
		return err
	}
	return b.Write8(addr+1, byte(value>>8))
}

func (b *Bus) Read32(addr uint32) (uint32, error) {
	lo, err := b.Read16(addr)
	if err != nil {
		return 0, err
	}
	hi, err := b.Read16(addr + 2)
	if err != nil {
		return 0, err
	}
	return uint32(lo) | uint32(hi)<<16, nil
}

func (b *Bus) Write32(addr uint32, value uint32) error {
	if err := b.Write16(addr, uint16(value)); err != nil {
		return err
	}
	return b.Write16(addr+2, uint16(value>>16))
}

// Tick advances bus-owned components that have their own timing. DMA,
// timers, and audio are explicit spec.md Non-goals and are not wired here
// (the teacher's draft imported nonexistent packages for them).
func (b *Bus) Tick(cycles int) {
	b.CycleCount += uint64(cycles)
	b.ppu.Tick(cycles)
}

var _ interfaces.BusInterface = (*Bus)(nil)
