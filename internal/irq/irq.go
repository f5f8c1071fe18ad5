// Package irq implements the GBA interrupt controller: the IE/IF/IME
// register trio and the single CPU-visible IRQ line, grounded on
// original_source/src/interrupt_controller.rs (the teacher repo has no
// equivalent component at all).
package irq

import (
	"gbacpu/internal/bitutil"
	"gbacpu/internal/cpuerr"
)

// Input is one of the 14 hardware interrupt sources (spec §6), numbered by
// their IE/IF bit position.
type Input uint8

const (
	VBlank Input = iota
	HBlank
	VCounter
	Timer0
	Timer1
	Timer2
	Timer3
	Serial
	Dma0
	Dma1
	Dma2
	Dma3
	Key
	GamePak
)

// Controller holds IE (mask), IF (flags), IME (enabled), and the derived
// CPU-visible line (asserted).
type Controller struct {
	enabled  bool
	asserted bool
	mask     uint16
	flags    uint16
}

// New returns a controller in its power-on state: everything disabled.
func New() *Controller { return &Controller{} }

// IsAsserted reports the current state of the CPU-visible IRQ line,
// sampled by the tick loop at the end of every tick (spec §4.7 step 6).
func (c *Controller) IsAsserted() bool { return c.asserted }

// Reset clears the asserted line only — IE/IF/IME are untouched — mirroring
// interrupt_controller.rs's reset(), which is called by the IRQ handler
// acknowledgement path, not a power-on reset.
func (c *Controller) Reset() { c.asserted = false }

// Assert raises input's IF bit and the CPU-visible line, both only if the
// corresponding IE bit is set; a masked input leaves IF unchanged.
func (c *Controller) Assert(input Input) {
	if bitutil.Bit(c.mask, uint(input)) {
		c.asserted = true
		c.flags = bitutil.SetBit(c.flags, uint(input), true)
	}
}

// ReadHalfword reads the IE/IF/IME register at the given I/O-relative
// offset (0x200, 0x202, or 0x208).
func (c *Controller) ReadHalfword(offset uint32) uint16 {
	switch offset {
	case 0x200:
		return c.mask
	case 0x202:
		return c.flags
	case 0x208:
		if c.enabled {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// WriteHalfword writes the IE/IF/IME register at the given offset.
// Writing IF clears each set bit the write also sets (write-1-to-clear);
// writing anything but 0 or 1 to IME is architecturally unpredictable
// (spec §7 category 2) and returns a non-nil error instead of applying the
// write.
func (c *Controller) WriteHalfword(offset uint32, value uint16) error {
	switch offset {
	case 0x200:
		c.mask = value & 0x3fff
	case 0x202:
		c.flags &^= value & 0x3fff
	case 0x208:
		switch value {
		case 0:
			c.enabled = false
		case 1:
			c.enabled = true
		default:
			return &cpuerr.UnpredictableError{Reason: "non-boolean value written to IME"}
		}
	}
	return nil
}
