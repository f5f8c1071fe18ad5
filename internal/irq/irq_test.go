package irq_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gbacpu/internal/irq"
)

var _ = Describe("Controller", func() {
	var c *irq.Controller

	BeforeEach(func() {
		c = irq.New()
	})

	Describe("power-on state", func() {
		It("starts with the line deasserted and IE/IF/IME at zero", func() {
			Expect(c.IsAsserted()).To(BeFalse())
			Expect(c.ReadHalfword(0x200)).To(Equal(uint16(0)))
			Expect(c.ReadHalfword(0x202)).To(Equal(uint16(0)))
			Expect(c.ReadHalfword(0x208)).To(Equal(uint16(0)))
		})
	})

	Describe("Assert", func() {
		Context("when the IE mask does not permit the input", func() {
			It("leaves the line deasserted and IF untouched", func() {
				c.Assert(irq.VBlank)
				Expect(c.IsAsserted()).To(BeFalse())
				Expect(c.ReadHalfword(0x202)).To(Equal(uint16(0)))
			})
		})

		Context("when the IE mask permits the input", func() {
			BeforeEach(func() {
				Expect(c.WriteHalfword(0x200, 1<<uint(irq.VBlank))).To(Succeed())
			})

			It("raises the line and sets the IF bit", func() {
				c.Assert(irq.VBlank)
				Expect(c.IsAsserted()).To(BeTrue())
				Expect(c.ReadHalfword(0x202)).To(Equal(uint16(1 << uint(irq.VBlank))))
			})

			It("does not raise the line for a different input", func() {
				c.Assert(irq.Key)
				Expect(c.IsAsserted()).To(BeFalse())
			})
		})
	})

	Describe("Reset", func() {
		It("clears only the asserted line, leaving IE/IF untouched", func() {
			Expect(c.WriteHalfword(0x200, 1<<uint(irq.Timer0))).To(Succeed())
			c.Assert(irq.Timer0)
			Expect(c.IsAsserted()).To(BeTrue())

			c.Reset()

			Expect(c.IsAsserted()).To(BeFalse())
			Expect(c.ReadHalfword(0x200)).To(Equal(uint16(1 << uint(irq.Timer0))))
			Expect(c.ReadHalfword(0x202)).To(Equal(uint16(1 << uint(irq.Timer0))))
		})
	})

	Describe("WriteHalfword(0x202) write-1-to-clear", func() {
		It("clears only the bits written as 1", func() {
			Expect(c.WriteHalfword(0x200, 0x3fff)).To(Succeed())
			c.Assert(irq.VBlank)
			c.Assert(irq.HBlank)
			Expect(c.ReadHalfword(0x202)).To(Equal(uint16(0b11)))

			Expect(c.WriteHalfword(0x202, 1<<uint(irq.VBlank))).To(Succeed())

			Expect(c.ReadHalfword(0x202)).To(Equal(uint16(1 << uint(irq.HBlank))))
		})
	})

	Describe("WriteHalfword(0x208) IME", func() {
		It("accepts 0 and 1", func() {
			Expect(c.WriteHalfword(0x208, 1)).To(Succeed())
			Expect(c.ReadHalfword(0x208)).To(Equal(uint16(1)))
			Expect(c.WriteHalfword(0x208, 0)).To(Succeed())
			Expect(c.ReadHalfword(0x208)).To(Equal(uint16(0)))
		})

		It("rejects any non-boolean value as architecturally unpredictable", func() {
			err := c.WriteHalfword(0x208, 2)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("WriteHalfword(0x200) IE mask", func() {
		It("is truncated to 14 bits", func() {
			Expect(c.WriteHalfword(0x200, 0xffff)).To(Succeed())
			Expect(c.ReadHalfword(0x200)).To(Equal(uint16(0x3fff)))
		})
	})
})
